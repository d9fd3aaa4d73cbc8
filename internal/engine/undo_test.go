package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// appendAtEnd inserts s at the end of the current head in group.
func appendAtEnd(t *testing.T, e *Engine, priority, group int, s string) RevID {
	t.Helper()
	n := e.Head().Len()
	id, err := e.EditRev(priority, group, e.HeadRevID(), insert(t, n, n, s))
	require.NoError(t, err)
	return id
}

func TestUndo_SingleGroup(t *testing.T) {
	e := New("")
	appendAtEnd(t, e, 0, 1, "hello")
	appendAtEnd(t, e, 1, 2, " world")
	require.Equal(t, "hello world", e.Head().String())

	e.Undo(NewGroups(1))
	assert.Equal(t, " world", e.Head().String())

	groups, ok := e.CurrentUndo()
	require.True(t, ok)
	assert.Equal(t, []int{1}, groups.IDs())
}

func TestUndo_Orthogonality(t *testing.T) {
	e := New("")
	appendAtEnd(t, e, 0, 1, "A")
	appendAtEnd(t, e, 1, 0, "n")
	appendAtEnd(t, e, 2, 2, "B")
	appendAtEnd(t, e, 3, 0, "m")
	require.Equal(t, "AnBm", e.Head().String())

	tests := []struct {
		groups []int
		want   string
	}{
		{[]int{1}, "nBm"},
		{[]int{1, 2}, "nm"},
		{[]int{2}, "Anm"},
		{nil, "AnBm"},
		{[]int{0}, "AB"},
	}
	for _, tt := range tests {
		e.Undo(NewGroups(tt.groups...))
		assert.Equal(t, tt.want, e.Head().String(), "undo %v", tt.groups)
	}
}

func TestUndo_Delete(t *testing.T) {
	e := New("abc")
	_, err := e.EditRev(0, 1, e.HeadRevID(), replace(t, 3, 1, 2, ""))
	require.NoError(t, err)
	require.Equal(t, "ac", e.Head().String())

	e.Undo(NewGroups(1))
	assert.Equal(t, "abc", e.Head().String())

	e.Undo(NewGroups())
	assert.Equal(t, "ac", e.Head().String())
}

func TestUndo_DoesNotGrowUnion(t *testing.T) {
	e := New("")
	appendAtEnd(t, e, 0, 1, "abc")
	before := e.UnionLen()

	e.Undo(NewGroups(1))
	assert.Equal(t, before, e.UnionLen())
	assert.Equal(t, "", e.Head().String())
}

func TestUndo_ToggleInvolution(t *testing.T) {
	e := New("seed ")
	appendAtEnd(t, e, 0, 1, "one ")
	appendAtEnd(t, e, 1, 2, "two ")
	_, err := e.EditRev(2, 3, e.HeadRevID(), replace(t, e.Head().Len(), 0, 5, ""))
	require.NoError(t, err)
	before := e.Head().String()
	require.Equal(t, "one two ", before)

	for _, g := range [][]int{{1}, {3}, {1, 2, 3}, {2, 3}} {
		e.Toggle(NewGroups(g...))
		e.Toggle(NewGroups(g...))
		assert.Equal(t, before, e.Head().String(), "toggle %v twice", g)
	}
}

func TestUndo_ToggleAccumulates(t *testing.T) {
	e := New("")
	appendAtEnd(t, e, 0, 1, "a")
	appendAtEnd(t, e, 1, 2, "b")

	e.Toggle(NewGroups(1))
	assert.Equal(t, "b", e.Head().String())

	e.Toggle(NewGroups(2))
	assert.Equal(t, "", e.Head().String())
	groups, _ := e.CurrentUndo()
	assert.Equal(t, []int{1, 2}, groups.IDs())

	e.Toggle(NewGroups(1))
	assert.Equal(t, "a", e.Head().String())
}

func TestUndo_EditsAfterUndo(t *testing.T) {
	e := New("")
	appendAtEnd(t, e, 0, 1, "hello")
	e.Undo(NewGroups(1))
	require.Equal(t, "", e.Head().String())

	// Other groups show up normally
	appendAtEnd(t, e, 1, 2, "world")
	assert.Equal(t, "world", e.Head().String())

	// New edits in an undone group stay hidden
	appendAtEnd(t, e, 2, 1, "!")
	assert.Equal(t, "world", e.Head().String())

	e.Undo(NewGroups())
	assert.Equal(t, "helloworld!", e.Head().String())
}

func TestUndo_SkipsEarlierUndoRevisions(t *testing.T) {
	e := New("x")
	appendAtEnd(t, e, 0, 1, "y")
	e.Undo(NewGroups(1))
	e.Undo(NewGroups(1))
	e.Undo(NewGroups())

	assert.Equal(t, "xy", e.Head().String())
	assert.Equal(t, 5, e.Len())
}

func TestGroups(t *testing.T) {
	g := NewGroups(3, 1, 3, 2)
	assert.Equal(t, []int{1, 2, 3}, g.IDs())
	assert.Equal(t, 3, g.Len())
	assert.True(t, g.Contains(2))
	assert.False(t, g.Contains(4))

	assert.True(t, g.Equal(NewGroups(1, 2, 3)))
	assert.Equal(t, []int{1, 2, 3, 5}, g.Union(NewGroups(5, 1)).IDs())
	assert.Equal(t, []int{1, 4}, g.SymmetricDifference(NewGroups(2, 3, 4)).IDs())
	assert.Equal(t, 0, NewGroups().Len())

	// IDs returns a copy
	ids := g.IDs()
	ids[0] = 99
	assert.Equal(t, []int{1, 2, 3}, g.IDs())
}
