package delta

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/weave/internal/subset"
	"github.com/roach88/weave/internal/text"
)

func mark(pattern string) subset.Subset {
	var b subset.Builder
	for _, c := range pattern {
		b.Add(1, c == 'x')
	}
	return b.Build()
}

func mustSimple(t *testing.T, baseLen, start, end int, s string) Delta {
	t.Helper()
	d, err := Simple(baseLen, start, end, s)
	require.NoError(t, err)
	return d
}

func TestBuilder_Apply(t *testing.T) {
	base := text.New("hello world")

	b := NewBuilder(base.Len())
	b.Replace(0, 1, "J")
	b.Delete(5, 6)
	b.Insert(11, "!")
	d, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, "Jelloworld!", d.Apply(base).String())
	assert.Equal(t, 11, d.BaseLen())
	assert.Equal(t, 11, d.NewLen())
}

func TestBuilder_InvalidRange(t *testing.T) {
	b := NewBuilder(5)
	b.Insert(3, "x")
	b.Delete(1, 2) // goes backwards
	b.Insert(4, "ignored")

	_, err := b.Build()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRange))

	_, err = Simple(3, 2, 4, "")
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestIdentity(t *testing.T) {
	assert.True(t, Identity(4).IsIdentity())
	assert.True(t, Identity(0).IsIdentity())
	assert.Equal(t, "abcd", Identity(4).Apply(text.New("abcd")).String())

	assert.True(t, mustSimple(t, 3, 1, 1, "").IsIdentity())
	assert.False(t, mustSimple(t, 3, 1, 1, "x").IsIdentity())
	assert.False(t, mustSimple(t, 3, 1, 2, "").IsIdentity())
}

func TestApply_LengthMismatchPanics(t *testing.T) {
	d := Identity(3)
	assert.Panics(t, func() { d.Apply(text.New("ab")) })
}

func TestElements_MergesAdjacent(t *testing.T) {
	b := NewBuilder(4)
	b.Insert(2, "a")
	b.Insert(2, "b")
	d, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, []Element{
		{Kind: Copy, Start: 0, End: 2},
		{Kind: Insert, Text: "ab"},
		{Kind: Copy, Start: 2, End: 4},
	}, d.Elements())
}

func TestFactor(t *testing.T) {
	base := text.New("abcdef")

	b := NewBuilder(base.Len())
	b.Replace(1, 3, "XY")
	b.Delete(4, 5)
	b.Insert(6, "Z")
	d, err := b.Build()
	require.NoError(t, err)
	require.Equal(t, "aXYdfZ", d.Apply(base).String())

	ins, dels := d.Factor()

	// Insertions keep every base character
	assert.Equal(t, "aXYbcdefZ", ins.Apply(base).String())
	assert.Equal(t, []Element{
		{Kind: Copy, Start: 0, End: 1},
		{Kind: Insert, Text: "XY"},
		{Kind: Copy, Start: 1, End: 6},
		{Kind: Insert, Text: "Z"},
	}, ins.Elements())

	// Deletions are in base coordinates
	assert.True(t, mark(".xx.x.").Equal(dels))

	// Re-applying the deletions after the insertions reproduces the edit
	kept := dels.Complement().TransformExpand(ins.InvertInsert())
	assert.Equal(t, "aXYdfZ", kept.Apply(ins.Apply(base)).String())
}

func TestFactor_PureDeletion(t *testing.T) {
	d := mustSimple(t, 5, 1, 4, "")
	ins, dels := d.Factor()

	assert.True(t, ins.IsIdentity())
	assert.Equal(t, 3, dels.Count())
	assert.True(t, ins.InvertInsert().IsTrivial())
}

func TestInvertInsert(t *testing.T) {
	d := mustSimple(t, 4, 2, 2, "xyz")
	inv := d.InvertInsert()

	assert.Equal(t, 7, inv.Len())
	assert.True(t, mark("..xxx..").Equal(inv))
}

func TestTransformExpand(t *testing.T) {
	// Old base "ab", union "aQQb" where QQ came from elsewhere
	xform := mark(".xx.")
	union := text.New("aQQb")

	tests := []struct {
		name  string
		pos   int
		after bool
		want  string
	}{
		{"gap with other insert, before", 1, false, "a--QQb"},
		{"gap with other insert, after", 1, true, "aQQ--b"},
		{"start of text", 0, true, "--aQQb"},
		{"end of text", 2, false, "aQQb--"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustSimple(t, 2, tt.pos, tt.pos, "--")
			got := d.TransformExpand(xform, tt.after)
			assert.Equal(t, 4, got.BaseLen())
			assert.Equal(t, tt.want, got.Apply(union).String())
		})
	}
}

func TestTransformExpand_TrailingInsertRun(t *testing.T) {
	// Old base "ab", other text appended at the end
	xform := mark("..xx")
	union := text.New("abQQ")
	d := mustSimple(t, 2, 2, 2, "--")

	assert.Equal(t, "ab--QQ", d.TransformExpand(xform, false).Apply(union).String())
	assert.Equal(t, "abQQ--", d.TransformExpand(xform, true).Apply(union).String())
}

func TestTransformExpand_MultipleInserts(t *testing.T) {
	xform := mark("x..x.")
	union := text.New("QabRc")

	b := NewBuilder(3)
	b.Insert(0, "1")
	b.Insert(2, "2")
	b.Insert(3, "3")
	d, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, "Q1abR2c3", d.TransformExpand(xform, true).Apply(union).String())
	assert.Equal(t, "1Qab2Rc3", d.TransformExpand(xform, false).Apply(union).String())
}

func TestTransformExpand_LengthMismatchPanics(t *testing.T) {
	d := Identity(3)
	assert.Panics(t, func() { d.TransformExpand(mark("..x"), true) })
}

func TestSynthesize(t *testing.T) {
	union := text.New("abcXYdef")
	from := mark("xxx..xxx") // abcdef
	to := mark("x..xxxx.")   // aXYde

	d := Synthesize(union, from, to)
	assert.Equal(t, 6, d.BaseLen())
	assert.Equal(t, "aXYde", d.Apply(text.New("abcdef")).String())
	assert.Equal(t, []Element{
		{Kind: Copy, Start: 0, End: 1},
		{Kind: Insert, Text: "XY"},
		{Kind: Copy, Start: 3, End: 5},
	}, d.Elements())
}

func TestSynthesize_NoChange(t *testing.T) {
	union := text.New("abc")
	s := mark("x.x")
	assert.True(t, Synthesize(union, s, s).IsIdentity())
}
