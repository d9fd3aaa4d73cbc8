package subset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/weave/internal/text"
)

// mark builds a subset from a pattern where 'x' is marked and '.' is not.
func mark(pattern string) Subset {
	var b Builder
	for _, c := range pattern {
		b.Add(1, c == 'x')
	}
	return b.Build()
}

// pattern renders a subset in the notation mark accepts.
func pattern(s Subset) string {
	out := make([]byte, 0, s.Len())
	for _, seg := range s.Segments() {
		for i := 0; i < seg.Len; i++ {
			if seg.Marked {
				out = append(out, 'x')
			} else {
				out = append(out, '.')
			}
		}
	}
	return string(out)
}

func TestBuilder_MergesRuns(t *testing.T) {
	var b Builder
	b.Add(2, true)
	b.Add(3, true)
	b.Add(0, false)
	b.Add(-1, false)
	b.Add(1, false)
	s := b.Build()

	assert.Equal(t, []Segment{{Len: 5, Marked: true}, {Len: 1, Marked: false}}, s.Segments())
	assert.Equal(t, 6, s.Len())
	assert.Equal(t, 5, s.Count())
}

func TestConstructors(t *testing.T) {
	assert.Equal(t, "....", pattern(Empty(4)))
	assert.Equal(t, "xxxx", pattern(Full(4)))
	assert.Equal(t, ".xx..", pattern(Range(5, 1, 3)))
	assert.Equal(t, 0, Empty(0).Len())
	assert.True(t, Full(0).IsTrivial())
	assert.Panics(t, func() { Range(3, 2, 4) })

	s := FromSegments([]Segment{{Len: 1, Marked: true}, {Len: 0, Marked: false}, {Len: 2, Marked: true}})
	assert.Equal(t, "xxx", pattern(s))
	assert.Len(t, s.Segments(), 1)
}

func TestIsTrivialAndContains(t *testing.T) {
	assert.True(t, Empty(5).IsTrivial())
	assert.False(t, mark("..x").IsTrivial())

	s := mark(".x.xx")
	want := []bool{false, true, false, true, true}
	for i, w := range want {
		assert.Equal(t, w, s.Contains(i), "position %d", i)
	}
	assert.False(t, s.Contains(5))
}

func TestSetOperations(t *testing.T) {
	a := mark("xx..x.")
	b := mark(".xx.xx")

	assert.Equal(t, ".x..x.", pattern(a.Intersect(b)))
	assert.Equal(t, "xxx.xx", pattern(a.Union(b)))
	assert.Equal(t, "x.....", pattern(a.Subtract(b)))
	assert.Equal(t, "..xx.x", pattern(a.Complement()))
}

func TestSetOperations_LengthMismatchPanics(t *testing.T) {
	assert.Panics(t, func() { mark("xx").Intersect(mark("x")) })
}

func TestTransformExpand(t *testing.T) {
	tests := []struct {
		name  string
		s     string
		other string
		want  string
	}{
		{"insert in middle", "x.", ".xx.", "xxx."},
		{"insert at start", "xx", "x..", "xxx"},
		{"insert at end", ".x", "..xx", ".xxx"},
		{"nothing inserted", "x.x", "...", "x.x"},
		{"empty source", "", "xxx", "xxx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mark(tt.s).TransformExpand(mark(tt.other))
			assert.Equal(t, tt.want, pattern(got))
		})
	}
}

func TestTransformIntersect(t *testing.T) {
	tests := []struct {
		name  string
		s     string
		other string
		want  string
	}{
		{"insert in middle", "xx", ".xx.", "x..x"},
		{"insert at start", "xx", "x..", ".xx"},
		{"everything inserted", "", "xx", ".."},
		{"unmarked source", "..", ".x.", "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mark(tt.s).TransformIntersect(mark(tt.other))
			assert.Equal(t, tt.want, pattern(got))
		})
	}
}

func TestTransform_LengthMismatchPanics(t *testing.T) {
	// other has three unmarked positions, s has two
	assert.Panics(t, func() { mark("xx").TransformExpand(mark("...x")) })
}

func TestApply(t *testing.T) {
	q := text.New("abcdef")
	assert.Equal(t, "bcf", mark(".xx..x").Apply(q).String())
	assert.Equal(t, "", Empty(6).Apply(q).String())
	assert.Equal(t, "abcdef", Full(6).Apply(q).String())
	assert.Panics(t, func() { Full(3).Apply(q) })
}

func TestZip(t *testing.T) {
	type run struct {
		start, end int
		a, b       bool
	}
	var runs []run
	mark("xx..").Zip(mark("x.x."), func(start, end int, a, b bool) {
		runs = append(runs, run{start, end, a, b})
	})

	require.Len(t, runs, 4)
	assert.Equal(t, run{0, 1, true, true}, runs[0])
	assert.Equal(t, run{1, 2, true, false}, runs[1])
	assert.Equal(t, run{2, 3, false, true}, runs[2])
	assert.Equal(t, run{3, 4, false, false}, runs[3])
}

func TestEqual(t *testing.T) {
	assert.True(t, mark("x.x").Equal(mark("x.x")))
	assert.False(t, mark("x.x").Equal(mark("x..")))
	assert.False(t, mark("x.").Equal(mark("x..")))
	assert.True(t, Subset{}.Equal(Empty(0)))
}

func TestImmutability(t *testing.T) {
	s := mark("x.x")
	segs := s.Segments()
	segs[0].Marked = false
	assert.Equal(t, "x.x", pattern(s))

	_ = s.Complement()
	expanded := s.TransformExpand(mark(".x.."))
	assert.Equal(t, "xx.x", pattern(expanded))
	_ = s.TransformIntersect(mark("..x."))
	assert.Equal(t, "x.x", pattern(s))
}

func TestRuns_RoundTrip(t *testing.T) {
	tests := []struct {
		pattern string
		runs    []int
	}{
		{"..xxx.", []int{2, 3, 1}},
		{"xx", []int{0, 2}},
		{"...", []int{3}},
		{"", []int{}},
		{"x.x", []int{0, 1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			s := mark(tt.pattern)
			assert.Equal(t, tt.runs, s.Runs())

			back, err := FromRuns(tt.runs)
			require.NoError(t, err)
			assert.True(t, s.Equal(back))
		})
	}
}

func TestFromRuns_Negative(t *testing.T) {
	_, err := FromRuns([]int{1, -2})
	assert.Error(t, err)
}
