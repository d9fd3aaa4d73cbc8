package subset

import (
	"fmt"

	"github.com/roach88/weave/internal/text"
)

// Segment is one run of equally marked positions.
type Segment struct {
	Len    int
	Marked bool
}

// Subset is an immutable marking over a coordinate space.
// The zero value is the empty subset over a space of length 0.
type Subset struct {
	segs []Segment
}

// Empty returns a subset of length n with nothing marked.
func Empty(n int) Subset {
	var b Builder
	b.Add(n, false)
	return b.Build()
}

// Full returns a subset of length n with every position marked.
func Full(n int) Subset {
	var b Builder
	b.Add(n, true)
	return b.Build()
}

// FromSegments builds a subset from runs, normalizing them.
// Runs with non-positive length are dropped.
func FromSegments(segs []Segment) Subset {
	var b Builder
	for _, seg := range segs {
		b.Add(seg.Len, seg.Marked)
	}
	return b.Build()
}

// Range marks [start, end) in a space of length n.
func Range(n, start, end int) Subset {
	if start < 0 || end > n || start > end {
		panic(fmt.Sprintf("subset: range [%d:%d] out of bounds for length %d", start, end, n))
	}
	var b Builder
	b.Add(start, false)
	b.Add(end-start, true)
	b.Add(n-end, false)
	return b.Build()
}

// Segments returns a copy of the normalized runs.
func (s Subset) Segments() []Segment {
	out := make([]Segment, len(s.segs))
	copy(out, s.segs)
	return out
}

// Len returns the length of the coordinate space.
func (s Subset) Len() int {
	n := 0
	for _, seg := range s.segs {
		n += seg.Len
	}
	return n
}

// Count returns the number of marked positions.
func (s Subset) Count() int {
	n := 0
	for _, seg := range s.segs {
		if seg.Marked {
			n += seg.Len
		}
	}
	return n
}

// IsTrivial reports whether no position is marked.
func (s Subset) IsTrivial() bool {
	for _, seg := range s.segs {
		if seg.Marked {
			return false
		}
	}
	return true
}

// Contains reports whether position i is marked.
func (s Subset) Contains(i int) bool {
	off := 0
	for _, seg := range s.segs {
		if i < off+seg.Len {
			return seg.Marked
		}
		off += seg.Len
	}
	return false
}

// Equal reports whether both subsets cover the same space with the same
// marking.
func (s Subset) Equal(o Subset) bool {
	if len(s.segs) != len(o.segs) {
		return false
	}
	for i := range s.segs {
		if s.segs[i] != o.segs[i] {
			return false
		}
	}
	return true
}

// Complement flips every position.
func (s Subset) Complement() Subset {
	var b Builder
	for _, seg := range s.segs {
		b.Add(seg.Len, !seg.Marked)
	}
	return b.Build()
}

// Intersect returns the positions marked in both.
func (s Subset) Intersect(o Subset) Subset {
	return s.combine(o, func(a, b bool) bool { return a && b })
}

// Union returns the positions marked in either.
func (s Subset) Union(o Subset) Subset {
	return s.combine(o, func(a, b bool) bool { return a || b })
}

// Subtract returns the positions marked in s but not in o.
func (s Subset) Subtract(o Subset) Subset {
	return s.combine(o, func(a, b bool) bool { return a && !b })
}

// TransformExpand maps s into the unmarked positions of other and marks
// every position other marks. s.Len() must equal the number of unmarked
// positions in other; the result has length other.Len().
func (s Subset) TransformExpand(other Subset) Subset {
	return s.transform(other, true)
}

// TransformIntersect maps s into the unmarked positions of other and leaves
// every position other marks unmarked.
func (s Subset) TransformIntersect(other Subset) Subset {
	return s.transform(other, false)
}

// Apply returns the characters of q at marked positions, in order.
// q.Len() must equal s.Len().
func (s Subset) Apply(q text.Sequence) text.Sequence {
	if q.Len() != s.Len() {
		panic(fmt.Sprintf("subset: apply to text of length %d, want %d", q.Len(), s.Len()))
	}
	var b text.Builder
	b.Grow(s.Count())
	off := 0
	for _, seg := range s.segs {
		if seg.Marked {
			b.WriteSlice(q, off, off+seg.Len)
		}
		off += seg.Len
	}
	return b.Build()
}

// Zip walks two subsets of equal length together, calling fn for each
// maximal range [start, end) where both markings are constant.
func (s Subset) Zip(o Subset, fn func(start, end int, inS, inO bool)) {
	if s.Len() != o.Len() {
		panic(fmt.Sprintf("subset: zip of lengths %d and %d", s.Len(), o.Len()))
	}
	i, j := 0, 0
	ri, rj := 0, 0
	off := 0
	for i < len(s.segs) && j < len(o.segs) {
		a, c := s.segs[i], o.segs[j]
		n := min(a.Len-ri, c.Len-rj)
		fn(off, off+n, a.Marked, c.Marked)
		off += n
		ri += n
		rj += n
		if ri == a.Len {
			i++
			ri = 0
		}
		if rj == c.Len {
			j++
			rj = 0
		}
	}
}

func (s Subset) combine(o Subset, op func(a, b bool) bool) Subset {
	var b Builder
	s.Zip(o, func(start, end int, inS, inO bool) {
		b.Add(end-start, op(inS, inO))
	})
	return b.Build()
}

func (s Subset) transform(other Subset, markOther bool) Subset {
	if want := other.Len() - other.Count(); s.Len() != want {
		panic(fmt.Sprintf("subset: transform of length %d through %d unmarked positions", s.Len(), want))
	}
	var b Builder
	r := reader{segs: s.segs}
	for _, seg := range other.segs {
		if seg.Marked {
			b.Add(seg.Len, markOther)
			continue
		}
		r.copyTo(&b, seg.Len)
	}
	return b.Build()
}

// reader consumes a run list a prefix at a time.
type reader struct {
	segs []Segment
	idx  int
	off  int
}

func (r *reader) copyTo(b *Builder, n int) {
	for n > 0 {
		seg := r.segs[r.idx]
		k := min(seg.Len-r.off, n)
		b.Add(k, seg.Marked)
		r.off += k
		n -= k
		if r.off == seg.Len {
			r.idx++
			r.off = 0
		}
	}
}
