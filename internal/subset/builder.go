package subset

// Builder appends runs left to right, merging adjacent runs with the same
// marking. The zero value is ready to use.
type Builder struct {
	segs []Segment
}

// Add appends n positions. Non-positive n is a no-op.
func (b *Builder) Add(n int, marked bool) {
	if n <= 0 {
		return
	}
	if last := len(b.segs) - 1; last >= 0 && b.segs[last].Marked == marked {
		b.segs[last].Len += n
		return
	}
	b.segs = append(b.segs, Segment{Len: n, Marked: marked})
}

// Build returns the subset. The builder must not be reused afterwards.
func (b *Builder) Build() Subset {
	return Subset{segs: b.segs}
}
