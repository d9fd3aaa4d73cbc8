package delta

import (
	"errors"
	"fmt"
)

// ErrInvalidRange is returned when an edit range is out of bounds or out
// of order.
var ErrInvalidRange = errors.New("invalid edit range")

// Builder assembles a Delta from edits given in increasing base order.
//
//	b := delta.NewBuilder(base.Len())
//	b.Delete(0, 3)
//	b.Insert(5, "hi")
//	d, err := b.Build()
//
// The first invalid edit is remembered and reported by Build; later edits
// are ignored.
type Builder struct {
	d      Delta
	cursor int
	err    error
}

// NewBuilder creates a builder over a base of length baseLen.
func NewBuilder(baseLen int) *Builder {
	return &Builder{d: Delta{baseLen: baseLen}}
}

// Replace replaces base[start:end] with s. start must not precede the end
// of the previous edit.
func (b *Builder) Replace(start, end int, s string) {
	if b.err != nil {
		return
	}
	if start < b.cursor || end < start || end > b.d.baseLen {
		b.err = fmt.Errorf("%w: [%d:%d] after %d in base of length %d",
			ErrInvalidRange, start, end, b.cursor, b.d.baseLen)
		return
	}
	b.d.push(Element{Kind: Copy, Start: b.cursor, End: start})
	b.d.push(Element{Kind: Insert, Text: s})
	b.cursor = end
}

// Insert inserts s before base position pos.
func (b *Builder) Insert(pos int, s string) {
	b.Replace(pos, pos, s)
}

// Delete removes base[start:end].
func (b *Builder) Delete(start, end int) {
	b.Replace(start, end, "")
}

// Build returns the delta, or the first range error.
func (b *Builder) Build() (Delta, error) {
	if b.err != nil {
		return Delta{}, b.err
	}
	d := Delta{baseLen: b.d.baseLen, els: append([]Element(nil), b.d.els...)}
	d.push(Element{Kind: Copy, Start: b.cursor, End: d.baseLen})
	return d, nil
}

// Simple builds a delta replacing base[start:end] with s.
func Simple(baseLen, start, end int, s string) (Delta, error) {
	b := NewBuilder(baseLen)
	b.Replace(start, end, s)
	return b.Build()
}
