package text

import (
	"fmt"
	"strings"
)

// Sequence is an immutable run of text.
// The zero value is the empty sequence.
type Sequence struct {
	s string
}

// New creates a sequence holding s.
func New(s string) Sequence {
	return Sequence{s: s}
}

// Len returns the length in bytes.
func (q Sequence) Len() int {
	return len(q.s)
}

// String returns the contents.
func (q Sequence) String() string {
	return q.s
}

// IsEmpty reports whether the sequence has no bytes.
func (q Sequence) IsEmpty() bool {
	return len(q.s) == 0
}

// Slice returns the bytes in [start, end).
// Panics if the range is out of bounds.
func (q Sequence) Slice(start, end int) Sequence {
	if start < 0 || end > len(q.s) || start > end {
		panic(fmt.Sprintf("text: slice [%d:%d] out of range for length %d", start, end, len(q.s)))
	}
	return Sequence{s: q.s[start:end]}
}

// Concat returns q followed by other.
func (q Sequence) Concat(other Sequence) Sequence {
	if len(other.s) == 0 {
		return q
	}
	if len(q.s) == 0 {
		return other
	}
	return Sequence{s: q.s + other.s}
}

// Equal reports whether both sequences hold the same bytes.
func (q Sequence) Equal(other Sequence) bool {
	return q.s == other.s
}

// Builder assembles a Sequence from pieces without intermediate copies.
// The zero value is ready to use.
type Builder struct {
	sb strings.Builder
}

// Grow reserves room for n more bytes.
func (b *Builder) Grow(n int) {
	b.sb.Grow(n)
}

// WriteString appends s.
func (b *Builder) WriteString(s string) {
	b.sb.WriteString(s)
}

// WriteSlice appends q[start:end].
func (b *Builder) WriteSlice(q Sequence, start, end int) {
	b.sb.WriteString(q.s[start:end])
}

// Len returns the number of bytes written so far.
func (b *Builder) Len() int {
	return b.sb.Len()
}

// Build returns the assembled sequence.
func (b *Builder) Build() Sequence {
	return Sequence{s: b.sb.String()}
}
