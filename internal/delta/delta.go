package delta

import (
	"fmt"

	"github.com/roach88/weave/internal/subset"
	"github.com/roach88/weave/internal/text"
)

// Kind distinguishes delta elements.
type Kind uint8

const (
	// Copy keeps base[Start:End].
	Copy Kind = iota + 1
	// Insert adds Text.
	Insert
)

func (k Kind) String() string {
	switch k {
	case Copy:
		return "copy"
	case Insert:
		return "insert"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Element is one step of a delta.
type Element struct {
	Kind  Kind
	Start int
	End   int
	Text  string
}

// Delta is an immutable edit over a base sequence of BaseLen bytes.
//
// Copy ranges are strictly increasing and never overlap. Adjacent elements
// of the same kind are merged, and no element is empty.
type Delta struct {
	els     []Element
	baseLen int
}

// Identity returns the delta that leaves a base of length n unchanged.
func Identity(n int) Delta {
	d := Delta{baseLen: n}
	d.push(Element{Kind: Copy, Start: 0, End: n})
	return d
}

// BaseLen returns the length of the sequence the delta applies to.
func (d Delta) BaseLen() int {
	return d.baseLen
}

// NewLen returns the length of the sequence the delta produces.
func (d Delta) NewLen() int {
	n := 0
	for _, el := range d.els {
		if el.Kind == Copy {
			n += el.End - el.Start
		} else {
			n += len(el.Text)
		}
	}
	return n
}

// Elements returns a copy of the elements.
func (d Delta) Elements() []Element {
	out := make([]Element, len(d.els))
	copy(out, d.els)
	return out
}

// IsIdentity reports whether applying d leaves the base unchanged.
func (d Delta) IsIdentity() bool {
	switch len(d.els) {
	case 0:
		return d.baseLen == 0
	case 1:
		el := d.els[0]
		return el.Kind == Copy && el.Start == 0 && el.End == d.baseLen
	default:
		return false
	}
}

// Apply produces the edited sequence. q.Len() must equal BaseLen.
func (d Delta) Apply(q text.Sequence) text.Sequence {
	if q.Len() != d.baseLen {
		panic(fmt.Sprintf("delta: apply to text of length %d, want %d", q.Len(), d.baseLen))
	}
	var b text.Builder
	b.Grow(d.NewLen())
	for _, el := range d.els {
		if el.Kind == Copy {
			b.WriteSlice(q, el.Start, el.End)
		} else {
			b.WriteString(el.Text)
		}
	}
	return b.Build()
}

// Factor splits d into an insert-only delta and the subset of base
// positions d deletes. Both are in base coordinates. An insertion that
// replaces a deleted range sits at the start of that range.
func (d Delta) Factor() (Delta, subset.Subset) {
	ins := Delta{baseLen: d.baseLen}
	var dels subset.Builder
	cursor := 0
	for _, el := range d.els {
		switch el.Kind {
		case Copy:
			dels.Add(el.Start-cursor, true)
			dels.Add(el.End-el.Start, false)
			ins.push(Element{Kind: Copy, Start: cursor, End: el.End})
			cursor = el.End
		case Insert:
			ins.push(Element{Kind: Copy, Start: ins.copiedTo(), End: cursor})
			ins.push(el)
		}
	}
	dels.Add(d.baseLen-cursor, true)
	ins.push(Element{Kind: Copy, Start: ins.copiedTo(), End: d.baseLen})
	return ins, dels.Build()
}

// InvertInsert returns the subset of output positions that d inserted,
// over a space of length NewLen.
func (d Delta) InvertInsert() subset.Subset {
	var b subset.Builder
	for _, el := range d.els {
		if el.Kind == Copy {
			b.Add(el.End-el.Start, false)
		} else {
			b.Add(len(el.Text), true)
		}
	}
	return b.Build()
}

// TransformExpand moves the insertions of d into the larger coordinate
// space described by xform, whose unmarked positions are the base of d.
// When an insertion falls on a gap where xform has marked positions, it is
// placed after them if after is set and before them otherwise.
//
// Only insertions are carried over; call it on the insert half of Factor.
func (d Delta) TransformExpand(xform subset.Subset, after bool) Delta {
	if want := xform.Len() - xform.Count(); d.baseLen != want {
		panic(fmt.Sprintf("delta: transform of base %d through %d unmarked positions", d.baseLen, want))
	}
	out := Delta{baseLen: xform.Len()}
	w := gapWalker{segs: xform.Segments()}
	cursor := 0
	for _, el := range d.els {
		switch el.Kind {
		case Copy:
			cursor = el.End
		case Insert:
			p := w.seek(cursor, after)
			out.push(Element{Kind: Copy, Start: out.copiedTo(), End: p})
			out.push(el)
		}
	}
	out.push(Element{Kind: Copy, Start: out.copiedTo(), End: out.baseLen})
	return out
}

// Synthesize builds the minimal delta taking from.Apply(union) to
// to.Apply(union). Both subsets must cover union.
func Synthesize(union text.Sequence, from, to subset.Subset) Delta {
	d := Delta{baseLen: from.Count()}
	base := 0
	from.Zip(to, func(start, end int, inFrom, inTo bool) {
		n := end - start
		switch {
		case inFrom && inTo:
			d.push(Element{Kind: Copy, Start: base, End: base + n})
			base += n
		case inFrom:
			base += n
		case inTo:
			d.push(Element{Kind: Insert, Text: union.Slice(start, end).String()})
		}
	})
	return d
}

// copiedTo returns the base position just past the last Copy element.
func (d *Delta) copiedTo() int {
	for i := len(d.els) - 1; i >= 0; i-- {
		if d.els[i].Kind == Copy {
			return d.els[i].End
		}
	}
	return 0
}

// push appends el, dropping empty elements and merging with the previous
// element where possible.
func (d *Delta) push(el Element) {
	switch el.Kind {
	case Copy:
		if el.End <= el.Start {
			return
		}
	case Insert:
		if el.Text == "" {
			return
		}
	}
	if last := len(d.els) - 1; last >= 0 {
		prev := &d.els[last]
		if prev.Kind == Insert && el.Kind == Insert {
			prev.Text += el.Text
			return
		}
		if prev.Kind == Copy && el.Kind == Copy && prev.End == el.Start {
			prev.End = el.End
			return
		}
	}
	d.els = append(d.els, el)
}

// gapWalker maps gaps of an old coordinate space onto a larger one whose
// marked positions are new. Seeks must be non-decreasing.
type gapWalker struct {
	segs []subset.Segment
	idx  int
	off  int
	old  int
	pos  int
}

// seek returns the new position for old gap g: before any marked run at
// that gap, or after it when after is set.
func (w *gapWalker) seek(g int, after bool) int {
	for w.idx < len(w.segs) {
		seg := w.segs[w.idx]
		rem := seg.Len - w.off
		if seg.Marked {
			if w.old == g && !after {
				return w.pos
			}
			w.pos += rem
			w.idx++
			w.off = 0
			continue
		}
		if w.old == g {
			return w.pos
		}
		k := min(rem, g-w.old)
		w.old += k
		w.pos += k
		w.off += k
		if w.off == seg.Len {
			w.idx++
			w.off = 0
		}
	}
	return w.pos
}
