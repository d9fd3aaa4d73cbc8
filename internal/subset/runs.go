package subset

import "fmt"

// Runs encodes the subset as alternating run lengths, starting with an
// unmarked run (which may be 0). This is the persisted form.
//
//	"..xxx." -> [2, 3, 1]
//	"xx"     -> [0, 2]
func (s Subset) Runs() []int {
	runs := make([]int, 0, len(s.segs)+1)
	if len(s.segs) > 0 && s.segs[0].Marked {
		runs = append(runs, 0)
	}
	for _, seg := range s.segs {
		runs = append(runs, seg.Len)
	}
	return runs
}

// FromRuns decodes the output of Runs.
func FromRuns(runs []int) (Subset, error) {
	var b Builder
	for i, n := range runs {
		if n < 0 {
			return Subset{}, fmt.Errorf("subset: negative run %d at index %d", n, i)
		}
		b.Add(n, i%2 == 1)
	}
	return b.Build(), nil
}
