package engine

import "sync/atomic"

// Clock hands out revision ids for one engine. The seed revision gets 1
// and every later revision the next integer. An id is issued at most
// once, including ids consumed by a mutation that was rolled back, so
// restored engines are started past the newest id they have seen.
type Clock struct {
	last atomic.Int64
}

// NewClock returns a clock that has issued nothing; Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt returns a clock whose last issued id is last.
func NewClockAt(last RevID) *Clock {
	c := &Clock{}
	c.last.Store(int64(last))
	return c
}

// Next issues the next id.
func (c *Clock) Next() RevID {
	return RevID(c.last.Add(1))
}

// Last returns the most recently issued id, 0 if none.
func (c *Clock) Last() RevID {
	return RevID(c.last.Load())
}

// Skip marks every id up to and including id as issued. It never moves
// the clock backwards.
func (c *Clock) Skip(id RevID) {
	for {
		cur := c.last.Load()
		if int64(id) <= cur || c.last.CompareAndSwap(cur, int64(id)) {
			return
		}
	}
}
