package engine

import "sync/atomic"

// Clock is a monotonic logical clock. The engine stamps every code-run
// write with Clock.Next as the cell's LastModified value, so two runs of the
// same cell are always ordered without consulting wall time.
//
// Replays start the clock past the highest stamp in the log (NewClockAt) so
// new writes sort after restored ones.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose next stamp is start+1.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new stamp.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last stamp handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// Observe moves the clock forward to at least seen. Stamps restored from a
// log or a peer are observed so later local writes stay ordered after them.
func (c *Clock) Observe(seen int64) {
	for {
		cur := c.seq.Load()
		if seen <= cur || c.seq.CompareAndSwap(cur, seen) {
			return
		}
	}
}
