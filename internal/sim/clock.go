package sim

import "sync/atomic"

// Clock is a monotonic logical clock for frame sequencing.
//
// Frames carry seq numbers from Next rather than wall-clock timestamps, so two
// runs with the same seed produce identical traces.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0. The first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that continues after start.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next increments the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the latest value without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
