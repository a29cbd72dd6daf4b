package engine

import "sync/atomic"

// Clock hands out strictly increasing submission numbers.
//
// The Dispatcher stamps every submitted unit of work with Clock.Next() so
// results can be correlated with submissions. The numbers say nothing about
// completion order: independently submitted units are not ordered.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
