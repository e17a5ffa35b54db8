package sensor

import "sync/atomic"

// Clock is a monotonic logical clock for reading sequence stamps.
//
// Every reading is stamped with a strictly increasing seq number from this
// clock. This ensures:
// - Deterministic ordering (no wall-clock tie-breaking)
// - Stable golden traces across runs
// - History insertion order matches seq order
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// In practice the monitor loop is the only caller of Next().
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
// Used by tests that need readings stamped from a known position.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
