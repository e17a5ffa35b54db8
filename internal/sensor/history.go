package sensor

import "sync"

// DefaultHistoryCapacity is the default bound on retained readings.
const DefaultHistoryCapacity = 100

// History is a mutex-guarded bounded FIFO of readings.
//
// Insertion order is the temporal order of ticks. When an append would exceed
// capacity the oldest reading is evicted; at most one reading is appended per
// call, so at most one eviction happens per append.
//
// Thread-safety is provided so diagnostic readers (Smooth, the CLI summary)
// can observe the history while the monitor loop appends. In practice most
// usage is single-threaded.
type History struct {
	mu       sync.Mutex
	readings []*Reading
	capacity int
}

// NewHistory creates an empty history with the given capacity.
// Non-positive capacities fall back to DefaultHistoryCapacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{
		readings: make([]*Reading, 0, capacity),
		capacity: capacity,
	}
}

// Append adds a reading to the back, evicting the oldest if over capacity.
func (h *History) Append(r *Reading) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.readings = append(h.readings, r)
	if len(h.readings) > h.capacity {
		// Nil out the evicted slot so the backing array releases the
		// reading; without this the array retains references until
		// reallocation, leaking under steady load.
		h.readings[0] = nil
		h.readings = h.readings[1:]
	}
}

// Len returns the number of retained readings.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.readings)
}

// Capacity returns the retention bound.
func (h *History) Capacity() int {
	return h.capacity
}

// Tail returns a copy of the last n readings in insertion order.
// If fewer than n are retained, all of them are returned.
func (h *History) Tail(n int) []*Reading {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n > len(h.readings) {
		n = len(h.readings)
	}
	if n <= 0 {
		return nil
	}
	tail := make([]*Reading, n)
	copy(tail, h.readings[len(h.readings)-n:])
	return tail
}

// Snapshot returns a copy of all retained readings in insertion order.
func (h *History) Snapshot() []*Reading {
	h.mu.Lock()
	defer h.mu.Unlock()

	snapshot := make([]*Reading, len(h.readings))
	copy(snapshot, h.readings)
	return snapshot
}

// Clear drops all retained readings, keeping the capacity.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.readings {
		h.readings[i] = nil
	}
	h.readings = h.readings[:0]
}
