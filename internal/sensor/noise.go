package sensor

import (
	"math/rand"
	"sync"
	"time"
)

// NoiseSource supplies the uniform draws behind reading generation.
// Implemented by SeededSource (production) and ScriptedSource (tests).
//
// Every draw is uniform in [0, 1); the engine scales and shifts as needed.
// Injecting the source keeps the engine free of global rand state and makes
// reading generation reproducible under test.
type NoiseSource interface {
	Float64() float64
}

// SeededSource is a NoiseSource backed by math/rand with an explicit seed.
//
// Thread-safety: guarded by a mutex so diagnostic callers cannot corrupt the
// underlying generator, though the monitor loop is the only regular caller.
type SeededSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededSource creates a source from an explicit seed.
// The same seed always yields the same draw sequence.
func NewSeededSource(seed int64) *SeededSource {
	return &SeededSource{rng: rand.New(rand.NewSource(seed))}
}

// NewTimeSource creates a source seeded from the current time.
// Used by the CLI when no --seed flag is given.
func NewTimeSource() *SeededSource {
	return NewSeededSource(time.Now().UnixNano())
}

// Float64 returns the next uniform draw in [0, 1).
func (s *SeededSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// ScriptedSource returns predetermined draws for testing.
//
// The script cycles: once the last value is consumed, draws restart from the
// beginning. This lets short scripts drive arbitrarily long scenarios while
// keeping every tick's draws predictable.
//
// Thread-safety: safe for concurrent use via internal mutex.
type ScriptedSource struct {
	mu     sync.Mutex
	values []float64
	idx    int
}

// NewScriptedSource creates a source that replays the given draws in order.
//
// Example:
//
//	src := NewScriptedSource(0.5, 0.9)
//	src.Float64() // 0.5
//	src.Float64() // 0.9
//	src.Float64() // 0.5 (cycles)
//
// Panics if no values are given - an empty script is a test misconfiguration.
func NewScriptedSource(values ...float64) *ScriptedSource {
	if len(values) == 0 {
		panic("ScriptedSource: at least one value required")
	}
	return &ScriptedSource{values: values}
}

// Float64 returns the next scripted draw, cycling at the end of the script.
func (s *ScriptedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.idx]
	s.idx = (s.idx + 1) % len(s.values)
	return v
}
