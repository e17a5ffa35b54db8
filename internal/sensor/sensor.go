package sensor

import (
	"log/slog"
	"math"
	"sync"
)

// Simulation constants. These define the shape of generated readings; the
// values themselves are stochastic via the injected NoiseSource.
const (
	// NoiseLevel bounds the uniform noise added to the midpoint target.
	NoiseLevel = 0.3

	// SpikeChance is the per-tick probability of an additional signed spike.
	SpikeChance = 0.05

	// SpikeMagnitude bounds the uniform spike magnitude.
	SpikeMagnitude = 3.0

	// FaultDriftMax bounds the per-tick upward drift in fault mode.
	FaultDriftMax = 2.0

	// FaultCeilingOffset is added to maxValue to cap fault-mode drift.
	FaultCeilingOffset = 10.0

	// SmoothWindow is the number of recent readings averaged by Smooth.
	SmoothWindow = 5

	// AnomalyWindow is the number of recent readings forming the baseline.
	AnomalyWindow = 10

	// AnomalyBaselineMin is the minimum history size for anomaly detection.
	AnomalyBaselineMin = 5

	// AnomalyThreshold is the deviation beyond which a reading is anomalous.
	AnomalyThreshold = 1.5

	// AbsoluteZero is the physical floor for any configured range.
	AbsoluteZero = -273.15
)

// Engine is the virtual temperature sensor.
//
// Lifecycle: Unconfigured -> Initialize -> Stopped -> Start -> Running ->
// Shutdown -> Stopped (history cleared). SimulateReading succeeds only while
// running. Fault injection is an orthogonal flag on the running state.
//
// All state mutations happen under one mutex; the engine assumes a single
// driving caller and the lock only protects diagnostic reads.
type Engine struct {
	mu sync.Mutex

	src   NoiseSource
	clock *Clock
	log   *slog.Logger

	name     string
	location string
	minValue float64
	maxValue float64

	configured    bool
	running       bool
	faultInjected bool

	current float64
	history *History
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithLogger overrides the default slog logger for engine notices.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithClock overrides the engine's sequence clock.
// Used by tests that need readings stamped from a known position.
func WithClock(clock *Clock) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithHistoryCapacity overrides the reading history bound.
func WithHistoryCapacity(capacity int) Option {
	return func(e *Engine) {
		if capacity > 0 {
			e.history = NewHistory(capacity)
		}
	}
}

// New creates an unconfigured Engine drawing noise from src.
//
// The source is required: reading generation has no fallback randomness.
// Options can be passed to configure the engine (e.g., WithLogger).
func New(src NoiseSource, opts ...Option) *Engine {
	e := &Engine{
		src:     src,
		clock:   NewClock(),
		log:     slog.Default(),
		history: NewHistory(DefaultHistoryCapacity),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize configures the sensor's identity and operating range.
//
// Fails with INVALID_ARGUMENT if name or location is blank, if
// minValue >= maxValue, or if minValue is below absolute zero. On success the
// current temperature seeds to the range midpoint and the engine is left
// stopped with the fault flag clear.
//
// Re-initializing an already-configured engine re-validates and replaces the
// identity and range; it does not clear history.
func (e *Engine) Initialize(name, location string, minValue, maxValue float64) error {
	if name == "" {
		return NewInvalidArgumentError("sensor name must not be empty")
	}
	if location == "" {
		return NewInvalidArgumentError("sensor location must not be empty")
	}
	if minValue >= maxValue {
		return NewInvalidArgumentError("minValue must be less than maxValue")
	}
	if minValue < AbsoluteZero {
		return NewInvalidArgumentError("minValue must not be below absolute zero")
	}

	e.mu.Lock()
	e.name = name
	e.location = location
	e.minValue = minValue
	e.maxValue = maxValue
	e.current = (minValue + maxValue) / 2
	e.running = false
	e.faultInjected = false
	e.configured = true
	e.mu.Unlock()

	e.log.Info("sensor initialized",
		"sensor", name,
		"location", location,
		"min_value", minValue,
		"max_value", maxValue,
	)
	return nil
}

// Start flips the engine into the running state.
//
// Idempotent: starting a running engine emits a warning notice and changes
// nothing. Fails with INVALID_STATE if the engine was never initialized.
func (e *Engine) Start() error {
	e.mu.Lock()
	if !e.configured {
		e.mu.Unlock()
		return NewInvalidStateError("", "start requires an initialized sensor")
	}
	if e.running {
		name := e.name
		e.mu.Unlock()
		e.log.Warn("sensor already running", "sensor", name)
		return nil
	}
	e.running = true
	name := e.name
	e.mu.Unlock()

	e.log.Info("sensor started", "sensor", name)
	return nil
}

// SimulateReading generates the next temperature value.
//
// Fails with INVALID_STATE if the engine is not running.
//
// Normal mode targets the range midpoint with uniform noise in ±NoiseLevel,
// plus - with probability SpikeChance - a signed spike with magnitude uniform
// in [0, SpikeMagnitude]. Fault mode drifts the current temperature upward by
// a uniform step in [0, FaultDriftMax], clamped at maxValue+FaultCeilingOffset.
//
// The result is rounded to 2 decimal places and the rounded value becomes the
// seed for the next tick, so the observable reading and internal state never
// diverge.
func (e *Engine) SimulateReading() (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return 0, NewInvalidStateError(e.name, "simulate requires a running sensor")
	}

	var value float64
	if e.faultInjected {
		value = e.current + e.src.Float64()*FaultDriftMax
		if ceiling := e.maxValue + FaultCeilingOffset; value > ceiling {
			value = ceiling
		}
	} else {
		target := (e.minValue + e.maxValue) / 2
		noise := (e.src.Float64()*2 - 1) * NoiseLevel
		value = target + noise
		if e.src.Float64() < SpikeChance {
			spike := e.src.Float64() * SpikeMagnitude
			if e.src.Float64() < 0.5 {
				spike = -spike
			}
			value += spike
		}
	}

	value = round2(value)
	e.current = value
	return value, nil
}

// ValidateReading reports whether a reading lies within the operating range.
// Pure predicate: rendering a failure is the caller's concern.
// Fails with NIL_READING if the reading is absent.
func (e *Engine) ValidateReading(r *Reading) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if r == nil {
		return false, NewNilReadingError("validate", e.name)
	}
	return r.Value >= e.minValue && r.Value <= e.maxValue, nil
}

// RecordReading appends a reading to the bounded history.
// Fails with NIL_READING if the reading is absent.
func (e *Engine) RecordReading(r *Reading) error {
	if r == nil {
		e.mu.Lock()
		name := e.name
		e.mu.Unlock()
		return NewNilReadingError("record", name)
	}
	e.history.Append(r)
	return nil
}

// Smooth returns the moving average of the most recent readings.
//
// The mean covers the last min(SmoothWindow, historySize) readings in
// insertion order, rounded to 2 decimal places. Returns 0 on empty history.
func (e *Engine) Smooth() float64 {
	tail := e.history.Tail(SmoothWindow)
	if len(tail) == 0 {
		return 0
	}
	return round2(mean(tail))
}

// DetectAnomaly reports whether a reading deviates from the recent baseline.
//
// Returns false while the history holds fewer than AnomalyBaselineMin
// readings. Otherwise the baseline is the mean of the last
// min(AnomalyWindow, historySize) recorded readings; the verdict is true iff
// the candidate's absolute deviation strictly exceeds AnomalyThreshold.
//
// The candidate itself is never consulted from history, so the verdict does
// not depend on whether the candidate was already recorded.
// Fails with NIL_READING if the reading is absent.
func (e *Engine) DetectAnomaly(r *Reading) (bool, error) {
	if r == nil {
		e.mu.Lock()
		name := e.name
		e.mu.Unlock()
		return false, NewNilReadingError("detect", name)
	}

	if e.history.Len() < AnomalyBaselineMin {
		return false, nil
	}
	baseline := mean(e.history.Tail(AnomalyWindow))
	return math.Abs(r.Value-baseline) > AnomalyThreshold, nil
}

// CheckThreshold reports whether a reading breaches the alert thresholds.
// True iff the value is below minThreshold or above maxThreshold.
// Fails with NIL_READING if the reading is absent.
func (e *Engine) CheckThreshold(r *Reading, minThreshold, maxThreshold float64) (bool, error) {
	if r == nil {
		e.mu.Lock()
		name := e.name
		e.mu.Unlock()
		return false, NewNilReadingError("threshold", name)
	}
	return r.Value < minThreshold || r.Value > maxThreshold, nil
}

// InjectFault switches reading generation into cooling-fault drift mode.
// Idempotent by construction.
func (e *Engine) InjectFault() {
	e.mu.Lock()
	e.faultInjected = true
	name := e.name
	e.mu.Unlock()

	e.log.Info("fault injected", "sensor", name)
}

// ClearFault restores normal reading generation.
// Idempotent by construction.
func (e *Engine) ClearFault() {
	e.mu.Lock()
	e.faultInjected = false
	name := e.name
	e.mu.Unlock()

	e.log.Info("fault cleared", "sensor", name)
}

// Shutdown stops the engine and clears the reading history.
// Identity and range are retained; Start brings the engine back.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	e.running = false
	name := e.name
	e.mu.Unlock()

	e.history.Clear()
	e.log.Info("sensor shut down", "sensor", name)
}

// Name returns the configured sensor name.
func (e *Engine) Name() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.name
}

// Location returns the configured sensor location.
func (e *Engine) Location() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.location
}

// Range returns the configured operating range.
func (e *Engine) Range() (minValue, maxValue float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.minValue, e.maxValue
}

// Running reports whether the engine is in the running state.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// FaultActive reports whether fault mode is engaged.
func (e *Engine) FaultActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.faultInjected
}

// CurrentTemperature returns the running simulation state.
func (e *Engine) CurrentTemperature() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// History returns the engine's reading history.
// Used by the monitor summary and tests.
func (e *Engine) History() *History {
	return e.history
}

// Clock returns the engine's sequence clock.
// Callers stamp readings with Clock().Next() before recording.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// mean computes the arithmetic mean of reading values. Caller guarantees a
// non-empty slice.
func mean(readings []*Reading) float64 {
	var sum float64
	for _, r := range readings {
		sum += r.Value
	}
	return sum / float64(len(readings))
}

// round2 rounds to 2 decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
