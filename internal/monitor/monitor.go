// Package monitor drives the sensor engine one tick at a time.
//
// The monitor owns scheduling only: tick cadence, the fault
// injection/clearing schedule, and summary output. All reading semantics live
// in the sensor engine; the monitor sequences the calls and renders notices.
//
// Per tick the monitor simulates, validates, checks thresholds, checks for
// anomalies, and records - in that order. Recording happens last so the
// anomaly baseline for tick N covers ticks up to N-1 only.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/thermasim/internal/config"
	"github.com/roach88/thermasim/internal/sensor"
)

// TickResult captures the outcome of one monitoring tick.
type TickResult struct {
	// Tick is the 1-based tick index within the session.
	Tick int `json:"tick"`

	// Value is the simulated reading for this tick.
	Value float64 `json:"value"`

	// Valid reports whether the reading lies within the operating range.
	Valid bool `json:"valid"`

	// Alert reports whether the reading breached the alert thresholds.
	Alert bool `json:"alert"`

	// Anomaly reports whether the reading deviated from the baseline.
	Anomaly bool `json:"anomaly"`

	// Smoothed is the moving average after recording this reading.
	Smoothed float64 `json:"smoothed"`
}

// Stats aggregates session counters for summaries and tests.
type Stats struct {
	Ticks     int `json:"ticks"`
	Invalid   int `json:"invalid"`
	Alerts    int `json:"alerts"`
	Anomalies int `json:"anomalies"`
}

// Monitor sequences engine operations on a fixed tick schedule.
type Monitor struct {
	engine   *sensor.Engine
	cfg      *config.Config
	log      *slog.Logger
	tokenGen RunTokenGenerator
	observer func(TickResult)
	maxTicks int

	mu    sync.Mutex
	stats Stats
}

// Option configures a Monitor at construction.
type Option func(*Monitor)

// WithLogger overrides the default slog logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Monitor) {
		if log != nil {
			m.log = log
		}
	}
}

// WithTokenGenerator overrides the session token generator (for testing).
func WithTokenGenerator(gen RunTokenGenerator) Option {
	return func(m *Monitor) {
		if gen != nil {
			m.tokenGen = gen
		}
	}
}

// WithObserver registers a callback invoked after every tick.
// Used by the sample command and the conformance harness to collect traces.
func WithObserver(fn func(TickResult)) Option {
	return func(m *Monitor) {
		m.observer = fn
	}
}

// WithMaxTicks bounds the session to n ticks. 0 means unbounded.
func WithMaxTicks(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.maxTicks = n
		}
	}
}

// New creates a Monitor around an initialized engine.
func New(engine *sensor.Engine, cfg *config.Config, opts ...Option) *Monitor {
	m := &Monitor{
		engine:   engine,
		cfg:      cfg,
		log:      slog.Default(),
		tokenGen: UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run starts the engine and ticks on the configured interval until the
// context cancels or the tick bound is reached. The engine is shut down on
// the way out in every case.
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.engine.Start(); err != nil {
		return fmt.Errorf("start sensor: %w", err)
	}
	defer m.engine.Shutdown()

	interval := time.Duration(m.cfg.Interval)
	if interval <= 0 {
		interval = config.DefaultInterval
	}

	token := m.tokenGen.Generate()
	m.log.Info("monitor running",
		"session", token,
		"sensor", m.engine.Name(),
		"interval", interval.String(),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	n := 0
	for {
		select {
		case <-ctx.Done():
			m.log.Info("monitor stopping: context cancelled", "session", token)
			return ctx.Err()

		case <-ticker.C:
			n++
			if err := m.tick(n, token); err != nil {
				return err
			}
			if m.maxTicks > 0 && n >= m.maxTicks {
				m.log.Info("monitor stopping: tick bound reached",
					"session", token,
					"ticks", n,
				)
				return nil
			}
		}
	}
}

// RunTicks starts the engine, executes exactly n ticks back to back, and
// shuts the engine down. Used by the sample command, the harness, and tests
// where wall-clock pacing is irrelevant.
func (m *Monitor) RunTicks(ctx context.Context, n int) error {
	if err := m.engine.Start(); err != nil {
		return fmt.Errorf("start sensor: %w", err)
	}
	defer m.engine.Shutdown()

	token := m.tokenGen.Generate()
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.tick(i, token); err != nil {
			return err
		}
	}
	return nil
}

// tick runs one full monitoring step. Any engine error here is a programming
// error in the driver sequencing, not a recoverable runtime condition, so it
// propagates and ends the session.
func (m *Monitor) tick(n int, token string) error {
	m.applyFaultSchedule(n)

	value, err := m.engine.SimulateReading()
	if err != nil {
		return fmt.Errorf("tick %d: simulate: %w", n, err)
	}

	r := sensor.NewReading(m.engine.Clock().Next(), m.engine.Name(), value, time.Now())

	valid, err := m.engine.ValidateReading(r)
	if err != nil {
		return fmt.Errorf("tick %d: validate: %w", n, err)
	}
	alert, err := m.engine.CheckThreshold(r, m.cfg.MinThreshold, m.cfg.MaxThreshold)
	if err != nil {
		return fmt.Errorf("tick %d: threshold: %w", n, err)
	}
	anomaly, err := m.engine.DetectAnomaly(r)
	if err != nil {
		return fmt.Errorf("tick %d: detect: %w", n, err)
	}

	// Record last: the anomaly baseline must not include the candidate.
	if err := m.engine.RecordReading(r); err != nil {
		return fmt.Errorf("tick %d: record: %w", n, err)
	}

	result := TickResult{
		Tick:     n,
		Value:    value,
		Valid:    valid,
		Alert:    alert,
		Anomaly:  anomaly,
		Smoothed: m.engine.Smooth(),
	}

	m.mu.Lock()
	m.stats.Ticks++
	if !valid {
		m.stats.Invalid++
	}
	if alert {
		m.stats.Alerts++
	}
	if anomaly {
		m.stats.Anomalies++
	}
	stats := m.stats
	m.mu.Unlock()

	m.log.Debug("tick",
		"session", token,
		"tick", n,
		"seq", r.Seq,
		"value", value,
		"valid", valid,
		"alert", alert,
		"anomaly", anomaly,
	)
	if !valid {
		m.log.Warn("reading outside operating range",
			"session", token,
			"tick", n,
			"value", value,
		)
	}
	if alert {
		m.log.Warn("threshold alert",
			"session", token,
			"tick", n,
			"value", value,
			"min_threshold", m.cfg.MinThreshold,
			"max_threshold", m.cfg.MaxThreshold,
		)
	}

	if m.cfg.SummaryEvery > 0 && n%m.cfg.SummaryEvery == 0 {
		m.log.Info("summary",
			"session", token,
			"ticks", stats.Ticks,
			"smoothed", result.Smoothed,
			"history", m.engine.History().Len(),
			"invalid", stats.Invalid,
			"alerts", stats.Alerts,
			"anomalies", stats.Anomalies,
		)
	}

	if m.observer != nil {
		m.observer(result)
	}
	return nil
}

// applyFaultSchedule injects or clears the cooling fault per configuration.
// Injection happens before the tick's reading so the fault shapes this tick.
func (m *Monitor) applyFaultSchedule(n int) {
	if m.cfg.FaultAfter <= 0 {
		return
	}
	switch n {
	case m.cfg.FaultAfter:
		m.engine.InjectFault()
	case m.cfg.FaultAfter + m.cfg.FaultDuration:
		m.engine.ClearFault()
	}
}

// Stats returns a snapshot of the session counters.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}
