// Package harness executes conformance scenarios against the sensor engine.
//
// A scenario wires a ScriptedSource into a fresh engine and monitor, runs a
// fixed number of ticks, and collects the per-tick trace. Assertions and
// golden-file comparison then pin down the expected behavior. Because all
// randomness comes from the script, traces are byte-stable across runs.
package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/thermasim/internal/monitor"
	"github.com/roach88/thermasim/internal/sensor"
)

// Result holds the outcome of executing a scenario.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool

	// Errors lists assertion failures.
	Errors []string

	// Trace is the per-tick record of the session.
	Trace []monitor.TickResult

	// Stats aggregates the session counters.
	Stats monitor.Stats

	// FinalHistoryLen is the history size after the last tick,
	// captured before shutdown clears it.
	FinalHistoryLen int
}

// Run executes a scenario and evaluates its assertions.
// Returns an error only for execution failures; assertion failures are
// reported through Result.Pass and Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	src := sensor.NewScriptedSource(scenario.Noise...)
	quiet := slog.New(slog.DiscardHandler)

	eng := sensor.New(src, sensor.WithLogger(quiet))
	cfg := scenario.Config
	if err := eng.Initialize(cfg.Name, cfg.Location, cfg.MinValue, cfg.MaxValue); err != nil {
		return nil, fmt.Errorf("initialize sensor: %w", err)
	}

	result := &Result{}
	mon := monitor.New(eng, &cfg,
		monitor.WithLogger(quiet),
		monitor.WithTokenGenerator(monitor.FixedGenerator{Token: "harness-" + scenario.Name}),
		monitor.WithObserver(func(tr monitor.TickResult) {
			result.Trace = append(result.Trace, tr)
			// Observed per tick so the value survives the shutdown clear.
			result.FinalHistoryLen = eng.History().Len()
		}),
	)

	if err := mon.RunTicks(context.Background(), scenario.Ticks); err != nil {
		return nil, fmt.Errorf("run scenario %q: %w", scenario.Name, err)
	}
	result.Stats = mon.Stats()

	evaluateAssertions(scenario, result)
	return result, nil
}

// evaluateAssertions checks every scenario assertion against the result.
func evaluateAssertions(scenario *Scenario, result *Result) {
	result.Pass = true
	for _, assertion := range scenario.Assertions {
		if err := checkAssertion(assertion, result); err != nil {
			result.Pass = false
			result.Errors = append(result.Errors, err.Error())
		}
	}
}

func checkAssertion(assertion Assertion, result *Result) error {
	switch assertion.Type {
	case AssertReadingInRange:
		for _, tr := range result.Trace {
			if tr.Value < assertion.Min || tr.Value > assertion.Max {
				return &AssertionError{
					Type:     assertion.Type,
					Expected: fmt.Sprintf("all readings in [%.2f, %.2f]", assertion.Min, assertion.Max),
					Actual:   fmt.Sprintf("tick %d read %.2f", tr.Tick, tr.Value),
					Trace:    result.Trace,
				}
			}
		}
		return nil

	case AssertAlertCount:
		if result.Stats.Alerts != assertion.Count {
			return &AssertionError{
				Type:     assertion.Type,
				Expected: fmt.Sprintf("%d alerts", assertion.Count),
				Actual:   fmt.Sprintf("%d alerts", result.Stats.Alerts),
				Trace:    result.Trace,
			}
		}
		return nil

	case AssertAnomalyCount:
		if result.Stats.Anomalies != assertion.Count {
			return &AssertionError{
				Type:     assertion.Type,
				Expected: fmt.Sprintf("%d anomalies", assertion.Count),
				Actual:   fmt.Sprintf("%d anomalies", result.Stats.Anomalies),
				Trace:    result.Trace,
			}
		}
		return nil

	case AssertFinalHistoryLen:
		if result.FinalHistoryLen != assertion.Count {
			return &AssertionError{
				Type:     assertion.Type,
				Expected: fmt.Sprintf("history length %d", assertion.Count),
				Actual:   fmt.Sprintf("history length %d", result.FinalHistoryLen),
				Trace:    result.Trace,
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown assertion type: %s", assertion.Type)
	}
}
