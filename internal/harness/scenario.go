package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/thermasim/internal/config"
)

// Scenario defines a conformance test scenario.
// Scenarios drive the monitor with scripted noise draws and assert on the
// resulting trace, so every tick's reading is fully determined by the file.
type Scenario struct {
	// Name uniquely identifies this scenario (and its golden file).
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config is the sensor and fault-schedule configuration.
	// Interval and summary cadence are ignored - the harness runs ticks
	// back to back and renders no summaries.
	Config config.Config `yaml:"config"`

	// Ticks is the number of monitoring ticks to execute.
	Ticks int `yaml:"ticks"`

	// Noise is the scripted draw sequence for the noise source.
	// Draws cycle when exhausted, so short scripts are fine.
	Noise []float64 `yaml:"noise"`

	// Assertions validate the collected trace.
	// Supported types: reading_in_range, alert_count, anomaly_count,
	// final_history_len.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates the trace or final engine state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "reading_in_range": every reading lies in [min, max]
	// - "alert_count": exactly count threshold alerts occurred
	// - "anomaly_count": exactly count anomalies were flagged
	// - "final_history_len": history held count readings before shutdown
	Type string `yaml:"type"`

	// Min and Max bound readings (used by reading_in_range).
	Min float64 `yaml:"min,omitempty"`
	Max float64 `yaml:"max,omitempty"`

	// Count is the expected number of occurrences
	// (used by alert_count, anomaly_count, final_history_len).
	Count int `yaml:"count"`
}

// Assertion type constants.
const (
	AssertReadingInRange  = "reading_in_range"
	AssertAlertCount      = "alert_count"
	AssertAnomalyCount    = "anomaly_count"
	AssertFinalHistoryLen = "final_history_len"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks required scenario fields.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if s.Ticks <= 0 {
		return fmt.Errorf("scenario %q: ticks must be positive", s.Name)
	}
	if len(s.Noise) == 0 {
		return fmt.Errorf("scenario %q: at least one noise draw is required", s.Name)
	}
	for _, v := range s.Noise {
		if v < 0 || v >= 1 {
			return fmt.Errorf("scenario %q: noise draws must lie in [0, 1)", s.Name)
		}
	}
	if err := s.Config.Validate(); err != nil {
		return fmt.Errorf("scenario %q: config: %w", s.Name, err)
	}
	for i, a := range s.Assertions {
		switch a.Type {
		case AssertReadingInRange, AssertAlertCount, AssertAnomalyCount, AssertFinalHistoryLen:
		default:
			return fmt.Errorf("scenario %q: assertion %d: unknown type %q", s.Name, i, a.Type)
		}
	}
	return nil
}
