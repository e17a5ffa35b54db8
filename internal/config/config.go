// Package config loads and validates the sensor configuration file.
//
// The engine re-validates its own arguments; this package only guarantees the
// file is well-formed and internally consistent before the monitor wires it in.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when optional fields are omitted.
const (
	DefaultInterval      = 1 * time.Second
	DefaultSummaryEvery  = 10
	DefaultFaultDuration = 10
)

// Duration wraps time.Duration with YAML support for "1s" style values.
type Duration time.Duration

// UnmarshalYAML parses a duration string such as "500ms" or "2s".
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration in time.Duration string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Config is the sensor and driver configuration.
type Config struct {
	// Name identifies the sensor.
	Name string `yaml:"name"`

	// Location describes where the sensor sits.
	Location string `yaml:"location"`

	// MinValue and MaxValue bound the valid operating range.
	MinValue float64 `yaml:"min_value"`
	MaxValue float64 `yaml:"max_value"`

	// MinThreshold and MaxThreshold bound the alert band.
	MinThreshold float64 `yaml:"min_threshold"`
	MaxThreshold float64 `yaml:"max_threshold"`

	// Interval is the driver tick period. Defaults to 1s.
	Interval Duration `yaml:"interval,omitempty"`

	// SummaryEvery is the tick cadence of summary notices. Defaults to 10.
	SummaryEvery int `yaml:"summary_every,omitempty"`

	// FaultAfter is the tick at which a cooling fault is injected.
	// 0 disables fault injection.
	FaultAfter int `yaml:"fault_after,omitempty"`

	// FaultDuration is how many ticks the fault persists. Defaults to 10.
	FaultDuration int `yaml:"fault_duration,omitempty"`
}

// FieldError describes a single invalid configuration field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads, parses, defaults, and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses, defaults, and validates configuration bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	// Strict field validation catches typos like "max_treshold:".
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if errs := cfg.Check(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid config: %w", errs[0])
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Interval == 0 {
		c.Interval = Duration(DefaultInterval)
	}
	if c.SummaryEvery == 0 {
		c.SummaryEvery = DefaultSummaryEvery
	}
	if c.FaultAfter > 0 && c.FaultDuration == 0 {
		c.FaultDuration = DefaultFaultDuration
	}
}

// Check returns every invalid field. An empty slice means the config is valid.
func (c *Config) Check() []FieldError {
	var errs []FieldError

	if c.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "must not be empty"})
	}
	if c.Location == "" {
		errs = append(errs, FieldError{Field: "location", Message: "must not be empty"})
	}
	if c.MinValue >= c.MaxValue {
		errs = append(errs, FieldError{Field: "min_value", Message: "must be less than max_value"})
	}
	if c.MinThreshold >= c.MaxThreshold {
		errs = append(errs, FieldError{Field: "min_threshold", Message: "must be less than max_threshold"})
	}
	if c.Interval < 0 {
		errs = append(errs, FieldError{Field: "interval", Message: "must be positive"})
	}
	if c.SummaryEvery < 0 {
		errs = append(errs, FieldError{Field: "summary_every", Message: "must not be negative"})
	}
	if c.FaultAfter < 0 {
		errs = append(errs, FieldError{Field: "fault_after", Message: "must not be negative"})
	}
	if c.FaultDuration < 0 {
		errs = append(errs, FieldError{Field: "fault_duration", Message: "must not be negative"})
	}

	return errs
}

// Validate reports the first invalid field, or nil if the config is valid.
func (c *Config) Validate() error {
	if errs := c.Check(); len(errs) > 0 {
		return errs[0]
	}
	return nil
}
