package sensor

import "time"

// Reading is an immutable temperature observation.
//
// A reading is created once per simulated tick and never mutated afterwards.
// Seq is the engine clock stamp at creation time; it orders readings without
// relying on wall-clock resolution.
type Reading struct {
	// Seq is the monotonic sequence stamp from the engine clock.
	Seq int64 `json:"seq"`

	// Sensor is the name of the sensor that produced this reading.
	Sensor string `json:"sensor"`

	// Value is the observed temperature in degrees Celsius.
	Value float64 `json:"value"`

	// Timestamp records when the reading was taken.
	Timestamp time.Time `json:"timestamp"`
}

// NewReading constructs a reading. Callers obtain seq from the engine clock
// so that readings are totally ordered even within one wall-clock instant.
func NewReading(seq int64, sensor string, value float64, ts time.Time) *Reading {
	return &Reading{
		Seq:       seq,
		Sensor:    sensor,
		Value:     value,
		Timestamp: ts,
	}
}
