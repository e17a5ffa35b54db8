package sensor

import (
	"errors"
	"fmt"
)

// SensorError represents a failure surfaced by an engine operation.
//
// Engine failures include:
//   - Invalid argument: blank identity, inverted or sub-absolute-zero range
//   - Nil reading: a reading-consuming operation was handed nil
//   - Invalid state: an operation was called in the wrong lifecycle state
//
// SensorError includes structured fields for diagnostics. All failures are
// synchronous and final - the engine performs no I/O and retries nothing.
type SensorError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Sensor identifies the affected sensor, when known.
	Sensor string

	// Details contains additional context.
	Details map[string]string
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates a bad configuration argument.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodeNilReading indicates a reading argument was absent.
	ErrCodeNilReading ErrorCode = "NIL_READING"

	// ErrCodeInvalidState indicates an operation in the wrong lifecycle state.
	ErrCodeInvalidState ErrorCode = "INVALID_STATE"
)

// Error implements the error interface.
func (e *SensorError) Error() string {
	if e.Sensor != "" {
		return fmt.Sprintf("%s: %s (sensor=%s)", e.Code, e.Message, e.Sensor)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvalidArgument returns true if the error is an invalid-argument error.
// Uses errors.As to handle wrapped errors.
func IsInvalidArgument(err error) bool {
	var se *SensorError
	if errors.As(err, &se) {
		return se.Code == ErrCodeInvalidArgument
	}
	return false
}

// IsNilReading returns true if the error is a nil-reading error.
// Uses errors.As to handle wrapped errors.
func IsNilReading(err error) bool {
	var se *SensorError
	if errors.As(err, &se) {
		return se.Code == ErrCodeNilReading
	}
	return false
}

// IsInvalidState returns true if the error is an invalid-state error.
// Uses errors.As to handle wrapped errors.
func IsInvalidState(err error) bool {
	var se *SensorError
	if errors.As(err, &se) {
		return se.Code == ErrCodeInvalidState
	}
	return false
}

// NewInvalidArgumentError creates a SensorError for a bad argument.
func NewInvalidArgumentError(message string) *SensorError {
	return &SensorError{
		Code:    ErrCodeInvalidArgument,
		Message: message,
	}
}

// NewNilReadingError creates a SensorError for an absent reading argument.
func NewNilReadingError(op, sensor string) *SensorError {
	return &SensorError{
		Code:    ErrCodeNilReading,
		Message: fmt.Sprintf("%s requires a reading", op),
		Sensor:  sensor,
		Details: map[string]string{"op": op},
	}
}

// NewInvalidStateError creates a SensorError for a lifecycle misuse.
func NewInvalidStateError(sensor, message string) *SensorError {
	return &SensorError{
		Code:    ErrCodeInvalidState,
		Message: message,
		Sensor:  sensor,
	}
}
