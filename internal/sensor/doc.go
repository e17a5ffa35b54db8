// Package sensor implements the virtual temperature sensor engine.
//
// The engine is the heart of thermasim - it owns the sensor's identity and
// operating range, generates noisy readings, keeps a bounded reading history,
// and answers validation, smoothing, anomaly, and threshold questions about
// individual readings.
//
// ARCHITECTURE:
//
// Single-Owner State:
// All engine state (range, flags, current temperature, history) lives behind
// one mutex and is intended to be driven by a single caller - the monitor
// loop. The lock exists so that diagnostic reads (Smooth, History) from tests
// or the CLI cannot observe a half-applied tick.
//
// Tick Flow:
// 1. SimulateReading() produces the next value (normal noise or fault drift)
// 2. ValidateReading() checks the value against the operating range
// 3. CheckThreshold() / DetectAnomaly() classify the reading
// 4. RecordReading() appends to the bounded history (capacity 100, FIFO)
//
// DetectAnomaly compares a candidate against the already-recorded baseline
// only; it never consults the candidate itself. Callers may record before or
// after detection and get the same verdict for the same history.
//
// Randomness is injected via NoiseSource. Production uses SeededSource;
// tests use ScriptedSource for deterministic traces. The engine never touches
// package-level rand state.
package sensor
