package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/thermasim/internal/monitor"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string               // Assertion type for categorization
	Expected string               // Human-readable expected outcome
	Actual   string               // Human-readable actual outcome
	Trace    []monitor.TickResult // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)

	// Expected vs Actual (most important info)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	// Full trace for context
	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, tr := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] value=%.2f valid=%t alert=%t anomaly=%t smoothed=%.2f\n",
			tr.Tick, tr.Value, tr.Valid, tr.Alert, tr.Anomaly, tr.Smoothed)
	}

	return buf.String()
}
