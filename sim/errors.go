package sim

import "errors"

// Sentinel errors for the three user-facing failure classes. Call sites wrap
// them with context via fmt.Errorf("...: %w", Err...) so callers can
// discriminate with errors.Is while still seeing what went wrong.
var (
	// ErrConfiguration marks invalid construction-time input: bad matrix
	// shape or row sums, non-positive counts or times, mismatched
	// dimensions, warmup >= simulation time. Always raised before any
	// event is processed, never mid-run.
	ErrConfiguration = errors.New("configuration error")

	// ErrState marks API misuse: querying results before a run, running
	// twice without Reset, adding stations after a run.
	ErrState = errors.New("state error")

	// ErrBudgetExceeded is returned when the event-count safety bound is
	// hit. The run halts cleanly; partial statistics remain available on
	// the report, flagged Incomplete.
	ErrBudgetExceeded = errors.New("simulation budget exceeded")
)
