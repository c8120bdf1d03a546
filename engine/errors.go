/*
errors.go - Centralized error types for the variance engine

PURPOSE:
  All engine error types in one place for consistency and discoverability.
  Callers (API handlers, scheduler) wrap these with transport context.

ERROR POLICY (by design, not omission):
  - A malformed reference week is a caller precondition failure: surfaced
    immediately, no partial computation proceeds.
  - Pairwise analysis over fewer than two usable snapshots is refused; the
    caller must explicitly fall back to single-week coverage mode rather
    than have the engine silently downgrade.
  - An unparsable week INSIDE a forecast line is NOT an error: the interval
    classifier routes it to the most urgent bucket so one malformed upstream
    record cannot crash an otherwise valid batch.
  - Division by zero never occurs: the zero-baseline percentage policy
    avoids it by definition.

USAGE:
  if errors.Is(err, engine.ErrInvalidWeekFormat) { ... }

SEE ALSO:
  - week.go: Raises InvalidWeekError
  - engine.go: Raises InsufficientSnapshotsError
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidWeekFormat is returned when a supplied reference week does
	// not match the canonical YYYY-Www form.
	ErrInvalidWeekFormat = errors.New("invalid week format")

	// ErrInsufficientSnapshots is returned when pairwise mode is requested
	// but fewer than two distinct reference weeks have matching data.
	ErrInsufficientSnapshots = errors.New("insufficient forecast snapshots")

	// ErrNoReferenceWeeks is returned when an analysis is requested with an
	// empty reference-week list.
	ErrNoReferenceWeeks = errors.New("no reference weeks supplied")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidWeekError reports which week identifier failed validation.
type InvalidWeekError struct {
	Week string
}

func (e *InvalidWeekError) Error() string {
	return fmt.Sprintf("invalid week format %q: want YYYY-Www", e.Week)
}

func (e *InvalidWeekError) Unwrap() error { return ErrInvalidWeekFormat }

// InsufficientSnapshotsError reports how many usable snapshots were found.
type InsufficientSnapshotsError struct {
	Requested []string
	Usable    int
}

func (e *InsufficientSnapshotsError) Error() string {
	return fmt.Sprintf("pairwise analysis needs 2 distinct snapshots with data, got %d of %v",
		e.Usable, e.Requested)
}

func (e *InsufficientSnapshotsError) Unwrap() error { return ErrInsufficientSnapshots }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input,
// letting HTTP handlers map it to a 4xx instead of a 5xx.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidWeekFormat) ||
		errors.Is(err, ErrInsufficientSnapshots) ||
		errors.Is(err, ErrNoReferenceWeeks)
}
