/*
errors.go - Centralized error types for timesheet lifecycle and batch runs

PURPOSE:
  All timesheet errors in one place. Lifecycle violations are
  "precondition failed" errors: the timesheet is left unchanged and the
  caller can map them to HTTP 412/409.
*/
package timesheet

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotDraft is returned when mutating a validated or exported
	// timesheet. Only drafts are editable or deletable.
	ErrNotDraft = errors.New("timesheet is not in draft status")

	// ErrEmptyTimesheet is returned when validating a timesheet with no
	// lines.
	ErrEmptyTimesheet = errors.New("cannot validate an empty timesheet")

	// ErrInvalidTransition is returned for any backward or skipped
	// state-machine transition. Transitions are one-directional:
	// draft -> validated -> exported.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrLineNotFound is returned when editing or removing an unknown
	// line.
	ErrLineNotFound = errors.New("timesheet line not found")

	// ErrTimesheetNotFound is returned by stores.
	ErrTimesheetNotFound = errors.New("timesheet not found")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// TransitionError reports a rejected state change with both states.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// IsPreconditionFailed reports whether the error is a lifecycle
// precondition violation (as opposed to a storage failure).
func IsPreconditionFailed(err error) bool {
	return errors.Is(err, ErrNotDraft) ||
		errors.Is(err, ErrEmptyTimesheet) ||
		errors.Is(err, ErrInvalidTransition)
}
