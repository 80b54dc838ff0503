/*
errors.go - Centralized error types for the pricing engine

PURPOSE:
  All pricing error types in one place for consistency and
  discoverability. Callers should test with errors.Is().

ERROR PHILOSOPHY:
  Missing configuration never halts a batch run: an absent meal window or
  pay-parameter entry makes the corresponding premium ineligible rather
  than raising. Errors are reserved for inputs that cannot be priced at
  all (unknown unit, unknown event type code) and those are surfaced so
  the line can be flagged for review instead of silently dropped.
*/
package pricing

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownUnit is returned when an event type carries a unit the
	// resolver does not know how to price.
	ErrUnknownUnit = errors.New("unknown unit")

	// ErrNegativeQuantity is returned for negative quantities; usage
	// records are intervals and cannot have negative durations.
	ErrNegativeQuantity = errors.New("negative quantity")

	// ErrNegativeRate is returned when an event type's default rate is
	// negative, violating the catalog invariant.
	ErrNegativeRate = errors.New("negative rate")
)

// UnknownUnitError carries the offending unit.
type UnknownUnitError struct {
	Unit Unit
}

func (e *UnknownUnitError) Error() string {
	return fmt.Sprintf("unknown unit %q", e.Unit)
}

func (e *UnknownUnitError) Unwrap() error { return ErrUnknownUnit }
