/*
errors.go - Centralized error types for billing
*/
package billing

import (
	"errors"
	"fmt"
)

var (
	// ErrNotBillable is returned when finalizing an invoice for a
	// non-billable decision.
	ErrNotBillable = errors.New("incident is not billable")

	// ErrAlreadyInvoiced is returned when finalizing for an incident
	// that already carries an issued invoice. Pass Supersede to replace
	// it explicitly.
	ErrAlreadyInvoiced = errors.New("incident already invoiced")

	// ErrEmptyInvoice is returned when no resource category produced a
	// single line (nothing to bill, no admin fee either).
	ErrEmptyInvoice = errors.New("invoice has no line items")

	// ErrInvoiceNotFound is returned by stores.
	ErrInvoiceNotFound = errors.New("invoice not found")
)

// AlreadyInvoicedError carries the existing invoice number.
type AlreadyInvoicedError struct {
	IncidentID string
	Number     string
}

func (e *AlreadyInvoicedError) Error() string {
	return fmt.Sprintf("incident %s already invoiced as %s", e.IncidentID, e.Number)
}

func (e *AlreadyInvoicedError) Unwrap() error { return ErrAlreadyInvoiced }
