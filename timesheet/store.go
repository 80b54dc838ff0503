/*
store.go - Persistence interface for timesheets

PURPOSE:
  The boundary between the engine and the storage collaborator. The
  engine computes; stores persist. Implementations: store/memory.go
  (tests, dev) and store/sqlite (production).

DELETE SEMANTICS:
  Stores delete whatever they are told; the DRAFT-ONLY rule is enforced
  by DeleteDraft here, which loads and checks status first. Keeping the
  rule out of store implementations means it cannot drift between them.
*/
package timesheet

import (
	"context"
	"time"
)

// Store persists timesheets and their lines.
type Store interface {
	// Save inserts or replaces a timesheet with all of its lines.
	Save(ctx context.Context, t *Timesheet) error

	// Get returns a timesheet by ID, or ErrTimesheetNotFound.
	Get(ctx context.Context, id string) (*Timesheet, error)

	// FindByEmployeePeriod returns the timesheet covering exactly this
	// employee and period, or nil when none exists. Period boundaries
	// compare by calendar day.
	FindByEmployeePeriod(ctx context.Context, tenantID, employeeID string, periodStart, periodEnd time.Time) (*Timesheet, error)

	// ListByTenant returns all timesheets for a tenant.
	ListByTenant(ctx context.Context, tenantID string) ([]*Timesheet, error)

	// Delete removes a timesheet. Use DeleteDraft to enforce the
	// draft-only rule.
	Delete(ctx context.Context, id string) error
}

// DeleteDraft deletes a timesheet only while it is a draft.
func DeleteDraft(ctx context.Context, store Store, id string) error {
	t, err := store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := t.EnsureDraft(); err != nil {
		return err
	}
	return store.Delete(ctx, id)
}

// DateKey formats a period boundary for store comparisons (date-only).
func DateKey(t time.Time) string { return t.Format("2006-01-02") }
