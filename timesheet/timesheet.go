/*
timesheet.go - Lifecycle state machine and category totals

PURPOSE:
  Implements the draft -> validated -> exported state machine and the
  pure fold that derives category totals from the line set.

STATE MACHINE:
  draft:      lines mutable, totals recomputed live, deletable
  validated:  lines read-only, totals FROZEN at validation time
              (reproducibility of what was agreed, even if pay
              parameters change afterwards)
  exported:   terminal; reached after a successful provider hand-off or
              document emission; still viewable

  Transitions are one-directional. Validating requires at least one
  line. There is no reopen: corrections go through a new supplemental
  timesheet.

TOTALS:
  A pure fold over the current lines. Hour buckets are resolved through
  the catalog's category semantics and the tenant's classification
  table - never hardcoded string lists - so they stay consistent as
  code sets evolve.
*/
package timesheet

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/firehall/cost-engine/catalog"
	"github.com/firehall/cost-engine/pricing"
)

// =============================================================================
// TRANSITIONS
// =============================================================================

// Validate moves draft -> validated, freezing totals. Fails on empty
// timesheets and on any non-draft status; the timesheet is unchanged on
// failure.
func (t *Timesheet) Validate(cat *catalog.Catalog, class Classification) error {
	if t.Status != StatusDraft {
		return &TransitionError{From: t.Status, To: StatusValidated}
	}
	if len(t.Lines) == 0 {
		return ErrEmptyTimesheet
	}
	totals := ComputeTotals(t.Lines, cat, class)
	t.frozenTotals = &totals
	t.Status = StatusValidated
	now := time.Now().UTC()
	t.ValidatedAt = &now
	return nil
}

// MarkExported moves validated -> exported after a successful hand-off.
func (t *Timesheet) MarkExported() error {
	if t.Status != StatusValidated {
		return &TransitionError{From: t.Status, To: StatusExported}
	}
	t.Status = StatusExported
	now := time.Now().UTC()
	t.ExportedAt = &now
	return nil
}

// EnsureDraft gates every mutation.
func (t *Timesheet) EnsureDraft() error {
	if t.Status != StatusDraft {
		return ErrNotDraft
	}
	return nil
}

// =============================================================================
// LINE MUTATIONS - draft only
// =============================================================================

// AddLine appends a line to a draft. The line gets an ID if it has none.
func (t *Timesheet) AddLine(line Line) error {
	if err := t.EnsureDraft(); err != nil {
		return err
	}
	if line.ID == "" {
		line.ID = NewLineID()
	}
	t.Lines = append(t.Lines, line)
	return nil
}

// ReplaceLine swaps a line in place, keyed by ID.
func (t *Timesheet) ReplaceLine(line Line) error {
	if err := t.EnsureDraft(); err != nil {
		return err
	}
	for i := range t.Lines {
		if t.Lines[i].ID == line.ID {
			t.Lines[i] = line
			return nil
		}
	}
	return ErrLineNotFound
}

// RemoveLine deletes a line by ID.
func (t *Timesheet) RemoveLine(lineID string) error {
	if err := t.EnsureDraft(); err != nil {
		return err
	}
	for i := range t.Lines {
		if t.Lines[i].ID == lineID {
			t.Lines = append(t.Lines[:i], t.Lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}

// FindLine returns the line with the given ID.
func (t *Timesheet) FindLine(lineID string) (Line, error) {
	for _, l := range t.Lines {
		if l.ID == lineID {
			return l, nil
		}
	}
	return Line{}, ErrLineNotFound
}

// =============================================================================
// TOTALS
// =============================================================================

// Totals returns frozen totals after validation, or a fresh fold over
// the current lines while in draft.
func (t *Timesheet) Totals(cat *catalog.Catalog, class Classification) Totals {
	if t.Status != StatusDraft && t.frozenTotals != nil {
		return *t.frozenTotals
	}
	return ComputeTotals(t.Lines, cat, class)
}

// FrozenTotals exposes the validation snapshot for persistence.
// Nil while in draft.
func (t *Timesheet) FrozenTotals() *Totals { return t.frozenTotals }

// RestoreFrozenTotals reinstates a persisted snapshot when loading from
// a store.
func (t *Timesheet) RestoreFrozenTotals(totals *Totals) { t.frozenTotals = totals }

// ComputeTotals folds lines into category totals. Hour buckets include
// only lines whose event type has category "hours"; which bucket a line
// lands in is resolved through the classification table. Lines with
// unknown event types contribute their (zero) amount but no hours.
func ComputeTotals(lines []Line, cat *catalog.Catalog, class Classification) Totals {
	totals := Totals{
		InternalGuardHours: decimal.Zero,
		ExternalGuardHours: decimal.Zero,
		RecallHours:        decimal.Zero,
		TrainingHours:      decimal.Zero,
		TotalPaidHours:     decimal.Zero,
		TotalAmount:        decimal.Zero,
	}

	for _, line := range lines {
		totals.TotalAmount = totals.TotalAmount.Add(line.Amount)

		et, err := cat.Lookup(line.EventTypeCode)
		if err != nil || et.Category != catalog.CategoryHours || et.Unit != pricing.UnitHours {
			continue
		}
		totals.TotalPaidHours = totals.TotalPaidHours.Add(line.Quantity)

		switch line.EventTypeCode {
		case class.CodeFor(pricing.SourceGuardInternal):
			totals.InternalGuardHours = totals.InternalGuardHours.Add(line.Quantity)
		case class.CodeFor(pricing.SourceGuardExternal):
			totals.ExternalGuardHours = totals.ExternalGuardHours.Add(line.Quantity)
		case class.CodeFor(pricing.SourceRecall):
			totals.RecallHours = totals.RecallHours.Add(line.Quantity)
		case class.CodeFor(pricing.SourceTraining):
			totals.TrainingHours = totals.TrainingHours.Add(line.Quantity)
		}
	}
	return totals
}

// =============================================================================
// SERVICE - Line mutations that keep amounts fresh
// =============================================================================

// Service wraps line mutations so every edit goes back through the rate
// resolver. Quantity-to-amount is never stored stale past an edit.
type Service struct {
	Gen *Generator
}

// AddManualLine prices and appends a manual line to a draft.
func (s *Service) AddManualLine(t *Timesheet, line Line, emp EmployeeProfile) error {
	if err := t.EnsureDraft(); err != nil {
		return err
	}
	line.Source = LineManual
	line = s.Gen.Reprice(line, emp)
	return t.AddLine(line)
}

// EditLine updates a draft line's event type code and/or quantity and
// recomputes its amount. An empty code or a nil quantity leaves that
// field as it was.
func (s *Service) EditLine(t *Timesheet, lineID string, code string, quantity *decimal.Decimal, emp EmployeeProfile) error {
	if err := t.EnsureDraft(); err != nil {
		return err
	}
	line, err := t.FindLine(lineID)
	if err != nil {
		return err
	}
	if code != "" {
		line.EventTypeCode = code
	}
	if quantity != nil {
		line.Quantity = *quantity
	}
	line = s.Gen.Reprice(line, emp)
	return t.ReplaceLine(line)
}
