/*
Package timesheet turns raw usage records into priced pay lines and
manages the lifecycle of the resulting timesheets.

PURPOSE:
  This package is the payroll half of the cost engine:
  - Line generation: classify a usage record (guard shift, recall,
    training, intervention) into one or more priced lines
  - Aggregation: per-employee, per-period timesheets with category totals
  - Lifecycle: the draft -> validated -> exported state machine
  - Batch generation: fan-out over all eligible employees for a period
  - Export: provider pay-code translation and document render rows

KEY CONCEPTS IN THIS FILE (types.go):
  - UsageRecord: A raw time-stamped fact supplied by the scheduling /
    intervention collaborator. The engine never fetches these itself.
  - Line: One priced item on a timesheet, generated or manual
  - Timesheet: Header + ordered lines + derived or frozen totals
  - EmployeeProfile: The per-employee inputs pricing needs (base hourly
    rate, employment type)

DESIGN PRINCIPLES:
  1. Determinism: identical inputs always produce identical lines
  2. Explicit configuration: PayParameters, holiday table and catalog are
     arguments, never ambient state
  3. Nothing is silently dropped: unpriceable lines stay on the
     timesheet with a zero amount and a needs_review marker

SEE ALSO:
  - generate.go: Classification and pricing of usage records
  - timesheet.go: Lifecycle state machine and totals
  - batch.go: Period fan-out over employees
  - export.go: Provider and render-row output contracts
*/
package timesheet

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/firehall/cost-engine/pricing"
)

// =============================================================================
// USAGE RECORD - Raw input fact
// =============================================================================

// UsageRecord is one time interval of resource usage, already fetched by
// the scheduling/intervention collaborator.
type UsageRecord struct {
	EmployeeID string
	VehicleID  string

	// Interval [Start, End).
	Start time.Time
	End   time.Time

	Source pricing.CallSource

	// SuperiorFunction is set when the person acted at a higher grade.
	SuperiorFunction bool

	// EventTypeCode overrides source classification (manual entries).
	EventTypeCode string

	// Description for manual entries; generated lines use the event
	// type label.
	Description string

	// Metadata quantities for non-hourly event types.
	Distance decimal.Decimal
	Count    decimal.Decimal
}

// Duration returns the record's duration in decimal hours.
func (r UsageRecord) Duration() decimal.Decimal {
	return pricing.HoursBetween(r.Start, r.End)
}

// =============================================================================
// EMPLOYEE PROFILE - Pricing inputs for one employee
// =============================================================================

type EmployeeProfile struct {
	ID         string
	Name       string
	HourlyRate decimal.Decimal
	Employment pricing.EmploymentType
	Active     bool
}

// =============================================================================
// LINES
// =============================================================================

// LineSource distinguishes generated lines (replaced on regeneration)
// from manual ones (always preserved).
type LineSource string

const (
	LineGenerated LineSource = "generated"
	LineManual    LineSource = "manual"
)

type Line struct {
	ID               string
	Date             time.Time
	EventTypeCode    string
	Description      string
	Quantity         decimal.Decimal
	Unit             pricing.Unit
	Amount           decimal.Decimal
	SuperiorFunction bool
	Source           LineSource

	// NeedsReview marks classification failures: the line is kept with a
	// zero amount instead of being dropped.
	NeedsReview bool
}

// =============================================================================
// TIMESHEET
// =============================================================================

type Status string

const (
	StatusDraft     Status = "draft"
	StatusValidated Status = "validated"
	StatusExported  Status = "exported"
)

// Totals are the derived category sums of a timesheet. Hour buckets
// count quantities of hour-category lines; TotalAmount sums every line
// amount, zero-amount review lines included.
type Totals struct {
	InternalGuardHours decimal.Decimal `json:"heures_garde_interne"`
	ExternalGuardHours decimal.Decimal `json:"heures_garde_externe"`
	RecallHours        decimal.Decimal `json:"heures_rappel"`
	TrainingHours      decimal.Decimal `json:"heures_formation"`
	TotalPaidHours     decimal.Decimal `json:"heures_payees_total"`
	TotalAmount        decimal.Decimal `json:"montant_total"`
}

// Timesheet is one employee's pay document for one period.
// Lines are owned exclusively by their timesheet.
type Timesheet struct {
	ID          string
	TenantID    string
	EmployeeID  string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Status      Status
	Lines       []Line

	// frozenTotals is snapshotted at validation so the agreed amounts
	// stay reproducible even if parameters change later.
	frozenTotals *Totals

	CreatedAt   time.Time
	ValidatedAt *time.Time
	ExportedAt  *time.Time
}

// NewDraft creates an empty draft timesheet.
func NewDraft(tenantID, employeeID string, periodStart, periodEnd time.Time) *Timesheet {
	return &Timesheet{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		EmployeeID:  employeeID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Status:      StatusDraft,
		CreatedAt:   time.Now().UTC(),
	}
}

// NewLineID returns a fresh line identifier.
func NewLineID() string { return uuid.NewString() }
