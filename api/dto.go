/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the engine's domain
  model from the external contract. Monetary values cross the wire as
  strings (decimal's default JSON form) so clients never see float
  artifacts.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Done in handlers, not in DTOs. DTOs are pure data carriers.
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/firehall/cost-engine/billing"
	"github.com/firehall/cost-engine/catalog"
	"github.com/firehall/cost-engine/pricing"
	"github.com/firehall/cost-engine/timesheet"
)

// =============================================================================
// EVENT TYPES
// =============================================================================

type EventTypeRequest struct {
	Code        string          `json:"code"`
	Label       string          `json:"label"`
	Category    string          `json:"category"`
	Unit        string          `json:"unit"`
	DefaultRate decimal.Decimal `json:"default_rate"`
}

func (r EventTypeRequest) toDomain() catalog.EventType {
	return catalog.EventType{
		Code:        r.Code,
		Label:       r.Label,
		Category:    catalog.Category(r.Category),
		Unit:        pricing.Unit(r.Unit),
		DefaultRate: r.DefaultRate,
	}
}

type PayCodeRequest struct {
	PayCode string `json:"pay_code"`
}

// =============================================================================
// EMPLOYEES & USAGE RECORDS
// =============================================================================

type EmployeeRequest struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	HourlyRate decimal.Decimal `json:"hourly_rate"`
	Employment string          `json:"employment"`
	Active     bool            `json:"active"`
}

func (r EmployeeRequest) toDomain() timesheet.EmployeeProfile {
	return timesheet.EmployeeProfile{
		ID:         r.ID,
		Name:       r.Name,
		HourlyRate: r.HourlyRate,
		Employment: pricing.EmploymentType(r.Employment),
		Active:     r.Active,
	}
}

type UsageRecordRequest struct {
	EmployeeID       string          `json:"employee_id"`
	VehicleID        string          `json:"vehicle_id,omitempty"`
	Start            time.Time       `json:"start"`
	End              time.Time       `json:"end"`
	Source           string          `json:"source"`
	SuperiorFunction bool            `json:"superior_function"`
	EventTypeCode    string          `json:"event_type_code,omitempty"`
	Description      string          `json:"description,omitempty"`
	Distance         decimal.Decimal `json:"distance,omitempty"`
	Count            decimal.Decimal `json:"count,omitempty"`
}

func (r UsageRecordRequest) toDomain() timesheet.UsageRecord {
	return timesheet.UsageRecord{
		EmployeeID:       r.EmployeeID,
		VehicleID:        r.VehicleID,
		Start:            r.Start,
		End:              r.End,
		Source:           pricing.CallSource(r.Source),
		SuperiorFunction: r.SuperiorFunction,
		EventTypeCode:    r.EventTypeCode,
		Description:      r.Description,
		Distance:         r.Distance,
		Count:            r.Count,
	}
}

// =============================================================================
// TIMESHEETS
// =============================================================================

type GenerateRequest struct {
	PeriodStart string `json:"period_start"` // 2006-01-02
	PeriodEnd   string `json:"period_end"`
}

type LineDTO struct {
	ID               string          `json:"id"`
	Date             string          `json:"date"`
	EventTypeCode    string          `json:"event_type_code"`
	Description      string          `json:"description"`
	Quantity         decimal.Decimal `json:"quantity"`
	Unit             string          `json:"unit"`
	Amount           decimal.Decimal `json:"amount"`
	SuperiorFunction bool            `json:"superior_function"`
	Source           string          `json:"source"`
	NeedsReview      bool            `json:"needs_review,omitempty"`
}

type TimesheetDTO struct {
	ID          string           `json:"id"`
	EmployeeID  string           `json:"employee_id"`
	PeriodStart string           `json:"period_start"`
	PeriodEnd   string           `json:"period_end"`
	Status      string           `json:"status"`
	Lines       []LineDTO        `json:"lines"`
	Totals      timesheet.Totals `json:"totals"`
}

func timesheetDTO(t *timesheet.Timesheet, cat *catalog.Catalog, class timesheet.Classification) TimesheetDTO {
	dto := TimesheetDTO{
		ID:          t.ID,
		EmployeeID:  t.EmployeeID,
		PeriodStart: timesheet.DateKey(t.PeriodStart),
		PeriodEnd:   timesheet.DateKey(t.PeriodEnd),
		Status:      string(t.Status),
		Totals:      t.Totals(cat, class),
	}
	for _, l := range t.Lines {
		dto.Lines = append(dto.Lines, LineDTO{
			ID:               l.ID,
			Date:             timesheet.DateKey(l.Date),
			EventTypeCode:    l.EventTypeCode,
			Description:      l.Description,
			Quantity:         l.Quantity,
			Unit:             string(l.Unit),
			Amount:           l.Amount,
			SuperiorFunction: l.SuperiorFunction,
			Source:           string(l.Source),
			NeedsReview:      l.NeedsReview,
		})
	}
	return dto
}

type BatchResultDTO struct {
	Generated []TimesheetDTO       `json:"generated"`
	Conflicts []timesheet.Conflict `json:"conflicts"`
	Errors    []string             `json:"errors,omitempty"`
}

type ManualLineRequest struct {
	Date          string          `json:"date"`
	EventTypeCode string          `json:"event_type_code"`
	Description   string          `json:"description"`
	Quantity      decimal.Decimal `json:"quantity"`
}

// EditLineRequest carries a partial update: an omitted quantity keeps
// the line's current one.
type EditLineRequest struct {
	EventTypeCode string           `json:"event_type_code,omitempty"`
	Quantity      *decimal.Decimal `json:"quantity,omitempty"`
}

type ExportResponse struct {
	ProviderRows []timesheet.ProviderRow `json:"provider_rows"`
	RenderRows   []timesheet.RenderRow   `json:"render_rows"`
	Skipped      int                     `json:"skipped_unmapped"`
}

// =============================================================================
// BILLING
// =============================================================================

type InvoicePreviewRequest struct {
	Municipality  string                    `json:"municipalite"`
	Resources     billing.IncidentResources `json:"ressources"`
	DurationHours decimal.Decimal           `json:"duree_heures"`
}

type InvoicePreviewResponse struct {
	Billable    bool               `json:"facturable"`
	BilledParty string             `json:"partie_facturee,omitempty"`
	Lines       []billing.LineItem `json:"lignes,omitempty"`
	Total       decimal.Decimal    `json:"total"`
}

type InvoiceFinalizeRequest struct {
	IncidentID    string                    `json:"incident_id"`
	Municipality  string                    `json:"municipalite"`
	Resources     billing.IncidentResources `json:"ressources"`
	DurationHours decimal.Decimal           `json:"duree_heures"`
	Supersede     bool                      `json:"remplacer"`
}

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error string `json:"error"`
}
