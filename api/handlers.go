/*
handlers.go - HTTP handlers for the cost engine

PURPOSE:
  Maps the request/response surface the presentation glue calls onto
  engine operations. Handlers validate input, call the engine, and
  translate errors:
    400 bad input        404 not found        409 conflict
    412 precondition failed (lifecycle violations)

  Employee profiles and usage records normally come from the
  scheduling collaborator; the handler keeps in-memory registries fed
  over the API so the engine can run stand-alone.
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/firehall/cost-engine/billing"
	"github.com/firehall/cost-engine/catalog"
	"github.com/firehall/cost-engine/pricing"
	"github.com/firehall/cost-engine/timesheet"
)

// Handler carries the engine wiring for one tenant.
type Handler struct {
	TenantID string

	Catalog    *catalog.Catalog
	Class      timesheet.Classification
	Gen        *timesheet.Generator
	Timesheets timesheet.Store
	Settings   billing.BillingSettings
	Invoices   *billing.InvoiceService

	mu        sync.RWMutex
	employees map[string]timesheet.EmployeeProfile
	records   []timesheet.UsageRecord
}

func NewHandler(tenantID string, cat *catalog.Catalog, gen *timesheet.Generator, store timesheet.Store, settings billing.BillingSettings, invoices *billing.InvoiceService) *Handler {
	return &Handler{
		TenantID:   tenantID,
		Catalog:    cat,
		Class:      gen.Class,
		Gen:        gen,
		Timesheets: store,
		Settings:   settings,
		Invoices:   invoices,
		employees:  make(map[string]timesheet.EmployeeProfile),
	}
}

// =============================================================================
// EVENT TYPES
// =============================================================================

func (h *Handler) ListEventTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Catalog.List())
}

func (h *Handler) CreateEventType(w http.ResponseWriter, r *http.Request) {
	var req EventTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.Catalog.Register(req.toDomain()); err != nil {
		if errors.Is(err, catalog.ErrDuplicateCode) {
			writeError(w, http.StatusConflict, err)
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *Handler) MapPayCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	var req PayCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.Catalog.MapPayCode(code, req.PayCode); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// =============================================================================
// EMPLOYEES & USAGE RECORDS
// =============================================================================

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, errors.New("id is required"))
		return
	}
	h.mu.Lock()
	h.employees[req.ID] = req.toDomain()
	h.mu.Unlock()
	writeJSON(w, http.StatusCreated, req)
}

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	out := make([]timesheet.EmployeeProfile, 0, len(h.employees))
	for _, e := range h.employees {
		out = append(out, e)
	}
	h.mu.RUnlock()
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) AddUsageRecords(w http.ResponseWriter, r *http.Request) {
	var reqs []UsageRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h.mu.Lock()
	for _, req := range reqs {
		h.records = append(h.records, req.toDomain())
	}
	h.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]int{"added": len(reqs)})
}

// recordsFor implements timesheet.RecordSource over the in-memory feed.
func (h *Handler) recordsFor(_ context.Context, employeeID string, periodStart, periodEnd time.Time) ([]timesheet.UsageRecord, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []timesheet.UsageRecord
	for _, rec := range h.records {
		if rec.EmployeeID != employeeID {
			continue
		}
		if rec.Start.Before(periodStart) || !rec.Start.Before(periodEnd.AddDate(0, 0, 1)) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// =============================================================================
// TIMESHEETS
// =============================================================================

func (h *Handler) GenerateTimesheets(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	start, err1 := time.Parse("2006-01-02", req.PeriodStart)
	end, err2 := time.Parse("2006-01-02", req.PeriodEnd)
	if err1 != nil || err2 != nil || end.Before(start) {
		writeError(w, http.StatusBadRequest, errors.New("invalid period"))
		return
	}

	h.mu.RLock()
	employees := make([]timesheet.EmployeeProfile, 0, len(h.employees))
	for _, e := range h.employees {
		employees = append(employees, e)
	}
	h.mu.RUnlock()

	batch := &timesheet.BatchGenerator{
		Gen:     h.snapshotGenerator(),
		Store:   h.Timesheets,
		Records: timesheet.RecordSourceFunc(h.recordsFor),
	}
	result, err := batch.GenerateForPeriod(r.Context(), h.TenantID, employees, start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	dto := BatchResultDTO{Conflicts: result.Conflicts}
	for _, ts := range result.Generated {
		dto.Generated = append(dto.Generated, timesheetDTO(ts, h.Catalog, h.Class))
	}
	for _, e := range result.Errors {
		dto.Errors = append(dto.Errors, e.Error())
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) ListTimesheets(w http.ResponseWriter, r *http.Request) {
	sheets, err := h.Timesheets.ListByTenant(r.Context(), h.TenantID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]TimesheetDTO, 0, len(sheets))
	for _, ts := range sheets {
		out = append(out, timesheetDTO(ts, h.Catalog, h.Class))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetTimesheet(w http.ResponseWriter, r *http.Request) {
	ts, ok := h.loadTimesheet(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, timesheetDTO(ts, h.Catalog, h.Class))
}

func (h *Handler) DeleteTimesheet(w http.ResponseWriter, r *http.Request) {
	err := timesheet.DeleteDraft(r.Context(), h.Timesheets, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ValidateTimesheet(w http.ResponseWriter, r *http.Request) {
	ts, ok := h.loadTimesheet(w, r)
	if !ok {
		return
	}
	if err := ts.Validate(h.Catalog, h.Class); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.Timesheets.Save(r.Context(), ts); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, timesheetDTO(ts, h.Catalog, h.Class))
}

func (h *Handler) ExportTimesheet(w http.ResponseWriter, r *http.Request) {
	ts, ok := h.loadTimesheet(w, r)
	if !ok {
		return
	}
	if err := ts.MarkExported(); err != nil {
		writeDomainError(w, err)
		return
	}
	rows, skipped := timesheet.ProviderExport(ts, h.Catalog)
	resp := ExportResponse{
		ProviderRows: rows,
		RenderRows:   timesheet.RenderRows(ts, h.Catalog),
		Skipped:      skipped,
	}
	if err := h.Timesheets.Save(r.Context(), ts); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) AddManualLine(w http.ResponseWriter, r *http.Request) {
	ts, ok := h.loadTimesheet(w, r)
	if !ok {
		return
	}
	var req ManualLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	emp, ok := h.employeeOf(ts)
	if !ok {
		writeError(w, http.StatusConflict, errors.New("unknown employee"))
		return
	}
	line := timesheet.Line{
		Date:          date,
		EventTypeCode: req.EventTypeCode,
		Description:   req.Description,
		Quantity:      req.Quantity,
	}
	svc := &timesheet.Service{Gen: h.snapshotGenerator()}
	if err := svc.AddManualLine(ts, line, emp); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.Timesheets.Save(r.Context(), ts); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, timesheetDTO(ts, h.Catalog, h.Class))
}

func (h *Handler) EditLine(w http.ResponseWriter, r *http.Request) {
	ts, ok := h.loadTimesheet(w, r)
	if !ok {
		return
	}
	var req EditLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	emp, ok := h.employeeOf(ts)
	if !ok {
		writeError(w, http.StatusConflict, errors.New("unknown employee"))
		return
	}
	svc := &timesheet.Service{Gen: h.snapshotGenerator()}
	err := svc.EditLine(ts, chi.URLParam(r, "lineID"), req.EventTypeCode, req.Quantity, emp)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.Timesheets.Save(r.Context(), ts); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, timesheetDTO(ts, h.Catalog, h.Class))
}

func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	ts, ok := h.loadTimesheet(w, r)
	if !ok {
		return
	}
	if err := ts.RemoveLine(chi.URLParam(r, "lineID")); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.Timesheets.Save(r.Context(), ts); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, timesheetDTO(ts, h.Catalog, h.Class))
}

func (h *Handler) loadTimesheet(w http.ResponseWriter, r *http.Request) (*timesheet.Timesheet, bool) {
	ts, err := h.Timesheets.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return ts, true
}

func (h *Handler) employeeOf(ts *timesheet.Timesheet) (timesheet.EmployeeProfile, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	emp, ok := h.employees[ts.EmployeeID]
	return emp, ok
}

// snapshotGenerator copies the generator under the lock so a running
// computation prices against one coherent configuration even if a
// settings PUT lands mid-run. The settings handlers replace whole
// Params/Holidays values rather than mutating them in place, so a
// shallow copy is a complete snapshot.
func (h *Handler) snapshotGenerator() *timesheet.Generator {
	h.mu.RLock()
	defer h.mu.RUnlock()
	gen := *h.Gen
	return &gen
}

// =============================================================================
// BILLING
// =============================================================================

func (h *Handler) PreviewInvoice(w http.ResponseWriter, r *http.Request) {
	var req InvoicePreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h.mu.RLock()
	settings := h.Settings
	h.mu.RUnlock()
	decision := billing.DetermineBillableParty(req.Municipality, settings)
	resp := InvoicePreviewResponse{Billable: decision.Billable}
	if decision.Billable {
		resp.BilledParty = decision.BilledParty
		resp.Lines, resp.Total = billing.ComputeInvoiceLines(decision, req.Resources, req.DurationHours)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) FinalizeInvoice(w http.ResponseWriter, r *http.Request) {
	var req InvoiceFinalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.IncidentID == "" {
		writeError(w, http.StatusBadRequest, errors.New("incident_id is required"))
		return
	}
	h.mu.RLock()
	settings := h.Settings
	h.mu.RUnlock()
	decision := billing.DetermineBillableParty(req.Municipality, settings)
	inv, err := h.Invoices.Finalize(r.Context(), billing.FinalizeInput{
		TenantID:      h.TenantID,
		IncidentID:    req.IncidentID,
		Decision:      decision,
		Resources:     req.Resources,
		DurationHours: req.DurationHours,
		Supersede:     req.Supersede,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (h *Handler) GetBillingSettings(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	settings := h.Settings
	h.mu.RUnlock()
	writeJSON(w, http.StatusOK, settings)
}

func (h *Handler) UpdateBillingSettings(w http.ResponseWriter, r *http.Request) {
	var settings billing.BillingSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h.mu.Lock()
	h.Settings = settings
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, settings)
}

// =============================================================================
// CONFIGURATION
// =============================================================================

func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	holidays := h.Gen.Holidays
	h.mu.RUnlock()
	writeJSON(w, http.StatusOK, holidays)
}

// UpdateHolidays replaces the tenant's holiday table.
func (h *Handler) UpdateHolidays(w http.ResponseWriter, r *http.Request) {
	var table pricing.HolidayTable
	if err := json.NewDecoder(r.Body).Decode(&table); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h.mu.Lock()
	h.Gen.Holidays = table
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, table)
}

func (h *Handler) GetPayParameters(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	params := h.Gen.Params
	h.mu.RUnlock()
	writeJSON(w, http.StatusOK, params)
}

// UpdatePayParameters replaces the pay parameters and bumps the version.
// Validated timesheets keep their frozen totals; only future generation
// sees the new values.
func (h *Handler) UpdatePayParameters(w http.ResponseWriter, r *http.Request) {
	var params pricing.PayParameters
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h.mu.Lock()
	params.Version = h.Gen.Params.Version + 1
	h.Gen.Params = params
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, params)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// writeDomainError maps engine errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, timesheet.ErrTimesheetNotFound),
		errors.Is(err, billing.ErrInvoiceNotFound),
		errors.Is(err, timesheet.ErrLineNotFound),
		errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case timesheet.IsPreconditionFailed(err):
		writeError(w, http.StatusPreconditionFailed, err)
	case errors.Is(err, billing.ErrAlreadyInvoiced):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, billing.ErrNotBillable), errors.Is(err, billing.ErrEmptyInvoice):
		writeError(w, http.StatusUnprocessableEntity, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
