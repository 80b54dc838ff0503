/*
invoice.go - Invoice line computation and finalization

PURPOSE:
  Prices an incident's resources into line items and manages the
  preview/finalize split:

  Preview (ComputeInvoiceLines): pure, re-computable at will, consumes
  nothing. The UI calls it on every edit.

  Finalize: reserves the unique invoice number and persists the
  document. Number assignment is the engine's single required
  mutual-exclusion point - numbers must be globally unique and
  monotonic per tenant, so it runs under a mutex.

PRICING RULES:
  Vehicle/personnel: hourly tariff x billable hours, where billable
  hours is the duration rounded UP to the nearest half-hour with a
  one-hour minimum.
  Cylinders/consumables: unit price x quantity.
  Specialties: flat per-intervention fee, never scaled by duration.
  Admin fee: one flat line, only if at least one other line exists.

  Every line is rounded to 2 decimals individually BEFORE summation
  (invoice presentation adds printed lines; rounding the raw sum once
  can differ by a cent).
*/
package billing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// LINE COMPUTATION (preview - no side effects)
// =============================================================================

var (
	half = decimal.NewFromFloat(0.5)
	one  = decimal.NewFromInt(1)
)

// BillableHours rounds a duration up to the nearest half-hour, with a
// minimum of one hour.
func BillableHours(durationHours decimal.Decimal) decimal.Decimal {
	if durationHours.LessThanOrEqual(one) {
		return one
	}
	halves := durationHours.Div(half).Ceil()
	return halves.Mul(half)
}

// ComputeInvoiceLines prices the resources enabled by the decision's
// category toggles. Returns the lines and their total (line-level
// rounding, then sum). Resources without a tariff entry are skipped -
// missing configuration degrades rather than halting a batch run.
func ComputeInvoiceLines(decision BillingDecision, resources IncidentResources, durationHours decimal.Decimal) ([]LineItem, decimal.Decimal) {
	var lines []LineItem
	hours := BillableHours(durationHours)

	if decision.Toggles.Vehicles {
		for _, v := range resources.Vehicles {
			tariff, ok := decision.VehicleRate(v.Type)
			if !ok {
				continue
			}
			lines = append(lines, LineItem{
				Description: fmt.Sprintf("Véhicule %s (%s)", v.Identifier, v.Type),
				Category:    "vehicules",
				Quantity:    hours,
				UnitPrice:   tariff,
				Amount:      tariff.Mul(hours).Round(2),
			})
		}
	}

	if decision.Toggles.Personnel {
		for _, p := range resources.Personnel {
			tariff, ok := decision.GradeRate(p.Grade)
			if !ok {
				continue
			}
			lines = append(lines, LineItem{
				Description: fmt.Sprintf("Personnel %s (%s)", p.Name, p.Grade),
				Category:    "personnel",
				Quantity:    hours,
				UnitPrice:   tariff,
				Amount:      tariff.Mul(hours).Round(2),
			})
		}
	}

	if decision.Toggles.Cylinders {
		lines = append(lines, unitLines("cylindres", "Cylindre", resources.Cylinders, decision)...)
	}
	if decision.Toggles.Consumables {
		lines = append(lines, unitLines("consommables", "Consommable", resources.Consumables, decision)...)
	}

	if decision.Toggles.Specialties {
		for _, s := range resources.Specialties {
			tariff, ok := decision.SpecialtyRate(s)
			if !ok {
				continue
			}
			lines = append(lines, LineItem{
				Description: fmt.Sprintf("Spécialité %s", s),
				Category:    "specialites",
				Quantity:    one,
				UnitPrice:   tariff,
				Amount:      tariff.Round(2),
			})
		}
	}

	// Admin fee only rides on an otherwise non-empty invoice.
	if decision.Toggles.AdminFee && len(lines) > 0 {
		fee := decision.AdminFee()
		if fee.IsPositive() {
			lines = append(lines, LineItem{
				Description: "Frais d'administration",
				Category:    "frais_admin",
				Quantity:    one,
				UnitPrice:   fee,
				Amount:      fee.Round(2),
			})
		}
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	return lines, total
}

func unitLines(category, label string, usages []UnitUsage, decision BillingDecision) []LineItem {
	var lines []LineItem
	for _, u := range usages {
		tariff, ok := decision.ConsumableRate(u.Name)
		if !ok {
			continue
		}
		lines = append(lines, LineItem{
			Description: fmt.Sprintf("%s %s", label, u.Name),
			Category:    category,
			Quantity:    u.Quantity,
			UnitPrice:   tariff,
			Amount:      tariff.Mul(u.Quantity).Round(2),
		})
	}
	return lines
}

// =============================================================================
// INVOICE STORE
// =============================================================================

// InvoiceStore persists invoices and the per-tenant number sequence.
type InvoiceStore interface {
	Save(ctx context.Context, inv *Invoice) error

	Get(ctx context.Context, id string) (*Invoice, error)

	// FindIssuedByIncident returns the issued (non-superseded) invoice
	// for an incident, or nil.
	FindIssuedByIncident(ctx context.Context, tenantID, incidentID string) (*Invoice, error)

	// NextSequence atomically increments and returns the tenant's
	// invoice counter for a year.
	NextSequence(ctx context.Context, tenantID string, year int) (int, error)
}

// =============================================================================
// INVOICE SERVICE - finalize / supersede
// =============================================================================

// InvoiceService finalizes invoices. The mutex serializes number
// assignment: numbers are globally unique and monotonic per tenant.
type InvoiceService struct {
	Store InvoiceStore

	mu sync.Mutex
}

// FinalizeInput carries everything a finalization needs; previews use
// ComputeInvoiceLines directly and never touch the service.
type FinalizeInput struct {
	TenantID      string
	IncidentID    string
	Decision      BillingDecision
	Resources     IncidentResources
	DurationHours decimal.Decimal

	// Supersede replaces an existing issued invoice instead of failing
	// with ErrAlreadyInvoiced.
	Supersede bool
}

// Finalize prices the incident, reserves a number, and persists the
// invoice. Rejects non-billable decisions, empty invoices, and repeat
// finalization without Supersede.
func (s *InvoiceService) Finalize(ctx context.Context, in FinalizeInput) (*Invoice, error) {
	if !in.Decision.Billable {
		return nil, ErrNotBillable
	}

	lines, total := ComputeInvoiceLines(in.Decision, in.Resources, in.DurationHours)
	if len(lines) == 0 {
		return nil, ErrEmptyInvoice
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.Store.FindIssuedByIncident(ctx, in.TenantID, in.IncidentID)
	if err != nil {
		return nil, fmt.Errorf("looking up existing invoice: %w", err)
	}
	if existing != nil && !in.Supersede {
		return nil, &AlreadyInvoicedError{IncidentID: in.IncidentID, Number: existing.Number}
	}

	now := time.Now().UTC()
	seq, err := s.Store.NextSequence(ctx, in.TenantID, now.Year())
	if err != nil {
		return nil, fmt.Errorf("reserving invoice number: %w", err)
	}

	inv := &Invoice{
		ID:            uuid.NewString(),
		TenantID:      in.TenantID,
		Number:        fmt.Sprintf("FACT-%d-%04d", now.Year(), seq),
		IncidentID:    in.IncidentID,
		BilledParty:   in.Decision.BilledParty,
		Lines:         lines,
		Total:         total,
		DurationHours: in.DurationHours,
		Status:        InvoiceIssued,
		GeneratedAt:   now,
	}
	if err := s.Store.Save(ctx, inv); err != nil {
		return nil, fmt.Errorf("saving invoice: %w", err)
	}

	if existing != nil {
		existing.Status = InvoiceSuperseded
		existing.SupersededBy = inv.Number
		if err := s.Store.Save(ctx, existing); err != nil {
			return nil, fmt.Errorf("marking superseded invoice: %w", err)
		}
	}
	return inv, nil
}
