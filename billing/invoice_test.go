package billing_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firehall/cost-engine/billing"
)

// =============================================================================
// BILLABLE HOURS
// =============================================================================

func TestBillableHours(t *testing.T) {
	cases := []struct {
		duration, want float64
	}{
		{0.25, 1},   // one-hour minimum
		{1, 1},      // exactly the minimum
		{1.1, 1.5},  // rounds up to the next half-hour
		{1.5, 1.5},  // already on a boundary
		{2.75, 3},   // 2.75 -> 3.0
	}
	for _, tc := range cases {
		got := billing.BillableHours(d(tc.duration))
		if !got.Equal(d(tc.want)) {
			t.Errorf("BillableHours(%v) = %s, want %v", tc.duration, got, tc.want)
		}
	}
}

// =============================================================================
// LINE COMPUTATION
// =============================================================================

func TestComputeInvoiceLines_FullDeployment(t *testing.T) {
	// GIVEN: a default-billing decision and a 2h10 deployment
	// WHEN: computing lines
	// THEN: vehicle and personnel bill 2.5 billable hours, the consumable
	//       bills its quantity, and the admin fee closes the invoice

	decision := billing.DetermineBillableParty("Sainte-Claire", testSettings())
	resources := billing.IncidentResources{
		Vehicles:    []billing.VehicleUsage{{Identifier: "201", Type: "autopompe"}},
		Personnel:   []billing.PersonnelUsage{{Name: "Tremblay", Grade: "pompier"}},
		Consumables: []billing.UnitUsage{{Name: "mousse", Quantity: d(2)}},
	}

	lines, total := billing.ComputeInvoiceLines(decision, resources, d(2.17))
	require.Len(t, lines, 4)

	// 250x2.5 + 35x2.5 + 85x2 + 100 = 625 + 87.50 + 170 + 100
	assert.True(t, lines[0].Amount.Equal(d(625)), "vehicle = %s", lines[0].Amount)
	assert.True(t, lines[1].Amount.Equal(d(87.50)), "personnel = %s", lines[1].Amount)
	assert.True(t, lines[2].Amount.Equal(d(170)), "consumable = %s", lines[2].Amount)
	assert.Equal(t, "Frais d'administration", lines[3].Description)
	assert.True(t, total.Equal(d(982.50)), "total = %s", total)
}

func TestComputeInvoiceLines_PerLineRounding(t *testing.T) {
	// GIVEN: three lines whose raw amounts each carry a half-cent
	// WHEN: computing the total
	// THEN: each line is rounded before summation - the total differs
	//       from rounding the raw sum once

	settings := billing.BillingSettings{
		DefaultTariffs: billing.Tariffs{
			Grades: map[string]decimal.Decimal{"pompier": d(33.335)},
		},
	}
	decision := billing.DetermineBillableParty("Sainte-Claire", settings)
	resources := billing.IncidentResources{
		Personnel: []billing.PersonnelUsage{
			{Name: "A", Grade: "pompier"},
			{Name: "B", Grade: "pompier"},
			{Name: "C", Grade: "pompier"},
		},
	}

	lines, total := billing.ComputeInvoiceLines(decision, resources, d(1))
	require.Len(t, lines, 3)
	// Each raw line is 33.335 -> 33.34 rounded; 3 x 33.34 = 100.02.
	// Rounding the raw sum (100.005) once would give 100.01.
	assert.True(t, total.Equal(d(100.02)), "total = %s, want per-line rounding", total)
}

func TestComputeInvoiceLines_TogglesAndMissingTariffs(t *testing.T) {
	// Disabled categories and unknown tariff keys produce no lines; with
	// nothing billable there is no admin fee either.
	decision := billing.DetermineBillableParty("Saint-Nérée", testSettings())
	resources := billing.IncidentResources{
		Vehicles:    []billing.VehicleUsage{{Identifier: "301", Type: "citerne"}}, // no tariff
		Consumables: []billing.UnitUsage{{Name: "mousse", Quantity: d(1)}},        // toggle off
	}

	lines, total := billing.ComputeInvoiceLines(decision, resources, d(2))
	assert.Empty(t, lines)
	assert.True(t, total.IsZero())
}

// =============================================================================
// FINALIZATION
// =============================================================================

func finalizeInput(incidentID string) billing.FinalizeInput {
	return billing.FinalizeInput{
		TenantID:   "tenant-1",
		IncidentID: incidentID,
		Decision:   billing.DetermineBillableParty("Sainte-Claire", testSettings()),
		Resources: billing.IncidentResources{
			Vehicles: []billing.VehicleUsage{{Identifier: "201", Type: "autopompe"}},
		},
		DurationHours: d(2),
	}
}

func TestFinalize_AssignsSequentialNumbers(t *testing.T) {
	svc := &billing.InvoiceService{Store: billing.NewMemoryStore()}
	ctx := context.Background()
	year := time.Now().UTC().Year()

	first, err := svc.Finalize(ctx, finalizeInput("inc-1"))
	require.NoError(t, err)
	second, err := svc.Finalize(ctx, finalizeInput("inc-2"))
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("FACT-%d-0001", year), first.Number)
	assert.Equal(t, fmt.Sprintf("FACT-%d-0002", year), second.Number)
	assert.Equal(t, billing.InvoiceIssued, first.Status)
}

func TestFinalize_RepeatIncidentRejected(t *testing.T) {
	svc := &billing.InvoiceService{Store: billing.NewMemoryStore()}
	ctx := context.Background()

	first, err := svc.Finalize(ctx, finalizeInput("inc-1"))
	require.NoError(t, err)

	_, err = svc.Finalize(ctx, finalizeInput("inc-1"))
	assert.ErrorIs(t, err, billing.ErrAlreadyInvoiced)
	var aiErr *billing.AlreadyInvoicedError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, first.Number, aiErr.Number)
}

func TestFinalize_SupersedeReplacesInvoice(t *testing.T) {
	// GIVEN: an issued invoice for an incident
	// WHEN: finalizing again with Supersede
	// THEN: a new number is issued and the old invoice is marked, its
	//       amounts untouched

	svc := &billing.InvoiceService{Store: billing.NewMemoryStore()}
	store := svc.Store
	ctx := context.Background()

	first, err := svc.Finalize(ctx, finalizeInput("inc-1"))
	require.NoError(t, err)

	in := finalizeInput("inc-1")
	in.Supersede = true
	replacement, err := svc.Finalize(ctx, in)
	require.NoError(t, err)
	assert.NotEqual(t, first.Number, replacement.Number)

	old, err := store.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceSuperseded, old.Status)
	assert.Equal(t, replacement.Number, old.SupersededBy)
	assert.True(t, old.Total.Equal(first.Total), "superseded amounts never change")

	// The incident's issued invoice is now the replacement.
	issued, err := store.FindIssuedByIncident(ctx, "tenant-1", "inc-1")
	require.NoError(t, err)
	require.NotNil(t, issued)
	assert.Equal(t, replacement.ID, issued.ID)
}

func TestFinalize_Rejections(t *testing.T) {
	svc := &billing.InvoiceService{Store: billing.NewMemoryStore()}
	ctx := context.Background()

	notBillable := finalizeInput("inc-1")
	notBillable.Decision = billing.DetermineBillableParty("Saint-Damien", testSettings())
	_, err := svc.Finalize(ctx, notBillable)
	assert.ErrorIs(t, err, billing.ErrNotBillable)

	empty := finalizeInput("inc-2")
	empty.Resources = billing.IncidentResources{}
	_, err = svc.Finalize(ctx, empty)
	assert.ErrorIs(t, err, billing.ErrEmptyInvoice)
}
