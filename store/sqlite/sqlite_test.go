package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firehall/cost-engine/billing"
	"github.com/firehall/cost-engine/pricing"
	"github.com/firehall/cost-engine/store/sqlite"
	"github.com/firehall/cost-engine/timesheet"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func sampleTimesheet() *timesheet.Timesheet {
	start := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	ts := timesheet.NewDraft("tenant-1", "emp-1", start, start.AddDate(0, 0, 13))
	ts.Lines = []timesheet.Line{
		{
			ID:            timesheet.NewLineID(),
			Date:          start.AddDate(0, 0, 1),
			EventTypeCode: "GARDE_INTERNE",
			Description:   "Garde interne",
			Quantity:      d(8),
			Unit:          pricing.UnitHours,
			Amount:        d(160),
			Source:        timesheet.LineGenerated,
		},
		{
			ID:            timesheet.NewLineID(),
			Date:          start.AddDate(0, 0, 2),
			EventTypeCode: "REPAS_DINER",
			Description:   "Repas - dîner",
			Quantity:      d(1),
			Unit:          pricing.UnitFixedAmount,
			Amount:        d(18),
			Source:        timesheet.LineGenerated,
			NeedsReview:   true,
		},
	}
	return ts
}

// =============================================================================
// TIMESHEET ROUND-TRIP
// =============================================================================

func TestSQLite_TimesheetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	ts := sampleTimesheet()

	require.NoError(t, store.Save(ctx, ts))

	loaded, err := store.Get(ctx, ts.ID)
	require.NoError(t, err)
	assert.Equal(t, ts.EmployeeID, loaded.EmployeeID)
	assert.Equal(t, timesheet.StatusDraft, loaded.Status)
	require.Len(t, loaded.Lines, 2)

	// Line order and decimal exactness survive the TEXT round-trip.
	assert.Equal(t, "GARDE_INTERNE", loaded.Lines[0].EventTypeCode)
	assert.True(t, loaded.Lines[0].Amount.Equal(d(160)))
	assert.True(t, loaded.Lines[1].NeedsReview)
	assert.Equal(t, timesheet.DateKey(ts.PeriodStart), timesheet.DateKey(loaded.PeriodStart))
}

func TestSQLite_GetUnknownID(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, timesheet.ErrTimesheetNotFound)
}

func TestSQLite_FrozenTotalsPersist(t *testing.T) {
	// GIVEN: a timesheet validated before saving
	// WHEN: loading it back
	// THEN: the frozen snapshot is restored, not recomputed

	store := newTestStore(t)
	ctx := context.Background()
	ts := sampleTimesheet()

	totals := timesheet.Totals{
		InternalGuardHours: d(8),
		TotalPaidHours:     d(8),
		TotalAmount:        d(178),
	}
	ts.RestoreFrozenTotals(&totals)
	ts.Status = timesheet.StatusValidated
	now := time.Now().UTC()
	ts.ValidatedAt = &now

	require.NoError(t, store.Save(ctx, ts))

	loaded, err := store.Get(ctx, ts.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.FrozenTotals())
	assert.True(t, loaded.FrozenTotals().TotalAmount.Equal(d(178)))
	assert.NotNil(t, loaded.ValidatedAt)
}

func TestSQLite_SaveReplacesLines(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	ts := sampleTimesheet()
	require.NoError(t, store.Save(ctx, ts))

	ts.Lines = ts.Lines[:1]
	require.NoError(t, store.Save(ctx, ts))

	loaded, err := store.Get(ctx, ts.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Lines, 1, "stale lines must not linger")
}

func TestSQLite_FindByEmployeePeriod(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	ts := sampleTimesheet()
	require.NoError(t, store.Save(ctx, ts))

	found, err := store.FindByEmployeePeriod(ctx, "tenant-1", "emp-1", ts.PeriodStart, ts.PeriodEnd)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, ts.ID, found.ID)

	// Different period: no match, no error.
	missing, err := store.FindByEmployeePeriod(ctx, "tenant-1", "emp-1", ts.PeriodStart.AddDate(0, 0, 14), ts.PeriodEnd.AddDate(0, 0, 14))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLite_DeleteCascadesLines(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	ts := sampleTimesheet()
	require.NoError(t, store.Save(ctx, ts))

	require.NoError(t, store.Delete(ctx, ts.ID))
	_, err := store.Get(ctx, ts.ID)
	assert.ErrorIs(t, err, timesheet.ErrTimesheetNotFound)

	assert.ErrorIs(t, store.Delete(ctx, ts.ID), timesheet.ErrTimesheetNotFound)
}

// =============================================================================
// INVOICE STORE
// =============================================================================

func TestSQLite_InvoiceRoundTripAndSequence(t *testing.T) {
	store := newTestStore(t)
	invoices := &sqlite.InvoiceStore{Store: store}
	ctx := context.Background()

	seq, err := invoices.NextSequence(ctx, "tenant-1", 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, seq)
	seq, err = invoices.NextSequence(ctx, "tenant-1", 2026)
	require.NoError(t, err)
	assert.Equal(t, 2, seq)

	// Counters are independent per tenant and per year.
	seq, err = invoices.NextSequence(ctx, "tenant-2", 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, seq)
	seq, err = invoices.NextSequence(ctx, "tenant-1", 2027)
	require.NoError(t, err)
	assert.Equal(t, 1, seq)

	inv := &billing.Invoice{
		ID:          "inv-1",
		TenantID:    "tenant-1",
		Number:      "FACT-2026-0002",
		IncidentID:  "inc-1",
		BilledParty: "MRC de Bellechasse",
		Lines: []billing.LineItem{{
			Description: "Véhicule 201 (autopompe)",
			Category:    "vehicules",
			Quantity:    d(2.5),
			UnitPrice:   d(250),
			Amount:      d(625),
		}},
		Total:         d(625),
		DurationHours: d(2.17),
		Status:        billing.InvoiceIssued,
		GeneratedAt:   time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, invoices.Save(ctx, inv))

	loaded, err := invoices.Get(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, inv.Number, loaded.Number)
	require.Len(t, loaded.Lines, 1)
	assert.True(t, loaded.Lines[0].Amount.Equal(d(625)))

	issued, err := invoices.FindIssuedByIncident(ctx, "tenant-1", "inc-1")
	require.NoError(t, err)
	require.NotNil(t, issued)
	assert.Equal(t, "inv-1", issued.ID)

	// Supersession only flips status and back-reference.
	loaded.Status = billing.InvoiceSuperseded
	loaded.SupersededBy = "FACT-2026-0003"
	require.NoError(t, invoices.Save(ctx, loaded))

	issued, err = invoices.FindIssuedByIncident(ctx, "tenant-1", "inc-1")
	require.NoError(t, err)
	assert.Nil(t, issued)

	reloaded, err := invoices.Get(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceSuperseded, reloaded.Status)
	assert.Equal(t, "FACT-2026-0003", reloaded.SupersededBy)
}
