package timesheet_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/firehall/cost-engine/catalog"
	"github.com/firehall/cost-engine/factory"
	"github.com/firehall/cost-engine/pricing"
	"github.com/firehall/cost-engine/timesheet"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func newTestGenerator() *timesheet.Generator {
	return &timesheet.Generator{
		Catalog:         factory.NewCatalog(),
		Params:          factory.DefaultPayParameters(),
		Holidays:        factory.QuebecHolidays(2026),
		Class:           factory.DefaultClassification(),
		OvertimeEnabled: true,
	}
}

func fullTimer() timesheet.EmployeeProfile {
	return timesheet.EmployeeProfile{
		ID:         "emp-1",
		Name:       "Tremblay",
		HourlyRate: d(20),
		Employment: pricing.EmploymentFullTime,
		Active:     true,
	}
}

func guardShift(day, startHour, hours int) timesheet.UsageRecord {
	start := time.Date(2026, time.March, day, startHour, 0, 0, 0, time.UTC)
	return timesheet.UsageRecord{
		EmployeeID: "emp-1",
		Start:      start,
		End:        start.Add(time.Duration(hours) * time.Hour),
		Source:     pricing.SourceGuardInternal,
	}
}

func amountOf(t *testing.T, lines []timesheet.Line, code string) decimal.Decimal {
	t.Helper()
	for _, l := range lines {
		if l.EventTypeCode == code {
			return l.Amount
		}
	}
	t.Fatalf("no line with code %s", code)
	return decimal.Zero
}

// =============================================================================
// CLASSIFICATION & PRICING
// =============================================================================

func TestGenerate_GuardShiftWithMeals(t *testing.T) {
	// GIVEN: an 8h internal guard shift 07:00-15:00
	// WHEN: generating lines
	// THEN: one hours line (8 x 20 = 160) plus breakfast and lunch
	//       premiums; the dinner window is untouched

	gen := newTestGenerator()
	lines := gen.Generate([]timesheet.UsageRecord{guardShift(10, 7, 8)}, fullTimer())

	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if got := amountOf(t, lines, "GARDE_INTERNE"); !got.Equal(d(160)) {
		t.Errorf("guard amount = %s, want 160", got)
	}
	if got := amountOf(t, lines, "REPAS_DEJEUNER"); !got.Equal(d(12)) {
		t.Errorf("breakfast amount = %s, want 12", got)
	}
	if got := amountOf(t, lines, "REPAS_DINER"); !got.Equal(d(18)) {
		t.Errorf("lunch amount = %s, want 18", got)
	}
}

func TestGenerate_RecallMinimumPaidHours(t *testing.T) {
	// GIVEN: a 40-minute recall, with a configured 3h minimum
	// WHEN: generating lines
	// THEN: the line is padded to 3 paid hours (3 x 20 = 60)

	gen := newTestGenerator()
	start := time.Date(2026, time.March, 10, 3, 0, 0, 0, time.UTC)
	rec := timesheet.UsageRecord{
		EmployeeID: "emp-1",
		Start:      start,
		End:        start.Add(40 * time.Minute),
		Source:     pricing.SourceRecall,
	}

	lines := gen.Generate([]timesheet.UsageRecord{rec}, fullTimer())
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if !lines[0].Quantity.Equal(d(3)) {
		t.Errorf("quantity = %s, want 3 (minimum)", lines[0].Quantity)
	}
	if !lines[0].Amount.Equal(d(60)) {
		t.Errorf("amount = %s, want 60", lines[0].Amount)
	}
}

func TestGenerate_HolidayMultiplier(t *testing.T) {
	// Christmas shift for a full-timer: 4h x 20 x 2.0 = 160.
	gen := newTestGenerator()
	start := time.Date(2026, time.December, 25, 8, 0, 0, 0, time.UTC)
	rec := timesheet.UsageRecord{
		EmployeeID: "emp-1",
		Start:      start,
		End:        start.Add(4 * time.Hour),
		Source:     pricing.SourceTraining,
	}

	lines := gen.Generate([]timesheet.UsageRecord{rec}, fullTimer())
	if got := amountOf(t, lines, "FORMATION"); !got.Equal(d(160)) {
		t.Errorf("holiday amount = %s, want 160", got)
	}
}

func TestGenerate_UnknownSourceKeptForReview(t *testing.T) {
	// GIVEN: a record whose source has no classification entry
	// WHEN: generating lines
	// THEN: the line survives with a zero amount and needs_review set

	gen := newTestGenerator()
	rec := guardShift(10, 7, 2)
	rec.Source = pricing.SourceManual // unmapped by default

	lines := gen.Generate([]timesheet.UsageRecord{rec}, fullTimer())
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if !lines[0].NeedsReview {
		t.Error("unclassifiable record must be flagged for review")
	}
	if !lines[0].Amount.IsZero() {
		t.Errorf("review line amount = %s, want 0", lines[0].Amount)
	}
}

// =============================================================================
// OVERTIME
// =============================================================================

func TestGenerate_OvertimeExcessOnly(t *testing.T) {
	// GIVEN: 36h then 8h of guard in the same week (threshold 40, x1.5)
	// WHEN: generating lines
	// THEN: the second record yields an overtime premium line on the 4
	//       excess hours only, at (1.5 - 1) x rate: 4 x 20 x 0.5 = 40

	gen := newTestGenerator()
	records := []timesheet.UsageRecord{
		guardShift(9, 0, 36),  // Mon-Tue
		guardShift(12, 8, 8),  // Thu
	}

	lines := gen.Generate(records, fullTimer())
	got := amountOf(t, lines, "TEMPS_SUPP")
	if !got.Equal(d(40)) {
		t.Errorf("overtime amount = %s, want 40", got)
	}
	for _, l := range lines {
		if l.EventTypeCode == "TEMPS_SUPP" && !l.Quantity.Equal(d(4)) {
			t.Errorf("overtime quantity = %s, want 4", l.Quantity)
		}
	}
}

func TestGenerate_OvertimeCountsAllHourUnitLines(t *testing.T) {
	// GIVEN: 38h of guard then 4h of an hour-unit evening premium in
	//        the same week (threshold 40, x1.5)
	// WHEN: generating lines
	// THEN: the premium hours still push the week past the threshold:
	//       2 excess hours at (1.5 - 1) x 20 = 20

	gen := newTestGenerator()
	err := gen.Catalog.Register(catalog.EventType{
		Code: "PRIME_SOIR", Label: "Prime de soir",
		Category: catalog.CategoryPremium, Unit: pricing.UnitHours, DefaultRate: d(0.15),
	})
	if err != nil {
		t.Fatalf("registering premium type: %v", err)
	}

	evening := guardShift(12, 18, 4)
	evening.Source = pricing.SourceManual
	evening.EventTypeCode = "PRIME_SOIR"

	lines := gen.Generate([]timesheet.UsageRecord{guardShift(9, 0, 38), evening}, fullTimer())
	if got := amountOf(t, lines, "TEMPS_SUPP"); !got.Equal(d(20)) {
		t.Errorf("overtime amount = %s, want 20", got)
	}
	for _, l := range lines {
		if l.EventTypeCode == "TEMPS_SUPP" && !l.Quantity.Equal(d(2)) {
			t.Errorf("overtime quantity = %s, want 2", l.Quantity)
		}
	}
}

func TestGenerate_OvertimeDisabled(t *testing.T) {
	gen := newTestGenerator()
	gen.OvertimeEnabled = false
	records := []timesheet.UsageRecord{
		guardShift(9, 0, 36),
		guardShift(12, 8, 8),
	}

	for _, l := range gen.Generate(records, fullTimer()) {
		if l.EventTypeCode == "TEMPS_SUPP" {
			t.Fatal("overtime line generated while disabled")
		}
	}
}

func TestGenerate_SortsRecordsBeforeAccumulating(t *testing.T) {
	// Overtime accumulation must not depend on input order.
	gen := newTestGenerator()
	forward := []timesheet.UsageRecord{guardShift(9, 0, 36), guardShift(12, 8, 8)}
	reversed := []timesheet.UsageRecord{guardShift(12, 8, 8), guardShift(9, 0, 36)}

	a := gen.Generate(forward, fullTimer())
	b := gen.Generate(reversed, fullTimer())
	if len(a) != len(b) {
		t.Fatalf("line counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].Amount.Equal(b[i].Amount) || a[i].EventTypeCode != b[i].EventTypeCode {
			t.Errorf("line %d differs: %s %s vs %s %s", i, a[i].EventTypeCode, a[i].Amount, b[i].EventTypeCode, b[i].Amount)
		}
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	// Identical inputs yield identical lines, run after run.
	gen := newTestGenerator()
	records := []timesheet.UsageRecord{guardShift(10, 7, 8), guardShift(11, 7, 8)}

	a := gen.Generate(records, fullTimer())
	b := gen.Generate(records, fullTimer())
	if len(a) != len(b) {
		t.Fatalf("line counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].EventTypeCode != b[i].EventTypeCode || !a[i].Quantity.Equal(b[i].Quantity) || !a[i].Amount.Equal(b[i].Amount) {
			t.Errorf("line %d not reproducible", i)
		}
	}
}

// =============================================================================
// REPRICE
// =============================================================================

func TestReprice_RecomputesAmount(t *testing.T) {
	gen := newTestGenerator()
	line := timesheet.Line{
		Date:          time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
		EventTypeCode: "FORMATION",
		Quantity:      d(2),
	}

	line = gen.Reprice(line, fullTimer())
	if !line.Amount.Equal(d(40)) {
		t.Errorf("amount = %s, want 40", line.Amount)
	}
	if line.NeedsReview {
		t.Error("priced line must not be flagged")
	}

	line.EventTypeCode = "GHOST"
	line = gen.Reprice(line, fullTimer())
	if !line.Amount.IsZero() || !line.NeedsReview {
		t.Error("unknown code must zero the amount and flag the line")
	}
}
