/*
generate.go - Classification and pricing of usage records

PURPOSE:
  Converts raw usage records into priced timesheet lines. A single
  interval can yield several lines: a guard shift overlapping two meal
  windows produces one hours line plus two meal-premium lines, and an
  hour pushing the week past the overtime threshold adds an overtime
  premium line for the excess portion.

CLASSIFICATION:
  Source -> event type code mapping lives in a Classification value, not
  in hardcoded switch statements, so tenants can evolve their code sets.
  An unknown code does NOT drop the record: the line is kept with a zero
  amount and NeedsReview set, so totals stay honest and a human can fix
  the catalog.

IDEMPOTENCE:
  Generate is a pure function of its inputs. No hidden counters, no
  clock reads; regenerating with identical inputs yields identical lines
  (modulo line IDs, which the caller assigns on persistence).

MINIMUM PAID HOURS:
  Some dispatch sources guarantee a minimum (a recall pays at least N
  hours). The minimum pads the line quantity before pricing, and the
  padded quantity is what counts toward the weekly overtime threshold -
  those are paid hours.
*/
package timesheet

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/firehall/cost-engine/catalog"
	"github.com/firehall/cost-engine/pricing"
)

// =============================================================================
// CLASSIFICATION - Source/meal/overtime code configuration
// =============================================================================

// Classification maps record sources and premium kinds to event type
// codes. It is tenant configuration, shipped with defaults in factory.
type Classification struct {
	SourceCodes  map[pricing.CallSource]string
	MealCodes    map[pricing.MealKind]string
	OvertimeCode string
}

// CodeFor returns the event type code for a source ("" when unmapped).
func (c Classification) CodeFor(source pricing.CallSource) string {
	return c.SourceCodes[source]
}

// =============================================================================
// GENERATOR
// =============================================================================

// Generator prices usage records for one tenant. All fields are
// read-only during generation, so one Generator may serve concurrent
// batch workers.
type Generator struct {
	Catalog  *catalog.Catalog
	Params   pricing.PayParameters
	Holidays pricing.HolidayTable
	Class    Classification

	// OvertimeEnabled comes from the scheduling configuration
	// collaborator; the engine never decides this itself.
	OvertimeEnabled bool
}

// Generate converts records into priced lines for one employee.
// Records are processed in chronological order regardless of input
// order, which keeps overtime accumulation deterministic.
func (g *Generator) Generate(records []UsageRecord, emp EmployeeProfile) []Line {
	sorted := make([]UsageRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	var lines []Line
	weekly := make(map[time.Time]decimal.Decimal)

	for _, rec := range sorted {
		lines = append(lines, g.generateOne(rec, emp, weekly)...)
	}
	return lines
}

func (g *Generator) generateOne(rec UsageRecord, emp EmployeeProfile, weekly map[time.Time]decimal.Decimal) []Line {
	code := rec.EventTypeCode
	if code == "" {
		code = g.Class.CodeFor(rec.Source)
	}

	et, err := g.Catalog.Lookup(code)
	if err != nil {
		// Classification failure: keep the line, flag it, price nothing.
		return []Line{{
			Date:          dateOf(rec.Start),
			EventTypeCode: code,
			Description:   fmt.Sprintf("non classifiable (%s)", rec.Source),
			Quantity:      rec.Duration(),
			Unit:          pricing.UnitHours,
			Amount:        decimal.Zero,
			Source:        LineGenerated,
			NeedsReview:   true,
		}}
	}

	qty := g.quantityFor(rec, et)
	ctx := g.premiumContext(rec, emp, et)

	amount, err := pricing.ResolveAmount(et.RateSource(), qty, emp.HourlyRate, ctx)
	line := Line{
		Date:             dateOf(rec.Start),
		EventTypeCode:    et.Code,
		Description:      describe(rec, et),
		Quantity:         qty,
		Unit:             et.Unit,
		Amount:           amount,
		SuperiorFunction: pricing.SuperiorFunctionApplies(rec.SuperiorFunction, et.Unit),
		Source:           LineGenerated,
	}
	if err != nil {
		line.Amount = decimal.Zero
		line.NeedsReview = true
	}

	lines := []Line{line}
	if et.Unit == pricing.UnitHours {
		if et.Category == catalog.CategoryHours {
			lines = append(lines, g.mealLines(rec, emp)...)
		}
		// Every hour-unit line feeds the weekly overtime threshold,
		// whatever its category - except the overtime premium itself,
		// which must not feed its own threshold.
		if et.Code != g.Class.OvertimeCode {
			lines = append(lines, g.overtimeLines(rec, emp, qty, weekly)...)
		}
	}
	return lines
}

// quantityFor computes the line quantity per the event type's unit,
// applying the per-call-source minimum to hourly labor.
func (g *Generator) quantityFor(rec UsageRecord, et catalog.EventType) decimal.Decimal {
	switch et.Unit {
	case pricing.UnitHours:
		qty := rec.Duration()
		if min := g.Params.MinimumFor(rec.Source); min.GreaterThan(qty) {
			qty = min
		}
		return qty
	case pricing.UnitDistance:
		return rec.Distance
	case pricing.UnitCount:
		return rec.Count
	default: // fixed_amount: quantity is display-only
		return decimal.NewFromInt(1)
	}
}

func (g *Generator) premiumContext(rec UsageRecord, emp EmployeeProfile, et catalog.EventType) pricing.PremiumContext {
	return pricing.PremiumContext{
		SuperiorFunction:    pricing.SuperiorFunctionApplies(rec.SuperiorFunction, et.Unit),
		SuperiorFunctionPct: g.Params.SuperiorFunctionPct,
		WorkDate:            rec.Start,
		Employment:          emp.Employment,
		Holidays:            g.Holidays,
	}
}

// mealLines emits one fixed-amount premium line per meal window the
// interval is eligible for. A configured meal code missing from the
// catalog makes that premium ineligible rather than failing the run.
func (g *Generator) mealLines(rec UsageRecord, emp EmployeeProfile) []Line {
	var lines []Line
	for _, w := range g.Params.MealWindows {
		if !w.Eligible(rec.Start, rec.End) {
			continue
		}
		code := g.Class.MealCodes[w.Kind]
		if code == "" {
			continue
		}
		et, err := g.Catalog.Lookup(code)
		if err != nil {
			continue
		}
		amount, err := pricing.ResolveAmount(et.RateSource(), decimal.NewFromInt(1), emp.HourlyRate, pricing.PremiumContext{})
		if err != nil {
			continue
		}
		lines = append(lines, Line{
			Date:          dateOf(rec.Start),
			EventTypeCode: et.Code,
			Description:   et.Label,
			Quantity:      decimal.NewFromInt(1),
			Unit:          et.Unit,
			Amount:        amount,
			Source:        LineGenerated,
		})
	}
	return lines
}

// overtimeLines accumulates paid hours per week and emits a premium line
// for the portion of this record beyond the weekly threshold. The base
// line already pays 1x, so the premium adds (multiplier - 1)x on the
// excess hours only.
func (g *Generator) overtimeLines(rec UsageRecord, emp EmployeeProfile, paidHours decimal.Decimal, weekly map[time.Time]decimal.Decimal) []Line {
	if !g.OvertimeEnabled {
		return nil
	}
	week := pricing.WeekOf(rec.Start)
	excess := pricing.OvertimeExcess(weekly[week], paidHours, g.Params.OvertimeWeeklyThreshold)
	weekly[week] = weekly[week].Add(paidHours)
	if excess.IsZero() {
		return nil
	}

	et, err := g.Catalog.Lookup(g.Class.OvertimeCode)
	if err != nil {
		return nil
	}
	extra := g.Params.OvertimeMultiplier.Sub(pricing.One)
	if !extra.IsPositive() {
		return nil
	}
	amount := pricing.RoundCurrency(excess.Mul(emp.HourlyRate).Mul(et.DefaultRate).Mul(extra))
	return []Line{{
		Date:          dateOf(rec.Start),
		EventTypeCode: et.Code,
		Description:   et.Label,
		Quantity:      excess,
		Unit:          pricing.UnitHours,
		Amount:        amount,
		Source:        LineGenerated,
	}}
}

// Reprice recomputes a line's amount from its current code and quantity.
// Called whenever a draft line's event type or quantity is edited so the
// stored amount can never go stale. Unknown codes zero the amount and
// flag the line.
func (g *Generator) Reprice(line Line, emp EmployeeProfile) Line {
	et, err := g.Catalog.Lookup(line.EventTypeCode)
	if err != nil {
		line.Unit = pricing.UnitHours
		line.Amount = decimal.Zero
		line.NeedsReview = true
		return line
	}

	ctx := pricing.PremiumContext{
		SuperiorFunction:    pricing.SuperiorFunctionApplies(line.SuperiorFunction, et.Unit),
		SuperiorFunctionPct: g.Params.SuperiorFunctionPct,
		WorkDate:            line.Date,
		Employment:          emp.Employment,
		Holidays:            g.Holidays,
	}
	amount, err := pricing.ResolveAmount(et.RateSource(), line.Quantity, emp.HourlyRate, ctx)
	line.Unit = et.Unit
	line.Amount = amount
	line.NeedsReview = err != nil
	return line
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func describe(rec UsageRecord, et catalog.EventType) string {
	if rec.Description != "" {
		return rec.Description
	}
	return et.Label
}
