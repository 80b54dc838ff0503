/*
Package factory builds default tenant configurations.

PURPOSE:
  New tenants start from a working configuration instead of an empty
  one: a standard event-type catalog, Quebec statutory holidays, and
  pay parameters with the usual premium settings. Everything here is a
  plain value the tenant's settings screens can then edit; nothing in
  the engine depends on these exact presets.

SEE ALSO:
  - catalog: event type registry these presets populate
  - pricing: PayParameters / HolidayDefinition consumed by the engine
*/
package factory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/firehall/cost-engine/billing"
	"github.com/firehall/cost-engine/catalog"
	"github.com/firehall/cost-engine/pricing"
	"github.com/firehall/cost-engine/timesheet"
)

// =============================================================================
// EVENT TYPE CATALOG
// =============================================================================

// DefaultEventTypes returns the standard fire-department catalog. Rates
// on hour-unit types are multipliers on the base hourly rate; meal
// premiums are fixed amounts; kilometrage is a unit price.
func DefaultEventTypes() []catalog.EventType {
	d := decimal.NewFromFloat
	return []catalog.EventType{
		{Code: "GARDE_INTERNE", Label: "Garde interne", Category: catalog.CategoryHours, Unit: pricing.UnitHours, DefaultRate: d(1.0)},
		{Code: "GARDE_EXTERNE", Label: "Garde externe", Category: catalog.CategoryHours, Unit: pricing.UnitHours, DefaultRate: d(0.30)},
		{Code: "RAPPEL", Label: "Rappel au travail", Category: catalog.CategoryHours, Unit: pricing.UnitHours, DefaultRate: d(1.0)},
		{Code: "FORMATION", Label: "Formation", Category: catalog.CategoryHours, Unit: pricing.UnitHours, DefaultRate: d(1.0)},
		{Code: "INTERVENTION", Label: "Intervention", Category: catalog.CategoryHours, Unit: pricing.UnitHours, DefaultRate: d(1.0)},
		{Code: "TEMPS_SUPP", Label: "Temps supplémentaire", Category: catalog.CategoryPremium, Unit: pricing.UnitHours, DefaultRate: d(1.0)},
		{Code: "REPAS_DEJEUNER", Label: "Repas - déjeuner", Category: catalog.CategoryPremium, Unit: pricing.UnitFixedAmount, DefaultRate: d(12.00)},
		{Code: "REPAS_DINER", Label: "Repas - dîner", Category: catalog.CategoryPremium, Unit: pricing.UnitFixedAmount, DefaultRate: d(18.00)},
		{Code: "REPAS_SOUPER", Label: "Repas - souper", Category: catalog.CategoryPremium, Unit: pricing.UnitFixedAmount, DefaultRate: d(22.00)},
		{Code: "KILOMETRAGE", Label: "Kilométrage", Category: catalog.CategoryExpense, Unit: pricing.UnitDistance, DefaultRate: d(0.61)},
		{Code: "UNIFORME", Label: "Allocation uniforme", Category: catalog.CategoryExpense, Unit: pricing.UnitFixedAmount, DefaultRate: d(150.00)},
		{Code: "RETENUE", Label: "Retenue diverses", Category: catalog.CategoryDeduction, Unit: pricing.UnitCount, DefaultRate: d(1.00)},
	}
}

// NewCatalog registers the default event types on a fresh catalog.
func NewCatalog() *catalog.Catalog {
	c := catalog.New()
	for _, et := range DefaultEventTypes() {
		// Defaults are statically unique; Register cannot fail here.
		_ = c.Register(et)
	}
	return c
}

// DefaultClassification maps call sources and premiums onto the default
// catalog codes.
func DefaultClassification() timesheet.Classification {
	return timesheet.Classification{
		SourceCodes: map[pricing.CallSource]string{
			pricing.SourceGuardInternal: "GARDE_INTERNE",
			pricing.SourceGuardExternal: "GARDE_EXTERNE",
			pricing.SourceRecall:        "RAPPEL",
			pricing.SourceTraining:      "FORMATION",
			pricing.SourceIntervention:  "INTERVENTION",
		},
		MealCodes: map[pricing.MealKind]string{
			pricing.MealBreakfast: "REPAS_DEJEUNER",
			pricing.MealLunch:     "REPAS_DINER",
			pricing.MealDinner:    "REPAS_SOUPER",
		},
		OvertimeCode: "TEMPS_SUPP",
	}
}

// =============================================================================
// PAY PARAMETERS
// =============================================================================

// DefaultPayParameters mirrors the usual collective-agreement settings:
// biweekly periods, +10% superior function, 40h/1.5x overtime, 3h
// minimum on recalls and interventions, three meal windows.
func DefaultPayParameters() pricing.PayParameters {
	d := decimal.NewFromFloat
	return pricing.PayParameters{
		PeriodDays:              14,
		SuperiorFunctionPct:     d(0.10),
		OvertimeWeeklyThreshold: d(40),
		OvertimeMultiplier:      d(1.5),
		MinimumPaidHours: map[pricing.CallSource]decimal.Decimal{
			pricing.SourceRecall:       d(3),
			pricing.SourceIntervention: d(3),
		},
		MealWindows: []pricing.MealWindow{
			{Kind: pricing.MealBreakfast, Start: "06:00", End: "09:00", MinMinutes: 120, Active: true},
			{Kind: pricing.MealLunch, Start: "11:00", End: "14:00", MinMinutes: 120, Active: true},
			{Kind: pricing.MealDinner, Start: "17:00", End: "20:00", MinMinutes: 120, Active: true},
		},
		Version: 1,
	}
}

// =============================================================================
// BILLING TARIFFS
// =============================================================================

// DefaultTariffs returns a starter mutual-aid price table. Hourly rates
// for vehicles and grades, unit prices for consumables, a flat
// per-invoice admin fee.
func DefaultTariffs() billing.Tariffs {
	d := decimal.NewFromFloat
	return billing.Tariffs{
		Vehicles: map[string]decimal.Decimal{
			"autopompe":     d(250.00),
			"citerne":       d(200.00),
			"echelle":       d(350.00),
			"unite_secours": d(180.00),
		},
		Grades: map[string]decimal.Decimal{
			"pompier":    d(35.00),
			"lieutenant": d(42.00),
			"capitaine":  d(48.00),
			"directeur":  d(55.00),
		},
		Specialties: map[string]decimal.Decimal{
			"desincarceration":     d(500.00),
			"matieres_dangereuses": d(750.00),
		},
		Consumables: map[string]decimal.Decimal{
			"mousse_classe_a": d(85.00),
			"absorbant":       d(25.00),
			"cylindre_air":    d(15.00),
		},
		AdminFee: d(100.00),
	}
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// QuebecHolidays returns the statutory holidays for a year with the
// usual multipliers (2x full-time, 1.5x part-time/temporary). Easter
// Monday and moveable feasts are left to tenant configuration.
func QuebecHolidays(year int) pricing.HolidayTable {
	full := decimal.NewFromFloat(2.0)
	part := decimal.NewFromFloat(1.5)
	day := func(month time.Month, d int, name string) pricing.HolidayDefinition {
		return pricing.HolidayDefinition{
			Date:     time.Date(year, month, d, 0, 0, 0, 0, time.UTC),
			Name:     name,
			Type:     pricing.HolidayStatutory,
			FullTime: full,
			PartTime: part,
			Active:   true,
		}
	}
	return pricing.HolidayTable{
		day(time.January, 1, "Jour de l'An"),
		day(time.June, 24, "Fête nationale du Québec"),
		day(time.July, 1, "Fête du Canada"),
		day(time.September, firstMonday(year, time.September), "Fête du Travail"),
		day(time.October, secondMonday(year, time.October), "Action de grâce"),
		day(time.December, 25, "Noël"),
	}
}

func firstMonday(year int, month time.Month) int {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (8 - int(t.Weekday())) % 7
	return 1 + offset
}

func secondMonday(year int, month time.Month) int {
	return firstMonday(year, month) + 7
}
