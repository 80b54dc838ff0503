/*
rate.go - Amount resolution with premium composition

PURPOSE:
  Computes the monetary amount for one quantity of one event type. This is
  the single place where premiums are applied, so payroll and billing can
  never disagree on how a premium composes.

COMPOSITION RULES:
  Hourly labor (unit = hours):
    amount = quantity x base hourly rate x event default rate
    then x (1 + superior-function pct)   if the flag is set
    then x holiday multiplier            if the work date is a holiday

  Premiums compose MULTIPLICATIVELY, not additively: +10% superior
  function on a 1.5x holiday yields x1.10 x1.5 = x1.65, not x1.60.

  Distance / count: quantity x unit price. No premiums - premiums are
  defined only over hourly labor.

  Fixed amount: the event's default rate, quantity ignored (kept for
  display only).

ROUNDING:
  Exactly once, at the end, half-up to 2 decimals. Intermediate values
  keep full decimal precision.
*/
package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RATE SOURCE - What the resolver needs to know about an event type
// =============================================================================

// RateSource is the slice of an event type the resolver cares about.
// catalog.EventType satisfies it; tests can use a literal.
type RateSource struct {
	Unit Unit
	// DefaultRate is a multiplier on the base hourly rate when Unit is
	// hours, a unit price for distance/count, and the amount itself for
	// fixed_amount.
	DefaultRate decimal.Decimal
}

// =============================================================================
// PREMIUM CONTEXT - Everything conditional about one line
// =============================================================================

// PremiumContext carries the per-line facts that condition premiums.
// The zero value means "no premiums": no superior function, no holiday
// table, which makes the resolver trivially exact for plain hours.
type PremiumContext struct {
	// SuperiorFunction is recorded upstream (the person acted at a
	// higher grade); the engine only applies the percentage.
	SuperiorFunction    bool
	SuperiorFunctionPct decimal.Decimal

	// WorkDate and Employment select the holiday multiplier.
	WorkDate   time.Time
	Employment EmploymentType
	Holidays   HolidayTable
}

// =============================================================================
// RESOLVER
// =============================================================================

// ResolveAmount prices quantity units of an event type against a base
// hourly rate. Returns the rounded amount.
func ResolveAmount(src RateSource, quantity, baseHourlyRate decimal.Decimal, ctx PremiumContext) (decimal.Decimal, error) {
	if quantity.IsNegative() {
		return decimal.Zero, ErrNegativeQuantity
	}
	if src.DefaultRate.IsNegative() {
		return decimal.Zero, ErrNegativeRate
	}

	switch src.Unit {
	case UnitHours:
		amount := quantity.Mul(baseHourlyRate).Mul(src.DefaultRate)
		if ctx.SuperiorFunction && ctx.SuperiorFunctionPct.IsPositive() {
			amount = amount.Mul(One.Add(ctx.SuperiorFunctionPct))
		}
		if ctx.Holidays != nil && !ctx.WorkDate.IsZero() {
			amount = amount.Mul(ctx.Holidays.Multiplier(ctx.WorkDate, ctx.Employment))
		}
		return RoundCurrency(amount), nil

	case UnitDistance, UnitCount:
		// Unit-priced. Premiums never apply outside hourly labor.
		return RoundCurrency(quantity.Mul(src.DefaultRate)), nil

	case UnitFixedAmount:
		return RoundCurrency(src.DefaultRate), nil

	default:
		return decimal.Zero, &UnknownUnitError{Unit: src.Unit}
	}
}
