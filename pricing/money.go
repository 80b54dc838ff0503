/*
Package pricing computes monetary amounts for time-stamped resource usage.

PURPOSE:
  This package contains the rate resolution and premium eligibility logic
  that turns a quantity (hours worked, kilometres driven, a fixed expense)
  into dollars. It is the pricing heart of the cost engine: the same rules
  must produce the same cents for payroll and for inter-municipal billing.

KEY CONCEPTS IN THIS FILE (money.go):
  - Unit: What a quantity measures (hours, distance, fixed amount, count)
  - RoundCurrency: The single canonical 2-decimal rounding used everywhere
  - Decimal helpers shared by the rest of the engine

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Purity: No I/O, no globals - every input is an explicit argument
  3. Single rounding point: amounts are rounded exactly once, where the
     business rule says so (end of rate resolution; per invoice line)

SEE ALSO:
  - rate.go: Amount resolution with premium composition
  - eligibility.go: Premium eligibility predicates
  - params.go: PayParameters, meal windows, holiday table
*/
package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// UNITS - What a quantity measures
// =============================================================================

type Unit string

const (
	UnitHours       Unit = "hours"
	UnitDistance    Unit = "distance"
	UnitFixedAmount Unit = "fixed_amount"
	UnitCount       Unit = "count"
)

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

// RoundCurrency rounds to 2 decimals using half-up rounding.
// decimal.Round rounds half away from zero, which is half-up for the
// non-negative amounts this engine produces.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// One is the neutral multiplier.
var One = decimal.NewFromInt(1)

// HoursBetween returns the duration between two instants in decimal hours.
// A negative or inverted interval yields zero.
func HoursBetween(start, end time.Time) decimal.Decimal {
	if !end.After(start) {
		return decimal.Zero
	}
	minutes := end.Sub(start).Minutes()
	return decimal.NewFromFloat(minutes).Div(decimal.NewFromInt(60))
}
