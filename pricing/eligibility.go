/*
eligibility.go - Premium eligibility predicates

PURPOSE:
  Pure predicates deciding whether a premium applies to a work interval.
  The line generator calls these; they are also exported for the UI
  collaborator that needs to know which premium checkboxes to offer.

TWO MEAL PREDICATES:
  Covers:   interval overlaps the window (window must be active). Gates
            AVAILABILITY of the premium choice in the UI.
  Eligible: Covers AND the interval lasts at least the window's minimum
            duration. Gates the DEFAULT pre-selection and what the
            generator prices automatically.

WRAPAROUND:
  Overlap uses minute-of-day arithmetic. When a window crosses midnight
  (end before start, e.g. 22:00-02:00), overlap holds when
  windowStart <= intervalEnd OR windowEnd >= intervalStart.

OVERTIME:
  Weekly cumulative hours over the threshold trigger the multiplier on
  the EXCESS portion only, never retroactively on hours already counted.
*/
package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MEAL ELIGIBILITY
// =============================================================================

// Covers reports whether the interval [start, end) overlaps the window in
// wall-clock time-of-day. Inactive or malformed windows never cover.
func (w MealWindow) Covers(start, end time.Time) bool {
	if !w.Active {
		return false
	}
	ws, we := minuteOfDay(w.Start), minuteOfDay(w.End)
	if ws < 0 || we < 0 {
		return false
	}

	// Intervals a full day or longer touch every window.
	if end.Sub(start) >= 24*time.Hour {
		return true
	}

	is, ie := timeOfDayMinutes(start), timeOfDayMinutes(end)

	if we < ws {
		// Window crosses midnight.
		return ws <= ie || we >= is
	}
	if ie < is {
		// Interval crosses midnight; the window does not. The interval
		// covers [is, 1440) and [0, ie).
		return ws < ie || we > is
	}
	return is < we && ie > ws
}

// Eligible reports whether the interval earns the meal premium: it must
// cover the window AND last at least the window's minimum duration.
func (w MealWindow) Eligible(start, end time.Time) bool {
	if end.Sub(start) < w.MinDuration() {
		return false
	}
	return w.Covers(start, end)
}

// =============================================================================
// HOLIDAY ELIGIBILITY
// =============================================================================

// IsHoliday reports whether the work date falls on an active holiday.
// The multiplier itself comes from HolidayTable.Multiplier.
func IsHoliday(table HolidayTable, date time.Time) bool {
	return table.Find(date) != nil
}

// =============================================================================
// OVERTIME ELIGIBILITY
// =============================================================================

// OvertimeExcess returns how many of lineHours fall beyond the weekly
// threshold, given hours already accumulated this week. Only the excess
// portion earns the overtime multiplier.
//
//	accumulated=38, line=6, threshold=40  ->  4
//	accumulated=42, line=6, threshold=40  ->  6
//	accumulated=30, line=6, threshold=40  ->  0
func OvertimeExcess(accumulated, lineHours, threshold decimal.Decimal) decimal.Decimal {
	if threshold.IsZero() || lineHours.IsZero() {
		return decimal.Zero
	}
	after := accumulated.Add(lineHours)
	if !after.GreaterThan(threshold) {
		return decimal.Zero
	}
	excess := after.Sub(threshold)
	if excess.GreaterThan(lineHours) {
		return lineHours
	}
	return excess
}

// WeekOf returns the Monday 00:00 of the ISO week containing t, in t's
// location. Used as the accumulation key for overtime.
func WeekOf(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return day.AddDate(0, 0, -offset)
}

// =============================================================================
// SUPERIOR FUNCTION
// =============================================================================

// SuperiorFunctionApplies reports whether the superior-function premium
// percentage applies: the record must carry the flag and the event type
// must price hourly labor.
func SuperiorFunctionApplies(flag bool, unit Unit) bool {
	return flag && unit == UnitHours
}
