/*
params.go - Per-tenant pay configuration

PURPOSE:
  Defines the configuration objects the pricing engine consumes. These are
  explicit values passed into every computation call, never read from
  ambient state: the settings store collaborator fetches them, the engine
  only evaluates them. This keeps every computation deterministic and
  reproducible after the fact.

KEY TYPES:
  PayParameters:     Pay-period length, premium percentages, overtime
                     threshold, per-call-source minimum paid hours,
                     meal window definitions
  MealWindow:        A wall-clock time-of-day range granting a meal premium
  HolidayDefinition: A calendar day with full-time/part-time multipliers
  HolidayTable:      Lookup over active holiday definitions

JSON tags follow the wire names used by the settings store (French,
matching the tenant-facing configuration screens).
*/
package pricing

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// EMPLOYMENT & CALL SOURCES
// =============================================================================

// EmploymentType selects which holiday multiplier applies.
type EmploymentType string

const (
	EmploymentFullTime EmploymentType = "temps_plein"
	EmploymentPartTime EmploymentType = "temps_partiel"
	EmploymentTemp     EmploymentType = "temporaire"
)

// CallSource classifies where a usage record came from.
type CallSource string

const (
	SourceGuardInternal CallSource = "garde_interne"
	SourceGuardExternal CallSource = "garde_externe"
	SourceRecall        CallSource = "rappel"
	SourceTraining      CallSource = "formation"
	SourceIntervention  CallSource = "intervention"
	SourceManual        CallSource = "manuel"
)

// =============================================================================
// PAY PARAMETERS - Per-tenant singleton, versioned by edit
// =============================================================================

type PayParameters struct {
	// Pay-period length in days (14 = biweekly).
	PeriodDays int `json:"duree_periode_jours"`

	// Superior-function premium percentage (0.10 = +10%).
	SuperiorFunctionPct decimal.Decimal `json:"fonction_superieure_pct"`

	// Overtime: weekly threshold in hours and the multiplier on the excess.
	OvertimeWeeklyThreshold decimal.Decimal `json:"heures_sup_seuil_hebdo"`
	OvertimeMultiplier      decimal.Decimal `json:"heures_sup_multiplicateur"`

	// Minimum paid hours per call source (e.g., a recall pays at least 3h
	// even if the intervention lasted 40 minutes). Sources without an
	// entry have no minimum.
	MinimumPaidHours map[CallSource]decimal.Decimal `json:"heures_minimum_par_source"`

	// Meal windows: breakfast, lunch, dinner.
	MealWindows []MealWindow `json:"fenetres_repas"`

	// Edit version, bumped by the settings store on every change.
	Version int `json:"version"`
}

// MinimumFor returns the minimum paid hours for a call source, or zero.
func (p PayParameters) MinimumFor(source CallSource) decimal.Decimal {
	if p.MinimumPaidHours == nil {
		return decimal.Zero
	}
	return p.MinimumPaidHours[source]
}

// =============================================================================
// MEAL WINDOWS
// =============================================================================

// MealKind identifies which meal a window grants.
type MealKind string

const (
	MealBreakfast MealKind = "dejeuner"
	MealLunch     MealKind = "diner"
	MealDinner    MealKind = "souper"
)

// MealWindow is a configured wall-clock range. Start and End are "HH:MM"
// strings; a window whose End is before its Start crosses midnight.
// MinMinutes is the minimum interval duration in minutes, kept as plain
// minutes on the wire alongside the "HH:MM" fields.
type MealWindow struct {
	Kind       MealKind `json:"type"`
	Start      string   `json:"heure_debut"`
	End        string   `json:"heure_fin"`
	MinMinutes int      `json:"duree_minimum"`
	Active     bool     `json:"actif"`
}

// MinDuration returns the minimum interval duration.
func (w MealWindow) MinDuration() time.Duration {
	return time.Duration(w.MinMinutes) * time.Minute
}

// minuteOfDay parses "HH:MM" into minutes since midnight.
// Returns -1 on malformed input so callers degrade to ineligible.
func minuteOfDay(s string) int {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return -1
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return -1
	}
	return h*60 + m
}

func timeOfDayMinutes(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// =============================================================================
// HOLIDAYS
// =============================================================================

type HolidayType string

const (
	HolidayStatutory HolidayType = "statutory"
	HolidayCustom    HolidayType = "custom"
)

type HolidayDefinition struct {
	Date     time.Time       `json:"date"`
	Name     string          `json:"nom"`
	Type     HolidayType     `json:"type"`
	PartTime decimal.Decimal `json:"majoration_partiel"`
	FullTime decimal.Decimal `json:"majoration_plein"`
	Active   bool            `json:"actif"`
}

// HolidayTable answers "is this calendar day an active holiday, and what
// multiplier applies". The engine never mutates it during a run.
type HolidayTable []HolidayDefinition

// Find returns the active holiday definition whose calendar day matches
// date, or nil.
func (h HolidayTable) Find(date time.Time) *HolidayDefinition {
	y, m, d := date.Date()
	for i := range h {
		if !h[i].Active {
			continue
		}
		hy, hm, hd := h[i].Date.Date()
		if hy == y && hm == m && hd == d {
			return &h[i]
		}
	}
	return nil
}

// Multiplier returns the holiday multiplier for a date and employment
// type, or One when the date is not an active holiday. Full-time staff
// get majoration_plein; part-time and temporary staff get
// majoration_partiel.
func (h HolidayTable) Multiplier(date time.Time, employment EmploymentType) decimal.Decimal {
	def := h.Find(date)
	if def == nil {
		return One
	}
	if employment == EmploymentFullTime {
		return def.FullTime
	}
	return def.PartTime
}
