/*
determine.go - Billable-party resolution

PURPOSE:
  Decides, per incident, whether it is billable and to whom.

RESOLUTION ORDER:
  1. Incident municipality is served directly by the tenant
     -> NOT billable. This rule beats every agreement.
  2. First mutual-aid agreement (in list order) covering the
     municipality -> billable to the agreement's billing party, with
     the agreement's tariff overrides falling back to tenant defaults.
     First-match is the documented tie-break policy for overlapping
     agreements.
  3. Otherwise -> billable by default to the municipality itself, at
     tenant default tariffs with every category enabled.

  Determination never fails: batch invoice runs must not block on an
  ambiguous configuration.
*/
package billing

import "github.com/shopspring/decimal"

// BillingDecision is the outcome of billable-party resolution.
type BillingDecision struct {
	Billable    bool
	BilledParty string
	Toggles     CategoryToggles

	// Agreement is nil for default billing (rule 3).
	Agreement *MutualAidAgreement

	defaults  Tariffs
	overrides *Tariffs
}

// DetermineBillableParty applies the three-step resolution above.
func DetermineBillableParty(incidentMunicipality string, settings BillingSettings) BillingDecision {
	if settings.servesDirectly(incidentMunicipality) {
		return BillingDecision{Billable: false}
	}

	for i := range settings.Agreements {
		a := &settings.Agreements[i]
		if a.Covers(incidentMunicipality) {
			return BillingDecision{
				Billable:    true,
				BilledParty: a.BillingParty,
				Toggles:     a.Toggles,
				Agreement:   a,
				defaults:    settings.DefaultTariffs,
				overrides:   a.TariffOverrides,
			}
		}
	}

	return BillingDecision{
		Billable:    true,
		BilledParty: incidentMunicipality,
		Toggles:     AllCategories(),
		defaults:    settings.DefaultTariffs,
	}
}

// VehicleRate resolves a vehicle type's hourly rate (override first,
// tenant default second).
func (d BillingDecision) VehicleRate(vehicleType string) (decimal.Decimal, bool) {
	var over map[string]decimal.Decimal
	if d.overrides != nil {
		over = d.overrides.Vehicles
	}
	return rate(over, d.defaults.Vehicles, vehicleType)
}

// GradeRate resolves a personnel grade's hourly rate.
func (d BillingDecision) GradeRate(grade string) (decimal.Decimal, bool) {
	var over map[string]decimal.Decimal
	if d.overrides != nil {
		over = d.overrides.Grades
	}
	return rate(over, d.defaults.Grades, grade)
}

// SpecialtyRate resolves a specialty's flat per-intervention fee.
func (d BillingDecision) SpecialtyRate(specialty string) (decimal.Decimal, bool) {
	var over map[string]decimal.Decimal
	if d.overrides != nil {
		over = d.overrides.Specialties
	}
	return rate(over, d.defaults.Specialties, specialty)
}

// ConsumableRate resolves a consumable or cylinder unit price.
func (d BillingDecision) ConsumableRate(name string) (decimal.Decimal, bool) {
	var over map[string]decimal.Decimal
	if d.overrides != nil {
		over = d.overrides.Consumables
	}
	return rate(over, d.defaults.Consumables, name)
}

// AdminFee resolves the flat administrative fee.
func (d BillingDecision) AdminFee() decimal.Decimal {
	if d.overrides != nil && d.overrides.AdminFee.IsPositive() {
		return d.overrides.AdminFee
	}
	return d.defaults.AdminFee
}
