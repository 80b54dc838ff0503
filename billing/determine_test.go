package billing_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/firehall/cost-engine/billing"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func testSettings() billing.BillingSettings {
	return billing.BillingSettings{
		CoveredMunicipalities: []string{"Saint-Damien"},
		DefaultTariffs: billing.Tariffs{
			Vehicles:    map[string]decimal.Decimal{"autopompe": d(250)},
			Grades:      map[string]decimal.Decimal{"pompier": d(35)},
			Consumables: map[string]decimal.Decimal{"mousse": d(85)},
			AdminFee:    d(100),
		},
		Agreements: []billing.MutualAidAgreement{
			{
				BillingParty:          "MRC de Bellechasse",
				CoveredMunicipalities: []string{"Saint-Nérée", "Saint-Lazare"},
				Toggles:               billing.CategoryToggles{Vehicles: true, Personnel: true},
				TariffOverrides: &billing.Tariffs{
					Vehicles: map[string]decimal.Decimal{"autopompe": d(300)},
				},
			},
			{
				BillingParty:          "Entente B",
				CoveredMunicipalities: []string{"Saint-Nérée"},
				Toggles:               billing.AllCategories(),
			},
		},
	}
}

// =============================================================================
// DETERMINATION TESTS
// =============================================================================

func TestDetermine_CoveredMunicipalityNotBillable(t *testing.T) {
	// Rule 1: a municipality served directly is never billed, even if an
	// agreement also names it.
	settings := testSettings()
	settings.Agreements[0].CoveredMunicipalities = append(settings.Agreements[0].CoveredMunicipalities, "Saint-Damien")

	decision := billing.DetermineBillableParty("Saint-Damien", settings)
	if decision.Billable {
		t.Error("directly served municipality must not be billable")
	}
}

func TestDetermine_FirstMatchingAgreementWins(t *testing.T) {
	// Rule 2: overlapping agreements resolve by list order.
	decision := billing.DetermineBillableParty("Saint-Nérée", testSettings())

	if !decision.Billable {
		t.Fatal("agreement-covered municipality must be billable")
	}
	if decision.BilledParty != "MRC de Bellechasse" {
		t.Errorf("billed party = %q, want first matching agreement", decision.BilledParty)
	}
	if decision.Agreement == nil {
		t.Error("decision should carry the matched agreement")
	}
	if decision.Toggles.Consumables {
		t.Error("toggles must come from the matched agreement, not defaults")
	}
}

func TestDetermine_DefaultBillingToMunicipality(t *testing.T) {
	// Rule 3: no coverage, no agreement - bill the municipality itself
	// with every category enabled at default tariffs.
	decision := billing.DetermineBillableParty("Sainte-Claire", testSettings())

	if !decision.Billable {
		t.Fatal("unknown municipality falls back to default billing")
	}
	if decision.BilledParty != "Sainte-Claire" {
		t.Errorf("billed party = %q, want the municipality itself", decision.BilledParty)
	}
	if decision.Agreement != nil {
		t.Error("default billing carries no agreement")
	}
	if !decision.Toggles.Vehicles || !decision.Toggles.AdminFee {
		t.Error("default billing enables every category")
	}
}

// =============================================================================
// TARIFF RESOLUTION
// =============================================================================

func TestDecision_TariffOverridesFallBackPerKey(t *testing.T) {
	// GIVEN: an agreement overriding only the autopompe rate
	// WHEN: resolving rates through its decision
	// THEN: the override applies for autopompe, defaults for the rest

	decision := billing.DetermineBillableParty("Saint-Nérée", testSettings())

	if rate, ok := decision.VehicleRate("autopompe"); !ok || !rate.Equal(d(300)) {
		t.Errorf("autopompe rate = %s, want override 300", rate)
	}
	if rate, ok := decision.GradeRate("pompier"); !ok || !rate.Equal(d(35)) {
		t.Errorf("pompier rate = %s, want default 35", rate)
	}
	if _, ok := decision.VehicleRate("citerne"); ok {
		t.Error("unknown vehicle type must report ok=false")
	}
}

func TestDecision_AdminFeeOverride(t *testing.T) {
	settings := testSettings()
	decision := billing.DetermineBillableParty("Sainte-Claire", settings)
	if !decision.AdminFee().Equal(d(100)) {
		t.Errorf("default admin fee = %s, want 100", decision.AdminFee())
	}

	settings.Agreements[0].TariffOverrides.AdminFee = d(150)
	decision = billing.DetermineBillableParty("Saint-Nérée", settings)
	if !decision.AdminFee().Equal(d(150)) {
		t.Errorf("overridden admin fee = %s, want 150", decision.AdminFee())
	}
}
