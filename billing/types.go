/*
Package billing resolves who pays for an incident and prices the invoice.

PURPOSE:
  The mutual-aid half of the cost engine. Given an incident's
  municipality and the tenant's billing settings, it decides whether the
  incident is billable and to whom, then prices the deployed resources
  (vehicles, personnel, cylinders, consumables, specialties, admin fee)
  into invoice line items.

KEY CONCEPTS IN THIS FILE (types.go):
  - BillingSettings: municipalities served directly (never billed),
    default tariff tables, and the list of mutual-aid agreements
  - MutualAidAgreement: who gets billed for a coverage set, which
    resource categories are billable, optional tariff overrides
  - IncidentResources: what was deployed, supplied by the intervention
    collaborator
  - Invoice: the immutable financial document with its unique number

JSON tags follow the wire names used by the settings store (French,
matching the tenant-facing configuration screens).
*/
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TARIFFS
// =============================================================================

// Tariffs are the price tables used to build invoice lines. Vehicles and
// Grades are hourly rates; Specialties are flat per-intervention fees;
// Consumables are unit prices; AdminFee is a single flat charge.
type Tariffs struct {
	Vehicles    map[string]decimal.Decimal `json:"tarifs_vehicules"`
	Grades      map[string]decimal.Decimal `json:"tarifs_grades"`
	Specialties map[string]decimal.Decimal `json:"tarifs_specialites"`
	Consumables map[string]decimal.Decimal `json:"tarifs_consommables"`
	AdminFee    decimal.Decimal            `json:"frais_admin"`
}

// rate looks up a key in an override table first, then the fallback.
func rate(override, fallback map[string]decimal.Decimal, key string) (decimal.Decimal, bool) {
	if override != nil {
		if r, ok := override[key]; ok {
			return r, true
		}
	}
	if fallback != nil {
		if r, ok := fallback[key]; ok {
			return r, true
		}
	}
	return decimal.Zero, false
}

// =============================================================================
// AGREEMENTS & SETTINGS
// =============================================================================

// CategoryToggles enables billing per resource category.
type CategoryToggles struct {
	Vehicles    bool `json:"facturer_vehicules"`
	Personnel   bool `json:"facturer_personnel"`
	Cylinders   bool `json:"facturer_cylindres"`
	Consumables bool `json:"facturer_consommables"`
	Specialties bool `json:"facturer_specialites"`
	AdminFee    bool `json:"facturer_frais_admin"`
}

// AllCategories bills everything (the default-billing fallback).
func AllCategories() CategoryToggles {
	return CategoryToggles{
		Vehicles: true, Personnel: true, Cylinders: true,
		Consumables: true, Specialties: true, AdminFee: true,
	}
}

// MutualAidAgreement is a contract under which the tenant bills another
// party for responding in a covered municipality.
type MutualAidAgreement struct {
	BillingParty          string          `json:"municipalite_facturation"`
	CoveredMunicipalities []string        `json:"municipalites_couvertes"`
	Toggles               CategoryToggles `json:"categories"`

	// TariffOverrides fall back to the tenant defaults per key.
	TariffOverrides *Tariffs `json:"tarifs,omitempty"`

	BillingContact string `json:"contact_facturation,omitempty"`
	BillingAddress string `json:"adresse_facturation,omitempty"`
	BillingEmail   string `json:"courriel_facturation,omitempty"`
}

// Covers reports whether the agreement covers a municipality.
func (a MutualAidAgreement) Covers(municipality string) bool {
	for _, m := range a.CoveredMunicipalities {
		if m == municipality {
			return true
		}
	}
	return false
}

// BillingSettings is the per-tenant billing configuration.
type BillingSettings struct {
	// CoveredMunicipalities are served directly by the tenant and never
	// billed. This rule takes precedence over every agreement.
	CoveredMunicipalities []string             `json:"municipalites_couvertes"`
	DefaultTariffs        Tariffs              `json:"tarifs_defaut"`
	Agreements            []MutualAidAgreement `json:"ententes"`
}

func (s BillingSettings) servesDirectly(municipality string) bool {
	for _, m := range s.CoveredMunicipalities {
		if m == municipality {
			return true
		}
	}
	return false
}

// =============================================================================
// INCIDENT RESOURCES - What was deployed
// =============================================================================

type VehicleUsage struct {
	Identifier string `json:"identifiant"`
	Type       string `json:"type"`
}

type PersonnelUsage struct {
	Name  string `json:"nom"`
	Grade string `json:"grade"`
}

type UnitUsage struct {
	Name     string          `json:"nom"`
	Quantity decimal.Decimal `json:"quantite"`
}

type IncidentResources struct {
	Vehicles    []VehicleUsage   `json:"vehicules"`
	Personnel   []PersonnelUsage `json:"personnel"`
	Cylinders   []UnitUsage      `json:"cylindres"`
	Consumables []UnitUsage      `json:"consommables"`
	Specialties []string         `json:"specialites"`
}

// =============================================================================
// INVOICES
// =============================================================================

type LineItem struct {
	Description string          `json:"description"`
	Category    string          `json:"categorie"`
	Quantity    decimal.Decimal `json:"quantite"`
	UnitPrice   decimal.Decimal `json:"prix_unitaire"`
	Amount      decimal.Decimal `json:"montant"`
}

type InvoiceStatus string

const (
	InvoiceIssued     InvoiceStatus = "issued"
	InvoiceSuperseded InvoiceStatus = "superseded"
)

// Invoice is immutable after creation except for supersession (which
// only flips Status and SupersededBy; amounts and number never change).
type Invoice struct {
	ID            string          `json:"id"`
	TenantID      string          `json:"tenant_id"`
	Number        string          `json:"numero_facture"`
	IncidentID    string          `json:"incident_id"`
	BilledParty   string          `json:"partie_facturee"`
	Lines         []LineItem      `json:"lignes"`
	Total         decimal.Decimal `json:"total"`
	DurationHours decimal.Decimal `json:"duree_heures"`
	Status        InvoiceStatus   `json:"statut"`
	SupersededBy  string          `json:"remplacee_par,omitempty"`
	GeneratedAt   time.Time       `json:"genere_le"`
}
