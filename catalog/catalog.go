/*
Package catalog is the registry of classifiable work and expense categories.

PURPOSE:
  Every priced line references an event type by code. The catalog owns
  those definitions per tenant: what category a code belongs to, what unit
  it is measured in, and its default rate. It also carries the mappings
  from internal codes to external payroll-provider pay codes, used only
  at export time.

INVARIANTS:
  - Codes are unique within a tenant (Register rejects duplicates)
  - Default rates are never negative
  - The catalog has no side effects beyond its own store

CONCURRENCY:
  A Catalog is safe for concurrent use; batch generation reads it from
  many goroutines while nothing writes.
*/
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/firehall/cost-engine/pricing"
)

// =============================================================================
// EVENT TYPES
// =============================================================================

// Category groups event types for timesheet totals and payroll export.
type Category string

const (
	CategoryHours     Category = "hours"
	CategoryPremium   Category = "premium"
	CategoryExpense   Category = "expense"
	CategoryDeduction Category = "deduction"
)

// EventType is one configurable category of payable/billable activity.
type EventType struct {
	Code     string          `json:"code"`
	Label    string          `json:"label"`
	Category Category        `json:"category"`
	Unit     pricing.Unit    `json:"unit"`
	// DefaultRate is a multiplier on the base hourly rate when Unit is
	// hours; a unit price otherwise.
	DefaultRate decimal.Decimal `json:"default_rate"`
}

// RateSource adapts the event type for the rate resolver.
func (e EventType) RateSource() pricing.RateSource {
	return pricing.RateSource{Unit: e.Unit, DefaultRate: e.DefaultRate}
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound is returned by Lookup for unregistered codes.
	ErrNotFound = errors.New("event type not found")

	// ErrDuplicateCode is returned by Register when the code already
	// exists for the tenant.
	ErrDuplicateCode = errors.New("duplicate event type code")

	// ErrInvalidEventType is returned for malformed definitions.
	ErrInvalidEventType = errors.New("invalid event type")
)

// NotFoundError carries the missing code.
type NotFoundError struct {
	Code string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("event type %q not found", e.Code)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// =============================================================================
// CATALOG
// =============================================================================

// Catalog holds one tenant's event types and pay-code mappings.
type Catalog struct {
	mu       sync.RWMutex
	types    map[string]EventType
	payCodes map[string]string // event type code -> provider pay code
}

func New() *Catalog {
	return &Catalog{
		types:    make(map[string]EventType),
		payCodes: make(map[string]string),
	}
}

// Register adds an event type. Rejects duplicate codes and invalid
// definitions (empty code, negative rate).
func (c *Catalog) Register(et EventType) error {
	if et.Code == "" {
		return fmt.Errorf("%w: empty code", ErrInvalidEventType)
	}
	if et.DefaultRate.IsNegative() {
		return fmt.Errorf("%w: negative default rate for %s", ErrInvalidEventType, et.Code)
	}
	switch et.Category {
	case CategoryHours, CategoryPremium, CategoryExpense, CategoryDeduction:
	default:
		return fmt.Errorf("%w: unknown category %q", ErrInvalidEventType, et.Category)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.types[et.Code]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCode, et.Code)
	}
	c.types[et.Code] = et
	return nil
}

// Lookup returns the event type for a code.
func (c *Catalog) Lookup(code string) (EventType, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	et, ok := c.types[code]
	if !ok {
		return EventType{}, &NotFoundError{Code: code}
	}
	return et, nil
}

// List returns all event types, sorted by code for stable output.
func (c *Catalog) List() []EventType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]EventType, 0, len(c.types))
	for _, et := range c.types {
		out = append(out, et)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// =============================================================================
// PAY-CODE MAPPINGS - Used only at provider export time
// =============================================================================

// MapPayCode maps an event type code to an external provider pay code.
// Many event types may share one pay code. The event type must exist.
func (c *Catalog) MapPayCode(eventTypeCode, payCode string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.types[eventTypeCode]; !ok {
		return &NotFoundError{Code: eventTypeCode}
	}
	c.payCodes[eventTypeCode] = payCode
	return nil
}

// PayCode returns the provider pay code for an event type code.
// ok is false when no mapping exists; such lines are excluded from
// provider export but remain on the timesheet.
func (c *Catalog) PayCode(eventTypeCode string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pc, ok := c.payCodes[eventTypeCode]
	return pc, ok
}
