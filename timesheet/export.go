/*
export.go - Provider pay-code translation and document render rows

PURPOSE:
  Two output contracts feed the external collaborators:

  ProviderExport: translates each line's event type code to the external
  payroll provider's pay code via the catalog's mappings. Lines whose
  event type has no mapping are EXCLUDED from the provider payload but
  remain on the internal timesheet - the provider only accepts codes it
  knows, the department still needs the full record.

  RenderRows: the flat {description, quantity, unit price label, amount}
  rows consumed by the PDF/Excel renderers. Only the data contract is
  guaranteed here, never the rendered byte layout.
*/
package timesheet

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/firehall/cost-engine/catalog"
	"github.com/firehall/cost-engine/pricing"
)

// =============================================================================
// PROVIDER EXPORT
// =============================================================================

// ProviderRow is one line of the external payroll provider payload.
type ProviderRow struct {
	PayCode  string          `json:"pay_code"`
	Date     time.Time       `json:"date"`
	Quantity decimal.Decimal `json:"quantity"`
	Amount   decimal.Decimal `json:"amount"`
}

// ProviderExport translates mapped lines to provider rows. Unmapped and
// needs-review lines are skipped; skipped carries their count so the
// caller can surface it.
func ProviderExport(t *Timesheet, cat *catalog.Catalog) (rows []ProviderRow, skipped int) {
	for _, line := range t.Lines {
		if line.NeedsReview {
			skipped++
			continue
		}
		payCode, ok := cat.PayCode(line.EventTypeCode)
		if !ok {
			skipped++
			continue
		}
		rows = append(rows, ProviderRow{
			PayCode:  payCode,
			Date:     line.Date,
			Quantity: line.Quantity,
			Amount:   line.Amount,
		})
	}
	return rows, skipped
}

// =============================================================================
// RENDER ROWS - PDF/Excel data contract
// =============================================================================

type RenderRow struct {
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPriceLabel string          `json:"unit_price_label"`
	Amount         decimal.Decimal `json:"amount"`
}

// RenderRows emits every line, review lines included, so the printed
// document matches the internal record.
func RenderRows(t *Timesheet, cat *catalog.Catalog) []RenderRow {
	rows := make([]RenderRow, 0, len(t.Lines))
	for _, line := range t.Lines {
		rows = append(rows, RenderRow{
			Description:    line.Description,
			Quantity:       line.Quantity,
			UnitPriceLabel: unitPriceLabel(line, cat),
			Amount:         line.Amount,
		})
	}
	return rows
}

func unitPriceLabel(line Line, cat *catalog.Catalog) string {
	et, err := cat.Lookup(line.EventTypeCode)
	if err != nil {
		return "-"
	}
	switch et.Unit {
	case pricing.UnitHours:
		return fmt.Sprintf("x%s /h", et.DefaultRate.String())
	case pricing.UnitDistance:
		return fmt.Sprintf("%s $/km", et.DefaultRate.StringFixed(2))
	case pricing.UnitCount:
		return fmt.Sprintf("%s $/u", et.DefaultRate.StringFixed(2))
	default:
		return fmt.Sprintf("%s $", et.DefaultRate.StringFixed(2))
	}
}
