package timesheet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firehall/cost-engine/timesheet"
)

func TestProviderExport_SkipsUnmappedAndReviewLines(t *testing.T) {
	// GIVEN: a timesheet with a mapped line, an unmapped line and a
	//        needs-review line
	// WHEN: building the provider payload
	// THEN: only the mapped line is exported; the others are counted

	gen := newTestGenerator()
	require.NoError(t, gen.Catalog.MapPayCode("GARDE_INTERNE", "101"))

	ts := newDraftWithLines(t, gen) // guard + 2 meal lines, meals unmapped
	require.NoError(t, ts.AddLine(timesheet.Line{
		EventTypeCode: "RAPPEL",
		Quantity:      d(3),
		NeedsReview:   true,
	}))

	rows, skipped := timesheet.ProviderExport(ts, gen.Catalog)
	require.Len(t, rows, 1)
	assert.Equal(t, "101", rows[0].PayCode)
	assert.True(t, rows[0].Amount.Equal(d(160)))
	assert.Equal(t, 3, skipped, "2 unmapped meals + 1 review line")
}

func TestProviderExport_SharedPayCode(t *testing.T) {
	// Many event types may map to one provider pay code.
	gen := newTestGenerator()
	require.NoError(t, gen.Catalog.MapPayCode("REPAS_DEJEUNER", "200"))
	require.NoError(t, gen.Catalog.MapPayCode("REPAS_DINER", "200"))

	ts := newDraftWithLines(t, gen)
	rows, _ := timesheet.ProviderExport(ts, gen.Catalog)

	var mealRows int
	for _, r := range rows {
		if r.PayCode == "200" {
			mealRows++
		}
	}
	assert.Equal(t, 2, mealRows)
}

func TestRenderRows_IncludesEverything(t *testing.T) {
	// The printed document must match the internal record, review lines
	// included.
	gen := newTestGenerator()
	ts := newDraftWithLines(t, gen)
	require.NoError(t, ts.AddLine(timesheet.Line{
		EventTypeCode: "GHOST",
		Description:   "non classifiable (manuel)",
		Quantity:      d(2),
		NeedsReview:   true,
	}))

	rows := timesheet.RenderRows(ts, gen.Catalog)
	assert.Len(t, rows, len(ts.Lines))
	assert.Equal(t, "-", rows[len(rows)-1].UnitPriceLabel, "unknown codes render a dash")
}
