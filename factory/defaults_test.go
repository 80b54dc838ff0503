package factory_test

import (
	"testing"
	"time"

	"github.com/firehall/cost-engine/factory"
	"github.com/firehall/cost-engine/pricing"
)

func TestQuebecHolidays_MoveableDates(t *testing.T) {
	// 2026: Labour Day is September 7, Thanksgiving is October 12.
	holidays := factory.QuebecHolidays(2026)

	labour := time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC)
	if holidays.Find(labour) == nil {
		t.Error("September 7 2026 should be Fête du Travail")
	}
	thanksgiving := time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC)
	if holidays.Find(thanksgiving) == nil {
		t.Error("October 12 2026 should be Action de grâce")
	}
	if holidays.Find(labour.AddDate(0, 0, 1)) != nil {
		t.Error("September 8 2026 is not a holiday")
	}
}

func TestDefaultCatalogClassificationAgree(t *testing.T) {
	// Every code the default classification references must exist in the
	// default catalog, or generation would flag everything for review.
	cat := factory.NewCatalog()
	class := factory.DefaultClassification()

	for source, code := range class.SourceCodes {
		if _, err := cat.Lookup(code); err != nil {
			t.Errorf("source %s maps to unknown code %s", source, code)
		}
	}
	for kind, code := range class.MealCodes {
		if _, err := cat.Lookup(code); err != nil {
			t.Errorf("meal %s maps to unknown code %s", kind, code)
		}
	}
	if _, err := cat.Lookup(class.OvertimeCode); err != nil {
		t.Errorf("overtime code %s missing from catalog", class.OvertimeCode)
	}
}

func TestDefaultPayParameters_MealWindowsActive(t *testing.T) {
	params := factory.DefaultPayParameters()
	if len(params.MealWindows) != 3 {
		t.Fatalf("got %d meal windows, want 3", len(params.MealWindows))
	}
	kinds := map[pricing.MealKind]bool{}
	for _, w := range params.MealWindows {
		if !w.Active {
			t.Errorf("window %s should ship active", w.Kind)
		}
		kinds[w.Kind] = true
	}
	for _, k := range []pricing.MealKind{pricing.MealBreakfast, pricing.MealLunch, pricing.MealDinner} {
		if !kinds[k] {
			t.Errorf("missing %s window", k)
		}
	}
}
