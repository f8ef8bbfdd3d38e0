package forecast

import (
	"testing"
	"time"

	"github.com/finsight-hq/finsight/internal/aging"
	"github.com/finsight-hq/finsight/internal/report"
)

func month(year int, m time.Month, income, expenses float64) report.PeriodRecord {
	start := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return report.PeriodRecord{
		Label:     start.Format("Jan 2006"),
		StartDate: &start,
		EndDate:   &end,
		Income:    income,
		Expenses:  expenses,
		NetIncome: income - expenses,
	}
}

func flatSeries(n int, income, expenses float64) []report.PeriodRecord {
	series := make([]report.PeriodRecord, 0, n)
	for i := 0; i < n; i++ {
		series = append(series, month(2024, time.Month(i+1), income, expenses))
	}
	return series
}

func TestProjectRequiresHistory(t *testing.T) {
	series := flatSeries(2, 10000, 8000)
	if points := Project(series, aging.Buckets{}, aging.Buckets{}, 5000, Options{}); points != nil {
		t.Fatalf("expected empty forecast for short history, got %d points", len(points))
	}
}

func TestProjectDefaultHorizon(t *testing.T) {
	points := Project(flatSeries(6, 10000, 8000), aging.Buckets{}, aging.Buckets{}, 5000, Options{})
	if len(points) != DefaultHorizonMonths {
		t.Fatalf("expected %d points, got %d", DefaultHorizonMonths, len(points))
	}
}

func TestProjectFlatSeriesStaysFlat(t *testing.T) {
	points := Project(flatSeries(6, 10000, 8000), aging.Buckets{}, aging.Buckets{}, 5000, Options{Months: 3})

	for i, p := range points {
		if p.ProjectedIncome != 10000 {
			t.Fatalf("month %d income = %v, want 10000", i, p.ProjectedIncome)
		}
		if p.ProjectedExpenses != 8000 {
			t.Fatalf("month %d expenses = %v, want 8000", i, p.ProjectedExpenses)
		}
		if p.ProjectedNetChange != 2000 {
			t.Fatalf("month %d net change = %v, want 2000", i, p.ProjectedNetChange)
		}
	}
	if points[0].ProjectedBalance != 7000 || points[2].ProjectedBalance != 11000 {
		t.Fatalf("running balance wrong: %v ... %v", points[0].ProjectedBalance, points[2].ProjectedBalance)
	}
	if points[0].Label != "Jul 2024" {
		t.Fatalf("first label = %q, want Jul 2024", points[0].Label)
	}
}

func TestProjectDampensSpikes(t *testing.T) {
	// A 10x revenue spike in the last month must not compound through the
	// forecast: the dampened growth factor is capped at 1.05 per month.
	series := []report.PeriodRecord{
		month(2024, 1, 1000, 900),
		month(2024, 2, 1000, 900),
		month(2024, 3, 1000, 900),
		month(2024, 4, 1000, 900),
		month(2024, 5, 10000, 900),
	}
	points := Project(series, aging.Buckets{}, aging.Buckets{}, 5000, Options{Months: 12})

	baseline := trailingAverage([]float64{1000, 1000, 1000, 1000, 10000}, baselineWindow)
	maxAllowed := baseline
	for i := 0; i < 12; i++ {
		maxAllowed *= dampenedGrowthMax
	}
	last := points[len(points)-1]
	if last.ProjectedIncome > maxAllowed+1 {
		t.Fatalf("income %v exceeds dampened ceiling %v", last.ProjectedIncome, maxAllowed)
	}
}

func TestProjectExcludesIncompleteMonth(t *testing.T) {
	// The final period at 10% of the trailing average looks like a month in
	// progress and must not drag the baseline down.
	series := append(flatSeries(6, 10000, 8000), month(2024, 7, 1000, 700))
	points := Project(series, aging.Buckets{}, aging.Buckets{}, 5000, Options{Months: 1})

	if points[0].ProjectedIncome != 10000 {
		t.Fatalf("income = %v, want 10000 with partial month excluded", points[0].ProjectedIncome)
	}
	// The excluded month also anchors nothing: the forecast starts after June.
	if points[0].Label != "Jul 2024" {
		t.Fatalf("label = %q, want Jul 2024", points[0].Label)
	}
}

func TestProjectAppliesScenarioOptions(t *testing.T) {
	points := Project(flatSeries(6, 10000, 8000), aging.Buckets{}, aging.Buckets{}, 5000, Options{
		Months:            2,
		RevenueMultiplier: 1.2,
		ExpenseMultiplier: 0.9,
		RecurringRevenue:  500,
		RecurringExpense:  100,
	})

	if points[0].ProjectedIncome != 12500 {
		t.Fatalf("income = %v, want 12500", points[0].ProjectedIncome)
	}
	if points[0].ProjectedExpenses != 7300 {
		t.Fatalf("expenses = %v, want 7300", points[0].ProjectedExpenses)
	}
}

func TestProjectTimingImpactFromAging(t *testing.T) {
	ar := aging.Buckets{Bucket0to30: 1000, Total: 1000}
	ap := aging.Buckets{Bucket0to30: 500, Total: 500}

	with := Project(flatSeries(6, 10000, 8000), ar, ap, 5000, Options{Months: 4})
	without := Project(flatSeries(6, 10000, 8000), aging.Buckets{}, aging.Buckets{}, 5000, Options{Months: 4})

	// Month 1: +70% of AR collected, -80% of AP paid.
	wantDelta := 1000*0.70 - 500*0.80
	gotDelta := with[0].ProjectedNetChange - without[0].ProjectedNetChange
	if gotDelta != wantDelta {
		t.Fatalf("month 1 timing impact = %v, want %v", gotDelta, wantDelta)
	}
	// Months beyond the third carry no timing impact.
	if with[3].ProjectedNetChange != without[3].ProjectedNetChange {
		t.Fatalf("month 4 should carry no timing impact")
	}
}

func TestGrowthFactorHandlesZeroAndVolatileBases(t *testing.T) {
	if g := GrowthFactor([]float64{0, 500}); g != zeroToPositiveRatio {
		t.Fatalf("zero to positive = %v, want %v", g, zeroToPositiveRatio)
	}
	if g := GrowthFactor([]float64{0, 0}); g != 1.0 {
		t.Fatalf("zero to zero = %v, want 1.0", g)
	}
	// A 600x jump from a $10 base is excluded; the remaining steady
	// transitions dominate.
	if g := GrowthFactor([]float64{1000, 1000, 10, 6000}); g > rawGrowthMax {
		t.Fatalf("volatile transition leaked into growth factor: %v", g)
	}
	if g := GrowthFactor([]float64{1000}); g != 1.0 {
		t.Fatalf("single value = %v, want neutral 1.0", g)
	}
}

func TestGrowthFactorClamps(t *testing.T) {
	if g := GrowthFactor([]float64{1000, 5000}); g != rawGrowthMax {
		t.Fatalf("explosive growth = %v, want clamp %v", g, rawGrowthMax)
	}
	if g := GrowthFactor([]float64{5000, 100}); g != rawGrowthMin {
		t.Fatalf("collapse = %v, want clamp %v", g, rawGrowthMin)
	}
}

func TestDampen(t *testing.T) {
	if d := Dampen(1.5); d != dampenedGrowthMax {
		t.Fatalf("Dampen(1.5) = %v, want %v", d, dampenedGrowthMax)
	}
	if d := Dampen(0.5); d != dampenedGrowthMin {
		t.Fatalf("Dampen(0.5) = %v, want %v", d, dampenedGrowthMin)
	}
	if d := Dampen(1.02); d != 1.02 {
		t.Fatalf("Dampen(1.02) = %v, want passthrough", d)
	}
}
