// Package forecast projects monthly cash flow from the historical period
// series, current aging buckets and the cash balance.
package forecast

import (
	"math"
	"time"

	"github.com/finsight-hq/finsight/internal/aging"
	"github.com/finsight-hq/finsight/internal/report"
)

const (
	// DefaultHorizonMonths is the forecast length when none is requested.
	DefaultHorizonMonths = 12

	// minHistory is the smallest usable series; anything shorter returns an
	// empty forecast rather than a noisy one.
	minHistory = 3

	// baselineWindow sizes the trailing average used as the starting point.
	// A trailing average is deliberately more stable than extrapolating from
	// single-period deltas.
	baselineWindow = 6

	// growthWindow bounds how many month-over-month transitions feed the
	// growth factor (growthWindow transitions need growthWindow+1 periods).
	growthWindow = 6

	// incompleteMonthRatio flags a trailing partial month: a final period
	// whose income is below this share of the trailing average is dropped.
	incompleteMonthRatio = 0.3

	// Anti-volatility filter: transitions from a tiny base that explode are
	// excluded from the growth average.
	volatileBaseFloor   = 100.0
	volatileRatioCeil   = 500.0
	zeroToPositiveRatio = 1.5

	// Raw clamp and the tighter dampened clamp applied before the recurrence.
	// The two stages look redundant but are layered on purpose: the raw clamp
	// tames the average, the dampened clamp prevents compounding explosions
	// over a 12-month horizon.
	rawGrowthMin      = 0.5
	rawGrowthMax      = 1.5
	dampenedGrowthMin = 0.95
	dampenedGrowthMax = 1.05
)

// Point is one projected month, chained to its predecessor via the running
// balance.
type Point struct {
	Label              string  `json:"label"`
	ProjectedIncome    float64 `json:"projectedIncome"`
	ProjectedExpenses  float64 `json:"projectedExpenses"`
	ProjectedNetChange float64 `json:"projectedNetChange"`
	ProjectedBalance   float64 `json:"projectedBalance"`
}

// Options tunes the forecast horizon and scenario assumptions. Multipliers
// default to 1 and apply to the baseline once, before the recurrence starts.
type Options struct {
	Months            int
	RevenueMultiplier float64
	ExpenseMultiplier float64
	RecurringRevenue  float64
	RecurringExpense  float64
	StartMonth        time.Time
}

// Project builds the monthly cash-flow forecast. Fewer than three historical
// periods yields an empty forecast (insufficient data, not an error).
func Project(series []report.PeriodRecord, ar, ap aging.Buckets, cash float64, opts Options) []Point {
	if len(series) < minHistory {
		return nil
	}
	base := excludeIncompleteMonth(series)

	incomes := make([]float64, len(base))
	outflows := make([]float64, len(base))
	for i, rec := range base {
		incomes[i] = rec.Income
		outflows[i] = rec.Expenses + math.Abs(rec.COGS)
	}

	months := opts.Months
	if months <= 0 {
		months = DefaultHorizonMonths
	}
	revMult := opts.RevenueMultiplier
	if revMult == 0 {
		revMult = 1
	}
	expMult := opts.ExpenseMultiplier
	if expMult == 0 {
		expMult = 1
	}

	income := trailingAverage(incomes, baselineWindow) * revMult
	expenses := trailingAverage(outflows, baselineWindow) * expMult
	incomeGrowth := Dampen(GrowthFactor(incomes))
	expenseGrowth := Dampen(GrowthFactor(outflows))
	impact := cashTimingImpact(ar, ap)

	cursor := forecastStart(base, opts.StartMonth)
	balance := math.Round(cash)
	points := make([]Point, 0, months)
	for m := 0; m < months; m++ {
		income = math.Round(income*incomeGrowth + opts.RecurringRevenue)
		expenses = math.Round(expenses*expenseGrowth + opts.RecurringExpense)
		netChange := income - expenses
		if m < len(impact) {
			netChange += impact[m]
		}
		netChange = math.Round(netChange)
		balance = math.Round(balance + netChange)
		points = append(points, Point{
			Label:              cursor.Format("Jan 2006"),
			ProjectedIncome:    income,
			ProjectedExpenses:  expenses,
			ProjectedNetChange: netChange,
			ProjectedBalance:   balance,
		})
		cursor = cursor.AddDate(0, 1, 0)
	}
	return points
}

// excludeIncompleteMonth drops the most recent period when its income is far
// below the trailing average: a partial in-progress month would corrupt both
// the baseline and the growth factor.
func excludeIncompleteMonth(series []report.PeriodRecord) []report.PeriodRecord {
	if len(series) < 2 {
		return series
	}
	last := series[len(series)-1]
	var total float64
	for _, rec := range series[:len(series)-1] {
		total += rec.Income
	}
	avg := total / float64(len(series)-1)
	if avg > 0 && last.Income < avg*incompleteMonthRatio {
		return series[:len(series)-1]
	}
	return series
}

// GrowthFactor averages month-over-month ratios from up to the trailing
// growthWindow transitions, filtering volatile jumps from tiny bases, and
// clamps the result to [0.5, 1.5].
func GrowthFactor(values []float64) float64 {
	start := len(values) - (growthWindow + 1)
	if start < 0 {
		start = 0
	}
	window := values[start:]

	var sum float64
	var count int
	for i := 1; i < len(window); i++ {
		prev, cur := window[i-1], window[i]
		if prev == 0 {
			if cur > 0 {
				sum += zeroToPositiveRatio
			} else {
				sum += 1.0
			}
			count++
			continue
		}
		ratio := cur / prev
		if math.Abs(prev) < volatileBaseFloor && ratio > volatileRatioCeil {
			continue
		}
		sum += ratio
		count++
	}
	if count == 0 {
		return 1.0
	}
	return clamp(sum/float64(count), rawGrowthMin, rawGrowthMax)
}

// Dampen narrows a growth factor to the band actually used by the forecast
// recurrence.
func Dampen(factor float64) float64 {
	return clamp(factor, dampenedGrowthMin, dampenedGrowthMax)
}

// Collection and payment speed assumptions: the share of each aging bucket
// that converts to cash in forecast months 1-3. Receivables in older buckets
// collect slower; payables are settled more aggressively than receivables
// are collected.
var (
	arCollectionSchedule = map[string][3]float64{
		"0-30":  {0.70, 0.20, 0.05},
		"31-60": {0.50, 0.25, 0.10},
		"61-90": {0.30, 0.20, 0.10},
		"90+":   {0.10, 0.10, 0.05},
	}
	apPaymentSchedule = map[string][3]float64{
		"0-30":  {0.80, 0.15, 0.05},
		"31-60": {0.60, 0.30, 0.10},
		"61-90": {0.50, 0.30, 0.15},
		"90+":   {0.40, 0.30, 0.20},
	}
)

// cashTimingImpact spreads the current AR and AP balances over the first
// three forecast months instead of recognising them instantly.
func cashTimingImpact(ar, ap aging.Buckets) [3]float64 {
	var impact [3]float64
	apply := func(buckets aging.Buckets, schedule map[string][3]float64, sign float64) {
		amounts := map[string]float64{
			"0-30":  buckets.Bucket0to30,
			"31-60": buckets.Bucket31to60,
			"61-90": buckets.Bucket61to90,
			"90+":   buckets.Bucket90Plus,
		}
		for bucket, shares := range schedule {
			for m, share := range shares {
				impact[m] += sign * amounts[bucket] * share
			}
		}
	}
	apply(ar, arCollectionSchedule, 1)
	apply(ap, apPaymentSchedule, -1)
	for i := range impact {
		impact[i] = math.Round(impact[i])
	}
	return impact
}

// forecastStart picks the first forecast month: the explicit option, the
// month after the last dated period, or the month after now.
func forecastStart(series []report.PeriodRecord, explicit time.Time) time.Time {
	if !explicit.IsZero() {
		return time.Date(explicit.Year(), explicit.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	for i := len(series) - 1; i >= 0; i-- {
		anchor := series[i].EndDate
		if anchor == nil {
			anchor = series[i].StartDate
		}
		if anchor != nil {
			return time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
		}
	}
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}

func trailingAverage(values []float64, window int) float64 {
	start := len(values) - window
	if start < 0 {
		start = 0
	}
	slice := values[start:]
	if len(slice) == 0 {
		return 0
	}
	var total float64
	for _, v := range slice {
		total += v
	}
	return total / float64(len(slice))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
