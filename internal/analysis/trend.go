package analysis

import (
	"github.com/finsight-hq/finsight/internal/report"
)

// burnWindow bounds how many trailing periods feed the average burn rate.
const burnWindow = 6

// Trend carries year-over-year deltas and the average monthly cash burn.
// YoY fields are nil when no calendar-matched period exists twelve months
// back.
type Trend struct {
	IncomeYoYPct    *float64 `json:"incomeYoYPct"`
	ExpenseYoYPct   *float64 `json:"expenseYoYPct"`
	NetIncomeYoYPct *float64 `json:"netIncomeYoYPct"`
	AvgMonthlyBurn  float64  `json:"avgMonthlyBurn"`
}

// ComputeTrend derives YoY changes for the latest period and the trailing
// average burn. The YoY baseline is located by calendar month match, not by
// index offset, so gaps in the series cannot shift the comparison.
func ComputeTrend(series []report.PeriodRecord) Trend {
	var t Trend
	if len(series) == 0 {
		return t
	}
	latest := series[len(series)-1]
	if baseline := yearOverYear(series, latest); baseline != nil {
		income := CalcChange(baseline.Income, latest.Income)
		expense := CalcChange(baseline.Expenses, latest.Expenses)
		net := CalcChange(baseline.NetIncome, latest.NetIncome)
		t.IncomeYoYPct = &income
		t.ExpenseYoYPct = &expense
		t.NetIncomeYoYPct = &net
	}
	t.AvgMonthlyBurn = averageBurn(series)
	return t
}

// yearOverYear finds the record exactly twelve calendar months before latest.
func yearOverYear(series []report.PeriodRecord, latest report.PeriodRecord) *report.PeriodRecord {
	anchor := latest.StartDate
	if anchor == nil {
		anchor = latest.EndDate
	}
	if anchor == nil {
		return nil
	}
	target := anchor.AddDate(-1, 0, 0)
	for i := range series {
		date := series[i].StartDate
		if date == nil {
			date = series[i].EndDate
		}
		if date == nil {
			continue
		}
		if date.Year() == target.Year() && date.Month() == target.Month() {
			return &series[i]
		}
	}
	return nil
}

// averageBurn is the mean net cash consumption over up to the trailing six
// periods. Positive values mean the business burns cash.
func averageBurn(series []report.PeriodRecord) float64 {
	start := len(series) - burnWindow
	if start < 0 {
		start = 0
	}
	window := series[start:]
	if len(window) == 0 {
		return 0
	}
	var total float64
	for _, rec := range window {
		total += -rec.NetIncome
	}
	return round2(total / float64(len(window)))
}

// Runway converts cash and burn into months of operation. Burn at or below
// zero signals a cash-flow-positive business and is encoded as -1; burning
// with no cash left yields 0.
func Runway(cash, burn float64) float64 {
	if burn <= 0 {
		return -1
	}
	if cash <= 0 {
		return 0
	}
	return round2(cash / burn)
}
