// Package analysis computes core metrics, ratios and trends from parsed
// report data. Everything in this package is pure; fetching and caching live
// in the dashboard orchestrator.
package analysis

import (
	"math"
	"time"

	"github.com/finsight-hq/finsight/internal/report"
)

// CoreMetrics carries the absolute figures for the latest period, the
// immediately preceding period, and the derived efficiency measures.
type CoreMetrics struct {
	Income        float64 `json:"income"`
	PriorIncome   float64 `json:"priorIncome"`
	Expenses      float64 `json:"expenses"`
	PriorExpenses float64 `json:"priorExpenses"`
	NetIncome     float64 `json:"netIncome"`
	PriorNet      float64 `json:"priorNetIncome"`
	COGS          float64 `json:"cogs"`

	Cash      float64 `json:"cash"`
	PriorCash float64 `json:"priorCash"`
	AR        float64 `json:"accountsReceivable"`
	PriorAR   float64 `json:"priorAccountsReceivable"`
	AP        float64 `json:"accountsPayable"`
	PriorAP   float64 `json:"priorAccountsPayable"`

	CurrentAssets        float64 `json:"currentAssets"`
	LongTermAssets       float64 `json:"longTermAssets"`
	TotalAssets          float64 `json:"totalAssets"`
	CurrentLiabilities   float64 `json:"currentLiabilities"`
	LongTermLiabilities  float64 `json:"longTermLiabilities"`
	TotalLiabilities     float64 `json:"totalLiabilities"`
	Equity               float64 `json:"equity"`

	IncomeChangePct  float64 `json:"incomeChangePct"`
	ExpenseChangePct float64 `json:"expenseChangePct"`
	NetChangePct     float64 `json:"netIncomeChangePct"`
	CashChangePct    float64 `json:"cashChangePct"`

	DSO int `json:"dso"`
	DPO int `json:"dpo"`
}

// CalcChange returns the rounded percentage change from oldVal to newVal.
// The zero-base convention is fixed: +100 when something appears from
// nothing, -100 when it goes negative from nothing, 0 otherwise. The
// denominator uses the absolute value so a swing from a loss to a profit
// keeps the sign of newVal-oldVal.
func CalcChange(oldVal, newVal float64) float64 {
	if oldVal == 0 {
		switch {
		case newVal > 0:
			return 100
		case newVal < 0:
			return -100
		default:
			return 0
		}
	}
	return math.Round((newVal - oldVal) / math.Abs(oldVal) * 100)
}

// ComputeMetrics extracts absolute figures from the latest and preceding
// periods plus the current and prior balance sheet snapshots. prior may be
// nil when only one snapshot is available.
func ComputeMetrics(series []report.PeriodRecord, current report.BalanceSheetSnapshot, prior *report.BalanceSheetSnapshot) CoreMetrics {
	var latest, previous report.PeriodRecord
	if len(series) > 0 {
		latest = series[len(series)-1]
	}
	if len(series) > 1 {
		previous = series[len(series)-2]
	}

	m := CoreMetrics{
		Income:        latest.Income,
		PriorIncome:   previous.Income,
		Expenses:      latest.Expenses,
		PriorExpenses: previous.Expenses,
		NetIncome:     latest.NetIncome,
		PriorNet:      previous.NetIncome,
		COGS:          latest.COGS,

		Cash: current.Assets.Cash,
		AR:   current.Assets.AR,
		AP:   current.Liabilities.AP,

		CurrentAssets:       current.Assets.TotalCurrent,
		LongTermAssets:      current.Assets.TotalLongTerm,
		TotalAssets:         current.Assets.Total,
		CurrentLiabilities:  current.Liabilities.TotalCurrent,
		LongTermLiabilities: current.Liabilities.TotalLongTerm,
		TotalLiabilities:    current.Liabilities.Total,
		Equity:              current.Equity.Total,
	}
	if prior != nil {
		m.PriorCash = prior.Assets.Cash
		m.PriorAR = prior.Assets.AR
		m.PriorAP = prior.Liabilities.AP
	}

	m.IncomeChangePct = CalcChange(m.PriorIncome, m.Income)
	m.ExpenseChangePct = CalcChange(m.PriorExpenses, m.Expenses)
	m.NetChangePct = CalcChange(m.PriorNet, m.NetIncome)
	m.CashChangePct = CalcChange(m.PriorCash, m.Cash)

	days := daysInPeriod(latest)
	m.DSO = daysOutstanding(m.AR, m.Income, days)
	m.DPO = daysOutstanding(m.AP, math.Abs(m.COGS), days)
	if m.DPO == 0 && m.AP > 0 {
		// Zero-COGS businesses still carry payables; fall back to operating
		// expenses as the spend base.
		m.DPO = daysOutstanding(m.AP, m.Expenses, days)
	}
	return m
}

// daysOutstanding converts a balance and a period flow into days, floored at
// zero. A zero average daily flow yields 0, not a division error.
func daysOutstanding(balance, flow float64, days int) int {
	if days <= 0 {
		days = 30
	}
	avgDaily := flow / float64(days)
	if avgDaily <= 0 {
		return 0
	}
	d := int(math.Round(balance / avgDaily))
	if d < 0 {
		return 0
	}
	return d
}

// daysInPeriod measures the period length in days, defaulting to 30 when the
// record carries no dates.
func daysInPeriod(rec report.PeriodRecord) int {
	if rec.StartDate != nil && rec.EndDate != nil {
		d := int(rec.EndDate.Sub(*rec.StartDate).Hours()/24) + 1
		if d > 0 {
			return d
		}
	}
	if rec.StartDate != nil {
		s := *rec.StartDate
		return time.Date(s.Year(), s.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	}
	return 30
}
