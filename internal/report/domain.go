package report

import "time"

// PeriodRecord is the canonical per-period P&L summary. Once parsed it is
// never mutated; downstream calculators treat the series as read-only.
type PeriodRecord struct {
	Label           string     `json:"label"`
	StartDate       *time.Time `json:"startDate"`
	EndDate         *time.Time `json:"endDate"`
	Income          float64    `json:"income"`
	COGS            float64    `json:"cogs"`
	GrossProfit     float64    `json:"grossProfit"`
	Expenses        float64    `json:"expenses"`
	OperatingIncome float64    `json:"operatingIncome"`
	NetIncome       float64    `json:"netIncome"`
}

// AssetSection summarises the asset side of a balance sheet.
type AssetSection struct {
	Cash          float64 `json:"cash"`
	AR            float64 `json:"accountsReceivable"`
	OtherCurrent  float64 `json:"otherCurrent"`
	TotalCurrent  float64 `json:"totalCurrent"`
	TotalLongTerm float64 `json:"totalLongTerm"`
	Total         float64 `json:"total"`
}

// LiabilitySection summarises the liability side of a balance sheet.
type LiabilitySection struct {
	AP            float64 `json:"accountsPayable"`
	CreditCards   float64 `json:"creditCards"`
	OtherCurrent  float64 `json:"otherCurrent"`
	TotalCurrent  float64 `json:"totalCurrent"`
	TotalLongTerm float64 `json:"totalLongTerm"`
	Total         float64 `json:"total"`
}

// EquitySection carries the equity total.
type EquitySection struct {
	Total float64 `json:"total"`
}

// BalanceSheetSnapshot is the canonical balance sheet for a single report date.
type BalanceSheetSnapshot struct {
	ReportDate  *time.Time       `json:"reportDate"`
	Assets      AssetSection     `json:"assets"`
	Liabilities LiabilitySection `json:"liabilities"`
	Equity      EquitySection    `json:"equity"`
}
