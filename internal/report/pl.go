package report

import (
	"log/slog"
	"math"
)

// Parser converts raw report trees into canonical records. Malformed input
// degrades to empty output with a warning; it never returns an error.
type Parser struct {
	logger *slog.Logger
}

// NewParser constructs a Parser. A nil logger falls back to slog.Default.
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

func (p *Parser) log() *slog.Logger {
	if p != nil && p.logger != nil {
		return p.logger
	}
	return slog.Default()
}

// plTargets carries the per-column values of the four rows the P&L
// extraction looks for. found tracks early termination.
type plTargets struct {
	income   *classifiedRow
	cogs     *classifiedRow
	expenses *classifiedRow
	net      *classifiedRow
}

func (t *plTargets) complete() bool {
	return t.income != nil && t.cogs != nil && t.expenses != nil && t.net != nil
}

// ProfitAndLoss extracts one PeriodRecord per period column, oldest to
// newest (the column order the platform emits). An unusable report shape
// yields an empty slice.
func (p *Parser) ProfitAndLoss(raw RawReport) []PeriodRecord {
	cols := periodColumns(raw.Columns)
	if len(cols) == 0 {
		p.log().Warn("profit and loss report has no period columns")
		return nil
	}
	if len(raw.Rows) == 0 {
		p.log().Warn("profit and loss report has no rows")
		return nil
	}

	targets := matchPLTargets(classifyRows(raw.Rows))

	records := make([]PeriodRecord, 0, len(cols))
	for _, col := range cols {
		records = append(records, buildPeriodRecord(col, targets))
	}
	return records
}

// matchPLTargets scans top-level rows only (sections surface their own
// "Total ..." summary entries at this level). First match wins per category.
func matchPLTargets(rows []classifiedRow) plTargets {
	var t plTargets
	for i := range rows {
		row := &rows[i]
		switch {
		case t.income == nil && row.titleIs("Total Income", "Total Revenue"):
			t.income = row
		case t.cogs == nil && row.titleIs("Total Cost Of Goods Sold", "Total COGS"):
			t.cogs = row
		case t.expenses == nil && row.titleIs("Total Expenses"):
			t.expenses = row
		case t.net == nil && row.titleIs("Net Income", "Net Earnings", "Net Operating Income"):
			t.net = row
		}
		if t.complete() {
			break
		}
	}
	return t
}

// buildPeriodRecord derives the canonical figures for one period column.
// Missing rows default to 0. The reported total-expenses figure includes
// COGS, so operating expenses are the remainder after COGS is carved out.
func buildPeriodRecord(col periodColumn, t plTargets) PeriodRecord {
	var income, cogs, totalExpenses float64
	if t.income != nil {
		income = ParseAmount(t.income.cellAt(col.CellIndex))
	}
	if t.cogs != nil {
		cogs = ParseAmount(t.cogs.cellAt(col.CellIndex))
	}
	if t.expenses != nil {
		totalExpenses = ParseAmount(t.expenses.cellAt(col.CellIndex))
	}

	grossProfit := income - math.Abs(cogs)
	expenses := math.Max(0, math.Abs(totalExpenses)-math.Abs(cogs))
	operatingIncome := grossProfit - expenses
	netIncome := operatingIncome
	if t.net != nil {
		netIncome = ParseAmount(t.net.cellAt(col.CellIndex))
	}

	return PeriodRecord{
		Label:           col.Label,
		StartDate:       col.StartDate,
		EndDate:         col.EndDate,
		Income:          income,
		COGS:            cogs,
		GrossProfit:     grossProfit,
		Expenses:        expenses,
		OperatingIncome: operatingIncome,
		NetIncome:       netIncome,
	}
}
