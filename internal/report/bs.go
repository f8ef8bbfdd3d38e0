package report

import (
	"log/slog"
	"math"
	"strings"
)

// balanceTolerance is how far the accounting identity may drift before the
// snapshot is flagged in the logs. Violations are logged, never rejected:
// the individual figures are still useful for reporting.
const balanceTolerance = 1.0

// BalanceSheet extracts a snapshot from a raw balance sheet report. The most
// recent period column is used. An unusable shape yields a zeroed snapshot.
func (p *Parser) BalanceSheet(raw RawReport) BalanceSheetSnapshot {
	cols := periodColumns(raw.Columns)
	if len(cols) == 0 || len(raw.Rows) == 0 {
		p.log().Warn("balance sheet report has no usable columns or rows")
		return BalanceSheetSnapshot{}
	}
	col := cols[len(cols)-1]

	rows := classifyRows(raw.Rows)
	assets, liabilities, equity := splitSections(rows)

	snapshot := BalanceSheetSnapshot{
		Assets:      parseAssets(assets, col.CellIndex),
		Liabilities: parseLiabilities(liabilities, col.CellIndex),
	}
	snapshot.Equity = parseEquity(equity, col.CellIndex, snapshot.Assets.Total, snapshot.Liabilities.Total)

	if col.EndDate != nil {
		snapshot.ReportDate = col.EndDate
	} else {
		snapshot.ReportDate = col.StartDate
	}

	drift := snapshot.Assets.Total - (snapshot.Liabilities.Total + snapshot.Equity.Total)
	if math.Abs(drift) > balanceTolerance {
		p.log().Warn("balance sheet identity does not hold",
			slog.Float64("assets", snapshot.Assets.Total),
			slog.Float64("liabilities", snapshot.Liabilities.Total),
			slog.Float64("equity", snapshot.Equity.Total),
			slog.Float64("drift", drift),
		)
	}
	return snapshot
}

// splitSections locates the Assets, Liabilities and Equity branches. Some
// platforms nest Liabilities and Equity under one parent, which is split
// apart here. Top-level "Total ..." entries are routed to the section they
// summarise so the per-section parsers can find them.
func splitSections(rows []classifiedRow) (assets, liabilities, equity []classifiedRow) {
	for _, row := range rows {
		title := strings.ToLower(row.Title)
		hasLiab := strings.Contains(title, "liabilit")
		hasEquity := strings.Contains(title, "equity")

		if row.Kind == rowSectionTotal {
			switch {
			case hasLiab && hasEquity:
				// "Total Liabilities and Equity" summarises neither side alone.
			case strings.Contains(title, "asset"):
				assets = append(assets, row)
			case hasLiab:
				liabilities = append(liabilities, row)
			case hasEquity:
				equity = append(equity, row)
			}
			continue
		}
		if row.Kind != rowHeader {
			continue
		}
		switch {
		case hasLiab && hasEquity:
			childAssets, childLiab, childEquity := splitSections(row.Children)
			assets = append(assets, childAssets...)
			liabilities = append(liabilities, childLiab...)
			equity = append(equity, childEquity...)
		case strings.Contains(title, "asset"):
			assets = append(assets, row.Children...)
		case hasLiab:
			liabilities = append(liabilities, row.Children...)
		case hasEquity:
			equity = append(equity, row.Children...)
		}
	}
	return assets, liabilities, equity
}

// walkRows visits every classified row in the subtree, depth first.
func walkRows(rows []classifiedRow, visit func(classifiedRow)) {
	for _, row := range rows {
		visit(row)
		if len(row.Children) > 0 {
			walkRows(row.Children, visit)
		}
	}
}

// parseAssets extracts the asset section. The report's own "Total Current
// Assets" subtotal is trusted first: other current assets are derived as the
// remainder after cash and AR, falling back to direct summation of
// unrecognised detail rows when no explicit subtotal exists.
func parseAssets(rows []classifiedRow, cellIndex int) AssetSection {
	var section AssetSection
	var unmatched float64
	var haveTotalCurrent bool

	walkRows(rows, func(row classifiedRow) {
		value := ParseAmount(row.cellAt(cellIndex))
		switch row.Kind {
		case rowDetail:
			switch {
			case row.titleContains("bank", "cash", "checking", "savings"):
				section.Cash += value
			case row.titleContains("accounts receivable", "a/r"):
				section.AR += value
			default:
				unmatched += value
			}
		case rowSectionTotal:
			switch {
			case row.titleIs("Total Current Assets"):
				section.TotalCurrent = value
				haveTotalCurrent = true
			case row.titleIs("Total Long-Term Assets", "Total Long Term Assets", "Total Fixed Assets"):
				section.TotalLongTerm = value
			case row.titleIs("Total Assets"):
				section.Total = value
			}
		}
	})

	if haveTotalCurrent {
		section.OtherCurrent = round2(section.TotalCurrent - section.Cash - section.AR)
	} else {
		section.OtherCurrent = round2(unmatched)
		section.TotalCurrent = round2(section.Cash + section.AR + section.OtherCurrent)
	}
	if section.Total == 0 {
		section.Total = round2(section.TotalCurrent + section.TotalLongTerm)
	}
	if section.TotalLongTerm == 0 && section.Total != 0 {
		section.TotalLongTerm = round2(section.Total - section.TotalCurrent)
	}
	return section
}

// parseLiabilities mirrors parseAssets for the liability side.
func parseLiabilities(rows []classifiedRow, cellIndex int) LiabilitySection {
	var section LiabilitySection
	var unmatched float64
	var haveTotalCurrent bool

	walkRows(rows, func(row classifiedRow) {
		value := ParseAmount(row.cellAt(cellIndex))
		switch row.Kind {
		case rowDetail:
			switch {
			case row.titleContains("accounts payable", "a/p"):
				section.AP += value
			case row.titleContains("credit card"):
				section.CreditCards += value
			default:
				unmatched += value
			}
		case rowSectionTotal:
			switch {
			case row.titleIs("Total Current Liabilities"):
				section.TotalCurrent = value
				haveTotalCurrent = true
			case row.titleIs("Total Long-Term Liabilities", "Total Long Term Liabilities"):
				section.TotalLongTerm = value
			case row.titleIs("Total Liabilities"):
				section.Total = value
			}
		}
	})

	if haveTotalCurrent {
		section.OtherCurrent = round2(section.TotalCurrent - section.AP - section.CreditCards)
	} else {
		section.OtherCurrent = round2(unmatched)
		section.TotalCurrent = round2(section.AP + section.CreditCards + section.OtherCurrent)
	}
	if section.Total == 0 {
		section.Total = round2(section.TotalCurrent + section.TotalLongTerm)
	}
	if section.TotalLongTerm == 0 && section.Total != 0 {
		section.TotalLongTerm = round2(section.Total - section.TotalCurrent)
	}
	return section
}

// parseEquity prefers an explicit "Total Equity" row and otherwise derives
// equity from the accounting identity.
func parseEquity(rows []classifiedRow, cellIndex int, totalAssets, totalLiabilities float64) EquitySection {
	var section EquitySection
	var found bool
	walkRows(rows, func(row classifiedRow) {
		if found || row.Kind != rowSectionTotal {
			return
		}
		if row.titleIs("Total Equity") {
			section.Total = ParseAmount(row.cellAt(cellIndex))
			found = true
		}
	})
	if !found {
		section.Total = round2(totalAssets - totalLiabilities)
	}
	return section
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
