package analysis

import "math"

// FinancialRatios holds margin, liquidity and leverage ratios. A nil field
// means "not computable" (zero denominator), which downstream consumers must
// distinguish from a computed zero.
type FinancialRatios struct {
	NetProfitMargin   *float64 `json:"netProfitMargin"`
	GrossProfitMargin *float64 `json:"grossProfitMargin"`
	OperatingMargin   *float64 `json:"operatingMargin"`
	CurrentRatio      *float64 `json:"currentRatio"`
	QuickRatio        *float64 `json:"quickRatio"`
	WorkingCapital    float64  `json:"workingCapital"`
	DebtToEquity      *float64 `json:"debtToEquity"`
}

// ComputeRatios derives ratios from core metrics. Margins are percentages;
// the quick ratio deliberately counts only cash and AR in the numerator.
func ComputeRatios(m CoreMetrics) FinancialRatios {
	grossProfit := m.Income - math.Abs(m.COGS)
	operatingIncome := grossProfit - m.Expenses

	return FinancialRatios{
		NetProfitMargin:   safeRatio(m.NetIncome, m.Income, 100),
		GrossProfitMargin: safeRatio(grossProfit, m.Income, 100),
		OperatingMargin:   safeRatio(operatingIncome, m.Income, 100),
		CurrentRatio:      safeRatio(m.CurrentAssets, m.CurrentLiabilities, 1),
		QuickRatio:        safeRatio(m.Cash+m.AR, m.CurrentLiabilities, 1),
		WorkingCapital:    round2(m.CurrentAssets - m.CurrentLiabilities),
		DebtToEquity:      safeRatio(m.TotalLiabilities, m.Equity, 1),
	}
}

// safeRatio divides num by den and scales the result, returning nil for a
// zero denominator or any non-finite outcome.
func safeRatio(num, den, scale float64) *float64 {
	if den == 0 {
		return nil
	}
	v := num / den * scale
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	v = round2(v)
	return &v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
