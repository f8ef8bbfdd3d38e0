package analysis

import "testing"

func TestComputeRatios(t *testing.T) {
	m := CoreMetrics{
		Income:             10000,
		COGS:               4000,
		Expenses:           3000,
		NetIncome:          2500,
		Cash:               8000,
		AR:                 2000,
		CurrentAssets:      12000,
		CurrentLiabilities: 5000,
		TotalLiabilities:   9000,
		Equity:             18000,
	}

	r := ComputeRatios(m)

	if r.GrossProfitMargin == nil || *r.GrossProfitMargin != 60 {
		t.Fatalf("gross margin = %v, want 60", r.GrossProfitMargin)
	}
	if r.OperatingMargin == nil || *r.OperatingMargin != 30 {
		t.Fatalf("operating margin = %v, want 30", r.OperatingMargin)
	}
	if r.NetProfitMargin == nil || *r.NetProfitMargin != 25 {
		t.Fatalf("net margin = %v, want 25", r.NetProfitMargin)
	}
	if r.CurrentRatio == nil || *r.CurrentRatio != 2.4 {
		t.Fatalf("current ratio = %v, want 2.4", r.CurrentRatio)
	}
	if r.QuickRatio == nil || *r.QuickRatio != 2 {
		t.Fatalf("quick ratio = %v, want 2", r.QuickRatio)
	}
	if r.WorkingCapital != 7000 {
		t.Fatalf("working capital = %v, want 7000", r.WorkingCapital)
	}
	if r.DebtToEquity == nil || *r.DebtToEquity != 0.5 {
		t.Fatalf("debt to equity = %v, want 0.5", r.DebtToEquity)
	}
}

func TestComputeRatiosZeroDenominators(t *testing.T) {
	r := ComputeRatios(CoreMetrics{})

	if r.NetProfitMargin != nil || r.GrossProfitMargin != nil || r.OperatingMargin != nil {
		t.Fatalf("margins must be nil with zero income: %+v", r)
	}
	if r.CurrentRatio != nil || r.QuickRatio != nil {
		t.Fatalf("liquidity ratios must be nil with zero liabilities: %+v", r)
	}
	if r.DebtToEquity != nil {
		t.Fatalf("debt to equity must be nil with zero equity: %+v", r)
	}
	if r.WorkingCapital != 0 {
		t.Fatalf("working capital = %v, want 0", r.WorkingCapital)
	}
}

func TestSafeRatioNeverReturnsNonFinite(t *testing.T) {
	if v := safeRatio(1, 0, 100); v != nil {
		t.Fatalf("zero denominator must yield nil, got %v", *v)
	}
	if v := safeRatio(0, 5, 100); v == nil || *v != 0 {
		t.Fatalf("computed zero must stay distinguishable from nil, got %v", v)
	}
}
