package insights

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/finsight-hq/finsight/internal/analysis"
)

var currency = message.NewPrinter(language.English)

func money(v float64) string {
	if v < 0 {
		return currency.Sprintf("-$%.0f", -v)
	}
	return currency.Sprintf("$%.0f", v)
}

func runwayRule(in Input) *Insight {
	runway := analysis.Runway(in.Metrics.Cash, in.Trend.AvgMonthlyBurn)
	switch {
	case runway == -1:
		return &Insight{
			ID:            "runway-positive",
			Type:          TypeSuccess,
			Title:         "Cash-flow positive",
			Description:   "The business is generating more cash than it spends each month, so runway is not a constraint.",
			Priority:      5,
			RelatedMetric: "runway",
		}
	case runway < 1.5:
		return &Insight{
			ID:            "runway-critical",
			Type:          TypeCritical,
			Title:         "Cash runway under 6 weeks",
			Description:   fmt.Sprintf("At the current burn of %s per month, cash on hand covers roughly %.1f months of operations.", money(in.Trend.AvgMonthlyBurn), runway),
			Priority:      10,
			RelatedMetric: "runway",
			ActionText:    "Cut discretionary spend and accelerate collections immediately.",
		}
	case runway < 3:
		return &Insight{
			ID:            "runway-low",
			Type:          TypeCritical,
			Title:         "Cash runway under 3 months",
			Description:   fmt.Sprintf("Cash of %s covers about %.1f months at the current burn rate.", money(in.Metrics.Cash), runway),
			Priority:      9,
			RelatedMetric: "runway",
			ActionText:    "Line up financing or reduce burn before the quarter ends.",
		}
	case runway > 9:
		return &Insight{
			ID:            "runway-healthy",
			Type:          TypeSuccess,
			Title:         "Healthy cash runway",
			Description:   fmt.Sprintf("Cash reserves cover more than nine months at the current burn rate (%.1f months).", runway),
			Priority:      4,
			RelatedMetric: "runway",
		}
	}
	return nil
}

func liquidityRule(in Input) *Insight {
	cr := in.Ratios.CurrentRatio
	qr := in.Ratios.QuickRatio
	lowCurrent := cr != nil && *cr < 0.8
	lowQuick := qr != nil && *qr < 0.5
	if !lowCurrent && !lowQuick {
		return nil
	}
	return &Insight{
		ID:            "liquidity-strain",
		Type:          TypeCritical,
		Title:         "Short-term liquidity strain",
		Description:   "Current obligations exceed what liquid assets can comfortably cover; near-term bills may be hard to pay.",
		Priority:      9,
		RelatedMetric: "currentRatio",
		ActionText:    "Review payment terms and consider converting receivables to cash sooner.",
	}
}

func receivablesAgingRule(in Input) *Insight {
	total := in.ARAging.Total
	if total > 100 && in.ARAging.Bucket90Plus > total*0.20 {
		return &Insight{
			ID:            "ar-severely-overdue",
			Type:          TypeWarning,
			Title:         "Large share of receivables over 90 days",
			Description:   fmt.Sprintf("%s of %s in open receivables is more than 90 days overdue.", money(in.ARAging.Bucket90Plus), money(total)),
			Priority:      8,
			RelatedMetric: "arAging",
			ActionText:    "Escalate collection on the oldest invoices; consider write-off reserves.",
		}
	}
	if total > 0 && in.ARAging.Overdue61Plus() > total*0.35 {
		return &Insight{
			ID:            "ar-aging-drift",
			Type:          TypeWarning,
			Title:         "Receivables drifting past 60 days",
			Description:   fmt.Sprintf("%s of open receivables has aged beyond 60 days.", money(in.ARAging.Overdue61Plus())),
			Priority:      7,
			RelatedMetric: "arAging",
			ActionText:    "Tighten follow-up on invoices before they reach 90 days.",
		}
	}
	return nil
}

func dsoRule(in Input) *Insight {
	dso := in.Metrics.DSO
	if dso > 60 {
		return &Insight{
			ID:            "dso-high",
			Type:          TypeWarning,
			Title:         "Collections are slow",
			Description:   fmt.Sprintf("Customers take %d days on average to pay, tying up working capital.", dso),
			Priority:      7,
			RelatedMetric: "dso",
			ActionText:    "Shorten payment terms or add early-payment incentives.",
		}
	}
	if benchmark, ok := in.Benchmarks["dso"]; ok && benchmark > 0 && float64(dso) > benchmark*1.3 {
		return &Insight{
			ID:            "dso-above-benchmark",
			Type:          TypeWarning,
			Title:         "Collections slower than industry peers",
			Description:   fmt.Sprintf("DSO of %d days is more than 30%% above the industry average of %.0f days.", dso, benchmark),
			Priority:      6,
			RelatedMetric: "dso",
		}
	}
	return nil
}

func marginRule(in Input) *Insight {
	nm := in.Ratios.NetProfitMargin
	om := in.Ratios.OperatingMargin
	thinNet := nm != nil && *nm < 5
	thinOperating := om != nil && *om < 8
	if !thinNet && !thinOperating {
		return nil
	}
	return &Insight{
		ID:            "margin-thin",
		Type:          TypeWarning,
		Title:         "Margins are thin",
		Description:   "Profitability leaves little room for cost surprises; small revenue dips would turn into losses.",
		Priority:      6,
		RelatedMetric: "netProfitMargin",
		ActionText:    "Revisit pricing and the largest expense categories.",
	}
}

func forecastDeclineRule(in Input) *Insight {
	if len(in.Forecast) < 2 {
		return nil
	}
	first := in.Forecast[0].ProjectedBalance
	last := in.Forecast[len(in.Forecast)-1].ProjectedBalance
	if first <= 0 || last >= first*0.8 {
		return nil
	}
	return &Insight{
		ID:            "forecast-decline",
		Type:          TypeWarning,
		Title:         "Projected cash balance is declining",
		Description:   fmt.Sprintf("The forecast ends at %s, down from %s in the first projected month.", money(last), money(first)),
		Priority:      7,
		RelatedMetric: "forecast",
		ActionText:    "Plan spending against the projected trough, not the current balance.",
	}
}

func collectionsRule(in Input) *Insight {
	if in.Metrics.DSO <= 0 || in.Metrics.DSO >= 30 {
		return nil
	}
	return &Insight{
		ID:            "dso-strong",
		Type:          TypeSuccess,
		Title:         "Collections are fast",
		Description:   fmt.Sprintf("Customers pay in %d days on average, well inside 30 days.", in.Metrics.DSO),
		Priority:      4,
		RelatedMetric: "dso",
	}
}

func cashReserveRule(in Input) *Insight {
	qr := in.Ratios.QuickRatio
	if qr == nil || *qr <= 1.5 {
		return nil
	}
	return &Insight{
		ID:            "quick-ratio-surplus",
		Type:          TypeTip,
		Title:         "Liquid reserves exceed near-term needs",
		Description:   fmt.Sprintf("A quick ratio of %.2f suggests idle cash; surplus funds could be put to work.", *qr),
		Priority:      2,
		RelatedMetric: "quickRatio",
	}
}
