// Package insights classifies computed financial artifacts into prioritized,
// human-readable findings.
package insights

import (
	"sort"

	"github.com/finsight-hq/finsight/internal/aging"
	"github.com/finsight-hq/finsight/internal/analysis"
	"github.com/finsight-hq/finsight/internal/forecast"
)

// Type labels the severity class of an insight.
type Type string

const (
	TypeCritical Type = "critical"
	TypeWarning  Type = "warning"
	TypeInfo     Type = "info"
	TypeSuccess  Type = "success"
	TypeTip      Type = "tip"
)

// Insight is one prioritized finding. Priority runs 1 (lowest) to 10.
type Insight struct {
	ID            string `json:"id"`
	Type          Type   `json:"type"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Priority      int    `json:"priority"`
	RelatedMetric string `json:"relatedMetric"`
	ActionText    string `json:"actionText,omitempty"`
}

// Input bundles everything the rules evaluate. Benchmarks is optional;
// rules that need a missing benchmark simply stay silent.
type Input struct {
	Metrics    analysis.CoreMetrics
	Ratios     analysis.FinancialRatios
	Trend      analysis.Trend
	ARAging    aging.Buckets
	APAging    aging.Buckets
	Forecast   []forecast.Point
	Benchmarks map[string]float64
}

// rule evaluates one condition and emits at most one insight.
type rule func(Input) *Insight

var rules = []rule{
	runwayRule,
	liquidityRule,
	receivablesAgingRule,
	dsoRule,
	marginRule,
	forecastDeclineRule,
	collectionsRule,
	cashReserveRule,
}

// Generate evaluates every rule against the input and returns the findings
// sorted descending by priority. Each call builds its own list; there is no
// accumulator shared between runs, so concurrent analyses never interleave.
func Generate(in Input) []Insight {
	out := make([]Insight, 0, len(rules))
	seen := make(map[string]struct{}, len(rules))
	for _, r := range rules {
		insight := r(in)
		if insight == nil {
			continue
		}
		if _, dup := seen[insight.Title]; dup {
			continue
		}
		seen[insight.Title] = struct{}{}
		out = append(out, *insight)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Title < out[j].Title
	})
	return out
}
