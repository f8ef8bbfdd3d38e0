package report

import (
	"strconv"
	"strings"
	"time"
)

// ParseAmount coerces a raw report cell into a float64. Thousands separators
// and currency symbols are stripped, parenthesised values are negative, and
// anything unparseable collapses to 0 so a garbled figure never aborts an
// otherwise valid period.
func ParseAmount(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer(",", "", "$", "", "%", "", " ", "").Replace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	if negative {
		return -v
	}
	return v
}

var monthLabelLayouts = []string{
	"Jan 2006",
	"January 2006",
	"Jan-06",
	"Jan, 2006",
	"2006-01",
	"01/2006",
}

// parseMonthLabel interprets a column title such as "Mar 2024" as the first
// day of that month. Returns nil when the title is not a month label.
func parseMonthLabel(title string) *time.Time {
	s := strings.TrimSpace(title)
	if s == "" {
		return nil
	}
	for _, layout := range monthLabelLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			month := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
			return &month
		}
	}
	return nil
}

var isoDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// parseISODate parses a metadata date string, returning nil on failure.
// Placeholder dates are never fabricated.
func parseISODate(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	for _, layout := range isoDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}
