package report

import (
	"strings"
	"time"
)

// RawReport mirrors the loosely structured report tree the bookkeeping
// platform returns: a column header list plus a nested row tree. Cell values
// arrive as strings and are only coerced during parsing.
type RawReport struct {
	Columns []RawColumn `json:"columns"`
	Rows    []RawRow    `json:"rows"`
}

// RawColumn describes one report column. Column 0 is the label column;
// the remaining columns carry one value per reporting period. StartDate and
// EndDate are optional ISO dates supplied by the platform.
type RawColumn struct {
	Title     string `json:"title"`
	Type      string `json:"type"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

// RawRow is a node in the report row tree. Cells holds one value per column
// (index 0 is the row label). Section rows additionally carry Summary cells
// with the aggregate value per column, labelled by Summary[0]
// (e.g. "Total Income").
type RawRow struct {
	Type    string   `json:"type,omitempty"`
	Group   string   `json:"group,omitempty"`
	Cells   []string `json:"cells,omitempty"`
	Summary []string `json:"summary,omitempty"`
	Rows    []RawRow `json:"rows,omitempty"`
}

// periodColumn is a retained period column together with its original cell
// index in the raw report.
type periodColumn struct {
	Label     string
	CellIndex int
	StartDate *time.Time
	EndDate   *time.Time
}

// rowKind tags a classified row so matching rules never re-derive row kind
// from raw fields.
type rowKind int

const (
	rowHeader rowKind = iota
	rowDetail
	rowSectionTotal
)

// classifiedRow is the typed form of a RawRow produced by the first
// classification pass. Section rows with summary cells additionally yield a
// sibling rowSectionTotal entry carrying the aggregate values.
type classifiedRow struct {
	Kind     rowKind
	Title    string
	Cells    []string
	Children []classifiedRow
}

// periodColumns filters the raw column list down to real period columns,
// dropping the label column, any column typed or titled "total", and columns
// with an empty title. An empty result means the report is unusable.
func periodColumns(cols []RawColumn) []periodColumn {
	if len(cols) < 2 {
		return nil
	}
	out := make([]periodColumn, 0, len(cols)-1)
	for i, col := range cols[1:] {
		title := strings.TrimSpace(col.Title)
		if title == "" {
			continue
		}
		if strings.EqualFold(title, "total") || strings.EqualFold(strings.TrimSpace(col.Type), "total") {
			continue
		}
		start, end := columnDates(col)
		out = append(out, periodColumn{
			Label:     title,
			CellIndex: i + 1,
			StartDate: start,
			EndDate:   end,
		})
	}
	return out
}

// columnDates resolves a column's period boundaries from its metadata,
// falling back to parsing the title as a month label. Both stay nil when
// neither source yields a date.
func columnDates(col RawColumn) (*time.Time, *time.Time) {
	start := parseISODate(col.StartDate)
	end := parseISODate(col.EndDate)
	if start != nil || end != nil {
		return start, end
	}
	if month := parseMonthLabel(col.Title); month != nil {
		s := *month
		e := s.AddDate(0, 1, -1)
		return &s, &e
	}
	return nil, nil
}

// classifyRows walks the raw tree once and returns typed rows. Rules:
//   - rows with children or an explicit section type become headers
//   - rows whose type mentions "summary" or whose title starts with "Total"
//     become section totals
//   - everything else is a detail row
//
// A header carrying Summary cells also emits a rowSectionTotal sibling so
// aggregates like "Total Income" are matchable at the same nesting level.
func classifyRows(rows []RawRow) []classifiedRow {
	out := make([]classifiedRow, 0, len(rows))
	for _, row := range rows {
		title := rowTitle(row)
		kind := rowDetail
		switch {
		case len(row.Rows) > 0 || strings.EqualFold(row.Type, "section"):
			kind = rowHeader
		case strings.Contains(strings.ToLower(row.Type), "summary"),
			strings.HasPrefix(strings.ToLower(title), "total "):
			kind = rowSectionTotal
		}
		classified := classifiedRow{
			Kind:  kind,
			Title: title,
			Cells: row.Cells,
		}
		if len(row.Rows) > 0 {
			classified.Children = classifyRows(row.Rows)
		}
		out = append(out, classified)
		if len(row.Summary) > 0 {
			out = append(out, classifiedRow{
				Kind:  rowSectionTotal,
				Title: strings.TrimSpace(row.Summary[0]),
				Cells: row.Summary,
			})
		}
	}
	return out
}

// rowTitle resolves a display title for a raw row, preferring the label cell
// over the structural group name.
func rowTitle(row RawRow) string {
	if len(row.Cells) > 0 && strings.TrimSpace(row.Cells[0]) != "" {
		return strings.TrimSpace(row.Cells[0])
	}
	return strings.TrimSpace(row.Group)
}

// cellAt returns the raw cell at idx or "" when the row is ragged.
func (r classifiedRow) cellAt(idx int) string {
	if idx < 0 || idx >= len(r.Cells) {
		return ""
	}
	return r.Cells[idx]
}

// titleIs reports whether the row title equals any candidate,
// case-insensitively.
func (r classifiedRow) titleIs(candidates ...string) bool {
	for _, c := range candidates {
		if strings.EqualFold(r.Title, c) {
			return true
		}
	}
	return false
}

// titleContains reports whether the lowercased row title contains any of the
// given fragments.
func (r classifiedRow) titleContains(fragments ...string) bool {
	title := strings.ToLower(r.Title)
	for _, f := range fragments {
		if strings.Contains(title, f) {
			return true
		}
	}
	return false
}
