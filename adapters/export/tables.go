// Package export renders a run result as CSV files, an optional workbook
// and a JSON manifest.
package export

import (
	"strconv"
	"time"

	"assesstime/domain/core"
	"assesstime/domain/session"
	"assesstime/domain/stage"
	"assesstime/domain/summary"
)

// Markers for cells that have no numeric value
const (
	Undefined = "undefined"
	NoData    = "no data"
)

// Table is a named header plus string rows, one sheet or one CSV file
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

var summaryHeaders = []string{
	"activity_id", "count", "mean", "sd", "min", "max", "median", "p25", "p75", "p90",
	"iqr", "lower_whisker", "upper_whisker", "outliers", "skewness", "excess_kurtosis",
}

// SummaryTable lists one row per activity in minutes, then a "no data" row
// per empty activity. The pooled summary goes to OverallTable.
func SummaryTable(rep summary.Report) Table {
	t := Table{Name: "Summary", Headers: summaryHeaders}
	for _, s := range rep.Activities {
		t.Rows = append(t.Rows, summaryRow(s))
	}
	for _, id := range rep.EmptyActivities {
		row := []string{string(id), "0"}
		for len(row) < len(summaryHeaders) {
			row = append(row, NoData)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// OverallTable holds the pooled summary across activities, without an
// activity_id column. It has no rows when the report has no pooled summary.
func OverallTable(rep summary.Report) Table {
	t := Table{Name: "Overall", Headers: summaryHeaders[1:]}
	if rep.Overall != nil {
		t.Rows = append(t.Rows, summaryRow(*rep.Overall)[1:])
	}
	return t
}

func summaryRow(s summary.ActivitySummary) []string {
	sd := Undefined
	if s.SD != nil {
		sd = minutes(*s.SD)
	}
	return []string{
		string(s.Activity),
		strconv.Itoa(s.Count),
		minutes(s.Mean),
		sd,
		minutes(s.Min),
		minutes(s.Max),
		minutes(s.Median),
		minutes(s.P25),
		minutes(s.P75),
		minutes(s.P90),
		minutes(s.Box.IQR),
		minutes(s.Box.LowerWhisker),
		minutes(s.Box.UpperWhisker),
		strconv.Itoa(s.Box.Outliers),
		optional(s.Shape.Skewness),
		optional(s.Shape.Kurtosis),
	}
}

// SampleTable lists every analytic-sample session.
func SampleTable(sample session.Sample) Table {
	t := Table{
		Name:    "Sample",
		Headers: []string{"activity_id", "respondent_id", "start", "end", "duration", "duration_minutes"},
	}
	for _, s := range sample.Sessions {
		t.Rows = append(t.Rows, []string{
			string(s.Activity),
			string(s.Respondent),
			s.Start.Format(time.RFC3339),
			s.End.Format(time.RFC3339),
			s.Duration.String(),
			minutes(s.Duration),
		})
	}
	return t
}

// FunnelTable lists the stage counts in execution order.
func FunnelTable(report stage.FunnelReport) Table {
	t := Table{Name: "Funnel", Headers: []string{"stage", "enabled", "removed", "remaining"}}
	for _, s := range report.Steps {
		t.Rows = append(t.Rows, []string{
			string(s.Name),
			strconv.FormatBool(s.Enabled),
			strconv.Itoa(s.Removed),
			strconv.Itoa(s.Remaining),
		})
	}
	return t
}

// ExclusionsTable lists every excluded session with its stage and reason.
func ExclusionsTable(exclusions []session.Exclusion) Table {
	t := Table{Name: "Exclusions", Headers: []string{"respondent_id", "activity_id", "stage", "reason"}}
	for _, e := range exclusions {
		t.Rows = append(t.Rows, []string{
			string(e.Session.Respondent),
			string(e.Session.Activity),
			string(e.Stage),
			e.Reason,
		})
	}
	return t
}

// HistogramTable flattens all per-activity histograms.
func HistogramTable(rep summary.Report) Table {
	t := Table{Name: "Histogram", Headers: []string{"activity_id", "bin_start_min", "bin_end_min", "count"}}
	for _, h := range rep.Histograms {
		for _, b := range h.Bins {
			t.Rows = append(t.Rows, []string{string(h.Activity), minutes(b.Start), minutes(b.End), strconv.Itoa(b.Count)})
		}
	}
	return t
}

func minutes(d time.Duration) string {
	return strconv.FormatFloat(core.Minutes(d), 'f', 2, 64)
}

func optional(v *float64) string {
	if v == nil {
		return Undefined
	}
	return strconv.FormatFloat(*v, 'f', 4, 64)
}
