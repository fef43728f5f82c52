package actionlog

import (
	"sort"
	"time"

	"assesstime/domain/core"
)

// RawRow represents one input row as header -> cell text
type RawRow map[string]string

// Table is one loaded source file with its header row
type Table struct {
	Source  string   // file path or fixture name
	Headers []string // column headers, trimmed
	Rows    []RawRow // data rows in file order
	Lines   []int    // 1-based source row of each entry in Rows
	// Spreadsheet marks cells read from a workbook, where dates and times
	// may arrive as raw serial numbers.
	Spreadsheet bool
}

// Line returns the source row number of Rows[i]. Tables built without
// Lines are taken to have a header on row 1 and no gaps.
func (t *Table) Line(i int) int {
	if i < len(t.Lines) {
		return t.Lines[i]
	}
	return i + 2
}

// HasColumn reports whether the header row contains name.
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// ActionRecord is one parsed respondent action. Records are never modified
// after ingestion; every downstream stage derives new values from them.
type ActionRecord struct {
	Respondent core.RespondentID `json:"respondent_id"`
	Activity   core.ActivityID   `json:"activity_id"`
	Label      string            `json:"action_label"`
	Timestamp  time.Time         `json:"timestamp"`
	Source     string            `json:"source"`
	Row        int               `json:"row"` // source row, header is row 1
}

// ParseFailure describes a row the normalizer dropped
type ParseFailure struct {
	Source string `json:"source"`
	Row    int    `json:"row"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// LabelCount is a distinct action label with its frequency
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// IngestReport summarizes one normalization pass
type IngestReport struct {
	Sources     []string       `json:"sources"`
	RowsRead    int            `json:"rows_read"`
	RowsKept    int            `json:"rows_kept"`
	RowsDropped int            `json:"rows_dropped"`
	Failures    []ParseFailure `json:"failures,omitempty"` // capped sample
	Earliest    time.Time      `json:"earliest"`
	Latest      time.Time      `json:"latest"`
	Respondents int            `json:"respondents"`
	Activities  int            `json:"activities"`
	Labels      []LabelCount   `json:"distinct_labels"`
}

// Span returns the time covered by the kept records.
func (r *IngestReport) Span() time.Duration {
	if r.Earliest.IsZero() || r.Latest.IsZero() {
		return 0
	}
	return r.Latest.Sub(r.Earliest)
}

// Log is the normalized output of ingestion
type Log struct {
	Records []ActionRecord
	Report  IngestReport
}

// Activities returns the distinct activity ids in ascending order.
func (l *Log) Activities() []core.ActivityID {
	seen := make(map[core.ActivityID]bool)
	var out []core.ActivityID
	for _, r := range l.Records {
		if !seen[r.Activity] {
			seen[r.Activity] = true
			out = append(out, r.Activity)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
