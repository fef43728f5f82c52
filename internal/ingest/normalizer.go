package ingest

import (
	"sort"
	"strings"
	"time"

	"assesstime/domain/actionlog"
	"assesstime/domain/core"
	"assesstime/internal/config"
	"assesstime/internal/errors"
	"assesstime/internal/logging"
	"assesstime/ports"
)

// MaxFailureSamples caps the parse failures kept in the report. The count
// of dropped rows is always exact.
const MaxFailureSamples = 20

// Normalizer turns raw tables into action records
type Normalizer struct {
	schema config.SchemaConfig
	parser *TimeParser
	logger ports.Logger
}

// NewNormalizer builds a normalizer for schema
func NewNormalizer(schema config.SchemaConfig, logger ports.Logger) (*Normalizer, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	loc, err := schema.Location()
	if err != nil {
		return nil, err
	}
	parser, err := NewTimeParser(schema.TimeFormat, loc)
	if err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid("invalid time_format "+schema.TimeFormat), err.Error())
	}
	return &Normalizer{schema: schema, parser: parser, logger: logger}, nil
}

// CheckSchema returns a SchemaError naming every required column the table lacks.
func (n *Normalizer) CheckSchema(table *actionlog.Table) error {
	var missing []string
	for _, col := range n.schema.RequiredColumns() {
		if !table.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return errors.SchemaError(table.Source, missing)
	}
	return nil
}

// Normalize parses every row of every table. Tables are validated up front;
// a schema error aborts with no partial result. Rows whose timestamp or ids
// cannot be read are dropped and counted.
func (n *Normalizer) Normalize(tables ...*actionlog.Table) (*actionlog.Log, error) {
	for _, table := range tables {
		if err := n.CheckSchema(table); err != nil {
			return nil, err
		}
	}

	out := &actionlog.Log{}
	report := &out.Report
	labels := make(map[string]int)
	respondents := make(map[core.RespondentID]struct{})
	activities := make(map[core.ActivityID]struct{})

	for _, table := range tables {
		report.Sources = append(report.Sources, table.Source)
		dropped := 0

		for i, row := range table.Rows {
			report.RowsRead++
			rec, failure := n.normalizeRow(table.Source, table.Line(i), row, table.Spreadsheet)
			if failure != nil {
				dropped++
				report.RowsDropped++
				if len(report.Failures) < MaxFailureSamples {
					report.Failures = append(report.Failures, *failure)
				}
				continue
			}

			out.Records = append(out.Records, rec)
			report.RowsKept++
			labels[rec.Label]++
			respondents[rec.Respondent] = struct{}{}
			activities[rec.Activity] = struct{}{}
			if report.Earliest.IsZero() || rec.Timestamp.Before(report.Earliest) {
				report.Earliest = rec.Timestamp
			}
			if rec.Timestamp.After(report.Latest) {
				report.Latest = rec.Timestamp
			}
		}

		if dropped > 0 {
			n.logger.Warnf("[Normalizer] %s: dropped %d of %d rows", table.Source, dropped, len(table.Rows))
		}
	}

	report.Respondents = len(respondents)
	report.Activities = len(activities)
	report.Labels = sortedLabels(labels)

	n.logger.Infof("[Normalizer] %d rows read, %d kept, %d dropped", report.RowsRead, report.RowsKept, report.RowsDropped)
	return out, nil
}

func (n *Normalizer) normalizeRow(source string, rowNum int, row actionlog.RawRow, spreadsheet bool) (actionlog.ActionRecord, *actionlog.ParseFailure) {
	respondent := strings.TrimSpace(row[n.schema.RespondentColumn])
	if respondent == "" {
		return actionlog.ActionRecord{}, &actionlog.ParseFailure{Source: source, Row: rowNum, Reason: "missing respondent id"}
	}
	activity := strings.TrimSpace(row[n.schema.ActivityColumn])
	if activity == "" {
		return actionlog.ActionRecord{}, &actionlog.ParseFailure{Source: source, Row: rowNum, Reason: "missing activity id"}
	}

	raw := n.combined(row)
	ts, err := n.parser.Parse(raw)
	if err != nil {
		ok := false
		if spreadsheet {
			ts, ok = n.serial(row)
		}
		if !ok {
			perr := errors.ParseError(source, rowNum, raw, err)
			return actionlog.ActionRecord{}, &actionlog.ParseFailure{Source: source, Row: rowNum, Value: raw, Reason: perr.Error()}
		}
	}

	return actionlog.ActionRecord{
		Respondent: core.RespondentID(respondent),
		Activity:   core.ActivityID(activity),
		Label:      row[n.schema.ActionColumn],
		Timestamp:  ts,
		Source:     source,
		Row:        rowNum,
	}, nil
}

// combined joins the date and time fields the way the exported logs expect:
// "<date> <time>", or the single combined column when configured.
func (n *Normalizer) combined(row actionlog.RawRow) string {
	if n.schema.DateTimeColumn != "" {
		return strings.TrimSpace(row[n.schema.DateTimeColumn])
	}
	date := strings.TrimSpace(row[n.schema.DateColumn])
	if n.schema.TimeColumn == "" {
		return date
	}
	clock := strings.TrimSpace(row[n.schema.TimeColumn])
	return strings.TrimSpace(date + " " + clock)
}

// serial reads workbook rows whose date or time cells hold serial numbers,
// including a typed cell paired with a text one. A configured time column
// must not be empty.
func (n *Normalizer) serial(row actionlog.RawRow) (time.Time, bool) {
	if n.schema.DateTimeColumn != "" {
		return n.parser.ParseSerial(row[n.schema.DateTimeColumn], "")
	}
	date := strings.TrimSpace(row[n.schema.DateColumn])
	clock := ""
	if n.schema.TimeColumn != "" {
		if clock = strings.TrimSpace(row[n.schema.TimeColumn]); clock == "" {
			return time.Time{}, false
		}
	}
	if t, ok := n.parser.ParseSerial(date, clock); ok {
		return t, true
	}
	if clock == "" {
		return time.Time{}, false
	}

	// text date, typed time
	if offset, ok := DayFraction(clock); ok {
		t, err := n.parser.Parse(date + " " + FormatClock(offset))
		return t, err == nil
	}
	// typed date, text time
	if day, ok := n.parser.ParseSerial(date, ""); ok {
		if offset, ok := ParseClock(clock); ok {
			return day.Add(offset), true
		}
	}
	return time.Time{}, false
}

func sortedLabels(counts map[string]int) []actionlog.LabelCount {
	out := make([]actionlog.LabelCount, 0, len(counts))
	for label, count := range counts {
		out = append(out, actionlog.LabelCount{Label: label, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}
