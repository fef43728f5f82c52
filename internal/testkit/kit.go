package testkit

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"assesstime/domain/actionlog"
	"assesstime/domain/core"
)

// Column names and layouts matching config.Default()
const (
	ColRespondent = "Assignment"
	ColActivity   = "Activities"
	ColAction     = "Action"
	ColDate       = "Date"
	ColTime       = "Time"

	DateLayout = "01/02/2006"
	TimeLayout = "15:04:05"
)

// Headers is the column order written by the builder
var Headers = []string{ColRespondent, ColActivity, ColDate, ColTime, ColAction}

// BeginLabel and EndLabel produce the action text the assessment platform logs.
func BeginLabel(activity string) string { return "Begin activity " + activity }
func EndLabel(activity string) string   { return "End activity " + activity }

// PauseLabel is the platform's pause action.
const PauseLabel = "Pause activity"

// LogBuilder assembles raw action-log rows for tests
type LogBuilder struct {
	source string
	rows   []actionlog.RawRow
	recs   []actionlog.ActionRecord
}

// NewLogBuilder creates an empty builder for a named source
func NewLogBuilder(source string) *LogBuilder {
	return &LogBuilder{source: source}
}

// Action appends one action at a wall-clock time.
func (b *LogBuilder) Action(respondent, activity, label string, at time.Time) *LogBuilder {
	b.rows = append(b.rows, actionlog.RawRow{
		ColRespondent: respondent,
		ColActivity:   activity,
		ColDate:       at.Format(DateLayout),
		ColTime:       at.Format(TimeLayout),
		ColAction:     label,
	})
	b.recs = append(b.recs, actionlog.ActionRecord{
		Respondent: core.RespondentID(respondent),
		Activity:   core.ActivityID(activity),
		Label:      label,
		Timestamp:  at,
		Source:     b.source,
		Row:        len(b.rows) + 1, // header is row 1
	})
	return b
}

// Session appends a begin/end pair spanning d.
func (b *LogBuilder) Session(respondent, activity string, start time.Time, d time.Duration) *LogBuilder {
	b.Action(respondent, activity, BeginLabel(activity), start)
	return b.Action(respondent, activity, EndLabel(activity), start.Add(d))
}

// Raw appends a row verbatim. It contributes no record since it may not parse.
func (b *LogBuilder) Raw(row actionlog.RawRow) *LogBuilder {
	b.rows = append(b.rows, row)
	return b
}

// Table returns the rows as a loaded table
func (b *LogBuilder) Table() *actionlog.Table {
	rows := make([]actionlog.RawRow, len(b.rows))
	copy(rows, b.rows)
	return &actionlog.Table{Source: b.source, Headers: append([]string(nil), Headers...), Rows: rows}
}

// Records returns the action records the rows describe, bypassing parsing.
func (b *LogBuilder) Records() []actionlog.ActionRecord {
	return append([]actionlog.ActionRecord(nil), b.recs...)
}

// Len returns the number of rows.
func (b *LogBuilder) Len() int {
	return len(b.rows)
}

// WriteCSV writes the rows to path with a header line.
func (b *LogBuilder) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Headers); err != nil {
		return err
	}
	for _, row := range b.rows {
		if err := w.Write(b.line(row)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteXLSX writes the rows to a workbook sheet as text cells.
func (b *LogBuilder) WriteXLSX(path, sheet string) error {
	return b.writeXLSX(path, sheet, false)
}

// WriteTypedXLSX writes the rows to a workbook sheet with dates and times
// stored as serial numbers under date (NumFmt 14) and time (NumFmt 21)
// formats, the way spreadsheet exports keep them. Cells that do not parse
// stay text.
func (b *LogBuilder) WriteTypedXLSX(path, sheet string) error {
	return b.writeXLSX(path, sheet, true)
}

func (b *LogBuilder) writeXLSX(path, sheet string, typed bool) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return err
		}
	}
	if err := f.SetSheetRow(sheet, "A1", &Headers); err != nil {
		return err
	}
	for i, row := range b.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		line := b.line(row)
		if err := f.SetSheetRow(sheet, cell, &line); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		if typed {
			if err := typeDateTime(f, sheet, i+2, row); err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}
		}
	}
	return f.SaveAs(path)
}

var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

func typeDateTime(f *excelize.File, sheet string, rowNum int, row actionlog.RawRow) error {
	date, derr := time.Parse(DateLayout, row[ColDate])
	clock, terr := time.Parse(TimeLayout, row[ColTime])
	if derr != nil || terr != nil {
		return nil
	}
	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	if err != nil {
		return err
	}
	timeStyle, err := f.NewStyle(&excelize.Style{NumFmt: 21})
	if err != nil {
		return err
	}

	cells := []struct {
		col   int
		value float64
		style int
	}{
		{colIndex(ColDate), date.Sub(excelEpoch).Hours() / 24, dateStyle},
		{colIndex(ColTime), float64(clock.Hour()*3600+clock.Minute()*60+clock.Second()) / 86400, timeStyle},
	}
	for _, c := range cells {
		name, err := excelize.CoordinatesToCellName(c.col, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellFloat(sheet, name, c.value, -1, 64); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, name, name, c.style); err != nil {
			return err
		}
	}
	return nil
}

// colIndex returns the 1-based column of header h.
func colIndex(h string) int {
	for i, name := range Headers {
		if name == h {
			return i + 1
		}
	}
	return 0
}

func (b *LogBuilder) line(row actionlog.RawRow) []string {
	line := make([]string, len(Headers))
	for i, h := range Headers {
		line[i] = row[h]
	}
	return line
}

// Day returns a fixed reference date at hh:mm:ss in UTC.
func Day(day, hh, mm, ss int) time.Time {
	return time.Date(2025, time.April, day, hh, mm, ss, 0, time.UTC)
}
