package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// strftime directives and the Go layout elements they parse as. Numeric
// fields use the non-padded Go forms so both "4/1/2025" and "04/01/2025"
// are accepted, matching how exported logs mix padding.
var strftimeDirectives = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "1",
	'd': "2",
	'e': "_2",
	'H': "15",
	'I': "3",
	'M': "4",
	'S': "5",
	'p': "PM",
	'b': "Jan",
	'h': "Jan",
	'B': "January",
	'a': "Mon",
	'A': "Monday",
	'j': "002",
	'z': "-0700",
	'Z': "MST",
	'f': "999999999", // fractional seconds are absorbed by the seconds field
	'%': "%",
}

// StrftimeToLayout converts a strftime pattern such as "%m/%d/%Y %H:%M:%S"
// into a Go time layout. Patterns without '%' are returned unchanged.
func StrftimeToLayout(pattern string) (string, error) {
	if !strings.Contains(pattern, "%") {
		return pattern, nil
	}

	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(pattern) {
			return "", fmt.Errorf("dangling %% at end of %q", pattern)
		}
		i++
		elem, ok := strftimeDirectives[pattern[i]]
		if !ok {
			return "", fmt.Errorf("unsupported directive %%%c in %q", pattern[i], pattern)
		}
		if pattern[i] == 'f' {
			// Go only accepts fractional digits right after a '.' or ','
			s := b.String()
			if !strings.HasSuffix(s, ".") && !strings.HasSuffix(s, ",") {
				b.WriteByte('.')
			}
		}
		b.WriteString(elem)
	}
	return b.String(), nil
}

// autoLayouts are tried in order when no format is configured.
var autoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"1/2/2006 15:4:5",
	"1/2/2006 3:4:5 PM",
	"1/2/2006 15:4",
	"1/2/2006 3:4 PM",
	"1/2/06 15:4:5",
	"2006/1/2 15:4:5",
	"2-Jan-2006 15:04:05",
	"Jan 2, 2006 15:04:05",
	"2006-01-02",
	"1/2/2006",
}

// TimeParser turns the combined date/time text of a row into a timestamp
type TimeParser struct {
	layouts []string
	loc     *time.Location
}

// NewTimeParser builds a parser for format (Go layout or strftime). An empty
// format selects auto-detection across common layouts.
func NewTimeParser(format string, loc *time.Location) (*TimeParser, error) {
	if loc == nil {
		loc = time.UTC
	}
	if strings.TrimSpace(format) == "" {
		return &TimeParser{layouts: autoLayouts, loc: loc}, nil
	}
	layout, err := StrftimeToLayout(format)
	if err != nil {
		return nil, err
	}
	return &TimeParser{layouts: []string{layout}, loc: loc}, nil
}

// Parse parses value. On failure the error of the first layout is returned.
func (p *TimeParser) Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	var firstErr error
	for _, layout := range p.layouts {
		t, err := time.ParseInLocation(layout, value, p.loc)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// ParseSerial handles spreadsheet cells stored as serial day numbers: a date
// serial in date and an optional day fraction in clock.
func (p *TimeParser) ParseSerial(date, clock string) (time.Time, bool) {
	d, err := strconv.ParseFloat(strings.TrimSpace(date), 64)
	if err != nil || d <= 0 {
		return time.Time{}, false
	}
	if clock = strings.TrimSpace(clock); clock != "" {
		frac, err := strconv.ParseFloat(clock, 64)
		if err != nil || frac < 0 || frac >= 1 {
			return time.Time{}, false
		}
		d += frac
	}
	t, err := excelize.ExcelDateToTime(d, false)
	if err != nil {
		return time.Time{}, false
	}
	// serials carry wall-clock time without a zone
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), p.loc), true
}

var clockLayouts = []string{"15:04:05", "15:04", "3:04:05 PM", "3:04 PM"}

// DayFraction reads a spreadsheet time cell stored as a fraction of a day
// and returns the offset from midnight, rounded to the second.
func DayFraction(value string) (time.Duration, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || f < 0 || f >= 1 {
		return 0, false
	}
	secs := math.Round(f * 24 * 60 * 60)
	return time.Duration(secs) * time.Second, true
}

// FormatClock renders an offset from midnight as HH:MM:SS.
func FormatClock(offset time.Duration) string {
	return time.Time{}.Add(offset).Format("15:04:05")
}

// ParseClock reads a wall-clock time of day as an offset from midnight.
func ParseClock(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, true
		}
	}
	return 0, false
}
