package config

import (
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"assesstime/domain/core"
	"assesstime/internal/errors"
)

// GroupBy selects the session key
type GroupBy string

const (
	GroupByRespondent         GroupBy = "respondent"
	GroupByRespondentActivity GroupBy = "respondent_activity"
)

// MatchMode selects how the completion label is compared
type MatchMode string

const (
	MatchExact    MatchMode = "exact"
	MatchContains MatchMode = "contains" // case-insensitive substring
)

// SpanMode selects how start and end timestamps are derived
type SpanMode string

const (
	SpanMarkers    SpanMode = "markers"     // earliest begin marker, latest end marker
	SpanAllActions SpanMode = "all_actions" // earliest and latest record of any label
)

// SchemaConfig maps source columns and the timestamp format
type SchemaConfig struct {
	RespondentColumn string `yaml:"respondent_column" json:"respondent_column"`
	ActivityColumn   string `yaml:"activity_column" json:"activity_column"`
	ActionColumn     string `yaml:"action_column" json:"action_column"`
	DateColumn       string `yaml:"date_column" json:"date_column"`
	TimeColumn       string `yaml:"time_column" json:"time_column"`
	DateTimeColumn   string `yaml:"datetime_column" json:"datetime_column"` // overrides date+time when set
	TimeFormat       string `yaml:"time_format" json:"time_format"`         // Go layout or strftime; empty = auto
	Timezone         string `yaml:"timezone" json:"timezone"`
	Sheet            string `yaml:"sheet" json:"sheet"`         // xlsx only; empty = first sheet
	Delimiter        string `yaml:"delimiter" json:"delimiter"` // csv only
}

// RequiredColumns lists the columns a source must carry.
func (s SchemaConfig) RequiredColumns() []string {
	cols := []string{s.RespondentColumn, s.ActivityColumn, s.ActionColumn}
	if s.DateTimeColumn != "" {
		return append(cols, s.DateTimeColumn)
	}
	cols = append(cols, s.DateColumn)
	if s.TimeColumn != "" {
		cols = append(cols, s.TimeColumn)
	}
	return cols
}

// Location resolves Timezone.
func (s SchemaConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid("unknown timezone "+s.Timezone), err.Error())
	}
	return loc, nil
}

// Comma returns the CSV delimiter rune.
func (s SchemaConfig) Comma() rune {
	if s.Delimiter == "" {
		return ','
	}
	r, _ := utf8.DecodeRuneInString(s.Delimiter)
	return r
}

// FunnelConfig parameterizes the cleaning funnel
type FunnelConfig struct {
	GroupBy             GroupBy       `yaml:"group_by" json:"group_by"`
	FilterPauses        bool          `yaml:"filter_pauses" json:"filter_pauses"`
	PauseKeyword        string        `yaml:"pause_keyword" json:"pause_keyword"`
	PauseMatchCase      bool          `yaml:"pause_match_case" json:"pause_match_case"`
	CompleteActionLabel string        `yaml:"complete_action_label" json:"complete_action_label"`
	CompleteMatch       MatchMode     `yaml:"complete_match" json:"complete_match"`
	SpanMode            SpanMode      `yaml:"span_mode" json:"span_mode"`
	BeginMarker         string        `yaml:"begin_marker" json:"begin_marker"`
	EndMarker           string        `yaml:"end_marker" json:"end_marker"`
	SameDayOnly         bool          `yaml:"same_day_only" json:"same_day_only"`
	MinDuration         time.Duration `yaml:"min_duration" json:"min_duration"`
	MaxDuration         time.Duration `yaml:"max_duration" json:"max_duration"`
}

// SummaryConfig parameterizes the aggregator
type SummaryConfig struct {
	HistogramBinWidth time.Duration `yaml:"histogram_bin_width" json:"histogram_bin_width"`
	IncludeOverall    bool          `yaml:"include_overall" json:"include_overall"`
}

// PipelineConfig is one complete, named run configuration
type PipelineConfig struct {
	Name    string        `yaml:"name" json:"name"`
	Files   []string      `yaml:"files" json:"-"`
	Schema  SchemaConfig  `yaml:"schema" json:"schema"`
	Funnel  FunnelConfig  `yaml:"funnel" json:"funnel"`
	Summary SummaryConfig `yaml:"summary" json:"summary"`
}

// Default returns the configuration shared by the administrations seen so far:
// pauses filtered, exact completion label, 1 minute to 10 hours, no same-day rule.
func Default() PipelineConfig {
	return PipelineConfig{
		Name: "default",
		Schema: SchemaConfig{
			RespondentColumn: "Assignment",
			ActivityColumn:   "Activities",
			ActionColumn:     "Action",
			DateColumn:       "Date",
			TimeColumn:       "Time",
			TimeFormat:       "%m/%d/%Y %H:%M:%S",
			Timezone:         "UTC",
			Delimiter:        ",",
		},
		Funnel: FunnelConfig{
			GroupBy:        GroupByRespondent,
			FilterPauses:   true,
			PauseKeyword:   "pause",
			PauseMatchCase: false,
			CompleteMatch:  MatchExact,
			SpanMode:       SpanMarkers,
			BeginMarker:    "Begin activity",
			EndMarker:      "End activity",
			SameDayOnly:    false,
			MinDuration:    time.Minute,
			MaxDuration:    10 * time.Hour,
		},
		Summary: SummaryConfig{
			HistogramBinWidth: 5 * time.Minute,
			IncludeOverall:    true,
		},
	}
}

// Validate checks the configuration for contradictions
func (p PipelineConfig) Validate() error {
	s, f := p.Schema, p.Funnel

	if s.RespondentColumn == "" || s.ActivityColumn == "" || s.ActionColumn == "" {
		return errors.ConfigInvalid("respondent, activity and action columns are required")
	}
	if s.DateTimeColumn == "" && s.DateColumn == "" {
		return errors.ConfigInvalid("either datetime_column or date_column is required")
	}
	if utf8.RuneCountInString(s.Delimiter) > 1 {
		return errors.ConfigInvalid("delimiter must be a single character")
	}
	if _, err := s.Location(); err != nil {
		return err
	}

	switch f.GroupBy {
	case GroupByRespondent, GroupByRespondentActivity:
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unknown group_by %q", f.GroupBy))
	}
	switch f.CompleteMatch {
	case MatchExact, MatchContains:
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unknown complete_match %q", f.CompleteMatch))
	}
	switch f.SpanMode {
	case SpanMarkers:
		if f.BeginMarker == "" || f.EndMarker == "" {
			return errors.ConfigInvalid("begin_marker and end_marker are required in markers span mode")
		}
	case SpanAllActions:
		if f.CompleteActionLabel == "" {
			return errors.ConfigInvalid("complete_action_label is required in all_actions span mode")
		}
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unknown span_mode %q", f.SpanMode))
	}
	if f.FilterPauses && f.PauseKeyword == "" {
		return errors.ConfigInvalid("pause_keyword is required when filter_pauses is on")
	}
	if f.MinDuration < 0 {
		return errors.ConfigInvalid("min_duration cannot be negative")
	}
	if f.MaxDuration <= f.MinDuration {
		return errors.ConfigInvalid(fmt.Sprintf("max_duration %s must exceed min_duration %s", f.MaxDuration, f.MinDuration))
	}
	if p.Summary.HistogramBinWidth < 0 {
		return errors.ConfigInvalid("histogram_bin_width cannot be negative")
	}
	return nil
}

// Hash fingerprints everything that affects results. Files are excluded;
// inputs are fingerprinted by content separately.
func (p PipelineConfig) Hash() core.ConfigHash {
	data, _ := json.Marshal(p)
	return core.NewConfigHash(data)
}
