package funnel

import (
	"sort"

	"assesstime/domain/actionlog"
	"assesstime/domain/core"
	"assesstime/domain/session"
	"assesstime/domain/stage"
	"assesstime/internal/config"
	"assesstime/internal/logging"
	"assesstime/ports"
)

// Skip reasons recorded per stage
const (
	ReasonPause        = "pause_action"
	ReasonNoCompletion = "no_completion_action"
	ReasonNoBegin      = "no_begin_marker"
	ReasonNoEnd        = "no_end_marker"
	ReasonNegativeSpan = "end_before_begin"
	ReasonCrossesDay   = "crosses_midnight"
	ReasonTooShort     = "below_min_duration"
	ReasonTooLong      = "above_max_duration"
)

// Outcome is everything one funnel pass produces
type Outcome struct {
	Report     stage.FunnelReport
	Sample     session.Sample
	Exclusions []session.Exclusion
	// Activities seen in the initial session set, ascending. Activities
	// whose sessions were all excluded still appear here.
	Activities []core.ActivityID
}

// filter is one funnel stage. check returns the (possibly updated) session
// and an empty reason to keep it, or a reason code and message to drop it.
type filter struct {
	name    stage.StageName
	enabled bool
	check   func(session.Session) (s session.Session, reason, detail string)
}

// Funnel applies the ordered cleaning stages to a session set
type Funnel struct {
	cfg    config.FunnelConfig
	logger ports.Logger
}

// New creates a funnel. A nil logger discards output.
func New(cfg config.FunnelConfig, logger ports.Logger) *Funnel {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Funnel{cfg: cfg, logger: logger}
}

// Run builds sessions from records and applies every stage in order.
// Running twice on the same records yields identical outcomes.
func (f *Funnel) Run(records []actionlog.ActionRecord) *Outcome {
	sessions := BuildSessions(records, f.cfg)
	return f.Apply(sessions)
}

// Apply runs the stages over pre-built sessions.
func (f *Funnel) Apply(sessions []session.Session) *Outcome {
	out := &Outcome{Activities: activitiesOf(sessions)}
	out.Report.Add(stage.StageResult{Name: stage.StageSessions, Enabled: true, Remaining: len(sessions)})
	f.logger.Infof("[Funnel] %d sessions from %d activities", len(sessions), len(out.Activities))

	current := sessions
	for _, flt := range f.filters() {
		result := stage.StageResult{Name: flt.name, Enabled: flt.enabled}
		if !flt.enabled {
			result.Remaining = len(current)
			out.Report.Add(result)
			continue
		}

		kept := make([]session.Session, 0, len(current))
		for _, s := range current {
			updated, reason, detail := flt.check(s)
			if reason == "" {
				kept = append(kept, updated)
				continue
			}
			if result.SkipsByReason == nil {
				result.SkipsByReason = make(map[string]int)
			}
			result.SkipsByReason[reason]++
			if detail == "" {
				detail = reason
			}
			out.Exclusions = append(out.Exclusions, session.Exclusion{Session: updated, Stage: flt.name, Reason: detail})
		}

		result.Removed = len(current) - len(kept)
		result.Remaining = len(kept)
		out.Report.Add(result)
		f.logger.Debugf("[Funnel] %s removed %d, %d remaining", flt.name, result.Removed, result.Remaining)
		current = kept
	}

	session.SortSessions(current)
	out.Sample = session.Sample{Sessions: current}
	f.logger.Infof("[Funnel] analytic sample: %d sessions", len(current))
	return out
}

func (f *Funnel) filters() []filter {
	cfg := f.cfg
	return []filter{
		{
			name:    stage.StagePause,
			enabled: cfg.FilterPauses,
			check: func(s session.Session) (session.Session, string, string) {
				if s.HasPause {
					return s, ReasonPause, "session contains a pause action"
				}
				return s, "", ""
			},
		},
		{
			name:    stage.StageCompletion,
			enabled: true,
			check: func(s session.Session) (session.Session, string, string) {
				switch {
				case !s.Completed:
					return s, ReasonNoCompletion, "no completion action"
				case !s.HasBegin:
					return s, ReasonNoBegin, "no begin marker"
				case !s.HasEnd:
					return s, ReasonNoEnd, "no end marker"
				}
				return s, "", ""
			},
		},
		{
			name:    stage.StageIntegrity,
			enabled: true,
			check: func(s session.Session) (session.Session, string, string) {
				d, err := Duration(s)
				if err != nil {
					f.logger.Warnf("[Funnel] %v", err)
					return s, ReasonNegativeSpan, err.Error()
				}
				return s.WithDuration(d), "", ""
			},
		},
		{
			name:    stage.StageSameDay,
			enabled: cfg.SameDayOnly,
			check: func(s session.Session) (session.Session, string, string) {
				if !SameDay(s) {
					return s, ReasonCrossesDay, "begin and end fall on different dates"
				}
				return s, "", ""
			},
		},
		{
			name:    stage.StageDurationBounds,
			enabled: true,
			check: func(s session.Session) (session.Session, string, string) {
				if WithinBounds(s.Duration, cfg.MinDuration, cfg.MaxDuration) {
					return s, "", ""
				}
				if s.Duration <= cfg.MinDuration {
					return s, ReasonTooShort, "duration " + s.Duration.String() + " not above " + cfg.MinDuration.String()
				}
				return s, ReasonTooLong, "duration " + s.Duration.String() + " not below " + cfg.MaxDuration.String()
			},
		},
	}
}

func activitiesOf(sessions []session.Session) []core.ActivityID {
	seen := make(map[core.ActivityID]bool)
	var ids []core.ActivityID
	for _, s := range sessions {
		if !seen[s.Activity] {
			seen[s.Activity] = true
			ids = append(ids, s.Activity)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
