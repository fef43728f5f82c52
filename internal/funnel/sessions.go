package funnel

import (
	"sort"
	"strings"
	"time"

	"assesstime/domain/actionlog"
	"assesstime/domain/core"
	"assesstime/domain/session"
	"assesstime/internal/config"
)

// matcher holds the label predicates derived from a FunnelConfig
type matcher struct {
	cfg          config.FunnelConfig
	pauseKeyword string
	completeFold string
}

func newMatcher(cfg config.FunnelConfig) matcher {
	m := matcher{cfg: cfg, pauseKeyword: cfg.PauseKeyword, completeFold: strings.ToLower(cfg.CompleteActionLabel)}
	if !cfg.PauseMatchCase {
		m.pauseKeyword = strings.ToLower(cfg.PauseKeyword)
	}
	return m
}

func (m matcher) isPause(label string) bool {
	if m.pauseKeyword == "" {
		return false
	}
	if !m.cfg.PauseMatchCase {
		label = strings.ToLower(label)
	}
	return strings.Contains(label, m.pauseKeyword)
}

func (m matcher) isBegin(label string) bool {
	return strings.Contains(label, m.cfg.BeginMarker)
}

func (m matcher) isEnd(label string) bool {
	return strings.Contains(label, m.cfg.EndMarker)
}

// isComplete reports whether label is the configured completion action.
// Without a configured label any end marker counts.
func (m matcher) isComplete(label string) bool {
	switch {
	case m.cfg.CompleteActionLabel == "":
		return m.isEnd(label)
	case m.cfg.CompleteMatch == config.MatchContains:
		return strings.Contains(strings.ToLower(label), m.completeFold)
	default:
		return label == m.cfg.CompleteActionLabel
	}
}

// BuildSessions folds action records into one session per key. Multiple
// begin/end pairs collapse to the earliest begin and the latest end. With
// GroupByRespondent the session's activity is that of the respondent's
// first record in input order. Output is ordered by key.
func BuildSessions(records []actionlog.ActionRecord, cfg config.FunnelConfig) []session.Session {
	m := newMatcher(cfg)
	byKey := make(map[core.SessionKey]*session.Session)
	var keys []core.SessionKey

	for _, rec := range records {
		key := core.SessionKey{Respondent: rec.Respondent}
		if cfg.GroupBy == config.GroupByRespondentActivity {
			key.Activity = rec.Activity
		}

		s, ok := byKey[key]
		if !ok {
			s = &session.Session{Key: key, Respondent: rec.Respondent, Activity: rec.Activity}
			byKey[key] = s
			keys = append(keys, key)
		}
		s.Records++

		if m.isPause(rec.Label) {
			s.HasPause = true
		}
		if m.isComplete(rec.Label) {
			s.Completed = true
		}

		if cfg.SpanMode == config.SpanAllActions {
			extend(&s.Start, &s.HasBegin, rec.Timestamp, true)
			extend(&s.End, &s.HasEnd, rec.Timestamp, false)
			continue
		}
		if m.isBegin(rec.Label) {
			extend(&s.Start, &s.HasBegin, rec.Timestamp, true)
		}
		if m.isEnd(rec.Label) {
			extend(&s.End, &s.HasEnd, rec.Timestamp, false)
		}
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	out := make([]session.Session, len(keys))
	for i, k := range keys {
		out[i] = *byKey[k]
	}
	return out
}

// extend moves *bound to ts when ts is earlier (min) or later (!min).
func extend(bound *time.Time, set *bool, ts time.Time, min bool) {
	if !*set {
		*bound, *set = ts, true
		return
	}
	if (min && ts.Before(*bound)) || (!min && ts.After(*bound)) {
		*bound = ts
	}
}
