package session

import (
	"sort"
	"time"

	"assesstime/domain/core"
	"assesstime/domain/stage"
)

// Session is the per-respondent fold of all action records. It is rebuilt
// from the log for every funnel run and never mutated by a stage.
type Session struct {
	Key        core.SessionKey   `json:"-"`
	Respondent core.RespondentID `json:"respondent_id"`
	Activity   core.ActivityID   `json:"activity_id"`
	Start      time.Time         `json:"start"`
	End        time.Time         `json:"end"`
	HasBegin   bool              `json:"has_begin"`
	HasEnd     bool              `json:"has_end"`
	HasPause   bool              `json:"has_pause"`
	Completed  bool              `json:"completed"`
	Duration   time.Duration     `json:"duration"`
	Records    int               `json:"records"`
}

// WithDuration returns a copy of s carrying d.
func (s Session) WithDuration(d time.Duration) Session {
	s.Duration = d
	return s
}

// Exclusion records why a session left the funnel
type Exclusion struct {
	Session Session         `json:"session"`
	Stage   stage.StageName `json:"stage"`
	Reason  string          `json:"reason"`
}

// Sample is the analytic sample: the sessions that survived every stage
type Sample struct {
	Sessions []Session `json:"sessions"`
}

// Len returns the number of sessions in the sample.
func (s *Sample) Len() int {
	return len(s.Sessions)
}

// ByActivity partitions the sample by activity id. Sessions keep sample order.
func (s *Sample) ByActivity() map[core.ActivityID][]Session {
	out := make(map[core.ActivityID][]Session)
	for _, sess := range s.Sessions {
		out[sess.Activity] = append(out[sess.Activity], sess)
	}
	return out
}

// Activities returns the activity ids present in the sample, ascending.
func (s *Sample) Activities() []core.ActivityID {
	parts := s.ByActivity()
	ids := make([]core.ActivityID, 0, len(parts))
	for id := range parts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Durations returns the durations of all sessions in sample order.
func Durations(sessions []Session) []time.Duration {
	out := make([]time.Duration, len(sessions))
	for i, s := range sessions {
		out[i] = s.Duration
	}
	return out
}

// SortSessions orders sessions by activity, respondent, then key.
func SortSessions(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].Activity != sessions[j].Activity {
			return sessions[i].Activity < sessions[j].Activity
		}
		return sessions[i].Key.Less(sessions[j].Key)
	})
}
