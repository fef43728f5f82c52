package stage

import (
	"fmt"
)

// StageName represents a named stage in the cleaning funnel
type StageName string

// Funnel stages in execution order
const (
	StageSessions       StageName = "sessions" // initial session count, nothing removed
	StagePause          StageName = "pause_exclusion"
	StageCompletion     StageName = "completion"
	StageIntegrity      StageName = "integrity" // negative spans, always on
	StageSameDay        StageName = "same_day"
	StageDurationBounds StageName = "duration_bounds"
)

// Order lists every stage in the order the funnel applies them.
var Order = []StageName{
	StageSessions,
	StagePause,
	StageCompletion,
	StageIntegrity,
	StageSameDay,
	StageDurationBounds,
}

// StageResult is one row of the funnel transparency output
type StageResult struct {
	Name          StageName      `json:"stage"`
	Enabled       bool           `json:"enabled"`
	Removed       int            `json:"removed"`
	Remaining     int            `json:"remaining"`
	SkipsByReason map[string]int `json:"skips_by_reason,omitempty"` // e.g. {"no_end_marker": 3}
}

// FunnelReport is the ordered list of stage results for one run
type FunnelReport struct {
	Steps []StageResult `json:"steps"`
}

// Add appends a stage result.
func (r *FunnelReport) Add(result StageResult) {
	r.Steps = append(r.Steps, result)
}

// Step returns the result for name.
func (r *FunnelReport) Step(name StageName) (StageResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StageResult{}, false
}

// Initial returns the session count before any stage ran.
func (r *FunnelReport) Initial() int {
	if len(r.Steps) == 0 {
		return 0
	}
	return r.Steps[0].Remaining
}

// Final returns the number of sessions left after the last stage.
func (r *FunnelReport) Final() int {
	if len(r.Steps) == 0 {
		return 0
	}
	return r.Steps[len(r.Steps)-1].Remaining
}

// TotalRemoved sums removals across all stages.
func (r *FunnelReport) TotalRemoved() int {
	total := 0
	for _, s := range r.Steps {
		total += s.Removed
	}
	return total
}

// Validate checks that remaining counts never increase and that every
// step's removed+remaining equals the previous remaining.
func (r *FunnelReport) Validate() error {
	for i := 1; i < len(r.Steps); i++ {
		prev, cur := r.Steps[i-1], r.Steps[i]
		if cur.Remaining > prev.Remaining {
			return fmt.Errorf("stage %s: remaining grew from %d to %d", cur.Name, prev.Remaining, cur.Remaining)
		}
		if cur.Removed+cur.Remaining != prev.Remaining {
			return fmt.Errorf("stage %s: removed %d + remaining %d != %d", cur.Name, cur.Removed, cur.Remaining, prev.Remaining)
		}
	}
	return nil
}
