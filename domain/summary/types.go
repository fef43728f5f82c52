package summary

import (
	"time"

	"assesstime/domain/core"
)

// ActivitySummary holds descriptive statistics of completion time for one
// activity. Count always equals the number of sample sessions for Activity
// and P25 <= Median <= P75 <= P90.
type ActivitySummary struct {
	Activity core.ActivityID `json:"activity_id"`
	Count    int             `json:"count"`
	Mean     time.Duration   `json:"mean"`
	SD       *time.Duration  `json:"sd"` // nil when Count < 2
	Min      time.Duration   `json:"min"`
	Max      time.Duration   `json:"max"`
	Median   time.Duration   `json:"median"`
	P25      time.Duration   `json:"p25"`
	P75      time.Duration   `json:"p75"`
	P90      time.Duration   `json:"p90"`
	Box      BoxPlot         `json:"box"`
	Shape    Shape           `json:"shape"`
}

// SDDefined reports whether the sample standard deviation exists.
func (s *ActivitySummary) SDDefined() bool {
	return s.SD != nil
}

// BoxPlot carries Tukey box-plot descriptors for the charting collaborator
type BoxPlot struct {
	IQR          time.Duration `json:"iqr"`
	LowerWhisker time.Duration `json:"lower_whisker"`
	UpperWhisker time.Duration `json:"upper_whisker"`
	Outliers     int           `json:"outliers"`
}

// Shape describes distribution asymmetry and tail weight
type Shape struct {
	Skewness *float64 `json:"skewness"`        // nil below 3 observations
	Kurtosis *float64 `json:"excess_kurtosis"` // nil below 4 observations
}

// Bin is one histogram bucket, [Start, End)
type Bin struct {
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
	Count int           `json:"count"`
}

// Histogram is a fixed-width histogram of durations for one activity
type Histogram struct {
	Activity core.ActivityID `json:"activity_id"`
	BinWidth time.Duration   `json:"bin_width"`
	Bins     []Bin           `json:"bins"`
}

// Total returns the number of observations across all bins.
func (h *Histogram) Total() int {
	total := 0
	for _, b := range h.Bins {
		total += b.Count
	}
	return total
}

// Report is the aggregator output for one sample
type Report struct {
	Activities      []ActivitySummary `json:"activities"`        // ascending by activity id
	Overall         *ActivitySummary  `json:"overall,omitempty"` // pooled, empty Activity
	Histograms      []Histogram       `json:"histograms,omitempty"`
	EmptyActivities []core.ActivityID `json:"empty_activities,omitempty"` // no survivors
}

// Total returns the summed count across activities.
func (r *Report) Total() int {
	total := 0
	for _, a := range r.Activities {
		total += a.Count
	}
	return total
}

// Find returns the summary for id.
func (r *Report) Find(id core.ActivityID) (ActivitySummary, bool) {
	for _, a := range r.Activities {
		if a.Activity == id {
			return a, true
		}
	}
	return ActivitySummary{}, false
}
