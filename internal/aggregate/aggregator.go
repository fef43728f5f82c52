// Package aggregate computes per-activity descriptive statistics of
// completion time over the analytic sample.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"assesstime/domain/core"
	"assesstime/domain/session"
	"assesstime/domain/summary"
	"assesstime/internal/config"
	"assesstime/internal/errors"
	"assesstime/internal/logging"
	"assesstime/internal/profiling"
	"assesstime/ports"
)

// Aggregator summarizes an analytic sample per activity
type Aggregator struct {
	cfg      config.SummaryConfig
	logger   ports.Logger
	analyzer *profiling.DistributionAnalyzer
}

// NewAggregator creates an aggregator. A nil logger discards output.
func NewAggregator(cfg config.SummaryConfig, logger ports.Logger) *Aggregator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Aggregator{cfg: cfg, logger: logger, analyzer: profiling.NewDistributionAnalyzer()}
}

// Summarize produces one summary per activity present in the sample,
// ascending by activity id. Activities listed in seen that have no sample
// sessions are reported as empty rather than summarized.
func (a *Aggregator) Summarize(sample session.Sample, seen []core.ActivityID) (*summary.Report, error) {
	report := &summary.Report{}
	parts := sample.ByActivity()

	for _, id := range sample.Activities() {
		durations := session.Durations(parts[id])
		s, err := a.Describe(id, durations)
		if err != nil {
			return nil, err
		}
		report.Activities = append(report.Activities, s)

		if h := BuildHistogram(id, durations, a.cfg.HistogramBinWidth); h != nil {
			report.Histograms = append(report.Histograms, *h)
		}
		a.logger.Debugf("[Summary] %s: n=%d mean=%s median=%s", id, s.Count, s.Mean, s.Median)
	}

	for _, id := range seen {
		if _, ok := parts[id]; !ok {
			report.EmptyActivities = append(report.EmptyActivities, id)
			a.logger.Warnf("[Summary] %s: no sessions survived cleaning", id)
		}
	}
	sort.Slice(report.EmptyActivities, func(i, j int) bool { return report.EmptyActivities[i] < report.EmptyActivities[j] })

	if report.Total() != sample.Len() {
		return nil, errors.DataIntegrityError("summary",
			fmt.Sprintf("activity counts sum to %d, sample has %d sessions", report.Total(), sample.Len()))
	}

	if a.cfg.IncludeOverall && sample.Len() > 0 {
		// pooled across activities; carries no activity id so it cannot
		// collide with a real one
		overall, err := a.Describe("", session.Durations(sample.Sessions))
		if err != nil {
			return nil, err
		}
		report.Overall = &overall
	}
	return report, nil
}

// Describe computes the descriptive statistics for one activity. The
// standard deviation uses the n-1 denominator and is nil for a single
// observation. Empty input is an EmptySample error.
func (a *Aggregator) Describe(id core.ActivityID, durations []time.Duration) (summary.ActivitySummary, error) {
	out := summary.ActivitySummary{Activity: id, Count: len(durations)}
	if len(durations) == 0 {
		return out, errors.EmptySample(string(id))
	}

	x := sortedNanos(durations)
	data := stats.Float64Data(x)

	mean, err := stats.Mean(data)
	if err != nil {
		return out, errors.Wrapf(err, "mean of %s", id)
	}
	min, err := stats.Min(data)
	if err != nil {
		return out, errors.Wrapf(err, "min of %s", id)
	}
	max, err := stats.Max(data)
	if err != nil {
		return out, errors.Wrapf(err, "max of %s", id)
	}
	median, err := stats.Median(data)
	if err != nil {
		return out, errors.Wrapf(err, "median of %s", id)
	}

	out.Mean = nanos(mean)
	out.Min = nanos(min)
	out.Max = nanos(max)
	out.Median = nanos(median)

	if len(x) >= 2 {
		sd := nanos(stat.StdDev(x, nil))
		out.SD = &sd
	}

	q25 := quantileSorted(x, 0.25)
	q75 := quantileSorted(x, 0.75)
	out.P25 = nanos(q25)
	out.P75 = nanos(q75)
	out.P90 = nanos(quantileSorted(x, 0.90))

	profile := a.analyzer.Analyze(x, q25, q75)
	out.Box = summary.BoxPlot{
		IQR:          nanos(profile.IQR),
		LowerWhisker: nanos(profile.LowerWhisker),
		UpperWhisker: nanos(profile.UpperWhisker),
		Outliers:     profile.Outliers,
	}
	out.Shape = summary.Shape{Skewness: profile.Skewness, Kurtosis: profile.Kurtosis}
	return out, nil
}

// sortedNanos converts durations to ascending float64 nanoseconds.
// Durations below ~104 days are exact in float64.
func sortedNanos(durations []time.Duration) []float64 {
	x := make([]float64, len(durations))
	for i, d := range durations {
		x[i] = float64(d)
	}
	sort.Float64s(x)
	return x
}

func nanos(v float64) time.Duration {
	return time.Duration(math.Round(v))
}
