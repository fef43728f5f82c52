// Package metrics publishes funnel and ingestion counters for batch runs as a
// Prometheus textfile, for the node exporter textfile collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"assesstime/domain/core"
	"assesstime/domain/run"
	"assesstime/internal/errors"
	"assesstime/ports"
)

// completionObjectives are the quantile objectives for completion times.
func completionObjectives() map[float64]float64 {
	return map[float64]float64{
		0.25: 0.010,
		0.5:  0.010,
		0.75: 0.010,
		0.9:  0.010,
	}
}

// Textfile collects one run's metrics into a private registry and writes
// them to a file.
type Textfile struct {
	path     string
	registry *prometheus.Registry

	rowsRead         *prometheus.GaugeVec
	rowsDropped      *prometheus.GaugeVec
	stageRemoved     *prometheus.GaugeVec
	stageRemaining   *prometheus.GaugeVec
	sampleSessions   *prometheus.GaugeVec
	completionMinute *prometheus.SummaryVec
	lastRun          *prometheus.GaugeVec
}

var _ ports.MetricsPort = (*Textfile)(nil)

// NewTextfile creates a collector writing to path.
func NewTextfile(path string) *Textfile {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Textfile{
		path:     path,
		registry: reg,

		rowsRead: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "assesstime_ingest_rows_read",
			Help: "Rows read from all input files",
		}, []string{"variant"}),
		rowsDropped: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "assesstime_ingest_rows_dropped",
			Help: "Rows dropped because they could not be parsed",
		}, []string{"variant"}),
		stageRemoved: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "assesstime_funnel_removed",
			Help: "Sessions removed by each funnel stage",
		}, []string{"variant", "stage"}),
		stageRemaining: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "assesstime_funnel_remaining",
			Help: "Sessions remaining after each funnel stage",
		}, []string{"variant", "stage"}),
		sampleSessions: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "assesstime_sample_sessions",
			Help: "Analytic sample size per activity",
		}, []string{"variant", "activity"}),
		completionMinute: factory.NewSummaryVec(prometheus.SummaryOpts{
			Name:       "assesstime_completion_minutes",
			Help:       "Completion time of analytic-sample sessions (in minutes)",
			Objectives: completionObjectives(),
		}, []string{"variant", "activity"}),
		lastRun: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "assesstime_last_run_timestamp_seconds",
			Help: "Unix time the run manifest was created",
		}, []string{"variant"}),
	}
}

// Observe records result and rewrites the textfile.
func (t *Textfile) Observe(result *run.Result) error {
	if result == nil {
		return errors.InvalidInput("nil result")
	}
	variant := ""
	if result.Manifest != nil {
		variant = result.Manifest.Variant
		t.lastRun.WithLabelValues(variant).Set(float64(result.Manifest.CreatedAt.Time().Unix()))
	}

	t.rowsRead.WithLabelValues(variant).Set(float64(result.Ingest.RowsRead))
	t.rowsDropped.WithLabelValues(variant).Set(float64(result.Ingest.RowsDropped))

	for _, s := range result.Funnel.Steps {
		t.stageRemoved.WithLabelValues(variant, string(s.Name)).Set(float64(s.Removed))
		t.stageRemaining.WithLabelValues(variant, string(s.Name)).Set(float64(s.Remaining))
	}

	for _, a := range result.Summary.Activities {
		t.sampleSessions.WithLabelValues(variant, string(a.Activity)).Set(float64(a.Count))
	}
	for _, s := range result.Sample.Sessions {
		t.completionMinute.WithLabelValues(variant, string(s.Activity)).Observe(core.Minutes(s.Duration))
	}

	if err := prometheus.WriteToTextfile(t.path, t.registry); err != nil {
		return errors.Wrapf(err, "write metrics to %s", t.path)
	}
	return nil
}
