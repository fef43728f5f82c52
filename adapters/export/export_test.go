package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"assesstime/domain/core"
	"assesstime/domain/run"
	"assesstime/domain/session"
	"assesstime/domain/stage"
	"assesstime/domain/summary"
	"assesstime/internal/testkit"
)

func fixtureResult() *run.Result {
	sd := 7 * time.Minute
	skew := 0.5
	s := session.Session{
		Key:        core.SessionKey{Respondent: "A"},
		Respondent: "A",
		Activity:   "MS-DDM",
		Start:      testkit.Day(1, 9, 0, 0),
		End:        testkit.Day(1, 9, 45, 0),
		HasBegin:   true,
		HasEnd:     true,
		Completed:  true,
		Duration:   45 * time.Minute,
	}
	var funnel stage.FunnelReport
	funnel.Add(stage.StageResult{Name: stage.StageSessions, Enabled: true, Remaining: 2})
	funnel.Add(stage.StageResult{Name: stage.StagePause, Enabled: true, Removed: 1, Remaining: 1})

	manifest := run.NewRunManifest(core.NewRunID(), "ms-ddm", core.ConfigHash("cfg"),
		map[string]core.InputHash{"log.csv": "abc"}, "test")
	manifest.Complete(4, 0, funnel)

	return &run.Result{
		Manifest: manifest,
		Funnel:   funnel,
		Sample:   session.Sample{Sessions: []session.Session{s}},
		Exclusions: []session.Exclusion{{
			Session: session.Session{Respondent: "B", Activity: "MS-DDM"},
			Stage:   stage.StagePause,
			Reason:  "session contains a pause action",
		}},
		Summary: summary.Report{
			Activities: []summary.ActivitySummary{
				{Activity: "MS-DDM", Count: 1, Mean: 45 * time.Minute, Min: 45 * time.Minute, Max: 45 * time.Minute,
					Median: 45 * time.Minute, P25: 45 * time.Minute, P75: 45 * time.Minute, P90: 45 * time.Minute},
				{Activity: "MS-HS", Count: 3, Mean: 30 * time.Minute, SD: &sd, Shape: summary.Shape{Skewness: &skew}},
			},
			EmptyActivities: []core.ActivityID{"COT-HS"},
			Histograms: []summary.Histogram{{
				Activity: "MS-DDM",
				BinWidth: 5 * time.Minute,
				Bins:     []summary.Bin{{Start: 45 * time.Minute, End: 50 * time.Minute, Count: 1}},
			}},
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestSummaryTableMarkers(t *testing.T) {
	table := SummaryTable(fixtureResult().Summary)

	require.Len(t, table.Rows, 3)
	single := table.Rows[0]
	assert.Equal(t, "MS-DDM", single[0])
	assert.Equal(t, "45.00", single[2])
	assert.Equal(t, Undefined, single[3])
	assert.Equal(t, Undefined, single[14])

	multi := table.Rows[1]
	assert.Equal(t, "7.00", multi[3])
	assert.Equal(t, "0.5000", multi[14])

	empty := table.Rows[2]
	assert.Equal(t, []string{"COT-HS", "0"}, empty[:2])
	for _, cell := range empty[2:] {
		assert.Equal(t, NoData, cell)
	}
	assert.Len(t, empty, len(table.Headers))
}

func TestWriteResult(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w := NewWriter(Options{Dir: dir, Workbook: true})
	res := fixtureResult()

	paths, err := w.WriteResult(context.Background(), res)
	require.NoError(t, err)

	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	assert.Equal(t, []string{SummaryFile, SampleFile, FunnelFile, ExclusionsFile, HistogramFile, WorkbookFile, ManifestFile}, names)

	funnel := readCSV(t, filepath.Join(dir, FunnelFile))
	assert.Equal(t, [][]string{
		{"stage", "enabled", "removed", "remaining"},
		{"sessions", "true", "0", "2"},
		{"pause_exclusion", "true", "1", "1"},
	}, funnel)

	sample := readCSV(t, filepath.Join(dir, SampleFile))
	require.Len(t, sample, 2)
	assert.Equal(t, []string{"MS-DDM", "A", "2025-04-01T09:00:00Z", "2025-04-01T09:45:00Z", "45m0s", "45.00"}, sample[1])

	exclusions := readCSV(t, filepath.Join(dir, ExclusionsFile))
	assert.Equal(t, []string{"B", "MS-DDM", "pause_exclusion", "session contains a pause action"}, exclusions[1])

	histogram := readCSV(t, filepath.Join(dir, HistogramFile))
	assert.Equal(t, []string{"MS-DDM", "45.00", "50.00", "1"}, histogram[1])

	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	require.NoError(t, err)
	var manifest run.RunManifest
	require.NoError(t, json.Unmarshal(data, &manifest))
	assert.Equal(t, res.Manifest.RunID, manifest.RunID)
	assert.Equal(t, res.Manifest.Fingerprint.Fingerprint, manifest.Fingerprint.Fingerprint)
	assert.Equal(t, 1, manifest.SampleSize)

	wb, err := excelize.OpenFile(filepath.Join(dir, WorkbookFile))
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, []string{"Summary", "Sample", "Funnel"}, wb.GetSheetList())
	rows, err := wb.GetRows("Funnel")
	require.NoError(t, err)
	assert.Equal(t, []string{"pause_exclusion", "true", "1", "1"}, rows[2])
}

func TestWriteResultCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewWriter(Options{Dir: t.TempDir()}).WriteResult(ctx, fixtureResult())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteResultOverall(t *testing.T) {
	dir := t.TempDir()
	res := fixtureResult()
	// an activity literally named ALL must stay distinguishable from the pooled row
	res.Summary.Activities[1].Activity = "ALL"
	res.Summary.Overall = &summary.ActivitySummary{Count: 4, Mean: 33 * time.Minute}

	paths, err := NewWriter(Options{Dir: dir, Workbook: true}).WriteResult(context.Background(), res)
	require.NoError(t, err)
	assert.Contains(t, paths, filepath.Join(dir, OverallFile))

	summaryRows := readCSV(t, filepath.Join(dir, SummaryFile))
	require.Len(t, summaryRows, 4)
	assert.Equal(t, []string{"MS-DDM", "ALL", "COT-HS"}, []string{summaryRows[1][0], summaryRows[2][0], summaryRows[3][0]})

	overall := readCSV(t, filepath.Join(dir, OverallFile))
	require.Len(t, overall, 2)
	assert.Equal(t, "count", overall[0][0])
	assert.NotContains(t, overall[0], "activity_id")
	assert.Equal(t, []string{"4", "33.00"}, overall[1][:2])

	wb, err := excelize.OpenFile(filepath.Join(dir, WorkbookFile))
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, []string{"Summary", "Sample", "Funnel", "Overall"}, wb.GetSheetList())
}

func TestOverallTableWithoutPooledSummary(t *testing.T) {
	table := OverallTable(fixtureResult().Summary)
	assert.Empty(t, table.Rows)
	assert.Len(t, table.Headers, len(summaryHeaders)-1)
}
