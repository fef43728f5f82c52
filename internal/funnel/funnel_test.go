package funnel

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assesstime/domain/core"
	"assesstime/domain/stage"
	"assesstime/internal/config"
	"assesstime/internal/testkit"
)

func defaultFunnel() config.FunnelConfig {
	return config.Default().Funnel
}

func step(t *testing.T, out *Outcome, name stage.StageName) stage.StageResult {
	t.Helper()
	s, ok := out.Report.Step(name)
	require.True(t, ok, "missing stage %s", name)
	return s
}

func TestSingleCompleteSessionSurvives(t *testing.T) {
	b := testkit.NewLogBuilder("log.csv").
		Session("A", "MS-DDM", testkit.Day(1, 9, 0, 0), 45*time.Minute)

	out := New(defaultFunnel(), nil).Run(b.Records())

	require.Equal(t, 1, out.Sample.Len())
	got := out.Sample.Sessions[0]
	assert.Equal(t, core.RespondentID("A"), got.Respondent)
	assert.Equal(t, core.ActivityID("MS-DDM"), got.Activity)
	assert.Equal(t, 45*time.Minute, got.Duration)
	assert.Empty(t, out.Exclusions)
	assert.Equal(t, 1, out.Report.Initial())
	assert.Equal(t, 1, out.Report.Final())
}

func TestPauseExcludedAtFirstStage(t *testing.T) {
	b := testkit.NewLogBuilder("log.csv").
		Action("A", "MS-DDM", testkit.BeginLabel("MS-DDM"), testkit.Day(1, 9, 0, 0)).
		Action("A", "MS-DDM", testkit.PauseLabel, testkit.Day(1, 9, 10, 0)).
		Action("A", "MS-DDM", testkit.EndLabel("MS-DDM"), testkit.Day(1, 9, 40, 0))

	out := New(defaultFunnel(), nil).Run(b.Records())

	assert.Zero(t, out.Sample.Len())
	pause := step(t, out, stage.StagePause)
	assert.True(t, pause.Enabled)
	assert.Equal(t, 1, pause.Removed)
	assert.Equal(t, map[string]int{ReasonPause: 1}, pause.SkipsByReason)
	require.Len(t, out.Exclusions, 1)
	assert.Equal(t, stage.StagePause, out.Exclusions[0].Stage)
}

func TestPauseMatching(t *testing.T) {
	tests := []struct {
		name      string
		label     string
		matchCase bool
		excluded  bool
	}{
		{"mixed case insensitive", "PAUSE requested", false, true},
		{"substring", "Activity paused by proctor", false, true},
		{"case sensitive miss", "Pause activity", true, false},
		{"case sensitive hit", "pause activity", true, true},
		{"unrelated", "Resume activity", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultFunnel()
			cfg.PauseMatchCase = tt.matchCase
			b := testkit.NewLogBuilder("log.csv").
				Action("A", "X", testkit.BeginLabel("X"), testkit.Day(1, 9, 0, 0)).
				Action("A", "X", tt.label, testkit.Day(1, 9, 5, 0)).
				Action("A", "X", testkit.EndLabel("X"), testkit.Day(1, 9, 30, 0))

			out := New(cfg, nil).Run(b.Records())
			assert.Equal(t, tt.excluded, out.Sample.Len() == 0)
		})
	}
}

func TestPauseFilterDisabled(t *testing.T) {
	cfg := defaultFunnel()
	cfg.FilterPauses = false
	b := testkit.NewLogBuilder("log.csv").
		Action("A", "X", testkit.BeginLabel("X"), testkit.Day(1, 9, 0, 0)).
		Action("A", "X", testkit.PauseLabel, testkit.Day(1, 9, 5, 0)).
		Action("A", "X", testkit.EndLabel("X"), testkit.Day(1, 9, 30, 0))

	out := New(cfg, nil).Run(b.Records())

	assert.Equal(t, 1, out.Sample.Len())
	pause := step(t, out, stage.StagePause)
	assert.False(t, pause.Enabled)
	assert.Zero(t, pause.Removed)
	assert.Equal(t, 1, pause.Remaining)
}

func TestBeginOnlyExcludedAtCompletion(t *testing.T) {
	b := testkit.NewLogBuilder("log.csv").
		Action("A", "MS-DDM", testkit.BeginLabel("MS-DDM"), testkit.Day(1, 9, 0, 0)).
		Action("A", "MS-DDM", "Answer item", testkit.Day(1, 9, 3, 0))

	out := New(defaultFunnel(), nil).Run(b.Records())

	assert.Zero(t, out.Sample.Len())
	completion := step(t, out, stage.StageCompletion)
	assert.Equal(t, 1, completion.Removed)
	assert.Equal(t, map[string]int{ReasonNoCompletion: 1}, completion.SkipsByReason)
}

func TestCompletionLabel(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		mode     config.MatchMode
		logged   string
		retained bool
	}{
		{"exact hit", "End activity MS-DDM", config.MatchExact, "End activity MS-DDM", true},
		{"exact miss on case", "End activity MS-DDM", config.MatchExact, "End activity ms-ddm", false},
		{"contains folds case", "end activity", config.MatchContains, "End activity MS-DDM", true},
		{"contains miss", "Submit", config.MatchContains, "End activity MS-DDM", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultFunnel()
			cfg.CompleteActionLabel = tt.label
			cfg.CompleteMatch = tt.mode
			b := testkit.NewLogBuilder("log.csv").
				Action("A", "MS-DDM", testkit.BeginLabel("MS-DDM"), testkit.Day(1, 9, 0, 0)).
				Action("A", "MS-DDM", tt.logged, testkit.Day(1, 9, 30, 0))

			out := New(cfg, nil).Run(b.Records())
			assert.Equal(t, tt.retained, out.Sample.Len() == 1)
		})
	}
}

func TestCompletedWithoutBeginMarker(t *testing.T) {
	cfg := defaultFunnel()
	cfg.CompleteActionLabel = "Submit"
	b := testkit.NewLogBuilder("log.csv").
		Action("A", "X", "Answer item", testkit.Day(1, 9, 0, 0)).
		Action("A", "X", "Submit", testkit.Day(1, 9, 20, 0)).
		Action("A", "X", testkit.EndLabel("X"), testkit.Day(1, 9, 21, 0))

	out := New(cfg, nil).Run(b.Records())

	completion := step(t, out, stage.StageCompletion)
	assert.Equal(t, map[string]int{ReasonNoBegin: 1}, completion.SkipsByReason)
}

func TestMultipleMarkersCollapseToWidestSpan(t *testing.T) {
	b := testkit.NewLogBuilder("log.csv").
		Session("A", "X", testkit.Day(1, 9, 0, 0), 10*time.Minute).
		Session("A", "X", testkit.Day(1, 9, 30, 0), 20*time.Minute)

	out := New(defaultFunnel(), nil).Run(b.Records())

	require.Equal(t, 1, out.Sample.Len())
	assert.Equal(t, 50*time.Minute, out.Sample.Sessions[0].Duration)
}

func TestMidnightCrossing(t *testing.T) {
	b := testkit.NewLogBuilder("log.csv").
		Session("A", "X", testkit.Day(1, 23, 50, 0), 30*time.Minute)

	t.Run("same day required", func(t *testing.T) {
		cfg := defaultFunnel()
		cfg.SameDayOnly = true
		out := New(cfg, nil).Run(b.Records())

		assert.Zero(t, out.Sample.Len())
		sd := step(t, out, stage.StageSameDay)
		assert.True(t, sd.Enabled)
		assert.Equal(t, map[string]int{ReasonCrossesDay: 1}, sd.SkipsByReason)
	})

	t.Run("same day not required", func(t *testing.T) {
		out := New(defaultFunnel(), nil).Run(b.Records())

		require.Equal(t, 1, out.Sample.Len())
		assert.Equal(t, 30*time.Minute, out.Sample.Sessions[0].Duration)
		assert.False(t, step(t, out, stage.StageSameDay).Enabled)
	})
}

func TestDurationBoundsAreExclusive(t *testing.T) {
	tests := []struct {
		name     string
		d        time.Duration
		retained bool
		reason   string
	}{
		{"exactly min", time.Minute, false, ReasonTooShort},
		{"just above min", 61 * time.Second, true, ""},
		{"zero", 0, false, ReasonTooShort},
		{"just below max", 10*time.Hour - time.Second, true, ""},
		{"exactly max", 10 * time.Hour, false, ReasonTooLong},
		{"forgotten", 30 * time.Hour, false, ReasonTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testkit.NewLogBuilder("log.csv").
				Session("A", "X", testkit.Day(1, 8, 0, 0), tt.d)

			out := New(defaultFunnel(), nil).Run(b.Records())

			assert.Equal(t, tt.retained, out.Sample.Len() == 1)
			if tt.reason != "" {
				bounds := step(t, out, stage.StageDurationBounds)
				assert.Equal(t, map[string]int{tt.reason: 1}, bounds.SkipsByReason)
			}
		})
	}
}

func TestNegativeSpanExcludedAtIntegrity(t *testing.T) {
	b := testkit.NewLogBuilder("log.csv").
		Action("A", "X", testkit.EndLabel("X"), testkit.Day(1, 9, 0, 0)).
		Action("A", "X", testkit.BeginLabel("X"), testkit.Day(1, 9, 30, 0))

	out := New(defaultFunnel(), nil).Run(b.Records())

	assert.Zero(t, out.Sample.Len())
	integrity := step(t, out, stage.StageIntegrity)
	assert.Equal(t, map[string]int{ReasonNegativeSpan: 1}, integrity.SkipsByReason)
	require.Len(t, out.Exclusions, 1)
	assert.Contains(t, out.Exclusions[0].Reason, "precedes begin")
}

func TestGroupBy(t *testing.T) {
	b := testkit.NewLogBuilder("log.csv").
		Session("A", "X", testkit.Day(1, 9, 0, 0), 10*time.Minute).
		Session("A", "Y", testkit.Day(1, 10, 0, 0), 20*time.Minute)

	t.Run("respondent", func(t *testing.T) {
		out := New(defaultFunnel(), nil).Run(b.Records())

		require.Equal(t, 1, out.Sample.Len())
		s := out.Sample.Sessions[0]
		assert.Equal(t, core.ActivityID("X"), s.Activity)
		assert.Equal(t, 80*time.Minute, s.Duration)
		assert.Equal(t, []core.ActivityID{"X"}, out.Activities)
	})

	t.Run("respondent and activity", func(t *testing.T) {
		cfg := defaultFunnel()
		cfg.GroupBy = config.GroupByRespondentActivity
		out := New(cfg, nil).Run(b.Records())

		require.Equal(t, 2, out.Sample.Len())
		assert.Equal(t, 10*time.Minute, out.Sample.Sessions[0].Duration)
		assert.Equal(t, 20*time.Minute, out.Sample.Sessions[1].Duration)
		assert.Equal(t, []core.ActivityID{"X", "Y"}, out.Activities)
	})
}

func TestAllActionsSpan(t *testing.T) {
	cfg := defaultFunnel()
	cfg.SpanMode = config.SpanAllActions
	cfg.CompleteActionLabel = "Submit"
	b := testkit.NewLogBuilder("log.csv").
		Action("A", "X", "Login", testkit.Day(1, 9, 0, 0)).
		Action("A", "X", "Answer item", testkit.Day(1, 9, 10, 0)).
		Action("A", "X", "Submit", testkit.Day(1, 9, 25, 0)).
		Action("B", "X", "Login", testkit.Day(1, 9, 0, 0)).
		Action("B", "X", "Answer item", testkit.Day(1, 9, 10, 0))

	out := New(cfg, nil).Run(b.Records())

	require.Equal(t, 1, out.Sample.Len())
	assert.Equal(t, 25*time.Minute, out.Sample.Sessions[0].Duration)
	assert.Equal(t, map[string]int{ReasonNoCompletion: 1}, step(t, out, stage.StageCompletion).SkipsByReason)
}

func TestActivityWithoutSurvivorsIsReported(t *testing.T) {
	b := testkit.NewLogBuilder("log.csv").
		Session("A", "X", testkit.Day(1, 9, 0, 0), 10*time.Minute).
		Session("B", "Y", testkit.Day(1, 9, 0, 0), 10*time.Second)

	out := New(defaultFunnel(), nil).Run(b.Records())

	assert.Equal(t, []core.ActivityID{"X", "Y"}, out.Activities)
	assert.Equal(t, []core.ActivityID{"X"}, out.Sample.Activities())
}

func TestFunnelCountsAreMonotonic(t *testing.T) {
	cfg := defaultFunnel()
	cfg.SameDayOnly = true
	log := testkit.NewAdministrationGenerator(testkit.DefaultAdministrationConfig()).Generate("admin.csv")

	out := New(cfg, nil).Run(log.Records())

	require.NoError(t, out.Report.Validate())
	require.Len(t, out.Report.Steps, len(stage.Order))
	for i, s := range out.Report.Steps {
		assert.Equal(t, stage.Order[i], s.Name)
	}
	assert.Equal(t, out.Report.Initial()-out.Report.Final(), len(out.Exclusions))
	assert.Equal(t, out.Report.Final(), out.Sample.Len())
	assert.Positive(t, out.Sample.Len())

	for _, s := range out.Sample.Sessions {
		assert.False(t, s.HasPause)
		assert.Greater(t, s.Duration, cfg.MinDuration)
		assert.Less(t, s.Duration, cfg.MaxDuration)
		assert.True(t, SameDay(s))
	}
}

func TestFunnelIsIdempotent(t *testing.T) {
	log := testkit.NewAdministrationGenerator(testkit.DefaultAdministrationConfig()).Generate("admin.csv")
	f := New(defaultFunnel(), nil)

	first := f.Run(log.Records())
	second := f.Run(log.Records())

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("second run differs (-first +second):\n%s", diff)
	}
}
