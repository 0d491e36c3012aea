package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/botnet-detectors-comparer/pkg/database"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testRun(id string, started time.Time) *models.Run {
	return &models.Run{
		ID:          id,
		InputFile:   "capture.binetflow",
		Format:      "netflow",
		Mode:        models.ModeTime,
		WindowWidth: 300 * time.Second,
		GroundTruth: models.GroundTruthLabels{Normal: "Normal", Botnet: "Botnet", Background: "Background"},
		Algorithms:  []string{"Det", models.BaselineAllPositive},
		Status:      models.RunStatusRunning,
		StartedAt:   started,
	}
}

func TestStore_RunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	start := time.Date(2011, 8, 10, 9, 0, 0, 0, time.UTC)

	run := testRun("run-1", start)
	require.NoError(t, s.CreateRun(ctx, run))

	report := &models.WindowReport{
		RunID:       "run-1",
		WindowID:    1,
		Mode:        models.ModeTime,
		Start:       start,
		End:         start.Add(time.Minute),
		LinesRead:   4,
		UniqueIPs:   2,
		Population:  models.Population{Normal: 1, Botnet: 1},
		IPsByLabel:  map[string]int{"Normal": 1, "Botnet": 1},
		LabelCounts: map[string]int{"Normal": 3, "Botnet": 1},
		Algorithms: []models.AlgorithmSnapshot{
			{Name: "Det", Cumulative: models.ConfusionCounts{TP: 1, TN: 1}},
		},
	}
	require.NoError(t, s.SaveWindow(ctx, report))

	finished := start.Add(time.Hour)
	run.FinishedAt = &finished
	result := &models.RunResult{
		Run:       *run,
		Windows:   1,
		LinesRead: 4,
		Duration:  2 * time.Second,
		RankedBy:  "f1",
		Algorithms: []models.AlgorithmSnapshot{
			{Name: "Det", Cumulative: models.ConfusionCounts{TP: 1, TN: 1}, CumulativeMetrics: models.DerivedMetrics{F1: 1}},
			{Name: models.BaselineAllPositive, Baseline: true, CumulativeMetrics: models.DerivedMetrics{F1: 0.5}},
		},
		Ranking: []models.AlgorithmRanking{
			{Rank: 1, Name: "Det", Score: 1, BeatsBaseline: true, Trend: models.TrendStable},
			{Rank: 2, Name: models.BaselineAllPositive, Baseline: true, Score: 0.5, Trend: models.TrendStable},
		},
	}
	require.NoError(t, s.CompleteRun(ctx, result))

	got, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, got.Status)
	assert.Equal(t, 1, got.Windows)
	assert.Equal(t, 4, got.LinesRead)
	assert.Equal(t, 2*time.Second, got.Duration)
	assert.Equal(t, "Background", got.GroundTruth.Background)
	assert.Equal(t, []string{"Det", models.BaselineAllPositive}, got.Algorithms)
	require.NotNil(t, got.FinishedAt)

	windows, err := s.ListWindows(ctx, "run-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, 3, windows[0].LabelCounts["Normal"])
	assert.Equal(t, int64(1), windows[0].Algorithms[0].Cumulative.TP)

	results, err := s.GetResults(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Det", results[0].Name)
	assert.True(t, results[0].BeatsBaseline)
	assert.True(t, results[1].Baseline)
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, err := s.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, database.ErrNotFound)

	err = s.FailRun(ctx, "missing", "boom", time.Now())
	assert.ErrorIs(t, err, database.ErrNotFound)

	err = s.CompleteRun(ctx, &models.RunResult{Run: models.Run{ID: "missing"}})
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestStore_FailRun(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	require.NoError(t, s.CreateRun(ctx, testRun("run-1", time.Now())))
	require.NoError(t, s.FailRun(ctx, "run-1", "malformed input at line 3", time.Now()))

	got, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, got.Status)
	assert.Equal(t, "malformed input at line 3", got.Error)
}

func TestStore_ListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.CreateRun(ctx, testRun(id, base.Add(time.Duration(i)*time.Hour))))
	}

	runs, err := s.ListRuns(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)

	runs, err = s.ListRuns(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "a", runs[0].ID)
}

func TestStore_Users(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	user, err := s.CreateUser(ctx, "analyst", "hash")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	_, err = s.CreateUser(ctx, "analyst", "other")
	assert.ErrorIs(t, err, database.ErrUserExists)

	got, err := s.GetUserByUsername(ctx, "analyst")
	require.NoError(t, err)
	assert.Equal(t, "hash", got.PasswordHash)

	_, err = s.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, database.ErrUserNotFound)
}

func TestStore_SaveEventAndHealth(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	event := models.NewEvent(models.EventTypeRunStarted, "run-1", "started").WithData(map[string]int{"windows": 0})
	require.NoError(t, s.SaveEvent(ctx, event))
	require.NoError(t, s.SaveEvent(ctx, models.NewEvent(models.EventTypeRunStarted, "run-2", "other run")))
	assert.NoError(t, s.HealthCheck(ctx))

	events, err := s.ListEvents(ctx, "run-1", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event.ID, events[0].ID)
	assert.Equal(t, models.EventTypeRunStarted, events[0].Type)
	assert.Equal(t, map[string]interface{}{"windows": float64(0)}, events[0].Data)

	events, err = s.ListEvents(ctx, "missing", 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}
