package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/botnet-detectors-comparer/internal/auth"
	"github.com/OldStager01/botnet-detectors-comparer/internal/metrics"
	"github.com/OldStager01/botnet-detectors-comparer/internal/window"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/config"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/database/sqlite"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

type fakeRuns struct {
	events chan *models.Event
}

func (f *fakeRuns) ActiveRuns() []string { return []string{"live-1"} }

func (f *fakeRuns) RunStats(runID string) (window.Stats, error) {
	return window.Stats{State: window.StateOpen, WindowID: 2, LinesRead: 40}, nil
}

func (f *fakeRuns) SubscribeAllEvents() <-chan *models.Event { return f.events }

type testEnv struct {
	server *Server
	store  *sqlite.Store
	token  string
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)
	_, err = store.CreateUser(ctx, "analyst", hash)
	require.NoError(t, err)

	seedRun(t, store)

	cfg := config.Default()
	cfg.API.JWTSecret = "test-secret-for-api"
	cfg.API.RateLimit = 0

	server := NewServer(cfg, store, &fakeRuns{events: make(chan *models.Event)}, metrics.New())
	t.Cleanup(func() { _ = server.Shutdown(context.Background()) })

	token, err := server.AuthService().GenerateToken(1, "analyst")
	require.NoError(t, err)

	return &testEnv{server: server, store: store, token: token}
}

func seedRun(t *testing.T, store *sqlite.Store) {
	t.Helper()
	ctx := context.Background()
	start := time.Date(2011, 8, 10, 9, 0, 0, 0, time.UTC)

	run := &models.Run{
		ID:          "run-1",
		Mode:        models.ModeTime,
		WindowWidth: time.Minute,
		Algorithms:  []string{"Det", models.BaselineAllPositive},
		Status:      models.RunStatusRunning,
		StartedAt:   start,
	}
	require.NoError(t, store.CreateRun(ctx, run))

	for i, f1 := range []float64{0.5, 0.75} {
		require.NoError(t, store.SaveWindow(ctx, &models.WindowReport{
			RunID:    "run-1",
			WindowID: i + 1,
			Mode:     models.ModeTime,
			Start:    start.Add(time.Duration(i) * time.Minute),
			Algorithms: []models.AlgorithmSnapshot{
				{Name: "Det", CumulativeMetrics: models.DerivedMetrics{F1: f1}},
				{Name: models.BaselineAllPositive, Baseline: true, CumulativeMetrics: models.DerivedMetrics{F1: 0.4}},
			},
		}))
	}

	require.NoError(t, store.SaveEvent(ctx, models.NewEvent(models.EventTypeRunStarted, "run-1", "Run started")))

	require.NoError(t, store.CompleteRun(ctx, &models.RunResult{
		Run:      *run,
		Windows:  2,
		RankedBy: "f1",
		Algorithms: []models.AlgorithmSnapshot{
			{Name: "Det", CumulativeMetrics: models.DerivedMetrics{F1: 0.75}},
			{Name: models.BaselineAllPositive, Baseline: true, CumulativeMetrics: models.DerivedMetrics{F1: 0.4}},
		},
		Ranking: []models.AlgorithmRanking{
			{Rank: 1, Name: "Det", Score: 0.75, BeatsBaseline: true},
			{Rank: 2, Name: models.BaselineAllPositive, Baseline: true, Score: 0.4},
		},
	}))
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	w := httptest.NewRecorder()
	e.server.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestServer_PublicRoutes(t *testing.T) {
	env := setup(t)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"health", "/health", http.StatusOK},
		{"ready", "/health/ready", http.StatusOK},
		{"live", "/health/live", http.StatusOK},
		{"metrics", "/metrics", http.StatusOK},
		{"swagger doc", "/swagger/doc.json", http.StatusOK},
		{"runs need auth", "/runs", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, tt.path, nil, false)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestServer_Login(t *testing.T) {
	env := setup(t)

	tests := []struct {
		name   string
		body   interface{}
		status int
	}{
		{"valid", map[string]string{"username": "analyst", "password": "s3cret"}, http.StatusOK},
		{"wrong password", map[string]string{"username": "analyst", "password": "nope"}, http.StatusUnauthorized},
		{"unknown user", map[string]string{"username": "nobody", "password": "s3cret"}, http.StatusUnauthorized},
		{"missing fields", map[string]string{"username": "analyst"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/auth/login", tt.body, false)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestServer_LoginTokenWorks(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "analyst", "password": "s3cret"}, false)
	require.Equal(t, http.StatusOK, w.Code)
	env.token = decode(t, w)["token"].(string)

	w = env.do(t, http.MethodGet, "/runs", nil, true)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_Runs(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodGet, "/runs", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = env.do(t, http.MethodGet, "/runs/run-1", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "completed", decode(t, w)["status"])

	w = env.do(t, http.MethodGet, "/runs/missing", nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/runs/run-1/windows?limit=1", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = env.do(t, http.MethodGet, "/runs/run-1/results", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["count"])

	w = env.do(t, http.MethodGet, "/runs/run-1/events", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = env.do(t, http.MethodGet, "/runs/missing/events", nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/runs/active", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])
}

func TestServer_Series(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodGet, "/runs/run-1/series?metric=f1", nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Metric string               `json:"metric"`
		Scope  string               `json:"scope"`
		Data   map[string][]float64 `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "f1", body.Metric)
	assert.Equal(t, "cumulative", body.Scope)
	assert.Equal(t, []float64{0.5, 0.75}, body.Data["Det"])
	assert.Equal(t, []float64{0.4, 0.4}, body.Data[models.BaselineAllPositive])

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"unknown metric", "/runs/run-1/series?metric=auc", http.StatusBadRequest},
		{"unknown scope", "/runs/run-1/series?scope=total", http.StatusBadRequest},
		{"unknown run", "/runs/missing/series", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, tt.path, nil, true)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
