package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

func snapshot(name string, weighted bool) models.AlgorithmSnapshot {
	s := models.AlgorithmSnapshot{
		Name:              name,
		Current:           models.ConfusionCounts{TP: 1, TN: 2},
		Cumulative:        models.ConfusionCounts{TP: 3, TN: 4, FP: 1, FN: 2, B1: 5},
		CurrentMetrics:    models.UndefinedMetrics(),
		CumulativeMetrics: models.DerivedMetrics{TPR: 0.6, TNR: 0.8, F1: 0.6667},
	}
	if weighted {
		s.Weighted = &models.WeightedSnapshot{
			Correcting: 1,
			Cumulative: models.WeightedCounts{TP: 0.5, TN: 0.25},
		}
	}
	return s
}

func windowReport(mode models.Mode) *models.WindowReport {
	return &models.WindowReport{
		RunID:       "run-1",
		WindowID:    2,
		Mode:        mode,
		LinesRead:   7,
		UniqueIPs:   3,
		IPsByLabel:  map[string]int{"Normal": 2, "Botnet": 1},
		LabelCounts: map[string]int{"Normal": 5, "Botnet": 2},
		Algorithms:  []models.AlgorithmSnapshot{snapshot("Det", mode == models.ModeWeight)},
	}
}

func runResult(mode models.Mode) *models.RunResult {
	return &models.RunResult{
		Run:        models.Run{ID: "run-1", Mode: mode, Status: models.RunStatusCompleted},
		Windows:    2,
		LinesRead:  10,
		Duration:   3 * time.Second,
		RankedBy:   "f1",
		Algorithms: []models.AlgorithmSnapshot{snapshot("Det", mode == models.ModeWeight), snapshot("AllPositive", mode == models.ModeWeight)},
		Ranking: []models.AlgorithmRanking{
			{Rank: 1, Name: "Det", Score: 0.6667, BeatsBaseline: true, Trend: models.TrendStable},
			{Rank: 2, Name: "AllPositive", Baseline: true, Score: 0.5, Trend: models.TrendUnknown},
		},
	}
}

func TestFormats(t *testing.T) {
	assert.Equal(t, []string{"csv", "json", "text", "yaml"}, Formats())

	_, err := New("xml", Options{})
	assert.Error(t, err)

	assert.Panics(t, func() { Register("text", NewTextWriter) })
}

func TestTextWriter_Window(t *testing.T) {
	tests := []struct {
		name        string
		mode        models.Mode
		showCurrent bool
		verbosity   int
		contains    []string
		excludes    []string
	}{
		{
			name:        "time with current",
			mode:        models.ModeTime,
			showCurrent: true,
			verbosity:   1,
			contains:    []string{"Time Window Number: 2", "+ Current +", "+ Cumulative +", "Amount of labels: {Botnet: 2, Normal: 5}"},
		},
		{
			name:      "time without current",
			mode:      models.ModeTime,
			verbosity: 1,
			contains:  []string{"+ Cumulative +"},
			excludes:  []string{"+ Current +"},
		},
		{
			name:        "weight",
			mode:        models.ModeWeight,
			showCurrent: true,
			verbosity:   1,
			contains:    []string{"+ Current Errors +", "+ Current Weighted +", "+ Cumulative Weighted +", "t-TP=0.5000"},
		},
		{
			name:      "quiet",
			mode:      models.ModeTime,
			verbosity: 0,
			excludes:  []string{"Time Window Number"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewTextWriter(Options{Out: &buf, ShowCurrent: tt.showCurrent, Verbosity: tt.verbosity})
			require.NoError(t, err)

			require.NoError(t, w.WriteWindow(windowReport(tt.mode)))
			for _, s := range tt.contains {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

func TestTextWriter_Final(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewTextWriter(Options{Out: &buf})
	require.NoError(t, err)

	require.NoError(t, w.WriteFinal(runResult(models.ModeWeight)))
	out := buf.String()

	assert.Contains(t, out, "[+] Final Error Reporting [+]")
	assert.Contains(t, out, "Cumulative Common errors")
	assert.Contains(t, out, "Weighted errors")
	assert.Contains(t, out, "Ranking by f1")
	assert.Contains(t, out, "(baseline)")
	assert.Contains(t, out, "Processing lasted 3 seconds")

	line := countsLine("Det", models.ConfusionCounts{TP: 3, TN: 4}, models.DerivedMetrics{TPR: 0.6})
	assert.True(t, strings.HasPrefix(line, "Det"+strings.Repeat(" ", nameWidth-3)+" TP=       3, TN=       4"))
	assert.Contains(t, line, "TPR=0.600")
}

func TestCSVWriter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	w, err := NewCSVWriter(Options{CSVFile: path, CSVAppend: true})
	require.NoError(t, err)

	require.NoError(t, w.WriteFinal(runResult(models.ModeTime)))
	require.NoError(t, w.WriteFinal(runResult(models.ModeWeight)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 6)

	assert.True(t, strings.HasPrefix(lines[0], "Name,TP,TN,FP,FN,TPR"))
	assert.Equal(t, "Det,3,4,1,2,0.600,0.800,0.000,0.000,0.0000,0.0000,0.000,0.6667,0.0000,0.0000,5,0,0,0,0", lines[1])
	assert.True(t, strings.HasPrefix(lines[3], "Name,t_TP,t_TN"))
	assert.True(t, strings.HasPrefix(lines[4], "Det,0.5000,0.2500"))

	w, err = NewCSVWriter(Options{CSVFile: path})
	require.NoError(t, err)
	require.NoError(t, w.WriteFinal(runResult(models.ModeTime)))

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 3)
}

func TestJSONWriter(t *testing.T) {
	dir := t.TempDir()
	w, err := NewJSONWriter(Options{RunID: "run-1", OutputDir: dir})
	require.NoError(t, err)

	require.NoError(t, w.WriteWindow(windowReport(models.ModeTime)))
	require.NoError(t, w.WriteWindow(windowReport(models.ModeTime)))
	require.NoError(t, w.WriteFinal(runResult(models.ModeTime)))
	require.NoError(t, w.Close())

	lines, err := os.ReadFile(filepath.Join(dir, "run-1.windows.jsonl"))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(lines)), "\n"), 2)

	data, err := os.ReadFile(filepath.Join(dir, "run-1.json"))
	require.NoError(t, err)
	var got models.RunResult
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "run-1", got.Run.ID)
	assert.Len(t, got.Ranking, 2)

	_, err = NewJSONWriter(Options{})
	assert.Error(t, err)
}

func TestYAMLWriter(t *testing.T) {
	dir := t.TempDir()
	w, err := NewYAMLWriter(Options{RunID: "run-1", OutputDir: dir})
	require.NoError(t, err)
	require.NoError(t, w.WriteFinal(runResult(models.ModeTime)))

	data, err := os.ReadFile(filepath.Join(dir, "run-1.yaml"))
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "f1", doc["ranked_by"])
	assert.Equal(t, 10, doc["lines_read"])
}

type failingWriter struct{ err error }

func (f failingWriter) WriteWindow(*models.WindowReport) error { return f.err }
func (f failingWriter) WriteFinal(*models.RunResult) error     { return f.err }
func (f failingWriter) Close() error                          { return nil }

func TestMulti(t *testing.T) {
	errBoom := errors.New("boom")
	var buf bytes.Buffer
	text, _ := NewTextWriter(Options{Out: &buf, Verbosity: 1})

	m := Multi{text, failingWriter{err: errBoom}}
	err := m.WriteWindow(windowReport(models.ModeTime))
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, buf.String(), "Time Window Number")

	multi, err := Create([]string{"text", "csv"}, Options{Out: &buf})
	require.NoError(t, err)
	assert.Len(t, multi, 2)

	_, err = Create([]string{"text", "pdf"}, Options{})
	assert.Error(t, err)
}

func TestTee(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "all-info.txt")

	w, closer, err := Tee(&buf, path)
	require.NoError(t, err)
	_, err = w.Write([]byte("hello\n"))
	require.NoError(t, err)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
	assert.Equal(t, "hello\n", buf.String())
}
