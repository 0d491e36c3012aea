package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run describes one evaluation pass over an input file.
type Run struct {
	ID          string            `json:"id" yaml:"id"`
	InputFile   string            `json:"input_file" yaml:"input_file"`
	Format      string            `json:"format" yaml:"format"`
	Mode        Mode              `json:"mode" yaml:"mode"`
	WindowWidth time.Duration     `json:"window_width" yaml:"window_width"`
	Alpha       float64           `json:"alpha" yaml:"alpha"`
	GroundTruth GroundTruthLabels `json:"ground_truth" yaml:"ground_truth"`
	Algorithms  []string          `json:"algorithms" yaml:"algorithms"`
	Status      RunStatus         `json:"status" yaml:"status"`
	Error       string            `json:"error,omitempty" yaml:"error,omitempty"`
	Windows     int               `json:"windows" yaml:"windows"`
	LinesRead   int               `json:"lines_read" yaml:"lines_read"`
	Duration    time.Duration     `json:"duration" yaml:"duration"`
	StartedAt   time.Time         `json:"started_at" yaml:"started_at"`
	FinishedAt  *time.Time        `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}

type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
	TrendUnknown   Trend = "unknown"
)

// MetricSeries is the per-window history of one rate for one algorithm.
type MetricSeries struct {
	Metric string    `json:"metric" yaml:"metric"`
	Scope  string    `json:"scope" yaml:"scope"`
	Values []float64 `json:"values" yaml:"values"`
}

// AlgorithmRanking places an algorithm against the others and the best
// baseline on the ranking metric.
type AlgorithmRanking struct {
	Rank          int            `json:"rank" yaml:"rank"`
	Name          string         `json:"name" yaml:"name"`
	Baseline      bool           `json:"baseline" yaml:"baseline"`
	Score         float64        `json:"score" yaml:"score"`
	BeatsBaseline bool           `json:"beats_baseline" yaml:"beats_baseline"`
	Trend         Trend          `json:"trend" yaml:"trend"`
	// WindowsAhead counts windows whose current score beat every baseline.
	WindowsAhead  int            `json:"windows_ahead" yaml:"windows_ahead"`
	LongestLead   int            `json:"longest_lead" yaml:"longest_lead"`
	Series        []MetricSeries `json:"series,omitempty" yaml:"series,omitempty"`
}

// RunResult is the final outcome of a run.
type RunResult struct {
	Run        Run                 `json:"run" yaml:"run"`
	Windows    int                 `json:"windows" yaml:"windows"`
	LinesRead  int                 `json:"lines_read" yaml:"lines_read"`
	Duration   time.Duration       `json:"duration" yaml:"duration"`
	RankedBy   string              `json:"ranked_by" yaml:"ranked_by"`
	Algorithms []AlgorithmSnapshot `json:"algorithms" yaml:"algorithms"`
	Ranking    []AlgorithmRanking  `json:"ranking" yaml:"ranking"`
}
