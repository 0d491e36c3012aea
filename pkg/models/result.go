package models

import "time"

// AlgorithmResult is the stored final score of one algorithm in one run.
type AlgorithmResult struct {
	RunID           string          `json:"run_id"`
	Name            string          `json:"name"`
	Baseline        bool            `json:"baseline"`
	Rank            int             `json:"rank"`
	Score           float64         `json:"score"`
	BeatsBaseline   bool            `json:"beats_baseline"`
	Trend           Trend           `json:"trend"`
	Counts          ConfusionCounts `json:"counts"`
	Metrics         DerivedMetrics  `json:"metrics"`
	WeightedMetrics *DerivedMetrics `json:"weighted_metrics,omitempty"`
}

// ResultsFromRun flattens the final snapshots and ranking of a run.
func ResultsFromRun(result *RunResult) []AlgorithmResult {
	ranks := make(map[string]AlgorithmRanking, len(result.Ranking))
	for _, r := range result.Ranking {
		ranks[r.Name] = r
	}

	out := make([]AlgorithmResult, 0, len(result.Algorithms))
	for _, a := range result.Algorithms {
		r := AlgorithmResult{
			RunID:    result.Run.ID,
			Name:     a.Name,
			Baseline: a.Baseline,
			Counts:   a.Cumulative,
			Metrics:  a.CumulativeMetrics,
			Trend:    TrendUnknown,
		}
		if rank, ok := ranks[a.Name]; ok {
			r.Rank = rank.Rank
			r.Score = rank.Score
			r.BeatsBaseline = rank.BeatsBaseline
			r.Trend = rank.Trend
		}
		if a.Weighted != nil {
			m := a.Weighted.CumulativeMetrics
			r.WeightedMetrics = &m
		}
		out = append(out, r)
	}
	return out
}

type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
