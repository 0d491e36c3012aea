package models

import "time"

// Population counts unique source IPs per ground-truth category in one
// window.
type Population struct {
	Normal     int `json:"normal" yaml:"normal"`
	Botnet     int `json:"botnet" yaml:"botnet"`
	Background int `json:"background" yaml:"background"`
}

func (p *Population) Add(c LabelCategory, delta int) {
	switch c {
	case CategoryNegative:
		p.Normal += delta
	case CategoryPositive:
		p.Botnet += delta
	case CategoryBackground:
		p.Background += delta
	}
}

func (p Population) Of(c LabelCategory) int {
	switch c {
	case CategoryNegative:
		return p.Normal
	case CategoryPositive:
		return p.Botnet
	case CategoryBackground:
		return p.Background
	}
	return 0
}

func (p Population) Total() int {
	return p.Normal + p.Botnet + p.Background
}

type WeightedSnapshot struct {
	Correcting        float64        `json:"correcting_function" yaml:"correcting_function"`
	Current           WeightedCounts `json:"current" yaml:"current"`
	Cumulative        WeightedCounts `json:"cumulative" yaml:"cumulative"`
	CurrentMetrics    DerivedMetrics `json:"current_metrics" yaml:"current_metrics"`
	CumulativeMetrics DerivedMetrics `json:"cumulative_metrics" yaml:"cumulative_metrics"`
}

// AlgorithmSnapshot is a read-only copy of one algorithm's accumulators.
type AlgorithmSnapshot struct {
	Name              string            `json:"name" yaml:"name"`
	Baseline          bool              `json:"baseline" yaml:"baseline"`
	Current           ConfusionCounts   `json:"current" yaml:"current"`
	Cumulative        ConfusionCounts   `json:"cumulative" yaml:"cumulative"`
	CurrentMetrics    DerivedMetrics    `json:"current_metrics" yaml:"current_metrics"`
	CumulativeMetrics DerivedMetrics    `json:"cumulative_metrics" yaml:"cumulative_metrics"`
	Weighted          *WeightedSnapshot `json:"weighted,omitempty" yaml:"weighted,omitempty"`
}

// WindowReport is emitted once per closed window.
type WindowReport struct {
	RunID       string              `json:"run_id" yaml:"run_id"`
	WindowID    int                 `json:"window_id" yaml:"window_id"`
	Mode        Mode                `json:"mode" yaml:"mode"`
	Start       time.Time           `json:"start" yaml:"start"`
	End         time.Time           `json:"end" yaml:"end"`
	LinesRead   int                 `json:"lines_read" yaml:"lines_read"`
	UniqueIPs   int                 `json:"unique_ips" yaml:"unique_ips"`
	Population  Population          `json:"population" yaml:"population"`
	IPsByLabel  map[string]int      `json:"ips_by_label" yaml:"ips_by_label"`
	LabelCounts map[string]int      `json:"label_counts" yaml:"label_counts"`
	Escalations int                 `json:"escalations" yaml:"escalations"`
	Algorithms  []AlgorithmSnapshot `json:"algorithms" yaml:"algorithms"`
}

func (r *WindowReport) Algorithm(name string) (AlgorithmSnapshot, bool) {
	for _, a := range r.Algorithms {
		if a.Name == name {
			return a, true
		}
	}
	return AlgorithmSnapshot{}, false
}
