package models

import (
	"fmt"
	"time"
)

type Mode string

const (
	ModeFlow   Mode = "flow"
	ModeTime   Mode = "time"
	ModeWeight Mode = "weight"
)

func (m Mode) IsValid() bool {
	switch m {
	case ModeFlow, ModeTime, ModeWeight:
		return true
	}
	return false
}

// Windowed reports whether the mode partitions input into time windows.
func (m Mode) Windowed() bool {
	return m == ModeTime || m == ModeWeight
}

func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("unknown comparison mode %q (want flow, time or weight)", s)
	}
	return m, nil
}

// FlowRecord is one labeled input line.
type FlowRecord struct {
	Line        int               `json:"line"`
	Timestamp   time.Time         `json:"timestamp"`
	SourceIP    string            `json:"source_ip"`
	GroundTruth string            `json:"ground_truth"`
	Predictions map[string]string `json:"predictions"`
}

func (r *FlowRecord) Prediction(algorithm string) (string, bool) {
	label, ok := r.Predictions[algorithm]
	return label, ok
}
