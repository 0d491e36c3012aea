package websocket

import (
	"time"

	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

type MessageType string

const (
	MessageTypeRunStarted   MessageType = "run_started"
	MessageTypeWindow       MessageType = "window"
	MessageTypeEscalation   MessageType = "escalation"
	MessageTypeRunCompleted MessageType = "run_completed"
	MessageTypeRunFailed    MessageType = "run_failed"
	MessageTypeAlert        MessageType = "alert"
	MessageTypeError        MessageType = "error"
	MessageTypeSubscription MessageType = "subscription_update"
)

// OutgoingMessage is the envelope of every event sent to clients.
type OutgoingMessage struct {
	Type      MessageType `json:"type"`
	RunID     string      `json:"run_id"`
	Timestamp time.Time   `json:"timestamp"`
	Severity  string      `json:"severity,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

type SubscriptionUpdate struct {
	Type      MessageType `json:"type"`
	Action    string      `json:"action"`
	RunID     string      `json:"run_id"`
	Timestamp time.Time   `json:"timestamp"`
}

// WindowSummary is the slimmed window report pushed to live dashboards.
type WindowSummary struct {
	WindowID    int                `json:"window_id"`
	Start       time.Time          `json:"start"`
	End         time.Time          `json:"end"`
	LinesRead   int                `json:"lines_read"`
	UniqueIPs   int                `json:"unique_ips"`
	Escalations int                `json:"escalations"`
	Algorithms  []AlgorithmSummary `json:"algorithms"`
}

type AlgorithmSummary struct {
	Name       string                 `json:"name"`
	Baseline   bool                   `json:"baseline"`
	Current    models.DerivedMetrics  `json:"current"`
	Cumulative models.DerivedMetrics  `json:"cumulative"`
	Counts     models.ConfusionCounts `json:"counts"`
	Weighted   *models.DerivedMetrics `json:"weighted,omitempty"`
}

func SummarizeWindow(r *models.WindowReport) WindowSummary {
	s := WindowSummary{
		WindowID:    r.WindowID,
		Start:       r.Start,
		End:         r.End,
		LinesRead:   r.LinesRead,
		UniqueIPs:   r.UniqueIPs,
		Escalations: r.Escalations,
		Algorithms:  make([]AlgorithmSummary, 0, len(r.Algorithms)),
	}
	for _, a := range r.Algorithms {
		as := AlgorithmSummary{
			Name:       a.Name,
			Baseline:   a.Baseline,
			Current:    a.CurrentMetrics,
			Cumulative: a.CumulativeMetrics,
			Counts:     a.Cumulative,
		}
		if a.Weighted != nil {
			m := a.Weighted.CumulativeMetrics
			as.Weighted = &m
		}
		s.Algorithms = append(s.Algorithms, as)
	}
	return s
}
