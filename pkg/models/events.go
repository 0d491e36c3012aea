package models

import "time"

type EventType string

const (
	EventTypeRunStarted     EventType = "run_started"
	EventTypeWindowOpened   EventType = "window_opened"
	EventTypeWindowClosed   EventType = "window_closed"
	EventTypeLabelEscalated EventType = "label_escalated"
	EventTypeRunCompleted   EventType = "run_completed"
	EventTypeRunFailed      EventType = "run_failed"
	EventTypeAlert          EventType = "alert"
	EventTypeError          EventType = "error"
)

type EventSeverity string

const (
	SeverityInfo     EventSeverity = "info"
	SeverityWarning  EventSeverity = "warning"
	SeverityCritical EventSeverity = "critical"
)

// Event represents an internal system event
type Event struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	Severity  EventSeverity `json:"severity"`
	RunID     string        `json:"run_id,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Message   string        `json:"message"`
	Data      interface{}   `json:"data,omitempty"`
	TraceID   string        `json:"trace_id,omitempty"`
}

func NewEvent(eventType EventType, runID, message string) *Event {
	return &Event{
		ID:        NewUUID(),
		Type:      eventType,
		Severity:  SeverityInfo,
		RunID:     runID,
		Timestamp: time.Now(),
		Message:   message,
	}
}

func (e *Event) WithSeverity(severity EventSeverity) *Event {
	e.Severity = severity
	return e
}

func (e *Event) WithData(data interface{}) *Event {
	e.Data = data
	return e
}

func (e *Event) WithTraceID(traceID string) *Event {
	e.TraceID = traceID
	return e
}

// LabelEscalation records a ground-truth override inside a window.
type LabelEscalation struct {
	WindowID int    `json:"window_id"`
	SourceIP string `json:"source_ip"`
	From     string `json:"from"`
	To       string `json:"to"`
	Line     int    `json:"line"`
}
