package events

import (
	"fmt"
	"time"

	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

// WindowOpenedData is the payload of window_opened events.
type WindowOpenedData struct {
	WindowID int       `json:"window_id"`
	Start    time.Time `json:"start"`
}

// Publisher builds typed events for one bus. It satisfies window.Observer.
type Publisher struct {
	bus     *EventBus
	traceID string
}

func NewPublisher(bus *EventBus) *Publisher {
	return &Publisher{bus: bus}
}

func (p *Publisher) WithTraceID(traceID string) *Publisher {
	return &Publisher{
		bus:     p.bus,
		traceID: traceID,
	}
}

func (p *Publisher) publish(event *models.Event) {
	if p.traceID != "" {
		event.TraceID = p.traceID
	}
	p.bus.Publish(event)
}

func (p *Publisher) RunStarted(run *models.Run) {
	msg := fmt.Sprintf("Run started: %s mode on %s", run.Mode, run.InputFile)
	snapshot := *run
	p.publish(models.NewEvent(models.EventTypeRunStarted, run.ID, msg).WithData(&snapshot))
}

func (p *Publisher) WindowOpened(runID string, windowID int, start time.Time) {
	msg := fmt.Sprintf("Window %d opened", windowID)
	p.publish(models.NewEvent(models.EventTypeWindowOpened, runID, msg).
		WithData(WindowOpenedData{WindowID: windowID, Start: start}))
}

func (p *Publisher) WindowClosed(report *models.WindowReport) {
	msg := fmt.Sprintf("Window %d closed: %d lines, %d unique IPs", report.WindowID, report.LinesRead, report.UniqueIPs)
	p.publish(models.NewEvent(models.EventTypeWindowClosed, report.RunID, msg).WithData(report))
}

func (p *Publisher) LabelEscalated(runID string, escalation models.LabelEscalation) {
	msg := fmt.Sprintf("Ground truth of %s escalated from %s to %s", escalation.SourceIP, escalation.From, escalation.To)
	p.publish(models.NewEvent(models.EventTypeLabelEscalated, runID, msg).WithData(escalation))
}

func (p *Publisher) RunCompleted(result *models.RunResult) {
	msg := fmt.Sprintf("Run completed: %d windows, %d lines in %s", result.Windows, result.LinesRead, result.Duration.Round(time.Millisecond))
	p.publish(models.NewEvent(models.EventTypeRunCompleted, result.Run.ID, msg).WithData(result))
}

func (p *Publisher) RunFailed(runID string, err error) {
	p.publish(models.NewEvent(models.EventTypeRunFailed, runID, "Run failed: "+err.Error()).
		WithSeverity(models.SeverityCritical).
		WithData(map[string]interface{}{
			"error": err.Error(),
		}))
}

func (p *Publisher) Alert(runID string, severity models.EventSeverity, message string, data interface{}) {
	p.publish(models.NewEvent(models.EventTypeAlert, runID, message).
		WithSeverity(severity).
		WithData(data))
}

func (p *Publisher) Error(runID string, message string, err error) {
	p.publish(models.NewEvent(models.EventTypeError, runID, message).
		WithSeverity(models.SeverityCritical).
		WithData(map[string]interface{}{
			"error": err.Error(),
		}))
}
