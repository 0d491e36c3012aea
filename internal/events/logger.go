package events

import (
	"context"
	"sync"

	"github.com/OldStager01/botnet-detectors-comparer/internal/logger"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

// EventStore persists events worth keeping after the run.
type EventStore interface {
	SaveEvent(ctx context.Context, event *models.Event) error
}

// EventLogger drains a subscription into the structured log and, when a
// store is set, persists run lifecycle events and alerts.
type EventLogger struct {
	store     EventStore
	eventChan <-chan *models.Event
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	once      sync.Once
}

func NewEventLogger(store EventStore, eventChan <-chan *models.Event) *EventLogger {
	ctx, cancel := context.WithCancel(context.Background())
	return &EventLogger{
		store:     store,
		eventChan: eventChan,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

func (l *EventLogger) Start() {
	go l.run()
}

// Stop cancels the logger and waits for it to exit. Buffered events may be
// skipped; close the bus and call Wait to drain them instead.
func (l *EventLogger) Stop() {
	l.once.Do(l.cancel)
	<-l.done
}

// Wait blocks until the subscription channel is closed and drained.
func (l *EventLogger) Wait() {
	<-l.done
}

func (l *EventLogger) run() {
	defer close(l.done)
	for {
		select {
		case <-l.ctx.Done():
			return
		case event, ok := <-l.eventChan:
			if !ok {
				return
			}
			l.processEvent(event)
		}
	}
}

func (l *EventLogger) processEvent(event *models.Event) {
	entry := logger.WithFields(map[string]interface{}{
		"event_type": event.Type,
		"run_id":     event.RunID,
		"severity":   event.Severity,
		"trace_id":   event.TraceID,
	})

	switch {
	case event.Severity == models.SeverityCritical:
		entry.Error(event.Message)
	case event.Severity == models.SeverityWarning:
		entry.Warn(event.Message)
	case event.Type == models.EventTypeWindowOpened || event.Type == models.EventTypeLabelEscalated:
		entry.Debug(event.Message)
	default:
		entry.Info(event.Message)
	}

	if l.store == nil || !persisted(event.Type) {
		return
	}
	if err := l.store.SaveEvent(l.ctx, event); err != nil {
		logger.Errorf("Failed to persist %s event: %v", event.Type, err)
	}
}

func persisted(t models.EventType) bool {
	switch t {
	case models.EventTypeRunStarted, models.EventTypeRunCompleted, models.EventTypeRunFailed,
		models.EventTypeAlert, models.EventTypeError:
		return true
	}
	return false
}
