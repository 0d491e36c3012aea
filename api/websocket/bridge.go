package websocket

import (
	"context"
	"encoding/json"

	"github.com/OldStager01/botnet-detectors-comparer/internal/logger"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

// EventBridge forwards orchestrator events to websocket clients.
type EventBridge struct {
	hub        *Hub
	eventsChan <-chan *models.Event
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

func NewEventBridge(hub *Hub, eventsChan <-chan *models.Event) *EventBridge {
	ctx, cancel := context.WithCancel(context.Background())
	return &EventBridge{
		hub:        hub,
		eventsChan: eventsChan,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

func (b *EventBridge) Start() {
	go b.run()
	logger.Info("WebSocket event bridge started")
}

func (b *EventBridge) Stop() {
	b.cancel()
	<-b.done
	logger.Info("WebSocket event bridge stopped")
}

func (b *EventBridge) run() {
	defer close(b.done)
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-b.eventsChan:
			if !ok {
				logger.Info("Event channel closed, stopping bridge")
				return
			}
			b.forwardEvent(event)
		}
	}
}

func (b *EventBridge) forwardEvent(event *models.Event) {
	msg := ConvertEvent(event)
	if msg == nil {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		logger.Errorf("Failed to marshal WebSocket message: %v", err)
		return
	}

	b.hub.BroadcastToRun(event.RunID, data)
}

// ConvertEvent maps a bus event to its websocket message, or nil for
// events clients do not receive.
func ConvertEvent(event *models.Event) *OutgoingMessage {
	msgType := mapEventType(event.Type)
	if msgType == "" {
		return nil
	}

	data := event.Data
	if report, ok := data.(*models.WindowReport); ok {
		data = SummarizeWindow(report)
	}

	return &OutgoingMessage{
		Type:      msgType,
		RunID:     event.RunID,
		Timestamp: event.Timestamp,
		Severity:  string(event.Severity),
		Message:   event.Message,
		Data:      data,
	}
}

func mapEventType(eventType models.EventType) MessageType {
	switch eventType {
	case models.EventTypeRunStarted:
		return MessageTypeRunStarted
	case models.EventTypeWindowClosed:
		return MessageTypeWindow
	case models.EventTypeLabelEscalated:
		return MessageTypeEscalation
	case models.EventTypeRunCompleted:
		return MessageTypeRunCompleted
	case models.EventTypeRunFailed:
		return MessageTypeRunFailed
	case models.EventTypeAlert:
		return MessageTypeAlert
	case models.EventTypeError:
		return MessageTypeError
	default:
		// window_opened
		return ""
	}
}
