package events

import (
	"sync"
	"sync/atomic"

	"github.com/OldStager01/botnet-detectors-comparer/internal/logger"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

// EventBus fans events out to buffered subscriber channels. Publish never
// blocks the evaluation loop; a full subscriber loses the event.
type EventBus struct {
	subscribers map[models.EventType][]chan *models.Event
	channels    []chan *models.Event
	mu          sync.RWMutex
	bufferSize  int
	closed      bool
	dropped     atomic.Int64
}

func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &EventBus{
		subscribers: make(map[models.EventType][]chan *models.Event),
		bufferSize:  bufferSize,
	}
}

// Subscribe returns a channel receiving the given event types.
func (b *EventBus) Subscribe(types ...models.EventType) <-chan *models.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan *models.Event, b.bufferSize)
	if b.closed {
		close(ch)
		return ch
	}
	for _, t := range types {
		b.subscribers[t] = append(b.subscribers[t], ch)
	}
	b.channels = append(b.channels, ch)
	return ch
}

func (b *EventBus) SubscribeAll() <-chan *models.Event {
	return b.Subscribe(AllEventTypes()...)
}

func (b *EventBus) Publish(event *models.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, ch := range b.subscribers[event.Type] {
		select {
		case ch <- event:
		default:
			b.dropped.Add(1)
			logger.Warnf("Event channel full, dropping event: %s", event.Type)
		}
	}
}

// Dropped is the number of deliveries lost to full subscribers.
func (b *EventBus) Dropped() int64 {
	return b.dropped.Load()
}

func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, ch := range b.channels {
		close(ch)
	}
	b.subscribers = make(map[models.EventType][]chan *models.Event)
	b.channels = nil
}

func AllEventTypes() []models.EventType {
	return []models.EventType{
		models.EventTypeRunStarted,
		models.EventTypeWindowOpened,
		models.EventTypeWindowClosed,
		models.EventTypeLabelEscalated,
		models.EventTypeRunCompleted,
		models.EventTypeRunFailed,
		models.EventTypeAlert,
		models.EventTypeError,
	}
}
