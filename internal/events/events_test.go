package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/botnet-detectors-comparer/internal/events"
	"github.com/OldStager01/botnet-detectors-comparer/internal/resilience"
	"github.com/OldStager01/botnet-detectors-comparer/internal/window"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

var _ window.Observer = (*events.Publisher)(nil)

func TestEventBus_SubscribeByType(t *testing.T) {
	bus := events.NewEventBus(10)
	defer bus.Close()

	closed := bus.Subscribe(models.EventTypeWindowClosed)
	all := bus.SubscribeAll()

	pub := events.NewPublisher(bus).WithTraceID("trace-1")
	pub.WindowOpened("run-1", 1, time.Unix(0, 0))
	pub.WindowClosed(&models.WindowReport{RunID: "run-1", WindowID: 1})

	e := <-closed
	assert.Equal(t, models.EventTypeWindowClosed, e.Type)
	assert.Equal(t, "run-1", e.RunID)
	assert.Equal(t, "trace-1", e.TraceID)
	assert.Empty(t, closed)

	assert.Equal(t, models.EventTypeWindowOpened, (<-all).Type)
	assert.Equal(t, models.EventTypeWindowClosed, (<-all).Type)
}

func TestEventBus_DropsWhenFull(t *testing.T) {
	bus := events.NewEventBus(1)
	defer bus.Close()

	ch := bus.Subscribe(models.EventTypeAlert)
	pub := events.NewPublisher(bus)
	pub.Alert("run-1", models.SeverityWarning, "first", nil)
	pub.Alert("run-1", models.SeverityWarning, "second", nil)

	assert.Equal(t, int64(1), bus.Dropped())
	assert.Equal(t, "first", (<-ch).Message)
}

func TestEventBus_CloseClosesChannelsOnce(t *testing.T) {
	bus := events.NewEventBus(1)
	a := bus.SubscribeAll()
	b := bus.Subscribe(models.EventTypeRunFailed, models.EventTypeError)

	bus.Close()
	bus.Close()

	_, ok := <-a
	assert.False(t, ok)
	_, ok = <-b
	assert.False(t, ok)

	late := bus.Subscribe(models.EventTypeAlert)
	_, ok = <-late
	assert.False(t, ok)

	events.NewPublisher(bus).Alert("run", models.SeverityInfo, "ignored", nil)
}

func TestPublisher_Severities(t *testing.T) {
	bus := events.NewEventBus(10)
	defer bus.Close()
	ch := bus.SubscribeAll()
	pub := events.NewPublisher(bus)

	pub.RunFailed("run-1", errors.New("invalid label"))
	pub.LabelEscalated("run-1", models.LabelEscalation{WindowID: 2, SourceIP: "10.0.0.1", From: "Normal", To: "Botnet"})

	failed := <-ch
	assert.Equal(t, models.SeverityCritical, failed.Severity)
	assert.Contains(t, failed.Message, "invalid label")

	escalated := <-ch
	assert.Equal(t, models.SeverityInfo, escalated.Severity)
	assert.Equal(t, models.LabelEscalation{WindowID: 2, SourceIP: "10.0.0.1", From: "Normal", To: "Botnet"}, escalated.Data)
}

type memoryStore struct {
	mu     sync.Mutex
	events []*models.Event
}

func (s *memoryStore) SaveEvent(_ context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func TestEventLogger_PersistsLifecycleEvents(t *testing.T) {
	bus := events.NewEventBus(10)
	store := &memoryStore{}
	l := events.NewEventLogger(store, bus.SubscribeAll())
	l.Start()

	pub := events.NewPublisher(bus)
	pub.RunStarted(&models.Run{ID: "run-1", Mode: models.ModeTime, InputFile: "capture.binetflow"})
	pub.WindowOpened("run-1", 1, time.Unix(0, 0))
	pub.RunFailed("run-1", errors.New("boom"))

	bus.Close()
	l.Wait()

	require.Len(t, store.events, 2)
	assert.Equal(t, models.EventTypeRunStarted, store.events[0].Type)
	assert.Equal(t, models.EventTypeRunFailed, store.events[1].Type)
}

type fakeConn struct {
	mu       sync.Mutex
	subjects []string
	payloads [][]byte
	err      error
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.subjects = append(c.subjects, subject)
	c.payloads = append(c.payloads, data)
	return nil
}

func TestNATSForwarder_Forward(t *testing.T) {
	conn := &fakeConn{}
	f := events.NewNATSForwarder(conn, events.NATSConfig{Subject: "botcompare.events"}, nil)

	event := models.NewEvent(models.EventTypeWindowClosed, "run-1", "Window 1 closed")
	require.NoError(t, f.Forward(event))

	require.Len(t, conn.subjects, 1)
	assert.Equal(t, "botcompare.events.window_closed", conn.subjects[0])

	var decoded models.Event
	require.NoError(t, json.Unmarshal(conn.payloads[0], &decoded))
	assert.Equal(t, event.ID, decoded.ID)

	forwarded, failed := f.Stats()
	assert.Equal(t, int64(1), forwarded)
	assert.Zero(t, failed)
}

func TestNATSForwarder_BreakerOpensOnFailures(t *testing.T) {
	conn := &fakeConn{err: errors.New("no responders")}
	f := events.NewNATSForwarder(conn, events.NATSConfig{
		Subject: "botcompare.events",
		Breaker: resilience.CircuitBreakerConfig{MaxFailures: 2, Timeout: time.Hour},
	}, nil)

	event := models.NewEvent(models.EventTypeAlert, "run-1", "alert")
	assert.Error(t, f.Forward(event))
	assert.Error(t, f.Forward(event))
	assert.ErrorIs(t, f.Forward(event), resilience.ErrCircuitOpen)
	assert.Equal(t, resilience.StateOpen, f.Breaker().State())

	_, failed := f.Stats()
	assert.Equal(t, int64(3), failed)
}

func TestNATSForwarder_RunDrainsChannel(t *testing.T) {
	bus := events.NewEventBus(10)
	conn := &fakeConn{}
	f := events.NewNATSForwarder(conn, events.NATSConfig{Subject: "s"}, bus.SubscribeAll())
	f.Start()

	events.NewPublisher(bus).WindowOpened("run-1", 1, time.Unix(0, 0))
	events.NewPublisher(bus).Alert("run-1", models.SeverityInfo, "done", nil)
	bus.Close()
	f.Wait()
	f.Close()

	assert.Equal(t, []string{"s.window_opened", "s.alert"}, conn.subjects)
}
