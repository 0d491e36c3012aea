package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/OldStager01/botnet-detectors-comparer/internal/logger"
	"github.com/OldStager01/botnet-detectors-comparer/internal/resilience"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

// MessagePublisher is the subset of *nats.Conn the forwarder needs.
type MessagePublisher interface {
	Publish(subject string, data []byte) error
}

type NATSConfig struct {
	URL            string
	Subject        string
	ConnectTimeout time.Duration
	Breaker        resilience.CircuitBreakerConfig
}

// NATSForwarder republishes bus events as JSON on "<subject>.<event type>".
// Publishing goes through a circuit breaker so an unreachable server does
// not slow the run down.
type NATSForwarder struct {
	conn      *nats.Conn
	publisher MessagePublisher
	subject   string
	breaker   *resilience.CircuitBreaker
	eventChan <-chan *models.Event
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	mu        sync.Mutex
	forwarded int64
	failed    int64
}

// ConnectNATS dials the server and builds a forwarder reading eventChan.
func ConnectNATS(cfg NATSConfig, eventChan <-chan *models.Event) (*NATSForwarder, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = nats.DefaultTimeout
	}
	nc, err := nats.Connect(cfg.URL,
		nats.Name("botcompare"),
		nats.Timeout(timeout),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warnf("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Infof("NATS reconnected to %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.URL, err)
	}
	logger.Infof("Connected to NATS server at %s", cfg.URL)

	f := NewNATSForwarder(nc, cfg, eventChan)
	f.conn = nc
	return f, nil
}

func NewNATSForwarder(pub MessagePublisher, cfg NATSConfig, eventChan <-chan *models.Event) *NATSForwarder {
	breakerCfg := cfg.Breaker
	if breakerCfg.Name == "" {
		breakerCfg.Name = "nats"
	}
	if breakerCfg.OnStateChange == nil {
		breakerCfg.OnStateChange = func(name string, from, to resilience.State) {
			logger.WithField("breaker", name).Warnf("Circuit breaker %s -> %s", from, to)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &NATSForwarder{
		publisher: pub,
		subject:   cfg.Subject,
		breaker:   resilience.NewCircuitBreaker(breakerCfg),
		eventChan: eventChan,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (f *NATSForwarder) Start() {
	f.wg.Add(1)
	go f.run()
}

func (f *NATSForwarder) run() {
	defer f.wg.Done()
	for {
		select {
		case <-f.ctx.Done():
			return
		case event, ok := <-f.eventChan:
			if !ok {
				return
			}
			if err := f.Forward(event); err != nil {
				logger.WithField("event_type", event.Type).Debugf("NATS forward failed: %v", err)
			}
		}
	}
}

// Forward publishes one event.
func (f *NATSForwarder) Forward(event *models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	subject := f.Subject(event.Type)
	err = f.breaker.Execute(func() error {
		return f.publisher.Publish(subject, data)
	})

	f.mu.Lock()
	if err != nil {
		f.failed++
	} else {
		f.forwarded++
	}
	f.mu.Unlock()
	return err
}

func (f *NATSForwarder) Subject(t models.EventType) string {
	return f.subject + "." + string(t)
}

func (f *NATSForwarder) Stats() (forwarded, failed int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.forwarded, f.failed
}

func (f *NATSForwarder) Breaker() *resilience.CircuitBreaker {
	return f.breaker
}

// Wait blocks until the event channel is closed and drained.
func (f *NATSForwarder) Wait() {
	f.wg.Wait()
}

// Close stops forwarding and drains the connection.
func (f *NATSForwarder) Close() {
	f.cancel()
	f.wg.Wait()
	if f.conn != nil {
		if err := f.conn.Drain(); err != nil {
			logger.Warnf("NATS drain failed: %v", err)
		}
		logger.Info("NATS connection drained and closed")
	}
}
