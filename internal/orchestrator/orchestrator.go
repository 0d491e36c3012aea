package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/OldStager01/botnet-detectors-comparer/internal/analyzer"
	"github.com/OldStager01/botnet-detectors-comparer/internal/events"
	"github.com/OldStager01/botnet-detectors-comparer/internal/flowlog"
	"github.com/OldStager01/botnet-detectors-comparer/internal/logger"
	"github.com/OldStager01/botnet-detectors-comparer/internal/metrics"
	"github.com/OldStager01/botnet-detectors-comparer/internal/report"
	"github.com/OldStager01/botnet-detectors-comparer/internal/resilience"
	"github.com/OldStager01/botnet-detectors-comparer/internal/weighting"
	"github.com/OldStager01/botnet-detectors-comparer/internal/window"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/config"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/database"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

// RunRequest names the input of one run. Source overrides InputFile when
// set; Out receives the text report and defaults to stdout.
type RunRequest struct {
	InputFile string
	Source    io.Reader
	Out       io.Writer
}

// Orchestrator owns the event bus and its consumers and drives runs.
type Orchestrator struct {
	config      *config.Config
	store       database.ResultStore
	metrics     *metrics.Metrics
	eventBus    *events.EventBus
	eventLogger *events.EventLogger
	forwarder   *events.NATSForwarder
	pipelines   map[string]*Pipeline
	mu          sync.RWMutex
	stopOnce    sync.Once
}

// New builds an orchestrator. store and m may be nil.
func New(cfg *config.Config, store database.ResultStore, m *metrics.Metrics) *Orchestrator {
	bufferSize := cfg.Events.BufferSize
	if bufferSize <= 0 {
		bufferSize = 100
	}
	eventBus := events.NewEventBus(bufferSize)

	var eventStore events.EventStore
	if store != nil {
		eventStore = store
	}
	eventLogger := events.NewEventLogger(eventStore, eventBus.SubscribeAll())

	return &Orchestrator{
		config:      cfg,
		store:       store,
		metrics:     m,
		eventBus:    eventBus,
		eventLogger: eventLogger,
		pipelines:   make(map[string]*Pipeline),
	}
}

// Start launches the event logger and, when enabled, the NATS forwarder.
func (o *Orchestrator) Start() error {
	logger.Info("Orchestrator starting")
	o.eventLogger.Start()

	if o.config.NATS.Enabled {
		fwd, err := events.ConnectNATS(o.natsConfig(), o.eventBus.Subscribe(
			models.EventTypeRunStarted,
			models.EventTypeWindowClosed,
			models.EventTypeRunCompleted,
			models.EventTypeRunFailed,
		))
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		fwd.Start()
		o.forwarder = fwd
	}
	return nil
}

func (o *Orchestrator) natsConfig() events.NATSConfig {
	cb := o.config.NATS.CircuitBreaker
	return events.NATSConfig{
		URL:            o.config.NATS.URL,
		Subject:        o.config.NATS.Subject,
		ConnectTimeout: o.config.NATS.ConnectTimeout,
		Breaker: resilience.CircuitBreakerConfig{
			Name:        "nats",
			MaxFailures: cb.MaxFailures,
			Timeout:     cb.Timeout,
			HalfOpenMax: cb.HalfOpenMax,
			OnStateChange: func(name string, _, to resilience.State) {
				if o.metrics != nil {
					o.metrics.SetCircuitBreakerState(name, to)
				}
			},
		},
	}
}

func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		logger.Info("Orchestrator stopping")

		o.eventBus.Close()
		o.eventLogger.Wait()
		if o.forwarder != nil {
			o.forwarder.Wait()
			o.forwarder.Close()
		}
		if o.metrics != nil {
			o.metrics.SetEventsDropped(o.eventBus.Dropped())
		}

		logger.Info("Orchestrator stopped")
	})
}

// Run evaluates one flow log to completion.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (*models.RunResult, error) {
	mode, err := models.ParseMode(o.config.Evaluation.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrConfig, err)
	}
	layout, err := flowlog.ParseLayout(o.config.Input.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrConfig, err)
	}

	source := req.Source
	if source == nil {
		f, err := os.Open(req.InputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()
		source = f
	}

	run := &models.Run{
		ID:          models.NewUUID(),
		InputFile:   req.InputFile,
		Mode:        mode,
		WindowWidth: o.config.Evaluation.Width(),
		Alpha:       o.config.Evaluation.Alpha,
		Status:      models.RunStatusRunning,
		StartedAt:   time.Now(),
	}

	writers, err := report.Create(o.config.Report.Formats, report.Options{
		RunID:       run.ID,
		Mode:        mode,
		Out:         req.Out,
		OutputDir:   o.config.Report.OutputDir,
		CSVFile:     o.config.Report.CSVFile,
		CSVAppend:   o.config.Report.CSVAppend,
		ShowCurrent: o.config.Report.ShowCurrent,
		Verbosity:   o.config.Report.Verbosity,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := writers.Close(); cerr != nil {
			logger.WithRun(run.ID).Warnf("Failed to close report writers: %v", cerr)
		}
	}()

	wcfg := window.Config{
		Width:           o.config.Evaluation.Width(),
		Matcher:         models.NewLabelMatcher(models.MatchStrategy(o.config.Evaluation.LabelMatch)),
		NormalQualifier: o.config.Evaluation.NormalQualifier,
		CCQualifier:     o.config.Evaluation.CCQualifier,
	}
	if mode == models.ModeWeight {
		wcfg.Weighting = weighting.NewEngine(weighting.Config{
			Alpha:     o.config.Evaluation.Alpha,
			FirstSum:  o.config.Evaluation.FirstSum,
			SecondSum: o.config.Evaluation.SecondSum,
		})
	}

	pipeline := NewPipeline(PipelineConfig{
		Run:    run,
		Source: source,
		Layout: layout,
		Window: wcfg,
		Analyzer: analyzer.New(analyzer.Config{
			RankBy:         o.config.Analyzer.RankBy,
			TrendWindows:   o.config.Analyzer.TrendWindows,
			TrendThreshold: o.config.Analyzer.TrendThreshold,
			MaxHistory:     o.config.Analyzer.MaxHistory,
		}),
		Writers:   writers,
		Store:     o.store,
		Metrics:   o.metrics,
		Publisher: events.NewPublisher(o.eventBus).WithTraceID(logger.TraceIDFromContext(ctx)),
	})

	o.mu.Lock()
	o.pipelines[run.ID] = pipeline
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		delete(o.pipelines, run.ID)
		o.mu.Unlock()
	}()

	return pipeline.Run(ctx)
}

// ActiveRuns lists the ids of runs still in progress.
func (o *Orchestrator) ActiveRuns() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	ids := make([]string, 0, len(o.pipelines))
	for id, pipeline := range o.pipelines {
		if pipeline.IsRunning() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (o *Orchestrator) RunStats(runID string) (window.Stats, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	pipeline, exists := o.pipelines[runID]
	if !exists {
		return window.Stats{}, fmt.Errorf("no active run %s", runID)
	}
	return pipeline.Stats(), nil
}

func (o *Orchestrator) SubscribeEvents(eventTypes ...models.EventType) <-chan *models.Event {
	return o.eventBus.Subscribe(eventTypes...)
}

func (o *Orchestrator) SubscribeAllEvents() <-chan *models.Event {
	return o.eventBus.SubscribeAll()
}
