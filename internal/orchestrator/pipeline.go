package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/OldStager01/botnet-detectors-comparer/internal/analyzer"
	"github.com/OldStager01/botnet-detectors-comparer/internal/events"
	"github.com/OldStager01/botnet-detectors-comparer/internal/flowlog"
	"github.com/OldStager01/botnet-detectors-comparer/internal/logger"
	"github.com/OldStager01/botnet-detectors-comparer/internal/metrics"
	"github.com/OldStager01/botnet-detectors-comparer/internal/registry"
	"github.com/OldStager01/botnet-detectors-comparer/internal/report"
	"github.com/OldStager01/botnet-detectors-comparer/internal/window"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/database"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

type PipelineConfig struct {
	Run    *models.Run
	Source io.Reader
	Layout flowlog.Layout
	// Window is completed with the run id and observer by the pipeline.
	Window    window.Config
	Analyzer  *analyzer.Analyzer
	Writers   report.Writer
	Store     database.ResultStore
	Metrics   *metrics.Metrics
	Publisher *events.Publisher
}

// Pipeline drives one run: reader, window manager and the window sinks.
type Pipeline struct {
	config  PipelineConfig
	manager *window.Manager
	stored  bool
	running bool
	mu      sync.Mutex
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	return &Pipeline{config: cfg}
}

func (p *Pipeline) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Pipeline) setRunning(v bool) {
	p.mu.Lock()
	p.running = v
	p.mu.Unlock()
}

// Stats reports manager progress. It is zero until the header is read.
func (p *Pipeline) Stats() window.Stats {
	p.mu.Lock()
	m := p.manager
	p.mu.Unlock()
	if m == nil {
		return window.Stats{}
	}
	return m.Stats()
}

// Run consumes the whole source. A cancelled context aborts at the next
// record.
func (p *Pipeline) Run(ctx context.Context) (*models.RunResult, error) {
	p.setRunning(true)
	defer p.setRunning(false)

	run := p.config.Run
	log := logger.WithRun(run.ID)
	started := time.Now()

	result, err := p.process(ctx)
	if err != nil {
		p.fail(run, err)
		return nil, err
	}

	result.Duration = time.Since(started)
	finished := time.Now()
	run.Status = models.RunStatusCompleted
	run.FinishedAt = &finished
	run.Windows = result.Windows
	run.LinesRead = result.LinesRead
	run.Duration = result.Duration
	result.Run = *run

	if p.config.Writers != nil {
		if err := p.config.Writers.WriteFinal(result); err != nil {
			p.fail(run, err)
			return nil, fmt.Errorf("failed to write final report: %w", err)
		}
	}
	if p.stored {
		if err := p.config.Store.CompleteRun(context.WithoutCancel(ctx), result); err != nil {
			log.Warnf("Failed to store run result: %v", err)
			p.publishError(run.ID, "failed to store run result", err)
		}
	}
	if p.config.Metrics != nil {
		p.config.Metrics.ObserveRun(models.RunStatusCompleted, result.Duration)
	}
	if p.config.Publisher != nil {
		p.alertBaselines(result)
		p.config.Publisher.RunCompleted(result)
	}

	log.Infof("Processing lasted %d seconds", int(result.Duration.Seconds()))
	return result, nil
}

func (p *Pipeline) process(ctx context.Context) (*models.RunResult, error) {
	run := p.config.Run

	reader := flowlog.NewReader(p.config.Source, p.config.Layout)
	header, err := reader.ReadHeader()
	if err != nil {
		return nil, err
	}

	reg, err := registry.Build(header.Fields, header.Layout.LabelOffset(), run.Mode)
	if err != nil {
		return nil, err
	}

	cols := flowlog.Columns{GroundTruth: reg.GroundTruthColumn(), Algorithms: make(map[string]int)}
	for _, spec := range reg.Specs() {
		cols.Algorithms[spec.Name] = spec.Column
	}
	reader.Bind(cols)

	run.Format = string(header.Layout)
	run.GroundTruth = reg.GroundTruth()
	run.Algorithms = reg.Names()

	wcfg := p.config.Window
	wcfg.RunID = run.ID
	wcfg.Mode = run.Mode
	if p.config.Publisher != nil {
		wcfg.Observer = p.config.Publisher
	}
	manager, err := window.NewManager(wcfg, reg, p)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.manager = manager
	p.mu.Unlock()

	fields := map[string]interface{}{
		"format":     run.Format,
		"mode":       run.Mode,
		"algorithms": len(run.Algorithms),
	}
	if wcfg.Weighting != nil {
		fields["alpha"] = wcfg.Weighting.Alpha()
	}
	logger.WithRun(run.ID).WithFields(fields).Info("Run started")

	if p.config.Store != nil {
		if err := p.config.Store.CreateRun(ctx, run); err != nil {
			logger.WithRun(run.ID).Warnf("Failed to store run: %v", err)
		} else {
			p.stored = true
		}
	}
	if p.config.Publisher != nil {
		p.config.Publisher.RunStarted(run)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := manager.Observe(ctx, rec); err != nil {
			return nil, err
		}
	}

	if err := manager.Flush(ctx); err != nil {
		return nil, err
	}
	if err := checkAccounting(reader.Flows(), reader.LabelCounts(), manager.Stats().LinesRead); err != nil {
		return nil, err
	}

	snapshots := reg.Snapshots()
	return &models.RunResult{
		Windows:    manager.Stats().WindowsClosed,
		LinesRead:  reader.Flows(),
		RankedBy:   p.config.Analyzer.RankBy(),
		Algorithms: snapshots,
		Ranking:    p.config.Analyzer.Rank(snapshots, true),
	}, nil
}

// checkAccounting fails the run when the flows read, the flows tallied per
// ground-truth label and the flows scored by the manager disagree.
func checkAccounting(read int, labels map[string]int, scored int) error {
	labelled := 0
	for _, n := range labels {
		labelled += n
	}
	if labelled != read || scored != read {
		return models.MalformedInput(0, -1, fmt.Sprintf("read %d flows but labelled %d and scored %d", read, labelled, scored))
	}
	return nil
}

// WindowClosed fans a closed window out to the analyzer, the writers,
// metrics, the store and the event bus. Only writer failures abort the run.
func (p *Pipeline) WindowClosed(ctx context.Context, r *models.WindowReport) error {
	p.config.Analyzer.Observe(r)

	if p.config.Writers != nil {
		if err := p.config.Writers.WriteWindow(r); err != nil {
			return fmt.Errorf("failed to write window report: %w", err)
		}
	}
	if p.config.Metrics != nil {
		p.config.Metrics.ObserveWindow(r)
	}
	if p.stored {
		if err := p.config.Store.SaveWindow(ctx, r); err != nil {
			logger.WithWindow(r.RunID, r.WindowID).Warnf("Failed to store window: %v", err)
			p.publishError(r.RunID, "failed to store window", err)
		}
	}
	if p.config.Publisher != nil {
		p.config.Publisher.WindowClosed(r)
	}
	return nil
}

func (p *Pipeline) fail(run *models.Run, err error) {
	finished := time.Now()
	run.Status = models.RunStatusFailed
	run.Error = err.Error()
	run.FinishedAt = &finished

	logger.WithRun(run.ID).Errorf("Run failed: %v", err)

	if p.stored {
		if serr := p.config.Store.FailRun(context.Background(), run.ID, run.Error, finished); serr != nil {
			logger.WithRun(run.ID).Warnf("Failed to store run failure: %v", serr)
		}
	}
	if p.config.Metrics != nil {
		p.config.Metrics.ObserveRun(models.RunStatusFailed, finished.Sub(run.StartedAt))
	}
	if p.config.Publisher != nil {
		p.config.Publisher.RunFailed(run.ID, err)
	}
}

func (p *Pipeline) publishError(runID, message string, err error) {
	if p.config.Publisher != nil {
		p.config.Publisher.Error(runID, message, err)
	}
}

// alertBaselines warns about detectors that do not beat the best baseline
// on the ranking metric.
func (p *Pipeline) alertBaselines(result *models.RunResult) {
	for _, r := range result.Ranking {
		if r.Baseline || r.BeatsBaseline {
			continue
		}
		msg := fmt.Sprintf("%s does not beat the best baseline on %s", r.Name, result.RankedBy)
		p.config.Publisher.Alert(result.Run.ID, models.SeverityWarning, msg, r)
	}
}
