package window

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/OldStager01/botnet-detectors-comparer/internal/confusion"
	"github.com/OldStager01/botnet-detectors-comparer/internal/logger"
	"github.com/OldStager01/botnet-detectors-comparer/internal/registry"
	"github.com/OldStager01/botnet-detectors-comparer/internal/weighting"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

var (
	ErrDrained = errors.New("window manager already drained")
	ErrNoSink  = errors.New("window sink is required")
)

const (
	DefaultNormalQualifier = "from"
	DefaultCCQualifier     = "cc"
)

type State int

const (
	StateIdle State = iota
	StateOpen
	StateClosing
	StateDrained
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateDrained:
		return "drained"
	default:
		return "unknown"
	}
}

// Sink receives every closed window. A returned error aborts the run.
type Sink interface {
	WindowClosed(ctx context.Context, report *models.WindowReport) error
}

type SinkFunc func(ctx context.Context, report *models.WindowReport) error

func (f SinkFunc) WindowClosed(ctx context.Context, report *models.WindowReport) error {
	return f(ctx, report)
}

// Observer is notified of window openings and ground-truth escalations.
type Observer interface {
	WindowOpened(runID string, windowID int, start time.Time)
	LabelEscalated(runID string, escalation models.LabelEscalation)
}

type Config struct {
	RunID           string
	Mode            models.Mode
	Width           time.Duration
	Matcher         models.LabelMatcher
	NormalQualifier string
	CCQualifier     string
	// Weighting is required in weight mode and ignored otherwise.
	Weighting *weighting.Engine
	Observer  Observer
}

func (c Config) validate() error {
	if !c.Mode.IsValid() {
		return fmt.Errorf("%w: unknown mode %q", models.ErrConfig, c.Mode)
	}
	if c.Mode.Windowed() && c.Width <= 0 {
		return fmt.Errorf("%w: window width must be positive in %s mode", models.ErrConfig, c.Mode)
	}
	if c.Mode == models.ModeWeight && c.Weighting == nil {
		return fmt.Errorf("%w: weight mode needs a weighting engine", models.ErrConfig)
	}
	return nil
}

// Stats is a point-in-time view of manager progress, safe to read from
// other goroutines.
type Stats struct {
	State         State     `json:"state"`
	WindowID      int       `json:"window_id"`
	WindowsClosed int       `json:"windows_closed"`
	LinesRead     int       `json:"lines_read"`
	Escalations   int       `json:"escalations"`
	LastTimestamp time.Time `json:"last_timestamp"`
}

// Manager partitions a time-ordered record stream into windows and drives
// reconciliation and scoring. Observe and Flush must be called from a
// single goroutine.
type Manager struct {
	cfg     Config
	reg     *registry.Registry
	sink    Sink
	rec     reconciler
	specs   []models.AlgorithmSpec
	names   []string
	scratch []string
	current *TimeWindow

	mu    sync.RWMutex
	stats Stats
}

func NewManager(cfg Config, reg *registry.Registry, sink Sink) (*Manager, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, ErrNoSink
	}
	if cfg.NormalQualifier == "" {
		cfg.NormalQualifier = DefaultNormalQualifier
	}
	if cfg.CCQualifier == "" {
		cfg.CCQualifier = DefaultCCQualifier
	}

	m := &Manager{
		cfg:  cfg,
		reg:  reg,
		sink: sink,
		rec: reconciler{
			matcher:         cfg.Matcher,
			truth:           reg.GroundTruth(),
			normalQualifier: cfg.NormalQualifier,
			ccQualifier:     cfg.CCQualifier,
		},
		names: reg.Names(),
	}
	for _, name := range m.names {
		spec, _ := reg.Spec(name)
		m.specs = append(m.specs, spec)
	}
	m.scratch = make([]string, len(m.specs))
	return m, nil
}

func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

func (m *Manager) State() State {
	return m.Stats().State
}

// Current returns the open window, or nil.
func (m *Manager) Current() *TimeWindow {
	return m.current
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.stats.State = s
	m.mu.Unlock()
}

// Observe consumes one record.
func (m *Manager) Observe(ctx context.Context, rec *models.FlowRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.RLock()
	state, last := m.stats.State, m.stats.LastTimestamp
	m.mu.RUnlock()

	if state == StateDrained {
		return ErrDrained
	}
	if state != StateIdle && rec.Timestamp.Before(last) {
		return models.MalformedInput(rec.Line, 0, fmt.Sprintf("timestamp %s is earlier than previous record %s",
			rec.Timestamp.Format(time.RFC3339Nano), last.Format(time.RFC3339Nano)))
	}

	category := m.reg.GroundTruth().Categorize(m.cfg.Matcher, rec.GroundTruth)
	if category == models.CategoryNone {
		err := models.InvalidLabel("", rec.GroundTruth, "ground-truth label matches none of the file labels")
		err.Line = rec.Line
		err.Column = m.reg.GroundTruthColumn()
		return err
	}
	if err := m.collectPredictions(rec); err != nil {
		return err
	}

	if m.cfg.Mode == models.ModeFlow {
		return m.observeFlow(rec)
	}

	if m.current != nil && !m.current.Contains(rec.Timestamp, m.cfg.Width) {
		if err := m.close(ctx); err != nil {
			return err
		}
	}
	if m.current == nil {
		m.open(rec.Timestamp)
	}

	escalation := m.rec.observe(m.current, rec, category, m.specs, m.scratch)

	m.mu.Lock()
	m.stats.LinesRead++
	m.stats.LastTimestamp = rec.Timestamp
	if escalation != nil {
		m.stats.Escalations++
	}
	m.mu.Unlock()

	if escalation != nil && m.cfg.Observer != nil {
		m.cfg.Observer.LabelEscalated(m.cfg.RunID, *escalation)
	}
	return nil
}

// collectPredictions resolves the label of every algorithm for rec into
// the scratch slice and rejects labels no category can match.
func (m *Manager) collectPredictions(rec *models.FlowRecord) error {
	for i, spec := range m.specs {
		label := spec.Constant
		if !spec.Baseline {
			var ok bool
			label, ok = rec.Prediction(spec.Name)
			if !ok {
				return models.MalformedInput(rec.Line, spec.Column, "missing prediction for "+spec.Name)
			}
		}
		if spec.Categorize(m.cfg.Matcher, label) == models.CategoryNone {
			err := models.InvalidLabel(spec.Name, label, "predicted label matches none of the algorithm labels")
			err.Line = rec.Line
			err.Column = spec.Column
			return err
		}
		m.scratch[i] = label
	}
	return nil
}

// observeFlow scores rec at once on the per-flow path. The single implicit
// window spans the whole input.
func (m *Manager) observeFlow(rec *models.FlowRecord) error {
	if m.current == nil {
		m.open(rec.Timestamp)
	}
	truth := m.reg.GroundTruth()
	for i, spec := range m.specs {
		o, err := confusion.Classify(spec, truth, m.cfg.Matcher, m.scratch[i], rec.GroundTruth, confusion.PathPerFlow)
		if err != nil {
			return err
		}
		entry, _ := m.reg.Entry(spec.Name)
		entry.Confusion.Record(o)
	}

	w := m.current
	w.LinesRead++
	w.Last = rec.Timestamp
	w.labelCounts[rec.GroundTruth]++

	m.mu.Lock()
	m.stats.LinesRead++
	m.stats.LastTimestamp = rec.Timestamp
	m.mu.Unlock()
	return nil
}

func (m *Manager) open(start time.Time) {
	m.mu.Lock()
	m.stats.WindowID++
	m.stats.State = StateOpen
	id := m.stats.WindowID
	m.mu.Unlock()

	m.current = newTimeWindow(id, start, m.names)
	logger.WithWindow(m.cfg.RunID, id).Debugf("Window opened at %s", start.Format(time.RFC3339Nano))
	if m.cfg.Observer != nil {
		m.cfg.Observer.WindowOpened(m.cfg.RunID, id, start)
	}
}

// close scores the open window, reports it and resets window counters.
func (m *Manager) close(ctx context.Context) error {
	w := m.current
	m.setState(StateClosing)

	if m.cfg.Mode.Windowed() {
		if err := m.score(w); err != nil {
			return err
		}
	}

	report := m.buildReport(w)
	if err := m.sink.WindowClosed(ctx, report); err != nil {
		return fmt.Errorf("window %d: %w", w.ID, err)
	}

	logger.WithWindow(m.cfg.RunID, w.ID).Debugf("Window closed: %d lines, %d unique IPs", w.LinesRead, w.UniqueIPs())

	m.reg.ResetWindow()
	w.clear()
	m.current = nil

	m.mu.Lock()
	m.stats.WindowsClosed++
	m.mu.Unlock()
	return nil
}

func (m *Manager) score(w *TimeWindow) error {
	truth := m.reg.GroundTruth()
	for _, spec := range m.specs {
		entry, _ := m.reg.Entry(spec.Name)
		for _, ip := range w.order {
			predicted, _ := w.Predicted(spec.Name, ip)
			o, err := confusion.Classify(spec, truth, m.cfg.Matcher, predicted, w.truth[ip], confusion.PathStreaming)
			if err != nil {
				return err
			}
			entry.Confusion.Record(o)
		}
		if m.cfg.Mode == models.ModeWeight {
			m.cfg.Weighting.Apply(entry.Weighted, entry.Confusion.Current(), w.population, w.ID)
		}
	}
	return nil
}

func (m *Manager) buildReport(w *TimeWindow) *models.WindowReport {
	return &models.WindowReport{
		RunID:       m.cfg.RunID,
		WindowID:    w.ID,
		Mode:        m.cfg.Mode,
		Start:       w.Start,
		End:         w.Last,
		LinesRead:   w.LinesRead,
		UniqueIPs:   w.UniqueIPs(),
		Population:  w.population,
		IPsByLabel:  copyCounts(w.ipsByLabel),
		LabelCounts: copyCounts(w.labelCounts),
		Escalations: w.Escalations(),
		Algorithms:  m.reg.Snapshots(),
	}
}

// Flush closes any open window at end of input. The manager accepts no
// records afterwards.
func (m *Manager) Flush(ctx context.Context) error {
	if m.State() == StateDrained {
		return nil
	}
	if m.current != nil && m.current.LinesRead > 0 {
		if err := m.close(ctx); err != nil {
			return err
		}
	}
	m.setState(StateDrained)
	return nil
}
