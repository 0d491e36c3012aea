package registry

import (
	"fmt"

	"github.com/OldStager01/botnet-detectors-comparer/internal/confusion"
	"github.com/OldStager01/botnet-detectors-comparer/internal/logger"
	"github.com/OldStager01/botnet-detectors-comparer/internal/weighting"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/validation"
)

// Entry binds an algorithm to the accumulators it owns for the whole run.
type Entry struct {
	Spec      models.AlgorithmSpec
	Confusion *confusion.Accumulator
	// Weighted is nil outside weight mode.
	Weighted *weighting.State
}

func (e *Entry) Snapshot() models.AlgorithmSnapshot {
	s := models.AlgorithmSnapshot{
		Name:              e.Spec.Name,
		Baseline:          e.Spec.Baseline,
		Current:           e.Confusion.Current(),
		Cumulative:        e.Confusion.Cumulative(),
		CurrentMetrics:    e.Confusion.CurrentMetrics(),
		CumulativeMetrics: e.Confusion.CumulativeMetrics(),
	}
	if e.Weighted != nil {
		s.Weighted = e.Weighted.Snapshot()
	}
	return s
}

// Registry holds every scored algorithm keyed by name. Apart from the
// accumulators it is read-only after Build.
type Registry struct {
	mode        models.Mode
	truth       models.GroundTruthLabels
	truthColumn int
	entries     map[string]*Entry
	order       []string
}

// Build parses the header cells at index offset and beyond, then adds the
// baseline algorithms.
func Build(header []string, offset int, mode models.Mode) (*Registry, error) {
	if offset < 0 || offset >= len(header) {
		return nil, models.MalformedInput(1, offset, fmt.Sprintf("header has %d columns, label columns expected from %d", len(header), offset))
	}

	r := &Registry{
		mode:        mode,
		truthColumn: -1,
		entries:     make(map[string]*Entry),
	}

	var algorithms []cell
	for i := offset; i < len(header); i++ {
		c, ok, err := parseCell(header[i], i)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		if c.isGroundTruth() {
			if r.truthColumn >= 0 {
				return nil, models.MalformedInput(1, i, "duplicate ground-truth column "+c.name)
			}
			r.truthColumn = i
			r.truth = models.GroundTruthLabels{Normal: c.negative, Botnet: c.positive, Background: c.background}
			continue
		}
		algorithms = append(algorithms, c)
	}

	if r.truthColumn < 0 {
		return nil, models.MalformedInput(1, -1, "no ground-truth column (name containing \"label\") in header")
	}

	for _, c := range algorithms {
		if err := validation.ValidateAlgorithmName(c.name); err != nil {
			return nil, models.MalformedInput(1, c.column, err.Error())
		}
		spec := models.AlgorithmSpec{
			Name:       c.name,
			Column:     c.column,
			Negative:   c.negative,
			Positive:   c.positive,
			Background: c.background,
		}
		if err := r.add(spec); err != nil {
			return nil, err
		}
		logger.WithAlgorithm(spec.Name).Debugf("Algorithm column %d: negative=%s positive=%s background=%s",
			spec.Column, spec.Negative, spec.Positive, spec.Background)
	}

	for _, spec := range baselines(r.truth) {
		if err := r.add(spec); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func baselines(truth models.GroundTruthLabels) []models.AlgorithmSpec {
	specs := []models.AlgorithmSpec{
		{Name: models.BaselineAllPositive, Column: -1, Positive: truth.Botnet, Baseline: true, Constant: truth.Botnet},
		{Name: models.BaselineAllNegative, Column: -1, Negative: truth.Normal, Baseline: true, Constant: truth.Normal},
	}
	if truth.HasBackground() {
		specs = append(specs, models.AlgorithmSpec{
			Name: models.BaselineAllBackground, Column: -1, Background: truth.Background, Baseline: true, Constant: truth.Background,
		})
	}
	return specs
}

func (r *Registry) add(spec models.AlgorithmSpec) error {
	if _, exists := r.entries[spec.Name]; exists {
		return models.MalformedInput(1, spec.Column, "duplicate algorithm "+spec.Name)
	}

	e := &Entry{Spec: spec, Confusion: confusion.NewAccumulator(spec.Name)}
	if r.mode == models.ModeWeight {
		e.Weighted = weighting.NewState()
	}
	r.entries[spec.Name] = e
	r.order = append(r.order, spec.Name)
	return nil
}

func (r *Registry) Mode() models.Mode {
	return r.mode
}

func (r *Registry) GroundTruth() models.GroundTruthLabels {
	return r.truth
}

func (r *Registry) GroundTruthColumn() int {
	return r.truthColumn
}

// Names returns header order followed by the baselines.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Len() int {
	return len(r.order)
}

func (r *Registry) Entry(name string) (*Entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

func (r *Registry) Spec(name string) (models.AlgorithmSpec, bool) {
	e, ok := r.entries[name]
	if !ok {
		return models.AlgorithmSpec{}, false
	}
	return e.Spec, true
}

// Specs returns the non-baseline algorithms in header order.
func (r *Registry) Specs() []models.AlgorithmSpec {
	var specs []models.AlgorithmSpec
	for _, name := range r.order {
		if e := r.entries[name]; !e.Spec.Baseline {
			specs = append(specs, e.Spec)
		}
	}
	return specs
}

// MaxColumn is the highest input column any algorithm reads.
func (r *Registry) MaxColumn() int {
	max := r.truthColumn
	for _, e := range r.entries {
		if e.Spec.Column > max {
			max = e.Spec.Column
		}
	}
	return max
}

// Each visits entries in registry order.
func (r *Registry) Each(fn func(*Entry) error) error {
	for _, name := range r.order {
		if err := fn(r.entries[name]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) Snapshots() []models.AlgorithmSnapshot {
	out := make([]models.AlgorithmSnapshot, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].Snapshot())
	}
	return out
}

// ResetWindow clears every current-window counter.
func (r *Registry) ResetWindow() {
	for _, e := range r.entries {
		e.Confusion.ResetWindow()
	}
}
