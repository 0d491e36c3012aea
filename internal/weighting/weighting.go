package weighting

import (
	"math"

	"github.com/OldStager01/botnet-detectors-comparer/internal/confusion"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

const (
	DefaultAlpha     = 0.01
	DefaultFirstSum  = 0.0
	DefaultSecondSum = 1.0
)

// Engine turns window confusion deltas into decayed, population-normalized
// contributions. It is immutable once built.
type Engine struct {
	alpha     float64
	firstSum  float64
	secondSum float64
}

type Config struct {
	Alpha     float64
	FirstSum  float64
	SecondSum float64
}

func DefaultConfig() Config {
	return Config{Alpha: DefaultAlpha, FirstSum: DefaultFirstSum, SecondSum: DefaultSecondSum}
}

func NewEngine(cfg Config) *Engine {
	return &Engine{alpha: cfg.Alpha, firstSum: cfg.FirstSum, secondSum: cfg.SecondSum}
}

func (e *Engine) Alpha() float64 {
	return e.alpha
}

// CorrectingFunction returns exp(-alpha*(windowID+firstSum)) + secondSum.
func (e *Engine) CorrectingFunction(windowID int) float64 {
	return math.Exp(-e.alpha*(float64(windowID)+e.firstSum)) + e.secondSum
}

// State is the decayed accumulator of one algorithm.
type State struct {
	cumulative        models.WeightedCounts
	current           models.WeightedCounts
	cumulativeMetrics models.DerivedMetrics
	currentMetrics    models.DerivedMetrics
	correcting        float64
}

func NewState() *State {
	return &State{
		cumulativeMetrics: models.UndefinedMetrics(),
		currentMetrics:    models.UndefinedMetrics(),
	}
}

// Apply folds one closed window into the state. TP and FN are scaled by
// the correcting function and the botnet population, FP and TN by the
// normal population, B1..B5 by the background population. A category whose
// population is zero contributes nothing.
func (e *Engine) Apply(s *State, current models.ConfusionCounts, pop models.Population, windowID int) {
	cf := e.CorrectingFunction(windowID)

	var delta models.WeightedCounts
	if n := float64(pop.Botnet); n > 0 {
		delta.TP = float64(current.TP) * cf / n
		delta.FN = float64(current.FN) * cf / n
	}
	if n := float64(pop.Normal); n > 0 {
		delta.FP = float64(current.FP) / n
		delta.TN = float64(current.TN) / n
	}
	if n := float64(pop.Background); n > 0 {
		delta.B1 = float64(current.B1) / n
		delta.B2 = float64(current.B2) / n
		delta.B3 = float64(current.B3) / n
		delta.B4 = float64(current.B4) / n
		delta.B5 = float64(current.B5) / n
	}

	s.correcting = cf
	s.current = delta
	s.cumulative.Add(delta)
	s.currentMetrics = confusion.DeriveWeighted(s.current)
	s.cumulativeMetrics = confusion.DeriveWeighted(s.cumulative)
}

func (s *State) Snapshot() *models.WeightedSnapshot {
	return &models.WeightedSnapshot{
		Correcting:        s.correcting,
		Current:           s.current,
		Cumulative:        s.cumulative,
		CurrentMetrics:    s.currentMetrics,
		CumulativeMetrics: s.cumulativeMetrics,
	}
}

func (s *State) Cumulative() models.WeightedCounts {
	return s.cumulative
}

func (s *State) Current() models.WeightedCounts {
	return s.current
}
