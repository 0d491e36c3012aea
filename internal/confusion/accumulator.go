package confusion

import "github.com/OldStager01/botnet-detectors-comparer/pkg/models"

// Accumulator keeps the cumulative and current-window counters of one
// algorithm. It outlives the windows that feed it.
type Accumulator struct {
	name              string
	cumulative        models.ConfusionCounts
	current           models.ConfusionCounts
	cumulativeMetrics models.DerivedMetrics
	currentMetrics    models.DerivedMetrics
}

func NewAccumulator(name string) *Accumulator {
	return &Accumulator{
		name:              name,
		cumulativeMetrics: models.UndefinedMetrics(),
		currentMetrics:    models.UndefinedMetrics(),
	}
}

func (a *Accumulator) Name() string {
	return a.name
}

// Record increments one cumulative and one current counter.
func (a *Accumulator) Record(o models.Outcome) {
	a.cumulative.Inc(o)
	a.current.Inc(o)
	if o.AffectsRates() {
		a.recompute()
	}
}

// ResetWindow clears the current-window counters and metrics.
func (a *Accumulator) ResetWindow() {
	a.current = models.ConfusionCounts{}
	a.currentMetrics = models.UndefinedMetrics()
}

func (a *Accumulator) recompute() {
	a.cumulativeMetrics = DeriveCounts(a.cumulative)
	a.currentMetrics = DeriveCounts(a.current)
}

func (a *Accumulator) Cumulative() models.ConfusionCounts {
	return a.cumulative
}

func (a *Accumulator) Current() models.ConfusionCounts {
	return a.current
}

func (a *Accumulator) CumulativeMetrics() models.DerivedMetrics {
	return a.cumulativeMetrics
}

func (a *Accumulator) CurrentMetrics() models.DerivedMetrics {
	return a.currentMetrics
}
