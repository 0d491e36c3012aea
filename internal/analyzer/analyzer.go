package analyzer

import (
	"sort"
	"sync"

	"github.com/OldStager01/botnet-detectors-comparer/internal/logger"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

const (
	ScopeCurrent    = "current"
	ScopeCumulative = "cumulative"
	ScopeWeighted   = "weighted"
)

type Config struct {
	// RankBy is a models.MetricNames entry.
	RankBy         string
	TrendWindows   int
	TrendThreshold float64
	MaxHistory     int
}

// Analyzer keeps the per-window metric series of every algorithm and
// derives trends and the final ranking from them.
type Analyzer struct {
	config    Config
	history   map[string]map[string][]float64
	baselines map[string]bool
	order     []string
	streaks   *LeadTracker
	historyMu sync.RWMutex
}

func New(cfg Config) *Analyzer {
	if cfg.RankBy == "" {
		cfg.RankBy = "f1"
	}
	if cfg.TrendWindows < 2 {
		cfg.TrendWindows = 5
	}
	if cfg.TrendThreshold == 0 {
		cfg.TrendThreshold = 0.02
	}
	if cfg.MaxHistory == 0 {
		cfg.MaxHistory = 10000
	}

	return &Analyzer{
		config:    cfg,
		history:   make(map[string]map[string][]float64),
		baselines: make(map[string]bool),
		streaks:   NewLeadTracker(),
	}
}

func (a *Analyzer) RankBy() string {
	return a.config.RankBy
}

func seriesKey(scope, metric string) string {
	return scope + "/" + metric
}

// Observe appends one closed window to every series.
func (a *Analyzer) Observe(report *models.WindowReport) {
	a.historyMu.Lock()
	defer a.historyMu.Unlock()

	for _, alg := range report.Algorithms {
		series, ok := a.history[alg.Name]
		if !ok {
			series = make(map[string][]float64)
			a.history[alg.Name] = series
			a.baselines[alg.Name] = alg.Baseline
			a.order = append(a.order, alg.Name)
		}

		for _, name := range models.MetricNames() {
			cur, _ := alg.CurrentMetrics.Value(name)
			cum, _ := alg.CumulativeMetrics.Value(name)
			a.appendValue(series, seriesKey(ScopeCurrent, name), cur)
			a.appendValue(series, seriesKey(ScopeCumulative, name), cum)
			if alg.Weighted != nil {
				w, _ := alg.Weighted.CumulativeMetrics.Value(name)
				a.appendValue(series, seriesKey(ScopeWeighted, name), w)
			}
		}
	}

	a.streaks.Update(report.Algorithms, a.config.RankBy)

	logger.WithWindow(report.RunID, report.WindowID).Debugf("Analyzer recorded %d algorithms", len(report.Algorithms))
}

func (a *Analyzer) appendValue(series map[string][]float64, key string, v float64) {
	values := append(series[key], v)
	if len(values) > a.config.MaxHistory {
		values = values[len(values)-a.config.MaxHistory:]
	}
	series[key] = values
}

// Series returns copies of an algorithm's series in metric order,
// current scope first.
func (a *Analyzer) Series(algorithm string) []models.MetricSeries {
	a.historyMu.RLock()
	defer a.historyMu.RUnlock()
	return a.seriesLocked(algorithm)
}

func (a *Analyzer) seriesLocked(algorithm string) []models.MetricSeries {
	series, ok := a.history[algorithm]
	if !ok {
		return nil
	}

	var out []models.MetricSeries
	for _, scope := range []string{ScopeCurrent, ScopeCumulative, ScopeWeighted} {
		for _, name := range models.MetricNames() {
			values, ok := series[seriesKey(scope, name)]
			if !ok {
				continue
			}
			cp := make([]float64, len(values))
			copy(cp, values)
			out = append(out, models.MetricSeries{Metric: name, Scope: scope, Values: cp})
		}
	}
	return out
}

// Trend compares the older and newer halves of the last TrendWindows
// defined current-window values of the ranking metric.
func (a *Analyzer) Trend(algorithm string) models.Trend {
	a.historyMu.RLock()
	defer a.historyMu.RUnlock()
	return a.trendLocked(algorithm)
}

func (a *Analyzer) trendLocked(algorithm string) models.Trend {
	var defined []float64
	for _, v := range a.history[algorithm][seriesKey(ScopeCurrent, a.config.RankBy)] {
		if models.IsDefined(v) {
			defined = append(defined, v)
		}
	}
	if len(defined) < a.config.TrendWindows {
		return models.TrendUnknown
	}
	recent := defined[len(defined)-a.config.TrendWindows:]

	older := average(recent[:len(recent)/2])
	newer := average(recent[len(recent)/2:])
	diff := newer - older
	if LowerIsBetter(a.config.RankBy) {
		diff = -diff
	}

	switch {
	case diff > a.config.TrendThreshold:
		return models.TrendImproving
	case diff < -a.config.TrendThreshold:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// LowerIsBetter reports whether a smaller value of the metric is better.
func LowerIsBetter(metric string) bool {
	switch metric {
	case "fpr", "fnr", "error_rate":
		return true
	}
	return false
}

// better reports whether x ranks above y. Undefined scores rank last.
func better(metric string, x, y float64) bool {
	xd, yd := models.IsDefined(x), models.IsDefined(y)
	if xd != yd {
		return xd
	}
	if !xd {
		return false
	}
	if LowerIsBetter(metric) {
		return x < y
	}
	return x > y
}

// Score picks the value an algorithm is ranked by: the weighted
// cumulative rate when present, else the plain cumulative rate.
func Score(s models.AlgorithmSnapshot, metric string) float64 {
	if s.Weighted != nil {
		v, _ := s.Weighted.CumulativeMetrics.Value(metric)
		return v
	}
	v, _ := s.CumulativeMetrics.Value(metric)
	return v
}

// Rank orders the final snapshots by the ranking metric and compares each
// algorithm to the best baseline.
func (a *Analyzer) Rank(snapshots []models.AlgorithmSnapshot, withSeries bool) []models.AlgorithmRanking {
	a.historyMu.RLock()
	defer a.historyMu.RUnlock()

	metric := a.config.RankBy
	bestBaseline := models.Undefined
	for _, s := range snapshots {
		if s.Baseline && better(metric, Score(s, metric), bestBaseline) {
			bestBaseline = Score(s, metric)
		}
	}

	rankings := make([]models.AlgorithmRanking, 0, len(snapshots))
	for _, s := range snapshots {
		score := Score(s, metric)
		ahead, longest := a.streaks.Stats(s.Name)
		r := models.AlgorithmRanking{
			Name:          s.Name,
			Baseline:      s.Baseline,
			Score:         score,
			BeatsBaseline: !s.Baseline && better(metric, score, bestBaseline),
			Trend:         a.trendLocked(s.Name),
			WindowsAhead:  ahead,
			LongestLead:   longest,
		}
		if withSeries {
			r.Series = a.seriesLocked(s.Name)
		}
		rankings = append(rankings, r)
	}

	sort.SliceStable(rankings, func(i, j int) bool {
		if better(metric, rankings[i].Score, rankings[j].Score) {
			return true
		}
		if better(metric, rankings[j].Score, rankings[i].Score) {
			return false
		}
		return rankings[i].Name < rankings[j].Name
	})
	for i := range rankings {
		rankings[i].Rank = i + 1
	}
	return rankings
}

// Algorithms lists observed algorithms in first-seen order.
func (a *Analyzer) Algorithms() []string {
	a.historyMu.RLock()
	defer a.historyMu.RUnlock()
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}
