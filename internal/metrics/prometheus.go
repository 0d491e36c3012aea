package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/OldStager01/botnet-detectors-comparer/internal/logger"
	"github.com/OldStager01/botnet-detectors-comparer/internal/resilience"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

const namespace = "botcompare"

// Metrics exports evaluation progress and the latest per-algorithm rates.
// Each instance owns its registry so tests can build as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	linesRead       *prometheus.CounterVec
	windowsClosed   *prometheus.CounterVec
	escalations     *prometheus.CounterVec
	runsTotal       *prometheus.CounterVec
	eventsDropped   prometheus.Gauge
	windowUniqueIPs *prometheus.GaugeVec
	population      *prometheus.GaugeVec
	confusion       *prometheus.GaugeVec
	rate            *prometheus.GaugeVec
	weightedRate    *prometheus.GaugeVec
	breakerState    *prometheus.GaugeVec
	runDuration     prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		linesRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_read_total",
			Help:      "Flow records consumed.",
		}, []string{"run_id"}),
		windowsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "windows_closed_total",
			Help:      "Time windows closed and scored.",
		}, []string{"run_id"}),
		escalations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "label_escalations_total",
			Help:      "Ground-truth overrides applied during reconciliation.",
		}, []string{"run_id"}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished runs by status.",
		}, []string{"status"}),
		eventsDropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "events_dropped",
			Help:      "Events lost to full subscriber buffers.",
		}),
		windowUniqueIPs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "window_unique_ips",
			Help:      "Unique source IPs in the last closed window.",
		}, []string{"run_id"}),
		population: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "window_population",
			Help:      "Unique source IPs per ground-truth category in the last closed window.",
		}, []string{"run_id", "category"}),
		confusion: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "confusion_cumulative",
			Help:      "Cumulative confusion counters per algorithm.",
		}, []string{"run_id", "algorithm", "outcome"}),
		rate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "metric_cumulative",
			Help:      "Cumulative derived rate per algorithm, -1 when undefined.",
		}, []string{"run_id", "algorithm", "metric"}),
		weightedRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "weighted_metric_cumulative",
			Help:      "Cumulative weighted rate per algorithm, -1 when undefined.",
		}, []string{"run_id", "algorithm", "metric"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "0=closed, 1=open, 2=half-open.",
		}, []string{"name"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock processing time of finished runs.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
		}),
	}

	m.registry.MustRegister(
		m.linesRead, m.windowsClosed, m.escalations, m.runsTotal, m.eventsDropped,
		m.windowUniqueIPs, m.population, m.confusion, m.rate, m.weightedRate,
		m.breakerState, m.runDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveWindow records one closed window.
func (m *Metrics) ObserveWindow(r *models.WindowReport) {
	m.linesRead.WithLabelValues(r.RunID).Add(float64(r.LinesRead))
	m.windowsClosed.WithLabelValues(r.RunID).Inc()
	m.escalations.WithLabelValues(r.RunID).Add(float64(r.Escalations))
	m.windowUniqueIPs.WithLabelValues(r.RunID).Set(float64(r.UniqueIPs))

	for _, c := range []models.LabelCategory{models.CategoryNegative, models.CategoryPositive, models.CategoryBackground} {
		m.population.WithLabelValues(r.RunID, c.TruthName()).Set(float64(r.Population.Of(c)))
	}

	for _, a := range r.Algorithms {
		for _, o := range models.AllOutcomes() {
			m.confusion.WithLabelValues(r.RunID, a.Name, string(o)).Set(float64(a.Cumulative.Get(o)))
		}
		for _, name := range models.MetricNames() {
			v, _ := a.CumulativeMetrics.Value(name)
			m.rate.WithLabelValues(r.RunID, a.Name, name).Set(v)
			if a.Weighted != nil {
				wv, _ := a.Weighted.CumulativeMetrics.Value(name)
				m.weightedRate.WithLabelValues(r.RunID, a.Name, name).Set(wv)
			}
		}
	}
}

func (m *Metrics) ObserveRun(status models.RunStatus, d time.Duration) {
	m.runsTotal.WithLabelValues(string(status)).Inc()
	m.runDuration.Observe(d.Seconds())
}

func (m *Metrics) SetEventsDropped(n int64) {
	m.eventsDropped.Set(float64(n))
}

func (m *Metrics) SetCircuitBreakerState(name string, state resilience.State) {
	m.breakerState.WithLabelValues(name).Set(float64(state))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Server serves the registry on its own port.
type Server struct {
	srv *http.Server
}

func (m *Metrics) StartServer(port int, path string) *Server {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	addr := ":" + strconv.Itoa(port)
	s := &Server{srv: &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}}
	logger.Infof("Prometheus metrics server listening on %s%s", addr, path)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Prometheus server error: %v", err)
		}
	}()
	return s
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
