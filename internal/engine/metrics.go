package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricComputationsTotal  = "gamerank_score_computations_total"
	MetricCacheHitsTotal     = "gamerank_score_cache_hits_total"
	MetricCacheMissesTotal   = "gamerank_score_cache_misses_total"
	MetricComputeDuration    = "gamerank_score_compute_duration_seconds"
	MetricDegradedTotal      = "gamerank_score_degraded_total"
	MetricRankRequestsTotal  = "gamerank_rank_requests_total"
	MetricBatchCancellations = "gamerank_batch_cancellations_total"
	MetricConfigUpdatesTotal = "gamerank_config_updates_total"
	MetricConfigGeneration   = "gamerank_config_generation"
)

// Metrics contains Prometheus metrics for the ranking engine.
// All operations are thread-safe.
type Metrics struct {
	computations       prometheus.Counter
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	computeDuration    prometheus.Histogram
	degraded           *prometheus.CounterVec
	rankRequests       *prometheus.CounterVec
	batchCancellations prometheus.Counter
	configUpdates      prometheus.Counter
	configGeneration   prometheus.Gauge
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		computations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricComputationsTotal,
			Help: "Total number of score computations (cache misses that ran the extractors)",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricCacheHitsTotal,
			Help: "Total number of score requests served from the cache",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricCacheMissesTotal,
			Help: "Total number of score requests that missed the cache",
		}),
		computeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricComputeDuration,
			Help:    "Histogram of single score computation duration in seconds",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05},
		}),
		degraded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricDegradedTotal,
				Help: "Total number of computations that fell back to defaults by signal category",
			},
			[]string{"category"},
		),
		rankRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRankRequestsTotal,
				Help: "Total number of rank requests by mode",
			},
			[]string{"mode"},
		),
		batchCancellations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricBatchCancellations,
			Help: "Total number of batch score runs stopped by cancellation",
		}),
		configUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricConfigUpdatesTotal,
			Help: "Total number of runtime configuration replacements",
		}),
		configGeneration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricConfigGeneration,
			Help: "Generation number of the active engine configuration",
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncComputations increments the computations counter.
func (m *Metrics) IncComputations() {
	m.computations.Inc()
}

// IncCacheHits increments the cache hits counter.
func (m *Metrics) IncCacheHits() {
	m.cacheHits.Inc()
}

// IncCacheMisses increments the cache misses counter.
func (m *Metrics) IncCacheMisses() {
	m.cacheMisses.Inc()
}

// ObserveComputeDuration records a computation duration sample.
func (m *Metrics) ObserveComputeDuration(seconds float64) {
	m.computeDuration.Observe(seconds)
}

// IncDegraded increments the degraded counter for a signal category.
func (m *Metrics) IncDegraded(category string) {
	m.degraded.WithLabelValues(category).Inc()
}

// IncRankRequests increments the rank requests counter for a mode.
func (m *Metrics) IncRankRequests(mode string) {
	m.rankRequests.WithLabelValues(mode).Inc()
}

// IncBatchCancellations increments the batch cancellations counter.
func (m *Metrics) IncBatchCancellations() {
	m.batchCancellations.Inc()
}

// IncConfigUpdates increments the config updates counter.
func (m *Metrics) IncConfigUpdates() {
	m.configUpdates.Inc()
}

// SetConfigGeneration sets the config generation gauge.
func (m *Metrics) SetConfigGeneration(gen float64) {
	m.configGeneration.Set(gen)
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.computations,
		m.cacheHits,
		m.cacheMisses,
		m.computeDuration,
		m.degraded,
		m.rankRequests,
		m.batchCancellations,
		m.configUpdates,
		m.configGeneration,
	}
}
