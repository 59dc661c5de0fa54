// Package jobs records Prometheus metrics for gamerank's background work:
// the score refresh job and calibration reloads.
package jobs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricBackgroundJobsTotal      = "gamerank_background_jobs_total"
	MetricBackgroundJobsDuration   = "gamerank_background_jobs_duration_seconds"
	MetricBackgroundJobErrorsTotal = "gamerank_background_job_errors_total"
	MetricBackgroundJobLastSuccess = "gamerank_background_job_last_success_timestamp_seconds"
)

// Job type constants for labeling.
const (
	JobTypeScoreRefresh      = "score_refresh"
	JobTypeCalibrationReload = "calibration_reload"
)

// Status constants for job completion.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics is safe for concurrent use.
type Metrics struct {
	jobsTotal    *prometheus.CounterVec
	jobsDuration *prometheus.HistogramVec
	jobErrors    *prometheus.CounterVec
	lastSuccess  *prometheus.GaugeVec
}

// NewMetrics creates unregistered job collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		jobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricBackgroundJobsTotal,
				Help: "Total number of background job executions by type and status",
			},
			[]string{"job_type", "status"},
		),
		jobsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricBackgroundJobsDuration,
				Help:    "Histogram of background job duration in seconds by job type",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 5.0, 30.0},
			},
			[]string{"job_type"},
		),
		jobErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricBackgroundJobErrorsTotal,
				Help: "Total number of background job errors by type and error type",
			},
			[]string{"job_type", "error_type"},
		),
		lastSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: MetricBackgroundJobLastSuccess,
				Help: "Unix time of the last successful run by job type",
			},
			[]string{"job_type"},
		),
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

// IncJobsTotal counts one finished run. A success also stamps the
// last-success gauge.
func (m *Metrics) IncJobsTotal(jobType, status string) {
	m.jobsTotal.WithLabelValues(jobType, status).Inc()
	if status == StatusSuccess {
		m.lastSuccess.WithLabelValues(jobType).SetToCurrentTime()
	}
}

// ObserveJobDuration records a job duration sample in seconds.
func (m *Metrics) ObserveJobDuration(jobType string, seconds float64) {
	m.jobsDuration.WithLabelValues(jobType).Observe(seconds)
}

// IncJobErrors increments the job errors counter.
// errorType is a short machine-readable cause such as "timeout",
// "score_error" or "invalid_config".
func (m *Metrics) IncJobErrors(jobType, errorType string) {
	m.jobErrors.WithLabelValues(jobType, errorType).Inc()
}

// Run executes fn as one run of jobType and records its outcome. A non-nil
// error counts as a failure under errorType. fn's error is returned unchanged.
func (m *Metrics) Run(jobType, errorType string, fn func() error) error {
	start := time.Now()
	err := fn()

	status := StatusSuccess
	if err != nil {
		status = StatusFailure
		m.IncJobErrors(jobType, errorType)
	}
	m.IncJobsTotal(jobType, status)
	m.ObserveJobDuration(jobType, time.Since(start).Seconds())
	return err
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.jobsTotal,
		m.jobsDuration,
		m.jobErrors,
		m.lastSuccess,
	}
}
