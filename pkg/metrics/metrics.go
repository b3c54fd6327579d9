// Package metrics exposes Prometheus instrumentation for the update pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docket"

// Manager owns the metric collectors and their registry. A custom registry
// keeps the scrape surface limited to pipeline metrics.
type Manager struct {
	registry *prometheus.Registry

	subjectsProcessed *prometheus.CounterVec
	unitDuration      prometheus.Histogram
	categoryChanges   *prometheus.CounterVec
	jobsRunning       prometheus.Gauge
	fetchRetries      *prometheus.CounterVec
	notifyFailures    prometheus.Counter
}

// New creates a Manager with all collectors registered on a fresh registry.
func New() *Manager {
	registry := prometheus.NewRegistry()
	auto := promauto.With(registry)

	return &Manager{
		registry: registry,

		subjectsProcessed: auto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "subjects_total",
				Help:      "Subject pipeline runs by terminal result",
			},
			[]string{"result"},
		),

		unitDuration: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "unit_duration_seconds",
			Help:      "Duration of a single subject pipeline run",
			Buckets:   prometheus.DefBuckets,
		}),

		categoryChanges: auto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "category_changes_total",
				Help:      "Detected category changes by category",
			},
			[]string{"category"},
		),

		jobsRunning: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "running",
			Help:      "Number of batch jobs currently running",
		}),

		fetchRetries: auto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "providers",
				Name:      "fetch_retries_total",
				Help:      "Provider fetch retry attempts by category",
			},
			[]string{"category"},
		),

		notifyFailures: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "failures_total",
			Help:      "Best-effort cache invalidation failures",
		}),
	}
}

// Handler returns an http.Handler serving the registry's scrape endpoint.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SubjectCompleted records a successful subject pipeline run.
func (m *Manager) SubjectCompleted() {
	m.subjectsProcessed.WithLabelValues("completed").Inc()
}

// SubjectFailed records a failed subject pipeline run.
func (m *Manager) SubjectFailed() {
	m.subjectsProcessed.WithLabelValues("failed").Inc()
}

// ObserveUnitDuration records the wall time of one subject pipeline run.
func (m *Manager) ObserveUnitDuration(d time.Duration) {
	m.unitDuration.Observe(d.Seconds())
}

// CategoryChanged records a fingerprint change for a category.
func (m *Manager) CategoryChanged(category string) {
	m.categoryChanges.WithLabelValues(category).Inc()
}

// JobStarted increments the running jobs gauge.
func (m *Manager) JobStarted() {
	m.jobsRunning.Inc()
}

// JobFinished decrements the running jobs gauge.
func (m *Manager) JobFinished() {
	m.jobsRunning.Dec()
}

// FetchRetried records a provider fetch retry for a category.
func (m *Manager) FetchRetried(category string) {
	m.fetchRetries.WithLabelValues(category).Inc()
}

// NotifyFailed records a failed cache invalidation call.
func (m *Manager) NotifyFailed() {
	m.notifyFailures.Inc()
}
