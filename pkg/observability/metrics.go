package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for research runs.
type Metrics struct {
	gatherer prometheus.Gatherer

	runs          *prometheus.CounterVec
	stepDuration  *prometheus.HistogramVec
	searchCache   *prometheus.CounterVec
	snapshotFails prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
// Passing a *prometheus.Registry also makes it the source for Handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		gatherer: prometheus.DefaultGatherer,
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espalier_runs_total",
				Help: "Total number of finished research runs",
			},
			[]string{"status"},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "espalier_step_duration_seconds",
				Help:    "Duration of workflow steps",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"step", "status"},
		),
		searchCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espalier_search_cache_total",
				Help: "Search cache lookups by result",
			},
			[]string{"result"},
		),
		snapshotFails: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "espalier_snapshot_failures_total",
				Help: "Snapshots that could not be persisted",
			},
		),
	}
	reg.MustRegister(m.runs, m.stepDuration, m.searchCache, m.snapshotFails)
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// Hooks records run outcomes and step durations.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunComplete: func(_ context.Context, e *domain.RunEvent) {
			m.runs.WithLabelValues(string(e.Status)).Inc()
		},
		OnStepComplete: func(_ context.Context, e *domain.StepEvent) {
			status := string(domain.StatusCompleted)
			if e.Failed() {
				status = string(domain.StatusFailed)
			}
			m.stepDuration.WithLabelValues(e.Step, status).Observe(e.Duration.Seconds())
		},
	}
}

// ObserveCache counts a search cache lookup ("hit", "miss" or "error").
func (m *Metrics) ObserveCache(result string) {
	m.searchCache.WithLabelValues(result).Inc()
}

// SnapshotFailed counts a snapshot that could not be saved.
func (m *Metrics) SnapshotFailed(domain.Snapshot, error) {
	m.snapshotFails.Inc()
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
