package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the server.
type Metrics struct {
	registry *prometheus.Registry

	RunsStarted  *prometheus.CounterVec
	RunsFinished *prometheus.CounterVec
	RunsActive   prometheus.Gauge
	Iterations   *prometheus.HistogramVec
	Rejected     *prometheus.CounterVec
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		RunsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rootfind_runs_started_total",
				Help: "Runs started, by method",
			},
			[]string{"method"},
		),
		RunsFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rootfind_runs_finished_total",
				Help: "Runs finished, by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		RunsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "rootfind_runs_active",
				Help: "Runs currently iterating",
			},
		),
		Iterations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rootfind_run_iterations",
				Help:    "Iterations per finished run",
				Buckets: prometheus.ExponentialBuckets(1, 2, 14),
			},
			[]string{"method"},
		),
		Rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rootfind_requests_rejected_total",
				Help: "Start requests rejected, by reason",
			},
			[]string{"reason"},
		),
	}

	m.registry.MustRegister(
		m.RunsStarted,
		m.RunsFinished,
		m.RunsActive,
		m.Iterations,
		m.Rejected,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry, mainly for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
