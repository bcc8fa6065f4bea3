// Package metrics defines the Prometheus collectors used by wordbot and
// exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the bot.
type Metrics struct {
	registry *prometheus.Registry

	CyclesTotal         *prometheus.CounterVec
	CycleDuration       prometheus.Histogram
	WordsRemaining      prometheus.Gauge
	WordsPosted         prometheus.Gauge
	PublishFailures     *prometheus.CounterVec
	LedgerWritesTotal   *prometheus.CounterVec
	CircuitBreakerState *prometheus.GaugeVec

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

// New creates all collectors on a private registry, so several instances can
// coexist in one process (tests, subcommands).
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wordbot_cycles_total",
				Help: "Cycles by outcome (posted, exhausted, persistence_failed, publish_failed, skipped).",
			},
			[]string{"outcome"},
		),
		CycleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wordbot_cycle_duration_seconds",
				Help:    "Wall time of one draw-record-publish cycle.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
		WordsRemaining: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "wordbot_words_remaining",
				Help: "Corpus words not yet posted.",
			},
		),
		WordsPosted: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "wordbot_words_posted",
				Help: "Corpus words recorded in the ledger.",
			},
		),
		PublishFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wordbot_publish_failures_total",
				Help: "Publish failures by stage (render, upload, post, breaker, timeout).",
			},
			[]string{"stage"},
		),
		LedgerWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wordbot_ledger_writes_total",
				Help: "Ledger record operations by status.",
			},
			[]string{"status"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wordbot_circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wordbot_ops_http_requests_total",
				Help: "Ops server requests by method, route and status code.",
			},
			[]string{"method", "route", "code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wordbot_ops_http_request_duration_seconds",
				Help:    "Ops server request latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "wordbot_ops_http_requests_in_flight",
				Help: "Ops server requests currently being served.",
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.CyclesTotal,
		m.CycleDuration,
		m.WordsRemaining,
		m.WordsPosted,
		m.PublishFailures,
		m.LedgerWritesTotal,
		m.CircuitBreakerState,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
	)

	return m
}

// ObserveCycle records the outcome and duration of one cycle.
func (m *Metrics) ObserveCycle(outcome string, elapsed time.Duration) {
	m.CyclesTotal.WithLabelValues(outcome).Inc()
	m.CycleDuration.Observe(elapsed.Seconds())
}

// SetProgress publishes the selector's remaining/posted split.
func (m *Metrics) SetProgress(remaining, posted int) {
	m.WordsRemaining.Set(float64(remaining))
	m.WordsPosted.Set(float64(posted))
}

// Registry exposes the underlying registry for tests and custom collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus scrape HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
