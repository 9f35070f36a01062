// Package metrics exposes prometheus instrumentation for voter-data calls
// and path-to-victory passes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "victory"

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	voterRequests   *prometheus.CounterVec
	passes          *prometheus.CounterVec
	passDuration    prometheus.Histogram
	queueMessages   *prometheus.CounterVec
	viabilityScores *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		voterRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voterdata_requests_total",
			Help:      "Voter-file API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "p2v_passes_total",
			Help:      "Path-to-victory orchestration passes by resulting status.",
		}, []string{"status"}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "p2v_pass_duration_seconds",
			Help:      "Wall time of one orchestration pass.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		queueMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_messages_total",
			Help:      "Trigger messages consumed by outcome.",
		}, []string{"outcome"}),
		viabilityScores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "viability_scores_total",
			Help:      "Viability score requests by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.voterRequests,
		m.passes,
		m.passDuration,
		m.queueMessages,
		m.viabilityScores,
	)
	return m
}

// ObserveRequest records one voter-file API call.
func (m *Metrics) ObserveRequest(endpoint, outcome string) {
	m.voterRequests.WithLabelValues(endpoint, outcome).Inc()
}

// ObservePass records the outcome and duration of one orchestration pass.
func (m *Metrics) ObservePass(status string, d time.Duration) {
	m.passes.WithLabelValues(status).Inc()
	m.passDuration.Observe(d.Seconds())
}

// ObserveMessage records the outcome of one consumed trigger message.
func (m *Metrics) ObserveMessage(outcome string) {
	m.queueMessages.WithLabelValues(outcome).Inc()
}

// ObserveViability records one viability scoring call.
func (m *Metrics) ObserveViability(outcome string) {
	m.viabilityScores.WithLabelValues(outcome).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
