package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks service call metrics
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests   *prometheus.CounterVec
	HTTPLatency    *prometheus.HistogramVec
	AssistantCalls *prometheus.CounterVec
	PreviewRenders *prometheus.CounterVec
	ProjectEvents  *prometheus.CounterVec
}

// New creates a metrics set on its own registry so tests never collide with
// the global default registerer.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quantumcode",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "quantumcode",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		AssistantCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quantumcode",
			Name:      "assistant_calls_total",
			Help:      "Assistant provider calls by intent and outcome.",
		}, []string{"intent", "outcome"}),
		PreviewRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quantumcode",
			Name:      "preview_renders_total",
			Help:      "Preview documents rendered by entry kind.",
		}, []string{"kind"}),
		ProjectEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quantumcode",
			Name:      "project_events_published_total",
			Help:      "Project change events published by type.",
		}, []string{"type"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPLatency,
		m.AssistantCalls,
		m.PreviewRenders,
		m.ProjectEvents,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
