// Package metrics exposes Prometheus counters for the HTTP API and the
// suggestion lifecycle.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's collectors on a private registry.
type Metrics struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	suggestions *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "compendium",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "code"}),
		suggestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "compendium",
			Name:      "suggestion_events_total",
			Help:      "Suggestion lifecycle events by kind.",
		}, []string{"event"}),
	}
	m.registry.MustRegister(
		m.requests,
		m.suggestions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRequest counts one served request.
func (m *Metrics) ObserveRequest(route string, status int) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// SuggestionEvent counts a lifecycle event such as "submitted" or "approved".
func (m *Metrics) SuggestionEvent(event string) {
	if m == nil {
		return
	}
	m.suggestions.WithLabelValues(event).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
