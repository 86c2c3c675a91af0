// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "invoice_analyzer"

// Document outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics is a set of collectors bound to its own registry
type Metrics struct {
	registry *prometheus.Registry

	documents       *prometheus.CounterVec
	matches         *prometheus.CounterVec
	droppedItems    prometheus.Counter
	requestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Invoice documents processed, by outcome.",
		}, []string{"outcome"}),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_total",
			Help:      "Price observations resolved against the reference list, by method.",
		}, []string{"method"}),
		droppedItems: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_line_items_total",
			Help:      "Line items left out of a breakdown because of an unknown category.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5, 15, 30, 60, 120},
		}, []string{"method", "path", "status"}),
	}

	m.registry.MustRegister(
		m.documents,
		m.matches,
		m.droppedItems,
		m.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveDocument counts one processed document
func (m *Metrics) ObserveDocument(success bool) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if !success {
		outcome = OutcomeFailure
	}
	m.documents.WithLabelValues(outcome).Inc()
}

// ObserveMatches adds n resolutions for method
func (m *Metrics) ObserveMatches(method string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.matches.WithLabelValues(method).Add(float64(n))
}

// ObserveDroppedItems adds n dropped line items
func (m *Metrics) ObserveDroppedItems(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.droppedItems.Add(float64(n))
}

// ObserveRequest records one HTTP request
func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
