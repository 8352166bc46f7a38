// Package metrics exposes Prometheus metrics for ranking computations, the
// HTTP API and the queue worker.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Computation outcomes
const (
	StatusConverged    = "converged"
	StatusNotConverged = "not_converged"
	StatusError        = "error"
)

// Registry holds all metrics for the application. A nil *Registry is valid
// and records nothing.
type Registry struct {
	registry *prometheus.Registry

	// Computation Metrics
	ComputationsTotal   *prometheus.CounterVec
	ComputationDuration prometheus.Histogram
	Iterations          prometheus.Histogram
	GraphNodes          prometheus.Histogram

	// HTTP Metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Queue Metrics
	JobsTotal *prometheus.CounterVec
}

// NewRegistry creates a registry with every metric registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{registry: reg}

	r.initComputationMetrics()
	r.initHTTPMetrics()
	r.initQueueMetrics()
	return r
}

func (r *Registry) initComputationMetrics() {
	r.ComputationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagerank_computations_total",
			Help: "Total number of PageRank computations by outcome",
		},
		[]string{"status"},
	)

	r.ComputationDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pagerank_computation_duration_seconds",
			Help:    "PageRank computation duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 30.0},
		},
	)

	r.Iterations = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pagerank_iterations",
			Help:    "Power iterations performed per computation",
			Buckets: []float64{1, 5, 10, 20, 50, 100, 500, 1000},
		},
	)

	r.GraphNodes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pagerank_graph_nodes",
			Help:    "Number of nodes per ranked graph",
			Buckets: []float64{10, 100, 500, 1000, 5000, 10000},
		},
	)
}

func (r *Registry) initHTTPMetrics() {
	r.HTTPRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagerank_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	r.HTTPRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pagerank_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
}

func (r *Registry) initQueueMetrics() {
	r.JobsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagerank_jobs_total",
			Help: "Total number of queue jobs by outcome",
		},
		[]string{"status"},
	)
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// RecordComputation records one ranking run.
func (r *Registry) RecordComputation(status string, duration time.Duration, iterations, nodes int) {
	if r == nil {
		return
	}
	r.ComputationsTotal.WithLabelValues(status).Inc()
	r.ComputationDuration.Observe(duration.Seconds())
	if status != StatusError {
		r.Iterations.Observe(float64(iterations))
		r.GraphNodes.Observe(float64(nodes))
	}
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if r == nil {
		return
	}
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordJob records the outcome of a queue job.
func (r *Registry) RecordJob(status string) {
	if r == nil {
		return
	}
	r.JobsTotal.WithLabelValues(status).Inc()
}

// ComputationStatus maps a ranking outcome to its status label.
func ComputationStatus(converged bool, err error) string {
	switch {
	case err != nil:
		return StatusError
	case converged:
		return StatusConverged
	default:
		return StatusNotConverged
	}
}
