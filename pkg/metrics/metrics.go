package metrics

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status label values
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusDegraded = "degraded"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordGraphOperation records a graph mirror operation
func (r *Registry) RecordGraphOperation(operation, status string, duration time.Duration) {
	r.GraphOperationsTotal.WithLabelValues(operation, status).Inc()
	r.GraphOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordDegraded counts an operation answered with a neutral default
func (r *Registry) RecordDegraded(operation, reason string) {
	r.GraphDegradedTotal.WithLabelValues(operation, reason).Inc()
}

// RecordTraversal records a dependency traversal and its result size
func (r *Registry) RecordTraversal(direction, status string, treeSize int) {
	r.TraversalsTotal.WithLabelValues(direction, status).Inc()
	if status == StatusOK {
		r.TraversalTreeSize.WithLabelValues(direction).Observe(float64(treeSize))
	}
}

// SetSPOFCount publishes the SPOF count of the last scan for a tenant
func (r *Registry) SetSPOFCount(tenantID string, n int) {
	r.SPOFsDetected.WithLabelValues(tenantID).Set(float64(n))
}

// RecordCascade counts a cascade result by severity
func (r *Registry) RecordCascade(severity string) {
	r.CascadeSeverities.WithLabelValues(severity).Inc()
}

// RecordSimulation records a Monte Carlo run
func (r *Registry) RecordSimulation(status string, iterations int, duration time.Duration) {
	r.SimulationsTotal.WithLabelValues(status).Inc()
	if status == StatusOK {
		r.SimulationIterations.Observe(float64(iterations))
		r.SimulationDuration.Observe(duration.Seconds())
	}
}

// UpdateSystemMetrics refreshes uptime and goroutine gauges
func (r *Registry) UpdateSystemMetrics(startTime time.Time) {
	r.UptimeSeconds.Set(time.Since(startTime).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
}

// Handler exposes the registry in the Prometheus text format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
