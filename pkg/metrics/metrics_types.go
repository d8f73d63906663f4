package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Graph mirror metrics
	GraphOperationsTotal   *prometheus.CounterVec
	GraphOperationDuration *prometheus.HistogramVec
	GraphDegradedTotal     *prometheus.CounterVec

	// Analysis metrics
	TraversalsTotal   *prometheus.CounterVec
	TraversalTreeSize *prometheus.HistogramVec
	SPOFsDetected     *prometheus.GaugeVec
	CascadeSeverities *prometheus.CounterVec

	// Simulation metrics
	SimulationsTotal     *prometheus.CounterVec
	SimulationDuration   prometheus.Histogram
	SimulationIterations prometheus.Histogram

	// System Metrics
	UptimeSeconds prometheus.Gauge
	GoRoutines    prometheus.Gauge

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initHTTPMetrics()
	r.initGraphMetrics()
	r.initAnalysisMetrics()
	r.initSimulationMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
