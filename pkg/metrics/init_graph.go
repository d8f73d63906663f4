package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.GraphOperationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "continuity_graph_operations_total",
			Help: "Total number of graph mirror operations",
		},
		[]string{"operation", "status"},
	)

	r.GraphOperationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "continuity_graph_operation_duration_seconds",
			Help:    "Graph mirror operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"operation"},
	)

	r.GraphDegradedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "continuity_graph_degraded_total",
			Help: "Graph operations answered with a neutral default because the store failed",
		},
		[]string{"operation", "reason"},
	)
}

func (r *Registry) initAnalysisMetrics() {
	r.TraversalsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "continuity_traversals_total",
			Help: "Total number of dependency traversals",
		},
		[]string{"direction", "status"},
	)

	r.TraversalTreeSize = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "continuity_traversal_tree_size",
			Help:    "Number of entries in traversal results",
			Buckets: []float64{1, 5, 10, 50, 100, 1000, 10000},
		},
		[]string{"direction"},
	)

	r.SPOFsDetected = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "continuity_spofs_detected",
			Help: "Single points of failure found by the last scan per tenant",
		},
		[]string{"tenant"},
	)

	r.CascadeSeverities = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "continuity_cascade_severity_total",
			Help: "Impact cascade results by severity",
		},
		[]string{"severity"},
	)
}

func (r *Registry) initSimulationMetrics() {
	r.SimulationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "continuity_simulations_total",
			Help: "Total number of Monte Carlo simulations",
		},
		[]string{"status"},
	)

	r.SimulationDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "continuity_simulation_duration_seconds",
			Help:    "Monte Carlo simulation duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
	)

	r.SimulationIterations = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "continuity_simulation_iterations",
			Help:    "Iterations requested per simulation",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000},
		},
	)
}
