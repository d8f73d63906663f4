package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	if r.HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal not initialized")
	}
	if r.GraphOperationsTotal == nil {
		t.Error("GraphOperationsTotal not initialized")
	}
	if r.GraphDegradedTotal == nil {
		t.Error("GraphDegradedTotal not initialized")
	}
	if r.SimulationsTotal == nil {
		t.Error("SimulationsTotal not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	if DefaultRegistry() != DefaultRegistry() {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordGraphOperation(t *testing.T) {
	r := NewRegistry()

	r.RecordGraphOperation("upsert_node", StatusOK, 10*time.Millisecond)
	r.RecordGraphOperation("upsert_node", StatusOK, 20*time.Millisecond)
	r.RecordGraphOperation("upsert_node", StatusDegraded, 5*time.Millisecond)

	ok, err := r.GraphOperationsTotal.GetMetricWithLabelValues("upsert_node", StatusOK)
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if v := counterValue(t, ok); v != 2 {
		t.Errorf("ok counter = %v, want 2", v)
	}

	degraded, _ := r.GraphOperationsTotal.GetMetricWithLabelValues("upsert_node", StatusDegraded)
	if v := counterValue(t, degraded); v != 1 {
		t.Errorf("degraded counter = %v, want 1", v)
	}
}

func TestRecordDegraded(t *testing.T) {
	r := NewRegistry()
	r.RecordDegraded("query", "unavailable")

	c, _ := r.GraphDegradedTotal.GetMetricWithLabelValues("query", "unavailable")
	if v := counterValue(t, c); v != 1 {
		t.Errorf("degraded = %v, want 1", v)
	}
}

func TestRecordSimulation_ErrorSkipsHistograms(t *testing.T) {
	r := NewRegistry()
	r.RecordSimulation(StatusError, 10000, time.Second)
	r.RecordSimulation(StatusOK, 10000, time.Millisecond)

	var metric dto.Metric
	if err := r.SimulationIterations.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 1 {
		t.Errorf("iterations sample count = %d, want 1", metric.Histogram.GetSampleCount())
	}
}

func TestSetSPOFCount(t *testing.T) {
	r := NewRegistry()
	r.SetSPOFCount("acme", 3)

	gauge, _ := r.SPOFsDetected.GetMetricWithLabelValues("acme")
	var metric dto.Metric
	if err := gauge.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() != 3 {
		t.Errorf("SPOF gauge = %v, want 3", metric.Gauge.GetValue())
	}
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	r.RecordCascade("CRITICAL")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if !strings.Contains(rec.Body.String(), `continuity_cascade_severity_total{severity="CRITICAL"} 1`) {
		t.Errorf("cascade counter missing from exposition:\n%s", rec.Body.String())
	}
}
