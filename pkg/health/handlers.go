package health

import (
	"encoding/json"
	"net/http"
)

// ReadinessHandler serves the readiness checks: 200 only when all are healthy.
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeBinary(w, c.Readiness(r.Context()))
	}
}

// LivenessHandler serves the liveness checks: 200 only when all are healthy.
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeBinary(w, c.Liveness(r.Context()))
	}
}

func writeBinary(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	if resp.Status == StatusHealthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(resp)
}
