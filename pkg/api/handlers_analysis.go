package api

import (
	"net/http"
	"time"

	"github.com/dd0wney/cluso-continuity/pkg/health"
	"github.com/dd0wney/cluso-continuity/pkg/scoring"
	"github.com/dd0wney/cluso-continuity/pkg/simulation"
	"github.com/dd0wney/cluso-continuity/pkg/validation"
)

// handleSPOFs serves GET /v1/spof.
func (s *Server) handleSPOFs(w http.ResponseWriter, r *http.Request) {
	spofs, err := s.spof.FindSinglePointsOfFailure(r.Context(), tenantOf(r))
	if err != nil {
		s.respondErr(w, r, "find spofs", err)
		return
	}
	s.respondJSON(w, http.StatusOK, spofs)
}

// handleSPOFAnalysis serves GET /v1/spof/analysis.
func (s *Server) handleSPOFAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis, err := s.spof.AnalyzeSPOF(r.Context(), tenantOf(r))
	if err != nil {
		s.respondErr(w, r, "analyze spofs", err)
		return
	}
	s.respondJSON(w, http.StatusOK, analysis)
}

// handleScoreRisk serves POST /v1/risks/score.
func (s *Server) handleScoreRisk(w http.ResponseWriter, r *http.Request) {
	var req validation.ScoreRequest
	if s.newRequestDecoder(w, r).DecodeJSON(&req).Validate(&req).RespondError() {
		return
	}

	assessment, err := s.scoring.Assess(scoring.RiskInput{
		Probability:            req.Probability,
		Impact:                 req.Impact,
		Category:               req.Category,
		PostControlProbability: req.PostControlProbability,
		PostControlImpact:      req.PostControlImpact,
	})
	if err != nil {
		s.respondErr(w, r, "score risk", err)
		return
	}

	resp := ScoreResponse{Assessment: assessment}
	if req.RTO != nil || req.FinancialImpact != nil || req.OperationalImpact != nil {
		in := scoring.PriorityInput{RTOHours: req.RTO}
		if req.FinancialImpact != nil {
			amount := float64(*req.FinancialImpact)
			in.FinancialImpact = &amount
		}
		if req.OperationalImpact != nil {
			in.OperationalImpact = *req.OperationalImpact
		}
		prio := s.scoring.PriorityScore(in)
		resp.Priority = &prio
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleSimulateRisk serves POST /v1/risks/{id}/simulate.
func (s *Server) handleSimulateRisk(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDParam(r)
	if err != nil {
		s.respondErr(w, r, "simulate risk", err)
		return
	}
	var req validation.SimulationRequest
	if s.newRequestDecoder(w, r).DecodeJSON(&req).Validate(&req).RespondError() {
		return
	}

	exposure, err := s.analytics.RiskExposure(r.Context(), tenantOf(r), id, req.Iterations, simulation.Params{
		ImpactMin:      req.ImpactMin,
		ImpactMost:     req.ImpactMost,
		ImpactMax:      req.ImpactMax,
		ProbabilityMin: req.ProbabilityMin,
		ProbabilityMax: req.ProbabilityMax,
		Seed:           req.Seed,
		Workers:        req.Workers,
	})
	if err != nil {
		s.respondErr(w, r, "simulate risk", err)
		return
	}
	s.respondJSON(w, http.StatusOK, exposure)
}

// handleSummary serves GET /v1/analytics/summary.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.analytics.Summary(r.Context(), tenantOf(r))
	if err != nil {
		s.respondErr(w, r, "analytics summary", err)
		return
	}
	s.respondJSON(w, http.StatusOK, summary)
}

// handleProcessPriority serves GET /v1/processes/{id}/priority.
func (s *Server) handleProcessPriority(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDParam(r)
	if err != nil {
		s.respondErr(w, r, "process priority", err)
		return
	}
	prio, err := s.analytics.ProcessPriority(r.Context(), tenantOf(r), id)
	if err != nil {
		s.respondErr(w, r, "process priority", err)
		return
	}
	s.respondJSON(w, http.StatusOK, prio)
}

// handleHealth serves GET /health. The service stays up when a backend is
// unreachable, so degraded and unhealthy reports still answer 200.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	resp := HealthResponse{
		Status:    report.Status,
		Graph:     "up",
		Version:   s.cfg.Version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Timestamp: report.Timestamp.Unix(),
		Checks:    report.Checks,
	}
	if c, ok := report.Checks[GraphCheckName]; ok && c.Status != health.StatusHealthy {
		resp.Graph = "down"
	}
	s.respondJSON(w, http.StatusOK, resp)
}
