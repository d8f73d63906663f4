// Package api exposes the continuity engines over HTTP. Every /v1 route is
// tenant scoped through the X-Tenant-ID header.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dd0wney/cluso-continuity/pkg/analytics"
	"github.com/dd0wney/cluso-continuity/pkg/api/middleware"
	"github.com/dd0wney/cluso-continuity/pkg/cascade"
	"github.com/dd0wney/cluso-continuity/pkg/dependency"
	"github.com/dd0wney/cluso-continuity/pkg/health"
	"github.com/dd0wney/cluso-continuity/pkg/logging"
	"github.com/dd0wney/cluso-continuity/pkg/metrics"
	"github.com/dd0wney/cluso-continuity/pkg/mirror"
	"github.com/dd0wney/cluso-continuity/pkg/scoring"
	"github.com/dd0wney/cluso-continuity/pkg/spof"
	"github.com/dd0wney/cluso-continuity/pkg/tenant"
)

// DefaultMaxBodyBytes bounds request bodies when Config leaves it unset.
const DefaultMaxBodyBytes = 1 << 20

// Config holds HTTP-level settings.
type Config struct {
	DefaultTenant string
	MaxBodyBytes  int64
	Version       string
}

// Deps bundles the engines served by the API.
type Deps struct {
	Graph     *mirror.Adapter
	Resolver  *dependency.Resolver
	SPOF      *spof.Detector
	Cascade   *cascade.Calculator
	Scoring   *scoring.Engine
	Analytics *analytics.Aggregator
	Metrics   *metrics.Registry
	Logger    logging.Logger
	// Health defaults to GraphChecks over Graph.
	Health *health.Checker
}

// Server represents the HTTP API server
type Server struct {
	cfg       Config
	graph     *mirror.Adapter
	resolver  *dependency.Resolver
	spof      *spof.Detector
	cascade   *cascade.Calculator
	scoring   *scoring.Engine
	analytics *analytics.Aggregator
	metrics   *metrics.Registry
	health    *health.Checker
	logger    logging.Logger
	startTime time.Time
}

// NewServer creates a server over deps.
func NewServer(cfg Config, deps Deps) *Server {
	if cfg.DefaultTenant == "" {
		cfg.DefaultTenant = tenant.DefaultTenantID
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	reg := deps.Metrics
	if reg == nil {
		reg = metrics.DefaultRegistry()
	}
	hc := deps.Health
	if hc == nil {
		hc = health.NewChecker(0)
		GraphChecks(hc, deps.Graph)
	}
	return &Server{
		cfg:       cfg,
		graph:     deps.Graph,
		resolver:  deps.Resolver,
		spof:      deps.SPOF,
		cascade:   deps.Cascade,
		scoring:   deps.Scoring,
		analytics: deps.Analytics,
		metrics:   reg,
		health:    hc,
		logger:    logging.OrDefault(deps.Logger).With(logging.Component("api")),
		startTime: time.Now(),
	}
}

// GraphCheckName keys the graph backend probe in health responses.
const GraphCheckName = "graph"

// GraphChecks registers the graph backend probe: degraded on the overall
// report, unhealthy for readiness. Liveness only tracks the process.
func GraphChecks(hc *health.Checker, g *mirror.Adapter) {
	hc.Register(GraphCheckName, health.Ping(GraphCheckName, g.Ping, health.StatusDegraded))
	hc.RegisterReadiness(GraphCheckName, health.Ping(GraphCheckName, g.Ping, health.StatusUnhealthy))
	hc.RegisterLiveness("memory", health.Memory(0))
}

// Router builds the route table and middleware chain.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(
		middleware.PanicRecovery(s.logger),
		middleware.RequestID(),
		middleware.Logging(s.logger),
		s.metricsMiddleware,
	)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/health/ready", s.health.ReadinessHandler()).Methods(http.MethodGet)
	r.HandleFunc("/health/live", s.health.LivenessHandler()).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(middleware.BodySizeLimit(s.cfg.MaxBodyBytes), s.withTenant)

	v1.HandleFunc("/nodes/{id}", s.handleUpsertNode).Methods(http.MethodPut)
	v1.HandleFunc("/nodes/{id}", s.handleDeleteNode).Methods(http.MethodDelete)
	v1.HandleFunc("/nodes/{id}/dependencies", s.handleDependencies).Methods(http.MethodGet)
	v1.HandleFunc("/nodes/{id}/impact", s.handleImpact).Methods(http.MethodGet)
	v1.HandleFunc("/nodes/{id}/cascade", s.handleCascade).Methods(http.MethodGet)
	v1.HandleFunc("/edges", s.handleCreateEdge).Methods(http.MethodPost)

	v1.HandleFunc("/spof", s.handleSPOFs).Methods(http.MethodGet)
	v1.HandleFunc("/spof/analysis", s.handleSPOFAnalysis).Methods(http.MethodGet)

	v1.HandleFunc("/risks/score", s.handleScoreRisk).Methods(http.MethodPost)
	v1.HandleFunc("/risks/{id}/simulate", s.handleSimulateRisk).Methods(http.MethodPost)

	v1.HandleFunc("/analytics/summary", s.handleSummary).Methods(http.MethodGet)
	v1.HandleFunc("/processes/{id}/priority", s.handleProcessPriority).Methods(http.MethodGet)

	return r
}

// NewHTTPServer wraps the router in an http.Server bound to addr.
func (s *Server) NewHTTPServer(addr string, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

// RunSystemMetrics refreshes uptime and goroutine gauges every interval until
// ctx is done.
func (s *Server) RunSystemMetrics(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	s.metrics.UpdateSystemMetrics(s.startTime)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.metrics.UpdateSystemMetrics(s.startTime)
		}
	}
}
