// Package app wires the continuity engines from a config.Config.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-continuity/pkg/analytics"
	"github.com/dd0wney/cluso-continuity/pkg/api"
	"github.com/dd0wney/cluso-continuity/pkg/cascade"
	"github.com/dd0wney/cluso-continuity/pkg/catalog"
	"github.com/dd0wney/cluso-continuity/pkg/config"
	"github.com/dd0wney/cluso-continuity/pkg/dependency"
	"github.com/dd0wney/cluso-continuity/pkg/graph"
	"github.com/dd0wney/cluso-continuity/pkg/graph/memstore"
	"github.com/dd0wney/cluso-continuity/pkg/graph/neo4jstore"
	"github.com/dd0wney/cluso-continuity/pkg/health"
	"github.com/dd0wney/cluso-continuity/pkg/logging"
	"github.com/dd0wney/cluso-continuity/pkg/metrics"
	"github.com/dd0wney/cluso-continuity/pkg/mirror"
	"github.com/dd0wney/cluso-continuity/pkg/scoring"
	"github.com/dd0wney/cluso-continuity/pkg/simulation"
	"github.com/dd0wney/cluso-continuity/pkg/spof"
)

// App holds every wired component.
type App struct {
	Config     *config.Config
	Logger     logging.Logger
	Metrics    *metrics.Registry
	Store      graph.Store
	Graph      *mirror.Adapter
	Resolver   *dependency.Resolver
	SPOF       *spof.Detector
	Cascade    *cascade.Calculator
	Scoring    *scoring.Engine
	Simulation *simulation.Engine
	Catalog    catalog.Source
	Analytics  *analytics.Aggregator
	Health     *health.Checker

	pg *catalog.PGCounter
}

// New opens the configured graph backend and catalog and builds the engines.
// A nil registry uses metrics.DefaultRegistry.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger, reg *metrics.Registry) (*App, error) {
	logger = logging.OrDefault(logger)
	if reg == nil {
		reg = metrics.DefaultRegistry()
	}

	store, err := openStore(ctx, cfg.Graph, logger)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger, Metrics: reg, Store: store}
	a.Graph = mirror.New(store, cfg.Graph.Mirror, logger, reg)
	a.Resolver = dependency.NewResolver(a.Graph).WithDefaultDepth(cfg.Graph.DefaultDepth)
	a.Scoring = scoring.NewEngine(cfg.Scoring)
	a.SPOF = spof.NewDetector(a.Graph, logger, reg)
	a.Cascade = cascade.NewCalculator(a.Resolver, cfg.Scoring.Cascade, cfg.Graph.DefaultDepth, logger, reg)
	a.Simulation = simulation.NewEngine(cfg.Simulation, logger, reg)

	if dsn := cfg.Catalog.Postgres.DSN; dsn != "" {
		pg, err := catalog.NewPGCounter(ctx, cfg.Catalog.Postgres)
		if err != nil {
			store.Close(ctx)
			return nil, fmt.Errorf("failed to open catalog: %w", err)
		}
		a.pg = pg
		a.Catalog = pg
		logger.Info("catalog counts from postgres")
	} else {
		a.Catalog = catalog.NewGraphCounter(a.Graph)
		logger.Info("catalog counts derived from graph")
	}

	a.Analytics = analytics.NewAggregator(analytics.Deps{
		Catalog:    a.Catalog,
		Graph:      a.Graph,
		SPOF:       a.SPOF,
		Cascade:    a.Cascade,
		Simulation: a.Simulation,
		Scoring:    a.Scoring,
		Logger:     logger,
	})

	a.Health = health.NewChecker(0)
	api.GraphChecks(a.Health, a.Graph)
	if a.pg != nil {
		a.Health.Register("catalog", health.Ping("catalog", a.pg.Ping, health.StatusDegraded))
		a.Health.RegisterReadiness("catalog", health.Ping("catalog", a.pg.Ping, health.StatusUnhealthy))
	}
	return a, nil
}

func openStore(ctx context.Context, cfg config.GraphConfig, logger logging.Logger) (graph.Store, error) {
	switch cfg.Backend {
	case config.BackendNeo4j:
		s, err := neo4jstore.New(ctx, cfg.Neo4j)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to neo4j: %w", err)
		}
		if err := s.EnsureSchema(ctx); err != nil {
			s.Close(ctx)
			return nil, fmt.Errorf("failed to ensure neo4j schema: %w", err)
		}
		logger.Info("graph backend ready", logging.String("backend", cfg.Backend), logging.String("uri", cfg.Neo4j.URI))
		return s, nil
	case config.BackendMemory, "":
		logger.Info("graph backend ready", logging.String("backend", config.BackendMemory))
		return memstore.New(), nil
	}
	return nil, fmt.Errorf("%w: unknown graph backend %q", graph.ErrInvalidArgument, cfg.Backend)
}

// APIServer builds the HTTP API over the wired engines.
func (a *App) APIServer(version string) *api.Server {
	return api.NewServer(api.Config{
		DefaultTenant: a.Config.Server.DefaultTenant,
		Version:       version,
	}, api.Deps{
		Graph:     a.Graph,
		Resolver:  a.Resolver,
		SPOF:      a.SPOF,
		Cascade:   a.Cascade,
		Scoring:   a.Scoring,
		Analytics: a.Analytics,
		Metrics:   a.Metrics,
		Logger:    a.Logger,
		Health:    a.Health,
	})
}

// Close releases the catalog pool and the graph backend.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.pg != nil {
		errs = append(errs, a.pg.Close())
	}
	errs = append(errs, a.Store.Close(ctx))
	return errors.Join(errs...)
}
