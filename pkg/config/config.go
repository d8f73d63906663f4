// Package config loads the daemon configuration from a YAML file, applies
// CONTINUITY_* environment overrides and validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-continuity/pkg/catalog"
	"github.com/dd0wney/cluso-continuity/pkg/graph"
	"github.com/dd0wney/cluso-continuity/pkg/graph/neo4jstore"
	"github.com/dd0wney/cluso-continuity/pkg/logging"
	"github.com/dd0wney/cluso-continuity/pkg/mirror"
	"github.com/dd0wney/cluso-continuity/pkg/scoring"
	"github.com/dd0wney/cluso-continuity/pkg/simulation"
	"github.com/dd0wney/cluso-continuity/pkg/tenant"
	"github.com/dd0wney/cluso-continuity/pkg/validation"
)

// Graph backends.
const (
	BackendMemory = "memory"
	BackendNeo4j  = "neo4j"
)

// Config is the complete daemon configuration.
type Config struct {
	Server     ServerConfig       `yaml:"server"`
	Graph      GraphConfig        `yaml:"graph"`
	Catalog    CatalogConfig      `yaml:"catalog"`
	Simulation simulation.Config  `yaml:"simulation"`
	Scoring    scoring.Thresholds `yaml:"scoring"`
	Logging    LoggingConfig      `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	DefaultTenant   string        `yaml:"default_tenant"`
}

// GraphConfig selects and bounds the graph backend.
type GraphConfig struct {
	Backend      string            `yaml:"backend"`
	DefaultDepth int               `yaml:"default_depth"`
	Mirror       mirror.Config     `yaml:"mirror"`
	Neo4j        neo4jstore.Config `yaml:"neo4j"`
}

// CatalogConfig points at the collaborator store. An empty DSN derives
// counts from the graph instead.
type CatalogConfig struct {
	Postgres catalog.PGConfig `yaml:"postgres"`
}

// LoggingConfig sets the log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns a configuration that runs entirely in memory.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			DefaultTenant:   tenant.DefaultTenantID,
		},
		Graph: GraphConfig{
			Backend:      BackendMemory,
			DefaultDepth: graph.DefaultDepth,
			Mirror: mirror.Config{
				MaxDepth:  graph.DefaultMaxDepth,
				TreeLimit: graph.DefaultTreeLimit,
			},
			Neo4j: neo4jstore.Config{
				URI:            "neo4j://localhost:7687",
				Username:       "neo4j",
				Database:       "neo4j",
				ConnectTimeout: 5 * time.Second,
			},
		},
		Simulation: simulation.DefaultConfig(),
		Scoring:    scoring.DefaultThresholds(),
		Logging:    LoggingConfig{Level: "info"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		cfg.Scoring.NormalizeCategories()
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays CONTINUITY_* variables.
func (c *Config) applyEnv() error {
	str := map[string]*string{
		"CONTINUITY_ADDR":           &c.Server.Addr,
		"CONTINUITY_DEFAULT_TENANT": &c.Server.DefaultTenant,
		"CONTINUITY_GRAPH_BACKEND":  &c.Graph.Backend,
		"CONTINUITY_NEO4J_URI":      &c.Graph.Neo4j.URI,
		"CONTINUITY_NEO4J_USERNAME": &c.Graph.Neo4j.Username,
		"CONTINUITY_NEO4J_PASSWORD": &c.Graph.Neo4j.Password,
		"CONTINUITY_NEO4J_DATABASE": &c.Graph.Neo4j.Database,
		"CONTINUITY_DATABASE_URL":   &c.Catalog.Postgres.DSN,
		logging.LevelEnvVar:         &c.Logging.Level,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"CONTINUITY_MAX_DEPTH":          &c.Graph.Mirror.MaxDepth,
		"CONTINUITY_DEFAULT_DEPTH":      &c.Graph.DefaultDepth,
		"CONTINUITY_MAX_ITERATIONS":     &c.Simulation.MaxIterations,
		"CONTINUITY_SIMULATION_WORKERS": &c.Simulation.Workers,
	}
	var errs []error
	for key, dst := range ints {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not an integer", key, v))
			continue
		}
		*dst = n
	}
	return errors.Join(errs...)
}

// Validate checks every section.
func (c *Config) Validate() error {
	server := validation.NewConfigValidator("server").
		Required("addr", c.Server.Addr).
		MinDuration("shutdown_timeout", c.Server.ShutdownTimeout, time.Second).
		Custom("default_tenant", func() error { return tenant.ValidateID(c.Server.DefaultTenant) })

	g := validation.NewConfigValidator("graph").
		OneOf("backend", c.Graph.Backend, []string{BackendMemory, BackendNeo4j}).
		RangeInt("mirror.max_depth", c.Graph.Mirror.MaxDepth, 1, 50).
		RangeInt("default_depth", c.Graph.DefaultDepth, 0, c.Graph.Mirror.MaxDepth).
		Positive("mirror.tree_limit", c.Graph.Mirror.TreeLimit).
		When(c.Graph.Backend == BackendNeo4j, func(v *validation.ConfigValidator) {
			v.Required("neo4j.uri", c.Graph.Neo4j.URI).
				Required("neo4j.username", c.Graph.Neo4j.Username)
		})

	sim := validation.NewConfigValidator("simulation").
		RangeInt("max_iterations", c.Simulation.MaxIterations, 1, 100_000_000).
		RangeInt("default_iterations", c.Simulation.DefaultIterations, 1, c.Simulation.MaxIterations).
		RangeInt("workers", c.Simulation.Workers, 1, 256)

	logs := validation.NewConfigValidator("logging").
		OneOf("level", c.Logging.Level, []string{"debug", "info", "warn", "warning", "error", "DEBUG", "INFO", "WARN", "WARNING", "ERROR"})

	return errors.Join(server.Validate(), g.Validate(), sim.Validate(), c.Scoring.Validate(), logs.Validate())
}
