package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-continuity/pkg/app"
	"github.com/dd0wney/cluso-continuity/pkg/config"
	"github.com/dd0wney/cluso-continuity/pkg/importer"
	"github.com/dd0wney/cluso-continuity/pkg/logging"
	"github.com/dd0wney/cluso-continuity/pkg/metrics"
	"github.com/dd0wney/cluso-continuity/pkg/tenant"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	configPath string
	tenantID   string
	nodesFile  string
	edgesFile  string
	out        io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	g := &globals{out: out}
	root := &cobra.Command{
		Use:   "continuityctl",
		Short: "Query and simulate a business-continuity dependency graph",
		Long: `continuityctl runs the continuity engines from the command line. Graph
commands load --nodes/--edges CSV files into the configured backend first, so
with the default in-memory backend every invocation is self-contained.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return tenant.ValidateID(g.tenantID)
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&g.configPath, "config", os.Getenv("CONTINUITY_CONFIG"), "Path to YAML config file")
	root.PersistentFlags().StringVar(&g.tenantID, "tenant", tenant.DefaultTenantID, "Tenant to act for")
	root.PersistentFlags().StringVar(&g.nodesFile, "nodes", "", "Nodes CSV to load before running the command")
	root.PersistentFlags().StringVar(&g.edgesFile, "edges", "", "Edges CSV to load before running the command")

	root.AddCommand(
		newImportCmd(g),
		newDepsCmd(g),
		newCascadeCmd(g),
		newSPOFCmd(g),
		newSummaryCmd(g),
		newScoreCmd(g),
		newSimulateCmd(g),
	)
	return root
}

func (g *globals) loadConfig() (*config.Config, error) {
	return config.Load(g.configPath)
}

// CLI logs go to stderr so stdout stays machine-readable.
func newLogger(cfg *config.Config) logging.Logger {
	return logging.NewJSONLogger(os.Stderr, logging.ParseLevel(cfg.Logging.Level))
}

// open loads the config and wires the engines.
func (g *globals) open(ctx context.Context) (*app.App, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, newLogger(cfg), metrics.NewRegistry())
}

func (g *globals) load(ctx context.Context, a *app.App) (nodes, edges importer.Stats, err error) {
	loader := importer.NewLoader(a.Graph, a.Logger, 10000)
	if g.nodesFile != "" {
		if nodes, err = loadFile(ctx, g.nodesFile, func(r io.Reader) (importer.Stats, error) {
			return loader.LoadNodes(ctx, r, g.tenantID)
		}); err != nil {
			return nodes, edges, err
		}
	}
	if g.edgesFile != "" {
		if edges, err = loadFile(ctx, g.edgesFile, func(r io.Reader) (importer.Stats, error) {
			return loader.LoadEdges(ctx, r, g.tenantID)
		}); err != nil {
			return nodes, edges, err
		}
	}
	return nodes, edges, nil
}

func loadFile(ctx context.Context, path string, fn func(io.Reader) (importer.Stats, error)) (importer.Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return importer.Stats{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return fn(f)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// withApp opens an App, preloads the CSV files, runs fn and prints its result.
func (g *globals) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) (any, error)) error {
	ctx := commandContext(cmd)
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	if _, _, err := g.load(ctx, a); err != nil {
		return err
	}

	v, err := fn(ctx, a)
	if err != nil {
		return err
	}
	return g.print(v)
}

func (g *globals) print(v any) error {
	enc := json.NewEncoder(g.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
