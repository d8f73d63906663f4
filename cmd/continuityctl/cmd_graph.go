package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-continuity/pkg/app"
	"github.com/dd0wney/cluso-continuity/pkg/importer"
	"github.com/dd0wney/cluso-continuity/pkg/validation"
)

func newImportCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Load --nodes and --edges CSV files into the configured graph backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			if g.nodesFile == "" && g.edgesFile == "" {
				return fmt.Errorf("import needs --nodes and/or --edges")
			}
			ctx := commandContext(cmd)
			a, err := g.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			nodes, edges, err := g.load(ctx, a)
			if err != nil {
				return err
			}
			return g.print(struct {
				Nodes importer.Stats `json:"nodes"`
				Edges importer.Stats `json:"edges"`
			}{nodes, edges})
		},
	}
}

func newDepsCmd(g *globals) *cobra.Command {
	var depth int
	var impact bool
	cmd := &cobra.Command{
		Use:   "deps <node-id>",
		Short: "Print the dependency tree of a node, or with --impact everything that depends on it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateNodeID(args[0]); err != nil {
				return err
			}
			return g.withApp(cmd, func(ctx context.Context, a *app.App) (any, error) {
				if depth > a.Graph.MaxDepth() {
					return nil, validation.ValidateDepth(depth, a.Graph.MaxDepth())
				}
				if impact {
					return a.Resolver.GetImpactAnalysis(ctx, args[0], g.tenantID, depth)
				}
				return a.Resolver.GetDependencies(ctx, args[0], g.tenantID, depth)
			})
		},
	}
	cmd.Flags().IntVar(&depth, "depth", -1, "Traversal depth (negative uses the configured default)")
	cmd.Flags().BoolVar(&impact, "impact", false, "Follow requiredBy instead of dependsOn")
	return cmd
}

func newCascadeCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "cascade <node-id>",
		Short: "Classify the impact cascade of a node failing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateNodeID(args[0]); err != nil {
				return err
			}
			return g.withApp(cmd, func(ctx context.Context, a *app.App) (any, error) {
				return a.Cascade.CalculateImpactCascade(ctx, args[0], g.tenantID)
			})
		},
	}
}

func newSPOFCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "spof",
		Short: "Rank the single points of failure of the tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App) (any, error) {
				return a.SPOF.AnalyzeSPOF(ctx, g.tenantID)
			})
		},
	}
}

func newSummaryCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print coverage, SPOF and compliance analytics for the tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App) (any, error) {
				return a.Analytics.Summary(ctx, g.tenantID)
			})
		},
	}
}
