package main

import (
	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-continuity/pkg/scoring"
	"github.com/dd0wney/cluso-continuity/pkg/simulation"
)

func newScoreCmd(g *globals) *cobra.Command {
	var in scoring.RiskInput
	var postProbability, postImpact int
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a risk from probability and impact ratings (1-5)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("post-probability") {
				in.PostControlProbability = &postProbability
			}
			if cmd.Flags().Changed("post-impact") {
				in.PostControlImpact = &postImpact
			}
			a, err := scoring.NewEngine(cfg.Scoring).Assess(in)
			if err != nil {
				return err
			}
			return g.print(a)
		},
	}
	cmd.Flags().IntVar(&in.Probability, "probability", 0, "Probability rating 1-5")
	cmd.Flags().IntVar(&in.Impact, "impact", 0, "Impact rating 1-5")
	cmd.Flags().StringVar(&in.Category, "category", "", "Risk category (technological, operational, external, natural, human)")
	cmd.Flags().IntVar(&postProbability, "post-probability", 0, "Post-control probability rating 1-5")
	cmd.Flags().IntVar(&postImpact, "post-impact", 0, "Post-control impact rating 1-5")
	cmd.MarkFlagRequired("probability")
	cmd.MarkFlagRequired("impact")
	return cmd
}

func newSimulateCmd(g *globals) *cobra.Command {
	var p simulation.Params
	var iterations, workers int
	var seed uint64
	var samples bool
	cmd := &cobra.Command{
		Use:   "simulate [id]",
		Short: "Run a Monte Carlo loss simulation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				p.Seed = &seed
			}
			p.Workers = workers
			id := "adhoc"
			if len(args) == 1 {
				id = args[0]
			}
			res, err := simulation.NewEngine(cfg.Simulation, newLogger(cfg), nil).RunMonteCarloSimulation(commandContext(cmd), id, iterations, p)
			if err != nil {
				return err
			}
			if !samples {
				res.Samples = nil
			}
			return g.print(res)
		},
	}
	cmd.Flags().Float64Var(&p.ImpactMin, "impact-min", 0, "Minimum impact")
	cmd.Flags().Float64Var(&p.ImpactMost, "impact-most", 0, "Most likely impact")
	cmd.Flags().Float64Var(&p.ImpactMax, "impact-max", 0, "Maximum impact")
	cmd.Flags().Float64Var(&p.ProbabilityMin, "probability-min", 0, "Minimum probability (0-1)")
	cmd.Flags().Float64Var(&p.ProbabilityMax, "probability-max", 1, "Maximum probability (0-1)")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "Iterations (0 uses the configured default)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent samplers (0 uses the configured default)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for a reproducible run")
	cmd.Flags().BoolVar(&samples, "samples", false, "Include raw samples in the output")
	return cmd
}
