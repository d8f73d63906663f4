package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/dd0wney/cluso-continuity/pkg/cascade"
	"github.com/dd0wney/cluso-continuity/pkg/catalog"
	"github.com/dd0wney/cluso-continuity/pkg/graph"
	"github.com/dd0wney/cluso-continuity/pkg/logging"
	"github.com/dd0wney/cluso-continuity/pkg/mirror"
	"github.com/dd0wney/cluso-continuity/pkg/scoring"
	"github.com/dd0wney/cluso-continuity/pkg/simulation"
	"github.com/dd0wney/cluso-continuity/pkg/spof"
)

// Compliance check names.
const (
	CheckBIACoverage       = "bia_coverage"
	CheckNoCriticalSPOF    = "no_critical_spof"
	CheckCriticalProtected = "critical_processes_protected"
)

// Check is one pass/fail compliance rule.
type Check struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Summary is the tenant-wide analytics view.
type Summary struct {
	TenantID          string         `json:"tenantId"`
	BIACoverage       Coverage       `json:"biaCoverage"`
	PlanCoverage      Coverage       `json:"planCoverage"`
	SPOF              *spof.Analysis `json:"spof"`
	Checks            []Check        `json:"checks"`
	CompliancePercent float64        `json:"compliancePercent"`
	GeneratedAt       time.Time      `json:"generatedAt"`
	// Degraded is set when the graph store could not answer. Checks that
	// depend on graph data are then reported as failed.
	Degraded bool `json:"degraded,omitempty"`
}

// Exposure pairs the simulated loss of a risk with the cascades it triggers.
type Exposure struct {
	NodeID     string             `json:"nodeId"`
	Simulation *simulation.Result `json:"simulation"`
	Cascades   []*cascade.Result  `json:"cascades"`
	Severity   cascade.Severity   `json:"severity"`
}

// Aggregator composes the engines. Every collaborator is required.
type Aggregator struct {
	catalog    catalog.Source
	graph      *mirror.Adapter
	spof       *spof.Detector
	cascade    *cascade.Calculator
	simulation *simulation.Engine
	scoring    *scoring.Engine
	logger     logging.Logger
	now        func() time.Time
}

// Deps bundles the collaborators of an Aggregator.
type Deps struct {
	Catalog    catalog.Source
	Graph      *mirror.Adapter
	SPOF       *spof.Detector
	Cascade    *cascade.Calculator
	Simulation *simulation.Engine
	Scoring    *scoring.Engine
	Logger     logging.Logger
}

// NewAggregator creates an aggregator over deps.
func NewAggregator(deps Deps) *Aggregator {
	return &Aggregator{
		catalog:    deps.Catalog,
		graph:      deps.Graph,
		spof:       deps.SPOF,
		cascade:    deps.Cascade,
		simulation: deps.Simulation,
		scoring:    deps.Scoring,
		logger:     logging.OrDefault(deps.Logger).With(logging.Component("analytics")),
		now:        time.Now,
	}
}

// Summary computes coverage, SPOF analysis and compliance checks.
func (a *Aggregator) Summary(ctx context.Context, tenantID string) (*Summary, error) {
	timer := logging.StartTimer(a.logger, "analytics summary", logging.Tenant(tenantID))
	th := a.scoring.Thresholds().Coverage
	degraded := !a.graph.Healthy(ctx)

	total, err := a.catalog.CountProcesses(ctx, tenantID)
	if err != nil {
		timer.EndError(err)
		return nil, err
	}
	withRTO, err := a.catalog.CountProcessesWithRTO(ctx, tenantID)
	if err != nil {
		timer.EndError(err)
		return nil, err
	}
	bia := CoverageOf(th, withRTO, total)

	critical, err := a.catalog.CountCriticalProcesses(ctx, tenantID)
	if err != nil {
		timer.EndError(err)
		return nil, err
	}
	protected, treesDegraded, err := a.protectedCriticalProcesses(ctx, tenantID)
	if err != nil {
		timer.EndError(err)
		return nil, err
	}
	degraded = degraded || treesDegraded
	plans := planCoverageOf(th, protected, critical)

	analysis, err := a.spof.AnalyzeSPOF(ctx, tenantID)
	if err != nil {
		timer.EndError(err)
		return nil, err
	}

	checks := []Check{
		{
			Name:   CheckBIACoverage,
			Passed: bia.Status == StatusGood,
			Detail: fmt.Sprintf("%.2f%% of processes have an RTO (%s)", bia.Coverage, bia.Status),
		},
		{
			Name:   CheckNoCriticalSPOF,
			Passed: !spof.HasCritical(analysis.CriticalAssets),
			Detail: fmt.Sprintf("%d single points of failure", analysis.TotalSPOFs),
		},
		{
			Name:   CheckCriticalProtected,
			Passed: plans.Covered >= plans.Total,
			Detail: fmt.Sprintf("%d of %d critical processes protected by a plan", plans.Covered, plans.Total),
		},
	}
	if degraded {
		a.logger.Warn("summary computed without graph data", logging.Tenant(tenantID))
		for i := range checks {
			if checks[i].Name != CheckBIACoverage {
				checks[i].Passed = false
				checks[i].Detail = "graph store unavailable"
			}
		}
	}
	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}

	timer.End()
	return &Summary{
		TenantID:          tenantID,
		BIACoverage:       bia,
		PlanCoverage:      plans,
		SPOF:              analysis,
		Checks:            checks,
		CompliancePercent: round2(float64(passed) * 100 / float64(len(checks))),
		GeneratedAt:       a.now().UTC(),
		Degraded:          degraded,
	}, nil
}

// protectedCriticalProcesses counts CRITICAL Process nodes that a Plan
// protects. degraded reports a traversal answered without the store.
func (a *Aggregator) protectedCriticalProcesses(ctx context.Context, tenantID string) (protected int, degraded bool, err error) {
	nodes := a.graph.ListNodes(ctx, tenantID, graph.NodeFilter{Type: graph.NodeProcess, Criticality: graph.CriticalityCritical})
	for _, n := range nodes {
		tree, err := a.graph.QueryWith(ctx, tenantID, n.ID, graph.QueryOptions{
			Depth:     1,
			EdgeType:  graph.Protects,
			Direction: graph.Incoming,
		})
		if err != nil {
			if graph.IsNotFound(err) {
				// deleted between list and query
				continue
			}
			return 0, false, err
		}
		if tree.Degraded {
			degraded = true
			continue
		}
		for _, c := range tree.Children {
			if c.NodeType == graph.NodePlan {
				protected++
				break
			}
		}
	}
	return protected, degraded, nil
}

// RiskExposure simulates the loss distribution of nodeID and classifies the
// cascade it causes. For a Risk node the cascade is computed for every entity
// it affects; otherwise for the node itself. Severity is the worst found.
func (a *Aggregator) RiskExposure(ctx context.Context, tenantID, nodeID string, iterations int, params simulation.Params) (*Exposure, error) {
	node, err := a.graph.GetNode(ctx, tenantID, nodeID)
	if err != nil {
		return nil, err
	}

	sim, err := a.simulation.RunMonteCarloSimulation(ctx, nodeID, iterations, params)
	if err != nil {
		return nil, err
	}

	targets := []string{nodeID}
	if node != nil && node.Type == graph.NodeRisk {
		tree, err := a.graph.QueryWith(ctx, tenantID, nodeID, graph.QueryOptions{Depth: 1, EdgeType: graph.Affects})
		if err != nil {
			return nil, err
		}
		targets = targets[:0]
		for _, c := range tree.Children {
			targets = append(targets, c.ID)
		}
	}

	exp := &Exposure{NodeID: nodeID, Simulation: sim, Cascades: make([]*cascade.Result, 0, len(targets)), Severity: cascade.SeverityLow}
	for _, id := range targets {
		res, err := a.cascade.CalculateImpactCascade(ctx, id, tenantID)
		if err != nil {
			return nil, err
		}
		exp.Cascades = append(exp.Cascades, res)
		if res.Severity.Rank() > exp.Severity.Rank() {
			exp.Severity = res.Severity
		}
	}
	return exp, nil
}

// ProcessPriority computes the BIA priority score of one process.
func (a *Aggregator) ProcessPriority(ctx context.Context, tenantID, processID string) (*scoring.Priority, error) {
	p, err := a.catalog.GetProcess(ctx, tenantID, processID)
	if err != nil {
		return nil, err
	}
	prio := a.scoring.PriorityScore(scoring.PriorityInput{
		RTOHours:          p.RTO,
		FinancialImpact:   p.FinancialImpact,
		OperationalImpact: p.OperationalImpact,
	})
	return &prio, nil
}
