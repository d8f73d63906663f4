package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-continuity/pkg/cascade"
	"github.com/dd0wney/cluso-continuity/pkg/catalog"
	"github.com/dd0wney/cluso-continuity/pkg/dependency"
	"github.com/dd0wney/cluso-continuity/pkg/graph"
	"github.com/dd0wney/cluso-continuity/pkg/graph/memstore"
	"github.com/dd0wney/cluso-continuity/pkg/logging"
	"github.com/dd0wney/cluso-continuity/pkg/mirror"
	"github.com/dd0wney/cluso-continuity/pkg/scoring"
	"github.com/dd0wney/cluso-continuity/pkg/simulation"
	"github.com/dd0wney/cluso-continuity/pkg/spof"
)

const tenantID = "acme"

func intPtr(v int) *int { return &v }

type fixture struct {
	agg   *Aggregator
	graph *mirror.Adapter
	store *memstore.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logging.NewNopLogger()
	store := memstore.New()
	a := mirror.New(store, mirror.Config{}, log, nil)
	sc := scoring.Default()

	agg := NewAggregator(Deps{
		Catalog:    catalog.NewGraphCounter(a),
		Graph:      a,
		SPOF:       spof.NewDetector(a, log, nil),
		Cascade:    cascade.NewCalculator(dependency.NewResolver(a), sc.Thresholds().Cascade, -1, log, nil),
		Simulation: simulation.NewEngine(simulation.DefaultConfig(), log, nil),
		Scoring:    sc,
		Logger:     log,
	})
	agg.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	return &fixture{agg: agg, graph: a, store: store}
}

func (f *fixture) node(t *testing.T, nt graph.NodeType, attrs graph.NodeAttributes) {
	t.Helper()
	require.NotNil(t, f.graph.UpsertNode(context.Background(), nt, attrs, tenantID))
}

func (f *fixture) edge(t *testing.T, src, dst string, et graph.EdgeType) {
	t.Helper()
	require.True(t, f.graph.CreateRelationship(context.Background(), src, dst, et, tenantID))
}

func TestSummary_Compliant(t *testing.T) {
	f := newFixture(t)

	f.node(t, graph.NodeProcess, graph.NodeAttributes{ID: "payroll", RTO: intPtr(4), Criticality: graph.CriticalityCritical})
	f.node(t, graph.NodeProcess, graph.NodeAttributes{ID: "billing", RTO: intPtr(24)})
	f.node(t, graph.NodePlan, graph.NodeAttributes{ID: "drp"})
	f.edge(t, "drp", "payroll", graph.Protects)

	s, err := f.agg.Summary(context.Background(), tenantID)
	require.NoError(t, err)

	assert.Equal(t, 100.0, s.BIACoverage.Coverage)
	assert.Equal(t, StatusGood, s.BIACoverage.Status)
	assert.Equal(t, 1, s.PlanCoverage.Covered)
	assert.Equal(t, 1, s.PlanCoverage.Total)
	assert.Equal(t, spof.RiskLow, s.SPOF.SPOFRisk)
	assert.Len(t, s.Checks, 3)
	assert.Equal(t, 100.0, s.CompliancePercent)
	assert.Equal(t, 2024, s.GeneratedAt.Year())
}

func TestSummary_Failures(t *testing.T) {
	f := newFixture(t)

	f.node(t, graph.NodeProcess, graph.NodeAttributes{ID: "payroll", Criticality: graph.CriticalityCritical})
	f.node(t, graph.NodeProcess, graph.NodeAttributes{ID: "billing"})
	f.node(t, graph.NodeAsset, graph.NodeAttributes{ID: "db", Criticality: graph.CriticalityCritical})
	f.edge(t, "payroll", "db", graph.DependsOn)
	f.edge(t, "billing", "db", graph.DependsOn)
	// an asset protecting the process does not count as a plan
	f.edge(t, "db", "payroll", graph.Protects)

	s, err := f.agg.Summary(context.Background(), tenantID)
	require.NoError(t, err)

	checks := make(map[string]bool)
	for _, c := range s.Checks {
		checks[c.Name] = c.Passed
	}
	assert.False(t, checks[CheckBIACoverage])
	assert.False(t, checks[CheckNoCriticalSPOF])
	assert.False(t, checks[CheckCriticalProtected])
	assert.Equal(t, 0.0, s.CompliancePercent)
	assert.Equal(t, 1, s.SPOF.TotalSPOFs)
	assert.Equal(t, spof.RiskHigh, s.SPOF.SPOFRisk)
}

func TestSummary_NoCriticalProcesses(t *testing.T) {
	f := newFixture(t)
	f.node(t, graph.NodeProcess, graph.NodeAttributes{ID: "billing", RTO: intPtr(24)})

	s, err := f.agg.Summary(context.Background(), tenantID)
	require.NoError(t, err)

	assert.Equal(t, 100.0, s.PlanCoverage.Coverage)
	assert.Equal(t, StatusGood, s.PlanCoverage.Status)
	assert.Equal(t, 100.0, s.CompliancePercent)
	assert.False(t, s.Degraded)
}

func TestSummary_GraphUnavailable(t *testing.T) {
	f := newFixture(t)
	f.node(t, graph.NodeProcess, graph.NodeAttributes{ID: "payroll", RTO: intPtr(4), Criticality: graph.CriticalityCritical})
	f.node(t, graph.NodePlan, graph.NodeAttributes{ID: "drp"})
	f.edge(t, "drp", "payroll", graph.Protects)
	require.NoError(t, f.store.Close(context.Background()))

	s, err := f.agg.Summary(context.Background(), tenantID)
	require.NoError(t, err)

	assert.True(t, s.Degraded)
	for _, c := range s.Checks {
		assert.False(t, c.Passed, "check %s passed without graph data", c.Name)
	}
	assert.Equal(t, 0.0, s.CompliancePercent)
	assert.Equal(t, spof.RiskLow, s.SPOF.SPOFRisk)
}

func TestRiskExposure_RiskNode(t *testing.T) {
	f := newFixture(t)

	f.node(t, graph.NodeRisk, graph.NodeAttributes{ID: "flood"})
	f.node(t, graph.NodeAsset, graph.NodeAttributes{ID: "dc"})
	f.edge(t, "flood", "dc", graph.Affects)
	for _, p := range []string{"p1", "p2", "p3"} {
		f.node(t, graph.NodeProcess, graph.NodeAttributes{ID: p, Criticality: graph.CriticalityCritical})
		f.edge(t, p, "dc", graph.DependsOn)
	}

	seed := uint64(1)
	exp, err := f.agg.RiskExposure(context.Background(), tenantID, "flood", 1000, simulation.Params{
		ImpactMin: 1, ImpactMost: 2, ImpactMax: 3, ProbabilityMin: 0.1, ProbabilityMax: 0.2, Seed: &seed,
	})
	require.NoError(t, err)

	assert.Len(t, exp.Simulation.Samples, 1000)
	require.Len(t, exp.Cascades, 1)
	assert.Equal(t, "dc", exp.Cascades[0].NodeID)
	assert.Equal(t, cascade.SeverityCritical, exp.Severity)
}

func TestRiskExposure_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.agg.RiskExposure(context.Background(), tenantID, "ghost", 10, simulation.Params{
		ImpactMin: 1, ImpactMost: 2, ImpactMax: 3, ProbabilityMax: 1,
	})
	assert.True(t, graph.IsNotFound(err), "expected not found, got %v", err)
}

func TestProcessPriority(t *testing.T) {
	f := newFixture(t)
	f.node(t, graph.NodeProcess, graph.NodeAttributes{ID: "payroll", RTO: intPtr(4)})

	prio, err := f.agg.ProcessPriority(context.Background(), tenantID, "payroll")
	require.NoError(t, err)
	assert.Equal(t, 50, prio.RTOPoints)
	assert.Equal(t, 60, prio.Total)

	_, err = f.agg.ProcessPriority(context.Background(), tenantID, "ghost")
	assert.True(t, errors.Is(err, catalog.ErrNotFound))
}
