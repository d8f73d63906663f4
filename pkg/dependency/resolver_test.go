package dependency

import (
	"context"
	"testing"

	"github.com/dd0wney/cluso-continuity/pkg/graph"
	"github.com/dd0wney/cluso-continuity/pkg/graph/memstore"
	"github.com/dd0wney/cluso-continuity/pkg/logging"
	"github.com/dd0wney/cluso-continuity/pkg/mirror"
)

const tenantID = "acme"

// setupGraph builds
//
//	payroll -> hr-app -> db
//	payroll -> db
//	billing -> db
//	db -> payroll (cycle)
func setupGraph(t *testing.T) (*Resolver, *mirror.Adapter) {
	t.Helper()
	ctx := context.Background()
	a := mirror.New(memstore.New(), mirror.Config{}, logging.NewNopLogger(), nil)

	nodes := []struct {
		id string
		t  graph.NodeType
	}{
		{"payroll", graph.NodeProcess},
		{"billing", graph.NodeProcess},
		{"hr-app", graph.NodeAsset},
		{"db", graph.NodeAsset},
	}
	for _, n := range nodes {
		if a.UpsertNode(ctx, n.t, graph.NodeAttributes{ID: n.id, Name: n.id}, tenantID) == nil {
			t.Fatalf("upsert %s failed", n.id)
		}
	}
	for _, e := range [][2]string{{"payroll", "hr-app"}, {"hr-app", "db"}, {"payroll", "db"}, {"billing", "db"}, {"db", "payroll"}} {
		if !a.CreateRelationship(ctx, e[0], e[1], graph.DependsOn, tenantID) {
			t.Fatalf("edge %v failed", e)
		}
	}
	return NewResolver(a), a
}

func TestGetDependencies_DepthZero(t *testing.T) {
	r, _ := setupGraph(t)

	tree, err := r.GetDependencies(context.Background(), "payroll", tenantID, 0)
	if err != nil {
		t.Fatalf("GetDependencies failed: %v", err)
	}
	if tree.ID != "payroll" {
		t.Errorf("Expected root payroll, got %s", tree.ID)
	}
	if len(tree.Children) != 0 {
		t.Errorf("Expected no children at depth 0, got %d", len(tree.Children))
	}
}

func TestGetDependencies_Diamond(t *testing.T) {
	r, _ := setupGraph(t)

	tree, err := r.GetDependencies(context.Background(), "payroll", tenantID, 3)
	if err != nil {
		t.Fatalf("GetDependencies failed: %v", err)
	}

	// db is reached directly and through hr-app; the cycle back to payroll is cut
	ids := make(map[string]int)
	for _, e := range Flatten(tree) {
		ids[e.ID]++
	}
	if ids["db"] != 2 {
		t.Errorf("Expected db once per path (2), got %d", ids["db"])
	}
	if ids["payroll"] != 0 {
		t.Errorf("Expected root not re-expanded on the cycle, got %d", ids["payroll"])
	}
	if Count(tree) != 3 {
		t.Errorf("Expected 3 entries, got %d", Count(tree))
	}
	if Distinct(tree) != 2 {
		t.Errorf("Expected 2 distinct dependencies, got %d", Distinct(tree))
	}
}

func TestGetImpactAnalysis(t *testing.T) {
	r, _ := setupGraph(t)

	tree, err := r.GetImpactAnalysis(context.Background(), "db", tenantID, 1)
	if err != nil {
		t.Fatalf("GetImpactAnalysis failed: %v", err)
	}

	got := make(map[string]bool)
	for _, c := range tree.Children {
		got[c.ID] = true
	}
	for _, want := range []string{"billing", "hr-app", "payroll"} {
		if !got[want] {
			t.Errorf("Expected %s to require db, got %v", want, got)
		}
	}
	for _, c := range tree.Children {
		if c.Depth != 1 {
			t.Errorf("Expected depth 1 for %s, got %d", c.ID, c.Depth)
		}
	}
}

func TestGetDependencies_CycleTerminates(t *testing.T) {
	r, _ := setupGraph(t)

	tree, err := r.GetDependencies(context.Background(), "db", tenantID, 10)
	if err != nil {
		t.Fatalf("GetDependencies failed: %v", err)
	}
	for _, e := range Flatten(tree) {
		if e.ID == "db" {
			t.Error("Root must not reappear below itself")
		}
	}
}

func TestGetDependencies_IsolatedNode(t *testing.T) {
	r, a := setupGraph(t)
	ctx := context.Background()

	a.UpsertNode(ctx, graph.NodeAsset, graph.NodeAttributes{ID: "printer", Name: "Printer"}, tenantID)

	tree, err := r.GetDependencies(ctx, "printer", tenantID, graph.DefaultDepth)
	if err != nil {
		t.Fatalf("GetDependencies failed: %v", err)
	}
	if tree.ID != "printer" || tree.Name != "Printer" {
		t.Errorf("Expected printer root, got %+v", tree)
	}
	if tree.Children == nil || len(tree.Children) != 0 {
		t.Errorf("Expected empty, non-nil children, got %v", tree.Children)
	}
}

func TestGetDependencies_NotFound(t *testing.T) {
	r, _ := setupGraph(t)

	_, err := r.GetDependencies(context.Background(), "ghost", tenantID, 3)
	if !graph.IsNotFound(err) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestGetDependencies_TenantIsolation(t *testing.T) {
	r, _ := setupGraph(t)

	_, err := r.GetDependencies(context.Background(), "payroll", "other-tenant", 3)
	if !graph.IsNotFound(err) {
		t.Errorf("Expected not found across tenants, got %v", err)
	}
}

func TestGetDependencies_NegativeDepthUsesDefault(t *testing.T) {
	r, _ := setupGraph(t)

	tree, err := r.GetDependencies(context.Background(), "payroll", tenantID, -1)
	if err != nil {
		t.Fatalf("GetDependencies failed: %v", err)
	}
	if Count(tree) != 3 {
		t.Errorf("Expected default depth traversal (3 entries), got %d", Count(tree))
	}
}

func TestWithDefaultDepth(t *testing.T) {
	r, _ := setupGraph(t)
	shallow := r.WithDefaultDepth(1)

	tree, err := shallow.GetDependencies(context.Background(), "payroll", tenantID, -1)
	if err != nil {
		t.Fatalf("GetDependencies failed: %v", err)
	}
	if got := len(tree.Children); got != Count(tree) {
		t.Errorf("Expected only direct dependencies at depth 1, got %d entries", Count(tree))
	}

	tree, _ = r.GetDependencies(context.Background(), "payroll", tenantID, -1)
	if Count(tree) != 3 {
		t.Errorf("Expected original resolver unchanged, got %d entries", Count(tree))
	}
}
