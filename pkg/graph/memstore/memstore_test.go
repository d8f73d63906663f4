package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/dd0wney/cluso-continuity/pkg/graph"
)

// setupStore returns a store with the given nodes (all Assets) and dependsOn
// edges written in one committed transaction.
func setupStore(t *testing.T, tenantID string, nodes []string, edges [][2]string) *Store {
	t.Helper()
	s := New()
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	for _, id := range nodes {
		if _, err := tx.UpsertNode(ctx, tenantID, graph.NodeAsset, graph.NodeAttributes{ID: id, Name: id}); err != nil {
			t.Fatalf("Failed to upsert %s: %v", id, err)
		}
	}
	for _, e := range edges {
		if err := tx.CreateEdge(ctx, tenantID, e[0], e[1], graph.DependsOn); err != nil {
			t.Fatalf("Failed to create edge %v: %v", e, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}
	return s
}

func TestUpsertNode_IdempotentMerge(t *testing.T) {
	s := New()
	ctx := context.Background()
	rto := 4

	for i := 0; i < 2; i++ {
		tx, _ := s.Begin(ctx)
		_, err := tx.UpsertNode(ctx, "acme", graph.NodeProcess, graph.NodeAttributes{
			ID: "payroll", Name: "Payroll", Criticality: graph.CriticalityHigh, RTO: &rto,
		})
		if err != nil {
			t.Fatalf("UpsertNode failed: %v", err)
		}
		if err := tx.Commit(ctx); err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
	}

	// Partial update keeps the other attributes
	tx, _ := s.Begin(ctx)
	tx.UpsertNode(ctx, "acme", graph.NodeProcess, graph.NodeAttributes{ID: "payroll", Criticality: graph.CriticalityCritical})
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	n, err := s.GetNode(ctx, "acme", "payroll")
	if err != nil {
		t.Fatalf("GetNode failed: %v", err)
	}
	if n.Name != "Payroll" || n.Criticality != graph.CriticalityCritical || n.RTO == nil || *n.RTO != 4 {
		t.Errorf("Unexpected merged node: %+v", n)
	}
	if stats := s.GetStatistics(); stats.NodeCount != 1 {
		t.Errorf("Expected 1 node after repeated upserts, got %d", stats.NodeCount)
	}
}

func TestTransaction_NotVisibleBeforeCommit(t *testing.T) {
	s := New()
	ctx := context.Background()

	tx, _ := s.Begin(ctx)
	tx.UpsertNode(ctx, "acme", graph.NodeAsset, graph.NodeAttributes{ID: "db", Name: "Database"})

	if _, err := s.GetNode(ctx, "acme", "db"); !graph.IsNotFound(err) {
		t.Errorf("Node should not be visible before commit, got %v", err)
	}

	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	if _, err := s.GetNode(ctx, "acme", "db"); !graph.IsNotFound(err) {
		t.Errorf("Node should not exist after rollback, got %v", err)
	}

	// Rollback is idempotent, commit after rollback fails
	if err := tx.Rollback(ctx); err != nil {
		t.Errorf("Second rollback should be a no-op, got %v", err)
	}
	if err := tx.Commit(ctx); !errors.Is(err, graph.ErrTxDone) {
		t.Errorf("Expected ErrTxDone, got %v", err)
	}
}

func TestCommit_AtomicOnMissingEndpoint(t *testing.T) {
	s := New()
	ctx := context.Background()

	tx, _ := s.Begin(ctx)
	tx.UpsertNode(ctx, "acme", graph.NodeAsset, graph.NodeAttributes{ID: "a", Name: "A"})
	tx.CreateEdge(ctx, "acme", "a", "ghost", graph.DependsOn)

	err := tx.Commit(ctx)
	if !graph.IsNotFound(err) {
		t.Fatalf("Expected not found, got %v", err)
	}
	if _, err := s.GetNode(ctx, "acme", "a"); !graph.IsNotFound(err) {
		t.Error("Failed commit must not apply earlier ops")
	}
}

func TestReverseIndex_RequiredBy(t *testing.T) {
	s := setupStore(t, "acme", []string{"payroll", "billing", "db"}, [][2]string{
		{"payroll", "db"},
		{"billing", "db"},
	})
	ctx := context.Background()

	tree, err := s.Query(ctx, "acme", "db", graph.RequiredByQuery(1))
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(tree.Children) != 2 {
		t.Fatalf("Expected 2 dependents, got %d", len(tree.Children))
	}
	if tree.Children[0].ID != "billing" || tree.Children[1].ID != "payroll" {
		t.Errorf("Unexpected dependents: %s, %s", tree.Children[0].ID, tree.Children[1].ID)
	}

	down, err := s.Query(ctx, "acme", "db", graph.DependsOnQuery(3))
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(down.Children) != 0 {
		t.Errorf("db depends on nothing, got %d children", len(down.Children))
	}
}

func TestCreateEdge_Duplicate(t *testing.T) {
	s := setupStore(t, "acme", []string{"a", "b"}, [][2]string{{"a", "b"}, {"a", "b"}})

	if stats := s.GetStatistics(); stats.EdgeCount != 1 {
		t.Errorf("Expected duplicate edge to be a no-op, got %d edges", stats.EdgeCount)
	}
}

func TestDeleteNode_RemovesIncidentEdges(t *testing.T) {
	s := setupStore(t, "acme", []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}, {"c", "c"}})
	ctx := context.Background()

	tx, _ := s.Begin(ctx)
	tx.DeleteNode(ctx, "acme", "b")
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	if stats := s.GetStatistics(); stats.NodeCount != 2 || stats.EdgeCount != 1 {
		t.Errorf("Expected 2 nodes / 1 edge (self loop on c), got %+v", stats)
	}

	tree, err := s.Query(ctx, "acme", "a", graph.DependsOnQuery(3))
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(tree.Children) != 0 {
		t.Errorf("Expected no dependencies after delete, got %d", len(tree.Children))
	}

	fanIn, _ := s.FanIn(ctx, "acme", graph.DependsOn)
	for _, f := range fanIn {
		if f.Node.ID == "b" {
			t.Error("Deleted node still present in reverse index")
		}
	}
}

func TestDeleteNode_Missing(t *testing.T) {
	s := New()
	ctx := context.Background()
	tx, _ := s.Begin(ctx)
	tx.DeleteNode(ctx, "acme", "nope")
	if err := tx.Commit(ctx); !graph.IsNotFound(err) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestTenantIsolation(t *testing.T) {
	s := setupStore(t, "acme", []string{"a", "b"}, [][2]string{{"a", "b"}})
	ctx := context.Background()

	if _, err := s.GetNode(ctx, "globex", "a"); !graph.IsNotFound(err) {
		t.Errorf("Node leaked across tenants: %v", err)
	}
	nodes, err := s.ListNodes(ctx, "globex", graph.NodeFilter{})
	if err != nil || len(nodes) != 0 {
		t.Errorf("Expected empty list for other tenant, got %d (%v)", len(nodes), err)
	}

	tx, _ := s.Begin(ctx)
	tx.CreateEdge(ctx, "globex", "a", "b", graph.DependsOn)
	if err := tx.Commit(ctx); !graph.IsNotFound(err) {
		t.Errorf("Cross-tenant edge must fail, got %v", err)
	}
}

func TestFanIn_Counts(t *testing.T) {
	s := setupStore(t, "acme", []string{"a", "b", "c", "db", "cache"}, [][2]string{
		{"a", "db"}, {"b", "db"}, {"c", "db"}, {"a", "cache"},
	})

	fanIn, err := s.FanIn(context.Background(), "acme", graph.DependsOn)
	if err != nil {
		t.Fatalf("FanIn failed: %v", err)
	}
	counts := make(map[string]int)
	for _, f := range fanIn {
		counts[f.Node.ID] = f.Count
	}
	if counts["db"] != 3 || counts["cache"] != 1 || len(counts) != 2 {
		t.Errorf("Unexpected fan-in: %v", counts)
	}
}

func TestListNodes_Filter(t *testing.T) {
	s := New()
	ctx := context.Background()
	tx, _ := s.Begin(ctx)
	tx.UpsertNode(ctx, "acme", graph.NodeProcess, graph.NodeAttributes{ID: "p1", Name: "P1", Criticality: graph.CriticalityCritical})
	tx.UpsertNode(ctx, "acme", graph.NodeProcess, graph.NodeAttributes{ID: "p2", Name: "P2"})
	tx.UpsertNode(ctx, "acme", graph.NodeAsset, graph.NodeAttributes{ID: "a1", Name: "A1", Criticality: graph.CriticalityCritical})
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	procs, _ := s.ListNodes(ctx, "acme", graph.NodeFilter{Type: graph.NodeProcess})
	if len(procs) != 2 {
		t.Errorf("Expected 2 processes, got %d", len(procs))
	}
	critical, _ := s.ListNodes(ctx, "acme", graph.NodeFilter{Type: graph.NodeProcess, Criticality: graph.CriticalityCritical})
	if len(critical) != 1 || critical[0].ID != "p1" {
		t.Errorf("Expected only p1, got %v", critical)
	}
}

func TestClosedStore(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.Close(ctx)

	if _, err := s.Begin(ctx); !graph.IsUnavailable(err) {
		t.Errorf("Begin on closed store: %v", err)
	}
	if _, err := s.GetNode(ctx, "acme", "a"); !graph.IsUnavailable(err) {
		t.Errorf("GetNode on closed store: %v", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, graph.ErrStoreClosed) {
		t.Errorf("Ping on closed store: %v", err)
	}
}

func TestQuery_ReturnsCopies(t *testing.T) {
	s := setupStore(t, "acme", []string{"a"}, nil)
	ctx := context.Background()

	n, _ := s.GetNode(ctx, "acme", "a")
	n.Name = "mutated"

	again, _ := s.GetNode(ctx, "acme", "a")
	if again.Name != "a" {
		t.Error("GetNode returned a reference into the store")
	}
}
