package catalog

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/dd0wney/cluso-continuity/pkg/graph"
	"github.com/dd0wney/cluso-continuity/pkg/graph/memstore"
	"github.com/dd0wney/cluso-continuity/pkg/logging"
	"github.com/dd0wney/cluso-continuity/pkg/mirror"
)

const tenantID = "acme"

func intPtr(v int) *int { return &v }

func setupGraphCounter(t *testing.T) *GraphCounter {
	t.Helper()
	ctx := context.Background()
	a := mirror.New(memstore.New(), mirror.Config{}, logging.NewNopLogger(), nil)

	a.UpsertNode(ctx, graph.NodeProcess, graph.NodeAttributes{ID: "p1", Name: "Payroll", RTO: intPtr(4), Criticality: graph.CriticalityCritical}, tenantID)
	a.UpsertNode(ctx, graph.NodeProcess, graph.NodeAttributes{ID: "p2", Name: "Billing", RTO: intPtr(24)}, tenantID)
	a.UpsertNode(ctx, graph.NodeProcess, graph.NodeAttributes{ID: "p3", Name: "Canteen"}, tenantID)
	a.UpsertNode(ctx, graph.NodeAsset, graph.NodeAttributes{ID: "a1", Name: "Server", RTO: intPtr(1)}, tenantID)
	return NewGraphCounter(a)
}

func TestGraphCounter_Counts(t *testing.T) {
	c := setupGraphCounter(t)
	ctx := context.Background()

	total, _ := c.CountProcesses(ctx, tenantID)
	if total != 3 {
		t.Errorf("Expected 3 processes, got %d", total)
	}
	withRTO, _ := c.CountProcessesWithRTO(ctx, tenantID)
	if withRTO != 2 {
		t.Errorf("Expected 2 processes with RTO, got %d", withRTO)
	}
	critical, _ := c.CountCriticalProcesses(ctx, tenantID)
	if critical != 1 {
		t.Errorf("Expected 1 critical process, got %d", critical)
	}

	other, _ := c.CountProcesses(ctx, "globex")
	if other != 0 {
		t.Errorf("Expected tenant isolation, got %d processes", other)
	}
}

func TestGraphCounter_GetProcess(t *testing.T) {
	c := setupGraphCounter(t)
	ctx := context.Background()

	p, err := c.GetProcess(ctx, tenantID, "p1")
	if err != nil {
		t.Fatalf("GetProcess failed: %v", err)
	}
	if p.Name != "Payroll" || p.RTO == nil || *p.RTO != 4 {
		t.Errorf("Unexpected process %+v", p)
	}

	if _, err := c.GetProcess(ctx, tenantID, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := c.GetProcess(ctx, tenantID, "a1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for a non-process node, got %v", err)
	}
}

// TestPGCounter runs against a live database when
// CONTINUITY_TEST_DATABASE_URL is set.
func TestPGCounter(t *testing.T) {
	dsn := os.Getenv("CONTINUITY_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("CONTINUITY_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	// temp tables are per connection, so pin the pool to one
	c, err := NewPGCounter(ctx, PGConfig{DSN: dsn, MaxConns: 1})
	if err != nil {
		t.Fatalf("NewPGCounter failed: %v", err)
	}
	defer c.Close()

	_, err = c.pool.Exec(ctx, `CREATE TEMP TABLE processes (
		id text, tenant_id text, name text, rto int, criticality text,
		financial_impact numeric, operational_impact text, deleted_at timestamptz)`)
	if err != nil {
		t.Skipf("cannot create processes table: %v", err)
	}
	_, err = c.pool.Exec(ctx, `INSERT INTO processes VALUES
		('p1', 'acme', 'Payroll', 4, 'CRITICAL', 120000, 'SEVERE', NULL),
		('p2', 'acme', 'Billing', NULL, 'HIGH', NULL, NULL, NULL),
		('p3', 'acme', 'Retired', 8, 'CRITICAL', NULL, NULL, now())`)
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if n, _ := c.CountProcesses(ctx, tenantID); n != 2 {
		t.Errorf("Expected 2 live processes, got %d", n)
	}
	if n, _ := c.CountProcessesWithRTO(ctx, tenantID); n != 1 {
		t.Errorf("Expected 1 process with RTO, got %d", n)
	}
	if n, _ := c.CountCriticalProcesses(ctx, tenantID); n != 1 {
		t.Errorf("Expected 1 critical process, got %d", n)
	}

	p, err := c.GetProcess(ctx, tenantID, "p1")
	if err != nil {
		t.Fatalf("GetProcess failed: %v", err)
	}
	if p.FinancialImpact == nil || *p.FinancialImpact != 120000 || p.OperationalImpact != "SEVERE" {
		t.Errorf("Unexpected process %+v", p)
	}
	if _, err := c.GetProcess(ctx, tenantID, "p3"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected deleted process to be not found, got %v", err)
	}
}
