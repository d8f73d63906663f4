package catalog

import (
	"context"
	"fmt"

	"github.com/dd0wney/cluso-continuity/pkg/graph"
	"github.com/dd0wney/cluso-continuity/pkg/mirror"
)

// GraphCounter derives process counts from the mirrored Process nodes. It
// stands in when no relational store is configured; counts drop to zero
// while the graph is degraded.
type GraphCounter struct {
	graph *mirror.Adapter
}

var _ Source = (*GraphCounter)(nil)

// NewGraphCounter creates a counter over adapter.
func NewGraphCounter(adapter *mirror.Adapter) *GraphCounter {
	return &GraphCounter{graph: adapter}
}

func (c *GraphCounter) processes(ctx context.Context, tenantID string, crit graph.Criticality) []*graph.Node {
	return c.graph.ListNodes(ctx, tenantID, graph.NodeFilter{Type: graph.NodeProcess, Criticality: crit})
}

// CountProcesses counts Process nodes.
func (c *GraphCounter) CountProcesses(ctx context.Context, tenantID string) (int, error) {
	return len(c.processes(ctx, tenantID, graph.CriticalityNone)), nil
}

// CountProcessesWithRTO counts Process nodes with an RTO set.
func (c *GraphCounter) CountProcessesWithRTO(ctx context.Context, tenantID string) (int, error) {
	n := 0
	for _, p := range c.processes(ctx, tenantID, graph.CriticalityNone) {
		if p.RTO != nil {
			n++
		}
	}
	return n, nil
}

// CountCriticalProcesses counts Process nodes marked CRITICAL.
func (c *GraphCounter) CountCriticalProcesses(ctx context.Context, tenantID string) (int, error) {
	return len(c.processes(ctx, tenantID, graph.CriticalityCritical)), nil
}

// GetProcess loads a Process node. Financial and operational impact are not
// mirrored and stay empty.
func (c *GraphCounter) GetProcess(ctx context.Context, tenantID, processID string) (*Process, error) {
	n, err := c.graph.GetNode(ctx, tenantID, processID)
	if err != nil && !graph.IsNotFound(err) {
		return nil, err
	}
	if n == nil || n.Type != graph.NodeProcess {
		return nil, fmt.Errorf("process %s: %w", processID, ErrNotFound)
	}
	return &Process{
		ID:          n.ID,
		Name:        n.Name,
		RTO:         n.RTO,
		Criticality: string(n.Criticality),
	}, nil
}
