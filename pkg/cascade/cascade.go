// Package cascade classifies how far the failure of one node propagates
// through the entities that depend on it.
package cascade

import (
	"context"

	"github.com/dd0wney/cluso-continuity/pkg/dependency"
	"github.com/dd0wney/cluso-continuity/pkg/graph"
	"github.com/dd0wney/cluso-continuity/pkg/logging"
	"github.com/dd0wney/cluso-continuity/pkg/metrics"
	"github.com/dd0wney/cluso-continuity/pkg/scoring"
)

// Severity grades an impact set.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Affected is one entry of the impact set.
type Affected struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	NodeType    graph.NodeType    `json:"nodeType"`
	Criticality graph.Criticality `json:"criticality,omitempty"`
	Depth       int               `json:"depth"`
}

// Result is the classified cascade of one node. Counts include a node once
// per dependency path.
type Result struct {
	NodeID        string     `json:"nodeId"`
	Severity      Severity   `json:"severity"`
	Affected      []Affected `json:"affected"`
	TotalCount    int        `json:"totalCount"`
	CriticalCount int        `json:"criticalCount"`
	DistinctCount int        `json:"distinctCount"`
	Degraded      bool       `json:"degraded,omitempty"`
}

// Calculator runs impact analysis and grades the result.
type Calculator struct {
	resolver   *dependency.Resolver
	thresholds scoring.CascadeThresholds
	depth      int
	logger     logging.Logger
	metrics    *metrics.Registry
}

// NewCalculator creates a calculator. A negative depth defers to the
// resolver's default depth; zero is honoured and grades the node alone.
func NewCalculator(resolver *dependency.Resolver, thresholds scoring.CascadeThresholds, depth int, logger logging.Logger, reg *metrics.Registry) *Calculator {
	if depth < 0 {
		depth = -1
	}
	return &Calculator{
		resolver:   resolver,
		thresholds: thresholds,
		depth:      depth,
		logger:     logging.OrDefault(logger).With(logging.Component("cascade")),
		metrics:    reg,
	}
}

// CalculateImpactCascade collects everything that transitively requires
// nodeID and classifies the severity of losing it.
func (c *Calculator) CalculateImpactCascade(ctx context.Context, nodeID, tenantID string) (*Result, error) {
	tree, err := c.resolver.GetImpactAnalysis(ctx, nodeID, tenantID, c.depth)
	if err != nil {
		return nil, err
	}

	flat := dependency.Flatten(tree)
	res := &Result{
		NodeID:        nodeID,
		Affected:      make([]Affected, 0, len(flat)),
		TotalCount:    len(flat),
		DistinctCount: dependency.Distinct(tree),
		Degraded:      tree.Degraded,
	}
	for _, e := range flat {
		res.Affected = append(res.Affected, Affected{
			ID:          e.ID,
			Name:        e.Name,
			NodeType:    e.NodeType,
			Criticality: e.Criticality,
			Depth:       e.Depth,
		})
		if e.Criticality == graph.CriticalityCritical {
			res.CriticalCount++
		}
	}
	res.Severity = Classify(c.thresholds, res.CriticalCount, res.TotalCount)

	if res.DistinctCount < res.TotalCount {
		c.logger.Debug("impact set counts repeated paths",
			logging.Tenant(tenantID), logging.NodeID(nodeID),
			logging.Count(res.TotalCount), logging.Int("distinct", res.DistinctCount))
	}
	if c.metrics != nil {
		c.metrics.RecordCascade(string(res.Severity))
	}
	return res, nil
}

// Classify grades an impact set of total entries, critical of which are
// CRITICAL.
func Classify(t scoring.CascadeThresholds, critical, total int) Severity {
	switch {
	case critical >= t.CriticalCountForCritical || total >= t.TotalForCritical:
		return SeverityCritical
	case critical >= t.CriticalCountForHigh || total >= t.TotalForHigh:
		return SeverityHigh
	case total >= t.TotalForMedium:
		return SeverityMedium
	}
	return SeverityLow
}

// Rank orders severities from LOW (0) to CRITICAL (3).
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	}
	return 0
}
