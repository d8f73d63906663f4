// Package spof finds single points of failure: nodes that two or more
// entities depend on.
package spof

import (
	"context"
	"sort"

	"github.com/dd0wney/cluso-continuity/pkg/graph"
	"github.com/dd0wney/cluso-continuity/pkg/logging"
	"github.com/dd0wney/cluso-continuity/pkg/metrics"
	"github.com/dd0wney/cluso-continuity/pkg/mirror"
)

// MinFanIn is the smallest requiredBy count that makes a node a SPOF.
const MinFanIn = 2

// Risk is the aggregate SPOF risk of a tenant.
type Risk string

const (
	RiskHigh Risk = "HIGH"
	RiskLow  Risk = "LOW"
)

// SPOF is a node required by at least MinFanIn distinct entities.
type SPOF struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	NodeType    graph.NodeType    `json:"nodeType"`
	Criticality graph.Criticality `json:"criticality,omitempty"`
	FanIn       int               `json:"fanIn"`
}

// Analysis summarizes the SPOFs of a tenant.
type Analysis struct {
	CriticalAssets []SPOF `json:"criticalAssets"`
	TotalSPOFs     int    `json:"totalSPOFs"`
	SPOFRisk       Risk   `json:"spofRisk"`
}

// Detector runs fan-in analysis over the reverse dependsOn index.
type Detector struct {
	graph   *mirror.Adapter
	logger  logging.Logger
	metrics *metrics.Registry
}

// NewDetector creates a detector. A nil registry disables metrics.
func NewDetector(adapter *mirror.Adapter, logger logging.Logger, reg *metrics.Registry) *Detector {
	return &Detector{
		graph:   adapter,
		logger:  logging.OrDefault(logger).With(logging.Component("spof")),
		metrics: reg,
	}
}

// FindSinglePointsOfFailure returns every node with fanIn >= MinFanIn. The
// order is unspecified; use SortByFanIn for a stable ranking.
func (d *Detector) FindSinglePointsOfFailure(ctx context.Context, tenantID string) ([]SPOF, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fanIns := d.graph.FanIn(ctx, tenantID, graph.DependsOn)
	result := make([]SPOF, 0)
	for _, f := range fanIns {
		if f.Count < MinFanIn {
			continue
		}
		result = append(result, SPOF{
			ID:          f.Node.ID,
			Name:        f.Node.Name,
			NodeType:    f.Node.Type,
			Criticality: f.Node.Criticality,
			FanIn:       f.Count,
		})
	}

	if d.metrics != nil {
		d.metrics.SetSPOFCount(tenantID, len(result))
	}
	d.logger.Debug("spof scan complete", logging.Tenant(tenantID), logging.Count(len(result)))
	return result, nil
}

// AnalyzeSPOF ranks the tenant's SPOFs and grades the aggregate risk.
func (d *Detector) AnalyzeSPOF(ctx context.Context, tenantID string) (*Analysis, error) {
	spofs, err := d.FindSinglePointsOfFailure(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	SortByFanIn(spofs)

	risk := RiskLow
	if len(spofs) > 0 {
		risk = RiskHigh
	}
	return &Analysis{
		CriticalAssets: spofs,
		TotalSPOFs:     len(spofs),
		SPOFRisk:       risk,
	}, nil
}

// SortByFanIn orders spofs by fan-in descending, then by ID.
func SortByFanIn(spofs []SPOF) {
	sort.Slice(spofs, func(i, j int) bool {
		if spofs[i].FanIn != spofs[j].FanIn {
			return spofs[i].FanIn > spofs[j].FanIn
		}
		return spofs[i].ID < spofs[j].ID
	})
}

// HasCritical reports whether any SPOF carries CRITICAL criticality.
func HasCritical(spofs []SPOF) bool {
	for _, s := range spofs {
		if s.Criticality == graph.CriticalityCritical {
			return true
		}
	}
	return false
}
