package api

import (
	"github.com/dd0wney/cluso-continuity/pkg/graph"
	"github.com/dd0wney/cluso-continuity/pkg/health"
	"github.com/dd0wney/cluso-continuity/pkg/scoring"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status    health.Status           `json:"status"`
	Graph     string                  `json:"graph"`
	Version   string                  `json:"version"`
	Uptime    string                  `json:"uptime"`
	Timestamp int64                   `json:"timestamp"`
	Checks    map[string]health.Check `json:"checks"`
}

// EdgeResponse echoes a mirrored relationship.
type EdgeResponse struct {
	SourceID string         `json:"sourceId"`
	TargetID string         `json:"targetId"`
	Type     graph.EdgeType `json:"type"`
	TenantID string         `json:"tenantId"`
}

// TreeResponse wraps a traversal with its size counters.
type TreeResponse struct {
	Tree          *graph.Tree `json:"tree"`
	TotalCount    int         `json:"totalCount"`
	DistinctCount int         `json:"distinctCount"`
}

// ScoreResponse is a risk assessment plus, when BIA inputs were supplied,
// the priority score.
type ScoreResponse struct {
	*scoring.Assessment
	Priority *scoring.Priority `json:"priority,omitempty"`
}
