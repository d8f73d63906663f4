package graph

import (
	"context"
)

const (
	// DefaultDepth is the traversal depth used when callers do not pick one.
	DefaultDepth = 3
	// DefaultMaxDepth caps any requested traversal depth.
	DefaultMaxDepth = 10
	// DefaultTreeLimit caps the number of entries in one traversal result.
	// Diamonds are expanded once per path, so dense graphs grow quickly.
	DefaultTreeLimit = 10000
)

// QueryOptions selects the edges a traversal follows and bounds it.
type QueryOptions struct {
	Depth     int
	EdgeType  EdgeType
	Direction Direction
	// Limit caps the number of tree entries; 0 means DefaultTreeLimit.
	Limit int
}

// DependsOnQuery follows dependsOn edges downstream.
func DependsOnQuery(depth int) QueryOptions {
	return QueryOptions{Depth: depth, EdgeType: DependsOn, Direction: Outgoing}
}

// RequiredByQuery follows the requiredBy view, i.e. dependsOn in reverse.
func RequiredByQuery(depth int) QueryOptions {
	return QueryOptions{Depth: depth, EdgeType: DependsOn, Direction: Incoming}
}

// Store is implemented by every graph backend. Reads are tenant scoped and
// run outside of transactions; writes go through Tx.
type Store interface {
	// Begin opens a write transaction. Callers must finish it with Commit or
	// Rollback; Rollback after Commit is a no-op.
	Begin(ctx context.Context) (Tx, error)

	GetNode(ctx context.Context, tenantID, nodeID string) (*Node, error)
	ListNodes(ctx context.Context, tenantID string, filter NodeFilter) ([]*Node, error)

	// Query returns the tree rooted at nodeID following opts.
	Query(ctx context.Context, tenantID, nodeID string, opts QueryOptions) (*Tree, error)

	// FanIn returns every node with at least one incoming edge of edgeType,
	// paired with its count of distinct sources.
	FanIn(ctx context.Context, tenantID string, edgeType EdgeType) ([]FanIn, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Tx is a scoped write transaction.
type Tx interface {
	UpsertNode(ctx context.Context, tenantID string, nodeType NodeType, attrs NodeAttributes) (*NodeRef, error)
	// CreateEdge adds a directed edge. Both endpoints must exist in the tenant.
	// Creating an existing (source, target, type) triple is a no-op.
	CreateEdge(ctx context.Context, tenantID, sourceID, targetID string, edgeType EdgeType) error
	// DeleteNode removes the node together with every incident edge.
	DeleteNode(ctx context.Context, tenantID, nodeID string) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
