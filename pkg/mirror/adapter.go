// Package mirror keeps the continuity graph in step with collaborator writes.
// Mirroring is best effort: every failure is logged, counted and answered with
// a neutral default so the collaborator's primary write never fails because of
// the graph.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dd0wney/cluso-continuity/pkg/graph"
	"github.com/dd0wney/cluso-continuity/pkg/logging"
	"github.com/dd0wney/cluso-continuity/pkg/metrics"
)

// errPanic marks a mutation that panicked inside its transaction.
var errPanic = errors.New("panic during graph operation")

// Config bounds adapter reads.
type Config struct {
	// MaxDepth caps traversal depth. 0 means graph.DefaultMaxDepth.
	MaxDepth int `yaml:"max_depth"`
	// TreeLimit caps the entries of one traversal. 0 means graph.DefaultTreeLimit.
	TreeLimit int `yaml:"tree_limit"`
}

// Adapter is the best-effort facade over a graph.Store.
type Adapter struct {
	store   graph.Store
	cfg     Config
	logger  logging.Logger
	metrics *metrics.Registry
}

// New creates an adapter. A nil logger uses the default logger and a nil
// registry disables metrics.
func New(store graph.Store, cfg Config, logger logging.Logger, reg *metrics.Registry) *Adapter {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = graph.DefaultMaxDepth
	}
	if cfg.TreeLimit <= 0 {
		cfg.TreeLimit = graph.DefaultTreeLimit
	}
	return &Adapter{
		store:   store,
		cfg:     cfg,
		logger:  logging.OrDefault(logger).With(logging.Component("mirror")),
		metrics: reg,
	}
}

// MaxDepth returns the traversal depth ceiling.
func (a *Adapter) MaxDepth() int {
	return a.cfg.MaxDepth
}

// UpsertNode merges attrs into the node (tenantID, attrs.ID). It returns nil
// when the mirror write failed.
func (a *Adapter) UpsertNode(ctx context.Context, nodeType graph.NodeType, attrs graph.NodeAttributes, tenantID string) *graph.NodeRef {
	ref, _ := a.apply(ctx, UpsertNodeMutation(tenantID, nodeType, attrs))
	return ref
}

// CreateRelationship adds sourceID -edgeType-> targetID. It reports whether
// the edge was mirrored.
func (a *Adapter) CreateRelationship(ctx context.Context, sourceID, targetID string, edgeType graph.EdgeType, tenantID string) bool {
	_, err := a.apply(ctx, CreateEdgeMutation(tenantID, sourceID, targetID, edgeType))
	return err == nil
}

// DeleteNode removes the node and its incident edges. It reports whether the
// delete was mirrored.
func (a *Adapter) DeleteNode(ctx context.Context, tenantID, nodeID string) bool {
	_, err := a.apply(ctx, DeleteNodeMutation(tenantID, nodeID))
	return err == nil
}

// Apply mirrors one mutation. It reports whether the mutation was committed.
func (a *Adapter) Apply(ctx context.Context, m Mutation) bool {
	_, err := a.apply(ctx, m)
	return err == nil
}

// Sync is Apply for callers that act on the failure. The error wraps
// graph.ErrPartialSync together with the store error.
func (a *Adapter) Sync(ctx context.Context, m Mutation) (*graph.NodeRef, error) {
	return a.apply(ctx, m)
}

func (a *Adapter) apply(ctx context.Context, m Mutation) (*graph.NodeRef, error) {
	start := time.Now()
	op := string(m.Kind)

	var ref *graph.NodeRef
	err := a.withTx(ctx, op, func(tx graph.Tx) error {
		switch m.Kind {
		case KindUpsertNode:
			if m.Node == nil {
				return graph.NewError(op).Tenant(m.Tenant).Cause(graph.ErrInvalidArgument).Err()
			}
			var err error
			ref, err = tx.UpsertNode(ctx, m.Tenant, m.NodeType, *m.Node)
			return err
		case KindCreateEdge:
			if m.Edge == nil {
				return graph.NewError(op).Tenant(m.Tenant).Cause(graph.ErrInvalidArgument).Err()
			}
			return tx.CreateEdge(ctx, m.Tenant, m.Edge.SourceID, m.Edge.TargetID, m.Edge.Type)
		case KindDeleteNode:
			return tx.DeleteNode(ctx, m.Tenant, m.NodeID)
		}
		return graph.NewError(op).Cause(fmt.Errorf("%w: unknown mutation kind %q", graph.ErrInvalidArgument, m.Kind)).Err()
	})

	if err != nil {
		err = fmt.Errorf("%w: %w", graph.ErrPartialSync, err)
		a.degrade(op, start, err,
			logging.Tenant(m.Tenant),
			logging.String("subject", m.subject()))
		return nil, err
	}
	a.recordOK(op, start)
	return ref, nil
}

// withTx runs fn in a scoped transaction: commit on success, rollback on every
// other exit path including a panic in fn.
func (a *Adapter) withTx(ctx context.Context, op string, fn func(graph.Tx) error) (err error) {
	tx, err := a.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = graph.NewError(op).Tx().Cause(fmt.Errorf("%w: %v", errPanic, r)).Err()
		}
		// no-op after a successful Commit
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && err != nil {
			a.logger.Debug("rollback failed", logging.Operation(op), logging.Error(rbErr))
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetNode returns the stored node. NotFound is returned as is; every other
// failure degrades to (nil, nil).
func (a *Adapter) GetNode(ctx context.Context, tenantID, nodeID string) (*graph.Node, error) {
	start := time.Now()
	n, err := a.store.GetNode(ctx, tenantID, nodeID)
	if err != nil {
		if graph.IsNotFound(err) {
			a.recordOK("get_node", start)
			return nil, err
		}
		a.degrade("get_node", start, err, logging.Tenant(tenantID), logging.NodeID(nodeID))
		return nil, nil
	}
	a.recordOK("get_node", start)
	return n, nil
}

// Query returns the tree rooted at nodeID, depth clamped to MaxDepth. A
// missing root is reported as graph.ErrNodeNotFound; any other failure
// degrades to a childless root marked Degraded.
func (a *Adapter) Query(ctx context.Context, nodeID, tenantID string, depth int, dir graph.Direction) (*graph.Tree, error) {
	opts := graph.QueryOptions{
		Depth:     graph.ClampDepth(depth, a.cfg.MaxDepth),
		EdgeType:  graph.DependsOn,
		Direction: dir,
		Limit:     a.cfg.TreeLimit,
	}
	return a.QueryWith(ctx, tenantID, nodeID, opts)
}

// QueryWith is Query with explicit options, for edge types other than dependsOn.
func (a *Adapter) QueryWith(ctx context.Context, tenantID, nodeID string, opts graph.QueryOptions) (*graph.Tree, error) {
	start := time.Now()
	opts.Depth = graph.ClampDepth(opts.Depth, a.cfg.MaxDepth)
	if opts.Limit <= 0 {
		opts.Limit = a.cfg.TreeLimit
	}

	tree, err := a.store.Query(ctx, tenantID, nodeID, opts)
	direction := opts.Direction.String()
	if err != nil {
		if graph.IsNotFound(err) {
			a.recordTraversal(direction, metrics.StatusOK, 0)
			return nil, err
		}
		a.recordTraversal(direction, metrics.StatusDegraded, 0)
		a.degrade("query", start, err, logging.Tenant(tenantID), logging.NodeID(nodeID), logging.Depth(opts.Depth))
		return &graph.Tree{ID: nodeID, Children: []*graph.Tree{}, Degraded: true}, nil
	}

	if tree.Truncated {
		a.logger.Warn("traversal truncated",
			logging.Tenant(tenantID), logging.NodeID(nodeID), logging.Count(opts.Limit))
	}
	a.recordOK("query", start)
	a.recordTraversal(direction, metrics.StatusOK, tree.Size())
	return tree, nil
}

// ListNodes returns the tenant's nodes matching filter, or nil on failure.
func (a *Adapter) ListNodes(ctx context.Context, tenantID string, filter graph.NodeFilter) []*graph.Node {
	start := time.Now()
	nodes, err := a.store.ListNodes(ctx, tenantID, filter)
	if err != nil {
		a.degrade("list_nodes", start, err, logging.Tenant(tenantID))
		return nil
	}
	a.recordOK("list_nodes", start)
	return nodes
}

// FanIn returns the in-degree of every target of edgeType, or nil on failure.
func (a *Adapter) FanIn(ctx context.Context, tenantID string, edgeType graph.EdgeType) []graph.FanIn {
	start := time.Now()
	result, err := a.store.FanIn(ctx, tenantID, edgeType)
	if err != nil {
		a.degrade("fan_in", start, err, logging.Tenant(tenantID), logging.EdgeType(string(edgeType)))
		return nil
	}
	a.recordOK("fan_in", start)
	return result
}

// Ping passes through the backend's connectivity check.
func (a *Adapter) Ping(ctx context.Context) error {
	return a.store.Ping(ctx)
}

// Healthy reports whether the backend answers a ping.
func (a *Adapter) Healthy(ctx context.Context) bool {
	return a.Ping(ctx) == nil
}

func (a *Adapter) degrade(op string, start time.Time, err error, fields ...logging.Field) {
	reason := reasonOf(err)
	a.logger.Warn("graph operation degraded",
		append(fields, logging.Operation(op), logging.String("reason", reason), logging.Error(err))...)
	if a.metrics != nil {
		a.metrics.RecordGraphOperation(op, metrics.StatusDegraded, time.Since(start))
		a.metrics.RecordDegraded(op, reason)
	}
}

func (a *Adapter) recordOK(op string, start time.Time) {
	if a.metrics != nil {
		a.metrics.RecordGraphOperation(op, metrics.StatusOK, time.Since(start))
	}
}

func (a *Adapter) recordTraversal(direction, status string, size int) {
	if a.metrics != nil {
		a.metrics.RecordTraversal(direction, status, size)
	}
}

func reasonOf(err error) string {
	switch {
	case errors.Is(err, errPanic):
		return "panic"
	case graph.IsUnavailable(err):
		return "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case graph.IsNotFound(err):
		return "not_found"
	case errors.Is(err, graph.ErrInvalidArgument):
		return "invalid_argument"
	}
	return "error"
}
