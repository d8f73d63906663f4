package memstore

import (
	"context"
	"sync"

	"github.com/dd0wney/cluso-continuity/pkg/graph"
)

type opKind int

const (
	opUpsertNode opKind = iota
	opCreateEdge
	opDeleteNode
)

// pendingOp is a buffered mutation. Nothing touches the store before Commit.
type pendingOp struct {
	kind     opKind
	tenantID string
	nodeType graph.NodeType
	attrs    graph.NodeAttributes
	src, dst string
	edgeType graph.EdgeType
}

// Tx buffers mutations and applies them atomically on Commit.
type Tx struct {
	store *Store
	ops   []pendingOp

	mu     sync.Mutex
	active bool
}

func (tx *Tx) buffer(op pendingOp) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if !tx.active {
		return graph.NewError("buffer").Tx().Cause(graph.ErrTxDone).Err()
	}
	tx.ops = append(tx.ops, op)
	return nil
}

// UpsertNode buffers an idempotent merge of the node keyed by (tenant, id).
func (tx *Tx) UpsertNode(ctx context.Context, tenantID string, nodeType graph.NodeType, attrs graph.NodeAttributes) (*graph.NodeRef, error) {
	if attrs.ID == "" {
		return nil, graph.NewError("upsert_node").Tenant(tenantID).Cause(graph.ErrInvalidArgument).Err()
	}
	err := tx.buffer(pendingOp{kind: opUpsertNode, tenantID: tenantID, nodeType: nodeType, attrs: attrs})
	if err != nil {
		return nil, err
	}
	return &graph.NodeRef{ID: attrs.ID, TenantID: tenantID, Type: nodeType}, nil
}

// CreateEdge buffers a directed edge.
func (tx *Tx) CreateEdge(ctx context.Context, tenantID, sourceID, targetID string, edgeType graph.EdgeType) error {
	if !edgeType.Valid() {
		return graph.NewError("create_edge").Edge(sourceID, targetID).Cause(graph.ErrInvalidArgument).Err()
	}
	return tx.buffer(pendingOp{kind: opCreateEdge, tenantID: tenantID, src: sourceID, dst: targetID, edgeType: edgeType})
}

// DeleteNode buffers removal of the node and its incident edges.
func (tx *Tx) DeleteNode(ctx context.Context, tenantID, nodeID string) error {
	return tx.buffer(pendingOp{kind: opDeleteNode, tenantID: tenantID, src: nodeID})
}

// Commit validates every buffered op against the store plus the effect of the
// earlier ops, then applies them all. On a validation failure nothing is applied.
func (tx *Tx) Commit(ctx context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if !tx.active {
		return graph.NewError("commit").Tx().Cause(graph.ErrTxDone).Err()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return graph.NewError("commit").Tx().Cause(graph.ErrStoreClosed).Err()
	}

	if err := tx.validate(); err != nil {
		return err
	}

	now := s.now().UnixMilli()
	for _, op := range tx.ops {
		tg := s.tenants[op.tenantID]
		if tg == nil {
			tg = newTenantGraph()
			s.tenants[op.tenantID] = tg
		}
		switch op.kind {
		case opUpsertNode:
			n, ok := tg.nodes[op.attrs.ID]
			if !ok {
				n = &graph.Node{ID: op.attrs.ID, TenantID: op.tenantID, CreatedAt: now}
				tg.nodes[n.ID] = n
			}
			n.Merge(op.nodeType, op.attrs)
			n.UpdatedAt = now
		case opCreateEdge:
			tg.addEdge(op.src, op.dst, op.edgeType)
		case opDeleteNode:
			tg.removeNode(op.src)
		}
	}

	tx.active = false
	tx.ops = nil
	return nil
}

// validate replays existence checks over the buffered ops. Caller holds the
// store write lock.
func (tx *Tx) validate() error {
	// overlay[tenant][id] records existence changes made by earlier ops
	overlay := make(map[string]map[string]bool)
	exists := func(tenantID, id string) bool {
		if v, ok := overlay[tenantID][id]; ok {
			return v
		}
		tg := tx.store.tenants[tenantID]
		if tg == nil {
			return false
		}
		_, ok := tg.nodes[id]
		return ok
	}
	set := func(tenantID, id string, v bool) {
		if overlay[tenantID] == nil {
			overlay[tenantID] = make(map[string]bool)
		}
		overlay[tenantID][id] = v
	}

	for _, op := range tx.ops {
		switch op.kind {
		case opUpsertNode:
			set(op.tenantID, op.attrs.ID, true)
		case opCreateEdge:
			if !exists(op.tenantID, op.src) {
				return graph.NodeNotFoundError("create_edge", op.tenantID, op.src)
			}
			if !exists(op.tenantID, op.dst) {
				return graph.NodeNotFoundError("create_edge", op.tenantID, op.dst)
			}
		case opDeleteNode:
			if !exists(op.tenantID, op.src) {
				return graph.NodeNotFoundError("delete_node", op.tenantID, op.src)
			}
			set(op.tenantID, op.src, false)
		}
	}
	return nil
}

// Rollback discards the buffered ops. It is idempotent and a no-op after Commit.
func (tx *Tx) Rollback(ctx context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.active = false
	tx.ops = nil
	return nil
}
