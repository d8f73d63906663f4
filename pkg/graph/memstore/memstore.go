// Package memstore is the embedded graph backend: an arena of nodes per tenant
// plus forward and reverse adjacency indexes per edge type, maintained together
// on every edge write.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dd0wney/cluso-continuity/pkg/graph"
)

type idSet map[string]struct{}

// tenantGraph holds one tenant's partition of the graph.
type tenantGraph struct {
	nodes map[string]*graph.Node
	// out[type][source] -> targets; in[type][target] -> sources
	out map[graph.EdgeType]map[string]idSet
	in  map[graph.EdgeType]map[string]idSet

	edgeCount int
}

func newTenantGraph() *tenantGraph {
	return &tenantGraph{
		nodes: make(map[string]*graph.Node),
		out:   make(map[graph.EdgeType]map[string]idSet),
		in:    make(map[graph.EdgeType]map[string]idSet),
	}
}

func (tg *tenantGraph) hasEdge(src, dst string, et graph.EdgeType) bool {
	_, ok := tg.out[et][src][dst]
	return ok
}

func link(index map[graph.EdgeType]map[string]idSet, et graph.EdgeType, from, to string) {
	byNode := index[et]
	if byNode == nil {
		byNode = make(map[string]idSet)
		index[et] = byNode
	}
	set := byNode[from]
	if set == nil {
		set = make(idSet)
		byNode[from] = set
	}
	set[to] = struct{}{}
}

func unlink(index map[graph.EdgeType]map[string]idSet, et graph.EdgeType, from, to string) {
	set := index[et][from]
	if set == nil {
		return
	}
	delete(set, to)
	if len(set) == 0 {
		delete(index[et], from)
	}
}

func (tg *tenantGraph) addEdge(src, dst string, et graph.EdgeType) {
	if tg.hasEdge(src, dst, et) {
		return
	}
	link(tg.out, et, src, dst)
	link(tg.in, et, dst, src)
	tg.edgeCount++
}

// removeNode drops the node and every edge touching it from both indexes.
func (tg *tenantGraph) removeNode(id string) {
	for _, et := range graph.EdgeTypes {
		for dst := range tg.out[et][id] {
			unlink(tg.in, et, dst, id)
			tg.edgeCount--
		}
		delete(tg.out[et], id)

		for src := range tg.in[et][id] {
			unlink(tg.out, et, src, id)
			tg.edgeCount--
		}
		delete(tg.in[et], id)
	}
	delete(tg.nodes, id)
}

// Statistics reports store-wide counts.
type Statistics struct {
	Tenants   int
	NodeCount int
	EdgeCount int
}

// Store is an in-memory graph.Store.
type Store struct {
	mu      sync.RWMutex
	tenants map[string]*tenantGraph
	closed  bool

	now func() time.Time
}

var _ graph.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		tenants: make(map[string]*tenantGraph),
		now:     time.Now,
	}
}

// tenant returns the tenant partition, or nil. Caller holds mu.
func (s *Store) tenant(tenantID string) *tenantGraph {
	return s.tenants[tenantID]
}

// Begin opens a buffered write transaction.
func (s *Store) Begin(ctx context.Context) (graph.Tx, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, graph.NewError("begin").Tx().Cause(graph.ErrStoreClosed).Err()
	}
	return &Tx{store: s, active: true}, nil
}

// GetNode returns a copy of the node.
func (s *Store) GetNode(ctx context.Context, tenantID, nodeID string) (*graph.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, graph.NewError("get_node").Cause(graph.ErrStoreClosed).Err()
	}

	tg := s.tenant(tenantID)
	if tg == nil {
		return nil, graph.NodeNotFoundError("get_node", tenantID, nodeID)
	}
	n, ok := tg.nodes[nodeID]
	if !ok {
		return nil, graph.NodeNotFoundError("get_node", tenantID, nodeID)
	}
	return n.Clone(), nil
}

// ListNodes returns copies of the tenant's nodes matching filter, sorted by ID.
func (s *Store) ListNodes(ctx context.Context, tenantID string, filter graph.NodeFilter) ([]*graph.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, graph.NewError("list_nodes").Cause(graph.ErrStoreClosed).Err()
	}

	tg := s.tenant(tenantID)
	if tg == nil {
		return []*graph.Node{}, nil
	}
	nodes := make([]*graph.Node, 0, len(tg.nodes))
	for _, n := range tg.nodes {
		if filter.Matches(n) {
			nodes = append(nodes, n.Clone())
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes, nil
}

// Query expands the tree rooted at nodeID.
func (s *Store) Query(ctx context.Context, tenantID, nodeID string, opts graph.QueryOptions) (*graph.Tree, error) {
	root, err := s.GetNode(ctx, tenantID, nodeID)
	if err != nil {
		return nil, err
	}
	if opts.EdgeType == "" {
		opts.EdgeType = graph.DependsOn
	}
	return graph.BuildTree(ctx, root, opts, s.neighbors(tenantID, opts.EdgeType, opts.Direction))
}

func (s *Store) neighbors(tenantID string, et graph.EdgeType, dir graph.Direction) graph.NeighborFunc {
	return func(ctx context.Context, ids []string) (map[string][]*graph.Node, error) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		if s.closed {
			return nil, graph.NewError("query").Cause(graph.ErrStoreClosed).Err()
		}

		tg := s.tenant(tenantID)
		out := make(map[string][]*graph.Node, len(ids))
		if tg == nil {
			return out, nil
		}

		index := tg.out
		if dir == graph.Incoming {
			index = tg.in
		}
		for _, id := range ids {
			adj := index[et][id]
			if len(adj) == 0 {
				continue
			}
			nodes := make([]*graph.Node, 0, len(adj))
			for nid := range adj {
				if n, ok := tg.nodes[nid]; ok {
					nodes = append(nodes, n.Clone())
				}
			}
			sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
			out[id] = nodes
		}
		return out, nil
	}
}

// FanIn returns every node with at least one incoming edge of edgeType from
// another node. Self loops are not counted, matching traversal.
func (s *Store) FanIn(ctx context.Context, tenantID string, edgeType graph.EdgeType) ([]graph.FanIn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, graph.NewError("fan_in").Cause(graph.ErrStoreClosed).Err()
	}

	tg := s.tenant(tenantID)
	if tg == nil {
		return []graph.FanIn{}, nil
	}
	result := make([]graph.FanIn, 0, len(tg.in[edgeType]))
	for id, sources := range tg.in[edgeType] {
		count := len(sources)
		if _, self := sources[id]; self {
			count--
		}
		n, ok := tg.nodes[id]
		if !ok || count == 0 {
			continue
		}
		result = append(result, graph.FanIn{Node: n.Clone(), Count: count})
	}
	return result, nil
}

// Ping reports whether the store accepts operations.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return graph.ErrStoreClosed
	}
	return nil
}

// Close marks the store closed. Every later call fails with ErrStoreClosed.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// GetStatistics returns node and edge counts across all tenants.
func (s *Store) GetStatistics() Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := Statistics{Tenants: len(s.tenants)}
	for _, tg := range s.tenants {
		stats.NodeCount += len(tg.nodes)
		stats.EdgeCount += tg.edgeCount
	}
	return stats
}
