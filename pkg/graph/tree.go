package graph

import (
	"context"
)

// Tree is a nested traversal result. A node reachable over several paths
// appears once per path.
type Tree struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	NodeType    NodeType    `json:"nodeType"`
	Criticality Criticality `json:"criticality,omitempty"`
	Depth       int         `json:"depth"`
	Children    []*Tree     `json:"children"`
	// Truncated is set on the root when the entry limit cut the traversal short.
	Truncated bool `json:"truncated,omitempty"`
	// Degraded is set on the root when the store could not answer and the
	// tree is a neutral placeholder.
	Degraded bool `json:"degraded,omitempty"`
}

// NewTree creates a childless tree entry for n at the given depth.
func NewTree(n *Node, depth int) *Tree {
	return &Tree{
		ID:          n.ID,
		Name:        n.Name,
		NodeType:    n.Type,
		Criticality: n.Criticality,
		Depth:       depth,
		Children:    []*Tree{},
	}
}

// Descendants returns every entry below the root in pre-order. Entries reached
// over several paths are returned once per path.
func (t *Tree) Descendants() []*Tree {
	if t == nil {
		return nil
	}
	var out []*Tree
	var walk func(*Tree)
	walk = func(n *Tree) {
		for _, c := range n.Children {
			out = append(out, c)
			walk(c)
		}
	}
	walk(t)
	return out
}

// Size returns the number of entries in the tree including the root.
func (t *Tree) Size() int {
	if t == nil {
		return 0
	}
	return len(t.Descendants()) + 1
}

// NeighborFunc returns, for each of the given node IDs, the nodes adjacent to
// it in the traversal direction. Backends batch one frontier per call.
type NeighborFunc func(ctx context.Context, ids []string) (map[string][]*Node, error)

type frontierEntry struct {
	tree   *Tree
	parent *frontierEntry
}

func (f *frontierEntry) onPath(id string) bool {
	for p := f; p != nil; p = p.parent {
		if p.tree.ID == id {
			return true
		}
	}
	return false
}

// BuildTree expands root level by level up to opts.Depth. A node already on
// the path from the root is not expanded again, which terminates traversal on
// cyclic graphs independently of the depth bound.
func BuildTree(ctx context.Context, root *Node, opts QueryOptions, neighbors NeighborFunc) (*Tree, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultTreeLimit
	}

	rootTree := NewTree(root, 0)
	size := 1
	frontier := []*frontierEntry{{tree: rootTree}}

	for level := 1; level <= opts.Depth && len(frontier) > 0; level++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ids := make([]string, 0, len(frontier))
		seen := make(map[string]bool, len(frontier))
		for _, f := range frontier {
			if !seen[f.tree.ID] {
				seen[f.tree.ID] = true
				ids = append(ids, f.tree.ID)
			}
		}

		adjacent, err := neighbors(ctx, ids)
		if err != nil {
			return nil, err
		}

		next := make([]*frontierEntry, 0, len(frontier))
		for _, f := range frontier {
			for _, n := range adjacent[f.tree.ID] {
				if f.onPath(n.ID) {
					continue
				}
				if size >= limit {
					rootTree.Truncated = true
					return rootTree, nil
				}
				child := NewTree(n, level)
				f.tree.Children = append(f.tree.Children, child)
				size++
				next = append(next, &frontierEntry{tree: child, parent: f})
			}
		}
		frontier = next
	}

	return rootTree, nil
}

// ClampDepth bounds a requested depth to [0, max].
func ClampDepth(depth, max int) int {
	if max <= 0 {
		max = DefaultMaxDepth
	}
	if depth < 0 {
		return 0
	}
	if depth > max {
		return max
	}
	return depth
}
