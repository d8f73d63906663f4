// Package dependency answers "what does this depend on" and "what depends on
// this" over the dependsOn edges of the continuity graph.
package dependency

import (
	"context"

	"github.com/dd0wney/cluso-continuity/pkg/graph"
	"github.com/dd0wney/cluso-continuity/pkg/mirror"
)

// Resolver runs dependency traversals through the mirror adapter, so an
// unreachable store yields a degraded, childless tree rather than an error.
type Resolver struct {
	graph        *mirror.Adapter
	defaultDepth int
}

// NewResolver creates a resolver over adapter.
func NewResolver(adapter *mirror.Adapter) *Resolver {
	return &Resolver{graph: adapter, defaultDepth: graph.DefaultDepth}
}

// WithDefaultDepth returns a copy of r that uses depth when a caller passes a
// negative depth. A negative argument keeps graph.DefaultDepth.
func (r *Resolver) WithDefaultDepth(depth int) *Resolver {
	c := *r
	if depth >= 0 {
		c.defaultDepth = depth
	}
	return &c
}

// GetDependencies follows dependsOn edges downstream from nodeID for up to
// depth levels. A negative depth uses the default depth.
func (r *Resolver) GetDependencies(ctx context.Context, nodeID, tenantID string, depth int) (*graph.Tree, error) {
	return r.graph.Query(ctx, nodeID, tenantID, r.depthOrDefault(depth), graph.Outgoing)
}

// GetImpactAnalysis follows the requiredBy view upstream from nodeID: every
// entity that depends on it, transitively.
func (r *Resolver) GetImpactAnalysis(ctx context.Context, nodeID, tenantID string, depth int) (*graph.Tree, error) {
	return r.graph.Query(ctx, nodeID, tenantID, r.depthOrDefault(depth), graph.Incoming)
}

func (r *Resolver) depthOrDefault(depth int) int {
	if depth < 0 {
		return r.defaultDepth
	}
	return depth
}

// Flatten returns every entry below the root in pre-order. A node reached
// over several paths appears once per path.
func Flatten(tree *graph.Tree) []*graph.Tree {
	return tree.Descendants()
}

// Count returns the number of entries below the root, duplicates included.
func Count(tree *graph.Tree) int {
	return len(tree.Descendants())
}

// Distinct returns the number of distinct node IDs below the root.
func Distinct(tree *graph.Tree) int {
	seen := make(map[string]struct{})
	for _, e := range tree.Descendants() {
		if e.ID != tree.ID {
			seen[e.ID] = struct{}{}
		}
	}
	return len(seen)
}
