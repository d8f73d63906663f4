package mirror

import (
	"github.com/dd0wney/cluso-continuity/pkg/graph"
)

// Kind names a mirror mutation.
type Kind string

const (
	KindUpsertNode Kind = "upsert_node"
	KindCreateEdge Kind = "create_edge"
	KindDeleteNode Kind = "delete_node"
)

// Mutation is one collaborator write to mirror into the graph. It is the unit
// a queue-driven sync worker would consume.
type Mutation struct {
	Kind   Kind   `json:"kind"`
	Tenant string `json:"tenantId"`

	// KindUpsertNode
	NodeType graph.NodeType        `json:"nodeType,omitempty"`
	Node     *graph.NodeAttributes `json:"node,omitempty"`

	// KindCreateEdge
	Edge *graph.Edge `json:"edge,omitempty"`

	// KindDeleteNode
	NodeID string `json:"nodeId,omitempty"`
}

// UpsertNodeMutation builds a KindUpsertNode mutation.
func UpsertNodeMutation(tenantID string, nodeType graph.NodeType, attrs graph.NodeAttributes) Mutation {
	return Mutation{Kind: KindUpsertNode, Tenant: tenantID, NodeType: nodeType, Node: &attrs}
}

// CreateEdgeMutation builds a KindCreateEdge mutation.
func CreateEdgeMutation(tenantID, sourceID, targetID string, edgeType graph.EdgeType) Mutation {
	return Mutation{
		Kind:   KindCreateEdge,
		Tenant: tenantID,
		Edge:   &graph.Edge{SourceID: sourceID, TargetID: targetID, Type: edgeType, TenantID: tenantID},
	}
}

// DeleteNodeMutation builds a KindDeleteNode mutation.
func DeleteNodeMutation(tenantID, nodeID string) Mutation {
	return Mutation{Kind: KindDeleteNode, Tenant: tenantID, NodeID: nodeID}
}

// subject returns the ID the mutation is about, for logging.
func (m Mutation) subject() string {
	switch m.Kind {
	case KindUpsertNode:
		if m.Node != nil {
			return m.Node.ID
		}
	case KindCreateEdge:
		if m.Edge != nil {
			return m.Edge.SourceID + "->" + m.Edge.TargetID
		}
	case KindDeleteNode:
		return m.NodeID
	}
	return ""
}
