// Package graph defines the tenant-scoped continuity graph: typed nodes for
// processes, assets, risks, plans and objectives, typed directed edges between
// them, and the Store contract every backend implements.
package graph

import (
	"fmt"
	"strings"
)

// NodeType classifies an entity mirrored into the graph.
type NodeType string

const (
	NodeProcess   NodeType = "Process"
	NodeAsset     NodeType = "Asset"
	NodeRisk      NodeType = "Risk"
	NodePlan      NodeType = "Plan"
	NodeObjective NodeType = "Objective"
)

// NodeTypes lists every valid node type.
var NodeTypes = []NodeType{NodeProcess, NodeAsset, NodeRisk, NodePlan, NodeObjective}

// ParseNodeType resolves a node type name case-insensitively.
func ParseNodeType(s string) (NodeType, error) {
	for _, t := range NodeTypes {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown node type %q", ErrInvalidArgument, s)
}

// Criticality is the stored business criticality of a node. The zero value
// means the attribute was never set.
type Criticality string

const (
	CriticalityNone     Criticality = ""
	CriticalityLow      Criticality = "LOW"
	CriticalityMedium   Criticality = "MEDIUM"
	CriticalityHigh     Criticality = "HIGH"
	CriticalityCritical Criticality = "CRITICAL"
)

// ParseCriticality resolves a criticality name case-insensitively. An empty
// string parses to CriticalityNone.
func ParseCriticality(s string) (Criticality, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return CriticalityNone, nil
	case "LOW":
		return CriticalityLow, nil
	case "MEDIUM":
		return CriticalityMedium, nil
	case "HIGH":
		return CriticalityHigh, nil
	case "CRITICAL":
		return CriticalityCritical, nil
	}
	return "", fmt.Errorf("%w: unknown criticality %q", ErrInvalidArgument, s)
}

// EdgeType is the predicate of a directed edge.
type EdgeType string

const (
	DependsOn       EdgeType = "dependsOn"
	Affects         EdgeType = "affects"
	Protects        EdgeType = "protects"
	SupportsProcess EdgeType = "supportsProcess"
	OwnedBy         EdgeType = "ownedBy"
	Mitigates       EdgeType = "mitigates"
)

// RequiredBy names the inverse view of DependsOn. It is never stored; it is
// answered from the reverse index.
const RequiredBy = "requiredBy"

// EdgeTypes lists every storable edge type.
var EdgeTypes = []EdgeType{DependsOn, Affects, Protects, SupportsProcess, OwnedBy, Mitigates}

// Valid reports whether t is a storable edge type.
func (t EdgeType) Valid() bool {
	for _, et := range EdgeTypes {
		if et == t {
			return true
		}
	}
	return false
}

// ParseEdgeType resolves a storable edge type name case-insensitively.
func ParseEdgeType(s string) (EdgeType, error) {
	for _, et := range EdgeTypes {
		if strings.EqualFold(string(et), s) {
			return et, nil
		}
	}
	return "", fmt.Errorf("%w: unknown edge type %q", ErrInvalidArgument, s)
}

// Direction selects which adjacency index a traversal follows.
type Direction int

const (
	// Outgoing follows edges from source to target (dependsOn).
	Outgoing Direction = iota
	// Incoming follows the reverse index from target to source (requiredBy).
	Incoming
)

func (d Direction) String() string {
	if d == Incoming {
		return "incoming"
	}
	return "outgoing"
}

// Node is a vertex of the continuity graph. Optional attributes are pointers
// so that "unset" and "zero" stay distinguishable.
type Node struct {
	ID          string      `json:"id"`
	TenantID    string      `json:"tenantId"`
	Type        NodeType    `json:"nodeType"`
	Name        string      `json:"name"`
	Criticality Criticality `json:"criticality,omitempty"`
	Status      *string     `json:"status,omitempty"`
	RTO         *int        `json:"rto,omitempty"`
	RPO         *int        `json:"rpo,omitempty"`
	CreatedAt   int64       `json:"createdAt"`
	UpdatedAt   int64       `json:"updatedAt"`
}

// Clone creates a deep copy of a node
func (n *Node) Clone() *Node {
	clone := *n
	if n.Status != nil {
		s := *n.Status
		clone.Status = &s
	}
	if n.RTO != nil {
		v := *n.RTO
		clone.RTO = &v
	}
	if n.RPO != nil {
		v := *n.RPO
		clone.RPO = &v
	}
	return &clone
}

// Ref returns the reference handed back to collaborators after an upsert.
func (n *Node) Ref() *NodeRef {
	return &NodeRef{ID: n.ID, TenantID: n.TenantID, Type: n.Type}
}

// NodeRef identifies a node without carrying its attributes.
type NodeRef struct {
	ID       string   `json:"id"`
	TenantID string   `json:"tenantId"`
	Type     NodeType `json:"nodeType"`
}

// NodeAttributes carries the attributes of an upsert. Name and Criticality
// overwrite when non-empty; pointer fields overwrite when non-nil. Anything
// left unset keeps its stored value.
type NodeAttributes struct {
	ID          string
	Name        string
	Criticality Criticality
	Status      *string
	RTO         *int
	RPO         *int
}

// Merge applies attrs onto n in place.
func (n *Node) Merge(nodeType NodeType, attrs NodeAttributes) {
	n.Type = nodeType
	if attrs.Name != "" {
		n.Name = attrs.Name
	}
	if attrs.Criticality != CriticalityNone {
		n.Criticality = attrs.Criticality
	}
	if attrs.Status != nil {
		s := *attrs.Status
		n.Status = &s
	}
	if attrs.RTO != nil {
		v := *attrs.RTO
		n.RTO = &v
	}
	if attrs.RPO != nil {
		v := *attrs.RPO
		n.RPO = &v
	}
}

// Edge is a directed, typed, tenant-scoped relationship.
type Edge struct {
	SourceID  string   `json:"sourceId"`
	TargetID  string   `json:"targetId"`
	Type      EdgeType `json:"type"`
	TenantID  string   `json:"tenantId"`
	CreatedAt int64    `json:"createdAt"`
}

// NodeFilter narrows ListNodes. Zero-valued fields do not filter.
type NodeFilter struct {
	Type        NodeType
	Criticality Criticality
}

// Matches reports whether n passes the filter.
func (f NodeFilter) Matches(n *Node) bool {
	if f.Type != "" && n.Type != f.Type {
		return false
	}
	if f.Criticality != CriticalityNone && n.Criticality != f.Criticality {
		return false
	}
	return true
}

// FanIn pairs a node with the number of distinct sources pointing at it over
// one edge type.
type FanIn struct {
	Node  *Node
	Count int
}
