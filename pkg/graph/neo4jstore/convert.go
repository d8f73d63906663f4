package neo4jstore

import (
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/dd0wney/cluso-continuity/pkg/graph"
)

// attributeProps returns only the attributes the upsert sets.
func attributeProps(attrs graph.NodeAttributes) map[string]any {
	props := make(map[string]any)
	if attrs.Name != "" {
		props["name"] = attrs.Name
	}
	if attrs.Criticality != graph.CriticalityNone {
		props["criticality"] = string(attrs.Criticality)
	}
	if attrs.Status != nil {
		props["status"] = *attrs.Status
	}
	if attrs.RTO != nil {
		props["rto"] = int64(*attrs.RTO)
	}
	if attrs.RPO != nil {
		props["rpo"] = int64(*attrs.RPO)
	}
	return props
}

func recordNode(rec *neo4j.Record, key string) (*graph.Node, error) {
	n, _, err := neo4j.GetRecordValue[neo4j.Node](rec, key)
	if err != nil {
		return nil, graph.NewError("decode").Cause(err).Err()
	}
	return nodeFromProps(n.Props)
}

// nodeFromProps decodes stored properties into a graph.Node.
func nodeFromProps(props map[string]any) (*graph.Node, error) {
	id, ok := props["id"].(string)
	if !ok {
		return nil, graph.NewError("decode").Cause(fmt.Errorf("node without id: %v", props)).Err()
	}
	n := &graph.Node{ID: id}
	n.TenantID, _ = props["tenantId"].(string)
	n.Name, _ = props["name"].(string)
	if t, ok := props["nodeType"].(string); ok {
		n.Type = graph.NodeType(t)
	}
	if c, ok := props["criticality"].(string); ok {
		n.Criticality = graph.Criticality(c)
	}
	if s, ok := props["status"].(string); ok {
		n.Status = &s
	}
	if v, ok := props["rto"].(int64); ok {
		rto := int(v)
		n.RTO = &rto
	}
	if v, ok := props["rpo"].(int64); ok {
		rpo := int(v)
		n.RPO = &rpo
	}
	n.CreatedAt, _ = props["createdAt"].(int64)
	n.UpdatedAt, _ = props["updatedAt"].(int64)
	return n, nil
}
