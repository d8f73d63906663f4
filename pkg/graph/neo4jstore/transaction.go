package neo4jstore

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/dd0wney/cluso-continuity/pkg/graph"
)

// Tx wraps an explicit Neo4j transaction and owns its session.
type Tx struct {
	session neo4j.SessionWithContext
	tx      neo4j.ExplicitTransaction
	now     func() time.Time
	done    bool
}

func (t *Tx) run(ctx context.Context, op, cypher string, params map[string]any) (*neo4j.Record, error) {
	if t.done {
		return nil, graph.NewError(op).Tx().Cause(graph.ErrTxDone).Err()
	}
	res, err := t.tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, classify(op, err)
	}
	rec, err := res.Single(ctx)
	if err != nil {
		return nil, classify(op, err)
	}
	return rec, nil
}

const upsertNodeCypher = `
MERGE (n:Entity {tenantId: $tenantId, id: $id})
ON CREATE SET n.createdAt = $now
SET n.nodeType = $nodeType, n.updatedAt = $now, n += $attrs
RETURN n.id AS id`

// UpsertNode merges the node keyed by (tenant, id). Only set attributes are
// written, so unset ones keep their stored value.
func (t *Tx) UpsertNode(ctx context.Context, tenantID string, nodeType graph.NodeType, attrs graph.NodeAttributes) (*graph.NodeRef, error) {
	if attrs.ID == "" {
		return nil, graph.NewError("upsert_node").Tenant(tenantID).Cause(graph.ErrInvalidArgument).Err()
	}
	_, err := t.run(ctx, "upsert_node", upsertNodeCypher, map[string]any{
		"tenantId": tenantID,
		"id":       attrs.ID,
		"nodeType": string(nodeType),
		"now":      t.now().UnixMilli(),
		"attrs":    attributeProps(attrs),
	})
	if err != nil {
		return nil, err
	}
	return &graph.NodeRef{ID: attrs.ID, TenantID: tenantID, Type: nodeType}, nil
}

// CreateEdge merges a typed relationship between two existing nodes.
func (t *Tx) CreateEdge(ctx context.Context, tenantID, sourceID, targetID string, edgeType graph.EdgeType) error {
	if !edgeType.Valid() {
		return graph.NewError("create_edge").Edge(sourceID, targetID).Cause(graph.ErrInvalidArgument).Err()
	}
	cypher := fmt.Sprintf(`
OPTIONAL MATCH (a:Entity {tenantId: $tenantId, id: $src})
OPTIONAL MATCH (b:Entity {tenantId: $tenantId, id: $dst})
FOREACH (_ IN CASE WHEN a IS NULL OR b IS NULL THEN [] ELSE [1] END |
  MERGE (a)-[r:%s]->(b)
  ON CREATE SET r.tenantId = $tenantId, r.createdAt = $now)
RETURN a IS NOT NULL AS srcFound, b IS NOT NULL AS dstFound`, edgeType)

	rec, err := t.run(ctx, "create_edge", cypher, map[string]any{
		"tenantId": tenantID, "src": sourceID, "dst": targetID, "now": t.now().UnixMilli(),
	})
	if err != nil {
		return err
	}
	if found, _, _ := neo4j.GetRecordValue[bool](rec, "srcFound"); !found {
		return graph.NodeNotFoundError("create_edge", tenantID, sourceID)
	}
	if found, _, _ := neo4j.GetRecordValue[bool](rec, "dstFound"); !found {
		return graph.NodeNotFoundError("create_edge", tenantID, targetID)
	}
	return nil
}

// DeleteNode detaches and deletes the node.
func (t *Tx) DeleteNode(ctx context.Context, tenantID, nodeID string) error {
	rec, err := t.run(ctx, "delete_node", `
OPTIONAL MATCH (n:Entity {tenantId: $tenantId, id: $id})
WITH n, n IS NOT NULL AS found
DETACH DELETE n
RETURN found`, map[string]any{"tenantId": tenantID, "id": nodeID})
	if err != nil {
		return err
	}
	if found, _, _ := neo4j.GetRecordValue[bool](rec, "found"); !found {
		return graph.NodeNotFoundError("delete_node", tenantID, nodeID)
	}
	return nil
}

// Commit commits the transaction and releases the session.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return graph.NewError("commit").Tx().Cause(graph.ErrTxDone).Err()
	}
	t.done = true
	defer t.session.Close(ctx)
	return classify("commit", t.tx.Commit(ctx))
}

// Rollback rolls back and releases the session. No-op once finished.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.session.Close(ctx)
	return classify("rollback", t.tx.Rollback(ctx))
}
