// Package neo4jstore implements graph.Store on Neo4j. Every entity is an
// :Entity node keyed by (tenantId, id); edge types map onto relationship
// types, so the reverse view is a match on the inverse direction.
package neo4jstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/dd0wney/cluso-continuity/pkg/graph"
)

// Config holds connection settings.
type Config struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	// ConnectTimeout bounds the connectivity check in New.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// Store implements graph.Store for Neo4j.
type Store struct {
	driver neo4j.DriverWithContext
	dbName string
	now    func() time.Time
}

var _ graph.Store = (*Store)(nil)

// New connects to Neo4j and verifies connectivity.
func New(ctx context.Context, cfg Config) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	verifyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		driver.Close(ctx)
		return nil, graph.Unavailable("connect", err)
	}

	return &Store{driver: driver, dbName: cfg.Database, now: time.Now}, nil
}

// EnsureSchema creates the uniqueness constraint, the exact-match indexes and
// the full-text index on name.
func (s *Store) EnsureSchema(ctx context.Context) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	for _, stmt := range schemaStatements {
		res, err := session.Run(ctx, stmt, nil)
		if err != nil {
			return classify("ensure_schema", err)
		}
		if _, err := res.Consume(ctx); err != nil {
			return classify("ensure_schema", err)
		}
	}
	return nil
}

var schemaStatements = []string{
	"CREATE CONSTRAINT entity_key IF NOT EXISTS FOR (n:Entity) REQUIRE (n.tenantId, n.id) IS UNIQUE",
	"CREATE INDEX entity_node_type IF NOT EXISTS FOR (n:Entity) ON (n.tenantId, n.nodeType)",
	"CREATE INDEX entity_criticality IF NOT EXISTS FOR (n:Entity) ON (n.criticality)",
	"CREATE INDEX entity_status IF NOT EXISTS FOR (n:Entity) ON (n.status)",
	"CREATE FULLTEXT INDEX entity_name IF NOT EXISTS FOR (n:Entity) ON EACH [n.name]",
}

func (s *Store) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.dbName, AccessMode: mode})
}

// classify maps driver failures onto graph sentinels.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if neo4j.IsConnectivityError(err) {
		return graph.Unavailable(op, err)
	}
	return graph.NewError(op).Cause(err).Err()
}

// Begin opens an explicit transaction on a fresh session.
func (s *Store) Begin(ctx context.Context) (graph.Tx, error) {
	session := s.session(ctx, neo4j.AccessModeWrite)
	tx, err := session.BeginTransaction(ctx)
	if err != nil {
		session.Close(ctx)
		return nil, classify("begin", err)
	}
	return &Tx{session: session, tx: tx, now: s.now}, nil
}

// read runs work inside a managed read transaction and collects every record.
func (s *Store) read(ctx context.Context, op, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, classify(op, err)
	}
	return out.([]*neo4j.Record), nil
}

// GetNode returns the node keyed by (tenantID, nodeID).
func (s *Store) GetNode(ctx context.Context, tenantID, nodeID string) (*graph.Node, error) {
	records, err := s.read(ctx, "get_node",
		"MATCH (n:Entity {tenantId: $tenantId, id: $id}) RETURN n",
		map[string]any{"tenantId": tenantID, "id": nodeID})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, graph.NodeNotFoundError("get_node", tenantID, nodeID)
	}
	return recordNode(records[0], "n")
}

// ListNodes returns the tenant's nodes matching filter, ordered by id.
func (s *Store) ListNodes(ctx context.Context, tenantID string, filter graph.NodeFilter) ([]*graph.Node, error) {
	records, err := s.read(ctx, "list_nodes", listNodesCypher,
		map[string]any{
			"tenantId":    tenantID,
			"nodeType":    string(filter.Type),
			"criticality": string(filter.Criticality),
		})
	if err != nil {
		return nil, err
	}
	nodes := make([]*graph.Node, 0, len(records))
	for _, rec := range records {
		n, err := recordNode(rec, "n")
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

const listNodesCypher = `
MATCH (n:Entity {tenantId: $tenantId})
WHERE ($nodeType = '' OR n.nodeType = $nodeType)
  AND ($criticality = '' OR n.criticality = $criticality)
RETURN n ORDER BY n.id`

// Query expands the tree rooted at nodeID one frontier per round trip.
func (s *Store) Query(ctx context.Context, tenantID, nodeID string, opts graph.QueryOptions) (*graph.Tree, error) {
	if opts.EdgeType == "" {
		opts.EdgeType = graph.DependsOn
	}
	cypher, err := neighborCypher(opts.EdgeType, opts.Direction)
	if err != nil {
		return nil, err
	}

	root, err := s.GetNode(ctx, tenantID, nodeID)
	if err != nil {
		return nil, err
	}

	neighbors := func(ctx context.Context, ids []string) (map[string][]*graph.Node, error) {
		records, err := s.read(ctx, "query", cypher, map[string]any{"tenantId": tenantID, "ids": ids})
		if err != nil {
			return nil, err
		}
		out := make(map[string][]*graph.Node, len(ids))
		for _, rec := range records {
			from, _, err := neo4j.GetRecordValue[string](rec, "from")
			if err != nil {
				return nil, graph.NewError("query").Cause(err).Err()
			}
			n, err := recordNode(rec, "n")
			if err != nil {
				return nil, err
			}
			out[from] = append(out[from], n)
		}
		for id := range out {
			sort.Slice(out[id], func(i, j int) bool { return out[id][i].ID < out[id][j].ID })
		}
		return out, nil
	}

	return graph.BuildTree(ctx, root, opts, neighbors)
}

// neighborCypher builds the frontier expansion for one edge type. Relationship
// types cannot be parameters; the type is checked against the closed set first.
func neighborCypher(et graph.EdgeType, dir graph.Direction) (string, error) {
	if !et.Valid() {
		return "", graph.NewError("query").Cause(fmt.Errorf("%w: edge type %q", graph.ErrInvalidArgument, et)).Err()
	}
	pattern := "(a)-[:%s]->(n:Entity {tenantId: $tenantId})"
	if dir == graph.Incoming {
		pattern = "(a)<-[:%s]-(n:Entity {tenantId: $tenantId})"
	}
	return fmt.Sprintf("MATCH (a:Entity {tenantId: $tenantId}) WHERE a.id IN $ids MATCH "+pattern+
		" RETURN DISTINCT a.id AS from, n", et), nil
}

// FanIn counts distinct sources per target over edgeType, ignoring self loops.
func (s *Store) FanIn(ctx context.Context, tenantID string, edgeType graph.EdgeType) ([]graph.FanIn, error) {
	if !edgeType.Valid() {
		return nil, graph.NewError("fan_in").Cause(graph.ErrInvalidArgument).Err()
	}
	cypher := fmt.Sprintf(
		"MATCH (src:Entity {tenantId: $tenantId})-[:%s]->(n:Entity {tenantId: $tenantId}) "+
			"WHERE src <> n "+
			"RETURN n, count(DISTINCT src) AS fanIn", edgeType)

	records, err := s.read(ctx, "fan_in", cypher, map[string]any{"tenantId": tenantID})
	if err != nil {
		return nil, err
	}
	result := make([]graph.FanIn, 0, len(records))
	for _, rec := range records {
		n, err := recordNode(rec, "n")
		if err != nil {
			return nil, err
		}
		count, _, err := neo4j.GetRecordValue[int64](rec, "fanIn")
		if err != nil {
			return nil, graph.NewError("fan_in").Cause(err).Err()
		}
		result = append(result, graph.FanIn{Node: n, Count: int(count)})
	}
	return result, nil
}

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return classify("ping", s.driver.VerifyConnectivity(ctx))
}

// Close closes the driver.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}
