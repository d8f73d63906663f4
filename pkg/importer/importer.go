// Package importer bulk-loads nodes and edges from CSV into the graph mirror.
//
// Nodes CSV columns (header required, order free):
//
//	id, nodeType, name, criticality, status, rto, rpo
//
// Edges CSV columns:
//
//	source, target, type
//
// Only id/nodeType and source/target/type are mandatory. A row that fails
// to parse is skipped; a row the graph rejects is counted as failed. Neither
// stops the load.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dd0wney/cluso-continuity/pkg/graph"
	"github.com/dd0wney/cluso-continuity/pkg/logging"
	"github.com/dd0wney/cluso-continuity/pkg/mirror"
	"github.com/dd0wney/cluso-continuity/pkg/validation"
)

// ErrMissingColumn is returned when a mandatory header column is absent.
var ErrMissingColumn = errors.New("missing required column")

// Stats counts the outcome of one load.
type Stats struct {
	Rows     int           `json:"rows"`
	Applied  int           `json:"applied"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// Loader applies CSV rows through a mirror adapter.
type Loader struct {
	graph         *mirror.Adapter
	logger        logging.Logger
	progressEvery int
}

// NewLoader creates a loader. progressEvery > 0 logs progress every that
// many rows.
func NewLoader(adapter *mirror.Adapter, logger logging.Logger, progressEvery int) *Loader {
	return &Loader{
		graph:         adapter,
		logger:        logging.OrDefault(logger).With(logging.Component("importer")),
		progressEvery: progressEvery,
	}
}

// header maps column names to indexes.
type header map[string]int

func readHeader(r *csv.Reader, required ...string) (header, error) {
	cols, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	h := make(header, len(cols))
	for i, c := range cols {
		h[strings.TrimSpace(c)] = i
	}
	for _, name := range required {
		if _, ok := h[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return h, nil
}

func (h header) get(record []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader
}

// LoadNodes upserts every node row into tenantID.
func (l *Loader) LoadNodes(ctx context.Context, r io.Reader, tenantID string) (Stats, error) {
	reader := newReader(r)
	h, err := readHeader(reader, "id", "nodeType")
	if err != nil {
		return Stats{}, err
	}
	return l.load(ctx, reader, "nodes", func(record []string) (mirror.Mutation, error) {
		return nodeMutation(h, record, tenantID)
	})
}

// LoadEdges creates every edge row in tenantID. Load nodes first; an edge
// naming a missing node is counted as failed.
func (l *Loader) LoadEdges(ctx context.Context, r io.Reader, tenantID string) (Stats, error) {
	reader := newReader(r)
	h, err := readHeader(reader, "source", "target", "type")
	if err != nil {
		return Stats{}, err
	}
	return l.load(ctx, reader, "edges", func(record []string) (mirror.Mutation, error) {
		return edgeMutation(h, record, tenantID)
	})
}

func (l *Loader) load(ctx context.Context, reader *csv.Reader, kind string, parse func([]string) (mirror.Mutation, error)) (Stats, error) {
	start := time.Now()
	var st Stats
	for {
		if err := ctx.Err(); err != nil {
			st.Duration = time.Since(start)
			return st, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			st.Duration = time.Since(start)
			return st, fmt.Errorf("failed to read %s row %d: %w", kind, st.Rows+1, err)
		}
		st.Rows++

		m, err := parse(record)
		if err != nil {
			st.Skipped++
			l.logger.Warn("skipping row", logging.String("file", kind), logging.Int("row", st.Rows), logging.Error(err))
			continue
		}
		if _, err := l.graph.Sync(ctx, m); err != nil {
			st.Failed++
		} else {
			st.Applied++
		}

		if l.progressEvery > 0 && st.Rows%l.progressEvery == 0 {
			l.logger.Info("import progress", logging.String("file", kind), logging.Count(st.Rows))
		}
	}
	st.Duration = time.Since(start)
	l.logger.Info("import complete",
		logging.String("file", kind),
		logging.Int("applied", st.Applied),
		logging.Int("skipped", st.Skipped),
		logging.Int("failed", st.Failed),
		logging.Latency(st.Duration))
	return st, nil
}

func nodeMutation(h header, record []string, tenantID string) (mirror.Mutation, error) {
	id := h.get(record, "id")
	if err := validation.ValidateNodeID(id); err != nil {
		return mirror.Mutation{}, err
	}
	nodeType, err := graph.ParseNodeType(h.get(record, "nodeType"))
	if err != nil {
		return mirror.Mutation{}, err
	}
	crit, err := graph.ParseCriticality(h.get(record, "criticality"))
	if err != nil {
		return mirror.Mutation{}, err
	}
	attrs := graph.NodeAttributes{ID: id, Name: h.get(record, "name"), Criticality: crit}
	if s := h.get(record, "status"); s != "" {
		attrs.Status = &s
	}
	if attrs.RTO, err = optionalHours(h.get(record, "rto"), "rto"); err != nil {
		return mirror.Mutation{}, err
	}
	if attrs.RPO, err = optionalHours(h.get(record, "rpo"), "rpo"); err != nil {
		return mirror.Mutation{}, err
	}
	return mirror.UpsertNodeMutation(tenantID, nodeType, attrs), nil
}

func edgeMutation(h header, record []string, tenantID string) (mirror.Mutation, error) {
	src, dst := h.get(record, "source"), h.get(record, "target")
	for _, id := range []string{src, dst} {
		if err := validation.ValidateNodeID(id); err != nil {
			return mirror.Mutation{}, err
		}
	}
	et, err := graph.ParseEdgeType(h.get(record, "type"))
	if err != nil {
		return mirror.Mutation{}, err
	}
	return mirror.CreateEdgeMutation(tenantID, src, dst, et), nil
}

func optionalHours(raw, field string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return nil, fmt.Errorf("%w: %s must be a non-negative integer, got %q", validation.ErrInvalidParameter, field, raw)
	}
	return &v, nil
}
