package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGConfig holds PostgreSQL pool settings.
type PGConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"max_conns"`
	MinConns int32  `yaml:"min_conns"`
}

// PGCounter reads the collaborator's processes table.
type PGCounter struct {
	pool *pgxpool.Pool
}

var _ Source = (*PGCounter)(nil)

// NewPGCounter opens a pool against cfg.DSN and verifies connectivity.
func NewPGCounter(ctx context.Context, cfg PGConfig) (*PGCounter, error) {
	config, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	if cfg.MaxConns > 0 {
		config.MaxConns = cfg.MaxConns
	}
	config.MinConns = min(cfg.MinConns, config.MaxConns)
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &PGCounter{pool: pool}, nil
}

const (
	countProcessesSQL = `SELECT count(*) FROM processes
WHERE tenant_id = $1 AND deleted_at IS NULL`

	countWithRTOSQL = `SELECT count(*) FROM processes
WHERE tenant_id = $1 AND deleted_at IS NULL AND rto IS NOT NULL`

	countCriticalSQL = `SELECT count(*) FROM processes
WHERE tenant_id = $1 AND deleted_at IS NULL AND upper(criticality) = 'CRITICAL'`

	getProcessSQL = `SELECT id, name, rto, criticality, financial_impact::float8, operational_impact
FROM processes
WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`
)

func (s *PGCounter) count(ctx context.Context, query, tenantID string) (int, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, query, tenantID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count processes: %w", err)
	}
	return int(n), nil
}

// CountProcesses counts live processes of the tenant.
func (s *PGCounter) CountProcesses(ctx context.Context, tenantID string) (int, error) {
	return s.count(ctx, countProcessesSQL, tenantID)
}

// CountProcessesWithRTO counts live processes that have an RTO set.
func (s *PGCounter) CountProcessesWithRTO(ctx context.Context, tenantID string) (int, error) {
	return s.count(ctx, countWithRTOSQL, tenantID)
}

// CountCriticalProcesses counts live processes marked CRITICAL.
func (s *PGCounter) CountCriticalProcesses(ctx context.Context, tenantID string) (int, error) {
	return s.count(ctx, countCriticalSQL, tenantID)
}

// GetProcess loads one live process.
func (s *PGCounter) GetProcess(ctx context.Context, tenantID, processID string) (*Process, error) {
	var (
		p           Process
		criticality *string
		operational *string
	)
	err := s.pool.QueryRow(ctx, getProcessSQL, tenantID, processID).
		Scan(&p.ID, &p.Name, &p.RTO, &criticality, &p.FinancialImpact, &operational)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("process %s: %w", processID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load process: %w", err)
	}
	if criticality != nil {
		p.Criticality = *criticality
	}
	if operational != nil {
		p.OperationalImpact = *operational
	}
	return &p, nil
}

// Ping checks database connectivity
func (s *PGCounter) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the database connection pool
func (s *PGCounter) Close() error {
	s.pool.Close()
	return nil
}
