// Package catalog reads the business-entity counts and records the analytics
// need from the collaborator's relational store. It never writes.
package catalog

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a referenced business entity does not exist.
var ErrNotFound = errors.New("entity not found")

// Process is the slice of a process record used for prioritisation.
type Process struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	RTO               *int     `json:"rto,omitempty"`
	Criticality       string   `json:"criticality,omitempty"`
	FinancialImpact   *float64 `json:"financialImpact,omitempty"`
	OperationalImpact string   `json:"operationalImpact,omitempty"`
}

// Counter answers the process counts behind coverage metrics.
type Counter interface {
	CountProcesses(ctx context.Context, tenantID string) (int, error)
	CountProcessesWithRTO(ctx context.Context, tenantID string) (int, error)
	CountCriticalProcesses(ctx context.Context, tenantID string) (int, error)
}

// Source is a Counter that can also load single processes.
type Source interface {
	Counter
	GetProcess(ctx context.Context, tenantID, processID string) (*Process, error)
}
