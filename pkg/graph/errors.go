package graph

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrNodeNotFound     = errors.New("node not found")
	ErrStoreUnavailable = errors.New("graph store unavailable")
	ErrStoreClosed      = errors.New("graph store is closed")
	ErrTxDone           = errors.New("transaction has already been committed or rolled back")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrPartialSync      = errors.New("graph mirror write failed after primary commit")
)

// Error provides structured information about a failed graph operation.
type Error struct {
	Op     string // operation that failed, e.g. "upsert_node"
	Entity string // "node", "edge" or "tx"
	ID     string
	Tenant string
	Cause  error
}

func (e *Error) Error() string {
	switch {
	case e.ID != "" && e.Tenant != "":
		return fmt.Sprintf("%s %s %s (tenant %s): %v", e.Op, e.Entity, e.ID, e.Tenant, e.Cause)
	case e.ID != "":
		return fmt.Sprintf("%s %s %s: %v", e.Op, e.Entity, e.ID, e.Cause)
	case e.Entity != "":
		return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrorBuilder provides a fluent interface for building graph errors.
type ErrorBuilder struct {
	err Error
}

// NewError starts an error for the given operation.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: Error{Op: op}}
}

// Node sets the entity to "node" with the given ID.
func (b *ErrorBuilder) Node(id string) *ErrorBuilder {
	b.err.Entity = "node"
	b.err.ID = id
	return b
}

// Edge sets the entity to "edge", identified as "src->dst".
func (b *ErrorBuilder) Edge(src, dst string) *ErrorBuilder {
	b.err.Entity = "edge"
	b.err.ID = src + "->" + dst
	return b
}

// Tx sets the entity to "tx".
func (b *ErrorBuilder) Tx() *ErrorBuilder {
	b.err.Entity = "tx"
	return b
}

func (b *ErrorBuilder) Tenant(tenantID string) *ErrorBuilder {
	b.err.Tenant = tenantID
	return b
}

func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Err returns the built error.
func (b *ErrorBuilder) Err() error {
	e := b.err
	return &e
}

// NodeNotFoundError creates a node not found error.
func NodeNotFoundError(op, tenantID, nodeID string) error {
	return NewError(op).Node(nodeID).Tenant(tenantID).Cause(ErrNodeNotFound).Err()
}

// Unavailable wraps a backend failure so that callers can classify it with
// errors.Is(err, ErrStoreUnavailable).
func Unavailable(op string, cause error) error {
	return NewError(op).Cause(fmt.Errorf("%w: %v", ErrStoreUnavailable, cause)).Err()
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound)
}

// IsUnavailable returns true if the backend could not be reached or is closed.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrStoreClosed)
}
