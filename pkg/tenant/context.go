// Package tenant carries the tenant scope of a request through context.Context
// and validates tenant identifiers.
package tenant

import (
	"context"
)

// DefaultTenantID is used when a caller does not name a tenant.
const DefaultTenantID = "default"

type contextKey struct{}

var tenantKey = contextKey{}

// WithTenant returns a new context with the tenant ID set
func WithTenant(ctx context.Context, tenantID string) context.Context {
	if tenantID == "" {
		tenantID = DefaultTenantID
	}
	return context.WithValue(ctx, tenantKey, tenantID)
}

// FromContext extracts the tenant ID from the context.
// Returns the tenant ID and true if found, or empty string and false if not.
func FromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	tenantID, ok := ctx.Value(tenantKey).(string)
	return tenantID, ok
}

// MustFromContext returns the tenant ID in ctx, or DefaultTenantID.
func MustFromContext(ctx context.Context) string {
	tenantID, ok := FromContext(ctx)
	if !ok || tenantID == "" {
		return DefaultTenantID
	}
	return tenantID
}
