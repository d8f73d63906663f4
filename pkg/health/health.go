// Package health runs component probes for the service's health, readiness
// and liveness endpoints. The worst individual status wins.
package health

import (
	"context"
	"time"
)

// DefaultTimeout bounds one round of checks.
const DefaultTimeout = 2 * time.Second

// NewChecker creates a checker whose rounds are bounded by timeout; zero
// uses DefaultTimeout.
func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Checker{
		checks:      make(map[string]CheckFunc),
		readyChecks: make(map[string]CheckFunc),
		liveChecks:  make(map[string]CheckFunc),
		timeout:     timeout,
		now:         time.Now,
	}
}

// Register adds a check reported on the overall health endpoint.
func (c *Checker) Register(name string, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = fn
}

// RegisterReadiness adds a check gating readiness.
func (c *Checker) RegisterReadiness(name string, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readyChecks[name] = fn
}

// RegisterLiveness adds a check gating liveness.
func (c *Checker) RegisterLiveness(name string, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.liveChecks[name] = fn
}

// Check runs the overall health checks.
func (c *Checker) Check(ctx context.Context) Response {
	return c.run(ctx, func() map[string]CheckFunc { return c.checks })
}

// Readiness runs the readiness checks.
func (c *Checker) Readiness(ctx context.Context) Response {
	return c.run(ctx, func() map[string]CheckFunc { return c.readyChecks })
}

// Liveness runs the liveness checks.
func (c *Checker) Liveness(ctx context.Context) Response {
	return c.run(ctx, func() map[string]CheckFunc { return c.liveChecks })
}

func (c *Checker) run(ctx context.Context, pick func() map[string]CheckFunc) Response {
	c.mu.RLock()
	fns := make(map[string]CheckFunc, len(pick()))
	for name, fn := range pick() {
		fns[name] = fn
	}
	c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp := Response{
		Status:    StatusHealthy,
		Timestamp: c.now(),
		Checks:    make(map[string]Check, len(fns)),
	}
	for name, fn := range fns {
		start := c.now()
		check := fn(ctx)
		check.Duration = time.Since(start)
		check.LastChecked = start
		if check.Name == "" {
			check.Name = name
		}
		resp.Checks[name] = check
		resp.Status = worst(resp.Status, check.Status)
	}
	return resp
}

func worst(a, b Status) Status {
	if a == StatusUnhealthy || b == StatusUnhealthy {
		return StatusUnhealthy
	}
	if a == StatusDegraded || b == StatusDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}
