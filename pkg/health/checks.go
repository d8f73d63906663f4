package health

import (
	"context"
	"runtime"
)

// Static returns a check that always reports healthy.
func Static(name string) CheckFunc {
	return func(context.Context) Check {
		return Check{Name: name, Status: StatusHealthy}
	}
}

// Ping wraps a connectivity probe. A failed ping reports failStatus, so
// optional backends can degrade rather than fail the service.
func Ping(name string, ping func(ctx context.Context) error, failStatus Status) CheckFunc {
	return func(ctx context.Context) Check {
		check := Check{Name: name, Status: StatusHealthy, Message: "connected"}
		if err := ping(ctx); err != nil {
			check.Status = failStatus
			check.Message = err.Error()
		}
		return check
	}
}

// Memory reports degraded once heap allocation passes limitBytes. Zero
// disables the limit.
func Memory(limitBytes uint64) CheckFunc {
	return memoryCheck(limitBytes, func() (alloc, sys uint64) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return m.HeapAlloc, m.Sys
	})
}

func memoryCheck(limitBytes uint64, usage func() (alloc, sys uint64)) CheckFunc {
	return func(context.Context) Check {
		alloc, sys := usage()
		check := Check{
			Name:   "memory",
			Status: StatusHealthy,
			Details: map[string]any{
				"alloc_bytes": alloc,
				"sys_bytes":   sys,
				"goroutines":  runtime.NumGoroutine(),
			},
		}
		if limitBytes > 0 && alloc > limitBytes {
			check.Status = StatusDegraded
			check.Message = "heap above limit"
		}
		return check
	}
}
