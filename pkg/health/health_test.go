package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRegisterSeparatesPurposes(t *testing.T) {
	c := NewChecker(0)

	var overall, ready, live int
	c.Register("overall", func(context.Context) Check { overall++; return Check{Status: StatusHealthy} })
	c.RegisterReadiness("ready", func(context.Context) Check { ready++; return Check{Status: StatusHealthy} })
	c.RegisterLiveness("live", func(context.Context) Check { live++; return Check{Status: StatusHealthy} })

	ctx := context.Background()
	c.Check(ctx)
	if overall != 1 || ready != 0 || live != 0 {
		t.Fatalf("Check ran overall=%d ready=%d live=%d", overall, ready, live)
	}
	resp := c.Readiness(ctx)
	if _, ok := resp.Checks["ready"]; !ok || ready != 1 {
		t.Errorf("readiness check not run: %+v", resp)
	}
	resp = c.Liveness(ctx)
	if _, ok := resp.Checks["live"]; !ok || live != 1 {
		t.Errorf("liveness check not run: %+v", resp)
	}
}

func TestStatusAggregation(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		expected Status
	}{
		{"no checks", nil, StatusHealthy},
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"one unhealthy", []Status{StatusHealthy, StatusUnhealthy}, StatusUnhealthy},
		{"degraded and unhealthy", []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker(0)
			for i, status := range tt.statuses {
				c.Register(string(rune('a'+i)), func(context.Context) Check { return Check{Status: status} })
			}
			if got := c.Check(context.Background()).Status; got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestCheckFillsNameAndTiming(t *testing.T) {
	c := NewChecker(0)
	c.Register("slow", func(context.Context) Check {
		time.Sleep(5 * time.Millisecond)
		return Check{Status: StatusHealthy}
	})

	check := c.Check(context.Background()).Checks["slow"]
	if check.Name != "slow" {
		t.Errorf("expected name filled from registration, got %q", check.Name)
	}
	if check.Duration < 5*time.Millisecond {
		t.Errorf("duration %v shorter than the probe", check.Duration)
	}
	if check.LastChecked.IsZero() {
		t.Error("LastChecked not set")
	}
}

func TestCheckBoundedByTimeout(t *testing.T) {
	c := NewChecker(10 * time.Millisecond)
	c.Register("blocked", Ping("blocked", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, StatusUnhealthy))

	start := time.Now()
	resp := c.Check(context.Background())
	if time.Since(start) > time.Second {
		t.Fatal("check was not bounded by the timeout")
	}
	if resp.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy, got %s", resp.Status)
	}
}

func TestPing(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		failStatus Status
		expected   Status
	}{
		{"connected", nil, StatusUnhealthy, StatusHealthy},
		{"required backend down", errors.New("connection refused"), StatusUnhealthy, StatusUnhealthy},
		{"optional backend down", errors.New("connection refused"), StatusDegraded, StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := Ping("graph", func(context.Context) error { return tt.err }, tt.failStatus)(context.Background())
			if check.Status != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, check.Status)
			}
			if tt.err != nil && check.Message != tt.err.Error() {
				t.Errorf("expected message %q, got %q", tt.err.Error(), check.Message)
			}
		})
	}
}

func TestMemoryCheck(t *testing.T) {
	tests := []struct {
		name     string
		limit    uint64
		alloc    uint64
		expected Status
	}{
		{"no limit", 0, 1 << 40, StatusHealthy},
		{"under limit", 1 << 20, 1 << 10, StatusHealthy},
		{"over limit", 1 << 10, 1 << 20, StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := memoryCheck(tt.limit, func() (uint64, uint64) { return tt.alloc, 2 * tt.alloc })(context.Background())
			if check.Status != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, check.Status)
			}
			if check.Details["alloc_bytes"] != tt.alloc {
				t.Errorf("alloc_bytes detail = %v", check.Details["alloc_bytes"])
			}
		})
	}

	if got := Memory(0)(context.Background()).Status; got != StatusHealthy {
		t.Errorf("live memory check with no limit: %s", got)
	}
}

func TestHandlers(t *testing.T) {
	tests := []struct {
		name     string
		status   Status
		expected int
	}{
		{"healthy", StatusHealthy, http.StatusOK},
		{"degraded", StatusDegraded, http.StatusServiceUnavailable},
		{"unhealthy", StatusUnhealthy, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker(0)
			fn := func(context.Context) Check { return Check{Status: tt.status} }
			c.RegisterReadiness("x", fn)
			c.RegisterLiveness("x", fn)

			for _, h := range []http.HandlerFunc{c.ReadinessHandler(), c.LivenessHandler()} {
				rr := httptest.NewRecorder()
				h(rr, httptest.NewRequest(http.MethodGet, "/", nil))
				if rr.Code != tt.expected {
					t.Errorf("expected %d, got %d", tt.expected, rr.Code)
				}
				var resp Response
				if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if resp.Status != tt.status {
					t.Errorf("expected body status %s, got %s", tt.status, resp.Status)
				}
			}
		})
	}
}
