package server

import (
	"context"
	"net/http"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-continuity/pkg/logging"
)

func newTestServer() *GracefulServer {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return NewGracefulServer(&http.Server{Addr: "127.0.0.1:0", Handler: handler}, time.Second, logging.NewNopLogger())
}

func runAsync(gs *GracefulServer, ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() { done <- gs.Run(ctx) }()
	return done
}

func TestGracefulServer_ContextCancel(t *testing.T) {
	gs := newTestServer()
	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(gs, ctx)

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.True(t, gs.IsShuttingDown())
}

func TestGracefulServer_ShutdownUnblocksRun(t *testing.T) {
	gs := newTestServer()
	done := runAsync(gs, context.Background())

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, gs.Shutdown(time.Second))
	// a second call returns the first result
	require.NoError(t, gs.Shutdown(time.Second))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
	<-gs.ShutdownChannel()
}

func TestGracefulServer_ListenError(t *testing.T) {
	gs := NewGracefulServer(&http.Server{Addr: "256.0.0.1:bad"}, 0, logging.NewNopLogger())
	assert.Error(t, gs.Run(context.Background()))
	assert.Equal(t, DefaultShutdownTimeout, gs.shutdownTimeout)
}

// TestGracefulServer_SIGHUPReloads tests configuration reload via SIGHUP
func TestGracefulServer_SIGHUPReloads(t *testing.T) {
	gs := newTestServer()
	var reloads atomic.Int32
	gs.SetConfigReloadFunc(func() error {
		reloads.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(gs, ctx)
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGHUP))
	assert.Eventually(t, func() bool { return reloads.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.False(t, gs.IsShuttingDown(), "server should not be shutting down after SIGHUP")

	cancel()
	<-done
}

func TestGracefulServer_ReloadConfig(t *testing.T) {
	gs := newTestServer()
	assert.NoError(t, gs.ReloadConfig(), "no reload func is a no-op")

	reloadCalled := false
	gs.SetConfigReloadFunc(func() error {
		reloadCalled = true
		return nil
	})
	require.NoError(t, gs.ReloadConfig())
	assert.True(t, reloadCalled)
}

func TestGracefulServer_ReloadConfigWithError(t *testing.T) {
	gs := newTestServer()
	gs.SetConfigReloadFunc(func() error { return http.ErrServerClosed })

	assert.ErrorIs(t, gs.ReloadConfig(), http.ErrServerClosed)
}
