// Package server runs the HTTP listener with signal-driven graceful shutdown
// and SIGHUP configuration reload.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dd0wney/cluso-continuity/pkg/logging"
)

// DefaultShutdownTimeout bounds connection draining when none is configured.
const DefaultShutdownTimeout = 30 * time.Second

// ConfigReloadFunc is a function that reloads configuration
type ConfigReloadFunc func() error

// GracefulServer wraps an HTTP server with graceful shutdown capabilities
type GracefulServer struct {
	server          *http.Server
	logger          logging.Logger
	shutdownTimeout time.Duration

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	shutdownErr  error

	configReloadFn ConfigReloadFunc
	configMu       sync.RWMutex
}

// NewGracefulServer wraps srv. A non-positive shutdownTimeout uses
// DefaultShutdownTimeout.
func NewGracefulServer(srv *http.Server, shutdownTimeout time.Duration, logger logging.Logger) *GracefulServer {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	return &GracefulServer{
		server:          srv,
		logger:          logging.OrDefault(logger).With(logging.Component("server")),
		shutdownTimeout: shutdownTimeout,
		shutdownCh:      make(chan struct{}),
	}
}

// Run serves until ctx is done or SIGINT/SIGTERM arrives, then drains
// connections. SIGHUP triggers ReloadConfig without stopping the server.
func (gs *GracefulServer) Run(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		gs.logger.Info("starting http server", logging.String("addr", gs.server.Addr))
		if err := gs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	for {
		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			gs.logger.Info("context done, starting graceful shutdown")
			return gs.Shutdown(gs.shutdownTimeout)
		case <-gs.shutdownCh:
			// Shutdown was called directly; wait for the listener to return.
			return <-errCh
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				gs.logger.Info("received SIGHUP, reloading configuration")
				if err := gs.ReloadConfig(); err != nil {
					gs.logger.Warn("configuration reload failed", logging.Error(err))
				}
				continue
			}
			gs.logger.Info("received signal, starting graceful shutdown", logging.String("signal", sig.String()))
			return gs.Shutdown(gs.shutdownTimeout)
		}
	}
}

// Shutdown stops accepting connections and waits up to timeout for in-flight
// requests. Later calls return the first result.
func (gs *GracefulServer) Shutdown(timeout time.Duration) error {
	gs.shutdownOnce.Do(func() {
		close(gs.shutdownCh)

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		gs.logger.Info("initiating graceful shutdown", logging.Duration("timeout", timeout))
		if err := gs.server.Shutdown(ctx); err != nil {
			gs.shutdownErr = err
			gs.logger.Error("error during shutdown", logging.Error(err))
			return
		}
		gs.logger.Info("server shutdown complete")
	})
	return gs.shutdownErr
}

// IsShuttingDown returns true if shutdown has been initiated
func (gs *GracefulServer) IsShuttingDown() bool {
	select {
	case <-gs.shutdownCh:
		return true
	default:
		return false
	}
}

// ShutdownChannel returns a channel that closes when shutdown is initiated
func (gs *GracefulServer) ShutdownChannel() <-chan struct{} {
	return gs.shutdownCh
}

// SetConfigReloadFunc sets the function to call when configuration reload is triggered
func (gs *GracefulServer) SetConfigReloadFunc(fn ConfigReloadFunc) {
	gs.configMu.Lock()
	defer gs.configMu.Unlock()
	gs.configReloadFn = fn
}

// ReloadConfig runs the reload function, if one is set.
func (gs *GracefulServer) ReloadConfig() error {
	gs.configMu.RLock()
	reloadFn := gs.configReloadFn
	gs.configMu.RUnlock()

	if reloadFn == nil {
		gs.logger.Debug("configuration reload requested, but no reload function configured")
		return nil
	}
	if err := reloadFn(); err != nil {
		return err
	}
	gs.logger.Info("configuration reload complete")
	return nil
}
