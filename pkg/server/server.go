// Package server provides the audit HTTP API over the run artifact ledger.
//
// The API is read-mostly: listing, fetching, downloading, and diffing run
// artifacts, plus the append-only meta patch. Decisions themselves are not
// made over HTTP; the gate and policy engines are embedded by the process
// that owns the feasibility engine and toolpath generator. The server also
// mounts the Prometheus metrics endpoint and the health probes.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"tonewood-hq/vulcan/pkg/config"
	"tonewood-hq/vulcan/pkg/ledger"
	"tonewood-hq/vulcan/pkg/telemetry/health"
	"tonewood-hq/vulcan/pkg/telemetry/metrics"
)

// BuildInfo carries version details injected at build time, served on /version.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// Server is the audit HTTP API server.
type Server struct {
	config       *config.ServerConfig
	store        ledger.Store
	collector    *metrics.Collector
	health       *health.Checker
	build        BuildInfo
	logger       *slog.Logger
	httpServer   *http.Server
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// New creates an audit API server. collector may be nil, in which case no
// metrics endpoint is mounted.
func New(cfg *config.ServerConfig, store ledger.Store, collector *metrics.Collector, build BuildInfo) *Server {
	checker := health.New(0)
	checker.RegisterCheck("ledger", func(ctx context.Context) error {
		// One bounded listing proves the backend is reachable and readable.
		_, err := store.List(ctx, &ledger.Query{Limit: 1})
		return err
	})

	return &Server{
		config:    cfg,
		store:     store,
		collector: collector,
		health:    checker,
		build:     build,
		logger:    slog.Default().With("component", "server"),
	}
}

// Start starts the HTTP server and blocks until the context is cancelled,
// a shutdown signal arrives, or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      s.setupRoutes(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting audit API server", "address", s.config.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("audit API server stopped")
	})

	return shutdownErr
}

// setupRoutes configures HTTP routes and the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/runs", s.handleListRuns)
	mux.HandleFunc("GET /v1/runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /v1/runs/{id}/download", s.handleDownloadRun)
	mux.HandleFunc("PATCH /v1/runs/{id}/meta", s.handlePatchMeta)
	mux.HandleFunc("GET /v1/diff", s.handleDiff)

	mux.Handle("GET /health", s.health.LivenessHandler())
	mux.Handle("GET /ready", s.health.ReadinessHandler())
	mux.Handle("GET /version", health.VersionHandler(s.build.Version, s.build.Commit, s.build.Date))
	if s.collector != nil {
		mux.Handle("GET /metrics", s.collector.Handler())
	}

	var handler http.Handler = mux
	handler = requestIDMiddleware(handler)
	handler = loggingMiddleware(handler)
	handler = recoveryMiddleware(handler)
	return handler
}
