package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"houdini-hq/houdini/pkg/collector"
	"houdini-hq/houdini/pkg/config"
	"houdini-hq/houdini/pkg/middleware"
	"houdini-hq/houdini/pkg/telemetry/health"
	"houdini-hq/houdini/pkg/telemetry/metrics"
	"houdini-hq/houdini/pkg/transport"
)

// Health endpoint paths. They are excluded from request telemetry.
const (
	HealthPath   = "/health"
	LivenessPath = "/health/live"
	VersionPath  = "/version"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithVersion sets the build information served on /version.
func WithVersion(version, commit, buildTime string) Option {
	return func(s *Server) {
		s.version = [3]string{version, commit, buildTime}
	}
}

// Server serves the sample order routes behind the telemetry middleware,
// together with health and self-metrics endpoints.
type Server struct {
	config    *config.Config
	collector *collector.Collector
	transport *transport.Transport
	metrics   *metrics.Collector
	health    *health.Checker
	orders    *orderStore
	logger    *slog.Logger
	version   [3]string

	httpServer   *http.Server
	listener     net.Listener
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a server. The collector and transport are owned by the
// server from here on: Shutdown closes both. m may be nil.
func NewServer(cfg *config.Config, c *collector.Collector, t *transport.Transport, m *metrics.Collector, opts ...Option) *Server {
	s := &Server{
		config:    cfg,
		collector: c,
		transport: t,
		metrics:   m,
		health:    health.New(0),
		orders:    newOrderStore(),
		logger:    slog.Default(),
		version:   [3]string{"dev", "unknown", "unknown"},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.health.Register("collector", health.CollectorCheck(c))
	s.health.Register("transport", health.TransportCheck(t))
	return s
}

// Start listens on the configured address and serves until ctx is cancelled
// or the server fails. On cancellation it shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	ln, err := net.Listen("tcp", s.config.Server.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.Server.ListenAddress, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"address", ln.Addr().String(),
			"telemetry_enabled", s.collector.Enabled(),
			"collector_endpoint", s.transport.Endpoint(),
		)

		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		_ = s.Shutdown(context.Background())
		return err
	}
}

// Addr returns the listening address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown stops accepting requests, waits for in-flight ones, then drains
// the collector and releases the transport. It runs once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info("initiating graceful shutdown",
			"timeout", s.config.Server.ShutdownTimeout.String(),
		)

		var errs []error

		s.mu.RLock()
		httpServer := s.httpServer
		s.mu.RUnlock()

		if httpServer != nil {
			shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
			}
			cancel()
		}

		drainCtx, cancel := context.WithTimeout(ctx, s.config.Delivery.ShutdownTimeout)
		if err := s.collector.Close(drainCtx); err != nil {
			s.logger.Warn("telemetry not fully delivered before shutdown", "error", err)
			errs = append(errs, err)
		}
		cancel()
		s.transport.Close()

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("server stopped")
		shutdownErr = errors.Join(errs...)
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the routes wrapped in the middleware chain:
// request ID, then telemetry, then access logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /orders/{id}", s.getOrder)
	mux.HandleFunc("POST /orders", s.createOrder)
	mux.HandleFunc("GET "+HealthPath, s.health.ReadinessHandler())
	mux.HandleFunc("GET "+LivenessPath, s.health.LivenessHandler())
	mux.HandleFunc("GET "+VersionPath, health.VersionHandler(s.version[0], s.version[1], s.version[2]))

	skip := []string{HealthPath, LivenessPath, VersionPath}
	if s.metrics != nil {
		mux.Handle("GET "+s.config.SelfMetrics.Path, s.metrics.Handler())
		skip = append(skip, s.config.SelfMetrics.Path)
	}

	var handler http.Handler = mux

	// Logging sits inside telemetry so it can see the span.
	handler = middleware.LoggingMiddleware(s.logger)(handler)

	handler = middleware.Telemetry(s.collector,
		middleware.WithMux(mux),
		middleware.WithSkipper(middleware.SkipPaths(skip...)),
		middleware.WithLogger(s.logger),
	)(handler)

	// Request ID middleware (outermost)
	handler = middleware.RequestIDMiddleware(handler)

	return handler
}
