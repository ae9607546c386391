// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/gossip-ai/gossip/internal/backend"
	"github.com/gossip-ai/gossip/internal/model"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultPort is the relay's listening port.
	DefaultPort = model.DefaultRelayPort

	// DefaultHost binds every interface so phones on the LAN can connect.
	DefaultHost = "0.0.0.0"

	// DefaultShutdownTimeout bounds the graceful drain.
	DefaultShutdownTimeout = 10 * time.Second

	// Version is the relay version reported in logs.
	Version = "1.0.0"
)

// Fixed response bodies the clients depend on.
const (
	HealthBody        = "OK"
	IdleChatBody      = "Server is running"
	ChatErrorPrefix   = "Error processing request: "
	ModelsErrorReason = "Failed to fetch models"
)

// ============================================================================
// SERVER
// ============================================================================

// Options configures a Server.
type Options struct {
	Host            string
	Port            int
	DefaultModel    string
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

// Server is the relay HTTP server.
type Server struct {
	opts    Options
	backend backend.Backend
	logger  *zap.Logger
	stats   *ServerStats
	router  chi.Router
	server  *http.Server

	defaultModel atomic.Value // string
}

// New creates a relay in front of b. A nil logger discards output.
func New(b backend.Backend, opts Options, logger *zap.Logger) *Server {
	if opts.Host == "" {
		opts.Host = DefaultHost
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		opts:    opts,
		backend: b,
		logger:  logger,
		stats:   NewServerStats(),
	}
	s.SetDefaultModel(opts.DefaultModel)
	s.setupRoutes()
	return s
}

// Addr returns the host:port the server listens on.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Stats returns the server's counters.
func (s *Server) Stats() *ServerStats {
	return s.stats
}

// DefaultModel returns the model used when a request names none.
func (s *Server) DefaultModel() string {
	return s.defaultModel.Load().(string)
}

// SetDefaultModel swaps the default model. Empty resets to tinyllama:latest.
// Safe to call while serving, e.g. from a config watcher.
func (s *Server) SetDefaultModel(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = model.DefaultModelName
	}
	s.defaultModel.Store(name)
}

// CheckRuntime reports whether the model runtime answers. Backends that
// cannot be pinged are assumed to be up.
func (s *Server) CheckRuntime(ctx context.Context) error {
	p, ok := s.backend.(backend.Pinger)
	if !ok {
		return nil
	}
	return p.Ping(ctx)
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	cors := DefaultCORSConfig()
	if len(s.opts.CORSOrigins) > 0 {
		cors.AllowedOrigins = s.opts.CORSOrigins
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Chain(
		RequestIDHeader,
		LoggingMiddleware(s.logger, s.stats),
		middleware.Recoverer,
		CORSMiddleware(cors),
	))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(api chi.Router) {
		api.Get("/models", s.handleModels)
		api.Get("/chat", s.handleChat)
		api.Delete("/chat/history", s.handleClear)
		api.Post("/clear", s.handleClear)
		api.Get("/stats", s.handleStats)
	})

	s.router = r
}

// ============================================================================
// LIFECYCLE
// ============================================================================

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("relay listening",
			zap.String("addr", ln.Addr().String()),
			zap.String("runtime", s.backend.Name()),
			zap.String("default_model", s.DefaultModel()),
			zap.String("version", Version),
		)
		errCh <- s.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	snap := s.stats.Snapshot()
	s.logger.Info("relay shutting down",
		zap.Int64("total_requests", snap.TotalRequests),
		zap.Int64("chat_requests", snap.ChatRequests),
	)
	return s.server.Shutdown(ctx)
}
