// Package api exposes the groundwater assistant over HTTP.
//
// Endpoints:
//
//	POST /api/v1/ask       →  answer a groundwater question
//	GET  /api/v1/locations →  distinct places in the data
//	GET  /api/v1/series    →  readings for one place
//	GET  /health           →  liveness probe
//	GET  /ready            →  readiness probe (pings the store)
//
// Every /api/ route is rate limited per client and wrapped in CORS,
// request-id, logging, and panic-recovery middleware. The server binds
// to localhost by default and expects a reverse proxy in front of it
// for anything public.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/bhujal-ai/bhujal/internal/log"
	"github.com/bhujal-ai/bhujal/internal/pipeline"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "127.0.0.1:3400"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	// This prevents Slowloris attacks (CWE-400).
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	// Composition may wait on a completion provider, so this is the
	// longest timeout of the set.
	WriteTimeout = 60 * time.Second

	// IdleTimeout is the maximum time to wait for the next request on keep-alive connections.
	IdleTimeout = 120 * time.Second

	// defaultRatePerSec is the sustained per-client request rate.
	defaultRatePerSec = 5

	// defaultRateBurst absorbs short bursts above the sustained rate.
	defaultRateBurst = 20
)

// Config wires the server's dependencies and edge policies.
type Config struct {
	// Pipeline answers questions. nil disables POST /api/v1/ask.
	Pipeline *pipeline.Pipeline

	// Store backs the data endpoints and the readiness probe.
	// nil disables the data endpoints and fails readiness.
	Store Store

	// AllowedOrigins lists origins granted CORS access. Empty means
	// same-origin only.
	AllowedOrigins []string

	// RateBurst is the per-client burst size. Zero uses the default.
	RateBurst int

	// TrustProxy makes rate limiting key on X-Forwarded-For or
	// X-Real-IP. Enable only behind a proxy that overwrites them.
	TrustProxy bool

	// Logger defaults to a no-op logger when nil.
	Logger log.Logger
}

// Server is the HTTP server for the assistant's REST API.
type Server struct {
	mux     *http.ServeMux
	logger  log.Logger
	origins []string
	limiter *clientLimiter
	trust   bool
}

// NewServer creates a server with all routes registered. Nil
// dependencies disable their routes instead of failing, so a
// data-only deployment runs without a completion provider.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = defaultRateBurst
	}

	mux := http.NewServeMux()

	if cfg.Pipeline != nil {
		NewAskHandler(cfg.Pipeline, logger).RegisterRoutes(mux)
	} else {
		logger.Warn("no pipeline configured, ask endpoint disabled")
	}

	var pinger Pinger
	if cfg.Store != nil {
		pinger = cfg.Store
		NewDataHandler(cfg.Store, logger).RegisterRoutes(mux)
	}
	NewHealthHandler(pinger, logger).RegisterRoutes(mux)

	return &Server{
		mux:     mux,
		logger:  logger,
		origins: cfg.AllowedOrigins,
		limiter: newClientLimiter(rate.Limit(defaultRatePerSec), burst),
		trust:   cfg.TrustProxy,
	}
}

// Handler returns the HTTP handler with middleware applied. Recovery
// sits outermost so panics anywhere in the stack become 500s; rate
// limiting sits innermost so rejected requests still get logged.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		requestIDMiddleware,
		loggingMiddleware(s.logger),
		corsMiddleware(s.origins),
		rateLimitMiddleware(s.limiter, s.trust),
	)
}

// Run starts the HTTP server and blocks until the context is
// cancelled or the listener fails. Shutdown drains in-flight requests
// for up to ShutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
