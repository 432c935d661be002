// Aurora Sensa - Telemetry Gateway for the Aurora Monitoring Backend
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub002

// Package relay implements the server-side relay daemon. Browser and
// restricted-network gateway clients POST request envelopes here; the relay
// attaches the upstream credential server-side and mirrors the upstream
// response back.
package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tophatsecurity/aurorasensa-sub002/internal/config"
	"github.com/tophatsecurity/aurorasensa-sub002/internal/logging"
)

// NewRouter builds the relay's chi router with the full middleware stack.
func NewRouter(handler *Handler, mw *MiddlewareConfig) http.Handler {
	if mw == nil {
		mw = DefaultMiddlewareConfig()
	}

	r := chi.NewRouter()

	r.Use(RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS())
	r.Use(RequestLogging())

	r.Get("/healthz", handler.Healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.RateLimit())
		r.Post("/relay", handler.Relay)
	})

	return r
}

// Server wraps the relay HTTP server as a supervised service. It implements
// suture.Service, translating ListenAndServe's blocking pattern into the
// context-aware Serve pattern.
type Server struct {
	server          *http.Server
	shutdownTimeout time.Duration
	name            string
}

// NewServer creates the relay server from configuration.
func NewServer(cfg config.ServerConfig, handler *Handler) *Server {
	mw := &MiddlewareConfig{
		CORSAllowedOrigins: cfg.CORSOrigins,
		RateLimitRequests:  cfg.RateLimitRequests,
		RateLimitWindow:    cfg.RateLimitWindow,
		RateLimitDisabled:  cfg.RateLimitDisabled,
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:           NewRouter(handler, mw),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       timeout,
			WriteTimeout:      timeout,
			IdleTimeout:       2 * timeout,
		},
		shutdownTimeout: 10 * time.Second,
		name:            "relay-server",
	}
}

// Serve implements suture.Service. It starts the HTTP server, waits for
// context cancellation or a server error, and shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	logging.Info().Str("addr", s.server.Addr).Msg("Relay server starting")

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("relay server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("relay server shutdown failed: %w", err)
		}

		<-errCh
		logging.Info().Msg("Relay server stopped")
		return ctx.Err()
	}
}

// String identifies the server in supervisor logs.
func (s *Server) String() string {
	return s.name
}
