// Copyright (C) 2026 Ordercast
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the WebSocket + health API. Connection attempts
// are authorized once at the upgrade boundary and handed to the realtime
// package; the bus bridge runs as a supervised background task for the
// server's lifetime.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ordercast/ordercast/internal/auth"
	"github.com/ordercast/ordercast/internal/config"
	"github.com/ordercast/ordercast/internal/logger"
	"github.com/ordercast/ordercast/internal/realtime"
)

var (
	log     *zerolog.Logger
	logOnce sync.Once
)

func getLog() *zerolog.Logger {
	logOnce.Do(func() {
		l := logger.GetAPILogger()
		log = &l
	})
	return log
}

// Server is the WebSocket + health API server.
type Server struct {
	httpServer *http.Server
	bridge     *realtime.Bridge
}

// New creates and wires up the API server. It does NOT start listening;
// call Run() for that.
func New(
	cfg *config.AppConfig,
	gate *auth.Gate,
	registry *realtime.Registry,
	bridge *realtime.Bridge,
	reporter *realtime.HealthReporter,
) *Server {
	handlers := NewHandlers(cfg, gate, registry, reporter)

	r := chi.NewRouter()

	// Global middleware
	r.Use(Recovery)
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(CORS(cfg.Server.AllowedOrigins))
	r.Use(MaxBodySize(1 << 20)) // 1 MB default

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/realtime/health", handlers.GetRealtimeHealth)

		r.Route("/ws", func(r chi.Router) {
			r.Get("/orders/{orderID}", handlers.OrderSocket)
			r.Get("/products", handlers.ProductSocket)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		bridge: bridge,
	}
}

// Run starts the bus bridge goroutine and the HTTP server. Blocks until the
// server is shut down or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		const maxRetries = 3
		for attempt := 1; attempt <= maxRetries; attempt++ {
			func() {
				defer func() {
					if r := recover(); r != nil {
						getLog().Error().Interface("panic", r).Int("attempt", attempt).Msg("Bus bridge panic")
					}
				}()
				s.bridge.Run(ctx)
			}()

			// Normal return (context cancelled), exit without retry.
			if ctx.Err() != nil {
				return
			}

			if attempt < maxRetries {
				getLog().Warn().Int("attempt", attempt).Msg("Restarting bus bridge after panic")
				time.Sleep(1 * time.Second)
			}
		}
		getLog().Error().Msg("Bus bridge exhausted retries - cross-process fan-out disabled")
	}()

	getLog().Info().Str("addr", s.httpServer.Addr).Msg("API server listening")
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
