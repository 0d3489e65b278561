// Copyright (C) 2026 Ordercast
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ordercast/ordercast/internal/auth"
	"github.com/ordercast/ordercast/internal/config"
	"github.com/ordercast/ordercast/internal/logger"
	"github.com/ordercast/ordercast/internal/orders"
	"github.com/ordercast/ordercast/internal/realtime"
	"github.com/ordercast/ordercast/internal/server"
)

func main() {
	cfg, err := config.NewConfig("config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.CloseGlobal()

	mainLog := logger.GetLogger("main")
	mainLog.Info().Msg("Starting ordercast realtime server")

	// This context drives the bus bridge's lifetime.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The bus is optional: without it (or while it is down) events still
	// reach subscribers connected to this process.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			mainLog.Warn().Err(err).Str("addr", cfg.Redis.Addr).
				Msg("Bus unreachable at startup, continuing local-only until it recovers")
		} else {
			mainLog.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to bus")
		}
		pingCancel()
	} else {
		mainLog.Warn().Msg("Bus disabled by config, cross-process fan-out is off")
	}

	registry := realtime.NewRegistry()
	bridge := realtime.NewBridge(registry, redisClient, realtime.BridgeConfig{
		QueueSize: cfg.Realtime.BusQueueSize,
		RetryMin:  cfg.Realtime.BusRetryMin,
		RetryMax:  cfg.Realtime.BusRetryMax,
	})
	reporter := realtime.NewHealthReporter(registry, bridge)

	gate := auth.NewGate(
		auth.NewTokenValidator(cfg.Auth.Secret),
		orders.NewClient(cfg.Orders.BaseURL, cfg.Orders.Timeout),
	)

	srv := server.New(cfg, gate, registry, bridge, reporter)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- srv.Run(ctx)
	}()

	// Wait for signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		mainLog.Info().Msgf("Received signal %v, shutting down...", sig)
	case err := <-serverErrChan:
		if err != nil {
			mainLog.Error().Err(err).Msg("Server error")
		}
	}

	// Graceful shutdown: fresh context with timeout, independent of the
	// bridge ctx.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		mainLog.Error().Err(err).Msg("Error shutting down server")
	}

	cancel()
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			mainLog.Error().Err(err).Msg("Error closing bus client")
		}
	}

	mainLog.Info().Msg("Realtime server shut down")
}
