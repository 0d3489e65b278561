// Copyright (C) 2026 Ordercast
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ordercast/ordercast/internal/auth"
	"github.com/ordercast/ordercast/internal/config"
	"github.com/ordercast/ordercast/internal/realtime"
)

// Handlers holds dependencies for HTTP and WebSocket handlers.
type Handlers struct {
	gate     *auth.Gate
	registry *realtime.Registry
	health   *realtime.HealthReporter
	upgrader websocket.Upgrader
	connCfg  realtime.ConnConfig
	maxConns int
}

// NewHandlers creates the handler set.
func NewHandlers(cfg *config.AppConfig, gate *auth.Gate, registry *realtime.Registry, health *realtime.HealthReporter) *Handlers {
	return &Handlers{
		gate:     gate,
		registry: registry,
		health:   health,
		upgrader: newUpgrader(cfg.Server.AllowedOrigins),
		connCfg: realtime.ConnConfig{
			SendQueueSize: cfg.Realtime.SendQueueSize,
			PongWait:      cfg.Realtime.PongWait,
			WriteWait:     cfg.Realtime.WriteWait,
		},
		maxConns: cfg.Realtime.MaxConnections,
	}
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		getLog().Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// GetRealtimeHealth handles GET /api/v1/realtime/health. Pure read: bus
// state, active channels, and connection counts for ops tooling.
func (h *Handlers) GetRealtimeHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.health.Snapshot())
}
