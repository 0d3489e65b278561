// Copyright (C) 2026 Ordercast
// SPDX-License-Identifier: AGPL-3.0-or-later

package realtime

import (
	"github.com/samber/lo"
)

// HealthSnapshot is the read-only operational view of the broadcast layer.
type HealthSnapshot struct {
	BusState           string         `json:"bus_state"` // "healthy" or "degraded"
	Channels           []string       `json:"channels"`
	TotalConnections   int            `json:"total_connections"`
	ChannelConnections map[string]int `json:"channel_connections"`
}

// HealthReporter assembles health snapshots from the registry and bridge.
// It only reads; it never mutates either.
type HealthReporter struct {
	registry *Registry
	bridge   *Bridge
}

// NewHealthReporter creates a reporter over the given registry and bridge.
func NewHealthReporter(registry *Registry, bridge *Bridge) *HealthReporter {
	return &HealthReporter{registry: registry, bridge: bridge}
}

// Snapshot returns the current bus state, active channels, and connection
// counts. Channels emptied before the snapshot are pruned by the registry
// and therefore no longer listed.
func (h *HealthReporter) Snapshot() HealthSnapshot {
	counts := h.registry.Counts()

	busState := "degraded"
	if h.bridge.State() == BusConnected {
		busState = "healthy"
	}

	return HealthSnapshot{
		BusState: busState,
		Channels: lo.Map(h.registry.Channels(), func(ch Channel, _ int) string {
			return ch.String()
		}),
		TotalConnections: lo.Sum(lo.Values(counts)),
		ChannelConnections: lo.MapEntries(counts, func(ch Channel, n int) (string, int) {
			return ch.String(), n
		}),
	}
}
