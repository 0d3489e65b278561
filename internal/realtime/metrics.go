// Copyright (C) 2026 Ordercast
// SPDX-License-Identifier: AGPL-3.0-or-later

package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Broadcast-layer metrics. Channel ids are unbounded (one per order), so
// labels carry the channel kind only, never the full channel id.

var (
	// EventsDeliveredTotal counts events enqueued to connection send queues.
	EventsDeliveredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ordercast_events_delivered_total",
		Help: "Total number of events delivered to connection send queues, by channel kind.",
	}, []string{"kind"})

	// EventsDroppedTotal counts events dropped from full send queues.
	EventsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ordercast_events_dropped_total",
		Help: "Total number of events dropped due to slow consumers, by channel kind.",
	}, []string{"kind"})

	// ActiveConnections tracks currently registered connections.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ordercast_active_connections",
		Help: "Current number of registered WebSocket connections.",
	})

	// BusPublishFailuresTotal counts failed event forwards to the bus.
	BusPublishFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ordercast_bus_publish_failures_total",
		Help: "Total number of events that could not be forwarded to the pub/sub bus.",
	})

	// BusReconnectsTotal counts bus subscription (re)establishments.
	BusReconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ordercast_bus_reconnects_total",
		Help: "Total number of times the bus subscription was (re)established.",
	})
)

func channelKind(c Channel) string {
	if c.IsOrder() {
		return "order"
	}
	return "products"
}
