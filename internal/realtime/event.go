// Copyright (C) 2026 Ordercast
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package realtime implements the broadcast core: the channel registry that
// fans events out to subscribed WebSocket connections, the connection handle
// with its bounded send queue, and the Redis bridge that carries events
// across server processes. Events enter through Publisher and leave through
// each connection's write pump.
package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ordercast/ordercast/internal/logger"
)

var (
	log     *zerolog.Logger
	logOnce sync.Once
)

func getLog() *zerolog.Logger {
	logOnce.Do(func() {
		l := logger.GetRealtimeLogger()
		log = &l
	})
	return log
}

// EventType enumerates every message type broadcast over a channel.
type EventType string

const (
	// Order channel events
	EventOrderStatusChanged   EventType = "order_status_changed"
	EventPaymentStatusChanged EventType = "payment_status_changed"
	EventOrderShipped         EventType = "order_shipped"
	EventOrderDelivered       EventType = "order_delivered"
	EventOrderCancelled       EventType = "order_cancelled"

	// Product channel events
	EventProductCreated       EventType = "product_created"
	EventProductUpdated       EventType = "product_updated"
	EventProductDeleted       EventType = "product_deleted"
	EventInventoryUpdated     EventType = "inventory_updated"
	EventPriceUpdated         EventType = "price_updated"
	EventProductStatusChanged EventType = "product_status_changed"

	// Synthetic event sent once per new connection
	EventConnectionEstablished EventType = "connection_established"
)

var knownEventTypes = map[EventType]struct{}{
	EventOrderStatusChanged:    {},
	EventPaymentStatusChanged:  {},
	EventOrderShipped:          {},
	EventOrderDelivered:        {},
	EventOrderCancelled:        {},
	EventProductCreated:        {},
	EventProductUpdated:        {},
	EventProductDeleted:        {},
	EventInventoryUpdated:      {},
	EventPriceUpdated:          {},
	EventProductStatusChanged:  {},
	EventConnectionEstablished: {},
}

// Valid reports whether t is one of the enumerated event types.
func (t EventType) Valid() bool {
	_, ok := knownEventTypes[t]
	return ok
}

// Event is an immutable message broadcast on a channel. The wire envelope is
// exactly {"type": ..., "data": {...}}; the delivery timestamp lives inside
// the data object.
type Event struct {
	Type EventType      `json:"type"`
	Data map[string]any `json:"data"`
}

// NewEvent builds an Event, copying data and stamping a delivery timestamp
// if the payload does not already carry one.
func NewEvent(t EventType, data map[string]any) Event {
	copied := make(map[string]any, len(data)+1)
	for k, v := range data {
		copied[k] = v
	}
	if _, ok := copied["timestamp"]; !ok {
		copied["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	}
	return Event{Type: t, Data: copied}
}

// Marshal encodes the event into its wire envelope.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
