// Copyright (C) 2026 Ordercast
// SPDX-License-Identifier: AGPL-3.0-or-later

package realtime

import "strings"

// Channel names a broadcast scope. The registry treats it as an opaque
// string; authorization for the kind it names happens before registration.
// The channel id doubles as the Redis topic, so every process subscribed to
// the same patterns sees the same events.
type Channel string

const (
	// ProductsChannel is the single global channel for product and
	// inventory events. Any authenticated user may subscribe.
	ProductsChannel Channel = "products"

	orderPrefix = "order:"
)

// OrderChannel returns the channel scoped to a single order's events.
func OrderChannel(orderID string) Channel {
	return Channel(orderPrefix + orderID)
}

// IsOrder reports whether the channel is order-scoped.
func (c Channel) IsOrder() bool {
	return strings.HasPrefix(string(c), orderPrefix)
}

// OrderID extracts the order identifier from an order channel. A bare
// prefix with no identifier is not a valid order channel.
func (c Channel) OrderID() (string, bool) {
	if !c.IsOrder() || len(c) == len(orderPrefix) {
		return "", false
	}
	return strings.TrimPrefix(string(c), orderPrefix), true
}

func (c Channel) String() string {
	return string(c)
}

// BusPatterns returns the Redis subscription patterns covering every channel
// this process can serve.
func BusPatterns() []string {
	return []string{orderPrefix + "*", string(ProductsChannel)}
}

// ParseTopic maps an inbound bus topic back to a local channel id. Topics
// this process did not subscribe to resolve to false.
func ParseTopic(topic string) (Channel, bool) {
	if topic == string(ProductsChannel) {
		return ProductsChannel, true
	}
	if strings.HasPrefix(topic, orderPrefix) && len(topic) > len(orderPrefix) {
		return Channel(topic), true
	}
	return "", false
}
