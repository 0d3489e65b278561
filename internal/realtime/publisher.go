// Copyright (C) 2026 Ordercast
// SPDX-License-Identifier: AGPL-3.0-or-later

package realtime

import (
	"fmt"
)

// Publisher is the surface business services use to broadcast an event. It
// validates the input, stamps the event, and delegates to the bridge. The
// call returns as soon as local fan-out has happened and the bus forward is
// enqueued; it never waits on bus I/O and never fails because the bus is
// down.
type Publisher struct {
	bridge *Bridge
}

// NewPublisher creates a publisher backed by the given bridge.
func NewPublisher(bridge *Bridge) *Publisher {
	return &Publisher{bridge: bridge}
}

// Publish broadcasts an event on a channel. It errors only on malformed
// input: an empty channel id or an unknown event type.
func (p *Publisher) Publish(ch Channel, t EventType, data map[string]any) error {
	if ch == "" {
		return fmt.Errorf("empty channel")
	}
	if _, isOrder := ch.OrderID(); !isOrder && ch != ProductsChannel {
		return fmt.Errorf("unknown channel %q", ch)
	}
	if !t.Valid() {
		return fmt.Errorf("unknown event type %q", t)
	}

	delivered := p.bridge.Publish(ch, NewEvent(t, data))
	getLog().Debug().
		Str("channel", ch.String()).
		Str("type", string(t)).
		Int("local_delivered", delivered).
		Msg("Event published")
	return nil
}

// PublishOrderUpdate broadcasts an event on an order's channel.
func (p *Publisher) PublishOrderUpdate(orderID string, t EventType, data map[string]any) error {
	if orderID == "" {
		return fmt.Errorf("empty order id")
	}
	return p.Publish(OrderChannel(orderID), t, data)
}

// PublishProductUpdate broadcasts an event on the global product channel.
func (p *Publisher) PublishProductUpdate(t EventType, data map[string]any) error {
	return p.Publish(ProductsChannel, t, data)
}
