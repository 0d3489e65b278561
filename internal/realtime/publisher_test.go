// Copyright (C) 2026 Ordercast
// SPDX-License-Identifier: AGPL-3.0-or-later

package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalPublisher(r *Registry) *Publisher {
	return NewPublisher(NewBridge(r, nil, BridgeConfig{}))
}

func TestPublisher_Publish_RejectsMalformedInput(t *testing.T) {
	p := newLocalPublisher(NewRegistry())

	assert.Error(t, p.Publish("", EventOrderShipped, nil))
	assert.Error(t, p.Publish("inventory", EventInventoryUpdated, nil))
	assert.Error(t, p.Publish(Channel("order:"), EventOrderShipped, nil))
	assert.Error(t, p.Publish(ProductsChannel, EventType("bogus"), nil))
	assert.Error(t, p.PublishOrderUpdate("", EventOrderShipped, nil))
}

func TestPublisher_PublishOrderUpdate(t *testing.T) {
	r := NewRegistry()
	ch := OrderChannel("abc")
	c := newTestConn(t, r, ch, 4)
	r.Subscribe(ch, c)

	p := newLocalPublisher(r)
	err := p.PublishOrderUpdate("abc", EventOrderStatusChanged, map[string]any{
		"order_id":   "abc",
		"old_status": "pending",
		"new_status": "confirmed",
	})
	require.NoError(t, err)

	msgs := drain(c)
	require.Len(t, msgs, 1)
	assert.Contains(t, string(msgs[0]), `"order_status_changed"`)
	assert.Contains(t, string(msgs[0]), `"new_status":"confirmed"`)
}

func TestPublisher_PublishProductUpdate(t *testing.T) {
	r := NewRegistry()
	c := newTestConn(t, r, ProductsChannel, 4)
	r.Subscribe(ProductsChannel, c)

	p := newLocalPublisher(r)
	require.NoError(t, p.PublishProductUpdate(EventProductDeleted, map[string]any{"sku": "PROD-001"}))

	msgs := drain(c)
	require.Len(t, msgs, 1)
	assert.Contains(t, string(msgs[0]), `"product_deleted"`)
}

func TestPublisher_Publish_NoSubscribers(t *testing.T) {
	p := newLocalPublisher(NewRegistry())

	// Publishing into the void succeeds; delivery count is simply zero.
	assert.NoError(t, p.PublishOrderUpdate("nobody-watching", EventOrderCancelled, nil))
}
