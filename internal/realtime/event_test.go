// Copyright (C) 2026 Ordercast
// SPDX-License-Identifier: AGPL-3.0-or-later

package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventType_Valid(t *testing.T) {
	assert.True(t, EventOrderStatusChanged.Valid())
	assert.True(t, EventInventoryUpdated.Valid())
	assert.True(t, EventConnectionEstablished.Valid())
	assert.False(t, EventType("order_exploded").Valid())
	assert.False(t, EventType("").Valid())
}

func TestNewEvent_StampsTimestamp(t *testing.T) {
	e := NewEvent(EventOrderShipped, map[string]any{"order_id": "o-1"})

	ts, ok := e.Data["timestamp"].(string)
	require.True(t, ok, "timestamp should be stamped")

	parsed, err := time.Parse(time.RFC3339Nano, ts)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), parsed, 5*time.Second)
}

func TestNewEvent_PreservesCallerTimestamp(t *testing.T) {
	e := NewEvent(EventOrderShipped, map[string]any{"timestamp": "2026-01-01T00:00:00Z"})

	assert.Equal(t, "2026-01-01T00:00:00Z", e.Data["timestamp"])
}

func TestNewEvent_CopiesData(t *testing.T) {
	src := map[string]any{"order_id": "o-1"}
	e := NewEvent(EventOrderCancelled, src)

	src["order_id"] = "mutated"
	assert.Equal(t, "o-1", e.Data["order_id"])
}

func TestNewEvent_NilData(t *testing.T) {
	e := NewEvent(EventProductCreated, nil)

	require.NotNil(t, e.Data)
	assert.Contains(t, e.Data, "timestamp")
}

func TestEvent_Marshal_Envelope(t *testing.T) {
	e := NewEvent(EventPriceUpdated, map[string]any{"sku": "PROD-001"})

	raw, err := e.Marshal()
	require.NoError(t, err)

	var envelope struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &envelope))

	assert.Equal(t, "price_updated", envelope.Type)
	assert.Equal(t, "PROD-001", envelope.Data["sku"])
	assert.Contains(t, envelope.Data, "timestamp")
}
