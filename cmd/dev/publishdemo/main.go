// Copyright (C) 2026 Ordercast
// SPDX-License-Identifier: AGPL-3.0-or-later

// publishdemo drives a scripted order lifecycle and a few product/inventory
// updates through the publish API, so connected WebSocket clients can be
// watched receiving them. Point it at the same Redis as the running
// servers; without Redis the events stay in this process and go nowhere.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ordercast/ordercast/internal/realtime"
)

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address shared with the realtime servers")
	orderID := flag.String("order-id", "", "Order ID to publish for (default: random UUID)")
	delay := flag.Duration("delay", 2*time.Second, "Pause between events")
	flag.Parse()

	id := *orderID
	if id == "" {
		id = uuid.New().String()
	}

	client := redis.NewClient(&redis.Options{Addr: *redisAddr})
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Fatalf("Redis unreachable at %s: %v", *redisAddr, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := realtime.NewRegistry()
	bridge := realtime.NewBridge(registry, client, realtime.BridgeConfig{})
	go bridge.Run(ctx)

	publisher := realtime.NewPublisher(bridge)

	fmt.Printf("Publishing demo events for order %s\n", id)

	steps := []struct {
		label string
		fn    func() error
	}{
		{"order confirmed", func() error {
			return publisher.PublishOrderUpdate(id, realtime.EventOrderStatusChanged, map[string]any{
				"order_id":   id,
				"old_status": "pending",
				"new_status": "confirmed",
				"message":    "Order has been confirmed and is being processed",
			})
		}},
		{"payment processed", func() error {
			return publisher.PublishOrderUpdate(id, realtime.EventPaymentStatusChanged, map[string]any{
				"order_id":   id,
				"old_status": "pending",
				"new_status": "paid",
				"amount":     99.99,
				"message":    "Payment has been successfully processed",
			})
		}},
		{"order processing", func() error {
			return publisher.PublishOrderUpdate(id, realtime.EventOrderStatusChanged, map[string]any{
				"order_id":   id,
				"old_status": "confirmed",
				"new_status": "processing",
				"message":    "Order is being prepared for shipment",
			})
		}},
		{"order shipped", func() error {
			return publisher.PublishOrderUpdate(id, realtime.EventOrderShipped, map[string]any{
				"order_id":        id,
				"old_status":      "processing",
				"new_status":      "shipped",
				"tracking_number": fmt.Sprintf("TRK%08X", time.Now().Unix()),
				"carrier":         "FastShip Express",
				"message":         "Order has been shipped",
			})
		}},
		{"order delivered", func() error {
			return publisher.PublishOrderUpdate(id, realtime.EventOrderDelivered, map[string]any{
				"order_id":   id,
				"old_status": "shipped",
				"new_status": "delivered",
				"message":    "Order has been successfully delivered",
			})
		}},
		{"stock received", func() error {
			return publisher.PublishProductUpdate(realtime.EventInventoryUpdated, map[string]any{
				"product_id":   uuid.New().String(),
				"sku":          "PROD-001",
				"name":         "Wireless Headphones",
				"old_quantity": 0,
				"new_quantity": 100,
				"message":      "New stock received",
			})
		}},
		{"price updated", func() error {
			return publisher.PublishProductUpdate(realtime.EventPriceUpdated, map[string]any{
				"product_id": uuid.New().String(),
				"sku":        "PROD-001",
				"name":       "Wireless Headphones",
				"old_price":  99.99,
				"new_price":  89.99,
				"message":    "Holiday sale price activated",
			})
		}},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			log.Fatalf("Failed to publish %s: %v", step.label, err)
		}
		fmt.Printf("  published: %s\n", step.label)
		time.Sleep(*delay)
	}

	// Give the forwarder a moment to flush the last event to Redis.
	time.Sleep(time.Second)
	fmt.Println("Done.")
}
