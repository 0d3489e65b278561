// Copyright (C) 2026 Ordercast
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package orders is the thin HTTP adapter to the platform's order service,
// which owns order data. The broadcast layer only ever asks it one
// question: who owns this order and what state is it in.
package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ordercast/ordercast/internal/auth"
)

// Client looks up order summaries over the order service's internal API.
// It satisfies auth.OrderDirectory.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the order service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type orderResponse struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

// LookupOrder fetches an order summary. A 404 maps to auth.ErrOrderNotFound;
// any other failure is returned as-is and treated as terminal for the
// connection attempt.
func (c *Client) LookupOrder(ctx context.Context, orderID string) (auth.OrderSummary, error) {
	url := fmt.Sprintf("%s/internal/orders/%s", c.baseURL, orderID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return auth.OrderSummary{}, fmt.Errorf("build order lookup request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return auth.OrderSummary{}, fmt.Errorf("order lookup: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return auth.OrderSummary{}, fmt.Errorf("%w: %s", auth.ErrOrderNotFound, orderID)
	default:
		return auth.OrderSummary{}, fmt.Errorf("order lookup: unexpected status %d", resp.StatusCode)
	}

	var body orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return auth.OrderSummary{}, fmt.Errorf("decode order lookup response: %w", err)
	}

	return auth.OrderSummary{
		ID:            body.ID,
		OwnerID:       body.UserID,
		Status:        body.Status,
		PaymentStatus: body.PaymentStatus,
	}, nil
}
