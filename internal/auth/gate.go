// Copyright (C) 2026 Ordercast
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ordercast/ordercast/internal/logger"
	"github.com/ordercast/ordercast/internal/realtime"
)

var (
	log     *zerolog.Logger
	logOnce sync.Once
)

func getLog() *zerolog.Logger {
	logOnce.Do(func() {
		l := logger.GetAuthLogger()
		log = &l
	})
	return log
}

// Authorization failure reasons. The server maps each to a distinct close
// code so clients can tell "log in again" from "not your order".
var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrBadChannel        = errors.New("invalid channel id format")
	ErrForbidden         = errors.New("forbidden")
	ErrOrderNotFound     = errors.New("order not found")
)

// OrderSummary is the slice of order state the broadcast layer needs: the
// owner for authorization and the current statuses for the handshake event.
type OrderSummary struct {
	ID            string
	OwnerID       string
	Status        string
	PaymentStatus string
}

// OrderDirectory is the external order-data collaborator. Implementations
// return ErrOrderNotFound for unknown order ids.
type OrderDirectory interface {
	LookupOrder(ctx context.Context, orderID string) (OrderSummary, error)
}

// OrderDirectoryFunc adapts a function to the OrderDirectory interface.
type OrderDirectoryFunc func(ctx context.Context, orderID string) (OrderSummary, error)

func (f OrderDirectoryFunc) LookupOrder(ctx context.Context, orderID string) (OrderSummary, error) {
	return f(ctx, orderID)
}

// Grant is a successful authorization: the resolved principal, the channel
// it may join, and for order channels the order snapshot sent with the
// connection-established event.
type Grant struct {
	Principal Principal
	Channel   realtime.Channel
	Order     *OrderSummary // nil for the products channel
}

// Gate authorizes connection attempts.
type Gate struct {
	tokens *TokenValidator
	orders OrderDirectory
}

// NewGate creates a gate over the token validator and order collaborator.
func NewGate(tokens *TokenValidator, orders OrderDirectory) *Gate {
	return &Gate{tokens: tokens, orders: orders}
}

// AuthorizeProducts admits any principal with a valid credential to the
// global product channel.
func (g *Gate) AuthorizeProducts(ctx context.Context, token string) (Grant, error) {
	principal, err := g.validate(token)
	if err != nil {
		return Grant{}, err
	}
	return Grant{Principal: principal, Channel: realtime.ProductsChannel}, nil
}

// AuthorizeOrder admits the order's owner or an admin to the order's
// channel. Checks run in credential, channel-format, existence, ownership
// order so each failure maps to its own close code.
func (g *Gate) AuthorizeOrder(ctx context.Context, orderID, token string) (Grant, error) {
	principal, err := g.validate(token)
	if err != nil {
		return Grant{}, err
	}

	if _, err := uuid.Parse(orderID); err != nil {
		return Grant{}, fmt.Errorf("%w: %q", ErrBadChannel, orderID)
	}

	order, err := g.orders.LookupOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return Grant{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return Grant{}, fmt.Errorf("order lookup: %w", err)
	}

	if !principal.IsAdmin() && principal.ID != order.OwnerID {
		getLog().Warn().
			Str("user_id", principal.ID).
			Str("order_id", orderID).
			Msg("Order channel access denied")
		return Grant{}, fmt.Errorf("%w: order %s", ErrForbidden, orderID)
	}

	return Grant{
		Principal: principal,
		Channel:   realtime.OrderChannel(orderID),
		Order:     &order,
	}, nil
}

func (g *Gate) validate(token string) (Principal, error) {
	if token == "" {
		return Principal{}, fmt.Errorf("%w: missing token", ErrInvalidCredential)
	}
	principal, err := g.tokens.Validate(token)
	if err != nil {
		getLog().Debug().Err(err).Msg("Token validation failed")
		return Principal{}, err
	}
	return principal, nil
}
