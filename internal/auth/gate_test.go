// Copyright (C) 2026 Ordercast
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"fmt"
	"testing"

	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ordercast/ordercast/internal/realtime"
)

const testOrderID = "11111111-2222-3333-4444-555555555555"

// stubDirectory serves a single known order owned by user-1.
func stubDirectory() OrderDirectory {
	return OrderDirectoryFunc(func(ctx context.Context, orderID string) (OrderSummary, error) {
		if orderID != testOrderID {
			return OrderSummary{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return OrderSummary{
			ID:            testOrderID,
			OwnerID:       "user-1",
			Status:        "processing",
			PaymentStatus: "paid",
		}, nil
	})
}

func newTestGate() *Gate {
	return NewGate(NewTokenValidator(testSecret), stubDirectory())
}

func subjectToken(t *testing.T, sub string, roles ...string) string {
	t.Helper()
	return mintToken(t, testSecret, func(tok jwt.Token) {
		tok.Set(jwt.SubjectKey, sub)
		if len(roles) > 0 {
			tok.Set("roles", roles)
		}
	})
}

func TestGate_AuthorizeOrder_Owner(t *testing.T) {
	g := newTestGate()

	grant, err := g.AuthorizeOrder(context.Background(), testOrderID, subjectToken(t, "user-1"))
	require.NoError(t, err)

	assert.Equal(t, "user-1", grant.Principal.ID)
	assert.Equal(t, realtime.OrderChannel(testOrderID), grant.Channel)
	require.NotNil(t, grant.Order)
	assert.Equal(t, "processing", grant.Order.Status)
	assert.Equal(t, "paid", grant.Order.PaymentStatus)
}

func TestGate_AuthorizeOrder_Admin(t *testing.T) {
	g := newTestGate()

	grant, err := g.AuthorizeOrder(context.Background(), testOrderID, subjectToken(t, "someone-else", "admin"))
	require.NoError(t, err)
	assert.Equal(t, "someone-else", grant.Principal.ID)
}

func TestGate_AuthorizeOrder_NotOwner(t *testing.T) {
	g := newTestGate()

	_, err := g.AuthorizeOrder(context.Background(), testOrderID, subjectToken(t, "user-2"))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestGate_AuthorizeOrder_NotOwnerLowRole(t *testing.T) {
	g := newTestGate()

	// Manager sits below the admin level; ownership still decides.
	_, err := g.AuthorizeOrder(context.Background(), testOrderID, subjectToken(t, "user-2", "manager"))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestGate_AuthorizeOrder_MissingToken(t *testing.T) {
	g := newTestGate()

	_, err := g.AuthorizeOrder(context.Background(), testOrderID, "")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestGate_AuthorizeOrder_BadToken(t *testing.T) {
	g := newTestGate()

	_, err := g.AuthorizeOrder(context.Background(), testOrderID, "garbage")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestGate_AuthorizeOrder_MalformedOrderID(t *testing.T) {
	g := newTestGate()

	_, err := g.AuthorizeOrder(context.Background(), "not-a-uuid", subjectToken(t, "user-1"))
	assert.ErrorIs(t, err, ErrBadChannel)
}

func TestGate_AuthorizeOrder_UnknownOrder(t *testing.T) {
	g := newTestGate()

	_, err := g.AuthorizeOrder(context.Background(), "99999999-8888-7777-6666-555555555555", subjectToken(t, "user-1"))
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestGate_AuthorizeOrder_CredentialCheckedFirst(t *testing.T) {
	g := newTestGate()

	// With both a bad token and a bad order id, the credential failure wins
	// so the client is told to re-authenticate rather than fix the URL.
	_, err := g.AuthorizeOrder(context.Background(), "not-a-uuid", "garbage")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestGate_AuthorizeOrder_LookupFailure(t *testing.T) {
	g := NewGate(NewTokenValidator(testSecret), OrderDirectoryFunc(func(ctx context.Context, orderID string) (OrderSummary, error) {
		return OrderSummary{}, fmt.Errorf("connection refused")
	}))

	_, err := g.AuthorizeOrder(context.Background(), testOrderID, subjectToken(t, "user-1"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrOrderNotFound)
	assert.NotErrorIs(t, err, ErrForbidden)
}

func TestGate_AuthorizeProducts(t *testing.T) {
	g := newTestGate()

	grant, err := g.AuthorizeProducts(context.Background(), subjectToken(t, "user-2"))
	require.NoError(t, err)
	assert.Equal(t, realtime.ProductsChannel, grant.Channel)
	assert.Nil(t, grant.Order)
}

func TestGate_AuthorizeProducts_InvalidToken(t *testing.T) {
	g := newTestGate()

	_, err := g.AuthorizeProducts(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}
