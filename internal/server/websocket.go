// Copyright (C) 2026 Ordercast
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ordercast/ordercast/internal/auth"
	"github.com/ordercast/ordercast/internal/realtime"
)

// Application close codes sent when a connection attempt is rejected. These
// are stable; clients rely on them to distinguish failure causes.
const (
	CloseBadChannelID  = 4000 // malformed order id in the path
	CloseUnauthorized  = 4001 // missing or invalid credential
	CloseForbidden     = 4003 // authenticated but not owner/admin
	CloseOrderNotFound = 4004 // order id does not exist
)

const closeWriteWait = 5 * time.Second

// newUpgrader creates a WebSocket upgrader that respects the configured
// allowed origins. When allowedOrigins is empty the upgrader accepts any
// origin (localhost development mode). When set, only those origins are
// permitted.
func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			_, ok := allowed[origin]
			return ok
		},
	}
}

// OrderSocket handles GET /api/v1/ws/orders/{orderID}. The credential
// travels as a `token` query parameter because browser WebSocket clients
// cannot set arbitrary handshake headers.
func (h *Handlers) OrderSocket(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	token := r.URL.Query().Get("token")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		getLog().Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	grant, err := h.gate.AuthorizeOrder(r.Context(), orderID, token)
	if err != nil {
		closeDenied(conn, err)
		return
	}

	snapshot := map[string]any{
		"order_id":       grant.Order.ID,
		"current_status": grant.Order.Status,
		"payment_status": grant.Order.PaymentStatus,
	}
	h.serve(conn, r, grant, snapshot)
}

// ProductSocket handles GET /api/v1/ws/products. Any authenticated user may
// subscribe; the handshake event is a bare acknowledgement.
func (h *Handlers) ProductSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		getLog().Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	grant, err := h.gate.AuthorizeProducts(r.Context(), token)
	if err != nil {
		closeDenied(conn, err)
		return
	}

	h.serve(conn, r, grant, map[string]any{"channel": realtime.ProductsChannel.String()})
}

// serve registers the authorized connection, sends the handshake event, and
// runs the pumps until disconnect.
func (h *Handlers) serve(ws *websocket.Conn, r *http.Request, grant auth.Grant, snapshot map[string]any) {
	if h.maxConns > 0 && h.registry.Total() >= h.maxConns {
		getLog().Warn().Msg("WebSocket connection limit reached")
		closeWith(ws, websocket.CloseTryAgainLater, "too many connections")
		return
	}

	c := realtime.NewConn(ws, h.registry, grant.Channel, grant.Principal.ID, h.connCfg)
	c.Register()

	established := realtime.NewEvent(realtime.EventConnectionEstablished, snapshot)
	if data, err := established.Marshal(); err == nil {
		c.Enqueue(data)
	}

	getLog().Info().
		Str("conn_id", c.ID).
		Str("channel", grant.Channel.String()).
		Str("user_id", grant.Principal.ID).
		Str("remote", r.RemoteAddr).
		Msg("WebSocket client connected")

	c.Run()
}

// closeDenied maps an authorization failure to its close code and rejects
// the already-upgraded connection.
func closeDenied(ws *websocket.Conn, err error) {
	var code int
	var reason string

	switch {
	case errors.Is(err, auth.ErrBadChannel):
		code, reason = CloseBadChannelID, "Invalid order ID format"
	case errors.Is(err, auth.ErrInvalidCredential):
		code, reason = CloseUnauthorized, "Invalid authentication"
	case errors.Is(err, auth.ErrForbidden):
		code, reason = CloseForbidden, "Access denied"
	case errors.Is(err, auth.ErrOrderNotFound):
		code, reason = CloseOrderNotFound, "Order not found"
	default:
		getLog().Error().Err(err).Msg("WebSocket authorization error")
		code, reason = websocket.CloseInternalServerErr, "Internal error"
	}

	closeWith(ws, code, reason)
}

func closeWith(ws *websocket.Conn, code int, reason string) {
	ws.SetWriteDeadline(time.Now().Add(closeWriteWait))
	ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
	ws.Close()
}
