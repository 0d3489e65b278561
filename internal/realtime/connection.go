// Copyright (C) 2026 Ordercast
// SPDX-License-Identifier: AGPL-3.0-or-later

package realtime

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	maxMessageSize = 4096

	// keepaliveToken is the bare text frame clients send to keep the
	// connection alive; the server answers with keepaliveReply.
	keepaliveToken = "ping"
	keepaliveReply = "pong"
)

// ConnConfig carries the per-connection tuning knobs.
type ConnConfig struct {
	SendQueueSize int           // outbound buffer capacity
	PongWait      time.Duration // close when no keepalive arrives within this window
	WriteWait     time.Duration // per-frame write deadline
}

// Conn wraps one accepted WebSocket connection: identity, bounded send
// queue, and idempotent close semantics. A Conn belongs to exactly one
// channel for its entire lifetime; a reconnect creates a new Conn.
type Conn struct {
	ID      string
	UserID  string
	Channel Channel

	ws       *websocket.Conn
	registry *Registry
	cfg      ConnConfig

	send chan []byte
	done chan struct{}

	closeOnce   sync.Once
	dropped     atomic.Int64
	consecDrops atomic.Int64
}

// NewConn allocates a connection handle. It does not register or start the
// pumps; callers register, send the handshake event, then call Run.
func NewConn(ws *websocket.Conn, registry *Registry, ch Channel, userID string, cfg ConnConfig) *Conn {
	if cfg.SendQueueSize <= 0 {
		cfg.SendQueueSize = 64
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = 60 * time.Second
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = 10 * time.Second
	}
	return &Conn{
		ID:       uuid.New().String(),
		UserID:   userID,
		Channel:  ch,
		ws:       ws,
		registry: registry,
		cfg:      cfg,
		send:     make(chan []byte, cfg.SendQueueSize),
		done:     make(chan struct{}),
	}
}

// Register adds the connection to its channel's subscriber set.
func (c *Conn) Register() {
	c.registry.Subscribe(c.Channel, c)
}

// Enqueue places an encoded envelope on the send queue without ever
// blocking. When the queue is full the oldest undelivered message is dropped
// to make room; a consumer that burns through a full queue's worth of drops
// without a single successful direct write is torn down.
func (c *Conn) Enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- data:
		c.consecDrops.Store(0)
		return true
	default:
	}

	// Queue full: drop the oldest undelivered message.
	select {
	case <-c.send:
		c.dropped.Add(1)
		EventsDroppedTotal.WithLabelValues(channelKind(c.Channel)).Inc()
		getLog().Warn().
			Str("conn_id", c.ID).
			Str("channel", c.Channel.String()).
			Msg("Dropping oldest event for slow WebSocket consumer")
	default:
	}

	if c.consecDrops.Add(1) > int64(cap(c.send)) {
		getLog().Warn().
			Str("conn_id", c.ID).
			Str("channel", c.Channel.String()).
			Int64("dropped", c.dropped.Load()).
			Msg("Closing persistently slow WebSocket consumer")
		c.Teardown()
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		// Writer is wedged with an already-drained queue; isolate it.
		c.Teardown()
		return false
	}
}

// Dropped returns the number of events dropped from this connection's queue.
func (c *Conn) Dropped() int64 {
	return c.dropped.Load()
}

// Done is closed when the connection has been torn down.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Teardown deregisters the connection and closes the socket. Safe to call
// any number of times, from any goroutine.
func (c *Conn) Teardown() {
	c.closeOnce.Do(func() {
		c.registry.Unsubscribe(c.Channel, c)
		close(c.done)
		if c.ws != nil {
			c.ws.Close()
		}
	})
}

// Run drives the connection until disconnect: the write pump runs on its own
// goroutine, the read pump on the caller's. Either pump ending tears the
// connection down.
func (c *Conn) Run() {
	go c.writePump()
	c.readPump()
}

func (c *Conn) readPump() {
	defer func() {
		c.Teardown()
		getLog().Info().
			Str("conn_id", c.ID).
			Str("channel", c.Channel.String()).
			Msg("WebSocket client disconnected")
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		msgType, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				getLog().Debug().Err(err).Str("conn_id", c.ID).Msg("WebSocket read error")
			}
			return
		}

		// The keepalive token is the only inbound message the protocol
		// defines; anything else is ignored.
		if msgType == websocket.TextMessage && string(message) == keepaliveToken {
			c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
			c.Enqueue([]byte(keepaliveReply))
		}
	}
}

func (c *Conn) writePump() {
	pingPeriod := c.cfg.PongWait * 9 / 10
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Teardown()
	}()

	for {
		select {
		case data := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				getLog().Debug().Err(err).Str("conn_id", c.ID).Msg("WebSocket write error")
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
