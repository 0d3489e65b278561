// Copyright (C) 2026 Ordercast
// SPDX-License-Identifier: AGPL-3.0-or-later

package realtime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ordercast/ordercast/internal/logger"
)

var (
	busLog     *zerolog.Logger
	busLogOnce sync.Once
)

func getBusLog() *zerolog.Logger {
	busLogOnce.Do(func() {
		l := logger.GetBusLogger()
		busLog = &l
	})
	return busLog
}

// BusState describes the bridge's view of the pub/sub bus.
type BusState string

const (
	BusConnected BusState = "connected"
	BusDegraded  BusState = "degraded"
)

const busPublishTimeout = 3 * time.Second

// BridgeConfig carries the bus forwarding tuning knobs.
type BridgeConfig struct {
	QueueSize int           // outbound forwarder buffer
	RetryMin  time.Duration // initial reconnect backoff
	RetryMax  time.Duration // backoff cap
}

type busMessage struct {
	topic string
	data  []byte
}

// Bridge connects the local registry to the Redis pub/sub bus so every
// server process observes the same events. Publishing always fans out
// locally first; bus forwarding is best-effort and never blocks or fails the
// caller. With no bus configured the bridge runs permanently degraded and
// delivery stays local to this process.
type Bridge struct {
	registry *Registry
	client   *redis.Client // nil = local-only mode
	cfg      BridgeConfig

	out   chan busMessage
	state atomic.Int32 // 0 = degraded, 1 = connected
}

// NewBridge creates a bridge. client may be nil for local-only operation.
func NewBridge(registry *Registry, client *redis.Client, cfg BridgeConfig) *Bridge {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.RetryMin <= 0 {
		cfg.RetryMin = time.Second
	}
	if cfg.RetryMax < cfg.RetryMin {
		cfg.RetryMax = 30 * time.Second
	}
	return &Bridge{
		registry: registry,
		client:   client,
		cfg:      cfg,
		out:      make(chan busMessage, cfg.QueueSize),
	}
}

// State returns the current bus connectivity state.
func (b *Bridge) State() BusState {
	if b.state.Load() == 1 {
		return BusConnected
	}
	return BusDegraded
}

// Publish fans the event out to local subscribers first, then hands it to
// the bus forwarder without waiting on bus I/O. Returns the local delivery
// count. Bus unavailability never surfaces to the caller.
func (b *Bridge) Publish(ch Channel, e Event) int {
	data, err := e.Marshal()
	if err != nil {
		getBusLog().Error().Err(err).Str("channel", ch.String()).Msg("Failed to marshal event for publish")
		return 0
	}

	delivered := b.registry.FanoutRaw(ch, data)

	if b.client != nil {
		select {
		case b.out <- busMessage{topic: ch.String(), data: data}:
		default:
			BusPublishFailuresTotal.Inc()
			getBusLog().Warn().Str("channel", ch.String()).Msg("Bus forward queue full, event delivered locally only")
		}
	}

	return delivered
}

// Run drives the bus subscription and the outbound forwarder until the
// context is cancelled. Without a client it parks in local-only mode.
func (b *Bridge) Run(ctx context.Context) {
	if b.client == nil {
		getBusLog().Warn().Msg("No bus configured, events will not fan out across processes")
		<-ctx.Done()
		return
	}

	go b.forwardLoop(ctx)
	b.subscribeLoop(ctx)
}

// forwardLoop drains the outbound queue onto the bus. Forwarding failures
// are logged and counted, never propagated.
func (b *Bridge) forwardLoop(ctx context.Context) {
	for {
		select {
		case m := <-b.out:
			pctx, cancel := context.WithTimeout(ctx, busPublishTimeout)
			err := b.client.Publish(pctx, m.topic, m.data).Err()
			cancel()
			if err != nil {
				BusPublishFailuresTotal.Inc()
				b.markDegraded(err, "Bus publish failed, continuing local-only")
			}
		case <-ctx.Done():
			return
		}
	}
}

// subscribeLoop (re)establishes the pattern subscription with exponential
// backoff. The bridge flips to connected only after the subscription is
// confirmed, so a reconnect never races ahead of the re-subscribe.
func (b *Bridge) subscribeLoop(ctx context.Context) {
	backoff := b.cfg.RetryMin

	for {
		if ctx.Err() != nil {
			return
		}

		pubsub := b.client.PSubscribe(ctx, BusPatterns()...)
		if _, err := pubsub.Receive(ctx); err != nil {
			pubsub.Close()
			if ctx.Err() != nil {
				return
			}
			b.markDegraded(err, "Bus subscribe failed")
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, b.cfg.RetryMax)
			continue
		}

		b.markConnected()
		backoff = b.cfg.RetryMin

		b.consume(ctx, pubsub)
		pubsub.Close()

		if ctx.Err() != nil {
			return
		}
		b.markDegraded(nil, "Bus subscription lost")
		if !sleepCtx(ctx, backoff) {
			return
		}
		backoff = min(backoff*2, b.cfg.RetryMax)
	}
}

// consume rebroadcasts inbound bus messages to the local registry. Inbound
// messages are terminal: they are never forwarded back to the bus, so events
// cannot loop between processes.
func (b *Bridge) consume(ctx context.Context, pubsub *redis.PubSub) {
	msgs := pubsub.Channel()
	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			b.onBusMessage(msg.Channel, []byte(msg.Payload))
		case <-ctx.Done():
			return
		}
	}
}

func (b *Bridge) onBusMessage(topic string, data []byte) {
	ch, ok := ParseTopic(topic)
	if !ok {
		getBusLog().Debug().Str("topic", topic).Msg("Ignoring bus message on unknown topic")
		return
	}
	b.registry.FanoutRaw(ch, data)
}

func (b *Bridge) markConnected() {
	if b.state.Swap(1) != 1 {
		BusReconnectsTotal.Inc()
		getBusLog().Info().Strs("patterns", BusPatterns()).Msg("Bus subscription established")
	}
}

func (b *Bridge) markDegraded(err error, msg string) {
	if b.state.Swap(0) != 0 || err != nil {
		getBusLog().Warn().Err(err).Msg(msg)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
