// Copyright (C) 2026 Ordercast
// SPDX-License-Identifier: AGPL-3.0-or-later

package realtime

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

// Registry is the in-process index from channel to subscriber set. All
// mutation goes through Subscribe/Unsubscribe; Fanout reads a consistent
// snapshot under the read lock. Channels with no remaining subscribers are
// pruned eagerly, so Channels() never lists an empty channel.
type Registry struct {
	mu       sync.RWMutex
	channels map[Channel]map[*Conn]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		channels: make(map[Channel]map[*Conn]struct{}),
	}
}

// Subscribe adds a connection to a channel's subscriber set.
func (r *Registry) Subscribe(ch Channel, c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.channels[ch]
	if !ok {
		set = make(map[*Conn]struct{})
		r.channels[ch] = set
	}
	if _, exists := set[c]; !exists {
		set[c] = struct{}{}
		ActiveConnections.Inc()
	}
}

// Unsubscribe removes a connection from a channel. No-op if the connection
// was never subscribed, so teardown stays idempotent.
func (r *Registry) Unsubscribe(ch Channel, c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.channels[ch]
	if !ok {
		return
	}
	if _, exists := set[c]; !exists {
		return
	}
	delete(set, c)
	ActiveConnections.Dec()
	if len(set) == 0 {
		delete(r.channels, ch)
	}
}

// Fanout delivers an event to every current subscriber of the channel and
// returns the number of connections it was enqueued for. A channel with no
// subscribers is a no-op. A single slow or closing connection never blocks
// delivery to the rest of the set.
func (r *Registry) Fanout(ch Channel, e Event) int {
	data, err := e.Marshal()
	if err != nil {
		getLog().Error().Err(err).Str("channel", ch.String()).Msg("Failed to marshal event for fan-out")
		return 0
	}
	return r.FanoutRaw(ch, data)
}

// FanoutRaw delivers an already-encoded envelope. Used by the bus bridge,
// which receives events in wire form.
func (r *Registry) FanoutRaw(ch Channel, data []byte) int {
	// Snapshot the subscriber set so a connection tearing down mid-fanout
	// (Enqueue may close a wedged consumer, which re-enters the registry
	// lock) cannot stall or skip delivery to the others.
	r.mu.RLock()
	set := r.channels[ch]
	conns := make([]*Conn, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, c := range conns {
		if c.Enqueue(data) {
			delivered++
		}
	}
	if delivered > 0 {
		EventsDeliveredTotal.WithLabelValues(channelKind(ch)).Add(float64(delivered))
	}
	return delivered
}

// Channels returns the currently active channel ids, sorted.
func (r *Registry) Channels() []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chs := lo.Keys(r.channels)
	sort.Slice(chs, func(i, j int) bool { return chs[i] < chs[j] })
	return chs
}

// Count returns the number of subscribers on a channel.
func (r *Registry) Count(ch Channel) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[ch])
}

// Counts returns per-channel subscriber counts.
func (r *Registry) Counts() map[Channel]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[Channel]int, len(r.channels))
	for ch, set := range r.channels {
		counts[ch] = len(set)
	}
	return counts
}

// Total returns the connection count across all channels.
func (r *Registry) Total() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, set := range r.channels {
		total += len(set)
	}
	return total
}
