// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"pocketratings/internal/listcache"
)

// Channel is the pub/sub channel invalidation messages travel on.
const Channel = "pocketratings:invalidate"

type message struct {
	Origin string          `json:"origin"`
	Keys   []listcache.Key `json:"keys"`
}

// Broadcaster publishes local invalidations to other processes and
// applies theirs to the local list cache. A nil *Broadcaster is valid and
// does nothing, which is what runs when Valkey is not configured.
type Broadcaster struct {
	client  *redis.Client
	cache   *listcache.Cache
	channel string
	id      string
}

// NewBroadcaster returns a Broadcaster with a fresh instance id.
func NewBroadcaster(client *redis.Client, c *listcache.Cache) *Broadcaster {
	return &Broadcaster{
		client:  client,
		cache:   c,
		channel: Channel,
		id:      uuid.NewString(),
	}
}

// ID returns the instance id stamped on outgoing messages.
func (b *Broadcaster) ID() string {
	if b == nil {
		return ""
	}
	return b.id
}

// Publish announces that keys were invalidated here. Failures are logged;
// the local cache has already been invalidated by the caller.
func (b *Broadcaster) Publish(ctx context.Context, keys ...listcache.Key) {
	if b == nil || len(keys) == 0 {
		return
	}
	payload, err := json.Marshal(message{Origin: b.id, Keys: keys})
	if err != nil {
		slog.Warn("encode invalidation", "error", err)
		return
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		slog.Warn("publish invalidation", "keys", keys, "error", err)
	}
}

// Run subscribes to the channel and invalidates the local cache for every
// message from another instance. It blocks until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) error {
	if b == nil {
		<-ctx.Done()
		return nil
	}

	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	// Wait for the subscription to be confirmed before consuming.
	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	slog.Info("listening for cache invalidations", "channel", b.channel, "instance", b.id)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.apply(msg.Payload)
		}
	}
}

// apply handles one raw message. Unknown keys are ignored; a message that
// names none this build knows about invalidates nothing.
func (b *Broadcaster) apply(payload string) {
	var m message
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		slog.Warn("malformed invalidation message", "error", err)
		return
	}
	if m.Origin == b.id {
		return
	}

	keys := make([]listcache.Key, 0, len(m.Keys))
	for _, k := range m.Keys {
		if key, ok := listcache.ParseKey(string(k)); ok {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return
	}
	b.cache.Invalidate(keys...)
	slog.Debug("remote invalidation applied", "origin", m.Origin, "keys", keys)
}
