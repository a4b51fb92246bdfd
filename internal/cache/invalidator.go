// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"pocketratings/internal/listcache"
)

// Entity names a kind of row whose mutation invalidates list snapshots.
type Entity string

const (
	Category Entity = "category"
	Product  Entity = "product"
	Location Entity = "location"
	Review   Entity = "review"
	Purchase Entity = "purchase"
	User     Entity = "user"
)

// affected maps each entity to the snapshots that embed its rows, either
// directly or through a join.
var affected = map[Entity][]listcache.Key{
	Category: {listcache.Categories, listcache.Products},
	Product:  {listcache.Products, listcache.Reviews, listcache.Purchases},
	Location: {listcache.Locations, listcache.Purchases},
	Review:   {listcache.Reviews},
	Purchase: {listcache.Purchases},
	User:     {listcache.Reviews, listcache.Purchases},
}

// Affected returns the list cache keys a mutation of e must drop.
func Affected(e Entity) []listcache.Key {
	return append([]listcache.Key(nil), affected[e]...)
}

// AuditLog records invalidations. store.CacheLogStore implements it.
type AuditLog interface {
	Log(ctx context.Context, entityType string, entityID uuid.UUID, action string, keys []listcache.Key)
}

// Invalidator drops the affected snapshots after a successful mutation,
// records the event, and tells the other processes. Only the local drop
// is synchronous and required; the log and the broadcast are best-effort.
type Invalidator struct {
	lists       *listcache.Cache
	log         AuditLog
	broadcaster *Broadcaster
}

// NewInvalidator wires an Invalidator. lists may be nil in processes that
// serve no reads (the CLI); log and broadcaster may be nil as well.
func NewInvalidator(lists *listcache.Cache, log AuditLog, broadcaster *Broadcaster) *Invalidator {
	return &Invalidator{lists: lists, log: log, broadcaster: broadcaster}
}

// Invalidate runs after entity id was changed by action ("create",
// "update", "delete").
func (iv *Invalidator) Invalidate(ctx context.Context, e Entity, id uuid.UUID, action string) {
	keys := affected[e]
	if len(keys) == 0 {
		slog.Warn("invalidation for unknown entity", "entity", e)
		return
	}
	if iv.lists != nil {
		iv.lists.Invalidate(keys...)
	}
	if iv.log != nil {
		iv.log.Log(ctx, string(e), id, action, keys)
	}
	iv.broadcaster.Publish(ctx, keys...)
}
