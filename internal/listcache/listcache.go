// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package listcache holds in-memory snapshots of the list queries, one per
// resource kind. A snapshot is built lazily on the first read and dropped
// by every write to the rows it was built from.
//
// Each key has its own build lock, so concurrent readers of a cold key
// share a single build. Every key also carries a generation counter that
// Invalidate bumps; a build that started before the bump finishes without
// storing its result, so a write that lands mid-build is never hidden by
// a stale snapshot.
package listcache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Key names one cached list.
type Key string

const (
	Categories Key = "categories"
	Products   Key = "products"
	Locations  Key = "locations"
	Reviews    Key = "reviews"
	Purchases  Key = "purchases"
)

// AllKeys lists every key in a fixed order.
var AllKeys = []Key{Categories, Products, Locations, Reviews, Purchases}

// entry is the state for one key. buildMu serializes builders; mu guards
// the snapshot fields and is never held while a builder runs.
type entry struct {
	buildMu sync.Mutex

	mu  sync.Mutex
	gen uint64
	val any
	ok  bool
}

func (e *entry) load() (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.val, e.ok
}

func (e *entry) generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen
}

// store keeps v only if no invalidation happened since gen was read.
func (e *entry) store(gen uint64, v any) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen {
		return false
	}
	e.val, e.ok = v, true
	return true
}

func (e *entry) drop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	e.val, e.ok = nil, false
}

// Stats are cumulative counters, mainly for tests and debug logging.
type Stats struct {
	Hits          uint64
	Builds        uint64
	Discarded     uint64
	Invalidations uint64
}

// Cache is safe for concurrent use. The zero value is not usable; call New.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]*entry

	hits, builds, discarded, invalidations atomic.Uint64
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[Key]*entry)}
}

func (c *Cache) entry(key Key) *entry {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return e
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Double-check after acquiring write lock.
	if e, ok = c.entries[key]; !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}

// GetOrBuild returns the snapshot cached under key, calling build to
// produce it when there is none. Concurrent callers on a cold key wait for
// one another, so build runs once per invalidation. A failed build stores
// nothing and its error is returned to the caller that ran it.
//
// Snapshots are shared between callers and must be treated as read-only.
func GetOrBuild[T any](ctx context.Context, c *Cache, key Key, build func(context.Context) (T, error)) (T, error) {
	e := c.entry(key)
	if v, ok := e.load(); ok {
		c.hits.Add(1)
		return typed[T](key, v)
	}

	e.buildMu.Lock()
	defer e.buildMu.Unlock()

	// Another caller may have built it while we waited.
	if v, ok := e.load(); ok {
		c.hits.Add(1)
		return typed[T](key, v)
	}

	gen := e.generation()
	v, err := build(ctx)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("build %s: %w", key, err)
	}
	c.builds.Add(1)

	if !e.store(gen, v) {
		c.discarded.Add(1)
		slog.Debug("list cache build discarded", "key", key)
		return v, nil
	}
	slog.Debug("list cache built", "key", key)
	return v, nil
}

func typed[T any](key Key, v any) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("list cache %s holds %T", key, v)
	}
	return t, nil
}

// Invalidate drops the snapshots for keys. It does not wait for builds in
// flight; those finish without storing their result.
func (c *Cache) Invalidate(keys ...Key) {
	for _, key := range keys {
		c.entry(key).drop()
		c.invalidations.Add(1)
	}
	slog.Debug("list cache invalidated", "keys", keys)
}

// InvalidateAll drops every snapshot.
func (c *Cache) InvalidateAll() {
	c.Invalidate(AllKeys...)
}

// Cached reports whether key currently holds a snapshot.
func (c *Cache) Cached(key Key) bool {
	_, ok := c.entry(key).load()
	return ok
}

// Stats returns a copy of the counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:          c.hits.Load(),
		Builds:        c.builds.Load(),
		Discarded:     c.discarded.Load(),
		Invalidations: c.invalidations.Load(),
	}
}

// ParseKey maps a string back to a known Key.
func ParseKey(s string) (Key, bool) {
	for _, k := range AllKeys {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}
