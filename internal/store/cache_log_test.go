// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"pocketratings/internal/listcache"
)

func TestCacheLogStoreLog(t *testing.T) {
	db := testDB(t)
	s := NewCacheLogStore(db)
	ctx := context.Background()

	// Log should not error (best-effort).
	entityID := uuid.New()
	s.Log(ctx, "category", entityID, "update", []listcache.Key{listcache.Categories, listcache.Products})

	t.Cleanup(func() {
		db.Exec("DELETE FROM cache_invalidation_log WHERE entity_id = $1", entityID)
	})

	var (
		count int
		keys  string
	)
	err := db.QueryRow(
		"SELECT COUNT(*), MAX(cache_keys) FROM cache_invalidation_log WHERE entity_id = $1", entityID,
	).Scan(&count, &keys)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 log entry, got %d", count)
	}
	if keys != "categories,products" {
		t.Errorf("cache_keys = %q, want %q", keys, "categories,products")
	}
}

func TestCacheLogStoreRecentEntries(t *testing.T) {
	db := testDB(t)
	s := NewCacheLogStore(db)
	ctx := context.Background()

	id1 := uuid.New()
	id2 := uuid.New()
	s.Log(ctx, "review", id1, "create", []listcache.Key{listcache.Reviews})
	s.Log(ctx, "location", id2, "delete", []listcache.Key{listcache.Locations, listcache.Purchases})

	t.Cleanup(func() {
		db.Exec("DELETE FROM cache_invalidation_log WHERE entity_id IN ($1, $2)", id1, id2)
	})

	entries, err := s.RecentEntries(ctx, 10)
	if err != nil {
		t.Fatalf("RecentEntries: %v", err)
	}
	if len(entries) < 2 {
		t.Fatalf("expected at least 2 entries, got %d", len(entries))
	}

	// Most recent should be first.
	if entries[0].InvalidatedAt.Before(entries[1].InvalidatedAt) {
		t.Error("expected entries ordered by invalidated_at DESC")
	}

	for _, e := range entries {
		if e.EntityID == id2 {
			want := []listcache.Key{listcache.Locations, listcache.Purchases}
			if !reflect.DeepEqual(e.Keys, want) {
				t.Errorf("keys = %v, want %v", e.Keys, want)
			}
		}
	}
}

func TestJoinSplitKeys(t *testing.T) {
	keys := []listcache.Key{listcache.Products, listcache.Reviews, listcache.Purchases}
	if got := splitKeys(joinKeys(keys)); !reflect.DeepEqual(got, keys) {
		t.Errorf("splitKeys(joinKeys()) = %v, want %v", got, keys)
	}
	if got := splitKeys(""); got != nil {
		t.Errorf("splitKeys(\"\") = %v, want nil", got)
	}
	if got := splitKeys("reviews,bogus"); !reflect.DeepEqual(got, []listcache.Key{listcache.Reviews}) {
		t.Errorf("unknown keys should be skipped, got %v", got)
	}
}
