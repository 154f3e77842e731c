// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wrappers

import (
	"context"
	"testing"
	"time"

	"github.com/polykv/store/store"
	"github.com/polykv/store/stores/memstore"
)

// countingStore wraps a store.Store and counts TTL/Get calls, so tests can
// assert the location cache actually avoids a repeat backend lookup.
type countingStore struct {
	store.Store
	ttlCalls int
	getCalls int
}

func (c *countingStore) TTL(ctx context.Context, collection, key string) (map[string]any, *time.Duration, error) {
	c.ttlCalls++
	return c.Store.TTL(ctx, collection, key)
}

func (c *countingStore) Get(ctx context.Context, collection, key string) (map[string]any, error) {
	c.getCalls++
	return c.Store.Get(ctx, collection, key)
}

func TestSanitizationMigrationReadsFromLegacyOnCurrentMiss(t *testing.T) {
	ctx := context.Background()
	current := memstore.New()
	legacy := memstore.New()
	w := NewSanitizationMigration(current, legacy, false, false, 0)

	if err := legacy.Put(ctx, "coll", "k", map[string]any{"v": 1.0}, nil); err != nil {
		t.Fatalf("legacy put: %v", err)
	}

	got, err := w.Get(ctx, "coll", "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got["v"] != 1.0 {
		t.Fatalf("expected value from legacy, got %v", got)
	}
}

func TestSanitizationMigrationMigratesOnRead(t *testing.T) {
	ctx := context.Background()
	current := memstore.New()
	legacy := memstore.New()
	w := NewSanitizationMigration(current, legacy, true, false, 0)

	ttl := time.Minute
	if err := legacy.Put(ctx, "coll", "k", map[string]any{"v": 1.0}, &ttl); err != nil {
		t.Fatalf("legacy put: %v", err)
	}

	if _, err := w.Get(ctx, "coll", "k"); err != nil {
		t.Fatalf("get: %v", err)
	}

	got, err := current.Get(ctx, "coll", "k")
	if err != nil {
		t.Fatalf("current get: %v", err)
	}
	if got["v"] != 1.0 {
		t.Fatalf("expected migrated copy in current, got %v", got)
	}
}

func TestSanitizationMigrationDeletesFromLegacyAfterMigration(t *testing.T) {
	ctx := context.Background()
	current := memstore.New()
	legacy := memstore.New()
	w := NewSanitizationMigration(current, legacy, true, true, 0)

	if err := legacy.Put(ctx, "coll", "k", map[string]any{"v": 1.0}, nil); err != nil {
		t.Fatalf("legacy put: %v", err)
	}

	if _, err := w.Get(ctx, "coll", "k"); err != nil {
		t.Fatalf("get: %v", err)
	}

	got, err := legacy.Get(ctx, "coll", "k")
	if err != nil {
		t.Fatalf("legacy get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected legacy entry deleted after migration, got %v", got)
	}
}

func TestSanitizationMigrationPutAlwaysGoesToCurrent(t *testing.T) {
	ctx := context.Background()
	current := memstore.New()
	legacy := memstore.New()
	w := NewSanitizationMigration(current, legacy, false, false, 0)

	if err := w.Put(ctx, "coll", "k", map[string]any{"v": 1.0}, nil); err != nil {
		t.Fatalf("put: %v", err)
	}

	if got, _ := legacy.Get(ctx, "coll", "k"); got != nil {
		t.Fatalf("expected legacy untouched by put, got %v", got)
	}
	got, err := current.Get(ctx, "coll", "k")
	if err != nil {
		t.Fatalf("current get: %v", err)
	}
	if got["v"] != 1.0 {
		t.Fatalf("expected value in current, got %v", got)
	}
}

func TestSanitizationMigrationCachesMissingLocation(t *testing.T) {
	ctx := context.Background()
	current := &countingStore{Store: memstore.New()}
	legacy := &countingStore{Store: memstore.New()}
	w := NewSanitizationMigration(current, legacy, false, false, 0)

	for i := 0; i < 3; i++ {
		if v, err := w.Get(ctx, "coll", "missing"); err != nil || v != nil {
			t.Fatalf("Get[%d]: v=%v err=%v", i, v, err)
		}
	}
	if legacy.ttlCalls != 1 {
		t.Fatalf("legacy.TTL called %d times, want 1 (cached locationMissing should short-circuit)", legacy.ttlCalls)
	}
}

func TestSanitizationMigrationCachesCurrentLocationSkipsLegacy(t *testing.T) {
	ctx := context.Background()
	current := &countingStore{Store: memstore.New()}
	legacy := &countingStore{Store: memstore.New()}
	w := NewSanitizationMigration(current, legacy, false, false, 0)

	if err := w.Put(ctx, "coll", "k", map[string]any{"v": 1.0}, nil); err != nil {
		t.Fatalf("put: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := w.Get(ctx, "coll", "k"); err != nil {
			t.Fatalf("Get[%d]: %v", i, err)
		}
	}
	if legacy.ttlCalls != 0 {
		t.Fatalf("legacy.TTL called %d times, want 0 (cached locationCurrent should skip Legacy fallback)", legacy.ttlCalls)
	}
	if current.getCalls != 3 {
		t.Fatalf("current.Get called %d times, want 3", current.getCalls)
	}
}

func TestSanitizationMigrationCachesLegacyLocationSkipsCurrent(t *testing.T) {
	ctx := context.Background()
	current := &countingStore{Store: memstore.New()}
	legacy := &countingStore{Store: memstore.New()}
	w := NewSanitizationMigration(current, legacy, false, false, 0)

	if err := legacy.Put(ctx, "coll", "k", map[string]any{"v": 1.0}, nil); err != nil {
		t.Fatalf("legacy put: %v", err)
	}

	for i := 0; i < 3; i++ {
		v, err := w.Get(ctx, "coll", "k")
		if err != nil || v["v"] != 1.0 {
			t.Fatalf("Get[%d]: v=%v err=%v", i, v, err)
		}
	}
	if current.getCalls != 1 {
		t.Fatalf("current.Get called %d times, want 1 (cached locationLegacy should skip Current lookup)", current.getCalls)
	}
}

func TestSanitizationMigrationKeysUnionsBothStores(t *testing.T) {
	ctx := context.Background()
	current := memstore.New()
	legacy := memstore.New()
	w := NewSanitizationMigration(current, legacy, false, false, 0)

	if err := current.Put(ctx, "coll", "a", map[string]any{"v": 1.0}, nil); err != nil {
		t.Fatalf("current put: %v", err)
	}
	if err := legacy.Put(ctx, "coll", "b", map[string]any{"v": 2.0}, nil); err != nil {
		t.Fatalf("legacy put: %v", err)
	}

	keys, err := w.Keys(ctx, "coll", 0)
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	seen := map[string]bool{}
	for _, k := range keys {
		seen[k] = true
	}
	if !seen["a"] || !seen["b"] {
		t.Fatalf("expected union of a and b, got %v", keys)
	}
}
