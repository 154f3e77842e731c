// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wrappers

import (
	"context"
	"testing"
	"time"

	"github.com/polykv/store/stores/memstore"
)

func TestPassthroughCacheMissPopulatesFromPrimary(t *testing.T) {
	ctx := context.Background()
	primary := memstore.New()
	cache := memstore.New()
	w := NewPassthroughCache(primary, cache, false)

	if err := primary.Put(ctx, "coll", "k", map[string]any{"v": 1.0}, nil); err != nil {
		t.Fatalf("primary put: %v", err)
	}

	got, err := w.Get(ctx, "coll", "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got["v"] != 1.0 {
		t.Fatalf("expected value from primary, got %v", got)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		cached, err := cache.Get(ctx, "coll", "k")
		if err != nil {
			t.Fatalf("cache get: %v", err)
		}
		if cached != nil {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("cache was never populated by async Get")
}

func TestPassthroughCacheHitAvoidsPrimary(t *testing.T) {
	ctx := context.Background()
	primary := memstore.New()
	cache := memstore.New()
	w := NewPassthroughCache(primary, cache, false)

	if err := cache.Put(ctx, "coll", "k", map[string]any{"v": 2.0}, nil); err != nil {
		t.Fatalf("cache put: %v", err)
	}

	got, err := w.Get(ctx, "coll", "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got["v"] != 2.0 {
		t.Fatalf("expected cache hit value, got %v", got)
	}
}

func TestPassthroughCachePutInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	primary := memstore.New()
	cache := memstore.New()
	w := NewPassthroughCache(primary, cache, false)

	if err := cache.Put(ctx, "coll", "k", map[string]any{"v": "stale"}, nil); err != nil {
		t.Fatalf("cache put: %v", err)
	}

	if err := w.Put(ctx, "coll", "k", map[string]any{"v": "fresh"}, nil); err != nil {
		t.Fatalf("put: %v", err)
	}

	cached, err := cache.Get(ctx, "coll", "k")
	if err != nil {
		t.Fatalf("cache get: %v", err)
	}
	if cached != nil {
		t.Fatalf("expected cache to be invalidated, got %v", cached)
	}
}

func TestPassthroughCachePutWithPopulateOnWrite(t *testing.T) {
	ctx := context.Background()
	primary := memstore.New()
	cache := memstore.New()
	w := NewPassthroughCache(primary, cache, true)

	if err := w.Put(ctx, "coll", "k", map[string]any{"v": "fresh"}, nil); err != nil {
		t.Fatalf("put: %v", err)
	}

	cached, err := cache.Get(ctx, "coll", "k")
	if err != nil {
		t.Fatalf("cache get: %v", err)
	}
	if cached["v"] != "fresh" {
		t.Fatalf("expected cache populated with fresh value, got %v", cached)
	}
}

func TestPassthroughCacheDeleteRemovesBoth(t *testing.T) {
	ctx := context.Background()
	primary := memstore.New()
	cache := memstore.New()
	w := NewPassthroughCache(primary, cache, false)

	if err := w.Put(ctx, "coll", "k", map[string]any{"v": 1.0}, nil); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := cache.Put(ctx, "coll", "k", map[string]any{"v": 1.0}, nil); err != nil {
		t.Fatalf("cache put: %v", err)
	}

	ok, err := w.Delete(ctx, "coll", "k")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !ok {
		t.Fatalf("expected delete to report found")
	}

	if v, _ := primary.Get(ctx, "coll", "k"); v != nil {
		t.Fatalf("expected primary cleared")
	}
	if v, _ := cache.Get(ctx, "coll", "k"); v != nil {
		t.Fatalf("expected cache cleared")
	}
}
