// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wrappers

import (
	"context"
	"testing"

	"github.com/polykv/store/store"
	"github.com/polykv/store/stores/memstore"
)

func TestSingleCollectionRemapsKeys(t *testing.T) {
	ctx := context.Background()
	inner := memstore.New()
	w := NewSingleCollection(inner, "backing")

	if err := w.Put(ctx, "tenantA", "k", map[string]any{"v": 1.0}, nil); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := w.Put(ctx, "tenantB", "k", map[string]any{"v": 2.0}, nil); err != nil {
		t.Fatalf("put: %v", err)
	}

	gotA, err := w.Get(ctx, "tenantA", "k")
	if err != nil {
		t.Fatalf("get a: %v", err)
	}
	if gotA["v"] != 1.0 {
		t.Fatalf("expected tenantA value, got %v", gotA)
	}

	gotB, err := w.Get(ctx, "tenantB", "k")
	if err != nil {
		t.Fatalf("get b: %v", err)
	}
	if gotB["v"] != 2.0 {
		t.Fatalf("expected tenantB value, got %v", gotB)
	}

	remapped, err := inner.Get(ctx, "backing", "tenantA__k")
	if err != nil {
		t.Fatalf("inner get: %v", err)
	}
	if remapped["v"] != 1.0 {
		t.Fatalf("expected remapped key in backing collection, got %v", remapped)
	}
}

func TestSingleCollectionKeysFiltersByOriginalCollection(t *testing.T) {
	ctx := context.Background()
	w := NewSingleCollection(memstore.New(), "backing")

	if err := w.Put(ctx, "tenantA", "k1", map[string]any{"v": 1.0}, nil); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := w.Put(ctx, "tenantB", "k2", map[string]any{"v": 2.0}, nil); err != nil {
		t.Fatalf("put: %v", err)
	}

	keys, err := w.Keys(ctx, "tenantA", 0)
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 1 || keys[0] != "k1" {
		t.Fatalf("expected only [k1], got %v", keys)
	}
}

func TestSingleCollectionEnumerationUnsupported(t *testing.T) {
	ctx := context.Background()
	w := NewSingleCollection(memstore.New(), "backing")

	_, err := w.Collections(ctx, 0)
	if !store.IsUnsupported(err) {
		t.Fatalf("expected UnsupportedErr, got %v", err)
	}
}
