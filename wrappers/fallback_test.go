// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wrappers

import (
	"context"
	"testing"

	"github.com/polykv/store/stores/memstore"
)

func TestFallbackReadsFromSecondaryOnPrimaryError(t *testing.T) {
	ctx := context.Background()
	primary := memstore.New()
	secondary := memstore.New()
	w := NewFallback(primary, secondary, false)

	if err := secondary.Put(ctx, "coll", "k", map[string]any{"v": 1.0}, nil); err != nil {
		t.Fatalf("secondary put: %v", err)
	}
	if err := primary.Close(ctx); err != nil {
		t.Fatalf("close primary: %v", err)
	}

	got, err := w.Get(ctx, "coll", "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got["v"] != 1.0 {
		t.Fatalf("expected fallback value, got %v", got)
	}
}

func TestFallbackWritesToPrimaryOnly(t *testing.T) {
	ctx := context.Background()
	primary := memstore.New()
	secondary := memstore.New()
	w := NewFallback(primary, secondary, false)

	if err := w.Put(ctx, "coll", "k", map[string]any{"v": 1.0}, nil); err != nil {
		t.Fatalf("put: %v", err)
	}

	if v, _ := secondary.Get(ctx, "coll", "k"); v != nil {
		t.Fatalf("expected secondary untouched, got %v", v)
	}
}

func TestFallbackWritesToSecondaryWhenPrimaryFailsAndEnabled(t *testing.T) {
	ctx := context.Background()
	primary := memstore.New()
	secondary := memstore.New()
	w := NewFallback(primary, secondary, true)

	if err := primary.Close(ctx); err != nil {
		t.Fatalf("close primary: %v", err)
	}

	if err := w.Put(ctx, "coll", "k", map[string]any{"v": 1.0}, nil); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := secondary.Get(ctx, "coll", "k")
	if err != nil {
		t.Fatalf("secondary get: %v", err)
	}
	if got["v"] != 1.0 {
		t.Fatalf("expected value written to secondary, got %v", got)
	}
}
