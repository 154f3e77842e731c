// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wrappers

import (
	"context"
	"testing"
	"time"

	"github.com/polykv/store/store"
)

type toggleStore struct {
	store.Store
	failing bool
}

func (f *toggleStore) Get(ctx context.Context, collection, key string) (map[string]any, error) {
	if f.failing {
		return nil, &store.Error{Code: store.StoreConnectionErr, Message: "down"}
	}
	return map[string]any{"v": 1.0}, nil
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	ctx := context.Background()
	inner := &toggleStore{failing: true}
	w := NewCircuitBreaker(inner, 3, 1, time.Hour, nil)

	for i := 0; i < 3; i++ {
		if _, err := w.Get(ctx, "coll", "k"); !store.IsStoreConnection(err) {
			t.Fatalf("attempt %d: expected StoreConnectionErr, got %v", i, err)
		}
	}

	_, err := w.Get(ctx, "coll", "k")
	if !store.IsCircuitOpen(err) {
		t.Fatalf("expected circuit to be open, got %v", err)
	}
}

func TestCircuitBreakerHalfOpenProbeRecovers(t *testing.T) {
	ctx := context.Background()
	inner := &toggleStore{failing: true}
	w := NewCircuitBreaker(inner, 2, 1, 10*time.Millisecond, nil)

	for i := 0; i < 2; i++ {
		w.Get(ctx, "coll", "k")
	}
	if _, err := w.Get(ctx, "coll", "k"); !store.IsCircuitOpen(err) {
		t.Fatalf("expected circuit open, got %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	inner.failing = false

	if _, err := w.Get(ctx, "coll", "k"); err != nil {
		t.Fatalf("expected half-open probe to succeed, got %v", err)
	}

	if _, err := w.Get(ctx, "coll", "k"); err != nil {
		t.Fatalf("expected circuit closed after success threshold, got %v", err)
	}
}

func TestCircuitBreakerReopensOnHalfOpenFailure(t *testing.T) {
	ctx := context.Background()
	inner := &toggleStore{failing: true}
	w := NewCircuitBreaker(inner, 1, 1, 10*time.Millisecond, nil)

	w.Get(ctx, "coll", "k")
	if _, err := w.Get(ctx, "coll", "k"); !store.IsCircuitOpen(err) {
		t.Fatalf("expected circuit open, got %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	if _, err := w.Get(ctx, "coll", "k"); !store.IsStoreConnection(err) {
		t.Fatalf("expected half-open probe to fail through to inner error, got %v", err)
	}

	if _, err := w.Get(ctx, "coll", "k"); !store.IsCircuitOpen(err) {
		t.Fatalf("expected circuit re-opened after half-open failure, got %v", err)
	}
}

func TestCircuitBreakerNonTrippingErrorDoesNotAffectState(t *testing.T) {
	ctx := context.Background()
	inner := &toggleStore{failing: true}
	w := NewCircuitBreaker(inner, 1, 1, time.Hour, func(err error) bool {
		return false
	})

	for i := 0; i < 5; i++ {
		if _, err := w.Get(ctx, "coll", "k"); !store.IsStoreConnection(err) {
			t.Fatalf("attempt %d: expected the underlying error to pass through, got %v", i, err)
		}
	}
}
