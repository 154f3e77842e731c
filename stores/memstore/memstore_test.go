// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestGetPutDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Setup(ctx); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	v, err := s.Get(ctx, "widgets", "a")
	if err != nil {
		t.Fatalf("Get miss: %v", err)
	}
	if v != nil {
		t.Fatalf("expected miss, got %v", v)
	}

	want := map[string]any{"n": float64(1)}
	if err := s.Put(ctx, "widgets", "a", want, nil); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "widgets", "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Get mismatch (-want +got):\n%s", diff)
	}

	ok, err := s.Delete(ctx, "widgets", "a")
	if err != nil || !ok {
		t.Fatalf("Delete: ok=%v err=%v", ok, err)
	}
	ok, err = s.Delete(ctx, "widgets", "a")
	if err != nil || ok {
		t.Fatalf("second Delete: ok=%v err=%v", ok, err)
	}
}

func TestTTLExpiration(t *testing.T) {
	ctx := context.Background()
	s := New()

	ttl := 10 * time.Millisecond
	if err := s.Put(ctx, "c", "k", map[string]any{"x": true}, &ttl); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if v, err := s.Get(ctx, "c", "k"); err != nil || v == nil {
		t.Fatalf("expected hit before expiry, got v=%v err=%v", v, err)
	}

	time.Sleep(20 * time.Millisecond)

	v, err := s.Get(ctx, "c", "k")
	if err != nil {
		t.Fatalf("Get after expiry: %v", err)
	}
	if v != nil {
		t.Fatalf("expected miss after expiry, got %v", v)
	}
}

func TestInvalidTTLRejected(t *testing.T) {
	ctx := context.Background()
	s := New()
	zero := time.Duration(0)
	if err := s.Put(ctx, "c", "k", map[string]any{}, &zero); err == nil {
		t.Fatal("expected error for zero ttl")
	}
	neg := -time.Second
	if err := s.Put(ctx, "c", "k", map[string]any{}, &neg); err == nil {
		t.Fatal("expected error for negative ttl")
	}
}

func TestBatchedOperationsPreserveOrder(t *testing.T) {
	ctx := context.Background()
	s := New()

	keys := []string{"a", "b", "c"}
	values := []map[string]any{
		{"v": float64(1)},
		{"v": float64(2)},
		{"v": float64(3)},
	}
	if err := s.PutMany(ctx, "coll", keys, values, nil); err != nil {
		t.Fatalf("PutMany: %v", err)
	}

	got, err := s.GetMany(ctx, "coll", []string{"a", "missing", "c"})
	if err != nil {
		t.Fatalf("GetMany: %v", err)
	}
	if len(got) != 3 || got[1] != nil {
		t.Fatalf("GetMany mismatch: %#v", got)
	}
	if diff := cmp.Diff(values[0], got[0]); diff != "" {
		t.Fatalf("GetMany[0] mismatch (-want +got):\n%s", diff)
	}

	n, err := s.DeleteMany(ctx, "coll", []string{"a", "b", "missing"})
	if err != nil {
		t.Fatalf("DeleteMany: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deleted, got %d", n)
	}
}

func TestCollectionsAndKeysEnumeration(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.Put(ctx, "c1", "k1", map[string]any{}, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "c2", "k2", map[string]any{}, nil); err != nil {
		t.Fatal(err)
	}

	colls, err := s.Collections(ctx, 0)
	if err != nil {
		t.Fatalf("Collections: %v", err)
	}
	if len(colls) != 2 {
		t.Fatalf("expected 2 collections, got %v", colls)
	}

	keys, err := s.Keys(ctx, "c1", 0)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 1 || keys[0] != "k1" {
		t.Fatalf("expected [k1], got %v", keys)
	}
}

func TestDestroyCollectionAndStore(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.Put(ctx, "c1", "k1", map[string]any{}, nil); err != nil {
		t.Fatal(err)
	}
	ok, err := s.DestroyCollection(ctx, "c1")
	if err != nil || !ok {
		t.Fatalf("DestroyCollection: ok=%v err=%v", ok, err)
	}
	if v, _ := s.Get(ctx, "c1", "k1"); v != nil {
		t.Fatalf("expected miss after destroy, got %v", v)
	}

	if err := s.Put(ctx, "c1", "k1", map[string]any{}, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "c2", "k2", map[string]any{}, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.DestroyStore(ctx); err != nil {
		t.Fatalf("DestroyStore: %v", err)
	}
	colls, _ := s.Collections(ctx, 0)
	if len(colls) != 0 {
		t.Fatalf("expected no collections after DestroyStore, got %v", colls)
	}
}

func TestCull(t *testing.T) {
	ctx := context.Background()
	s := New()

	ttl := 5 * time.Millisecond
	if err := s.Put(ctx, "c", "expiring", map[string]any{}, &ttl); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "c", "forever", map[string]any{}, nil); err != nil {
		t.Fatal(err)
	}
	time.Sleep(15 * time.Millisecond)

	n, err := s.Cull(ctx)
	if err != nil {
		t.Fatalf("Cull: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 culled, got %d", n)
	}
	keys, _ := s.Keys(ctx, "c", 0)
	if len(keys) != 1 || keys[0] != "forever" {
		t.Fatalf("expected only 'forever' to remain, got %v", keys)
	}
}

func TestCapabilitiesAdvertiseFullSupport(t *testing.T) {
	s := New()
	caps := s.Capabilities()
	if !caps.SupportsEnumerateCollections || !caps.SupportsEnumerateKeys ||
		!caps.SupportsDestroyCollection || !caps.SupportsDestroyStore || !caps.SupportsCull {
		t.Fatalf("expected memstore to advertise full capability support, got %+v", caps)
	}
	if caps.SupportsNativeTTL {
		t.Fatal("memstore has no native TTL")
	}
}

func TestCapacityEvictsOldestInserted(t *testing.T) {
	ctx := context.Background()
	s := New(WithCapacity(2))

	for _, k := range []string{"a", "b", "c"} {
		if err := s.Put(ctx, "coll", k, map[string]any{"k": k}, nil); err != nil {
			t.Fatalf("Put(%s): %v", k, err)
		}
	}

	if v, _ := s.Get(ctx, "coll", "a"); v != nil {
		t.Fatalf("expected %q evicted as oldest-inserted, got %v", "a", v)
	}
	if v, _ := s.Get(ctx, "coll", "b"); v == nil {
		t.Fatal("expected 'b' to survive eviction")
	}
	if v, _ := s.Get(ctx, "coll", "c"); v == nil {
		t.Fatal("expected 'c' to survive eviction")
	}
}

func TestCapacityOverwriteDoesNotResetEvictionOrder(t *testing.T) {
	ctx := context.Background()
	s := New(WithCapacity(2))

	if err := s.Put(ctx, "coll", "a", map[string]any{"v": float64(1)}, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "coll", "b", map[string]any{"v": float64(1)}, nil); err != nil {
		t.Fatal(err)
	}
	// Overwriting "a" must not move it to the back of the eviction order.
	if err := s.Put(ctx, "coll", "a", map[string]any{"v": float64(2)}, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "coll", "c", map[string]any{"v": float64(1)}, nil); err != nil {
		t.Fatal(err)
	}

	if v, _ := s.Get(ctx, "coll", "a"); v != nil {
		t.Fatalf("expected 'a' evicted despite the overwrite, got %v", v)
	}
}

func TestClosedStoreRejectsOperations(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := s.Get(ctx, "c", "k"); err == nil {
		t.Fatal("expected error after Close")
	}
}
