// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package sqlstore

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newSQLiteStore(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open(SQLite, "file:"+t.TempDir()+"/test.db?cache=shared")
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestValidateTableName(t *testing.T) {
	if err := validateTableName("kv_entries"); err != nil {
		t.Fatalf("expected valid table name, got %v", err)
	}
	if err := validateTableName("kv entries; DROP TABLE x"); err == nil {
		t.Fatal("expected invalid table name to be rejected")
	}
}

func TestPutGetDeleteRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteStore(t)

	s, err := New(db, SQLite, "kv_entries")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Setup(ctx); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	want := map[string]any{"color": "red", "count": float64(2)}
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
}

func TestKeysAndDestroyCollection(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteStore(t)

	s, err := New(db, SQLite, "kv_entries")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Setup(ctx); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	for _, k := range []string{"a", "b"} {
		if err := s.Put(ctx, "coll", k, map[string]any{}, nil); err != nil {
			t.Fatal(err)
		}
	}
	keys, err := s.Keys(ctx, "coll", 0)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %v", keys)
	}

	ok, err := s.DestroyCollection(ctx, "coll")
	if err != nil || !ok {
		t.Fatalf("DestroyCollection: ok=%v err=%v", ok, err)
	}
	keys, err = s.Keys(ctx, "coll", 0)
	if err != nil {
		t.Fatalf("Keys after destroy: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected no keys after destroy, got %v", keys)
	}
}

func TestInvalidTableNameRejected(t *testing.T) {
	db := newSQLiteStore(t)
	if _, err := New(db, SQLite, "not a table; DROP"); err == nil {
		t.Fatal("expected an error for an invalid table name")
	}
}
