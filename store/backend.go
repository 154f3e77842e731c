// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package store

import (
	"context"

	"github.com/polykv/store/entry"
)

// Backend is the narrow set of primitives a concrete storage driver
// implements; BaseStore supplies everything else. Collection and key are
// already sanitized by the time BaseStore calls into Backend.
//
// GetEntry must never return an error for a record that fails to decode —
// per §4.4/§7, one corrupt record must not poison a read or an enumeration.
// Implementations log the failure (via whatever logger they were
// constructed with) and return (nil, nil), the same as a genuine miss.
// GetEntry may still return a non-nil error for a real backend/connection
// failure.
type Backend interface {
	// ID returns a short, stable identifier for this backend, used in
	// error messages (e.g. "memstore", "diskstore").
	ID() string

	Setup(ctx context.Context) error
	SetupCollection(ctx context.Context, collection string) error
	Close(ctx context.Context) error

	// GetEntry returns the stored entry, or (nil, nil) if absent or
	// corrupt. BaseStore applies expiration filtering on the result; the
	// backend need not check expires_at itself (though it may choose to
	// for backends with native TTL).
	GetEntry(ctx context.Context, collection, key string) (*entry.ManagedEntry, error)

	// PutEntry stores e, overwriting any existing entry at (collection,
	// key).
	PutEntry(ctx context.Context, collection, key string, e *entry.ManagedEntry) error

	// DeleteEntry removes an entry, reporting whether one was present.
	DeleteEntry(ctx context.Context, collection, key string) (bool, error)

	// Sanitizer returns this backend's default sanitization strategy,
	// chosen to match its native naming constraints.
	Sanitizer() SanitizeStrategy

	// NativeTTL reports whether this backend expires entries itself
	// rather than relying on BaseStore's read-time filtering alone.
	NativeTTL() bool

	// StableAPI reports whether this backend's wire format is considered
	// stable across versions of this module.
	StableAPI() bool
}

// SanitizeStrategy is the subset of sanitize.Strategy that package store
// depends on, declared locally to avoid a dependency cycle; sanitize.Strategy
// satisfies it directly.
type SanitizeStrategy interface {
	Sanitize(value string) string
	Validate(value string) error
	TryUnsanitize(value string) (string, bool)
}

// BatchBackend is implemented by backends with a native batch primitive
// (pipeline, multi-row upsert, bulk API); BaseStore uses it instead of
// looping over the singular form when present. All three methods receive
// and return slices aligned to the input keys slice.
type BatchBackend interface {
	GetEntries(ctx context.Context, collection string, keys []string) ([]*entry.ManagedEntry, error)
	PutEntries(ctx context.Context, collection string, keys []string, entries []*entry.ManagedEntry) error
	DeleteEntries(ctx context.Context, collection string, keys []string) (int, error)
}

// CollectionEnumeratorBackend is implemented by backends that can list
// their collections.
type CollectionEnumeratorBackend interface {
	Collections(ctx context.Context, limit int) ([]string, error)
}

// KeyEnumeratorBackend is implemented by backends that can list the keys
// within a collection.
type KeyEnumeratorBackend interface {
	Keys(ctx context.Context, collection string, limit int) ([]string, error)
}

// CollectionDestroyerBackend is implemented by backends that can remove an
// entire collection in one call.
type CollectionDestroyerBackend interface {
	DestroyCollection(ctx context.Context, collection string) (bool, error)
}

// StoreDestroyerBackend is implemented by backends that can remove all data
// across all collections in one call.
type StoreDestroyerBackend interface {
	DestroyStore(ctx context.Context) error
}

// CullerBackend is implemented by backends without native TTL that can
// proactively delete expired entries.
type CullerBackend interface {
	Cull(ctx context.Context) (int, error)
}
