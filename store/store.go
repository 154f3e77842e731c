// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package store defines the Store contract (§4.4): the single operational
// interface every backend and every wrapper satisfies with identical
// observable semantics, plus the narrower Backend SPI concrete backends
// implement and BaseStore, which supplies everything the contract requires
// beyond that narrow surface (default batching, sanitization, TTL handling,
// serialization-error containment).
package store

import (
	"context"
	"time"
)

// TTLResult is one element of the result of TTLMany: the value (nil on
// miss) and its remaining TTL (nil if absent or on miss, per the open
// question in §9: value == nil implies TTL == nil).
type TTLResult struct {
	Value map[string]any
	TTL   *time.Duration
}

// Store is the abstract operational interface of §4.4. Every concrete
// backend (via BaseStore) and every wrapper in package wrappers implements
// this interface identically; callers never need to know which is which.
type Store interface {
	// Setup performs global, one-time initialization. Safe to call
	// concurrently and multiple times; only the first call does work.
	Setup(ctx context.Context) error

	// SetupCollection performs one-time initialization scoped to a single
	// collection. Safe to call concurrently and multiple times per
	// collection.
	SetupCollection(ctx context.Context, collection string) error

	// Close releases resources. After Close, all data operations fail
	// with a ClosedErr.
	Close(ctx context.Context) error

	// Get returns the value if present and not expired, or nil if absent
	// or expired.
	Get(ctx context.Context, collection, key string) (map[string]any, error)

	// Put stores value, overwriting any existing entry at (collection,
	// key). ttl is how long the entry should live; nil means no
	// expiration. A non-nil ttl that is <= 0 fails with InvalidTTLErr.
	Put(ctx context.Context, collection, key string, value map[string]any, ttl *time.Duration) error

	// Delete removes an entry, reporting whether one was present.
	Delete(ctx context.Context, collection, key string) (bool, error)

	// TTL returns (value, remaining-ttl) if present and unexpired, or
	// (nil, nil) otherwise.
	TTL(ctx context.Context, collection, key string) (map[string]any, *time.Duration, error)

	// GetMany is order- and size-preserving over keys; misses are nil.
	GetMany(ctx context.Context, collection string, keys []string) ([]map[string]any, error)

	// PutMany writes every (key, value) pair with the same TTL, the same
	// created_at, and the same derived expires_at.
	PutMany(ctx context.Context, collection string, keys []string, values []map[string]any, ttl *time.Duration) error

	// DeleteMany returns the count of entries actually removed.
	DeleteMany(ctx context.Context, collection string, keys []string) (int, error)

	// TTLMany is the batched form of TTL, order-preserving.
	TTLMany(ctx context.Context, collection string, keys []string) ([]TTLResult, error)

	// Collections enumerates known collections, up to limit (0 means the
	// default page size). Fails with UnsupportedErr if the backend cannot
	// enumerate collections.
	Collections(ctx context.Context, limit int) ([]string, error)

	// Keys enumerates keys within a collection, up to limit.
	Keys(ctx context.Context, collection string, limit int) ([]string, error)

	// DestroyCollection removes every key in one collection, reporting
	// whether anything was removed. Not guaranteed atomic.
	DestroyCollection(ctx context.Context, collection string) (bool, error)

	// DestroyStore removes all data across all collections. Not
	// guaranteed atomic.
	DestroyStore(ctx context.Context) error

	// Cull proactively deletes expired entries, returning the count
	// removed. Fails with UnsupportedErr if the backend does not implement
	// culling.
	Cull(ctx context.Context) (int, error)

	// Capabilities advertises which of the above optional operations this
	// Store actually supports, per §6.4.
	Capabilities() Capabilities
}

// DefaultPageSize is the default page size for enumeration operations when
// limit is 0, per §9.
const DefaultPageSize = 10_000

// MaxPageSize is the hard cap on enumeration page size, per §9.
const MaxPageSize = 10_000

// ClampLimit normalizes a caller-supplied enumeration limit: 0 becomes
// DefaultPageSize; anything over MaxPageSize is clamped down to it.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
