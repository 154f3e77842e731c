// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package memstore is an in-memory Store backend, modeled on OPA's
// storage/inmem reader/writer concurrency: a single RWMutex guards a map of
// collections. Each collection is capped at a fixed number of entries, with
// the oldest-inserted entry evicted (FIFO, not LRU) to make room for a new
// key; overwriting an existing key does not change its eviction position.
// Entries are copied on put and on get, but only the top-level value map is
// copied: nested maps and slices are shared, so callers should treat
// returned values as read-only.
package memstore

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/polykv/store/entry"
	"github.com/polykv/store/logging"
	"github.com/polykv/store/sanitize"
	"github.com/polykv/store/store"
)

// DefaultCapacity is the per-collection entry cap used when no WithCapacity
// option is supplied.
const DefaultCapacity = 100_000

type record struct {
	e    *entry.ManagedEntry
	elem *list.Element // position in the collection's FIFO order
}

type collection struct {
	entries map[string]*record
	order   *list.List // list.Element.Value is the key string
}

func newCollection() *collection {
	return &collection{entries: map[string]*record{}, order: list.New()}
}

type backend struct {
	mu          sync.RWMutex
	capacity    int
	collections map[string]*collection
	logger      logging.Logger
}

// New returns an empty memstore-backed store.Store.
func New(opts ...Option) store.Store {
	b := &backend{
		capacity:    DefaultCapacity,
		collections: map[string]*collection{},
		logger:      logging.NewNoOpLogger(),
	}
	var strategy store.SanitizeStrategy
	for _, o := range opts {
		o(b, &strategy)
	}
	return store.NewBaseStore(b, strategy)
}

// Option configures a memstore-backed Store.
type Option func(*backend, *store.SanitizeStrategy)

// WithLogger sets the logger used for eviction diagnostics.
func WithLogger(l logging.Logger) Option {
	return func(b *backend, _ *store.SanitizeStrategy) { b.logger = l }
}

// WithSanitizeStrategy overrides the default sanitization strategy.
func WithSanitizeStrategy(s store.SanitizeStrategy) Option {
	return func(_ *backend, dst *store.SanitizeStrategy) { *dst = s }
}

// WithCapacity sets the per-collection entry cap; once reached, the
// oldest-inserted entry is evicted to make room for a new key.
func WithCapacity(n int) Option {
	return func(b *backend, _ *store.SanitizeStrategy) {
		if n > 0 {
			b.capacity = n
		}
	}
}

func (b *backend) ID() string { return "memstore" }

func (b *backend) Setup(context.Context) error { return nil }

func (b *backend) SetupCollection(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.collections[name]; !ok {
		b.collections[name] = newCollection()
	}
	return nil
}

func (b *backend) Close(context.Context) error { return nil }

func (b *backend) Sanitizer() store.SanitizeStrategy { return sanitize.Passthrough{} }

func (b *backend) NativeTTL() bool { return false }

func (b *backend) StableAPI() bool { return true }

func (b *backend) GetEntry(_ context.Context, collName, key string) (*entry.ManagedEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	coll, ok := b.collections[collName]
	if !ok {
		return nil, nil
	}
	r, ok := coll.entries[key]
	if !ok {
		return nil, nil
	}
	return r.e.Clone(), nil
}

func (b *backend) PutEntry(_ context.Context, collName, key string, e *entry.ManagedEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	coll, ok := b.collections[collName]
	if !ok {
		coll = newCollection()
		b.collections[collName] = coll
	}

	if r, exists := coll.entries[key]; exists {
		r.e = e.Clone()
		return nil
	}

	for len(coll.entries) >= b.capacity && coll.order.Len() > 0 {
		front := coll.order.Front()
		oldest := front.Value.(string)
		coll.order.Remove(front)
		delete(coll.entries, oldest)
		b.logger.Debug("evicting oldest-inserted key %q from collection %q at capacity %d", oldest, collName, b.capacity)
	}

	elem := coll.order.PushBack(key)
	coll.entries[key] = &record{e: e.Clone(), elem: elem}
	return nil
}

func (b *backend) DeleteEntry(_ context.Context, collName, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	coll, ok := b.collections[collName]
	if !ok {
		return false, nil
	}
	r, ok := coll.entries[key]
	if !ok {
		return false, nil
	}
	coll.order.Remove(r.elem)
	delete(coll.entries, key)
	return true, nil
}

func (b *backend) Collections(_ context.Context, limit int) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.collections))
	for name := range b.collections {
		if len(out) >= limit {
			break
		}
		out = append(out, name)
	}
	return out, nil
}

func (b *backend) Keys(_ context.Context, collName string, limit int) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	coll, ok := b.collections[collName]
	if !ok {
		return nil, nil
	}
	out := make([]string, 0, len(coll.entries))
	for k := range coll.entries {
		if len(out) >= limit {
			break
		}
		out = append(out, k)
	}
	return out, nil
}

func (b *backend) DestroyCollection(_ context.Context, collName string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	coll, ok := b.collections[collName]
	had := ok && len(coll.entries) > 0
	delete(b.collections, collName)
	return had, nil
}

func (b *backend) DestroyStore(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.collections = map[string]*collection{}
	return nil
}

func (b *backend) Cull(_ context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	count := 0
	for _, coll := range b.collections {
		for k, r := range coll.entries {
			if r.e.IsExpired(now) {
				coll.order.Remove(r.elem)
				delete(coll.entries, k)
				count++
			}
		}
	}
	return count, nil
}

var (
	_ store.Backend                     = (*backend)(nil)
	_ store.CollectionEnumeratorBackend = (*backend)(nil)
	_ store.KeyEnumeratorBackend        = (*backend)(nil)
	_ store.CollectionDestroyerBackend  = (*backend)(nil)
	_ store.StoreDestroyerBackend       = (*backend)(nil)
	_ store.CullerBackend               = (*backend)(nil)
)
