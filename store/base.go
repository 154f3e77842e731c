// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/polykv/store/entry"
)

// BaseStore is the abstract Store of §4.4: it wraps a Backend and supplies
// everything the Store contract requires beyond the backend's narrow SPI —
// the default batched loop, sanitization integration, TTL validation and
// derivation, setup one-shot guards, and serialization-error containment.
// Concrete stores (package stores/...) construct one of these and return it
// as a store.Store.
type BaseStore struct {
	backend  Backend
	strategy SanitizeStrategy

	setupOnce sync.Once
	setupErr  error

	collMu     sync.Mutex
	collGuards map[string]*collGuard

	closed atomic.Bool

	caps Capabilities

	batch        BatchBackend
	collEnum     CollectionEnumeratorBackend
	keyEnum      KeyEnumeratorBackend
	collDestroy  CollectionDestroyerBackend
	storeDestroy StoreDestroyerBackend
	culler       CullerBackend
}

type collGuard struct {
	once sync.Once
	err  error
}

// NewBaseStore wraps backend in a BaseStore. The backend's own declared
// sanitization strategy is used unless overridden via strategy.
func NewBaseStore(backend Backend, strategy SanitizeStrategy) *BaseStore {
	if strategy == nil {
		strategy = backend.Sanitizer()
	}
	b := &BaseStore{
		backend:    backend,
		strategy:   strategy,
		collGuards: map[string]*collGuard{},
	}
	b.batch, _ = backend.(BatchBackend)
	b.collEnum, _ = backend.(CollectionEnumeratorBackend)
	b.keyEnum, _ = backend.(KeyEnumeratorBackend)
	b.collDestroy, _ = backend.(CollectionDestroyerBackend)
	b.storeDestroy, _ = backend.(StoreDestroyerBackend)
	b.culler, _ = backend.(CullerBackend)
	b.caps = describeBackend(backend,
		b.collEnum != nil, b.keyEnum != nil, b.collDestroy != nil,
		b.storeDestroy != nil, b.culler != nil)
	return b
}

func (b *BaseStore) Setup(ctx context.Context) error {
	b.setupOnce.Do(func() {
		if err := b.backend.Setup(ctx); err != nil {
			b.setupErr = setupError(b.backend.ID(), err)
		}
	})
	return b.setupErr
}

func (b *BaseStore) SetupCollection(ctx context.Context, collection string) error {
	b.collMu.Lock()
	g, ok := b.collGuards[collection]
	if !ok {
		g = &collGuard{}
		b.collGuards[collection] = g
	}
	b.collMu.Unlock()

	g.once.Do(func() {
		if err := b.backend.SetupCollection(ctx, collection); err != nil {
			g.err = setupError(b.backend.ID(), err)
		}
	})
	return g.err
}

func (b *BaseStore) Close(ctx context.Context) error {
	b.closed.Store(true)
	return b.backend.Close(ctx)
}

func (b *BaseStore) checkClosed() error {
	if b.closed.Load() {
		return closedError(b.backend.ID())
	}
	return nil
}

// sanitized validates and sanitizes collection and key, in that order.
func (b *BaseStore) sanitized(collection, key string) (string, string, error) {
	if err := b.strategy.Validate(collection); err != nil {
		return "", "", invalidKeyError(collection, "%v", err)
	}
	if err := b.strategy.Validate(key); err != nil {
		return "", "", invalidKeyError(key, "%v", err)
	}
	return b.strategy.Sanitize(collection), b.strategy.Sanitize(key), nil
}

func (b *BaseStore) ensureCollection(ctx context.Context, collection string) error {
	if err := b.Setup(ctx); err != nil {
		return err
	}
	return b.SetupCollection(ctx, collection)
}

func validateTTL(ttl *time.Duration) error {
	if ttl != nil && *ttl <= 0 {
		return invalidTTLError("ttl must be positive, got %s", *ttl)
	}
	return nil
}

func validateValue(value map[string]any) error {
	if value == nil {
		return nil
	}
	if _, err := json.Marshal(value); err != nil {
		return serializationError(err)
	}
	return nil
}

func (b *BaseStore) Get(ctx context.Context, collection, key string) (map[string]any, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	sc, sk, err := b.sanitized(collection, key)
	if err != nil {
		return nil, err
	}
	if err := b.ensureCollection(ctx, sc); err != nil {
		return nil, err
	}
	e, err := b.backend.GetEntry(ctx, sc, sk)
	if err != nil {
		return nil, connectionError(b.backend.ID(), err)
	}
	if e == nil || e.IsExpired(time.Now()) {
		return nil, nil
	}
	return e.Value, nil
}

func (b *BaseStore) Put(ctx context.Context, collection, key string, value map[string]any, ttl *time.Duration) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	if err := validateValue(value); err != nil {
		return err
	}
	sc, sk, err := b.sanitized(collection, key)
	if err != nil {
		return err
	}
	if err := b.ensureCollection(ctx, sc); err != nil {
		return err
	}
	e, err := entry.NewWithTTL(value, time.Now(), ttl)
	if err != nil {
		return &Error{Code: InternalErr, Message: "could not construct entry", Err: err}
	}
	if err := b.backend.PutEntry(ctx, sc, sk, e); err != nil {
		return connectionError(b.backend.ID(), err)
	}
	return nil
}

func (b *BaseStore) Delete(ctx context.Context, collection, key string) (bool, error) {
	if err := b.checkClosed(); err != nil {
		return false, err
	}
	sc, sk, err := b.sanitized(collection, key)
	if err != nil {
		return false, err
	}
	if err := b.ensureCollection(ctx, sc); err != nil {
		return false, err
	}
	ok, err := b.backend.DeleteEntry(ctx, sc, sk)
	if err != nil {
		return false, connectionError(b.backend.ID(), err)
	}
	return ok, nil
}

func (b *BaseStore) TTL(ctx context.Context, collection, key string) (map[string]any, *time.Duration, error) {
	if err := b.checkClosed(); err != nil {
		return nil, nil, err
	}
	sc, sk, err := b.sanitized(collection, key)
	if err != nil {
		return nil, nil, err
	}
	if err := b.ensureCollection(ctx, sc); err != nil {
		return nil, nil, err
	}
	e, err := b.backend.GetEntry(ctx, sc, sk)
	if err != nil {
		return nil, nil, connectionError(b.backend.ID(), err)
	}
	now := time.Now()
	if e == nil || e.IsExpired(now) {
		return nil, nil, nil
	}
	return e.Value, e.TTL(now), nil
}

func (b *BaseStore) GetMany(ctx context.Context, collection string, keys []string) ([]map[string]any, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	if b.batch != nil {
		sc, sanitizedKeys, err := b.sanitizedMany(collection, keys)
		if err != nil {
			return nil, err
		}
		if err := b.ensureCollection(ctx, sc); err != nil {
			return nil, err
		}
		entries, err := b.batch.GetEntries(ctx, sc, sanitizedKeys)
		if err != nil {
			return nil, connectionError(b.backend.ID(), err)
		}
		now := time.Now()
		out := make([]map[string]any, len(keys))
		for i, e := range entries {
			if e == nil || e.IsExpired(now) {
				continue
			}
			out[i] = e.Value
		}
		return out, nil
	}

	out := make([]map[string]any, len(keys))
	for i, k := range keys {
		v, err := b.Get(ctx, collection, k)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (b *BaseStore) PutMany(ctx context.Context, collection string, keys []string, values []map[string]any, ttl *time.Duration) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	if len(keys) != len(values) {
		return &Error{Code: InternalErr, Message: "keys and values must be equal length"}
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	for _, v := range values {
		if err := validateValue(v); err != nil {
			return err
		}
	}

	now := time.Now()
	entries := make([]*entry.ManagedEntry, len(keys))
	for i, v := range values {
		e, err := entry.NewWithTTL(v, now, ttl)
		if err != nil {
			return &Error{Code: InternalErr, Message: "could not construct entry", Err: err}
		}
		entries[i] = e
	}

	sc, sanitizedKeys, err := b.sanitizedMany(collection, keys)
	if err != nil {
		return err
	}
	if err := b.ensureCollection(ctx, sc); err != nil {
		return err
	}

	if b.batch != nil {
		if err := b.batch.PutEntries(ctx, sc, sanitizedKeys, entries); err != nil {
			return connectionError(b.backend.ID(), err)
		}
		return nil
	}

	for i, sk := range sanitizedKeys {
		if err := b.backend.PutEntry(ctx, sc, sk, entries[i]); err != nil {
			return connectionError(b.backend.ID(), err)
		}
	}
	return nil
}

func (b *BaseStore) DeleteMany(ctx context.Context, collection string, keys []string) (int, error) {
	if err := b.checkClosed(); err != nil {
		return 0, err
	}
	sc, sanitizedKeys, err := b.sanitizedMany(collection, keys)
	if err != nil {
		return 0, err
	}
	if err := b.ensureCollection(ctx, sc); err != nil {
		return 0, err
	}
	if b.batch != nil {
		n, err := b.batch.DeleteEntries(ctx, sc, sanitizedKeys)
		if err != nil {
			return 0, connectionError(b.backend.ID(), err)
		}
		return n, nil
	}
	count := 0
	for _, sk := range sanitizedKeys {
		ok, err := b.backend.DeleteEntry(ctx, sc, sk)
		if err != nil {
			return count, connectionError(b.backend.ID(), err)
		}
		if ok {
			count++
		}
	}
	return count, nil
}

func (b *BaseStore) TTLMany(ctx context.Context, collection string, keys []string) ([]TTLResult, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	out := make([]TTLResult, len(keys))
	if b.batch != nil {
		sc, sanitizedKeys, err := b.sanitizedMany(collection, keys)
		if err != nil {
			return nil, err
		}
		if err := b.ensureCollection(ctx, sc); err != nil {
			return nil, err
		}
		entries, err := b.batch.GetEntries(ctx, sc, sanitizedKeys)
		if err != nil {
			return nil, connectionError(b.backend.ID(), err)
		}
		now := time.Now()
		for i, e := range entries {
			if e == nil || e.IsExpired(now) {
				continue
			}
			out[i] = TTLResult{Value: e.Value, TTL: e.TTL(now)}
		}
		return out, nil
	}

	for i, k := range keys {
		v, ttl, err := b.TTL(ctx, collection, k)
		if err != nil {
			return nil, err
		}
		out[i] = TTLResult{Value: v, TTL: ttl}
	}
	return out, nil
}

func (b *BaseStore) sanitizedMany(collection string, keys []string) (string, []string, error) {
	if err := b.strategy.Validate(collection); err != nil {
		return "", nil, invalidKeyError(collection, "%v", err)
	}
	sc := b.strategy.Sanitize(collection)
	out := make([]string, len(keys))
	for i, k := range keys {
		if err := b.strategy.Validate(k); err != nil {
			return "", nil, invalidKeyError(k, "%v", err)
		}
		out[i] = b.strategy.Sanitize(k)
	}
	return sc, out, nil
}

func (b *BaseStore) Collections(ctx context.Context, limit int) ([]string, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	if b.collEnum == nil {
		return nil, unsupportedError(b.backend.ID(), "collection enumeration")
	}
	if err := b.Setup(ctx); err != nil {
		return nil, err
	}
	names, err := b.collEnum.Collections(ctx, ClampLimit(limit))
	if err != nil {
		return nil, connectionError(b.backend.ID(), err)
	}
	return b.unsanitizeAll(names), nil
}

func (b *BaseStore) Keys(ctx context.Context, collection string, limit int) ([]string, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	if b.keyEnum == nil {
		return nil, unsupportedError(b.backend.ID(), "key enumeration")
	}
	sc, _, err := b.sanitized(collection, "")
	if err != nil {
		return nil, err
	}
	if err := b.ensureCollection(ctx, sc); err != nil {
		return nil, err
	}
	keys, err := b.keyEnum.Keys(ctx, sc, ClampLimit(limit))
	if err != nil {
		return nil, connectionError(b.backend.ID(), err)
	}
	return b.unsanitizeAll(keys), nil
}

func (b *BaseStore) unsanitizeAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		if orig, ok := b.strategy.TryUnsanitize(v); ok {
			out[i] = orig
		} else {
			out[i] = v
		}
	}
	return out
}

func (b *BaseStore) DestroyCollection(ctx context.Context, collection string) (bool, error) {
	if err := b.checkClosed(); err != nil {
		return false, err
	}
	if b.collDestroy == nil {
		return false, unsupportedError(b.backend.ID(), "destroy collection")
	}
	sc, _, err := b.sanitized(collection, "")
	if err != nil {
		return false, err
	}
	ok, err := b.collDestroy.DestroyCollection(ctx, sc)
	if err != nil {
		return false, connectionError(b.backend.ID(), err)
	}
	return ok, nil
}

func (b *BaseStore) DestroyStore(ctx context.Context) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	if b.storeDestroy == nil {
		return unsupportedError(b.backend.ID(), "destroy store")
	}
	if err := b.storeDestroy.DestroyStore(ctx); err != nil {
		return connectionError(b.backend.ID(), err)
	}
	return nil
}

func (b *BaseStore) Cull(ctx context.Context) (int, error) {
	if err := b.checkClosed(); err != nil {
		return 0, err
	}
	if b.culler == nil {
		return 0, unsupportedError(b.backend.ID(), "cull")
	}
	n, err := b.culler.Cull(ctx)
	if err != nil {
		return 0, connectionError(b.backend.ID(), err)
	}
	return n, nil
}

func (b *BaseStore) Capabilities() Capabilities {
	return b.caps
}

var _ Store = (*BaseStore)(nil)
