// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wrappers

import (
	"context"
	"time"

	"github.com/polykv/store/store"
)

// PassthroughCache fronts an authoritative Primary with a fast Cache. Reads
// check Cache first; on a cache miss it falls through to Primary and
// repopulates Cache asynchronously with Primary's remaining TTL, never
// longer. Writes go to Primary, then invalidate Cache; PopulateOnWrite
// additionally seeds Cache with the just-written value.
type PassthroughCache struct {
	Primary         store.Store
	Cache           store.Store
	PopulateOnWrite bool
}

// NewPassthroughCache wraps primary with cache as a read-through,
// write-invalidate front.
func NewPassthroughCache(primary, cache store.Store, populateOnWrite bool) *PassthroughCache {
	return &PassthroughCache{Primary: primary, Cache: cache, PopulateOnWrite: populateOnWrite}
}

func (w *PassthroughCache) Setup(ctx context.Context) error {
	if err := w.Primary.Setup(ctx); err != nil {
		return err
	}
	return w.Cache.Setup(ctx)
}

func (w *PassthroughCache) SetupCollection(ctx context.Context, collection string) error {
	if err := w.Primary.SetupCollection(ctx, collection); err != nil {
		return err
	}
	return w.Cache.SetupCollection(ctx, collection)
}

func (w *PassthroughCache) Close(ctx context.Context) error {
	cacheErr := w.Cache.Close(ctx)
	if err := w.Primary.Close(ctx); err != nil {
		return err
	}
	return cacheErr
}

func (w *PassthroughCache) Get(ctx context.Context, collection, key string) (map[string]any, error) {
	v, err := w.Cache.Get(ctx, collection, key)
	if err != nil {
		return nil, err
	}
	if v != nil {
		return v, nil
	}

	value, ttl, err := w.Primary.TTL(ctx, collection, key)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	go w.populate(collection, key, value, ttl)
	return value, nil
}

// populate runs asynchronously per §4.6.3; errors are not observable to the
// caller of Get and are swallowed here (the cache is best-effort).
func (w *PassthroughCache) populate(collection, key string, value map[string]any, ttl *time.Duration) {
	_ = w.Cache.Put(context.Background(), collection, key, value, ttl)
}

func (w *PassthroughCache) Put(ctx context.Context, collection, key string, value map[string]any, ttl *time.Duration) error {
	if err := w.Primary.Put(ctx, collection, key, value, ttl); err != nil {
		return err
	}
	if _, err := w.Cache.Delete(ctx, collection, key); err != nil {
		return err
	}
	if w.PopulateOnWrite {
		return w.Cache.Put(ctx, collection, key, value, ttl)
	}
	return nil
}

func (w *PassthroughCache) Delete(ctx context.Context, collection, key string) (bool, error) {
	_, cacheErr := w.Cache.Delete(ctx, collection, key)
	ok, err := w.Primary.Delete(ctx, collection, key)
	if err != nil {
		return false, err
	}
	if cacheErr != nil {
		return ok, cacheErr
	}
	return ok, nil
}

func (w *PassthroughCache) TTL(ctx context.Context, collection, key string) (map[string]any, *time.Duration, error) {
	return w.Primary.TTL(ctx, collection, key)
}

func (w *PassthroughCache) GetMany(ctx context.Context, collection string, keys []string) ([]map[string]any, error) {
	out := make([]map[string]any, len(keys))
	for i, k := range keys {
		v, err := w.Get(ctx, collection, k)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (w *PassthroughCache) PutMany(ctx context.Context, collection string, keys []string, values []map[string]any, ttl *time.Duration) error {
	for i, k := range keys {
		if err := w.Put(ctx, collection, k, values[i], ttl); err != nil {
			return err
		}
	}
	return nil
}

func (w *PassthroughCache) DeleteMany(ctx context.Context, collection string, keys []string) (int, error) {
	count := 0
	for _, k := range keys {
		ok, err := w.Delete(ctx, collection, k)
		if err != nil {
			return count, err
		}
		if ok {
			count++
		}
	}
	return count, nil
}

func (w *PassthroughCache) TTLMany(ctx context.Context, collection string, keys []string) ([]store.TTLResult, error) {
	return w.Primary.TTLMany(ctx, collection, keys)
}

func (w *PassthroughCache) Collections(ctx context.Context, limit int) ([]string, error) {
	return w.Primary.Collections(ctx, limit)
}

func (w *PassthroughCache) Keys(ctx context.Context, collection string, limit int) ([]string, error) {
	return w.Primary.Keys(ctx, collection, limit)
}

func (w *PassthroughCache) DestroyCollection(ctx context.Context, collection string) (bool, error) {
	_, _ = w.Cache.DestroyCollection(ctx, collection)
	return w.Primary.DestroyCollection(ctx, collection)
}

func (w *PassthroughCache) DestroyStore(ctx context.Context) error {
	_ = w.Cache.DestroyStore(ctx)
	return w.Primary.DestroyStore(ctx)
}

func (w *PassthroughCache) Cull(ctx context.Context) (int, error) {
	return w.Primary.Cull(ctx)
}

func (w *PassthroughCache) Capabilities() store.Capabilities {
	return w.Primary.Capabilities()
}

var _ store.Store = (*PassthroughCache)(nil)
