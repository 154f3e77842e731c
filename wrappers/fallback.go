// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wrappers

import (
	"context"
	"time"

	"github.com/polykv/store/store"
)

// Fallback wraps a Primary and a Secondary Store. Reads try Primary first and
// fall through to Secondary on error. Writes (puts and deletes) go to
// Primary; if Primary fails and WriteToFallback is enabled, the write is
// retried against Secondary.
// Fallback semantics are best-effort and intentionally non-atomic across
// the pair.
type Fallback struct {
	Primary         store.Store
	Secondary       store.Store
	WriteToFallback bool
}

// NewFallback wraps primary with secondary as its fallback.
func NewFallback(primary, secondary store.Store, writeToFallback bool) *Fallback {
	return &Fallback{Primary: primary, Secondary: secondary, WriteToFallback: writeToFallback}
}

func (w *Fallback) Setup(ctx context.Context) error {
	if err := w.Primary.Setup(ctx); err != nil {
		return err
	}
	return w.Secondary.Setup(ctx)
}

func (w *Fallback) SetupCollection(ctx context.Context, collection string) error {
	if err := w.Primary.SetupCollection(ctx, collection); err != nil {
		return err
	}
	return w.Secondary.SetupCollection(ctx, collection)
}

func (w *Fallback) Close(ctx context.Context) error {
	secondaryErr := w.Secondary.Close(ctx)
	if err := w.Primary.Close(ctx); err != nil {
		return err
	}
	return secondaryErr
}

func (w *Fallback) Get(ctx context.Context, collection, key string) (map[string]any, error) {
	v, err := w.Primary.Get(ctx, collection, key)
	if err != nil {
		return w.Secondary.Get(ctx, collection, key)
	}
	return v, nil
}

func (w *Fallback) Put(ctx context.Context, collection, key string, value map[string]any, ttl *time.Duration) error {
	err := w.Primary.Put(ctx, collection, key, value, ttl)
	if err != nil && w.WriteToFallback {
		return w.Secondary.Put(ctx, collection, key, value, ttl)
	}
	return err
}

func (w *Fallback) Delete(ctx context.Context, collection, key string) (bool, error) {
	ok, err := w.Primary.Delete(ctx, collection, key)
	if err != nil && w.WriteToFallback {
		return w.Secondary.Delete(ctx, collection, key)
	}
	return ok, err
}

func (w *Fallback) TTL(ctx context.Context, collection, key string) (map[string]any, *time.Duration, error) {
	v, ttl, err := w.Primary.TTL(ctx, collection, key)
	if err != nil {
		return w.Secondary.TTL(ctx, collection, key)
	}
	return v, ttl, nil
}

func (w *Fallback) GetMany(ctx context.Context, collection string, keys []string) ([]map[string]any, error) {
	v, err := w.Primary.GetMany(ctx, collection, keys)
	if err != nil {
		return w.Secondary.GetMany(ctx, collection, keys)
	}
	return v, nil
}

func (w *Fallback) PutMany(ctx context.Context, collection string, keys []string, values []map[string]any, ttl *time.Duration) error {
	err := w.Primary.PutMany(ctx, collection, keys, values, ttl)
	if err != nil && w.WriteToFallback {
		return w.Secondary.PutMany(ctx, collection, keys, values, ttl)
	}
	return err
}

func (w *Fallback) DeleteMany(ctx context.Context, collection string, keys []string) (int, error) {
	n, err := w.Primary.DeleteMany(ctx, collection, keys)
	if err != nil && w.WriteToFallback {
		return w.Secondary.DeleteMany(ctx, collection, keys)
	}
	return n, err
}

func (w *Fallback) TTLMany(ctx context.Context, collection string, keys []string) ([]store.TTLResult, error) {
	v, err := w.Primary.TTLMany(ctx, collection, keys)
	if err != nil {
		return w.Secondary.TTLMany(ctx, collection, keys)
	}
	return v, nil
}

func (w *Fallback) Collections(ctx context.Context, limit int) ([]string, error) {
	v, err := w.Primary.Collections(ctx, limit)
	if err != nil {
		return w.Secondary.Collections(ctx, limit)
	}
	return v, nil
}

func (w *Fallback) Keys(ctx context.Context, collection string, limit int) ([]string, error) {
	v, err := w.Primary.Keys(ctx, collection, limit)
	if err != nil {
		return w.Secondary.Keys(ctx, collection, limit)
	}
	return v, nil
}

func (w *Fallback) DestroyCollection(ctx context.Context, collection string) (bool, error) {
	return w.Primary.DestroyCollection(ctx, collection)
}

func (w *Fallback) DestroyStore(ctx context.Context) error {
	return w.Primary.DestroyStore(ctx)
}

func (w *Fallback) Cull(ctx context.Context) (int, error) {
	return w.Primary.Cull(ctx)
}

func (w *Fallback) Capabilities() store.Capabilities {
	return w.Primary.Capabilities()
}

var _ store.Store = (*Fallback)(nil)
