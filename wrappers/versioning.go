// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wrappers

import (
	"context"
	"time"

	"github.com/polykv/store/store"
)

const (
	versionTagField  = "__version__"
	versionedDataField = "__versioned_data__"
)

// Versioning wraps values as {"__version__": Tag, "__versioned_data__":
// value}. A read whose stored tag doesn't match the wrapper's current Tag
// returns none, giving cheap cache-invalidation-by-deploy semantics.
// Unversioned values read as-is, for backward compatibility with data
// written before versioning was enabled.
type Versioning struct {
	store.Store
	Tag string
}

// NewVersioning wraps inner, tagging every put with tag and rejecting reads
// of records tagged differently.
func NewVersioning(inner store.Store, tag string) *Versioning {
	return &Versioning{Store: inner, Tag: tag}
}

func (w *Versioning) wrap(value map[string]any) map[string]any {
	return map[string]any{
		versionTagField:    w.Tag,
		versionedDataField: value,
	}
}

func (w *Versioning) unwrap(value map[string]any) map[string]any {
	if value == nil {
		return nil
	}
	tag, tagged := value[versionTagField]
	if !tagged {
		return value
	}
	if tag != w.Tag {
		return nil
	}
	inner, _ := value[versionedDataField].(map[string]any)
	return inner
}

func (w *Versioning) Get(ctx context.Context, collection, key string) (map[string]any, error) {
	v, err := w.Store.Get(ctx, collection, key)
	if err != nil {
		return nil, err
	}
	return w.unwrap(v), nil
}

func (w *Versioning) Put(ctx context.Context, collection, key string, value map[string]any, ttl *time.Duration) error {
	return w.Store.Put(ctx, collection, key, w.wrap(value), ttl)
}

func (w *Versioning) GetMany(ctx context.Context, collection string, keys []string) ([]map[string]any, error) {
	values, err := w.Store.GetMany(ctx, collection, keys)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, len(values))
	for i, v := range values {
		out[i] = w.unwrap(v)
	}
	return out, nil
}

func (w *Versioning) PutMany(ctx context.Context, collection string, keys []string, values []map[string]any, ttl *time.Duration) error {
	wrapped := make([]map[string]any, len(values))
	for i, v := range values {
		wrapped[i] = w.wrap(v)
	}
	return w.Store.PutMany(ctx, collection, keys, wrapped, ttl)
}

var _ store.Store = (*Versioning)(nil)
