// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wrappers

import (
	"context"
	"strings"
	"time"

	"github.com/polykv/store/store"
)

// Prefix transparently prepends CollectionPrefix and/or KeyPrefix (each
// followed by Separator) to the collection and/or key on every write, and
// strips it again on enumeration. Either prefix may be left empty to
// disable prefixing on that axis.
type Prefix struct {
	store.Store
	CollectionPrefix string
	KeyPrefix        string
	Separator        string
}

// NewPrefix wraps inner, prefixing collections and keys as configured.
func NewPrefix(inner store.Store, collectionPrefix, keyPrefix, separator string) *Prefix {
	if separator == "" {
		separator = ":"
	}
	return &Prefix{Store: inner, CollectionPrefix: collectionPrefix, KeyPrefix: keyPrefix, Separator: separator}
}

func (w *Prefix) collection(collection string) string {
	if w.CollectionPrefix == "" {
		return collection
	}
	return w.CollectionPrefix + w.Separator + collection
}

func (w *Prefix) unprefixCollection(collection string) (string, bool) {
	if w.CollectionPrefix == "" {
		return collection, true
	}
	prefix := w.CollectionPrefix + w.Separator
	if !strings.HasPrefix(collection, prefix) {
		return "", false
	}
	return collection[len(prefix):], true
}

func (w *Prefix) key(key string) string {
	if w.KeyPrefix == "" {
		return key
	}
	return w.KeyPrefix + w.Separator + key
}

func (w *Prefix) unprefixKey(key string) (string, bool) {
	if w.KeyPrefix == "" {
		return key, true
	}
	prefix := w.KeyPrefix + w.Separator
	if !strings.HasPrefix(key, prefix) {
		return "", false
	}
	return key[len(prefix):], true
}

func (w *Prefix) SetupCollection(ctx context.Context, collection string) error {
	return w.Store.SetupCollection(ctx, w.collection(collection))
}

func (w *Prefix) Get(ctx context.Context, collection, key string) (map[string]any, error) {
	return w.Store.Get(ctx, w.collection(collection), w.key(key))
}

func (w *Prefix) Put(ctx context.Context, collection, key string, value map[string]any, ttl *time.Duration) error {
	return w.Store.Put(ctx, w.collection(collection), w.key(key), value, ttl)
}

func (w *Prefix) Delete(ctx context.Context, collection, key string) (bool, error) {
	return w.Store.Delete(ctx, w.collection(collection), w.key(key))
}

func (w *Prefix) TTL(ctx context.Context, collection, key string) (map[string]any, *time.Duration, error) {
	return w.Store.TTL(ctx, w.collection(collection), w.key(key))
}

func (w *Prefix) GetMany(ctx context.Context, collection string, keys []string) ([]map[string]any, error) {
	return w.Store.GetMany(ctx, w.collection(collection), w.keys(keys))
}

func (w *Prefix) PutMany(ctx context.Context, collection string, keys []string, values []map[string]any, ttl *time.Duration) error {
	return w.Store.PutMany(ctx, w.collection(collection), w.keys(keys), values, ttl)
}

func (w *Prefix) DeleteMany(ctx context.Context, collection string, keys []string) (int, error) {
	return w.Store.DeleteMany(ctx, w.collection(collection), w.keys(keys))
}

func (w *Prefix) keys(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = w.key(k)
	}
	return out
}

func (w *Prefix) Collections(ctx context.Context, limit int) ([]string, error) {
	all, err := w.Store.Collections(ctx, 0)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, c := range all {
		if unprefixed, ok := w.unprefixCollection(c); ok {
			out = append(out, unprefixed)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (w *Prefix) Keys(ctx context.Context, collection string, limit int) ([]string, error) {
	all, err := w.Store.Keys(ctx, w.collection(collection), 0)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, k := range all {
		if unprefixed, ok := w.unprefixKey(k); ok {
			out = append(out, unprefixed)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (w *Prefix) DestroyCollection(ctx context.Context, collection string) (bool, error) {
	return w.Store.DestroyCollection(ctx, w.collection(collection))
}

var _ store.Store = (*Prefix)(nil)
