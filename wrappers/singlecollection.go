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

const singleCollectionSeparator = "__"

// SingleCollection remaps every operation onto one backing collection,
// encoding the original collection into a key prefix of
// "<original_collection>__<key>". Collection enumeration is not supported in
// this mode, since the backing store only ever sees one collection.
type SingleCollection struct {
	store.Store
	Collection string
}

// NewSingleCollection wraps inner so all operations address backingCollection
// regardless of the collection name callers pass in.
func NewSingleCollection(inner store.Store, backingCollection string) *SingleCollection {
	return &SingleCollection{Store: inner, Collection: backingCollection}
}

func (w *SingleCollection) remapKey(collection, key string) string {
	return collection + singleCollectionSeparator + key
}

func (w *SingleCollection) splitKey(remapped string) (collection, key string, ok bool) {
	idx := strings.Index(remapped, singleCollectionSeparator)
	if idx < 0 {
		return "", "", false
	}
	return remapped[:idx], remapped[idx+len(singleCollectionSeparator):], true
}

func (w *SingleCollection) Get(ctx context.Context, collection, key string) (map[string]any, error) {
	return w.Store.Get(ctx, w.Collection, w.remapKey(collection, key))
}

func (w *SingleCollection) Put(ctx context.Context, collection, key string, value map[string]any, ttl *time.Duration) error {
	return w.Store.Put(ctx, w.Collection, w.remapKey(collection, key), value, ttl)
}

func (w *SingleCollection) Delete(ctx context.Context, collection, key string) (bool, error) {
	return w.Store.Delete(ctx, w.Collection, w.remapKey(collection, key))
}

func (w *SingleCollection) TTL(ctx context.Context, collection, key string) (map[string]any, *time.Duration, error) {
	return w.Store.TTL(ctx, w.Collection, w.remapKey(collection, key))
}

func (w *SingleCollection) GetMany(ctx context.Context, collection string, keys []string) ([]map[string]any, error) {
	remapped := make([]string, len(keys))
	for i, k := range keys {
		remapped[i] = w.remapKey(collection, k)
	}
	return w.Store.GetMany(ctx, w.Collection, remapped)
}

func (w *SingleCollection) PutMany(ctx context.Context, collection string, keys []string, values []map[string]any, ttl *time.Duration) error {
	remapped := make([]string, len(keys))
	for i, k := range keys {
		remapped[i] = w.remapKey(collection, k)
	}
	return w.Store.PutMany(ctx, w.Collection, remapped, values, ttl)
}

func (w *SingleCollection) DeleteMany(ctx context.Context, collection string, keys []string) (int, error) {
	remapped := make([]string, len(keys))
	for i, k := range keys {
		remapped[i] = w.remapKey(collection, k)
	}
	return w.Store.DeleteMany(ctx, w.Collection, remapped)
}

// Collections is unsupported: every caller-visible collection is folded into
// a single backing collection, so there is nothing distinct to enumerate.
func (w *SingleCollection) Collections(ctx context.Context, limit int) ([]string, error) {
	return nil, &store.Error{Code: store.UnsupportedErr, Message: "single_collection wrapper does not support Collections"}
}

func (w *SingleCollection) Keys(ctx context.Context, collection string, limit int) ([]string, error) {
	all, err := w.Store.Keys(ctx, w.Collection, 0)
	if err != nil {
		return nil, err
	}
	prefix := collection + singleCollectionSeparator
	var out []string
	for _, remapped := range all {
		if strings.HasPrefix(remapped, prefix) {
			out = append(out, remapped[len(prefix):])
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (w *SingleCollection) DestroyCollection(ctx context.Context, collection string) (bool, error) {
	keys, err := w.Keys(ctx, collection, 0)
	if err != nil {
		return false, err
	}
	if len(keys) == 0 {
		return false, nil
	}
	n, err := w.DeleteMany(ctx, collection, keys)
	return n > 0, err
}

var _ store.Store = (*SingleCollection)(nil)
