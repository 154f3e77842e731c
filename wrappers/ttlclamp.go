// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package wrappers implements the Store-decorating wrappers of §4.6. Every
// wrapper embeds store.Store anonymously so Go's method promotion supplies
// the passthrough methods it does not override; only the methods whose
// behavior the wrapper changes are written out.
package wrappers

import (
	"context"
	"time"

	"github.com/polykv/store/store"
)

// TTLClamp enforces min_ttl <= effective_ttl <= max_ttl on every put. A put
// with no TTL substitutes MissingTTL first (if set), then clamps the
// result; reads and deletes pass through unchanged.
type TTLClamp struct {
	store.Store
	MinTTL     time.Duration
	MaxTTL     time.Duration
	MissingTTL *time.Duration
}

// NewTTLClamp wraps inner, clamping every put's TTL to [min, max].
func NewTTLClamp(inner store.Store, minTTL, maxTTL time.Duration, missingTTL *time.Duration) *TTLClamp {
	return &TTLClamp{Store: inner, MinTTL: minTTL, MaxTTL: maxTTL, MissingTTL: missingTTL}
}

func (w *TTLClamp) clamp(ttl *time.Duration) *time.Duration {
	effective := ttl
	if effective == nil {
		effective = w.MissingTTL
	}
	if effective == nil {
		return nil
	}
	v := *effective
	if v < w.MinTTL {
		v = w.MinTTL
	}
	if v > w.MaxTTL {
		v = w.MaxTTL
	}
	return &v
}

func (w *TTLClamp) Put(ctx context.Context, collection, key string, value map[string]any, ttl *time.Duration) error {
	return w.Store.Put(ctx, collection, key, value, w.clamp(ttl))
}

func (w *TTLClamp) PutMany(ctx context.Context, collection string, keys []string, values []map[string]any, ttl *time.Duration) error {
	return w.Store.PutMany(ctx, collection, keys, values, w.clamp(ttl))
}
