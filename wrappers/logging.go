// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wrappers

import (
	"context"
	"time"

	"github.com/polykv/store/logging"
	"github.com/polykv/store/store"
)

// Logging emits a Debug line before and after Get, Put, Delete, TTL and
// DeleteMany, including hit/miss, deleted, and TTL outcomes; a Debug line
// before GetMany and PutMany; Info lines before and after DestroyCollection
// and Cull; and a Warn line when any of these fails. The levels are fixed,
// and the other operations pass through without logging. It does not alter
// behavior.
type Logging struct {
	store.Store
	Logger logging.Logger
}

// NewLogging wraps inner, logging the operations listed above through logger.
func NewLogging(inner store.Store, logger logging.Logger) *Logging {
	return &Logging{Store: inner, Logger: logger}
}

func (w *Logging) Get(ctx context.Context, collection, key string) (map[string]any, error) {
	w.Logger.Debug("get starting: collection=%s key=%s", collection, key)
	v, err := w.Store.Get(ctx, collection, key)
	if err != nil {
		w.Logger.Warn("get failed: collection=%s key=%s err=%v", collection, key, err)
		return nil, err
	}
	if v == nil {
		w.Logger.Debug("get miss: collection=%s key=%s", collection, key)
	} else {
		w.Logger.Debug("get hit: collection=%s key=%s", collection, key)
	}
	return v, nil
}

func (w *Logging) Put(ctx context.Context, collection, key string, value map[string]any, ttl *time.Duration) error {
	w.Logger.Debug("put starting: collection=%s key=%s ttl=%v", collection, key, ttl)
	err := w.Store.Put(ctx, collection, key, value, ttl)
	if err != nil {
		w.Logger.Warn("put failed: collection=%s key=%s err=%v", collection, key, err)
		return err
	}
	w.Logger.Debug("put done: collection=%s key=%s", collection, key)
	return nil
}

func (w *Logging) Delete(ctx context.Context, collection, key string) (bool, error) {
	w.Logger.Debug("delete starting: collection=%s key=%s", collection, key)
	ok, err := w.Store.Delete(ctx, collection, key)
	if err != nil {
		w.Logger.Warn("delete failed: collection=%s key=%s err=%v", collection, key, err)
		return false, err
	}
	w.Logger.Debug("delete done: collection=%s key=%s deleted=%v", collection, key, ok)
	return ok, nil
}

func (w *Logging) TTL(ctx context.Context, collection, key string) (map[string]any, *time.Duration, error) {
	w.Logger.Debug("ttl starting: collection=%s key=%s", collection, key)
	v, ttl, err := w.Store.TTL(ctx, collection, key)
	if err != nil {
		w.Logger.Warn("ttl failed: collection=%s key=%s err=%v", collection, key, err)
		return nil, nil, err
	}
	w.Logger.Debug("ttl done: collection=%s key=%s ttl=%v", collection, key, ttl)
	return v, ttl, nil
}

func (w *Logging) GetMany(ctx context.Context, collection string, keys []string) ([]map[string]any, error) {
	w.Logger.Debug("get_many starting: collection=%s count=%d", collection, len(keys))
	v, err := w.Store.GetMany(ctx, collection, keys)
	if err != nil {
		w.Logger.Warn("get_many failed: collection=%s err=%v", collection, err)
		return nil, err
	}
	return v, nil
}

func (w *Logging) PutMany(ctx context.Context, collection string, keys []string, values []map[string]any, ttl *time.Duration) error {
	w.Logger.Debug("put_many starting: collection=%s count=%d", collection, len(keys))
	err := w.Store.PutMany(ctx, collection, keys, values, ttl)
	if err != nil {
		w.Logger.Warn("put_many failed: collection=%s err=%v", collection, err)
	}
	return err
}

func (w *Logging) DeleteMany(ctx context.Context, collection string, keys []string) (int, error) {
	w.Logger.Debug("delete_many starting: collection=%s count=%d", collection, len(keys))
	n, err := w.Store.DeleteMany(ctx, collection, keys)
	if err != nil {
		w.Logger.Warn("delete_many failed: collection=%s err=%v", collection, err)
		return 0, err
	}
	w.Logger.Debug("delete_many done: collection=%s deleted=%d", collection, n)
	return n, nil
}

func (w *Logging) DestroyCollection(ctx context.Context, collection string) (bool, error) {
	w.Logger.Info("destroy_collection starting: collection=%s", collection)
	ok, err := w.Store.DestroyCollection(ctx, collection)
	if err != nil {
		w.Logger.Warn("destroy_collection failed: collection=%s err=%v", collection, err)
		return false, err
	}
	w.Logger.Info("destroy_collection done: collection=%s existed=%v", collection, ok)
	return ok, nil
}

func (w *Logging) Cull(ctx context.Context) (int, error) {
	w.Logger.Info("cull starting")
	n, err := w.Store.Cull(ctx)
	if err != nil {
		w.Logger.Warn("cull failed: err=%v", err)
		return 0, err
	}
	w.Logger.Info("cull done: removed=%d", n)
	return n, nil
}

var _ store.Store = (*Logging)(nil)
