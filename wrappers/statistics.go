// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wrappers

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/polykv/store/store"
)

// CollectionStats is the per-collection counter set of the data model:
// hit/miss counts for the operations that can miss, plus a flat count for
// Put (which always succeeds or errors, never "misses").
type CollectionStats struct {
	GetHits      int64
	GetMisses    int64
	PutCount     int64
	DeleteHits   int64
	DeleteMisses int64
	TTLHits      int64
	TTLMisses    int64
}

// Statistics counts operations per collection, distinguishing hits from
// misses, and passes every call through unchanged. Counts are exposed both
// as an in-memory snapshot (Snapshot) and as Prometheus counters registered
// against Registerer, if one is supplied.
type Statistics struct {
	store.Store

	counters *prometheus.CounterVec

	mu    sync.Mutex
	stats map[string]*CollectionStats
}

// NewStatistics wraps inner, tallying per-collection hit/miss counts. If
// registerer is non-nil, counts are also exported as a
// polykv_store_operations_total Prometheus counter vector labeled by
// collection, operation, and outcome ("hit"/"miss"/"count").
func NewStatistics(inner store.Store, registerer prometheus.Registerer) *Statistics {
	counters := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "polykv_store_operations_total",
		Help: "Number of store operations performed, by collection, operation, and outcome.",
	}, []string{"collection", "operation", "outcome"})
	if registerer != nil {
		registerer.MustRegister(counters)
	}
	return &Statistics{
		Store:    inner,
		counters: counters,
		stats:    map[string]*CollectionStats{},
	}
}

// Snapshot returns a copy of the in-memory per-collection counters collected
// so far.
func (w *Statistics) Snapshot() map[string]CollectionStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make(map[string]CollectionStats, len(w.stats))
	for k, v := range w.stats {
		out[k] = *v
	}
	return out
}

func (w *Statistics) statsFor(collection string) *CollectionStats {
	s, ok := w.stats[collection]
	if !ok {
		s = &CollectionStats{}
		w.stats[collection] = s
	}
	return s
}

func (w *Statistics) recordGet(collection string, hit bool) {
	w.mu.Lock()
	s := w.statsFor(collection)
	if hit {
		s.GetHits++
	} else {
		s.GetMisses++
	}
	w.mu.Unlock()
	w.counters.WithLabelValues(collection, "get", outcomeLabel(hit)).Inc()
}

func (w *Statistics) recordPut(collection string) {
	w.mu.Lock()
	w.statsFor(collection).PutCount++
	w.mu.Unlock()
	w.counters.WithLabelValues(collection, "put", "count").Inc()
}

func (w *Statistics) recordDelete(collection string, hit bool) {
	w.mu.Lock()
	s := w.statsFor(collection)
	if hit {
		s.DeleteHits++
	} else {
		s.DeleteMisses++
	}
	w.mu.Unlock()
	w.counters.WithLabelValues(collection, "delete", outcomeLabel(hit)).Inc()
}

func (w *Statistics) recordTTL(collection string, hit bool) {
	w.mu.Lock()
	s := w.statsFor(collection)
	if hit {
		s.TTLHits++
	} else {
		s.TTLMisses++
	}
	w.mu.Unlock()
	w.counters.WithLabelValues(collection, "ttl", outcomeLabel(hit)).Inc()
}

func outcomeLabel(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

func (w *Statistics) Get(ctx context.Context, collection, key string) (map[string]any, error) {
	v, err := w.Store.Get(ctx, collection, key)
	if err == nil {
		w.recordGet(collection, v != nil)
	}
	return v, err
}

func (w *Statistics) Put(ctx context.Context, collection, key string, value map[string]any, ttl *time.Duration) error {
	err := w.Store.Put(ctx, collection, key, value, ttl)
	if err == nil {
		w.recordPut(collection)
	}
	return err
}

func (w *Statistics) Delete(ctx context.Context, collection, key string) (bool, error) {
	ok, err := w.Store.Delete(ctx, collection, key)
	if err == nil {
		w.recordDelete(collection, ok)
	}
	return ok, err
}

func (w *Statistics) TTL(ctx context.Context, collection, key string) (map[string]any, *time.Duration, error) {
	v, ttl, err := w.Store.TTL(ctx, collection, key)
	if err == nil {
		w.recordTTL(collection, v != nil)
	}
	return v, ttl, err
}

func (w *Statistics) GetMany(ctx context.Context, collection string, keys []string) ([]map[string]any, error) {
	out, err := w.Store.GetMany(ctx, collection, keys)
	if err == nil {
		for _, v := range out {
			w.recordGet(collection, v != nil)
		}
	}
	return out, err
}

func (w *Statistics) PutMany(ctx context.Context, collection string, keys []string, values []map[string]any, ttl *time.Duration) error {
	err := w.Store.PutMany(ctx, collection, keys, values, ttl)
	if err == nil {
		for range keys {
			w.recordPut(collection)
		}
	}
	return err
}

// DeleteMany's underlying result is just a removed count, not a per-key
// outcome, so hits/misses are attributed to the first n keys rather than the
// actual ones removed; the aggregate hit/miss totals are still exact.
func (w *Statistics) DeleteMany(ctx context.Context, collection string, keys []string) (int, error) {
	n, err := w.Store.DeleteMany(ctx, collection, keys)
	if err == nil {
		for i := 0; i < len(keys); i++ {
			w.recordDelete(collection, i < n)
		}
	}
	return n, err
}

var _ store.Store = (*Statistics)(nil)
