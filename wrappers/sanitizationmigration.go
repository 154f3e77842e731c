// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wrappers

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/polykv/store/store"
)

type migrationLocation int

const (
	locationUnknown migrationLocation = iota
	locationCurrent
	locationLegacy
	locationMissing
)

type migrationKey struct {
	collection string
	key        string
}

// SanitizationMigration lets a deployment move from a legacy sanitization
// strategy to a new one without a big-bang rewrite. Current holds entries
// written under the new strategy; Legacy holds the pre-migration store. Get
// checks Current first, falls back to Legacy on miss, and (if MigrateOnRead)
// copies the found entry into Current preserving its remaining TTL,
// optionally deleting it from Legacy afterward. Put always writes to
// Current. Keys/Collections enumerate the union of both. A small per-key LRU
// remembers where each key currently lives to avoid a double lookup on
// repeat reads; it is invalidated on put and delete.
type SanitizationMigration struct {
	Current              store.Store
	Legacy               store.Store
	MigrateOnRead        bool
	DeleteAfterMigration bool

	locations *lru.Cache[migrationKey, migrationLocation]
}

// NewSanitizationMigration wraps current and legacy, with an LRU location
// cache bounded at cacheSize entries.
func NewSanitizationMigration(current, legacy store.Store, migrateOnRead, deleteAfterMigration bool, cacheSize int) *SanitizationMigration {
	if cacheSize <= 0 {
		cacheSize = 10_000
	}
	cache, _ := lru.New[migrationKey, migrationLocation](cacheSize)
	return &SanitizationMigration{
		Current:              current,
		Legacy:               legacy,
		MigrateOnRead:        migrateOnRead,
		DeleteAfterMigration: deleteAfterMigration,
		locations:            cache,
	}
}

func (w *SanitizationMigration) Setup(ctx context.Context) error {
	if err := w.Current.Setup(ctx); err != nil {
		return err
	}
	return w.Legacy.Setup(ctx)
}

func (w *SanitizationMigration) SetupCollection(ctx context.Context, collection string) error {
	if err := w.Current.SetupCollection(ctx, collection); err != nil {
		return err
	}
	return w.Legacy.SetupCollection(ctx, collection)
}

func (w *SanitizationMigration) Close(ctx context.Context) error {
	legacyErr := w.Legacy.Close(ctx)
	if err := w.Current.Close(ctx); err != nil {
		return err
	}
	return legacyErr
}

func (w *SanitizationMigration) Get(ctx context.Context, collection, key string) (map[string]any, error) {
	mk := migrationKey{collection, key}

	if loc, ok := w.locations.Get(mk); ok {
		switch loc {
		case locationMissing:
			return nil, nil
		case locationCurrent:
			return w.Current.Get(ctx, collection, key)
		case locationLegacy:
			return w.getFromLegacy(ctx, collection, key, mk)
		}
	}

	v, err := w.Current.Get(ctx, collection, key)
	if err != nil {
		return nil, err
	}
	if v != nil {
		w.locations.Add(mk, locationCurrent)
		return v, nil
	}

	return w.getFromLegacy(ctx, collection, key, mk)
}

// getFromLegacy looks key up in Legacy, updating the location cache and
// migrating the entry into Current when configured to. Called both on a
// Current miss and when the cache already remembers key as living in Legacy.
func (w *SanitizationMigration) getFromLegacy(ctx context.Context, collection, key string, mk migrationKey) (map[string]any, error) {
	legacyValue, legacyTTL, err := w.Legacy.TTL(ctx, collection, key)
	if err != nil {
		return nil, err
	}
	if legacyValue == nil {
		w.locations.Add(mk, locationMissing)
		return nil, nil
	}

	w.locations.Add(mk, locationLegacy)
	if w.MigrateOnRead {
		if err := w.Current.Put(ctx, collection, key, legacyValue, legacyTTL); err != nil {
			return nil, err
		}
		w.locations.Add(mk, locationCurrent)
		if w.DeleteAfterMigration {
			if _, err := w.Legacy.Delete(ctx, collection, key); err != nil {
				return nil, err
			}
		}
	}
	return legacyValue, nil
}

func (w *SanitizationMigration) Put(ctx context.Context, collection, key string, value map[string]any, ttl *time.Duration) error {
	if err := w.Current.Put(ctx, collection, key, value, ttl); err != nil {
		return err
	}
	w.locations.Add(migrationKey{collection, key}, locationCurrent)
	return nil
}

func (w *SanitizationMigration) Delete(ctx context.Context, collection, key string) (bool, error) {
	currentOK, err := w.Current.Delete(ctx, collection, key)
	if err != nil {
		return false, err
	}
	legacyOK, err := w.Legacy.Delete(ctx, collection, key)
	if err != nil {
		return false, err
	}
	w.locations.Remove(migrationKey{collection, key})
	return currentOK || legacyOK, nil
}

func (w *SanitizationMigration) TTL(ctx context.Context, collection, key string) (map[string]any, *time.Duration, error) {
	v, ttl, err := w.Current.TTL(ctx, collection, key)
	if err != nil {
		return nil, nil, err
	}
	if v != nil {
		return v, ttl, nil
	}
	return w.Legacy.TTL(ctx, collection, key)
}

func (w *SanitizationMigration) GetMany(ctx context.Context, collection string, keys []string) ([]map[string]any, error) {
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

func (w *SanitizationMigration) PutMany(ctx context.Context, collection string, keys []string, values []map[string]any, ttl *time.Duration) error {
	for i, k := range keys {
		if err := w.Put(ctx, collection, k, values[i], ttl); err != nil {
			return err
		}
	}
	return nil
}

func (w *SanitizationMigration) DeleteMany(ctx context.Context, collection string, keys []string) (int, error) {
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

func (w *SanitizationMigration) TTLMany(ctx context.Context, collection string, keys []string) ([]store.TTLResult, error) {
	out := make([]store.TTLResult, len(keys))
	for i, k := range keys {
		v, ttl, err := w.TTL(ctx, collection, k)
		if err != nil {
			return nil, err
		}
		out[i] = store.TTLResult{Value: v, TTL: ttl}
	}
	return out, nil
}

func (w *SanitizationMigration) Collections(ctx context.Context, limit int) ([]string, error) {
	current, err := w.Current.Collections(ctx, 0)
	if err != nil {
		return nil, err
	}
	legacy, err := w.Legacy.Collections(ctx, 0)
	if err != nil {
		return nil, err
	}
	return unionLimited(current, legacy, limit), nil
}

func (w *SanitizationMigration) Keys(ctx context.Context, collection string, limit int) ([]string, error) {
	current, err := w.Current.Keys(ctx, collection, 0)
	if err != nil {
		return nil, err
	}
	legacy, err := w.Legacy.Keys(ctx, collection, 0)
	if err != nil {
		return nil, err
	}
	return unionLimited(current, legacy, limit), nil
}

func unionLimited(a, b []string, limit int) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func (w *SanitizationMigration) DestroyCollection(ctx context.Context, collection string) (bool, error) {
	currentOK, err := w.Current.DestroyCollection(ctx, collection)
	if err != nil {
		return false, err
	}
	legacyOK, err := w.Legacy.DestroyCollection(ctx, collection)
	if err != nil {
		return false, err
	}
	return currentOK || legacyOK, nil
}

func (w *SanitizationMigration) DestroyStore(ctx context.Context) error {
	if err := w.Current.DestroyStore(ctx); err != nil {
		return err
	}
	return w.Legacy.DestroyStore(ctx)
}

func (w *SanitizationMigration) Cull(ctx context.Context) (int, error) {
	n1, err := w.Current.Cull(ctx)
	if err != nil {
		return n1, err
	}
	n2, err := w.Legacy.Cull(ctx)
	if err != nil {
		return n1 + n2, err
	}
	return n1 + n2, nil
}

func (w *SanitizationMigration) Capabilities() store.Capabilities {
	return w.Current.Capabilities()
}

var _ store.Store = (*SanitizationMigration)(nil)
