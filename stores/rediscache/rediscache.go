// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package rediscache is a distributed-cache Store backend on
// github.com/redis/go-redis/v9. Collection and key are joined into one
// compound key ("collection::key"); the value is the Full-JSON envelope.
// TTL is set as the Redis key's own expiry (SET with an expiration), and
// BaseStore still re-checks expiration on read; batch reads/writes use
// MGET/pipelined SET, and enumeration uses
// SCAN with a "collection::*" match pattern rather than KEYS, so it never
// blocks the server on a large keyspace.
package rediscache

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/polykv/store/entry"
	"github.com/polykv/store/logging"
	"github.com/polykv/store/sanitize"
	"github.com/polykv/store/serialize"
	"github.com/polykv/store/store"
)

const compoundSeparator = "::"

// codec is the §4.2 archetype for this backend: the full envelope lives in
// one string value under the compound key.
var codec serialize.FullJSON

type backend struct {
	rdb    *redis.Client
	logger logging.Logger
}

// New wraps an already-configured *redis.Client as a store.Store.
func New(rdb *redis.Client, opts ...Option) store.Store {
	b := &backend{rdb: rdb, logger: logging.NewNoOpLogger()}
	var strategy store.SanitizeStrategy
	for _, o := range opts {
		o(b, &strategy)
	}
	return store.NewBaseStore(b, strategy)
}

// Option configures a rediscache-backed Store.
type Option func(*backend, *store.SanitizeStrategy)

// WithLogger sets the logger used for corrupt-record diagnostics.
func WithLogger(l logging.Logger) Option {
	return func(b *backend, _ *store.SanitizeStrategy) { b.logger = l }
}

// WithSanitizeStrategy overrides the default sanitization strategy.
func WithSanitizeStrategy(s store.SanitizeStrategy) Option {
	return func(_ *backend, dst *store.SanitizeStrategy) { *dst = s }
}

func compoundKey(collection, key string) string {
	return collection + compoundSeparator + key
}

func (b *backend) ID() string { return "rediscache" }

func (b *backend) Setup(ctx context.Context) error { return b.rdb.Ping(ctx).Err() }

func (b *backend) SetupCollection(context.Context, string) error { return nil }

func (b *backend) Close(context.Context) error { return b.rdb.Close() }

func (b *backend) Sanitizer() store.SanitizeStrategy { return sanitize.HashExcessLength{Max: 500} }

func (b *backend) NativeTTL() bool { return true }

func (b *backend) StableAPI() bool { return true }

func (b *backend) decode(collection, key, raw string) *entry.ManagedEntry {
	e, err := codec.FromStorage(raw)
	if err != nil {
		b.logger.Warn("rediscache: discarding unreadable record %s/%s: %v", collection, key, err)
		return nil
	}
	return e
}

func (b *backend) GetEntry(ctx context.Context, collection, key string) (*entry.ManagedEntry, error) {
	raw, err := b.rdb.Get(ctx, compoundKey(collection, key)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	return b.decode(collection, key, raw), nil
}

func (b *backend) PutEntry(ctx context.Context, collection, key string, e *entry.ManagedEntry) error {
	body, err := codec.ToStorage(e)
	if err != nil {
		return err
	}
	var ttl time.Duration
	if d := e.TTL(time.Now()); d != nil {
		ttl = *d
	}
	return b.rdb.Set(ctx, compoundKey(collection, key), body, ttl).Err()
}

func (b *backend) DeleteEntry(ctx context.Context, collection, key string) (bool, error) {
	n, err := b.rdb.Del(ctx, compoundKey(collection, key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (b *backend) GetEntries(ctx context.Context, collection string, keys []string) ([]*entry.ManagedEntry, error) {
	compound := make([]string, len(keys))
	for i, k := range keys {
		compound[i] = compoundKey(collection, k)
	}
	vals, err := b.rdb.MGet(ctx, compound...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*entry.ManagedEntry, len(keys))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		out[i] = b.decode(collection, keys[i], s)
	}
	return out, nil
}

func (b *backend) PutEntries(ctx context.Context, collection string, keys []string, entries []*entry.ManagedEntry) error {
	pipe := b.rdb.Pipeline()
	for i, k := range keys {
		body, err := codec.ToStorage(entries[i])
		if err != nil {
			return err
		}
		var ttl time.Duration
		if d := entries[i].TTL(time.Now()); d != nil {
			ttl = *d
		}
		pipe.Set(ctx, compoundKey(collection, k), body, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (b *backend) DeleteEntries(ctx context.Context, collection string, keys []string) (int, error) {
	compound := make([]string, len(keys))
	for i, k := range keys {
		compound[i] = compoundKey(collection, k)
	}
	n, err := b.rdb.Del(ctx, compound...).Result()
	return int(n), err
}

func (b *backend) Collections(ctx context.Context, limit int) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	iter := b.rdb.Scan(ctx, 0, "*"+compoundSeparator+"*", 0).Iterator()
	for iter.Next(ctx) && len(out) < limit {
		full := iter.Val()
		if idx := strings.Index(full, compoundSeparator); idx >= 0 {
			name := full[:idx]
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out, iter.Err()
}

func (b *backend) Keys(ctx context.Context, collection string, limit int) ([]string, error) {
	prefix := collection + compoundSeparator
	var out []string
	iter := b.rdb.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) && len(out) < limit {
		out = append(out, strings.TrimPrefix(iter.Val(), prefix))
	}
	return out, iter.Err()
}

func (b *backend) DestroyCollection(ctx context.Context, collection string) (bool, error) {
	keys, err := b.Keys(ctx, collection, store.MaxPageSize)
	if err != nil {
		return false, err
	}
	if len(keys) == 0 {
		return false, nil
	}
	_, err = b.DeleteEntries(ctx, collection, keys)
	return err == nil, err
}

var _ store.Backend = (*backend)(nil)
var _ store.BatchBackend = (*backend)(nil)
var _ store.CollectionEnumeratorBackend = (*backend)(nil)
var _ store.KeyEnumeratorBackend = (*backend)(nil)
var _ store.CollectionDestroyerBackend = (*backend)(nil)
