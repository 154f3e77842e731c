// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package badgerstore is an embedded Store backend on top of
// github.com/dgraph-io/badger/v4 — the same engine OPA's storage/disk
// package embeds. Collection and key are concatenated into one badger key
// using a NUL separator so a collection prefix scan (iterating with
// collection+"\x00" as the prefix) enumerates exactly that collection's
// keys without a secondary index. Expiration is set as badger's own native
// TTL in addition to the envelope's expires_at, so badger reclaims expired
// entries during its own compaction independent of Cull.
package badgerstore

import (
	"bytes"
	"context"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/polykv/store/entry"
	"github.com/polykv/store/logging"
	"github.com/polykv/store/sanitize"
	"github.com/polykv/store/serialize"
	"github.com/polykv/store/store"
)

const keySeparator = 0x00

// codec is the §4.2 archetype for this backend: the full envelope lives in
// one value, badger's own TTL is set alongside it.
var codec serialize.FullJSON

type backend struct {
	db     *badger.DB
	logger logging.Logger
}

// New opens (or creates) a badger database rooted at dir.
func New(dir string, opts ...Option) (store.Store, error) {
	b := &backend{logger: logging.NewNoOpLogger()}
	var strategy store.SanitizeStrategy
	badgerOpts := badger.DefaultOptions(dir).WithLogger(nil)
	for _, o := range opts {
		o(b, &strategy, &badgerOpts)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}
	b.db = db
	return store.NewBaseStore(b, strategy), nil
}

// Option configures a badgerstore-backed Store.
type Option func(*backend, *store.SanitizeStrategy, *badger.Options)

// WithLogger sets the logger used for corrupt-record diagnostics.
func WithLogger(l logging.Logger) Option {
	return func(b *backend, _ *store.SanitizeStrategy, _ *badger.Options) { b.logger = l }
}

// WithSanitizeStrategy overrides the default sanitization strategy.
func WithSanitizeStrategy(s store.SanitizeStrategy) Option {
	return func(_ *backend, dst *store.SanitizeStrategy, _ *badger.Options) { *dst = s }
}

// WithInMemory runs badger entirely in memory, useful for tests.
func WithInMemory() Option {
	return func(_ *backend, _ *store.SanitizeStrategy, o *badger.Options) {
		*o = o.WithInMemory(true)
	}
}

func dbKey(collection, key string) []byte {
	buf := make([]byte, 0, len(collection)+1+len(key))
	buf = append(buf, collection...)
	buf = append(buf, keySeparator)
	buf = append(buf, key...)
	return buf
}

func (b *backend) ID() string { return "badgerstore" }

func (b *backend) Setup(context.Context) error { return nil }

func (b *backend) SetupCollection(context.Context, string) error { return nil }

func (b *backend) Close(context.Context) error { return b.db.Close() }

func (b *backend) Sanitizer() store.SanitizeStrategy { return sanitize.Passthrough{} }

func (b *backend) NativeTTL() bool { return true }

func (b *backend) StableAPI() bool { return true }

func (b *backend) GetEntry(_ context.Context, collection, key string) (*entry.ManagedEntry, error) {
	var e *entry.ManagedEntry
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dbKey(collection, key))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			decoded, err := codec.FromStorage(string(val))
			if err != nil {
				b.logger.Warn("badgerstore: discarding unreadable record %s/%s: %v", collection, key, err)
				return nil
			}
			e = decoded
			return nil
		})
	})
	return e, err
}

func (b *backend) PutEntry(_ context.Context, collection, key string, e *entry.ManagedEntry) error {
	body, err := codec.ToStorage(e)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		item := badger.NewEntry(dbKey(collection, key), []byte(body))
		if e.ExpiresAt != nil {
			if ttl := e.TTL(time.Now()); ttl != nil && *ttl > 0 {
				item = item.WithTTL(*ttl)
			}
		}
		return txn.SetEntry(item)
	})
}

func (b *backend) DeleteEntry(_ context.Context, collection, key string) (bool, error) {
	dk := dbKey(collection, key)
	existed := false
	err := b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(dk); err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		existed = true
		return txn.Delete(dk)
	})
	return existed, err
}

func (b *backend) Collections(_ context.Context, limit int) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid() && len(out) < limit; it.Next() {
			k := it.Item().Key()
			if idx := bytes.IndexByte(k, keySeparator); idx >= 0 {
				name := string(k[:idx])
				if !seen[name] {
					seen[name] = true
					out = append(out, name)
				}
			}
		}
		return nil
	})
	return out, err
}

func (b *backend) Keys(_ context.Context, collection string, limit int) ([]string, error) {
	prefix := append([]byte(collection), keySeparator)
	var out []string
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix) && len(out) < limit; it.Next() {
			out = append(out, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	return out, err
}

func (b *backend) DestroyCollection(_ context.Context, collection string) (bool, error) {
	prefix := append([]byte(collection), keySeparator)
	removed := false
	err := b.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		var toDelete [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			toDelete = append(toDelete, append([]byte(nil), it.Item().Key()...))
		}
		for _, k := range toDelete {
			if err := txn.Delete(k); err != nil {
				return err
			}
			removed = true
		}
		return nil
	})
	return removed, err
}

func (b *backend) DestroyStore(context.Context) error {
	return b.db.DropAll()
}

var (
	_ store.Backend                     = (*backend)(nil)
	_ store.CollectionEnumeratorBackend = (*backend)(nil)
	_ store.KeyEnumeratorBackend        = (*backend)(nil)
	_ store.CollectionDestroyerBackend  = (*backend)(nil)
	_ store.StoreDestroyerBackend       = (*backend)(nil)
)
