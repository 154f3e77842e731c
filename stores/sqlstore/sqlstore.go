// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package sqlstore is a single-table embedded/client SQL Store backend,
// portable across SQLite, PostgreSQL, MySQL, and SQL Server via the
// database/sql driver the caller already opened. One table holds every
// collection, keyed on (collection, key); created_at/expires_at are stored
// as RFC3339Nano text so the same Go types decode identically regardless of
// the engine's native timestamp column support.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/polykv/store/entry"
	"github.com/polykv/store/logging"
	"github.com/polykv/store/sanitize"
	"github.com/polykv/store/serialize"
	"github.com/polykv/store/store"
)

// codec is the §4.2 archetype for this backend: created_at/expires_at live
// in their own columns, so the value column only ever holds the bare JSON
// value rather than a full envelope.
var codec serialize.StringifiedValueDocument

type backend struct {
	db      *sql.DB
	dialect dialect
	table   string
	logger  logging.Logger
}

// New wraps an already-open *sql.DB as a store.Store. table is validated
// against the spec's naming rule (alphanumeric + underscore) before any
// query is built from it — values are never passed through driver
// parameter binding for identifiers, so this validation is the only guard.
func New(db *sql.DB, driverName, table string, opts ...Option) (store.Store, error) {
	if err := validateTableName(table); err != nil {
		return nil, err
	}
	d, err := DialectFor(driverName)
	if err != nil {
		return nil, err
	}
	b := &backend{db: db, dialect: d, table: table, logger: logging.NewNoOpLogger()}
	var strategy store.SanitizeStrategy
	for _, o := range opts {
		o(b, &strategy)
	}
	return store.NewBaseStore(b, strategy), nil
}

// Option configures a sqlstore-backed Store.
type Option func(*backend, *store.SanitizeStrategy)

// WithLogger sets the logger used for corrupt-record diagnostics.
func WithLogger(l logging.Logger) Option {
	return func(b *backend, _ *store.SanitizeStrategy) { b.logger = l }
}

// WithSanitizeStrategy overrides the default sanitization strategy.
func WithSanitizeStrategy(s store.SanitizeStrategy) Option {
	return func(_ *backend, dst *store.SanitizeStrategy) { *dst = s }
}

func (b *backend) ID() string { return "sqlstore:" + b.dialect.name }

func (b *backend) Setup(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, b.dialect.createTable(b.table))
	return err
}

func (b *backend) SetupCollection(context.Context, string) error { return nil }

func (b *backend) Close(context.Context) error { return b.db.Close() }

func (b *backend) Sanitizer() store.SanitizeStrategy { return sanitize.HashExcessLength{Max: 255} }

func (b *backend) NativeTTL() bool { return false }

func (b *backend) StableAPI() bool { return true }

func nullStringOf(s sql.NullString) any {
	if !s.Valid {
		return nil
	}
	return s.String
}

func asNullString(v any) sql.NullString {
	s, ok := v.(string)
	if !ok {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func (b *backend) GetEntry(ctx context.Context, collection, key string) (*entry.ManagedEntry, error) {
	row := b.db.QueryRowContext(ctx, b.dialect.selectOne(b.table), collection, key)
	var value string
	var createdAt, expiresAt sql.NullString
	if err := row.Scan(&value, &createdAt, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	e, err := codec.FromStorage(serialize.Document{
		Key:       key,
		Value:     value,
		CreatedAt: nullStringOf(createdAt),
		ExpiresAt: nullStringOf(expiresAt),
	})
	if err != nil {
		b.logger.Warn("sqlstore: discarding record %s/%s: %v", collection, key, err)
		return nil, nil
	}
	return e, nil
}

func (b *backend) PutEntry(ctx context.Context, collection, key string, e *entry.ManagedEntry) error {
	doc, err := codec.ToStorage(key, e)
	if err != nil {
		return err
	}
	value, _ := doc.Value.(string)
	_, err = b.db.ExecContext(ctx, b.dialect.upsert(b.table),
		collection, key, value, asNullString(doc.CreatedAt), asNullString(doc.ExpiresAt))
	return err
}

func (b *backend) DeleteEntry(ctx context.Context, collection, key string) (bool, error) {
	res, err := b.db.ExecContext(ctx, b.dialect.deleteOne(b.table), collection, key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (b *backend) Keys(ctx context.Context, collection string, limit int) ([]string, error) {
	rows, err := b.db.QueryContext(ctx, b.dialect.selectKeys(b.table), collection, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (b *backend) DestroyCollection(ctx context.Context, collection string) (bool, error) {
	res, err := b.db.ExecContext(ctx, b.dialect.deleteColl(b.table), collection)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (b *backend) DestroyStore(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, b.dialect.truncate(b.table))
	return err
}

func (b *backend) Cull(ctx context.Context) (int, error) {
	res, err := b.db.ExecContext(ctx, b.dialect.cullExpired(b.table), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

var (
	_ store.Backend                    = (*backend)(nil)
	_ store.KeyEnumeratorBackend       = (*backend)(nil)
	_ store.CollectionDestroyerBackend = (*backend)(nil)
	_ store.StoreDestroyerBackend      = (*backend)(nil)
	_ store.CullerBackend              = (*backend)(nil)
)
