// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package diskstore is a local-filesystem Store backend: one directory per
// collection, one file per key, holding the full JSON envelope. Writes are
// made atomic by writing to a temp file in the same directory, fsyncing it,
// and renaming it over the target — the rename is the only observable state
// transition, so a crash mid-write never leaves a torn record. All resolved
// paths are confined under a configured root; a collection or key name that
// would resolve outside it is rejected rather than followed.
package diskstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/polykv/store/entry"
	"github.com/polykv/store/logging"
	"github.com/polykv/store/sanitize"
	"github.com/polykv/store/serialize"
	"github.com/polykv/store/store"
)

// codec is the §4.2 archetype for this backend: one file holds the complete
// JSON envelope, so there are no separate metadata columns to populate.
var codec serialize.FullJSON

type backend struct {
	root   string
	logger logging.Logger
}

// New returns a diskstore-backed store.Store rooted at dir. dir is created
// on Setup if it does not already exist.
func New(dir string, opts ...Option) store.Store {
	b := &backend{root: dir, logger: logging.NewNoOpLogger()}
	var strategy store.SanitizeStrategy
	for _, o := range opts {
		o(b, &strategy)
	}
	if strategy == nil {
		strategy = sanitize.Hybrid{Max: 200}
	}
	return store.NewBaseStore(b, strategy)
}

// Option configures a diskstore-backed Store.
type Option func(*backend, *store.SanitizeStrategy)

// WithLogger sets the logger used for corrupt-record diagnostics.
func WithLogger(l logging.Logger) Option {
	return func(b *backend, _ *store.SanitizeStrategy) { b.logger = l }
}

// WithSanitizeStrategy overrides the default Hybrid(200) strategy, which
// keeps collection and key names usable as path segments.
func WithSanitizeStrategy(s store.SanitizeStrategy) Option {
	return func(_ *backend, dst *store.SanitizeStrategy) { *dst = s }
}

func (b *backend) ID() string { return "diskstore" }

func (b *backend) Setup(context.Context) error {
	return os.MkdirAll(b.root, 0o755)
}

func (b *backend) SetupCollection(_ context.Context, collection string) error {
	dir, err := b.collectionDir(collection)
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

func (b *backend) Close(context.Context) error { return nil }

func (b *backend) Sanitizer() store.SanitizeStrategy { return sanitize.Hybrid{Max: 200} }

func (b *backend) NativeTTL() bool { return false }

func (b *backend) StableAPI() bool { return true }

// collectionDir resolves collection to an absolute path and rejects any
// result that escapes root, whether via ".." segments or a symlink.
func (b *backend) collectionDir(collection string) (string, error) {
	dir := filepath.Join(b.root, collection)
	return b.confine(dir)
}

func (b *backend) keyPath(collection, key string) (string, error) {
	dir, err := b.collectionDir(collection)
	if err != nil {
		return "", err
	}
	return b.confine(filepath.Join(dir, key+".json"))
}

func (b *backend) confine(path string) (string, error) {
	rootAbs, err := filepath.Abs(b.root)
	if err != nil {
		return "", err
	}
	pathAbs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(rootAbs, pathAbs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("diskstore: path %q escapes root %q", path, b.root)
	}
	if resolved, err := filepath.EvalSymlinks(pathAbs); err == nil {
		relResolved, err := filepath.Rel(rootAbs, resolved)
		if err != nil || relResolved == ".." || strings.HasPrefix(relResolved, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("diskstore: symlink %q escapes root %q", path, b.root)
		}
	}
	return pathAbs, nil
}

func (b *backend) GetEntry(_ context.Context, collection, key string) (*entry.ManagedEntry, error) {
	path, err := b.keyPath(collection, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	e, err := codec.FromStorage(string(data))
	if err != nil {
		b.logger.Warn("diskstore: discarding unreadable record at %s: %v", path, err)
		return nil, nil
	}
	return e, nil
}

func (b *backend) PutEntry(_ context.Context, collection, key string, e *entry.ManagedEntry) error {
	dir, err := b.collectionDir(collection)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path, err := b.keyPath(collection, key)
	if err != nil {
		return err
	}

	body, err := codec.ToStorage(e)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write([]byte(body)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func (b *backend) DeleteEntry(_ context.Context, collection, key string) (bool, error) {
	path, err := b.keyPath(collection, key)
	if err != nil {
		return false, err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (b *backend) Collections(_ context.Context, limit int) ([]string, error) {
	entries, err := os.ReadDir(b.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if len(out) >= limit {
			break
		}
		out = append(out, e.Name())
	}
	return out, nil
}

func (b *backend) Keys(_ context.Context, collection string, limit int) ([]string, error) {
	dir, err := b.collectionDir(collection)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".tmp-") {
			continue
		}
		if len(out) >= limit {
			break
		}
		out = append(out, strings.TrimSuffix(name, ".json"))
	}
	return out, nil
}

func (b *backend) DestroyCollection(_ context.Context, collection string) (bool, error) {
	dir, err := b.collectionDir(collection)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return false, err
	}
	return true, nil
}

func (b *backend) DestroyStore(_ context.Context) error {
	entries, err := os.ReadDir(b.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(b.root, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

var (
	_ store.Backend                     = (*backend)(nil)
	_ store.CollectionEnumeratorBackend = (*backend)(nil)
	_ store.KeyEnumeratorBackend        = (*backend)(nil)
	_ store.CollectionDestroyerBackend  = (*backend)(nil)
	_ store.StoreDestroyerBackend       = (*backend)(nil)
)
