// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package serialize implements the four serialization archetypes of §4.2:
// translations between a Managed Entry and one backend's native storage
// shape. Each archetype exposes ToStorage/FromStorage; concrete stores pick
// the archetype that matches their backend and call it internally — the
// Store/Backend contract never sees these shapes directly.
package serialize

import (
	"time"

	"github.com/polykv/store/entry"
)

const timeLayout = time.RFC3339Nano

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

// FullJSON is the "one string holds the complete envelope" archetype used by
// key-value caches, secret stores, and object stores.
type FullJSON struct{}

func (FullJSON) ToStorage(e *entry.ManagedEntry) (string, error) {
	return e.ToJSON(true, true, true)
}

func (FullJSON) FromStorage(data string) (*entry.ManagedEntry, error) {
	return entry.FromJSON(data, true)
}

// StringifiedValueDocument is the "{key, value: <JSON string>, created_at,
// expires_at}" archetype used where the backend indexes metadata columns
// but treats value as opaque.
type StringifiedValueDocument struct{}

// Document is the native-document shape shared by StringifiedValueDocument,
// NativeValueDocument, and FlattenedValueDocument.
type Document struct {
	Key       string
	Value     any // string for StringifiedValueDocument, map[string]any otherwise
	CreatedAt any
	ExpiresAt any
}

func (StringifiedValueDocument) ToStorage(key string, e *entry.ManagedEntry) (Document, error) {
	valueJSON, err := e.ToJSON(false, false, false)
	if err != nil {
		return Document{}, err
	}
	return Document{
		Key:       key,
		Value:     valueJSON,
		CreatedAt: formatTime(e.CreatedAt),
		ExpiresAt: formatTime(e.ExpiresAt),
	}, nil
}

func (StringifiedValueDocument) FromStorage(doc Document) (*entry.ManagedEntry, error) {
	valueJSON, _ := doc.Value.(string)
	m, err := entry.FromJSON(valueJSON, false)
	if err != nil {
		return nil, err
	}
	if err := applyTimestamps(m, doc.CreatedAt, doc.ExpiresAt); err != nil {
		return nil, err
	}
	return m, nil
}

// NativeValueDocument is the "{key, value: <native structured object>,
// created_at, expires_at}" archetype used by document databases that can
// query into the value.
type NativeValueDocument struct{}

func (NativeValueDocument) ToStorage(key string, e *entry.ManagedEntry) Document {
	return Document{
		Key:       key,
		Value:     e.ToDict(false, false, false),
		CreatedAt: formatTime(e.CreatedAt),
		ExpiresAt: formatTime(e.ExpiresAt),
	}
}

func (NativeValueDocument) FromStorage(doc Document) (*entry.ManagedEntry, error) {
	value, err := asValueMap(doc.Value)
	if err != nil {
		return nil, err
	}
	m, err := entry.FromDict(map[string]any{"value": value}, false)
	if err != nil {
		return nil, err
	}
	if err := applyTimestamps(m, doc.CreatedAt, doc.ExpiresAt); err != nil {
		return nil, err
	}
	return m, nil
}

// FlattenedValueDocument is the same layout as NativeValueDocument but the
// value is understood to live under a flattened/non-indexed field, for
// search indexes that would otherwise try to map every key of a large
// opaque value into the index schema. The Go representation is identical;
// the distinction is meaningful only to the concrete store wiring the field
// name into its index mapping.
type FlattenedValueDocument struct{ NativeValueDocument }

func applyTimestamps(m *entry.ManagedEntry, createdAt, expiresAt any) error {
	if createdAt != nil {
		t, err := parseTimestamp(createdAt)
		if err != nil {
			return &entry.DeserializationError{Field: "created_at", Err: err}
		}
		m.CreatedAt = t
	}
	if expiresAt != nil {
		t, err := parseTimestamp(expiresAt)
		if err != nil {
			return &entry.DeserializationError{Field: "expires_at", Err: err}
		}
		m.ExpiresAt = t
	}
	return nil
}

func parseTimestamp(v any) (*time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		u := t.UTC()
		return &u, nil
	case *time.Time:
		if t == nil {
			return nil, nil
		}
		u := t.UTC()
		return &u, nil
	case string:
		if t == "" {
			return nil, nil
		}
		parsed, err := time.Parse(timeLayout, t)
		if err != nil {
			return nil, err
		}
		parsed = parsed.UTC()
		return &parsed, nil
	default:
		return nil, nil
	}
}

func asValueMap(v any) (map[string]any, error) {
	if v == nil {
		return map[string]any{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &entry.DeserializationError{Field: "value"}
	}
	return m, nil
}
