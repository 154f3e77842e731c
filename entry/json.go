// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package entry

import (
	"encoding/json"
	"fmt"
	"time"
)

// DeserializationError reports that a stored representation could not be
// turned back into a Managed Entry, naming the offending field.
type DeserializationError struct {
	Field string
	Err   error
}

func (e *DeserializationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("deserialization error: %v", e.Err)
	}
	return fmt.Sprintf("deserialization error: field %q: %v", e.Field, e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

const timeLayout = time.RFC3339Nano

// ToJSON encodes the entry to its wire form. The three flags independently
// control what is emitted, so a backend that keeps version/timestamps in
// native columns can ask for the bare value only:
//
//   - If none of the flags are set, ToJSON emits the JSON encoding of Value
//     alone (the "stringified-value document" archetype's inner string).
//   - Otherwise it emits an object with a "value" key, plus "version" when
//     includeMetadata is set, plus "created_at"/"expires_at" when
//     includeCreation/includeExpiration are set and the corresponding field
//     is non-nil (the "full JSON envelope" of §3 when all three are set).
func (m *ManagedEntry) ToJSON(includeMetadata, includeExpiration, includeCreation bool) (string, error) {
	if !includeMetadata && !includeExpiration && !includeCreation {
		b, err := json.Marshal(m.Value)
		if err != nil {
			return "", &SerializationError{Err: err}
		}
		return string(b), nil
	}

	obj := map[string]any{"value": m.Value}
	if includeMetadata {
		obj["version"] = m.Version
	}
	if includeCreation && m.CreatedAt != nil {
		obj["created_at"] = m.CreatedAt.UTC().Format(timeLayout)
	}
	if includeExpiration && m.ExpiresAt != nil {
		obj["expires_at"] = m.ExpiresAt.UTC().Format(timeLayout)
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return "", &SerializationError{Err: err}
	}
	return string(b), nil
}

// SerializationError reports that a value could not be JSON-encoded.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string  { return fmt.Sprintf("serialization error: %v", e.Err) }
func (e *SerializationError) Unwrap() error  { return e.Err }

// envelope mirrors the wire shape of §3, with value left as RawMessage so we
// can tell "absent" from "explicitly null" while decoding.
type envelope struct {
	Version    *int            `json:"version,omitempty"`
	Value      json.RawMessage `json:"value"`
	CreatedAt  *string         `json:"created_at,omitempty"`
	ExpiresAt  *string         `json:"expires_at,omitempty"`
}

// FromJSON decodes data back into a Managed Entry. When includesMetadata is
// false, data is treated as a bare value (no envelope wrapper) and the
// returned entry has no version/timestamps set — the caller is expected to
// fill those in from whatever native columns the backend stores them in.
func FromJSON(data string, includesMetadata bool) (*ManagedEntry, error) {
	if !includesMetadata {
		value, err := decodeValue(json.RawMessage(data))
		if err != nil {
			return nil, err
		}
		return &ManagedEntry{Value: value}, nil
	}

	var env envelope
	if err := json.Unmarshal([]byte(data), &env); err != nil {
		return nil, &DeserializationError{Field: "envelope", Err: err}
	}
	return fromEnvelope(env)
}

func fromEnvelope(env envelope) (*ManagedEntry, error) {
	value, err := decodeValue(env.Value)
	if err != nil {
		return nil, err
	}

	m := &ManagedEntry{Value: value, Version: CurrentVersion}
	if env.Version != nil {
		m.Version = *env.Version
	}
	if env.CreatedAt != nil {
		t, err := time.Parse(timeLayout, *env.CreatedAt)
		if err != nil {
			return nil, &DeserializationError{Field: "created_at", Err: err}
		}
		t = t.UTC()
		m.CreatedAt = &t
	}
	if env.ExpiresAt != nil {
		t, err := time.Parse(timeLayout, *env.ExpiresAt)
		if err != nil {
			return nil, &DeserializationError{Field: "expires_at", Err: err}
		}
		t = t.UTC()
		m.ExpiresAt = &t
	}
	return m, nil
}

func decodeValue(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var value map[string]any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, &DeserializationError{Field: "value", Err: err}
	}
	return value, nil
}

// ToDict renders the entry as a plain map, for backends that store a
// native structured document rather than a JSON string. Semantics mirror
// ToJSON exactly, just without the final marshal step.
func (m *ManagedEntry) ToDict(includeMetadata, includeExpiration, includeCreation bool) map[string]any {
	if !includeMetadata && !includeExpiration && !includeCreation {
		return m.Value
	}
	obj := map[string]any{"value": m.Value}
	if includeMetadata {
		obj["version"] = m.Version
	}
	if includeCreation && m.CreatedAt != nil {
		obj["created_at"] = m.CreatedAt.UTC().Format(timeLayout)
	}
	if includeExpiration && m.ExpiresAt != nil {
		obj["expires_at"] = m.ExpiresAt.UTC().Format(timeLayout)
	}
	return obj
}

// FromDict is the ToDict analog of FromJSON, for backends that hand back a
// native document rather than a string.
func FromDict(doc map[string]any, includesMetadata bool) (*ManagedEntry, error) {
	if !includesMetadata {
		value, ok := doc["value"].(map[string]any)
		if !ok {
			if doc == nil {
				value = map[string]any{}
			} else {
				value = doc
			}
		}
		return &ManagedEntry{Value: value}, nil
	}

	m := &ManagedEntry{Version: CurrentVersion}
	if v, ok := doc["value"]; ok {
		value, ok := v.(map[string]any)
		if !ok {
			return nil, &DeserializationError{Field: "value", Err: fmt.Errorf("expected a mapping, got %T", v)}
		}
		m.Value = value
	} else {
		m.Value = map[string]any{}
	}
	if v, ok := doc["version"]; ok {
		n, err := toInt(v)
		if err != nil {
			return nil, &DeserializationError{Field: "version", Err: err}
		}
		m.Version = n
	}
	if v, ok := doc["created_at"]; ok && v != nil {
		t, err := toTime(v)
		if err != nil {
			return nil, &DeserializationError{Field: "created_at", Err: err}
		}
		m.CreatedAt = t
	}
	if v, ok := doc["expires_at"]; ok && v != nil {
		t, err := toTime(v)
		if err != nil {
			return nil, &DeserializationError{Field: "expires_at", Err: err}
		}
		m.ExpiresAt = t
	}
	return m, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}

func toTime(v any) (*time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		u := t.UTC()
		return &u, nil
	case string:
		parsed, err := time.Parse(timeLayout, t)
		if err != nil {
			return nil, err
		}
		parsed = parsed.UTC()
		return &parsed, nil
	default:
		return nil, fmt.Errorf("expected a timestamp, got %T", v)
	}
}
