// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package entry implements the Managed Entry: the in-memory record every
// store backend round-trips, plus its JSON envelope encoding.
package entry

import (
	"fmt"
	"time"
)

// CurrentVersion is the envelope format version written by this package.
const CurrentVersion = 1

// ManagedEntry is the universal record described by the spec: a JSON-shaped
// value plus creation time, optional expiration, and a small version tag
// identifying the envelope format.
type ManagedEntry struct {
	Value     map[string]any
	CreatedAt *time.Time
	ExpiresAt *time.Time
	Version   int
}

// InvalidEntryError reports a Managed Entry invariant violation.
type InvalidEntryError struct {
	Reason string
}

func (e *InvalidEntryError) Error() string {
	return fmt.Sprintf("invalid managed entry: %s", e.Reason)
}

// New constructs a Managed Entry, validating the invariants of §3:
// if expiresAt is set, createdAt must also be set and createdAt <= expiresAt.
// A nil value is treated as an empty mapping.
func New(value map[string]any, createdAt, expiresAt *time.Time) (*ManagedEntry, error) {
	if value == nil {
		value = map[string]any{}
	}
	if expiresAt != nil {
		if createdAt == nil {
			return nil, &InvalidEntryError{Reason: "expires_at set without created_at"}
		}
		if createdAt.After(*expiresAt) {
			return nil, &InvalidEntryError{Reason: "created_at is after expires_at"}
		}
	}
	return &ManagedEntry{
		Value:     value,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
		Version:   CurrentVersion,
	}, nil
}

// NewWithTTL constructs a Managed Entry that expires ttl after now. A nil or
// zero ttl produces an entry with no expiration.
func NewWithTTL(value map[string]any, now time.Time, ttl *time.Duration) (*ManagedEntry, error) {
	created := now.UTC()
	var expires *time.Time
	if ttl != nil && *ttl > 0 {
		e := created.Add(*ttl)
		expires = &e
	}
	return New(value, &created, expires)
}

// TTL returns the remaining time until expiration, or nil if the entry has
// no expiration. The result may be negative for an already-expired entry.
func (m *ManagedEntry) TTL(now time.Time) *time.Duration {
	if m.ExpiresAt == nil {
		return nil
	}
	d := m.ExpiresAt.Sub(now)
	return &d
}

// IsExpired reports whether the entry's expiration instant is at or before
// now. An entry with no expiration is never expired.
func (m *ManagedEntry) IsExpired(now time.Time) bool {
	if m.ExpiresAt == nil {
		return false
	}
	return !m.ExpiresAt.After(now)
}

// Clone returns a shallow copy of the entry with a copied (but not deep-
// copied) Value map, safe for a caller to mutate the top-level keys of
// without affecting the original.
func (m *ManagedEntry) Clone() *ManagedEntry {
	v := make(map[string]any, len(m.Value))
	for k, val := range m.Value {
		v[k] = val
	}
	out := *m
	out.Value = v
	return &out
}
