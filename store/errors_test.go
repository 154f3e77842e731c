// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package store

import (
	"errors"
	"testing"
)

func TestErrorPredicates(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		predicate func(error) bool
	}{
		{"invalid key", invalidKeyError("k", "bad"), IsInvalidKey},
		{"invalid ttl", invalidTTLError("bad ttl"), IsInvalidTTL},
		{"serialization", serializationError(errors.New("boom")), IsSerialization},
		{"deserialization", deserializationError(errors.New("boom")), IsDeserialization},
		{"closed", closedError("memstore"), IsClosed},
		{"unsupported", unsupportedError("memstore", "cull"), IsUnsupported},
		{"connection", connectionError("memstore", errors.New("boom")), IsStoreConnection},
		{"setup", setupError("memstore", errors.New("boom")), IsStoreSetup},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if !c.predicate(c.err) {
				t.Fatalf("predicate false for %v", c.err)
			}
		})
	}
}

func TestErrorPredicatesRejectOtherCodes(t *testing.T) {
	err := invalidKeyError("k", "bad")
	if IsInvalidTTL(err) || IsClosed(err) || IsStoreConnection(err) {
		t.Fatalf("expected only IsInvalidKey to match, got %v", err)
	}
}

func TestErrorPredicatesFalseForNonStoreError(t *testing.T) {
	if IsInvalidKey(errors.New("plain")) {
		t.Fatal("expected false for a non-*Error value")
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := connectionError("memstore", inner)
	if !errors.Is(err, inner) {
		t.Fatal("expected errors.Is to see through Unwrap")
	}
}

func TestErrCodeString(t *testing.T) {
	if got := InvalidKeyErr.String(); got != "invalid_key" {
		t.Fatalf("String() = %q, want invalid_key", got)
	}
	if got := InternalErr.String(); got != "internal" {
		t.Fatalf("String() = %q, want internal", got)
	}
}
