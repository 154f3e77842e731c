// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package vaultstore

import "testing"

func TestSecretPath(t *testing.T) {
	if got, want := secretPath("widgets", "a"), "widgets/a"; got != want {
		t.Fatalf("secretPath() = %q, want %q", got, want)
	}
}
