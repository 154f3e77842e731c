// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package store

import "testing"

func TestDescribeBackendReflectsFlagsAndBackendMethods(t *testing.T) {
	b := newFakeBackend()
	caps := describeBackend(b, true, false, true, false, true)
	want := Capabilities{
		SupportsEnumerateCollections: true,
		SupportsEnumerateKeys:        false,
		SupportsDestroyCollection:    true,
		SupportsDestroyStore:         false,
		SupportsNativeTTL:            b.NativeTTL(),
		SupportsCull:                 true,
		IsStableAPI:                  b.StableAPI(),
	}
	if caps != want {
		t.Fatalf("describeBackend = %+v, want %+v", caps, want)
	}
}
