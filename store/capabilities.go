// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package store

// Capabilities advertises which optional operations a Store supports, per
// §6.4, so callers can skip unsupported operations or run an alternative
// code path instead of relying on a failed call.
type Capabilities struct {
	SupportsEnumerateCollections bool
	SupportsEnumerateKeys        bool
	SupportsDestroyCollection    bool
	SupportsDestroyStore         bool
	SupportsNativeTTL            bool
	SupportsCull                 bool
	IsStableAPI                  bool
}

func describeBackend(b Backend, collEnum, keyEnum, collDestroy, storeDestroy, culler bool) Capabilities {
	return Capabilities{
		SupportsEnumerateCollections: collEnum,
		SupportsEnumerateKeys:        keyEnum,
		SupportsDestroyCollection:    collDestroy,
		SupportsDestroyStore:         storeDestroy,
		SupportsNativeTTL:            b.NativeTTL(),
		SupportsCull:                 culler,
		IsStableAPI:                  b.StableAPI(),
	}
}
