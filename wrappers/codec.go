// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wrappers

import "encoding/json"

// marshalValue and unmarshalValue round-trip a value map through JSON for
// wrappers that need to embed it as opaque bytes (encryption) or reinflate
// it from a nested field (versioning).
func marshalValue(value map[string]any) ([]byte, error) {
	return json.Marshal(value)
}

func unmarshalValue(data []byte) (map[string]any, error) {
	var value map[string]any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, err
	}
	return value, nil
}
