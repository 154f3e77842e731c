// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wrappers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/polykv/store/store"
)

// SizeLimit rejects puts whose JSON-envelope-equivalent serialized size
// exceeds MaxBytes, with store.ValueTooLargeErr.
type SizeLimit struct {
	store.Store
	MaxBytes int
}

// NewSizeLimit wraps inner, rejecting any put whose value serializes larger
// than maxBytes.
func NewSizeLimit(inner store.Store, maxBytes int) *SizeLimit {
	return &SizeLimit{Store: inner, MaxBytes: maxBytes}
}

func tooLargeErr(size, max int) error {
	return &store.Error{
		Code:    store.ValueTooLargeErr,
		Message: fmt.Sprintf("value is %d bytes, exceeds limit of %d", size, max),
	}
}

func (w *SizeLimit) checkSize(value map[string]any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return &store.Error{Code: store.SerializationErr, Message: "value could not be encoded", Err: err}
	}
	if len(data) > w.MaxBytes {
		return tooLargeErr(len(data), w.MaxBytes)
	}
	return nil
}

func (w *SizeLimit) Put(ctx context.Context, collection, key string, value map[string]any, ttl *time.Duration) error {
	if err := w.checkSize(value); err != nil {
		return err
	}
	return w.Store.Put(ctx, collection, key, value, ttl)
}

func (w *SizeLimit) PutMany(ctx context.Context, collection string, keys []string, values []map[string]any, ttl *time.Duration) error {
	for _, v := range values {
		if err := w.checkSize(v); err != nil {
			return err
		}
	}
	return w.Store.PutMany(ctx, collection, keys, values, ttl)
}
