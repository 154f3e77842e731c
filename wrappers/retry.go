// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wrappers

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/polykv/store/store"
)

// IsTransient classifies an error as retryable. The default, DefaultIsTransient,
// retries only store.StoreConnectionErr; callers may supply their own
// classifier.
type IsTransient func(error) bool

// DefaultIsTransient retries connection failures, the errors most likely to
// be transient network conditions.
func DefaultIsTransient(err error) bool {
	return store.IsStoreConnection(err)
}

// Retry retries Get, Put, Delete, TTL, GetMany, PutMany and DeleteMany when
// the error satisfies IsTransient, up to MaxRetries times with exponential
// backoff starting at InitialDelay. Non-matching errors propagate
// immediately on the first attempt. The other operations (TTLMany,
// enumeration, setup, destroy and Cull) pass through without retry.
type Retry struct {
	store.Store
	MaxRetries   int
	InitialDelay time.Duration
	IsTransient  IsTransient
}

// NewRetry wraps inner, retrying transient failures up to maxRetries times.
func NewRetry(inner store.Store, maxRetries int, initialDelay time.Duration, isTransient IsTransient) *Retry {
	if isTransient == nil {
		isTransient = DefaultIsTransient
	}
	return &Retry{Store: inner, MaxRetries: maxRetries, InitialDelay: initialDelay, IsTransient: isTransient}
}

func (w *Retry) backoffFor(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.InitialDelay
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(w.MaxRetries)), ctx)
}

func (w *Retry) run(ctx context.Context, op func() error) error {
	var lastNonTransient error
	err := backoff.Retry(func() error {
		opErr := op()
		if opErr == nil {
			return nil
		}
		if !w.IsTransient(opErr) {
			lastNonTransient = opErr
			return backoff.Permanent(opErr)
		}
		return opErr
	}, w.backoffFor(ctx))

	if lastNonTransient != nil {
		return lastNonTransient
	}
	return err
}

func (w *Retry) Get(ctx context.Context, collection, key string) (map[string]any, error) {
	var result map[string]any
	err := w.run(ctx, func() error {
		v, err := w.Store.Get(ctx, collection, key)
		result = v
		return err
	})
	return result, err
}

func (w *Retry) Put(ctx context.Context, collection, key string, value map[string]any, ttl *time.Duration) error {
	return w.run(ctx, func() error {
		return w.Store.Put(ctx, collection, key, value, ttl)
	})
}

func (w *Retry) Delete(ctx context.Context, collection, key string) (bool, error) {
	var result bool
	err := w.run(ctx, func() error {
		ok, err := w.Store.Delete(ctx, collection, key)
		result = ok
		return err
	})
	return result, err
}

func (w *Retry) TTL(ctx context.Context, collection, key string) (map[string]any, *time.Duration, error) {
	var value map[string]any
	var ttl *time.Duration
	err := w.run(ctx, func() error {
		v, t, err := w.Store.TTL(ctx, collection, key)
		value, ttl = v, t
		return err
	})
	return value, ttl, err
}

func (w *Retry) GetMany(ctx context.Context, collection string, keys []string) ([]map[string]any, error) {
	var result []map[string]any
	err := w.run(ctx, func() error {
		v, err := w.Store.GetMany(ctx, collection, keys)
		result = v
		return err
	})
	return result, err
}

func (w *Retry) PutMany(ctx context.Context, collection string, keys []string, values []map[string]any, ttl *time.Duration) error {
	return w.run(ctx, func() error {
		return w.Store.PutMany(ctx, collection, keys, values, ttl)
	})
}

func (w *Retry) DeleteMany(ctx context.Context, collection string, keys []string) (int, error) {
	var result int
	err := w.run(ctx, func() error {
		n, err := w.Store.DeleteMany(ctx, collection, keys)
		result = n
		return err
	})
	return result, err
}

var _ store.Store = (*Retry)(nil)
