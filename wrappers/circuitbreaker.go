// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wrappers

import (
	"context"
	"sync"
	"time"

	"github.com/polykv/store/store"
)

type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
	circuitHalfOpen
)

// CircuitBreaker implements the closed -> open -> half-open state machine of
// §4.6.6. FailureThreshold consecutive IsTripping failures in the closed
// state open the circuit; RecoveryTimeout after opening, the circuit moves
// to half-open and lets a single probe through. SuccessThreshold consecutive
// half-open successes close it again; any half-open failure re-opens it.
// Errors for which IsTripping is false never affect the state and are
// neither counted nor delayed.
type CircuitBreaker struct {
	store.Store

	FailureThreshold int
	SuccessThreshold int
	RecoveryTimeout  time.Duration
	IsTripping       IsTransient

	mu              sync.Mutex
	state           circuitState
	failures        int
	successes       int
	openedAt        time.Time
	halfOpenInFlight bool
}

// NewCircuitBreaker wraps inner with a circuit breaker tripped by isTripping
// errors.
func NewCircuitBreaker(inner store.Store, failureThreshold, successThreshold int, recoveryTimeout time.Duration, isTripping IsTransient) *CircuitBreaker {
	if isTripping == nil {
		isTripping = DefaultIsTransient
	}
	return &CircuitBreaker{
		Store:            inner,
		FailureThreshold: failureThreshold,
		SuccessThreshold: successThreshold,
		RecoveryTimeout:  recoveryTimeout,
		IsTripping:       isTripping,
		state:            circuitClosed,
	}
}

func circuitOpenError() error {
	return &store.Error{Code: store.CircuitOpenErr, Message: "circuit breaker is open"}
}

// admit decides whether an attempt may proceed, transitioning open->half-open
// once RecoveryTimeout has elapsed. It returns false (with an error) when the
// call must fail fast without touching the inner store.
func (w *CircuitBreaker) admit() (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state {
	case circuitClosed:
		return true, nil
	case circuitOpen:
		if time.Since(w.openedAt) < w.RecoveryTimeout {
			return false, circuitOpenError()
		}
		w.state = circuitHalfOpen
		w.successes = 0
		w.halfOpenInFlight = true
		return true, nil
	case circuitHalfOpen:
		if w.halfOpenInFlight {
			return false, circuitOpenError()
		}
		w.halfOpenInFlight = true
		return true, nil
	default:
		return true, nil
	}
}

func (w *CircuitBreaker) report(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.halfOpenInFlight = false

	if err != nil && !w.IsTripping(err) {
		return
	}

	switch w.state {
	case circuitClosed:
		if err == nil {
			w.failures = 0
			return
		}
		w.failures++
		if w.failures >= w.FailureThreshold {
			w.state = circuitOpen
			w.openedAt = time.Now()
			w.failures = 0
		}
	case circuitHalfOpen:
		if err != nil {
			w.state = circuitOpen
			w.openedAt = time.Now()
			w.successes = 0
			return
		}
		w.successes++
		if w.successes >= w.SuccessThreshold {
			w.state = circuitClosed
			w.failures = 0
			w.successes = 0
		}
	case circuitOpen:
		// A stray report after the recovery window re-opened the breaker
		// under a different probe; leave state untouched.
	}
}

func (w *CircuitBreaker) run(op func() error) error {
	ok, err := w.admit()
	if !ok {
		return err
	}
	opErr := op()
	w.report(opErr)
	return opErr
}

func (w *CircuitBreaker) Get(ctx context.Context, collection, key string) (map[string]any, error) {
	var result map[string]any
	err := w.run(func() error {
		v, err := w.Store.Get(ctx, collection, key)
		result = v
		return err
	})
	return result, err
}

func (w *CircuitBreaker) Put(ctx context.Context, collection, key string, value map[string]any, ttl *time.Duration) error {
	return w.run(func() error {
		return w.Store.Put(ctx, collection, key, value, ttl)
	})
}

func (w *CircuitBreaker) Delete(ctx context.Context, collection, key string) (bool, error) {
	var result bool
	err := w.run(func() error {
		ok, err := w.Store.Delete(ctx, collection, key)
		result = ok
		return err
	})
	return result, err
}

func (w *CircuitBreaker) TTL(ctx context.Context, collection, key string) (map[string]any, *time.Duration, error) {
	var value map[string]any
	var ttl *time.Duration
	err := w.run(func() error {
		v, t, err := w.Store.TTL(ctx, collection, key)
		value, ttl = v, t
		return err
	})
	return value, ttl, err
}

func (w *CircuitBreaker) GetMany(ctx context.Context, collection string, keys []string) ([]map[string]any, error) {
	var result []map[string]any
	err := w.run(func() error {
		v, err := w.Store.GetMany(ctx, collection, keys)
		result = v
		return err
	})
	return result, err
}

func (w *CircuitBreaker) PutMany(ctx context.Context, collection string, keys []string, values []map[string]any, ttl *time.Duration) error {
	return w.run(func() error {
		return w.Store.PutMany(ctx, collection, keys, values, ttl)
	})
}

func (w *CircuitBreaker) DeleteMany(ctx context.Context, collection string, keys []string) (int, error) {
	var result int
	err := w.run(func() error {
		n, err := w.Store.DeleteMany(ctx, collection, keys)
		result = n
		return err
	})
	return result, err
}

var _ store.Store = (*CircuitBreaker)(nil)
