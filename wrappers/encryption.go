// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wrappers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/polykv/store/store"
)

const (
	encryptedDataField    = "__encrypted_data__"
	encryptionVersionField = "__encryption_version__"
	currentEncryptionVersion = 1
)

// KeySource supplies the symmetric key used by Encryption. Bytes returns the
// current key and, optionally, a list of retired keys tried on decrypt
// failure so rotation doesn't invalidate data written under an old key.
type KeySource interface {
	Bytes(ctx context.Context) (current []byte, old [][]byte, err error)
}

// StaticKey is a KeySource backed by an in-process byte string.
type StaticKey struct {
	Current []byte
	Old     [][]byte
}

func (s StaticKey) Bytes(context.Context) ([]byte, [][]byte, error) {
	return s.Current, s.Old, nil
}

// KeyringKey is a KeySource backed by the operating system's credential
// store. If no key is present under Service/Account on first use, a random
// key is generated and saved.
type KeyringKey struct {
	Service string
	Account string
}

func (k KeyringKey) Bytes(context.Context) ([]byte, [][]byte, error) {
	encoded, err := keyring.Get(k.Service, k.Account)
	if err == nil {
		key, decodeErr := base64.StdEncoding.DecodeString(encoded)
		if decodeErr != nil {
			return nil, nil, decodeErr
		}
		return key, nil, nil
	}
	if err != keyring.ErrNotFound {
		return nil, nil, err
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, nil, err
	}
	if err := keyring.Set(k.Service, k.Account, base64.StdEncoding.EncodeToString(key)); err != nil {
		return nil, nil, err
	}
	return key, nil, nil
}

// Encryption wraps values at rest in an envelope of the form
// {"__encrypted_data__": <base64 ciphertext>, "__encryption_version__": 1}
// using ChaCha20-Poly1305 AEAD with a random per-record nonce. Values that
// already look encrypted are not re-encrypted on put (idempotence). Values
// that don't look encrypted are returned as-is on read, for backward
// compatibility with data written before encryption was enabled.
// RaiseOnDecryptionFailure controls whether a corrupt or wrong-key
// ciphertext raises store.DecryptionErr or is treated as a miss.
type Encryption struct {
	store.Store
	Keys                     KeySource
	RaiseOnDecryptionFailure bool
}

// NewEncryption wraps inner, encrypting values at rest using keys.
func NewEncryption(inner store.Store, keys KeySource, raiseOnDecryptionFailure bool) *Encryption {
	return &Encryption{Store: inner, Keys: keys, RaiseOnDecryptionFailure: raiseOnDecryptionFailure}
}

func looksEncrypted(value map[string]any) bool {
	_, ok := value[encryptedDataField]
	return ok
}

func newAEAD(key []byte) (cipherAEAD, error) {
	return chacha20poly1305.New(key)
}

type cipherAEAD interface {
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
	NonceSize() int
}

func (w *Encryption) encrypt(ctx context.Context, value map[string]any) (map[string]any, error) {
	if looksEncrypted(value) {
		return value, nil
	}

	plaintext, err := marshalValue(value)
	if err != nil {
		return nil, err
	}

	key, _, err := w.Keys.Bytes(ctx)
	if err != nil {
		return nil, fmt.Errorf("encryption: loading key: %w", err)
	}
	aead, err := newAEAD(key)
	if err != nil {
		return nil, fmt.Errorf("encryption: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	sealed := aead.Seal(nonce, nonce, plaintext, nil)

	return map[string]any{
		encryptedDataField:     base64.StdEncoding.EncodeToString(sealed),
		encryptionVersionField: currentEncryptionVersion,
	}, nil
}

func (w *Encryption) decrypt(ctx context.Context, value map[string]any) (map[string]any, error) {
	if value == nil || !looksEncrypted(value) {
		return value, nil
	}

	encoded, _ := value[encryptedDataField].(string)
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return w.decryptFailure(err)
	}

	current, old, err := w.Keys.Bytes(ctx)
	if err != nil {
		return nil, fmt.Errorf("encryption: loading key: %w", err)
	}

	for _, key := range append([][]byte{current}, old...) {
		aead, err := newAEAD(key)
		if err != nil {
			continue
		}
		if len(sealed) < aead.NonceSize() {
			continue
		}
		nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
		plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
		if err != nil {
			continue
		}
		return unmarshalValue(plaintext)
	}

	return w.decryptFailure(fmt.Errorf("no key decrypted the record"))
}

func (w *Encryption) decryptFailure(cause error) (map[string]any, error) {
	if w.RaiseOnDecryptionFailure {
		return nil, &store.Error{Code: store.DecryptionErr, Message: "value could not be decrypted", Err: cause}
	}
	return nil, nil
}

func (w *Encryption) Get(ctx context.Context, collection, key string) (map[string]any, error) {
	v, err := w.Store.Get(ctx, collection, key)
	if err != nil {
		return nil, err
	}
	return w.decrypt(ctx, v)
}

func (w *Encryption) Put(ctx context.Context, collection, key string, value map[string]any, ttl *time.Duration) error {
	encrypted, err := w.encrypt(ctx, value)
	if err != nil {
		return err
	}
	return w.Store.Put(ctx, collection, key, encrypted, ttl)
}

func (w *Encryption) GetMany(ctx context.Context, collection string, keys []string) ([]map[string]any, error) {
	values, err := w.Store.GetMany(ctx, collection, keys)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, len(values))
	for i, v := range values {
		dv, err := w.decrypt(ctx, v)
		if err != nil {
			return nil, err
		}
		out[i] = dv
	}
	return out, nil
}

func (w *Encryption) PutMany(ctx context.Context, collection string, keys []string, values []map[string]any, ttl *time.Duration) error {
	encrypted := make([]map[string]any, len(values))
	for i, v := range values {
		ev, err := w.encrypt(ctx, v)
		if err != nil {
			return err
		}
		encrypted[i] = ev
	}
	return w.Store.PutMany(ctx, collection, keys, encrypted, ttl)
}

var _ store.Store = (*Encryption)(nil)
