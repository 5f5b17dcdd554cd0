package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound means the key is absent or has expired. Callers treat it
	// as a normal outcome.
	ErrNotFound = errors.New("store: key not found")

	ErrCantDecode = errors.New("store: can't decode value")
	ErrCantEncode = errors.New("store: can't encode value")

	// ErrBadConfig wraps every problem with a backend's parameters block.
	ErrBadConfig = errors.New("store: configuration is invalid")
)

// Interface is the short-lived key/value storage the site uses for
// best-effort CAPTCHA records and admin session revocations. Nothing in it
// is authoritative: every caller must tolerate lost or expired keys.
type Interface interface {
	// Delete returns ErrNotFound for a missing key.
	Delete(ctx context.Context, key string) error

	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value until expiry has passed, replacing any earlier value.
	Set(ctx context.Context, key string, value []byte, expiry time.Duration) error

	// Ping reports whether the backend can currently serve requests.
	Ping(ctx context.Context) error
}

// JSON is a typed view over an Interface that stores values as JSON under
// an optional key prefix.
type JSON[T any] struct {
	Underlying Interface
	Prefix     string
}

func (j *JSON[T]) key(key string) string {
	return j.Prefix + key
}

func (j *JSON[T]) Delete(ctx context.Context, key string) error {
	return j.Underlying.Delete(ctx, j.key(key))
}

func (j *JSON[T]) Get(ctx context.Context, key string) (T, error) {
	var result, zero T

	data, err := j.Underlying.Get(ctx, j.key(key))
	if err != nil {
		return zero, err
	}

	if err := json.Unmarshal(data, &result); err != nil {
		return zero, fmt.Errorf("%w: %w", ErrCantDecode, err)
	}

	return result, nil
}

func (j *JSON[T]) Set(ctx context.Context, key string, value T, expiry time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCantEncode, err)
	}

	return j.Underlying.Set(ctx, j.key(key), data, expiry)
}
