// Package memory keeps store values in process memory. Everything is lost on
// restart and nothing is shared between instances. That is fine for CAPTCHA
// records, which never decide a verification, but it means an admin logout
// only revokes the session on the instance that handled it.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/corvidlabs/brochure/decaymap"
	"github.com/corvidlabs/brochure/lib/store"
)

// CleanupInterval is how often expired values are swept out.
const CleanupInterval = 5 * time.Minute

func init() {
	store.Register("memory", factory{})
}

type factory struct{}

func (factory) Valid(json.RawMessage) error { return nil }

func (factory) Build(ctx context.Context, _ json.RawMessage) (store.Interface, error) {
	return New(ctx), nil
}

// Store is a decaymap of byte slices. Values are copied in both
// directions so callers can reuse their buffers.
type Store struct {
	values *decaymap.Impl[string, []byte]
	closed <-chan struct{}
}

// New starts a Store whose sweeper stops with ctx. Once ctx is done, Ping
// reports the store as closed.
func New(ctx context.Context) *Store {
	s := &Store{
		values: decaymap.New[string, []byte](),
		closed: ctx.Done(),
	}

	go s.sweep(ctx)

	return s
}

func notFound(key string) error {
	return fmt.Errorf("%w: %q", store.ErrNotFound, key)
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := s.values.Get(key)
	if !ok {
		return nil, notFound(key)
	}
	return slices.Clone(value), nil
}

func (s *Store) Set(_ context.Context, key string, value []byte, expiry time.Duration) error {
	s.values.Set(key, slices.Clone(value), expiry)
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	if !s.values.Delete(key) {
		return notFound(key)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	select {
	case <-s.closed:
		return fmt.Errorf("memory store: %w", context.Canceled)
	default:
		return ctx.Err()
	}
}

func (s *Store) sweep(ctx context.Context) {
	t := time.NewTicker(CleanupInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.values.Cleanup()
		}
	}
}
