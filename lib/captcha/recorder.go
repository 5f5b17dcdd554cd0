package captcha

import (
	"context"
	"errors"
	"time"

	"github.com/corvidlabs/brochure/internal"
	"github.com/corvidlabs/brochure/lib/store"
)

// Record is the redundant copy of an issued challenge.
type Record struct {
	Answer   int   `json:"answer"`
	IssuedAt int64 `json:"issuedAt"`
}

// Recorder mirrors issued challenges somewhere short-lived. It is never
// consulted to accept or reject a token.
type Recorder interface {
	Put(ctx context.Context, key string, rec Record, ttl time.Duration) error
	Forget(ctx context.Context, key string) error
}

// NopRecorder drops everything.
type NopRecorder struct{}

func (NopRecorder) Put(context.Context, string, Record, time.Duration) error { return nil }
func (NopRecorder) Forget(context.Context, string) error                     { return nil }

// StoreRecorder keeps records in a store backend under the "captcha:" prefix.
type StoreRecorder struct {
	records *store.JSON[Record]
}

func NewStoreRecorder(s store.Interface) *StoreRecorder {
	return &StoreRecorder{
		records: &store.JSON[Record]{Underlying: s, Prefix: "captcha:"},
	}
}

func (s *StoreRecorder) Put(ctx context.Context, key string, rec Record, ttl time.Duration) error {
	return s.records.Set(ctx, key, rec, ttl)
}

// Forget deletes the record. A missing record is not an error: it may have
// expired or never been written.
func (s *StoreRecorder) Forget(ctx context.Context, key string) error {
	if err := s.records.Delete(ctx, key); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

// Lookup returns the record for token, if any.
func (s *StoreRecorder) Lookup(ctx context.Context, token string) (Record, error) {
	return s.records.Get(ctx, RecordKey(token))
}

// RecordKey is the store key for a token. Tokens are attacker supplied, so
// they are hashed instead of used verbatim.
func RecordKey(token string) string {
	return internal.SHA256sum(token)
}
