package bbolt

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corvidlabs/brochure/lib/store"
	"go.etcd.io/bbolt"
)

// Sentinel error values used for testing and in admin-visible error messages.
var (
	ErrBucketDoesNotExist = errors.New("bbolt: bucket does not exist")
	ErrCorruptRecord      = errors.New("bbolt: record is too short to hold an expiry")
)

// expiryLen is the size of the big-endian UnixNano expiry prefix on every value.
const expiryLen = 8

// Store implements store.Interface backed by bbolt[1].
//
// All values live in a single bucket. Each stored value is prefixed with
// its expiry as a big-endian UnixNano timestamp so the cleanup pass can
// decide what to drop by reading the first eight bytes of every record.
//
// bbolt takes an exclusive file lock, so it is only suitable when a single
// site process owns the database file. For several instances behind a load
// balancer, use the valkey backend.
//
// [1]: https://github.com/etcd-io/bbolt
type Store struct {
	bdb    *bbolt.DB
	bucket []byte
	now    func() time.Time
}

func encode(expires time.Time, value []byte) []byte {
	buf := make([]byte, expiryLen+len(value))
	binary.BigEndian.PutUint64(buf, uint64(expires.UnixNano()))
	copy(buf[expiryLen:], value)
	return buf
}

func decode(raw []byte) (time.Time, []byte, error) {
	if len(raw) < expiryLen {
		return time.Time{}, nil, ErrCorruptRecord
	}

	expires := time.Unix(0, int64(binary.BigEndian.Uint64(raw[:expiryLen])))
	return expires, raw[expiryLen:], nil
}

// Delete a key from the datastore. If the key does not exist, return an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket(s.bucket)
		if bkt == nil {
			return fmt.Errorf("%w: %q", ErrBucketDoesNotExist, s.bucket)
		}

		if bkt.Get([]byte(key)) == nil {
			return fmt.Errorf("%w: %q", store.ErrNotFound, key)
		}

		return bkt.Delete([]byte(key))
	})
}

// Get a value from the datastore. Expired values are reported as not found
// and removed in the background.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var result []byte
	var expired bool

	if err := s.bdb.View(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket(s.bucket)
		if bkt == nil {
			return fmt.Errorf("%w: %q", ErrBucketDoesNotExist, s.bucket)
		}

		raw := bkt.Get([]byte(key))
		if raw == nil {
			return fmt.Errorf("%w: %q", store.ErrNotFound, key)
		}

		expires, data, err := decode(raw)
		if err != nil {
			return fmt.Errorf("[unexpected] %w: %q: %w", store.ErrCantDecode, key, err)
		}

		if s.now().After(expires) {
			expired = true
			return fmt.Errorf("%w: %q", store.ErrNotFound, key)
		}

		// bbolt memory is only valid for the life of the transaction
		result = make([]byte, len(data))
		copy(result, data)

		return nil
	}); err != nil {
		if expired {
			go s.Delete(context.Background(), key)
		}
		return nil, err
	}

	return result, nil
}

// Set a value into the store with a given expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte, expiry time.Duration) error {
	expires := s.now().Add(expiry)

	return s.bdb.Update(func(tx *bbolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return fmt.Errorf("%w: %w: %q (create bucket)", store.ErrCantEncode, err, s.bucket)
		}

		if err := bkt.Put([]byte(key), encode(expires, value)); err != nil {
			return fmt.Errorf("%w: %q: %w", store.ErrCantEncode, key, err)
		}

		return nil
	})
}

// Ping fails once the database has been closed.
func (s *Store) Ping(ctx context.Context) error {
	return s.bdb.View(func(*bbolt.Tx) error { return ctx.Err() })
}

func (s *Store) cleanup(ctx context.Context) (int, error) {
	now := s.now()
	var dropped int

	err := s.bdb.Update(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket(s.bucket)
		if bkt == nil {
			return nil
		}

		c := bkt.Cursor()
		for k, v := c.First(); k != nil; {
			expires, _, err := decode(v)
			if err != nil {
				slog.Warn("while running cleanup, found a record without an expiry, dropping it", "key", string(k))
			}

			if err != nil || now.After(expires) {
				key := append([]byte(nil), k...)
				if err := c.Delete(); err != nil {
					return err
				}
				dropped++
				k, v = c.Seek(key)
				continue
			}

			k, v = c.Next()
		}

		return nil
	})

	return dropped, err
}

func (s *Store) cleanupThread(ctx context.Context) {
	t := time.NewTicker(5 * time.Minute)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := s.bdb.Close(); err != nil {
				slog.Error("can't close bbolt database", "err", err)
			}
			return
		case <-t.C:
			n, err := s.cleanup(ctx)
			if err != nil {
				slog.Error("error during bbolt cleanup", "err", err)
				continue
			}
			slog.Debug("bbolt cleanup finished", "dropped", n)
		}
	}
}
