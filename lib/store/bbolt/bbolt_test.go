package bbolt

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/corvidlabs/brochure/lib/store"
	"github.com/corvidlabs/brochure/lib/store/storetest"
	"go.etcd.io/bbolt"
)

func TestImpl(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	data, err := json.Marshal(Config{
		Path: path,
	})
	if err != nil {
		t.Fatal(err)
	}

	storetest.Common(t, Factory{}, json.RawMessage(data))
}

func openTest(t *testing.T, now func() time.Time) *Store {
	t.Helper()

	bdb, err := bbolt.Open(filepath.Join(t.TempDir(), "db"), 0600, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { bdb.Close() })

	return &Store{bdb: bdb, bucket: []byte(DefaultBucket), now: now}
}

func TestCleanup(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := openTest(t, func() time.Time { return now })

	for _, tt := range []struct {
		key string
		ttl time.Duration
	}{
		{key: "a", ttl: time.Second},
		{key: "b", ttl: time.Hour},
		{key: "c", ttl: time.Second},
		{key: "d", ttl: time.Second},
		{key: "e", ttl: time.Hour},
	} {
		if err := s.Set(t.Context(), tt.key, []byte(tt.key), tt.ttl); err != nil {
			t.Fatal(err)
		}
	}

	now = now.Add(time.Minute)

	dropped, err := s.cleanup(t.Context())
	if err != nil {
		t.Fatal(err)
	}

	if dropped != 3 {
		t.Errorf("wanted 3 records dropped, got %d", dropped)
	}

	for _, key := range []string{"b", "e"} {
		if _, err := s.Get(t.Context(), key); err != nil {
			t.Errorf("wanted %q to survive cleanup: %v", key, err)
		}
	}

	for _, key := range []string{"a", "c", "d"} {
		if err := s.bdb.View(func(tx *bbolt.Tx) error {
			if tx.Bucket(s.bucket).Get([]byte(key)) != nil {
				return errors.New("still present")
			}
			return nil
		}); err != nil {
			t.Errorf("%q: %v", key, err)
		}
	}
}

func TestGetMissingBucket(t *testing.T) {
	s := openTest(t, time.Now)

	if _, err := s.Get(t.Context(), "nope"); !errors.Is(err, ErrBucketDoesNotExist) {
		t.Errorf("wanted ErrBucketDoesNotExist, got %v", err)
	}

	if err := s.Set(t.Context(), "yep", []byte("1"), time.Minute); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Get(t.Context(), "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("wanted ErrNotFound, got %v", err)
	}
}

func TestDecodeShortRecord(t *testing.T) {
	if _, _, err := decode([]byte{1, 2, 3}); !errors.Is(err, ErrCorruptRecord) {
		t.Errorf("wanted ErrCorruptRecord, got %v", err)
	}

	when := time.Unix(1700000000, 42)
	expires, data, err := decode(encode(when, []byte("hi")))
	if err != nil {
		t.Fatal(err)
	}
	if !expires.Equal(when) || string(data) != "hi" {
		t.Errorf("round trip mismatch: %v %q", expires, data)
	}
}
