package valkey

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/corvidlabs/brochure/lib/store"
	"github.com/corvidlabs/brochure/lib/store/storetest"
)

func TestImpl(t *testing.T) {
	mr := miniredis.RunT(t)

	data, err := json.Marshal(Config{
		URL: "redis://" + mr.Addr() + "/0",
	})
	if err != nil {
		t.Fatal(err)
	}

	storetest.CommonWithAdvance(t, Factory{}, json.RawMessage(data), mr.FastForward)
}

func TestKeyPrefix(t *testing.T) {
	mr := miniredis.RunT(t)

	data, err := json.Marshal(Config{
		URL:       "redis://" + mr.Addr() + "/0",
		KeyPrefix: "site-a:",
	})
	if err != nil {
		t.Fatal(err)
	}

	s, err := Factory{}.Build(t.Context(), data)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Set(t.Context(), "captcha:abc", []byte("x"), time.Minute); err != nil {
		t.Fatal(err)
	}

	got, err := mr.Get("site-a:captcha:abc")
	if err != nil {
		t.Fatalf("wanted prefixed key in server: %v", err)
	}
	if got != "x" {
		t.Errorf("wanted %q, got %q", "x", got)
	}

	if ttl := mr.TTL("site-a:captcha:abc"); ttl != time.Minute {
		t.Errorf("wanted ttl of one minute, got %s", ttl)
	}
}

func TestFactoryValid(t *testing.T) {
	for _, tt := range []struct {
		name string
		cfg  Config
		err  error
	}{
		{name: "no url", cfg: Config{}, err: ErrNoURL},
		{name: "bad url", cfg: Config{URL: "ftp://nope"}, err: ErrBadURL},
		{name: "good", cfg: Config{URL: "redis://localhost:6379/0"}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.cfg)
			if err != nil {
				t.Fatal(err)
			}

			err = Factory{}.Valid(data)
			if !errors.Is(err, tt.err) {
				t.Errorf("wanted %v, got %v", tt.err, err)
			}
			if tt.err != nil && !errors.Is(err, store.ErrBadConfig) {
				t.Errorf("wanted ErrBadConfig wrapping, got %v", err)
			}
		})
	}
}
