package store_test

import (
	"errors"
	"testing"
	"time"

	"github.com/corvidlabs/brochure/lib/store"
	"github.com/corvidlabs/brochure/lib/store/memory"
)

func TestJSON(t *testing.T) {
	type record struct {
		Answer   int   `json:"answer"`
		IssuedAt int64 `json:"issuedAt"`
	}

	st := memory.New(t.Context())
	db := store.JSON[record]{
		Underlying: st,
		Prefix:     "captcha:",
	}

	if err := db.Set(t.Context(), "test", record{Answer: 19, IssuedAt: 1700000000}, time.Minute); err != nil {
		t.Fatal(err)
	}

	got, err := db.Get(t.Context(), "test")
	if err != nil {
		t.Fatal(err)
	}

	if got.Answer != 19 || got.IssuedAt != 1700000000 {
		t.Fatalf("got wrong data for key \"test\": %+v", got)
	}

	if _, err := st.Get(t.Context(), "captcha:test"); err != nil {
		t.Errorf("prefix was not applied to the underlying key: %v", err)
	}

	if err := db.Delete(t.Context(), "test"); err != nil {
		t.Fatal(err)
	}

	if _, err := db.Get(t.Context(), "test"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("wanted ErrNotFound after delete, got: %v", err)
	}

	if err := st.Set(t.Context(), "captcha:test", []byte("}"), time.Minute); err != nil {
		t.Fatal(err)
	}

	if _, err := db.Get(t.Context(), "test"); !errors.Is(err, store.ErrCantDecode) {
		t.Fatalf("wanted ErrCantDecode for garbage, got: %v", err)
	}
}

func TestMethods(t *testing.T) {
	methods := store.Methods()
	found := false
	for _, m := range methods {
		if m == "memory" {
			found = true
		}
	}

	if !found {
		t.Errorf("memory backend is not registered, got %v", methods)
	}

	if _, err := store.Build(t.Context(), "taco salad", nil); !errors.Is(err, store.ErrBadConfig) {
		t.Errorf("wanted ErrBadConfig for unknown backend, got %v", err)
	}
}
