package decaymap

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	lock sync.Mutex
	t    time.Time
}

func (f *fakeClock) Now() time.Time {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.t = f.t.Add(d)
}

func TestImpl(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	dm := NewWithClock[string, string](clk.Now)

	dm.Set("test", "hi", 5*time.Minute)

	val, ok := dm.Get("test")
	if !ok {
		t.Error("somehow the test key was not set")
	}

	if val != "hi" {
		t.Errorf("wanted value %q, got: %q", "hi", val)
	}

	clk.Advance(5*time.Minute + time.Second)

	if _, ok := dm.Get("test"); ok {
		t.Error("got value even though it was supposed to be expired")
	}

	if dm.Len() != 0 {
		t.Errorf("expired entry should have been dropped on access, len is %d", dm.Len())
	}
}

func TestDelete(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	dm := NewWithClock[string, int](clk.Now)

	if dm.Delete("missing") {
		t.Error("deleting a missing key reported success")
	}

	dm.Set("a", 1, time.Minute)
	if !dm.Delete("a") {
		t.Error("deleting a live key reported failure")
	}

	dm.Set("b", 2, time.Minute)
	clk.Advance(2 * time.Minute)
	if dm.Delete("b") {
		t.Error("deleting an expired key reported a live removal")
	}
}

func TestCleanup(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	dm := NewWithClock[string, int](clk.Now)

	dm.Set("short", 1, time.Second)
	dm.Set("long", 2, time.Hour)

	clk.Advance(time.Minute)
	dm.Cleanup()

	if dm.Len() != 1 {
		t.Fatalf("wanted 1 entry after cleanup, got %d", dm.Len())
	}

	if v, ok := dm.Get("long"); !ok || v != 2 {
		t.Errorf("long-lived entry lost: %v %v", v, ok)
	}
}
