// Package decaymap is a small in-process map whose entries expire after a
// per-entry time to live.
package decaymap

import (
	"sync"
	"time"
)

// Zilch returns the zero value of T.
func Zilch[T any]() T {
	var zero T
	return zero
}

type entry[V any] struct {
	value  V
	expiry time.Time
}

// Impl is a lazily expiring map. Expired entries are invisible to Get and
// are physically removed by Cleanup or on access.
type Impl[K comparable, V any] struct {
	data map[K]entry[V]
	lock sync.RWMutex
	now  func() time.Time
}

// New creates an empty map using the wall clock.
func New[K comparable, V any]() *Impl[K, V] {
	return NewWithClock[K, V](time.Now)
}

// NewWithClock creates an empty map that reads the time from now.
func NewWithClock[K comparable, V any](now func() time.Time) *Impl[K, V] {
	return &Impl[K, V]{
		data: make(map[K]entry[V]),
		now:  now,
	}
}

// Get returns the value for key if it exists and has not expired.
func (m *Impl[K, V]) Get(key K) (V, bool) {
	m.lock.RLock()
	e, ok := m.data[key]
	m.lock.RUnlock()

	if !ok {
		return Zilch[V](), false
	}

	if m.now().After(e.expiry) {
		m.lock.Lock()
		// re-check under the write lock, a concurrent Set may have refreshed it
		if cur, ok := m.data[key]; ok && m.now().After(cur.expiry) {
			delete(m.data, key)
		}
		m.lock.Unlock()
		return Zilch[V](), false
	}

	return e.value, true
}

// Set stores value under key until ttl has elapsed.
func (m *Impl[K, V]) Set(key K, value V, ttl time.Duration) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.data[key] = entry[V]{
		value:  value,
		expiry: m.now().Add(ttl),
	}
}

// Delete removes key and reports whether a live entry was removed.
func (m *Impl[K, V]) Delete(key K) bool {
	m.lock.Lock()
	defer m.lock.Unlock()

	e, ok := m.data[key]
	if !ok {
		return false
	}
	delete(m.data, key)

	return !m.now().After(e.expiry)
}

// Cleanup drops every expired entry.
func (m *Impl[K, V]) Cleanup() {
	m.lock.Lock()
	defer m.lock.Unlock()

	now := m.now()
	for key, e := range m.data {
		if now.After(e.expiry) {
			delete(m.data, key)
		}
	}
}

// Len returns the number of stored entries, expired or not.
func (m *Impl[K, V]) Len() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.data)
}
