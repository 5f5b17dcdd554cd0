package store

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Factory builds a store backend from the `parameters` block of the site
// configuration. Backends register one from an init function.
type Factory interface {
	Build(ctx context.Context, config json.RawMessage) (Interface, error)
	Valid(config json.RawMessage) error
}

var backends = struct {
	sync.RWMutex
	byName map[string]Factory
}{byName: map[string]Factory{}}

// Register panics on a duplicate name; that is a programming error caught at
// init time.
func Register(name string, f Factory) {
	backends.Lock()
	defer backends.Unlock()

	if _, ok := backends.byName[name]; ok {
		panic(fmt.Sprintf("store: backend %q registered twice", name))
	}
	backends.byName[name] = f
}

func Get(name string) (Factory, bool) {
	backends.RLock()
	defer backends.RUnlock()

	f, ok := backends.byName[name]
	return f, ok
}

// Methods lists registered backend names in sorted order.
func Methods() []string {
	backends.RLock()
	defer backends.RUnlock()

	return slices.Sorted(maps.Keys(backends.byName))
}

// Build validates params for backend and builds it. The backend's
// background work stops when ctx is done.
func Build(ctx context.Context, backend string, params json.RawMessage) (Interface, error) {
	f, ok := Get(backend)
	if !ok {
		return nil, fmt.Errorf("%w: unknown backend %q (known: %v)", ErrBadConfig, backend, Methods())
	}

	if err := f.Valid(params); err != nil {
		return nil, err
	}

	return f.Build(ctx, params)
}
