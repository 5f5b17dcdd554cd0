package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/corvidlabs/brochure/lib/store"
	_ "github.com/corvidlabs/brochure/lib/store/all"
)

var (
	ErrNoStoreBackend      = errors.New("config.Store: no backend defined")
	ErrUnknownStoreBackend = errors.New("config.Store: unknown backend")
	ErrBadStoreParameters  = errors.New("config.Store: parameters must be a mapping")
)

// Store selects the short-lived key/value backend used for CAPTCHA records
// and admin session revocation. Parameters is handed to the backend as is.
type Store struct {
	Backend    string          `json:"backend"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

func (s *Store) Valid() error {
	if s.Backend == "" {
		return ErrNoStoreBackend
	}

	fac, ok := store.Get(s.Backend)
	if !ok {
		return fmt.Errorf("%w: %q (known: %v)", ErrUnknownStoreBackend, s.Backend, store.Methods())
	}

	if !s.parametersAreMapping() {
		return fmt.Errorf("%w, got %s", ErrBadStoreParameters, bytes.TrimSpace(s.Parameters))
	}

	if err := fac.Valid(s.Parameters); err != nil {
		return fmt.Errorf("store backend %s: %w", s.Backend, err)
	}

	return nil
}

func (s *Store) parametersAreMapping() bool {
	p := bytes.TrimSpace(s.Parameters)
	if len(p) == 0 || bytes.Equal(p, []byte("null")) {
		return true
	}
	return p[0] == '{' && json.Valid(p)
}

// Open builds the configured backend. Its background work stops when ctx
// is done.
func (s *Store) Open(ctx context.Context) (store.Interface, error) {
	if err := s.Valid(); err != nil {
		return nil, err
	}

	st, err := store.Build(ctx, s.Backend, s.Parameters)
	if err != nil {
		return nil, fmt.Errorf("can't open %s store: %w", s.Backend, err)
	}
	return st, nil
}

// Durable reports whether records survive a restart of this process.
func (s *Store) Durable() bool {
	return s.Backend != "memory"
}
