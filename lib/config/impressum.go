package config

import (
	"errors"
	"fmt"
)

// Impressum is the legal notice some jurisdictions require on commercial
// sites. Footer is a single line of plain text shown on every page; Body is
// markdown rendered on /impressum.
type Impressum struct {
	Footer string `json:"footer" yaml:"footer"`
	Title  string `json:"title" yaml:"title"`
	Body   string `json:"body" yaml:"body"`
}

func (i Impressum) Valid() error {
	var errs []error

	for _, f := range []struct{ name, value string }{
		{"footer", i.Footer},
		{"title", i.Title},
		{"body", i.Body},
	} {
		if f.value == "" {
			errs = append(errs, fmt.Errorf("%w: impressum %s must be defined", ErrMissingValue, f.name))
		}
	}

	if len(errs) != 0 {
		return errors.Join(errs...)
	}

	return nil
}
