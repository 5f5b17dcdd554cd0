// Package config loads and validates the site configuration file.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/corvidlabs/brochure/data"
	"k8s.io/apimachinery/pkg/util/yaml"
)

// DefaultFile is the name of the built-in configuration inside data.FS.
const DefaultFile = "brochure.yaml"

type Config struct {
	Site      Site       `json:"site"`
	Store     Store      `json:"store"`
	Database  Database   `json:"database"`
	Mail      Mail       `json:"mail"`
	Uploads   Uploads    `json:"uploads"`
	Admin     Admin      `json:"admin"`
	Captcha   Captcha    `json:"captcha"`
	Impressum *Impressum `json:"impressum,omitempty"`
}

func (c *Config) Valid() error {
	var errs []error

	for _, v := range []interface{ Valid() error }{
		c.Site,
		&c.Store,
		c.Database,
		c.Mail,
		c.Uploads,
		c.Admin,
		c.Captcha,
	} {
		if err := v.Valid(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.Impressum != nil {
		if err := c.Impressum.Valid(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) != 0 {
		return fmt.Errorf("config is not valid:\n%w", errors.Join(errs...))
	}

	return nil
}

// Defaults returns the configuration used for any value a file leaves out.
func Defaults() *Config {
	return &Config{
		Site: Site{
			Name:            "Brochure",
			BaseURL:         "http://localhost:8923",
			DefaultLanguage: "en",
		},
		Store: Store{
			Backend: "memory",
		},
		Database: Database{
			Path: "brochure.db",
		},
		Uploads: Uploads{
			Dir:          "uploads",
			URLPrefix:    "/uploads/",
			MaxBytes:     5 << 20,
			AllowedTypes: []string{"image/png", "image/jpeg", "image/webp", "image/gif", "application/pdf"},
		},
		Admin: Admin{
			SessionTTL: Duration(12 * 60 * 60 * 1e9),
		},
		Captcha: Captcha{
			Record:       true,
			StoreTimeout: Duration(250 * 1e6),
		},
	}
}

// Load decodes YAML from fin over Defaults and validates the result.
func Load(fin io.Reader, fname string) (*Config, error) {
	c := Defaults()

	if err := yaml.NewYAMLToJSONDecoder(fin).Decode(c); err != nil {
		return nil, fmt.Errorf("can't parse site config YAML %s: %w", fname, err)
	}

	if err := c.Valid(); err != nil {
		return nil, fmt.Errorf("errors validating site config %s: %w", fname, err)
	}

	return c, nil
}

// LoadOrDefault reads fname, or the embedded default when fname is empty.
func LoadOrDefault(fname string) (*Config, error) {
	var fin io.ReadCloser
	var err error

	if fname != "" {
		fin, err = os.Open(fname)
		if err != nil {
			return nil, fmt.Errorf("can't open site config %s: %w", fname, err)
		}
	} else {
		fname = "(data)/" + DefaultFile
		fin, err = data.FS.Open(DefaultFile)
		if err != nil {
			return nil, fmt.Errorf("[unexpected] can't open builtin site config %s: %w", fname, err)
		}
	}

	defer func(fin io.ReadCloser) {
		if err := fin.Close(); err != nil {
			slog.Error("failed to close site config", "file", fname, "err", err)
		}
	}(fin)

	return Load(fin, fname)
}
