package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/corvidlabs/brochure/lib/config"
	"github.com/google/go-cmp/cmp"
)

func TestDefaultsAreValid(t *testing.T) {
	if err := config.Defaults().Valid(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadOrDefaultBuiltin(t *testing.T) {
	c, err := config.LoadOrDefault("")
	if err != nil {
		t.Fatal(err)
	}

	if c.Store.Backend != "memory" {
		t.Errorf("wanted memory store, got %q", c.Store.Backend)
	}

	if !c.Database.Seed {
		t.Error("builtin config should seed sample content")
	}

	if got := c.Captcha.StoreTimeout.Std(); got != 250*time.Millisecond {
		t.Errorf("wanted 250ms store timeout, got %s", got)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	const input = `
site:
  name: Example GmbH
  baseURL: https://example.com
  defaultLanguage: de
admin:
  sessionTTL: 30m
  allowedCIDRs:
    - 10.0.0.0/8
impressum:
  footer: Example GmbH, Musterstraße 1
  title: Impressum
  body: "# Impressum"
`

	got, err := config.Load(strings.NewReader(input), "test.yaml")
	if err != nil {
		t.Fatal(err)
	}

	want := config.Defaults()
	want.Site.Name = "Example GmbH"
	want.Site.BaseURL = "https://example.com"
	want.Site.DefaultLanguage = "de"
	want.Admin.SessionTTL = config.Duration(30 * time.Minute)
	want.Admin.AllowedCIDRs = []string{"10.0.0.0/8"}
	want.Impressum = &config.Impressum{
		Footer: "Example GmbH, Musterstraße 1",
		Title:  "Impressum",
		Body:   "# Impressum",
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	for _, tt := range []struct {
		name  string
		input string
		err   error
	}{
		{
			name:  "bad base URL",
			input: "site:\n  baseURL: example.com\n",
			err:   config.ErrBadBaseURL,
		},
		{
			name:  "bad language",
			input: "site:\n  defaultLanguage: \"!!\"\n",
			err:   config.ErrBadLanguage,
		},
		{
			name:  "bad CIDR",
			input: "admin:\n  allowedCIDRs: [\"10.0.0.0/33\"]\n",
			err:   config.ErrBadCIDR,
		},
		{
			name:  "short session",
			input: "admin:\n  sessionTTL: 10s\n",
			err:   config.ErrSessionTTLTooLow,
		},
		{
			name:  "store timeout too long",
			input: "captcha:\n  storeTimeout: 1m\n",
			err:   config.ErrStoreTimeoutRange,
		},
		{
			name:  "bad upload prefix",
			input: "uploads:\n  urlPrefix: uploads\n",
			err:   config.ErrBadURLPrefix,
		},
		{
			name:  "bad mime type",
			input: "uploads:\n  allowedTypes: [\"image/\"]\n",
			err:   config.ErrBadMIMEType,
		},
		{
			name:  "mail without host",
			input: "mail:\n  enabled: true\n  from: a@example.com\n  to: [b@example.com]\n",
			err:   config.ErrMailNoSMTPHost,
		},
		{
			name:  "mail without recipients",
			input: "mail:\n  enabled: true\n  host: smtp.example.com\n  from: a@example.com\n",
			err:   config.ErrNoRecipients,
		},
		{
			name:  "mail bad tls",
			input: "mail:\n  enabled: true\n  host: smtp.example.com\n  tls: sometimes\n  from: a@example.com\n  to: [b@example.com]\n",
			err:   config.ErrBadTLSPolicy,
		},
		{
			name:  "mail bad sender",
			input: "mail:\n  enabled: true\n  host: smtp.example.com\n  from: nope\n  to: [b@example.com]\n",
			err:   config.ErrBadAddress,
		},
		{
			name:  "empty impressum",
			input: "impressum:\n  footer: hi\n",
			err:   config.ErrMissingValue,
		},
		{
			name:  "unknown store",
			input: "store:\n  backend: floppy\n",
			err:   config.ErrUnknownStoreBackend,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(strings.NewReader(tt.input), tt.name)
			if !errors.Is(err, tt.err) {
				t.Logf("want: %v", tt.err)
				t.Logf("got:  %v", err)
				t.Error("invalid error returned")
			}
		})
	}
}

func TestLoadBadDuration(t *testing.T) {
	if _, err := config.Load(strings.NewReader("admin:\n  sessionTTL: forever\n"), "bad.yaml"); err == nil {
		t.Error("wanted an error for an unparseable duration")
	}
}

func TestLoadOrDefaultFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "site.yaml")
	if err := os.WriteFile(fname, []byte("site:\n  name: From Disk\n"), 0600); err != nil {
		t.Fatal(err)
	}

	c, err := config.LoadOrDefault(fname)
	if err != nil {
		t.Fatal(err)
	}

	if c.Site.Name != "From Disk" {
		t.Errorf("wanted name from file, got %q", c.Site.Name)
	}

	if _, err := config.LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("wanted os.ErrNotExist, got %v", err)
	}
}

func TestMailDefaults(t *testing.T) {
	m := config.Mail{}.WithDefaults()

	if m.Port != 587 || m.TLS != config.TLSOpportunistic || m.Timeout.Std() != 10*time.Second {
		t.Errorf("unexpected defaults: %+v", m)
	}

	if err := (config.Mail{Host: ""}).Valid(); err != nil {
		t.Errorf("disabled mail should always be valid, got %v", err)
	}
}
