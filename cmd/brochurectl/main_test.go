package main

import (
	"bytes"
	"encoding/hex"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/corvidlabs/brochure/lib/auth"
	"github.com/corvidlabs/brochure/lib/captcha"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestSecretGenerate(t *testing.T) {
	out, err := run(t, "", "secret", "generate")
	if err != nil {
		t.Fatal(err)
	}

	s := strings.TrimSpace(out)
	raw, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("output %q is not hex: %v", s, err)
	}
	if len(raw) != captcha.MinSecretSize {
		t.Errorf("wanted %d bytes, got %d", captcha.MinSecretSize, len(raw))
	}

	if _, err := captcha.ParseSecret(s); err != nil {
		t.Errorf("generated secret does not parse: %v", err)
	}
}

func TestConfig(t *testing.T) {
	out, err := run(t, "", "config", "validate")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "config is valid") {
		t.Errorf("unexpected output: %q", out)
	}

	out, err = run(t, "", "config", "print")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"name: Corvid Labs",
		"backend: memory",
		"sessionTTL: 12h0m0s",
		"storeTimeout: 250ms",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("config print output lacks %q:\n%s", want, out)
		}
	}

	if _, err := run(t, "", "config", "validate", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("wanted an error for a missing file")
	}
}

func TestUser(t *testing.T) {
	db := filepath.Join(t.TempDir(), "brochure.db")

	for _, tt := range []struct {
		name  string
		stdin string
		args  []string
		err   error
		ok    bool
	}{
		{
			name: "flag password",
			args: []string{"user", "add", "--db", db, "--name", "Ada", "--password", "correct horse battery", "Ada@Example.com"},
			ok:   true,
		},
		{
			name:  "stdin password",
			stdin: "another long password\n",
			args:  []string{"user", "add", "--db", db, "bob@example.com"},
			ok:    true,
		},
		{
			name: "short password",
			args: []string{"user", "add", "--db", db, "--password", "short", "carol@example.com"},
			err:  auth.ErrPasswordTooShort,
		},
		{
			name: "no password",
			args: []string{"user", "add", "--db", db, "dave@example.com"},
			err:  ErrNoPassword,
		},
		{
			name: "bad email",
			args: []string{"user", "add", "--db", db, "--password", "correct horse battery", "not an email"},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.stdin, tt.args...)
			switch {
			case tt.ok && err != nil:
				t.Fatalf("unexpected error: %v", err)
			case !tt.ok && err == nil:
				t.Fatal("wanted an error")
			case tt.err != nil && !errors.Is(err, tt.err):
				t.Fatalf("wanted %v, got %v", tt.err, err)
			}
		})
	}

	out, err := run(t, "", "user", "list", "--db", db)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"ada@example.com", "Ada", "bob@example.com"} {
		if !strings.Contains(out, want) {
			t.Errorf("user list lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "carol@example.com") {
		t.Errorf("user with a rejected password was created:\n%s", out)
	}

	if _, err := run(t, "", "user", "add", "--db", db, "--password", "correct horse battery", "ada@example.com"); err == nil {
		t.Error("wanted an error adding the same email twice")
	}
}

func TestSeed(t *testing.T) {
	db := filepath.Join(t.TempDir(), "brochure.db")

	out, err := run(t, "", "seed", "--db", db)
	if err != nil {
		t.Fatal(err)
	}
	if out == "created 0 records\n" {
		t.Error("first seed created nothing")
	}

	out, err = run(t, "", "seed", "--db", db)
	if err != nil {
		t.Fatal(err)
	}
	if out != "created 0 records\n" {
		t.Errorf("second seed should be a no-op, got %q", out)
	}

	if _, err := run(t, "", "seed", "--db", db, "--file", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("wanted an error for a missing seed file")
	}
}
