package captcha

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// MinSecretSize is the smallest accepted signing key, in bytes (256 bits).
const MinSecretSize = 32

var (
	ErrNoSecret       = errors.New("captcha: no signing secret configured")
	ErrSecretTooShort = fmt.Errorf("captcha: signing secret must be at least %d bytes", MinSecretSize)
	ErrSecretNotHex   = errors.New("captcha: signing secret is not valid hex")
)

// Secret is the process-wide HMAC key. It is read-only once built.
type Secret struct {
	key []byte
}

// NewSecret copies key into a Secret after checking its length.
func NewSecret(key []byte) (Secret, error) {
	switch {
	case len(key) == 0:
		return Secret{}, ErrNoSecret
	case len(key) < MinSecretSize:
		return Secret{}, fmt.Errorf("%w: got %d", ErrSecretTooShort, len(key))
	}

	buf := make([]byte, len(key))
	copy(buf, key)
	return Secret{key: buf}, nil
}

// ParseSecret decodes a hex encoded key, as read from a flag or a secret file.
func ParseSecret(s string) (Secret, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Secret{}, ErrNoSecret
	}

	key, err := hex.DecodeString(s)
	if err != nil {
		return Secret{}, fmt.Errorf("%w: %w", ErrSecretNotHex, err)
	}

	return NewSecret(key)
}

// GenerateSecret returns a fresh random key of MinSecretSize bytes, hex encoded.
func GenerateSecret() (string, error) {
	buf := make([]byte, MinSecretSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("captcha: can't read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// IsZero reports whether the Secret was never initialised.
func (s Secret) IsZero() bool { return len(s.key) == 0 }

// Derive returns a key for another purpose bound to this secret, so one
// configured secret can seed independent keys.
func (s Secret) Derive(purpose string) []byte {
	return s.sign([]byte("brochure/derive/" + purpose))
}

func (s Secret) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(payload)
	return mac.Sum(nil)
}

func (s Secret) tag(payload string) string {
	return hex.EncodeToString(s.sign([]byte(payload)))
}
