package config

import (
	"errors"
	"fmt"
	"mime"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/language"
)

var (
	ErrMissingValue      = errors.New("config: missing value")
	ErrBadBaseURL        = errors.New("config.Site: base URL must be an absolute http(s) URL")
	ErrBadLanguage       = errors.New("config.Site: default language is not a valid BCP 47 tag")
	ErrBadCIDR           = errors.New("config.Admin: invalid CIDR")
	ErrBadMaxBytes       = errors.New("config.Uploads: maxBytes must be positive")
	ErrBadMIMEType       = errors.New("config.Uploads: invalid MIME type")
	ErrBadURLPrefix      = errors.New("config.Uploads: urlPrefix must start and end with /")
	ErrSessionTTLTooLow  = errors.New("config.Admin: session TTL must be at least one minute")
	ErrStoreTimeoutRange = errors.New("config.Captcha: store timeout must be between 1ms and 5s")
)

type Site struct {
	Name            string `json:"name" yaml:"name"`
	BaseURL         string `json:"baseURL" yaml:"baseURL"`
	DefaultLanguage string `json:"defaultLanguage" yaml:"defaultLanguage"`
	ContactEmail    string `json:"contactEmail,omitempty" yaml:"contactEmail,omitempty"`
	ServeRobotsTXT  bool   `json:"serveRobotsTXT,omitempty" yaml:"serveRobotsTXT,omitempty"`
}

func (s Site) Valid() error {
	var errs []error

	if s.Name == "" {
		errs = append(errs, fmt.Errorf("%w: site name", ErrMissingValue))
	}

	u, err := url.Parse(s.BaseURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("%w: %q", ErrBadBaseURL, s.BaseURL))
	}

	if _, err := language.Parse(s.DefaultLanguage); err != nil {
		errs = append(errs, fmt.Errorf("%w: %q", ErrBadLanguage, s.DefaultLanguage))
	}

	if s.ContactEmail != "" {
		if err := validAddress(s.ContactEmail); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) != 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Database is the sqlite content database.
type Database struct {
	Path string `json:"path" yaml:"path"`

	// Seed loads the built-in sample content into empty tables on startup.
	Seed bool `json:"seed,omitempty" yaml:"seed,omitempty"`
}

func (d Database) Valid() error {
	if d.Path == "" {
		return fmt.Errorf("%w: database path", ErrMissingValue)
	}
	return nil
}

type Uploads struct {
	Dir          string   `json:"dir" yaml:"dir"`
	URLPrefix    string   `json:"urlPrefix" yaml:"urlPrefix"`
	MaxBytes     int64    `json:"maxBytes" yaml:"maxBytes"`
	AllowedTypes []string `json:"allowedTypes" yaml:"allowedTypes"`
}

func (u Uploads) Valid() error {
	var errs []error

	if u.Dir == "" {
		errs = append(errs, fmt.Errorf("%w: uploads dir", ErrMissingValue))
	}

	if !strings.HasPrefix(u.URLPrefix, "/") || !strings.HasSuffix(u.URLPrefix, "/") {
		errs = append(errs, fmt.Errorf("%w: %q", ErrBadURLPrefix, u.URLPrefix))
	}

	if u.MaxBytes <= 0 {
		errs = append(errs, ErrBadMaxBytes)
	}

	for _, t := range u.AllowedTypes {
		if _, _, err := mime.ParseMediaType(t); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q: %w", ErrBadMIMEType, t, err))
		}
	}

	if len(errs) != 0 {
		return errors.Join(errs...)
	}

	return nil
}

type Admin struct {
	// AllowedCIDRs restricts the admin API to these networks. Empty allows all.
	AllowedCIDRs []string `json:"allowedCIDRs,omitempty" yaml:"allowedCIDRs,omitempty"`
	CookieDomain string   `json:"cookieDomain,omitempty" yaml:"cookieDomain,omitempty"`
	SessionTTL   Duration `json:"sessionTTL" yaml:"sessionTTL"`
	SecureCookie bool     `json:"secureCookie,omitempty" yaml:"secureCookie,omitempty"`
}

func (a Admin) Valid() error {
	var errs []error

	for _, cidr := range a.AllowedCIDRs {
		if _, err := netip.ParsePrefix(cidr); err != nil {
			errs = append(errs, fmt.Errorf("%w %q: %w", ErrBadCIDR, cidr, err))
		}
	}

	if a.SessionTTL.Std() < time.Minute {
		errs = append(errs, fmt.Errorf("%w: got %s", ErrSessionTTLTooLow, a.SessionTTL))
	}

	if len(errs) != 0 {
		return errors.Join(errs...)
	}

	return nil
}

type Captcha struct {
	// Record mirrors issued challenges into the store.
	Record       bool     `json:"record" yaml:"record"`
	StoreTimeout Duration `json:"storeTimeout" yaml:"storeTimeout"`
}

func (c Captcha) Valid() error {
	if c.StoreTimeout.Std() < time.Millisecond || c.StoreTimeout.Std() > 5*time.Second {
		return fmt.Errorf("%w: got %s", ErrStoreTimeoutRange, c.StoreTimeout)
	}
	return nil
}
