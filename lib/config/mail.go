package config

import (
	"errors"
	"fmt"
	"net/mail"
	"time"
)

var (
	ErrBadAddress     = errors.New("config.Mail: invalid email address")
	ErrNoRecipients   = errors.New("config.Mail: at least one recipient is required")
	ErrBadTLSPolicy   = errors.New("config.Mail: tls must be one of mandatory, opportunistic or none")
	ErrBadPort        = errors.New("config.Mail: port must be between 1 and 65535")
	ErrMailTimeout    = errors.New("config.Mail: timeout must be positive")
	ErrMailNoSMTPHost = errors.New("config.Mail: host is required when mail is enabled")
)

type TLSPolicy string

const (
	TLSMandatory     TLSPolicy = "mandatory"
	TLSOpportunistic TLSPolicy = "opportunistic"
	TLSNone          TLSPolicy = "none"
)

// Mail configures contact form notifications. When disabled, notifications
// are only logged.
type Mail struct {
	Enabled  bool      `json:"enabled" yaml:"enabled"`
	Host     string    `json:"host,omitempty" yaml:"host,omitempty"`
	Port     int       `json:"port,omitempty" yaml:"port,omitempty"`
	Username string    `json:"username,omitempty" yaml:"username,omitempty"`
	Password string    `json:"password,omitempty" yaml:"password,omitempty"`
	TLS      TLSPolicy `json:"tls,omitempty" yaml:"tls,omitempty"`
	From     string    `json:"from,omitempty" yaml:"from,omitempty"`
	To       []string  `json:"to,omitempty" yaml:"to,omitempty"`
	Timeout  Duration  `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// WithDefaults fills in the port, TLS policy and timeout.
func (m Mail) WithDefaults() Mail {
	if m.Port == 0 {
		m.Port = 587
	}
	if m.TLS == "" {
		m.TLS = TLSOpportunistic
	}
	if m.Timeout == 0 {
		m.Timeout = Duration(10 * time.Second)
	}
	return m
}

func (m Mail) Valid() error {
	if !m.Enabled {
		return nil
	}

	m = m.WithDefaults()
	var errs []error

	if m.Host == "" {
		errs = append(errs, ErrMailNoSMTPHost)
	}

	if m.Port < 1 || m.Port > 65535 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrBadPort, m.Port))
	}

	switch m.TLS {
	case TLSMandatory, TLSOpportunistic, TLSNone:
	default:
		errs = append(errs, fmt.Errorf("%w: got %q", ErrBadTLSPolicy, m.TLS))
	}

	if err := validAddress(m.From); err != nil {
		errs = append(errs, fmt.Errorf("from: %w", err))
	}

	if len(m.To) == 0 {
		errs = append(errs, ErrNoRecipients)
	}

	for _, to := range m.To {
		if err := validAddress(to); err != nil {
			errs = append(errs, fmt.Errorf("to: %w", err))
		}
	}

	if m.Timeout.Std() <= 0 {
		errs = append(errs, ErrMailTimeout)
	}

	if len(errs) != 0 {
		return errors.Join(errs...)
	}

	return nil
}

func validAddress(addr string) error {
	if _, err := mail.ParseAddress(addr); err != nil {
		return fmt.Errorf("%w %q: %w", ErrBadAddress, addr, err)
	}
	return nil
}
