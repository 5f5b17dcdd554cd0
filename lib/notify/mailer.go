package notify

import (
	"context"
	"fmt"

	"github.com/corvidlabs/brochure/lib/config"
	"github.com/wneessen/go-mail"
)

// Mailer delivers notifications over SMTP.
type Mailer struct {
	client *mail.Client
	from   string
	to     []string
}

func NewMailer(cfg config.Mail) (*Mailer, error) {
	cfg = cfg.WithDefaults()

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(cfg.Timeout.Std()),
		mail.WithTLSPolicy(tlsPolicy(cfg.TLS)),
	}

	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("notify: can't create SMTP client for %s: %w", cfg.Host, err)
	}

	return &Mailer{client: client, from: cfg.From, to: cfg.To}, nil
}

func tlsPolicy(p config.TLSPolicy) mail.TLSPolicy {
	switch p {
	case config.TLSMandatory:
		return mail.TLSMandatory
	case config.TLSNone:
		return mail.NoTLS
	default:
		return mail.TLSOpportunistic
	}
}

func (m *Mailer) message(n Notification) (*mail.Msg, error) {
	msg := mail.NewMsg()

	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("notify: bad from address: %w", err)
	}
	if err := msg.To(m.to...); err != nil {
		return nil, fmt.Errorf("notify: bad recipient: %w", err)
	}
	if n.ReplyTo != "" {
		if err := msg.ReplyTo(n.ReplyTo); err != nil {
			return nil, fmt.Errorf("notify: bad reply-to address: %w", err)
		}
	}

	msg.Subject(n.Subject)
	msg.SetDate()
	msg.SetMessageID()
	msg.SetBodyString(mail.TypeTextPlain, n.Body)

	return msg, nil
}

func (m *Mailer) Notify(ctx context.Context, n Notification) error {
	msg, err := m.message(n)
	if err != nil {
		return err
	}

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("notify: can't deliver mail: %w", err)
	}

	return nil
}
