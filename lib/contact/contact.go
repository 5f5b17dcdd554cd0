package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/corvidlabs/brochure/lib/content"
	"github.com/corvidlabs/brochure/lib/notify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var messagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "brochure_contact_messages_total",
	Help: "Contact form submissions by outcome",
}, []string{"status"})

// Verifier checks a CAPTCHA answer. *captcha.Verifier satisfies it.
type Verifier interface {
	Verify(ctx context.Context, answer any, token string) bool
}

type Messages interface {
	Create(ctx context.Context, m *content.Message) error
}

type Dispatcher interface {
	Dispatch(ctx context.Context, n notify.Notification)
}

// Meta is request data stored with a message.
type Meta struct {
	IP        string
	UserAgent string
}

type Service struct {
	verifier   Verifier
	messages   Messages
	dispatcher Dispatcher
	siteName   string
	logger     *slog.Logger
}

func NewService(v Verifier, m Messages, d Dispatcher, siteName string, lg *slog.Logger) *Service {
	if lg == nil {
		lg = slog.Default()
	}
	return &Service{
		verifier:   v,
		messages:   m,
		dispatcher: d,
		siteName:   siteName,
		logger:     lg.With("subsystem", "contact"),
	}
}

// Submit validates f, verifies its CAPTCHA, stores it and queues a
// notification. Invalid input is reported as *ValidationError; a failed
// CAPTCHA is a field error on captcha_answer. Notification problems never
// reach the caller.
func (s *Service) Submit(ctx context.Context, f Form, meta Meta) (*content.Message, error) {
	ve := f.Validate()

	if !s.verifier.Verify(ctx, f.CaptchaAnswer, f.CaptchaToken) {
		if ve == nil {
			ve = &ValidationError{}
		}
		ve.add(FieldCaptchaAnswer, MsgCaptchaFailed)
		messagesTotal.WithLabelValues("captcha_failed").Inc()
	}

	if ve != nil {
		if _, captcha := ve.Fields[FieldCaptchaAnswer]; !captcha {
			messagesTotal.WithLabelValues("invalid").Inc()
		}
		return nil, ve
	}

	msg := &content.Message{
		Name:      f.Name,
		Email:     f.Email,
		Phone:     f.Phone,
		Company:   f.Company,
		Subject:   f.Subject,
		Body:      f.Message,
		IP:        meta.IP,
		UserAgent: truncate(meta.UserAgent, 500),
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		messagesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("contact: can't store message: %w", err)
	}

	messagesTotal.WithLabelValues("accepted").Inc()
	s.logger.Info("contact message stored", "id", msg.ID, "ip", meta.IP)

	s.dispatcher.Dispatch(ctx, notify.FromMessage(s.siteName, *msg))

	return msg, nil
}

// IsValidation reports whether err is a *ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
