// Package notify tells site owners about new contact form messages.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/corvidlabs/brochure/lib/content"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "brochure_notifications_total",
	Help: "Contact notifications by result",
}, []string{"result"})

// Notification is one outgoing alert.
type Notification struct {
	Subject string
	Body    string
	ReplyTo string
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// FromMessage formats a stored contact message.
func FromMessage(site string, m content.Message) Notification {
	subject := m.Subject
	if subject == "" {
		subject = "New message from " + m.Name
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "A new message was sent through the %s contact form.\n\n", site)
	for _, f := range []struct{ label, value string }{
		{"Name", m.Name},
		{"Email", m.Email},
		{"Phone", m.Phone},
		{"Company", m.Company},
		{"Subject", m.Subject},
	} {
		if f.value != "" {
			fmt.Fprintf(&sb, "%s: %s\n", f.label, f.value)
		}
	}
	fmt.Fprintf(&sb, "\n%s\n\n--\nMessage #%d from %s\n", m.Body, m.ID, m.IP)

	return Notification{
		Subject: "[" + site + "] " + subject,
		Body:    sb.String(),
		ReplyTo: m.Email,
	}
}

// LogNotifier writes notifications to the log. Used when mail is disabled.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(_ context.Context, n Notification) error {
	lg := l.Logger
	if lg == nil {
		lg = slog.Default()
	}
	lg.Info("contact notification", "subject", n.Subject, "reply_to", n.ReplyTo, "body", n.Body)
	return nil
}

// Dispatcher sends notifications in the background so a slow or broken mail
// server never holds up the contact form.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	logger   *slog.Logger
	wg       sync.WaitGroup
}

func NewDispatcher(n Notifier, timeout time.Duration, lg *slog.Logger) *Dispatcher {
	if lg == nil {
		lg = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{notifier: n, timeout: timeout, logger: lg.With("subsystem", "notify")}
}

// Dispatch returns immediately. Failures are logged and counted.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		if err := d.notifier.Notify(ctx, n); err != nil {
			notificationsTotal.WithLabelValues("failed").Inc()
			d.logger.Error("can't send contact notification", "subject", n.Subject, "err", err)
			return
		}

		notificationsTotal.WithLabelValues("sent").Inc()
	}()
}

// Wait blocks until every dispatched notification has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
