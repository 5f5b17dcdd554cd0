package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/corvidlabs/brochure/lib/config"
	"github.com/corvidlabs/brochure/lib/content"
)

type recordingNotifier struct {
	lock sync.Mutex
	got  []Notification
	err  error
	wait time.Duration
}

func (r *recordingNotifier) Notify(ctx context.Context, n Notification) error {
	if r.wait > 0 {
		select {
		case <-time.After(r.wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	r.got = append(r.got, n)
	return r.err
}

func TestFromMessage(t *testing.T) {
	m := content.Message{
		Base:    content.Base{ID: 42},
		Name:    "Jo Doe",
		Email:   "jo@example.com",
		Company: "Acme",
		Body:    "We need a website.",
		IP:      "203.0.113.9",
	}

	n := FromMessage("Corvid Labs", m)

	if n.Subject != "[Corvid Labs] New message from Jo Doe" {
		t.Errorf("unexpected subject %q", n.Subject)
	}
	if n.ReplyTo != "jo@example.com" {
		t.Errorf("unexpected reply-to %q", n.ReplyTo)
	}

	for _, want := range []string{"Company: Acme", "We need a website.", "Message #42 from 203.0.113.9"} {
		if !strings.Contains(n.Body, want) {
			t.Errorf("wanted %q in body:\n%s", want, n.Body)
		}
	}
	if strings.Contains(n.Body, "Phone:") {
		t.Error("empty phone should be left out")
	}
}

func TestDispatcherDoesNotBlock(t *testing.T) {
	rn := &recordingNotifier{wait: 50 * time.Millisecond}
	d := NewDispatcher(rn, time.Second, nil)

	ctx, cancel := context.WithCancel(t.Context())
	start := time.Now()
	d.Dispatch(ctx, Notification{Subject: "hi"})
	if time.Since(start) > 20*time.Millisecond {
		t.Error("Dispatch blocked on the notifier")
	}

	// the request finishing must not cancel delivery
	cancel()
	d.Wait()

	if len(rn.got) != 1 {
		t.Errorf("wanted one delivered notification, got %d", len(rn.got))
	}
}

func TestDispatcherTimeout(t *testing.T) {
	rn := &recordingNotifier{wait: time.Second}
	d := NewDispatcher(rn, 10*time.Millisecond, nil)

	d.Dispatch(t.Context(), Notification{Subject: "slow"})
	d.Wait()

	if len(rn.got) != 0 {
		t.Error("notification delivered past its timeout")
	}
}

func TestDispatcherSwallowsErrors(t *testing.T) {
	rn := &recordingNotifier{err: errors.New("smtp down")}
	d := NewDispatcher(rn, time.Second, nil)

	d.Dispatch(t.Context(), Notification{Subject: "x"})
	d.Wait()

	if len(rn.got) != 1 {
		t.Error("notifier was not called")
	}
}

func TestMailerMessage(t *testing.T) {
	m, err := NewMailer(config.Mail{
		Enabled: true,
		Host:    "smtp.example.com",
		From:    "website@example.com",
		To:      []string{"owner@example.com", "sales@example.com"},
	})
	if err != nil {
		t.Fatal(err)
	}

	msg, err := m.message(Notification{
		Subject: "[Site] Hello",
		Body:    "body text",
		ReplyTo: "jo@example.com",
	})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"Subject: [Site] Hello",
		"<website@example.com>",
		"<owner@example.com>",
		"<sales@example.com>",
		"Reply-To: <jo@example.com>",
		"body text",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("wanted %q in message:\n%s", want, out)
		}
	}
}

func TestMailerRejectsBadReplyTo(t *testing.T) {
	m, err := NewMailer(config.Mail{
		Host: "smtp.example.com",
		From: "website@example.com",
		To:   []string{"owner@example.com"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.message(Notification{ReplyTo: "not an address"}); err == nil {
		t.Error("wanted an error for a bad reply-to")
	}
}

func TestLogNotifier(t *testing.T) {
	if err := (LogNotifier{}).Notify(t.Context(), Notification{Subject: "x"}); err != nil {
		t.Error(err)
	}
}
