package captcha

import (
	"context"
	"crypto/hmac"
	"fmt"
	"log/slog"
	"sync"
)

// Verifier checks answers against tokens minted by a Generator with the
// same Secret.
type Verifier struct {
	opts    Options
	pending sync.WaitGroup
}

func NewVerifier(opts Options) (*Verifier, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	return &Verifier{opts: opts}, nil
}

// Verify reports whether answer solves the challenge in token. It never
// panics on hostile input; every failure is just false.
func (v *Verifier) Verify(ctx context.Context, answer any, token string) bool {
	return v.Check(ctx, answer, token) == nil
}

// Check is Verify with the rejection reason. The returned error wraps one
// of the Err* values in this package. It must not be shown to clients.
func (v *Verifier) Check(ctx context.Context, answer any, token string) error {
	err := v.check(ctx, answer, token)

	verifiedTotal.WithLabelValues(result(err)).Inc()
	if err != nil {
		rejectedTotal.WithLabelValues(Reason(err)).Inc()
		v.opts.Logger.Debug("captcha rejected", "reason", Reason(err), "err", err)
	}

	return err
}

func result(err error) string {
	if err != nil {
		return "rejected"
	}
	return "accepted"
}

func (v *Verifier) check(ctx context.Context, answer any, token string) error {
	if token == "" {
		return ErrMissingToken
	}

	payload, tag, err := splitToken(token)
	if err != nil {
		return err
	}

	if !hmac.Equal([]byte(tag), []byte(v.opts.Secret.tag(payload))) {
		return ErrIntegrity
	}

	// Records are keyed by tokens we signed, so a token failing the tag
	// check cannot have one. From here on the record is dropped whatever
	// the outcome.
	defer v.forget(ctx, token)

	p, err := parsePayload(payload)
	if err != nil {
		return err
	}

	now := v.opts.Now().Unix()
	if age := now - p.IssuedAt; age > int64(TTL.Seconds()) {
		return fmt.Errorf("%w: issued %d seconds ago", ErrExpired, age)
	}

	got, err := ParseAnswer(answer)
	if err != nil {
		return err
	}

	if got != p.Answer {
		return ErrWrongAnswer
	}

	return nil
}

// forget drops the secondary record in the background.
func (v *Verifier) forget(ctx context.Context, token string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), v.opts.StoreTimeout)

	v.pending.Add(1)
	go func() {
		defer v.pending.Done()
		defer cancel()

		if err := v.opts.Recorder.Forget(ctx, RecordKey(token)); err != nil {
			recorderErrors.WithLabelValues("forget").Inc()
			v.opts.Logger.Warn("can't forget challenge record, continuing", slog.String("err", err.Error()))
		}
	}()
}

// Wait blocks until every background record deletion has finished.
func (v *Verifier) Wait() {
	v.pending.Wait()
}
