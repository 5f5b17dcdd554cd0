package captcha

import "errors"

// Rejection reasons returned by Verifier.Check. Callers outside this
// package should treat them all as the same failure; they exist for logs
// and metrics.
var (
	ErrMissingToken   = errors.New("captcha: missing token")
	ErrMalformedToken = errors.New("captcha: malformed token")
	ErrIntegrity      = errors.New("captcha: token signature mismatch")
	ErrExpired        = errors.New("captcha: token expired")
	ErrBadAnswer      = errors.New("captcha: answer is not an integer")
	ErrWrongAnswer    = errors.New("captcha: wrong answer")
)

// Reason maps a Check error to a short metric label.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMissingToken):
		return "missing_token"
	case errors.Is(err, ErrMalformedToken):
		return "malformed"
	case errors.Is(err, ErrIntegrity):
		return "integrity"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrBadAnswer):
		return "bad_answer"
	case errors.Is(err, ErrWrongAnswer):
		return "wrong_answer"
	default:
		return "unknown"
	}
}
