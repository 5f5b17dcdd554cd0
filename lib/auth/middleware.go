package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/corvidlabs/brochure/internal"
)

type claimsKey struct{}

// FromContext returns the claims RequireAdmin stored.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok
}

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// RequireAdmin rejects requests without a valid, unrevoked session.
func (s *Sessions) RequireAdmin(cookies Cookies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := cookies.Token(r)
			if token == "" {
				unauthorized(w)
				return
			}

			claims, err := s.Parse(r.Context(), token)
			if err != nil {
				internal.GetRequestLogger(r).Debug("rejected admin session", "err", err)
				cookies.Clear(w, r)
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
}
