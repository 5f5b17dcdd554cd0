package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/corvidlabs/brochure/lib/content"
	"github.com/corvidlabs/brochure/lib/store/memory"
	"github.com/golang-jwt/jwt/v5"
)

type fakeUsers map[string]*content.User

func (f fakeUsers) UserByEmail(_ context.Context, email string) (*content.User, error) {
	u, ok := f[email]
	if !ok {
		return nil, content.ErrNotFound
	}
	return u, nil
}

func newTestSessions(t *testing.T, now func() time.Time) *Sessions {
	t.Helper()

	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatal(err)
	}

	users := fakeUsers{
		"admin@example.com": {Base: content.Base{ID: 1}, Email: "admin@example.com", PasswordHash: hash, Active: true},
		"former@example.com": {Base: content.Base{ID: 2}, Email: "former@example.com", PasswordHash: hash, Active: false},
	}

	s, err := NewSessions(Options{
		Users: users,
		Store: memory.New(t.Context()),
		Key:   []byte("test session key that is long enough"),
		TTL:   time.Hour,
		Now:   now,
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestLogin(t *testing.T) {
	s := newTestSessions(t, time.Now)

	for _, tt := range []struct {
		name     string
		email    string
		password string
		err      error
	}{
		{name: "good", email: "admin@example.com", password: "correct horse battery"},
		{name: "wrong password", email: "admin@example.com", password: "incorrect horse", err: ErrInvalidCredentials},
		{name: "unknown user", email: "nobody@example.com", password: "correct horse battery", err: ErrInvalidCredentials},
		{name: "inactive user", email: "former@example.com", password: "correct horse battery", err: ErrInvalidCredentials},
	} {
		t.Run(tt.name, func(t *testing.T) {
			user, token, err := s.Login(t.Context(), tt.email, tt.password)
			if !errors.Is(err, tt.err) {
				t.Fatalf("wanted %v, got %v", tt.err, err)
			}
			if err != nil {
				return
			}

			claims, err := s.Parse(t.Context(), token)
			if err != nil {
				t.Fatal(err)
			}
			if claims.UserID() != user.ID || claims.Email != user.Email {
				t.Errorf("claims %+v do not match user %+v", claims, user)
			}
		})
	}
}

func TestSessionExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newTestSessions(t, func() time.Time { return now })

	token, err := s.Issue(&content.User{Base: content.Base{ID: 1}, Email: "admin@example.com"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Parse(t.Context(), token); err != nil {
		t.Fatalf("fresh session rejected: %v", err)
	}

	now = now.Add(2 * time.Hour)

	if _, err := s.Parse(t.Context(), token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("wanted expired session rejected, got %v", err)
	}
}

func TestSessionRejectsOtherAlgorithms(t *testing.T) {
	s := newTestSessions(t, time.Now)

	claims := Claims{
		Email: "admin@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "x",
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Parse(t.Context(), token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("wanted HS256 token rejected, got %v", err)
	}

	other := newTestSessions(t, time.Now)
	other.key = []byte("a different key entirely, also long")
	forged, err := other.Issue(&content.User{Base: content.Base{ID: 1}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Parse(t.Context(), forged); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("wanted token signed with another key rejected, got %v", err)
	}
}

func TestRevoke(t *testing.T) {
	s := newTestSessions(t, time.Now)

	_, token, err := s.Login(t.Context(), "admin@example.com", "correct horse battery")
	if err != nil {
		t.Fatal(err)
	}

	claims, err := s.Parse(t.Context(), token)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Revoke(t.Context(), claims); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Parse(t.Context(), token); !errors.Is(err, ErrRevoked) {
		t.Errorf("wanted ErrRevoked, got %v", err)
	}
}

func TestHashPassword(t *testing.T) {
	if _, err := HashPassword("short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("wanted ErrPasswordTooShort, got %v", err)
	}

	hash, err := HashPassword("long enough password")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("not a bcrypt hash: %q", hash)
	}
}

func TestRequireAdmin(t *testing.T) {
	s := newTestSessions(t, time.Now)
	cookies := Cookies{TTL: time.Hour}

	_, token, err := s.Login(t.Context(), "admin@example.com", "correct horse battery")
	if err != nil {
		t.Fatal(err)
	}

	h := s.RequireAdmin(cookies)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := FromContext(r.Context())
		if !ok {
			t.Error("no claims in context")
			return
		}
		w.Write([]byte(claims.Email))
	}))

	for _, tt := range []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{name: "no session", setup: func(*http.Request) {}, status: http.StatusUnauthorized},
		{name: "garbage cookie", setup: func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: cookies.name(), Value: "nope"})
		}, status: http.StatusUnauthorized},
		{name: "cookie", setup: func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: cookies.name(), Value: token})
		}, status: http.StatusOK},
		{name: "bearer", setup: func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token)
		}, status: http.StatusOK},
	} {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequestWithContext(t.Context(), http.MethodGet, "/admin/me", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("wanted status %d, got %d", tt.status, rec.Code)
			}
			if tt.status == http.StatusOK && rec.Body.String() != "admin@example.com" {
				t.Errorf("unexpected body %q", rec.Body.String())
			}
		})
	}
}

func TestCookieDomain(t *testing.T) {
	for _, tt := range []struct {
		name   string
		domain string
		host   string
		want   string
	}{
		{name: "fixed", domain: "example.com", host: "www.example.com", want: "example.com"},
		{name: "auto", domain: DynamicDomain, host: "admin.corvidlabs.co.uk", want: "corvidlabs.co.uk"},
		{name: "auto with port", domain: DynamicDomain, host: "www.example.com:8443", want: "example.com"},
		{name: "auto on localhost", domain: DynamicDomain, host: "localhost:8923", want: ""},
		{name: "auto on ip", domain: DynamicDomain, host: "127.0.0.1", want: ""},
		{name: "host only", domain: "", host: "www.example.com", want: ""},
	} {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Host = tt.host

			if got := (Cookies{Domain: tt.domain}).domain(req); got != tt.want {
				t.Errorf("wanted %q, got %q", tt.want, got)
			}
		})
	}
}

func TestAllowlist(t *testing.T) {
	al, err := NewAllowlist([]string{"10.0.0.0/8", "2001:db8::/32", "192.0.2.7/32"})
	if err != nil {
		t.Fatal(err)
	}

	for _, tt := range []struct {
		addr string
		want bool
	}{
		{"10.1.2.3", true},
		{"11.0.0.1", false},
		{"192.0.2.7", true},
		{"192.0.2.8", false},
		{"2001:db8::1", true},
		{"::ffff:10.0.0.1", true},
		{"not an ip", false},
	} {
		if got := al.Allows(tt.addr); got != tt.want {
			t.Errorf("Allows(%q) = %v, want %v", tt.addr, got, tt.want)
		}
	}

	empty, err := NewAllowlist(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !empty.Allows("203.0.113.1") {
		t.Error("empty allowlist should allow everyone")
	}

	if _, err := NewAllowlist([]string{"10.0.0.0/33"}); err == nil {
		t.Error("wanted an error for a bad CIDR")
	}
}

func TestAllowlistMiddleware(t *testing.T) {
	al, err := NewAllowlist([]string{"10.0.0.0/8"})
	if err != nil {
		t.Fatal(err)
	}

	h := al.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, tt := range []struct {
		ip     string
		status int
	}{
		{"10.9.9.9", http.StatusOK},
		{"203.0.113.1", http.StatusForbidden},
	} {
		req := httptest.NewRequest(http.MethodGet, "/admin/me", nil)
		req.Header.Set("X-Real-Ip", tt.ip)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != tt.status {
			t.Errorf("%s: wanted %d, got %d", tt.ip, tt.status, rec.Code)
		}
	}
}
