// Package auth handles admin logins and the session cookie that keeps an
// admin logged in.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/corvidlabs/brochure/lib/content"
	"github.com/corvidlabs/brochure/lib/store"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrInvalidSession     = errors.New("auth: invalid session")
	ErrRevoked            = errors.New("auth: session was logged out")
	ErrPasswordTooShort   = fmt.Errorf("auth: password must be at least %d characters", MinPasswordLength)
	ErrNoKey              = errors.New("auth: session signing key is missing")
)

const MinPasswordLength = 10

// Users is the part of the content database auth needs.
type Users interface {
	UserByEmail(ctx context.Context, email string) (*content.User, error)
}

// Claims are carried in the session JWT.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserID is the numeric id from the subject claim.
func (c *Claims) UserID() uint {
	id, _ := strconv.ParseUint(c.Subject, 10, 64)
	return uint(id)
}

type revocation struct {
	RevokedAt time.Time `json:"revokedAt"`
}

type Options struct {
	Users Users
	Store store.Interface
	Key   []byte
	TTL   time.Duration
	Now   func() time.Time
}

// Sessions issues, checks and revokes admin sessions.
type Sessions struct {
	users   Users
	revoked *store.JSON[revocation]
	key     []byte
	ttl     time.Duration
	now     func() time.Time

	// dummyHash makes failed lookups cost as much as a wrong password.
	dummyHash []byte
}

func NewSessions(opts Options) (*Sessions, error) {
	if len(opts.Key) == 0 {
		return nil, ErrNoKey
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TTL <= 0 {
		opts.TTL = 12 * time.Hour
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("not a real password"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &Sessions{
		users:     opts.Users,
		revoked:   &store.JSON[revocation]{Underlying: opts.Store, Prefix: "session-revoked:"},
		key:       opts.Key,
		ttl:       opts.TTL,
		now:       opts.Now,
		dummyHash: dummy,
	}, nil
}

// HashPassword returns a bcrypt hash for a new or changed password.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: can't hash password: %w", err)
	}

	return string(hash), nil
}

// Login checks credentials and returns the user with a signed session token.
func (s *Sessions) Login(ctx context.Context, email, password string) (*content.User, string, error) {
	user, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		if errors.Is(err, content.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	if !user.Active {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.Issue(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Issue signs a session for user.
func (s *Sessions) Issue(user *content.User) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	now := s.now()
	claims := Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id.String(),
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(s.key)
}

// Parse validates a session token and checks it was not logged out.
func (s *Sessions) Parse(ctx context.Context, token string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}

	if claims.ID == "" || claims.UserID() == 0 {
		return nil, fmt.Errorf("%w: missing id or subject", ErrInvalidSession)
	}

	if _, err := s.revoked.Get(ctx, claims.ID); err == nil {
		return nil, ErrRevoked
	} else if !errors.Is(err, store.ErrNotFound) {
		slog.Warn("can't check session revocation, allowing", "err", err)
	}

	return &claims, nil
}

// Revoke logs a session out until it would have expired anyway.
func (s *Sessions) Revoke(ctx context.Context, claims *Claims) error {
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		if left := claims.ExpiresAt.Sub(s.now()); left > ttl {
			ttl = left
		}
	}

	return s.revoked.Set(ctx, claims.ID, revocation{RevokedAt: s.now()}, ttl)
}

func (s *Sessions) TTL() time.Duration { return s.ttl }
