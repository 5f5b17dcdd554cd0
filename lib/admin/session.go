package admin

import (
	"errors"
	"net/http"
	"time"

	"github.com/corvidlabs/brochure/internal"
	"github.com/corvidlabs/brochure/lib/auth"
	"github.com/corvidlabs/brochure/lib/content"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User      *content.User `json:"user"`
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	lg := internal.GetRequestLogger(r)

	var req loginRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequest(w, r, err)
		return
	}

	user, token, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		lg.Info("failed admin login", "email", req.Email)
		writeJSON(w, r, http.StatusUnauthorized, apiError{Error: err.Error()})
		return
	}
	if err != nil {
		fail(w, r, err)
		return
	}

	now := h.now()
	if err := h.db.Users.Set(r.Context(), user.ID, "last_login_at", now); err != nil {
		lg.Warn("can't record last login", "user", user.ID, "err", err)
	}
	user.LastLoginAt = &now

	h.cookies.Set(w, r, token)
	lg.Info("admin logged in", "user", user.ID)

	writeJSON(w, r, http.StatusOK, loginResponse{
		User:      user,
		Token:     token,
		ExpiresAt: now.Add(h.sessions.TTL()),
	})
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())

	if err := h.sessions.Revoke(r.Context(), claims); err != nil {
		fail(w, r, err)
		return
	}

	h.cookies.Clear(w, r)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())

	user, err := h.db.Users.Get(r.Context(), claims.UserID())
	if err != nil {
		fail(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, user)
}

type stats struct {
	Pages          int64 `json:"pages"`
	Services       int64 `json:"services"`
	Solutions      int64 `json:"solutions"`
	CaseStudies    int64 `json:"caseStudies"`
	Insights       int64 `json:"insights"`
	Messages       int64 `json:"messages"`
	UnreadMessages int64 `json:"unreadMessages"`
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		s   stats
		err error
	)

	for _, c := range []struct {
		dst   *int64
		count func() (int64, error)
	}{
		{&s.Pages, func() (int64, error) { return h.db.Pages.Count(ctx, content.ListOptions{}) }},
		{&s.Services, func() (int64, error) { return h.db.Services.Count(ctx, content.ListOptions{}) }},
		{&s.Solutions, func() (int64, error) { return h.db.Solutions.Count(ctx, content.ListOptions{}) }},
		{&s.CaseStudies, func() (int64, error) { return h.db.CaseStudies.Count(ctx, content.ListOptions{}) }},
		{&s.Insights, func() (int64, error) { return h.db.Insights.Count(ctx, content.ListOptions{}) }},
		{&s.Messages, func() (int64, error) { return h.db.Messages.Count(ctx, content.ListOptions{}) }},
		{&s.UnreadMessages, func() (int64, error) { return h.db.UnreadMessages(ctx) }},
	} {
		if *c.dst, err = c.count(); err != nil {
			fail(w, r, err)
			return
		}
	}

	writeJSON(w, r, http.StatusOK, s)
}

func (h *handler) markRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, r, err)
		return
	}

	if err := h.db.Messages.Set(r.Context(), id, "read", true); err != nil {
		fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
