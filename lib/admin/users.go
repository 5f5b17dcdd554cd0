package admin

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/corvidlabs/brochure/lib/auth"
	"github.com/corvidlabs/brochure/lib/content"
)

var (
	ErrBadEmail   = errors.New("admin: invalid email address")
	ErrNoPassword = errors.New("admin: password is required")
	ErrDeleteSelf = errors.New("admin: you can't delete your own account")
)

// userInput is what clients send. The password is only ever hashed, never
// stored or echoed.
type userInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Active   *bool  `json:"active"`
	Password string `json:"password"`
}

func validEmail(s string) error {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return fmt.Errorf("%w: %q", ErrBadEmail, s)
	}
	return nil
}

func (h *handler) createUser(w http.ResponseWriter, r *http.Request) {
	var in userInput
	if err := readJSON(w, r, &in); err != nil {
		badRequest(w, r, err)
		return
	}

	in.Email = strings.TrimSpace(in.Email)
	if err := validEmail(in.Email); err != nil {
		badRequest(w, r, err)
		return
	}
	if in.Password == "" {
		badRequest(w, r, ErrNoPassword)
		return
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		fail(w, r, err)
		return
	}

	user := &content.User{
		Email:        in.Email,
		Name:         in.Name,
		Active:       in.Active == nil || *in.Active,
		PasswordHash: hash,
	}

	if err := h.db.Users.Create(r.Context(), user); err != nil {
		fail(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, user)
}

// updateUser merges the given fields into the stored account. Omitted
// fields and the password hash stay as they are.
func (h *handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, r, err)
		return
	}

	var in userInput
	if err := readJSON(w, r, &in); err != nil {
		badRequest(w, r, err)
		return
	}

	user, err := h.db.Users.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}

	if in.Email != "" {
		in.Email = strings.TrimSpace(in.Email)
		if err := validEmail(in.Email); err != nil {
			badRequest(w, r, err)
			return
		}
		user.Email = in.Email
	}
	if in.Name != "" {
		user.Name = in.Name
	}
	if in.Active != nil {
		user.Active = *in.Active
	}
	if in.Password != "" {
		if user.PasswordHash, err = auth.HashPassword(in.Password); err != nil {
			fail(w, r, err)
			return
		}
	}

	updated, err := h.db.Users.Update(r.Context(), id, user)
	if err != nil {
		fail(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, updated)
}

func (h *handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, r, err)
		return
	}

	if claims, ok := auth.FromContext(r.Context()); ok && claims.UserID() == id {
		writeJSON(w, r, http.StatusConflict, apiError{Error: ErrDeleteSelf.Error()})
		return
	}

	if err := h.db.Users.Delete(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
