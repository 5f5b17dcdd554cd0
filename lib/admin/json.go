package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/corvidlabs/brochure/internal"
	"github.com/corvidlabs/brochure/lib/auth"
	"github.com/corvidlabs/brochure/lib/content"
	"github.com/corvidlabs/brochure/lib/upload"
)

const maxJSONBytes = 1 << 20

var ErrBadID = errors.New("admin: id must be a positive integer")

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		internal.GetRequestLogger(r).Error("failed to encode response", "err", err)
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("admin: can't decode request: %w", err)
	}
	return nil
}

func badRequest(w http.ResponseWriter, r *http.Request, err error) {
	writeJSON(w, r, http.StatusBadRequest, apiError{Error: err.Error()})
}

// fail maps well-known errors to status codes. Anything else is logged and
// reported as a 500 without detail.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var status int

	switch {
	case errors.Is(err, content.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		status = http.StatusNotFound
	case errors.Is(err, content.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, auth.ErrPasswordTooShort), errors.Is(err, upload.ErrEmpty), errors.Is(err, upload.ErrBadName):
		status = http.StatusBadRequest
	case errors.Is(err, upload.ErrTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, upload.ErrTypeNotAllowed):
		status = http.StatusUnsupportedMediaType
	default:
		internal.GetRequestLogger(r).Error("admin request failed", "err", err)
		writeJSON(w, r, http.StatusInternalServerError, apiError{Error: http.StatusText(http.StatusInternalServerError)})
		return
	}

	writeJSON(w, r, status, apiError{Error: err.Error()})
}

func pathID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadID, chi.URLParam(r, "id"))
	}
	return uint(id), nil
}
