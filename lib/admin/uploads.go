package admin

import (
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/corvidlabs/brochure/internal"
)

// multipartMemory is how much of a multipart upload is buffered in memory
// before spilling to a temporary file.
const multipartMemory = 8 << 20

// upload accepts either a multipart form with a "file" field or the raw
// file as the request body.
func (h *handler) upload(w http.ResponseWriter, r *http.Request) {
	var body io.Reader = r.Body

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "multipart/form-data" {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			badRequest(w, r, err)
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, _, err := r.FormFile("file")
		if err != nil {
			badRequest(w, r, err)
			return
		}
		defer file.Close()
		body = file
	}

	stored, err := h.uploader.Accept(r.Context(), body)
	if err != nil {
		fail(w, r, err)
		return
	}

	internal.GetRequestLogger(r).Info("file uploaded", "name", stored.Name, "mime", stored.MIME, "size", stored.Size)
	writeJSON(w, r, http.StatusCreated, stored)
}

func (h *handler) deleteUpload(w http.ResponseWriter, r *http.Request) {
	if err := h.uploader.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
