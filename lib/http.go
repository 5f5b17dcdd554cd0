package lib

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/corvidlabs/brochure/internal"
	"github.com/corvidlabs/brochure/lib/content"
	"github.com/corvidlabs/brochure/lib/localization"
	"github.com/corvidlabs/brochure/web"
)

func (s *Server) view(r *http.Request, nav string) web.View {
	return web.View{
		SiteName:  s.opts.SiteName,
		Impressum: s.opts.Impressum,
		Localizer: localization.GetLocalizer(r),
		Markup:    s.opts.Markup,
		Nav:       nav,
	}
}

// render writes a full page with status and counts the view.
func (s *Server) render(w http.ResponseWriter, r *http.Request, v web.View, status int, title, description string, body templ.Component) {
	if status == http.StatusOK {
		pageViews.WithLabelValues(v.Nav).Inc()
	}

	handler := internal.GzipMiddleware(1, templ.Handler(
		web.Base(v, title, description, body),
		templ.WithStatus(status),
		templ.WithErrorHandler(func(r *http.Request, err error) http.Handler {
			internal.GetRequestLogger(r).Error("can't render page", "err", err)
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			})
		}),
	))
	handler.ServeHTTP(w, r)
}

func (s *Server) respondWithStatus(w http.ResponseWriter, r *http.Request, status int) {
	v := s.view(r, "")

	titleID, bodyID := "server_error_title", "server_error_body"
	if status == http.StatusNotFound {
		titleID, bodyID = "not_found_title", "not_found_body"
	}

	s.render(w, r, v, status, v.Localizer.T(titleID), "", web.ErrorPage(v, titleID, bodyID))
}

func (s *Server) respondWithError(w http.ResponseWriter, r *http.Request, lg *slog.Logger, err error) {
	if errors.Is(err, content.ErrNotFound) {
		s.respondWithStatus(w, r, http.StatusNotFound)
		return
	}

	lg.Error("can't load page content", "err", err)
	s.respondWithStatus(w, r, http.StatusInternalServerError)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.respondWithStatus(w, r, http.StatusNotFound)
}

// wantsJSON reports whether the client asked for a JSON response.
func wantsJSON(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if mt == "application/json" {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		internal.GetRequestLogger(r).Error("failed to encode response", "err", err)
	}
}
