// Package admin is the JSON API behind the site's admin panel.
package admin

import (
	"errors"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/corvidlabs/brochure/lib/auth"
	"github.com/corvidlabs/brochure/lib/content"
	"github.com/corvidlabs/brochure/lib/store"
	"github.com/corvidlabs/brochure/lib/upload"
)

var (
	ErrNoContent  = errors.New("admin: Options.Content is required")
	ErrNoSessions = errors.New("admin: Options.Sessions is required")
)

type Options struct {
	Content  *content.DB
	Sessions *auth.Sessions
	Cookies  auth.Cookies

	// Allowlist limits which networks may reach the API at all.
	Allowlist *auth.Allowlist

	// Uploader enables the upload endpoints when set.
	Uploader *upload.Uploader

	// Store is included in the health check when set.
	Store store.Interface

	Now func() time.Time
}

type handler struct {
	db       *content.DB
	sessions *auth.Sessions
	cookies  auth.Cookies
	uploader *upload.Uploader
	store    store.Interface
	now      func() time.Time
}

// NewRouter builds the admin router. It expects paths with the admin
// prefix already stripped.
func NewRouter(opts Options) (*chi.Mux, error) {
	var errs []error
	if opts.Content == nil {
		errs = append(errs, ErrNoContent)
	}
	if opts.Sessions == nil {
		errs = append(errs, ErrNoSessions)
	}
	if len(errs) != 0 {
		return nil, errors.Join(errs...)
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	h := &handler{
		db:       opts.Content,
		sessions: opts.Sessions,
		cookies:  opts.Cookies,
		uploader: opts.Uploader,
		store:    opts.Store,
		now:      opts.Now,
	}

	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.NoCache)
	if opts.Allowlist != nil {
		router.Use(opts.Allowlist.Middleware)
	}

	router.Get("/health", h.health)

	router.Post("/login", h.login)

	router.Group(func(r chi.Router) {
		r.Use(opts.Sessions.RequireAdmin(opts.Cookies))

		r.Post("/logout", h.logout)
		r.Get("/me", h.me)
		r.Get("/stats", h.stats)

		mount(r, "/pages", resource[content.Page]{repo: h.db.Pages})
		mount(r, "/sections", resource[content.Section]{repo: h.db.Sections, filter: filterUint("page", "page_id")})
		mount(r, "/services", resource[content.Service]{repo: h.db.Services})
		mount(r, "/solutions", resource[content.Solution]{repo: h.db.Solutions})
		mount(r, "/case-studies", resource[content.CaseStudy]{repo: h.db.CaseStudies})
		mount(r, "/team", resource[content.TeamMember]{repo: h.db.TeamMembers})
		mount(r, "/testimonials", resource[content.Testimonial]{repo: h.db.Testimonials})
		mount(r, "/partners", resource[content.Partner]{repo: h.db.Partners})
		mount(r, "/insights", resource[content.Insight]{repo: h.db.Insights})

		messages := resource[content.Message]{repo: h.db.Messages, filter: filterBool("read", "read")}
		r.Route("/messages", func(r chi.Router) {
			r.Get("/", messages.list)
			r.Get("/{id}", messages.get)
			r.Delete("/{id}", messages.remove)
			r.Post("/{id}/read", h.markRead)
		})

		users := resource[content.User]{repo: h.db.Users}
		r.Route("/users", func(r chi.Router) {
			r.Get("/", users.list)
			r.Post("/", h.createUser)
			r.Get("/{id}", users.get)
			r.Put("/{id}", h.updateUser)
			r.Delete("/{id}", h.deleteUser)
		})

		if h.uploader != nil {
			r.Post("/uploads", h.upload)
			r.Delete("/uploads/{name}", h.deleteUpload)
		}
	})

	return router, nil
}
