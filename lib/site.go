// Package lib serves the public site: content pages, the contact form and
// the CAPTCHA API. The admin API is mounted from lib/admin.
package lib

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/corvidlabs/brochure"
	"github.com/corvidlabs/brochure/internal"
	"github.com/corvidlabs/brochure/lib/captcha"
	"github.com/corvidlabs/brochure/lib/config"
	"github.com/corvidlabs/brochure/lib/contact"
	"github.com/corvidlabs/brochure/lib/content"
	"github.com/corvidlabs/brochure/lib/markup"
	"github.com/corvidlabs/brochure/web"
)

var pageViews = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "brochure_page_views_total",
	Help: "Public page views by page",
}, []string{"page"})

var (
	ErrNoContent   = errors.New("lib: Options.Content is required")
	ErrNoGenerator = errors.New("lib: Options.Generator is required")
	ErrNoContact   = errors.New("lib: Options.Contact is required")
)

type Options struct {
	Content   *content.DB
	Generator *captcha.Generator
	Contact   *contact.Service
	Markup    *markup.Renderer

	// Admin is mounted at AdminPrefix when set.
	Admin http.Handler

	// UploadsDir is served under UploadsPrefix when both are set.
	UploadsDir    string
	UploadsPrefix string

	SiteName       string
	Impressum      *config.Impressum
	BasePrefix     string
	ServeRobotsTXT bool

	// HomeInsights is how many insights the home page shows.
	HomeInsights int

	Now func() time.Time
}

type Server struct {
	mux  *http.ServeMux
	opts Options
}

func New(opts Options) (*Server, error) {
	var errs []error
	if opts.Content == nil {
		errs = append(errs, ErrNoContent)
	}
	if opts.Generator == nil {
		errs = append(errs, ErrNoGenerator)
	}
	if opts.Contact == nil {
		errs = append(errs, ErrNoContact)
	}
	if len(errs) != 0 {
		return nil, errors.Join(errs...)
	}

	if opts.Markup == nil {
		opts.Markup = markup.New()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.HomeInsights == 0 {
		opts.HomeInsights = 3
	}
	if opts.SiteName == "" {
		opts.SiteName = "Brochure"
	}

	brochure.BasePrefix = opts.BasePrefix

	result := &Server{opts: opts}
	mux := http.NewServeMux()

	// Helper to add global prefix
	registerWithPrefix := func(pattern string, handler http.Handler, method string) {
		if method != "" {
			method = method + " " // methods must end with a space to register with them
		}

		basePrefix := strings.TrimSuffix(brochure.BasePrefix, "/")

		if !strings.HasPrefix(pattern, "/") {
			pattern = "/" + pattern
		}

		mux.Handle(method+basePrefix+pattern, handler)
	}

	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		return nil, fmt.Errorf("[unexpected] can't open embedded static files: %w", err)
	}

	stripPrefix := strings.TrimSuffix(brochure.BasePrefix, "/") + brochure.StaticPath
	registerWithPrefix(brochure.StaticPath, internal.UnchangingCache(brochure.Version, internal.NoBrowsing(http.StripPrefix(stripPrefix, http.FileServerFS(static)))), "GET")

	if opts.ServeRobotsTXT {
		robots := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.ServeFileFS(w, r, static, "robots.txt")
		})
		registerWithPrefix("/robots.txt", robots, "GET")
		registerWithPrefix("/.well-known/robots.txt", robots, "GET")
	}

	if opts.UploadsDir != "" && opts.UploadsPrefix != "" {
		uploadsPrefix := strings.TrimSuffix(brochure.BasePrefix, "/") + opts.UploadsPrefix
		registerWithPrefix(opts.UploadsPrefix, internal.NoBrowsing(http.StripPrefix(uploadsPrefix, http.FileServer(http.Dir(opts.UploadsDir)))), "GET")
	}

	if opts.Admin != nil {
		adminPrefix := strings.TrimSuffix(brochure.BasePrefix, "/") + brochure.AdminPrefix
		admin := http.StripPrefix(adminPrefix, opts.Admin)
		registerWithPrefix(brochure.AdminPrefix, admin, "")
		registerWithPrefix(brochure.AdminPrefix+"/", admin, "")
	}

	if opts.Impressum != nil {
		registerWithPrefix("/impressum", http.HandlerFunc(result.impressum), "GET")
	}

	registerWithPrefix(brochure.APIPrefix+"captcha", internal.NoStoreCache(http.HandlerFunc(result.IssueCaptcha)), "GET")

	registerWithPrefix("/{$}", http.HandlerFunc(result.home), "GET")
	registerWithPrefix("/about", http.HandlerFunc(result.about), "GET")
	registerWithPrefix("/services", http.HandlerFunc(result.services), "GET")
	registerWithPrefix("/solutions", http.HandlerFunc(result.solutions), "GET")
	registerWithPrefix("/case-studies", http.HandlerFunc(result.caseStudies), "GET")
	registerWithPrefix("/testimonials", http.HandlerFunc(result.testimonials), "GET")
	registerWithPrefix("/insights", http.HandlerFunc(result.insights), "GET")
	registerWithPrefix("/insights/{slug}", http.HandlerFunc(result.insight), "GET")
	registerWithPrefix("/contact", internal.NoStoreCache(http.HandlerFunc(result.contactForm)), "GET")
	registerWithPrefix("/contact", internal.NoStoreCache(http.HandlerFunc(result.SubmitContact)), "POST")
	registerWithPrefix("/", http.HandlerFunc(result.notFound), "")

	result.mux = mux

	return result, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Cleanup drops expired rendered markdown.
func (s *Server) Cleanup() {
	s.opts.Markup.Cleanup()
}
