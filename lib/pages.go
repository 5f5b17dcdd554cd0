package lib

import (
	"errors"
	"net/http"

	"github.com/corvidlabs/brochure/internal"
	"github.com/corvidlabs/brochure/lib/content"
	"github.com/corvidlabs/brochure/web"
)

var active = content.ListOptions{ActiveOnly: true}

// pageMeta loads an optional CMS page. A missing page is not an error: the
// list pages render fine without introductory sections.
func (s *Server) pageMeta(r *http.Request, slug string) (*content.Page, []content.Section, error) {
	page, sections, err := s.opts.Content.PageWithSections(r.Context(), slug)
	if errors.Is(err, content.ErrNotFound) {
		return nil, nil, nil
	}
	return page, sections, err
}

func title(page *content.Page, fallback string) (string, string) {
	if page == nil {
		return fallback, ""
	}
	return page.Title, page.MetaDescription
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	lg := internal.GetRequestLogger(r)
	ctx := r.Context()
	db := s.opts.Content

	var (
		d   web.Home
		err error
	)

	if d.Page, d.Sections, err = s.pageMeta(r, "home"); err != nil {
		s.respondWithError(w, r, lg, err)
		return
	}
	if d.Services, err = db.Services.List(ctx, active); err != nil {
		s.respondWithError(w, r, lg, err)
		return
	}
	if d.Testimonials, err = db.Testimonials.List(ctx, content.ListOptions{ActiveOnly: true, Limit: 3}); err != nil {
		s.respondWithError(w, r, lg, err)
		return
	}
	if d.Partners, err = db.Partners.List(ctx, active); err != nil {
		s.respondWithError(w, r, lg, err)
		return
	}
	if d.Insights, err = db.PublishedInsights(ctx, s.opts.Now(), s.opts.HomeInsights); err != nil {
		s.respondWithError(w, r, lg, err)
		return
	}

	v := s.view(r, web.NavHome)
	t, desc := title(d.Page, s.opts.SiteName)
	s.render(w, r, v, http.StatusOK, t, desc, web.HomePage(v, d))
}

func (s *Server) about(w http.ResponseWriter, r *http.Request) {
	lg := internal.GetRequestLogger(r)
	ctx := r.Context()

	var (
		d   web.About
		err error
	)

	if d.Page, d.Sections, err = s.pageMeta(r, "about"); err != nil {
		s.respondWithError(w, r, lg, err)
		return
	}
	if d.Team, err = s.opts.Content.TeamMembers.List(ctx, active); err != nil {
		s.respondWithError(w, r, lg, err)
		return
	}
	if d.Partners, err = s.opts.Content.Partners.List(ctx, active); err != nil {
		s.respondWithError(w, r, lg, err)
		return
	}

	v := s.view(r, web.NavAbout)
	t, desc := title(d.Page, v.Localizer.T("nav_about"))
	s.render(w, r, v, http.StatusOK, t, desc, web.AboutPage(v, d))
}

func (s *Server) services(w http.ResponseWriter, r *http.Request) {
	list, err := s.opts.Content.Services.List(r.Context(), active)
	if err != nil {
		s.respondWithError(w, r, internal.GetRequestLogger(r), err)
		return
	}

	v := s.view(r, web.NavServices)
	s.render(w, r, v, http.StatusOK, v.Localizer.T("nav_services"), "", web.ServicesPage(v, list))
}

func (s *Server) solutions(w http.ResponseWriter, r *http.Request) {
	list, err := s.opts.Content.Solutions.List(r.Context(), active)
	if err != nil {
		s.respondWithError(w, r, internal.GetRequestLogger(r), err)
		return
	}

	v := s.view(r, web.NavSolutions)
	s.render(w, r, v, http.StatusOK, v.Localizer.T("nav_solutions"), "", web.SolutionsPage(v, list))
}

func (s *Server) caseStudies(w http.ResponseWriter, r *http.Request) {
	list, err := s.opts.Content.CaseStudies.List(r.Context(), active)
	if err != nil {
		s.respondWithError(w, r, internal.GetRequestLogger(r), err)
		return
	}

	v := s.view(r, web.NavCaseStudies)
	s.render(w, r, v, http.StatusOK, v.Localizer.T("nav_case_studies"), "", web.CaseStudiesPage(v, list))
}

func (s *Server) testimonials(w http.ResponseWriter, r *http.Request) {
	list, err := s.opts.Content.Testimonials.List(r.Context(), active)
	if err != nil {
		s.respondWithError(w, r, internal.GetRequestLogger(r), err)
		return
	}

	v := s.view(r, web.NavTestimonials)
	s.render(w, r, v, http.StatusOK, v.Localizer.T("nav_testimonials"), "", web.TestimonialsPage(v, list))
}

func (s *Server) insights(w http.ResponseWriter, r *http.Request) {
	list, err := s.opts.Content.PublishedInsights(r.Context(), s.opts.Now(), 0)
	if err != nil {
		s.respondWithError(w, r, internal.GetRequestLogger(r), err)
		return
	}

	v := s.view(r, web.NavInsights)
	s.render(w, r, v, http.StatusOK, v.Localizer.T("nav_insights"), "", web.InsightsPage(v, list))
}

func (s *Server) insight(w http.ResponseWriter, r *http.Request) {
	in, err := s.opts.Content.Insights.GetBySlug(r.Context(), r.PathValue("slug"), true)
	if err != nil {
		s.respondWithError(w, r, internal.GetRequestLogger(r), err)
		return
	}

	// Scheduled posts stay hidden until their publish time.
	if in.PublishedAt == nil || in.PublishedAt.After(s.opts.Now()) {
		s.respondWithStatus(w, r, http.StatusNotFound)
		return
	}

	v := s.view(r, web.NavInsights)
	s.render(w, r, v, http.StatusOK, in.Title, in.Summary, web.InsightPage(v, *in))
}

func (s *Server) impressum(w http.ResponseWriter, r *http.Request) {
	v := s.view(r, web.NavImpressum)
	s.render(w, r, v, http.StatusOK, s.opts.Impressum.Title, "", web.Impressum(v, *s.opts.Impressum))
}
