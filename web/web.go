// Package web holds the HTML components of the public site.
package web

import (
	"embed"
	"time"

	"github.com/a-h/templ"

	"github.com/corvidlabs/brochure"
	"github.com/corvidlabs/brochure/lib/captcha"
	"github.com/corvidlabs/brochure/lib/config"
	"github.com/corvidlabs/brochure/lib/contact"
	"github.com/corvidlabs/brochure/lib/content"
	"github.com/corvidlabs/brochure/lib/localization"
	"github.com/corvidlabs/brochure/lib/markup"
)

//go:generate go tool github.com/a-h/templ/cmd/templ generate

//go:embed static
var Static embed.FS

// Navigation ids, also used as page view metric labels.
const (
	NavHome         = "home"
	NavAbout        = "about"
	NavServices     = "services"
	NavSolutions    = "solutions"
	NavCaseStudies  = "case_studies"
	NavInsights     = "insights"
	NavTestimonials = "testimonials"
	NavContact      = "contact"
	NavImpressum    = "impressum"
)

var navigation = []struct{ id, path string }{
	{NavHome, "/"},
	{NavAbout, "/about"},
	{NavServices, "/services"},
	{NavSolutions, "/solutions"},
	{NavCaseStudies, "/case-studies"},
	{NavInsights, "/insights"},
	{NavTestimonials, "/testimonials"},
	{NavContact, "/contact"},
}

// View is what every page needs besides its own data.
type View struct {
	SiteName  string
	Impressum *config.Impressum
	Localizer *localization.SimpleLocalizer
	Markup    *markup.Renderer
	Nav       string
}

func (v View) t(id string) string { return v.Localizer.T(id) }

func (v View) pageTitle(title string) string {
	if title == "" || title == v.SiteName {
		return v.SiteName
	}
	return title + " | " + v.SiteName
}

func (v View) byline(in content.Insight) string {
	out := v.Localizer.Tf("published_on", map[string]any{"Date": date(in.PublishedAt)})
	if in.Author != "" {
		out += " " + v.Localizer.Tf("by_author", map[string]any{"Author": in.Author})
	}
	return out
}

func (v View) markdown(src string) templ.Component {
	return templ.Raw(v.Markup.MustHTML(src))
}

func link(path string) string { return brochure.PrefixedPath(path) }

func date(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2 January 2006")
}

func attribution(t content.Testimonial) string {
	if t.Company == "" {
		return t.Author
	}
	return t.Author + ", " + t.Company
}

// Home is the data of the landing page.
type Home struct {
	Page         *content.Page
	Sections     []content.Section
	Services     []content.Service
	Testimonials []content.Testimonial
	Partners     []content.Partner
	Insights     []content.Insight
}

// About is the company page with the team.
type About struct {
	Page     *content.Page
	Sections []content.Section
	Team     []content.TeamMember
	Partners []content.Partner
}

// Contact is the state of the contact page. Challenge is always a fresh
// one; a failed submission never re-renders the old token.
type Contact struct {
	Page      *content.Page
	Sections  []content.Section
	Form      contact.Form
	Errors    map[string]string
	Challenge captcha.Issued
	Sent      bool
	Failed    bool
}

func (d Contact) invalid(field string) bool {
	_, ok := d.Errors[field]
	return ok
}
