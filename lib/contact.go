package lib

import (
	"net/http"
	"strconv"

	"github.com/corvidlabs/brochure/internal"
	"github.com/corvidlabs/brochure/lib/captcha"
	"github.com/corvidlabs/brochure/lib/contact"
	"github.com/corvidlabs/brochure/web"
)

// IssueCaptcha hands out a fresh challenge as JSON for script-driven forms.
func (s *Server) IssueCaptcha(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.opts.Generator.Generate(r.Context()))
}

func (s *Server) contactForm(w http.ResponseWriter, r *http.Request) {
	s.renderContact(w, r, http.StatusOK, web.Contact{
		Sent: r.URL.Query().Get("sent") == "1",
	})
}

// renderContact fills in the page sections and a new challenge.
func (s *Server) renderContact(w http.ResponseWriter, r *http.Request, status int, d web.Contact) {
	var err error
	if d.Page, d.Sections, err = s.pageMeta(r, "contact"); err != nil {
		s.respondWithError(w, r, internal.GetRequestLogger(r), err)
		return
	}

	d.Challenge = s.opts.Generator.Generate(r.Context())

	v := s.view(r, web.NavContact)
	t, desc := title(d.Page, v.Localizer.T("contact_heading"))
	s.render(w, r, v, status, t, desc, web.ContactPage(v, d))
}

type contactErrors struct {
	Errors  map[string]string `json:"errors"`
	Captcha captcha.Issued    `json:"captcha"`
}

// SubmitContact handles the contact form. HTML clients get the page back,
// or a redirect on success; JSON clients get status codes and field errors.
func (s *Server) SubmitContact(w http.ResponseWriter, r *http.Request) {
	lg := internal.GetRequestLogger(r)
	asJSON := wantsJSON(r)

	form, err := contact.ParseRequest(r)
	if err != nil {
		lg.Debug("can't parse contact form", "err", err)
		if asJSON {
			writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": http.StatusText(http.StatusBadRequest)})
			return
		}
		s.renderContact(w, r, http.StatusBadRequest, web.Contact{Failed: true})
		return
	}

	msg, err := s.opts.Contact.Submit(r.Context(), form, contact.Meta{
		IP:        internal.ClientIP(r),
		UserAgent: r.UserAgent(),
	})

	if ve, ok := contact.IsValidation(err); ok {
		if asJSON {
			loc := s.view(r, web.NavContact).Localizer
			out := contactErrors{
				Errors:  make(map[string]string, len(ve.Fields)),
				Captcha: s.opts.Generator.Generate(r.Context()),
			}
			for field, id := range ve.Fields {
				out.Errors[field] = loc.T(id)
			}
			writeJSON(w, r, http.StatusUnprocessableEntity, out)
			return
		}

		s.renderContact(w, r, http.StatusUnprocessableEntity, web.Contact{
			Form:   form,
			Errors: ve.Fields,
		})
		return
	}

	if err != nil {
		lg.Error("can't accept contact message", "err", err)
		if asJSON {
			writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": http.StatusText(http.StatusInternalServerError)})
			return
		}
		s.renderContact(w, r, http.StatusInternalServerError, web.Contact{Form: form, Failed: true})
		return
	}

	if asJSON {
		writeJSON(w, r, http.StatusCreated, map[string]string{"status": "ok", "id": strconv.FormatUint(uint64(msg.ID), 10)})
		return
	}

	http.Redirect(w, r, r.URL.Path+"?sent=1", http.StatusSeeOther)
}
