package web

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"

	"github.com/corvidlabs/brochure/lib/captcha"
	"github.com/corvidlabs/brochure/lib/config"
	"github.com/corvidlabs/brochure/lib/contact"
	"github.com/corvidlabs/brochure/lib/content"
	"github.com/corvidlabs/brochure/lib/localization"
	"github.com/corvidlabs/brochure/lib/markup"
)

func view(t *testing.T, lang string) View {
	t.Helper()
	return View{
		SiteName:  "Corvid Labs",
		Localizer: localization.NewLocalizationService().GetLocalizer(lang),
		Markup:    markup.New(),
	}
}

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(t.Context(), &buf); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestBase(t *testing.T) {
	v := view(t, "de")
	v.Nav = NavContact
	v.Impressum = &config.Impressum{Footer: "Corvid Labs GmbH", Title: "Impressum", Body: "x"}

	out := render(t, Base(v, `<Kontakt>`, "a \"quoted\" description", templ.Raw("<p>body</p>")))

	for _, want := range []string{
		`<html lang="de">`,
		`<title>&lt;Kontakt&gt; | Corvid Labs</title>`,
		`content="a &#34;quoted&#34; description"`,
		`<a href="/contact" aria-current="page">Kontakt</a>`,
		`<p>body</p>`,
		`Corvid Labs GmbH`,
		`href="/impressum"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output is missing %q", want)
		}
	}
}

func TestContactPage(t *testing.T) {
	v := view(t, "en")

	out := render(t, ContactPage(v, Contact{
		Form: contact.Form{
			Name:    `Ada "Countess" Lovelace`,
			Email:   "ada@example.com",
			Message: "<script>alert(1)</script>",
		},
		Errors: map[string]string{
			contact.FieldCaptchaAnswer: contact.MsgCaptchaFailed,
		},
		Challenge: captcha.Issued{Question: "12 + 7", Token: "MTlfMTcwMDAwMDAwMF80MjM0X2Fi"},
	}))

	for _, want := range []string{
		`What is 12 + 7?`,
		`name="captcha_token" value="MTlfMTcwMDAwMDAwMF80MjM0X2Fi"`,
		`value="Ada &#34;Countess&#34; Lovelace"`,
		`value="ada@example.com"`,
		`&lt;script&gt;alert(1)&lt;/script&gt;</textarea>`,
		`CAPTCHA verification failed, please try again.`,
		`class="field captcha invalid"`,
		`Please correct the highlighted fields.`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output is missing %q", want)
		}
	}

	if strings.Contains(out, `id="captcha_answer" name="captcha_answer" type="text" inputmode="numeric" autocomplete="off" required value`) {
		t.Error("the old CAPTCHA answer must not be re-filled")
	}
}

func TestContactPageSent(t *testing.T) {
	out := render(t, ContactPage(view(t, "de"), Contact{Sent: true, Challenge: captcha.Issued{Question: "9 - 3", Token: "t"}}))

	if !strings.Contains(out, "Vielen Dank!") {
		t.Error("wanted the localized thank you notice")
	}
	if strings.Contains(out, `class="error"`) {
		t.Error("a successful submission has no field errors")
	}
}

func TestInsightPage(t *testing.T) {
	published := time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC)

	out := render(t, InsightPage(view(t, "en"), content.Insight{
		Title:       "Boring technology",
		Author:      "Grace",
		Body:        "Use **boring** tools.\n\n<script>alert(1)</script>",
		PublishedAt: &published,
	}))

	for _, want := range []string{
		`<h1>Boring technology</h1>`,
		`Published 5 March 2024 by Grace`,
		`<strong>boring</strong>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output is missing %q", want)
		}
	}

	if strings.Contains(out, "<script>") {
		t.Error("markdown output was not sanitised")
	}
}

func TestUnsafeURLs(t *testing.T) {
	out := render(t, partnerList(view(t, "en"), []content.Partner{
		{Name: "Evil", URL: "javascript:alert(1)"},
	}))

	if strings.Contains(out, "javascript:") {
		t.Errorf("unsafe URL was rendered: %s", out)
	}
}

func TestEmptyLists(t *testing.T) {
	v := view(t, "en")

	for _, tt := range []struct {
		name string
		c    templ.Component
	}{
		{"services", ServicesPage(v, nil)},
		{"solutions", SolutionsPage(v, nil)},
		{"case studies", CaseStudiesPage(v, nil)},
		{"testimonials", TestimonialsPage(v, nil)},
		{"insights", InsightsPage(v, nil)},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if out := render(t, tt.c); !strings.Contains(out, "Nothing here yet.") {
				t.Errorf("wanted an empty notice, got %s", out)
			}
		})
	}
}

func TestStaticEmbedded(t *testing.T) {
	if _, err := Static.ReadFile("static/brochure.css"); err != nil {
		t.Fatal(err)
	}
}

func TestContactFields(t *testing.T) {
	out := render(t, ContactPage(view(t, "en"), Contact{
		Errors:    map[string]string{contact.FieldEmail: contact.MsgInvalidEmail},
		Challenge: captcha.Issued{Question: "3 + 4", Token: "t"},
	}))

	for _, want := range []string{
		`<div class="field invalid"><label for="email">`,
		`<input id="email" name="email" type="email" value="" required>`,
		`<input id="phone" name="phone" type="tel" value="">`,
		`<p class="error" id="email-error">`,
		`<div class="field captcha"><label for="captcha_answer">`,
		`action="/contact"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output is missing %q:\n%s", want, out)
		}
	}
}

func TestBaseWithoutBody(t *testing.T) {
	out := render(t, Base(view(t, "en"), "", "", nil))

	if !strings.Contains(out, "<title>Corvid Labs</title>") {
		t.Errorf("wanted the bare site name as title:\n%s", out)
	}
	if !strings.Contains(out, "<main></main>") {
		t.Errorf("wanted an empty main element:\n%s", out)
	}
}

func TestTemplatesAreGenerated(t *testing.T) {
	sources, err := filepath.Glob("*.templ")
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) == 0 {
		t.Fatal("no templ sources found")
	}

	for _, src := range sources {
		gen := strings.TrimSuffix(src, ".templ") + "_templ.go"
		data, err := os.ReadFile(gen)
		if err != nil {
			t.Errorf("%s has no generated file, run go generate ./web: %v", src, err)
			continue
		}
		if !bytes.HasPrefix(data, []byte("// Code generated by templ - DO NOT EDIT.")) {
			t.Errorf("%s does not look like templ output", gen)
		}
	}
}
