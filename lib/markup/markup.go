// Package markup turns admin-authored markdown into HTML that is safe to
// embed in public pages.
package markup

import (
	"bytes"
	"fmt"
	"time"

	"github.com/corvidlabs/brochure/decaymap"
	"github.com/corvidlabs/brochure/internal"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// CacheTTL is how long a rendered document is kept.
const CacheTTL = 10 * time.Minute

type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	strict *bluemonday.Policy
	cache  *decaymap.Impl[string, string]
}

func New() *Renderer {
	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Typographer),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			// raw HTML is passed through so bluemonday sees whole elements
			goldmark.WithRendererOptions(html.WithHardWraps(), html.WithUnsafe()),
		),
		policy: policy,
		strict: bluemonday.StrictPolicy(),
		cache:  decaymap.New[string, string](),
	}
}

// HTML renders src and sanitises the result. Output is cached by content hash.
func (r *Renderer) HTML(src string) (string, error) {
	key := internal.FastHash("html", src)
	if out, ok := r.cache.Get(key); ok {
		return out, nil
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("markup: can't render markdown: %w", err)
	}

	out := r.policy.Sanitize(buf.String())
	r.cache.Set(key, out, CacheTTL)

	return out, nil
}

// MustHTML is HTML for templates: on error it falls back to escaped text.
func (r *Renderer) MustHTML(src string) string {
	out, err := r.HTML(src)
	if err != nil {
		return "<p>" + r.Text(src) + "</p>"
	}
	return out
}

// Text strips all markup, for meta descriptions and notification emails.
func (r *Renderer) Text(src string) string {
	return r.strict.Sanitize(src)
}

// Cleanup drops expired cache entries.
func (r *Renderer) Cleanup() {
	r.cache.Cleanup()
}
