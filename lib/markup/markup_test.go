package markup

import (
	"strings"
	"testing"
)

func TestHTML(t *testing.T) {
	r := New()

	for _, tt := range []struct {
		name    string
		input   string
		want    []string
		notWant []string
	}{
		{
			name:  "paragraph and emphasis",
			input: "We help teams **avoid** that.",
			want:  []string{"<p>", "<strong>avoid</strong>"},
		},
		{
			name:  "heading gets an id",
			input: "## Start with what you run",
			want:  []string{`<h2 id="start-with-what-you-run">`},
		},
		{
			name:    "script is stripped",
			input:   "hello <script>alert(1)</script>",
			want:    []string{"hello"},
			notWant: []string{"<script", "alert(1)"},
		},
		{
			name:    "script block is stripped",
			input:   "Intro.\n\n<script>\nfetch('/admin/me')\n</script>\n\nOutro.",
			want:    []string{"Intro.", "Outro."},
			notWant: []string{"<script", "fetch("},
		},
		{
			name:    "event handlers are stripped",
			input:   `<a href="https://example.com" onclick="steal()">partner</a>`,
			want:    []string{"partner"},
			notWant: []string{"onclick", "steal()"},
		},
		{
			name:  "safe inline html survives",
			input: "Call us <em>today</em>.",
			want:  []string{"<em>today</em>"},
		},
		{
			name:    "javascript links are dropped",
			input:   "[click](javascript:alert(1))",
			notWant: []string{"javascript:"},
		},
		{
			name:  "external links are nofollow",
			input: "[valkey](https://valkey.io)",
			want:  []string{"nofollow", `target="_blank"`},
		},
		{
			name:  "tables from GFM",
			input: "| a | b |\n|---|---|\n| 1 | 2 |",
			want:  []string{"<table>", "<td>1</td>"},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.HTML(tt.input)
			if err != nil {
				t.Fatal(err)
			}

			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("wanted %q in output:\n%s", w, got)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(got, nw) {
					t.Errorf("did not want %q in output:\n%s", nw, got)
				}
			}
		})
	}
}

func TestHTMLIsCached(t *testing.T) {
	r := New()

	first, err := r.HTML("# cached")
	if err != nil {
		t.Fatal(err)
	}

	if r.cache.Len() != 1 {
		t.Fatalf("wanted one cache entry, got %d", r.cache.Len())
	}

	second, err := r.HTML("# cached")
	if err != nil {
		t.Fatal(err)
	}

	if first != second {
		t.Errorf("cached output differs: %q vs %q", first, second)
	}
}

func TestText(t *testing.T) {
	r := New()

	if got := r.Text("<b>bold</b> move"); got != "bold move" {
		t.Errorf("wanted %q, got %q", "bold move", got)
	}
}
