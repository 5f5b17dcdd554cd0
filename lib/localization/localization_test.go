package localization

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
)

func TestGetLocalizer(t *testing.T) {
	service := NewLocalizationService()

	for _, tt := range []struct {
		name  string
		prefs []string
		lang  string
		want  string
	}{
		{name: "english", prefs: []string{"en"}, lang: "en", want: "Contact us"},
		{name: "german", prefs: []string{"de"}, lang: "de", want: "Kontakt"},
		{name: "german regional", prefs: []string{"de-AT,de;q=0.9"}, lang: "de", want: "Kontakt"},
		{name: "accept language ordering", prefs: []string{"fr-CH, de;q=0.8, en;q=0.5"}, lang: "de", want: "Kontakt"},
		{name: "unknown falls back", prefs: []string{"tlh"}, lang: "en", want: "Contact us"},
		{name: "garbage falls back", prefs: []string{";;;"}, lang: "en", want: "Contact us"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			loc := service.GetLocalizer(tt.prefs...)
			if loc.Lang != tt.lang {
				t.Errorf("wanted lang %q, got %q", tt.lang, loc.Lang)
			}
			if got := loc.T("contact_heading"); got != tt.want {
				t.Errorf("wanted %q, got %q", tt.want, got)
			}
		})
	}
}

func TestTemplateData(t *testing.T) {
	loc := NewLocalizationService().GetLocalizer("en")

	if got := loc.Tf("captcha_label", map[string]any{"Question": "12 + 7"}); got != "What is 12 + 7?" {
		t.Errorf("unexpected %q", got)
	}

	if got := loc.T("no_such_key"); got != "no_such_key" {
		t.Errorf("missing keys should come back unchanged, got %q", got)
	}
}

func TestRequestOverrides(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?lang=de", nil)
	req.Header.Set("Accept-Language", "en")

	if got := GetLocalizer(req).Lang; got != "de" {
		t.Errorf("query parameter should win, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "lang", Value: "de"})
	req.Header.Set("Accept-Language", "en")

	if got := GetLocalizer(req).Lang; got != "de" {
		t.Errorf("cookie should beat Accept-Language, got %q", got)
	}
}

func TestLocalesHaveSameKeys(t *testing.T) {
	keys := func(name string) []string {
		data, err := localeFS.ReadFile("locales/" + name)
		if err != nil {
			t.Fatal(err)
		}
		var m map[string]string
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		var result []string
		for k := range m {
			result = append(result, k)
		}
		sort.Strings(result)
		return result
	}

	en := keys("en.json")
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		t.Fatal(err)
	}

	for _, e := range entries {
		if e.Name() == "en.json" {
			continue
		}
		t.Run(e.Name(), func(t *testing.T) {
			other := keys(e.Name())
			if len(other) != len(en) {
				t.Errorf("wanted %d keys, got %d", len(en), len(other))
			}
			have := map[string]bool{}
			for _, k := range other {
				have[k] = true
			}
			for _, k := range en {
				if !have[k] {
					t.Errorf("missing key %q", k)
				}
			}
		})
	}
}
