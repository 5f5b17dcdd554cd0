// Package localization translates the public site's interface strings.
package localization

import (
	"embed"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// DefaultLanguage is used when a request asks for nothing we have. Set at
// startup from the site configuration.
var DefaultLanguage = language.English

type LocalizationService struct {
	bundle  *i18n.Bundle
	matcher language.Matcher
}

var (
	globalService *LocalizationService
	once          sync.Once
)

func NewLocalizationService() *LocalizationService {
	once.Do(func() {
		globalService = load()
	})
	return globalService
}

func load() *LocalizationService {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		slog.Error("[unexpected] can't read embedded locales", "err", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+entry.Name()); err != nil {
			slog.Error("can't load locale", "file", entry.Name(), "err", err)
		}
	}

	return &LocalizationService{
		bundle:  bundle,
		matcher: language.NewMatcher(bundle.LanguageTags()),
	}
}

// Languages lists every loaded locale.
func (ls *LocalizationService) Languages() []language.Tag {
	return ls.bundle.LanguageTags()
}

// GetLocalizer picks the best locale for the given preferences, which may
// be plain tags or Accept-Language values.
func (ls *LocalizationService) GetLocalizer(prefs ...string) *SimpleLocalizer {
	var tags []language.Tag
	for _, p := range prefs {
		parsed, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	tags = append(tags, DefaultLanguage)

	_, idx, _ := ls.matcher.Match(tags...)
	lang := ls.bundle.LanguageTags()[idx]
	base, _ := lang.Base()

	return &SimpleLocalizer{
		Localizer: i18n.NewLocalizer(ls.bundle, lang.String()),
		Lang:      base.String(),
	}
}

func (ls *LocalizationService) GetLocalizerFromRequest(r *http.Request) *SimpleLocalizer {
	var prefs []string
	if lang := r.URL.Query().Get("lang"); lang != "" {
		prefs = append(prefs, lang)
	}
	if ck, err := r.Cookie("lang"); err == nil {
		prefs = append(prefs, ck.Value)
	}
	prefs = append(prefs, r.Header.Get("Accept-Language"))
	return ls.GetLocalizer(prefs...)
}

// SimpleLocalizer wraps i18n.Localizer with a more convenient API.
type SimpleLocalizer struct {
	Localizer *i18n.Localizer

	// Lang is the base language, for the html lang attribute.
	Lang string
}

// T localizes messageID. Unknown ids come back unchanged so a missing
// translation shows up on the page instead of breaking it.
func (sl *SimpleLocalizer) T(messageID string) string {
	return sl.Tf(messageID, nil)
}

// Tf is T with template data.
func (sl *SimpleLocalizer) Tf(messageID string, data map[string]any) string {
	result, err := sl.Localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		slog.Debug("missing translation", "id", messageID, "lang", sl.Lang, "err", err)
		return messageID
	}
	return result
}

// GetLocalizer creates a localizer based on the request's preferences.
func GetLocalizer(r *http.Request) *SimpleLocalizer {
	return NewLocalizationService().GetLocalizerFromRequest(r)
}
