package auth

import (
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/corvidlabs/brochure"
	"golang.org/x/net/publicsuffix"
)

// DynamicDomain in CookieDomain scopes the cookie to the request host's
// registrable domain.
const DynamicDomain = "auto"

var domainMatchRegexp = regexp.MustCompile(`^((xn--)?[a-z0-9]+(-[a-z0-9]+)*\.)+[a-z]{2,}$`)

type Cookies struct {
	Name   string
	Domain string
	Secure bool
	TTL    time.Duration
}

func (c Cookies) domain(r *http.Request) string {
	if c.Domain != DynamicDomain {
		return c.Domain
	}

	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(host)

	if !domainMatchRegexp.MatchString(host) {
		return ""
	}

	if etld, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return etld
	}
	return ""
}

func (c Cookies) name() string {
	if c.Name != "" {
		return c.Name
	}
	return brochure.SessionCookieName
}

func (c Cookies) path() string {
	return brochure.PrefixedPath(brochure.AdminPrefix)
}

func (c Cookies) Set(w http.ResponseWriter, r *http.Request, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    value,
		Expires:  time.Now().Add(c.TTL),
		MaxAge:   int(c.TTL.Seconds()),
		Domain:   c.domain(r),
		Path:     c.path(),
		Secure:   c.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (c Cookies) Clear(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    "",
		MaxAge:   -1,
		Expires:  time.Now().Add(-time.Minute),
		Domain:   c.domain(r),
		Path:     c.path(),
		Secure:   c.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// Token reads the session from the cookie or an Authorization bearer header.
func (c Cookies) Token(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if ck, err := r.Cookie(c.name()); err == nil {
		return ck.Value
	}
	return ""
}
