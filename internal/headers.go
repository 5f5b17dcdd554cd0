package internal

import (
	"net"
	"net/http"
	"strings"

	"github.com/sebest/xff"
)

// NoStoreCache marks responses as uncacheable. Pages carrying a CAPTCHA
// token must never be served from a shared cache.
func NoStoreCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// UnchangingCache sets long-lived cache headers for embedded static assets,
// except in development builds.
func UnchangingCache(version string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if version != "devel" {
			w.Header().Set("Cache-Control", "public, max-age=31536000")
		}
		next.ServeHTTP(w, r)
	})
}

// NoBrowsing refuses directory listings.
func NoBrowsing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TrustedProxies rewrites r.RemoteAddr from X-Forwarded-For when the direct
// peer is inside one of subnets. An empty list trusts every peer.
func TrustedProxies(subnets []string, next http.Handler) (http.Handler, error) {
	x, err := xff.New(xff.Options{AllowedSubnets: subnets})
	if err != nil {
		return nil, err
	}

	return x.Handler(next), nil
}

// RemoteXRealIP copies the peer address into X-Real-Ip so handlers have one
// place to read the client address from.
func RemoteXRealIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		r.Header.Set("X-Real-Ip", host)
		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the best known client address for r.
func ClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-Ip"); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
