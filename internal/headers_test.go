package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRemoteXRealIP(t *testing.T) {
	var got string
	h := RemoteXRealIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ClientIP(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:51234"
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != "198.51.100.7" {
		t.Errorf("wanted client ip 198.51.100.7, got %q", got)
	}
}

func TestTrustedProxies(t *testing.T) {
	var got string
	h, err := TrustedProxies([]string{"10.0.0.0/8"}, RemoteXRealIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ClientIP(r)
	})))
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:4000"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != "203.0.113.9" {
		t.Errorf("wanted forwarded ip 203.0.113.9, got %q", got)
	}
}

func TestNoStoreCache(t *testing.T) {
	rec := httptest.NewRecorder()
	NoStoreCache(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("wanted Cache-Control no-store, got %q", cc)
	}
}
