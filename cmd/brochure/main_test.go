package main

import (
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func metricsStub(t *testing.T, status int) (string, *atomic.Int32) {
	t.Helper()
	hits := new(atomic.Int32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/site/metrics" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv.Listener.Addr().String(), hits
}

func TestHealthCheck(t *testing.T) {
	for _, tt := range []struct {
		name    string
		status  int
		prefix  string
		wantErr bool
	}{
		{name: "healthy", status: http.StatusOK, prefix: "/site"},
		{name: "unhealthy", status: http.StatusInternalServerError, prefix: "/site", wantErr: true},
		{name: "wrong prefix", status: http.StatusOK, prefix: "", wantErr: true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			addr, _ := metricsStub(t, tt.status)

			err := healthCheck(t.Context(), "tcp", addr, tt.prefix)
			if (err != nil) != tt.wantErr {
				t.Errorf("wantErr %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// A server already owns the metrics port; the check must only dial it.
func TestHealthCheckNextToLiveServer(t *testing.T) {
	addr, hits := metricsStub(t, http.StatusOK)

	for range 2 {
		if err := healthCheck(t.Context(), "", "tcp://"+addr, "/site"); err != nil {
			t.Fatal(err)
		}
	}

	if got := hits.Load(); got != 2 {
		t.Errorf("wanted 2 requests, got %d", got)
	}
}

func TestHealthCheckUnixSocket(t *testing.T) {
	dir, err := os.MkdirTemp("", "bro")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	sock := filepath.Join(dir, "m.sock")
	ln, err := net.Listen("unix", sock)
	if err != nil {
		t.Skipf("unix sockets unavailable: %v", err)
	}

	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/metrics" {
			http.NotFound(w, r)
		}
	}))
	srv.Listener = ln
	srv.Start()
	t.Cleanup(srv.Close)

	if err := healthCheck(t.Context(), "", "unix://"+sock, ""); err != nil {
		t.Error(err)
	}
}

func TestHealthCheckWithoutMetricsBind(t *testing.T) {
	if err := healthCheck(t.Context(), "tcp", "", ""); err == nil {
		t.Error("wanted an error without a metrics address")
	}
}

func TestResolveBind(t *testing.T) {
	for _, tt := range []struct {
		network, address string
		wantNet, wantAddr string
		wantErr          bool
	}{
		{network: "tcp", address: ":8923", wantNet: "tcp", wantAddr: ":8923"},
		{network: "", address: ":8923", wantNet: "tcp", wantAddr: "localhost:8923"},
		{network: "", address: "0.0.0.0:9090", wantNet: "tcp", wantAddr: "0.0.0.0:9090"},
		{network: "", address: "tcp://127.0.0.1:80", wantNet: "tcp", wantAddr: "127.0.0.1:80"},
		{network: "", address: "unix:///run/brochure.sock", wantNet: "unix", wantAddr: "/run/brochure.sock"},
		{network: "", address: "ftp://example.com", wantErr: true},
	} {
		t.Run(tt.network+" "+tt.address, func(t *testing.T) {
			gotNet, gotAddr, err := resolveBind(tt.network, tt.address)
			if (err != nil) != tt.wantErr {
				t.Fatalf("wantErr %v, got %v", tt.wantErr, err)
			}
			if gotNet != tt.wantNet || gotAddr != tt.wantAddr {
				t.Errorf("got (%q, %q), want (%q, %q)", gotNet, gotAddr, tt.wantNet, tt.wantAddr)
			}
		})
	}
}

func TestSetupListenerReportsBusyPort(t *testing.T) {
	held, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer held.Close()

	if _, _, err := setupListener("tcp", held.Addr().String(), 0o770); err == nil {
		t.Error("wanted an error binding a port that is in use")
	}
}

func TestParseSocketMode(t *testing.T) {
	if mode, err := parseSocketMode("0770"); err != nil || mode != 0o770 {
		t.Errorf("got %o, %v", mode, err)
	}
	if _, err := parseSocketMode("rwx"); err == nil {
		t.Error("wanted an error for a non-octal mode")
	}
}
