package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"https-forward-proxy/internal/config"
	"https-forward-proxy/internal/metrics"
)

func TestRegisterRoutes_Wiring(t *testing.T) {
	srv := httptest.NewTLSServer(helloUpstream())
	defer srv.Close()

	cfg := &config.Config{Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"}}
	m := metrics.New()
	forward, upstreamHost := newTestForwardHandler(t, srv, cfg, m)
	health := NewHealthHandler(cfg, "test")

	e := echo.New()
	RegisterRoutes(e, forward, health, cfg, m)

	tests := []struct {
		name       string
		method     string
		host       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"healthz on listen addr", http.MethodGet, "127.0.0.1:8888", "/healthz", http.StatusOK, `"status":"ok"`},
		{"healthz on localhost", http.MethodGet, "localhost:8888", "/healthz", http.StatusOK, `"status":"ok"`},
		{"status", http.MethodGet, "127.0.0.1:8888", "/proxy/status", http.StatusOK, `"listen_addr":"127.0.0.1:8888"`},
		{"metrics", http.MethodGet, "127.0.0.1:8888", "/metrics", http.StatusOK, "go_goroutines"},
		{"forwarded", http.MethodGet, upstreamHost, "/update.txt", http.StatusOK, "Hello, world!"},
		{"upstream healthz is forwarded", http.MethodGet, upstreamHost, "/healthz", http.StatusOK, "Hello, world!"},
		{"forwarded POST rejected", http.MethodPost, upstreamHost, "/update.txt", http.StatusMethodNotAllowed, ""},
		{"missing host", http.MethodGet, "", "/anything", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			req.Host = tt.host
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want it to contain %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRegisterRoutes_AdminHeadersOnlyOnAdminHost(t *testing.T) {
	srv := httptest.NewTLSServer(helloUpstream())
	defer srv.Close()

	cfg := &config.Config{}
	forward, upstreamHost := newTestForwardHandler(t, srv, cfg, nil)

	e := echo.New()
	RegisterRoutes(e, forward, NewHealthHandler(cfg, "test"), cfg, metrics.New())

	req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	req.Host = config.ListenAddr
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("admin response missing X-Content-Type-Options")
	}
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Error("admin response missing X-Request-Id")
	}

	req = httptest.NewRequest(http.MethodGet, "/update.txt", http.NoBody)
	req.Host = upstreamHost
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if got := relayedHeaders(rec); len(got) != 1 || got[0] != "Content-Length" {
		t.Errorf("forwarded response headers = %v, want only Content-Length", got)
	}
}

func TestRegisterRoutes_SelfHostOtherPathsForwarded(t *testing.T) {
	srv := httptest.NewTLSServer(helloUpstream())
	defer srv.Close()

	// Metrics disabled, so /metrics is an ordinary path on the proxy's host.
	cfg := &config.Config{Metrics: config.MetricsConfig{Enabled: false, Path: "/metrics"}}
	m := metrics.New()
	forward, _ := newTestForwardHandler(t, srv, cfg, m)

	e := echo.New()
	RegisterRoutes(e, forward, NewHealthHandler(cfg, "test"), cfg, m)

	for _, host := range config.SelfHosts {
		for _, path := range []string{"/update.txt", "/metrics"} {
			t.Run(host+path, func(t *testing.T) {
				req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
				req.Host = host
				rec := httptest.NewRecorder()
				e.ServeHTTP(rec, req)

				// Nothing serves TLS on the proxy's own address, so the
				// forward ends in an empty 502 rather than a router 404.
				if rec.Code == http.StatusNotFound {
					t.Errorf("status = %d, want the forwarded status", rec.Code)
				}
				if strings.Contains(rec.Body.String(), "Not Found") || strings.Contains(rec.Body.String(), "go_goroutines") {
					t.Errorf("body = %q, want the forwarded response", rec.Body.String())
				}
				if got := relayedHeaders(rec); len(got) != 1 || got[0] != "Content-Length" {
					t.Errorf("headers = %v, want only Content-Length", got)
				}
			})
		}
	}
}

func TestAdminRoutes(t *testing.T) {
	got := AdminRoutes(&config.Config{Metrics: config.MetricsConfig{Enabled: true, Path: "/prom"}})
	want := []string{"/healthz", "/proxy/status", "/prom"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("AdminRoutes() = %v, want %v", got, want)
	}

	got = AdminRoutes(&config.Config{})
	if len(got) != 2 {
		t.Errorf("AdminRoutes() = %v, want health routes only", got)
	}
}
