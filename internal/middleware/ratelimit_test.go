package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRateLimiter_Enabled(t *testing.T) {
	e := echo.New()
	// 1 request per second, burst of 1: later requests should be rejected.
	e.Use(RateLimiter(1))
	e.GET("/update.txt", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/update.txt", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: status = %d, want %d", rec.Code, http.StatusOK)
	}

	got429 := false
	for range 10 {
		req = httptest.NewRequest(http.MethodGet, "/update.txt", http.NoBody)
		rec = httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			got429 = true
			if rec.Body.Len() != 0 {
				t.Errorf("429 body = %q, want empty", rec.Body.String())
			}
			if cl := rec.Header().Get("Content-Length"); cl != "0" {
				t.Errorf("429 Content-Length = %q, want %q", cl, "0")
			}
			break
		}
	}
	if !got429 {
		t.Error("expected at least one 429 response after burst, got none")
	}
}

func TestRateLimiter_RejectionCarriesOnlyContentLength(t *testing.T) {
	e := echo.New()
	e.Use(RateLimiter(1))
	e.GET("/update.txt", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	srv := httptest.NewServer(e)
	defer srv.Close()

	var resp *http.Response
	for range 10 {
		r, err := srv.Client().Get(srv.URL + "/update.txt")
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		_, _ = io.Copy(io.Discard, r.Body)
		_ = r.Body.Close()
		if r.StatusCode == http.StatusTooManyRequests {
			resp = r
			break
		}
	}
	if resp == nil {
		t.Fatal("expected a 429 response after burst, got none")
	}

	if len(resp.Header) != 1 || resp.Header.Get("Content-Length") != "0" {
		t.Errorf("429 headers = %v, want only Content-Length: 0", resp.Header)
	}
}
