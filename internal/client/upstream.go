// Package client provides the upstream HTTPS client.
package client

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"https-forward-proxy/internal/config"
	"https-forward-proxy/internal/metrics"
	"https-forward-proxy/internal/model"
)

const userAgent = "https-forward-proxy/1.0"

// UpstreamClient fetches resources from HTTPS upstreams.
type UpstreamClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewUpstreamClient creates an UpstreamClient using the system trust store.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func NewUpstreamClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *UpstreamClient {
	return newUpstreamClient(cfg, logger, m, nil)
}

// NewUpstreamClientForTest creates an UpstreamClient that verifies upstream
// certificates with tlsConfig. This is intended only for tests that talk to
// an httptest TLS server.
func NewUpstreamClientForTest(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics, tlsConfig *tls.Config) *UpstreamClient {
	return newUpstreamClient(cfg, logger, m, tlsConfig)
}

func newUpstreamClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics, tlsConfig *tls.Config) *UpstreamClient {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
		// Bodies and Content-Length must reach the client exactly as upstream sent them.
		DisableCompression: true,
		TLSClientConfig:    tlsConfig,
	}

	return &UpstreamClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
			// Redirects are relayed to the client, never followed.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger:  logger.With("component", "upstream_client"),
		metrics: m,
	}
}

// Get issues a GET for url and returns the response with its body unread.
// The caller is responsible for closing the response body. The context
// controls the lifetime of the upstream request, body included.
func (c *UpstreamClient) Get(ctx context.Context, url string) (*model.UpstreamResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("upstream request", "url", url)

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:bodyclose // body ownership transfers to caller via UpstreamResponse
	if c.metrics != nil {
		c.metrics.UpstreamDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if c.metrics != nil {
			c.metrics.UpstreamErrors.Inc()
		}
		return nil, fmt.Errorf("upstream request: %w", err)
	}

	if c.metrics != nil {
		c.metrics.UpstreamResponses.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	}

	c.logger.Debug("upstream response",
		"url", url,
		"status", resp.StatusCode,
		"content_length", resp.Header.Get("Content-Length"),
	)

	return &model.UpstreamResponse{
		StatusCode:    resp.StatusCode,
		ContentLength: resp.Header.Get("Content-Length"),
		Body:          resp.Body,
	}, nil
}

// IsTimeout reports whether err is an upstream timeout, either from the
// client deadline or the request context.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
