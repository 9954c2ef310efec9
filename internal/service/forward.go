// Package service implements the core request translation: Host and path in,
// HTTPS upstream response out.
package service

import (
	"errors"
	"fmt"
	"log/slog"

	"https-forward-proxy/internal/client"
	"https-forward-proxy/internal/config"
	"https-forward-proxy/internal/model"
)

var (
	// ErrMissingHost is returned when the request carries no Host header.
	ErrMissingHost = errors.New("missing Host header")
	// ErrMissingContentLength is returned when upstream omits Content-Length
	// and the relay policy is "reject".
	ErrMissingContentLength = errors.New("upstream response has no Content-Length")
)

// upstreamScheme is the scheme every forwarded request is upgraded to.
const upstreamScheme = "https://"

// ForwardService resolves incoming requests to HTTPS URLs and fetches them.
type ForwardService struct {
	client *client.UpstreamClient
	cfg    *config.Config
	logger *slog.Logger
}

// NewForwardService creates a ForwardService.
func NewForwardService(c *client.UpstreamClient, cfg *config.Config, logger *slog.Logger) *ForwardService {
	return &ForwardService{
		client: c,
		cfg:    cfg,
		logger: logger.With("component", "forward_service"),
	}
}

// BuildUpstreamURL returns "https://" + host + path. Neither part is
// validated, normalized or escaped.
func BuildUpstreamURL(host, path string) string {
	return upstreamScheme + host + path
}

// Forward resolves the upstream URL for ir and fetches it. The caller is
// responsible for closing the response body.
func (s *ForwardService) Forward(ir *model.IncomingRequest) (*model.UpstreamResponse, error) {
	if ir.Host == "" {
		s.logger.Warn("unable to resolve upstream url", "path", ir.Path)
		return nil, ErrMissingHost
	}

	url := BuildUpstreamURL(ir.Host, ir.Path)
	s.logger.Info("resolved upstream url", "url", url)

	resp, err := s.client.Get(ir.Ctx, url)
	if err != nil {
		return nil, fmt.Errorf("forward to %s: %w", url, err)
	}

	if !resp.HasContentLength() && s.cfg.Relay.MissingContentLength == config.MissingLengthReject {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("forward to %s: %w", url, ErrMissingContentLength)
	}

	return resp, nil
}
