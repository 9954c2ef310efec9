package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"https-forward-proxy/internal/client"
	"https-forward-proxy/internal/metrics"
	"https-forward-proxy/internal/model"
	"https-forward-proxy/internal/relay"
	"https-forward-proxy/internal/service"
)

// ForwardHandler relays plain HTTP requests to their HTTPS upstream.
type ForwardHandler struct {
	service *service.ForwardService
	logger  *slog.Logger
	metrics *metrics.Metrics
	methods map[string]echo.HandlerFunc
}

// NewForwardHandler creates a ForwardHandler. The metrics parameter is
// optional; pass nil to skip relayed byte accounting.
func NewForwardHandler(svc *service.ForwardService, logger *slog.Logger, m *metrics.Metrics) *ForwardHandler {
	h := &ForwardHandler{
		service: svc,
		logger:  logger.With("component", "forward_handler"),
		metrics: m,
	}
	h.methods = map[string]echo.HandlerFunc{
		http.MethodGet: h.get,
	}
	return h
}

// Handle dispatches on the request method. Methods without a handler are
// rejected with 405.
func (h *ForwardHandler) Handle(c echo.Context) error {
	c.Set(metrics.RouteKey, metrics.RouteForward)

	fn, ok := h.methods[c.Request().Method]
	if !ok {
		c.Response().Header().Set(echo.HeaderAllow, h.allowed())
		return emptyResponse(c, http.StatusMethodNotAllowed)
	}
	return fn(c)
}

func (h *ForwardHandler) allowed() string {
	methods := make([]string, 0, len(h.methods))
	for m := range h.methods {
		methods = append(methods, m)
	}
	return strings.Join(methods, ", ")
}

func (h *ForwardHandler) get(c echo.Context) error {
	req := c.Request()
	ir := &model.IncomingRequest{
		Ctx:    req.Context(),
		Method: req.Method,
		Host:   req.Host,
		Path:   requestPath(req),
	}

	resp, err := h.service.Forward(ir)
	if err != nil {
		return h.mapError(c, err)
	}
	defer func() { _ = resp.Body.Close() }()

	header := c.Response().Header()
	suppressDefaultHeaders(header)
	if resp.HasContentLength() {
		header.Set(echo.HeaderContentLength, resp.ContentLength)
	}
	c.Response().WriteHeader(resp.StatusCode)

	// Status is already on the wire; a failure here leaves the client with a
	// truncated body and is only logged.
	n, err := relay.Stream(c.Response(), resp.Body, relay.ChunkSize)
	if h.metrics != nil {
		h.metrics.RelayedBytes.Add(float64(n))
	}
	if err != nil {
		h.logger.Error("streaming response body",
			"err", err,
			"host", ir.Host,
			"path", ir.Path,
			"bytes", n,
		)
	}
	return nil
}

// requestPath returns the raw request target. Absolute-form targets
// ("GET http://host/path") are reduced to their origin-form part.
func requestPath(req *http.Request) string {
	if strings.HasPrefix(req.RequestURI, "/") {
		return req.RequestURI
	}
	return req.URL.RequestURI()
}

// suppressDefaultHeaders stops net/http from adding Date and a sniffed
// Content-Type, so Content-Length is the only header relayed.
func suppressDefaultHeaders(h http.Header) {
	h["Date"] = nil
	h["Content-Type"] = nil
}

// emptyResponse writes status with Content-Length 0 and no body.
func emptyResponse(c echo.Context, status int) error {
	header := c.Response().Header()
	suppressDefaultHeaders(header)
	header.Set(echo.HeaderContentLength, "0")
	c.Response().WriteHeader(status)
	return nil
}

func (h *ForwardHandler) mapError(c echo.Context, err error) error {
	if errors.Is(err, service.ErrMissingHost) {
		return emptyResponse(c, http.StatusNotFound)
	}

	h.logger.Error("forward error",
		"err", err,
		"host", c.Request().Host,
		"path", requestPath(c.Request()),
	)

	if client.IsTimeout(err) {
		return emptyResponse(c, http.StatusGatewayTimeout)
	}
	return emptyResponse(c, http.StatusBadGateway)
}
