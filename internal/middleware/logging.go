// Package middleware provides Echo middleware for logging, metrics and security.
package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogger returns an Echo middleware that logs each request with slog.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			req := c.Request()
			res := c.Response()
			attrs := []any{
				"method", req.Method,
				"host", req.Host,
				"path", req.URL.Path,
				"proto", req.Proto,
				"status", res.Status,
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_ip", c.RealIP(),
				"bytes_out", res.Size,
			}
			if id := res.Header().Get(echo.HeaderXRequestID); id != "" {
				attrs = append(attrs, "request_id", id)
			}
			logger.Info("request", attrs...)

			return err
		}
	}
}
