package server

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"https-forward-proxy/internal/config"
	"https-forward-proxy/internal/handler"
	"https-forward-proxy/internal/metrics"
	"https-forward-proxy/internal/middleware"
)

// NewEcho builds the Echo instance with the global middleware stack. Only
// middleware that leaves forwarded responses untouched is global; admin-only
// middleware is mounted by handler.RegisterRoutes.
func NewEcho(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Inbound timeouts to mitigate slow-client attacks. WriteTimeout stays 0
	// so long upstream downloads are not cut off mid-stream.
	e.Server.ReadTimeout = 30 * time.Second
	e.Server.WriteTimeout = 0
	e.Server.IdleTimeout = 120 * time.Second
	e.Server.ReadHeaderTimeout = 10 * time.Second

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(logger))

	if cfg.Metrics.Enabled {
		e.Use(middleware.MetricsMiddleware(m, handler.AdminRoutes(cfg)))
		logger.Info("metrics enabled", "path", cfg.Metrics.Path)
	}

	if cfg.Server.RateLimit.Enabled {
		e.Use(middleware.RateLimiter(cfg.Server.RateLimit.RequestsPerSecond))
		logger.Info("rate limiter enabled", "rps", cfg.Server.RateLimit.RequestsPerSecond)
	}

	return e
}
