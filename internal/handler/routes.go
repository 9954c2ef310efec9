package handler

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"https-forward-proxy/internal/config"
	"https-forward-proxy/internal/metrics"
	"https-forward-proxy/internal/middleware"
)

// RegisterRoutes wires all route handlers onto the Echo instance. Admin routes
// only answer requests whose Host names the proxy itself; every other request,
// including other paths on the proxy's own host, is forwarded upstream.
func RegisterRoutes(e *echo.Echo, forward *ForwardHandler, health *HealthHandler, cfg *config.Config, m *metrics.Metrics) {
	adminMW := []echo.MiddlewareFunc{echomw.RequestID(), middleware.SecurityHeaders()}
	for _, host := range config.SelfHosts {
		// Middleware is per route: the catch-all below must keep the
		// Content-Length-only response shape.
		admin := e.Host(host)
		admin.GET("/healthz", health.Healthz, adminMW...)
		admin.GET("/proxy/status", health.Status, adminMW...)
		if cfg.Metrics.Enabled {
			admin.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})), adminMW...)
		}
		admin.Any("/*", forward.Handle)
	}

	e.Any("/*", forward.Handle)
}

// AdminRoutes returns the route patterns served on the proxy's own host.
func AdminRoutes(cfg *config.Config) []string {
	routes := []string{"/healthz", "/proxy/status"}
	if cfg.Metrics.Enabled {
		routes = append(routes, cfg.Metrics.Path)
	}
	return routes
}
