package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"https-forward-proxy/internal/metrics"
)

// MetricsMiddleware returns an Echo middleware that records Prometheus metrics
// for each inbound request. Requests are labelled with the route a handler
// claimed under metrics.RouteKey, else with the matched admin route pattern.
func MetricsMiddleware(m *metrics.Metrics, adminRoutes []string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			err := next(c)

			// A returned *echo.HTTPError has not been written yet; Echo's
			// error handler writes it later, so take the code from the error.
			statusCode := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					statusCode = he.Code
				}
			}

			status := strconv.Itoa(statusCode)
			method := metrics.NormalizeMethod(c.Request().Method)
			route, ok := c.Get(metrics.RouteKey).(string)
			if !ok {
				route = metrics.NormalizeRoute(c.Path(), adminRoutes...)
			}
			duration := time.Since(start).Seconds()

			m.RequestsTotal.WithLabelValues(method, status, route).Inc()
			m.RequestDuration.WithLabelValues(method, status, route).Observe(duration)

			return err
		}
	}
}
