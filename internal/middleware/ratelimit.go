package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RateLimiter returns a per-client-IP rate limiting middleware. Rejected
// requests get an empty 429 with Content-Length 0, the same shape as the
// proxy's other locally generated responses.
func RateLimiter(rps float64) echo.MiddlewareFunc {
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: echomw.NewRateLimiterMemoryStore(rate.Limit(rps)),
		ErrorHandler: func(c echo.Context, err error) error {
			return emptyStatus(c, http.StatusForbidden)
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return emptyStatus(c, http.StatusTooManyRequests)
		},
	})
}

func emptyStatus(c echo.Context, status int) error {
	header := c.Response().Header()
	header["Date"] = nil
	header["Content-Type"] = nil
	header.Set(echo.HeaderContentLength, "0")
	return c.NoContent(status)
}
