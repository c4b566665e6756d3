package server

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	apperrors "github.com/sabyjs3-beep/tctp/internal/errors"
)

// newRateLimiter throttles by client IP. It complements the per-device
// limiter in the application layer, which a client could dodge by minting
// fresh device IDs. Idle IPs fall out of the store after five minutes.
func newRateLimiter(ratePerSecond float64, burst int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(ratePerSecond),
			Burst:     burst,
			ExpiresIn: 5 * time.Minute,
		},
	)
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			// Routed through the error middleware so IP throttles share the
			// response shape and metrics of device-level ones.
			return apperrors.RateLimitedError("too many requests from this address")
		},
	})
}
