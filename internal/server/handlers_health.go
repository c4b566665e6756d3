package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthCheck is a named dependency check the probes run in registration
// order.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// The /health/* split follows the kubelet probe convention. /healthz is the
// flat alias uptime monitors poll; it answers the same question as
// /health/ready. Startup gets a tighter timeout so a wedged dependency fails
// the probe fast during rollout.
func (s *Server) registerHealthRoutes() {
	s.echo.GET("/health/startup", s.checkedProbe(2*time.Second))
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.checkedProbe(5*time.Second))
	s.echo.GET("/healthz", s.checkedProbe(5*time.Second))
}

// handleLiveness only proves the process is serving requests; dependency
// state is the readiness probe's job.
func (s *Server) handleLiveness(c echo.Context) error {
	response := map[string]any{
		"status": "ok",
		"uptime": s.clock.Since(s.startTime).Seconds(),
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write liveness response: %w", err)
	}
	return nil
}

// checkedProbe builds a handler that runs every health check within the
// timeout and reports the first failure.
func (s *Server) checkedProbe(timeout time.Duration) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
		defer cancel()

		for _, hc := range s.healthChecks {
			err := hc.Check(ctx)
			if err == nil {
				continue
			}

			response := map[string]any{
				"status":       "unhealthy",
				"failed_check": hc.Name,
				"error":        err.Error(),
			}
			if err := c.JSON(http.StatusServiceUnavailable, response); err != nil {
				return fmt.Errorf("failed to send JSON response: %w", err)
			}
			return nil
		}

		if err := c.JSON(http.StatusOK, map[string]string{"status": "ready"}); err != nil {
			return fmt.Errorf("failed to send JSON response: %w", err)
		}
		return nil
	}
}
