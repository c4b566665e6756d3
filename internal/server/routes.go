package server

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/sabyjs3-beep/tctp/internal/errors"
)

func (s *Server) registerRoutes() {
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(apperrors.Middleware())
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))
	s.echo.Use(deviceIDMiddleware())

	s.registerHealthRoutes()
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Per-IP throttle on the write surface; per-device friction lives in the
	// application layer.
	writeLimiter := newRateLimiter(5, 10)

	api := s.echo.Group("/api")
	api.GET("/cities", s.handleListCities)
	api.GET("/search", s.handleSearch)
	api.GET("/events", s.handleListEvents)
	api.POST("/events", s.handleSubmitEvent, writeLimiter)
	api.GET("/events/:id", s.handleEventDetail)
	api.GET("/events/:id/signals", s.handleSignals)
	api.GET("/events/:id/votes", s.handleMyVotes)
	api.POST("/events/:id/votes", s.handleVote, writeLimiter)
	api.POST("/events/:id/presence", s.handlePresence, writeLimiter)
	api.GET("/events/:id/posts", s.handleListPosts)
	api.POST("/events/:id/posts", s.handleCreatePost, writeLimiter)
	api.POST("/posts/:id/votes", s.handlePostVote, writeLimiter)
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.Info("Request", attrs...)
			return nil
		},
	})
}
