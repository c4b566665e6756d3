// Package server exposes the HTTP API over echo: city and event reads,
// submissions, votes, presence, and the event feed.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"

	"github.com/sabyjs3-beep/tctp/internal/app"
	"github.com/sabyjs3-beep/tctp/internal/config"
	"github.com/sabyjs3-beep/tctp/internal/domain"
	"github.com/sabyjs3-beep/tctp/internal/ingest"
)

type appService interface {
	ListCities(ctx context.Context) ([]domain.City, error)
	SearchVenues(ctx context.Context, query string) ([]domain.VenueHit, error)
	ListEvents(ctx context.Context, citySlug string, from, until time.Time) ([]domain.Event, error)
	GetEventDetail(ctx context.Context, eventID, deviceID uuid.UUID) (*app.EventDetail, error)
	SubmitEvent(ctx context.Context, citySlug string, sub ingest.Submission) (ingest.Decision, error)
	SubmitVote(ctx context.Context, eventID, deviceID uuid.UUID, module domain.Module, value string) error
	GetDeviceVotes(ctx context.Context, eventID, deviceID uuid.UUID) (map[domain.Module]string, error)
	GetSignals(ctx context.Context, eventID uuid.UUID) (*app.SignalSnapshot, error)
	SetPresence(ctx context.Context, eventID, deviceID uuid.UUID, status domain.PresenceStatus) (int, error)
	CreatePost(ctx context.Context, eventID, deviceID uuid.UUID, content, quickTag string) (*domain.Post, error)
	ListPosts(ctx context.Context, eventID uuid.UUID) ([]domain.Post, error)
	VoteOnPost(ctx context.Context, postID, deviceID uuid.UUID, direction int) (int, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app          appService
	healthChecks []HealthCheck
	clock        clockwork.Clock
	startTime    time.Time
}

func NewServer(cfg *config.Config, app appService, healthChecks []HealthCheck, clock clockwork.Clock) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		app:          app,
		healthChecks: healthChecks,
		clock:        clock,
		startTime:    clock.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
