package server

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/sabyjs3-beep/tctp/internal/app"
	"github.com/sabyjs3-beep/tctp/internal/config"
	"github.com/sabyjs3-beep/tctp/internal/domain"
	"github.com/sabyjs3-beep/tctp/internal/ingest"
)

type mockAppService struct {
	listCitiesFn     func(ctx context.Context) ([]domain.City, error)
	searchVenuesFn   func(ctx context.Context, query string) ([]domain.VenueHit, error)
	listEventsFn     func(ctx context.Context, citySlug string, from, until time.Time) ([]domain.Event, error)
	getEventDetailFn func(ctx context.Context, eventID, deviceID uuid.UUID) (*app.EventDetail, error)
	submitEventFn    func(ctx context.Context, citySlug string, sub ingest.Submission) (ingest.Decision, error)
	submitVoteFn     func(ctx context.Context, eventID, deviceID uuid.UUID, module domain.Module, value string) error
	getDeviceVotesFn func(ctx context.Context, eventID, deviceID uuid.UUID) (map[domain.Module]string, error)
	getSignalsFn     func(ctx context.Context, eventID uuid.UUID) (*app.SignalSnapshot, error)
	setPresenceFn    func(ctx context.Context, eventID, deviceID uuid.UUID, status domain.PresenceStatus) (int, error)
	createPostFn     func(ctx context.Context, eventID, deviceID uuid.UUID, content, quickTag string) (*domain.Post, error)
	listPostsFn      func(ctx context.Context, eventID uuid.UUID) ([]domain.Post, error)
	voteOnPostFn     func(ctx context.Context, postID, deviceID uuid.UUID, direction int) (int, error)
}

func (m *mockAppService) ListCities(ctx context.Context) ([]domain.City, error) {
	if m.listCitiesFn != nil {
		return m.listCitiesFn(ctx)
	}
	return nil, nil
}

func (m *mockAppService) SearchVenues(ctx context.Context, query string) ([]domain.VenueHit, error) {
	if m.searchVenuesFn != nil {
		return m.searchVenuesFn(ctx, query)
	}
	return nil, nil
}

func (m *mockAppService) ListEvents(ctx context.Context, citySlug string, from, until time.Time) ([]domain.Event, error) {
	if m.listEventsFn != nil {
		return m.listEventsFn(ctx, citySlug, from, until)
	}
	return nil, nil
}

func (m *mockAppService) GetEventDetail(ctx context.Context, eventID, deviceID uuid.UUID) (*app.EventDetail, error) {
	if m.getEventDetailFn != nil {
		return m.getEventDetailFn(ctx, eventID, deviceID)
	}
	return &app.EventDetail{}, nil
}

func (m *mockAppService) SubmitEvent(ctx context.Context, citySlug string, sub ingest.Submission) (ingest.Decision, error) {
	if m.submitEventFn != nil {
		return m.submitEventFn(ctx, citySlug, sub)
	}
	return ingest.Decision{Action: ingest.ActionCreated}, nil
}

func (m *mockAppService) SubmitVote(ctx context.Context, eventID, deviceID uuid.UUID, module domain.Module, value string) error {
	if m.submitVoteFn != nil {
		return m.submitVoteFn(ctx, eventID, deviceID, module, value)
	}
	return nil
}

func (m *mockAppService) GetDeviceVotes(ctx context.Context, eventID, deviceID uuid.UUID) (map[domain.Module]string, error) {
	if m.getDeviceVotesFn != nil {
		return m.getDeviceVotesFn(ctx, eventID, deviceID)
	}
	return map[domain.Module]string{}, nil
}

func (m *mockAppService) GetSignals(ctx context.Context, eventID uuid.UUID) (*app.SignalSnapshot, error) {
	if m.getSignalsFn != nil {
		return m.getSignalsFn(ctx, eventID)
	}
	return &app.SignalSnapshot{}, nil
}

func (m *mockAppService) SetPresence(ctx context.Context, eventID, deviceID uuid.UUID, status domain.PresenceStatus) (int, error) {
	if m.setPresenceFn != nil {
		return m.setPresenceFn(ctx, eventID, deviceID, status)
	}
	return 0, nil
}

func (m *mockAppService) CreatePost(ctx context.Context, eventID, deviceID uuid.UUID, content, quickTag string) (*domain.Post, error) {
	if m.createPostFn != nil {
		return m.createPostFn(ctx, eventID, deviceID, content, quickTag)
	}
	return &domain.Post{}, nil
}

func (m *mockAppService) ListPosts(ctx context.Context, eventID uuid.UUID) ([]domain.Post, error) {
	if m.listPostsFn != nil {
		return m.listPostsFn(ctx, eventID)
	}
	return nil, nil
}

func (m *mockAppService) VoteOnPost(ctx context.Context, postID, deviceID uuid.UUID, direction int) (int, error) {
	if m.voteOnPostFn != nil {
		return m.voteOnPostFn(ctx, postID, deviceID, direction)
	}
	return 0, nil
}

// testServerNow pins the handlers' clock to a known Wednesday evening so
// window arithmetic in tests stays deterministic.
var testServerNow = time.Date(2026, 1, 7, 21, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T, app appService, healthChecks ...HealthCheck) *Server {
	t.Helper()
	clock := clockwork.NewFakeClockAt(testServerNow)
	return NewServer(&config.Config{AppEnv: "test", Port: "0"}, app, healthChecks, clock)
}
