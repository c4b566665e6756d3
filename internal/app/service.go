// Package app is the application layer. It orchestrates repositories, the
// signal engine, the ingest resolver, and rate limiting into use cases; it is
// the only package that references multiple domain components.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/sabyjs3-beep/tctp/internal/domain"
	apperrors "github.com/sabyjs3-beep/tctp/internal/errors"
	"github.com/sabyjs3-beep/tctp/internal/ingest"
	"github.com/sabyjs3-beep/tctp/internal/metrics"
	"github.com/sabyjs3-beep/tctp/internal/signal"
)

const maxPostLength = 200

// postBurstWindow is the minimum gap between two posts by the same device on
// the same event. The per-device TTL limiter throttles across the whole API;
// this check reads the post rows themselves, so it holds even after a limiter
// flush or restart.
const postBurstWindow = 3 * time.Minute

type Service struct {
	cities    domain.CityRepository
	venues    domain.VenueRepository
	events    domain.EventRepository
	votes     domain.VoteRepository
	presences domain.PresenceRepository
	posts     domain.PostRepository
	limiter   domain.DeviceRateLimiter
	resolver  *ingest.Resolver
	clock     clockwork.Clock
}

func NewService(
	cities domain.CityRepository,
	venues domain.VenueRepository,
	events domain.EventRepository,
	votes domain.VoteRepository,
	presences domain.PresenceRepository,
	posts domain.PostRepository,
	limiter domain.DeviceRateLimiter,
	resolver *ingest.Resolver,
	clock clockwork.Clock,
) *Service {
	return &Service{
		cities:    cities,
		venues:    venues,
		events:    events,
		votes:     votes,
		presences: presences,
		posts:     posts,
		limiter:   limiter,
		resolver:  resolver,
		clock:     clock,
	}
}

// --- Cities and events ---

func (s *Service) ListCities(ctx context.Context) ([]domain.City, error) {
	return s.cities.List(ctx)
}

// ListEvents returns the non-archived events of a city starting inside
// [from, until).
func (s *Service) ListEvents(ctx context.Context, citySlug string, from, until time.Time) ([]domain.Event, error) {
	city, err := s.cities.GetBySlug(ctx, citySlug)
	if errors.Is(err, domain.ErrCityNotFound) {
		return nil, apperrors.NotFoundError("city not found").WithField("city", citySlug)
	}
	if err != nil {
		return nil, err
	}
	return s.events.ListByCity(ctx, city.ID, from, until)
}

// searchResultLimit caps the typeahead result set.
const searchResultLimit = 5

// SearchVenues is the global search surface. Queries under two characters
// come back empty rather than erroring, so a typeahead client can fire on
// every keystroke.
func (s *Service) SearchVenues(ctx context.Context, query string) ([]domain.VenueHit, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, nil
	}
	return s.venues.Search(ctx, query, searchResultLimit)
}

// EventDetail is the full read model for one event page: the event, its
// venue, the derived crowd signals and warnings, and the requesting device's
// own votes so the client can render its selections.
type EventDetail struct {
	Event    domain.Event                    `json:"event"`
	Venue    domain.Venue                    `json:"venue"`
	Signals  map[domain.Module]signal.Signal `json:"signals"`
	Warnings []signal.Banner                 `json:"warnings"`
	MyVotes  map[domain.Module]string        `json:"my_votes"`
}

func (s *Service) GetEventDetail(ctx context.Context, eventID, deviceID uuid.UUID) (*EventDetail, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	venue, err := s.venues.GetByID(ctx, event.VenueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event venue: %w", err)
	}

	signals, warnings, err := s.deriveSignals(ctx, eventID)
	if err != nil {
		return nil, err
	}

	myVotes := make(map[domain.Module]string)
	if deviceID != uuid.Nil {
		mine, err := s.votes.ListByEventAndDevice(ctx, eventID, deviceID)
		if err != nil {
			return nil, fmt.Errorf("failed to load device votes: %w", err)
		}
		for _, v := range mine {
			myVotes[v.Module] = v.Value
		}
	}

	return &EventDetail{
		Event:    *event,
		Venue:    *venue,
		Signals:  signals,
		Warnings: warnings,
		MyVotes:  myVotes,
	}, nil
}

// SubmitEvent runs a submission through the dedup resolver for the given city.
func (s *Service) SubmitEvent(ctx context.Context, citySlug string, sub ingest.Submission) (ingest.Decision, error) {
	if strings.TrimSpace(sub.Title) == "" {
		return ingest.Decision{}, apperrors.ValidationError("title is required")
	}
	if strings.TrimSpace(sub.VenueName) == "" {
		return ingest.Decision{}, apperrors.ValidationError("venue name is required")
	}
	if !sub.Source.Valid() {
		return ingest.Decision{}, apperrors.ValidationError("invalid source type").WithField("source", string(sub.Source))
	}

	city, err := s.cities.GetBySlug(ctx, citySlug)
	if errors.Is(err, domain.ErrCityNotFound) {
		return ingest.Decision{}, apperrors.NotFoundError("city not found").WithField("city", citySlug)
	}
	if err != nil {
		return ingest.Decision{}, err
	}

	decision, err := s.resolver.Resolve(ctx, city.ID, sub)
	if err != nil {
		return ingest.Decision{}, err
	}

	metrics.IngestDecisions.WithLabelValues(string(decision.Action), string(sub.Source)).Inc()
	return decision, nil
}

// --- Votes and signals ---

func (s *Service) SubmitVote(ctx context.Context, eventID, deviceID uuid.UUID, module domain.Module, value string) error {
	if !module.Valid() {
		metrics.VotesTotal.WithLabelValues("invalid").Inc()
		return apperrors.ValidationError("unknown vote module").WithField("module", string(module))
	}
	if !module.ValidValue(value) {
		metrics.VotesTotal.WithLabelValues("invalid").Inc()
		return apperrors.ValidationError("invalid vote value for module").
			WithField("module", string(module)).
			WithField("value", value)
	}

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if !event.Status.Votable() {
		metrics.VotesTotal.WithLabelValues("closed").Inc()
		return apperrors.ConflictError("event no longer accepts votes").WithField("status", string(event.Status))
	}

	if err := s.checkLimit(ctx, deviceID, domain.ActionVote); err != nil {
		metrics.VotesTotal.WithLabelValues("rate_limited").Inc()
		return err
	}

	err = s.votes.Upsert(ctx, domain.Vote{
		EventID:   eventID,
		DeviceID:  deviceID,
		Module:    module,
		Value:     value,
		UpdatedAt: s.clock.Now(),
	})
	if err != nil {
		metrics.VotesTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.VotesTotal.WithLabelValues("applied").Inc()
	return nil
}

// GetDeviceVotes returns the device's current vote per module for one event.
func (s *Service) GetDeviceVotes(ctx context.Context, eventID, deviceID uuid.UUID) (map[domain.Module]string, error) {
	if _, err := s.getEvent(ctx, eventID); err != nil {
		return nil, err
	}

	mine, err := s.votes.ListByEventAndDevice(ctx, eventID, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load device votes: %w", err)
	}

	votes := make(map[domain.Module]string, len(mine))
	for _, v := range mine {
		votes[v.Module] = v.Value
	}
	return votes, nil
}

// SignalSnapshot is the derived crowd state of an event.
type SignalSnapshot struct {
	Signals  map[domain.Module]signal.Signal `json:"signals"`
	Warnings []signal.Banner                 `json:"warnings"`
}

func (s *Service) GetSignals(ctx context.Context, eventID uuid.UUID) (*SignalSnapshot, error) {
	if _, err := s.getEvent(ctx, eventID); err != nil {
		return nil, err
	}

	signals, warnings, err := s.deriveSignals(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return &SignalSnapshot{Signals: signals, Warnings: warnings}, nil
}

func (s *Service) deriveSignals(ctx context.Context, eventID uuid.UUID) (map[domain.Module]signal.Signal, []signal.Banner, error) {
	votes, err := s.votes.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load event votes: %w", err)
	}

	agg := signal.Aggregate(votes)
	metrics.SignalDerivations.Inc()

	warnings := signal.Warnings(agg)
	for _, b := range warnings {
		metrics.WarningsTriggered.WithLabelValues(b.Rule).Inc()
	}
	return signal.DeriveSignals(agg), warnings, nil
}

// --- Presence ---

// SetPresence records a device's presence status and returns the event's new
// live presence count. Only "here" contributes to the count.
func (s *Service) SetPresence(ctx context.Context, eventID, deviceID uuid.UUID, status domain.PresenceStatus) (int, error) {
	if !status.Valid() {
		return 0, apperrors.ValidationError("invalid presence status").WithField("status", string(status))
	}

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return 0, err
	}
	if !event.Status.Votable() {
		return 0, apperrors.ConflictError("event no longer accepts presence updates").WithField("status", string(event.Status))
	}

	if err := s.checkLimit(ctx, deviceID, domain.ActionPresence); err != nil {
		return 0, err
	}

	previous, err := s.presences.Get(ctx, eventID, deviceID)
	if err != nil {
		return 0, err
	}

	err = s.presences.Upsert(ctx, domain.Presence{
		EventID:   eventID,
		DeviceID:  deviceID,
		Status:    status,
		UpdatedAt: s.clock.Now(),
	})
	if err != nil {
		return 0, err
	}

	delta := presenceDelta(previous, status)
	if delta == 0 {
		return event.PresenceCount, nil
	}
	return s.events.AdjustPresenceCount(ctx, eventID, delta)
}

func presenceDelta(previous *domain.Presence, next domain.PresenceStatus) int {
	wasHere := previous != nil && previous.Status == domain.PresenceHere
	isHere := next == domain.PresenceHere

	switch {
	case isHere && !wasHere:
		return 1
	case !isHere && wasHere:
		return -1
	default:
		return 0
	}
}

// --- Posts ---

// CreatePost appends to an event's feed. A post needs content or a quick
// tag; either alone is fine.
func (s *Service) CreatePost(ctx context.Context, eventID, deviceID uuid.UUID, content, quickTag string) (*domain.Post, error) {
	content = strings.TrimSpace(content)
	quickTag = strings.TrimSpace(quickTag)
	if content == "" && quickTag == "" {
		return nil, apperrors.ValidationError("post content or quick tag is required")
	}
	if len(content) > maxPostLength {
		return nil, apperrors.ValidationError("post content too long").WithField("max_length", maxPostLength)
	}

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.Status.Postable() {
		return nil, apperrors.ConflictError("event feed is not open").WithField("status", string(event.Status))
	}

	if err := s.checkLimit(ctx, deviceID, domain.ActionPost); err != nil {
		return nil, err
	}

	recent, err := s.posts.CountRecentByDevice(ctx, eventID, deviceID, s.clock.Now().Add(-postBurstWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to count recent posts: %w", err)
	}
	if recent > 0 {
		metrics.RateLimitRejections.WithLabelValues(string(domain.ActionPost)).Inc()
		return nil, apperrors.RateLimitedError("wait a few minutes between posts on the same event").
			WithField("retry_after_seconds", int(postBurstWindow.Seconds()))
	}

	return s.posts.Create(ctx, eventID, deviceID, content, quickTag)
}

func (s *Service) ListPosts(ctx context.Context, eventID uuid.UUID) ([]domain.Post, error) {
	if _, err := s.getEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.posts.ListByEvent(ctx, eventID)
}

// VoteOnPost records an up or down vote (direction +1/-1) and returns the
// post's new score.
func (s *Service) VoteOnPost(ctx context.Context, postID, deviceID uuid.UUID, direction int) (int, error) {
	if direction != 1 && direction != -1 {
		return 0, apperrors.ValidationError("direction must be 1 or -1").WithField("direction", direction)
	}

	post, err := s.posts.GetByID(ctx, postID)
	if errors.Is(err, domain.ErrPostNotFound) {
		return 0, apperrors.NotFoundError("post not found").WithField("post_id", postID.String())
	}
	if err != nil {
		return 0, err
	}

	score, err := s.posts.ApplyVote(ctx, post.ID, deviceID, direction)
	if errors.Is(err, domain.ErrPostNotFound) {
		// The post was purged between lookup and vote.
		return 0, apperrors.NotFoundError("post not found").WithField("post_id", postID.String())
	}
	if err != nil {
		return 0, err
	}
	return score, nil
}

// --- Helpers ---

func (s *Service) getEvent(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if errors.Is(err, domain.ErrEventNotFound) {
		return nil, apperrors.NotFoundError("event not found").WithField("event_id", eventID.String())
	}
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *Service) checkLimit(ctx context.Context, deviceID uuid.UUID, action domain.RateLimitAction) error {
	res, err := s.limiter.Check(ctx, deviceID, action)
	if err != nil {
		return fmt.Errorf("failed to check rate limit: %w", err)
	}
	if !res.Allowed {
		metrics.RateLimitRejections.WithLabelValues(string(action)).Inc()
		return apperrors.RateLimitedError("slow down").
			WithField("retry_after_seconds", int(res.RetryAfter.Seconds()))
	}
	return nil
}
