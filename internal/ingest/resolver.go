package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/sabyjs3-beep/tctp/internal/domain"
	"github.com/sabyjs3-beep/tctp/internal/metrics"
)

// VenueMatchThreshold is the similarity score above which a submitted venue
// name is merged into an existing venue instead of creating a new row.
// Tunable design constant, not derived.
const VenueMatchThreshold = 0.85

// VenueDirectory is the subset of venue storage the resolver needs.
type VenueDirectory interface {
	FindByName(ctx context.Context, cityID uuid.UUID, name string) (*domain.Venue, error)
	ListByCity(ctx context.Context, cityID uuid.UUID) ([]domain.Venue, error)
	Create(ctx context.Context, cityID uuid.UUID, name, address string, unclaimed bool) (*domain.Venue, error)
}

// EventDirectory is the subset of event storage the resolver needs.
type EventDirectory interface {
	FindByFingerprint(ctx context.Context, fingerprint string) (*domain.Event, error)
	Create(ctx context.Context, e domain.NewEvent) (*domain.Event, error)
}

// Submission is one candidate event arriving from a community form or an
// automated harvester. Required fields (title, venue name, date) are the
// caller's validation concern; the resolver assumes they are present.
type Submission struct {
	Title       string
	Description string
	VenueName   string
	VenueAddr   string
	Date        string // ISO-8601; the calendar-date prefix keys the fingerprint
	StartTime   time.Time
	EndTime     *time.Time
	Source      domain.SourceType
	SourceURL   string
}

// Action is the outcome of resolving a submission.
type Action string

const (
	ActionCreated  Action = "created"
	ActionReused   Action = "reused"
	ActionRejected Action = "rejected"
)

// ReasonInferiorSource explains a rejected decision: an automated submission
// matched an event already claimed by a community or verified source.
const ReasonInferiorSource = "skipped, higher-integrity source exists"

// Decision reports what the resolver did with a submission.
type Decision struct {
	Action  Action    `json:"action"`
	EventID uuid.UUID `json:"event_id"`
	VenueID uuid.UUID `json:"venue_id,omitempty"`
	Reason  string    `json:"reason,omitempty"`
}

// Resolver deduplicates submissions against stored events and venues.
// It holds no state of its own; atomicity of concurrent creates is delegated
// to the storage layer's unique fingerprint constraint.
type Resolver struct {
	venues VenueDirectory
	events EventDirectory
	clock  clockwork.Clock
}

func NewResolver(venues VenueDirectory, events EventDirectory, clock clockwork.Clock) *Resolver {
	return &Resolver{venues: venues, events: events, clock: clock}
}

// ResolveVenue finds the venue a submitted name refers to within one city,
// or creates an unclaimed venue row if nothing matches.
//
// Exact name match wins outright. Otherwise every venue in the city is
// scored with Similarity and the best score above VenueMatchThreshold is
// merged into; score ties break to the lowest venue ID so the outcome never
// depends on listing order. Matching never crosses city boundaries.
func (r *Resolver) ResolveVenue(ctx context.Context, cityID uuid.UUID, name, address string) (*domain.Venue, error) {
	venue, err := r.venues.FindByName(ctx, cityID, name)
	if err == nil {
		return venue, nil
	}
	if !errors.Is(err, domain.ErrVenueNotFound) {
		return nil, fmt.Errorf("failed to look up venue by name: %w", err)
	}

	existing, err := r.venues.ListByCity(ctx, cityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list venues for fuzzy match: %w", err)
	}

	var best *domain.Venue
	bestScore := 0.0
	for i := range existing {
		score := Similarity(name, existing[i].Name)
		if score <= VenueMatchThreshold {
			continue
		}
		switch {
		case score > bestScore:
			best = &existing[i]
			bestScore = score
		case score == bestScore && best != nil && existing[i].ID.String() < best.ID.String():
			best = &existing[i]
		}
	}
	if best != nil {
		metrics.VenueFuzzyMerges.Inc()
		return best, nil
	}

	venue, err = r.venues.Create(ctx, cityID, name, address, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create venue: %w", err)
	}
	metrics.UnclaimedVenuesCreated.Inc()
	return venue, nil
}

// Resolve decides whether a submission is a new event, a duplicate of an
// existing one, or an automated submission losing to higher-trust data.
func (r *Resolver) Resolve(ctx context.Context, cityID uuid.UUID, sub Submission) (Decision, error) {
	fingerprint, err := Fingerprint(sub.Title, sub.VenueName, sub.Date)
	if err != nil {
		return Decision{}, err
	}

	existing, err := r.events.FindByFingerprint(ctx, fingerprint)
	if err == nil {
		if existing.SourceType.Trumps(sub.Source) {
			return Decision{
				Action:  ActionRejected,
				EventID: existing.ID,
				VenueID: existing.VenueID,
				Reason:  ReasonInferiorSource,
			}, nil
		}
		return Decision{Action: ActionReused, EventID: existing.ID, VenueID: existing.VenueID}, nil
	}
	if !errors.Is(err, domain.ErrEventNotFound) {
		return Decision{}, fmt.Errorf("failed to look up event by fingerprint: %w", err)
	}

	venue, err := r.ResolveVenue(ctx, cityID, sub.VenueName, sub.VenueAddr)
	if err != nil {
		return Decision{}, err
	}

	status := domain.StatusCreated
	if !sub.StartTime.After(r.clock.Now()) {
		status = domain.StatusLive
	}

	created, err := r.events.Create(ctx, domain.NewEvent{
		VenueID:     venue.ID,
		Title:       sub.Title,
		Description: sub.Description,
		StartTime:   sub.StartTime,
		EndTime:     sub.EndTime,
		Fingerprint: fingerprint,
		SourceType:  sub.Source,
		SourceURL:   sub.SourceURL,
		Status:      status,
	})
	if errors.Is(err, domain.ErrDuplicateEvent) {
		// Lost a creation race: another submission committed the same
		// fingerprint between lookup and insert. Treat as already present.
		existing, lookupErr := r.events.FindByFingerprint(ctx, fingerprint)
		if lookupErr != nil {
			return Decision{}, fmt.Errorf("failed to re-fetch event after duplicate insert: %w", lookupErr)
		}
		return Decision{Action: ActionReused, EventID: existing.ID, VenueID: existing.VenueID}, nil
	}
	if err != nil {
		return Decision{}, fmt.Errorf("failed to create event: %w", err)
	}

	return Decision{Action: ActionCreated, EventID: created.ID, VenueID: venue.ID}, nil
}
