package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// --- Model types ---

type City struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Slug      string    `db:"slug"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
}

type Venue struct {
	ID        uuid.UUID `db:"id"`
	CityID    uuid.UUID `db:"city_id"`
	Name      string    `db:"name"`
	Address   string    `db:"address"`
	Unclaimed bool      `db:"unclaimed"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// VenueHit is one global search result, denormalized with its city so the
// client can route straight to the city page.
type VenueHit struct {
	ID       uuid.UUID `json:"id" db:"id"`
	Name     string    `json:"name" db:"name"`
	CitySlug string    `json:"city_slug" db:"city_slug"`
	CityName string    `json:"city_name" db:"city_name"`
}

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	StatusCreated  EventStatus = "created"
	StatusLive     EventStatus = "live"
	StatusCooling  EventStatus = "cooling"
	StatusArchived EventStatus = "archived"
)

// Votable reports whether crowd votes are still accepted in this state.
func (s EventStatus) Votable() bool {
	return s == StatusCreated || s == StatusLive || s == StatusCooling
}

// Postable reports whether feed posts are still accepted in this state.
func (s EventStatus) Postable() bool {
	return s == StatusLive || s == StatusCooling
}

// SourceType is the trust tier of an event's origin. Automated sources are
// subordinate to community and verified sources when both claim the same
// fingerprint.
type SourceType string

const (
	SourceAutomated SourceType = "automated"
	SourceCommunity SourceType = "community"
	SourceVerified  SourceType = "verified"
)

func (s SourceType) Valid() bool {
	switch s {
	case SourceAutomated, SourceCommunity, SourceVerified:
		return true
	}
	return false
}

// Trumps reports whether s outranks other for the same fingerprint. Human
// tiers outrank automated imports; within a tier nothing is replaced.
func (s SourceType) Trumps(other SourceType) bool {
	return s != SourceAutomated && other == SourceAutomated
}

type Event struct {
	ID            uuid.UUID   `db:"id"`
	VenueID       uuid.UUID   `db:"venue_id"`
	Title         string      `db:"title"`
	Description   string      `db:"description"`
	StartTime     time.Time   `db:"start_time"`
	EndTime       *time.Time  `db:"end_time"`
	Fingerprint   string      `db:"fingerprint"`
	SourceType    SourceType  `db:"source_type"`
	SourceURL     string      `db:"source_url"`
	Status        EventStatus `db:"status"`
	PresenceCount int         `db:"presence_count"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

// NewEvent carries the fields needed to create an event row.
type NewEvent struct {
	VenueID     uuid.UUID
	Title       string
	Description string
	StartTime   time.Time
	EndTime     *time.Time
	Fingerprint string
	SourceType  SourceType
	SourceURL   string
	Status      EventStatus
}

// Vote is one anonymous opinion. At most one exists per (event, device,
// module); a revote overwrites the previous value.
type Vote struct {
	EventID   uuid.UUID `db:"event_id"`
	DeviceID  uuid.UUID `db:"device_id"`
	Module    Module    `db:"module"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

// PresenceStatus is a device's self-reported relation to an event.
type PresenceStatus string

const (
	PresenceHere    PresenceStatus = "here"
	PresenceGoing   PresenceStatus = "going"
	PresenceSkipped PresenceStatus = "skipped"
)

func (s PresenceStatus) Valid() bool {
	switch s {
	case PresenceHere, PresenceGoing, PresenceSkipped:
		return true
	}
	return false
}

type Presence struct {
	EventID   uuid.UUID      `db:"event_id"`
	DeviceID  uuid.UUID      `db:"device_id"`
	Status    PresenceStatus `db:"status"`
	UpdatedAt time.Time      `db:"updated_at"`
}

type Post struct {
	ID        uuid.UUID `db:"id"`
	EventID   uuid.UUID `db:"event_id"`
	DeviceID  uuid.UUID `db:"device_id"`
	Content   string    `db:"content"`
	QuickTag  string    `db:"quick_tag"`
	Score     int       `db:"score"`
	CreatedAt time.Time `db:"created_at"`
}

// --- Repository interfaces ---

type CityRepository interface {
	GetBySlug(ctx context.Context, slug string) (*City, error)
	List(ctx context.Context) ([]City, error)
}

type VenueRepository interface {
	GetByID(ctx context.Context, venueID uuid.UUID) (*Venue, error)
	FindByName(ctx context.Context, cityID uuid.UUID, name string) (*Venue, error)
	ListByCity(ctx context.Context, cityID uuid.UUID) ([]Venue, error)
	Create(ctx context.Context, cityID uuid.UUID, name, address string, unclaimed bool) (*Venue, error)
	// Search matches venue names case-insensitively across all cities.
	Search(ctx context.Context, query string, limit int) ([]VenueHit, error)
}

type EventRepository interface {
	GetByID(ctx context.Context, eventID uuid.UUID) (*Event, error)
	FindByFingerprint(ctx context.Context, fingerprint string) (*Event, error)
	Create(ctx context.Context, e NewEvent) (*Event, error)
	ListByCity(ctx context.Context, cityID uuid.UUID, from, until time.Time) ([]Event, error)
	AdjustPresenceCount(ctx context.Context, eventID uuid.UUID, delta int) (int, error)

	// Lifecycle transitions; each returns the number of rows moved.
	MarkLiveDue(ctx context.Context, now time.Time) (int64, error)
	MarkCoolingDue(ctx context.Context, now time.Time, staleAfter time.Duration) (int64, error)
	MarkArchivedDue(ctx context.Context, now time.Time, coolingFor time.Duration) (int64, error)
	PurgeArchived(ctx context.Context, now time.Time, retainFor time.Duration) (int64, error)
}

type VoteRepository interface {
	Upsert(ctx context.Context, v Vote) error
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]Vote, error)
	ListByEventAndDevice(ctx context.Context, eventID, deviceID uuid.UUID) ([]Vote, error)
}

type PresenceRepository interface {
	Get(ctx context.Context, eventID, deviceID uuid.UUID) (*Presence, error)
	Upsert(ctx context.Context, p Presence) error
}

type PostRepository interface {
	GetByID(ctx context.Context, postID uuid.UUID) (*Post, error)
	Create(ctx context.Context, eventID, deviceID uuid.UUID, content, quickTag string) (*Post, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]Post, error)
	CountRecentByDevice(ctx context.Context, eventID, deviceID uuid.UUID, since time.Time) (int, error)
	// ApplyVote records a device's up/down vote on a post (one per device,
	// revote overwrites) and returns the post's new score.
	ApplyVote(ctx context.Context, postID, deviceID uuid.UUID, direction int) (int, error)
}

// --- Abuse prevention ---

// RateLimitAction is the kind of device action being rate limited.
type RateLimitAction string

const (
	ActionVote     RateLimitAction = "vote"
	ActionPost     RateLimitAction = "post"
	ActionPresence RateLimitAction = "presence"
)

// RateLimitResult tells the caller whether an action may proceed.
type RateLimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
}

// DeviceRateLimiter applies soft friction to fresh device tokens. Injected
// rather than process-global so it can be reset between tests.
type DeviceRateLimiter interface {
	Check(ctx context.Context, deviceID uuid.UUID, action RateLimitAction) (RateLimitResult, error)
	Reset(ctx context.Context, deviceID uuid.UUID) error
}
