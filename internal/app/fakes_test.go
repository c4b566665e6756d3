package app

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/sabyjs3-beep/tctp/internal/domain"
)

// In-memory repository fakes. They implement just enough behavior for the
// service tests; persistence details are covered by the database package's
// integration tests.

type fakeCityRepo struct {
	cities map[string]domain.City
}

func newFakeCityRepo(slugs ...string) *fakeCityRepo {
	f := &fakeCityRepo{cities: make(map[string]domain.City)}
	for _, slug := range slugs {
		f.cities[slug] = domain.City{ID: uuid.New(), Name: slug, Slug: slug, Active: true}
	}
	return f
}

func (f *fakeCityRepo) GetBySlug(_ context.Context, slug string) (*domain.City, error) {
	if c, ok := f.cities[slug]; ok {
		return &c, nil
	}
	return nil, domain.ErrCityNotFound
}

func (f *fakeCityRepo) List(_ context.Context) ([]domain.City, error) {
	var out []domain.City
	for _, c := range f.cities {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

type fakeVenueRepo struct {
	venues map[uuid.UUID]domain.Venue

	searchHits    []domain.VenueHit
	searchQueries []string
}

func newFakeVenueRepo() *fakeVenueRepo {
	return &fakeVenueRepo{venues: make(map[uuid.UUID]domain.Venue)}
}

func (f *fakeVenueRepo) add(cityID uuid.UUID, name string) domain.Venue {
	v := domain.Venue{ID: uuid.New(), CityID: cityID, Name: name}
	f.venues[v.ID] = v
	return v
}

func (f *fakeVenueRepo) GetByID(_ context.Context, venueID uuid.UUID) (*domain.Venue, error) {
	if v, ok := f.venues[venueID]; ok {
		return &v, nil
	}
	return nil, domain.ErrVenueNotFound
}

func (f *fakeVenueRepo) FindByName(_ context.Context, cityID uuid.UUID, name string) (*domain.Venue, error) {
	for _, v := range f.venues {
		if v.CityID == cityID && v.Name == name {
			return &v, nil
		}
	}
	return nil, domain.ErrVenueNotFound
}

func (f *fakeVenueRepo) ListByCity(_ context.Context, cityID uuid.UUID) ([]domain.Venue, error) {
	var out []domain.Venue
	for _, v := range f.venues {
		if v.CityID == cityID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeVenueRepo) Search(_ context.Context, query string, limit int) ([]domain.VenueHit, error) {
	f.searchQueries = append(f.searchQueries, query)
	if len(f.searchHits) > limit {
		return f.searchHits[:limit], nil
	}
	return f.searchHits, nil
}

func (f *fakeVenueRepo) Create(_ context.Context, cityID uuid.UUID, name, address string, unclaimed bool) (*domain.Venue, error) {
	v := domain.Venue{ID: uuid.New(), CityID: cityID, Name: name, Address: address, Unclaimed: unclaimed}
	f.venues[v.ID] = v
	return &v, nil
}

type fakeEventRepo struct {
	events map[uuid.UUID]domain.Event

	liveDue, coolingDue, archivedDue, purged int64
	sweepErr                                 error
	sweepCalls                               []string
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[uuid.UUID]domain.Event)}
}

func (f *fakeEventRepo) add(venueID uuid.UUID, status domain.EventStatus) domain.Event {
	e := domain.Event{
		ID:          uuid.New(),
		VenueID:     venueID,
		Title:       "Neon Nights",
		StartTime:   time.Now(),
		Fingerprint: uuid.NewString(),
		SourceType:  domain.SourceCommunity,
		Status:      status,
	}
	f.events[e.ID] = e
	return e
}

func (f *fakeEventRepo) GetByID(_ context.Context, eventID uuid.UUID) (*domain.Event, error) {
	if e, ok := f.events[eventID]; ok {
		return &e, nil
	}
	return nil, domain.ErrEventNotFound
}

func (f *fakeEventRepo) FindByFingerprint(_ context.Context, fingerprint string) (*domain.Event, error) {
	for _, e := range f.events {
		if e.Fingerprint == fingerprint {
			return &e, nil
		}
	}
	return nil, domain.ErrEventNotFound
}

func (f *fakeEventRepo) Create(_ context.Context, ne domain.NewEvent) (*domain.Event, error) {
	for _, e := range f.events {
		if e.Fingerprint == ne.Fingerprint {
			return nil, domain.ErrDuplicateEvent
		}
	}
	e := domain.Event{
		ID:          uuid.New(),
		VenueID:     ne.VenueID,
		Title:       ne.Title,
		Description: ne.Description,
		StartTime:   ne.StartTime,
		EndTime:     ne.EndTime,
		Fingerprint: ne.Fingerprint,
		SourceType:  ne.SourceType,
		SourceURL:   ne.SourceURL,
		Status:      ne.Status,
	}
	f.events[e.ID] = e
	return &e, nil
}

func (f *fakeEventRepo) ListByCity(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]domain.Event, error) {
	var out []domain.Event
	for _, e := range f.events {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeEventRepo) AdjustPresenceCount(_ context.Context, eventID uuid.UUID, delta int) (int, error) {
	e, ok := f.events[eventID]
	if !ok {
		return 0, domain.ErrEventNotFound
	}
	e.PresenceCount += delta
	if e.PresenceCount < 0 {
		e.PresenceCount = 0
	}
	f.events[eventID] = e
	return e.PresenceCount, nil
}

func (f *fakeEventRepo) MarkLiveDue(_ context.Context, _ time.Time) (int64, error) {
	f.sweepCalls = append(f.sweepCalls, "live")
	return f.liveDue, f.sweepErr
}

func (f *fakeEventRepo) MarkCoolingDue(_ context.Context, _ time.Time, _ time.Duration) (int64, error) {
	f.sweepCalls = append(f.sweepCalls, "cooling")
	return f.coolingDue, nil
}

func (f *fakeEventRepo) MarkArchivedDue(_ context.Context, _ time.Time, _ time.Duration) (int64, error) {
	f.sweepCalls = append(f.sweepCalls, "archived")
	return f.archivedDue, nil
}

func (f *fakeEventRepo) PurgeArchived(_ context.Context, _ time.Time, _ time.Duration) (int64, error) {
	f.sweepCalls = append(f.sweepCalls, "purged")
	return f.purged, nil
}

type voteKey struct {
	eventID, deviceID uuid.UUID
	module            domain.Module
}

type fakeVoteRepo struct {
	votes map[voteKey]domain.Vote
}

func newFakeVoteRepo() *fakeVoteRepo {
	return &fakeVoteRepo{votes: make(map[voteKey]domain.Vote)}
}

func (f *fakeVoteRepo) Upsert(_ context.Context, v domain.Vote) error {
	f.votes[voteKey{v.EventID, v.DeviceID, v.Module}] = v
	return nil
}

func (f *fakeVoteRepo) ListByEvent(_ context.Context, eventID uuid.UUID) ([]domain.Vote, error) {
	var out []domain.Vote
	for _, v := range f.votes {
		if v.EventID == eventID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeVoteRepo) ListByEventAndDevice(_ context.Context, eventID, deviceID uuid.UUID) ([]domain.Vote, error) {
	var out []domain.Vote
	for _, v := range f.votes {
		if v.EventID == eventID && v.DeviceID == deviceID {
			out = append(out, v)
		}
	}
	return out, nil
}

type presenceKey struct {
	eventID, deviceID uuid.UUID
}

type fakePresenceRepo struct {
	presences map[presenceKey]domain.Presence
}

func newFakePresenceRepo() *fakePresenceRepo {
	return &fakePresenceRepo{presences: make(map[presenceKey]domain.Presence)}
}

func (f *fakePresenceRepo) Get(_ context.Context, eventID, deviceID uuid.UUID) (*domain.Presence, error) {
	if p, ok := f.presences[presenceKey{eventID, deviceID}]; ok {
		return &p, nil
	}
	return nil, nil
}

func (f *fakePresenceRepo) Upsert(_ context.Context, p domain.Presence) error {
	f.presences[presenceKey{p.EventID, p.DeviceID}] = p
	return nil
}

type fakePostRepo struct {
	posts  map[uuid.UUID]domain.Post
	scores map[uuid.UUID]map[uuid.UUID]int

	// now stamps CreatedAt; the fixture points it at the fake clock so the
	// recent-post window can be advanced in tests.
	now func() time.Time
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{
		posts:  make(map[uuid.UUID]domain.Post),
		scores: make(map[uuid.UUID]map[uuid.UUID]int),
		now:    time.Now,
	}
}

func (f *fakePostRepo) GetByID(_ context.Context, postID uuid.UUID) (*domain.Post, error) {
	if p, ok := f.posts[postID]; ok {
		return &p, nil
	}
	return nil, domain.ErrPostNotFound
}

func (f *fakePostRepo) Create(_ context.Context, eventID, deviceID uuid.UUID, content, quickTag string) (*domain.Post, error) {
	p := domain.Post{
		ID:        uuid.New(),
		EventID:   eventID,
		DeviceID:  deviceID,
		Content:   content,
		QuickTag:  quickTag,
		CreatedAt: f.now(),
	}
	f.posts[p.ID] = p
	return &p, nil
}

func (f *fakePostRepo) ListByEvent(_ context.Context, eventID uuid.UUID) ([]domain.Post, error) {
	var out []domain.Post
	for _, p := range f.posts {
		if p.EventID == eventID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePostRepo) CountRecentByDevice(_ context.Context, eventID, deviceID uuid.UUID, since time.Time) (int, error) {
	count := 0
	for _, p := range f.posts {
		if p.EventID == eventID && p.DeviceID == deviceID && !p.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakePostRepo) ApplyVote(_ context.Context, postID, deviceID uuid.UUID, direction int) (int, error) {
	p, ok := f.posts[postID]
	if !ok {
		return 0, domain.ErrPostNotFound
	}
	if f.scores[postID] == nil {
		f.scores[postID] = make(map[uuid.UUID]int)
	}
	f.scores[postID][deviceID] = direction

	score := 0
	for _, d := range f.scores[postID] {
		score += d
	}
	p.Score = score
	f.posts[postID] = p
	return score, nil
}

// fakeLimiter allows everything unless told otherwise.
type fakeLimiter struct {
	deny       map[domain.RateLimitAction]time.Duration
	checkCalls int
}

func newFakeLimiter() *fakeLimiter {
	return &fakeLimiter{deny: make(map[domain.RateLimitAction]time.Duration)}
}

func (f *fakeLimiter) Check(_ context.Context, _ uuid.UUID, action domain.RateLimitAction) (domain.RateLimitResult, error) {
	f.checkCalls++
	if retry, ok := f.deny[action]; ok {
		return domain.RateLimitResult{Allowed: false, RetryAfter: retry}, nil
	}
	return domain.RateLimitResult{Allowed: true}, nil
}

func (f *fakeLimiter) Reset(_ context.Context, _ uuid.UUID) error {
	return nil
}
