package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sabyjs3-beep/tctp/internal/domain"
	apperrors "github.com/sabyjs3-beep/tctp/internal/errors"
	"github.com/sabyjs3-beep/tctp/internal/ingest"
)

// Default listing window when the client sends no bounds: a day back so
// overnight events stay visible, a week ahead for upcoming ones.
const (
	defaultListLookback  = 24 * time.Hour
	defaultListLookahead = 7 * 24 * time.Hour
)

func (s *Server) handleListCities(c echo.Context) error {
	cities, err := s.app.ListCities(c.Request().Context())
	if err != nil {
		return err
	}
	return writeJSON(c, map[string]any{"cities": cities})
}

func (s *Server) handleSearch(c echo.Context) error {
	hits, err := s.app.SearchVenues(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return err
	}
	if hits == nil {
		hits = []domain.VenueHit{}
	}
	return writeJSON(c, map[string]any{"results": hits})
}

func (s *Server) handleListEvents(c echo.Context) error {
	citySlug := c.QueryParam("city")
	if citySlug == "" {
		return apperrors.ValidationError("city query parameter is required")
	}

	now := s.clock.Now()
	var from, until time.Time
	if filter := c.QueryParam("filter"); filter != "" {
		var err error
		from, until, err = listWindow(filter, now)
		if err != nil {
			return err
		}
	} else {
		var err error
		from, err = parseTimeParam(c, "from", now.Add(-defaultListLookback))
		if err != nil {
			return err
		}
		until, err = parseTimeParam(c, "until", now.Add(defaultListLookahead))
		if err != nil {
			return err
		}
	}
	if !until.After(from) {
		return apperrors.ValidationError("until must be after from")
	}

	events, err := s.app.ListEvents(c.Request().Context(), citySlug, from, until)
	if err != nil {
		return err
	}
	return writeJSON(c, map[string]any{"events": events})
}

type submitEventRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	VenueName    string     `json:"venue_name"`
	VenueAddress string     `json:"venue_address"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time"`
	SourceURL    string     `json:"source_url"`
}

func (s *Server) handleSubmitEvent(c echo.Context) error {
	citySlug := c.QueryParam("city")
	if citySlug == "" {
		return apperrors.ValidationError("city query parameter is required")
	}
	if _, err := requireDevice(c); err != nil {
		return err
	}

	var req submitEventRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.StartTime.IsZero() {
		return apperrors.ValidationError("start_time is required")
	}

	// Everything arriving over the public API is a community submission;
	// verified and automated sources enter through their own paths.
	decision, err := s.app.SubmitEvent(c.Request().Context(), citySlug, ingest.Submission{
		Title:       req.Title,
		Description: req.Description,
		VenueName:   req.VenueName,
		VenueAddr:   req.VenueAddress,
		Date:        req.StartTime.UTC().Format("2006-01-02"),
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Source:      domain.SourceCommunity,
		SourceURL:   req.SourceURL,
	})
	if err != nil {
		return err
	}

	status := http.StatusOK
	if decision.Action == ingest.ActionCreated {
		status = http.StatusCreated
	}
	if err := c.JSON(status, decision); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleEventDetail(c echo.Context) error {
	eventID, err := parseIDParam(c)
	if err != nil {
		return err
	}

	detail, err := s.app.GetEventDetail(c.Request().Context(), eventID, deviceID(c))
	if err != nil {
		return err
	}
	return writeJSON(c, detail)
}

func (s *Server) handleSignals(c echo.Context) error {
	eventID, err := parseIDParam(c)
	if err != nil {
		return err
	}

	snapshot, err := s.app.GetSignals(c.Request().Context(), eventID)
	if err != nil {
		return err
	}
	return writeJSON(c, snapshot)
}

type voteRequest struct {
	Module string `json:"module"`
	Value  string `json:"value"`
}

func (s *Server) handleVote(c echo.Context) error {
	eventID, err := parseIDParam(c)
	if err != nil {
		return err
	}
	devID, err := requireDevice(c)
	if err != nil {
		return err
	}

	var req voteRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	if err := s.app.SubmitVote(c.Request().Context(), eventID, devID, domain.Module(req.Module), req.Value); err != nil {
		return err
	}
	return writeJSON(c, map[string]string{"status": "ok"})
}

// handleMyVotes returns the calling device's own votes so a reinstalled or
// resynced client can restore its selections.
func (s *Server) handleMyVotes(c echo.Context) error {
	eventID, err := parseIDParam(c)
	if err != nil {
		return err
	}
	devID, err := requireDevice(c)
	if err != nil {
		return err
	}

	votes, err := s.app.GetDeviceVotes(c.Request().Context(), eventID, devID)
	if err != nil {
		return err
	}
	return writeJSON(c, map[string]any{"votes": votes})
}

type presenceRequest struct {
	Status string `json:"status"`
}

func (s *Server) handlePresence(c echo.Context) error {
	eventID, err := parseIDParam(c)
	if err != nil {
		return err
	}
	devID, err := requireDevice(c)
	if err != nil {
		return err
	}

	var req presenceRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	count, err := s.app.SetPresence(c.Request().Context(), eventID, devID, domain.PresenceStatus(req.Status))
	if err != nil {
		return err
	}
	return writeJSON(c, map[string]int{"presence_count": count})
}

func (s *Server) handleListPosts(c echo.Context) error {
	eventID, err := parseIDParam(c)
	if err != nil {
		return err
	}

	posts, err := s.app.ListPosts(c.Request().Context(), eventID)
	if err != nil {
		return err
	}
	return writeJSON(c, map[string]any{"posts": posts})
}

type createPostRequest struct {
	Content  string `json:"content"`
	QuickTag string `json:"quick_tag"`
}

func (s *Server) handleCreatePost(c echo.Context) error {
	eventID, err := parseIDParam(c)
	if err != nil {
		return err
	}
	devID, err := requireDevice(c)
	if err != nil {
		return err
	}

	var req createPostRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	post, err := s.app.CreatePost(c.Request().Context(), eventID, devID, req.Content, req.QuickTag)
	if err != nil {
		return err
	}
	if err := c.JSON(http.StatusCreated, post); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

type postVoteRequest struct {
	Direction int `json:"direction"`
}

func (s *Server) handlePostVote(c echo.Context) error {
	postID, err := parseIDParam(c)
	if err != nil {
		return err
	}
	devID, err := requireDevice(c)
	if err != nil {
		return err
	}

	var req postVoteRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	score, err := s.app.VoteOnPost(c.Request().Context(), postID, devID, req.Direction)
	if err != nil {
		return err
	}
	return writeJSON(c, map[string]int{"score": score})
}

// --- Helpers ---

// listWindow maps the named filters to a concrete time window. Tonight runs
// from midnight through 6am the next day so parties that spill over stay in
// the listing; weekend covers Friday through Monday morning of the current
// week, including a weekend already underway.
func listWindow(filter string, now time.Time) (time.Time, time.Time, error) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch filter {
	case "tonight":
		return day, day.Add(30 * time.Hour), nil
	case "weekend":
		var friday time.Time
		switch day.Weekday() {
		case time.Saturday:
			friday = day.AddDate(0, 0, -1)
		case time.Sunday:
			friday = day.AddDate(0, 0, -2)
		default:
			friday = day.AddDate(0, 0, (int(time.Friday)-int(day.Weekday())+7)%7)
		}
		return friday, friday.AddDate(0, 0, 3).Add(6 * time.Hour), nil
	case "all":
		return now.Add(-defaultListLookback), now.AddDate(0, 0, 90), nil
	default:
		return time.Time{}, time.Time{}, apperrors.ValidationError("filter must be tonight, weekend, or all").
			WithField("filter", filter)
	}
}

func parseIDParam(c echo.Context) (uuid.UUID, error) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.ValidationError("invalid ID format").WithField("id", raw)
	}
	return id, nil
}

func parseTimeParam(c echo.Context, name string, fallback time.Time) (time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apperrors.ValidationError(name + " must be an RFC 3339 timestamp").WithField(name, raw)
	}
	return t, nil
}

func writeJSON(c echo.Context, payload any) error {
	if err := c.JSON(http.StatusOK, payload); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
