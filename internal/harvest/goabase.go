package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sabyjs3-beep/tctp/internal/domain"
	"github.com/sabyjs3-beep/tctp/internal/ingest"
)

const (
	goabaseUserAgent = "tctp-harvester/1.0"
	goabaseTimeout   = 15 * time.Second
)

// GoabaseSource reads the Goabase party feed, a public JSON listing of
// psytrance events.
type GoabaseSource struct {
	feedURL string
	client  *http.Client
}

func NewGoabaseSource(feedURL string, client *http.Client) *GoabaseSource {
	if client == nil {
		client = &http.Client{Timeout: goabaseTimeout}
	}
	return &GoabaseSource{feedURL: feedURL, client: client}
}

func (s *GoabaseSource) Name() string {
	return "goabase"
}

type goabaseFeed struct {
	PartyList []goabaseParty `json:"partylist"`
}

type goabaseParty struct {
	NameParty    string `json:"nameParty"`
	TextMore     string `json:"textMore"`
	NameVenue    string `json:"nameVenue"`
	NameTown     string `json:"nameTown"`
	DateStart    string `json:"dateStart"`
	DateEnd      string `json:"dateEnd"`
	URLPartyHTML string `json:"urlPartyHtml"`
}

// Fetch downloads and parses the feed. Entries missing a title, a venue, or a
// parseable start date are skipped rather than failing the whole fetch.
func (s *GoabaseSource) Fetch(ctx context.Context) ([]ingest.Submission, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed request: %w", err)
	}
	req.Header.Set("User-Agent", goabaseUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	var feed goabaseFeed
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}

	var submissions []ingest.Submission
	for _, p := range feed.PartyList {
		venueName := p.NameVenue
		if venueName == "" {
			venueName = p.NameTown
		}
		if p.NameParty == "" || venueName == "" {
			slog.Debug("Skipping feed entry without title or venue", "source", s.Name())
			continue
		}

		start, err := time.Parse(time.RFC3339, p.DateStart)
		if err != nil {
			slog.Debug("Skipping feed entry with unparseable start date",
				"source", s.Name(), "title", p.NameParty, "date", p.DateStart)
			continue
		}

		var end *time.Time
		if t, err := time.Parse(time.RFC3339, p.DateEnd); err == nil {
			end = &t
		}

		submissions = append(submissions, ingest.Submission{
			Title:       p.NameParty,
			Description: p.TextMore,
			VenueName:   venueName,
			VenueAddr:   p.NameTown,
			Date:        start.UTC().Format("2006-01-02"),
			StartTime:   start,
			EndTime:     end,
			Source:      domain.SourceAutomated,
			SourceURL:   p.URLPartyHTML,
		})
	}
	return submissions, nil
}
