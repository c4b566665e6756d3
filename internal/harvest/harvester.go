package harvest

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sony/gobreaker"

	"github.com/sabyjs3-beep/tctp/internal/domain"
	"github.com/sabyjs3-beep/tctp/internal/ingest"
	"github.com/sabyjs3-beep/tctp/internal/metrics"
)

// Submitter resolves a submission for a city. Implemented by app.Service.
type Submitter interface {
	SubmitEvent(ctx context.Context, citySlug string, sub ingest.Submission) (ingest.Decision, error)
}

// Harvester fetches every configured source once and feeds what it finds
// through the submitter as automated submissions.
type Harvester struct {
	submitter Submitter
	citySlug  string
	sources   []Source
}

func NewHarvester(submitter Submitter, citySlug string, sources ...Source) *Harvester {
	return &Harvester{submitter: submitter, citySlug: citySlug, sources: sources}
}

// Run performs one harvest pass and returns the number of events created.
// A failing source is logged and skipped; it never aborts the run.
func (h *Harvester) Run(ctx context.Context) int {
	imported := 0

	for _, src := range h.sources {
		submissions, err := src.Fetch(ctx)
		if err != nil {
			result := "error"
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				result = "breaker_open"
			}
			metrics.HarvestFetchesTotal.WithLabelValues(result).Inc()
			slog.Error("Harvest fetch failed", "source", src.Name(), "error", err)
			continue
		}

		metrics.HarvestFetchesTotal.WithLabelValues("success").Inc()
		metrics.HarvestEventsSeen.Add(float64(len(submissions)))
		slog.Info("Harvest fetch complete", "source", src.Name(), "events", len(submissions))

		for _, sub := range submissions {
			sub.Source = domain.SourceAutomated

			decision, err := h.submitter.SubmitEvent(ctx, h.citySlug, sub)
			if err != nil {
				slog.Warn("Harvest submission failed",
					"source", src.Name(), "title", sub.Title, "error", err)
				continue
			}
			if decision.Action == ingest.ActionCreated {
				imported++
			}
		}
	}

	slog.Info("Harvest run finished", "city", h.citySlug, "imported", imported)
	return imported
}
