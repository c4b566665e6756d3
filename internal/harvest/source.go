// Package harvest pulls candidate events from external party feeds and runs
// them through the ingest resolver as automated submissions.
package harvest

import (
	"context"

	"github.com/sabyjs3-beep/tctp/internal/ingest"
)

// Source is one external feed of candidate events.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]ingest.Submission, error)
}
