package summarizer

import (
	"context"
	"time"

	"github.com/foxseedlab/gijirokun/internal/repository"
)

type Request struct {
	Transcripts  []repository.TranscriptEntry
	Participants []string
	StartedAt    time.Time
	EndedAt      time.Time
	LanguageMode string
}

// Summarizer condenses a finalized transcript set into a structured meeting
// summary. Failures carry a reason and are surfaced to the caller; the
// engine never retries.
type Summarizer interface {
	Summarize(ctx context.Context, req Request) (*repository.MeetingSummary, error)
}
