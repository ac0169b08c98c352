package webhook

import (
	"context"

	"github.com/foxseedlab/gijirokun/internal/repository"
)

type SummaryPayload struct {
	SessionID       string                     `json:"session_id"`
	GuildID         string                     `json:"guild_id"`
	ChannelID       string                     `json:"channel_id"`
	Participants    []string                   `json:"participants"`
	StartedAt       string                     `json:"started_at"`
	EndedAt         string                     `json:"ended_at"`
	DurationMinutes int                        `json:"duration_minutes"`
	Summary         *repository.MeetingSummary `json:"summary"`
	TranscriptCount int                        `json:"transcript_count"`
	LinkedWorkspace string                     `json:"linked_workspace,omitempty"`
	LanguageMode    string                     `json:"language_mode"`
}

type Sender interface {
	SendSummary(ctx context.Context, payload SummaryPayload) error
}
