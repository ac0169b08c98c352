package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/foxseedlab/gijirokun/internal/repository"
	"github.com/foxseedlab/gijirokun/internal/webhook"
)

const minutesTimeLayout = "2006-01-02 15:04:05"

// buildMinutesText renders one ended session as a plain-text minutes
// document: header, summary sections when a summary exists, then the raw
// transcript with per-line elapsed offsets.
func buildMinutesText(s *repository.Session) []byte {
	endedAt := s.StartedAt
	if s.EndedAt != nil {
		endedAt = *s.EndedAt
	}
	mentions := make([]string, 0, len(s.Participants))
	for _, userID := range s.Participants {
		mentions = append(mentions, "<@"+userID+">")
	}

	lines := []string{
		fmt.Sprintf("Session: %s", s.ID),
		fmt.Sprintf("Voice channel: <#%s>", s.ChannelID),
		fmt.Sprintf("Period: %s ~ %s (UTC)", s.StartedAt.UTC().Format(minutesTimeLayout), endedAt.UTC().Format(minutesTimeLayout)),
		fmt.Sprintf("Participants: %s", strings.Join(mentions, ", ")),
	}
	if s.LinkedWorkspaceID != "" {
		lines = append(lines, fmt.Sprintf("Workspace: %s", s.LinkedWorkspaceID))
	}
	lines = append(lines, "")
	if s.LastSummary != nil {
		lines = append(lines, summarySections(s.LastSummary)...)
		lines = append(lines, "")
	}
	lines = append(lines, "Transcript:")
	for _, entry := range s.Transcripts {
		elapsed := entry.CapturedAt.Sub(s.StartedAt)
		if elapsed < 0 {
			elapsed = 0
		}
		lines = append(lines, fmt.Sprintf("%s <@%s> %s", formatElapsedHMS(elapsed), entry.UserID, entry.Text))
	}
	return []byte(strings.Join(lines, "\n"))
}

func summarySections(summary *repository.MeetingSummary) []string {
	lines := []string{"Overview:", summary.Overview}
	lines = append(lines, summaryListSection("Discussion points", summary.DiscussionPoints)...)
	lines = append(lines, summaryListSection("Decisions", summary.Decisions)...)
	lines = append(lines, summaryListSection("Action items", summary.ActionItems)...)
	lines = append(lines, summaryListSection("Next steps", summary.NextSteps)...)
	if summary.MeetingTone != "" {
		lines = append(lines, "", fmt.Sprintf("Tone: %s", summary.MeetingTone))
	}
	return lines
}

func summaryListSection(title string, items []string) []string {
	if len(items) == 0 {
		return nil
	}
	lines := []string{"", title + ":"}
	for _, item := range items {
		lines = append(lines, "- "+item)
	}
	return lines
}

// buildSummaryMessage is the channel post after /summarize-vc succeeds.
func buildSummaryMessage(summary *repository.MeetingSummary) string {
	lines := []string{":page_facing_up: **Meeting summary**", "", summary.Overview}
	lines = append(lines, summaryListSection("Decisions", summary.Decisions)...)
	lines = append(lines, summaryListSection("Action items", summary.ActionItems)...)
	lines = append(lines, "", "-# Use /minutes to get the full minutes as a file.")
	return strings.Join(lines, "\n")
}

func buildSummaryPayload(s *repository.Session, summary *repository.MeetingSummary) webhook.SummaryPayload {
	endedAt := s.StartedAt
	if s.EndedAt != nil {
		endedAt = *s.EndedAt
	}
	durationMinutes := int(endedAt.Sub(s.StartedAt).Minutes())
	if durationMinutes < 0 {
		durationMinutes = 0
	}
	return webhook.SummaryPayload{
		SessionID:       s.ID,
		GuildID:         s.GuildID,
		ChannelID:       s.ChannelID,
		Participants:    append([]string(nil), s.Participants...),
		StartedAt:       s.StartedAt.UTC().Format(time.RFC3339),
		EndedAt:         endedAt.UTC().Format(time.RFC3339),
		DurationMinutes: durationMinutes,
		Summary:         summary,
		TranscriptCount: len(s.Transcripts),
		LinkedWorkspace: s.LinkedWorkspaceID,
		LanguageMode:    s.LanguageMode,
	}
}

func formatElapsedHMS(d time.Duration) string {
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
