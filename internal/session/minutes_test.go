package session

import (
	"strings"
	"testing"
	"time"

	"github.com/foxseedlab/gijirokun/internal/repository"
)

func TestBuildMinutesText(t *testing.T) {
	startedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	endedAt := startedAt.Add(25 * time.Minute)
	sess := &repository.Session{
		ID:                "guild-1-1700000000000",
		GuildID:           "guild-1",
		ChannelID:         "vc-1",
		LinkedWorkspaceID: "ws-42",
		Participants:      []string{"u1", "u2"},
		Transcripts: []repository.TranscriptEntry{
			{UserID: "u1", Text: "let's ship on friday", CapturedAt: startedAt.Add(15 * time.Second)},
			{UserID: "u2", Text: "works for me", CapturedAt: startedAt.Add(75 * time.Second)},
		},
		Status:    repository.SessionStatusEnded,
		StartedAt: startedAt,
		EndedAt:   &endedAt,
		LastSummary: &repository.MeetingSummary{
			Overview:    "release planning for friday",
			Decisions:   []string{"ship friday"},
			ActionItems: []string{"u1 prepares the changelog"},
		},
	}

	body := string(buildMinutesText(sess))

	if !strings.Contains(body, "Session: guild-1-1700000000000") {
		t.Fatalf("session line not found in body: %s", body)
	}
	if !strings.Contains(body, "Participants: <@u1>, <@u2>") {
		t.Fatalf("participants line not found in body: %s", body)
	}
	if !strings.Contains(body, "Workspace: ws-42") {
		t.Fatalf("workspace line not found in body: %s", body)
	}
	if !strings.Contains(body, "release planning for friday") {
		t.Fatalf("overview not found in body: %s", body)
	}
	if !strings.Contains(body, "- ship friday") {
		t.Fatalf("decision item not found in body: %s", body)
	}
	if !strings.Contains(body, "00:00:15 <@u1> let's ship on friday") {
		t.Fatalf("first transcript line not found in body: %s", body)
	}
	if !strings.Contains(body, "00:01:15 <@u2> works for me") {
		t.Fatalf("second transcript line not found in body: %s", body)
	}
}

func TestBuildMinutesText_NoSummarySkipsSections(t *testing.T) {
	startedAt := time.Now()
	sess := &repository.Session{
		ID:           "guild-1-1",
		GuildID:      "guild-1",
		ChannelID:    "vc-1",
		Participants: []string{"u1"},
		Status:       repository.SessionStatusEnded,
		StartedAt:    startedAt,
	}

	body := string(buildMinutesText(sess))

	if strings.Contains(body, "Overview:") {
		t.Fatalf("did not expect summary sections: %s", body)
	}
	if !strings.Contains(body, "Transcript:") {
		t.Fatalf("transcript section missing: %s", body)
	}
}

func TestBuildSummaryPayload(t *testing.T) {
	startedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	endedAt := startedAt.Add(12 * time.Minute)
	summary := &repository.MeetingSummary{Overview: "short sync"}
	sess := &repository.Session{
		ID:           "guild-1-2",
		GuildID:      "guild-1",
		ChannelID:    "vc-1",
		Participants: []string{"u1", "u2"},
		Transcripts: []repository.TranscriptEntry{
			{UserID: "u1", Text: "hello", CapturedAt: startedAt},
		},
		Status:       repository.SessionStatusEnded,
		StartedAt:    startedAt,
		EndedAt:      &endedAt,
		LanguageMode: "hinglish",
	}

	payload := buildSummaryPayload(sess, summary)

	if payload.SessionID != "guild-1-2" || payload.DurationMinutes != 12 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.TranscriptCount != 1 || payload.LanguageMode != "hinglish" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.StartedAt != "2026-08-30T12:00:00Z" {
		t.Fatalf("unexpected started_at: %q", payload.StartedAt)
	}
}

func TestBuildSummaryMessage_IncludesDecisionsAndHint(t *testing.T) {
	msg := buildSummaryMessage(&repository.MeetingSummary{
		Overview:  "release planning",
		Decisions: []string{"ship friday"},
	})

	if !strings.Contains(msg, "release planning") {
		t.Fatalf("overview missing: %s", msg)
	}
	if !strings.Contains(msg, "- ship friday") {
		t.Fatalf("decision missing: %s", msg)
	}
	if !strings.Contains(msg, "/minutes") {
		t.Fatalf("minutes hint missing: %s", msg)
	}
}
