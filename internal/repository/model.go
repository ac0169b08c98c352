package repository

import "time"

type SessionStatus string

const (
	SessionStatusRecording SessionStatus = "recording"
	SessionStatusEnded     SessionStatus = "ended"
)

// LanguageModeAuto is the default per-user summary language preference.
const LanguageModeAuto = "auto"

type TranscriptEntry struct {
	UserID     string    `json:"userId"`
	Text       string    `json:"text"`
	CapturedAt time.Time `json:"capturedAt"`
}

type MeetingSummary struct {
	Overview         string   `json:"overview"`
	DiscussionPoints []string `json:"discussion_points"`
	Decisions        []string `json:"decisions"`
	ActionItems      []string `json:"action_items"`
	NextSteps        []string `json:"next_steps"`
	LanguageDetected string   `json:"language_detected"`
	MeetingTone      string   `json:"meeting_tone"`
}

// Session is one voice-recording-to-summary lifecycle, scoped to one guild.
// Participants keep insertion order for display. Recordings maps a user to
// the artifact paths of their utterances, in capture order. Transcripts are
// append-only; their order does not reflect speaking order (CapturedAt does).
type Session struct {
	ID                string
	GuildID           string
	ChannelID         string
	InitiatorID       string
	LinkedWorkspaceID string
	Participants      []string
	Recordings        map[string][]string
	Transcripts       []TranscriptEntry
	Status            SessionStatus
	StartedAt         time.Time
	EndedAt           *time.Time
	LastSummary       *MeetingSummary
	LanguageMode      string
}

func (s *Session) HasParticipant(userID string) bool {
	for _, p := range s.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Participants = append([]string(nil), s.Participants...)
	out.Recordings = make(map[string][]string, len(s.Recordings))
	for userID, paths := range s.Recordings {
		out.Recordings[userID] = append([]string(nil), paths...)
	}
	out.Transcripts = append([]TranscriptEntry(nil), s.Transcripts...)
	if s.EndedAt != nil {
		endedAt := *s.EndedAt
		out.EndedAt = &endedAt
	}
	if s.LastSummary != nil {
		summary := *s.LastSummary
		out.LastSummary = &summary
	}
	return &out
}
