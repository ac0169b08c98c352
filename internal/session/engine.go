package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/foxseedlab/gijirokun/internal/repository"
)

var (
	ErrSessionAlreadyActive = errors.New("a recording session is already active for this guild")
	ErrNoActiveSession      = errors.New("no active recording session for this guild")
	ErrSessionEnded         = errors.New("session has already ended")
)

// Engine owns the session state machine: at most one recording session per
// guild, the registry of outstanding capture tasks, and the all-settled
// barrier used before a session's transcripts are treated as final.
//
// All state is instance-owned and injected; two engines never share an
// active-session index. The durable store is best-effort: a failed write is
// logged and the in-memory session stays authoritative for the process
// lifetime.
type Engine struct {
	repo repository.Repository

	mu sync.Mutex
	// guilds holds the most recent session per guild, recording or ended.
	// An ended session lingers until replaced so late transcription results
	// and the barrier still have somewhere to land.
	guilds map[string]*guildSlot
}

type guildSlot struct {
	record *repository.Session
	tasks  []*CaptureTask
}

func NewEngine(repo repository.Repository) *Engine {
	return &Engine{
		repo:   repo,
		guilds: make(map[string]*guildSlot),
	}
}

// CreateSession reserves the guild's active-session slot and persists the
// initial record. The check and the claim happen in one critical section,
// so concurrent creators for the same guild cannot both succeed.
func (e *Engine) CreateSession(ctx context.Context, guildID, channelID, initiatorID, linkedWorkspaceID string) (*repository.Session, error) {
	languageMode := e.LanguageMode(ctx, initiatorID)
	now := time.Now()
	record := &repository.Session{
		ID:                fmt.Sprintf("%s-%d", guildID, now.UnixMilli()),
		GuildID:           guildID,
		ChannelID:         channelID,
		InitiatorID:       initiatorID,
		LinkedWorkspaceID: linkedWorkspaceID,
		Participants:      []string{initiatorID},
		Recordings:        make(map[string][]string),
		Status:            repository.SessionStatusRecording,
		StartedAt:         now,
		LanguageMode:      languageMode,
	}

	e.mu.Lock()
	if slot, ok := e.guilds[guildID]; ok && slot.record.Status == repository.SessionStatusRecording {
		e.mu.Unlock()
		return nil, ErrSessionAlreadyActive
	}
	e.guilds[guildID] = &guildSlot{record: record}
	e.mu.Unlock()

	e.persist(ctx, record)
	slog.Info("created recording session", "session_id", record.ID, "guild_id", guildID, "channel_id", channelID, "language_mode", languageMode)
	return record.Clone(), nil
}

// ActiveSession is a pure in-memory lookup; it never consults the store.
func (e *Engine) ActiveSession(guildID string) *repository.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	slot, ok := e.guilds[guildID]
	if !ok || slot.record.Status != repository.SessionStatusRecording {
		return nil
	}
	return slot.record.Clone()
}

// AddParticipant appends a participant to the active session. Already
// present or no active session are benign no-ops.
func (e *Engine) AddParticipant(ctx context.Context, guildID, userID string) {
	e.mu.Lock()
	slot, ok := e.guilds[guildID]
	if !ok || slot.record.Status != repository.SessionStatusRecording || slot.record.HasParticipant(userID) {
		e.mu.Unlock()
		return
	}
	slot.record.Participants = append(slot.record.Participants, userID)
	record := slot.record.Clone()
	e.mu.Unlock()

	e.persist(ctx, record)
	slog.Info("added participant", "session_id", record.ID, "user_id", userID, "participants", len(record.Participants))
}

// RegisterCaptureTask adds one in-flight capture unit to the session's
// outstanding-work set. Registration is only accepted while the session is
// recording; ending a session stops new registrations but never cancels
// tasks already registered.
func (e *Engine) RegisterCaptureTask(guildID string, task *CaptureTask) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	slot, ok := e.guilds[guildID]
	if !ok {
		return ErrNoActiveSession
	}
	if slot.record.Status != repository.SessionStatusRecording {
		return ErrSessionEnded
	}
	slot.tasks = append(slot.tasks, task)
	return nil
}

// RecordArtifact appends an audio artifact reference for a participant.
// Valid before and after the session ends; transcription-side appends can
// arrive during the fan-in wait. No session is a benign no-op.
func (e *Engine) RecordArtifact(ctx context.Context, guildID, userID, artifactPath string) {
	e.mu.Lock()
	slot, ok := e.guilds[guildID]
	if !ok {
		e.mu.Unlock()
		return
	}
	slot.record.Recordings[userID] = append(slot.record.Recordings[userID], artifactPath)
	record := slot.record.Clone()
	e.mu.Unlock()

	e.persist(ctx, record)
}

// RecordTranscript appends one transcript entry. Same append rules as
// RecordArtifact; a zero capturedAt defaults to now.
func (e *Engine) RecordTranscript(ctx context.Context, guildID, userID, text string, capturedAt time.Time) {
	if capturedAt.IsZero() {
		capturedAt = time.Now()
	}
	e.mu.Lock()
	slot, ok := e.guilds[guildID]
	if !ok {
		e.mu.Unlock()
		return
	}
	slot.record.Transcripts = append(slot.record.Transcripts, repository.TranscriptEntry{
		UserID:     userID,
		Text:       text,
		CapturedAt: capturedAt,
	})
	record := slot.record.Clone()
	e.mu.Unlock()

	e.persist(ctx, record)
}

// WaitForOutstandingWork blocks until every registered capture task for the
// guild's session has settled, successfully or not. Tasks registered while
// the wait is in progress are drained too; the loop exits once a snapshot
// adds nothing new. A session with no tasks completes immediately.
func (e *Engine) WaitForOutstandingWork(ctx context.Context, guildID string) error {
	seen := 0
	for {
		e.mu.Lock()
		slot, ok := e.guilds[guildID]
		if !ok {
			e.mu.Unlock()
			return nil
		}
		pending := append([]*CaptureTask(nil), slot.tasks[seen:]...)
		seen = len(slot.tasks)
		sessionID := slot.record.ID
		e.mu.Unlock()

		if len(pending) == 0 {
			return nil
		}
		slog.Info("waiting for outstanding capture work", "session_id", sessionID, "pending", len(pending))
		for _, task := range pending {
			select {
			case <-task.Done():
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// EndSession transitions recording -> ended, sets the end time once and
// releases the guild's active-session slot. The second of two racing
// callers observes ErrNoActiveSession.
func (e *Engine) EndSession(ctx context.Context, guildID string) (*repository.Session, error) {
	e.mu.Lock()
	slot, ok := e.guilds[guildID]
	if !ok || slot.record.Status != repository.SessionStatusRecording {
		e.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	endedAt := time.Now()
	slot.record.Status = repository.SessionStatusEnded
	slot.record.EndedAt = &endedAt
	record := slot.record.Clone()
	e.mu.Unlock()

	e.persist(ctx, record)
	slog.Info("ended recording session", "session_id", record.ID, "guild_id", guildID, "transcripts", len(record.Transcripts))
	return record, nil
}

// SaveSummary attaches (or overwrites) the summary on the durable record.
// Returns false when the session id is unknown to the store.
func (e *Engine) SaveSummary(ctx context.Context, sessionID string, summary *repository.MeetingSummary) (bool, error) {
	e.mu.Lock()
	for _, slot := range e.guilds {
		if slot.record.ID == sessionID {
			slot.record.LastSummary = summary
			break
		}
	}
	e.mu.Unlock()

	found, err := e.repo.SaveSummary(ctx, sessionID, summary)
	if err != nil {
		return false, fmt.Errorf("save summary: %w", err)
	}
	return found, nil
}

// LastSession queries the durable store, so it is valid across restarts.
func (e *Engine) LastSession(ctx context.Context, guildID string) (*repository.Session, error) {
	return e.repo.GetLastSessionByGuild(ctx, guildID)
}

func (e *Engine) SetLanguageMode(ctx context.Context, userID, mode string) error {
	return e.repo.SetLanguageMode(ctx, userID, mode)
}

func (e *Engine) LanguageMode(ctx context.Context, userID string) string {
	mode, err := e.repo.GetLanguageMode(ctx, userID)
	if err != nil {
		slog.Error("failed to read language preference; using default", "error", err, "user_id", userID)
		return repository.LanguageModeAuto
	}
	if mode == "" {
		return repository.LanguageModeAuto
	}
	return mode
}

func (e *Engine) persist(ctx context.Context, record *repository.Session) {
	if err := e.repo.SaveSession(ctx, record); err != nil {
		slog.Error("failed to persist session; continuing with in-memory state", "error", err, "session_id", record.ID)
	}
}
