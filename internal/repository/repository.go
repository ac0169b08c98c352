package repository

import "context"

// SessionStore persists whole session records keyed by session id. Writes
// replace the full record; the engine treats failures as best-effort.
type SessionStore interface {
	SaveSession(ctx context.Context, session *Session) error
	// GetSessionByID returns nil without error when the id is unknown.
	GetSessionByID(ctx context.Context, sessionID string) (*Session, error)
	// GetLastSessionByGuild returns the most recently started session for
	// the guild regardless of status, or nil when the guild has none.
	GetLastSessionByGuild(ctx context.Context, guildID string) (*Session, error)
	// SaveSummary reports false when the session id is unknown.
	SaveSummary(ctx context.Context, sessionID string, summary *MeetingSummary) (bool, error)
}

// PreferenceStore holds the per-user summary language preference.
type PreferenceStore interface {
	// GetLanguageMode returns "" when the user has no stored preference.
	GetLanguageMode(ctx context.Context, userID string) (string, error)
	SetLanguageMode(ctx context.Context, userID, mode string) error
}

// WorkspaceStore is a read-only view of the project-workspace collaborator's
// data, used only to link a session to the workspace owning a voice channel.
type WorkspaceStore interface {
	// FindWorkspaceIDByVoiceChannel returns "" when no workspace owns the channel.
	FindWorkspaceIDByVoiceChannel(ctx context.Context, guildID, channelID string) (string, error)
}

type Repository interface {
	SessionStore
	PreferenceStore
	WorkspaceStore
}
