package repository

import (
	"context"
	"time"

	"github.com/foxseedlab/gijirokun/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) SaveSession(ctx context.Context, s *repository.Session) error {
	recordings, err := encodeRecordings(s.Recordings)
	if err != nil {
		return err
	}
	transcripts, err := encodeTranscripts(s.Transcripts)
	if err != nil {
		return err
	}
	summary, err := encodeSummary(s.LastSummary)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO vc_sessions (id, guild_id, channel_id, initiator_id, linked_workspace_id,
		                          participants, recordings, transcripts, status, started_at,
		                          ended_at, language_mode, last_summary, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		 ON CONFLICT (id) DO UPDATE SET
		     participants = EXCLUDED.participants,
		     recordings = EXCLUDED.recordings,
		     transcripts = EXCLUDED.transcripts,
		     status = EXCLUDED.status,
		     ended_at = EXCLUDED.ended_at,
		     last_summary = EXCLUDED.last_summary,
		     updated_at = NOW()`,
		s.ID, s.GuildID, s.ChannelID, s.InitiatorID, nullIfEmpty(s.LinkedWorkspaceID),
		s.Participants, recordings, transcripts, string(s.Status), s.StartedAt,
		s.EndedAt, s.LanguageMode, summary)
	return err
}

func (r *PostgresRepository) GetSessionByID(ctx context.Context, sessionID string) (*repository.Session, error) {
	row := r.pool.QueryRow(ctx, sessionSelectColumns+` FROM vc_sessions WHERE id = $1`, sessionID)
	return scanSession(row)
}

func (r *PostgresRepository) GetLastSessionByGuild(ctx context.Context, guildID string) (*repository.Session, error) {
	row := r.pool.QueryRow(ctx,
		sessionSelectColumns+` FROM vc_sessions WHERE guild_id = $1 ORDER BY started_at DESC LIMIT 1`,
		guildID)
	return scanSession(row)
}

func (r *PostgresRepository) SaveSummary(ctx context.Context, sessionID string, summary *repository.MeetingSummary) (bool, error) {
	encoded, err := encodeSummary(summary)
	if err != nil {
		return false, err
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE vc_sessions SET last_summary = $2, updated_at = NOW() WHERE id = $1`,
		sessionID, encoded)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepository) GetLanguageMode(ctx context.Context, userID string) (string, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT language_mode FROM user_preferences WHERE user_id = $1`, userID)
	var mode string
	if err := row.Scan(&mode); err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return mode, nil
}

func (r *PostgresRepository) SetLanguageMode(ctx context.Context, userID, mode string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_preferences (user_id, language_mode)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET language_mode = EXCLUDED.language_mode, updated_at = NOW()`,
		userID, mode)
	return err
}

func (r *PostgresRepository) FindWorkspaceIDByVoiceChannel(ctx context.Context, guildID, channelID string) (string, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id FROM project_workspaces WHERE guild_id = $1 AND voice_channel_id = $2 LIMIT 1`,
		guildID, channelID)
	var workspaceID string
	if err := row.Scan(&workspaceID); err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return workspaceID, nil
}

const sessionSelectColumns = `SELECT id, guild_id, channel_id, initiator_id, linked_workspace_id,
	participants, recordings, transcripts, status, started_at, ended_at, language_mode, last_summary`

func scanSession(row pgx.Row) (*repository.Session, error) {
	var s repository.Session
	var workspaceID *string
	var recordings, transcripts, summary []byte
	var status string
	var endedAt *time.Time
	err := row.Scan(&s.ID, &s.GuildID, &s.ChannelID, &s.InitiatorID, &workspaceID,
		&s.Participants, &recordings, &transcripts, &status, &s.StartedAt, &endedAt,
		&s.LanguageMode, &summary)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if workspaceID != nil {
		s.LinkedWorkspaceID = *workspaceID
	}
	s.Status = repository.SessionStatus(status)
	s.EndedAt = endedAt
	if s.Recordings, err = decodeRecordings(recordings); err != nil {
		return nil, err
	}
	if s.Transcripts, err = decodeTranscripts(transcripts); err != nil {
		return nil, err
	}
	if s.LastSummary, err = decodeSummary(summary); err != nil {
		return nil, err
	}
	return &s, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
