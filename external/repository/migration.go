package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// project_workspaces is owned by the workspace-provisioning service; it is
// created here only so a fresh single-service deployment can boot, and is
// never written by this process.
var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS vc_sessions (
		id TEXT PRIMARY KEY,
		guild_id TEXT NOT NULL,
		channel_id TEXT NOT NULL,
		initiator_id TEXT NOT NULL,
		linked_workspace_id TEXT,
		participants TEXT[] NOT NULL DEFAULT '{}',
		recordings JSONB NOT NULL DEFAULT '{}',
		transcripts JSONB NOT NULL DEFAULT '[]',
		status TEXT NOT NULL DEFAULT 'recording',
		started_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ,
		language_mode TEXT NOT NULL DEFAULT 'auto',
		last_summary JSONB,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_vc_sessions_guild_started ON vc_sessions (guild_id, started_at DESC)`,
	`CREATE TABLE IF NOT EXISTS user_preferences (
		user_id TEXT PRIMARY KEY,
		language_mode TEXT NOT NULL DEFAULT 'auto',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS project_workspaces (
		id TEXT PRIMARY KEY,
		guild_id TEXT NOT NULL,
		voice_channel_id TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_project_workspaces_voice ON project_workspaces (guild_id, voice_channel_id)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
