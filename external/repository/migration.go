package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`DO $$ BEGIN CREATE TYPE session_status AS ENUM ('running', 'completed'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		base_path TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ,
		status session_status NOT NULL DEFAULT 'running'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_running ON sessions (name) WHERE status = 'running'`,
	`CREATE TABLE IF NOT EXISTS transcript_segments (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		session_id UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		segment_index INTEGER NOT NULL,
		spoken_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE(session_id, segment_index)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transcript_segments_session ON transcript_segments (session_id, segment_index)`,
}

// sqliteMigrationStatements mirror the Postgres schema. Times are stored as
// REAL unix seconds.
var sqliteMigrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		base_path TEXT NOT NULL,
		started_at REAL NOT NULL,
		ended_at REAL,
		status TEXT NOT NULL DEFAULT 'running' CHECK (status IN ('running', 'completed'))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_running ON sessions (name) WHERE status = 'running'`,
	`CREATE TABLE IF NOT EXISTS transcript_segments (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		segment_index INTEGER NOT NULL,
		spoken_at REAL NOT NULL,
		created_at REAL NOT NULL,
		UNIQUE(session_id, segment_index)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transcript_segments_session ON transcript_segments (session_id, segment_index)`,
}

type execer interface {
	exec(ctx context.Context, stmt string) error
}

type pgExecer struct{ pool *pgxpool.Pool }

func (e pgExecer) exec(ctx context.Context, stmt string) error {
	_, err := e.pool.Exec(ctx, stmt)
	return err
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	return runStatements(ctx, pgExecer{pool: pool}, migrationStatements)
}

func runStatements(ctx context.Context, e execer, statements []string) error {
	for _, s := range statements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if err := e.exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
