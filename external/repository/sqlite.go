package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/foxseedlab/meetingbuddy/internal/repository"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database file and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runStatements(ctx, sqlExecer{db: db}, sqliteMigrationStatements); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migration: %w", err)
	}
	return &SQLiteRepository{db: db, now: time.Now}, nil
}

type sqlExecer struct{ db *sql.DB }

func (e sqlExecer) exec(ctx context.Context, stmt string) error {
	_, err := e.db.ExecContext(ctx, stmt)
	return err
}

func (r *SQLiteRepository) CreateSession(ctx context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, name, base_path, started_at, status)
		 VALUES (?, ?, ?, ?, 'running')`,
		id, input.Name, input.BasePath, unixFromTime(input.StartedAt))
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return &repository.Session{
		ID:        id,
		Name:      input.Name,
		BasePath:  input.BasePath,
		StartedAt: timeFromUnix(unixFromTime(input.StartedAt)),
		Status:    repository.SessionStatusRunning,
	}, nil
}

func (r *SQLiteRepository) UpdateSessionCompleted(ctx context.Context, input repository.CompleteSessionInput) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET status = 'completed', ended_at = ? WHERE id = ?`,
		unixFromTime(input.EndedAt), input.SessionID)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetRunningSessionByName(ctx context.Context, name string) (*repository.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, base_path, started_at, ended_at, status
		FROM sessions
		WHERE name = ? AND status = 'running'
		ORDER BY started_at DESC
		LIMIT 1
	`, name)

	var s repository.Session
	var startedAt float64
	var endedAt sql.NullFloat64
	var status string
	if err := row.Scan(&s.ID, &s.Name, &s.BasePath, &startedAt, &endedAt, &status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	s.StartedAt = timeFromUnix(startedAt)
	s.Status = repository.SessionStatus(status)
	if endedAt.Valid {
		t := timeFromUnix(endedAt.Float64)
		s.EndedAt = &t
	}
	return &s, nil
}

func (r *SQLiteRepository) InsertSegment(ctx context.Context, input repository.InsertSegmentInput) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transcript_segments (id, session_id, content, segment_index, spoken_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), input.SessionID, input.Content, input.SegmentIndex,
		unixFromTime(input.SpokenAt), unixFromTime(r.now()))
	if err != nil {
		return fmt.Errorf("insert segment: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListSegmentsBySessionID(ctx context.Context, sessionID string) ([]repository.TranscriptSegment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, content, segment_index, spoken_at, created_at
		FROM transcript_segments
		WHERE session_id = ?
		ORDER BY segment_index ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query segments: %w", err)
	}
	defer rows.Close()

	var list []repository.TranscriptSegment
	for rows.Next() {
		var seg repository.TranscriptSegment
		var spokenAt, createdAt float64
		if err := rows.Scan(&seg.ID, &seg.SessionID, &seg.Content, &seg.SegmentIndex, &spokenAt, &createdAt); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		seg.SpokenAt = timeFromUnix(spokenAt)
		seg.CreatedAt = timeFromUnix(createdAt)
		list = append(list, seg)
	}
	return list, rows.Err()
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// timeFromUnix keeps millisecond precision, which is what the recognizer reports.
func timeFromUnix(ts float64) time.Time {
	sec, frac := math.Modf(ts)
	ms := math.Round(frac * 1e3)
	return time.Unix(int64(sec), int64(ms)*int64(time.Millisecond))
}
