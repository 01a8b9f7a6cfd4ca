package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/foxseedlab/meetingbuddy/internal/repository"
)

func openTestSQLite(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "nested", "buddy.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLite_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := openTestSQLite(t)
	startedAt := time.Date(2026, 2, 28, 12, 0, 0, 250*int(time.Millisecond), time.UTC)

	created, err := repo.CreateSession(ctx, repository.CreateSessionInput{
		Name:      "standup",
		BasePath:  "/tmp/sessions/standup",
		StartedAt: startedAt,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.Status != repository.SessionStatusRunning {
		t.Fatalf("unexpected created session: %+v", created)
	}

	running, err := repo.GetRunningSessionByName(ctx, "standup")
	if err != nil {
		t.Fatalf("get running: %v", err)
	}
	if running == nil || running.ID != created.ID {
		t.Fatalf("expected running session %s, got %+v", created.ID, running)
	}
	if !running.StartedAt.Equal(startedAt) {
		t.Fatalf("started_at mismatch: got %s want %s", running.StartedAt, startedAt)
	}
	if running.EndedAt != nil {
		t.Fatalf("expected no ended_at, got %s", running.EndedAt)
	}

	if err := repo.UpdateSessionCompleted(ctx, repository.CompleteSessionInput{
		SessionID: created.ID,
		EndedAt:   startedAt.Add(time.Minute),
	}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	running, err = repo.GetRunningSessionByName(ctx, "standup")
	if err != nil {
		t.Fatalf("get running after complete: %v", err)
	}
	if running != nil {
		t.Fatalf("expected no running session, got %+v", running)
	}
}

func TestSQLite_GetRunningSessionByName_Unknown(t *testing.T) {
	repo := openTestSQLite(t)
	got, err := repo.GetRunningSessionByName(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestSQLite_SegmentsOrderedByIndex(t *testing.T) {
	ctx := context.Background()
	repo := openTestSQLite(t)
	startedAt := time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)
	sess, err := repo.CreateSession(ctx, repository.CreateSessionInput{Name: "retro", BasePath: "/tmp/retro", StartedAt: startedAt})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	inputs := []repository.InsertSegmentInput{
		{SessionID: sess.ID, Content: "second", SegmentIndex: 1, SpokenAt: startedAt.Add(3 * time.Second)},
		{SessionID: sess.ID, Content: "first", SegmentIndex: 0, SpokenAt: startedAt.Add(1500 * time.Millisecond)},
	}
	for _, in := range inputs {
		if err := repo.InsertSegment(ctx, in); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	segs, err := repo.ListSegmentsBySessionID(ctx, sess.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if segs[0].Content != "first" || segs[1].Content != "second" {
		t.Fatalf("unexpected order: %+v", segs)
	}
	if !segs[0].SpokenAt.Equal(startedAt.Add(1500 * time.Millisecond)) {
		t.Fatalf("spoken_at mismatch: %s", segs[0].SpokenAt)
	}
}

func TestSQLite_DuplicateSegmentIndexRejected(t *testing.T) {
	ctx := context.Background()
	repo := openTestSQLite(t)
	sess, err := repo.CreateSession(ctx, repository.CreateSessionInput{Name: "dup", BasePath: "/tmp/dup", StartedAt: time.Now()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	in := repository.InsertSegmentInput{SessionID: sess.ID, Content: "x", SegmentIndex: 0, SpokenAt: time.Now()}
	if err := repo.InsertSegment(ctx, in); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := repo.InsertSegment(ctx, in); err == nil {
		t.Fatal("expected unique constraint violation")
	}
}

func TestTimeFromUnix(t *testing.T) {
	want := time.Date(2026, 2, 28, 12, 0, 1, 500*int(time.Millisecond), time.UTC)
	got := timeFromUnix(unixFromTime(want))
	if !got.Equal(want) {
		t.Fatalf("got %s want %s", got, want)
	}
}
