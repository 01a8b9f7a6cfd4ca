package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/foxseedlab/meetingbuddy/internal/repository"
	"github.com/foxseedlab/meetingbuddy/internal/session"
)

// Recorder mirrors transcript lines into a repository as numbered segments.
type Recorder struct {
	base
	repo repository.Repository
	now  func() time.Time

	mu        sync.Mutex
	sessionID string
	nextIndex int
}

func NewRecorder(repo repository.Repository, logger *slog.Logger, timeout time.Duration) *Recorder {
	return &Recorder{
		base: newBase("repository", logger, timeout),
		repo: repo,
		now:  time.Now,
	}
}

// OnSessionStart completes any row left running under the same name by an
// earlier crash, then records the new session.
func (r *Recorder) OnSessionStart(ctx context.Context, info session.Info) error {
	ctx, cancel := r.callContext(ctx)
	defer cancel()

	orphan, err := r.repo.GetRunningSessionByName(ctx, info.Name)
	if err != nil {
		return fmt.Errorf("query running session: %w", err)
	}
	if orphan != nil {
		r.logger.Warn("found orphan running session in repository; closing and continuing", "session_id", orphan.ID)
		if err := r.repo.UpdateSessionCompleted(ctx, repository.CompleteSessionInput{
			SessionID: orphan.ID,
			EndedAt:   r.now(),
		}); err != nil {
			return fmt.Errorf("complete orphan session: %w", err)
		}
	}

	created, err := r.repo.CreateSession(ctx, repository.CreateSessionInput{
		Name:      info.Name,
		BasePath:  info.BasePath,
		StartedAt: info.StartedAt,
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	r.mu.Lock()
	r.sessionID = created.ID
	r.nextIndex = 0
	r.mu.Unlock()
	r.logger.Info("created session", "session_id", created.ID)
	return nil
}

func (r *Recorder) OnTranscription(text string) {
	r.mu.Lock()
	sessionID := r.sessionID
	idx := r.nextIndex
	if sessionID != "" {
		r.nextIndex++
	}
	r.mu.Unlock()
	if sessionID == "" {
		r.logger.Debug("no repository session; segment not recorded")
		return
	}

	ctx, cancel := r.callContext(context.Background())
	defer cancel()
	if err := r.repo.InsertSegment(ctx, repository.InsertSegmentInput{
		SessionID:    sessionID,
		Content:      lineText(text),
		SegmentIndex: idx,
		SpokenAt:     r.now(),
	}); err != nil {
		r.logger.Error("failed to insert segment", "error", err, "session_id", sessionID, "segment_index", idx)
	}
}

func (r *Recorder) OnSessionEnd(ctx context.Context, summary session.Summary) error {
	r.mu.Lock()
	sessionID := r.sessionID
	r.mu.Unlock()
	if sessionID == "" {
		return nil
	}

	ctx, cancel := r.callContext(ctx)
	defer cancel()
	if err := r.repo.UpdateSessionCompleted(ctx, repository.CompleteSessionInput{
		SessionID: sessionID,
		EndedAt:   summary.EndedAt,
	}); err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	r.logger.Info("session completed in repository", "session_id", sessionID, "segments", len(summary.Lines))
	return nil
}
