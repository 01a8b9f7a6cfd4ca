package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/foxseedlab/meetingbuddy/internal/listener"
	"github.com/foxseedlab/meetingbuddy/internal/recognizer"
	"github.com/foxseedlab/meetingbuddy/internal/signal"
	"github.com/foxseedlab/meetingbuddy/internal/transcriber"
)

const (
	NameLayout = "2006-01-02_15-04-05"

	transcriptFileName = "transcript.log"
	whisperLogFileName = "whisper.log"
)

var (
	ErrAlreadyStarted = errors.New("session: already started")
	ErrClosed         = errors.New("session: closed")
)

// Handler is notified of every accepted transcript line, in registration order.
// Calls come from a single goroutine, so a slow handler delays the ones after it.
type Handler interface {
	OnTranscription(text string)
}

// LifecycleHandler is implemented by handlers that also want to know when the
// session starts and ends. Errors are logged and otherwise ignored.
type LifecycleHandler interface {
	OnSessionStart(ctx context.Context, info Info) error
	OnSessionEnd(ctx context.Context, summary Summary) error
}

type Info struct {
	Name      string
	BasePath  string
	StartedAt time.Time
}

type Line struct {
	Text     string
	SpokenAt time.Time
}

type Summary struct {
	Info
	EndedAt    time.Time
	Transcript string
	Lines      []Line
}

type Params struct {
	Name     string
	CacheDir string
	Launcher recognizer.Launcher
	Logger   *slog.Logger
	Handlers []Handler
	Announce bool
	// Clock stamps session times and transcript lines. Defaults to time.Now.
	Clock func() time.Time
}

type Session struct {
	name           string
	basePath       string
	transcriptPath string
	whisperPath    string

	logger      *slog.Logger
	handlers    []Handler
	transcriber *transcriber.Transcriber
	signal      *signal.Signal
	listener    *listener.Listener
	diagFile    *os.File
	now         func() time.Time

	// deliverMu keeps transcript.log order and handler order identical.
	// Handlers must not call UpdateTranscript.
	deliverMu sync.Mutex
	fileMu    sync.Mutex
	lines     []Line

	mu        sync.Mutex
	started   bool
	closed    bool
	startedAt time.Time

	stopRequested chan struct{}
	requestOnce   sync.Once
	listenerDone  chan struct{}
	listenErr     error
	drainOnce     sync.Once
}

// New prepares the session directory and an empty transcript log. Nothing is
// launched until Start.
func New(p Params) (*Session, error) {
	if p.Launcher == nil {
		return nil, fmt.Errorf("session: launcher is required")
	}
	if p.CacheDir == "" {
		return nil, fmt.Errorf("session: cache dir is required")
	}
	now := p.Clock
	if now == nil {
		now = time.Now
	}
	name := p.Name
	if name == "" {
		name = now().Format(NameLayout)
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("session", name)

	basePath := filepath.Join(sessionsDir(p.CacheDir), name)
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	transcriptPath := filepath.Join(basePath, transcriptFileName)
	f, err := os.OpenFile(transcriptPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create transcript log: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("create transcript log: %w", err)
	}

	whisperPath := filepath.Join(basePath, whisperLogFileName)
	diagFile, err := os.OpenFile(whisperPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open diagnostic log: %w", err)
	}
	diag := slog.New(slog.NewTextHandler(diagFile, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s := &Session{
		name:           name,
		basePath:       basePath,
		transcriptPath: transcriptPath,
		whisperPath:    whisperPath,
		logger:         logger,
		handlers:       append([]Handler(nil), p.Handlers...),
		transcriber:    transcriber.New(transcriber.WithClock(now)),
		signal:         signal.New(logger),
		diagFile:       diagFile,
		now:            now,
		stopRequested:  make(chan struct{}),
		listenerDone:   make(chan struct{}),
	}
	s.listener = listener.New(p.Launcher, s.transcriber, s.signal, listener.Options{
		Logger:           logger,
		DiagnosticLogger: diag,
		Announce:         p.Announce,
	})
	s.signal.Subscribe(s.onEvent)
	return s, nil
}

func (s *Session) Name() string              { return s.name }
func (s *Session) BasePath() string          { return s.basePath }
func (s *Session) TranscriptLogPath() string { return s.transcriptPath }
func (s *Session) WhisperLogPath() string    { return s.whisperPath }

func (s *Session) Transcriber() *transcriber.Transcriber { return s.transcriber }
func (s *Session) Listener() *listener.Listener          { return s.listener }

// Start runs the listener and blocks until Stop is called, ctx is done, or the
// recognizer's output ends. The shutdown sequence has completed by the time it
// returns. A launch failure is returned.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.startedAt = s.now()
	info := s.infoLocked()
	s.mu.Unlock()

	s.logger.Info("session started", "base_path", s.basePath)
	s.notifyStart(ctx, info)

	go s.superviseListener(ctx)

	select {
	case <-s.stopRequested:
	case <-ctx.Done():
		s.logger.Info("session context done", "error", ctx.Err())
	case <-s.listenerDone:
		s.logger.Info("recognizer output ended")
	}
	s.Stop()
	return s.listenErr
}

func (s *Session) superviseListener(ctx context.Context) {
	defer close(s.listenerDone)
	if err := s.listener.Start(ctx); err != nil {
		s.logger.Error("listener failed", "error", err)
		s.listenErr = err
	}
}

// Stop requests shutdown and waits until the listener has finished, queued
// transcript lines are written and handlers have run. Safe to call more than
// once and from several goroutines; every caller blocks until drained.
func (s *Session) Stop() {
	s.requestOnce.Do(func() { close(s.stopRequested) })
	s.drainOnce.Do(s.drain)
}

func (s *Session) drain() {
	s.mu.Lock()
	s.closed = true
	started := s.started
	info := s.infoLocked()
	s.mu.Unlock()

	s.listener.Stop()
	if started {
		<-s.listenerDone
	}
	if pending := s.signal.Pending(); pending > 0 {
		s.logger.Debug("flushing queued transcriptions", "pending", pending)
	}
	s.signal.Close()

	if started {
		summary, err := s.summary(info)
		if err != nil {
			s.logger.Warn("failed to read transcript for summary", "error", err)
		}
		s.notifyEnd(summary)
		if latest, err := s.transcriber.Latest(transcriber.DefaultLatestLimit); err == nil && latest != "" {
			s.logger.Debug("last heard", "text", latest)
		}
		s.logger.Info("session stopped", "lines", len(summary.Lines))
	}
	if err := s.diagFile.Close(); err != nil {
		s.logger.Warn("failed to close diagnostic log", "error", err)
	}
}

func (s *Session) infoLocked() Info {
	return Info{Name: s.name, BasePath: s.basePath, StartedAt: s.startedAt}
}

func (s *Session) summary(info Info) (Summary, error) {
	transcript, err := s.CurrentTranscript()
	s.fileMu.Lock()
	lines := append([]Line(nil), s.lines...)
	s.fileMu.Unlock()
	return Summary{
		Info:       info,
		EndedAt:    s.now(),
		Transcript: transcript,
		Lines:      lines,
	}, err
}

// CurrentTranscript returns the transcript log contents, or "" when the file
// does not exist.
func (s *Session) CurrentTranscript() (string, error) {
	return readTranscriptFile(s.transcriptPath)
}

// ReadTranscript returns the transcript log of a session stored under
// sessionsDir without touching the session directory.
func ReadTranscript(sessionsDir, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("session: name is required")
	}
	return readTranscriptFile(filepath.Join(sessionsDir, name, transcriptFileName))
}

func sessionsDir(cacheDir string) string {
	return filepath.Join(cacheDir, "sessions")
}

func readTranscriptFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read transcript log: %w", err)
	}
	return string(b), nil
}

// UpdateTranscript appends text as one line and then notifies every handler.
func (s *Session) UpdateTranscript(text string) error {
	return s.appendLine(text)
}

// onEvent stamps lines on arrival. whisper restarts its offsets at zero for
// every VAD window, so the parsed timestamp is not a session time.
func (s *Session) onEvent(ev signal.Event) {
	if ev.Text == "" {
		return
	}
	if err := s.appendLine(ev.Text); err != nil {
		s.logger.Error("failed to append transcript", "error", err)
	}
}

func (s *Session) appendLine(text string) error {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	if err := s.writeLine(text, s.now()); err != nil {
		return err
	}
	for _, h := range s.handlers {
		s.notify(h, text)
	}
	return nil
}

func (s *Session) writeLine(text string, spokenAt time.Time) error {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	f, err := os.OpenFile(s.transcriptPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open transcript log: %w", err)
	}
	if _, err := f.WriteString(text + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("write transcript log: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close transcript log: %w", err)
	}
	s.lines = append(s.lines, Line{Text: text, SpokenAt: spokenAt})
	return nil
}

func (s *Session) notify(h Handler, text string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("transcription handler panicked", "handler", fmt.Sprintf("%T", h), "panic", r)
		}
	}()
	h.OnTranscription(text)
}

func (s *Session) notifyStart(ctx context.Context, info Info) {
	for _, h := range s.handlers {
		lh, ok := h.(LifecycleHandler)
		if !ok {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("session start hook panicked", "handler", fmt.Sprintf("%T", h), "panic", r)
				}
			}()
			if err := lh.OnSessionStart(ctx, info); err != nil {
				s.logger.Error("session start hook failed", "handler", fmt.Sprintf("%T", h), "error", err)
			}
		}()
	}
}

func (s *Session) notifyEnd(summary Summary) {
	ctx := context.Background()
	for _, h := range s.handlers {
		lh, ok := h.(LifecycleHandler)
		if !ok {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("session end hook panicked", "handler", fmt.Sprintf("%T", h), "panic", r)
				}
			}()
			if err := lh.OnSessionEnd(ctx, summary); err != nil {
				s.logger.Error("session end hook failed", "handler", fmt.Sprintf("%T", h), "error", err)
			}
		}()
	}
}
