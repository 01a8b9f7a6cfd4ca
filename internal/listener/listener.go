package listener

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/foxseedlab/meetingbuddy/internal/recognizer"
	"github.com/foxseedlab/meetingbuddy/internal/signal"
	"github.com/foxseedlab/meetingbuddy/internal/transcriber"
	"golang.org/x/sync/errgroup"
)

const maxLineBytes = 1024 * 1024

var ErrAlreadyStarted = errors.New("listener: already started")

type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

type Options struct {
	Logger *slog.Logger
	// DiagnosticLogger receives the recognizer's raw stderr (error level) and
	// a copy of its stdout (debug level).
	DiagnosticLogger *slog.Logger
	Announce         bool
}

// Listener owns one recognizer process and feeds its output through the
// transcriber onto the signal.
type Listener struct {
	launcher    recognizer.Launcher
	transcriber *transcriber.Transcriber
	signal      *signal.Signal
	logger      *slog.Logger
	diag        *slog.Logger

	announce atomic.Bool
	shutdown atomic.Bool
	state    atomic.Int32

	mu       sync.Mutex
	process  recognizer.Process
	stopOnce sync.Once
}

func New(launcher recognizer.Launcher, t *transcriber.Transcriber, s *signal.Signal, opts Options) *Listener {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	diag := opts.DiagnosticLogger
	if diag == nil {
		diag = logger
	}
	l := &Listener{
		launcher:    launcher,
		transcriber: t,
		signal:      s,
		logger:      logger,
		diag:        diag,
	}
	l.announce.Store(opts.Announce)
	return l
}

func (l *Listener) State() State {
	return State(l.state.Load())
}

func (l *Listener) AnnounceWhatYouHear() {
	l.announce.Store(true)
}

func (l *Listener) SuppressWhatYouHear() {
	l.announce.Store(false)
}

func (l *Listener) Announcing() bool {
	return l.announce.Load()
}

// Start runs the recognizer and blocks until its output ends or Stop is called.
// It does not return before both diagnostic drains have finished and the
// process has been reaped.
func (l *Listener) Start(ctx context.Context) error {
	if l.shutdown.Load() {
		l.state.Store(int32(StateStopped))
		return nil
	}
	if !l.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return ErrAlreadyStarted
	}
	defer l.state.Store(int32(StateStopped))

	proc, err := l.launcher.Launch(ctx)
	if err != nil {
		return fmt.Errorf("launch recognizer: %w", err)
	}
	l.mu.Lock()
	l.process = proc
	stopRequested := l.shutdown.Load()
	l.mu.Unlock()
	if stopRequested {
		proc.Terminate()
	}

	auditReader, auditWriter := io.Pipe()
	stdout := io.TeeReader(proc.Stdout(), auditWriter)

	var drains errgroup.Group
	drains.Go(func() error {
		return l.drain("error", proc.Stderr(), slog.LevelError)
	})
	drains.Go(func() error {
		return l.drain("output", auditReader, slog.LevelDebug)
	})

	l.logger.Info("listening")
	l.readTranscriptions(stdout)

	l.state.CompareAndSwap(int32(StateRunning), int32(StateStopping))
	proc.Terminate()
	_ = auditWriter.Close()
	if err := drains.Wait(); err != nil {
		l.logger.Warn("recognizer stream drain failed", "error", err)
	}
	if err := proc.Wait(); err != nil {
		l.logger.Debug("recognizer exited", "error", err)
	}
	return nil
}

// Stop requests shutdown. The read loop checks the flag between lines, and the
// recognizer is terminated so a blocked read sees its stream close.
func (l *Listener) Stop() {
	l.stopOnce.Do(func() {
		l.mu.Lock()
		l.shutdown.Store(true)
		proc := l.process
		l.mu.Unlock()

		l.state.CompareAndSwap(int32(StateRunning), int32(StateStopping))
		if proc != nil {
			proc.Terminate()
		}
	})
}

func (l *Listener) readTranscriptions(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if l.shutdown.Load() {
			l.logger.Debug("shutdown requested; leaving recognizer output loop")
			return
		}
		l.processLine(scanner.Text())
	}
	err := scanner.Err()
	switch {
	case err == nil:
		l.logger.Debug("recognizer output stream closed", "last_offset", l.transcriber.LastOffset())
	case recognizer.IsStreamClosed(err):
		l.logger.Debug("recognizer output stream closed", "last_offset", l.transcriber.LastOffset(), "error", err)
	default:
		l.logger.Warn("recognizer output read failed", "error", err)
	}
}

func (l *Listener) processLine(line string) {
	fragment := l.transcriber.Process(line)
	if fragment.Empty() {
		return
	}
	if l.announce.Load() {
		l.logger.Info("heard", "text", strings.TrimSpace(fragment.Text))
	}
	if err := l.signal.Trigger(signal.Event{Text: fragment.Text, Timestamp: fragment.Timestamp}); err != nil {
		l.logger.Warn("dropping transcription", "error", err, "text", fragment.Text)
	}
}

func (l *Listener) drain(name string, r io.Reader, level slog.Level) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		l.diag.Log(context.Background(), level, scanner.Text(), "stream", name)
	}
	err := scanner.Err()
	if err == nil || recognizer.IsStreamClosed(err) {
		l.logger.Debug("recognizer stream closed", "stream", name)
		return nil
	}
	// keep the writer side unblocked until it closes
	_, _ = io.Copy(io.Discard, r)
	return fmt.Errorf("%s stream: %w", name, err)
}
