package recognizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/foxseedlab/meetingbuddy/internal/recognizer"
)

const defaultGracePeriod = 3 * time.Second

// WhisperLauncher starts the whisper.cpp stream binary as a child process.
type WhisperLauncher struct {
	binary string
	args   []string
	dir    string
	grace  time.Duration
	logger *slog.Logger
}

func NewWhisperLauncher(binary string, args []string, dir string, grace time.Duration, logger *slog.Logger) *WhisperLauncher {
	if grace <= 0 {
		grace = defaultGracePeriod
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WhisperLauncher{
		binary: binary,
		args:   args,
		dir:    dir,
		grace:  grace,
		logger: logger,
	}
}

func (l *WhisperLauncher) Launch(ctx context.Context) (recognizer.Process, error) {
	cmd := exec.CommandContext(ctx, l.binary, l.args...)
	cmd.Dir = l.dir
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = l.grace

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("open recognizer stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("open recognizer stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", l.binary, err)
	}
	l.logger.Debug("recognizer started", "pid", cmd.Process.Pid, "binary", l.binary)

	return &process{
		cmd:    cmd,
		stdout: stdout,
		stderr: stderr,
		grace:  l.grace,
		logger: l.logger,
	}, nil
}

type process struct {
	cmd    *exec.Cmd
	stdout io.Reader
	stderr io.Reader
	grace  time.Duration
	logger *slog.Logger

	mu         sync.Mutex
	terminated bool
	killTimer  *time.Timer
}

func (p *process) Stdout() io.Reader { return p.stdout }
func (p *process) Stderr() io.Reader { return p.stderr }

// Terminate sends SIGINT so whisper can flush, and kills the process if it is
// still running after the grace period.
func (p *process) Terminate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.terminated {
		return
	}
	p.terminated = true

	if err := p.cmd.Process.Signal(os.Interrupt); err != nil {
		if !errors.Is(err, os.ErrProcessDone) {
			p.logger.Warn("failed to interrupt recognizer", "error", err)
		}
		return
	}
	p.killTimer = time.AfterFunc(p.grace, func() {
		if err := p.cmd.Process.Kill(); err == nil {
			p.logger.Warn("recognizer ignored interrupt; killed", "grace_period", p.grace)
		}
	})
}

func (p *process) Wait() error {
	err := p.cmd.Wait()
	p.mu.Lock()
	if p.killTimer != nil {
		p.killTimer.Stop()
	}
	p.mu.Unlock()
	return err
}
