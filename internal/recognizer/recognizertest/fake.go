// Package recognizertest provides an in-memory recognizer for tests.
package recognizertest

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/foxseedlab/meetingbuddy/internal/recognizer"
)

// Process is a fake recognizer whose output is written by the test.
// Terminate behaves like a well-behaved child: both streams close.
type Process struct {
	stdoutR *io.PipeReader
	stdoutW *io.PipeWriter
	stderrR *io.PipeReader
	stderrW *io.PipeWriter

	exited       chan struct{}
	exitOnce     sync.Once
	terminations atomic.Int32
}

func NewProcess() *Process {
	p := &Process{exited: make(chan struct{})}
	p.stdoutR, p.stdoutW = io.Pipe()
	p.stderrR, p.stderrW = io.Pipe()
	return p
}

func (p *Process) Stdout() io.Reader { return p.stdoutR }
func (p *Process) Stderr() io.Reader { return p.stderrR }

// Say writes one line to stdout. It blocks until the line has been read.
func (p *Process) Say(line string) error {
	_, err := io.WriteString(p.stdoutW, line+"\n")
	return err
}

// Complain writes one line to stderr.
func (p *Process) Complain(line string) error {
	_, err := io.WriteString(p.stderrW, line+"\n")
	return err
}

// Exit closes both streams as if the process ended on its own.
func (p *Process) Exit() {
	p.exitOnce.Do(func() {
		_ = p.stdoutW.Close()
		_ = p.stderrW.Close()
		close(p.exited)
	})
}

func (p *Process) Terminate() {
	p.terminations.Add(1)
	p.Exit()
}

func (p *Process) Terminations() int {
	return int(p.terminations.Load())
}

func (p *Process) Wait() error {
	<-p.exited
	return nil
}

type Launcher struct {
	process *Process
	err     error

	launches     atomic.Int32
	launched     chan struct{}
	launchedOnce sync.Once
}

func NewLauncher(p *Process) *Launcher {
	return &Launcher{process: p, launched: make(chan struct{})}
}

// FailingLauncher returns err from every Launch call.
func FailingLauncher(err error) *Launcher {
	return &Launcher{err: err, launched: make(chan struct{})}
}

func (l *Launcher) Launch(_ context.Context) (recognizer.Process, error) {
	l.launches.Add(1)
	l.launchedOnce.Do(func() { close(l.launched) })
	if l.err != nil {
		return nil, l.err
	}
	return l.process, nil
}

// Launched is closed after the first Launch call.
func (l *Launcher) Launched() <-chan struct{} {
	return l.launched
}

func (l *Launcher) Launches() int {
	return int(l.launches.Load())
}
