package recognizer

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
)

// Process is a running speech recognizer. Stdout carries transcription lines,
// Stderr carries diagnostics. Each stream must be read by exactly one goroutine.
type Process interface {
	Stdout() io.Reader
	Stderr() io.Reader
	// Terminate asks the process to exit. Safe to call more than once.
	Terminate()
	// Wait reaps the process. Call only after both streams have been drained.
	Wait() error
}

type Launcher interface {
	Launch(ctx context.Context) (Process, error)
}

// IsStreamClosed reports whether err is the expected result of reading from a
// pipe the other side (or our own shutdown) has already closed.
func IsStreamClosed(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, fs.ErrClosed)
}
