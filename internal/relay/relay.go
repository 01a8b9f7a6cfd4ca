// Package relay forwards session transcripts to external systems. Every relay
// is a session.Handler, and most also implement session.LifecycleHandler.
// Failures are logged and never interrupt the session.
package relay

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

const defaultTimeout = 5 * time.Second

type base struct {
	name    string
	logger  *slog.Logger
	timeout time.Duration
}

func newBase(name string, logger *slog.Logger, timeout time.Duration) base {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return base{name: name, logger: logger.With("relay", name), timeout: timeout}
}

func (b base) callContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, b.timeout)
}

// lineText drops the separator space the transcriber leaves on every line.
func lineText(text string) string {
	return strings.TrimSpace(text)
}
