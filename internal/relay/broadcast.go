package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/foxseedlab/meetingbuddy/internal/broadcast"
	"github.com/foxseedlab/meetingbuddy/internal/session"
)

// BroadcastRelay publishes every line and the session state changes to a broker.
type BroadcastRelay struct {
	base
	publisher   broadcast.Publisher
	topicPrefix string
	now         func() time.Time

	mu        sync.Mutex
	session   string
	nextIndex int
}

func NewBroadcastRelay(publisher broadcast.Publisher, topicPrefix string, logger *slog.Logger, timeout time.Duration) *BroadcastRelay {
	return &BroadcastRelay{
		base:        newBase("broadcast", logger, timeout),
		publisher:   publisher,
		topicPrefix: topicPrefix,
		now:         time.Now,
	}
}

func (b *BroadcastRelay) OnSessionStart(ctx context.Context, info session.Info) error {
	b.mu.Lock()
	b.session = info.Name
	b.nextIndex = 0
	b.mu.Unlock()
	return b.publishState(ctx, info.Name, broadcast.SessionStateStarted, 0)
}

func (b *BroadcastRelay) OnTranscription(text string) {
	b.mu.Lock()
	name := b.session
	idx := b.nextIndex
	b.nextIndex++
	b.mu.Unlock()

	msg := broadcast.TranscriptionMessage{
		Session: name,
		Index:   idx,
		Text:    lineText(text),
		At:      b.now(),
	}
	if err := b.publish(context.Background(), broadcast.TopicTranscription(b.topicPrefix, name), msg); err != nil {
		b.logger.Error("failed to publish transcription", "error", err, "index", idx)
	}
}

func (b *BroadcastRelay) OnSessionEnd(ctx context.Context, summary session.Summary) error {
	return b.publishState(ctx, summary.Name, broadcast.SessionStateEnded, len(summary.Lines))
}

func (b *BroadcastRelay) publishState(ctx context.Context, name, state string, lines int) error {
	msg := broadcast.SessionStateMessage{
		Session: name,
		State:   state,
		Lines:   lines,
		At:      b.now(),
	}
	return b.publish(ctx, broadcast.TopicSessionState(b.topicPrefix, name), msg)
}

func (b *BroadcastRelay) publish(ctx context.Context, topic string, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode broadcast message: %w", err)
	}
	ctx, cancel := b.callContext(ctx)
	defer cancel()
	return b.publisher.Publish(ctx, topic, payload)
}
