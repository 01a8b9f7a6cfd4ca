package broadcast

import (
	"context"
	"fmt"
	"time"
)

const (
	SessionStateStarted = "started"
	SessionStateEnded   = "ended"
)

// Publisher delivers payloads to a message broker.
type Publisher interface {
	Connect(ctx context.Context) error
	Publish(ctx context.Context, topic string, payload []byte) error
	Close() error
}

type TranscriptionMessage struct {
	Session string    `json:"session"`
	Index   int       `json:"index"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

type SessionStateMessage struct {
	Session string    `json:"session"`
	State   string    `json:"state"`
	Lines   int       `json:"lines"`
	At      time.Time `json:"at"`
}

func TopicTranscription(prefix, session string) string {
	return fmt.Sprintf("%s/session/%s/transcription", prefix, session)
}

func TopicSessionState(prefix, session string) string {
	return fmt.Sprintf("%s/session/%s/state", prefix, session)
}
