package relay

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/foxseedlab/meetingbuddy/internal/broadcast"
	"github.com/foxseedlab/meetingbuddy/internal/session"
)

func TestBroadcastRelay_PublishesStateAndLines(t *testing.T) {
	pub := &mockPublisher{}
	relay := NewBroadcastRelay(pub, "buddy", discardLogger(), time.Second)
	at := time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)
	relay.now = func() time.Time { return at }

	if err := relay.OnSessionStart(context.Background(), session.Info{Name: "standup"}); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	relay.OnTranscription("first ")
	relay.OnTranscription("second ")
	if err := relay.OnSessionEnd(context.Background(), session.Summary{
		Info:  session.Info{Name: "standup"},
		Lines: []session.Line{{Text: "first "}, {Text: "second "}},
	}); err != nil {
		t.Fatalf("unexpected end error: %v", err)
	}

	if len(pub.published) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(pub.published))
	}
	if pub.published[0].topic != "buddy/session/standup/state" || pub.published[3].topic != "buddy/session/standup/state" {
		t.Fatalf("unexpected state topics: %+v", pub.published)
	}

	var msg broadcast.TranscriptionMessage
	if err := json.Unmarshal([]byte(pub.published[2].payload), &msg); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if pub.published[2].topic != "buddy/session/standup/transcription" || msg.Index != 1 || msg.Text != "second" || !msg.At.Equal(at) {
		t.Fatalf("unexpected transcription message: topic=%s msg=%+v", pub.published[2].topic, msg)
	}

	var end broadcast.SessionStateMessage
	if err := json.Unmarshal([]byte(pub.published[3].payload), &end); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if end.State != broadcast.SessionStateEnded || end.Lines != 2 {
		t.Fatalf("unexpected end message: %+v", end)
	}
}

func TestBroadcastRelay_PublishErrorIsReturnedFromHooks(t *testing.T) {
	pub := &mockPublisher{publishErr: errors.New("broker gone")}
	relay := NewBroadcastRelay(pub, "buddy", discardLogger(), time.Second)

	if err := relay.OnSessionStart(context.Background(), session.Info{Name: "standup"}); err == nil {
		t.Fatal("expected publish error")
	}
	relay.OnTranscription("still logged ")
	if len(pub.published) != 2 {
		t.Fatalf("expected the line to be attempted, got %d", len(pub.published))
	}
}
