package relay

import (
	"context"
	"testing"
	"time"

	"github.com/foxseedlab/meetingbuddy/internal/session"
	"github.com/foxseedlab/meetingbuddy/internal/webhook"
)

func TestBuildTranscriptWebhookPayload_SegmentEndAtRules(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}
	startedAt := time.Date(2026, 2, 28, 19, 0, 0, 0, loc)
	lines := []session.Line{
		{Text: "first ", SpokenAt: startedAt.Add(10 * time.Second)},
		{Text: "second ", SpokenAt: startedAt.Add(30 * time.Second)},
	}
	endedAt := startedAt.Add(45 * time.Second)

	payload := buildTranscriptWebhookPayload(session.Summary{
		Info:    session.Info{Name: "standup", StartedAt: startedAt},
		EndedAt: endedAt,
		Lines:   lines,
	}, loc)

	if payload.SchemaVersion != webhook.TranscriptWebhookSchemaVersion {
		t.Fatalf("unexpected schema_version: %s", payload.SchemaVersion)
	}
	if len(payload.TranscriptSegments) != 2 {
		t.Fatalf("unexpected transcript segment count: %d", len(payload.TranscriptSegments))
	}
	if payload.TranscriptSegments[0].EndAt != lines[1].SpokenAt.Format(time.RFC3339) {
		t.Fatalf("unexpected first segment end_at: %s", payload.TranscriptSegments[0].EndAt)
	}
	if payload.TranscriptSegments[1].EndAt != endedAt.Format(time.RFC3339) {
		t.Fatalf("unexpected second segment end_at: %s", payload.TranscriptSegments[1].EndAt)
	}
	if payload.Transcript != "first\nsecond" {
		t.Fatalf("unexpected transcript: %q", payload.Transcript)
	}
	if payload.DurationSeconds != 45 || payload.SegmentCount != 2 {
		t.Fatalf("unexpected counters: duration=%d segments=%d", payload.DurationSeconds, payload.SegmentCount)
	}
	if payload.Timezone != "Asia/Tokyo" {
		t.Fatalf("unexpected timezone: %s", payload.Timezone)
	}
}

func TestBuildTranscriptWebhookSegments_ClampsOutOfOrderEnd(t *testing.T) {
	at := time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)
	segments := buildTranscriptWebhookSegments([]session.Line{
		{Text: "late ", SpokenAt: at.Add(10 * time.Second)},
		{Text: "early ", SpokenAt: at.Add(5 * time.Second)},
	}, at.Add(20*time.Second), time.UTC)

	if segments[0].EndAt != segments[0].StartAt {
		t.Fatalf("expected end clamped to start, got %s", segments[0].EndAt)
	}
}

func TestWebhookRelay_SendsOnEndOnly(t *testing.T) {
	sender := &mockWebhookSender{}
	relay := NewWebhookRelay(sender, time.UTC, discardLogger(), time.Second)

	if err := relay.OnSessionStart(context.Background(), session.Info{Name: "standup"}); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	relay.OnTranscription("ignored ")
	if len(sender.payloads) != 0 {
		t.Fatalf("expected nothing sent before end, got %d", len(sender.payloads))
	}
	if err := relay.OnSessionEnd(context.Background(), session.Summary{Info: session.Info{Name: "standup"}}); err != nil {
		t.Fatalf("unexpected end error: %v", err)
	}
	if len(sender.payloads) != 1 || sender.payloads[0].SessionName != "standup" {
		t.Fatalf("unexpected payloads: %+v", sender.payloads)
	}
}
