package relay

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/foxseedlab/meetingbuddy/internal/session"
	"github.com/foxseedlab/meetingbuddy/internal/webhook"
)

// WebhookRelay sends the finished transcript once, when the session ends.
type WebhookRelay struct {
	base
	sender   webhook.Sender
	location *time.Location
}

func NewWebhookRelay(sender webhook.Sender, loc *time.Location, logger *slog.Logger, timeout time.Duration) *WebhookRelay {
	return &WebhookRelay{
		base:     newBase("webhook", logger, timeout),
		sender:   sender,
		location: loc,
	}
}

func (w *WebhookRelay) OnTranscription(string) {}

func (w *WebhookRelay) OnSessionStart(context.Context, session.Info) error {
	return nil
}

func (w *WebhookRelay) OnSessionEnd(ctx context.Context, summary session.Summary) error {
	ctx, cancel := w.callContext(ctx)
	defer cancel()
	return w.sender.SendTranscript(ctx, buildTranscriptWebhookPayload(summary, w.location))
}

func buildTranscriptWebhookPayload(s session.Summary, loc *time.Location) webhook.TranscriptWebhookPayload {
	if loc == nil {
		loc = time.UTC
	}
	transcriptLines := make([]string, 0, len(s.Lines))
	for _, line := range s.Lines {
		transcriptLines = append(transcriptLines, lineText(line.Text))
	}

	return webhook.TranscriptWebhookPayload{
		SchemaVersion:      webhook.TranscriptWebhookSchemaVersion,
		SessionName:        s.Name,
		StartAt:            s.StartedAt.In(loc).Format(time.RFC3339),
		EndAt:              s.EndedAt.In(loc).Format(time.RFC3339),
		Timezone:           loc.String(),
		DurationSeconds:    int64(s.Duration().Seconds()),
		SegmentCount:       len(s.Lines),
		TranscriptSegments: buildTranscriptWebhookSegments(s.Lines, s.EndedAt, loc),
		Transcript:         strings.Join(transcriptLines, "\n"),
	}
}

// A segment ends where the next one starts; the last one ends with the session.
func buildTranscriptWebhookSegments(lines []session.Line, sessionEndedAt time.Time, loc *time.Location) []webhook.TranscriptWebhookSegment {
	out := make([]webhook.TranscriptWebhookSegment, 0, len(lines))
	for i, line := range lines {
		segmentEnd := sessionEndedAt
		if i+1 < len(lines) {
			segmentEnd = lines[i+1].SpokenAt
		}
		if segmentEnd.Before(line.SpokenAt) {
			segmentEnd = line.SpokenAt
		}
		out = append(out, webhook.TranscriptWebhookSegment{
			Index:      i,
			StartAt:    line.SpokenAt.In(loc).Format(time.RFC3339),
			EndAt:      segmentEnd.In(loc).Format(time.RFC3339),
			Transcript: lineText(line.Text),
		})
	}
	return out
}
