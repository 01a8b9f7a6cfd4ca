package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/foxseedlab/meetingbuddy/internal/discord"
	"github.com/foxseedlab/meetingbuddy/internal/session"
)

// DiscordRelay posts each line to a text channel and attaches the full
// transcript when the session ends.
type DiscordRelay struct {
	base
	client    discord.Client
	channelID string
	location  *time.Location
}

func NewDiscordRelay(client discord.Client, channelID string, loc *time.Location, logger *slog.Logger, timeout time.Duration) *DiscordRelay {
	return &DiscordRelay{
		base:      newBase("discord", logger, timeout),
		client:    client,
		channelID: channelID,
		location:  loc,
	}
}

func (d *DiscordRelay) OnSessionStart(_ context.Context, info session.Info) error {
	channelName := d.client.ResolveChannelName(d.channelID)
	d.logger.Info("posting transcript to discord", "channel_id", d.channelID, "channel_name", channelName)
	return d.client.SendChannelMessage(d.channelID, startMessage(info.Name))
}

func (d *DiscordRelay) OnTranscription(text string) {
	content := lineText(text)
	if content == "" {
		return
	}
	if err := d.client.SendChannelMessage(d.channelID, content); err != nil {
		d.logger.Error("failed to post transcript message", "error", err, "channel_id", d.channelID)
	}
}

func (d *DiscordRelay) OnSessionEnd(_ context.Context, summary session.Summary) error {
	if len(summary.Lines) == 0 {
		return d.client.SendChannelMessage(d.channelID, stopMessage(summary.Name, 0))
	}
	return d.client.SendChannelMessageWithFile(discord.FileMessage{
		ChannelID: d.channelID,
		Content:   stopMessage(summary.Name, len(summary.Lines)),
		Filename:  session.TranscriptFilename(summary.Name),
		FileBody:  session.FormatTranscript(summary, d.location),
	})
}
