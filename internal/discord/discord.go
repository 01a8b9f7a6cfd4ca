package discord

import "context"

type FileMessage struct {
	ChannelID string
	Content   string
	Filename  string
	FileBody  []byte
}

// Client posts transcript notices to a text channel.
type Client interface {
	Connect(ctx context.Context) error
	Close() error
	SendChannelMessage(channelID, content string) error
	SendChannelMessageWithFile(msg FileMessage) error
	// ResolveChannelName falls back to the channel ID when the name is unknown.
	ResolveChannelName(channelID string) string
	GetBotUserID() (string, error)
}
