package relay

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/foxseedlab/meetingbuddy/internal/discord"
	"github.com/foxseedlab/meetingbuddy/internal/repository"
	"github.com/foxseedlab/meetingbuddy/internal/webhook"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockRepository struct {
	mu             sync.Mutex
	running        *repository.Session
	runningErr     error
	createCount    int
	createCalls    []repository.CreateSessionInput
	completeCalls  []repository.CompleteSessionInput
	insertCalls    []repository.InsertSegmentInput
	insertErr      error
	closeCallCount int
}

func (m *mockRepository) CreateSession(_ context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCount++
	m.createCalls = append(m.createCalls, input)
	return &repository.Session{
		ID:        fmt.Sprintf("session-%d", m.createCount),
		Name:      input.Name,
		BasePath:  input.BasePath,
		StartedAt: input.StartedAt,
		Status:    repository.SessionStatusRunning,
	}, nil
}

func (m *mockRepository) UpdateSessionCompleted(_ context.Context, input repository.CompleteSessionInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completeCalls = append(m.completeCalls, input)
	return nil
}

func (m *mockRepository) GetRunningSessionByName(_ context.Context, _ string) (*repository.Session, error) {
	return m.running, m.runningErr
}

func (m *mockRepository) InsertSegment(_ context.Context, input repository.InsertSegmentInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertCalls = append(m.insertCalls, input)
	return m.insertErr
}

func (m *mockRepository) ListSegmentsBySessionID(_ context.Context, _ string) ([]repository.TranscriptSegment, error) {
	return nil, nil
}

func (m *mockRepository) Close() error {
	m.closeCallCount++
	return nil
}

type mockDiscordClient struct {
	connectErr   error
	sendErr      error
	messages     []string
	fileMessages []discord.FileMessage
	closed       int
}

func (m *mockDiscordClient) Connect(context.Context) error { return m.connectErr }

func (m *mockDiscordClient) Close() error {
	m.closed++
	return nil
}

func (m *mockDiscordClient) SendChannelMessage(channelID, content string) error {
	m.messages = append(m.messages, channelID+":"+content)
	return m.sendErr
}

func (m *mockDiscordClient) SendChannelMessageWithFile(msg discord.FileMessage) error {
	m.fileMessages = append(m.fileMessages, msg)
	return m.sendErr
}

func (m *mockDiscordClient) ResolveChannelName(channelID string) string { return "#" + channelID }

func (m *mockDiscordClient) GetBotUserID() (string, error) { return "bot-1", nil }

type publishedMessage struct {
	topic   string
	payload string
}

type mockPublisher struct {
	connectErr error
	publishErr error
	published  []publishedMessage
	closed     int
}

func (m *mockPublisher) Connect(context.Context) error { return m.connectErr }

func (m *mockPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	if _, ok := ctx.Deadline(); !ok {
		return fmt.Errorf("publish without deadline")
	}
	m.published = append(m.published, publishedMessage{topic: topic, payload: string(payload)})
	return m.publishErr
}

func (m *mockPublisher) Close() error {
	m.closed++
	return nil
}

type mockWebhookSender struct {
	payloads []webhook.TranscriptWebhookPayload
	err      error
}

func (m *mockWebhookSender) SendTranscript(_ context.Context, payload webhook.TranscriptWebhookPayload) error {
	m.payloads = append(m.payloads, payload)
	return m.err
}
