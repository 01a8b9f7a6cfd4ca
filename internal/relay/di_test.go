package relay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/foxseedlab/meetingbuddy/internal/broadcast"
	"github.com/foxseedlab/meetingbuddy/internal/config"
	"github.com/foxseedlab/meetingbuddy/internal/discord"
	"github.com/foxseedlab/meetingbuddy/internal/repository"
	"github.com/foxseedlab/meetingbuddy/internal/webhook"
)

type stubSource struct {
	repo    repository.Repository
	repoErr error
	dc      discord.Client
	pub     broadcast.Publisher
	sender  webhook.Sender
}

func (s stubSource) repository() (repository.Repository, error) { return s.repo, s.repoErr }
func (s stubSource) discord() (discord.Client, error)           { return s.dc, nil }
func (s stubSource) publisher() (broadcast.Publisher, error)    { return s.pub, nil }
func (s stubSource) webhook() (webhook.Sender, error)           { return s.sender, nil }

func allEnabledConfig() *config.Config {
	return &config.Config{
		RepositoryDriver:     config.RepositoryDriverSQLite,
		DiscordToken:         "token",
		DiscordChannelID:     "text-1",
		MQTTBrokerURL:        "tcp://localhost:1883",
		MQTTTopicPrefix:      "buddy",
		TranscriptWebhookURL: "https://example.com/hook",
		RelayTimeout:         time.Second,
	}
}

func TestBuildSet_WiresEnabledRelaysInOrder(t *testing.T) {
	repo := &mockRepository{}
	dc := &mockDiscordClient{}
	pub := &mockPublisher{}
	set := buildSet(context.Background(), allEnabledConfig(), discardLogger(), stubSource{
		repo: repo, dc: dc, pub: pub, sender: &mockWebhookSender{},
	})

	if len(set.Handlers) != 4 {
		t.Fatalf("expected 4 relays, got %d", len(set.Handlers))
	}
	if _, ok := set.Handlers[0].(*Recorder); !ok {
		t.Fatalf("expected recorder first, got %T", set.Handlers[0])
	}
	if _, ok := set.Handlers[3].(*WebhookRelay); !ok {
		t.Fatalf("expected webhook last, got %T", set.Handlers[3])
	}

	if err := set.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if repo.closeCallCount != 1 || dc.closed != 1 || pub.closed != 1 {
		t.Fatalf("expected every connection closed: repo=%d discord=%d mqtt=%d", repo.closeCallCount, dc.closed, pub.closed)
	}
}

func TestBuildSet_NothingConfigured(t *testing.T) {
	cfg := &config.Config{RepositoryDriver: config.RepositoryDriverNone}
	set := buildSet(context.Background(), cfg, discardLogger(), stubSource{})
	if len(set.Handlers) != 0 {
		t.Fatalf("expected no relays, got %d", len(set.Handlers))
	}
}

func TestBuildSet_SkipsUnavailableBackends(t *testing.T) {
	dc := &mockDiscordClient{connectErr: errors.New("invalid token")}
	pub := &mockPublisher{connectErr: errors.New("connection refused")}
	set := buildSet(context.Background(), allEnabledConfig(), discardLogger(), stubSource{
		repoErr: errors.New("database unreachable"),
		dc:      dc,
		pub:     pub,
		sender:  &mockWebhookSender{},
	})

	if len(set.Handlers) != 1 {
		t.Fatalf("expected only the webhook relay, got %d", len(set.Handlers))
	}
	if dc.closed != 1 || pub.closed != 1 {
		t.Fatalf("expected failed connections to be closed: discord=%d mqtt=%d", dc.closed, pub.closed)
	}
}
