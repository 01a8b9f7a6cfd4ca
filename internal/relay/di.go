package relay

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/foxseedlab/meetingbuddy/internal/broadcast"
	"github.com/foxseedlab/meetingbuddy/internal/config"
	"github.com/foxseedlab/meetingbuddy/internal/discord"
	"github.com/foxseedlab/meetingbuddy/internal/repository"
	"github.com/foxseedlab/meetingbuddy/internal/session"
	"github.com/foxseedlab/meetingbuddy/internal/webhook"
	"github.com/samber/do/v2"
)

const connectTimeout = 15 * time.Second

// Set is the ordered list of relays enabled by configuration, plus the
// connections they own.
type Set struct {
	Handlers []session.Handler
	closers  []func() error
}

func (s *Set) add(h session.Handler, closer func() error) {
	s.Handlers = append(s.Handlers, h)
	if closer != nil {
		s.closers = append(s.closers, closer)
	}
}

func (s *Set) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Set, error) {
		cfg := do.MustInvoke[*config.Config](i)
		logger := do.MustInvoke[*slog.Logger](i)
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		return buildSet(ctx, cfg, logger, injectorSource{injector: i}), nil
	})
}

// source resolves adapters on demand so disabled relays never touch their
// backing service.
type source interface {
	repository() (repository.Repository, error)
	discord() (discord.Client, error)
	publisher() (broadcast.Publisher, error)
	webhook() (webhook.Sender, error)
}

type injectorSource struct {
	injector do.Injector
}

func (s injectorSource) repository() (repository.Repository, error) {
	return do.Invoke[repository.Repository](s.injector)
}

func (s injectorSource) discord() (discord.Client, error) {
	return do.Invoke[discord.Client](s.injector)
}

func (s injectorSource) publisher() (broadcast.Publisher, error) {
	return do.Invoke[broadcast.Publisher](s.injector)
}

func (s injectorSource) webhook() (webhook.Sender, error) {
	return do.Invoke[webhook.Sender](s.injector)
}

// buildSet wires every relay enabled in cfg. A relay whose backend cannot be
// reached is logged and left out; the session runs without it.
func buildSet(ctx context.Context, cfg *config.Config, logger *slog.Logger, src source) *Set {
	set := &Set{}

	if cfg.RepositoryDriver != config.RepositoryDriverNone {
		repo, err := src.repository()
		if err != nil || repo == nil {
			logger.Error("repository relay disabled", "driver", cfg.RepositoryDriver, "error", err)
		} else {
			set.add(NewRecorder(repo, logger, cfg.RelayTimeout), repo.Close)
		}
	}

	if cfg.DiscordToken != "" {
		dc, err := src.discord()
		if err == nil {
			if err = dc.Connect(ctx); err != nil {
				_ = dc.Close()
			}
		}
		if err != nil {
			logger.Error("discord relay disabled", "error", err)
		} else {
			set.add(NewDiscordRelay(dc, cfg.DiscordChannelID, time.Local, logger, cfg.RelayTimeout), dc.Close)
		}
	}

	if cfg.MQTTBrokerURL != "" {
		pub, err := src.publisher()
		if err == nil {
			if err = pub.Connect(ctx); err != nil {
				_ = pub.Close()
			}
		}
		if err != nil {
			logger.Error("broadcast relay disabled", "broker", cfg.MQTTBrokerURL, "error", err)
		} else {
			set.add(NewBroadcastRelay(pub, cfg.MQTTTopicPrefix, logger, cfg.RelayTimeout), pub.Close)
		}
	}

	if cfg.TranscriptWebhookURL != "" {
		sender, err := src.webhook()
		if err != nil {
			logger.Error("webhook relay disabled", "error", err)
		} else {
			set.add(NewWebhookRelay(sender, time.Local, logger, cfg.RelayTimeout), nil)
		}
	}

	logger.Info("relays ready", "count", len(set.Handlers))
	return set
}
