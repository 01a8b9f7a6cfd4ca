package session

import (
	"log/slog"

	"github.com/foxseedlab/meetingbuddy/internal/config"
	"github.com/foxseedlab/meetingbuddy/internal/recognizer"
	"github.com/samber/do/v2"
)

// Factory builds a session from the loaded configuration. An empty name falls
// back to the current time.
type Factory func(name string, handlers []Handler) (*Session, error)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (Factory, error) {
		cfg := do.MustInvoke[*config.Config](i)
		launcher := do.MustInvoke[recognizer.Launcher](i)
		logger := do.MustInvoke[*slog.Logger](i)
		return NewFactory(cfg, launcher, logger), nil
	})
}

func NewFactory(cfg *config.Config, launcher recognizer.Launcher, logger *slog.Logger) Factory {
	return func(name string, handlers []Handler) (*Session, error) {
		return New(Params{
			Name:     name,
			CacheDir: cfg.CacheDir,
			Launcher: launcher,
			Logger:   logger,
			Handlers: handlers,
			Announce: cfg.AnnounceTranscription,
		})
	}
}
