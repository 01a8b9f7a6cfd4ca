package recognizer

import (
	"log/slog"

	"github.com/foxseedlab/meetingbuddy/internal/config"
	"github.com/foxseedlab/meetingbuddy/internal/recognizer"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (recognizer.Launcher, error) {
		cfg := do.MustInvoke[*config.Config](i)
		logger := do.MustInvoke[*slog.Logger](i)
		return NewWhisperLauncher(cfg.WhisperBinaryPath(), cfg.WhisperArgs(), cfg.WhisperDir(), cfg.StopGracePeriod, logger), nil
	})
}
