package discord

import (
	"log/slog"

	"github.com/foxseedlab/meetingbuddy/internal/config"
	discordpkg "github.com/foxseedlab/meetingbuddy/internal/discord"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (discordpkg.Client, error) {
		c := do.MustInvoke[*config.Config](i)
		logger := do.MustInvoke[*slog.Logger](i)
		return NewClient(c.DiscordToken, logger), nil
	})
}
