package broadcast

import (
	"log/slog"

	"github.com/foxseedlab/meetingbuddy/internal/broadcast"
	"github.com/foxseedlab/meetingbuddy/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (broadcast.Publisher, error) {
		c := do.MustInvoke[*config.Config](i)
		logger := do.MustInvoke[*slog.Logger](i)
		return NewMQTTPublisher(MQTTConfig{
			BrokerURL: c.MQTTBrokerURL,
			ClientID:  c.MQTTClientID,
			Username:  c.MQTTUsername,
			Password:  c.MQTTPassword,
		}, logger), nil
	})
}
