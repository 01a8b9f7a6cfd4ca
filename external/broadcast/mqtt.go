package broadcast

import (
	"context"
	"fmt"
	"log/slog"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/foxseedlab/meetingbuddy/internal/broadcast"
)

const (
	publishQoS          = 1
	disconnectQuiesceMs = 250
)

type MQTTConfig struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
}

type MQTTPublisher struct {
	cfg    MQTTConfig
	client paho.Client
	logger *slog.Logger
}

func NewMQTTPublisher(cfg MQTTConfig, logger *slog.Logger) broadcast.Publisher {
	p := &MQTTPublisher{cfg: cfg, logger: logger}
	p.client = paho.NewClient(p.clientOptions())
	return p
}

func (p *MQTTPublisher) clientOptions() *paho.ClientOptions {
	opts := paho.NewClientOptions().
		AddBroker(p.cfg.BrokerURL).
		SetClientID(p.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true)

	if p.cfg.Username != "" {
		opts.SetUsername(p.cfg.Username)
		opts.SetPassword(p.cfg.Password)
	}

	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		p.logger.Error("mqtt connection lost", "error", err)
	})
	opts.SetOnConnectHandler(func(_ paho.Client) {
		p.logger.Info("mqtt connected", "broker", p.cfg.BrokerURL)
	})
	return opts
}

func (p *MQTTPublisher) Connect(ctx context.Context) error {
	if err := waitToken(ctx, p.client.Connect()); err != nil {
		return fmt.Errorf("connect mqtt broker: %w", err)
	}
	return nil
}

func (p *MQTTPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := waitToken(ctx, p.client.Publish(topic, publishQoS, false, payload)); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(disconnectQuiesceMs)
	return nil
}

func waitToken(ctx context.Context, token paho.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
