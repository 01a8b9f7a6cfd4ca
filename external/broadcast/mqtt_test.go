package broadcast

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func completedToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func pendingToken() *fakeToken {
	return &fakeToken{done: make(chan struct{})}
}

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error          { return t.err }

type publishCall struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	paho.Client
	connectToken paho.Token
	publishToken paho.Token
	published    []publishCall
	disconnects  int
}

func (c *fakeClient) Connect() paho.Token { return c.connectToken }

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.published = append(c.published, publishCall{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	return c.publishToken
}

func (c *fakeClient) Disconnect(uint) { c.disconnects++ }

func newTestPublisher(client *fakeClient) *MQTTPublisher {
	return &MQTTPublisher{
		cfg:    MQTTConfig{BrokerURL: "tcp://localhost:1883", ClientID: "meeting-buddy"},
		client: client,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestPublish(t *testing.T) {
	client := &fakeClient{publishToken: completedToken(nil)}
	p := newTestPublisher(client)

	if err := p.Publish(context.Background(), "buddy/session/standup/transcription", []byte(`{"text":"hi"}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.published) != 1 {
		t.Fatalf("expected one publish, got %d", len(client.published))
	}
	got := client.published[0]
	if got.topic != "buddy/session/standup/transcription" || got.qos != publishQoS || got.retained {
		t.Fatalf("unexpected publish call: %+v", got)
	}
}

func TestPublish_BrokerError(t *testing.T) {
	brokerErr := errors.New("not authorized")
	p := newTestPublisher(&fakeClient{publishToken: completedToken(brokerErr)})

	if err := p.Publish(context.Background(), "t", []byte("x")); !errors.Is(err, brokerErr) {
		t.Fatalf("expected broker error, got %v", err)
	}
}

func TestPublish_ContextDeadline(t *testing.T) {
	p := newTestPublisher(&fakeClient{publishToken: pendingToken()})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := p.Publish(ctx, "t", []byte("x")); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestConnectAndClose(t *testing.T) {
	client := &fakeClient{connectToken: completedToken(nil)}
	p := newTestPublisher(client)

	if err := p.Connect(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if client.disconnects != 1 {
		t.Fatalf("expected one disconnect, got %d", client.disconnects)
	}
}

func TestClientOptions(t *testing.T) {
	p := newTestPublisher(&fakeClient{})
	p.cfg.Username = "buddy"
	p.cfg.Password = "secret"

	opts := p.clientOptions()
	if opts.ClientID != "meeting-buddy" || opts.Username != "buddy" || opts.Password != "secret" {
		t.Fatalf("unexpected options: client_id=%s username=%s", opts.ClientID, opts.Username)
	}
	if len(opts.Servers) != 1 || opts.Servers[0].Host != "localhost:1883" {
		t.Fatalf("unexpected servers: %+v", opts.Servers)
	}
}
