package transport

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/lumenctl/lumen-core/internal/infrastructure/mqtt"
	"github.com/lumenctl/lumen-core/internal/protocol"
)

// fakeClient records publishes and captures subscription handlers so
// tests can inject inbound messages directly.
type fakeClient struct {
	published map[string][][]byte
	handlers  map[string]mqtt.MessageHandler
	pubErr    error
	subErr    error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		published: make(map[string][][]byte),
		handlers:  make(map[string]mqtt.MessageHandler),
	}
}

func (c *fakeClient) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if c.pubErr != nil {
		return c.pubErr
	}
	c.published[topic] = append(c.published[topic], payload)
	return nil
}

func (c *fakeClient) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	if c.subErr != nil {
		return c.subErr
	}
	c.handlers[topic] = handler
	return nil
}

// deliver invokes the captured handler for a topic, as paho would.
func (c *fakeClient) deliver(t *testing.T, topic string, payload []byte) {
	t.Helper()
	handler, ok := c.handlers[topic]
	if !ok {
		t.Fatalf("no subscription for topic %q", topic)
	}
	if err := handler(topic, payload); err != nil {
		t.Fatalf("handler for %q returned error: %v", topic, err)
	}
}

func statusPayload(t *testing.T, status string) []byte {
	t.Helper()
	data, err := json.Marshal(mqtt.StatusPayload{
		Status:   status,
		Role:     mqtt.RoleResponder,
		ClientID: "lumen-responder-test",
	})
	if err != nil {
		t.Fatalf("marshalling status payload: %v", err)
	}
	return data
}

func TestNewIssuerBusSubscribes(t *testing.T) {
	client := newFakeClient()

	_, err := NewIssuerBus(client, 0, 1, nil)
	if err != nil {
		t.Fatalf("NewIssuerBus() error = %v", err)
	}

	for _, topic := range []string{"lumen/0/ack", "lumen/0/status/responder"} {
		if _, ok := client.handlers[topic]; !ok {
			t.Errorf("missing subscription for %q", topic)
		}
	}
}

func TestNewIssuerBusSubscribeFailure(t *testing.T) {
	client := newFakeClient()
	client.subErr = errors.New("not connected")

	if _, err := NewIssuerBus(client, 0, 1, nil); err == nil {
		t.Fatal("NewIssuerBus() expected error when subscribe fails")
	}
}

func TestPublishCommandWireForm(t *testing.T) {
	client := newFakeClient()
	bus, err := NewIssuerBus(client, 3, 1, nil)
	if err != nil {
		t.Fatalf("NewIssuerBus() error = %v", err)
	}

	cmd := protocol.Command{ID: 1, Channel: protocol.ChannelRed, On: true}
	if err := bus.PublishCommand(cmd); err != nil {
		t.Fatalf("PublishCommand() error = %v", err)
	}

	payloads := client.published["lumen/3/command"]
	if len(payloads) != 1 {
		t.Fatalf("published %d payloads to command topic, want 1", len(payloads))
	}

	decoded, err := protocol.DecodeCommand(payloads[0])
	if err != nil {
		t.Fatalf("decoding published command: %v", err)
	}
	if decoded != cmd {
		t.Errorf("published command = %+v, want %+v", decoded, cmd)
	}
}

func TestIssuerBusDrainsDeliveredAcks(t *testing.T) {
	client := newFakeClient()
	bus, err := NewIssuerBus(client, 0, 1, nil)
	if err != nil {
		t.Fatalf("NewIssuerBus() error = %v", err)
	}

	ack := protocol.NewAcknowledgement(protocol.Command{ID: 4, Channel: protocol.ChannelBlue, On: true})
	payload, _ := protocol.EncodeAck(ack)
	client.deliver(t, "lumen/0/ack", payload)

	acks := bus.DrainAcks()
	if len(acks) != 1 {
		t.Fatalf("DrainAcks() returned %d, want 1", len(acks))
	}
	if acks[0] != ack {
		t.Errorf("DrainAcks()[0] = %+v, want %+v", acks[0], ack)
	}

	if got := bus.DrainAcks(); got != nil {
		t.Errorf("second DrainAcks() = %v, want nil", got)
	}
}

func TestIssuerBusDropsUndecodableAck(t *testing.T) {
	client := newFakeClient()
	bus, err := NewIssuerBus(client, 0, 1, nil)
	if err != nil {
		t.Fatalf("NewIssuerBus() error = %v", err)
	}

	client.deliver(t, "lumen/0/ack", []byte("{garbage"))

	if got := bus.DrainAcks(); got != nil {
		t.Errorf("DrainAcks() = %v after garbage, want nil", got)
	}
	if bus.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", bus.Dropped())
	}
}

func TestResponderPresence(t *testing.T) {
	client := newFakeClient()
	bus, err := NewIssuerBus(client, 0, 1, nil)
	if err != nil {
		t.Fatalf("NewIssuerBus() error = %v", err)
	}

	if bus.ResponderPresent() {
		t.Error("ResponderPresent() = true before any status, want false")
	}

	client.deliver(t, "lumen/0/status/responder", statusPayload(t, mqtt.StatusOnline))
	if !bus.ResponderPresent() {
		t.Error("ResponderPresent() = false after online status, want true")
	}

	client.deliver(t, "lumen/0/status/responder", statusPayload(t, mqtt.StatusOffline))
	if bus.ResponderPresent() {
		t.Error("ResponderPresent() = true after offline status, want false")
	}
}

func TestAwaitResponderReturnsWhenPresent(t *testing.T) {
	client := newFakeClient()
	bus, err := NewIssuerBus(client, 0, 1, nil)
	if err != nil {
		t.Fatalf("NewIssuerBus() error = %v", err)
	}

	client.deliver(t, "lumen/0/status/responder", statusPayload(t, mqtt.StatusOnline))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := bus.AwaitResponder(ctx); err != nil {
		t.Errorf("AwaitResponder() error = %v, want nil", err)
	}
}

func TestAwaitResponderHonoursContext(t *testing.T) {
	client := newFakeClient()
	bus, err := NewIssuerBus(client, 0, 1, nil)
	if err != nil {
		t.Fatalf("NewIssuerBus() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = bus.AwaitResponder(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("AwaitResponder() error = %v, want DeadlineExceeded", err)
	}
}

func TestResponderBusRoundTrip(t *testing.T) {
	client := newFakeClient()
	bus, err := NewResponderBus(client, 2, 1, nil)
	if err != nil {
		t.Fatalf("NewResponderBus() error = %v", err)
	}

	cmd := protocol.Command{ID: 8, Channel: protocol.ChannelGreen, On: true}
	payload, _ := protocol.EncodeCommand(cmd)
	client.deliver(t, "lumen/2/command", payload)

	cmds := bus.DrainCommands()
	if len(cmds) != 1 || cmds[0] != cmd {
		t.Fatalf("DrainCommands() = %+v, want [%+v]", cmds, cmd)
	}

	ack := protocol.NewAcknowledgement(cmd)
	if err := bus.PublishAck(ack); err != nil {
		t.Fatalf("PublishAck() error = %v", err)
	}

	payloads := client.published["lumen/2/ack"]
	if len(payloads) != 1 {
		t.Fatalf("published %d payloads to ack topic, want 1", len(payloads))
	}
	decoded, err := protocol.DecodeAck(payloads[0])
	if err != nil {
		t.Fatalf("decoding published ack: %v", err)
	}
	if decoded != ack {
		t.Errorf("published ack = %+v, want %+v", decoded, ack)
	}
}

func TestResponderBusDropsUndecodableCommand(t *testing.T) {
	client := newFakeClient()
	bus, err := NewResponderBus(client, 0, 1, nil)
	if err != nil {
		t.Fatalf("NewResponderBus() error = %v", err)
	}

	// Malformed JSON and an out-of-range channel are both dropped.
	client.deliver(t, "lumen/0/command", []byte("nonsense"))
	client.deliver(t, "lumen/0/command", []byte(`{"id":1,"channel":42,"on":true}`))

	if got := bus.DrainCommands(); got != nil {
		t.Errorf("DrainCommands() = %v, want nil", got)
	}
	if bus.Dropped() != 2 {
		t.Errorf("Dropped() = %d, want 2", bus.Dropped())
	}
}

func TestPublishCommandFailure(t *testing.T) {
	client := newFakeClient()
	bus, err := NewIssuerBus(client, 0, 1, nil)
	if err != nil {
		t.Fatalf("NewIssuerBus() error = %v", err)
	}

	client.pubErr = errors.New("broker gone")
	if err := bus.PublishCommand(protocol.Command{ID: 1, Channel: protocol.ChannelRed, On: true}); err == nil {
		t.Fatal("PublishCommand() expected error when publish fails")
	}
}
