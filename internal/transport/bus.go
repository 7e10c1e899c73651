package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/lumenctl/lumen-core/internal/infrastructure/mqtt"
	"github.com/lumenctl/lumen-core/internal/protocol"
)

// presencePollInterval bounds how often AwaitResponder re-checks the
// presence flag. The retained status message normally arrives well within
// one interval of subscribing.
const presencePollInterval = 100 * time.Millisecond

// Client is the MQTT surface the buses require.
// Satisfied by *mqtt.Client; tests substitute a fake.
type Client interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Logger is the logging surface the buses require.
// Satisfied by *logging.Logger; nil-safe via the noop default.
type Logger interface {
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
}

// noopLogger discards everything. Used when no logger is injected.
type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Debug(string, ...any) {}

// IssuerBus is the issuer's view of the transport: publish commands,
// drain acknowledgements, observe responder presence.
//
// Not safe for concurrent use beyond what each method documents; the
// issuer control loop is its only intended caller.
type IssuerBus struct {
	client Client
	topics mqtt.Topics
	qos    byte
	log    Logger

	acks        inbox[protocol.Acknowledgement]
	responderUp atomic.Bool
	dropped     atomic.Uint64
}

// NewIssuerBus subscribes to the acknowledgement and responder-status
// topics and returns a bus ready for the issuer loop.
//
// Parameters:
//   - client: Connected MQTT client
//   - domain: Numeric domain namespace
//   - qos: QoS for publishes and subscriptions
//   - log: Logger for dropped payloads (nil for none)
//
// Returns:
//   - *IssuerBus: Subscribed bus
//   - error: If either subscription fails
func NewIssuerBus(client Client, domain int, qos byte, log Logger) (*IssuerBus, error) {
	if log == nil {
		log = noopLogger{}
	}
	b := &IssuerBus{
		client: client,
		topics: mqtt.Topics{Domain: domain},
		qos:    qos,
		log:    log,
	}

	if err := client.Subscribe(b.topics.Ack(), qos, b.handleAck); err != nil {
		return nil, fmt.Errorf("subscribing to acks: %w", err)
	}
	if err := client.Subscribe(b.topics.Status(mqtt.RoleResponder), qos, b.handleStatus); err != nil {
		return nil, fmt.Errorf("subscribing to responder status: %w", err)
	}

	return b, nil
}

// handleAck decodes an inbound acknowledgement into the inbox.
// Runs on a paho goroutine.
func (b *IssuerBus) handleAck(_ string, payload []byte) error {
	ack, err := protocol.DecodeAck(payload)
	if err != nil {
		b.dropped.Add(1)
		b.log.Warn("dropping undecodable ack payload", "error", err)
		return nil // drop the message, keep the subscription healthy
	}
	b.acks.put(ack)
	return nil
}

// handleStatus tracks responder presence from its retained status topic.
// Runs on a paho goroutine.
func (b *IssuerBus) handleStatus(_ string, payload []byte) error {
	var status mqtt.StatusPayload
	if err := json.Unmarshal(payload, &status); err != nil {
		b.dropped.Add(1)
		b.log.Warn("dropping undecodable status payload", "error", err)
		return nil
	}
	online := status.Status == mqtt.StatusOnline
	b.responderUp.Store(online)
	b.log.Debug("responder presence changed", "online", online, "client_id", status.ClientID)
	return nil
}

// PublishCommand publishes a command. Fire-and-forget: a single attempt,
// delivery reliability delegated to the broker.
func (b *IssuerBus) PublishCommand(cmd protocol.Command) error {
	payload, err := protocol.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	if err := b.client.Publish(b.topics.Command(), payload, b.qos, false); err != nil {
		return fmt.Errorf("publishing command %d: %w", cmd.ID, err)
	}
	return nil
}

// DrainAcks takes all newly available acknowledgements. Non-blocking;
// returns nil when none arrived since the last drain.
func (b *IssuerBus) DrainAcks() []protocol.Acknowledgement {
	return b.acks.drain()
}

// ResponderPresent reports whether a responder's online status has been
// observed (and not since replaced by an offline one).
func (b *IssuerBus) ResponderPresent() bool {
	return b.responderUp.Load()
}

// AwaitResponder blocks until a responder is present or ctx is done.
//
// Returns:
//   - error: ctx.Err() if the context ended first, nil once present
func (b *IssuerBus) AwaitResponder(ctx context.Context) error {
	if b.responderUp.Load() {
		return nil
	}
	ticker := time.NewTicker(presencePollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if b.responderUp.Load() {
				return nil
			}
		}
	}
}

// Dropped returns the count of inbound payloads discarded as undecodable.
func (b *IssuerBus) Dropped() uint64 {
	return b.dropped.Load()
}

// ResponderBus is the responder's view of the transport: drain commands,
// publish acknowledgements.
type ResponderBus struct {
	client Client
	topics mqtt.Topics
	qos    byte
	log    Logger

	commands inbox[protocol.Command]
	dropped  atomic.Uint64
}

// NewResponderBus subscribes to the command topic and returns a bus ready
// for the responder loop.
func NewResponderBus(client Client, domain int, qos byte, log Logger) (*ResponderBus, error) {
	if log == nil {
		log = noopLogger{}
	}
	b := &ResponderBus{
		client: client,
		topics: mqtt.Topics{Domain: domain},
		qos:    qos,
		log:    log,
	}

	if err := client.Subscribe(b.topics.Command(), qos, b.handleCommand); err != nil {
		return nil, fmt.Errorf("subscribing to commands: %w", err)
	}

	return b, nil
}

// handleCommand decodes an inbound command into the inbox.
// Runs on a paho goroutine.
func (b *ResponderBus) handleCommand(_ string, payload []byte) error {
	cmd, err := protocol.DecodeCommand(payload)
	if err != nil {
		b.dropped.Add(1)
		b.log.Warn("dropping undecodable command payload", "error", err)
		return nil
	}
	b.commands.put(cmd)
	return nil
}

// DrainCommands takes all newly available commands. Non-blocking; returns
// nil when none arrived since the last drain.
func (b *ResponderBus) DrainCommands() []protocol.Command {
	return b.commands.drain()
}

// PublishAck publishes an acknowledgement. Fire-and-forget.
func (b *ResponderBus) PublishAck(ack protocol.Acknowledgement) error {
	payload, err := protocol.EncodeAck(ack)
	if err != nil {
		return err
	}
	if err := b.client.Publish(b.topics.Ack(), payload, b.qos, false); err != nil {
		return fmt.Errorf("publishing ack %d: %w", ack.ID, err)
	}
	return nil
}

// Dropped returns the count of inbound payloads discarded as undecodable.
func (b *ResponderBus) Dropped() uint64 {
	return b.dropped.Load()
}
