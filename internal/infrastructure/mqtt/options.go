package mqtt

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"os"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/lumenctl/lumen-core/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time to wait for initial connection.
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout is the maximum time to wait for publish acknowledgment.
	defaultPublishTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 1000 // milliseconds

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 60 * time.Second

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// Presence status values published on the per-role status topics.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// StatusPayload is the retained presence message for a role.
//
// Published retained on lumen/{domain}/status/{role}: once on connect with
// StatusOnline, on graceful shutdown with StatusOffline, and by the broker
// as a Last Will with StatusOffline if the client drops unexpectedly. The
// retained copy is what lets a starting issuer learn an already-running
// responder is present without waiting for new traffic.
type StatusPayload struct {
	Status    string `json:"status"`
	Role      string `json:"role"`
	ClientID  string `json:"client_id"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
}

// buildClientOptions creates paho MQTT options from Lumen config.
//
// This configures:
//   - Broker URL (tcp:// or ssl:// based on TLS setting)
//   - Client ID (derived from role and PID when not configured)
//   - Authentication credentials (if provided)
//   - Auto-reconnect with exponential backoff
//   - TLS configuration (if enabled)
//   - Clean session mode
func buildClientOptions(cfg config.MQTTConfig, role string) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	brokerURL := fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port)
	opts.AddBroker(brokerURL)

	opts.SetClientID(clientID(cfg, role))

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	// Clean session - start fresh on connect (no persistent session on broker)
	opts.SetCleanSession(true)

	// Auto-reconnect with exponential backoff
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second)
	opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)

	opts.SetConnectTimeout(defaultConnectTimeout)

	// Keepalive - broker sends PINGs to detect dead connections
	opts.SetKeepAlive(defaultKeepAlive)

	if cfg.Broker.TLS {
		tlsConfig := &tls.Config{
			MinVersion: tlsMinVersion,
		}
		opts.SetTLSConfig(tlsConfig)
	}

	return opts
}

// clientID returns the configured client ID, or a role-and-PID derived one.
// Two processes of the same role on one broker must not share an ID, so the
// PID is included when nothing explicit is configured.
func clientID(cfg config.MQTTConfig, role string) string {
	if cfg.Broker.ClientID != "" {
		return cfg.Broker.ClientID
	}
	return fmt.Sprintf("lumen-%s-%d", role, os.Getpid())
}

// configureLWT sets up Last Will and Testament for offline detection.
//
// The LWT message is published by the broker if the client disconnects
// unexpectedly (crash, network failure, etc.). The issuer watches the
// responder's status topic, so a responder crash flips presence to
// offline without any traffic from the responder itself.
//
// Topic: lumen/{domain}/status/{role}
// QoS: 1, Retained: true
func configureLWT(opts *pahomqtt.ClientOptions, domain int, role, client string) {
	willTopic := Topics{Domain: domain}.Status(role)
	opts.SetWill(willTopic, string(buildStatusPayload(role, client, StatusOffline, "unexpected_disconnect")), 1, true)
}

// buildStatusPayload creates the JSON presence payload for a role.
func buildStatusPayload(role, client, status, reason string) []byte {
	payload, err := json.Marshal(StatusPayload{
		Status:    status,
		Role:      role,
		ClientID:  client,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		// StatusPayload contains only strings; marshalling cannot fail.
		return []byte(fmt.Sprintf(`{"status":%q,"role":%q}`, status, role))
	}
	return payload
}
