// Package mqtt provides MQTT client connectivity for Lumen.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Retained presence status plus Last Will and Testament (LWT)
//   - Connection health monitoring
//
// # Architecture
//
// Lumen uses MQTT as the pub/sub substrate between the command issuer
// (lumenctl) and the device responder (lumend). The broker decouples the
// two processes: neither addresses the other directly, and each sees only
// topic traffic within its configured domain.
//
//	lumenctl ↔ MQTT Broker ↔ lumend
//
// Presence: each role publishes a retained online status on connect and an
// offline status on graceful shutdown; the broker publishes the offline
// LWT on crash. A starting issuer reads the responder's retained status to
// know a counterpart exists before emitting any command.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, cfg.Domain, mqtt.RoleIssuer)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := mqtt.Topics{Domain: cfg.Domain}
//	err = client.Subscribe(topics.Ack(), 1,
//	    func(topic string, payload []byte) error {
//	        // decode and buffer
//	        return nil
//	    })
package mqtt
