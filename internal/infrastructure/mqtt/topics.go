package mqtt

import "fmt"

// TopicPrefix is the base for all Lumen topics.
// Full scheme: lumen/{domain}/{kind}[/{role}]
const TopicPrefix = "lumen"

// Role identifiers used in status topics and client IDs.
const (
	RoleIssuer    = "issuer"
	RoleResponder = "responder"
)

// Topics builds Lumen MQTT topic strings for one domain.
//
// The domain is a numeric namespace: an issuer and responder must share a
// domain to see each other's traffic, and different domains are fully
// isolated on the same broker.
//
//	topics := mqtt.Topics{Domain: 0}
//	topics.Command() // "lumen/0/command"
type Topics struct {
	Domain int
}

// Command returns the topic commands are published on.
//
// Example: lumen/0/command
func (t Topics) Command() string {
	return fmt.Sprintf("%s/%d/command", TopicPrefix, t.Domain)
}

// Ack returns the topic acknowledgements are published on.
//
// Example: lumen/0/ack
func (t Topics) Ack() string {
	return fmt.Sprintf("%s/%d/ack", TopicPrefix, t.Domain)
}

// Status returns the retained presence topic for a role.
//
// Example: lumen/0/status/responder
func (t Topics) Status(role string) string {
	return fmt.Sprintf("%s/%d/status/%s", TopicPrefix, t.Domain, role)
}

// AllStatus returns a pattern matching the status topics of every role.
//
// Pattern: lumen/0/status/+
func (t Topics) AllStatus() string {
	return fmt.Sprintf("%s/%d/status/+", TopicPrefix, t.Domain)
}
