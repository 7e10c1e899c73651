package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteCommandLatency records the round-trip latency of a matched command.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - requestID: Correlation ID of the matched command
//   - channel: Target channel name (e.g., "red")
//   - latencyMs: Round-trip time from publish to acknowledgement, in milliseconds
//
// Example:
//
//	client.WriteCommandLatency(42, "green", 12.7)
func (c *Client) WriteCommandLatency(requestID uint64, channel string, latencyMs float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"command_latency",
		map[string]string{
			"channel": channel,
		},
		map[string]interface{}{
			"request_id": int64(requestID), // #nosec G115 -- IDs restart at 1 per session
			"latency_ms": latencyMs,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteTimeout records a command whose acknowledgement never arrived.
//
// Parameters:
//   - requestID: Correlation ID of the expired command
//   - channel: Target channel name
func (c *Client) WriteTimeout(requestID uint64, channel string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"command_timeout",
		map[string]string{
			"channel": channel,
		},
		map[string]interface{}{
			"request_id": int64(requestID), // #nosec G115 -- IDs restart at 1 per session
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
