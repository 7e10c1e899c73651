// Package influxdb provides InfluxDB connectivity for Lumen Core.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, latency metric writing, and health monitoring.
//
// # Purpose
//
// This package handles time-series storage for:
//   - Command round-trip latency (publish to acknowledgement)
//   - Timeout counts per channel
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "lumen",
//	    Bucket: "metrics",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteCommandLatency(42, "red", 12.7)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are delivered via a
// callback. Connection and health check errors are returned directly.
package influxdb
