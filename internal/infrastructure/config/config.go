package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Lumen.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	// Domain is the numeric namespace both processes must share to talk
	// to each other. It is embedded in every topic, so issuers and
	// responders on different domains are fully isolated even on the
	// same broker. Default: 0.
	Domain int `yaml:"domain"`

	MQTT      MQTTConfig      `yaml:"mqtt"`
	Issuer    IssuerConfig    `yaml:"issuer"`
	Responder ResponderConfig `yaml:"responder"`
	History   HistoryConfig   `yaml:"history"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// IssuerConfig contains settings for the command-issuing side.
// All intervals are in milliseconds.
type IssuerConfig struct {
	// PollIntervalMs is the control loop tick. Inbound acknowledgements
	// are drained and the timeout sweep runs once per tick, so this
	// bounds how far past its deadline a request can survive.
	PollIntervalMs int `yaml:"poll_interval_ms"`

	// AckDeadlineMs is how long a request may stay pending before the
	// sweep reports it timed out. Timeouts are terminal; no retry.
	AckDeadlineMs int `yaml:"ack_deadline_ms"`

	// BurstGapMs is the pause between the initial all-on commands.
	BurstGapMs int `yaml:"burst_gap_ms"`
}

// ResponderConfig contains settings for the command-consuming side.
// All intervals are in milliseconds.
type ResponderConfig struct {
	// PollIntervalMs is the control loop tick for draining commands.
	PollIntervalMs int `yaml:"poll_interval_ms"`

	// DisplayIntervalMs is how often the simulated LED panel state is logged.
	DisplayIntervalMs int `yaml:"display_interval_ms"`
}

// HistoryConfig contains the issuer's command-outcome log settings.
type HistoryConfig struct {
	// Enabled turns the SQLite outcome log on. When disabled, outcomes
	// are only logged, never persisted.
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file. The directory is created if missing.
	Path string `yaml:"path"`

	// WALMode enables Write-Ahead Logging.
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the maximum time to wait for a database lock (seconds).
	BusyTimeout int `yaml:"busy_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings for latency metrics.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: LUMEN_SECTION_KEY
// For example: LUMEN_MQTT_HOST, LUMEN_DOMAIN, LUMEN_HISTORY_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration without reading any file,
// with environment overrides applied. Used when no config file is
// supplied: a local unauthenticated broker on domain 0.
func Default() *Config {
	cfg := defaultConfig()
	applyEnvOverrides(cfg)
	return cfg
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Domain: 0,
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host: "localhost",
				Port: 1883,
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Issuer: IssuerConfig{
			PollIntervalMs: 100,
			AckDeadlineMs:  5000,
			BurstGapMs:     500,
		},
		Responder: ResponderConfig{
			PollIntervalMs:    100,
			DisplayIntervalMs: 5000,
		},
		History: HistoryConfig{
			Enabled:     false,
			Path:        "data/lumen.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		InfluxDB: InfluxDBConfig{
			Enabled:       false,
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies LUMEN_* environment variables over the loaded config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LUMEN_DOMAIN"); v != "" {
		if domain, err := strconv.Atoi(v); err == nil {
			cfg.Domain = domain
		}
	}

	// MQTT
	if v := os.Getenv("LUMEN_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("LUMEN_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("LUMEN_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// History
	if v := os.Getenv("LUMEN_HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}

	// InfluxDB
	if v := os.Getenv("LUMEN_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Domain < 0 {
		errs = append(errs, "domain must be non-negative")
	}

	// MQTT validation
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// Issuer validation
	if c.Issuer.PollIntervalMs <= 0 {
		errs = append(errs, "issuer.poll_interval_ms must be positive")
	}
	if c.Issuer.AckDeadlineMs <= 0 {
		errs = append(errs, "issuer.ack_deadline_ms must be positive")
	}
	if c.Issuer.AckDeadlineMs <= c.Issuer.PollIntervalMs {
		errs = append(errs, "issuer.ack_deadline_ms must exceed issuer.poll_interval_ms")
	}
	if c.Issuer.BurstGapMs < 0 {
		errs = append(errs, "issuer.burst_gap_ms must be non-negative")
	}

	// Responder validation
	if c.Responder.PollIntervalMs <= 0 {
		errs = append(errs, "responder.poll_interval_ms must be positive")
	}
	if c.Responder.DisplayIntervalMs <= 0 {
		errs = append(errs, "responder.display_interval_ms must be positive")
	}

	// History validation
	if c.History.Enabled && c.History.Path == "" {
		errs = append(errs, "history.path is required when history is enabled")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Org == "" {
			errs = append(errs, "influxdb.org is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// PollInterval returns the issuer control loop tick as a Duration.
func (c *IssuerConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// AckDeadline returns the pending-request deadline as a Duration.
func (c *IssuerConfig) AckDeadline() time.Duration {
	return time.Duration(c.AckDeadlineMs) * time.Millisecond
}

// BurstGap returns the pause between initial burst commands as a Duration.
func (c *IssuerConfig) BurstGap() time.Duration {
	return time.Duration(c.BurstGapMs) * time.Millisecond
}

// PollInterval returns the responder control loop tick as a Duration.
func (c *ResponderConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// DisplayInterval returns the LED panel display period as a Duration.
func (c *ResponderConfig) DisplayInterval() time.Duration {
	return time.Duration(c.DisplayIntervalMs) * time.Millisecond
}
