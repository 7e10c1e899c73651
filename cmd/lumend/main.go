// Lumen Daemon - responder daemon
//
// This is the entry point for the responder side of the Lumen LED
// control protocol. The responder drains incoming LED commands, applies
// them to the simulated three-channel panel, and acknowledges each one
// back to the issuer, mutating state before the acknowledgement goes
// out.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lumenctl/lumen-core/internal/infrastructure/config"
	"github.com/lumenctl/lumen-core/internal/infrastructure/logging"
	"github.com/lumenctl/lumen-core/internal/infrastructure/mqtt"
	"github.com/lumenctl/lumen-core/internal/responder"
	"github.com/lumenctl/lumen-core/internal/transport"
)

// Version information - set at build time via ldflags
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default("lumend")
	log.Info("starting Lumen responder",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath, "domain", cfg.Domain)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, "lumend", version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Connect to the MQTT broker as the responder role. The retained
	// online status published here is what releases the issuer's
	// startup wait.
	mqttClient, err := mqtt.Connect(cfg.MQTT, cfg.Domain, mqtt.RoleResponder)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Wire the transport bus: command subscription
	// #nosec G115 -- qos validated to 0..2 by config.Validate
	bus, err := transport.NewResponderBus(mqttClient, cfg.Domain, byte(cfg.MQTT.QoS), log)
	if err != nil {
		return fmt.Errorf("subscribing responder bus: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: mqtt: %w", err)
	}
	log.Info("all health checks passed")

	loop := responder.NewLoop(responder.Options{
		Bus:             bus,
		Logger:          log,
		PollInterval:    cfg.Responder.PollInterval(),
		DisplayInterval: cfg.Responder.DisplayInterval(),
	})

	log.Info("initialisation complete, entering responder loop")
	return loop.Run(ctx)
}

// getConfigPath returns the configuration file path.
// Uses LUMEN_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("LUMEN_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
