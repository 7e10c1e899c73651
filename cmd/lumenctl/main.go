// Lumen Control - issuer daemon
//
// This is the entry point for the issuer side of the Lumen LED control
// protocol. The issuer waits for a responder to come online, emits LED
// commands tagged with monotonically increasing request IDs, and
// correlates the acknowledgements that come back, reporting a timeout
// for any command that is not acknowledged within the deadline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lumenctl/lumen-core/migrations"

	"github.com/lumenctl/lumen-core/internal/history"
	"github.com/lumenctl/lumen-core/internal/infrastructure/config"
	"github.com/lumenctl/lumen-core/internal/infrastructure/database"
	"github.com/lumenctl/lumen-core/internal/infrastructure/influxdb"
	"github.com/lumenctl/lumen-core/internal/infrastructure/logging"
	"github.com/lumenctl/lumen-core/internal/infrastructure/mqtt"
	"github.com/lumenctl/lumen-core/internal/issuer"
	"github.com/lumenctl/lumen-core/internal/protocol"
	"github.com/lumenctl/lumen-core/internal/transport"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
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
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default("lumenctl")
	log.Info("starting Lumen issuer",
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
	log = logging.New(cfg.Logging, "lumenctl", version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open the command history database (optional)
	var repo *history.Repository
	if cfg.History.Enabled {
		db, dbErr := database.Open(database.Config{
			Path:        cfg.History.Path,
			WALMode:     cfg.History.WALMode,
			BusyTimeout: cfg.History.BusyTimeout,
		})
		if dbErr != nil {
			return fmt.Errorf("opening history database: %w", dbErr)
		}
		defer func() {
			log.Info("closing history database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing history database", "error", closeErr)
			}
		}()
		log.Info("history database connected", "path", cfg.History.Path)

		if migrateErr := db.Migrate(ctx); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		log.Info("history migrations complete")

		repo = history.NewRepository(db.DB)
	} else {
		log.Info("command history disabled")
	}

	// Connect to the MQTT broker as the issuer role
	mqttClient, err := mqtt.Connect(cfg.MQTT, cfg.Domain, mqtt.RoleIssuer)
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

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Wire the transport bus: ack and presence subscriptions
	// #nosec G115 -- qos validated to 0..2 by config.Validate
	bus, err := transport.NewIssuerBus(mqttClient, cfg.Domain, byte(cfg.MQTT.QoS), log)
	if err != nil {
		return fmt.Errorf("subscribing issuer bus: %w", err)
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	loop := issuer.NewLoop(issuer.Options{
		Bus:          bus,
		Logger:       log,
		AckDeadline:  cfg.Issuer.AckDeadline(),
		PollInterval: cfg.Issuer.PollInterval(),
		BurstGap:     cfg.Issuer.BurstGap(),
		Sink: &outcomeSink{
			log:     log,
			repo:    repo,
			metrics: influxClient,
		},
	})

	log.Info("initialisation complete, entering issuer loop")
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

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// outcomeSink fans terminal command outcomes out to the history log and
// the metrics writer. Persistence failures are logged and swallowed so
// an observer can never disturb correlation.
type outcomeSink struct {
	log     *logging.Logger
	repo    *history.Repository
	metrics *influxdb.Client
}

func (s *outcomeSink) Matched(ctx context.Context, cmd protocol.Command, m issuer.Match) {
	if s.repo != nil {
		latencyMs := m.Latency.Milliseconds()
		err := s.repo.RecordOutcome(ctx, history.Entry{
			RequestID: m.ID,
			Channel:   cmd.Channel.String(),
			State:     cmd.On,
			Outcome:   history.OutcomeMatched,
			LatencyMs: &latencyMs,
		})
		if err != nil {
			s.log.Warn("recording matched outcome failed", "id", m.ID, "error", err)
		}
	}
	if s.metrics != nil {
		s.metrics.WriteCommandLatency(m.ID, cmd.Channel.String(), float64(m.Latency.Microseconds())/1000.0)
	}
}

func (s *outcomeSink) TimedOut(ctx context.Context, cmd protocol.Command) {
	if s.repo != nil {
		err := s.repo.RecordOutcome(ctx, history.Entry{
			RequestID: cmd.ID,
			Channel:   cmd.Channel.String(),
			State:     cmd.On,
			Outcome:   history.OutcomeTimeout,
		})
		if err != nil {
			s.log.Warn("recording timeout outcome failed", "id", cmd.ID, "error", err)
		}
	}
	if s.metrics != nil {
		s.metrics.WriteTimeout(cmd.ID, cmd.Channel.String())
	}
}
