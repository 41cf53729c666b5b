// Sengled Bridge - Cloud Relay for Sengled Wi-Fi Bulbs
//
// This is the main entry point for the bridge daemon. The bridge logs in
// to the Sengled cloud, opens the MQTT-over-WebSocket message channel,
// discovers the account's bulbs, and keeps their state live until
// shutdown:
//   - Status updates stream in over per-device topics
//   - Commands go out over the matching update topics
//   - State changes are appended to the local history store and,
//     when enabled, pushed to InfluxDB
//
// Run with -verify to check account credentials without starting the
// bridge, or with -history <device-id> to inspect the recorded state
// history of one bulb.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/sengled-bridge/internal/bridge"
	"github.com/nerrad567/sengled-bridge/internal/cloud"
	"github.com/nerrad567/sengled-bridge/internal/elements"
	"github.com/nerrad567/sengled-bridge/internal/history"
	"github.com/nerrad567/sengled-bridge/internal/infrastructure/config"
	"github.com/nerrad567/sengled-bridge/internal/infrastructure/database"
	"github.com/nerrad567/sengled-bridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/sengled-bridge/internal/infrastructure/logging"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

const (
	// defaultConfigPath is used when neither the -config flag nor the
	// SENGLED_CONFIG environment variable is set.
	defaultConfigPath = "configs/config.yaml"

	// verifyTimeout bounds the single login performed by -verify.
	verifyTimeout = 30 * time.Second

	// historyWriteTimeout bounds each history insert made from a bulb's
	// change hook. The hook runs on the message loop, so a stuck write
	// must not stall status handling indefinitely.
	historyWriteTimeout = 5 * time.Second

	// historyRetention is how long state-history rows are kept. Rows
	// older than this are pruned once at startup.
	historyRetention = 90 * 24 * time.Hour
)

// options carries the parsed command-line flags into run.
type options struct {
	configPath string
	verify     bool
	historyFor string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to config file (overrides SENGLED_CONFIG)")
	flag.BoolVar(&opts.verify, "verify", false, "check cloud credentials and exit")
	flag.StringVar(&opts.historyFor, "history", "", "print recent state history for a device id and exit")
	flag.Parse()

	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	// This is the Go pattern for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Run the application
	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - opts: Parsed command-line flags
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, opts options) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Sengled bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := resolveConfigPath(opts.configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// History query mode: print the recorded entries, exit
	if opts.historyFor != "" {
		return showHistory(ctx, cfg, opts.historyFor)
	}

	// Cloud client against the production Sengled endpoints
	client, err := cloud.NewClient(cloud.Config{}, log)
	if err != nil {
		return fmt.Errorf("creating cloud client: %w", err)
	}

	// Credential check mode: one login, report, exit
	if opts.verify {
		return verifyCredentials(ctx, client, cfg, log)
	}

	// Open the local state-history store (optional)
	var db *database.DB
	var historyRepo *history.SQLiteRepository
	if cfg.History.Enabled {
		db, err = database.Open(database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		log.Info("database connected", "path", cfg.Database.Path)

		historyRepo = history.NewSQLiteRepository(db.DB)
		if initErr := historyRepo.Init(ctx); initErr != nil {
			return fmt.Errorf("initialising history store: %w", initErr)
		}
		log.Info("state history enabled")

		// One retention pass per start keeps the table bounded
		if pruned, pruneErr := historyRepo.Prune(ctx, historyRetention); pruneErr != nil {
			log.Warn("pruning state history", "error", pruneErr)
		} else if pruned > 0 {
			log.Info("pruned state history", "entries", pruned)
		}
	} else {
		log.Info("state history disabled")
	}

	// Connect to InfluxDB (optional)
	influxClient, err := influxdb.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
		influxClient = nil
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
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

		// Surface async write failures in the log
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	}

	// Verify the local stores are healthy before the supervisor takes
	// over. Cloud connectivity is checked by the supervisor's own login.
	if err := healthCheck(ctx, db, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("health checks passed")

	// Build the supervisor. The discovery callback closes over the
	// supervisor itself so it can reach the registry and publisher.
	var sup *bridge.Supervisor
	sup, err = bridge.NewSupervisor(bridge.Options{
		Cloud:    client,
		Username: cfg.Cloud.Username,
		Password: cfg.Cloud.Password,
		OnDiscover: func(descriptor cloud.Descriptor) {
			registerBulb(sup, historyRepo, influxClient, log, descriptor)
		},
		Logger: log,
	})
	if err != nil {
		return fmt.Errorf("creating supervisor: %w", err)
	}

	log.Info("initialisation complete, starting supervisor")

	// Run blocks until the context is cancelled or the initial login
	// fails. The supervisor closes its connection and the cloud client
	// during its own shutdown.
	if runErr := sup.Run(ctx); runErr != nil {
		return fmt.Errorf("supervisor: %w", runErr)
	}

	stats := sup.Stats()
	log.Info("Sengled bridge stopped",
		"devices", stats.Devices,
		"relogins", stats.Relogins,
		"drops", stats.Drops,
	)

	// Deferred Close() calls will run in reverse order:
	// 1. InfluxDB (if enabled)
	// 2. Database (if history enabled)

	return nil
}

// resolveConfigPath picks the configuration file path: the -config flag
// wins, then the SENGLED_CONFIG environment variable, then the default.
func resolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if path := os.Getenv("SENGLED_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// showHistory prints a device's recorded state history, newest first.
// This backs the -history flag so the local store can be inspected
// without stopping the bridge or opening the database by hand.
func showHistory(ctx context.Context, cfg *config.Config, deviceID string) error {
	if !cfg.History.Enabled {
		return fmt.Errorf("history is disabled in configuration")
	}

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck // Read-only query, process exits next

	repo := history.NewSQLiteRepository(db.DB)
	if err := repo.Init(ctx); err != nil {
		return fmt.Errorf("initialising history store: %w", err)
	}

	entries, err := repo.Recent(ctx, deviceID, 0)
	if err != nil {
		return fmt.Errorf("querying history: %w", err)
	}
	if len(entries) == 0 {
		fmt.Printf("no history recorded for device %s\n", deviceID)
		return nil
	}

	for _, entry := range entries {
		state, err := json.Marshal(entry.State)
		if err != nil {
			return fmt.Errorf("encoding history entry %d: %w", entry.ID, err)
		}
		fmt.Printf("%s  %-7s  %s\n", entry.CreatedAt.Format(time.RFC3339), entry.Source, state)
	}
	return nil
}

// verifyCredentials performs a single login and reports the outcome.
// This backs the -verify flag so an account can be checked before the
// bridge is left running unattended.
func verifyCredentials(ctx context.Context, client *cloud.Client, cfg *config.Config, log *logging.Logger) error {
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	if err := client.VerifyCredentials(ctx, cfg.Cloud.Username, cfg.Cloud.Password); err != nil {
		return fmt.Errorf("credential check: %w", err)
	}

	log.Info("credentials verified", "username", cfg.Cloud.Username)
	return nil
}

// healthCheck verifies the optional local stores are reachable.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check (nil when history is disabled)
//   - influxClient: InfluxDB client to check (nil when disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, influxClient *influxdb.Client) error {
	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// registerBulb turns one raw cloud descriptor into a managed bulb.
//
// The supervisor calls this for every descriptor on every discovery
// pass, including the rediscovery that follows a re-login, so devices
// already present in the registry are skipped.
func registerBulb(sup *bridge.Supervisor, repo *history.SQLiteRepository, influx *influxdb.Client, log *logging.Logger, descriptor cloud.Descriptor) {
	bulb, err := elements.NewBulb(descriptor, sup.Publisher(), log)
	if err != nil {
		log.Warn("skipping device descriptor", "error", err)
		return
	}

	if _, ok := sup.Registry().Lookup(bulb.ID()); ok {
		return
	}

	bulb.SetOnChange(recordState(bulb, repo, influx, log))
	sup.Register(bulb)
	log.Info("bulb registered",
		"device_id", bulb.ID(),
		"name", bulb.Name(),
		"model", bulb.Model(),
	)
}

// recordState builds a bulb's change hook: each applied status batch is
// appended to the history store and written to InfluxDB.
func recordState(bulb *elements.Bulb, repo *history.SQLiteRepository, influx *influxdb.Client, log *logging.Logger) func() {
	return func() {
		if repo != nil {
			ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
			defer cancel()

			if err := repo.Record(ctx, bulb.ID(), bulb.Snapshot(), history.SourceStatus); err != nil {
				log.Error("recording state history", "device_id", bulb.ID(), "error", err)
			}
		}

		if influx != nil {
			influx.WriteLightState(bulb.ID(), bulb.Model(), lightFields(bulb))
		}
	}
}

// lightFields flattens a bulb's current state into InfluxDB fields.
// Attributes the bulb has never reported are left out.
func lightFields(bulb *elements.Bulb) map[string]interface{} {
	fields := map[string]interface{}{
		"on":         bulb.IsOn(),
		"online":     bulb.Available(),
		"color_mode": bulb.ColorMode(),
	}

	if level, ok := bulb.Brightness(); ok {
		fields["brightness"] = level
	}
	if mireds, ok := bulb.ColorTemp(); ok {
		fields["color_temp"] = mireds
	}
	if red, green, blue, ok := bulb.RGB(); ok {
		fields["red"] = red
		fields["green"] = green
		fields["blue"] = blue
	}

	return fields
}
