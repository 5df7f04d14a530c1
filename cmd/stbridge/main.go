// SmartThings Bridge - cloud webhook to local event fan-out
//
// This is the main entry point for the stbridge application. It receives
// SmartApp lifecycle messages from the SmartThings cloud, keeps device
// subscriptions aligned with local consumer registrations, and fans
// normalized events out to local transports (WebSocket, MQTT, InfluxDB).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/smartthings-bridge/migrations"

	"github.com/nerrad567/smartthings-bridge/internal/crashloop"
	"github.com/nerrad567/smartthings-bridge/internal/credentials"
	"github.com/nerrad567/smartthings-bridge/internal/dispatch"
	"github.com/nerrad567/smartthings-bridge/internal/infrastructure/config"
	"github.com/nerrad567/smartthings-bridge/internal/infrastructure/database"
	"github.com/nerrad567/smartthings-bridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/smartthings-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/smartthings-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/smartthings-bridge/internal/smartapp"
	"github.com/nerrad567/smartthings-bridge/internal/smartthings"
	"github.com/nerrad567/smartthings-bridge/internal/webhook"
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
	log := logging.Default()
	log.Info("starting SmartThings bridge",
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
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
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

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Initialise credential store and load any saved installation
	credStore := credentials.NewStore(credentials.NewSQLiteRepository(db.DB))
	credStore.SetLogger(log)
	credStore.Load(ctx)
	if credStore.Installed() {
		log.Info("installation credentials restored")
	} else {
		log.Info("no installation credentials, awaiting INSTALL")
	}

	// Crash-loop detection: check the persisted crash log before doing
	// anything else so a supervisor watching the logs can intervene.
	crashMgr := crashloop.NewManager(crashloop.NewSQLiteRepository(db.DB))
	crashMgr.SetLogger(log)
	detection := detectionConfig(cfg)
	if looping, detectErr := crashMgr.IsLoopDetected(ctx, detection); detectErr != nil {
		log.Warn("crash-loop check failed", "error", detectErr)
	} else if looping {
		log.Error("crash loop detected at startup",
			"max_crashes", detection.MaxCrashes,
			"window", detection.TimeWindow,
		)
		if events, eventsErr := crashMgr.Events(ctx); eventsErr == nil {
			for _, ev := range events {
				log.Warn("recorded crash event",
					"kind", string(ev.Kind),
					"timestamp", ev.Timestamp.Format(time.RFC3339),
				)
			}
		}
	}

	// SmartThings API client
	platform := smartthings.NewClient(smartthings.Config{
		BaseURL: cfg.SmartThings.APIURL,
		Timeout: cfg.GetAPITimeout(),
	})
	platform.SetLogger(log)

	// Dispatcher and lifecycle handler
	dispatcher := dispatch.NewDispatcher()
	dispatcher.SetLogger(log)

	handler := smartapp.NewHandler(smartapp.Config{
		Platform:       platform,
		Credentials:    credStore,
		Dispatcher:     dispatcher,
		Crash:          crashMgr,
		AppName:        cfg.Bridge.Name,
		AppDescription: "Forwards SmartThings device events to local consumers",
	})
	handler.SetLogger(log)

	// Webhook server with the WebSocket event feed
	server, err := webhook.New(webhook.Deps{
		Config:     cfg.Webhook,
		WS:         cfg.WebSocket,
		Logger:     log,
		Lifecycle:  handler,
		Dispatcher: dispatcher,
		AppID:      cfg.SmartThings.AppID,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating webhook server: %w", err)
	}
	dispatcher.AddSink(server.EventSink())
	dispatcher.RegisterLifecycle(server.BroadcastLifecycle)

	// MQTT event mirror (optional)
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
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

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		mirror := mqtt.NewMirror(mqttClient)
		mirror.SetLogger(log)
		dispatcher.AddSink(mirror.EventSink())
		dispatcher.RegisterLifecycle(mirror.PublishLifecycle)
	} else {
		log.Info("MQTT mirror disabled")
	}

	// InfluxDB event history (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
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
		dispatcher.AddSink(influxClient.EventSink())
	} else {
		log.Info("InfluxDB disabled")
	}

	// Start the webhook listener. A bind failure here is the classic
	// supervisor-restart trigger, so it lands in the crash log.
	if startErr := server.Start(ctx); startErr != nil {
		if recordErr := crashMgr.Record(ctx, crashloop.KindWebhookStartFailure); recordErr != nil {
			log.Error("failed to record crash event", "error", recordErr)
		}
		return fmt.Errorf("starting webhook server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing webhook server", "error", closeErr)
		}
	}()

	// Polling relay fallback for deployments without a public endpoint
	if cfg.Polling.RelayURL != "" && !cfg.Webhook.Direct {
		relay := dispatch.NewHTTPRelay(cfg.Polling.RelayURL)
		poller := dispatch.NewPoller(relay, dispatcher, cfg.GetRetryDelay())
		poller.SetLogger(log)
		poller.Start(ctx)
		defer func() {
			log.Info("stopping relay poller")
			poller.Stop()
		}()
		log.Info("relay poller started", "url", cfg.Polling.RelayURL)
	}

	log.Info("initialisation complete, waiting for shutdown signal",
		"state", handler.State(),
	)

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. Poller (if enabled)
	// 2. Webhook server
	// 3. InfluxDB (if enabled)
	// 4. MQTT (if enabled)
	// 5. Database

	log.Info("SmartThings bridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses STBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("STBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// detectionConfig converts the YAML crash-loop settings into the manager's
// detection parameters.
func detectionConfig(cfg *config.Config) crashloop.DetectionConfig {
	kinds := make([]crashloop.Kind, 0, len(cfg.CrashLoop.RelevantKinds))
	for _, k := range cfg.CrashLoop.RelevantKinds {
		kinds = append(kinds, crashloop.Kind(k))
	}
	return crashloop.DetectionConfig{
		MaxCrashes:    cfg.CrashLoop.MaxCrashes,
		TimeWindow:    cfg.GetCrashWindow(),
		RelevantKinds: kinds,
	}
}
