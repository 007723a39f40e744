// LanGuard Core - LAN device discovery and access control
//
// This is the main entry point for the LanGuard Core service. It sweeps the
// local network for devices, keeps a history of everything it has seen and
// blocks or unblocks devices at the home router on request.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nerrad567/languard-core/migrations"

	"github.com/nerrad567/languard-core/internal/api"
	"github.com/nerrad567/languard-core/internal/audit"
	"github.com/nerrad567/languard-core/internal/blocklist"
	"github.com/nerrad567/languard-core/internal/discovery"
	"github.com/nerrad567/languard-core/internal/engine"
	"github.com/nerrad567/languard-core/internal/events"
	"github.com/nerrad567/languard-core/internal/infrastructure/config"
	"github.com/nerrad567/languard-core/internal/infrastructure/database"
	"github.com/nerrad567/languard-core/internal/infrastructure/filestore"
	"github.com/nerrad567/languard-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/languard-core/internal/infrastructure/logging"
	"github.com/nerrad567/languard-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/languard-core/internal/presence"
	"github.com/nerrad567/languard-core/internal/router"
	"github.com/nerrad567/languard-core/internal/scheduler"
	"github.com/nerrad567/languard-core/internal/tracking"
	"github.com/nerrad567/languard-core/internal/wifi"
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
	log := logging.Default()
	log.Info("starting LanGuard Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// A .env file is optional; it only seeds LANGUARD_* overrides.
	_ = godotenv.Load()

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// State files
	trackingLocker, err := filestore.NewLocker(cfg.Storage.Locking, cfg.Storage.TrackingFile)
	if err != nil {
		return fmt.Errorf("tracking store: %w", err)
	}
	blocklistLocker, err := filestore.NewLocker(cfg.Storage.Locking, cfg.Storage.BlocklistFile)
	if err != nil {
		return fmt.Errorf("block ledger: %w", err)
	}
	trackingStore := tracking.NewStore(cfg.Storage.TrackingFile, trackingLocker)
	ledger := blocklist.NewLedger(cfg.Storage.BlocklistFile, blocklistLocker)
	log.Info("state files ready",
		"tracking", cfg.Storage.TrackingFile,
		"blocklist", cfg.Storage.BlocklistFile,
		"locking", cfg.Storage.Locking,
	)

	// Router adapter - a bad profile is a startup error, not a request error
	profile, err := router.ProfileFromConfig(cfg.Router)
	if err != nil {
		return fmt.Errorf("loading router profile: %w", err)
	}
	routerCtrl, err := router.New(profile, log)
	if err != nil {
		return fmt.Errorf("creating router adapter: %w", err)
	}
	log.Info("router adapter ready", "brand", profile.Brand)

	scanner := discovery.New(cfg.Scan)
	scanner.SetLogger(log)

	// Audit database
	db, err := database.Open(cfg.Database)
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

	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	auditRepo := audit.NewSQLiteRepository(db.DB)

	eng := engine.New(engine.Deps{
		Scanner:    scanner,
		Reconciler: presence.New(trackingStore),
		Ledger:     ledger,
		History:    trackingStore,
		Router:     routerCtrl,
		Audit:      auditRepo,
	})
	eng.SetLogger(log)

	// MQTT (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
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

		publisher := events.NewMQTTPublisher(mqttClient)
		publisher.SetLogger(log)
		eng.AddObserver(publisher)
	} else {
		log.Info("MQTT disabled")
	}

	// InfluxDB (optional)
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

		eng.AddObserver(events.NewMetricsWriter(influxClient))
	} else {
		log.Info("InfluxDB disabled")
	}

	// WebSocket hub - registered before the engine is shared
	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)
	eng.AddObserver(hub)

	apiServer, err := api.New(api.Deps{
		Config:  cfg.API,
		WS:      cfg.WebSocket,
		Logger:  log,
		Engine:  eng,
		Audit:   auditRepo,
		WiFi:    wifi.NewDetector(),
		Hub:     hub,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Scheduled sweeps (optional)
	if cfg.Schedule.Sweep != "" {
		sched, schedErr := scheduler.New(cfg.Schedule.Sweep, eng)
		if schedErr != nil {
			return fmt.Errorf("creating sweep scheduler: %w", schedErr)
		}
		sched.SetLogger(log)
		sched.Start(ctx)
		defer sched.Stop()
	} else {
		log.Info("scheduled sweeps disabled")
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		log.Warn("initial health check failed", "error", err)
	} else {
		log.Info("all health checks passed")
	}

	log.Info("LanGuard Core started",
		"api", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
	)

	<-ctx.Done()
	log.Info("shutdown signal received, stopping services")

	return nil
}

// getConfigPath returns the configuration file path.
// It checks the LANGUARD_CONFIG environment variable first,
// then falls back to the default path.
func getConfigPath() string {
	if path := os.Getenv("LANGUARD_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
// Optional clients are skipped when nil.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection
//   - mqttClient: MQTT client (nil when disabled)
//   - influxClient: InfluxDB client (nil when disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
