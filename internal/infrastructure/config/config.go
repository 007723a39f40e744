package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for LanGuard Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Scan      ScanConfig      `yaml:"scan"`
	Storage   StorageConfig   `yaml:"storage"`
	Router    RouterConfig    `yaml:"router"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ScanConfig contains discovery sweep settings.
type ScanConfig struct {
	// Interface is the network interface to sweep from.
	// Empty means the interface that reaches the default gateway.
	Interface string `yaml:"interface"`

	// CIDR is the address range to sweep (e.g. "192.168.1.0/24").
	// Empty means the default gateway anchored with PrefixLength.
	CIDR string `yaml:"cidr"`

	// PrefixLength is used with the gateway address when CIDR is empty.
	// Default: 24
	PrefixLength int `yaml:"prefix_length"`

	// Timeout is how long to wait for ARP replies after the probes are sent.
	// Default: 2s
	Timeout time.Duration `yaml:"timeout"`

	// LookupTimeout bounds each reverse name lookup.
	// Default: 1s
	LookupTimeout time.Duration `yaml:"lookup_timeout"`

	// LookupWorkers is the number of concurrent reverse lookups.
	// Default: 8
	LookupWorkers int `yaml:"lookup_workers"`

	// MaxHosts rejects ranges with more addresses than this.
	// Default: 4096
	MaxHosts int `yaml:"max_hosts"`
}

// StorageConfig contains the JSON state file settings.
type StorageConfig struct {
	TrackingFile  string `yaml:"tracking_file"`
	BlocklistFile string `yaml:"blocklist_file"`

	// Locking selects how read-modify-write cycles are serialised:
	// "mutex" (single process) or "flock" (advisory file lock, multi-process).
	Locking string `yaml:"locking"`
}

// RouterConfig selects and authenticates the router control adapter.
type RouterConfig struct {
	Brand    string `yaml:"brand"`
	Address  string `yaml:"address"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// ProfilePath points at a legacy JSON profile ({brand, ip, username, password}).
	// When set it takes precedence over the fields above.
	ProfilePath string `yaml:"profile_path"`
}

// ScheduleConfig contains periodic trigger settings.
type ScheduleConfig struct {
	// Sweep is a cron spec (e.g. "@every 5m") for background device sweeps.
	// Empty disables scheduled sweeps.
	Sweep string `yaml:"sweep"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
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

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
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

// Locking strategies for StorageConfig.Locking.
const (
	LockingMutex = "mutex"
	LockingFlock = "flock"
)

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: LANGUARD_SECTION_KEY
// For example: LANGUARD_SCAN_CIDR, LANGUARD_ROUTER_PASSWORD
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

// Default returns the built-in configuration without reading any file.
func Default() *Config {
	return defaultConfig()
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			PrefixLength:  24,
			Timeout:       2 * time.Second,
			LookupTimeout: time.Second,
			LookupWorkers: 8,
			MaxHosts:      4096,
		},
		Storage: StorageConfig{
			TrackingFile:  "./data/device_tracking.json",
			BlocklistFile: "./data/blocklist.json",
			Locking:       LockingMutex,
		},
		Router: RouterConfig{
			Brand: "dryrun",
		},
		Database: DatabaseConfig{
			Path:        "./data/languard.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "languard-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 5000,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: LANGUARD_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Scan
	if v := os.Getenv("LANGUARD_SCAN_INTERFACE"); v != "" {
		cfg.Scan.Interface = v
	}
	if v := os.Getenv("LANGUARD_SCAN_CIDR"); v != "" {
		cfg.Scan.CIDR = v
	}
	if v := os.Getenv("LANGUARD_SCAN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Scan.Timeout = d
		}
	}

	// Storage
	if v := os.Getenv("LANGUARD_STORAGE_TRACKING_FILE"); v != "" {
		cfg.Storage.TrackingFile = v
	}
	if v := os.Getenv("LANGUARD_STORAGE_BLOCKLIST_FILE"); v != "" {
		cfg.Storage.BlocklistFile = v
	}

	// Router - credentials belong in the environment, not the YAML file
	if v := os.Getenv("LANGUARD_ROUTER_BRAND"); v != "" {
		cfg.Router.Brand = v
	}
	if v := os.Getenv("LANGUARD_ROUTER_ADDRESS"); v != "" {
		cfg.Router.Address = v
	}
	if v := os.Getenv("LANGUARD_ROUTER_USERNAME"); v != "" {
		cfg.Router.Username = v
	}
	if v := os.Getenv("LANGUARD_ROUTER_PASSWORD"); v != "" {
		cfg.Router.Password = v
	}

	// Database
	if v := os.Getenv("LANGUARD_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("LANGUARD_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("LANGUARD_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("LANGUARD_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("LANGUARD_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("LANGUARD_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// InfluxDB
	if v := os.Getenv("LANGUARD_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Scan validation
	if c.Scan.CIDR != "" {
		if _, err := netip.ParsePrefix(c.Scan.CIDR); err != nil {
			errs = append(errs, fmt.Sprintf("scan.cidr %q is not a valid CIDR prefix", c.Scan.CIDR))
		}
	}
	if c.Scan.PrefixLength < 1 || c.Scan.PrefixLength > 32 {
		errs = append(errs, "scan.prefix_length must be between 1 and 32")
	}
	if c.Scan.Timeout <= 0 {
		errs = append(errs, "scan.timeout must be positive")
	}
	if c.Scan.LookupTimeout <= 0 {
		errs = append(errs, "scan.lookup_timeout must be positive")
	}
	if c.Scan.LookupWorkers < 1 {
		errs = append(errs, "scan.lookup_workers must be at least 1")
	}
	if c.Scan.MaxHosts < 1 {
		errs = append(errs, "scan.max_hosts must be at least 1")
	}

	// Storage validation
	if c.Storage.TrackingFile == "" {
		errs = append(errs, "storage.tracking_file is required")
	}
	if c.Storage.BlocklistFile == "" {
		errs = append(errs, "storage.blocklist_file is required")
	}
	if c.Storage.TrackingFile != "" && c.Storage.TrackingFile == c.Storage.BlocklistFile {
		errs = append(errs, "storage.tracking_file and storage.blocklist_file must differ")
	}
	switch c.Storage.Locking {
	case LockingMutex, LockingFlock:
	default:
		errs = append(errs, "storage.locking must be \"mutex\" or \"flock\"")
	}

	// Router validation
	if c.Router.Brand == "" && c.Router.ProfilePath == "" {
		errs = append(errs, "router.brand or router.profile_path is required")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
