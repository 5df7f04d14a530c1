package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the SmartThings bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Bridge      BridgeConfig      `yaml:"bridge"`
	Webhook     WebhookConfig     `yaml:"webhook"`
	SmartThings SmartThingsConfig `yaml:"smartthings"`
	Database    DatabaseConfig    `yaml:"database"`
	WebSocket   WebSocketConfig   `yaml:"websocket"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	InfluxDB    InfluxDBConfig    `yaml:"influxdb"`
	Polling     PollingConfig     `yaml:"polling"`
	CrashLoop   CrashLoopConfig   `yaml:"crash_loop"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// BridgeConfig contains bridge identity information.
type BridgeConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// WebhookConfig contains the inbound webhook server settings.
type WebhookConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Path is the lifecycle endpoint path (default "/smartapp").
	Path string `yaml:"path"`

	// Direct selects direct-webhook mode: lifecycle messages are also
	// accepted on "/". When false, "/" accepts single normalized events
	// forwarded by a polling relay instead.
	Direct bool `yaml:"direct"`

	Timeouts WebhookTimeoutConfig `yaml:"timeouts"`
}

// WebhookTimeoutConfig contains HTTP server timeout settings in seconds.
type WebhookTimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// SmartThingsConfig contains settings for the SmartThings REST API.
type SmartThingsConfig struct {
	// AppID, when set, is matched against the appId declared in inbound
	// lifecycle messages; mismatches are rejected with 403.
	AppID string `yaml:"app_id"`

	// APIURL is the SmartThings API base URL.
	APIURL string `yaml:"api_url"`

	// TimeoutSeconds bounds every outbound API request.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// WebSocketConfig contains the local event-feed WebSocket settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// MQTTConfig contains MQTT broker settings for the event mirror.
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

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB event-history settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// PollingConfig contains polling-relay settings, used when the bridge is not
// reachable by direct webhook.
type PollingConfig struct {
	// RelayURL is the long-poll endpoint of the event relay.
	// Empty disables polling.
	RelayURL string `yaml:"relay_url"`

	// RetryDelaySeconds is the back-off after a failed poll.
	RetryDelaySeconds int `yaml:"retry_delay_seconds"`
}

// CrashLoopConfig contains crash-loop detection settings.
type CrashLoopConfig struct {
	MaxCrashes        int      `yaml:"max_crashes"`
	TimeWindowMinutes int      `yaml:"time_window_minutes"`
	RelevantKinds     []string `yaml:"relevant_kinds"`
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
// Environment variables follow the pattern: STBRIDGE_SECTION_KEY
// For example: STBRIDGE_DATABASE_PATH, STBRIDGE_SMARTTHINGS_APP_ID
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

// defaultConfig returns a Config populated with defaults suitable for a
// single-installation bridge on a local network.
func defaultConfig() *Config {
	return &Config{
		Bridge: BridgeConfig{
			ID:   "stbridge-001",
			Name: "SmartThings Bridge",
		},
		Webhook: WebhookConfig{
			Host:   "0.0.0.0",
			Port:   8090,
			Path:   "/smartapp",
			Direct: true,
			Timeouts: WebhookTimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		SmartThings: SmartThingsConfig{
			APIURL:         "https://api.smartthings.com/v1",
			TimeoutSeconds: 30,
		},
		Database: DatabaseConfig{
			Path:        "./data/stbridge.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		WebSocket: WebSocketConfig{
			Path:           "/events",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		MQTT: MQTTConfig{
			Enabled: false,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				TLS:      false,
				ClientID: "stbridge",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			Enabled:       false,
			URL:           "http://localhost:8086",
			Org:           "stbridge",
			Bucket:        "events",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Polling: PollingConfig{
			RetryDelaySeconds: 5,
		},
		CrashLoop: CrashLoopConfig{
			MaxCrashes:        5,
			TimeWindowMinutes: 15,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Only settings that are commonly deployment-specific get an override.
func applyEnvOverrides(cfg *Config) {
	// Webhook
	if v := os.Getenv("STBRIDGE_WEBHOOK_HOST"); v != "" {
		cfg.Webhook.Host = v
	}
	if v := os.Getenv("STBRIDGE_WEBHOOK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Webhook.Port = port
		}
	}
	if v := os.Getenv("STBRIDGE_WEBHOOK_DIRECT"); v != "" {
		if direct, err := strconv.ParseBool(v); err == nil {
			cfg.Webhook.Direct = direct
		}
	}

	// SmartThings
	if v := os.Getenv("STBRIDGE_SMARTTHINGS_APP_ID"); v != "" {
		cfg.SmartThings.AppID = v
	}
	if v := os.Getenv("STBRIDGE_SMARTTHINGS_API_URL"); v != "" {
		cfg.SmartThings.APIURL = v
	}

	// Database
	if v := os.Getenv("STBRIDGE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("STBRIDGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("STBRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("STBRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("STBRIDGE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Polling relay
	if v := os.Getenv("STBRIDGE_POLLING_RELAY_URL"); v != "" {
		cfg.Polling.RelayURL = v
	}

	// Logging
	if v := os.Getenv("STBRIDGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failures, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Bridge.ID == "" {
		errs = append(errs, "bridge.id is required")
	}

	if c.Webhook.Port < 1 || c.Webhook.Port > 65535 {
		errs = append(errs, "webhook.port must be between 1 and 65535")
	}
	if !strings.HasPrefix(c.Webhook.Path, "/") {
		errs = append(errs, "webhook.path must start with /")
	}

	if c.SmartThings.APIURL == "" {
		errs = append(errs, "smartthings.api_url is required")
	}
	if c.SmartThings.TimeoutSeconds < 1 {
		errs = append(errs, "smartthings.timeout_seconds must be positive")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if !strings.HasPrefix(c.WebSocket.Path, "/") {
		errs = append(errs, "websocket.path must start with /")
	}

	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled")
		}
	}

	if c.CrashLoop.MaxCrashes < 1 {
		errs = append(errs, "crash_loop.max_crashes must be positive")
	}
	if c.CrashLoop.TimeWindowMinutes < 1 {
		errs = append(errs, "crash_loop.time_window_minutes must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetAPITimeout returns the SmartThings request timeout as a Duration.
func (c *Config) GetAPITimeout() time.Duration {
	return time.Duration(c.SmartThings.TimeoutSeconds) * time.Second
}

// GetReadTimeout returns the webhook read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.Webhook.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the webhook write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.Webhook.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the webhook idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.Webhook.Timeouts.Idle) * time.Second
}

// GetRetryDelay returns the polling retry delay as a Duration.
func (c *Config) GetRetryDelay() time.Duration {
	return time.Duration(c.Polling.RetryDelaySeconds) * time.Second
}

// GetCrashWindow returns the crash-loop detection window as a Duration.
func (c *Config) GetCrashWindow() time.Duration {
	return time.Duration(c.CrashLoop.TimeWindowMinutes) * time.Minute
}
