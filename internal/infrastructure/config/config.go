package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Hub authentication modes.
const (
	HubModeLocal  = "local"
	HubModeRemote = "remote"
)

// Error policies for hub failures during polling and command handling.
const (
	OnErrorLog  = "log"
	OnErrorExit = "exit"
)

// redacted replaces secrets in String() and MarshalJSON output.
const redacted = "[REDACTED]"

// Config is the root configuration structure for the sensor bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Poll     PollConfig     `yaml:"poll"`
	Hub      HubConfig      `yaml:"hub"`
	Bridge   BridgeConfig   `yaml:"bridge"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	API      APIConfig      `yaml:"api"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	// URL is the broker address, e.g. "tcp://localhost:1883" or "mqtts://broker:8883".
	URL string `yaml:"url"`

	// Prefix is the first level of every topic the bridge publishes or subscribes to.
	Prefix string `yaml:"prefix"`

	// ClientID identifies the bridge to the broker.
	// If empty, a unique ID is generated at connect time.
	ClientID string `yaml:"client_id"`

	Username string `yaml:"username"`

	// Password for MQTT authentication (optional).
	// WARNING: Never log this value. Use String() method for safe logging.
	Password string `yaml:"password"`

	QoS       int                 `yaml:"qos"`
	Retain    bool                `yaml:"retain"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// String returns a string representation with password masked.
func (m MQTTConfig) String() string {
	password := ""
	if m.Password != "" {
		password = redacted
	}
	return fmt.Sprintf("MQTTConfig{URL:%q, Prefix:%q, ClientID:%q, Username:%q, Password:%s, QoS:%d}",
		m.URL, m.Prefix, m.ClientID, m.Username, password, m.QoS)
}

// MarshalJSON implements json.Marshaler to redact the password.
func (m MQTTConfig) MarshalJSON() ([]byte, error) {
	type plain MQTTConfig
	safe := plain(m)
	if safe.Password != "" {
		safe.Password = redacted
	}
	return json.Marshal(safe)
}

// PollConfig controls the sensor polling cadence.
type PollConfig struct {
	// Interval is the time between polls (seconds).
	Interval int `yaml:"interval"`

	// OnError selects what happens when a hub call fails: "log" keeps
	// running until the next tick, "exit" stops the bridge with the error.
	OnError string `yaml:"on_error"`
}

// HubConfig contains the Hue hub session settings.
type HubConfig struct {
	// Mode is "local" (LAN bridge, optional discovery and pairing) or
	// "remote" (Hue cloud API with OAuth tokens).
	Mode string `yaml:"mode"`

	// RequestTimeout bounds each hub call (seconds).
	RequestTimeout int `yaml:"request_timeout"`

	Local  LocalHubConfig  `yaml:"local"`
	Remote RemoteHubConfig `yaml:"remote"`
}

// LocalHubConfig addresses a bridge on the local network.
type LocalHubConfig struct {
	// Host is the bridge address. Empty means discover it.
	Host string `yaml:"host"`

	// Username is the whitelisted API user. Empty means pair on startup
	// (the bridge's link button must be pressed).
	Username string `yaml:"username"`

	// DeviceType is the name registered with the bridge when pairing.
	DeviceType string `yaml:"device_type"`
}

// RemoteHubConfig contains Hue Remote API credentials.
type RemoteHubConfig struct {
	ClientID       string `yaml:"client_id"`
	ClientSecret   string `yaml:"client_secret"`
	AccessToken    string `yaml:"access_token"`
	RefreshToken   string `yaml:"refresh_token"`
	BridgeUsername string `yaml:"bridge_username"`
	BaseURL        string `yaml:"base_url"`
	TokenURL       string `yaml:"token_url"`
}

// String returns a string representation with secrets masked.
func (r RemoteHubConfig) String() string {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return redacted
	}
	return fmt.Sprintf("RemoteHubConfig{ClientID:%q, ClientSecret:%s, AccessToken:%s, RefreshToken:%s, BridgeUsername:%s, BaseURL:%q}",
		r.ClientID, mask(r.ClientSecret), mask(r.AccessToken), mask(r.RefreshToken), mask(r.BridgeUsername), r.BaseURL)
}

// MarshalJSON implements json.Marshaler to redact tokens and secrets.
func (r RemoteHubConfig) MarshalJSON() ([]byte, error) {
	type plain RemoteHubConfig
	safe := plain(r)
	for _, s := range []*string{&safe.ClientSecret, &safe.AccessToken, &safe.RefreshToken, &safe.BridgeUsername} {
		if *s != "" {
			*s = redacted
		}
	}
	return json.Marshal(safe)
}

// BridgeConfig contains bridge capability switches.
type BridgeConfig struct {
	// Commands enables the inbound {prefix}/set/# subscription.
	// When false the bridge only publishes.
	Commands bool `yaml:"commands"`
}

// InfluxDBConfig contains InfluxDB connection settings for reading history.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains status HTTP server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"`
	Output string            `yaml:"output"`
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig contains file-based logging settings.
// MaxSize is in megabytes, MaxAge in days.
type FileLoggingConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: HUE_SENSORS_SECTION_KEY
// For example: HUE_SENSORS_MQTT_URL, HUE_SENSORS_POLL_INTERVAL
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

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Prefix: "hue-sensors",
			QoS:    0,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Poll: PollConfig{
			Interval: 60,
			OnError:  OnErrorLog,
		},
		Hub: HubConfig{
			Mode:           HubModeLocal,
			RequestTimeout: 10,
			Local: LocalHubConfig{
				DeviceType: "hue-mqtt-sensors",
			},
			Remote: RemoteHubConfig{
				BaseURL:  "https://api.meethue.com/route/api",
				TokenURL: "https://api.meethue.com/v2/oauth2/token",
			},
		},
		Bridge: BridgeConfig{
			Commands: true,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  10,
				Write: 10,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
			File: FileLoggingConfig{
				MaxSize:    10,
				MaxBackups: 3,
				MaxAge:     28,
				Compress:   true,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: HUE_SENSORS_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// MQTT
	if v := os.Getenv("HUE_SENSORS_MQTT_URL"); v != "" {
		cfg.MQTT.URL = v
	}
	if v := os.Getenv("HUE_SENSORS_MQTT_PREFIX"); v != "" {
		cfg.MQTT.Prefix = v
	}
	if v := os.Getenv("HUE_SENSORS_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Username = v
	}
	if v := os.Getenv("HUE_SENSORS_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Password = v
	}

	// Poll
	if v := os.Getenv("HUE_SENSORS_POLL_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Poll.Interval = n
		}
	}

	// Hub
	if v := os.Getenv("HUE_SENSORS_HUB_MODE"); v != "" {
		cfg.Hub.Mode = v
	}
	if v := os.Getenv("HUE_SENSORS_HUB_HOST"); v != "" {
		cfg.Hub.Local.Host = v
	}
	if v := os.Getenv("HUE_SENSORS_HUB_USERNAME"); v != "" {
		cfg.Hub.Local.Username = v
	}
	if v := os.Getenv("HUE_SENSORS_REMOTE_CLIENT_ID"); v != "" {
		cfg.Hub.Remote.ClientID = v
	}
	if v := os.Getenv("HUE_SENSORS_REMOTE_CLIENT_SECRET"); v != "" {
		cfg.Hub.Remote.ClientSecret = v
	}
	if v := os.Getenv("HUE_SENSORS_REMOTE_ACCESS_TOKEN"); v != "" {
		cfg.Hub.Remote.AccessToken = v
	}
	if v := os.Getenv("HUE_SENSORS_REMOTE_REFRESH_TOKEN"); v != "" {
		cfg.Hub.Remote.RefreshToken = v
	}
	if v := os.Getenv("HUE_SENSORS_REMOTE_BRIDGE_USERNAME"); v != "" {
		cfg.Hub.Remote.BridgeUsername = v
	}

	// InfluxDB
	if v := os.Getenv("HUE_SENSORS_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// MQTT validation
	if c.MQTT.URL == "" {
		errs = append(errs, "mqtt.url is required (set HUE_SENSORS_MQTT_URL environment variable)")
	} else if err := validateBrokerURL(c.MQTT.URL); err != nil {
		errs = append(errs, err.Error())
	}
	if c.MQTT.Prefix == "" {
		errs = append(errs, "mqtt.prefix is required")
	} else if strings.ContainsAny(c.MQTT.Prefix, "+#") {
		errs = append(errs, "mqtt.prefix must not contain MQTT wildcards")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// Poll validation
	if c.Poll.Interval < 1 {
		errs = append(errs, "poll.interval must be at least 1 second")
	}
	if c.Poll.OnError != OnErrorLog && c.Poll.OnError != OnErrorExit {
		errs = append(errs, `poll.on_error must be "log" or "exit"`)
	}

	// Hub validation
	if c.Hub.RequestTimeout < 1 {
		errs = append(errs, "hub.request_timeout must be at least 1 second")
	}
	switch c.Hub.Mode {
	case HubModeLocal:
	case HubModeRemote:
		r := c.Hub.Remote
		if r.ClientID == "" || r.ClientSecret == "" {
			errs = append(errs, "hub.remote.client_id and hub.remote.client_secret are required in remote mode")
		}
		if r.AccessToken == "" {
			errs = append(errs, "hub.remote.access_token is required in remote mode")
		}
		if r.BridgeUsername == "" {
			errs = append(errs, "hub.remote.bridge_username is required in remote mode")
		}
		if r.BaseURL == "" {
			errs = append(errs, "hub.remote.base_url is required in remote mode")
		}
	default:
		errs = append(errs, `hub.mode must be "local" or "remote"`)
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" || c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.url, influxdb.org and influxdb.bucket are required when influxdb is enabled")
		}
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// Logging validation
	if strings.EqualFold(c.Logging.Output, "file") && c.Logging.File.Path == "" {
		errs = append(errs, "logging.file.path is required when logging.output is file")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// validateBrokerURL checks the broker URL parses and uses a scheme paho can dial.
func validateBrokerURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("mqtt.url is not a valid URL: %v", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "tcp", "ssl", "tls", "mqtt", "mqtts", "ws", "wss":
	default:
		return fmt.Errorf("mqtt.url scheme %q is not supported", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("mqtt.url must include a host")
	}
	return nil
}

// GetPollInterval returns the poll interval as a Duration.
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.Poll.Interval) * time.Second
}

// GetRequestTimeout returns the per-call hub timeout as a Duration.
func (c *Config) GetRequestTimeout() time.Duration {
	return time.Duration(c.Hub.RequestTimeout) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (a APIConfig) GetReadTimeout() time.Duration {
	return time.Duration(a.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (a APIConfig) GetWriteTimeout() time.Duration {
	return time.Duration(a.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (a APIConfig) GetIdleTimeout() time.Duration {
	return time.Duration(a.Timeouts.Idle) * time.Second
}
