package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for FireCAD.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	API      APIConfig      `yaml:"api"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
	Analysis AnalysisConfig `yaml:"analysis"`
}

// SiteConfig identifies the installation publishing results.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// DatabaseConfig contains SQLite database settings for the analysis archive.
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
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host        string           `yaml:"host"`
	Port        int              `yaml:"port"`
	TLS         TLSConfig        `yaml:"tls"`
	Timeouts    APITimeoutConfig `yaml:"timeouts"`
	CORS        CORSConfig       `yaml:"cors"`
	MaxUploadMB int              `yaml:"max_upload_mb"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings.
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

// AnalysisConfig controls the drawing analyser.
type AnalysisConfig struct {
	// MaxFileSizeMB bounds the size of a drawing accepted for analysis.
	MaxFileSizeMB int `yaml:"max_file_size_mb"`

	// TimeoutSeconds bounds a single analysis run (0 = no limit).
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// ArchiveResults stores every analysis outcome, failed ones included.
	ArchiveResults bool `yaml:"archive_results"`

	// PublishResults fans archived analyses out to MQTT and InfluxDB.
	PublishResults bool `yaml:"publish_results"`

	// InboxDir is the directory MQTT analysis requests may read drawings
	// from. Empty disables request handling.
	InboxDir string `yaml:"inbox_dir"`

	// EnabledFormats lists the drawing formats to analyse (see
	// KnownFormats). Empty enables all of them. A disabled format still
	// yields a structured unavailable outcome.
	EnabledFormats []string `yaml:"enabled_formats"`
}

// KnownFormats are the drawing formats analysis.enabled_formats may name.
var KnownFormats = []string{"dxf", "dwg"}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults); skipped when path is empty
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: FIRECAD_SECTION_KEY
// For example: FIRECAD_DATABASE_PATH, FIRECAD_API_PORT
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Apply environment variable overrides
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration with environment overrides
// applied. Invalid overrides are ignored.
func Default() *Config {
	cfg := defaultConfig()
	_ = applyEnvOverrides(cfg) //nolint:errcheck // best effort for CLI use without a config file
	return cfg
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "site-001",
			Name: "FireCAD",
		},
		Database: DatabaseConfig{
			Path:        "./data/firecad.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "firecad",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  60,
				Write: 60,
				Idle:  120,
			},
			MaxUploadMB: 100,
		},
		InfluxDB: InfluxDBConfig{
			Org:           "firecad",
			Bucket:        "fire_inventory",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Analysis: AnalysisConfig{
			MaxFileSizeMB:  100,
			TimeoutSeconds: 120,
			ArchiveResults: true,
			PublishResults: true,
			EnabledFormats: []string{"dxf", "dwg"},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: FIRECAD_SECTION_KEY
func applyEnvOverrides(cfg *Config) error {
	// Database
	if v := os.Getenv("FIRECAD_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("FIRECAD_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("FIRECAD_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("FIRECAD_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if err := envBool("FIRECAD_MQTT_ENABLED", &cfg.MQTT.Enabled); err != nil {
		return err
	}

	// API
	if v := os.Getenv("FIRECAD_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if err := envInt("FIRECAD_API_PORT", &cfg.API.Port); err != nil {
		return err
	}

	// InfluxDB
	if v := os.Getenv("FIRECAD_INFLUXDB_URL"); v != "" {
		cfg.InfluxDB.URL = v
	}
	if v := os.Getenv("FIRECAD_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if err := envBool("FIRECAD_INFLUXDB_ENABLED", &cfg.InfluxDB.Enabled); err != nil {
		return err
	}

	// Logging
	if v := os.Getenv("FIRECAD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Analysis
	if v := os.Getenv("FIRECAD_ANALYSIS_INBOX_DIR"); v != "" {
		cfg.Analysis.InboxDir = v
	}
	if v := os.Getenv("FIRECAD_ANALYSIS_ENABLED_FORMATS"); v != "" {
		cfg.Analysis.EnabledFormats = splitList(v)
	}
	return envInt("FIRECAD_ANALYSIS_MAX_FILE_SIZE_MB", &cfg.Analysis.MaxFileSizeMB)
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %q is not an integer", key, v)
	}
	*dst = n
	return nil
}

func envBool(key string, dst *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %q is not a boolean", key, v)
	}
	*dst = b
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	// Site validation
	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if c.API.MaxUploadMB < 1 {
		errs = append(errs, "api.max_upload_mb must be at least 1")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url and influxdb.bucket are required when influxdb is enabled")
	}

	// Analysis validation
	if c.Analysis.MaxFileSizeMB < 1 {
		errs = append(errs, "analysis.max_file_size_mb must be at least 1")
	}
	if c.Analysis.TimeoutSeconds < 0 {
		errs = append(errs, "analysis.timeout_seconds must not be negative")
	}
	for _, f := range c.Analysis.EnabledFormats {
		if !slices.Contains(KnownFormats, strings.ToLower(f)) {
			errs = append(errs, fmt.Sprintf("analysis.enabled_formats: unknown format %q", f))
		}
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

// MaxFileSizeBytes returns the analysis size limit in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.Analysis.MaxFileSizeMB) * 1024 * 1024
}

// MaxUploadBytes returns the API upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.API.MaxUploadMB) * 1024 * 1024
}

// FormatEnabled reports whether drawings of format may be analysed.
func (c *Config) FormatEnabled(format string) bool {
	if len(c.Analysis.EnabledFormats) == 0 {
		return true
	}
	for _, f := range c.Analysis.EnabledFormats {
		if strings.EqualFold(f, format) {
			return true
		}
	}
	return false
}

// AnalysisTimeout returns the per-analysis timeout, or 0 for none.
func (c *Config) AnalysisTimeout() time.Duration {
	return time.Duration(c.Analysis.TimeoutSeconds) * time.Second
}
