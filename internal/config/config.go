// ABOUTME: Configuration loading and parsing for chatvault
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/2389/chatvault/internal/backup"
	"github.com/2389/chatvault/internal/scheduler"
	"github.com/2389/chatvault/internal/store"
)

// Config represents the complete chatvault configuration
type Config struct {
	Database  DatabaseConfig  `yaml:"database" toml:"database"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
	Scheduler SchedulerConfig `yaml:"scheduler" toml:"scheduler"`
	Backup    BackupConfig    `yaml:"backup" toml:"backup"`
	Remote    RemoteConfig    `yaml:"remote" toml:"remote"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
	// SchemaVersion pins the version the store is opened at. Zero means latest.
	SchemaVersion int `yaml:"schema_version" toml:"schema_version"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// SchedulerConfig holds scheduled-message dispatch configuration
type SchedulerConfig struct {
	Enabled   bool          `yaml:"enabled" toml:"enabled"`
	Spec      string        `yaml:"spec" toml:"spec"`
	DedupeTTL time.Duration `yaml:"-" toml:"-"`

	// Raw string value for unmarshaling
	DedupeTTLRaw string `yaml:"dedupe_ttl" toml:"dedupe_ttl"`
}

// BackupConfig holds export and import defaults
type BackupConfig struct {
	Dir        string `yaml:"dir" toml:"dir"`
	Mode       string `yaml:"mode" toml:"mode"`
	Passphrase string `yaml:"passphrase" toml:"passphrase"`
}

// RemoteConfig holds the S3-compatible backup target
type RemoteConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Endpoint  string `yaml:"endpoint" toml:"endpoint"`
	AccessKey string `yaml:"access_key" toml:"access_key"`
	SecretKey string `yaml:"secret_key" toml:"secret_key"`
	Bucket    string `yaml:"bucket" toml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl" toml:"use_ssl"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "chatvault.db"},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Scheduler: SchedulerConfig{
			Spec:         scheduler.DefaultSpec,
			DedupeTTL:    10 * time.Minute,
			DedupeTTLRaw: "10m",
		},
		Backup: BackupConfig{Dir: ".", Mode: string(backup.ModeFull)},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are parsed as TOML, anything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
// Unset fields keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Database.SchemaVersion < 0 || c.Database.SchemaVersion > store.CurrentVersion {
		return fmt.Errorf("database.schema_version must be between 1 and %d", store.CurrentVersion)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	if c.Scheduler.Enabled {
		if err := scheduler.ValidateSpec(c.Scheduler.Spec); err != nil {
			return fmt.Errorf("scheduler.spec: %w", err)
		}
	}
	if c.Scheduler.DedupeTTL <= 0 {
		return fmt.Errorf("scheduler.dedupe_ttl must be positive")
	}

	if _, err := backup.ParseMode(c.Backup.Mode); err != nil {
		return fmt.Errorf("backup.mode: %w", err)
	}

	if c.Remote.Enabled {
		if c.Remote.Endpoint == "" {
			return fmt.Errorf("remote.endpoint is required when remote is enabled")
		}
		if c.Remote.Bucket == "" {
			return fmt.Errorf("remote.bucket is required when remote is enabled")
		}
	}

	return nil
}

// StoreVersion returns the schema version to open the store at.
func (c *Config) StoreVersion() int {
	if c.Database.SchemaVersion == 0 {
		return store.CurrentVersion
	}
	return c.Database.SchemaVersion
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.Scheduler.DedupeTTLRaw != "" {
		d, err := time.ParseDuration(cfg.Scheduler.DedupeTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing dedupe_ttl %q: %w", cfg.Scheduler.DedupeTTLRaw, err)
		}
		cfg.Scheduler.DedupeTTL = d
	}

	return nil
}
