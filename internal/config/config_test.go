// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML and TOML loading, env var expansion, defaults, and validation

package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/2389/chatvault/internal/store"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
database:
  path: "./test.db"
  schema_version: 9

logging:
  level: "debug"
  format: "json"

scheduler:
  enabled: true
  spec: "*/5 * * * *"
  dedupe_ttl: "90s"

backup:
  dir: "/tmp/backups"
  mode: "text"

remote:
  enabled: true
  endpoint: "localhost:9000"
  bucket: "vault"
  use_ssl: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./test.db")
	}
	if cfg.StoreVersion() != 9 {
		t.Errorf("StoreVersion() = %d, want 9", cfg.StoreVersion())
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want debug/json", cfg.Logging)
	}
	if !cfg.Scheduler.Enabled || cfg.Scheduler.Spec != "*/5 * * * *" {
		t.Errorf("Scheduler = %+v", cfg.Scheduler)
	}
	if cfg.Scheduler.DedupeTTL != 90*time.Second {
		t.Errorf("Scheduler.DedupeTTL = %v, want 90s", cfg.Scheduler.DedupeTTL)
	}
	if cfg.Backup.Dir != "/tmp/backups" || cfg.Backup.Mode != "text" {
		t.Errorf("Backup = %+v", cfg.Backup)
	}
	if !cfg.Remote.Enabled || cfg.Remote.Bucket != "vault" || !cfg.Remote.UseSSL {
		t.Errorf("Remote = %+v", cfg.Remote)
	}
}

func TestLoad_TOML(t *testing.T) {
	path := writeConfig(t, "config.toml", `
[database]
path = "/data/vault.db"

[scheduler]
enabled = true
spec = "@every 30s"
dedupe_ttl = "5m"

[backup]
mode = "media"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/data/vault.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Scheduler.Spec != "@every 30s" {
		t.Errorf("Scheduler.Spec = %q", cfg.Scheduler.Spec)
	}
	if cfg.Scheduler.DedupeTTL != 5*time.Minute {
		t.Errorf("Scheduler.DedupeTTL = %v, want 5m", cfg.Scheduler.DedupeTTL)
	}
	if cfg.Backup.Mode != "media" {
		t.Errorf("Backup.Mode = %q", cfg.Backup.Mode)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want default info", cfg.Logging.Level)
	}
}

func TestLoad_KeepsDefaultsForMissingFields(t *testing.T) {
	path := writeConfig(t, "config.yaml", "database:\n  path: \"x.db\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	def := Default()
	if cfg.Scheduler.Spec != def.Scheduler.Spec {
		t.Errorf("Scheduler.Spec = %q, want %q", cfg.Scheduler.Spec, def.Scheduler.Spec)
	}
	if cfg.Scheduler.DedupeTTL != def.Scheduler.DedupeTTL {
		t.Errorf("Scheduler.DedupeTTL = %v, want %v", cfg.Scheduler.DedupeTTL, def.Scheduler.DedupeTTL)
	}
	if cfg.Backup.Mode != "full" {
		t.Errorf("Backup.Mode = %q, want full", cfg.Backup.Mode)
	}
	if cfg.StoreVersion() != store.CurrentVersion {
		t.Errorf("StoreVersion() = %d, want %d", cfg.StoreVersion(), store.CurrentVersion)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_CHATVAULT_DB", "/var/lib/vault.db")
	t.Setenv("TEST_CHATVAULT_PASS", "hunter2")

	path := writeConfig(t, "config.yaml", `
database:
  path: "${TEST_CHATVAULT_DB}"
backup:
  passphrase: "${TEST_CHATVAULT_PASS}"
remote:
  secret_key: "${TEST_CHATVAULT_UNSET}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/var/lib/vault.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Backup.Passphrase != "hunter2" {
		t.Errorf("Backup.Passphrase = %q", cfg.Backup.Passphrase)
	}
	if cfg.Remote.SecretKey != "" {
		t.Errorf("Remote.SecretKey = %q, want empty for unset var", cfg.Remote.SecretKey)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"bad yaml", "c.yaml", "database: [", "parsing config file"},
		{"bad toml", "c.toml", "[database\npath=1", "parsing config file"},
		{"bad duration", "c.yaml", "scheduler:\n  dedupe_ttl: \"soon\"\n", "parsing durations"},
		{"empty path", "c.yaml", "database:\n  path: \"\"\n", "database.path is required"},
		{"schema version", "c.yaml", "database:\n  schema_version: 99\n", "schema_version"},
		{"log format", "c.yaml", "logging:\n  format: \"xml\"\n", "logging.format"},
		{"scheduler spec", "c.yaml", "scheduler:\n  enabled: true\n  spec: \"whenever\"\n", "scheduler.spec"},
		{"zero ttl", "c.yaml", "scheduler:\n  dedupe_ttl: \"0s\"\n", "dedupe_ttl must be positive"},
		{"backup mode", "c.yaml", "backup:\n  mode: \"zip\"\n", "backup.mode"},
		{"remote endpoint", "c.yaml", "remote:\n  enabled: true\n  bucket: \"b\"\n", "remote.endpoint"},
		{"remote bucket", "c.yaml", "remote:\n  enabled: true\n  endpoint: \"h:9000\"\n", "remote.bucket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.content))
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Load() error = %v, want not-exist", err)
	}
}

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_EXPAND_A", "alpha")

	got := expandEnvVars("x=${TEST_EXPAND_A} y=${TEST_EXPAND_MISSING} z=$TEST_EXPAND_A")
	want := "x=alpha y= z=$TEST_EXPAND_A"
	if got != want {
		t.Errorf("expandEnvVars() = %q, want %q", got, want)
	}
}
