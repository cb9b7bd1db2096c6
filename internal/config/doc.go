// Package config handles configuration loading for chatvault.
//
// # Overview
//
// Configuration is loaded from a YAML or TOML file with environment variable
// expansion. Fields missing from the file keep the values from Default.
//
// # Configuration File
//
// The CLI looks in these locations, in order:
//
//  1. Path from the CHATVAULT_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/chatvault/config.yaml
//  3. ~/.config/chatvault/config.yaml
//
// A file ending in .toml is parsed as TOML; anything else is YAML.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	backup:
//	  passphrase: "${CHATVAULT_PASSPHRASE}"
//
// Syntax: ${VAR_NAME}. Unset variables expand to an empty string.
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	scheduler:
//	  dedupe_ttl: "10m"
//
// # Configuration Sections
//
// Database:
//
//	database:
//	  path: "~/.local/share/chatvault/chatvault.db"
//	  schema_version: 0        # 0 opens at the latest version
//
// Logging:
//
//	logging:
//	  level: "info"            # debug, info, warn, error
//	  format: "text"           # text or json
//
// Scheduled-message dispatch:
//
//	scheduler:
//	  enabled: true
//	  spec: "* * * * *"        # 5-field cron or @every <duration>
//	  dedupe_ttl: "10m"
//
// Backups:
//
//	backup:
//	  dir: "~/backups"
//	  mode: "full"             # full, text or media
//	  passphrase: "${CHATVAULT_PASSPHRASE}"
//
// Remote backup target (any S3-compatible server):
//
//	remote:
//	  enabled: true
//	  endpoint: "localhost:9000"
//	  access_key: "${CHATVAULT_S3_ACCESS_KEY}"
//	  secret_key: "${CHATVAULT_S3_SECRET_KEY}"
//	  bucket: "chatvault"
//	  use_ssl: false
//
// # Validation
//
// Load calls Validate, which requires database.path, a known logging format
// and backup mode, a parseable scheduler spec when the scheduler is enabled,
// and an endpoint and bucket when the remote target is enabled.
package config
