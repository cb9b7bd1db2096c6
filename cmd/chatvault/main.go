// ABOUTME: Entry point for the chatvault command-line tool
// ABOUTME: Migrates, inspects, backs up and restores the local chat store

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/2389/chatvault/internal/config"
	"github.com/2389/chatvault/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
       _           _                  _ _
   ___| |__   __ _| |___   ____ _ _  _| | |_
  / __| '_ \ / _' | __\ \ / / _' | || | | __|
 | (__| | | | (_| | |_ \ V / (_| | || | | |_
  \___|_| |_|\__,_|\__| \_/ \__,_|\_,_|_|\__|
`

// getConfigPath returns the path to the config file.
// Priority: CHATVAULT_CONFIG env var > XDG_CONFIG_HOME/chatvault/config.yaml > ~/.config/chatvault/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("CHATVAULT_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml"
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "chatvault", "config.yaml")
}

// getDataPath returns the chatvault data directory.
// Priority: XDG_DATA_HOME/chatvault > ~/.local/share/chatvault
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data"
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "chatvault")
}

// expandHome replaces a leading ~/ with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, path[2:])
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// .env is optional.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd := os.Args[1]
	args := os.Args[2:]

	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage()
		return
	}
	if cmd == "version" {
		fmt.Println(version)
		return
	}

	app, err := newApp()
	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}

	switch cmd {
	case "migrate":
		err = app.cmdMigrate(ctx)
	case "stats":
		err = app.cmdStats(ctx)
	case "export":
		err = app.cmdExport(ctx, args)
	case "import":
		err = app.cmdImport(ctx, args)
	case "due":
		err = app.cmdDue(ctx, args)
	case "dispatch":
		err = app.cmdDispatch(ctx, args)
	case "push":
		err = app.cmdPush(ctx, args)
	case "pull":
		err = app.cmdPull(ctx, args)
	case "remote-list":
		err = app.cmdRemoteList(ctx)
	case "diaries":
		err = app.cmdDiaries(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: chatvault <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  migrate                          Create or upgrade the store schema")
	fmt.Println("  stats                            Show record counts per collection")
	fmt.Println("  export [--mode m] [--out f]      Write a backup (mode: full, text, media)")
	fmt.Println("         [--seal]                  Encrypt the backup with the configured passphrase")
	fmt.Println("  import <file> [--keep-local]     Restore a backup (sealed files are detected)")
	fmt.Println("  due <char-id>                    List scheduled messages that are due")
	fmt.Println("  dispatch [--once]                Deliver due scheduled messages")
	fmt.Println("  push <file>                      Upload a backup to the remote target")
	fmt.Println("  pull <name> [--out f]            Download a backup from the remote target")
	fmt.Println("  remote-list                      List backups on the remote target")
	fmt.Println("  diaries <char-id> [--out f]      Render a character's diaries as HTML")
	fmt.Println("  version                          Print the version")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  CHATVAULT_CONFIG         Config file path (default: ~/.config/chatvault/config.yaml)")
	fmt.Println("  Variables in a .env file in the working directory are loaded first.")
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  chatvault export --mode text --out ~/backups/today.json")
	fmt.Println("  chatvault import ~/backups/today.json --keep-local")
	fmt.Println("  chatvault dispatch --once")
	fmt.Println()
}

// app carries the loaded configuration shared by every command.
type app struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
}

// newApp loads the config file, falling back to defaults when none exists,
// and installs the configured logger as the process default.
func newApp() (*app, error) {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg = config.Default()
		cfg.Database.Path = filepath.Join(getDataPath(), "chatvault.db")
	case err != nil:
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg.Database.Path = expandHome(cfg.Database.Path)
	cfg.Backup.Dir = expandHome(cfg.Backup.Dir)

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	return &app{configPath: configPath, cfg: cfg, logger: logger}, nil
}

// openStore opens the store at the configured path and schema version.
func (a *app) openStore() (*store.SQLiteStore, error) {
	return store.Open(a.cfg.Database.Path, a.cfg.StoreVersion())
}
