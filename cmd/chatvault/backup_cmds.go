// ABOUTME: Backup commands for the chatvault CLI: export and import
// ABOUTME: Writes plain or sealed snapshot files and restores them in one transaction

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/2389/chatvault/internal/backup"
)

// backupFileName names an export written without --out.
func backupFileName(mode backup.Mode, at time.Time, sealed bool) string {
	ext := ".json"
	if sealed {
		ext = ".sealed"
	}
	return fmt.Sprintf("chatvault-%s-%s%s", mode, at.UTC().Format("20060102-150405"), ext)
}

func (a *app) cmdExport(ctx context.Context, args []string) error {
	modeName := a.cfg.Backup.Mode
	var out string
	seal := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--mode", "-m":
			if i+1 < len(args) {
				modeName = args[i+1]
				i++
			}
		case "--out", "-o":
			if i+1 < len(args) {
				out = args[i+1]
				i++
			}
		case "--seal":
			seal = true
		}
	}

	mode, err := backup.ParseMode(modeName)
	if err != nil {
		return err
	}
	if seal && a.cfg.Backup.Passphrase == "" {
		return fmt.Errorf("--seal needs backup.passphrase in the config")
	}

	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	now := time.Now()
	snap, err := backup.Export(ctx, s, backup.ExportOptions{Mode: mode, Now: func() time.Time { return now }})
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := backup.Encode(&buf, snap); err != nil {
		return err
	}
	data := buf.Bytes()
	if seal {
		data, err = backup.Seal(data, a.cfg.Backup.Passphrase)
		if err != nil {
			return err
		}
	}

	if out == "" {
		out = filepath.Join(a.cfg.Backup.Dir, backupFileName(mode, now, seal))
	}
	out = expandHome(out)
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("creating backup directory: %w", err)
	}
	if err := os.WriteFile(out, data, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}

	a.logger.Info("snapshot exported", "mode", mode, "collections", len(snap.Collections()), "bytes", len(data), "sealed", seal)

	green := color.New(color.FgGreen)
	green.Printf("✓ Exported %s backup\n", mode)
	fmt.Printf("  File:        %s\n", out)
	fmt.Printf("  Collections: %d\n", len(snap.Collections()))
	fmt.Printf("  Size:        %d bytes\n", len(data))
	return nil
}

// readBackup loads a backup file, unsealing it when needed.
func (a *app) readBackup(path string) (*backup.Snapshot, error) {
	data, err := os.ReadFile(expandHome(path))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return a.decodeBackup(data)
}

func (a *app) decodeBackup(data []byte) (*backup.Snapshot, error) {
	if backup.IsSealed(data) {
		if a.cfg.Backup.Passphrase == "" {
			return nil, fmt.Errorf("backup is sealed; set backup.passphrase in the config")
		}
		plain, err := backup.Unseal(data, a.cfg.Backup.Passphrase)
		if err != nil {
			return nil, err
		}
		data = plain
	}
	return backup.Parse(data)
}

func (a *app) cmdImport(ctx context.Context, args []string) error {
	var path string
	opts := backup.ImportOptions{}
	for _, arg := range args {
		switch arg {
		case "--keep-local":
			opts.KeepLocal = true
		default:
			if path == "" {
				path = arg
			}
		}
	}
	if path == "" {
		return fmt.Errorf("usage: import <file> [--keep-local]")
	}

	snap, err := a.readBackup(path)
	if err != nil {
		return err
	}

	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := backup.NewImporter(s).Import(ctx, snap, opts)
	if err != nil {
		return err
	}

	printImportResult(res)
	return nil
}

func printImportResult(res *backup.ImportResult) {
	green := color.New(color.FgGreen)
	green.Printf("✓ Imported %d records\n", res.Total())
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  COLLECTION\tMODE\tRECORDS")
	fmt.Fprintln(w, "  ----------\t----\t-------")
	for _, c := range res.Collections {
		fmt.Fprintf(w, "  %s\t%s\t%d\n", c.Collection, c.Mode, c.Count)
	}
	w.Flush()
	fmt.Println()
}
