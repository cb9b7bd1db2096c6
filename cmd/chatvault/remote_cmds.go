// ABOUTME: Remote backup commands for the chatvault CLI: push, pull and remote-list
// ABOUTME: Moves backup files to and from the configured S3-compatible bucket

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/2389/chatvault/internal/remote"
)

func (a *app) remoteClient(ctx context.Context) (*remote.Client, error) {
	if !a.cfg.Remote.Enabled {
		return nil, remote.ErrNotConfigured
	}
	c, err := remote.New(remote.Config{
		Endpoint:  a.cfg.Remote.Endpoint,
		AccessKey: a.cfg.Remote.AccessKey,
		SecretKey: a.cfg.Remote.SecretKey,
		Bucket:    a.cfg.Remote.Bucket,
		UseSSL:    a.cfg.Remote.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (a *app) cmdPush(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: push <file>")
	}
	path := expandHome(args[0])

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	// Refuse to upload something import would reject.
	if _, err := a.decodeBackup(data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	c, err := a.remoteClient(ctx)
	if err != nil {
		return err
	}
	key, err := c.Push(ctx, filepath.Base(path), data)
	if err != nil {
		return err
	}

	color.New(color.FgGreen).Printf("✓ Pushed %s\n", key)
	fmt.Printf("  Size: %s\n", humanize.Bytes(uint64(len(data))))
	return nil
}

func (a *app) cmdPull(ctx context.Context, args []string) error {
	var name, out string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--out", "-o":
			if i+1 < len(args) {
				out = args[i+1]
				i++
			}
		default:
			if name == "" {
				name = args[i]
			}
		}
	}
	if name == "" {
		return fmt.Errorf("usage: pull <name> [--out file]")
	}
	if out == "" {
		out = filepath.Join(a.cfg.Backup.Dir, filepath.Base(name))
	}
	out = expandHome(out)

	c, err := a.remoteClient(ctx)
	if err != nil {
		return err
	}
	data, err := c.Pull(ctx, name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("creating backup directory: %w", err)
	}
	if err := os.WriteFile(out, data, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}

	color.New(color.FgGreen).Printf("✓ Pulled %s\n", name)
	fmt.Printf("  File: %s\n", out)
	fmt.Printf("  Size: %s\n", humanize.Bytes(uint64(len(data))))
	return nil
}

func (a *app) cmdRemoteList(ctx context.Context) error {
	c, err := a.remoteClient(ctx)
	if err != nil {
		return err
	}
	objs, err := c.List(ctx)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Printf("  Remote backups (%s)\n", a.cfg.Remote.Bucket)
	cyan.Println("  ----------------")

	if len(objs) == 0 {
		fmt.Println("  (no backups)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  NAME\tSIZE\tMODIFIED")
	fmt.Fprintln(w, "  ----\t----\t--------")
	for _, o := range objs {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", o.Name, humanize.Bytes(uint64(o.Size)), humanize.Time(o.Modified))
	}
	w.Flush()
	fmt.Println()
	return nil
}
