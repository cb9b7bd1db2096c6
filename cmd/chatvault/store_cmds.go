// ABOUTME: Store commands for the chatvault CLI: migrate, stats, due, dispatch and diaries
// ABOUTME: Each command opens the store at the configured schema version and closes it on return

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/2389/chatvault/internal/dedupe"
	"github.com/2389/chatvault/internal/render"
	"github.com/2389/chatvault/internal/scheduler"
	"github.com/2389/chatvault/internal/store"
)

// dedupeMaxSize caps the dispatcher's claim cache.
const dedupeMaxSize = 10_000

func (a *app) cmdMigrate(ctx context.Context) error {
	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	v, err := s.Version(ctx)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Printf("✓ Store at schema version %d\n", v)
	fmt.Printf("  Path: %s\n", s.Path())
	return nil
}

// collectionCount is one row of the stats table.
type collectionCount struct {
	name  string
	count func(context.Context) (int, error)
}

func singletonCount[T any](get func(context.Context) (*T, error)) func(context.Context) (int, error) {
	return func(ctx context.Context) (int, error) {
		_, err := get(ctx)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return 0, nil
		case err != nil:
			return 0, err
		}
		return 1, nil
	}
}

func collectionCounts(acc store.Accessor) []collectionCount {
	return []collectionCount{
		{store.CollectionCharacters, acc.Characters().Count},
		{store.CollectionMessages, acc.Messages().Count},
		{store.CollectionEmoji, acc.Emoji().Count},
		{store.CollectionEmojiCategories, acc.EmojiCategories().Count},
		{store.CollectionThemes, acc.Themes().Count},
		{store.CollectionAssets, acc.Assets().Count},
		{store.CollectionScheduledMessages, acc.Scheduled().Count},
		{store.CollectionGallery, acc.Gallery().Count},
		{store.CollectionUserProfiles, singletonCount(acc.UserProfile().Get)},
		{store.CollectionDiaries, acc.Diaries().Count},
		{store.CollectionTasks, acc.Tasks().Count},
		{store.CollectionAnniversaries, acc.Anniversaries().Count},
		{store.CollectionRoomTodos, acc.RoomTodos().Count},
		{store.CollectionRoomNotes, acc.RoomNotes().Count},
		{store.CollectionGroups, acc.Groups().Count},
		{store.CollectionJournalStickers, acc.JournalStickers().Count},
		{store.CollectionSocialPosts, acc.SocialPosts().Count},
		{store.CollectionCourses, acc.Courses().Count},
		{store.CollectionGames, acc.Games().Count},
		{store.CollectionWorldbooks, acc.Worldbooks().Count},
		{store.CollectionNovels, acc.Novels().Count},
		{store.CollectionBankTransactions, acc.BankTransactions().Count},
		{store.CollectionBankStates, singletonCount(acc.BankState().Get)},
	}
}

func (a *app) cmdStats(ctx context.Context) error {
	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	v, err := s.Version(ctx)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Printf("  %s (schema v%d)\n", s.Path(), v)
	cyan.Println("  ----------------")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  COLLECTION\tRECORDS")
	fmt.Fprintln(w, "  ----------\t-------")
	total := 0
	for _, c := range collectionCounts(s) {
		def, ok := store.Lookup(c.name)
		if ok && def.Since > v {
			fmt.Fprintf(w, "  %s\t(needs v%d)\n", c.name, def.Since)
			continue
		}
		n, err := c.count(ctx)
		if err != nil {
			return fmt.Errorf("counting %s: %w", c.name, err)
		}
		total += n
		fmt.Fprintf(w, "  %s\t%d\n", c.name, n)
	}
	fmt.Fprintf(w, "  %s\t%d\n", "total", total)
	w.Flush()
	fmt.Println()
	return nil
}

func (a *app) cmdDue(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: due <char-id>")
	}
	charID := args[0]

	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	due, err := s.Scheduled().GetDue(ctx, charID, time.Now())
	if err != nil {
		return err
	}

	if len(due) == 0 {
		fmt.Println("  (nothing due)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tDUE\tCONTENT")
	fmt.Fprintln(w, "  --\t---\t-------")
	for _, item := range due {
		dueAt := time.UnixMilli(item.DueAt).Format("Jan 02 15:04")
		fmt.Fprintf(w, "  %s\t%s\t%s\n", truncate(item.ID, 12), dueAt, truncate(item.Content, 48))
	}
	w.Flush()
	return nil
}

func (a *app) cmdDispatch(ctx context.Context, args []string) error {
	once := false
	for _, arg := range args {
		if arg == "--once" {
			once = true
		}
	}

	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	claims := dedupe.New(a.cfg.Scheduler.DedupeTTL, dedupeMaxSize)
	defer claims.Close()

	d := scheduler.New(s, claims)

	if once {
		res, err := d.RunOnce(ctx, time.Now())
		green := color.New(color.FgGreen)
		green.Printf("✓ Delivered %d", res.Delivered)
		fmt.Printf(" (skipped %d, failed %d)\n", res.Skipped, res.Failed)
		return err
	}

	if err := d.Start(ctx, a.cfg.Scheduler.Spec); err != nil {
		return err
	}
	a.logger.Info("dispatching scheduled messages", "spec", a.cfg.Scheduler.Spec, "db", s.Path())

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	d.Stop(stopCtx)
	return nil
}

func (a *app) cmdDiaries(ctx context.Context, args []string) error {
	var charID, out string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--out", "-o":
			if i+1 < len(args) {
				out = args[i+1]
				i++
			}
		default:
			if charID == "" {
				charID = args[i]
			}
		}
	}
	if charID == "" {
		return fmt.Errorf("usage: diaries <char-id> [--out file]")
	}

	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	c, err := s.Characters().Get(ctx, charID)
	if err != nil {
		return fmt.Errorf("loading character %s: %w", charID, err)
	}
	diaries, err := s.Diaries().GetAllByIndex(ctx, "charId", charID)
	if err != nil {
		return fmt.Errorf("loading diaries: %w", err)
	}

	var page bytes.Buffer
	if err := render.Diaries(&page, *c, diaries); err != nil {
		return err
	}

	if out == "" {
		_, err := os.Stdout.Write(page.Bytes())
		return err
	}
	if err := os.WriteFile(expandHome(out), page.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	color.New(color.FgGreen).Printf("✓ Wrote %d diaries to %s\n", len(diaries), out)
	return nil
}

// truncate shortens s to maxLen runes, ending in "..." when cut.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
