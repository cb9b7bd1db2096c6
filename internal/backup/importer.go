// ABOUTME: Import merger applying a snapshot to the store inside one transaction
// ABOUTME: Chooses full replace, merge, singleton overwrite or message append per collection

package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/2389/chatvault/internal/store"
)

// MergeMode is how a collection was applied.
type MergeMode string

const (
	// MergeReplace cleared the collection before inserting.
	MergeReplace MergeMode = "replace"
	// MergeUpsert inserted or overwrote by key without clearing.
	MergeUpsert MergeMode = "upsert"
	// MergeOverwrite replaced a singleton record.
	MergeOverwrite MergeMode = "overwrite"
	// MergeAppend added messages without clearing, re-keying id collisions.
	MergeAppend MergeMode = "append"
	// MergePatch updated the image fields of stored characters.
	MergePatch MergeMode = "patch"
)

// ImportOptions controls an import.
type ImportOptions struct {
	// KeepLocal upserts collections that would otherwise be replaced, keeping
	// records created locally since the backup was taken.
	KeepLocal bool
}

// CollectionResult reports what happened to one collection.
type CollectionResult struct {
	Collection string
	Mode       MergeMode
	Count      int
}

// ImportResult reports every collection the import touched, in apply order.
type ImportResult struct {
	Collections []CollectionResult
}

// Get returns the result for a collection.
func (r *ImportResult) Get(name string) (CollectionResult, bool) {
	for _, c := range r.Collections {
		if c.Collection == name {
			return c, true
		}
	}
	return CollectionResult{}, false
}

// Total returns the number of records written.
func (r *ImportResult) Total() int {
	n := 0
	for _, c := range r.Collections {
		n += c.Count
	}
	return n
}

func (r *ImportResult) add(name string, mode MergeMode, count int) {
	r.Collections = append(r.Collections, CollectionResult{Collection: name, Mode: mode, Count: count})
}

// Importer applies snapshots to a store.
type Importer struct {
	store  store.Updater
	logger *slog.Logger
}

// NewImporter creates an importer writing to s.
func NewImporter(s store.Updater) *Importer {
	return &Importer{
		store:  s,
		logger: slog.Default().With("component", "importer"),
	}
}

// Import applies doc. Every write happens in one transaction: either the
// whole snapshot lands or nothing does.
func (im *Importer) Import(ctx context.Context, doc *Snapshot, opts ImportOptions) (*ImportResult, error) {
	if doc == nil {
		return nil, ErrUnrecognizedBackup
	}

	var result *ImportResult
	err := im.store.Update(ctx, func(tx *store.Tx) error {
		result = &ImportResult{}
		return im.apply(ctx, tx, doc, opts, result)
	})
	if err != nil {
		return nil, fmt.Errorf("importing snapshot: %w", err)
	}

	for _, c := range result.Collections {
		im.logger.Debug("collection imported", "collection", c.Collection, "mode", c.Mode, "count", c.Count)
	}
	im.logger.Info("snapshot imported",
		"collections", len(result.Collections),
		"records", result.Total(),
		"mode", doc.Mode,
		"keep_local", opts.KeepLocal,
	)
	return result, nil
}

func (im *Importer) apply(ctx context.Context, tx *store.Tx, doc *Snapshot, opts ImportOptions, res *ImportResult) error {
	keep := opts.KeepLocal

	if err := im.applyCharacters(ctx, tx, doc, keep, res); err != nil {
		return err
	}
	if err := im.applyMessages(ctx, tx, doc, keep, res); err != nil {
		return err
	}

	// Replaced unless KeepLocal.
	steps := []func() error{
		func() error { return replace(ctx, res, tx.Scheduled().Collection, doc.ScheduledMessages, keep) },
		func() error { return replace(ctx, res, tx.Gallery(), doc.Gallery, keep) },
		func() error { return replace(ctx, res, tx.Diaries(), doc.Diaries, keep) },
		func() error { return replace(ctx, res, tx.Tasks(), doc.Tasks, keep) },
		func() error { return replace(ctx, res, tx.Anniversaries(), doc.Anniversaries, keep) },
		func() error { return replace(ctx, res, tx.RoomTodos(), doc.RoomTodos, keep) },
		func() error { return replace(ctx, res, tx.RoomNotes(), doc.RoomNotes, keep) },
		func() error { return replace(ctx, res, tx.Groups(), doc.Groups, keep) },
		func() error { return replace(ctx, res, tx.SocialPosts(), doc.SocialPosts, keep) },
		func() error { return replace(ctx, res, tx.Courses(), doc.Courses, keep) },
		func() error { return replace(ctx, res, tx.Games(), doc.Games, keep) },
		func() error { return replace(ctx, res, tx.Worldbooks(), doc.Worldbooks, keep) },
		func() error { return replace(ctx, res, tx.Novels(), doc.Novels, keep) },
		func() error { return replace(ctx, res, tx.BankTransactions(), doc.BankTransactions, keep) },

		// Library collections are always merged.
		func() error { return upsert(ctx, res, tx.Themes(), doc.Themes) },
		func() error { return upsert(ctx, res, tx.EmojiCategories().Collection, doc.EmojiCategories) },
		func() error { return upsert(ctx, res, tx.Emoji().Collection, doc.Emoji) },
		func() error { return upsert(ctx, res, tx.Assets(), mergedAssets(doc)) },
		func() error { return upsert(ctx, res, tx.JournalStickers(), doc.JournalStickers) },

		func() error { return overwrite(ctx, res, tx.UserProfile(), store.CollectionUserProfiles, doc.UserProfile) },
		func() error { return overwrite(ctx, res, tx.BankState(), store.CollectionBankStates, doc.BankState) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// applyCharacters replaces characters when the snapshot has them. A snapshot
// with only mediaAssets patches the stored characters instead.
func (im *Importer) applyCharacters(ctx context.Context, tx *store.Tx, doc *Snapshot, keep bool, res *ImportResult) error {
	chars := tx.Characters()

	if doc.Characters == nil {
		if doc.MediaAssets == nil {
			return nil
		}
		stored, err := chars.GetAll(ctx)
		if err != nil {
			return fmt.Errorf("reading characters: %w", err)
		}
		matched := make(map[string]bool, len(doc.MediaAssets))
		for _, e := range doc.MediaAssets {
			matched[e.CharID] = true
		}
		patched := ApplyMediaAssets(stored, doc.MediaAssets)
		n := 0
		for i := range patched {
			if !matched[patched[i].ID] {
				continue
			}
			if err := chars.Put(ctx, &patched[i]); err != nil {
				return fmt.Errorf("patching character %s: %w", patched[i].ID, err)
			}
			n++
		}
		res.add(store.CollectionCharacters, MergePatch, n)
		return nil
	}

	incoming := doc.Characters
	if doc.Mode == ModeText {
		// Text backups carry no images; keep the ones already stored.
		stored, err := chars.GetAll(ctx)
		if err != nil {
			return fmt.Errorf("reading characters: %w", err)
		}
		prev := make(map[string]store.Character, len(stored))
		for _, c := range stored {
			prev[c.ID] = c
		}
		carried := make([]store.Character, len(incoming))
		for i, c := range incoming {
			if p, ok := prev[c.ID]; ok {
				c = carryMedia(c, p)
			}
			carried[i] = c
		}
		incoming = carried
	}
	if doc.MediaAssets != nil {
		incoming = ApplyMediaAssets(incoming, doc.MediaAssets)
	}

	return replace(ctx, res, chars, incoming, keep)
}

// applyMessages restores messages wholesale when the snapshot also carries
// characters. A messages-only snapshot is appended without clearing.
func (im *Importer) applyMessages(ctx context.Context, tx *store.Tx, doc *Snapshot, keep bool, res *ImportResult) error {
	if doc.Messages == nil {
		return nil
	}
	msgs := tx.Messages()

	if doc.Characters != nil && !keep {
		return replace(ctx, res, msgs.Collection, doc.Messages, false)
	}

	n := 0
	for _, m := range doc.Messages {
		if m.ID != 0 {
			existing, err := msgs.Get(ctx, m.ID)
			switch {
			case errors.Is(err, store.ErrNotFound):
			case err != nil:
				return fmt.Errorf("checking message %d: %w", m.ID, err)
			case existing.Owner() != m.Owner():
				// The id belongs to someone else's conversation here.
				m.ID = 0
			}
		}
		if err := msgs.Put(ctx, &m); err != nil {
			return fmt.Errorf("appending message: %w", err)
		}
		n++
	}
	res.add(store.CollectionMessages, MergeAppend, n)
	return nil
}

func replace[K store.Key, T any](ctx context.Context, res *ImportResult, c *store.Collection[K, T], recs []T, keep bool) error {
	if recs == nil {
		return nil
	}
	name := c.Def().Name
	mode := MergeReplace
	if keep {
		mode = MergeUpsert
	} else if err := c.Clear(ctx); err != nil {
		return err
	}

	for i := range recs {
		if err := c.Put(ctx, &recs[i]); err != nil {
			return fmt.Errorf("importing %s: %w", name, err)
		}
	}
	res.add(name, mode, len(recs))
	return nil
}

func upsert[K store.Key, T any](ctx context.Context, res *ImportResult, c *store.Collection[K, T], recs []T) error {
	if recs == nil {
		return nil
	}
	name := c.Def().Name
	for i := range recs {
		if err := c.Put(ctx, &recs[i]); err != nil {
			return fmt.Errorf("importing %s: %w", name, err)
		}
	}
	res.add(name, MergeUpsert, len(recs))
	return nil
}

func overwrite[T any](ctx context.Context, res *ImportResult, s *store.Singleton[T], name string, rec *T) error {
	if rec == nil {
		return nil
	}
	if err := s.Put(ctx, rec); err != nil {
		return fmt.Errorf("importing %s: %w", name, err)
	}
	res.add(name, MergeOverwrite, 1)
	return nil
}

// mergedAssets combines the assets collection with the assets carried by
// mediaAssets entries. Nil when the snapshot carries neither.
func mergedAssets(doc *Snapshot) []store.Asset {
	carried := entryAssets(doc.MediaAssets)
	if doc.Assets == nil && carried == nil {
		return nil
	}
	out := make([]store.Asset, 0, len(doc.Assets)+len(carried))
	out = append(out, doc.Assets...)
	return append(out, carried...)
}
