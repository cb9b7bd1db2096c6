// ABOUTME: Snapshot export builder that reads every collection through the store accessors
// ABOUTME: Read-only; each collection is its own short read and the result depends on the export mode

package backup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2389/chatvault/internal/store"
)

// ExportOptions controls an export.
type ExportOptions struct {
	Mode Mode
	// Now stamps the snapshot. Defaults to time.Now.
	Now func() time.Time
}

// reader accumulates the first error across a sequence of collection reads.
// Collections newer than the store's schema version read as absent.
type reader struct {
	ctx     context.Context
	version int
	err     error
}

func (r *reader) skip(name string) bool {
	if r.err != nil {
		return true
	}
	def, ok := store.Lookup(name)
	return !ok || def.Since > r.version
}

func readAll[T any](r *reader, name string, get func(context.Context) ([]T, error)) []T {
	if r.skip(name) {
		return nil
	}
	out, err := get(r.ctx)
	if err != nil {
		r.err = fmt.Errorf("exporting %s: %w", name, err)
		return nil
	}
	return out
}

func readOne[T any](r *reader, name string, get func(context.Context) (*T, error)) *T {
	if r.skip(name) {
		return nil
	}
	out, err := get(r.ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		r.err = fmt.Errorf("exporting %s: %w", name, err)
		return nil
	}
	return out
}

// Export builds a snapshot of src at the schema version src was opened at.
// It never writes to the store.
func Export(ctx context.Context, src store.Accessor, opts ExportOptions) (*Snapshot, error) {
	mode, err := ParseMode(string(opts.Mode))
	if err != nil {
		return nil, err
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	snap := &Snapshot{
		Timestamp: now().UnixMilli(),
		Version:   src.SchemaVersion(),
		Mode:      mode,
	}
	r := &reader{ctx: ctx, version: src.SchemaVersion()}

	chars := readAll(r, store.CollectionCharacters, src.Characters().GetAll)

	if mode != ModeText {
		snap.Themes = readAll(r, store.CollectionThemes, src.Themes().GetAll)
		snap.Emoji = readAll(r, store.CollectionEmoji, src.Emoji().GetAll)
		snap.EmojiCategories = readAll(r, store.CollectionEmojiCategories, src.EmojiCategories().GetAll)
		snap.Assets = readAll(r, store.CollectionAssets, src.Assets().GetAll)
		snap.Gallery = readAll(r, store.CollectionGallery, src.Gallery().GetAll)
		snap.JournalStickers = readAll(r, store.CollectionJournalStickers, src.JournalStickers().GetAll)
		if !r.skip(store.CollectionAssets) {
			snap.MediaAssets, r.err = CollectMediaAssets(ctx, src.Assets(), chars)
		}
	}

	if mode != ModeMedia {
		switch mode {
		case ModeText:
			snap.Characters = make([]store.Character, 0, len(chars))
			for _, c := range chars {
				snap.Characters = append(snap.Characters, stripMedia(c))
			}
		default:
			snap.Characters = chars
		}

		snap.Messages = readAll(r, store.CollectionMessages, src.Messages().GetAll)
		snap.ScheduledMessages = readAll(r, store.CollectionScheduledMessages, src.Scheduled().GetAll)
		snap.UserProfile = readOne(r, store.CollectionUserProfiles, src.UserProfile().Get)
		snap.Diaries = readAll(r, store.CollectionDiaries, src.Diaries().GetAll)
		snap.Tasks = readAll(r, store.CollectionTasks, src.Tasks().GetAll)
		snap.Anniversaries = readAll(r, store.CollectionAnniversaries, src.Anniversaries().GetAll)
		snap.RoomTodos = readAll(r, store.CollectionRoomTodos, src.RoomTodos().GetAll)
		snap.RoomNotes = readAll(r, store.CollectionRoomNotes, src.RoomNotes().GetAll)
		snap.Groups = readAll(r, store.CollectionGroups, src.Groups().GetAll)
		snap.SocialPosts = readAll(r, store.CollectionSocialPosts, src.SocialPosts().GetAll)
		snap.Courses = readAll(r, store.CollectionCourses, src.Courses().GetAll)
		snap.Games = readAll(r, store.CollectionGames, src.Games().GetAll)
		snap.Worldbooks = readAll(r, store.CollectionWorldbooks, src.Worldbooks().GetAll)
		snap.Novels = readAll(r, store.CollectionNovels, src.Novels().GetAll)
		snap.BankTransactions = readAll(r, store.CollectionBankTransactions, src.BankTransactions().GetAll)
		snap.BankState = readOne(r, store.CollectionBankStates, src.BankState().Get)
	}

	if r.err != nil {
		return nil, r.err
	}
	return snap, nil
}
