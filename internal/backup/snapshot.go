// ABOUTME: Portable snapshot document written by export and read by import
// ABOUTME: One field per collection; absent fields mean the collection was not exported

package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/2389/chatvault/internal/store"
)

// ErrUnrecognizedBackup is returned when input is not a snapshot document.
var ErrUnrecognizedBackup = errors.New("not a recognized backup")

// Mode selects which collections an export carries.
type Mode string

const (
	// ModeFull carries every collection with inline character images plus mediaAssets.
	ModeFull Mode = "full"
	// ModeText carries every collection except images, with characters stripped of media.
	ModeText Mode = "text"
	// ModeMedia carries only image and theme data plus mediaAssets.
	ModeMedia Mode = "media"
)

// ParseMode parses a mode name. An empty name means ModeFull.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeFull:
		return ModeFull, nil
	case ModeText:
		return ModeText, nil
	case ModeMedia:
		return ModeMedia, nil
	}
	return "", fmt.Errorf("unknown export mode %q (want full, text or media)", s)
}

// Snapshot is the backup document. A nil slice or pointer means the
// collection is absent; an empty slice means it was exported empty.
type Snapshot struct {
	Timestamp int64 `json:"timestamp"`
	Version   int   `json:"version"`
	Mode      Mode  `json:"mode,omitempty"`

	Characters        []store.Character        `json:"characters,omitzero"`
	Messages          []store.Message          `json:"messages,omitzero"`
	Emoji             []store.Emoji            `json:"emoji,omitzero"`
	EmojiCategories   []store.EmojiCategory    `json:"emojiCategories,omitzero"`
	Themes            []store.Theme            `json:"themes,omitzero"`
	Assets            []store.Asset            `json:"assets,omitzero"`
	ScheduledMessages []store.ScheduledMessage `json:"scheduledMessages,omitzero"`
	Gallery           []store.GalleryImage     `json:"gallery,omitzero"`
	UserProfile       *store.UserProfile       `json:"userProfile,omitempty"`
	Diaries           []store.Diary            `json:"diaries,omitzero"`
	Tasks             []store.Task             `json:"tasks,omitzero"`
	Anniversaries     []store.Anniversary      `json:"anniversaries,omitzero"`
	RoomTodos         []store.RoomTodo         `json:"roomTodos,omitzero"`
	RoomNotes         []store.RoomNote         `json:"roomNotes,omitzero"`
	Groups            []store.Group            `json:"groups,omitzero"`
	JournalStickers   []store.JournalSticker   `json:"journalStickers,omitzero"`
	SocialPosts       []store.SocialPost       `json:"socialPosts,omitzero"`
	Courses           []store.Course           `json:"courses,omitzero"`
	Games             []store.Game             `json:"games,omitzero"`
	Worldbooks        []store.Worldbook        `json:"worldbooks,omitzero"`
	Novels            []store.Novel            `json:"novels,omitzero"`
	BankTransactions  []store.BankTransaction  `json:"bankTransactions,omitzero"`
	BankState         *store.BankState         `json:"bankState,omitempty"`

	MediaAssets []MediaAssetEntry `json:"mediaAssets,omitzero"`
}

// documentFields are the top-level keys that identify a snapshot.
var documentFields = []string{
	"timestamp", "version",
	"characters", "messages", "emoji", "emojiCategories", "themes", "assets",
	"scheduledMessages", "gallery", "userProfile", "diaries", "tasks",
	"anniversaries", "roomTodos", "roomNotes", "groups", "journalStickers",
	"socialPosts", "courses", "games", "worldbooks", "novels",
	"bankTransactions", "bankState", "mediaAssets",
}

// Encode writes the snapshot as JSON.
func Encode(w io.Writer, snap *Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return nil
}

// Decode reads a snapshot from r. See Parse.
func Decode(r io.Reader) (*Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	return Parse(data)
}

// Parse decodes a snapshot document, upgrading legacy shapes to the current
// one. Input that is not a JSON object carrying at least one snapshot field
// fails with ErrUnrecognizedBackup.
func Parse(data []byte) (*Snapshot, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, ErrUnrecognizedBackup
	}

	recognized := false
	for _, name := range documentFields {
		if _, ok := fields[name]; ok {
			recognized = true
			break
		}
	}
	if !recognized {
		return nil, ErrUnrecognizedBackup
	}

	if err := upgradeLegacy(fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnrecognizedBackup, err)
	}

	var upgraded bytes.Buffer
	enc := json.NewEncoder(&upgraded)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(fields); err != nil {
		return nil, fmt.Errorf("re-encoding snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(upgraded.Bytes(), &snap); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnrecognizedBackup, err)
	}
	return &snap, nil
}

// Collections returns the names of the collections present in the snapshot.
func (s *Snapshot) Collections() []string {
	var names []string
	add := func(present bool, name string) {
		if present {
			names = append(names, name)
		}
	}
	add(s.Characters != nil, store.CollectionCharacters)
	add(s.Messages != nil, store.CollectionMessages)
	add(s.Emoji != nil, store.CollectionEmoji)
	add(s.EmojiCategories != nil, store.CollectionEmojiCategories)
	add(s.Themes != nil, store.CollectionThemes)
	add(s.Assets != nil, store.CollectionAssets)
	add(s.ScheduledMessages != nil, store.CollectionScheduledMessages)
	add(s.Gallery != nil, store.CollectionGallery)
	add(s.UserProfile != nil, store.CollectionUserProfiles)
	add(s.Diaries != nil, store.CollectionDiaries)
	add(s.Tasks != nil, store.CollectionTasks)
	add(s.Anniversaries != nil, store.CollectionAnniversaries)
	add(s.RoomTodos != nil, store.CollectionRoomTodos)
	add(s.RoomNotes != nil, store.CollectionRoomNotes)
	add(s.Groups != nil, store.CollectionGroups)
	add(s.JournalStickers != nil, store.CollectionJournalStickers)
	add(s.SocialPosts != nil, store.CollectionSocialPosts)
	add(s.Courses != nil, store.CollectionCourses)
	add(s.Games != nil, store.CollectionGames)
	add(s.Worldbooks != nil, store.CollectionWorldbooks)
	add(s.Novels != nil, store.CollectionNovels)
	add(s.BankTransactions != nil, store.CollectionBankTransactions)
	add(s.BankState != nil, store.CollectionBankStates)
	return names
}
