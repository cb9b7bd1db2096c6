// ABOUTME: One-time upgrade of older backup shapes before the importer sees them
// ABOUTME: Assigns uncategorized emoji to the default category and lifts nested character media

package backup

import (
	"encoding/json"
	"fmt"

	"github.com/2389/chatvault/internal/store"
)

// DefaultEmojiCategory is created when legacy emoji are upgraded.
var DefaultEmojiCategory = store.EmojiCategory{ID: store.DefaultEmojiCategoryID, Name: "Default"}

// legacyMedia is the per-character media object older backups nested under
// each character instead of the mediaAssets side array.
type legacyMedia struct {
	Avatar         string            `json:"avatar"`
	Background     string            `json:"background"`
	ChatBackground string            `json:"chatBackground"`
	Sprites        map[string]string `json:"sprites"`
	RoomItems      map[string]string `json:"roomItems"`
}

// upgradeLegacy rewrites legacy fields in place. Detection relies on newer
// fields being absent.
func upgradeLegacy(fields map[string]json.RawMessage) error {
	if err := upgradeEmoji(fields); err != nil {
		return fmt.Errorf("upgrading emoji: %w", err)
	}
	if err := upgradeCharacterMedia(fields); err != nil {
		return fmt.Errorf("upgrading character media: %w", err)
	}
	return nil
}

func upgradeEmoji(fields map[string]json.RawMessage) error {
	raw, ok := fields["emoji"]
	if !ok {
		return nil
	}
	if _, ok := fields["emojiCategories"]; ok {
		return nil
	}

	var emoji []store.Emoji
	if err := json.Unmarshal(raw, &emoji); err != nil {
		return err
	}

	assigned := 0
	for i := range emoji {
		if emoji[i].CategoryID == "" {
			emoji[i].CategoryID = store.DefaultEmojiCategoryID
			assigned++
		}
	}
	if assigned == 0 {
		return nil
	}

	encoded, err := json.Marshal(emoji)
	if err != nil {
		return err
	}
	categories, err := json.Marshal([]store.EmojiCategory{DefaultEmojiCategory})
	if err != nil {
		return err
	}
	fields["emoji"] = encoded
	fields["emojiCategories"] = categories
	return nil
}

func upgradeCharacterMedia(fields map[string]json.RawMessage) error {
	raw, ok := fields["characters"]
	if !ok {
		return nil
	}
	if _, ok := fields["mediaAssets"]; ok {
		return nil
	}

	var chars []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &chars); err != nil {
		return err
	}

	var entries []MediaAssetEntry
	for _, c := range chars {
		mediaRaw, ok := c["media"]
		if !ok {
			continue
		}
		delete(c, "media")

		var id string
		if err := json.Unmarshal(c["id"], &id); err != nil {
			return fmt.Errorf("character without id: %w", err)
		}
		var media legacyMedia
		if err := json.Unmarshal(mediaRaw, &media); err != nil {
			return fmt.Errorf("character %s: %w", id, err)
		}

		entry := MediaAssetEntry{
			CharID:         id,
			Avatar:         media.Avatar,
			ChatBackground: media.ChatBackground,
			Sprites:        media.Sprites,
			RoomItems:      media.RoomItems,
		}
		if entry.ChatBackground == "" {
			entry.ChatBackground = media.Background
		}
		if !entry.empty() {
			entries = append(entries, entry)
		}
	}
	if entries == nil {
		return nil
	}

	encodedChars, err := json.Marshal(chars)
	if err != nil {
		return err
	}
	encodedEntries, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	fields["characters"] = encodedChars
	fields["mediaAssets"] = encodedEntries
	return nil
}
