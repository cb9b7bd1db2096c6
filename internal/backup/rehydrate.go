// ABOUTME: Asset rehydration between character records and the mediaAssets side array
// ABOUTME: Collects per-character images with their referenced assets and applies them back on import

package backup

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/2389/chatvault/internal/store"
)

// MediaAssetEntry carries one character's images. Assets holds every asset
// the images reference so the entry can be restored on its own.
type MediaAssetEntry struct {
	CharID         string            `json:"charId"`
	Avatar         string            `json:"avatar,omitempty"`
	ChatBackground string            `json:"chatBackground,omitempty"`
	Sprites        map[string]string `json:"sprites,omitempty"`
	RoomItems      map[string]string `json:"roomItems,omitempty"` // room item id -> image
	Assets         []store.Asset     `json:"assets,omitempty"`
}

func (e MediaAssetEntry) empty() bool {
	return e.Avatar == "" && e.ChatBackground == "" && len(e.Sprites) == 0 && len(e.RoomItems) == 0
}

func (e MediaAssetEntry) images() []string {
	out := []string{e.Avatar, e.ChatBackground}
	for _, img := range e.Sprites {
		out = append(out, img)
	}
	for _, img := range e.RoomItems {
		out = append(out, img)
	}
	return out
}

// AssetSource resolves asset references.
type AssetSource interface {
	Get(ctx context.Context, id string) (*store.Asset, error)
}

// CollectMediaAssets builds one entry per character that has any image.
// Asset references are resolved from assets; references to missing assets
// are kept as-is without a payload.
func CollectMediaAssets(ctx context.Context, assets AssetSource, chars []store.Character) ([]MediaAssetEntry, error) {
	entries := []MediaAssetEntry{}
	for _, c := range chars {
		entry := MediaAssetEntry{
			CharID:         c.ID,
			Avatar:         c.Avatar,
			ChatBackground: c.ChatBackground,
		}
		if len(c.Sprites) > 0 {
			entry.Sprites = maps.Clone(c.Sprites)
		}
		if c.Room != nil {
			for _, item := range c.Room.Items {
				if item.Image == "" {
					continue
				}
				if entry.RoomItems == nil {
					entry.RoomItems = map[string]string{}
				}
				entry.RoomItems[item.ID] = item.Image
			}
		}
		if entry.empty() {
			continue
		}

		seen := map[string]bool{}
		for _, img := range entry.images() {
			id, ok := store.AssetRef(img)
			if !ok || seen[id] {
				continue
			}
			seen[id] = true

			asset, err := assets.Get(ctx, id)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("resolving asset %s for %s: %w", id, c.ID, err)
			}
			entry.Assets = append(entry.Assets, *asset)
		}
		slices.SortFunc(entry.Assets, func(a, b store.Asset) int {
			return cmp.Compare(a.ID, b.ID)
		})

		entries = append(entries, entry)
	}
	return entries, nil
}

// ApplyMediaAssets overwrites the image fields of each character that has a
// matching entry, using only the entry's non-empty fields. Characters without
// an entry pass through unchanged. The input slice is not modified.
func ApplyMediaAssets(chars []store.Character, entries []MediaAssetEntry) []store.Character {
	byChar := make(map[string]MediaAssetEntry, len(entries))
	for _, e := range entries {
		byChar[e.CharID] = e
	}

	out := make([]store.Character, len(chars))
	for i, c := range chars {
		e, ok := byChar[c.ID]
		if !ok {
			out[i] = c
			continue
		}

		if e.Avatar != "" {
			c.Avatar = e.Avatar
		}
		if e.ChatBackground != "" {
			c.ChatBackground = e.ChatBackground
		}
		if len(e.Sprites) > 0 {
			c.Sprites = maps.Clone(e.Sprites)
		}
		if len(e.RoomItems) > 0 && c.Room != nil {
			room := *c.Room
			room.Items = append([]store.RoomItem(nil), c.Room.Items...)
			for j, item := range room.Items {
				if img, ok := e.RoomItems[item.ID]; ok && img != "" {
					room.Items[j].Image = img
				}
			}
			c.Room = &room
		}
		out[i] = c
	}
	return out
}

// entryAssets gathers the assets carried by every entry.
func entryAssets(entries []MediaAssetEntry) []store.Asset {
	var out []store.Asset
	for _, e := range entries {
		out = append(out, e.Assets...)
	}
	return out
}

// stripMedia returns a copy of c without image fields.
func stripMedia(c store.Character) store.Character {
	c.Avatar = ""
	c.ChatBackground = ""
	c.Sprites = nil
	if c.Room != nil {
		room := *c.Room
		room.Items = append([]store.RoomItem(nil), c.Room.Items...)
		for j := range room.Items {
			room.Items[j].Image = ""
		}
		c.Room = &room
	}
	return c
}

// carryMedia fills c's empty image fields from prev.
func carryMedia(c, prev store.Character) store.Character {
	if c.Avatar == "" {
		c.Avatar = prev.Avatar
	}
	if c.ChatBackground == "" {
		c.ChatBackground = prev.ChatBackground
	}
	if len(c.Sprites) == 0 && len(prev.Sprites) > 0 {
		c.Sprites = maps.Clone(prev.Sprites)
	}
	if c.Room != nil && prev.Room != nil {
		prevImages := map[string]string{}
		for _, item := range prev.Room.Items {
			prevImages[item.ID] = item.Image
		}
		room := *c.Room
		room.Items = append([]store.RoomItem(nil), c.Room.Items...)
		for j, item := range room.Items {
			if item.Image == "" {
				room.Items[j].Image = prevImages[item.ID]
			}
		}
		c.Room = &room
	}
	return c
}
