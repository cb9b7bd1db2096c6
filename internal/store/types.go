// ABOUTME: Record types for every collection in the store
// ABOUTME: JSON field names double as the backup document's wire names

package store

import (
	"encoding/json"
	"strings"
)

// AssetRefPrefix marks an image field that points at a record in the assets collection.
const AssetRefPrefix = "asset:"

// AssetRef returns the asset id referenced by an image field, if any.
func AssetRef(image string) (string, bool) {
	if !strings.HasPrefix(image, AssetRefPrefix) {
		return "", false
	}
	id := strings.TrimPrefix(image, AssetRefPrefix)
	return id, id != ""
}

// Character is a roleplay persona. Its id is the foreign key every dependent
// collection uses. Image fields hold a data URI or an asset reference.
type Character struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Avatar            string             `json:"avatar,omitempty"`
	ChatBackground    string             `json:"chatBackground,omitempty"`
	Sprites           map[string]string  `json:"sprites,omitempty"`
	Persona           string             `json:"persona,omitempty"`
	WorldSetting      string             `json:"worldSetting,omitempty"`
	UserPersona       string             `json:"userPersona,omitempty"`
	Greeting          string             `json:"greeting,omitempty"`
	Memories          []MemoryFragment   `json:"memories,omitempty"`
	RefinedMemories   map[string]string  `json:"refinedMemories,omitempty"` // "YYYY-MM" -> summary
	MountedWorldbooks []MountedWorldbook `json:"mountedWorldbooks,omitempty"`
	ChatThemeID       string             `json:"chatThemeId,omitempty"`
	Room              *RoomLayout        `json:"room,omitempty"`
	Phone             json.RawMessage    `json:"phone,omitempty"`
	CreatedAt         int64              `json:"createdAt,omitempty"`
	UpdatedAt         int64              `json:"updatedAt,omitempty"`
}

// MemoryFragment is one remembered fact, kept in the order it was recorded.
type MemoryFragment struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"createdAt,omitempty"`
	Pinned    bool   `json:"pinned,omitempty"`
}

// MountedWorldbook is a copy of a worldbook taken when it was mounted. Later
// edits to the worldbook do not reach it.
type MountedWorldbook struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Category  string `json:"category,omitempty"`
	MountedAt int64  `json:"mountedAt,omitempty"`
}

// RoomLayout is a character's decorated room.
type RoomLayout struct {
	Wallpaper string     `json:"wallpaper,omitempty"`
	Items     []RoomItem `json:"items,omitempty"`
}

// RoomItem is one placed piece of furniture.
type RoomItem struct {
	ID    string  `json:"id"`
	Name  string  `json:"name,omitempty"`
	Image string  `json:"image,omitempty"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message belongs to exactly one of a character or a group. The store assigns
// ID on insert; ordering is ID order.
type Message struct {
	ID        int64    `json:"id"`
	CharID    string   `json:"charId,omitempty"`
	GroupID   string   `json:"groupId,omitempty"`
	SenderID  string   `json:"senderId,omitempty"`
	Role      string   `json:"role"`
	Type      string   `json:"type"`
	Content   string   `json:"content"`
	Timestamp int64    `json:"timestamp"`
	Metadata  Metadata `json:"-"`
}

// Owner returns the character or group the message belongs to.
func (m Message) Owner() string {
	if m.GroupID != "" {
		return "group:" + m.GroupID
	}
	return "char:" + m.CharID
}

// Group is a chat room. Member ids are not checked against characters.
type Group struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Avatar    string   `json:"avatar,omitempty"`
	Members   []string `json:"members"`
	CreatedAt int64    `json:"createdAt,omitempty"`
}

// DefaultEmojiCategoryID is the category legacy emoji are assigned to.
const DefaultEmojiCategoryID = "default"

// Emoji is keyed by name.
type Emoji struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	CategoryID string `json:"categoryId,omitempty"`
}

// EmojiCategory groups emoji. Deleting one deletes its emoji.
type EmojiCategory struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order,omitempty"`
}

// Theme is a chat bubble theme. The bubble payload belongs to the renderer.
type Theme struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Bubble    json.RawMessage `json:"bubble,omitempty"`
	CreatedAt int64           `json:"createdAt,omitempty"`
}

// Asset is a binary payload encoded as a data URI.
type Asset struct {
	ID        string `json:"id"`
	Data      string `json:"data"`
	MimeType  string `json:"mimeType,omitempty"`
	CreatedAt int64  `json:"createdAt,omitempty"`
}

// ScheduledMessage is a deferred outbound message.
type ScheduledMessage struct {
	ID        string `json:"id"`
	CharID    string `json:"charId"`
	Content   string `json:"content"`
	DueAt     int64  `json:"dueAt"` // unix milliseconds
	CreatedAt int64  `json:"createdAt,omitempty"`
}

// GalleryImage is a saved picture, optionally tied to a character.
type GalleryImage struct {
	ID        string `json:"id"`
	CharID    string `json:"charId,omitempty"`
	Image     string `json:"image"`
	Caption   string `json:"caption,omitempty"`
	CreatedAt int64  `json:"createdAt,omitempty"`
}

// UserProfile is the singleton describing the person using the app.
type UserProfile struct {
	Name      string `json:"name"`
	Avatar    string `json:"avatar,omitempty"`
	Bio       string `json:"bio,omitempty"`
	UpdatedAt int64  `json:"updatedAt,omitempty"`
}

// Diary is a character's journal entry. Body is Markdown.
type Diary struct {
	ID        string `json:"id"`
	CharID    string `json:"charId"`
	Date      string `json:"date"` // YYYY-MM-DD
	Title     string `json:"title,omitempty"`
	Body      string `json:"body"`
	Mood      string `json:"mood,omitempty"`
	CreatedAt int64  `json:"createdAt,omitempty"`
}

// Task is a to-do item on the user's calendar.
type Task struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Done      bool   `json:"done,omitempty"`
	DueDate   string `json:"dueDate,omitempty"`
	CreatedAt int64  `json:"createdAt,omitempty"`
}

// Anniversary is a remembered date shared with a character.
type Anniversary struct {
	ID     string `json:"id"`
	CharID string `json:"charId,omitempty"`
	Title  string `json:"title"`
	Date   string `json:"date"`
	Repeat bool   `json:"repeat,omitempty"`
}

// RoomTodo is a to-do pinned in a character's room.
type RoomTodo struct {
	ID        string `json:"id"`
	CharID    string `json:"charId"`
	Text      string `json:"text"`
	Done      bool   `json:"done,omitempty"`
	CreatedAt int64  `json:"createdAt,omitempty"`
}

// RoomNote is a sticky note in a character's room.
type RoomNote struct {
	ID        string `json:"id"`
	CharID    string `json:"charId"`
	Text      string `json:"text"`
	Color     string `json:"color,omitempty"`
	CreatedAt int64  `json:"createdAt,omitempty"`
}

// JournalSticker decorates journal pages.
type JournalSticker struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Image string `json:"image"`
}

// SocialPost is a character's post on the simulated social feed.
type SocialPost struct {
	ID        string          `json:"id"`
	CharID    string          `json:"charId"`
	Content   string          `json:"content"`
	Images    []string        `json:"images,omitempty"`
	Likes     int             `json:"likes,omitempty"`
	Comments  json.RawMessage `json:"comments,omitempty"`
	CreatedAt int64           `json:"createdAt,omitempty"`
}

// Course is a study course with its lessons.
type Course struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	CharID    string          `json:"charId,omitempty"`
	Lessons   json.RawMessage `json:"lessons,omitempty"`
	Progress  int             `json:"progress,omitempty"`
	CreatedAt int64           `json:"createdAt,omitempty"`
}

// Game is a saved game session. State belongs to the game module.
type Game struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Title     string          `json:"title,omitempty"`
	State     json.RawMessage `json:"state,omitempty"`
	UpdatedAt int64           `json:"updatedAt,omitempty"`
}

// Worldbook is a reusable block of setting text.
type Worldbook struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Category  string `json:"category,omitempty"`
	UpdatedAt int64  `json:"updatedAt,omitempty"`
}

// Novel is a long-form story written with characters.
type Novel struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Chapters  json.RawMessage `json:"chapters,omitempty"`
	UpdatedAt int64           `json:"updatedAt,omitempty"`
}

// BankTransaction is one entry in the simulated bank ledger.
type BankTransaction struct {
	ID        string  `json:"id"`
	Amount    float64 `json:"amount"`
	Kind      string  `json:"kind"`
	Note      string  `json:"note,omitempty"`
	CreatedAt int64   `json:"createdAt,omitempty"`
}

// BankState is the singleton holding balances and the shop-game state.
type BankState struct {
	Balance  float64         `json:"balance"`
	Currency string          `json:"currency,omitempty"`
	Shop     BankShop        `json:"shop"`
	Goals    []SavingsGoal   `json:"goals,omitempty"`
	Config   json.RawMessage `json:"config,omitempty"`
}

// BankShop is the shop-game inventory.
type BankShop struct {
	Items     []ShopItem `json:"items,omitempty"`
	Purchased []string   `json:"purchased,omitempty"`
}

// ShopItem is something that can be bought in the shop game.
type ShopItem struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image,omitempty"`
}

// SavingsGoal tracks progress toward a target amount.
type SavingsGoal struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Target float64 `json:"target"`
	Saved  float64 `json:"saved"`
}
