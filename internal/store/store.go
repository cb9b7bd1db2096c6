// ABOUTME: Store errors and the Accessor interface shared by the store handle and transactions
// ABOUTME: Feature modules read and write collections only through these accessors

package store

import "errors"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrUnknownIndex is returned when a lookup names an index the collection does not declare.
var ErrUnknownIndex = errors.New("unknown index")

// ErrOpen wraps every failure to open or migrate the store.
var ErrOpen = errors.New("store unavailable")

// ErrUnsupportedVersion is returned for schema versions this build cannot open.
var ErrUnsupportedVersion = errors.New("unsupported schema version")

// Accessor is the typed collection surface. Both *SQLiteStore and *Tx implement it.
type Accessor interface {
	SchemaVersion() int
	Characters() *Collection[string, Character]
	Messages() *MessageCollection
	Emoji() *EmojiCollection
	EmojiCategories() *EmojiCategoryCollection
	Themes() *Collection[string, Theme]
	Assets() *Collection[string, Asset]
	Scheduled() *ScheduledCollection
	Gallery() *Collection[string, GalleryImage]
	UserProfile() *Singleton[UserProfile]
	Diaries() *Collection[string, Diary]
	Tasks() *Collection[string, Task]
	Anniversaries() *Collection[string, Anniversary]
	RoomTodos() *Collection[string, RoomTodo]
	RoomNotes() *Collection[string, RoomNote]
	Groups() *Collection[string, Group]
	JournalStickers() *Collection[string, JournalSticker]
	SocialPosts() *Collection[string, SocialPost]
	Courses() *Collection[string, Course]
	Games() *Collection[string, Game]
	Worldbooks() *Collection[string, Worldbook]
	Novels() *Collection[string, Novel]
	BankTransactions() *Collection[string, BankTransaction]
	BankState() *Singleton[BankState]
}
