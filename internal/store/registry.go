// ABOUTME: Collection registry declaring every named collection, its key and secondary indexes
// ABOUTME: Each entry records the schema version that introduced it so the migrator can grow the store

package store

// CurrentVersion is the newest schema version known to this build.
const CurrentVersion = 12

// Collection names. These are the names backups and feature modules refer to.
const (
	CollectionCharacters        = "characters"
	CollectionMessages          = "messages"
	CollectionEmoji             = "emoji"
	CollectionEmojiCategories   = "emoji-categories"
	CollectionThemes            = "themes"
	CollectionAssets            = "assets"
	CollectionScheduledMessages = "scheduled-messages"
	CollectionGallery           = "gallery"
	CollectionUserProfiles      = "user-profile"
	CollectionDiaries           = "diaries"
	CollectionTasks             = "tasks"
	CollectionAnniversaries     = "anniversaries"
	CollectionRoomTodos         = "room-todos"
	CollectionRoomNotes         = "room-notes"
	CollectionGroups            = "groups"
	CollectionJournalStickers   = "journal-stickers"
	CollectionSocialPosts       = "social-posts"
	CollectionCourses           = "courses"
	CollectionGames             = "games"
	CollectionWorldbooks        = "worldbooks"
	CollectionNovels            = "novels"
	CollectionBankTransactions  = "bank-transactions"
	CollectionBankStates        = "bank-state"
)

// KeyKind describes how a collection's primary key is produced.
type KeyKind int

const (
	// KeyText is a caller-supplied string key (natural or synthetic).
	KeyText KeyKind = iota
	// KeyAuto is an integer assigned by the store on insert.
	KeyAuto
	// KeySingleton means the collection holds exactly one record under a fixed key.
	KeySingleton
)

// IndexDef is a secondary index over one record field.
type IndexDef struct {
	Name   string // record field name, e.g. "charId"
	Column string // table column holding the extracted value
	Type   string // SQLite column type
	Since  int
}

// CollectionDef declares a collection.
type CollectionDef struct {
	Name         string
	Table        string
	Key          KeyKind
	KeyField     string // record field holding the key
	SingletonKey string // fixed key for KeySingleton collections
	Indexes      []IndexDef
	Since        int
}

// Index returns the named secondary index.
func (d CollectionDef) Index(name string) (IndexDef, bool) {
	for _, idx := range d.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexDef{}, false
}

func charIndex(since int) IndexDef {
	return IndexDef{Name: "charId", Column: "char_id", Type: "TEXT", Since: since}
}

func textCollection(name, table string, since int, indexes ...IndexDef) CollectionDef {
	return CollectionDef{Name: name, Table: table, Key: KeyText, KeyField: "id", Indexes: indexes, Since: since}
}

func singleton(name, table, key string, since int) CollectionDef {
	return CollectionDef{Name: name, Table: table, Key: KeySingleton, KeyField: "id", SingletonKey: key, Since: since}
}

var registry = []CollectionDef{
	textCollection(CollectionCharacters, "characters", 1),
	{
		Name:     CollectionMessages,
		Table:    "messages",
		Key:      KeyAuto,
		KeyField: "id",
		Indexes: []IndexDef{
			charIndex(1),
			{Name: "groupId", Column: "group_id", Type: "TEXT", Since: 7},
		},
		Since: 1,
	},
	{
		Name:     CollectionEmoji,
		Table:    "emojis",
		Key:      KeyText,
		KeyField: "name",
		Indexes: []IndexDef{
			{Name: "categoryId", Column: "category_id", Type: "TEXT", Since: 8},
		},
		Since: 1,
	},
	textCollection(CollectionThemes, "themes", 1),
	textCollection(CollectionAssets, "assets", 2),
	textCollection(CollectionScheduledMessages, "scheduled_messages", 3,
		charIndex(3),
		IndexDef{Name: "dueAt", Column: "due_at", Type: "INTEGER", Since: 3},
	),
	textCollection(CollectionGallery, "gallery", 4, charIndex(4)),
	singleton(CollectionUserProfiles, "user_profile", "current", 4),
	textCollection(CollectionDiaries, "diaries", 5, charIndex(5)),
	textCollection(CollectionTasks, "tasks", 5),
	textCollection(CollectionAnniversaries, "anniversaries", 5, charIndex(5)),
	textCollection(CollectionRoomTodos, "room_todos", 6, charIndex(6)),
	textCollection(CollectionRoomNotes, "room_notes", 6, charIndex(6)),
	textCollection(CollectionGroups, "chat_groups", 7),
	textCollection(CollectionEmojiCategories, "emoji_categories", 8),
	textCollection(CollectionJournalStickers, "journal_stickers", 8),
	textCollection(CollectionSocialPosts, "social_posts", 9, charIndex(9)),
	textCollection(CollectionCourses, "courses", 10),
	textCollection(CollectionGames, "games", 10),
	textCollection(CollectionWorldbooks, "worldbooks", 11),
	textCollection(CollectionNovels, "novels", 11),
	textCollection(CollectionBankTransactions, "bank_transactions", 12),
	singleton(CollectionBankStates, "bank_state", "main", 12),
}

// Lookup returns the definition for a collection name.
func Lookup(name string) (CollectionDef, bool) {
	for _, def := range registry {
		if def.Name == name {
			return def, true
		}
	}
	return CollectionDef{}, false
}

// Collections returns every registered collection in declaration order.
func Collections() []CollectionDef {
	out := make([]CollectionDef, len(registry))
	copy(out, registry)
	return out
}

// CollectionsAt returns the collections that exist at the given schema version.
func CollectionsAt(version int) []CollectionDef {
	var out []CollectionDef
	for _, def := range registry {
		if def.Since <= version {
			out = append(out, def)
		}
	}
	return out
}

func mustLookup(name string) CollectionDef {
	def, ok := Lookup(name)
	if !ok {
		panic("store: unknown collection " + name)
	}
	return def
}
