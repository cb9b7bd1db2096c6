// ABOUTME: Per-collection accessors shared by SQLiteStore and Tx
// ABOUTME: Adds the message, emoji category and emoji extensions on top of the generic collection

package store

import (
	"context"
	"fmt"
	"log/slog"
)

// accessors binds collection accessors to a querier (the database or a
// transaction) opened at a schema version.
type accessors struct {
	q       querier
	logger  *slog.Logger
	version int
}

// SchemaVersion returns the schema version the store was opened at.
// Collections introduced after it have no table.
func (a accessors) SchemaVersion() int {
	return a.version
}

func (a accessors) Characters() *Collection[string, Character] {
	return newCollection[string, Character](CollectionCharacters, a)
}

func (a accessors) Messages() *MessageCollection {
	return &MessageCollection{Collection: newCollection[int64, Message](CollectionMessages, a)}
}

func (a accessors) Emoji() *EmojiCollection {
	return &EmojiCollection{Collection: newCollection[string, Emoji](CollectionEmoji, a)}
}

func (a accessors) EmojiCategories() *EmojiCategoryCollection {
	return &EmojiCategoryCollection{Collection: newCollection[string, EmojiCategory](CollectionEmojiCategories, a)}
}

func (a accessors) Themes() *Collection[string, Theme] {
	return newCollection[string, Theme](CollectionThemes, a)
}

func (a accessors) Assets() *Collection[string, Asset] {
	return newCollection[string, Asset](CollectionAssets, a)
}

func (a accessors) Scheduled() *ScheduledCollection {
	return &ScheduledCollection{Collection: newCollection[string, ScheduledMessage](CollectionScheduledMessages, a)}
}

func (a accessors) Gallery() *Collection[string, GalleryImage] {
	return newCollection[string, GalleryImage](CollectionGallery, a)
}

func (a accessors) UserProfile() *Singleton[UserProfile] {
	return &Singleton[UserProfile]{c: newCollection[string, UserProfile](CollectionUserProfiles, a)}
}

func (a accessors) Diaries() *Collection[string, Diary] {
	return newCollection[string, Diary](CollectionDiaries, a)
}

func (a accessors) Tasks() *Collection[string, Task] {
	return newCollection[string, Task](CollectionTasks, a)
}

func (a accessors) Anniversaries() *Collection[string, Anniversary] {
	return newCollection[string, Anniversary](CollectionAnniversaries, a)
}

func (a accessors) RoomTodos() *Collection[string, RoomTodo] {
	return newCollection[string, RoomTodo](CollectionRoomTodos, a)
}

func (a accessors) RoomNotes() *Collection[string, RoomNote] {
	return newCollection[string, RoomNote](CollectionRoomNotes, a)
}

func (a accessors) Groups() *Collection[string, Group] {
	return newCollection[string, Group](CollectionGroups, a)
}

func (a accessors) JournalStickers() *Collection[string, JournalSticker] {
	return newCollection[string, JournalSticker](CollectionJournalStickers, a)
}

func (a accessors) SocialPosts() *Collection[string, SocialPost] {
	return newCollection[string, SocialPost](CollectionSocialPosts, a)
}

func (a accessors) Courses() *Collection[string, Course] {
	return newCollection[string, Course](CollectionCourses, a)
}

func (a accessors) Games() *Collection[string, Game] {
	return newCollection[string, Game](CollectionGames, a)
}

func (a accessors) Worldbooks() *Collection[string, Worldbook] {
	return newCollection[string, Worldbook](CollectionWorldbooks, a)
}

func (a accessors) Novels() *Collection[string, Novel] {
	return newCollection[string, Novel](CollectionNovels, a)
}

func (a accessors) BankTransactions() *Collection[string, BankTransaction] {
	return newCollection[string, BankTransaction](CollectionBankTransactions, a)
}

func (a accessors) BankState() *Singleton[BankState] {
	return &Singleton[BankState]{c: newCollection[string, BankState](CollectionBankStates, a)}
}

// MessageCollection is the messages accessor.
type MessageCollection struct {
	*Collection[int64, Message]
}

// ByCharacter returns a character's messages in insertion order.
func (m *MessageCollection) ByCharacter(ctx context.Context, charID string) ([]Message, error) {
	return m.GetAllByIndex(ctx, "charId", charID)
}

// ByGroup returns a group's messages in insertion order.
func (m *MessageCollection) ByGroup(ctx context.Context, groupID string) ([]Message, error) {
	return m.GetAllByIndex(ctx, "groupId", groupID)
}

// Append stores msg under a newly assigned id, ignoring any id it carries.
func (m *MessageCollection) Append(ctx context.Context, msg *Message) error {
	msg.ID = 0
	return m.Put(ctx, msg)
}

// EditContent replaces the content of an existing message.
func (m *MessageCollection) EditContent(ctx context.Context, id int64, content string) error {
	res, err := m.q.ExecContext(ctx,
		`UPDATE messages SET doc = json_set(doc, '$.content', ?) WHERE id = ?`, content, id)
	if err != nil {
		return fmt.Errorf("editing message: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearByCharacter deletes a character's direct messages. Messages that also
// belong to a group are kept.
func (m *MessageCollection) ClearByCharacter(ctx context.Context, charID string) error {
	res, err := m.q.ExecContext(ctx,
		`DELETE FROM messages WHERE char_id = ? AND (group_id IS NULL OR group_id = '')`, charID)
	if err != nil {
		return fmt.Errorf("clearing messages for %s: %w", charID, err)
	}
	n, _ := res.RowsAffected()
	m.logger.Debug("cleared character messages", "char_id", charID, "deleted", n)
	return nil
}

// EmojiCollection is the emoji accessor, keyed by emoji name.
type EmojiCollection struct {
	*Collection[string, Emoji]
}

// ByCategory returns the emoji assigned to a category.
func (e *EmojiCollection) ByCategory(ctx context.Context, categoryID string) ([]Emoji, error) {
	return e.GetAllByIndex(ctx, "categoryId", categoryID)
}

// EmojiCategoryCollection is the emoji category accessor.
type EmojiCategoryCollection struct {
	*Collection[string, EmojiCategory]
}

// Delete removes the category and every emoji that references it.
func (e *EmojiCategoryCollection) Delete(ctx context.Context, id string) error {
	return withTx(ctx, e.q, func(q querier) error {
		res, err := q.ExecContext(ctx, `DELETE FROM emojis WHERE category_id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting emoji in category %s: %w", id, err)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM emoji_categories WHERE id = ?`, id); err != nil {
			return fmt.Errorf("deleting emoji category %s: %w", id, err)
		}
		n, _ := res.RowsAffected()
		e.logger.Debug("deleted emoji category", "id", id, "emoji_deleted", n)
		return nil
	})
}
