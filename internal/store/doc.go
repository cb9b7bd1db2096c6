// Package store provides the local collection store backed by SQLite.
//
// # Architecture
//
// Every collection is declared once in the registry (registry.go) with its
// primary key, its secondary indexes and the schema version that introduced
// it. Each collection is a table holding one JSON document per record plus
// the key and index columns extracted from that document.
//
// Feature code reads and writes through typed accessors:
//
//   - Collection[K, T]: GetAll, Get, Put (upsert), Delete, GetAllByIndex, Clear
//   - MessageCollection: ByCharacter, ByGroup, Append, EditContent, ClearByCharacter
//   - EmojiCategoryCollection: Delete cascades to the category's emoji
//   - ScheduledCollection: GetDue
//   - Singleton[T]: user profile and bank state
//
// SQLiteStore and Tx both implement Accessor. Calls on SQLiteStore are their
// own short transactions; a read-modify-write sequence belongs inside Update:
//
//	err := s.Update(ctx, func(tx *store.Tx) error {
//		c, err := tx.Characters().Get(ctx, "c1")
//		if err != nil {
//			return err
//		}
//		c.Greeting = "hi"
//		return tx.Characters().Put(ctx, c)
//	})
//
// Put never validates records. Delete of a missing key is a no-op. Nothing is
// garbage collected: deleting a character leaves its assets and messages.
//
// # SQLite Configuration
//
// The store is single-writer and holds one connection:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// # Migrations
//
// Open(path, version) brings the schema to version. Tables and index columns
// introduced after the stored version are created with check-then-create
// steps; index columns added to an existing table are backfilled from the
// stored documents. The version row is written last, so a migration that was
// interrupted simply runs again. Record documents are never rewritten.
//
// # Error Handling
//
//   - ErrNotFound: point lookup or edit of a missing record
//   - ErrUnknownIndex: GetAllByIndex with an undeclared index
//   - ErrOpen: the store could not be opened or migrated
//   - ErrUnsupportedVersion: target version outside 1..CurrentVersion
//
// # Testing
//
// Tests open a real store under t.TempDir().
package store
