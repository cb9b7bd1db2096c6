// Package backup exports the store to a portable snapshot document and
// imports snapshots back.
//
// # Export
//
// Export reads every collection through store.Accessor. It holds no
// transaction across collections. Three modes exist:
//
//   - full: every collection, characters with inline images, plus mediaAssets
//   - text: every collection except image libraries, characters stripped of images
//   - media: themes, emoji, emoji categories, assets, gallery, journal stickers, mediaAssets
//
// mediaAssets holds one entry per character with its avatar, background,
// sprites and room item images, together with the assets those images
// reference.
//
// # Import
//
// Parse rejects input that is not a snapshot with ErrUnrecognizedBackup and
// upgrades legacy shapes (uncategorized emoji, media nested under characters).
// Importer.Import then applies the snapshot in one transaction:
//
//   - replace: characters, scheduled messages, gallery, diaries, tasks,
//     anniversaries, room todos and notes, groups, social posts, courses,
//     games, worldbooks, novels, bank transactions
//   - upsert: themes, emoji, emoji categories, assets, journal stickers
//   - overwrite: user profile, bank state
//   - messages: replaced when the snapshot also has characters, otherwise appended
//
// ImportOptions.KeepLocal turns every replace into an upsert.
//
// # Sealing
//
// Seal and Unseal wrap a serialized snapshot with a passphrase.
package backup
