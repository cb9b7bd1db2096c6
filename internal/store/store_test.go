package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func TestCollection_PutGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	char := &Character{
		ID:              "c1",
		Name:            "Aster",
		Avatar:          "data:image/png;base64,AAAA",
		Sprites:         map[string]string{"happy": "asset:sprite-1"},
		Persona:         "quiet librarian",
		Memories:        []MemoryFragment{{ID: "m1", Content: "likes tea"}, {ID: "m2", Content: "hates rain"}},
		RefinedMemories: map[string]string{"2024-05": "met at the station"},
		MountedWorldbooks: []MountedWorldbook{
			{ID: "wb1", Title: "City", Content: "a rainy harbor town", Category: "setting"},
		},
		Room:  &RoomLayout{Items: []RoomItem{{ID: "bed", Name: "Bed", Image: "asset:bed", X: 10, Y: 20}}},
		Phone: json.RawMessage(`{"contacts":[]}`),
	}
	require.NoError(t, store.Characters().Put(ctx, char))

	got, err := store.Characters().Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, char, got)
}

func TestCollection_GetNotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.Characters().Get(ctx, "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.UserProfile().Get(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCollection_PutOverwrites(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	themes := store.Themes()

	require.NoError(t, themes.Put(ctx, &Theme{ID: "t1", Name: "Pink"}))
	require.NoError(t, themes.Put(ctx, &Theme{ID: "t1", Name: "Blue"}))

	all, err := themes.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Blue", all[0].Name)
}

func TestCollection_PutDoesNotValidate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	// Every field except the key is missing.
	require.NoError(t, store.Diaries().Put(ctx, &Diary{ID: "d1"}))

	got, err := store.Diaries().Get(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, got.Body)
}

func TestCollection_PutAssignsTextKey(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	task := &Task{Title: "water plants"}
	require.NoError(t, store.Tasks().Put(ctx, task))
	require.NotEmpty(t, task.ID)

	got, err := store.Tasks().Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "water plants", got.Title)
	assert.Equal(t, task.ID, got.ID)
}

func TestCollection_DeleteMissingIsNoop(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Gallery().Delete(ctx, "missing"))
	assert.NoError(t, store.Messages().Delete(ctx, 42))
	assert.NoError(t, store.BankState().Delete(ctx))
}

func TestCollection_GetAllOrderedByKey(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"b", "c", "a"} {
		require.NoError(t, store.Worldbooks().Put(ctx, &Worldbook{ID: id, Title: id}))
	}

	all, err := store.Worldbooks().GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
	assert.Equal(t, "c", all[2].ID)
}

func TestCollection_GetAllEmpty(t *testing.T) {
	store := setupTestStore(t)

	all, err := store.Novels().GetAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestCollection_GetAllByIndex(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	gallery := store.Gallery()

	require.NoError(t, gallery.Put(ctx, &GalleryImage{ID: "g1", CharID: "c1", Image: "x"}))
	require.NoError(t, gallery.Put(ctx, &GalleryImage{ID: "g2", CharID: "c2", Image: "y"}))
	require.NoError(t, gallery.Put(ctx, &GalleryImage{ID: "g3", CharID: "c1", Image: "z"}))

	got, err := gallery.GetAllByIndex(ctx, "charId", "c1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "g1", got[0].ID)
	assert.Equal(t, "g3", got[1].ID)
}

func TestCollection_GetAllByIndexTracksUpdates(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	notes := store.RoomNotes()

	require.NoError(t, notes.Put(ctx, &RoomNote{ID: "n1", CharID: "c1", Text: "hi"}))
	require.NoError(t, notes.Put(ctx, &RoomNote{ID: "n1", CharID: "c2", Text: "moved"}))

	got, err := notes.GetAllByIndex(ctx, "charId", "c1")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = notes.GetAllByIndex(ctx, "charId", "c2")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "moved", got[0].Text)
}

func TestCollection_GetAllByUnknownIndex(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Tasks().GetAllByIndex(context.Background(), "charId", "c1")
	assert.ErrorIs(t, err, ErrUnknownIndex)
}

func TestCollection_ClearAndCount(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	txs := store.BankTransactions()

	require.NoError(t, txs.Put(ctx, &BankTransaction{ID: "t1", Amount: 5, Kind: "income"}))
	require.NoError(t, txs.Put(ctx, &BankTransaction{ID: "t2", Amount: -3, Kind: "purchase"}))

	n, err := txs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, txs.Clear(ctx))
	n, err = txs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSingleton_PutGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	state := &BankState{
		Balance:  120.5,
		Currency: "coins",
		Shop:     BankShop{Items: []ShopItem{{ID: "lamp", Name: "Lamp", Price: 30}}, Purchased: []string{"lamp"}},
		Goals:    []SavingsGoal{{ID: "g1", Title: "Bike", Target: 300, Saved: 40}},
	}
	require.NoError(t, store.BankState().Put(ctx, state))

	state.Balance = 90
	require.NoError(t, store.BankState().Put(ctx, state))

	got, err := store.BankState().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, state, got)

	n, err := store.BankState().c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpdate_CommitsAndRollsBack(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.Update(ctx, func(tx *Tx) error {
		return tx.Tasks().Put(ctx, &Task{ID: "t1", Title: "kept"})
	})
	require.NoError(t, err)

	boom := assert.AnError
	err = store.Update(ctx, func(tx *Tx) error {
		require.NoError(t, tx.Tasks().Put(ctx, &Task{ID: "t2", Title: "dropped"}))
		require.NoError(t, tx.Tasks().Delete(ctx, "t1"))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Tasks().Get(ctx, "t1")
	assert.NoError(t, err)
	_, err = store.Tasks().Get(ctx, "t2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate_ReadModifyWrite(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Characters().Put(ctx, &Character{ID: "c1", Name: "Aster"}))

	err := store.Update(ctx, func(tx *Tx) error {
		c, err := tx.Characters().Get(ctx, "c1")
		if err != nil {
			return err
		}
		c.Greeting = "good morning"
		return tx.Characters().Put(ctx, c)
	})
	require.NoError(t, err)

	got, err := store.Characters().Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "good morning", got.Greeting)
	assert.Equal(t, "Aster", got.Name)
}

func TestRecordKey_TextKeyMustBeString(t *testing.T) {
	store := setupTestStore(t)
	chars := store.Characters()

	key, err := chars.recordKey([]byte(`{"id":"c1"}`))
	require.NoError(t, err)
	assert.Equal(t, "c1", key)

	key, err = chars.recordKey([]byte(`{"name":"no id"}`))
	require.NoError(t, err)
	assert.Nil(t, key)

	_, err = chars.recordKey([]byte(`{"id":42}`))
	assert.ErrorContains(t, err, "not a string")
}
