package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/model"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/repository"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newUser(t *testing.T, db *DB, name string) *model.User {
	t.Helper()
	u := &model.User{Username: name, Email: name + "@example.com", PasswordHash: "hash", APIKey: "key-" + name}
	_, err := db.Users().Create(context.Background(), u)
	require.NoError(t, err)
	return u
}

// ========================================
// Database Integration Tests
// ========================================

func TestDatabase_Connection(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := New(dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
	// Migrations are idempotent.
	assert.NoError(t, db.Migrate())
}

func TestUsers_CreateAndLookup(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := newUser(t, db, "alice")
	assert.NotZero(t, u.ID)

	byName, err := db.Users().GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, u.ID, byName.ID)
	assert.Equal(t, "key-alice", byName.APIKey)
	assert.False(t, byName.CreatedAt.IsZero())

	byEmail, err := db.Users().GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	missing, err := db.Users().GetByID(ctx, 999)
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUsers_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	newUser(t, db, "bob")

	_, err := db.Users().Create(context.Background(), &model.User{Username: "bob", Email: "other@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestUsers_Update(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := newUser(t, db, "carol")

	u.Email = "new@example.com"
	u.PasswordHash = "other"
	require.NoError(t, db.Users().Update(ctx, u))

	got, err := db.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", got.Email)
	assert.Equal(t, "other", got.PasswordHash)

	assert.ErrorIs(t, db.Users().Update(ctx, &model.User{ID: 12345}), repository.ErrNotFound)
}

func TestHistory_NewestFirstAndOwnership(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := newUser(t, db, "alice")
	bob := newUser(t, db, "bob")

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, op := range []string{model.OperationEncode, model.OperationDecode, model.OperationEncode} {
		_, err := db.History().Insert(ctx, &model.History{
			UserID:        alice.ID,
			OperationType: op,
			ImagePath:     map[bool]string{true: "/uploads/stego.png"}[op == model.OperationEncode],
			MessageLength: 32,
			Timestamp:     base.Add(time.Duration(i) * time.Minute),
			Success:       i != 1,
		})
		require.NoError(t, err)
	}

	list, err := db.History().ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, list[0].Timestamp.After(list[1].Timestamp))
	assert.Equal(t, "", list[1].ImagePath)
	assert.False(t, list[1].Success)

	// Bob cannot delete Alice's entry.
	assert.ErrorIs(t, db.History().Delete(ctx, list[0].ID, bob.ID), repository.ErrNotFound)
	require.NoError(t, db.History().Delete(ctx, list[0].ID, alice.ID))

	list, err = db.History().ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	empty, err := db.History().ListByUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestFavorites(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := newUser(t, db, "dave")

	id, err := db.Favorites().Insert(ctx, &model.Favorite{UserID: u.ID, ImagePath: "/uploads/a.png", Message: "secret"})
	require.NoError(t, err)
	assert.NotZero(t, id)

	favs, err := db.Favorites().ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, "secret", favs[0].Message)
	assert.Equal(t, "/uploads/a.png", favs[0].ImagePath)
}

func TestPreferences_Upsert(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := newUser(t, db, "erin")

	got, err := db.Preferences().Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	p := model.DefaultPreference(u.ID)
	p.Theme = "dark"
	require.NoError(t, db.Preferences().Upsert(ctx, &p))

	p.NotificationsEnabled = false
	require.NoError(t, db.Preferences().Upsert(ctx, &p))

	got, err = db.Preferences().Get(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "dark", got.Theme)
	assert.False(t, got.NotificationsEnabled)
	assert.Equal(t, int64(5<<20), got.MaxFileSize)
}
