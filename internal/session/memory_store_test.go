package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-chars!!"

func newTestStore(t *testing.T) *MemoryStore {
	store, err := NewMemoryStore(testSecret)
	require.NoError(t, err)
	return store
}

func insertActive(t *testing.T, store *MemoryStore, token, userID string) {
	err := store.Insert(context.Background(), token, InsertParams{
		UserID:    userID,
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	})
	require.NoError(t, err)
}

func TestNewMemoryStore_RequiresSecret(t *testing.T) {
	_, err := NewMemoryStore("")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestMemoryStore_GetUserID_UnknownToken(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetUserID(context.Background(), "never-inserted")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_InsertThenGet(t *testing.T) {
	store := newTestStore(t)
	insertActive(t, store, "tok-1", "user-1")

	userID, err := store.GetUserID(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestMemoryStore_ExpiredSessionIsNotFound(t *testing.T) {
	store := newTestStore(t)
	err := store.Insert(context.Background(), "tok-old", InsertParams{
		UserID:    "user-1",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	})
	require.NoError(t, err)

	_, err = store.GetUserID(context.Background(), "tok-old")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Revoke_TransitionsExactlyOnce(t *testing.T) {
	store := newTestStore(t)
	insertActive(t, store, "tok-1", "user-1")

	ok, err := store.Revoke(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Revoke(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Revoke(context.Background(), "tok-absent")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.GetUserID(context.Background(), "tok-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Rotation(t *testing.T) {
	store := newTestStore(t)
	insertActive(t, store, "tok-old", "user-1")

	err := store.Insert(context.Background(), "tok-new", InsertParams{
		UserID:      "user-1",
		ExpiresAt:   time.Now().UTC().Add(time.Hour),
		RotatedFrom: "tok-old",
	})
	require.NoError(t, err)

	_, err = store.GetUserID(context.Background(), "tok-old")
	assert.ErrorIs(t, err, ErrNotFound)

	userID, err := store.GetUserID(context.Background(), "tok-new")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestMemoryStore_Rotation_IgnoresUnknownPriorToken(t *testing.T) {
	store := newTestStore(t)

	err := store.Insert(context.Background(), "tok-new", InsertParams{
		UserID:      "user-1",
		ExpiresAt:   time.Now().UTC().Add(time.Hour),
		RotatedFrom: "tok-never-existed",
	})
	require.NoError(t, err)

	userID, err := store.GetUserID(context.Background(), "tok-new")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestMemoryStore_RevokeAllForUser(t *testing.T) {
	store := newTestStore(t)
	insertActive(t, store, "tok-1", "user-1")
	insertActive(t, store, "tok-2", "user-1")
	insertActive(t, store, "tok-3", "user-2")

	count, err := store.RevokeAllForUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	_, err = store.GetUserID(context.Background(), "tok-1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetUserID(context.Background(), "tok-2")
	assert.ErrorIs(t, err, ErrNotFound)

	userID, err := store.GetUserID(context.Background(), "tok-3")
	require.NoError(t, err)
	assert.Equal(t, "user-2", userID)

	count, err = store.RevokeAllForUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestMemoryStore_CleanupExpired(t *testing.T) {
	store := newTestStore(t)
	insertActive(t, store, "tok-live", "user-1")

	err := store.Insert(context.Background(), "tok-expired", InsertParams{
		UserID:    "user-1",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	})
	require.NoError(t, err)

	insertActive(t, store, "tok-revoked", "user-1")
	_, err = store.Revoke(context.Background(), "tok-revoked")
	require.NoError(t, err)

	removed, err := store.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	count, err := store.ActiveSessionCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryStore_ActiveSessionCount_ExcludesInactive(t *testing.T) {
	store := newTestStore(t)
	insertActive(t, store, "tok-1", "user-1")
	insertActive(t, store, "tok-2", "user-2")
	_, err := store.Revoke(context.Background(), "tok-2")
	require.NoError(t, err)

	count, err := store.ActiveSessionCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
