package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionStore(t *testing.T) *SQLiteSessionStore {
	t.Helper()
	store, err := NewSQLiteSessionStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSessionStore_GetMissing(t *testing.T) {
	store := newTestSessionStore(t)

	got, err := store.Get(123)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStore_SaveAndGet(t *testing.T) {
	store := newTestSessionStore(t)

	require.NoError(t, store.Save(123, []byte(`{"state":"mainMenu"}`)))

	got, err := store.Get(123)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"state":"mainMenu"}`), got)
}

func TestSessionStore_SaveOverwrites(t *testing.T) {
	store := newTestSessionStore(t)

	require.NoError(t, store.Save(123, []byte(`v1`)))
	require.NoError(t, store.Save(123, []byte(`v2`)))

	got, err := store.Get(123)
	require.NoError(t, err)
	assert.Equal(t, []byte(`v2`), got)
}

func TestSessionStore_UsersAreIsolated(t *testing.T) {
	store := newTestSessionStore(t)

	require.NoError(t, store.Save(1, []byte(`one`)))
	require.NoError(t, store.Save(2, []byte(`two`)))

	got, err := store.Get(1)
	require.NoError(t, err)
	assert.Equal(t, []byte(`one`), got)
}

func TestSessionStore_Expiry(t *testing.T) {
	store := newTestSessionStore(t)

	now := time.Now()
	store.now = func() time.Time { return now }
	require.NoError(t, store.Save(123, []byte(`snapshot`)))

	// Just before the TTL the snapshot is still there
	store.now = func() time.Time { return now.Add(SessionTTL - time.Minute) }
	got, err := store.Get(123)
	require.NoError(t, err)
	assert.NotNil(t, got)

	// Past the TTL it is gone
	store.now = func() time.Time { return now.Add(SessionTTL + time.Minute) }
	got, err = store.Get(123)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStore_SaveSlidesExpiry(t *testing.T) {
	store := newTestSessionStore(t)

	now := time.Now()
	store.now = func() time.Time { return now }
	require.NoError(t, store.Save(123, []byte(`v1`)))

	// Re-saving near the end of the window renews it
	store.now = func() time.Time { return now.Add(SessionTTL - time.Minute) }
	require.NoError(t, store.Save(123, []byte(`v2`)))

	store.now = func() time.Time { return now.Add(SessionTTL + time.Hour) }
	got, err := store.Get(123)
	require.NoError(t, err)
	assert.Equal(t, []byte(`v2`), got)
}

func TestSessionStore_Delete(t *testing.T) {
	store := newTestSessionStore(t)

	require.NoError(t, store.Save(123, []byte(`snapshot`)))
	require.NoError(t, store.Delete(123))

	got, err := store.Get(123)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting a missing key is not an error
	require.NoError(t, store.Delete(456))
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "telegram_user_42", sessionKey(42))
}
