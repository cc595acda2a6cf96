package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSessionStoreRoundTrip(t *testing.T) {
	store, err := NewFileSessionStore(t.TempDir())
	require.NoError(t, err)

	key := "http://localhost:8080/ teamID"
	_, err = store.Get(key)
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, store.Set(key, "1a2b3c4d"))
	got, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "1a2b3c4d", got)

	require.NoError(t, store.Delete(key))
	_, err = store.Get(key)
	assert.ErrorIs(t, err, ErrNoSession)

	// Deleting an absent key is not an error.
	assert.NoError(t, store.Delete(key))
}

func TestFileSessionStoreKeysPerOrigin(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileSessionStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("http://a/ teamID", "team-a"))
	require.NoError(t, store.Set("http://b/ teamID", "team-b"))

	a, err := store.Get("http://a/ teamID")
	require.NoError(t, err)
	b, err := store.Get("http://b/ teamID")
	require.NoError(t, err)
	assert.Equal(t, "team-a", a)
	assert.Equal(t, "team-b", b)

	// A second store over the same directory sees the same sessions.
	reopened, err := NewFileSessionStore(dir)
	require.NoError(t, err)
	a2, err := reopened.Get("http://a/ teamID")
	require.NoError(t, err)
	assert.Equal(t, "team-a", a2)
}
