package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeContract exercises the behavior every Store must share.
func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, KeyFavorites)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, KeyFavorites, `["a"]`))
	val, err := s.Get(ctx, KeyFavorites)
	require.NoError(t, err)
	assert.Equal(t, `["a"]`, val)

	require.NoError(t, s.Set(ctx, KeyFavorites, `["a","b"]`))
	val, err = s.Get(ctx, KeyFavorites)
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, val, "set replaces the whole value")

	require.NoError(t, s.Remove(ctx, KeyFavorites))
	_, err = s.Get(ctx, KeyFavorites)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	assert.NoError(t, s.Remove(ctx, KeyFavorites), "removing a missing key is not an error")
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	storeContract(t, s)
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")

	first, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, KeyDarkMode, "true"))
	require.NoError(t, first.Set(ctx, KeyCompareList, "[]"))

	second, err := NewFileStore(path)
	require.NoError(t, err)
	val, err := second.Get(ctx, KeyDarkMode)
	require.NoError(t, err)
	assert.Equal(t, "true", val)
	assert.Equal(t, path, second.Path())
}

func TestMemoryStore_Keys(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, "b", "2"))
	require.NoError(t, s.Set(ctx, "a", "1"))

	assert.Equal(t, []string{"a", "b"}, s.Keys())
	assert.Equal(t, 2, s.Len())
}

func TestGetSetJSON(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	type doc struct {
		IDs []string `json:"ids"`
	}

	require.NoError(t, SetJSON(ctx, s, "doc", doc{IDs: []string{"x", "y"}}))

	var got doc
	require.NoError(t, GetJSON(ctx, s, "doc", &got))
	assert.Equal(t, []string{"x", "y"}, got.IDs)

	err := GetJSON(ctx, s, "missing", &got)
	assert.True(t, errors.Is(err, ErrKeyNotFound))

	require.NoError(t, s.Set(ctx, "bad", "{not json"))
	err = GetJSON(ctx, s, "bad", &got)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrKeyNotFound))
}

func TestPingAndCloseOptional(t *testing.T) {
	s := NewMemoryStore()
	assert.NoError(t, Ping(context.Background(), s))
	assert.NoError(t, Close(s))
}

func TestNamespaced(t *testing.T) {
	assert.Equal(t, "autorent:bookings", namespaced("autorent", KeyBookings))
	assert.Equal(t, "bookings", namespaced("", KeyBookings))
}

func TestBlobName(t *testing.T) {
	assert.Equal(t, "autorent/@autorent_favorites.json", blobName("autorent", KeyFavorites))
	assert.Equal(t, "bookings.json", blobName("", KeyBookings))
}

func TestAllKeys(t *testing.T) {
	keys := AllKeys()
	assert.Len(t, keys, 8)
	assert.Contains(t, keys, KeyRecentlyViewed)
}
