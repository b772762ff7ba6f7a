package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	s := openTemp(t, time.Hour)

	_, ok, err := s.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put("k", []byte(`{"ops":[1,2,3]}`)))
	got, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"ops":[1,2,3]}`, string(got))

	require.NoError(t, s.Put("k", []byte("v2")))
	got, _, err = s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))

	n, err := s.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDelete(t *testing.T) {
	s := openTemp(t, 0)

	require.NoError(t, s.Put("k", []byte("v")))
	require.NoError(t, s.Delete("k"))
	require.NoError(t, s.Delete("k"))

	_, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKeys(t *testing.T) {
	s := openTemp(t, 0)

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, s.Put("b", []byte("2")))
	require.NoError(t, s.Put("a", []byte("1")))
	keys, err = s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestExpiry(t *testing.T) {
	s := openTemp(t, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put("k", []byte("v")))

	now = now.Add(30 * time.Second)
	_, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok, err = s.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := s.Len()
	require.NoError(t, err)
	assert.Zero(t, n, "expired entry is removed on read")
}

func TestPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := Open(path, 0)
	require.NoError(t, err)
	require.NoError(t, s.Put("k", []byte("v")))
	require.NoError(t, s.Close())

	s, err = Open(path, 0)
	require.NoError(t, err)
	defer s.Close()
	got, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(got))
}

func TestClosed(t *testing.T) {
	s := openTemp(t, 0)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, _, err := s.Get("k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Put("k", nil), ErrClosed)
	assert.ErrorIs(t, s.Delete("k"), ErrClosed)
	_, err = s.Keys()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNilStore(t *testing.T) {
	var s *Store

	require.NoError(t, s.Put("k", []byte("v")))
	_, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, s.Delete("k"))
	assert.NoError(t, s.Close())
}
