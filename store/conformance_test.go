package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waivern/wct/store"
)

// runConformance exercises the Store contract identically against any
// backend, mirroring the requirement that memory and filesystem stores
// behave identically from a caller's perspective.
func runConformance(t *testing.T, newStore func() store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("save and get round trip", func(t *testing.T) {
		s := newStore()
		require.NoError(t, s.Save(ctx, "run1", "artifact-a", []byte("hello")))
		got, err := s.Get(ctx, "run1", "artifact-a")
		require.NoError(t, err)
		assert.Equal(t, []byte("hello"), got)
	})

	t.Run("get missing returns ErrNotFound", func(t *testing.T) {
		s := newStore()
		_, err := s.Get(ctx, "run1", "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("exists", func(t *testing.T) {
		s := newStore()
		ok, err := s.Exists(ctx, "run1", "a")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.Save(ctx, "run1", "a", []byte("x")))
		ok, err = s.Exists(ctx, "run1", "a")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("delete missing returns ErrNotFound", func(t *testing.T) {
		s := newStore()
		err := s.Delete(ctx, "run1", "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete then get returns ErrNotFound", func(t *testing.T) {
		s := newStore()
		require.NoError(t, s.Save(ctx, "run1", "a", []byte("x")))
		require.NoError(t, s.Delete(ctx, "run1", "a"))
		_, err := s.Get(ctx, "run1", "a")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("list keys by prefix", func(t *testing.T) {
		s := newStore()
		require.NoError(t, s.Save(ctx, "run1", "a/1", []byte("1")))
		require.NoError(t, s.Save(ctx, "run1", "a/2", []byte("2")))
		require.NoError(t, s.Save(ctx, "run1", "b/1", []byte("3")))

		keys, err := s.ListKeys(ctx, "run1", "a/")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a/1", "a/2"}, keys)
	})

	t.Run("runs are isolated", func(t *testing.T) {
		s := newStore()
		require.NoError(t, s.Save(ctx, "run1", "a", []byte("1")))
		_, err := s.Get(ctx, "run2", "a")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("clear removes everything under a run, including _system", func(t *testing.T) {
		s := newStore()
		require.NoError(t, s.Save(ctx, "run1", "a", []byte("1")))
		require.NoError(t, s.Save(ctx, "run1", "_system/cache/x", []byte("2")))

		require.NoError(t, s.Clear(ctx, "run1"))

		_, err := s.Get(ctx, "run1", "a")
		assert.ErrorIs(t, err, store.ErrNotFound)
		_, err = s.Get(ctx, "run1", "_system/cache/x")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("rejects path traversal keys", func(t *testing.T) {
		s := newStore()
		err := s.Save(ctx, "run1", "../escape", []byte("x"))
		assert.ErrorIs(t, err, store.ErrInvalidKey)
	})
}

func TestMemoryStoreConformance(t *testing.T) {
	runConformance(t, func() store.Store { return store.NewMemoryStore() })
}

func TestFilesystemStoreConformance(t *testing.T) {
	runConformance(t, func() store.Store { return store.NewFilesystemStore(t.TempDir()) })
}

func TestValidateUserKeyRejectsSystemPrefix(t *testing.T) {
	err := store.ValidateUserKey("_system/cache/x")
	assert.ErrorIs(t, err, store.ErrReservedKey)

	assert.NoError(t, store.ValidateUserKey("some/artifact"))
}
