package llm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waivern/wct/llm"
	"github.com/waivern/wct/store"
)

func TestCacheKeyIsDeterministic(t *testing.T) {
	k1 := llm.CacheKey("prompt", "claude-sonnet-4-5", "MySchema")
	k2 := llm.CacheKey("prompt", "claude-sonnet-4-5", "MySchema")
	assert.Equal(t, k1, k2)

	k3 := llm.CacheKey("different", "claude-sonnet-4-5", "MySchema")
	assert.NotEqual(t, k1, k3)
}

func TestCacheGetSetRoundTrip(t *testing.T) {
	backend := store.NewMemoryStore()
	cache := llm.NewCache(backend, "run-1")
	ctx := context.Background()

	entry := &llm.CacheEntry{
		Key:      "abc123",
		Status:   llm.CacheCompleted,
		Response: []byte(`{"ok":true}`),
	}
	require.NoError(t, cache.Set(ctx, entry))

	got, err := cache.Get(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, llm.CacheCompleted, got.Status)
	assert.JSONEq(t, `{"ok":true}`, string(got.Response))
}

func TestCacheGetMissing(t *testing.T) {
	backend := store.NewMemoryStore()
	cache := llm.NewCache(backend, "run-1")

	_, err := cache.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCacheClearRemovesOnlyThisRun(t *testing.T) {
	backend := store.NewMemoryStore()
	ctx := context.Background()
	cacheA := llm.NewCache(backend, "run-a")
	cacheB := llm.NewCache(backend, "run-b")

	require.NoError(t, cacheA.Set(ctx, &llm.CacheEntry{Key: "k", Status: llm.CacheCompleted}))
	require.NoError(t, cacheB.Set(ctx, &llm.CacheEntry{Key: "k", Status: llm.CacheCompleted}))

	require.NoError(t, cacheA.Clear(ctx))

	_, err := cacheA.Get(ctx, "k")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = cacheB.Get(ctx, "k")
	assert.NoError(t, err)
}

func TestCacheListPendingFiltersByStatus(t *testing.T) {
	backend := store.NewMemoryStore()
	ctx := context.Background()
	cache := llm.NewCache(backend, "run-1")

	require.NoError(t, cache.Set(ctx, &llm.CacheEntry{Key: "pending-1", Status: llm.CachePending}))
	require.NoError(t, cache.Set(ctx, &llm.CacheEntry{Key: "done-1", Status: llm.CacheCompleted}))
	require.NoError(t, cache.Set(ctx, &llm.CacheEntry{Key: "pending-2", Status: llm.CachePending}))

	pending, err := cache.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}
