package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/waivern/wct/store"
)

// cacheKeyPrefix is the reserved store namespace cache entries live under.
// Cache entries are oblivious to whether they were produced by a
// synchronous or asynchronous (batch) provider call; only CacheEntry.Status
// distinguishes the two.
const cacheKeyPrefix = "_system/cache/"

// Cache is a run-scoped view over a store.Store specialised for LLM
// response caching. It is deliberately thin: callers compute a CacheKey
// once per (prompt, model, schema) and use it for both Get and Set.
type Cache struct {
	backend store.Store
	runID   string
}

// NewCache constructs a Cache bound to one run.
func NewCache(backend store.Store, runID string) *Cache {
	return &Cache{backend: backend, runID: runID}
}

// CacheKey computes a deterministic digest of (prompt, model,
// responseSchemaName), the cache key stable across process restarts and
// across sync/batch provider calls for identical inputs.
func CacheKey(prompt, model, responseSchemaName string) string {
	h := sha256.New()
	h.Write([]byte(prompt))
	h.Write([]byte{0})
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(responseSchemaName))
	return hex.EncodeToString(h.Sum(nil))
}

func storeKey(cacheKey string) string {
	return cacheKeyPrefix + cacheKey
}

// Get retrieves a cache entry by key. Returns store.ErrNotFound if absent.
func (c *Cache) Get(ctx context.Context, cacheKey string) (*CacheEntry, error) {
	raw, err := c.backend.Get(ctx, c.runID, storeKey(cacheKey))
	if err != nil {
		return nil, err
	}
	var entry CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decode cache entry %s: %w", cacheKey, err)
	}
	return &entry, nil
}

// Set stores or replaces a cache entry.
func (c *Cache) Set(ctx context.Context, entry *CacheEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", entry.Key, err)
	}
	return c.backend.Save(ctx, c.runID, storeKey(entry.Key), raw)
}

// Clear wipes the entire run cache. Nothing in this module calls it when a
// run completes; a run's cache entries stay in the store until Clear is
// called.
func (c *Cache) Clear(ctx context.Context) error {
	keys, err := c.backend.ListKeys(ctx, c.runID, cacheKeyPrefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := c.backend.Delete(ctx, c.runID, k); err != nil {
			return err
		}
	}
	return nil
}

// ListPending returns every cache entry of this run still in the Pending
// state.
func (c *Cache) ListPending(ctx context.Context) ([]*CacheEntry, error) {
	keys, err := c.backend.ListKeys(ctx, c.runID, cacheKeyPrefix)
	if err != nil {
		return nil, err
	}
	var pending []*CacheEntry
	for _, k := range keys {
		raw, err := c.backend.Get(ctx, c.runID, k)
		if err != nil {
			return nil, err
		}
		var entry CacheEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("decode cache entry %s: %w", k, err)
		}
		if entry.Status == CachePending {
			pending = append(pending, &entry)
		}
	}
	return pending, nil
}
