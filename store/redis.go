package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store implementation backed by a shared Redis instance,
// for multi-process deployments that need a single shared artifact/cache
// view across concurrently running wct processes.
type RedisStore struct {
	client *redis.Client
}

// Compile-time check that RedisStore implements Store.
var _ Store = (*RedisStore)(nil)

// Compile-time check that RedisStore implements RunEnumerator.
var _ RunEnumerator = (*RedisStore)(nil)

// NewRedisStore constructs a RedisStore using an already-configured client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(runID, key string) string {
	return fmt.Sprintf("wct:%s:%s", runID, key)
}

func (s *RedisStore) Save(ctx context.Context, runID, key string, content []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	return s.client.Set(ctx, redisKey(runID, key), content, 0).Err()
}

func (s *RedisStore) Get(ctx context.Context, runID, key string) ([]byte, error) {
	content, err := s.client.Get(ctx, redisKey(runID, key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return content, nil
}

func (s *RedisStore) Exists(ctx context.Context, runID, key string) (bool, error) {
	n, err := s.client.Exists(ctx, redisKey(runID, key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisStore) Delete(ctx context.Context, runID, key string) error {
	n, err := s.client.Del(ctx, redisKey(runID, key)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) ListKeys(ctx context.Context, runID, prefix string) ([]string, error) {
	pattern := redisKey(runID, prefix) + "*"
	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	runKeyPrefix := fmt.Sprintf("wct:%s:", runID)
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), runKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// ListRunIDs implements store.RunEnumerator by scanning for every "wct:*"
// key and extracting the distinct run ID segment.
func (s *RedisStore) ListRunIDs(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	iter := s.client.Scan(ctx, 0, "wct:*", 0).Iterator()
	for iter.Next(ctx) {
		parts := strings.SplitN(iter.Val(), ":", 3)
		if len(parts) < 2 {
			continue
		}
		seen[parts[1]] = struct{}{}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *RedisStore) Clear(ctx context.Context, runID string) error {
	keys, err := s.ListKeys(ctx, runID, "")
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = redisKey(runID, k)
	}
	return s.client.Del(ctx, full...).Err()
}
