package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/samber/lo"
)

// scanCount is the COUNT hint passed to SCAN.
const scanCount = 500

// Redis stores one string key per mark under a namespace prefix, so that
// several pipelines can share one redis database.
type Redis struct {
	client    redis.UniversalClient
	namespace string
}

// NewRedis connects to addr and verifies the connection.
func NewRedis(ctx context.Context, addr, password string, db int, namespace string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisWithClient(client, namespace), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client redis.UniversalClient, namespace string) *Redis {
	return &Redis{client: client, namespace: namespace}
}

func (r *Redis) key(k string) string {
	return r.namespace + k
}

func (r *Redis) Has(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (r *Redis) HasMany(ctx context.Context, keys []string) (map[string]bool, error) {
	out := make(map[string]bool, len(keys))
	for _, batch := range lo.Chunk(keys, queryBatch) {
		values, err := r.client.MGet(ctx, lo.Map(batch, func(k string, _ int) string { return r.key(k) })...).Result()
		if err != nil {
			return nil, fmt.Errorf("redis mget: %w", err)
		}
		for i, v := range values {
			if v != nil {
				out[batch[i]] = true
			}
		}
	}
	return out, nil
}

func (r *Redis) Mark(ctx context.Context, key string) error {
	return r.MarkMany(ctx, []string{key})
}

func (r *Redis) MarkMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	marked := time.Now().UTC().Format(time.RFC3339)
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			pipe.Set(ctx, r.key(k), marked, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis mark: %w", err)
	}
	return nil
}

func (r *Redis) CountByPrefix(ctx context.Context, prefix string) (int, error) {
	// SCAN may return a key more than once
	seen := make(map[string]struct{})
	err := r.scan(ctx, prefix, func(keys []string) error {
		for _, k := range keys {
			seen[k] = struct{}{}
		}
		return nil
	})
	return len(seen), err
}

func (r *Redis) ClearByPrefix(ctx context.Context, prefix string) (int, error) {
	var deleted int64
	err := r.scan(ctx, prefix, func(keys []string) error {
		n, err := r.client.Del(ctx, keys...).Result()
		if err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
		deleted += n
		return nil
	})
	return int(deleted), err
}

// scan walks every namespaced key starting with prefix, in SCAN batches.
func (r *Redis) scan(ctx context.Context, prefix string, fn func(keys []string) error) error {
	pattern := escapeGlob(r.key(prefix)) + "*"
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, scanCount).Result()
		if err != nil {
			return fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (r *Redis) Close() error {
	return r.client.Close()
}
