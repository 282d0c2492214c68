// Package middleware provides optional interceptors for repository reads:
// a Redis-backed result cache and a slow-query log.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seamdb/seam/core"
)

// RedisCache caches repository read results in Redis, keyed by SQL text and
// parameters. Cached entries are the JSON encoding of the query
// destination, so mapped types must round-trip through encoding/json.
//
// Cache failures (unreachable server, decode errors) never fail the query;
// the read falls through to the database.
type RedisCache struct {
	Client *redis.Client
	// TTL is the entry lifetime; zero means no expiration.
	TTL time.Duration
	// Prefix namespaces the cache keys. Defaults to "seam:cache:".
	Prefix string
}

// NewRedisCache connects a cache middleware to the given Redis options.
func NewRedisCache(opt *redis.Options, ttl time.Duration) *RedisCache {
	return &RedisCache{
		Client: redis.NewClient(opt),
		TTL:    ttl,
		Prefix: "seam:cache:",
	}
}

func (m *RedisCache) Name() string { return "RedisCache" }

// Ping verifies the Redis connection.
func (m *RedisCache) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx).Err()
}

// Close releases the Redis client.
func (m *RedisCache) Close() error {
	return m.Client.Close()
}

// Process serves the query from cache when possible, otherwise executes it
// and stores the result.
func (m *RedisCache) Process(ctx context.Context, q *core.Query, next core.QueryFunc) (*core.Result, error) {
	key := m.key(q)

	if val, err := m.Client.Get(ctx, key).Bytes(); err == nil {
		if err := json.Unmarshal(val, q.Dest); err == nil {
			return &core.Result{Rows: destLen(q.Dest), FromCache: true}, nil
		}
		// Corrupt entry: drop it and fall through.
		m.Client.Del(ctx, key)
	}

	res, err := next(ctx, q)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(q.Dest); err == nil {
		m.Client.Set(ctx, key, b, m.TTL)
	}
	return res, nil
}

func (m *RedisCache) key(q *core.Query) string {
	prefix := m.Prefix
	if prefix == "" {
		prefix = "seam:cache:"
	}
	return fmt.Sprintf("%s%s|%#v", prefix, q.SQL, q.Args)
}

func destLen(dest any) int {
	v := reflect.ValueOf(dest)
	if v.Kind() == reflect.Pointer && v.Elem().Kind() == reflect.Slice {
		return v.Elem().Len()
	}
	return 0
}
