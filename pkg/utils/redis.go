package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig controls redis client behavior.
// Keep it config-driven; defaults should be safe and conservative.
type RedisConfig struct {
	Addr string

	// Basic timeouts
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Pool tuning
	PoolSize        int
	MinIdleConns    int
	PoolTimeout     time.Duration
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration

	PingTimeout time.Duration
}

func (c RedisConfig) withDefaults() RedisConfig {
	out := c
	if out.DialTimeout <= 0 {
		out.DialTimeout = 3 * time.Second
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = 2 * time.Second
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = 2 * time.Second
	}
	if out.PoolSize <= 0 {
		out.PoolSize = 20
	}
	if out.MinIdleConns < 0 {
		out.MinIdleConns = 0
	}
	if out.PoolTimeout <= 0 {
		out.PoolTimeout = 4 * time.Second
	}
	if out.ConnMaxIdleTime <= 0 {
		out.ConnMaxIdleTime = 5 * time.Minute
	}
	if out.ConnMaxLifetime <= 0 {
		out.ConnMaxLifetime = 30 * time.Minute
	}
	if out.PingTimeout <= 0 {
		out.PingTimeout = 2 * time.Second
	}
	return out
}

// OpenRedis initializes a Redis client and validates connectivity via PING.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	cfg = cfg.withDefaults()
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Addr,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		PoolTimeout:     cfg.PoolTimeout,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

var lockReleaseScript = redis.NewScript(`
-- KEYS[1] = lock key
-- ARGV[1] = token
-- Only the holder may release.
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// AcquireLock attempts to take an exclusive lock for a key (e.g., one
// in-flight dial per candidate).
//
// Safety properties:
// - Atomic acquire via SET NX.
// - TTL prevents leaked locks on process crash.
func AcquireLock(ctx context.Context, rdb *redis.Client, key, token string, ttl time.Duration) (bool, error) {
	if rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	if key == "" || token == "" {
		return false, fmt.Errorf("key and token are required")
	}
	if ttl <= 0 {
		return false, fmt.Errorf("ttl must be > 0")
	}
	return rdb.SetNX(ctx, key, token, ttl).Result()
}

// ReleaseLock releases a previously acquired lock. Releasing a lock held by
// another token is a no-op.
func ReleaseLock(ctx context.Context, rdb *redis.Client, key, token string) error {
	if rdb == nil {
		return fmt.Errorf("redis client is nil")
	}
	if key == "" || token == "" {
		return fmt.Errorf("key and token are required")
	}
	_, err := lockReleaseScript.Run(ctx, rdb, []string{key}, token).Result()
	return err
}

// CacheGet reads a cached value. A miss returns ("", false, nil).
func CacheGet(ctx context.Context, rdb *redis.Client, key string) (string, bool, error) {
	if rdb == nil {
		return "", false, fmt.Errorf("redis client is nil")
	}
	v, err := rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// CacheSet stores a value with a TTL.
func CacheSet(ctx context.Context, rdb *redis.Client, key, value string, ttl time.Duration) error {
	if rdb == nil {
		return fmt.Errorf("redis client is nil")
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be > 0")
	}
	return rdb.Set(ctx, key, value, ttl).Err()
}
