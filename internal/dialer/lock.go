package dialer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"outdial-platform/pkg/utils"
)

// dialLockTTL bounds how long a crashed dialer can hold a candidate. A
// provider call placement finishes well inside this window.
const dialLockTTL = 30 * time.Second

// RedisLock serializes dials per candidate across API instances.
type RedisLock struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewRedisLock(rdb *redis.Client, log *slog.Logger) *RedisLock {
	return &RedisLock{rdb: rdb, log: log}
}

func (l *RedisLock) Acquire(ctx context.Context, candidateID int64) (func(), bool, error) {
	key := fmt.Sprintf("dial:lock:%d", candidateID)
	token := uuid.NewString()

	ok, err := utils.AcquireLock(ctx, l.rdb, key, token, dialLockTTL)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		if err := utils.ReleaseLock(context.WithoutCancel(ctx), l.rdb, key, token); err != nil {
			l.log.Warn("dial lock release failed", "key", key, "error", err)
		}
	}
	return release, true, nil
}
