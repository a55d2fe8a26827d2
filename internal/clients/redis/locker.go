package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/studentbridge-backend/internal/logger"
)

// Locker is a per-key mutex guarding intervention creation across concurrent
// planning runs. Unlock is best-effort: the TTL bounds how long a crashed
// holder can block a key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool, err error)
	Close() error
}

type redisLocker struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewLocker(log *logger.Logger) (Locker, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisLocker{
		log: log.With("service", "RedisLocker"),
		rdb: rdb,
	}, nil
}

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		// Only the holder's token may delete the key, so an expired-and-taken
		// lock is never released by the previous holder.
		bg, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		const script = `
			if redis.call("get", KEYS[1]) == ARGV[1] then
				return redis.call("del", KEYS[1])
			end
			return 0
		`
		if err := l.rdb.Eval(bg, script, []string{key}, token).Err(); err != nil {
			l.log.Warn("Failed to release lock", "key", key, "error", err)
		}
	}
	return release, true, nil
}

func (l *redisLocker) Close() error {
	return l.rdb.Close()
}

// NoopLocker is the redis-less fallback; the repository's conditional create
// remains the correctness guard, the lock only reduces wasted insight calls.
type NoopLocker struct{}

func (NoopLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	return func() {}, true, nil
}

func (NoopLocker) Close() error { return nil }
