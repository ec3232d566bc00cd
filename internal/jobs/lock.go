package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serializes freeze runs across console processes.
type Locker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// LocalLocker serializes runs within one process. It is the fallback when no
// redis is configured, so a manual run cannot overlap a scheduled one.
type LocalLocker struct {
	mu sync.Mutex
}

func (l *LocalLocker) Acquire(context.Context) (func(), error) {
	if !l.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	return l.mu.Unlock, nil
}

const freezeLockKey = "eduadmin:freeze:lock"

// RedisLocker holds the lock as a key with a TTL so a crashed run cannot
// block the next one forever.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisLocker{client: client, ttl: ttl}
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

func (l *RedisLocker) Acquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, freezeLockKey, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRunInProgress
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client, []string{freezeLockKey}, token).Err()
	}, nil
}
