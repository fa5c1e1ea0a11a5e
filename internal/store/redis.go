package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

// releaseLockScript deletes a lock key only when the caller still owns it,
// so a holder whose lock expired cannot release a successor's lock.
var releaseLockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// RedisConfig holds connection settings for the redis store backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// redisStore implements Store on a redis instance.
type redisStore struct {
	rdb *redis.Client
}

// NewRedis creates a redis-backed store with connection validation.
func NewRedis(cfg RedisConfig) (Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, types.WrapError(types.STORE_ERROR, "redis ping failed", err)
	}

	return &redisStore{rdb: rdb}, nil
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, types.WrapRetryableError(types.STORE_ERROR, fmt.Sprintf("redis get %q failed", key), err)
	}
	return val, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return types.WrapRetryableError(types.STORE_ERROR, fmt.Sprintf("redis set %q failed", key), err)
	}
	return nil
}

func (s *redisStore) AcquireLock(ctx context.Context, key string, ttl time.Duration) (Unlock, error) {
	token := uuid.New().String()

	ok, err := s.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, types.WrapRetryableError(types.STORE_ERROR, fmt.Sprintf("redis setnx %q failed", key), err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	unlock := func(ctx context.Context) error {
		if err := releaseLockScript.Run(ctx, s.rdb, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return types.WrapError(types.STORE_ERROR, fmt.Sprintf("redis lock release %q failed", key), err)
		}
		return nil
	}
	return unlock, nil
}

func (s *redisStore) Close() error {
	return s.rdb.Close()
}
