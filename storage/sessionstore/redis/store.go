package redisstore

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/niva/core"
	"github.com/trezcool/niva/core/session"
)

// Store keeps session keys in Redis, without expiry.
type Store struct {
	rdb *redis.Client
}

var _ session.Store = (*Store)(nil)

func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Open connects to the configured Redis server and pings it.
func Open(ctx context.Context, conf core.SessionConfig) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.RedisAddr,
		Password: conf.RedisPassword,
		DB:       conf.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "connecting to redis at %s", conf.RedisAddr)
	}
	return New(rdb), nil
}

func (s *Store) Close() error { return s.rdb.Close() }

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	val, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", session.ErrNotFound
		}
		return "", errors.Wrap(err, "redis GET")
	}
	return val, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	return errors.Wrap(s.rdb.Set(ctx, key, value, 0).Err(), "redis SET")
}

// Delete issues a single DEL for all keys.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return errors.Wrap(s.rdb.Del(ctx, keys...).Err(), "redis DEL")
}
