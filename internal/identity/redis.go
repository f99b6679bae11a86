package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores fields in one hash per profile.
type RedisBackend struct {
	rdb     *redis.Client
	profile string
}

func NewRedisBackend(rdb *redis.Client, profile string) *RedisBackend {
	if strings.TrimSpace(profile) == "" {
		profile = "default"
	}
	return &RedisBackend{rdb: rdb, profile: strings.TrimSpace(profile)}
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opt), nil
}

func (r *RedisBackend) key() string { return "board:identity:" + r.profile }

func (r *RedisBackend) Get(ctx context.Context, field string) (string, error) {
	v, err := r.rdb.HGet(ctx, r.key(), field).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (r *RedisBackend) Set(ctx context.Context, field, value string) error {
	return r.rdb.HSet(ctx, r.key(), field, value).Err()
}
