package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type redisBackend struct {
	client *redis.Client
	key    string
}

// NewRedis stores the token under <prefix>access_token.
func NewRedis(ctx context.Context, cfg RedisConfig) (Backend, error) {
	if cfg.Addr == "" {
		return nil, errors.New("session: redis address required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("session: redis ping failed: %w", err)
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "saha:panel:"
	}
	return &redisBackend{client: client, key: prefix + EntryName}, nil
}

func (r *redisBackend) Load(ctx context.Context) (string, error) {
	tok, err := r.client.Get(ctx, r.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return tok, nil
}

// Save keeps the entry without a TTL; expiry is read from the token itself.
func (r *redisBackend) Save(ctx context.Context, token string) error {
	return r.client.Set(ctx, r.key, token, 0).Err()
}

func (r *redisBackend) Delete(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}

func (r *redisBackend) Close() error { return r.client.Close() }
