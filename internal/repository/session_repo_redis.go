package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisSessionRepository struct {
	client redisKV
	prefix string
}

// NewRedisSessionRepository guarda cada sesion como una clave con TTL.
func NewRedisSessionRepository(client *redis.Client) SessionRepository {
	if client == nil {
		return nil
	}
	return &redisSessionRepository{
		client: client,
		prefix: "web:session:",
	}
}

func (r *redisSessionRepository) Get(ctx context.Context, id string) ([]byte, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrSessionNotFound
	}
	val, err := r.client.Get(ctx, r.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (r *redisSessionRepository) Put(ctx context.Context, id string, record []byte, ttl time.Duration) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return r.client.Set(ctx, r.prefix+id, record, ttl).Err()
}

func (r *redisSessionRepository) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	return r.client.Del(ctx, r.prefix+id).Err()
}
