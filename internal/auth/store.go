package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/iyhunko/gas-app/internal/config"
)

// SessionStore keeps track of live sessions so they can be revoked before they expire.
type SessionStore interface {
	Save(ctx context.Context, id string, producerID uuid.UUID, ttl time.Duration) error
	Exists(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// NopSessionStore accepts every session. Logout then only clears the client cookie.
type NopSessionStore struct{}

func (NopSessionStore) Save(context.Context, string, uuid.UUID, time.Duration) error { return nil }
func (NopSessionStore) Exists(context.Context, string) (bool, error)                 { return true, nil }
func (NopSessionStore) Delete(context.Context, string) error                         { return nil }

// RedisSessionStore stores sessions as session:<id> keys that expire with the session.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore creates a RedisSessionStore.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, conf config.Redis) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func sessionKey(id string) string {
	return "session:" + id
}

func (s *RedisSessionStore) Save(ctx context.Context, id string, producerID uuid.UUID, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKey(id), producerID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, sessionKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to look up session: %w", err)
	}
	return n == 1, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
