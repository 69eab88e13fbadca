package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cfm/backend/internal/domain/identity"
	"github.com/cfm/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "session:"

// RedisSessionStore implements identity.SessionStore on Redis. Expiry is
// delegated to redis key TTLs, so expired tokens simply vanish.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore connects to redis and verifies the connection
func NewRedisSessionStore(cfg *config.RedisConfig) (*RedisSessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 3,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis for session store: %w", err)
	}

	return &RedisSessionStore{client: client}, nil
}

// NewRedisSessionStoreWithClient creates a store with an existing client
func NewRedisSessionStoreWithClient(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(token string) string {
	return redisKeyPrefix + token
}

// Create persists the session with a TTL matching its expiry
func (s *RedisSessionStore) Create(ctx context.Context, session *identity.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(session.Token), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Find returns the session for the token, or nil when unknown or expired
func (s *RedisSessionStore) Find(ctx context.Context, token string) (*identity.Session, error) {
	payload, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	var session identity.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if session.IsExpired(time.Now()) {
		return nil, nil
	}
	return &session, nil
}

// Delete removes the session for the token, succeeding if already gone
func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close releases the underlying redis client
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}
