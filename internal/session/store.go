// Package session keeps opaque token to user id bindings with a TTL in Redis.
// Tokens are random; nothing about a token is derivable from the identity it
// binds.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// ErrNotFound indicates the token has no live binding.
var ErrNotFound = errors.New("session: not found")

const keyPrefix = "driftbox:auth:"

// Client is the subset of redis commands the store uses.
type Client interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// Store issues and resolves session tokens.
type Store struct {
	client Client
	ttl    time.Duration
}

// New constructs a Store. Every binding expires after ttl.
func New(client Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Create mints a random opaque token bound to userID. A user may hold any
// number of concurrent tokens.
func (s *Store) Create(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()
	if err := s.client.Set(ctx, keyPrefix+token, userID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// Lookup resolves a token to the bound user id.
func (s *Store) Lookup(ctx context.Context, token string) (string, error) {
	userID, err := s.client.Get(ctx, keyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup session: %w", err)
	}
	return userID, nil
}

// Revoke deletes the binding. Revoking an absent token is not an error.
func (s *Store) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Ping reports key-value store liveness.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
