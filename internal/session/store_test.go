package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
)

type clientMock struct {
	setFunc func(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	getFunc func(ctx context.Context, key string) *redis.StringCmd
	delFunc func(ctx context.Context, keys ...string) *redis.IntCmd
}

func (m clientMock) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if m.setFunc != nil {
		return m.setFunc(ctx, key, value, expiration)
	}
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (m clientMock) Get(ctx context.Context, key string) *redis.StringCmd {
	if m.getFunc != nil {
		return m.getFunc(ctx, key)
	}
	cmd := redis.NewStringCmd(ctx)
	cmd.SetErr(redis.Nil)
	return cmd
}

func (m clientMock) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	if m.delFunc != nil {
		return m.delFunc(ctx, keys...)
	}
	return redis.NewIntCmd(ctx)
}

func (m clientMock) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("PONG")
	return cmd
}

func TestCreateAppliesConfiguredTTL(t *testing.T) {
	var gotKey string
	var gotValue any
	var gotTTL time.Duration
	client := clientMock{
		setFunc: func(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
			gotKey = key
			gotValue = value
			gotTTL = expiration
			cmd := redis.NewStatusCmd(ctx)
			cmd.SetVal("OK")
			return cmd
		},
	}
	store := New(client, 24*time.Hour)

	token, err := store.Create(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}
	if gotTTL != 24*time.Hour {
		t.Fatalf("expected 24h expiry on the binding, got %v", gotTTL)
	}
	if gotKey != keyPrefix+token {
		t.Fatalf("unexpected key: %q", gotKey)
	}
	if gotValue != "user-1" {
		t.Fatalf("unexpected bound value: %v", gotValue)
	}
}

func TestCreateMintsDistinctTokens(t *testing.T) {
	store := New(clientMock{}, time.Hour)
	first, err := store.Create(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := store.Create(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct tokens, got %q twice", first)
	}
	// Nothing about the token may derive from the identity it binds.
	if strings.Contains(first, "user-1") {
		t.Fatalf("token leaks user id: %q", first)
	}
}

func TestLookupResolvesBinding(t *testing.T) {
	client := clientMock{
		getFunc: func(ctx context.Context, key string) *redis.StringCmd {
			if !strings.HasPrefix(key, keyPrefix) {
				t.Fatalf("unexpected key: %q", key)
			}
			cmd := redis.NewStringCmd(ctx)
			cmd.SetVal("user-1")
			return cmd
		},
	}
	store := New(client, time.Hour)

	userID, err := store.Lookup(context.Background(), "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("unexpected user id: %q", userID)
	}
}

func TestLookupExpiredBinding(t *testing.T) {
	store := New(clientMock{}, time.Hour)
	if _, err := store.Lookup(context.Background(), "expired"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRevokeDeletesBinding(t *testing.T) {
	var deleted []string
	client := clientMock{
		delFunc: func(ctx context.Context, keys ...string) *redis.IntCmd {
			deleted = append(deleted, keys...)
			return redis.NewIntCmd(ctx)
		},
	}
	store := New(client, time.Hour)

	if err := store.Revoke(context.Background(), "tok"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deleted) != 1 || deleted[0] != keyPrefix+"tok" {
		t.Fatalf("unexpected deletions: %v", deleted)
	}
}
