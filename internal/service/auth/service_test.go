package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/driftbox/driftbox/internal/crypto"
	"github.com/driftbox/driftbox/internal/domain"
	"github.com/driftbox/driftbox/internal/repository"
	"github.com/driftbox/driftbox/internal/session"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type userRepoMock struct {
	getByEmailFunc func(ctx context.Context, email string) (*domain.User, error)
	getByIDFunc    func(ctx context.Context, id string) (*domain.User, error)
}

func (m userRepoMock) CreateUser(context.Context, *domain.User) error { return nil }

func (m userRepoMock) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFunc != nil {
		return m.getByEmailFunc(ctx, email)
	}
	return nil, repository.ErrNotFound
}

func (m userRepoMock) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m userRepoMock) CountUsers(context.Context) (int64, error) { return 0, nil }

type sessionStoreMock struct {
	createFunc func(ctx context.Context, userID string) (string, error)
	lookupFunc func(ctx context.Context, token string) (string, error)
	revokeFunc func(ctx context.Context, token string) error
}

func (m sessionStoreMock) Create(ctx context.Context, userID string) (string, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, userID)
	}
	return "token-1", nil
}

func (m sessionStoreMock) Lookup(ctx context.Context, token string) (string, error) {
	if m.lookupFunc != nil {
		return m.lookupFunc(ctx, token)
	}
	return "", session.ErrNotFound
}

func (m sessionStoreMock) Revoke(ctx context.Context, token string) error {
	if m.revokeFunc != nil {
		return m.revokeFunc(ctx, token)
	}
	return nil
}

func knownUser(t *testing.T, password string) *domain.User {
	t.Helper()
	hash, err := crypto.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &domain.User{ID: "user-1", Email: "bob@dylan.com", PasswordHash: hash}
}

func TestLoginIssuesToken(t *testing.T) {
	user := knownUser(t, "toto1234!")
	users := userRepoMock{
		getByEmailFunc: func(_ context.Context, email string) (*domain.User, error) {
			if email != user.Email {
				t.Fatalf("unexpected email lookup: %s", email)
			}
			return user, nil
		},
	}
	sessions := sessionStoreMock{
		createFunc: func(_ context.Context, userID string) (string, error) {
			if userID != user.ID {
				t.Fatalf("unexpected user id: %s", userID)
			}
			return "minted-token", nil
		},
	}
	svc := New(users, sessions, newLogger())

	token, err := svc.Login(context.Background(), user.Email, "toto1234!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "minted-token" {
		t.Fatalf("unexpected token: %q", token)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	user := knownUser(t, "toto1234!")
	users := userRepoMock{
		getByEmailFunc: func(context.Context, string) (*domain.User, error) { return user, nil },
	}
	svc := New(users, sessionStoreMock{}, newLogger())

	if _, err := svc.Login(context.Background(), user.Email, "wrong"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestLoginRejectsUnknownUser(t *testing.T) {
	svc := New(userRepoMock{}, sessionStoreMock{}, newLogger())
	if _, err := svc.Login(context.Background(), "nobody@dylan.com", "pw"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestLoginRejectsEmptyCredentials(t *testing.T) {
	svc := New(userRepoMock{}, sessionStoreMock{}, newLogger())
	for _, tc := range []struct{ email, password string }{
		{"", "pw"},
		{"bob@dylan.com", ""},
		{"", ""},
	} {
		if _, err := svc.Login(context.Background(), tc.email, tc.password); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized for %q/%q, got %v", tc.email, tc.password, err)
		}
	}
}

func TestResolveReturnsBoundUser(t *testing.T) {
	users := userRepoMock{
		getByIDFunc: func(_ context.Context, id string) (*domain.User, error) {
			if id != "user-1" {
				t.Fatalf("unexpected user id: %s", id)
			}
			return &domain.User{ID: "user-1", Email: "bob@dylan.com"}, nil
		},
	}
	sessions := sessionStoreMock{
		lookupFunc: func(_ context.Context, token string) (string, error) {
			if token != "tok" {
				t.Fatalf("unexpected token: %s", token)
			}
			return "user-1", nil
		},
	}
	svc := New(users, sessions, newLogger())

	user, err := svc.Resolve(context.Background(), "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != "bob@dylan.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestResolveUnknownToken(t *testing.T) {
	svc := New(userRepoMock{}, sessionStoreMock{}, newLogger())
	if _, err := svc.Resolve(context.Background(), "expired"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.Resolve(context.Background(), "  "); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for blank token, got %v", err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	revoked := false
	users := userRepoMock{
		getByIDFunc: func(context.Context, string) (*domain.User, error) {
			return &domain.User{ID: "user-1"}, nil
		},
	}
	sessions := sessionStoreMock{
		lookupFunc: func(context.Context, string) (string, error) { return "user-1", nil },
		revokeFunc: func(_ context.Context, token string) error {
			if token != "tok" {
				t.Fatalf("unexpected token: %s", token)
			}
			revoked = true
			return nil
		},
	}
	svc := New(users, sessions, newLogger())

	if err := svc.Logout(context.Background(), "tok"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !revoked {
		t.Fatalf("expected token revocation")
	}
}

func TestLogoutRejectsUnknownToken(t *testing.T) {
	sessions := sessionStoreMock{
		revokeFunc: func(context.Context, string) error {
			t.Fatalf("revoke must not be called for an unresolved token")
			return nil
		},
	}
	svc := New(userRepoMock{}, sessions, newLogger())
	if err := svc.Logout(context.Background(), "bad"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
