// Package auth implements the credential store: it verifies email/password
// pairs and issues, resolves and revokes opaque session tokens.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/driftbox/driftbox/internal/crypto"
	"github.com/driftbox/driftbox/internal/domain"
	"github.com/driftbox/driftbox/internal/repository"
	"github.com/driftbox/driftbox/internal/session"
)

// SessionStore is the token binding backend.
type SessionStore interface {
	Create(ctx context.Context, userID string) (string, error)
	Lookup(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
}

// Service handles authentication workflows.
type Service struct {
	users    repository.UserRepository
	sessions SessionStore
	logger   *slog.Logger
}

// New constructs a Service.
func New(users repository.UserRepository, sessions SessionStore, logger *slog.Logger) Service {
	return Service{users: users, sessions: sessions, logger: logger}
}

// Login verifies credentials and mints a session token. Unknown user and
// wrong password fail identically.
func (s Service) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", domain.ErrUnauthorized
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", domain.ErrUnauthorized
		}
		return "", err
	}
	if err := crypto.ComparePassword(user.PasswordHash, password); err != nil {
		return "", domain.ErrUnauthorized
	}
	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return "", err
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return token, nil
}

// Resolve returns the user bound to a session token. An absent or expired
// binding fails Unauthorized.
func (s Service) Resolve(ctx context.Context, token string) (*domain.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, domain.ErrUnauthorized
	}
	userID, err := s.sessions.Lookup(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}

// Logout revokes the presented token. The token must resolve; the revocation
// itself is idempotent.
func (s Service) Logout(ctx context.Context, token string) error {
	user, err := s.Resolve(ctx, token)
	if err != nil {
		return err
	}
	if err := s.sessions.Revoke(ctx, token); err != nil {
		return err
	}
	s.logger.Info("user logged out", "user_id", user.ID)
	return nil
}
