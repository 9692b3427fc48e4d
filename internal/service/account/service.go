// Package account registers users and resolves "who am I" lookups.
package account

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/driftbox/driftbox/internal/crypto"
	"github.com/driftbox/driftbox/internal/domain"
	"github.com/driftbox/driftbox/internal/queue"
	"github.com/driftbox/driftbox/internal/repository"
)

// TokenResolver resolves a session token to its user.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*domain.User, error)
}

// Enqueuer publishes welcome jobs for new accounts, plus the queued state
// event that opens the job's lifecycle on the event stream.
type Enqueuer interface {
	Enqueue(ctx context.Context, lane string, job any) error
	PublishEvent(ctx context.Context, event domain.JobEvent) error
}

// Service handles account workflows.
type Service struct {
	users    repository.UserRepository
	files    repository.FileRepository
	resolver TokenResolver
	jobs     Enqueuer
	logger   *slog.Logger
}

// New constructs a Service.
func New(users repository.UserRepository, files repository.FileRepository, resolver TokenResolver, jobs Enqueuer, logger *slog.Logger) Service {
	return Service{users: users, files: files, resolver: resolver, jobs: jobs, logger: logger}
}

// Register creates an account and queues its welcome notification. The raw
// password is never stored.
func (s Service) Register(ctx context.Context, email, password string) (*domain.User, error) {
	if email == "" {
		return nil, domain.Validation("Missing email")
	}
	if password == "" {
		return nil, domain.Validation("Missing password")
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, domain.Validation("Already exist")
		}
		return nil, err
	}
	if s.jobs != nil {
		if err := s.jobs.Enqueue(ctx, queue.LaneWelcome, domain.WelcomeJob{UserID: user.ID}); err != nil {
			s.logger.Error("welcome job enqueue failed", "user_id", user.ID, "error", err)
		} else {
			event := domain.JobEvent{Lane: "welcome", OwnerID: user.ID, Status: domain.JobQueued}
			if err := s.jobs.PublishEvent(ctx, event); err != nil {
				s.logger.Warn("job event publish failed", "user_id", user.ID, "error", err)
			}
		}
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// WhoAmI returns the account bound to the presented session token.
func (s Service) WhoAmI(ctx context.Context, token string) (*domain.User, error) {
	return s.resolver.Resolve(ctx, token)
}

// Stats reports user and file totals.
func (s Service) Stats(ctx context.Context) (users, files int64, err error) {
	users, err = s.users.CountUsers(ctx)
	if err != nil {
		return 0, 0, err
	}
	files, err = s.files.CountFiles(ctx)
	if err != nil {
		return 0, 0, err
	}
	return users, files, nil
}
