package repository

import (
	"context"

	"github.com/driftbox/driftbox/internal/domain"
)

// PageSize is the fixed number of entries per listing page.
const PageSize = 20

// UserRepository persists users.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

// FileFilter scopes a listing to an owner and optionally a parent folder.
// An empty ParentID means no parent constraint.
type FileFilter struct {
	OwnerID  string
	ParentID string
}

// FileRepository persists file metadata.
type FileRepository interface {
	CreateFile(ctx context.Context, file *domain.File) error
	GetFileByID(ctx context.Context, id string) (*domain.File, error)
	GetOwnedFile(ctx context.Context, id, ownerID string) (*domain.File, error)
	ListFilesPage(ctx context.Context, filter FileFilter, page int) ([]domain.File, error)
	SetFilePublic(ctx context.Context, id, ownerID string, public bool) (*domain.File, error)
	CountFiles(ctx context.Context) (int64, error)
}
