package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/driftbox/driftbox/internal/domain"
	"github.com/driftbox/driftbox/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.UserRepository = (*Repository)(nil)
	_ repository.FileRepository = (*Repository)(nil)
)

const uniqueViolation = "23505"

// CreateUser inserts a user. A duplicate email maps to ErrAlreadyExists.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	const query = `INSERT INTO users (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)`
	_, err := r.pool.Exec(ctx, query, user.ID, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetUserByEmail fetches a user by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT id, email, password_hash, created_at FROM users WHERE email = $1`
	row := r.pool.QueryRow(ctx, query, email)
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetUserByID retrieves a user by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT id, email, password_hash, created_at FROM users WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// CountUsers returns the total number of registered users.
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(1) FROM users`
	var count int64
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

const fileColumns = `id, owner_id, name, type, is_public, parent_id, content_ref, created_at`

// CreateFile inserts a file metadata record.
func (r *Repository) CreateFile(ctx context.Context, file *domain.File) error {
	const query = `INSERT INTO files (id, owner_id, name, type, is_public, parent_id, content_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	var parentID *string
	if id, ok := file.ParentID.FolderID(); ok {
		parentID = &id
	}
	var contentRef *string
	if file.ContentRef != "" {
		contentRef = &file.ContentRef
	}
	_, err := r.pool.Exec(ctx, query, file.ID, file.OwnerID, file.Name, file.Type, file.IsPublic, parentID, contentRef, file.CreatedAt)
	return err
}

// GetFileByID looks up a file with no ownership filter.
func (r *Repository) GetFileByID(ctx context.Context, id string) (*domain.File, error) {
	query := fmt.Sprintf(`SELECT %s FROM files WHERE id = $1`, fileColumns)
	return r.scanFile(r.pool.QueryRow(ctx, query, id))
}

// GetOwnedFile looks up a file scoped to a specific owner.
func (r *Repository) GetOwnedFile(ctx context.Context, id, ownerID string) (*domain.File, error) {
	query := fmt.Sprintf(`SELECT %s FROM files WHERE id = $1 AND owner_id = $2`, fileColumns)
	return r.scanFile(r.pool.QueryRow(ctx, query, id, ownerID))
}

// listFilesQuery builds the page query. The ordering key (created_at, id) is
// total, so consecutive offsets partition the result set: no entry repeats
// across pages and none is skipped between stable reads.
func listFilesQuery(filter repository.FileFilter, page int) (string, []any) {
	if page < 0 {
		page = 0
	}
	query := fmt.Sprintf(`SELECT %s FROM files WHERE owner_id = $1`, fileColumns)
	args := []any{filter.OwnerID}
	if filter.ParentID != "" {
		query += ` AND parent_id = $2`
		args = append(args, filter.ParentID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`,
		repository.PageSize, page*repository.PageSize)
	return query, args
}

// ListFilesPage returns one page of files, most recent first. The offset is
// not transactionally consistent with concurrent inserts.
func (r *Repository) ListFilesPage(ctx context.Context, filter repository.FileFilter, page int) ([]domain.File, error) {
	query, args := listFilesQuery(filter, page)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := make([]domain.File, 0)
	for rows.Next() {
		file, err := scanFileRow(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *file)
	}
	return files, rows.Err()
}

// SetFilePublic atomically flips visibility on an owner's file. Last writer
// wins; no optimistic concurrency control.
func (r *Repository) SetFilePublic(ctx context.Context, id, ownerID string, public bool) (*domain.File, error) {
	query := fmt.Sprintf(`UPDATE files SET is_public = $3 WHERE id = $1 AND owner_id = $2 RETURNING %s`, fileColumns)
	return r.scanFile(r.pool.QueryRow(ctx, query, id, ownerID, public))
}

// CountFiles returns the total number of file records.
func (r *Repository) CountFiles(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(1) FROM files`
	var count int64
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) scanFile(row pgx.Row) (*domain.File, error) {
	file, err := scanFileRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return file, nil
}

func scanFileRow(row pgx.Row) (*domain.File, error) {
	var (
		f          domain.File
		parentID   *string
		contentRef *string
	)
	if err := row.Scan(&f.ID, &f.OwnerID, &f.Name, &f.Type, &f.IsPublic, &parentID, &contentRef, &f.CreatedAt); err != nil {
		return nil, err
	}
	if parentID != nil {
		f.ParentID = domain.FolderParent(*parentID)
	}
	if contentRef != nil {
		f.ContentRef = *contentRef
	}
	return &f, nil
}
