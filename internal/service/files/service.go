// Package files implements the file repository surface: uploads, metadata
// fetches, paginated listing, visibility flips and content reads, with the
// access-control rules applied on every file-returning path.
package files

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/driftbox/driftbox/internal/blob"
	"github.com/driftbox/driftbox/internal/domain"
	"github.com/driftbox/driftbox/internal/queue"
	"github.com/driftbox/driftbox/internal/repository"
)

var enqueueFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "driftbox_enqueue_failures_total",
	Help: "Thumbnail jobs that could not be published after upload.",
})

// BlobStore persists raw content under opaque references.
type BlobStore interface {
	Save(content []byte) (string, error)
	Open(ref string) (io.ReadCloser, error)
}

// Enqueuer publishes thumbnail jobs for uploaded images, plus the queued
// state event that opens the job's lifecycle on the event stream.
type Enqueuer interface {
	Enqueue(ctx context.Context, lane string, job any) error
	PublishEvent(ctx context.Context, event domain.JobEvent) error
}

// Service handles file workflows.
type Service struct {
	files  repository.FileRepository
	blobs  BlobStore
	jobs   Enqueuer
	cache  *metadataCache
	logger *slog.Logger
}

// New constructs a Service. cacheSize and cacheTTL bound the metadata cache
// on the content-download path.
func New(files repository.FileRepository, blobs BlobStore, jobs Enqueuer, logger *slog.Logger, cacheSize int, cacheTTL time.Duration) *Service {
	return &Service{
		files:  files,
		blobs:  blobs,
		jobs:   jobs,
		cache:  newMetadataCache(cacheSize, cacheTTL),
		logger: logger,
	}
}

// UploadInput carries the client-supplied fields for a new file.
type UploadInput struct {
	Name       string
	Type       string
	ParentID   string
	IsPublic   bool
	DataBase64 string
}

// Upload validates input fully, stores content and creates the metadata
// record. Image uploads additionally enqueue one thumbnail job, after the
// record write commits; an enqueue failure does not roll the upload back.
func (s *Service) Upload(ctx context.Context, ownerID string, in UploadInput) (*domain.File, error) {
	if in.Name == "" {
		return nil, domain.Validation("Missing name")
	}
	fileType := domain.FileType(in.Type)
	if !domain.ValidFileType(fileType) {
		return nil, domain.Validation("Missing type")
	}
	if in.DataBase64 == "" && fileType != domain.TypeFolder {
		return nil, domain.Validation("Missing data")
	}
	parent, err := domain.ParseParentRef(in.ParentID)
	if err != nil {
		return nil, domain.Validation("Parent not found")
	}
	if folderID, ok := parent.FolderID(); ok {
		parentFile, err := s.files.GetFileByID(ctx, folderID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, domain.Validation("Parent not found")
			}
			return nil, err
		}
		if parentFile.Type != domain.TypeFolder {
			return nil, domain.Validation("Parent is not a folder")
		}
	}

	file := &domain.File{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      in.Name,
		Type:      fileType,
		IsPublic:  in.IsPublic,
		ParentID:  parent,
		CreatedAt: time.Now().UTC(),
	}
	if fileType != domain.TypeFolder {
		content, err := base64.StdEncoding.DecodeString(in.DataBase64)
		if err != nil {
			return nil, domain.Validation("Missing data")
		}
		ref, err := s.blobs.Save(content)
		if err != nil {
			return nil, fmt.Errorf("store content: %w", err)
		}
		file.ContentRef = ref
	}
	if err := s.files.CreateFile(ctx, file); err != nil {
		return nil, err
	}
	if fileType == domain.TypeImage {
		job := domain.ThumbnailJob{OwnerID: ownerID, FileID: file.ID}
		if err := s.jobs.Enqueue(ctx, queue.LaneThumbnails, job); err != nil {
			// The record is committed; thumbnails can be re-queued later.
			enqueueFailuresTotal.Inc()
			s.logger.Error("thumbnail job enqueue failed", "file_id", file.ID, "error", err)
		} else {
			event := domain.JobEvent{Lane: "thumbnails", OwnerID: ownerID, FileID: file.ID, Status: domain.JobQueued}
			if err := s.jobs.PublishEvent(ctx, event); err != nil {
				s.logger.Warn("job event publish failed", "file_id", file.ID, "error", err)
			}
		}
	}
	s.logger.Info("file uploaded", "file_id", file.ID, "type", fileType)
	return file, nil
}

// Get returns a file scoped to the caller as owner. Absence and foreign
// ownership are indistinguishable.
func (s *Service) Get(ctx context.Context, callerID, id string) (*domain.File, error) {
	fileID, err := domain.ParseID(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return s.files.GetOwnedFile(ctx, fileID, callerID)
}

// List returns one page of the caller's files, most recent first, optionally
// scoped to a parent folder. A malformed or unknown parent filter yields an
// empty page rather than an error.
func (s *Service) List(ctx context.Context, callerID, parentID string, page int) ([]domain.File, error) {
	if page < 0 {
		page = 0
	}
	filter := repository.FileFilter{OwnerID: callerID}
	if parentID != "" && parentID != domain.RootSentinel {
		folderID, err := domain.ParseID(parentID)
		if err != nil {
			return []domain.File{}, nil
		}
		filter.ParentID = folderID
	}
	return s.files.ListFilesPage(ctx, filter, page)
}

// SetPublic flips the visibility of a caller-owned file. The flip is
// idempotent and last-writer-wins.
func (s *Service) SetPublic(ctx context.Context, callerID, id string, public bool) (*domain.File, error) {
	fileID, err := domain.ParseID(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	file, err := s.files.GetFileByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !canMutate(file, callerID) {
		return nil, repository.ErrNotFound
	}
	updated, err := s.files.SetFilePublic(ctx, fileID, callerID, public)
	if err != nil {
		return nil, err
	}
	s.cache.drop(fileID)
	return updated, nil
}

// Content streams a file's bytes, or a derivative when width is non-zero.
// Access denial is indistinguishable from absence.
func (s *Service) Content(ctx context.Context, callerID, id string, width int) (io.ReadCloser, *domain.File, error) {
	fileID, err := domain.ParseID(id)
	if err != nil {
		return nil, nil, repository.ErrNotFound
	}
	file, ok := s.cache.get(fileID)
	if !ok {
		file, err = s.files.GetFileByID(ctx, fileID)
		if err != nil {
			return nil, nil, err
		}
		s.cache.set(fileID, file)
	}
	if !canRead(file, callerID) {
		return nil, nil, repository.ErrNotFound
	}
	if file.Type == domain.TypeFolder {
		return nil, nil, domain.Validation("A folder doesn't have content")
	}
	ref := file.ContentRef
	if width != 0 {
		ref = blob.DerivedRef(ref, width)
	}
	rc, err := s.blobs.Open(ref)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, nil, repository.ErrNotFound
		}
		return nil, nil, err
	}
	return rc, file, nil
}
