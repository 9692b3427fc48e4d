// Package blob stores raw file content on disk under unguessable references,
// independent of client-supplied names.
package blob

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound indicates no content exists for the reference.
var ErrNotFound = errors.New("blob: not found")

// Store writes content into a root directory created on demand.
type Store struct {
	root string
}

// New constructs a Store rooted at dir.
func New(dir string) *Store {
	return &Store{root: dir}
}

// Save stores content under a fresh random reference and returns it.
func (s *Store) Save(content []byte) (string, error) {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", fmt.Errorf("create storage root: %w", err)
	}
	ref := uuid.NewString()
	if err := os.WriteFile(filepath.Join(s.root, ref), content, 0o644); err != nil {
		return "", fmt.Errorf("write content: %w", err)
	}
	return ref, nil
}

// Open returns a reader over the stored content for ref.
func (s *Store) Open(ref string) (io.ReadCloser, error) {
	path, err := s.path(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open content: %w", err)
	}
	return f, nil
}

// Read loads the whole content for ref.
func (s *Store) Read(ref string) ([]byte, error) {
	rc, err := s.Open(ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// SaveDerived stores a resized derivative next to its original, overwriting
// any previous derivative at the same reference.
func (s *Store) SaveDerived(ref string, width int, content []byte) error {
	path, err := s.path(DerivedRef(ref, width))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create storage root: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write derivative: %w", err)
	}
	return nil
}

// DerivedRef names the resized copy of ref at the given width.
func DerivedRef(ref string, width int) string {
	return fmt.Sprintf("%s_%d", ref, width)
}

// path resolves a reference inside the root. References never contain path
// separators; anything else is treated as absent.
func (s *Store) path(ref string) (string, error) {
	if ref == "" || strings.ContainsAny(ref, `/\`) || strings.Contains(ref, "..") {
		return "", ErrNotFound
	}
	return filepath.Join(s.root, ref), nil
}
