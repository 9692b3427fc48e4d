package domain

import (
	"encoding/json"
	"time"
)

// FileType enumerates the kinds of stored entries.
type FileType string

const (
	TypeFolder FileType = "folder"
	TypeFile   FileType = "file"
	TypeImage  FileType = "image"
)

// ValidFileType reports whether t is one of the known file types.
func ValidFileType(t FileType) bool {
	switch t {
	case TypeFolder, TypeFile, TypeImage:
		return true
	}
	return false
}

// RootSentinel is the wire representation of "no parent folder".
const RootSentinel = "0"

// ParentRef identifies a file's parent: either the storage root or an existing
// folder. The zero value is the root.
type ParentRef struct {
	folderID string
}

// Root returns the root parent reference.
func Root() ParentRef { return ParentRef{} }

// FolderParent returns a reference to the folder with the given id.
func FolderParent(id string) ParentRef { return ParentRef{folderID: id} }

// ParseParentRef interprets the wire form: empty or "0" means root, anything
// else must be a well-formed identifier.
func ParseParentRef(raw string) (ParentRef, error) {
	if raw == "" || raw == RootSentinel {
		return ParentRef{}, nil
	}
	id, err := ParseID(raw)
	if err != nil {
		return ParentRef{}, err
	}
	return ParentRef{folderID: id}, nil
}

// IsRoot reports whether the reference denotes the storage root.
func (p ParentRef) IsRoot() bool { return p.folderID == "" }

// FolderID returns the referenced folder id; ok is false at the root.
func (p ParentRef) FolderID() (string, bool) { return p.folderID, p.folderID != "" }

// String renders the wire form ("0" at the root).
func (p ParentRef) String() string {
	if p.folderID == "" {
		return RootSentinel
	}
	return p.folderID
}

// MarshalJSON renders the wire form.
func (p ParentRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// File is a stored entry: a folder, a regular file or an image. Only IsPublic
// is mutable after creation.
type File struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"userId"`
	Name       string    `json:"name"`
	Type       FileType  `json:"type"`
	IsPublic   bool      `json:"isPublic"`
	ParentID   ParentRef `json:"parentId"`
	ContentRef string    `json:"-"`
	CreatedAt  time.Time `json:"-"`
}
