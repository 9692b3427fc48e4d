package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseParentRefRootForms(t *testing.T) {
	for _, raw := range []string{"", "0"} {
		ref, err := ParseParentRef(raw)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", raw, err)
		}
		if !ref.IsRoot() {
			t.Fatalf("expected root for %q", raw)
		}
		if ref.String() != RootSentinel {
			t.Fatalf("unexpected wire form: %q", ref.String())
		}
	}
}

func TestParseParentRefFolder(t *testing.T) {
	id := "0c79ff0e-3b3b-4a85-9e4e-33cd2386c6a1"
	ref, err := ParseParentRef(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.IsRoot() {
		t.Fatalf("expected folder reference")
	}
	folderID, ok := ref.FolderID()
	if !ok || folderID != id {
		t.Fatalf("unexpected folder id: %q", folderID)
	}
}

func TestParseParentRefRejectsMalformed(t *testing.T) {
	if _, err := ParseParentRef("not-an-id"); !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
}

func TestParentRefMarshalsWireForm(t *testing.T) {
	payload, err := json.Marshal(File{ID: "f1", ParentID: Root()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(payload), `"parentId":"0"`) {
		t.Fatalf("expected root sentinel in payload: %s", payload)
	}

	id := "0c79ff0e-3b3b-4a85-9e4e-33cd2386c6a1"
	payload, err = json.Marshal(File{ID: "f2", ParentID: FolderParent(id)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(payload), `"parentId":"`+id+`"`) {
		t.Fatalf("expected folder id in payload: %s", payload)
	}
}

func TestValidFileType(t *testing.T) {
	for _, ft := range []FileType{TypeFolder, TypeFile, TypeImage} {
		if !ValidFileType(ft) {
			t.Fatalf("expected %q to be valid", ft)
		}
	}
	for _, ft := range []FileType{"", "document", "FOLDER"} {
		if ValidFileType(ft) {
			t.Fatalf("expected %q to be invalid", ft)
		}
	}
}

func TestParseIDCanonicalizes(t *testing.T) {
	id, err := ParseID("0C79FF0E-3B3B-4A85-9E4E-33CD2386C6A1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "0c79ff0e-3b3b-4a85-9e4e-33cd2386c6a1" {
		t.Fatalf("unexpected canonical id: %q", id)
	}
	if _, err := ParseID("xyz"); !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
}

func TestValidThumbnailWidth(t *testing.T) {
	for _, w := range ThumbnailWidths {
		if !ValidThumbnailWidth(w) {
			t.Fatalf("expected width %d to be valid", w)
		}
	}
	for _, w := range []int{0, 50, 1000} {
		if ValidThumbnailWidth(w) {
			t.Fatalf("expected width %d to be invalid", w)
		}
	}
}
