package blob

import (
	"errors"
	"io"
	"testing"
)

func TestSaveAndOpenRoundtrip(t *testing.T) {
	store := New(t.TempDir())

	ref, err := store.Save([]byte("hello world"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref == "" {
		t.Fatalf("expected non-empty reference")
	}

	rc, err := store.Open(ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()
	content, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read content: %v", err)
	}
	if string(content) != "hello world" {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestSaveGeneratesDistinctRefs(t *testing.T) {
	store := New(t.TempDir())
	first, err := store.Save([]byte("a"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := store.Save([]byte("a"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct references, got %q twice", first)
	}
}

func TestOpenMissingRef(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Open("does-not-exist"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenRejectsPathishRefs(t *testing.T) {
	store := New(t.TempDir())
	for _, ref := range []string{"", "../escape", "a/b", `a\b`} {
		if _, err := store.Open(ref); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound for %q, got %v", ref, err)
		}
	}
}

func TestSaveDerivedOverwrites(t *testing.T) {
	store := New(t.TempDir())
	ref, err := store.Save([]byte("original"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.SaveDerived(ref, 100, []byte("v1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.SaveDerived(ref, 100, []byte("v2")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	content, err := store.Read(DerivedRef(ref, 100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(content) != "v2" {
		t.Fatalf("expected overwrite, got %q", content)
	}
}

func TestDerivedRef(t *testing.T) {
	if got := DerivedRef("abc", 250); got != "abc_250" {
		t.Fatalf("unexpected derived ref: %q", got)
	}
}
