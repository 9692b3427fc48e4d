package postgres

import (
	"fmt"
	"strings"
	"testing"

	"github.com/driftbox/driftbox/internal/repository"
)

func TestListFilesQueryBoundsAndOrder(t *testing.T) {
	query, args := listFilesQuery(repository.FileFilter{OwnerID: "user-1"}, 0)

	if !strings.Contains(query, fmt.Sprintf("LIMIT %d", repository.PageSize)) {
		t.Fatalf("expected page bound of %d: %s", repository.PageSize, query)
	}
	if !strings.Contains(query, "OFFSET 0") {
		t.Fatalf("expected first page at offset 0: %s", query)
	}
	if !strings.Contains(query, "ORDER BY created_at DESC, id DESC") {
		t.Fatalf("expected total descending order: %s", query)
	}
	if len(args) != 1 || args[0] != "user-1" {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestListFilesQueryPagesDoNotOverlap(t *testing.T) {
	// Consecutive pages must advance by exactly the page size so no entry
	// appears twice or falls between pages under a stable order.
	for page := 0; page < 4; page++ {
		query, _ := listFilesQuery(repository.FileFilter{OwnerID: "user-1"}, page)
		want := fmt.Sprintf("LIMIT %d OFFSET %d", repository.PageSize, page*repository.PageSize)
		if !strings.Contains(query, want) {
			t.Fatalf("page %d: expected %q in %s", page, want, query)
		}
	}
}

func TestListFilesQueryClampsNegativePage(t *testing.T) {
	query, _ := listFilesQuery(repository.FileFilter{OwnerID: "user-1"}, -3)
	if !strings.Contains(query, "OFFSET 0") {
		t.Fatalf("expected negative page to clamp to the first: %s", query)
	}
}

func TestListFilesQueryParentScope(t *testing.T) {
	query, args := listFilesQuery(repository.FileFilter{OwnerID: "user-1", ParentID: "folder-9"}, 1)
	if !strings.Contains(query, "AND parent_id = $2") {
		t.Fatalf("expected parent constraint: %s", query)
	}
	if len(args) != 2 || args[1] != "folder-9" {
		t.Fatalf("unexpected args: %v", args)
	}

	query, args = listFilesQuery(repository.FileFilter{OwnerID: "user-1"}, 1)
	if strings.Contains(query, "parent_id") {
		t.Fatalf("unexpected parent constraint without filter: %s", query)
	}
	if len(args) != 1 {
		t.Fatalf("unexpected args: %v", args)
	}
}
