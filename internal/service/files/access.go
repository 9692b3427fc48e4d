package files

import "github.com/driftbox/driftbox/internal/domain"

// canRead: public files are readable by anyone; private files only by their
// owner. An anonymous caller has an empty id.
func canRead(f *domain.File, callerID string) bool {
	return f.IsPublic || (callerID != "" && f.OwnerID == callerID)
}

// canMutate: only the owner may change a file. There is no public-write path.
func canMutate(f *domain.File, callerID string) bool {
	return callerID != "" && f.OwnerID == callerID
}
