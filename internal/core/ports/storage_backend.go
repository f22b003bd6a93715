package ports

import (
	"context"

	"github.com/factorchain/compliance-node/internal/core/domain"
)

// StorageBackend persists and retrieves content by its content address. Put is
// idempotent for identical content: storing the same bytes twice yields the
// same locator and no second copy.
type StorageBackend interface {
	// Put stores content and returns its locator
	Put(ctx context.Context, content []byte) (string, error)
	// PutManifest serializes the dossier to its canonical form and stores it
	PutManifest(ctx context.Context, dossier *domain.BusinessDossier) (string, error)
	// Get returns the bytes stored under locator, storage.ErrNotFound if absent
	Get(ctx context.Context, locator string) ([]byte, error)
	// URLFor returns a dereferenceable URL for externally reachable backends, or
	// an opaque scheme-prefixed marker when the content is process local
	URLFor(ctx context.Context, locator string) (string, error)
}
