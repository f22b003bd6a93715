package ports

import (
	"context"

	"github.com/factorchain/compliance-node/internal/core/domain"
)

// DocumentService turns files and dossiers into stored, address-bearing
// evidence. It never retries a failed backend call, retry policy belongs to
// the caller.
type DocumentService interface {
	// UploadDocument stores the file bytes and returns the full document record
	UploadDocument(ctx context.Context, content []byte, name, mimeType string) (*domain.Document, error)
	// UploadDossier canonicalizes and stores the dossier, sets its self locator
	// and records the business to locator mapping
	UploadDossier(ctx context.Context, dossier *domain.BusinessDossier) (string, error)
	// FetchDocument returns the raw bytes behind a locator
	FetchDocument(ctx context.Context, locator string) ([]byte, error)
	// FetchDossier decodes the manifest stored under locator
	FetchDossier(ctx context.Context, locator string) (*domain.BusinessDossier, error)
	// DossierByIdentity resolves the current dossier of a business through the
	// mapping index
	DossierByIdentity(ctx context.Context, businessIdentity string) (*domain.BusinessDossier, error)
	// DocumentURL returns a dereferenceable URL or an opaque marker for a locator
	DocumentURL(ctx context.Context, locator string) (string, error)
}

// DossierRepository is the mapping index resolving which manifest currently
// represents a business. Keys are case-folded identities.
type DossierRepository interface {
	// Set records identity to locator with overwrite semantics and appends an
	// audit revision
	Set(ctx context.Context, businessIdentity, locator string) error
	// Get returns the current locator for the identity, ErrNoMapping if the
	// business never submitted
	Get(ctx context.Context, businessIdentity string) (string, error)
	// Revisions returns the append-only history for the identity, newest first
	Revisions(ctx context.Context, businessIdentity string) ([]domain.DossierRevision, error)
}
