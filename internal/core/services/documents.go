package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/factorchain/compliance-node/internal/common"
	"github.com/factorchain/compliance-node/internal/core/domain"
	"github.com/factorchain/compliance-node/internal/core/ports"
	"github.com/factorchain/compliance-node/internal/log"
)

// DocumentService implements ports.DocumentService on top of the storage
// backend selected at startup. Remote backend calls go through a bounded
// semaphore so a slow pinning node cannot stall unrelated work, and no call is
// ever retried here: retry policy belongs to the caller.
type DocumentService struct {
	backend  ports.StorageBackend
	dossiers ports.DossierRepository
	sem      chan struct{}
}

// NewDocumentService creates a new DocumentService. maxInFlight bounds the
// number of concurrent storage backend calls.
func NewDocumentService(backend ports.StorageBackend, dossiers ports.DossierRepository, maxInFlight int) *DocumentService {
	if maxInFlight <= 0 {
		maxInFlight = 1
	}
	return &DocumentService{
		backend:  backend,
		dossiers: dossiers,
		sem:      make(chan struct{}, maxInFlight),
	}
}

// UploadDocument stores the file bytes and returns the full document record
func (s *DocumentService) UploadDocument(ctx context.Context, content []byte, name, mimeType string) (*domain.Document, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	loc, err := s.backend.Put(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("uploading document %s: %w", name, err)
	}
	return &domain.Document{
		Name:       name,
		MimeType:   mimeType,
		Size:       int64(len(content)),
		Locator:    loc,
		UploadedAt: time.Now().UTC(),
	}, nil
}

// UploadDossier canonicalizes and stores the dossier, then points the mapping
// index at the new self locator. The index is updated on every locator change,
// never the other way around.
func (s *DocumentService) UploadDossier(ctx context.Context, dossier *domain.BusinessDossier) (string, error) {
	dossier.BusinessIdentity = common.NormalizeIdentity(dossier.BusinessIdentity)
	if err := s.acquire(ctx); err != nil {
		return "", err
	}
	loc, err := s.backend.PutManifest(ctx, dossier)
	s.release()
	if err != nil {
		return "", fmt.Errorf("uploading dossier of %s: %w", dossier.BusinessIdentity, err)
	}
	dossier.SelfLocator = loc

	if err := s.dossiers.Set(ctx, dossier.BusinessIdentity, loc); err != nil {
		return "", fmt.Errorf("indexing dossier of %s: %w", dossier.BusinessIdentity, err)
	}
	log.Info(ctx, "dossier stored", "identity", dossier.BusinessIdentity, "locator", loc)
	return loc, nil
}

// FetchDocument returns the raw bytes behind a locator
func (s *DocumentService) FetchDocument(ctx context.Context, loc string) ([]byte, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()
	return s.backend.Get(ctx, loc)
}

// FetchDossier decodes the manifest stored under locator
func (s *DocumentService) FetchDossier(ctx context.Context, loc string) (*domain.BusinessDossier, error) {
	raw, err := s.FetchDocument(ctx, loc)
	if err != nil {
		return nil, err
	}
	var dossier domain.BusinessDossier
	if err := json.Unmarshal(raw, &dossier); err != nil {
		return nil, fmt.Errorf("%w: dossier %s: %v", ErrDecode, loc, err)
	}
	dossier.SelfLocator = loc
	return &dossier, nil
}

// DossierByIdentity resolves the business's current dossier through the index
func (s *DocumentService) DossierByIdentity(ctx context.Context, businessIdentity string) (*domain.BusinessDossier, error) {
	loc, err := s.dossiers.Get(ctx, businessIdentity)
	if err != nil {
		return nil, err
	}
	return s.FetchDossier(ctx, loc)
}

// DocumentURL returns a dereferenceable URL or an opaque marker for a locator
func (s *DocumentService) DocumentURL(ctx context.Context, loc string) (string, error) {
	if err := s.acquire(ctx); err != nil {
		return "", err
	}
	defer s.release()
	return s.backend.URLFor(ctx, loc)
}

func (s *DocumentService) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *DocumentService) release() {
	<-s.sem
}
