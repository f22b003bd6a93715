package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factorchain/compliance-node/internal/cache"
	"github.com/factorchain/compliance-node/internal/core/domain"
	"github.com/factorchain/compliance-node/internal/locator"
	"github.com/factorchain/compliance-node/internal/repositories"
	"github.com/factorchain/compliance-node/internal/storage"
)

func newTestDocuments() (*DocumentService, *storage.LocalBackend) {
	backend := storage.NewLocalBackend(cache.NewMemoryCache())
	return NewDocumentService(backend, repositories.NewDossierInMemory(), 4), backend
}

func testDossier() *domain.BusinessDossier {
	return &domain.BusinessDossier{
		BusinessIdentity: "0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
		Jurisdiction:     "DE",
		BusinessType:     "GmbH",
		Documents: map[string]domain.Document{
			"registration": {Name: "registration.pdf", MimeType: "application/pdf", Size: 1024, Locator: locator.Address([]byte("registration"))},
		},
		SubmittedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestUploadDocumentRoundTrip(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestDocuments()
	content := []byte("audited balance sheet")

	doc, err := service.UploadDocument(ctx, content, "balance.pdf", "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "balance.pdf", doc.Name)
	assert.Equal(t, int64(len(content)), doc.Size)
	assert.True(t, locator.IsValid(doc.Locator))

	got, err := service.FetchDocument(ctx, doc.Locator)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestFetchDocumentNotFound(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestDocuments()

	_, err := service.FetchDocument(ctx, locator.Address([]byte("never uploaded")))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUploadDossierUpdatesIndex(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestDocuments()
	dossier := testDossier()

	loc, err := service.UploadDossier(ctx, dossier)
	require.NoError(t, err)
	assert.Equal(t, loc, dossier.SelfLocator)
	// identity is normalized on upload
	assert.Equal(t, "0x742d35cc6634c0532925a3b844bc454e4438f44e", dossier.BusinessIdentity)

	// resolution is case insensitive
	got, err := service.DossierByIdentity(ctx, "0x742D35CC6634C0532925A3B844BC454E4438F44E")
	require.NoError(t, err)
	assert.Equal(t, loc, got.SelfLocator)
	assert.Equal(t, dossier.BusinessIdentity, got.BusinessIdentity)
	assert.Len(t, got.Documents, 1)
}

func TestUploadDossierLastWriteWins(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestDocuments()

	first := testDossier()
	loc1, err := service.UploadDossier(ctx, first)
	require.NoError(t, err)

	second := testDossier()
	second.Documents["statement"] = domain.Document{Name: "statement.pdf", MimeType: "application/pdf", Size: 2048, Locator: locator.Address([]byte("statement"))}
	loc2, err := service.UploadDossier(ctx, second)
	require.NoError(t, err)
	require.NotEqual(t, loc1, loc2)

	got, err := service.DossierByIdentity(ctx, first.BusinessIdentity)
	require.NoError(t, err)
	assert.Equal(t, loc2, got.SelfLocator)
	assert.Len(t, got.Documents, 2)

	// the superseded dossier stays retrievable by its own locator
	old, err := service.FetchDossier(ctx, loc1)
	require.NoError(t, err)
	assert.Len(t, old.Documents, 1)
}

func TestDossierByIdentityNoMapping(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestDocuments()

	_, err := service.DossierByIdentity(ctx, "0x0000000000000000000000000000000000000001")
	assert.ErrorIs(t, err, repositories.ErrNoMapping)
}

func TestFetchDossierDecodeError(t *testing.T) {
	ctx := context.Background()
	service, backend := newTestDocuments()

	loc, err := backend.Put(ctx, []byte("this is not a dossier"))
	require.NoError(t, err)

	_, err = service.FetchDossier(ctx, loc)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDocumentURLLocalMarker(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestDocuments()

	doc, err := service.UploadDocument(ctx, []byte("anything"), "a.txt", "text/plain")
	require.NoError(t, err)

	url, err := service.DocumentURL(ctx, doc.Locator)
	require.NoError(t, err)
	assert.Equal(t, "local://"+doc.Locator, url)
}
