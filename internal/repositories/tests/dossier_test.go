package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factorchain/compliance-node/internal/repositories"
)

func TestDossierSetAndGet(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewDossier(*storage)

	identity := "0xaBcD111111111111111111111111111111111111"
	require.NoError(t, repo.Set(ctx, identity, "doc1first"))

	t.Run("resolves the stored locator", func(t *testing.T) {
		loc, err := repo.Get(ctx, identity)
		require.NoError(t, err)
		assert.Equal(t, "doc1first", loc)
	})

	t.Run("resolution is case insensitive", func(t *testing.T) {
		loc, err := repo.Get(ctx, "0xABCD111111111111111111111111111111111111")
		require.NoError(t, err)
		assert.Equal(t, "doc1first", loc)
	})

	t.Run("unknown identity yields ErrNoMapping", func(t *testing.T) {
		_, err := repo.Get(ctx, "0x9999999999999999999999999999999999999999")
		assert.ErrorIs(t, err, repositories.ErrNoMapping)
	})
}

func TestDossierLastWriteWins(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewDossier(*storage)

	identity := "0x2222222222222222222222222222222222222222"
	require.NoError(t, repo.Set(ctx, identity, "doc1old"))
	require.NoError(t, repo.Set(ctx, "0x2222222222222222222222222222222222222222", "doc1new"))

	loc, err := repo.Get(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, "doc1new", loc)

	revisions, err := repo.Revisions(ctx, identity)
	require.NoError(t, err)
	require.Len(t, revisions, 2)
	locators := []string{revisions[0].Locator, revisions[1].Locator}
	assert.Contains(t, locators, "doc1old")
	assert.Contains(t, locators, "doc1new")
}

func TestDossierRevisionsOfUnknownIdentity(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewDossier(*storage)

	revisions, err := repo.Revisions(ctx, "0x3333333333333333333333333333333333333333")
	require.NoError(t, err)
	assert.Empty(t, revisions)
}
