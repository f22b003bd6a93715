package storage

import (
	"context"
	"fmt"

	"github.com/factorchain/compliance-node/internal/cache"
	"github.com/factorchain/compliance-node/internal/core/domain"
	"github.com/factorchain/compliance-node/internal/core/ports"
	"github.com/factorchain/compliance-node/internal/locator"
)

const localKeyPrefix = "compliance-node:doc:"

// LocalBackend persists content in the configured key-value cache, keyed by
// locator. It is the deterministic fallback when no remote pinning node is
// configured. Content written here is only visible to this deployment: a
// reviewer resolving evidence from another instance will get ErrNotFound, which
// operators must read as the documented fallback visibility gap, not data loss.
type LocalBackend struct {
	store cache.Cache
}

// NewLocalBackend returns a backend over the given cache
func NewLocalBackend(store cache.Cache) *LocalBackend {
	return &LocalBackend{store: store}
}

// Put stores content under its locator. Identical bytes land on the same key,
// so the second write is a no-op and the object count stays flat.
func (b *LocalBackend) Put(ctx context.Context, content []byte) (string, error) {
	loc := locator.Address(content)
	if b.store.Exists(ctx, localKeyPrefix+loc) {
		return loc, nil
	}
	if err := b.store.Set(ctx, localKeyPrefix+loc, content, cache.ForEver); err != nil {
		return "", fmt.Errorf("storing %s: %w", loc, err)
	}
	return loc, nil
}

// PutManifest stores the canonical serialized form of the dossier
func (b *LocalBackend) PutManifest(ctx context.Context, dossier *domain.BusinessDossier) (string, error) {
	raw, err := dossier.MarshalCanonical()
	if err != nil {
		return "", fmt.Errorf("serializing dossier: %w", err)
	}
	return b.Put(ctx, raw)
}

// Get returns the bytes stored under locator
func (b *LocalBackend) Get(ctx context.Context, loc string) ([]byte, error) {
	var content []byte
	if found := b.store.Get(ctx, localKeyPrefix+loc, &content); !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, loc)
	}
	return content, nil
}

// URLFor returns an opaque marker. Local content has no dereferenceable URL.
func (b *LocalBackend) URLFor(_ context.Context, loc string) (string, error) {
	return "local://" + loc, nil
}

// Objects returns how many entries the underlying store holds
func (b *LocalBackend) Objects(ctx context.Context) int {
	return b.store.Keys(ctx)
}

var _ ports.StorageBackend = (*LocalBackend)(nil)
