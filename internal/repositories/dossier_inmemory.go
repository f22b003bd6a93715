package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/factorchain/compliance-node/internal/common"
	"github.com/factorchain/compliance-node/internal/core/domain"
)

type dossierInMemory struct {
	mx        sync.RWMutex
	locators  map[string]string
	revisions map[string][]domain.DossierRevision
}

// NewDossierInMemory returns a DossierRepository implemented in memory,
// convenient for testing. Each instance is fully isolated.
func NewDossierInMemory() *dossierInMemory {
	return &dossierInMemory{
		locators:  make(map[string]string),
		revisions: make(map[string][]domain.DossierRevision),
	}
}

func (r *dossierInMemory) Set(_ context.Context, businessIdentity, loc string) error {
	identity := common.NormalizeIdentity(businessIdentity)
	r.mx.Lock()
	defer r.mx.Unlock()
	r.locators[identity] = loc
	r.revisions[identity] = append([]domain.DossierRevision{{
		ID:        uuid.New(),
		Identity:  identity,
		Locator:   loc,
		CreatedAt: time.Now(),
	}}, r.revisions[identity]...)
	return nil
}

func (r *dossierInMemory) Get(_ context.Context, businessIdentity string) (string, error) {
	r.mx.RLock()
	defer r.mx.RUnlock()
	if loc, found := r.locators[common.NormalizeIdentity(businessIdentity)]; found {
		return loc, nil
	}
	return "", ErrNoMapping
}

func (r *dossierInMemory) Revisions(_ context.Context, businessIdentity string) ([]domain.DossierRevision, error) {
	r.mx.RLock()
	defer r.mx.RUnlock()
	revs := r.revisions[common.NormalizeIdentity(businessIdentity)]
	out := make([]domain.DossierRevision, len(revs))
	copy(out, revs)
	return out, nil
}
