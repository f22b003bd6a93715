package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/factorchain/compliance-node/internal/common"
	"github.com/factorchain/compliance-node/internal/core/domain"
)

type verificationInMemory struct {
	mx       sync.Mutex
	nextID   int64
	requests map[int64]*domain.VerificationRequest
}

// NewVerificationInMemory returns a VerificationRepository implemented in
// memory, convenient for testing. The single-pending invariant is enforced
// under the instance mutex, mirroring the partial unique index in postgres.
func NewVerificationInMemory() *verificationInMemory {
	return &verificationInMemory{
		nextID:   1,
		requests: make(map[int64]*domain.VerificationRequest),
	}
}

func (r *verificationInMemory) Save(_ context.Context, request *domain.VerificationRequest) (int64, error) {
	identity := common.NormalizeIdentity(request.BusinessIdentity)
	r.mx.Lock()
	defer r.mx.Unlock()
	for _, existing := range r.requests {
		if existing.BusinessIdentity == identity && existing.Status == domain.RequestStatusPending {
			return 0, ErrAlreadyPending
		}
	}
	stored := *request
	stored.ID = r.nextID
	stored.BusinessIdentity = identity
	stored.Status = domain.RequestStatusPending
	stored.Proofs = append([]string(nil), request.Proofs...)
	r.requests[stored.ID] = &stored
	r.nextID++
	return stored.ID, nil
}

func (r *verificationInMemory) GetByID(_ context.Context, id int64) (*domain.VerificationRequest, error) {
	r.mx.Lock()
	defer r.mx.Unlock()
	request, found := r.requests[id]
	if !found {
		return nil, ErrRequestNotFound
	}
	out := *request
	out.Proofs = append([]string(nil), request.Proofs...)
	return &out, nil
}

func (r *verificationInMemory) Latest(_ context.Context, businessIdentity string) (*domain.VerificationRequest, error) {
	identity := common.NormalizeIdentity(businessIdentity)
	r.mx.Lock()
	defer r.mx.Unlock()
	var latest *domain.VerificationRequest
	for _, request := range r.requests {
		if request.BusinessIdentity != identity {
			continue
		}
		if latest == nil || request.ID > latest.ID {
			latest = request
		}
	}
	if latest == nil {
		return nil, ErrRequestNotFound
	}
	out := *latest
	out.Proofs = append([]string(nil), latest.Proofs...)
	return &out, nil
}

func (r *verificationInMemory) LatestDecided(_ context.Context, businessIdentity string) (*domain.VerificationRequest, error) {
	identity := common.NormalizeIdentity(businessIdentity)
	r.mx.Lock()
	defer r.mx.Unlock()
	var latest *domain.VerificationRequest
	for _, request := range r.requests {
		if request.BusinessIdentity != identity || request.Status == domain.RequestStatusPending {
			continue
		}
		if latest == nil || request.ID > latest.ID {
			latest = request
		}
	}
	if latest == nil {
		return nil, ErrRequestNotFound
	}
	out := *latest
	out.Proofs = append([]string(nil), latest.Proofs...)
	return &out, nil
}

func (r *verificationInMemory) ListPending(_ context.Context) ([]domain.VerificationRequest, error) {
	r.mx.Lock()
	defer r.mx.Unlock()
	var pending []domain.VerificationRequest
	for id := int64(1); id < r.nextID; id++ {
		request, found := r.requests[id]
		if found && request.Status == domain.RequestStatusPending {
			out := *request
			out.Proofs = append([]string(nil), request.Proofs...)
			pending = append(pending, out)
		}
	}
	return pending, nil
}

func (r *verificationInMemory) AppendProof(_ context.Context, id int64, proofLocator string) error {
	r.mx.Lock()
	defer r.mx.Unlock()
	request, found := r.requests[id]
	if !found {
		return ErrRequestNotFound
	}
	if request.Status != domain.RequestStatusPending {
		return ErrRequestNotPending
	}
	request.Proofs = append(request.Proofs, proofLocator)
	return nil
}

func (r *verificationInMemory) Decide(_ context.Context, id int64, status domain.RequestStatus, decidedAt time.Time, validUntil *time.Time, reason *string) error {
	r.mx.Lock()
	defer r.mx.Unlock()
	request, found := r.requests[id]
	if !found {
		return ErrRequestNotFound
	}
	if request.Status != domain.RequestStatusPending {
		return ErrRequestNotPending
	}
	request.Status = status
	request.DecidedAt = &decidedAt
	request.ValidUntil = validUntil
	request.RejectionReason = reason
	return nil
}
