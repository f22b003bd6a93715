package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/factorchain/compliance-node/internal/common"
	"github.com/factorchain/compliance-node/internal/core/domain"
	"github.com/factorchain/compliance-node/internal/core/ports"
	"github.com/factorchain/compliance-node/internal/log"
	"github.com/factorchain/compliance-node/internal/repositories"
)

// ReviewerRole is the ledger role required to approve or reject a request
const ReviewerRole = "REVIEWER_ROLE"

// VerificationService implements the compliance request lifecycle. It stages
// the state a reviewer eventually records on the ledger, so every transition is
// explicit: storage failures never change request state, and state precondition
// violations are never retried away.
type VerificationService struct {
	repo   ports.VerificationRepository
	ledger ports.Ledger
	nowFn  func() time.Time
}

// NewVerificationService creates a new VerificationService
func NewVerificationService(repo ports.VerificationRepository, ledger ports.Ledger) *VerificationService {
	return &VerificationService{
		repo:   repo,
		ledger: ledger,
		nowFn:  time.Now,
	}
}

// Submit opens a pending request for the identity
func (s *VerificationService) Submit(ctx context.Context, businessIdentity, businessHash string, proofLocators []string, jurisdiction, businessType string) (int64, error) {
	request := &domain.VerificationRequest{
		BusinessIdentity: common.NormalizeIdentity(businessIdentity),
		BusinessHash:     businessHash,
		Jurisdiction:     jurisdiction,
		BusinessType:     businessType,
		Proofs:           proofLocators,
		Status:           domain.RequestStatusPending,
		RequestedAt:      s.nowFn().UTC(),
	}
	id, err := s.repo.Save(ctx, request)
	if err != nil {
		return 0, err
	}
	log.Info(ctx, "verification request submitted", "id", id, "identity", request.BusinessIdentity)
	return id, nil
}

// AddProof appends a proof locator to a pending request
func (s *VerificationService) AddProof(ctx context.Context, requestID int64, proofLocator string) error {
	return s.repo.AppendProof(ctx, requestID, proofLocator)
}

// Cancel closes a pending request. Only the submitting business may cancel.
func (s *VerificationService) Cancel(ctx context.Context, requestID int64, caller string) error {
	request, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if request.BusinessIdentity != common.NormalizeIdentity(caller) {
		return fmt.Errorf("%w: only the submitting business may cancel", ErrUnauthorized)
	}
	return s.repo.Decide(ctx, requestID, domain.RequestStatusCancelled, s.nowFn().UTC(), nil, nil)
}

// Approve marks a pending request approved for the given validity window
func (s *VerificationService) Approve(ctx context.Context, requestID int64, reviewer string, validity time.Duration) error {
	if err := s.authorizeReviewer(ctx, reviewer); err != nil {
		return err
	}
	now := s.nowFn().UTC()
	validUntil := now.Add(validity)
	if err := s.repo.Decide(ctx, requestID, domain.RequestStatusApproved, now, &validUntil, nil); err != nil {
		return err
	}
	log.Info(ctx, "verification request approved", "id", requestID, "valid-until", validUntil)
	return nil
}

// Reject marks a pending request rejected with a reason
func (s *VerificationService) Reject(ctx context.Context, requestID int64, reviewer, reason string) error {
	if err := s.authorizeReviewer(ctx, reviewer); err != nil {
		return err
	}
	if err := s.repo.Decide(ctx, requestID, domain.RequestStatusRejected, s.nowFn().UTC(), nil, common.ToPointer(reason)); err != nil {
		return err
	}
	log.Info(ctx, "verification request rejected", "id", requestID, "reason", reason)
	return nil
}

// Get returns a request by id with its effective status derived from the
// validity window
func (s *VerificationService) Get(ctx context.Context, requestID int64) (*domain.VerificationRequest, error) {
	request, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	request.Status = request.EffectiveStatus(s.nowFn())
	return request, nil
}

// ListPending returns all open requests
func (s *VerificationService) ListPending(ctx context.Context) ([]domain.VerificationRequest, error) {
	return s.repo.ListPending(ctx)
}

// IsCurrentlyValid tells whether the business's most recent decided request is
// approved and inside its validity window
func (s *VerificationService) IsCurrentlyValid(ctx context.Context, businessIdentity string) (bool, error) {
	request, err := s.repo.LatestDecided(ctx, businessIdentity)
	if err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			return false, nil
		}
		return false, err
	}
	return request.EffectiveStatus(s.nowFn()) == domain.RequestStatusApproved, nil
}

// RequestRenewal opens a new pending request when the prior request for the
// identity is approved (renewing) or expired (re-applying). The prior record is
// left untouched for audit. The single-pending invariant is the same one
// Submit runs under, renewal only adds the precondition on the prior record.
func (s *VerificationService) RequestRenewal(ctx context.Context, businessIdentity, businessHash string, proofLocators []string) (int64, error) {
	prior, err := s.repo.Latest(ctx, businessIdentity)
	if err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			return 0, ErrRenewalNotAllowed
		}
		return 0, err
	}
	switch prior.EffectiveStatus(s.nowFn()) {
	case domain.RequestStatusApproved, domain.RequestStatusExpired:
	default:
		return 0, ErrRenewalNotAllowed
	}
	return s.Submit(ctx, businessIdentity, businessHash, proofLocators, prior.Jurisdiction, prior.BusinessType)
}

func (s *VerificationService) authorizeReviewer(ctx context.Context, reviewer string) error {
	ok, err := s.ledger.HasRole(ctx, ReviewerRole, reviewer)
	if err != nil {
		return fmt.Errorf("checking reviewer role of %s: %w", reviewer, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s lacks %s", ErrUnauthorized, reviewer, ReviewerRole)
	}
	return nil
}
