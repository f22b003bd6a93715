package ports

import (
	"context"
	"time"

	"github.com/factorchain/compliance-node/internal/core/domain"
)

// VerificationService is the state machine governing a business's compliance
// request lifecycle
type VerificationService interface {
	// Submit opens a pending request for the identity. ErrAlreadyPending when an
	// open request exists.
	Submit(ctx context.Context, businessIdentity, businessHash string, proofLocators []string, jurisdiction, businessType string) (int64, error)
	// AddProof appends a proof locator to a pending request. Duplicates are
	// allowed, de-duplication is a display concern.
	AddProof(ctx context.Context, requestID int64, proofLocator string) error
	// Cancel closes a pending request. Only the submitting business may cancel.
	Cancel(ctx context.Context, requestID int64, caller string) error
	// Approve marks a pending request approved with the given validity window.
	// The reviewer role is checked against the ledger.
	Approve(ctx context.Context, requestID int64, reviewer string, validity time.Duration) error
	// Reject marks a pending request rejected with a reason
	Reject(ctx context.Context, requestID int64, reviewer, reason string) error
	// Get returns a request by id, with its effective status derived
	Get(ctx context.Context, requestID int64) (*domain.VerificationRequest, error)
	// ListPending returns all open requests, mirroring the ledger's contract
	ListPending(ctx context.Context) ([]domain.VerificationRequest, error)
	// IsCurrentlyValid tells whether the business's most recent decided request
	// is approved and inside its validity window
	IsCurrentlyValid(ctx context.Context, businessIdentity string) (bool, error)
	// RequestRenewal opens a new pending request when the prior one is approved
	// or expired, leaving the prior record untouched for audit
	RequestRenewal(ctx context.Context, businessIdentity, businessHash string, proofLocators []string) (int64, error)
}

// VerificationRepository persists verification requests
type VerificationRepository interface {
	// Save inserts a new pending request and returns its monotonically assigned
	// id. ErrAlreadyPending when the identity already has an open request.
	Save(ctx context.Context, request *domain.VerificationRequest) (int64, error)
	// GetByID returns a request, ErrRequestNotFound if absent
	GetByID(ctx context.Context, id int64) (*domain.VerificationRequest, error)
	// Latest returns the most recently submitted request for the identity,
	// ErrRequestNotFound if the business never submitted
	Latest(ctx context.Context, businessIdentity string) (*domain.VerificationRequest, error)
	// LatestDecided returns the most recent request already in a terminal state,
	// ErrRequestNotFound if none exists
	LatestDecided(ctx context.Context, businessIdentity string) (*domain.VerificationRequest, error)
	// ListPending returns every open request ordered by id
	ListPending(ctx context.Context) ([]domain.VerificationRequest, error)
	// AppendProof adds a proof locator to an open request.
	// ErrRequestNotPending when the request is already decided.
	AppendProof(ctx context.Context, id int64, proofLocator string) error
	// Decide transitions an open request to a terminal state.
	// ErrRequestNotPending when the request is already decided.
	Decide(ctx context.Context, id int64, status domain.RequestStatus, decidedAt time.Time, validUntil *time.Time, reason *string) error
}
