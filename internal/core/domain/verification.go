package domain

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the lifecycle state of a verification request
type RequestStatus string

// Verification request statuses. Expired is never written to storage, it is
// derived from the validity window at read time.
const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusApproved  RequestStatus = "approved"
	RequestStatusRejected  RequestStatus = "rejected"
	RequestStatusCancelled RequestStatus = "cancelled"
	RequestStatusExpired   RequestStatus = "expired"
)

// Terminal tells whether no further reviewer action can change the request
func (s RequestStatus) Terminal() bool {
	return s != RequestStatusPending
}

// VerificationRequest tracks a business's compliance submission from intake to
// a reviewer decision. IDs are assigned monotonically by the request table.
type VerificationRequest struct {
	ID               int64
	BusinessIdentity string
	BusinessHash     string
	Jurisdiction     string
	BusinessType     string
	Proofs           []string
	Status           RequestStatus
	RequestedAt      time.Time
	DecidedAt        *time.Time
	RejectionReason  *string
	ValidUntil       *time.Time
}

// EffectiveStatus returns the status as observed at now. An approved request
// whose validity window has passed reads as expired without any stored change.
func (r *VerificationRequest) EffectiveStatus(now time.Time) RequestStatus {
	if r.Status == RequestStatusApproved && r.ValidUntil != nil && !now.Before(*r.ValidUntil) {
		return RequestStatusExpired
	}
	return r.Status
}

// DossierRevision is one entry of the append-only audit trail kept next to the
// last-write-wins mapping index.
type DossierRevision struct {
	ID        uuid.UUID
	Identity  string
	Locator   string
	CreatedAt time.Time
}
