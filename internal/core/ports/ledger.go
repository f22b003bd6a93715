package ports

import "context"

// Ledger is the read side of the external protocol ledger. Authorization
// decisions and the authoritative verification record live there, this
// subsystem only asks.
type Ledger interface {
	// HasRole checks whether account carries the named role on the registry
	// contract
	HasRole(ctx context.Context, role, account string) (bool, error)
	// RequestStatus mirrors getVerificationRequest for a request already
	// recorded on chain. found is false when the ledger has no record yet.
	RequestStatus(ctx context.Context, requestID int64) (status uint8, found bool, err error)
}
