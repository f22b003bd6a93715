package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"

	"github.com/factorchain/compliance-node/internal/common"
	"github.com/factorchain/compliance-node/internal/core/domain"
	"github.com/factorchain/compliance-node/internal/db"
)

const uniqueViolationErrorCode = "23505"

// VerificationRepository is the postgres store for verification requests. The
// single-pending-per-identity invariant is enforced by a partial unique index,
// so concurrent submissions for one identity cannot race past the check.
type VerificationRepository struct {
	conn db.Querier
}

// NewVerification creates a new VerificationRepository
func NewVerification(storage db.Storage) *VerificationRepository {
	return &VerificationRepository{conn: storage.Pgx}
}

const requestColumns = `id, business_identity, business_hash, jurisdiction, business_type,
	proofs, status, requested_at, decided_at, rejection_reason, valid_until`

// Save inserts a new pending request and returns its id
func (r *VerificationRepository) Save(ctx context.Context, request *domain.VerificationRequest) (int64, error) {
	proofs, err := proofsJSONB(request.Proofs)
	if err != nil {
		return 0, err
	}

	sql := `INSERT INTO verification_requests
			(business_identity, business_hash, jurisdiction, business_type, proofs, status, requested_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`

	var id int64
	err = r.conn.QueryRow(ctx, sql,
		common.NormalizeIdentity(request.BusinessIdentity),
		request.BusinessHash,
		request.Jurisdiction,
		request.BusinessType,
		proofs,
		domain.RequestStatusPending,
		request.RequestedAt,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationErrorCode {
			return 0, ErrAlreadyPending
		}
		return 0, err
	}
	return id, nil
}

// GetByID returns a request by id
func (r *VerificationRepository) GetByID(ctx context.Context, id int64) (*domain.VerificationRequest, error) {
	sql := `SELECT ` + requestColumns + ` FROM verification_requests WHERE id = $1`
	return r.scanRequest(r.conn.QueryRow(ctx, sql, id))
}

// Latest returns the most recently submitted request for the identity
func (r *VerificationRepository) Latest(ctx context.Context, businessIdentity string) (*domain.VerificationRequest, error) {
	sql := `SELECT ` + requestColumns + `
			FROM verification_requests
			WHERE business_identity = $1
			ORDER BY id DESC
			LIMIT 1`
	return r.scanRequest(r.conn.QueryRow(ctx, sql, common.NormalizeIdentity(businessIdentity)))
}

// LatestDecided returns the most recent request already in a terminal state
func (r *VerificationRepository) LatestDecided(ctx context.Context, businessIdentity string) (*domain.VerificationRequest, error) {
	sql := `SELECT ` + requestColumns + `
			FROM verification_requests
			WHERE business_identity = $1 AND status <> $2
			ORDER BY id DESC
			LIMIT 1`
	return r.scanRequest(r.conn.QueryRow(ctx, sql, common.NormalizeIdentity(businessIdentity), domain.RequestStatusPending))
}

// ListPending returns every open request ordered by id
func (r *VerificationRepository) ListPending(ctx context.Context) ([]domain.VerificationRequest, error) {
	sql := `SELECT ` + requestColumns + `
			FROM verification_requests
			WHERE status = $1
			ORDER BY id`

	rows, err := r.conn.Query(ctx, sql, domain.RequestStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []domain.VerificationRequest
	for rows.Next() {
		request, err := r.scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *request)
	}
	return requests, rows.Err()
}

// AppendProof adds a proof locator to an open request. Duplicates are allowed.
func (r *VerificationRepository) AppendProof(ctx context.Context, id int64, proofLocator string) error {
	sql := `UPDATE verification_requests
			SET proofs = proofs || to_jsonb($2::text)
			WHERE id = $1 AND status = $3`

	tag, err := r.conn.Exec(ctx, sql, id, proofLocator, domain.RequestStatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.notPendingError(ctx, id)
	}
	return nil
}

// Decide transitions an open request to a terminal state
func (r *VerificationRepository) Decide(ctx context.Context, id int64, status domain.RequestStatus, decidedAt time.Time, validUntil *time.Time, reason *string) error {
	sql := `UPDATE verification_requests
			SET status = $2, decided_at = $3, valid_until = $4, rejection_reason = $5
			WHERE id = $1 AND status = $6`

	tag, err := r.conn.Exec(ctx, sql, id, status, decidedAt, validUntil, reason, domain.RequestStatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.notPendingError(ctx, id)
	}
	return nil
}

// notPendingError tells a missing request apart from a decided one after a
// guarded update touched zero rows
func (r *VerificationRepository) notPendingError(ctx context.Context, id int64) error {
	var exists bool
	err := r.conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM verification_requests WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrRequestNotFound
	}
	return ErrRequestNotPending
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *VerificationRepository) scanRequest(row rowScanner) (*domain.VerificationRequest, error) {
	var request domain.VerificationRequest
	var proofs pgtype.JSONB
	err := row.Scan(
		&request.ID,
		&request.BusinessIdentity,
		&request.BusinessHash,
		&request.Jurisdiction,
		&request.BusinessType,
		&proofs,
		&request.Status,
		&request.RequestedAt,
		&request.DecidedAt,
		&request.RejectionReason,
		&request.ValidUntil,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(proofs.Bytes, &request.Proofs); err != nil {
		return nil, fmt.Errorf("decoding proofs of request %d: %w", request.ID, err)
	}
	return &request, nil
}

func proofsJSONB(proofs []string) (pgtype.JSONB, error) {
	if proofs == nil {
		proofs = []string{}
	}
	raw, err := json.Marshal(proofs)
	if err != nil {
		return pgtype.JSONB{}, err
	}
	var value pgtype.JSONB
	if err := value.Set(raw); err != nil {
		return pgtype.JSONB{}, err
	}
	return value, nil
}
