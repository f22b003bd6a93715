package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/factorchain/compliance-node/internal/common"
	"github.com/factorchain/compliance-node/internal/core/domain"
	"github.com/factorchain/compliance-node/internal/db"
)

// DossierRepository is the postgres mapping index from business identity to the
// locator of its current dossier. Resolution is last write wins, every write
// also lands in the append-only revisions table.
type DossierRepository struct {
	conn db.Querier
}

// NewDossier creates a new DossierRepository
func NewDossier(storage db.Storage) *DossierRepository {
	return &DossierRepository{conn: storage.Pgx}
}

// Set records identity to locator with overwrite semantics and appends a revision
func (r *DossierRepository) Set(ctx context.Context, businessIdentity, loc string) error {
	identity := common.NormalizeIdentity(businessIdentity)
	return r.conn.BeginFunc(ctx, func(tx pgx.Tx) error {
		sql := `INSERT INTO business_dossiers (identity, locator, updated_at)
				VALUES ($1, $2, now()) ON CONFLICT (identity) DO
				UPDATE SET locator=$2, updated_at=now()`
		if _, err := tx.Exec(ctx, sql, identity, loc); err != nil {
			return err
		}
		sql = `INSERT INTO dossier_revisions (id, identity, locator) VALUES ($1, $2, $3)`
		_, err := tx.Exec(ctx, sql, uuid.New(), identity, loc)
		return err
	})
}

// Get returns the current locator for the identity
func (r *DossierRepository) Get(ctx context.Context, businessIdentity string) (string, error) {
	sql := `SELECT locator FROM business_dossiers WHERE identity = $1`

	var loc string
	err := r.conn.QueryRow(ctx, sql, common.NormalizeIdentity(businessIdentity)).Scan(&loc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNoMapping
		}
		return "", err
	}
	return loc, nil
}

// Revisions returns the audit trail for the identity, newest first
func (r *DossierRepository) Revisions(ctx context.Context, businessIdentity string) ([]domain.DossierRevision, error) {
	sql := `SELECT id, identity, locator, created_at
			FROM dossier_revisions
			WHERE identity = $1
			ORDER BY created_at DESC`

	rows, err := r.conn.Query(ctx, sql, common.NormalizeIdentity(businessIdentity))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var revisions []domain.DossierRevision
	for rows.Next() {
		var rev domain.DossierRevision
		if err := rows.Scan(&rev.ID, &rev.Identity, &rev.Locator, &rev.CreatedAt); err != nil {
			return nil, err
		}
		revisions = append(revisions, rev)
	}
	return revisions, rows.Err()
}
