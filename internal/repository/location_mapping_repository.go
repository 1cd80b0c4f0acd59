package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/revassist/technician-portal/internal/model"
)

// LocationMappingRepo provides lookups for the external-location binding
// table. Rows are created by onboarding tooling; the request path only ever
// reads them.
type LocationMappingRepo struct {
	db *sql.DB
}

// NewLocationMappingRepo returns a repo bound to the given database.
func NewLocationMappingRepo(db *sql.DB) *LocationMappingRepo {
	return &LocationMappingRepo{db: db}
}

// FindByExternalID fetches the mapping for an external location identifier
// together with its client in one round trip. Active flags are returned
// as stored; the resolver decides what an inactive row means. Returns
// ErrNotFound when the identifier is unknown.
func (r *LocationMappingRepo) FindByExternalID(ctx context.Context, externalID string) (*model.LocationMapping, *model.Client, error) {
	const q = `
		SELECT lm.id, lm.external_id, lm.client_id, lm.active, lm.created_at, lm.updated_at,
		       c.id, c.name, c.active, c.created_at, c.updated_at
		FROM location_mappings lm
		JOIN clients c ON c.id = lm.client_id
		WHERE lm.external_id = ?`
	var (
		lm model.LocationMapping
		cl model.Client
	)
	err := r.db.QueryRowContext(ctx, q, externalID).Scan(
		&lm.ID, &lm.ExternalID, &lm.ClientID, &lm.Active, &lm.CreatedAt, &lm.UpdatedAt,
		&cl.ID, &cl.Name, &cl.Active, &cl.CreatedAt, &cl.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return &lm, &cl, nil
}
