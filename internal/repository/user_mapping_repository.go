package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/revassist/technician-portal/internal/model"
)

// UserMappingRepo provides lookups and access bookkeeping for the external
// user binding table. The lookup is always scoped by location mapping id so
// a user identifier valid under one client can never resolve through
// another client's location identifier.
type UserMappingRepo struct {
	db *sql.DB
}

// NewUserMappingRepo returns a repo bound to the given database.
func NewUserMappingRepo(db *sql.DB) *UserMappingRepo {
	return &UserMappingRepo{db: db}
}

// FindByExternalID fetches the user mapping for an external identifier
// within the given location mapping, joined with its technician. Active
// flags are returned as stored. Returns ErrNotFound when no row matches
// the (external id, location mapping) pair.
func (r *UserMappingRepo) FindByExternalID(ctx context.Context, externalID string, locationMappingID uint64) (*model.UserMapping, *model.Technician, error) {
	const q = `
		SELECT um.id, um.external_id, um.technician_id, um.location_mapping_id,
		       um.role, um.permissions, um.active,
		       um.last_access_at, um.failed_attempts, um.last_failed_at,
		       um.created_at, um.updated_at,
		       t.id, t.client_id, t.name, t.crm_code, t.persona, t.active,
		       t.first_login, t.must_change_password, t.created_at, t.updated_at
		FROM user_mappings um
		JOIN technicians t ON t.id = um.technician_id
		WHERE um.external_id = ? AND um.location_mapping_id = ?`
	var (
		um       model.UserMapping
		tech     model.Technician
		rawPerms []byte
		lastOK   sql.NullTime
		lastBad  sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, q, externalID, locationMappingID).Scan(
		&um.ID, &um.ExternalID, &um.TechnicianID, &um.LocationMappingID,
		&um.Role, &rawPerms, &um.Active,
		&lastOK, &um.FailedAttempts, &lastBad,
		&um.CreatedAt, &um.UpdatedAt,
		&tech.ID, &tech.ClientID, &tech.Name, &tech.CRMCode, &tech.Persona, &tech.Active,
		&tech.FirstLogin, &tech.MustChangePassword, &tech.CreatedAt, &tech.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if lastOK.Valid {
		um.LastAccessAt = &lastOK.Time
	}
	if lastBad.Valid {
		um.LastFailedAt = &lastBad.Time
	}
	perms, err := model.ParsePermissionSet(rawPerms)
	if err != nil {
		return nil, nil, err
	}
	um.Permissions = perms
	return &um, &tech, nil
}

// RecordAccess stamps a successful resolution and clears the failure
// counter. Callers treat this as best-effort bookkeeping.
func (r *UserMappingRepo) RecordAccess(ctx context.Context, id uint64) error {
	const q = `UPDATE user_mappings
		SET last_access_at = UTC_TIMESTAMP(), failed_attempts = 0, last_failed_at = NULL
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// RecordFailure bumps the failure counter for a mapping that was found but
// rejected (inactive mapping or inactive technician). Best-effort.
func (r *UserMappingRepo) RecordFailure(ctx context.Context, id uint64) error {
	const q = `UPDATE user_mappings
		SET failed_attempts = failed_attempts + 1, last_failed_at = UTC_TIMESTAMP()
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}
