package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/revassist/technician-portal/internal/model"
)

// TechnicianRepo provides the technician reads and credential writes used
// by the credential endpoints. Identity resolution reads technicians
// through UserMappingRepo instead, joined with the mapping row.
type TechnicianRepo struct {
	db *sql.DB
}

// NewTechnicianRepo returns a repo bound to the given database.
func NewTechnicianRepo(db *sql.DB) *TechnicianRepo { return &TechnicianRepo{db: db} }

// GetByID fetches one technician including the stored password hash.
func (r *TechnicianRepo) GetByID(ctx context.Context, id uint64) (*model.Technician, error) {
	const q = `
		SELECT id, client_id, name, crm_code, persona, active,
		       first_login, must_change_password, COALESCE(password_hash, ''),
		       created_at, updated_at
		FROM technicians WHERE id = ?`
	var t model.Technician
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.ClientID, &t.Name, &t.CRMCode, &t.Persona, &t.Active,
		&t.FirstLogin, &t.MustChangePassword, &t.PasswordHash,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdatePassword stores a new bcrypt hash and clears both credential flags.
// A technician who has changed a password is no longer in the first-login
// state and has satisfied any forced reset.
func (r *TechnicianRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	const q = `UPDATE technicians
		SET password_hash = ?, first_login = 0, must_change_password = 0
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, hash, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
