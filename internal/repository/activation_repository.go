package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/revassist/technician-portal/internal/model"
)

// ActivationRepo persists which prompt is active for each (technician,
// purpose) pair.
//
// The at-most-one-active invariant is enforced by the store, not by
// application reads: prompt_activations carries a nullable active_slot
// column that is 1 on the single active row and NULL on every superseded
// one, under UNIQUE KEY (technician_id, purpose, active_slot). MySQL allows
// any number of NULLs in a unique key, so the slot can only ever be held by
// one row per pair regardless of how the writes interleave. A write that
// loses a race against a concurrent activation hits the unique key and is
// reported as ErrConflict for the caller to retry.
type ActivationRepo struct {
	db *sql.DB
}

// NewActivationRepo returns a repo bound to the given database.
func NewActivationRepo(db *sql.DB) *ActivationRepo { return &ActivationRepo{db: db} }

// Activate atomically makes promptID the active prompt for (technicianID,
// purpose): any currently active row for the pair is flipped off and the
// row for this prompt is inserted or flipped on, all in one transaction.
// Re-activating the already-active prompt is a harmless no-op that still
// returns the active row. Rows for other technicians are never touched.
func (r *ActivationRepo) Activate(ctx context.Context, technicianID, promptID uint64, purpose string) (*model.PromptActivation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Release the active slot for this pair, except when this prompt
	// already holds it (keeps re-activation idempotent).
	const release = `UPDATE prompt_activations
		SET active_slot = NULL
		WHERE technician_id = ? AND purpose = ? AND active_slot IS NOT NULL AND prompt_id <> ?`
	if _, err := tx.ExecContext(ctx, release, technicianID, purpose, promptID); err != nil {
		if isConflict(err) {
			return nil, ErrConflict
		}
		return nil, err
	}

	// Claim the slot for this prompt: flip the existing binding row on, or
	// insert one when this prompt has never been activated for the pair.
	// The explicit update-then-insert keeps a slot collision on the
	// (technician_id, purpose, active_slot) key as a plain duplicate-key
	// error; letting INSERT .. ON DUPLICATE KEY UPDATE match that key would
	// silently rewrite the competitor's row instead.
	const find = `SELECT id FROM prompt_activations
		WHERE technician_id = ? AND prompt_id = ? AND purpose = ?
		FOR UPDATE`
	var bindingID uint64
	err = tx.QueryRowContext(ctx, find, technicianID, promptID, purpose).Scan(&bindingID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		const ins = `INSERT INTO prompt_activations (technician_id, prompt_id, purpose, active_slot)
			VALUES (?, ?, ?, 1)`
		if _, err := tx.ExecContext(ctx, ins, technicianID, promptID, purpose); err != nil {
			if isConflict(err) {
				return nil, ErrConflict
			}
			return nil, err
		}
	case err != nil:
		if isConflict(err) {
			return nil, ErrConflict
		}
		return nil, err
	default:
		const upd = `UPDATE prompt_activations SET active_slot = 1 WHERE id = ?`
		if _, err := tx.ExecContext(ctx, upd, bindingID); err != nil {
			if isConflict(err) {
				return nil, ErrConflict
			}
			return nil, err
		}
	}

	const sel = `SELECT id, technician_id, prompt_id, purpose,
		active_slot IS NOT NULL, created_at, updated_at
		FROM prompt_activations
		WHERE technician_id = ? AND prompt_id = ? AND purpose = ?`
	var act model.PromptActivation
	err = tx.QueryRowContext(ctx, sel, technicianID, promptID, purpose).Scan(
		&act.ID, &act.TechnicianID, &act.PromptID, &act.Purpose,
		&act.Active, &act.CreatedAt, &act.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		if isConflict(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	committed = true
	return &act, nil
}

// IsActiveFor reports whether the given prompt currently holds the active
// slot for (technicianID, purpose). This is the one canonical derivation of
// "active for this technician"; listings and activation responses both use
// it, independent of who owns the prompt.
func (r *ActivationRepo) IsActiveFor(ctx context.Context, technicianID, promptID uint64, purpose string) (bool, error) {
	const q = `SELECT EXISTS(
		SELECT 1 FROM prompt_activations
		WHERE technician_id = ? AND purpose = ? AND prompt_id = ? AND active_slot IS NOT NULL)`
	var active bool
	if err := r.db.QueryRowContext(ctx, q, technicianID, purpose, promptID).Scan(&active); err != nil {
		return false, err
	}
	return active, nil
}

// ActiveFor returns the activation currently holding the slot for
// (technicianID, purpose), or ErrNotFound when the pair has none.
func (r *ActivationRepo) ActiveFor(ctx context.Context, technicianID uint64, purpose string) (*model.PromptActivation, error) {
	const q = `SELECT id, technician_id, prompt_id, purpose,
		active_slot IS NOT NULL, created_at, updated_at
		FROM prompt_activations
		WHERE technician_id = ? AND purpose = ? AND active_slot IS NOT NULL`
	var act model.PromptActivation
	err := r.db.QueryRowContext(ctx, q, technicianID, purpose).Scan(
		&act.ID, &act.TechnicianID, &act.PromptID, &act.Purpose,
		&act.Active, &act.CreatedAt, &act.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &act, nil
}

// isConflict reports whether err is one of the MySQL errors a losing
// activation produces: 1062 (duplicate entry on the active-slot key), 1213
// (deadlock between the release step's gap locks and the competing claim,
// InnoDB rolls the loser back), or 1205 (lock wait timeout while the
// winner commits). All three mean the competitor won the slot and the
// caller may retry against consistent state.
func isConflict(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	switch me.Number {
	case 1062, 1205, 1213:
		return true
	}
	return false
}
