package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/revassist/technician-portal/internal/model"
)

// PromptRepo provides CRUD operations for prompts. A prompt row with a NULL
// owner_technician_id is a system prompt shared by the whole client; a
// non-NULL owner makes it personal. The NULL is translated to and from the
// model.PromptOwner union at the scan/exec boundary so nothing above this
// layer touches a nullable id.
type PromptRepo struct {
	db *sql.DB
}

// NewPromptRepo returns a new PromptRepo bound to the given database.
func NewPromptRepo(db *sql.DB) *PromptRepo { return &PromptRepo{db: db} }

const promptColumns = `id, client_id, name, purpose, content, version,
	created_by, owner_technician_id, COALESCE(description, ''), created_at, updated_at`

func scanPrompt(row interface{ Scan(...any) error }) (*model.Prompt, error) {
	var (
		p     model.Prompt
		owner sql.NullInt64
	)
	err := row.Scan(
		&p.ID, &p.ClientID, &p.Name, &p.Purpose, &p.Content, &p.Version,
		&p.CreatedBy, &owner, &p.Description, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if owner.Valid {
		p.Owner = model.OwnedBy(uint64(owner.Int64))
	} else {
		p.Owner = model.SystemWide()
	}
	return &p, nil
}

func ownerArg(o model.PromptOwner) any {
	if id, ok := o.TechnicianID(); ok {
		return id
	}
	return nil
}

// GetByID fetches one prompt. Returns ErrNotFound for unknown ids.
func (r *PromptRepo) GetByID(ctx context.Context, id uint64) (*model.Prompt, error) {
	q := `SELECT ` + promptColumns + ` FROM prompts WHERE id = ?`
	p, err := scanPrompt(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a new prompt at version 1 and populates the generated id
// and timestamps on the passed model.
func (r *PromptRepo) Create(ctx context.Context, p *model.Prompt) error {
	const q = `INSERT INTO prompts
		(client_id, name, purpose, content, version, created_by, owner_technician_id, description)
		VALUES (?, ?, ?, ?, 1, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		p.ClientID, p.Name, p.Purpose, p.Content, p.CreatedBy, ownerArg(p.Owner), p.Description)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	// Query back the full row to populate version, timestamps and defaults.
	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

// Update writes new content, name and description and bumps the stored
// version. Last writer wins; the version counter only records that an edit
// was accepted.
func (r *PromptRepo) Update(ctx context.Context, p *model.Prompt) error {
	const q = `UPDATE prompts
		SET name = ?, content = ?, description = ?, version = version + 1
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, p.Name, p.Content, p.Description, p.ID)
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
	stored, err := r.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

// ListForClient returns every prompt in a client, system and personal alike.
// This is the manager/admin view.
func (r *PromptRepo) ListForClient(ctx context.Context, clientID uint64) ([]model.Prompt, error) {
	q := `SELECT ` + promptColumns + ` FROM prompts WHERE client_id = ? ORDER BY id`
	return r.list(ctx, q, clientID)
}

// ListVisibleTo returns the prompts a single technician can see: every
// system prompt in the client plus their own personal prompts.
func (r *PromptRepo) ListVisibleTo(ctx context.Context, clientID, technicianID uint64) ([]model.Prompt, error) {
	q := `SELECT ` + promptColumns + ` FROM prompts
		WHERE client_id = ? AND (owner_technician_id IS NULL OR owner_technician_id = ?)
		ORDER BY id`
	return r.list(ctx, q, clientID, technicianID)
}

func (r *PromptRepo) list(ctx context.Context, q string, args ...any) ([]model.Prompt, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Prompt
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
