// Package service holds the prompt management rules: who may create, edit
// and activate prompts, and the exclusive-activation transition itself. It
// depends only on small store interfaces so the rules are testable with
// in-memory fakes.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/revassist/technician-portal/internal/model"
	"github.com/revassist/technician-portal/internal/queue"
	"github.com/revassist/technician-portal/internal/repository"
)

// ErrTransient is returned when an activation lost the store-level race
// twice in a row. The state is still consistent; the caller may simply try
// again.
var ErrTransient = errors.New("transient activation conflict")

// Actor identifies who is performing a prompt operation, as resolved by the
// launch middleware. Activation is always scoped to the acting technician,
// even for admins.
type Actor struct {
	TechnicianID uint64
	ClientID     uint64
	Role         model.Role
	Name         string // display name, recorded as creator on new prompts
}

// IsManagerOrAdmin reports whether the actor may manage other technicians'
// prompts and create system prompts.
func (a Actor) IsManagerOrAdmin() bool { return a.Role.IsManagerOrAdmin() }

// PromptStore is the prompt persistence surface the manager needs.
type PromptStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Prompt, error)
	Create(ctx context.Context, p *model.Prompt) error
	Update(ctx context.Context, p *model.Prompt) error
	ListForClient(ctx context.Context, clientID uint64) ([]model.Prompt, error)
	ListVisibleTo(ctx context.Context, clientID, technicianID uint64) ([]model.Prompt, error)
}

// ActivationStore is the activation persistence surface. Activate must be
// atomic with respect to concurrent calls for the same (technician,
// purpose) pair and must report a lost race as repository.ErrConflict.
type ActivationStore interface {
	Activate(ctx context.Context, technicianID, promptID uint64, purpose string) (*model.PromptActivation, error)
	IsActiveFor(ctx context.Context, technicianID, promptID uint64, purpose string) (bool, error)
	ActiveFor(ctx context.Context, technicianID uint64, purpose string) (*model.PromptActivation, error)
}

// Publisher delivers an activation event to the broker. Delivery is
// fire-and-forget relative to the caller's response.
type Publisher func(ctx context.Context, ev queue.PromptActivatedEvent) error

// ActivationManager enforces the ownership and role gates on prompt
// operations and drives the exclusive-activation transition.
type ActivationManager struct {
	prompts     PromptStore
	activations ActivationStore
	publish     Publisher
	log         *zap.Logger
}

// NewActivationManager builds a manager. publish may be nil to disable
// events.
func NewActivationManager(prompts PromptStore, activations ActivationStore, publish Publisher, log *zap.Logger) *ActivationManager {
	if prompts == nil || activations == nil {
		panic("nil store passed to NewActivationManager")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ActivationManager{prompts: prompts, activations: activations, publish: publish, log: log}
}

// ActivationResult is the outcome of a successful activation: the new
// binding state plus the activated prompt's content.
type ActivationResult struct {
	Activation *model.PromptActivation `json:"activation"`
	Prompt     *model.Prompt           `json:"prompt"`
}

// Activate makes promptID the single active prompt for the acting
// technician and the given purpose.
//
// Gate: a system prompt may be activated by any technician in its client,
// always for themselves; a personal prompt only by its owner. The gate is
// evaluated before any state change, so a rejected call leaves every
// binding untouched. A store-level conflict (two activations racing for the
// same pair) is retried exactly once; a second conflict surfaces as
// ErrTransient.
func (m *ActivationManager) Activate(ctx context.Context, actor Actor, promptID uint64, purpose string) (*ActivationResult, error) {
	if purpose == "" {
		purpose = model.PurposeResponseGeneration
	}
	p, err := m.prompts.GetByID(ctx, promptID)
	if err != nil {
		return nil, err
	}
	if p.ClientID != actor.ClientID {
		// A prompt from another client is indistinguishable from a missing
		// one as far as this actor is concerned.
		return nil, repository.ErrNotFound
	}
	if !p.IsSystem() && !p.OwnedByTechnician(actor.TechnicianID) {
		return nil, repository.ErrForbidden
	}

	act, err := m.activations.Activate(ctx, actor.TechnicianID, promptID, purpose)
	if errors.Is(err, repository.ErrConflict) {
		m.log.Warn("activation conflict, retrying once",
			zap.Uint64("technician_id", actor.TechnicianID),
			zap.Uint64("prompt_id", promptID),
			zap.String("purpose", purpose))
		act, err = m.activations.Activate(ctx, actor.TechnicianID, promptID, purpose)
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrTransient
		}
	}
	if err != nil {
		return nil, err
	}

	if m.publish != nil {
		ev := queue.PromptActivatedEvent{
			TechnicianID: actor.TechnicianID,
			ClientID:     actor.ClientID,
			PromptID:     p.ID,
			PromptName:   p.Name,
			Purpose:      purpose,
			ActivatedAt:  act.UpdatedAt.UTC().Format(time.RFC3339),
		}
		go func() {
			if perr := m.publish(context.Background(), ev); perr != nil {
				m.log.Warn("publish prompt.activated", zap.Error(perr))
			}
		}()
	}

	return &ActivationResult{Activation: act, Prompt: p}, nil
}

// CreateInput carries the caller-supplied fields for a new prompt. System
// is a request, not a right: for a plain technician it is ignored and the
// prompt is created personal to them regardless.
type CreateInput struct {
	Name        string
	Purpose     string
	Content     string
	Description string
	System      bool
}

// Create inserts a new prompt. Plain technicians always get a personal
// prompt owned by themselves; only managers and admins may create system
// prompts.
func (m *ActivationManager) Create(ctx context.Context, actor Actor, in CreateInput) (*model.Prompt, error) {
	if in.Purpose == "" {
		in.Purpose = model.PurposeResponseGeneration
	}
	owner := model.OwnedBy(actor.TechnicianID)
	if in.System && actor.IsManagerOrAdmin() {
		owner = model.SystemWide()
	}
	p := &model.Prompt{
		ClientID:    actor.ClientID,
		Name:        in.Name,
		Purpose:     in.Purpose,
		Content:     in.Content,
		CreatedBy:   actor.Name,
		Owner:       owner,
		Description: in.Description,
	}
	if err := m.prompts.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// EditInput carries the editable prompt fields. Empty Name keeps the
// stored name; Content always replaces.
type EditInput struct {
	Name        string
	Content     string
	Description string
}

// Edit updates a prompt's text. Allowed for the prompt's owner or for a
// manager/admin of the client; a plain technician can never edit a system
// prompt or another technician's personal prompt. Each accepted edit bumps
// the stored version; last writer wins.
func (m *ActivationManager) Edit(ctx context.Context, actor Actor, promptID uint64, in EditInput) (*model.Prompt, error) {
	p, err := m.prompts.GetByID(ctx, promptID)
	if err != nil {
		return nil, err
	}
	if p.ClientID != actor.ClientID {
		return nil, repository.ErrNotFound
	}
	if !p.OwnedByTechnician(actor.TechnicianID) && !actor.IsManagerOrAdmin() {
		return nil, repository.ErrForbidden
	}

	if in.Name != "" {
		p.Name = in.Name
	}
	if in.Description != "" {
		p.Description = in.Description
	}
	p.Content = in.Content
	if err := m.prompts.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// PromptListing is one prompt in a listing response, annotated with whether
// it is currently active for the technician the listing was filtered by.
type PromptListing struct {
	model.Prompt
	OwnerTechnicianID     *uint64 `json:"owner_technician_id"` // nil for system prompts
	IsActiveForTechnician *bool   `json:"is_active_for_technician,omitempty"`
}

// List returns the prompts the actor may see. When filterTechnicianID is
// non-nil the listing is narrowed to prompts visible to that technician and
// each entry is annotated via the canonical active-for derivation. A plain
// technician may only filter by themselves.
func (m *ActivationManager) List(ctx context.Context, actor Actor, filterTechnicianID *uint64, purpose string) ([]PromptListing, error) {
	if purpose == "" {
		purpose = model.PurposeResponseGeneration
	}
	if filterTechnicianID != nil && *filterTechnicianID != actor.TechnicianID && !actor.IsManagerOrAdmin() {
		return nil, repository.ErrForbidden
	}

	var (
		prompts []model.Prompt
		err     error
	)
	switch {
	case filterTechnicianID != nil:
		prompts, err = m.prompts.ListVisibleTo(ctx, actor.ClientID, *filterTechnicianID)
	case actor.IsManagerOrAdmin():
		prompts, err = m.prompts.ListForClient(ctx, actor.ClientID)
	default:
		prompts, err = m.prompts.ListVisibleTo(ctx, actor.ClientID, actor.TechnicianID)
	}
	if err != nil {
		return nil, err
	}

	out := make([]PromptListing, 0, len(prompts))
	for i := range prompts {
		p := prompts[i]
		item := PromptListing{Prompt: p}
		if id, ok := p.Owner.TechnicianID(); ok {
			item.OwnerTechnicianID = &id
		}
		if filterTechnicianID != nil {
			active, aerr := m.activations.IsActiveFor(ctx, *filterTechnicianID, p.ID, purpose)
			if aerr != nil {
				return nil, aerr
			}
			item.IsActiveForTechnician = &active
		}
		out = append(out, item)
	}
	return out, nil
}

// ActiveBinding returns the activation currently governing (technicianID,
// purpose) together with the bound prompt. Technicians may ask about
// themselves; looking at another technician requires manager/admin.
// Returns repository.ErrNotFound when nothing is active for the pair.
func (m *ActivationManager) ActiveBinding(ctx context.Context, actor Actor, technicianID uint64, purpose string) (*ActivationResult, error) {
	if purpose == "" {
		purpose = model.PurposeResponseGeneration
	}
	if technicianID != actor.TechnicianID && !actor.IsManagerOrAdmin() {
		return nil, repository.ErrForbidden
	}
	act, err := m.activations.ActiveFor(ctx, technicianID, purpose)
	if err != nil {
		return nil, err
	}
	p, err := m.prompts.GetByID(ctx, act.PromptID)
	if err != nil {
		return nil, err
	}
	return &ActivationResult{Activation: act, Prompt: p}, nil
}

// IsActiveFor exposes the canonical active-for derivation to handlers.
func (m *ActivationManager) IsActiveFor(ctx context.Context, technicianID, promptID uint64, purpose string) (bool, error) {
	if purpose == "" {
		purpose = model.PurposeResponseGeneration
	}
	return m.activations.IsActiveFor(ctx, technicianID, promptID, purpose)
}
