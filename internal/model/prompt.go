package model

import "time"

// PurposeResponseGeneration is the only purpose currently in use. Purposes
// are open strings so a new one needs no schema change.
const PurposeResponseGeneration = "response_generation"

// PromptOwner is the ownership of a prompt: either system-scoped (usable as
// an activation candidate by any technician in the client) or personal to
// one technician. The two cases are deliberately a closed union rather than
// a nullable id so every call site that branches on ownership handles both.
type PromptOwner struct {
	technicianID uint64
	owned        bool
}

// SystemWide returns the owner value for a client-wide prompt.
func SystemWide() PromptOwner { return PromptOwner{} }

// OwnedBy returns the owner value for a prompt personal to one technician.
func OwnedBy(technicianID uint64) PromptOwner {
	return PromptOwner{technicianID: technicianID, owned: true}
}

// IsSystem reports whether the prompt is system-scoped.
func (o PromptOwner) IsSystem() bool { return !o.owned }

// TechnicianID returns the owning technician id and true when the prompt is
// personal, or (0, false) when it is system-scoped.
func (o PromptOwner) TechnicianID() (uint64, bool) {
	if !o.owned {
		return 0, false
	}
	return o.technicianID, true
}

// Prompt is a named, versioned block of reusable instruction text for one
// purpose. System prompts belong to the client; personal prompts belong to
// one technician and are invisible to the rest.
type Prompt struct {
	ID          uint64      `json:"id"`
	ClientID    uint64      `json:"client_id"`
	Name        string      `json:"name"`
	Purpose     string      `json:"purpose"`
	Content     string      `json:"content"`
	Version     uint32      `json:"version"` // incremented on each accepted edit
	CreatedBy   string      `json:"created_by"` // creator display name
	Owner       PromptOwner `json:"-"`
	Description string      `json:"description,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// IsSystem reports whether the prompt is a client-wide system prompt.
func (p *Prompt) IsSystem() bool { return p.Owner.IsSystem() }

// OwnedByTechnician reports whether the prompt is personal to the given
// technician.
func (p *Prompt) OwnedByTechnician(technicianID uint64) bool {
	id, ok := p.Owner.TechnicianID()
	return ok && id == technicianID
}
