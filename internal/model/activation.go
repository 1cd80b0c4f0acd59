package model

import "time"

// PromptActivation records which prompt is currently active for a given
// (technician, purpose) pair. At most one activation per pair is active at
// any moment; that invariant is enforced by the store, not by this type.
// Rows are never deleted, only flipped inactive when superseded.
type PromptActivation struct {
	ID           uint64    `json:"id"`
	TechnicianID uint64    `json:"technician_id"`
	PromptID     uint64    `json:"prompt_id"`
	Purpose      string    `json:"purpose"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
