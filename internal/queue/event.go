// Package queue defines message payloads exchanged over the message broker
// and the background consumer that turns them into an audit trail.
package queue

// PromptActivatedEvent is published when a technician successfully switches
// their active prompt. It carries enough information for downstream
// consumers to log or trigger analytics without querying the primary
// database.
type PromptActivatedEvent struct {
	TechnicianID uint64 `json:"technician_id"`
	ClientID     uint64 `json:"client_id"`
	PromptID     uint64 `json:"prompt_id"`
	PromptName   string `json:"prompt_name"`
	Purpose      string `json:"purpose"`
	ActivatedAt  string `json:"activated_at"`
}

// PortalAccessEvent is published on every successful identity resolution.
// It is the audit record of who launched the portal, from which external
// location, and with what role.
type PortalAccessEvent struct {
	TechnicianID       uint64 `json:"technician_id"`
	TechnicianName     string `json:"technician_name"`
	ClientID           uint64 `json:"client_id"`
	ClientName         string `json:"client_name"`
	Role               string `json:"role"`
	LocationExternalID string `json:"location_external_id"`
	AccessedAt         string `json:"accessed_at"`
}
