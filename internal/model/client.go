package model // model defines the domain types persisted by the repositories

import "time"

// Client is a customer organization using the portal. Every technician,
// mapping and prompt belongs to exactly one client. An inactive client
// blocks identity resolution for all of its launch identifiers.
type Client struct {
	ID        uint64    `json:"id"`         // primary key
	Name      string    `json:"name"`       // display name of the organization
	Active    bool      `json:"active"`     // inactive clients fail resolution
	CreatedAt time.Time `json:"created_at"` // when the client was onboarded
	UpdatedAt time.Time `json:"updated_at"` // last modification time
}
