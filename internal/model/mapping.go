package model

import "time"

// Role is the access level stored on a user mapping. Managers and admins
// have full visibility over every technician in the client; plain
// technicians are scoped to themselves.
type Role string

const (
	RoleTechnician Role = "technician"
	RoleManager    Role = "manager"
	RoleAdmin      Role = "admin"
)

// IsManagerOrAdmin reports whether the role grants client-wide visibility.
func (r Role) IsManagerOrAdmin() bool {
	return r == RoleManager || r == RoleAdmin
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	return r == RoleTechnician || r == RoleManager || r == RoleAdmin
}

// LocationMapping binds one external, opaque, hashed location identifier
// supplied by the embedding host to exactly one client. The external id is
// globally unique; an inactive mapping fails resolution the same way an
// unknown one does.
type LocationMapping struct {
	ID         uint64    `json:"id"`
	ExternalID string    `json:"external_id"` // opaque hashed id from the host
	ClientID   uint64    `json:"client_id"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// UserMapping binds one external, opaque, hashed user identifier to exactly
// one technician, within exactly one location mapping. The location scope is
// what prevents a user identifier valid in one client from being replayed
// against another client's location identifier.
type UserMapping struct {
	ID                uint64        `json:"id"`
	ExternalID        string        `json:"external_id"`         // opaque hashed id from the host
	TechnicianID      uint64        `json:"technician_id"`       // resolved technician
	LocationMappingID uint64        `json:"location_mapping_id"` // scope of this user id
	Role              Role          `json:"role"`
	Permissions       PermissionSet `json:"permissions"`
	Active            bool          `json:"active"`
	LastAccessAt      *time.Time    `json:"last_access_at,omitempty"` // last successful resolution
	FailedAttempts    uint32        `json:"failed_attempts"`          // consecutive failed resolutions
	LastFailedAt      *time.Time    `json:"last_failed_at,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}
