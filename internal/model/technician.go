package model

import "time"

// Technician is an individual worker belonging to one client. The persona
// fields are free-form communication-style descriptors used when shaping
// generated review responses; they are carried verbatim and never
// interpreted by this service.
type Technician struct {
	ID                 uint64    `json:"id"`                   // primary key
	ClientID           uint64    `json:"client_id"`            // owning client
	Name               string    `json:"name"`                 // display name
	CRMCode            string    `json:"crm_code"`             // unique login code within the CRM
	Persona            string    `json:"persona,omitempty"`    // free-form style descriptors
	Active             bool      `json:"active"`               // inactive technicians fail resolution
	FirstLogin         bool      `json:"first_login"`          // true until the first credential change
	MustChangePassword bool      `json:"must_change_password"` // set by managers to force a reset
	PasswordHash       string    `json:"-"`                    // bcrypt hash, never serialized
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
