package auth

import "github.com/revassist/technician-portal/internal/model"

// Context is the per-request identity assembled by the resolver and
// attached to the request before any business logic runs. It carries
// everything downstream handlers need so they never re-resolve.
type Context struct {
	Client          *model.Client
	Technician      *model.Technician
	Role            model.Role
	Permissions     model.PermissionSet
	LocationMapping *model.LocationMapping
	UserMapping     *model.UserMapping
}

// IsManagerOrAdmin reports whether the resolved role grants client-wide
// visibility and prompt management rights.
func (c *Context) IsManagerOrAdmin() bool { return c.Role.IsManagerOrAdmin() }

// IsSelf reports whether the given technician id is the resolved
// technician.
func (c *Context) IsSelf(technicianID uint64) bool {
	return c.Technician != nil && c.Technician.ID == technicianID
}
