package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/revassist/technician-portal/internal/model"
	"github.com/revassist/technician-portal/internal/repository"
)

// Resolution failure sentinels. Handlers translate ErrMissingParams to a
// caller error and the two invalid sentinels to authentication failures.
// None of them carry internal detail; the messages shown to callers live in
// the middleware.
var (
	ErrMissingParams   = errors.New("missing location or user identifier")
	ErrInvalidLocation = errors.New("invalid or inactive location")
	ErrInvalidUser     = errors.New("invalid or inactive user")
)

// LocationMappingStore is the read surface the resolver needs for location
// lookups. The SQL repository implements it; tests use an in-memory fake.
type LocationMappingStore interface {
	FindByExternalID(ctx context.Context, externalID string) (*model.LocationMapping, *model.Client, error)
}

// UserMappingStore is the read-and-bookkeeping surface for user lookups.
// FindByExternalID is scoped by location mapping id; the bookkeeping writes
// are best-effort and their errors never change a resolution outcome.
type UserMappingStore interface {
	FindByExternalID(ctx context.Context, externalID string, locationMappingID uint64) (*model.UserMapping, *model.Technician, error)
	RecordAccess(ctx context.Context, id uint64) error
	RecordFailure(ctx context.Context, id uint64) error
}

// Resolver maps external location/user identifiers to the internal
// identity. Both lookups must succeed and every row on the path (location
// mapping, client, user mapping, technician) must be active.
type Resolver struct {
	locations LocationMappingStore
	users     UserMappingStore
	log       *zap.Logger
}

// NewResolver builds a resolver over the given stores.
func NewResolver(locations LocationMappingStore, users UserMappingStore, log *zap.Logger) *Resolver {
	if locations == nil || users == nil {
		panic("nil store passed to NewResolver")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{locations: locations, users: users, log: log}
}

// Resolve performs the two-stage lookup. The user lookup is scoped by the
// just-resolved location mapping id: external user identifiers are globally
// unique, but a buggy or malicious host could pair a user id from one
// client with another client's location id, and the scope closes that gap.
// On success the mapping's last-access stamp is updated best-effort.
func (r *Resolver) Resolve(ctx context.Context, locationID, userID string) (*Context, error) {
	if locationID == "" || userID == "" {
		return nil, ErrMissingParams
	}

	loc, client, err := r.locations.FindByExternalID(ctx, locationID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidLocation
	}
	if err != nil {
		return nil, err
	}
	if !loc.Active || !client.Active {
		return nil, ErrInvalidLocation
	}

	um, tech, err := r.users.FindByExternalID(ctx, userID, loc.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidUser
	}
	if err != nil {
		return nil, err
	}
	if um.LocationMappingID != loc.ID {
		// The query is already scoped, so this can only trip if the store
		// implementation is broken. Treat it exactly like a cross-tenant
		// replay.
		return nil, ErrInvalidUser
	}
	if !um.Active || !tech.Active {
		if ferr := r.users.RecordFailure(ctx, um.ID); ferr != nil {
			r.log.Warn("record failed access", zap.Uint64("user_mapping_id", um.ID), zap.Error(ferr))
		}
		return nil, ErrInvalidUser
	}

	if aerr := r.users.RecordAccess(ctx, um.ID); aerr != nil {
		// Bookkeeping only; the resolution stands.
		r.log.Warn("record last access", zap.Uint64("user_mapping_id", um.ID), zap.Error(aerr))
	}

	return &Context{
		Client:          client,
		Technician:      tech,
		Role:            deriveRole(um),
		Permissions:     um.Permissions,
		LocationMapping: loc,
		UserMapping:     um,
	}, nil
}

// deriveRole is a pure function of the stored mapping row. Unknown role
// strings degrade to the least privileged role rather than failing the
// resolution; effective permissions change only by updating the row.
func deriveRole(um *model.UserMapping) model.Role {
	if um.Role.Valid() {
		return um.Role
	}
	return model.RoleTechnician
}
