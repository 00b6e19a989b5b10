package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Role is a user's platform-wide role.
type Role string

const (
	// RoleAdmin is a platform operator: may move any ticket and edit overrides.
	RoleAdmin Role = "ADMIN"
	// RoleCreative is a performer who works tickets.
	RoleCreative Role = "CREATIVE"
	// RoleClient is a requester acting for an organization.
	RoleClient Role = "CLIENT"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCreative || r == RoleClient
}

// CompanyRole is a requester's role within their organization.
type CompanyRole string

const (
	CompanyRoleOwner   CompanyRole = "OWNER"
	CompanyRoleManager CompanyRole = "MANAGER"
	CompanyRoleMember  CompanyRole = "MEMBER"
	CompanyRoleViewer  CompanyRole = "VIEWER"
)

// Valid reports whether r is a known company role. The empty role is valid
// for actors outside any organization.
func (r CompanyRole) Valid() bool {
	switch r {
	case "", CompanyRoleOwner, CompanyRoleManager, CompanyRoleMember, CompanyRoleViewer:
		return true
	}
	return false
}

// Actor is the identity behind a request.
type Actor struct {
	UserID      uuid.UUID // performer id for creatives
	Role        Role
	CompanyRole CompanyRole
	OrgID       uuid.UUID // active organization, uuid.Nil when none
}

// Validate checks the actor is well formed.
func (a *Actor) Validate() error {
	if a.UserID == uuid.Nil {
		return fmt.Errorf("user id is required")
	}
	if !a.Role.Valid() {
		return fmt.Errorf("unknown role %q", a.Role)
	}
	if !a.CompanyRole.Valid() {
		return fmt.Errorf("unknown company role %q", a.CompanyRole)
	}
	if a.Role == RoleClient && a.OrgID == uuid.Nil {
		return fmt.Errorf("client actors need an active organization")
	}
	return nil
}

// IsOperator reports whether the actor is a platform operator.
func (a *Actor) IsOperator() bool {
	return a.Role == RoleAdmin
}

// IsPerformer reports whether the actor is a creative.
func (a *Actor) IsPerformer() bool {
	return a.Role == RoleCreative
}

// IsRequester reports whether the actor acts on the organization's side.
func (a *Actor) IsRequester() bool {
	return a.Role == RoleClient
}

// BelongsTo reports whether a requester-side actor's active organization is orgID.
func (a *Actor) BelongsTo(orgID uuid.UUID) bool {
	return a.OrgID != uuid.Nil && a.OrgID == orgID
}

// String is used in logs.
func (a *Actor) String() string {
	return fmt.Sprintf("%s:%s", a.Role, a.UserID)
}

type contextKey int

const (
	actorContextKey contextKey = iota
)

// WithActor returns a copy of ctx carrying actor.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// ActorFromContext extracts the authenticated actor from the request context.
// Returns nil if no actor is present (unauthenticated request).
func ActorFromContext(ctx context.Context) *Actor {
	actor, _ := ctx.Value(actorContextKey).(*Actor)
	return actor
}
