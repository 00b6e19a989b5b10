package auth

import (
	"context"
	"fmt"
	"slices"

	"connectrpc.com/connect"
)

// Permission represents an authorized action
type Permission string

const (
	PermTicketsCreate   Permission = "tickets:create"
	PermTicketsView     Permission = "tickets:view"
	PermBoardMove       Permission = "board:move"
	PermTicketsComplete Permission = "tickets:complete"
	PermLedgerView      Permission = "ledger:view"
)

// CompanyRolePermissions maps requester company roles to allowed permissions.
// Platform operators hold every permission; creatives hold none of these.
var CompanyRolePermissions = map[CompanyRole][]Permission{
	CompanyRoleOwner: {
		PermTicketsCreate,
		PermTicketsView,
		PermBoardMove,
		PermTicketsComplete,
		PermLedgerView,
	},
	CompanyRoleManager: {
		PermTicketsCreate,
		PermTicketsView,
		PermBoardMove,
		PermTicketsComplete,
		PermLedgerView,
	},
	CompanyRoleMember: {
		PermTicketsCreate,
		PermTicketsView,
		PermBoardMove,
	},
	CompanyRoleViewer: {
		PermTicketsView,
	},
}

// HasPermission checks if a company role has a specific permission
func HasPermission(role CompanyRole, perm Permission) bool {
	perms, ok := CompanyRolePermissions[role]
	if !ok {
		return false
	}
	return slices.Contains(perms, perm)
}

// Can reports whether the actor holds perm. Operators hold everything.
func (a *Actor) Can(perm Permission) bool {
	if a.IsOperator() {
		return true
	}
	if !a.IsRequester() {
		return false
	}
	return HasPermission(a.CompanyRole, perm)
}

// RequireActor returns the authenticated actor or an Unauthenticated error.
func RequireActor(ctx context.Context) (*Actor, error) {
	actor := ActorFromContext(ctx)
	if actor == nil {
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("not authenticated"))
	}
	return actor, nil
}
