package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization represents a paying customer tenant.
// The token balance is only ever changed by the ledger, in the same
// transaction as the ledger entry that explains the change.
type Organization struct {
	OrgID        uuid.UUID  // UUIDv7
	Name         string
	TokenBalance int64      // current balance, source of truth for funding checks
	PlanID       *uuid.UUID // optional subscription plan reference

	// MaxInProgress caps the number of tickets the organization can have
	// IN_PROGRESS at once. 0 means unlimited.
	MaxInProgress int

	// AutoAssign allows auto-assignment at ticket intake for this organization.
	AutoAssign bool

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
