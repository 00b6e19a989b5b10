package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/tokenboard/internal/util"
)

// Direction is the accounting side of a ledger entry.
type Direction string

const (
	DirectionCredit Direction = "CREDIT"
	DirectionDebit  Direction = "DEBIT"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionCredit || d == DirectionDebit
}

// Reason tags the business cause of a ledger entry.
type Reason string

const (
	ReasonJobCreated      Reason = "JOB_CREATED"
	ReasonJobPayout       Reason = "JOB_PAYOUT"
	ReasonAdminAdjustment Reason = "ADMIN_ADJUSTMENT"
	ReasonWithdrawal      Reason = "WITHDRAWAL"
	ReasonPurchase        Reason = "PURCHASE"
)

// Valid reports whether r is a known reason.
func (r Reason) Valid() bool {
	switch r {
	case ReasonJobCreated, ReasonJobPayout, ReasonAdminAdjustment, ReasonWithdrawal, ReasonPurchase:
		return true
	}
	return false
}

// Account returns the balance entries with this reason move.
func (r Reason) Account() Account {
	if r == ReasonJobPayout || r == ReasonWithdrawal {
		return AccountPerformer
	}
	return AccountOrganization
}

// Account identifies which running balance a ledger entry belongs to.
type Account string

const (
	// AccountOrganization entries chain an organization's token balance.
	AccountOrganization Account = "ORGANIZATION"
	// AccountPerformer entries chain a performer's earnings balance.
	AccountPerformer Account = "PERFORMER"
)

// Valid reports whether a is a known account.
func (a Account) Valid() bool {
	return a == AccountOrganization || a == AccountPerformer
}

// PlatformOrgID owns ledger entries that belong to no organization, such as
// performer withdrawals.
var PlatformOrgID = uuid.Nil

// MaxAmount bounds any single amount a caller may supply: adjustments,
// purchases, withdrawals, overrides and job type unit rates.
const MaxAmount int64 = 1_000_000_000_000

// LedgerEntry is an immutable record of one token movement.
// BalanceAfter is always BalanceBefore +/- Amount depending on Direction,
// and both snapshots are of the balance named by Account: the organization
// for AccountOrganization, PerformerID's earnings for AccountPerformer.
type LedgerEntry struct {
	EntryID       uuid.UUID  // UUIDv7
	Account       Account    // balance the snapshots belong to
	OrgID         uuid.UUID  // source organization, PlatformOrgID for withdrawals
	TicketID      *uuid.UUID // optional unit of work
	PerformerID   *uuid.UUID // optional performer, always set on performer entries
	Direction     Direction
	Amount        int64 // always positive
	Reason        Reason
	Note          string
	Metadata      map[string]any
	BalanceBefore int64
	BalanceAfter  int64
	CreatedAt     time.Time
}

// Apply returns the balance that results from applying an entry of the
// given direction and amount to balance. It fails with util.ErrOverflow
// rather than wrap.
func (d Direction) Apply(balance, amount int64) (int64, error) {
	if d == DirectionDebit {
		return util.SubInt64(balance, amount)
	}
	return util.AddInt64(balance, amount)
}
