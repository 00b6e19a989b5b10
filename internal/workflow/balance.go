package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tokenboard/internal/auth"
	"github.com/wolfeidau/tokenboard/internal/ledger"
	"github.com/wolfeidau/tokenboard/internal/models"
	"github.com/wolfeidau/tokenboard/internal/store"
)

// Account names a token balance: either an organization or a performer's
// earnings. Exactly one of the ids is set.
type Account struct {
	OrgID       *uuid.UUID
	PerformerID *uuid.UUID
}

// AdjustBalance applies an explicit operator correction to an organization
// balance. A debit may not overdraw the organization.
func (e *Engine) AdjustBalance(ctx context.Context, actor *auth.Actor, in AdjustInput) (*models.LedgerEntry, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if !actor.IsOperator() {
		return nil, denied("only platform operators may adjust balances")
	}

	var entry *models.LedgerEntry
	err := e.ledger.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		if in.Direction == models.DirectionDebit {
			org, err := tx.LockOrganization(ctx, in.OrgID)
			if err != nil {
				return err
			}
			if in.Amount > org.TokenBalance {
				return fmt.Errorf("%w: adjustment of %d tokens, organization has %d",
					ErrInsufficientBalance, in.Amount, org.TokenBalance)
			}
		}

		var err error
		entry, err = e.ledger.Append(ctx, tx, ledger.EntrySpec{
			OrgID:     in.OrgID,
			Direction: in.Direction,
			Amount:    in.Amount,
			Reason:    models.ReasonAdminAdjustment,
			Note:      strings.TrimSpace(in.Note),
			Metadata: map[string]any{
				"operator_id": actor.UserID.String(),
			},
		})
		return err
	})
	if err != nil {
		logFailure(err).Str("org_id", in.OrgID.String()).Msg("Failed to adjust balance")
		return nil, err
	}

	log.Info().
		Str("org_id", in.OrgID.String()).
		Str("direction", string(entry.Direction)).
		Int64("amount", entry.Amount).
		Int64("balance_after", entry.BalanceAfter).
		Stringer("actor", actor).
		Msg("Balance adjusted")

	return entry, nil
}

// CreditPurchase credits tokens an organization has paid for.
func (e *Engine) CreditPurchase(ctx context.Context, actor *auth.Actor, in PurchaseInput) (*models.LedgerEntry, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if !actor.IsOperator() {
		return nil, denied("only platform operators may credit purchases")
	}

	var entry *models.LedgerEntry
	err := e.ledger.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		entry, err = e.ledger.Append(ctx, tx, ledger.EntrySpec{
			OrgID:     in.OrgID,
			Direction: models.DirectionCredit,
			Amount:    in.Amount,
			Reason:    models.ReasonPurchase,
			Note:      "token purchase",
			Metadata: map[string]any{
				"reference":   strings.TrimSpace(in.Reference),
				"operator_id": actor.UserID.String(),
			},
		})
		return err
	})
	if err != nil {
		logFailure(err).Str("org_id", in.OrgID.String()).Msg("Failed to credit purchase")
		return nil, err
	}

	log.Info().
		Str("org_id", in.OrgID.String()).
		Int64("amount", entry.Amount).
		Int64("balance_after", entry.BalanceAfter).
		Msg("Purchase credited")

	return entry, nil
}

// Withdraw pays out a performer's earned tokens. Performers may withdraw
// their own earnings; operators may withdraw on anyone's behalf.
func (e *Engine) Withdraw(ctx context.Context, actor *auth.Actor, in WithdrawInput) (*models.LedgerEntry, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if !actor.IsOperator() && (!actor.IsPerformer() || actor.UserID != in.PerformerID) {
		return nil, denied("performers may only withdraw their own earnings")
	}

	var entry *models.LedgerEntry
	err := e.ledger.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		p, err := tx.LockPerformer(ctx, in.PerformerID)
		if err != nil {
			return err
		}
		if in.Amount > p.TokenBalance {
			return fmt.Errorf("%w: withdrawal of %d tokens, performer has earned %d",
				ErrInsufficientBalance, in.Amount, p.TokenBalance)
		}

		note := strings.TrimSpace(in.Note)
		if note == "" {
			note = "withdrawal"
		}

		entry, err = e.ledger.Append(ctx, tx, ledger.EntrySpec{
			OrgID:       models.PlatformOrgID,
			PerformerID: &p.PerformerID,
			Direction:   models.DirectionDebit,
			Amount:      in.Amount,
			Reason:      models.ReasonWithdrawal,
			Note:        note,
			Metadata: map[string]any{
				"requested_by": actor.UserID.String(),
			},
		})
		return err
	})
	if err != nil {
		logFailure(err).Str("performer_id", in.PerformerID.String()).Msg("Failed to withdraw")
		return nil, err
	}

	log.Info().
		Str("performer_id", in.PerformerID.String()).
		Int64("amount", entry.Amount).
		Int64("balance_after", entry.BalanceAfter).
		Msg("Earnings withdrawn")

	return entry, nil
}

// GetBalance returns the balance of an organization or a performer.
func (e *Engine) GetBalance(ctx context.Context, actor *auth.Actor, account Account) (int64, error) {
	if err := requireActor(actor); err != nil {
		return 0, err
	}

	switch {
	case account.OrgID != nil && account.PerformerID == nil:
		if err := requireOrgPermission(actor, *account.OrgID, auth.PermLedgerView); err != nil {
			return 0, err
		}
		return e.ledger.Balance(ctx, *account.OrgID)

	case account.PerformerID != nil && account.OrgID == nil:
		if !actor.IsOperator() && (!actor.IsPerformer() || actor.UserID != *account.PerformerID) {
			return 0, denied("performers may only view their own earnings")
		}
		return e.ledger.PerformerBalance(ctx, *account.PerformerID)
	}

	return 0, invalid("exactly one of organization id or performer id is required")
}

// ListLedger returns a page of an account's ledger. An organization ledger
// holds only entries that move the organization balance; a performer's
// earnings ledger holds their payouts from every organization plus their
// withdrawals. Either way the entries chain: each page is newest first and
// the newest entry's BalanceAfter is the account's stored balance.
func (e *Engine) ListLedger(ctx context.Context, actor *auth.Actor, account Account, filter ledger.Filter) (*ledger.Page, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if filter.Direction != "" && !filter.Direction.Valid() {
		return nil, invalid("unknown direction %q", filter.Direction)
	}
	if filter.Reason != "" && !filter.Reason.Valid() {
		return nil, invalid("unknown reason %q", filter.Reason)
	}
	if filter.Page < 0 || filter.PageSize < 0 {
		return nil, invalid("page and page size must not be negative")
	}

	switch {
	case account.OrgID != nil && account.PerformerID == nil:
		if err := requireOrgPermission(actor, *account.OrgID, auth.PermLedgerView); err != nil {
			return nil, err
		}
		return e.ledger.List(ctx, *account.OrgID, filter)

	case account.PerformerID != nil && account.OrgID == nil:
		if !actor.IsOperator() && (!actor.IsPerformer() || actor.UserID != *account.PerformerID) {
			return nil, denied("performers may only list their own earnings")
		}
		filter.PerformerID = nil
		return e.ledger.ListPerformer(ctx, *account.PerformerID, filter)
	}

	return nil, invalid("exactly one of organization id or performer id is required")
}
