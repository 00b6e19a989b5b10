package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tokenboard/internal/auth"
	"github.com/wolfeidau/tokenboard/internal/ledger"
	"github.com/wolfeidau/tokenboard/internal/models"
	"github.com/wolfeidau/tokenboard/internal/pricing"
	"github.com/wolfeidau/tokenboard/internal/store"
	"github.com/wolfeidau/tokenboard/internal/telemetry"
	"github.com/wolfeidau/tokenboard/internal/util"
)

// Snapshot is the part of a ticket that determines its effective cost.
type Snapshot struct {
	OrgID          uuid.UUID
	TicketID       uuid.UUID
	Quantity       int
	CostOverride   *int64
	PayoutOverride *int64
	JobType        *models.JobType
}

func snapshotOf(t *models.Ticket, jobType *models.JobType) Snapshot {
	return Snapshot{
		OrgID:          t.OrgID,
		TicketID:       t.TicketID,
		Quantity:       t.Quantity,
		CostOverride:   t.CostOverride,
		PayoutOverride: t.PayoutOverride,
		JobType:        jobType,
	}
}

// Cost is the snapshot's effective cost, nil for untyped tickets.
func (s Snapshot) Cost() (*int64, error) {
	values, err := pricing.EffectiveValues(s.Quantity, s.CostOverride, s.PayoutOverride, s.JobType)
	if err != nil {
		return nil, err
	}
	return values.Cost, nil
}

// Reconcile returns the ledger entry that moves the organization from
// paying old's effective cost to paying updated's, or nil when the cost is
// unchanged. Payout changes never produce an entry.
func Reconcile(old, updated Snapshot, operatorID uuid.UUID) (*ledger.EntrySpec, error) {
	before, err := old.Cost()
	if err != nil {
		return nil, err
	}
	after, err := updated.Cost()
	if err != nil {
		return nil, err
	}
	if before == nil || after == nil {
		return nil, nil
	}

	delta, err := util.SubInt64(*after, *before)
	if err != nil {
		return nil, fmt.Errorf("cost change from %d to %d: %w", *before, *after, err)
	}
	if delta == 0 {
		return nil, nil
	}

	direction, amount := models.DirectionDebit, delta
	if delta < 0 {
		direction, amount = models.DirectionCredit, -delta
	}

	ticketID := updated.TicketID
	return &ledger.EntrySpec{
		OrgID:     updated.OrgID,
		TicketID:  &ticketID,
		Direction: direction,
		Amount:    amount,
		Reason:    models.ReasonAdminAdjustment,
		Note:      "cost override reconciliation",
		Metadata: map[string]any{
			"cost_before": *before,
			"cost_after":  *after,
			"operator_id": operatorID.String(),
		},
	}, nil
}

// UpdateOverrides edits a ticket's cost and payout overrides. Only platform
// operators may do this. A changed effective cost is reconciled against the
// organization balance in the same transaction, even when the extra debit
// leaves the balance negative.
func (e *Engine) UpdateOverrides(ctx context.Context, actor *auth.Actor, in OverridesInput) (*models.Ticket, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if !actor.IsOperator() {
		return nil, denied("only platform operators may edit overrides")
	}

	var (
		ticket *models.Ticket
		entry  *models.LedgerEntry
	)
	err := e.ledger.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		ticket, err = tx.LockTicket(ctx, in.TicketID)
		if err != nil {
			return err
		}

		var jobType *models.JobType
		if ticket.JobTypeID != nil {
			jobType, err = tx.GetJobType(ctx, *ticket.JobTypeID)
			if err != nil {
				return err
			}
		}

		old := snapshotOf(ticket, jobType)

		switch {
		case in.ClearCostOverride:
			ticket.CostOverride = nil
		case in.CostOverride != nil:
			v := *in.CostOverride
			ticket.CostOverride = &v
		}
		switch {
		case in.ClearPayoutOverride:
			ticket.PayoutOverride = nil
		case in.PayoutOverride != nil:
			v := *in.PayoutOverride
			ticket.PayoutOverride = &v
		}

		// an operator correction may take the organization below zero
		spec, err := Reconcile(old, snapshotOf(ticket, jobType), actor.UserID)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		if spec != nil {
			entry, err = e.ledger.Append(ctx, tx, *spec)
			if err != nil {
				return err
			}
		}

		ticket.UpdatedAt = e.ledger.Now()
		return tx.UpdateTicket(ctx, ticket)
	})
	if err != nil {
		logFailure(err).Str("ticket_id", in.TicketID.String()).Msg("Failed to update overrides")
		return nil, err
	}

	ev := log.Info().
		Str("ticket_id", ticket.TicketID.String()).
		Stringer("actor", actor)
	if entry != nil {
		telemetry.GetMetrics().ReconciliationsTotal.Add(ctx, 1)
		ev = ev.Str("direction", string(entry.Direction)).Int64("amount", entry.Amount)
	}
	ev.Msg("Ticket overrides updated")

	return ticket, nil
}
