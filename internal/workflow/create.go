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
	"github.com/wolfeidau/tokenboard/internal/pricing"
	"github.com/wolfeidau/tokenboard/internal/store"
	"github.com/wolfeidau/tokenboard/internal/telemetry"
)

// CreateTicket opens a ticket in TODO. When it has a job type the effective
// cost is debited from the organization, which must be able to cover it.
// Ticket, debit and assignment decision commit together.
func (e *Engine) CreateTicket(ctx context.Context, actor *auth.Actor, in CreateTicketInput) (*models.Ticket, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := requireOrgPermission(actor, in.OrgID, auth.PermTicketsCreate); err != nil {
		return nil, err
	}

	metrics := telemetry.GetMetrics()

	var ticket *models.Ticket
	err := e.ledger.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		org, err := tx.LockOrganization(ctx, in.OrgID)
		if err != nil {
			return err
		}
		if !org.Active {
			return denied("organization %s is deactivated", org.OrgID)
		}

		var jobType *models.JobType
		if in.JobTypeID != nil {
			jobType, err = tx.GetJobType(ctx, *in.JobTypeID)
			if err != nil {
				return err
			}
		}

		values, err := pricing.EffectiveValues(in.Quantity, nil, nil, jobType)
		if err != nil {
			return fmt.Errorf("%w: ticket cost: %w", ErrInvalidInput, err)
		}
		if cost := values.CostOrZero(); cost > org.TokenBalance {
			metrics.TicketsRejectedTotal.Add(ctx, 1)
			return fmt.Errorf("%w: ticket costs %d tokens, organization has %d", ErrInsufficientBalance, cost, org.TokenBalance)
		}

		number, err := tx.NextTicketNumber(ctx, org.OrgID)
		if err != nil {
			return err
		}

		now := e.ledger.Now()
		ticket = &models.Ticket{
			TicketID:    uuid.Must(uuid.NewV7()),
			OrgID:       org.OrgID,
			Number:      number,
			Title:       strings.TrimSpace(in.Title),
			Description: in.Description,
			Status:      models.StatusTodo,
			Priority:    in.Priority,
			Quantity:    in.Quantity,
			JobTypeID:   in.JobTypeID,
			RequesterID: actor.UserID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		decision, err := e.assigner.Assign(ctx, tx, ticket, jobType, e.autoAssign && org.AutoAssign)
		if err != nil {
			return err
		}
		ticket.AssignedTo = decision.PerformerID

		if err := tx.InsertTicket(ctx, ticket); err != nil {
			return err
		}

		if cost := values.CostOrZero(); cost > 0 {
			_, err := e.ledger.Append(ctx, tx, ledger.EntrySpec{
				OrgID:     org.OrgID,
				TicketID:  &ticket.TicketID,
				Direction: models.DirectionDebit,
				Amount:    cost,
				Reason:    models.ReasonJobCreated,
				Note:      fmt.Sprintf("ticket #%d", ticket.Number),
				Metadata: map[string]any{
					"ticket_number": ticket.Number,
					"job_type_id":   jobType.JobTypeID.String(),
					"quantity":      ticket.Quantity,
					"unit_cost":     jobType.UnitCost,
				},
			})
			if err != nil {
				return err
			}
		}

		return tx.InsertAssignmentLog(ctx, &models.AssignmentLogEntry{
			LogID:       uuid.Must(uuid.NewV7()),
			TicketID:    ticket.TicketID,
			PerformerID: decision.PerformerID,
			Reason:      decision.Reason,
			Metadata:    decision.Metadata,
			CreatedAt:   now,
		})
	})
	if err != nil {
		logFailure(err).Str("org_id", in.OrgID.String()).Msg("Failed to create ticket")
		return nil, err
	}

	metrics.TicketsCreatedTotal.Add(ctx, 1)

	log.Info().
		Str("ticket_id", ticket.TicketID.String()).
		Str("org_id", ticket.OrgID.String()).
		Int64("number", ticket.Number).
		Stringer("actor", actor).
		Msg("Ticket created")

	return ticket, nil
}
