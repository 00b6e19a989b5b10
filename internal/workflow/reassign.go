package workflow

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tokenboard/internal/auth"
	"github.com/wolfeidau/tokenboard/internal/models"
	"github.com/wolfeidau/tokenboard/internal/store"
)

// ReassignTicket hands an open ticket to another performer, typically one
// that fell back to manual assignment at intake. Operators only.
func (e *Engine) ReassignTicket(ctx context.Context, actor *auth.Actor, ticketID, performerID uuid.UUID) (*models.Ticket, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if ticketID == uuid.Nil || performerID == uuid.Nil {
		return nil, invalid("ticket id and performer id are required")
	}
	if !actor.IsOperator() {
		return nil, denied("only platform operators may reassign tickets")
	}

	var ticket *models.Ticket
	err := e.ledger.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		ticket, err = tx.LockTicket(ctx, ticketID)
		if err != nil {
			return err
		}
		if !ticket.Status.Open() {
			return illegal(ticket.Status, ticket.Status, "done tickets cannot be reassigned")
		}

		performer, err := tx.GetPerformer(ctx, performerID)
		if err != nil {
			return err
		}
		if !performer.Active {
			return invalid("performer %s is inactive", performerID)
		}

		ticket.AssignedTo = &performer.PerformerID
		ticket.UpdatedAt = e.ledger.Now()
		return tx.UpdateTicket(ctx, ticket)
	})
	if err != nil {
		logFailure(err).Str("ticket_id", ticketID.String()).Msg("Failed to reassign ticket")
		return nil, err
	}

	log.Info().
		Str("ticket_id", ticket.TicketID.String()).
		Str("performer_id", performerID.String()).
		Stringer("actor", actor).
		Msg("Ticket reassigned")

	return ticket, nil
}
