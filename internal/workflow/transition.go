package workflow

import (
	"context"
	"errors"
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
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// TransitionStatus moves a ticket to the requested status. Requesting the
// current status is a no-op. Approval (IN_REVIEW -> DONE) credits the
// assigned performer once, however many times it is requested.
func (e *Engine) TransitionStatus(ctx context.Context, actor *auth.Actor, in TransitionInput) (*models.Ticket, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	metrics := telemetry.GetMetrics()

	var (
		ticket *models.Ticket
		from   models.TicketStatus
	)
	err := e.ledger.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		ticket, err = tx.LockTicket(ctx, in.TicketID)
		if err != nil {
			return err
		}
		if err := canSeeTicket(actor, ticket); err != nil {
			return err
		}

		from = ticket.Status
		if from == in.Status {
			return nil
		}

		if err := e.checkTransition(ctx, tx, actor, ticket, in); err != nil {
			return err
		}

		now := e.ledger.Now()
		switch in.Status {
		case models.StatusInReview:
			if err := e.openRevision(ctx, tx, actor, ticket); err != nil {
				return err
			}
		case models.StatusInProgress:
			if from == models.StatusInReview && actor.IsRequester() {
				if err := e.attachRevisionNote(ctx, tx, actor, ticket, in.RevisionNote); err != nil {
					return err
				}
			}
		case models.StatusDone:
			if err := e.payout(ctx, tx, actor, ticket); err != nil {
				return err
			}
			ticket.CompletedAt = &now
		}

		ticket.Status = in.Status
		ticket.UpdatedAt = now
		return tx.UpdateTicket(ctx, ticket)
	})
	if err != nil {
		if errors.Is(err, ErrIllegalTransition) || errors.Is(err, ErrPermissionDenied) {
			metrics.TransitionsDeniedTotal.Add(ctx, 1, metric.WithAttributes(
				attribute.String("to", string(in.Status)),
			))
		}
		logFailure(err).
			Str("ticket_id", in.TicketID.String()).
			Str("to", string(in.Status)).
			Stringer("actor", actor).
			Msg("Transition rejected")
		return nil, err
	}

	if from != in.Status {
		metrics.TransitionsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("from", string(from)),
			attribute.String("to", string(in.Status)),
		))

		log.Info().
			Str("ticket_id", ticket.TicketID.String()).
			Str("from", string(from)).
			Str("to", string(ticket.Status)).
			Stringer("actor", actor).
			Msg("Ticket transitioned")
	}

	return ticket, nil
}

// checkTransition applies the transition table. Role failures are
// ErrPermissionDenied, rule failures are *TransitionError.
func (e *Engine) checkTransition(ctx context.Context, tx store.Tx, actor *auth.Actor, t *models.Ticket, in TransitionInput) error {
	from, to := t.Status, in.Status

	if from == models.StatusDone {
		return illegal(from, to, "ticket is done and cannot move again")
	}

	switch to {
	case models.StatusTodo:
		return illegal(from, to, "tickets cannot return to TODO")

	case models.StatusInProgress:
		switch {
		case actor.IsOperator():
			return nil
		case actor.IsPerformer():
			if !isAssignee(actor, t) {
				return denied("only the assigned performer may work on ticket %s", t.TicketID)
			}
			return nil
		}

		// requester side: only sending reviewed work back for revision
		if from != models.StatusInReview {
			return illegal(from, to, "only the performer may start work")
		}
		if !actor.Can(auth.PermBoardMove) {
			return denied("company role %s may not move tickets on the board", actor.CompanyRole)
		}
		if strings.TrimSpace(in.RevisionNote) == "" {
			return illegal(from, to, "revision note required")
		}
		return e.checkConcurrencyLimit(ctx, tx, t)

	case models.StatusInReview:
		if actor.IsRequester() {
			return illegal(from, to, "only the performer may submit work for review")
		}
		if actor.IsPerformer() && !isAssignee(actor, t) {
			return denied("only the assigned performer may submit ticket %s", t.TicketID)
		}
		if from != models.StatusInProgress {
			return illegal(from, to, "work must be in progress before review")
		}
		return nil

	case models.StatusDone:
		switch {
		case actor.IsPerformer():
			return denied("only the requester may approve work")
		case actor.IsRequester() && !actor.Can(auth.PermTicketsComplete):
			return denied("company role %s may not approve work", actor.CompanyRole)
		}
		if from != models.StatusInReview {
			return illegal(from, to, "must be in review before approval")
		}
		return nil
	}

	return illegal(from, to, "unknown status")
}

func (e *Engine) checkConcurrencyLimit(ctx context.Context, tx store.Tx, t *models.Ticket) error {
	org, err := tx.LockOrganization(ctx, t.OrgID)
	if err != nil {
		return err
	}
	if org.MaxInProgress == 0 {
		return nil
	}

	inProgress, err := tx.CountTicketsByStatus(ctx, org.OrgID, models.StatusInProgress)
	if err != nil {
		return err
	}
	if inProgress >= org.MaxInProgress {
		return illegal(t.Status, models.StatusInProgress,
			fmt.Sprintf("organization already has %d of %d tickets in progress", inProgress, org.MaxInProgress))
	}
	return nil
}

// openRevision records a new round of work submitted for review.
func (e *Engine) openRevision(ctx context.Context, tx store.Tx, actor *auth.Actor, t *models.Ticket) error {
	number := 1
	latest, err := tx.LatestRevision(ctx, t.TicketID)
	switch {
	case err == nil:
		number = latest.Number + 1
	case !errors.Is(err, store.ErrRevisionNotFound):
		return err
	}

	return tx.InsertRevision(ctx, &models.Revision{
		RevisionID:  uuid.Must(uuid.NewV7()),
		TicketID:    t.TicketID,
		Number:      number,
		SubmittedBy: actor.UserID,
		SubmittedAt: e.ledger.Now(),
	})
}

// attachRevisionNote records the requester's feedback on the latest revision.
func (e *Engine) attachRevisionNote(ctx context.Context, tx store.Tx, actor *auth.Actor, t *models.Ticket, note string) error {
	rev, err := tx.LatestRevision(ctx, t.TicketID)
	if err != nil {
		return err
	}

	now, by := e.ledger.Now(), actor.UserID
	rev.Feedback = strings.TrimSpace(note)
	rev.FeedbackBy = &by
	rev.FeedbackAt = &now
	return tx.UpdateRevision(ctx, rev)
}

// payout credits the assigned performer with the ticket's effective payout
// unless a payout for this ticket and performer already exists.
func (e *Engine) payout(ctx context.Context, tx store.Tx, actor *auth.Actor, t *models.Ticket) error {
	if t.AssignedTo == nil || t.JobTypeID == nil {
		return nil
	}

	jobType, err := tx.GetJobType(ctx, *t.JobTypeID)
	if err != nil {
		return err
	}
	values, err := pricing.ForTicket(t, jobType)
	if err != nil {
		return fmt.Errorf("%w: ticket payout: %w", ErrInvalidInput, err)
	}
	amount := values.PayoutOrZero()
	if amount == 0 {
		return nil
	}

	metrics := telemetry.GetMetrics()

	exists, err := tx.HasLedgerEntry(ctx, store.LedgerKey{
		OrgID:       t.OrgID,
		TicketID:    t.TicketID,
		PerformerID: *t.AssignedTo,
		Reason:      models.ReasonJobPayout,
	})
	if err != nil {
		return err
	}
	if exists {
		metrics.PayoutsDuplicateTotal.Add(ctx, 1)
		log.Warn().
			Str("ticket_id", t.TicketID.String()).
			Str("performer_id", t.AssignedTo.String()).
			Msg("Payout already recorded, skipping")
		return nil
	}

	_, err = e.ledger.Append(ctx, tx, ledger.EntrySpec{
		OrgID:       t.OrgID,
		TicketID:    &t.TicketID,
		PerformerID: t.AssignedTo,
		Direction:   models.DirectionCredit,
		Amount:      amount,
		Reason:      models.ReasonJobPayout,
		Note:        fmt.Sprintf("ticket #%d approved", t.Number),
		Metadata: map[string]any{
			"ticket_number": t.Number,
			"job_type_id":   jobType.JobTypeID.String(),
			"quantity":      t.Quantity,
			"approved_by":   actor.UserID.String(),
		},
	})
	if err != nil {
		return err
	}

	metrics.PayoutsTotal.Add(ctx, 1)
	return nil
}
