package workflow

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/tokenboard/internal/auth"
	"github.com/wolfeidau/tokenboard/internal/ledger"
	"github.com/wolfeidau/tokenboard/internal/models"
	"github.com/wolfeidau/tokenboard/internal/pricing"
	"github.com/wolfeidau/tokenboard/internal/store"
)

// TicketFilter narrows a ticket listing. Zero values mean "any".
type TicketFilter struct {
	Status     models.TicketStatus
	AssignedTo *uuid.UUID

	Page     int // 1-based, defaults to 1
	PageSize int // defaults to ledger.DefaultPageSize, capped at ledger.MaxPageSize
}

// GetTicket returns a ticket the actor is allowed to see.
func (e *Engine) GetTicket(ctx context.Context, actor *auth.Actor, ticketID uuid.UUID) (*models.Ticket, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	t, err := e.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := canSeeTicket(actor, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ListTickets lists an organization's tickets, newest first. Performers
// only see tickets assigned to them.
func (e *Engine) ListTickets(ctx context.Context, actor *auth.Actor, orgID uuid.UUID, filter TicketFilter) ([]*models.Ticket, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalid("unknown status %q", filter.Status)
	}
	if filter.Page < 0 || filter.PageSize < 0 {
		return nil, invalid("page and page size must not be negative")
	}

	if actor.IsPerformer() {
		self := actor.UserID
		filter.AssignedTo = &self
	} else if err := requireOrgPermission(actor, orgID, auth.PermTicketsView); err != nil {
		return nil, err
	}

	page := max(filter.Page, 1)
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = ledger.DefaultPageSize
	}
	pageSize = min(pageSize, ledger.MaxPageSize)

	return e.store.ListTickets(ctx, orgID, store.TicketFilter{
		Status:     filter.Status,
		AssignedTo: filter.AssignedTo,
		Limit:      pageSize,
		Offset:     (page - 1) * pageSize,
	})
}

// ListRevisions returns a ticket's review rounds in submission order.
func (e *Engine) ListRevisions(ctx context.Context, actor *auth.Actor, ticketID uuid.UUID) ([]*models.Revision, error) {
	if _, err := e.GetTicket(ctx, actor, ticketID); err != nil {
		return nil, err
	}
	return e.store.ListRevisions(ctx, ticketID)
}

// GetAssignment returns the intake assignment decision for a ticket.
// Only platform operators see the decision metadata.
func (e *Engine) GetAssignment(ctx context.Context, actor *auth.Actor, ticketID uuid.UUID) (*models.AssignmentLogEntry, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.IsOperator() {
		return nil, denied("only platform operators may inspect assignment decisions")
	}
	return e.store.GetAssignmentLog(ctx, ticketID)
}

// Values returns a ticket's effective cost and payout. A job type missing
// from the catalog prices as untyped.
func (e *Engine) Values(ctx context.Context, t *models.Ticket) (pricing.Values, error) {
	if t.JobTypeID == nil {
		return pricing.Values{}, nil
	}

	jt, err := e.store.GetJobType(ctx, *t.JobTypeID)
	if errors.Is(err, store.ErrJobTypeNotFound) {
		return pricing.Values{}, nil
	}
	if err != nil {
		return pricing.Values{}, err
	}
	return pricing.ForTicket(t, jt)
}
