// Package workflow owns the ticket lifecycle and every operation that moves
// tokens. Each mutating operation runs in one ledger transaction, so a
// ticket's status and the ledger never disagree.
package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tokenboard/internal/assign"
	"github.com/wolfeidau/tokenboard/internal/auth"
	"github.com/wolfeidau/tokenboard/internal/ledger"
	"github.com/wolfeidau/tokenboard/internal/models"
	"github.com/wolfeidau/tokenboard/internal/store"
)

// Assigner decides who works on a new ticket.
type Assigner interface {
	Assign(ctx context.Context, tx store.Tx, ticket *models.Ticket, jobType *models.JobType, enabled bool) (*assign.Decision, error)
}

// Engine runs ticket and balance operations on behalf of an actor.
type Engine struct {
	store      store.Store
	ledger     *ledger.Ledger
	assigner   Assigner
	autoAssign bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithAutoAssign turns intake auto-assignment on or off for every
// organization. Organizations can still opt out individually.
func WithAutoAssign(enabled bool) Option {
	return func(e *Engine) {
		e.autoAssign = enabled
	}
}

// New creates an engine. Auto-assignment is on by default.
func New(l *ledger.Ledger, assigner Assigner, opts ...Option) *Engine {
	e := &Engine{
		store:      l.Store(),
		ledger:     l,
		assigner:   assigner,
		autoAssign: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// requireOrgPermission allows operators, and requesters of orgID holding perm.
func requireOrgPermission(actor *auth.Actor, orgID uuid.UUID, perm auth.Permission) error {
	if actor.IsOperator() {
		return nil
	}
	if !actor.IsRequester() || !actor.BelongsTo(orgID) {
		return denied("actor has no access to organization %s", orgID)
	}
	if !actor.Can(perm) {
		return denied("company role %s lacks %s", actor.CompanyRole, perm)
	}
	return nil
}

// canSeeTicket allows operators, the assigned performer and requesters of
// the ticket's organization with view permission.
func canSeeTicket(actor *auth.Actor, t *models.Ticket) error {
	if actor.IsPerformer() {
		if isAssignee(actor, t) {
			return nil
		}
		return denied("ticket %s is not assigned to this performer", t.TicketID)
	}
	return requireOrgPermission(actor, t.OrgID, auth.PermTicketsView)
}

func isAssignee(actor *auth.Actor, t *models.Ticket) bool {
	return t.AssignedTo != nil && *t.AssignedTo == actor.UserID
}

func requireActor(actor *auth.Actor) error {
	if actor == nil {
		return denied("no actor")
	}
	if err := actor.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}
	return nil
}

// logFailure logs unexpected errors at error level. Business rule
// rejections are expected traffic and only logged at debug.
func logFailure(err error) *zerolog.Event {
	switch {
	case errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrIllegalTransition),
		errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, store.ErrNotFound):
		return log.Debug().Err(err)
	}
	return log.Error().Err(err)
}
