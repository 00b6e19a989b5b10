package memory

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/wolfeidau/tokenboard/internal/models"
	"github.com/wolfeidau/tokenboard/internal/store"
)

var _ store.Tx = (*tx)(nil)

// tx writes to a private state copy owned by Store.RunInTx.
// Locks are no-ops: the store mutex is held for the whole transaction.
type tx struct {
	reader
}

func (t *tx) LockOrganization(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	return t.GetOrganization(ctx, orgID)
}

func (t *tx) LockPerformer(ctx context.Context, performerID uuid.UUID) (*models.Performer, error) {
	return t.GetPerformer(ctx, performerID)
}

func (t *tx) LockTicket(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error) {
	return t.GetTicket(ctx, ticketID)
}

func (t *tx) SetOrganizationBalance(ctx context.Context, orgID uuid.UUID, balance int64) error {
	org, ok := t.st.organizations[orgID]
	if !ok {
		return store.ErrOrganizationNotFound
	}
	org.TokenBalance = balance
	t.st.organizations[orgID] = org
	return nil
}

func (t *tx) SetPerformerBalance(ctx context.Context, performerID uuid.UUID, balance int64) error {
	p, ok := t.st.performers[performerID]
	if !ok {
		return store.ErrPerformerNotFound
	}
	p.TokenBalance = balance
	t.st.performers[performerID] = p
	return nil
}

func (t *tx) InsertLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error {
	clone := *entry
	t.st.ledger = append(t.st.ledger, &clone)
	return nil
}

func (t *tx) HasLedgerEntry(ctx context.Context, key store.LedgerKey) (bool, error) {
	for _, e := range t.st.ledger {
		if e.OrgID == key.OrgID &&
			e.Reason == key.Reason &&
			e.TicketID != nil && *e.TicketID == key.TicketID &&
			e.PerformerID != nil && *e.PerformerID == key.PerformerID {
			return true, nil
		}
	}
	return false, nil
}

func (t *tx) NextTicketNumber(ctx context.Context, orgID uuid.UUID) (int64, error) {
	if _, ok := t.st.organizations[orgID]; !ok {
		return 0, store.ErrOrganizationNotFound
	}
	n := t.st.ticketNumbers[orgID] + 1
	t.st.ticketNumbers[orgID] = n
	return n, nil
}

func (t *tx) InsertTicket(ctx context.Context, ticket *models.Ticket) error {
	if _, ok := t.st.organizations[ticket.OrgID]; !ok {
		return store.ErrOrganizationNotFound
	}
	t.st.tickets[ticket.TicketID] = ticket.Clone()
	return nil
}

func (t *tx) UpdateTicket(ctx context.Context, ticket *models.Ticket) error {
	if _, ok := t.st.tickets[ticket.TicketID]; !ok {
		return store.ErrTicketNotFound
	}
	t.st.tickets[ticket.TicketID] = ticket.Clone()
	return nil
}

func (t *tx) CountTicketsByStatus(ctx context.Context, orgID uuid.UUID, status models.TicketStatus) (int, error) {
	count := 0
	for _, ticket := range t.st.tickets {
		if ticket.OrgID == orgID && ticket.Status == status {
			count++
		}
	}
	return count, nil
}

func (t *tx) InsertRevision(ctx context.Context, rev *models.Revision) error {
	if _, ok := t.st.tickets[rev.TicketID]; !ok {
		return store.ErrTicketNotFound
	}
	t.st.revisions[rev.TicketID] = append(t.st.revisions[rev.TicketID], *rev)
	return nil
}

func (t *tx) UpdateRevision(ctx context.Context, rev *models.Revision) error {
	revs := t.st.revisions[rev.TicketID]
	idx := slices.IndexFunc(revs, func(r models.Revision) bool { return r.RevisionID == rev.RevisionID })
	if idx < 0 {
		return store.ErrRevisionNotFound
	}

	// copy before writing, the backing array may be shared with committed state
	updated := slices.Clone(revs)
	updated[idx] = *rev
	t.st.revisions[rev.TicketID] = updated
	return nil
}

func (t *tx) LatestRevision(ctx context.Context, ticketID uuid.UUID) (*models.Revision, error) {
	revs := t.st.revisions[ticketID]
	if len(revs) == 0 {
		return nil, store.ErrRevisionNotFound
	}
	rev := revs[len(revs)-1]
	return &rev, nil
}

func (t *tx) ListActivePerformers(ctx context.Context, skill *uuid.UUID) ([]*models.Performer, error) {
	var result []*models.Performer
	for _, p := range t.st.performers {
		if !p.Active {
			continue
		}
		if skill != nil && !p.HasSkill(*skill) {
			continue
		}
		p.Skills = slices.Clone(p.Skills)
		result = append(result, &p)
	}

	slices.SortFunc(result, comparePerformers)
	return result, nil
}

func (t *tx) ListOpenTickets(ctx context.Context, performerID uuid.UUID) ([]*models.Ticket, error) {
	var result []*models.Ticket
	for _, ticket := range t.st.tickets {
		if ticket.AssignedTo != nil && *ticket.AssignedTo == performerID && ticket.Status.Open() {
			result = append(result, ticket.Clone())
		}
	}

	slices.SortFunc(result, func(a, b *models.Ticket) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return result, nil
}

func (t *tx) InsertAssignmentLog(ctx context.Context, entry *models.AssignmentLogEntry) error {
	clone := *entry
	t.st.assignments[entry.TicketID] = &clone
	return nil
}
