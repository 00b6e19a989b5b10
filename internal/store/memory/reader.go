package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/wolfeidau/tokenboard/internal/models"
	"github.com/wolfeidau/tokenboard/internal/store"
)

// reader serves reads against one state snapshot. Callers hold the lock.
// Every returned value is a copy, so callers can't modify stored rows.
type reader struct {
	st *state
}

func (r reader) GetOrganization(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	org, ok := r.st.organizations[orgID]
	if !ok {
		return nil, store.ErrOrganizationNotFound
	}
	return &org, nil
}

func (r reader) GetPerformer(ctx context.Context, performerID uuid.UUID) (*models.Performer, error) {
	p, ok := r.st.performers[performerID]
	if !ok {
		return nil, store.ErrPerformerNotFound
	}
	p.Skills = slices.Clone(p.Skills)
	return &p, nil
}

func (r reader) GetJobType(ctx context.Context, jobTypeID uuid.UUID) (*models.JobType, error) {
	jt, ok := r.st.jobTypes[jobTypeID]
	if !ok {
		return nil, store.ErrJobTypeNotFound
	}
	return &jt, nil
}

func (r reader) GetTicket(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error) {
	t, ok := r.st.tickets[ticketID]
	if !ok {
		return nil, store.ErrTicketNotFound
	}
	return t.Clone(), nil
}

func (r reader) ListTickets(ctx context.Context, orgID uuid.UUID, filter store.TicketFilter) ([]*models.Ticket, error) {
	var result []*models.Ticket
	for _, t := range r.st.tickets {
		if t.OrgID == orgID && filter.Matches(t) {
			result = append(result, t.Clone())
		}
	}

	slices.SortFunc(result, func(a, b *models.Ticket) int {
		return cmp.Compare(b.Number, a.Number)
	})

	return page(result, filter.Offset, filter.Limit), nil
}

func (r reader) ListRevisions(ctx context.Context, ticketID uuid.UUID) ([]*models.Revision, error) {
	revs := r.st.revisions[ticketID]
	result := make([]*models.Revision, 0, len(revs))
	for _, rev := range revs {
		result = append(result, &rev)
	}
	return result, nil
}

func (r reader) ListLedgerEntries(ctx context.Context, orgID uuid.UUID, query store.LedgerQuery) ([]*models.LedgerEntry, error) {
	return r.ledgerEntries(query, func(e *models.LedgerEntry) bool {
		return e.Account == models.AccountOrganization && e.OrgID == orgID
	}), nil
}

func (r reader) ListPerformerLedgerEntries(ctx context.Context, performerID uuid.UUID, query store.LedgerQuery) ([]*models.LedgerEntry, error) {
	return r.ledgerEntries(query, func(e *models.LedgerEntry) bool {
		return e.Account == models.AccountPerformer && e.PerformerID != nil && *e.PerformerID == performerID
	}), nil
}

func (r reader) ledgerEntries(query store.LedgerQuery, owned func(*models.LedgerEntry) bool) []*models.LedgerEntry {
	var result []*models.LedgerEntry

	// walk backwards: the ledger slice is in insertion order and we want newest first
	for i := len(r.st.ledger) - 1; i >= 0; i-- {
		entry := r.st.ledger[i]
		if !owned(entry) || !query.Matches(entry) {
			continue
		}
		clone := *entry
		result = append(result, &clone)
	}

	return page(result, query.Offset, query.Limit)
}

func (r reader) GetAssignmentLog(ctx context.Context, ticketID uuid.UUID) (*models.AssignmentLogEntry, error) {
	entry, ok := r.st.assignments[ticketID]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *entry
	return &clone, nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// comparePerformers orders performers by creation time, then id.
func comparePerformers(a, b *models.Performer) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.PerformerID.String(), b.PerformerID.String())
}
