package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/tokenboard/internal/models"
	"github.com/wolfeidau/tokenboard/internal/store"
)

// Filter narrows a ledger listing. Zero values mean "any".
type Filter struct {
	Direction   models.Direction
	Reason      models.Reason
	TicketID    *uuid.UUID
	PerformerID *uuid.UUID
	Since       time.Time // inclusive
	Until       time.Time // exclusive

	Page     int // 1-based, defaults to 1
	PageSize int // defaults to DefaultPageSize, capped at MaxPageSize
}

// Page is one page of ledger entries, newest first.
type Page struct {
	Entries  []*models.LedgerEntry
	Page     int
	PageSize int
	HasMore  bool
}

// List returns a page of the organization's ledger. Every entry on it
// snapshots the organization balance, so the newest entry's BalanceAfter is
// the stored balance.
func (l *Ledger) List(ctx context.Context, orgID uuid.UUID, filter Filter) (*Page, error) {
	return l.list(filter, func(q store.LedgerQuery) ([]*models.LedgerEntry, error) {
		return l.store.ListLedgerEntries(ctx, orgID, q)
	})
}

// ListPerformer returns a page of a performer's earnings ledger: payouts
// from every organization plus withdrawals.
func (l *Ledger) ListPerformer(ctx context.Context, performerID uuid.UUID, filter Filter) (*Page, error) {
	return l.list(filter, func(q store.LedgerQuery) ([]*models.LedgerEntry, error) {
		return l.store.ListPerformerLedgerEntries(ctx, performerID, q)
	})
}

func (l *Ledger) list(filter Filter, fetch func(store.LedgerQuery) ([]*models.LedgerEntry, error)) (*Page, error) {
	page := max(filter.Page, 1)

	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pageSize = min(pageSize, MaxPageSize)

	// fetch one extra row to learn whether another page exists
	entries, err := fetch(store.LedgerQuery{
		Direction:   filter.Direction,
		Reason:      filter.Reason,
		TicketID:    filter.TicketID,
		PerformerID: filter.PerformerID,
		Since:       filter.Since,
		Until:       filter.Until,
		Limit:       pageSize + 1,
		Offset:      (page - 1) * pageSize,
	})
	if err != nil {
		return nil, err
	}

	hasMore := len(entries) > pageSize
	if hasMore {
		entries = entries[:pageSize]
	}

	return &Page{
		Entries:  entries,
		Page:     page,
		PageSize: pageSize,
		HasMore:  hasMore,
	}, nil
}
