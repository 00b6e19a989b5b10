package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/tokenboard/internal/models"
)

// Sentinel errors for common error conditions
var (
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a transaction lost a race with a concurrent
	// writer (serialization failure, deadlock, lock timeout). It is retryable.
	ErrConflict = errors.New("write conflict")

	ErrTicketNotFound    = fmt.Errorf("ticket %w", ErrNotFound)
	ErrJobTypeNotFound   = fmt.Errorf("job type %w", ErrNotFound)
	ErrPerformerNotFound = fmt.Errorf("performer %w", ErrNotFound)
	ErrRevisionNotFound  = fmt.Errorf("revision %w", ErrNotFound)
)

// Store is the persistence boundary of the engine.
// Reads outside a transaction see only committed state.
type Store interface {
	Reader
	OrganizationStore
	CatalogStore

	// RunInTx executes fn inside a single atomic transaction. If fn returns an
	// error nothing it wrote is visible. Concurrent writers to the same
	// organization, performer or ticket row are serialized; a lost race is
	// reported as ErrConflict.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Reader holds the read paths shared by Store and Tx.
type Reader interface {
	GetOrganization(ctx context.Context, orgID uuid.UUID) (*models.Organization, error)
	GetPerformer(ctx context.Context, performerID uuid.UUID) (*models.Performer, error)
	GetJobType(ctx context.Context, jobTypeID uuid.UUID) (*models.JobType, error)
	GetTicket(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error)
	ListTickets(ctx context.Context, orgID uuid.UUID, filter TicketFilter) ([]*models.Ticket, error)
	ListRevisions(ctx context.Context, ticketID uuid.UUID) ([]*models.Revision, error)
	// ListLedgerEntries returns the entries that chain the organization's
	// balance. Payouts sourced from the organization are performer entries
	// and are not included.
	ListLedgerEntries(ctx context.Context, orgID uuid.UUID, query LedgerQuery) ([]*models.LedgerEntry, error)
	// ListPerformerLedgerEntries returns the entries that chain the
	// performer's earnings across all organizations.
	ListPerformerLedgerEntries(ctx context.Context, performerID uuid.UUID, query LedgerQuery) ([]*models.LedgerEntry, error)
	GetAssignmentLog(ctx context.Context, ticketID uuid.UUID) (*models.AssignmentLogEntry, error)
}

// Tx is a unit of work. All mutating engine operations go through a Tx.
type Tx interface {
	Reader

	// Lock* read a row and hold a write lock on it until the transaction ends.
	LockOrganization(ctx context.Context, orgID uuid.UUID) (*models.Organization, error)
	LockPerformer(ctx context.Context, performerID uuid.UUID) (*models.Performer, error)
	LockTicket(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error)

	SetOrganizationBalance(ctx context.Context, orgID uuid.UUID, balance int64) error
	SetPerformerBalance(ctx context.Context, performerID uuid.UUID, balance int64) error

	InsertLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error
	HasLedgerEntry(ctx context.Context, key LedgerKey) (bool, error)

	NextTicketNumber(ctx context.Context, orgID uuid.UUID) (int64, error)
	InsertTicket(ctx context.Context, ticket *models.Ticket) error
	UpdateTicket(ctx context.Context, ticket *models.Ticket) error
	CountTicketsByStatus(ctx context.Context, orgID uuid.UUID, status models.TicketStatus) (int, error)

	InsertRevision(ctx context.Context, rev *models.Revision) error
	UpdateRevision(ctx context.Context, rev *models.Revision) error
	LatestRevision(ctx context.Context, ticketID uuid.UUID) (*models.Revision, error)

	// ListActivePerformers returns active performers ordered by creation time
	// then id. When skill is set only performers skilled in it are returned.
	ListActivePerformers(ctx context.Context, skill *uuid.UUID) ([]*models.Performer, error)

	// ListOpenTickets returns the performer's tickets in TODO, IN_PROGRESS or IN_REVIEW.
	ListOpenTickets(ctx context.Context, performerID uuid.UUID) ([]*models.Ticket, error)

	InsertAssignmentLog(ctx context.Context, entry *models.AssignmentLogEntry) error
}

// LedgerKey identifies ledger entries for idempotency checks.
type LedgerKey struct {
	OrgID       uuid.UUID
	TicketID    uuid.UUID
	PerformerID uuid.UUID
	Reason      models.Reason
}

// LedgerQuery filters and pages ledger entries. Zero values mean "any".
// Entries are returned newest first.
type LedgerQuery struct {
	Direction   models.Direction
	Reason      models.Reason
	TicketID    *uuid.UUID
	PerformerID *uuid.UUID
	Since       time.Time
	Until       time.Time
	Limit       int
	Offset      int
}

// Matches reports whether entry satisfies the query filters (paging aside).
func (q LedgerQuery) Matches(entry *models.LedgerEntry) bool {
	if q.Direction != "" && entry.Direction != q.Direction {
		return false
	}
	if q.Reason != "" && entry.Reason != q.Reason {
		return false
	}
	if q.TicketID != nil && (entry.TicketID == nil || *entry.TicketID != *q.TicketID) {
		return false
	}
	if q.PerformerID != nil && (entry.PerformerID == nil || *entry.PerformerID != *q.PerformerID) {
		return false
	}
	if !q.Since.IsZero() && entry.CreatedAt.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && !entry.CreatedAt.Before(q.Until) {
		return false
	}
	return true
}

// TicketFilter filters and pages tickets. Tickets are returned by number, newest first.
type TicketFilter struct {
	Status     models.TicketStatus
	AssignedTo *uuid.UUID
	Limit      int
	Offset     int
}

// Matches reports whether ticket satisfies the filter (paging aside).
func (f TicketFilter) Matches(t *models.Ticket) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.AssignedTo != nil && (t.AssignedTo == nil || *t.AssignedTo != *f.AssignedTo) {
		return false
	}
	return true
}
