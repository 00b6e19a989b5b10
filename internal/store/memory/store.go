package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"
	"github.com/wolfeidau/tokenboard/internal/models"
	"github.com/wolfeidau/tokenboard/internal/store"
)

var _ store.Store = (*Store)(nil)

// state is everything the store holds. Transactions work on a copy and the
// copy replaces the committed state on success.
//
// Rows are never mutated in place: writers always store a fresh value, so a
// shallow copy of the maps is enough to isolate a transaction.
type state struct {
	organizations map[uuid.UUID]models.Organization
	performers    map[uuid.UUID]models.Performer
	jobTypes      map[uuid.UUID]models.JobType
	tickets       map[uuid.UUID]*models.Ticket
	revisions     map[uuid.UUID][]models.Revision // ticket_id -> revisions in order
	ticketNumbers map[uuid.UUID]int64             // org_id -> last issued number
	ledger        []*models.LedgerEntry           // append-only, insertion order
	assignments   map[uuid.UUID]*models.AssignmentLogEntry
}

func newState() *state {
	return &state{
		organizations: make(map[uuid.UUID]models.Organization),
		performers:    make(map[uuid.UUID]models.Performer),
		jobTypes:      make(map[uuid.UUID]models.JobType),
		tickets:       make(map[uuid.UUID]*models.Ticket),
		revisions:     make(map[uuid.UUID][]models.Revision),
		ticketNumbers: make(map[uuid.UUID]int64),
		assignments:   make(map[uuid.UUID]*models.AssignmentLogEntry),
	}
}

func (st *state) clone() *state {
	revisions := make(map[uuid.UUID][]models.Revision, len(st.revisions))
	for k, v := range st.revisions {
		// full slice expression so appends in the tx never write into the committed array
		revisions[k] = v[:len(v):len(v)]
	}

	return &state{
		organizations: maps.Clone(st.organizations),
		performers:    maps.Clone(st.performers),
		jobTypes:      maps.Clone(st.jobTypes),
		tickets:       maps.Clone(st.tickets),
		revisions:     revisions,
		ticketNumbers: maps.Clone(st.ticketNumbers),
		ledger:        st.ledger[:len(st.ledger):len(st.ledger)],
		assignments:   maps.Clone(st.assignments),
	}
}

// Store implements store.Store using in-memory storage.
// This implementation is for testing and development only - data is lost on restart.
//
// A single mutex serializes all transactions, which trivially satisfies the
// per-organization write serialization the engine relies on.
type Store struct {
	mu sync.RWMutex

	committed *state
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		committed: newState(),
	}
}

// RunInTx runs fn against a private copy of the state and publishes the
// copy only when fn succeeds.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.committed.clone()
	if err := fn(ctx, &tx{reader: reader{st: working}}); err != nil {
		return err
	}

	s.committed = working
	return nil
}

func (s *Store) read() reader {
	return reader{st: s.committed}
}

// GetOrganization retrieves an organization by ID.
func (s *Store) GetOrganization(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().GetOrganization(ctx, orgID)
}

// GetPerformer retrieves a performer by ID.
func (s *Store) GetPerformer(ctx context.Context, performerID uuid.UUID) (*models.Performer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().GetPerformer(ctx, performerID)
}

// GetJobType retrieves a job type by ID.
func (s *Store) GetJobType(ctx context.Context, jobTypeID uuid.UUID) (*models.JobType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().GetJobType(ctx, jobTypeID)
}

// GetTicket retrieves a ticket by ID.
func (s *Store) GetTicket(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().GetTicket(ctx, ticketID)
}

// ListTickets returns an organization's tickets matching filter.
func (s *Store) ListTickets(ctx context.Context, orgID uuid.UUID, filter store.TicketFilter) ([]*models.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().ListTickets(ctx, orgID, filter)
}

// ListRevisions returns a ticket's revisions, oldest first.
func (s *Store) ListRevisions(ctx context.Context, ticketID uuid.UUID) ([]*models.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().ListRevisions(ctx, ticketID)
}

// ListLedgerEntries returns an organization's ledger entries, newest first.
func (s *Store) ListLedgerEntries(ctx context.Context, orgID uuid.UUID, query store.LedgerQuery) ([]*models.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().ListLedgerEntries(ctx, orgID, query)
}

// ListPerformerLedgerEntries returns a performer's earnings entries, newest first.
func (s *Store) ListPerformerLedgerEntries(ctx context.Context, performerID uuid.UUID, query store.LedgerQuery) ([]*models.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().ListPerformerLedgerEntries(ctx, performerID, query)
}

// GetAssignmentLog returns the assignment decision recorded for a ticket.
func (s *Store) GetAssignmentLog(ctx context.Context, ticketID uuid.UUID) (*models.AssignmentLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().GetAssignmentLog(ctx, ticketID)
}
