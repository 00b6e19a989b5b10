package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tokenboard/internal/models"
	"github.com/wolfeidau/tokenboard/internal/store"
	"github.com/wolfeidau/tokenboard/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// DefaultMaxTries bounds the attempts Atomic makes when transactions conflict.
	DefaultMaxTries = 3

	DefaultPageSize = 50
	MaxPageSize     = 100
)

var (
	ErrInvalidAmount = errors.New("ledger amount must be a positive integer")
	ErrInvalidEntry  = errors.New("invalid ledger entry")
)

// EntrySpec describes a token movement to append to the ledger.
type EntrySpec struct {
	OrgID       uuid.UUID
	TicketID    *uuid.UUID
	PerformerID *uuid.UUID
	Direction   models.Direction
	Amount      int64
	Reason      models.Reason
	Note        string
	Metadata    map[string]any
}

// Ledger is the only writer of token balances. Every balance change is
// paired with an immutable ledger entry in the same transaction.
type Ledger struct {
	store    store.Store
	now      func() time.Time
	maxTries uint
	backoff  func() backoff.BackOff
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the clock used to stamp entries.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// WithMaxTries overrides the number of attempts Atomic makes on conflict.
func WithMaxTries(n uint) Option {
	return func(l *Ledger) {
		l.maxTries = n
	}
}

// WithBackOff overrides the retry delay policy used by Atomic.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(l *Ledger) {
		l.backoff = fn
	}
}

// New creates a Ledger on top of st.
func New(st store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:    st,
		now:      time.Now,
		maxTries: DefaultMaxTries,
		backoff:  defaultBackOff,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond
	return b
}

// Store returns the underlying store.
func (l *Ledger) Store() store.Store {
	return l.store
}

// Now returns the ledger clock's current time.
func (l *Ledger) Now() time.Time {
	return l.now()
}

// Atomic runs fn in a single store transaction. Write conflicts are retried
// with exponential backoff; any other error is returned as is.
func (l *Ledger) Atomic(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	metrics := telemetry.GetMetrics()
	start := time.Now()
	defer func() {
		metrics.TxDuration.Record(ctx, float64(time.Since(start).Milliseconds()))
	}()

	operation := func() (struct{}, error) {
		err := l.store.RunInTx(ctx, fn)
		if err == nil {
			return struct{}{}, nil
		}
		if errors.Is(err, store.ErrConflict) {
			metrics.TxConflictsTotal.Add(ctx, 1)
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(l.backoff()),
		backoff.WithMaxTries(l.maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn().Err(err).Dur("retry_in", next).Msg("Ledger transaction conflict, retrying")
		}),
	)
	if err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return permanent.Err
		}
		return err
	}

	return nil
}

// Append applies spec to its account balance and records the entry.
// JOB_PAYOUT and WITHDRAWAL move the performer's earnings; every other
// reason moves the organization balance. It must run inside the caller's
// transaction. Append enforces no sufficiency policy: a DEBIT may drive a
// balance negative, but a movement that would overflow is rejected.
func (l *Ledger) Append(ctx context.Context, tx store.Tx, spec EntrySpec) (*models.LedgerEntry, error) {
	if spec.Amount <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidAmount, spec.Amount)
	}
	if !spec.Direction.Valid() {
		return nil, fmt.Errorf("%w: unknown direction %q", ErrInvalidEntry, spec.Direction)
	}
	if !spec.Reason.Valid() {
		return nil, fmt.Errorf("%w: unknown reason %q", ErrInvalidEntry, spec.Reason)
	}

	account := spec.Reason.Account()

	var before int64
	switch account {
	case models.AccountPerformer:
		if spec.PerformerID == nil {
			return nil, fmt.Errorf("%w: %s requires a performer", ErrInvalidEntry, spec.Reason)
		}
		p, err := tx.LockPerformer(ctx, *spec.PerformerID)
		if err != nil {
			return nil, err
		}
		before = p.TokenBalance
	default:
		org, err := tx.LockOrganization(ctx, spec.OrgID)
		if err != nil {
			return nil, err
		}
		before = org.TokenBalance
	}

	after, err := spec.Direction.Apply(before, spec.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %s of %d on balance %d: %w", ErrInvalidAmount, spec.Direction, spec.Amount, before, err)
	}

	if account == models.AccountPerformer {
		err = tx.SetPerformerBalance(ctx, *spec.PerformerID, after)
	} else {
		err = tx.SetOrganizationBalance(ctx, spec.OrgID, after)
	}
	if err != nil {
		return nil, err
	}

	entry := &models.LedgerEntry{
		EntryID:       uuid.Must(uuid.NewV7()),
		Account:       account,
		OrgID:         spec.OrgID,
		TicketID:      spec.TicketID,
		PerformerID:   spec.PerformerID,
		Direction:     spec.Direction,
		Amount:        spec.Amount,
		Reason:        spec.Reason,
		Note:          spec.Note,
		Metadata:      spec.Metadata,
		BalanceBefore: before,
		BalanceAfter:  after,
		CreatedAt:     l.now(),
	}

	if err := tx.InsertLedgerEntry(ctx, entry); err != nil {
		return nil, err
	}

	attrs := metric.WithAttributes(
		attribute.String("reason", string(entry.Reason)),
		attribute.String("direction", string(entry.Direction)),
	)
	metrics := telemetry.GetMetrics()
	metrics.LedgerEntriesTotal.Add(ctx, 1, attrs)
	metrics.LedgerTokensTotal.Add(ctx, entry.Amount, attrs)

	log.Debug().
		Str("entry_id", entry.EntryID.String()).
		Str("account", string(entry.Account)).
		Str("org_id", entry.OrgID.String()).
		Str("reason", string(entry.Reason)).
		Str("direction", string(entry.Direction)).
		Int64("amount", entry.Amount).
		Int64("balance_before", entry.BalanceBefore).
		Int64("balance_after", entry.BalanceAfter).
		Msg("Appended ledger entry")

	return entry, nil
}

// Balance returns the organization's persisted token balance.
func (l *Ledger) Balance(ctx context.Context, orgID uuid.UUID) (int64, error) {
	org, err := l.store.GetOrganization(ctx, orgID)
	if err != nil {
		return 0, err
	}
	return org.TokenBalance, nil
}

// PerformerBalance returns the performer's earned token balance.
func (l *Ledger) PerformerBalance(ctx context.Context, performerID uuid.UUID) (int64, error) {
	p, err := l.store.GetPerformer(ctx, performerID)
	if err != nil {
		return 0, err
	}
	return p.TokenBalance, nil
}
