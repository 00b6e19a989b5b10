package ledger

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/tokenboard/internal/models"
	"github.com/wolfeidau/tokenboard/internal/store"
	"github.com/wolfeidau/tokenboard/internal/store/memory"
	"github.com/wolfeidau/tokenboard/internal/util"
)

// conflictStore fails the first n transactions with store.ErrConflict.
type conflictStore struct {
	store.Store
	n     int
	calls int
}

func (s *conflictStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	s.calls++
	if s.calls <= s.n {
		return store.ErrConflict
	}
	return s.Store.RunInTx(ctx, fn)
}

func noDelay() backoff.BackOff {
	return &backoff.ZeroBackOff{}
}

func setup(t *testing.T, balance int64) (*memory.Store, *Ledger, *models.Organization) {
	t.Helper()

	st := memory.NewStore()
	org := &models.Organization{
		OrgID:        uuid.Must(uuid.NewV7()),
		Name:         "Acme",
		TokenBalance: balance,
		Active:       true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	require.NoError(t, st.CreateOrganization(context.Background(), org))

	return st, New(st, WithBackOff(noDelay)), org
}

func TestLedger_Append(t *testing.T) {
	tests := []struct {
		name      string
		direction models.Direction
		amount    int64
		want      int64
		wantErr   error
	}{
		{name: "debit", direction: models.DirectionDebit, amount: 30, want: 70},
		{name: "credit", direction: models.DirectionCredit, amount: 30, want: 130},
		{name: "debit below zero is mechanical", direction: models.DirectionDebit, amount: 150, want: -50},
		{name: "zero amount", direction: models.DirectionDebit, amount: 0, wantErr: ErrInvalidAmount},
		{name: "negative amount", direction: models.DirectionCredit, amount: -5, wantErr: ErrInvalidAmount},
		{name: "unknown direction", direction: "SIDEWAYS", amount: 5, wantErr: ErrInvalidEntry},
		{name: "credit overflows", direction: models.DirectionCredit, amount: math.MaxInt64, wantErr: util.ErrOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			st, l, org := setup(t, 100)

			var entry *models.LedgerEntry
			err := l.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
				var err error
				entry, err = l.Append(ctx, tx, EntrySpec{
					OrgID:     org.OrgID,
					Direction: tt.direction,
					Amount:    tt.amount,
					Reason:    models.ReasonAdminAdjustment,
				})
				return err
			})

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				balance, err := l.Balance(ctx, org.OrgID)
				require.NoError(t, err)
				require.Equal(t, int64(100), balance)

				entries, err := st.ListLedgerEntries(ctx, org.OrgID, store.LedgerQuery{})
				require.NoError(t, err)
				require.Empty(t, entries)
				return
			}

			require.NoError(t, err)
			require.Equal(t, int64(100), entry.BalanceBefore)
			require.Equal(t, tt.want, entry.BalanceAfter)
			require.Equal(t, org.OrgID, entry.OrgID)

			balance, err := l.Balance(ctx, org.OrgID)
			require.NoError(t, err)
			require.Equal(t, tt.want, balance)
		})
	}
}

func TestLedger_AppendPerformerAccount(t *testing.T) {
	ctx := context.Background()
	st, l, org := setup(t, 100)

	performer := &models.Performer{PerformerID: uuid.Must(uuid.NewV7()), Name: "Ana", Active: true, CreatedAt: time.Now()}
	require.NoError(t, st.CreatePerformer(ctx, performer))
	ticketID := uuid.Must(uuid.NewV7())

	err := l.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		_, err := l.Append(ctx, tx, EntrySpec{
			OrgID:       org.OrgID,
			TicketID:    &ticketID,
			PerformerID: &performer.PerformerID,
			Direction:   models.DirectionCredit,
			Amount:      6,
			Reason:      models.ReasonJobPayout,
		})
		return err
	})
	require.NoError(t, err)

	earned, err := l.PerformerBalance(ctx, performer.PerformerID)
	require.NoError(t, err)
	require.Equal(t, int64(6), earned)

	// the organization pays when the ticket is created, not when it is paid out
	balance, err := l.Balance(ctx, org.OrgID)
	require.NoError(t, err)
	require.Equal(t, int64(100), balance)

	orgPage, err := l.List(ctx, org.OrgID, Filter{})
	require.NoError(t, err)
	require.Empty(t, orgPage.Entries)

	earnings, err := l.ListPerformer(ctx, performer.PerformerID, Filter{})
	require.NoError(t, err)
	require.Len(t, earnings.Entries, 1)
	require.Equal(t, models.AccountPerformer, earnings.Entries[0].Account)
	require.Equal(t, org.OrgID, earnings.Entries[0].OrgID)
	require.Equal(t, earned, earnings.Entries[0].BalanceAfter)

	t.Run("payout without performer", func(t *testing.T) {
		err := l.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
			_, err := l.Append(ctx, tx, EntrySpec{
				OrgID:     org.OrgID,
				Direction: models.DirectionCredit,
				Amount:    1,
				Reason:    models.ReasonJobPayout,
			})
			return err
		})
		require.ErrorIs(t, err, ErrInvalidEntry)
	})
}

func TestLedger_AppendMissingOrganization(t *testing.T) {
	_, l, _ := setup(t, 0)

	err := l.Atomic(context.Background(), func(ctx context.Context, tx store.Tx) error {
		_, err := l.Append(ctx, tx, EntrySpec{
			OrgID:     uuid.New(),
			Direction: models.DirectionCredit,
			Amount:    1,
			Reason:    models.ReasonPurchase,
		})
		return err
	})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestLedger_BalanceMatchesEntries(t *testing.T) {
	ctx := context.Background()
	st, l, org := setup(t, 0)

	moves := []struct {
		direction models.Direction
		amount    int64
	}{
		{models.DirectionCredit, 500},
		{models.DirectionDebit, 15},
		{models.DirectionDebit, 40},
		{models.DirectionCredit, 7},
		{models.DirectionDebit, 200},
		{models.DirectionCredit, 1},
	}

	for _, m := range moves {
		err := l.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
			_, err := l.Append(ctx, tx, EntrySpec{
				OrgID:     org.OrgID,
				Direction: m.direction,
				Amount:    m.amount,
				Reason:    models.ReasonAdminAdjustment,
			})
			return err
		})
		require.NoError(t, err)
	}

	entries, err := st.ListLedgerEntries(ctx, org.OrgID, store.LedgerQuery{})
	require.NoError(t, err)
	require.Len(t, entries, len(moves))

	var sum int64
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		require.Equal(t, sum, e.BalanceBefore, "entries must chain")
		after, err := e.Direction.Apply(e.BalanceBefore, e.Amount)
		require.NoError(t, err)
		require.Equal(t, after, e.BalanceAfter)
		sum = e.BalanceAfter
	}

	balance, err := l.Balance(ctx, org.OrgID)
	require.NoError(t, err)
	require.Equal(t, int64(253), balance)
	require.Equal(t, sum, balance)
}

func TestLedger_Atomic(t *testing.T) {
	t.Run("retries conflicts", func(t *testing.T) {
		st := &conflictStore{Store: memory.NewStore(), n: 2}
		l := New(st, WithBackOff(noDelay))

		runs := 0
		err := l.Atomic(context.Background(), func(ctx context.Context, tx store.Tx) error {
			runs++
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, 3, st.calls)
		require.Equal(t, 1, runs)
	})

	t.Run("gives up after max tries", func(t *testing.T) {
		st := &conflictStore{Store: memory.NewStore(), n: 10}
		l := New(st, WithBackOff(noDelay))

		err := l.Atomic(context.Background(), func(ctx context.Context, tx store.Tx) error {
			return nil
		})
		require.ErrorIs(t, err, store.ErrConflict)
		require.Equal(t, DefaultMaxTries, st.calls)
	})

	t.Run("business errors are not retried", func(t *testing.T) {
		st := &conflictStore{Store: memory.NewStore()}
		l := New(st, WithBackOff(noDelay))
		boom := errors.New("boom")

		err := l.Atomic(context.Background(), func(ctx context.Context, tx store.Tx) error {
			return boom
		})
		require.Equal(t, boom, err)
		require.Equal(t, 1, st.calls)
	})
}

func TestLedger_List(t *testing.T) {
	ctx := context.Background()
	_, l, org := setup(t, 0)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	l.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for i := range 7 {
		reason := models.ReasonPurchase
		if i%2 == 1 {
			reason = models.ReasonAdminAdjustment
		}
		err := l.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
			_, err := l.Append(ctx, tx, EntrySpec{
				OrgID:     org.OrgID,
				Direction: models.DirectionCredit,
				Amount:    int64(i + 1),
				Reason:    reason,
			})
			return err
		})
		require.NoError(t, err)
	}

	t.Run("defaults", func(t *testing.T) {
		page, err := l.List(ctx, org.OrgID, Filter{})
		require.NoError(t, err)
		require.Len(t, page.Entries, 7)
		require.Equal(t, 1, page.Page)
		require.Equal(t, DefaultPageSize, page.PageSize)
		require.False(t, page.HasMore)
		require.Equal(t, int64(7), page.Entries[0].Amount)
	})

	t.Run("pages", func(t *testing.T) {
		first, err := l.List(ctx, org.OrgID, Filter{PageSize: 3})
		require.NoError(t, err)
		require.Len(t, first.Entries, 3)
		require.True(t, first.HasMore)

		last, err := l.List(ctx, org.OrgID, Filter{Page: 3, PageSize: 3})
		require.NoError(t, err)
		require.Len(t, last.Entries, 1)
		require.False(t, last.HasMore)
		require.Equal(t, int64(1), last.Entries[0].Amount)
	})

	t.Run("page size is capped", func(t *testing.T) {
		page, err := l.List(ctx, org.OrgID, Filter{PageSize: 1000})
		require.NoError(t, err)
		require.Equal(t, MaxPageSize, page.PageSize)
	})

	t.Run("filter by reason", func(t *testing.T) {
		page, err := l.List(ctx, org.OrgID, Filter{Reason: models.ReasonAdminAdjustment})
		require.NoError(t, err)
		require.Len(t, page.Entries, 3)
	})

	t.Run("filter by time range", func(t *testing.T) {
		page, err := l.List(ctx, org.OrgID, Filter{
			Since: base.Add(2 * time.Minute),
			Until: base.Add(4 * time.Minute),
		})
		require.NoError(t, err)
		require.Len(t, page.Entries, 2)
	})
}
