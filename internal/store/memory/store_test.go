package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/tokenboard/internal/models"
	"github.com/wolfeidau/tokenboard/internal/store"
)

func newOrg(t *testing.T, st *Store, balance int64) *models.Organization {
	t.Helper()

	org := &models.Organization{
		OrgID:        uuid.Must(uuid.NewV7()),
		Name:         "Acme",
		TokenBalance: balance,
		Active:       true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	require.NoError(t, st.CreateOrganization(context.Background(), org))
	return org
}

func TestNewStore(t *testing.T) {
	st := NewStore()
	require.NotNil(t, st)
}

func TestStore_CreateOrganization(t *testing.T) {
	t.Run("create new organization", func(t *testing.T) {
		st := NewStore()
		org := newOrg(t, st, 100)

		got, err := st.GetOrganization(context.Background(), org.OrgID)
		require.NoError(t, err)
		require.Equal(t, int64(100), got.TokenBalance)
	})

	t.Run("create duplicate organization returns error", func(t *testing.T) {
		st := NewStore()
		org := newOrg(t, st, 0)

		err := st.CreateOrganization(context.Background(), org)
		require.Equal(t, store.ErrOrganizationAlreadyExists, err)
	})

	t.Run("get missing organization", func(t *testing.T) {
		st := NewStore()

		_, err := st.GetOrganization(context.Background(), uuid.New())
		require.ErrorIs(t, err, store.ErrOrganizationNotFound)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestStore_UpdateOrganizationKeepsBalance(t *testing.T) {
	st := NewStore()
	ctx := context.Background()
	org := newOrg(t, st, 50)

	org.TokenBalance = 1_000_000
	org.MaxInProgress = 3
	require.NoError(t, st.UpdateOrganization(ctx, org))

	got, err := st.GetOrganization(ctx, org.OrgID)
	require.NoError(t, err)
	require.Equal(t, int64(50), got.TokenBalance)
	require.Equal(t, 3, got.MaxInProgress)
}

func TestStore_RunInTx(t *testing.T) {
	t.Run("commit publishes writes", func(t *testing.T) {
		st := NewStore()
		ctx := context.Background()
		org := newOrg(t, st, 10)

		err := st.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
			return tx.SetOrganizationBalance(ctx, org.OrgID, 42)
		})
		require.NoError(t, err)

		got, err := st.GetOrganization(ctx, org.OrgID)
		require.NoError(t, err)
		require.Equal(t, int64(42), got.TokenBalance)
	})

	t.Run("error discards every write", func(t *testing.T) {
		st := NewStore()
		ctx := context.Background()
		org := newOrg(t, st, 10)
		boom := errors.New("boom")

		err := st.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
			require.NoError(t, tx.SetOrganizationBalance(ctx, org.OrgID, 0))
			require.NoError(t, tx.InsertLedgerEntry(ctx, &models.LedgerEntry{
				EntryID:   uuid.Must(uuid.NewV7()),
				Account:   models.AccountOrganization,
				OrgID:     org.OrgID,
				Direction: models.DirectionDebit,
				Amount:    10,
				Reason:    models.ReasonJobCreated,
				CreatedAt: time.Now(),
			}))
			return boom
		})
		require.ErrorIs(t, err, boom)

		got, err := st.GetOrganization(ctx, org.OrgID)
		require.NoError(t, err)
		require.Equal(t, int64(10), got.TokenBalance)

		entries, err := st.ListLedgerEntries(ctx, org.OrgID, store.LedgerQuery{})
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("canceled context never runs", func(t *testing.T) {
		st := NewStore()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		called := false
		err := st.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
			called = true
			return nil
		})
		require.ErrorIs(t, err, context.Canceled)
		require.False(t, called)
	})
}

func TestStore_NextTicketNumber(t *testing.T) {
	st := NewStore()
	ctx := context.Background()
	orgA := newOrg(t, st, 0)
	orgB := newOrg(t, st, 0)

	var got []int64
	err := st.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		for _, orgID := range []uuid.UUID{orgA.OrgID, orgA.OrgID, orgB.OrgID, orgA.OrgID} {
			n, err := tx.NextTicketNumber(ctx, orgID)
			if err != nil {
				return err
			}
			got = append(got, n)
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 1, 3}, got)
}

func TestStore_ListLedgerEntries(t *testing.T) {
	st := NewStore()
	ctx := context.Background()
	org := newOrg(t, st, 0)
	ticketID := uuid.Must(uuid.NewV7())
	performerID := uuid.Must(uuid.NewV7())
	base := time.Now()

	err := st.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		for i, reason := range []models.Reason{models.ReasonPurchase, models.ReasonJobCreated, models.ReasonAdminAdjustment} {
			entry := &models.LedgerEntry{
				EntryID:   uuid.Must(uuid.NewV7()),
				Account:   models.AccountOrganization,
				OrgID:     org.OrgID,
				Direction: models.DirectionCredit,
				Amount:    int64(i + 1),
				Reason:    reason,
				CreatedAt: base.Add(time.Duration(i) * time.Second),
			}
			if reason == models.ReasonJobCreated {
				entry.Direction = models.DirectionDebit
				entry.TicketID = &ticketID
			}
			if err := tx.InsertLedgerEntry(ctx, entry); err != nil {
				return err
			}
		}
		return tx.InsertLedgerEntry(ctx, &models.LedgerEntry{
			EntryID:      uuid.Must(uuid.NewV7()),
			Account:      models.AccountPerformer,
			OrgID:        org.OrgID,
			TicketID:     &ticketID,
			PerformerID:  &performerID,
			Direction:    models.DirectionCredit,
			Amount:       4,
			Reason:       models.ReasonJobPayout,
			BalanceAfter: 4,
			CreatedAt:    base.Add(3 * time.Second),
		})
	})
	require.NoError(t, err)

	t.Run("newest first", func(t *testing.T) {
		entries, err := st.ListLedgerEntries(ctx, org.OrgID, store.LedgerQuery{})
		require.NoError(t, err)
		require.Len(t, entries, 3)
		require.Equal(t, models.ReasonAdminAdjustment, entries[0].Reason)
		require.Equal(t, models.ReasonPurchase, entries[2].Reason)
	})

	t.Run("filter by direction", func(t *testing.T) {
		entries, err := st.ListLedgerEntries(ctx, org.OrgID, store.LedgerQuery{Direction: models.DirectionDebit})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, models.ReasonJobCreated, entries[0].Reason)
	})

	t.Run("filter by ticket", func(t *testing.T) {
		entries, err := st.ListLedgerEntries(ctx, org.OrgID, store.LedgerQuery{TicketID: &ticketID})
		require.NoError(t, err)
		require.Len(t, entries, 1)
	})

	t.Run("filter by time range", func(t *testing.T) {
		entries, err := st.ListLedgerEntries(ctx, org.OrgID, store.LedgerQuery{
			Since: base.Add(time.Second),
			Until: base.Add(2 * time.Second),
		})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, models.ReasonJobCreated, entries[0].Reason)
	})

	t.Run("paging", func(t *testing.T) {
		entries, err := st.ListLedgerEntries(ctx, org.OrgID, store.LedgerQuery{Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		require.Equal(t, models.ReasonJobCreated, entries[0].Reason)

		entries, err = st.ListLedgerEntries(ctx, org.OrgID, store.LedgerQuery{Offset: 5})
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("other organizations see nothing", func(t *testing.T) {
		entries, err := st.ListLedgerEntries(ctx, uuid.New(), store.LedgerQuery{})
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("payouts belong to the performer", func(t *testing.T) {
		entries, err := st.ListLedgerEntries(ctx, org.OrgID, store.LedgerQuery{Reason: models.ReasonJobPayout})
		require.NoError(t, err)
		require.Empty(t, entries)

		entries, err = st.ListPerformerLedgerEntries(ctx, performerID, store.LedgerQuery{})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, models.ReasonJobPayout, entries[0].Reason)
		require.Equal(t, org.OrgID, entries[0].OrgID)

		entries, err = st.ListPerformerLedgerEntries(ctx, uuid.New(), store.LedgerQuery{})
		require.NoError(t, err)
		require.Empty(t, entries)
	})
}

func TestStore_ListActivePerformers(t *testing.T) {
	st := NewStore()
	ctx := context.Background()
	skill := uuid.Must(uuid.NewV7())
	base := time.Now()

	performers := []*models.Performer{
		{PerformerID: uuid.Must(uuid.NewV7()), Name: "late", Active: true, Skills: []uuid.UUID{skill}, CreatedAt: base.Add(2 * time.Minute)},
		{PerformerID: uuid.Must(uuid.NewV7()), Name: "early", Active: true, CreatedAt: base},
		{PerformerID: uuid.Must(uuid.NewV7()), Name: "inactive", Active: false, Skills: []uuid.UUID{skill}, CreatedAt: base},
		{PerformerID: uuid.Must(uuid.NewV7()), Name: "middle", Active: true, Skills: []uuid.UUID{skill}, CreatedAt: base.Add(time.Minute)},
	}
	for _, p := range performers {
		require.NoError(t, st.CreatePerformer(ctx, p))
	}
	require.Equal(t, store.ErrPerformerAlreadyExists, st.CreatePerformer(ctx, performers[0]))

	err := st.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		all, err := tx.ListActivePerformers(ctx, nil)
		require.NoError(t, err)
		require.Equal(t, []string{"early", "middle", "late"}, names(all))

		skilled, err := tx.ListActivePerformers(ctx, &skill)
		require.NoError(t, err)
		require.Equal(t, []string{"middle", "late"}, names(skilled))
		return nil
	})
	require.NoError(t, err)
}

func TestStore_Revisions(t *testing.T) {
	st := NewStore()
	ctx := context.Background()
	org := newOrg(t, st, 0)
	ticket := &models.Ticket{
		TicketID:  uuid.Must(uuid.NewV7()),
		OrgID:     org.OrgID,
		Number:    1,
		Status:    models.StatusInReview,
		Priority:  models.PriorityMedium,
		Quantity:  1,
		CreatedAt: time.Now(),
	}

	err := st.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		require.NoError(t, tx.InsertTicket(ctx, ticket))

		_, err := tx.LatestRevision(ctx, ticket.TicketID)
		require.ErrorIs(t, err, store.ErrRevisionNotFound)

		for i := 1; i <= 2; i++ {
			require.NoError(t, tx.InsertRevision(ctx, &models.Revision{
				RevisionID: uuid.Must(uuid.NewV7()),
				TicketID:   ticket.TicketID,
				Number:     i,
			}))
		}

		latest, err := tx.LatestRevision(ctx, ticket.TicketID)
		require.NoError(t, err)
		require.Equal(t, 2, latest.Number)

		latest.Feedback = "make the logo bigger"
		return tx.UpdateRevision(ctx, latest)
	})
	require.NoError(t, err)

	revs, err := st.ListRevisions(ctx, ticket.TicketID)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	require.Empty(t, revs[0].Feedback)
	require.Equal(t, "make the logo bigger", revs[1].Feedback)
}

func names(performers []*models.Performer) []string {
	var out []string
	for _, p := range performers {
		out = append(out, p.Name)
	}
	return out
}
