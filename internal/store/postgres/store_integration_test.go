//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/wolfeidau/tokenboard/internal/models"
	"github.com/wolfeidau/tokenboard/internal/store"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) (*Store, func()) {
	// Start postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connString := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	pool, err := NewPool(ctx, &PoolConfig{ConnString: connString})
	require.NoError(t, err)

	// Create store with auto-migrate enabled
	st, err := NewStore(ctx, pool, &StoreConfig{AutoMigrate: true})
	require.NoError(t, err)

	cleanup := func() {
		st.Close()
		_ = container.Terminate(ctx)
	}

	return st, cleanup
}

func createOrg(t *testing.T, ctx context.Context, st *Store, balance int64) *models.Organization {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	org := &models.Organization{
		OrgID:        uuid.Must(uuid.NewV7()),
		Name:         "Acme",
		TokenBalance: balance,
		AutoAssign:   true,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.CreateOrganization(ctx, org))
	return org
}

func TestIntegration_Store(t *testing.T) {
	ctx := context.Background()
	st, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	t.Run("migrations are idempotent", func(t *testing.T) {
		require.NoError(t, runMigrations(ctx, st.pool))
	})

	t.Run("organization lifecycle", func(t *testing.T) {
		org := createOrg(t, ctx, st, 100)
		require.Equal(t, store.ErrOrganizationAlreadyExists, st.CreateOrganization(ctx, org))

		org.TokenBalance = 5
		org.MaxInProgress = 2
		require.NoError(t, st.UpdateOrganization(ctx, org))

		got, err := st.GetOrganization(ctx, org.OrgID)
		require.NoError(t, err)
		require.Equal(t, int64(100), got.TokenBalance)
		require.Equal(t, 2, got.MaxInProgress)

		_, err = st.GetOrganization(ctx, uuid.New())
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("ticket, ledger and assignment round trip", func(t *testing.T) {
		org := createOrg(t, ctx, st, 50)
		jt := &models.JobType{JobTypeID: uuid.Must(uuid.NewV7()), Name: "Logo", UnitCost: 5, UnitPayout: 2}
		require.NoError(t, st.PutJobType(ctx, jt))

		perf := &models.Performer{
			PerformerID: uuid.Must(uuid.NewV7()),
			Name:        "Ana",
			Active:      true,
			Skills:      []uuid.UUID{jt.JobTypeID},
			CreatedAt:   time.Now(),
		}
		require.NoError(t, st.CreatePerformer(ctx, perf))
		require.Equal(t, store.ErrPerformerAlreadyExists, st.CreatePerformer(ctx, perf))

		ticketID := uuid.Must(uuid.NewV7())
		err := st.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
			locked, err := tx.LockOrganization(ctx, org.OrgID)
			require.NoError(t, err)

			n, err := tx.NextTicketNumber(ctx, org.OrgID)
			require.NoError(t, err)
			require.Equal(t, int64(1), n)

			now := time.Now()
			require.NoError(t, tx.InsertTicket(ctx, &models.Ticket{
				TicketID:    ticketID,
				OrgID:       org.OrgID,
				Number:      n,
				Title:       "New logo",
				Status:      models.StatusTodo,
				Priority:    models.PriorityHigh,
				Quantity:    3,
				JobTypeID:   &jt.JobTypeID,
				AssignedTo:  &perf.PerformerID,
				RequesterID: uuid.New(),
				CreatedAt:   now,
				UpdatedAt:   now,
			}))

			require.NoError(t, tx.SetOrganizationBalance(ctx, org.OrgID, locked.TokenBalance-15))
			require.NoError(t, tx.InsertLedgerEntry(ctx, &models.LedgerEntry{
				EntryID:       uuid.Must(uuid.NewV7()),
				Account:       models.AccountOrganization,
				OrgID:         org.OrgID,
				TicketID:      &ticketID,
				Direction:     models.DirectionDebit,
				Amount:        15,
				Reason:        models.ReasonJobCreated,
				Metadata:      map[string]any{"quantity": 3},
				BalanceBefore: locked.TokenBalance,
				BalanceAfter:  locked.TokenBalance - 15,
				CreatedAt:     now,
			}))

			return tx.InsertAssignmentLog(ctx, &models.AssignmentLogEntry{
				LogID:       uuid.Must(uuid.NewV7()),
				TicketID:    ticketID,
				PerformerID: &perf.PerformerID,
				Reason:      models.AssignmentAuto,
				Metadata:    map[string]any{"algorithm_version": "least-loaded/v1"},
				CreatedAt:   now,
			})
		})
		require.NoError(t, err)

		got, err := st.GetOrganization(ctx, org.OrgID)
		require.NoError(t, err)
		require.Equal(t, int64(35), got.TokenBalance)

		entries, err := st.ListLedgerEntries(ctx, org.OrgID, store.LedgerQuery{TicketID: &ticketID})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, int64(50), entries[0].BalanceBefore)
		require.Equal(t, int64(35), entries[0].BalanceAfter)
		require.EqualValues(t, 3, entries[0].Metadata["quantity"])

		tickets, err := st.ListTickets(ctx, org.OrgID, store.TicketFilter{Status: models.StatusTodo})
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		require.Equal(t, jt.JobTypeID, *tickets[0].JobTypeID)

		logEntry, err := st.GetAssignmentLog(ctx, ticketID)
		require.NoError(t, err)
		require.Equal(t, models.AssignmentAuto, logEntry.Reason)

		err = st.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
			performers, err := tx.ListActivePerformers(ctx, &jt.JobTypeID)
			require.NoError(t, err)
			require.Len(t, performers, 1)
			require.Equal(t, []uuid.UUID{jt.JobTypeID}, performers[0].Skills)

			open, err := tx.ListOpenTickets(ctx, perf.PerformerID)
			require.NoError(t, err)
			require.Len(t, open, 1)
			return nil
		})
		require.NoError(t, err)

		payout := func() *models.LedgerEntry {
			return &models.LedgerEntry{
				EntryID:      uuid.Must(uuid.NewV7()),
				Account:      models.AccountPerformer,
				OrgID:        org.OrgID,
				TicketID:     &ticketID,
				PerformerID:  &perf.PerformerID,
				Direction:    models.DirectionCredit,
				Amount:       6,
				Reason:       models.ReasonJobPayout,
				BalanceAfter: 6,
				CreatedAt:    time.Now(),
			}
		}
		err = st.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
			return tx.InsertLedgerEntry(ctx, payout())
		})
		require.NoError(t, err)

		err = st.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
			return tx.InsertLedgerEntry(ctx, payout())
		})
		require.ErrorIs(t, err, store.ErrConflict)

		entries, err = st.ListLedgerEntries(ctx, org.OrgID, store.LedgerQuery{})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, models.AccountOrganization, entries[0].Account)

		entries, err = st.ListPerformerLedgerEntries(ctx, perf.PerformerID, store.LedgerQuery{})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, models.AccountPerformer, entries[0].Account)
		require.Equal(t, org.OrgID, entries[0].OrgID)
	})

	t.Run("failed transaction rolls back", func(t *testing.T) {
		org := createOrg(t, ctx, st, 10)
		boom := errors.New("boom")

		err := st.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
			require.NoError(t, tx.SetOrganizationBalance(ctx, org.OrgID, 0))
			return boom
		})
		require.ErrorIs(t, err, boom)

		got, err := st.GetOrganization(ctx, org.OrgID)
		require.NoError(t, err)
		require.Equal(t, int64(10), got.TokenBalance)
	})

	t.Run("row locks serialize balance updates", func(t *testing.T) {
		org := createOrg(t, ctx, st, 0)

		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := st.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
					locked, err := tx.LockOrganization(ctx, org.OrgID)
					if err != nil {
						return err
					}
					return tx.SetOrganizationBalance(ctx, org.OrgID, locked.TokenBalance+1)
				})
				require.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := st.GetOrganization(ctx, org.OrgID)
		require.NoError(t, err)
		require.Equal(t, int64(10), got.TokenBalance)
	})
}
