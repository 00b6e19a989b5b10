package seed

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/tokenboard/internal/ledger"
	"github.com/wolfeidau/tokenboard/internal/models"
	"github.com/wolfeidau/tokenboard/internal/store"
	"github.com/wolfeidau/tokenboard/internal/store/memory"
)

const sample = `
job_types:
  - id: 0195a3c2-7d10-7000-8000-000000000001
    name: Logo
    unit_cost: 10
    unit_payout: 4
  - name: Banner
    unit_cost: 3
    unit_payout: 1
organizations:
  - id: 0195a3c2-7d10-7000-8000-0000000000a1
    name: Acme
    balance: 250
    max_in_progress: 2
  - name: Dormant
    active: false
    auto_assign: false
performers:
  - id: 0195a3c2-7d10-7000-8000-0000000000b1
    name: Ada
    skills: [Logo, Banner]
  - name: Grace
`

func TestLoad(t *testing.T) {
	file, err := Load(strings.NewReader(sample))
	require.NoError(t, err)

	require.Len(t, file.JobTypes, 2)
	require.Len(t, file.Organizations, 2)
	require.Len(t, file.Performers, 2)

	require.Equal(t, uuid.MustParse("0195a3c2-7d10-7000-8000-000000000001"), file.JobTypes[0].ID)
	require.NotEqual(t, uuid.Nil, file.JobTypes[1].ID)
	require.NotEqual(t, uuid.Nil, file.Performers[1].ID)
}

func TestLoad_invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		err  string
	}{
		{name: "unknown field", doc: "job_types:\n  - name: Logo\n    colour: red\n", err: "colour"},
		{name: "duplicate job type", doc: "job_types:\n  - name: Logo\n  - name: Logo\n", err: "duplicate job type"},
		{name: "negative balance", doc: "organizations:\n  - name: Acme\n    balance: -1\n", err: "balance must not be negative"},
		{name: "huge unit cost", doc: "job_types:\n  - name: Logo\n    unit_cost: 9223372036854775807\n", err: "must be at most"},
		{name: "unknown skill", doc: "performers:\n  - name: Ada\n    skills: [Logo]\n", err: "unknown skill"},
		{name: "missing name", doc: "performers:\n  - skills: []\n", err: "performer name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.err)
		})
	}
}

func TestLoad_empty(t *testing.T) {
	file, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, file.Organizations)
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	l := ledger.New(st)

	file, err := Load(strings.NewReader(sample))
	require.NoError(t, err)
	require.NoError(t, file.Apply(ctx, l))

	acmeID := uuid.MustParse("0195a3c2-7d10-7000-8000-0000000000a1")
	acme, err := st.GetOrganization(ctx, acmeID)
	require.NoError(t, err)
	require.Equal(t, int64(250), acme.TokenBalance)
	require.Equal(t, 2, acme.MaxInProgress)
	require.True(t, acme.AutoAssign)
	require.True(t, acme.Active)

	entries, err := st.ListLedgerEntries(ctx, acmeID, store.LedgerQuery{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, models.ReasonPurchase, entries[0].Reason)
	require.Equal(t, int64(0), entries[0].BalanceBefore)
	require.Equal(t, int64(250), entries[0].BalanceAfter)

	dormant, err := st.GetOrganization(ctx, file.Organizations[1].ID)
	require.NoError(t, err)
	require.False(t, dormant.Active)
	require.False(t, dormant.AutoAssign)
	require.Zero(t, dormant.TokenBalance)

	ada, err := st.GetPerformer(ctx, uuid.MustParse("0195a3c2-7d10-7000-8000-0000000000b1"))
	require.NoError(t, err)
	require.True(t, ada.Active)
	require.ElementsMatch(t, []uuid.UUID{file.JobTypes[0].ID, file.JobTypes[1].ID}, ada.Skills)

	// applying twice leaves balances alone
	require.NoError(t, file.Apply(ctx, l))
	acme, err = st.GetOrganization(ctx, acmeID)
	require.NoError(t, err)
	require.Equal(t, int64(250), acme.TokenBalance)
}
