package auth

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name           string
		role           CompanyRole
		permission     Permission
		expectedResult bool
	}{
		{
			name:           "owner can complete tickets",
			role:           CompanyRoleOwner,
			permission:     PermTicketsComplete,
			expectedResult: true,
		},
		{
			name:           "manager can view ledger",
			role:           CompanyRoleManager,
			permission:     PermLedgerView,
			expectedResult: true,
		},
		{
			name:           "member can move the board",
			role:           CompanyRoleMember,
			permission:     PermBoardMove,
			expectedResult: true,
		},
		{
			name:           "member cannot complete tickets",
			role:           CompanyRoleMember,
			permission:     PermTicketsComplete,
			expectedResult: false,
		},
		{
			name:           "member cannot view ledger",
			role:           CompanyRoleMember,
			permission:     PermLedgerView,
			expectedResult: false,
		},
		{
			name:           "viewer can view tickets",
			role:           CompanyRoleViewer,
			permission:     PermTicketsView,
			expectedResult: true,
		},
		{
			name:           "viewer cannot create tickets",
			role:           CompanyRoleViewer,
			permission:     PermTicketsCreate,
			expectedResult: false,
		},
		{
			name:           "unknown role has no permissions",
			role:           "INTERN",
			permission:     PermTicketsView,
			expectedResult: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := HasPermission(tt.role, tt.permission)
			require.Equal(t, tt.expectedResult, result)
		})
	}
}

func TestActor_Can(t *testing.T) {
	orgID := uuid.New()

	operator := &Actor{UserID: uuid.New(), Role: RoleAdmin}
	creative := &Actor{UserID: uuid.New(), Role: RoleCreative}
	member := &Actor{UserID: uuid.New(), Role: RoleClient, CompanyRole: CompanyRoleMember, OrgID: orgID}

	require.True(t, operator.Can(PermTicketsComplete))
	require.True(t, operator.Can(PermLedgerView))
	require.False(t, creative.Can(PermBoardMove))
	require.True(t, member.Can(PermBoardMove))
	require.False(t, member.Can(PermTicketsComplete))

	require.True(t, member.BelongsTo(orgID))
	require.False(t, member.BelongsTo(uuid.New()))
	require.False(t, operator.BelongsTo(orgID))
}

func TestActor_Validate(t *testing.T) {
	tests := []struct {
		name    string
		actor   Actor
		wantErr bool
	}{
		{name: "operator", actor: Actor{UserID: uuid.New(), Role: RoleAdmin}},
		{name: "creative", actor: Actor{UserID: uuid.New(), Role: RoleCreative}},
		{name: "client", actor: Actor{UserID: uuid.New(), Role: RoleClient, CompanyRole: CompanyRoleOwner, OrgID: uuid.New()}},
		{name: "missing user", actor: Actor{Role: RoleAdmin}, wantErr: true},
		{name: "unknown role", actor: Actor{UserID: uuid.New(), Role: "ROOT"}, wantErr: true},
		{name: "unknown company role", actor: Actor{UserID: uuid.New(), Role: RoleClient, CompanyRole: "BOSS", OrgID: uuid.New()}, wantErr: true},
		{name: "client without organization", actor: Actor{UserID: uuid.New(), Role: RoleClient, CompanyRole: CompanyRoleOwner}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.actor.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRequireActor(t *testing.T) {
	t.Run("unauthenticated", func(t *testing.T) {
		_, err := RequireActor(context.Background())
		require.Error(t, err)
		require.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})

	t.Run("authenticated", func(t *testing.T) {
		want := &Actor{UserID: uuid.New(), Role: RoleAdmin}
		got, err := RequireActor(WithActor(context.Background(), want))
		require.NoError(t, err)
		require.Same(t, want, got)
	})
}
