package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/tokenboard/internal/store"
)

func TestMapPostgresError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		contains string
	}{
		{
			name:     "serialization failure retries",
			err:      &pgconn.PgError{Code: pgerrcode.SerializationFailure},
			sentinel: store.ErrConflict,
		},
		{
			name:     "lock timeout retries",
			err:      &pgconn.PgError{Code: pgerrcode.LockNotAvailable},
			sentinel: store.ErrConflict,
		},
		{
			name:     "missing parent row",
			err:      &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, Detail: "Key (org_id) is not present"},
			sentinel: store.ErrNotFound,
			contains: "org_id",
		},
		{
			name:     "check constraint",
			err:      &pgconn.PgError{Code: pgerrcode.CheckViolation, ConstraintName: "organizations_balance_check"},
			contains: "organizations_balance_check",
		},
		{
			name:     "unavailable",
			err:      fmt.Errorf("exec: %w", &pgconn.PgError{Code: pgerrcode.AdminShutdown}),
			contains: "database unavailable",
		},
		{
			name:     "unrecognised code",
			err:      &pgconn.PgError{Code: pgerrcode.DivisionByZero, Message: "division by zero"},
			contains: "division by zero",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapPostgresError(tt.err)
			require.Error(t, got)
			if tt.sentinel != nil {
				require.ErrorIs(t, got, tt.sentinel)
			}
			if tt.contains != "" {
				require.ErrorContains(t, got, tt.contains)
			}
		})
	}

	require.NoError(t, mapPostgresError(nil))

	plain := errors.New("boom")
	require.Same(t, plain, mapPostgresError(plain))
}

func TestIsDuplicatePayout(t *testing.T) {
	payout := &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: payoutOnceIndex}
	require.True(t, isDuplicatePayout(fmt.Errorf("insert: %w", payout)))
	require.True(t, isUniqueViolation(payout))

	other := &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "performers_pkey"}
	require.False(t, isDuplicatePayout(other))
	require.True(t, isUniqueViolation(other))

	require.False(t, isDuplicatePayout(errors.New("boom")))
}
