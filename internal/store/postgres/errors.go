package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/wolfeidau/tokenboard/internal/store"
)

// payoutOnceIndex backs the at-most-once payout guarantee.
const payoutOnceIndex = "idx_ledger_payout_once"

// mapPostgresError translates PostgreSQL errors into store sentinels.
// Lost races become store.ErrConflict so the ledger retries them; errors it
// does not recognise are returned with the server's detail attached.
func mapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.LockNotAvailable:
		return fmt.Errorf("%w: %w", store.ErrConflict, err)

	case pgerrcode.ForeignKeyViolation:
		return fmt.Errorf("%w: %s", store.ErrNotFound, pgErr.Detail)

	case pgerrcode.UniqueViolation:
		return fmt.Errorf("unique constraint %s violated: %w", pgErr.ConstraintName, err)

	case pgerrcode.CheckViolation:
		// balances and counters are guarded by CHECK constraints as a last line
		return fmt.Errorf("check constraint %s violated: %w", pgErr.ConstraintName, err)

	case pgerrcode.QueryCanceled:
		return fmt.Errorf("transaction timed out or was canceled: %w", err)

	case pgerrcode.ConnectionException,
		pgerrcode.ConnectionDoesNotExist,
		pgerrcode.ConnectionFailure,
		pgerrcode.CannotConnectNow,
		pgerrcode.SQLClientUnableToEstablishSQLConnection,
		pgerrcode.AdminShutdown,
		pgerrcode.CrashShutdown,
		pgerrcode.TooManyConnections:
		return fmt.Errorf("database unavailable: %w", err)
	}

	return fmt.Errorf("postgres error [%s]: %s (detail: %s): %w", pgErr.Code, pgErr.Message, pgErr.Detail, err)
}

// isUniqueViolation reports whether err is a unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// isDuplicatePayout reports whether err came from a second payout for the
// same ticket.
func isDuplicatePayout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgerrcode.UniqueViolation &&
		pgErr.ConstraintName == payoutOnceIndex
}
