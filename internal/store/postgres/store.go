package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tokenboard/internal/store"
)

var _ store.Store = (*Store)(nil)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements store.Store using PostgreSQL as the backend.
// Transactions run at READ COMMITTED and take row locks with SELECT ... FOR UPDATE.
type Store struct {
	queries
	pool *pgxpool.Pool
	cfg  *StoreConfig
}

// NewStore creates a PostgreSQL-backed store on an existing pool.
// Migrations are only run when cfg.AutoMigrate is set.
func NewStore(ctx context.Context, pool *pgxpool.Pool, cfg *StoreConfig) (*Store, error) {
	if cfg == nil {
		cfg = &StoreConfig{}
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.AutoMigrate {
		if err := runMigrations(ctx, pool); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info().Msg("Database migrations completed")
	}

	return &Store{
		queries: queries{q: pool},
		pool:    pool,
		cfg:     cfg,
	}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// RunInTx executes fn inside a single database transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	if s.cfg.QueryTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.QueryTimeoutSeconds)*time.Second)
		defer cancel()
	}

	pgTx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", mapPostgresError(err))
	}
	defer pgTx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	lockTimeout := fmt.Sprintf("%dms", s.cfg.LockTimeoutMillis)
	if _, err := pgTx.Exec(ctx, `SELECT set_config('lock_timeout', $1, true)`, lockTimeout); err != nil {
		return fmt.Errorf("failed to set lock timeout: %w", mapPostgresError(err))
	}

	if err := fn(ctx, &tx{queries: queries{q: pgTx}}); err != nil {
		return err
	}

	if err := pgTx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapPostgresError(err))
	}

	return nil
}

// wrapErr maps err and prefixes it with the failed operation.
func wrapErr(op string, err error) error {
	return fmt.Errorf("failed to %s: %w", op, mapPostgresError(err))
}
