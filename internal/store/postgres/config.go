package postgres

import (
	"fmt"
)

// StoreConfig holds store-specific configuration for the PostgreSQL store.
// Pool configuration is handled separately via PoolConfig.
type StoreConfig struct {
	// AutoMigrate runs the embedded migrations when the store is created.
	AutoMigrate bool

	// LockTimeoutMillis bounds how long a transaction waits on a row lock
	// before the attempt fails with store.ErrConflict.
	// Default: 2000
	LockTimeoutMillis int32

	// QueryTimeoutSeconds is the maximum time a single transaction may run.
	// Default: 10 seconds
	QueryTimeoutSeconds int32
}

// Validate checks that the configuration is valid.
func (c *StoreConfig) Validate() error {
	if c.LockTimeoutMillis < 0 {
		return fmt.Errorf("lock timeout must not be negative")
	}
	if c.QueryTimeoutSeconds < 0 {
		return fmt.Errorf("query timeout must not be negative")
	}
	return nil
}

// ApplyDefaults applies default values to unset configuration fields.
func (c *StoreConfig) ApplyDefaults() {
	if c.LockTimeoutMillis == 0 {
		c.LockTimeoutMillis = 2000
	}
	if c.QueryTimeoutSeconds == 0 {
		c.QueryTimeoutSeconds = 10 // 10 seconds
	}
}
