package postgres

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"10_add_index.sql":   {Data: []byte("CREATE INDEX b;")},
		"2_add_column.sql":   {Data: []byte("ALTER TABLE a;")},
		"1_initial.sql":      {Data: []byte("CREATE TABLE a;")},
		"README.md":          {Data: []byte("docs")},
		"draft.sql":          {Data: []byte("SELECT 1;")},
		"x_bad_version.sql":  {Data: []byte("SELECT 1;")},
		"nested/3_inner.sql": {Data: []byte("SELECT 1;")},
	}

	migrations, err := loadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, migrations, 3)

	require.Equal(t, 1, migrations[0].version)
	require.Equal(t, "1_initial.sql", migrations[0].name)
	require.Equal(t, "CREATE TABLE a;", migrations[0].sql)
	require.Equal(t, 2, migrations[1].version)
	require.Equal(t, 10, migrations[2].version)
}

func TestLoadMigrations_duplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"1_initial.sql": {Data: []byte("CREATE TABLE a;")},
		"1_again.sql":   {Data: []byte("CREATE TABLE b;")},
	}

	_, err := loadMigrations(fsys)
	require.ErrorContains(t, err, "share version 1")
}

func TestLoadMigrations_embedded(t *testing.T) {
	sub, err := fs.Sub(migrationsFS, "migrations")
	require.NoError(t, err)

	migrations, err := loadMigrations(sub)
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	require.Equal(t, 1, migrations[0].version)
	require.Contains(t, migrations[0].sql, "idx_ledger_payout_once")
}
