package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoolConfig_defaults(t *testing.T) {
	cfg := &PoolConfig{ConnString: "postgres://tokenboard@localhost:5432/tokenboard"}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	require.Equal(t, "tokenboard", cfg.ApplicationName)
	require.Equal(t, int32(20), cfg.MaxConns)
	require.Equal(t, int32(2), cfg.MinConns)
	require.Equal(t, time.Hour, cfg.MaxConnLifetime)
	require.Equal(t, 10*time.Second, cfg.ConnectTimeout)

	pc, err := cfg.pgxConfig()
	require.NoError(t, err)
	require.Equal(t, int32(20), pc.MaxConns)
	require.Equal(t, "tokenboard", pc.ConnConfig.RuntimeParams["application_name"])
	require.Equal(t, 10*time.Second, pc.ConnConfig.ConnectTimeout)
}

func TestPoolConfig_keepsApplicationNameFromURL(t *testing.T) {
	cfg := &PoolConfig{ConnString: "postgres://localhost/tokenboard?application_name=reporting"}
	cfg.ApplyDefaults()

	pc, err := cfg.pgxConfig()
	require.NoError(t, err)
	require.Equal(t, "reporting", pc.ConnConfig.RuntimeParams["application_name"])
}

func TestPoolConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     PoolConfig
		wantErr string
	}{
		{
			name:    "missing conn string",
			cfg:     PoolConfig{MaxConns: 1},
			wantErr: "connection string is required",
		},
		{
			name:    "min above max",
			cfg:     PoolConfig{ConnString: "postgres://localhost/db", MaxConns: 2, MinConns: 5},
			wantErr: "min conns",
		},
		{
			name:    "no connections",
			cfg:     PoolConfig{ConnString: "postgres://localhost/db", MaxConns: -1},
			wantErr: "max conns",
		},
		{
			name: "valid",
			cfg:  PoolConfig{ConnString: "postgres://localhost/db", MaxConns: 4, MinConns: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNewPool_nilConfig(t *testing.T) {
	_, err := NewPool(t.Context(), nil)
	require.ErrorContains(t, err, "pool config is required")
}
