package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, Config{ServiceName: "tokenboard-server", SampleRatio: 0.25}.Validate())
	require.NoError(t, Config{ServiceName: "tokenboard-server"}.Validate())

	require.ErrorContains(t, Config{SampleRatio: 1}.Validate(), "service name")
	require.ErrorContains(t, Config{ServiceName: "x", SampleRatio: -0.1}.Validate(), "sample ratio")
	require.ErrorContains(t, Config{ServiceName: "x", SampleRatio: 2}.Validate(), "sample ratio")
}

func TestConfig_sampler(t *testing.T) {
	require.Contains(t, Config{SampleRatio: 1}.sampler().Description(), "ParentBased")
	require.Contains(t, Config{SampleRatio: 0.5}.sampler().Description(), "TraceIDRatioBased{0.5}")
}

func TestInitTelemetry_invalidConfig(t *testing.T) {
	_, err := InitTelemetry(t.Context(), Config{})
	require.ErrorContains(t, err, "invalid telemetry config")
}
