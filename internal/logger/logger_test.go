package logger

import (
	"bytes"
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestEventLevel(t *testing.T) {
	tests := []struct {
		code  connect.Code
		level string
	}{
		{connect.CodeInternal, "error"},
		{connect.CodeUnknown, "error"},
		{connect.CodeAborted, "info"},
		{connect.CodeInvalidArgument, "warn"},
		{connect.CodePermissionDenied, "warn"},
		{connect.CodeFailedPrecondition, "warn"},
		{connect.CodeNotFound, "warn"},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			var buf bytes.Buffer
			ctx := zerolog.New(&buf).WithContext(context.Background())

			event(ctx, tt.code).Msg("rpc call")

			require.Contains(t, buf.String(), `"level":"`+tt.level+`"`)
		})
	}
}

func TestConnectRequests_base(t *testing.T) {
	var fallback, scoped bytes.Buffer
	c := NewConnectRequests(zerolog.New(&fallback))

	l := c.base(context.Background())
	l.Info().Msg("fallback")
	require.Contains(t, fallback.String(), "fallback")

	ctx := zerolog.New(&scoped).WithContext(context.Background())
	l = c.base(ctx)
	l.Info().Msg("scoped")
	require.Contains(t, scoped.String(), "scoped")
	require.NotContains(t, fallback.String(), "scoped")
}
