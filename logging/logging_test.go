package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func newTestLogger(t *testing.T, env map[string]string) (*log.Logger, *bytes.Buffer) {
	t.Helper()

	logger := log.New()
	buf := &bytes.Buffer{}
	logger.SetOutput(buf)

	err := Configure(logger, func(key string) (string, bool) {
		v, ok := env[key]

		return v, ok
	})
	require.NoError(t, err)

	return logger, buf
}

func TestConfigure(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		wantLevel  log.Level
		wantCaller bool
		wantErr    bool
	}{
		{name: "defaults to info", env: map[string]string{}, wantLevel: log.InfoLevel},
		{name: "upper case level", env: map[string]string{"LOG_LEVEL": Warn}, wantLevel: log.WarnLevel},
		{name: "debug reports caller", env: map[string]string{"LOG_LEVEL": "debug"}, wantLevel: log.DebugLevel, wantCaller: true},
		{name: "unknown level", env: map[string]string{"LOG_LEVEL": "chatty"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := log.New()
			err := Configure(logger, func(key string) (string, bool) {
				v, ok := tt.env[key]

				return v, ok
			})
			if tt.wantErr {
				require.Error(t, err)

				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantLevel, logger.GetLevel())
			require.Equal(t, tt.wantCaller, logger.ReportCaller)
		})
	}
}

func TestRedactionHook(t *testing.T) {
	logger, buf := newTestLogger(t, map[string]string{"LOG_FORMAT": "json"})

	logger.WithFields(log.Fields{
		"preimage":     "01da5d7d740ac57f",
		"payment_hash": "d78a8ba8b6251027",
		"macaroon":     "",
	}).Info("payment settled")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, RedactedValue, entry["preimage"])
	require.Equal(t, "d78a8ba8b6251027", entry["payment_hash"])
	require.Equal(t, "", entry["macaroon"])
}

func TestContextHook(t *testing.T) {
	logger, buf := newTestLogger(t, map[string]string{"LOG_FORMAT": "json"})

	provider := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	ctx, span := provider.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	logger.WithContext(ctx).Info("traced")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.NotEmpty(t, entry["dd.trace_id"])
	require.NotEmpty(t, entry["dd.span_id"])
}

func TestConvertTraceID(t *testing.T) {
	require.Equal(t, "", convertTraceID("abc"))
	require.Equal(t, "1", convertTraceID("0000000000000001"))
	require.Equal(t, "255", convertTraceID("ffffffffffffffff00000000000000ff"))
}
