package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupWithoutEndpoints(t *testing.T) {
	tel, err := Setup(context.Background(), "ifsuap-test", Config{})
	require.NoError(t, err)
	require.False(t, tel.Enabled())
	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestInitSlog(t *testing.T) {
	previous := slog.Default()
	defer slog.SetDefault(previous)

	var out bytes.Buffer
	InitSlog(&out, false)
	slog.Debug("hidden")
	slog.Info("shown", "discipline", "4821")
	require.NotContains(t, out.String(), "hidden")
	require.Contains(t, out.String(), "shown")

	out.Reset()
	InitSlog(&out, true)
	slog.Debug("visible")
	require.Contains(t, out.String(), "visible")
}

func TestSetupTracesOnly(t *testing.T) {
	tel, err := Setup(context.Background(), "ifsuap-test", Config{
		Otlp: OtlpConfig{
			Traces: OtlpConnConfig{HttpEndpoint: "http://127.0.0.1:4318/v1/traces"},
		},
	})
	require.NoError(t, err)
	require.True(t, tel.Enabled())
	require.NotNil(t, tel.TracerProvider)
	require.Nil(t, tel.MeterProvider)
	require.NoError(t, tel.Shutdown(context.Background()))
}
