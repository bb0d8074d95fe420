package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap/zaptest"

	"github.com/aman1195/helium/config"
)

// snapshotGlobals restores the global OTel providers after the test so
// state does not leak between tests.
func snapshotGlobals(t *testing.T) {
	t.Helper()
	origTP := otel.GetTracerProvider()
	origMP := otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(origTP)
		otel.SetMeterProvider(origMP)
	})
}

func TestInit_Disabled(t *testing.T) {
	snapshotGlobals(t)

	p, err := Init(config.TelemetryConfig{Enabled: false}, "1.0.0", zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Nil(t, p.tp)
	assert.Nil(t, p.mp)

	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestInit_Enabled(t *testing.T) {
	snapshotGlobals(t)

	p, err := Init(config.TelemetryConfig{
		Enabled:      true,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "helium-test",
		SampleRate:   0.5,
	}, "1.0.0", zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, p.tp)
	require.NotNil(t, p.mp)

	_, tpIsSDK := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	_, mpIsSDK := otel.GetMeterProvider().(*sdkmetric.MeterProvider)
	assert.True(t, tpIsSDK)
	assert.True(t, mpIsSDK)

	// No collector running; give shutdown a short deadline.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = p.Shutdown(ctx)
}

func TestShutdown_NilProviders(t *testing.T) {
	var p *Providers
	assert.NoError(t, p.Shutdown(context.Background()))
}
