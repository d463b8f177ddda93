package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/taskflow/config"
)

// withGlobalProviderGuard restores the global OTel providers on cleanup so
// tests do not leak state into each other.
func withGlobalProviderGuard(t *testing.T) {
	t.Helper()
	tp, mp := otel.GetTracerProvider(), otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetMeterProvider(mp)
	})
}

func TestInitDisabledUsesNoopProviders(t *testing.T) {
	withGlobalProviderGuard(t)

	p, err := Init(config.TelemetryConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Nil(t, p.traces)
	assert.Nil(t, p.meters)

	// shutdown of noop providers is a no-op
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestInitEnabledRegistersGlobals(t *testing.T) {
	withGlobalProviderGuard(t)

	cfg := config.TelemetryConfig{
		Enabled:      true,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "taskflow-test",
		SampleRate:   0.5,
	}
	p, err := Init(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, p.traces)
	require.NotNil(t, p.meters)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = p.Shutdown(ctx)
	})

	_, tpIsSDK := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	_, mpIsSDK := otel.GetMeterProvider().(*sdkmetric.MeterProvider)
	assert.True(t, tpIsSDK)
	assert.True(t, mpIsSDK)
}

func TestShutdownNilProviders(t *testing.T) {
	var p *Providers
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestShutdownWithoutCollector(t *testing.T) {
	withGlobalProviderGuard(t)

	cfg := config.TelemetryConfig{
		Enabled:      true,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "taskflow-shutdown-test",
		SampleRate:   1.0,
	}
	p, err := Init(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	// No collector is listening, so the exporter flush may fail, but the
	// call must return within the deadline and never panic.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NotPanics(t, func() { _ = p.Shutdown(ctx) })
}

func TestDispatcherResourceIdentity(t *testing.T) {
	res, err := dispatcherResource(context.Background(), "taskflow-test")
	require.NoError(t, err)

	attrs := map[attribute.Key]string{}
	for _, kv := range res.Set().ToSlice() {
		attrs[kv.Key] = kv.Value.AsString()
	}
	assert.Equal(t, "taskflow-test", attrs[semconv.ServiceNameKey])
	assert.Equal(t, "taskflow", attrs[semconv.ServiceNamespaceKey])
	// each run gets its own instance id
	assert.NotEmpty(t, attrs[semconv.ServiceInstanceIDKey])
}

func TestBuildVersionFallback(t *testing.T) {
	// Test binaries carry no module version, so the fallback applies.
	assert.Equal(t, "dev", buildVersion())
}
