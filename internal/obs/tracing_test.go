package obs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracerNoneExporter(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), TracingConfig{ServiceName: "pricing-api", Exporter: "none"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestInitTracerRejectsUnknownExporter(t *testing.T) {
	_, err := InitTracer(context.Background(), TracingConfig{Exporter: "zipkin"})
	require.ErrorContains(t, err, "unsupported tracing exporter: zipkin")
}

func TestNewTracerProviderSampling(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := NewTracerProvider(5, sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := tp.Tracer("test").Start(context.Background(), "quote")
	span.End()
	require.Len(t, recorder.Ended(), 1)
	require.True(t, recorder.Ended()[0].SpanContext().IsSampled())
}
