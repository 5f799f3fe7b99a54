package obs

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// instrumentationPrefix namespaces every tracer the service creates.
const instrumentationPrefix = "github.com/noah-isme/backend-pricing/"

// TracingConfig controls tracer provider initialisation.
type TracingConfig struct {
	ServiceName   string
	Endpoint      string
	Exporter      string
	SamplingRatio float64
	Environment   string
}

// Tracer returns a tracer from the global provider named after component.
func Tracer(component string) trace.Tracer {
	return otel.Tracer(instrumentationPrefix + component)
}

// InitTracer installs a global tracer provider exporting to cfg.Exporter and
// returns its shutdown function. The "none" exporter installs nothing.
func InitTracer(ctx context.Context, cfg TracingConfig) (func(context.Context) error, error) {
	exporter, err := newSpanExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if exporter == nil {
		return func(context.Context) error { return nil }, nil
	}
	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.DeploymentEnvironmentKey.String(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build trace resource: %w", err)
	}
	tp := NewTracerProvider(cfg.SamplingRatio, sdktrace.WithBatcher(exporter), sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

// NewTracerProvider builds a provider sampling ratio of root spans and
// following the parent decision otherwise. Ratios outside (0,1] sample all.
func NewTracerProvider(ratio float64, opts ...sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}
	opts = append([]sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	}, opts...)
	return sdktrace.NewTracerProvider(opts...)
}

func newSpanExporter(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.Exporter))
	switch kind {
	case "none", "noop":
		return nil, nil
	case "", "otlp":
		var opts []otlptracehttp.Option
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpointURL(endpoint))
		}
		exp, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("create otlp exporter: %w", err)
		}
		return exp, nil
	default:
		return nil, fmt.Errorf("unsupported tracing exporter: %s", kind)
	}
}
