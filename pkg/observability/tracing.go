package observability

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// DefaultServiceName is the trace service name when none is configured.
const DefaultServiceName = "trapline"

// TracingConfig holds tracing configuration.
type TracingConfig struct {
	// ServiceName is the name reported on spans.
	ServiceName string

	// Enabled controls whether tracing is active.
	Enabled bool

	// ExporterType specifies the exporter: "otlp", "stdout", or "none".
	ExporterType string

	// OTLPEndpoint is the OTLP HTTP endpoint.
	OTLPEndpoint string

	// OTLPHeaders are additional headers for OTLP requests.
	OTLPHeaders map[string]string
}

// Tracing owns a tracer provider and the tracer handed to components.
type Tracing struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// TracingFromEnv builds a config from standard OpenTelemetry
// environment variables:
//   - OTEL_SERVICE_NAME
//   - OTEL_TRACES_ENABLED ("true"/"false")
//   - OTEL_TRACES_EXPORTER ("otlp", "stdout", "none")
//   - OTEL_EXPORTER_OTLP_ENDPOINT
func TracingFromEnv() TracingConfig {
	return TracingConfig{
		ServiceName:  getEnv("OTEL_SERVICE_NAME", DefaultServiceName),
		Enabled:      getEnv("OTEL_TRACES_ENABLED", "false") == "true",
		ExporterType: getEnv("OTEL_TRACES_EXPORTER", "stdout"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
}

// InitTracing sets up the tracer provider. With tracing disabled it
// returns a no-op tracer so call sites never branch.
func InitTracing(config TracingConfig) (*Tracing, error) {
	if config.ServiceName == "" {
		config.ServiceName = DefaultServiceName
	}

	if !config.Enabled || config.ExporterType == "none" {
		return &Tracing{
			tracer: otel.GetTracerProvider().Tracer(config.ServiceName),
		}, nil
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create trace resource: %w", err)
	}

	var exporter sdktrace.SpanExporter
	switch config.ExporterType {
	case "otlp":
		opts := []otlptracehttp.Option{}
		if config.OTLPEndpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(config.OTLPEndpoint))
		}
		if len(config.OTLPHeaders) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(config.OTLPHeaders))
		}
		client := otlptracehttp.NewClient(opts...)
		exporter, err = otlptrace.New(context.Background(), client)
		if err != nil {
			return nil, fmt.Errorf("create otlp exporter: %w", err)
		}

	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}

	default:
		return nil, fmt.Errorf("unknown trace exporter type: %s", config.ExporterType)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	return &Tracing{
		provider: provider,
		tracer:   provider.Tracer(config.ServiceName),
	}, nil
}

// Tracer returns the tracer for creating spans.
func (t *Tracing) Tracer() trace.Tracer {
	return t.tracer
}

// Start opens a span on the configured tracer.
func (t *Tracing) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// Shutdown flushes pending spans.
func (t *Tracing) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	return t.provider.Shutdown(ctx)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
