package observability

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"tech-insights/internal/config"
)

const (
	ServiceName    = "tech-insights"
	ServiceVersion = "1.0.0"
	tracerName     = "tech-insights/http"
)

// Tracing owns the tracer provider for the process. Shutdown flushes pending
// spans and is safe to call when tracing is disabled.
type Tracing struct {
	provider trace.TracerProvider
	shutdown func(context.Context) error
}

func NewTracing(cfg config.TelemetryConfig, w io.Writer) (*Tracing, error) {
	if !cfg.TracingEnabled {
		return &Tracing{
			provider: noop.NewTracerProvider(),
			shutdown: func(context.Context) error { return nil },
		}, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("create stdout exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", ServiceName),
		attribute.String("service.version", ServiceVersion),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)

	return &Tracing{provider: tp, shutdown: tp.Shutdown}, nil
}

func (t *Tracing) Tracer() trace.Tracer {
	return t.provider.Tracer(tracerName)
}

func (t *Tracing) Shutdown(ctx context.Context) error {
	return t.shutdown(ctx)
}
