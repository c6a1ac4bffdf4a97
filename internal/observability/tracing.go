// Package observability wires OpenTelemetry tracing for the assistant.
//
// Tracing is opt-in: with no collector endpoint configured, the
// pipeline's spans stay no-ops and cost nothing. When an endpoint is
// set, spans export over OTLP HTTP, which any collector speaking OTLP
// can ingest (Jaeger, Tempo, or a vendor agent on localhost).
//
// # Configuration
//
// Environment variables (optional):
//   - BHUJAL_OTLP_ENDPOINT: collector endpoint, e.g. localhost:4318
//   - BHUJAL_ENVIRONMENT: deployment environment tag
//
// Config file (~/.bhujal/config.yaml):
//
//	otlp_endpoint: "localhost:4318"
//	service_name: "bhujal"
//	environment: "dev"
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/bhujal-ai/bhujal/internal/log"
)

// Config for tracing setup.
type Config struct {
	// Endpoint is the OTLP HTTP collector endpoint as host:port.
	// Empty disables tracing.
	Endpoint string
	// ServiceName is attached to every span (default: bhujal).
	ServiceName string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
}

// DefaultServiceName is used when no service name is configured.
const DefaultServiceName = "bhujal"

// Setup installs a global tracer provider exporting to the configured
// collector and returns a shutdown function that flushes pending spans.
//
// Tracing never takes the program down: with no endpoint, or when the
// exporter cannot be built, Setup logs and returns a no-op shutdown.
func Setup(ctx context.Context, cfg Config, logger log.Logger) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	if cfg.Endpoint == "" {
		logger.Debug("tracing disabled, no collector endpoint configured")
		return noop, nil
	}

	service := cfg.ServiceName
	if service == "" {
		service = DefaultServiceName
	}

	// The collector sits on localhost or a private network, so plain
	// HTTP is fine and the agent handles anything beyond that.
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		logger.Warn("failed to create trace exporter, tracing disabled", "error", err)
		return noop, nil
	}

	attrs := []attribute.KeyValue{
		attribute.String("service.name", service),
	}
	if cfg.Environment != "" {
		attrs = append(attrs, attribute.String("deployment.environment", cfg.Environment))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attrs...)),
	)
	otel.SetTracerProvider(tp)

	logger.Debug("tracing enabled",
		"endpoint", cfg.Endpoint,
		"service", service,
		"environment", cfg.Environment,
	)

	return tp.Shutdown, nil
}
