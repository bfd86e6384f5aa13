package pipeline

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"

	apperrors "libledger/internal/errors"
)

const (
	serviceName = "libledger"
	tracerName  = "libledger.pipeline"
)

// InitTracing installs a stdout trace exporter for the run and returns its
// shutdown hook. With tracing disabled it is a no-op and the returned
// shutdown does nothing.
func InitTracing(ctx context.Context, enabled bool, version string, logger *slog.Logger) (func(context.Context) error, error) {
	if !enabled {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, apperrors.NewConfigError("failed to create trace exporter", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(version),
	))
	if err != nil {
		return nil, apperrors.NewConfigError("failed to build trace resource", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	logger.InfoContext(ctx, "tracing enabled", slog.String("exporter", "stdout"))
	return provider.Shutdown, nil
}
