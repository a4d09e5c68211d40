package activity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// ErrDisabled is returned when telemetry is disabled.
var ErrDisabled = errors.New("activity: telemetry is disabled")

// ErrLogsDisabled is returned when log export is disabled.
var ErrLogsDisabled = errors.New("activity: logs export is disabled")

// ErrMetricsDisabled is returned when scope metrics are disabled.
var ErrMetricsDisabled = errors.New("activity: metrics export is disabled")

// ErrServiceNameRequired is returned when ServiceName is empty but telemetry is enabled.
var ErrServiceNameRequired = errors.New("activity: service name is required")

// ============================================================================
// Tracer Provider
// ============================================================================

// NewTracerProvider builds the OTel TracerProvider that TraceExporter replays
// recorded activities into.
//
// Sampling has already happened in the SamplingListener, so the provider
// samples everything it is given, and its IDGenerator reuses the activity ids.
// Returns ErrDisabled if telemetry or traces are disabled.
func NewTracerProvider(ctx context.Context, cfg *TelemetryConfig) (*sdktrace.TracerProvider, error) {
	if !cfg.IsEnabled() {
		return nil, ErrDisabled
	}
	if cfg.Traces != nil && !cfg.Traces.IsEnabled() {
		return nil, ErrDisabled
	}

	res, err := buildResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	exporter, err := buildTraceExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build trace exporter: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithIDGenerator(activityIDGenerator{}),
		sdktrace.WithBatcher(exporter),
	), nil
}

// ============================================================================
// Logger Provider
// ============================================================================

// NewLoggerProvider builds the OTel LoggerProvider used by LogExporter.
// Returns ErrLogsDisabled if log export is not enabled.
func NewLoggerProvider(ctx context.Context, cfg *TelemetryConfig) (*sdklog.LoggerProvider, error) {
	if !cfg.IsEnabled() {
		return nil, ErrDisabled
	}
	if !cfg.Logs.IsEnabled() {
		return nil, ErrLogsDisabled
	}

	res, err := buildResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	exporter, err := buildLogExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build log exporter: %w", err)
	}

	return sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	), nil
}

// ============================================================================
// Meter Provider
// ============================================================================

// NewMeterProvider builds the OTel MeterProvider for scope metrics.
// Returns ErrMetricsDisabled if metrics are not enabled.
func NewMeterProvider(ctx context.Context, cfg *TelemetryConfig) (*sdkmetric.MeterProvider, error) {
	if !cfg.IsEnabled() {
		return nil, ErrDisabled
	}
	if !cfg.Metrics.IsEnabled() {
		return nil, ErrMetricsDisabled
	}

	res, err := buildResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	exporter, err := buildMetricExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build metric exporter: %w", err)
	}

	interval := normalizeMetricInterval(cfg.Metrics.Interval, 60*time.Second)

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(interval),
		)),
	), nil
}

// ============================================================================
// Shared Helpers
// ============================================================================

// buildResource creates the resource shared by all providers.
func buildResource(ctx context.Context, cfg *TelemetryConfig) (*resource.Resource, error) {
	if cfg.ServiceName == "" {
		return nil, ErrServiceNameRequired
	}

	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.Version),
		semconv.DeploymentEnvironment(cfg.Environment),
	}
	for key, value := range cfg.ResourceAttributes {
		if key == "" {
			continue
		}
		attrs = append(attrs, attribute.String(key, value))
	}

	res, err := resource.New(ctx,
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(attrs...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	return res, nil
}

// normalizeMetricInterval treats sub-millisecond values as milliseconds, matching OTel numeric env vars.
func normalizeMetricInterval(value time.Duration, defaultValue time.Duration) time.Duration {
	if value <= 0 {
		return defaultValue
	}
	if value < time.Millisecond {
		return normalizeDuration(value)
	}

	return value
}

// BuildSampler returns the Sampler described by cfg.
// A nil config selects parentbased_always_on, the OTel default.
func BuildSampler(cfg *SamplingConfig) Sampler {
	if cfg == nil {
		cfg = &SamplingConfig{Sampler: "parentbased_always_on", SamplerArg: 1.0}
	}

	switch cfg.Sampler {
	case "always_on":
		return AlwaysSample()
	case "always_off":
		return NeverSample()
	case "traceidratio":
		return TraceIDRatioBased(cfg.SamplerArg)
	case "parentbased_always_on":
		return ParentBased(AlwaysSample())
	case "parentbased_always_off":
		return ParentBased(NeverSample())
	case "parentbased_traceidratio":
		return ParentBased(TraceIDRatioBased(cfg.SamplerArg))
	default:
		return ParentBased(AlwaysSample())
	}
}
