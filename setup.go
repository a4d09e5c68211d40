package activity

import (
	"context"
	"errors"
	"fmt"

	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Telemetry is a configured export pipeline: the OTel providers and the
// SamplingListener that feeds them.
type Telemetry struct {
	Listener       *SamplingListener
	TracerProvider *sdktrace.TracerProvider
	LoggerProvider *sdklog.LoggerProvider
	MeterProvider  *sdkmetric.MeterProvider
}

// Setup builds the pipeline described by cfg and attaches its listener to
// registry, or to DefaultRegistry when registry is nil. Sources registered
// before or after Setup are observed alike.
//
// Returns ErrDisabled when cfg disables telemetry. Providers that were built
// before a failure are shut down.
func Setup(ctx context.Context, cfg *TelemetryConfig, registry *Registry) (*Telemetry, error) {
	if !cfg.IsEnabled() {
		return nil, ErrDisabled
	}
	if registry == nil {
		registry = DefaultRegistry()
	}

	t := &Telemetry{}
	var exporters []Exporter

	if cfg.Traces.IsEnabled() {
		tp, err := NewTracerProvider(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("tracer provider: %w", err)
		}
		t.TracerProvider = tp
		exporters = append(exporters, NewTraceExporter(tp))
	}

	if cfg.Logs.IsEnabled() {
		lp, err := NewLoggerProvider(ctx, cfg)
		if err != nil {
			_ = t.Shutdown(ctx)
			return nil, fmt.Errorf("logger provider: %w", err)
		}
		t.LoggerProvider = lp
		exporters = append(exporters, NewLogExporter(lp))
	}

	opts := []ListenerOption{
		WithSampler(BuildSampler(cfg.GetSamplingConfig())),
		WithExporters(exporters...),
	}
	if cfg.Sources != nil {
		opts = append(opts, WithNameFilter(cfg.Sources.NameFilter()))
	}

	if cfg.Metrics.IsEnabled() {
		mp, err := NewMeterProvider(ctx, cfg)
		if err != nil {
			_ = t.Shutdown(ctx)
			return nil, fmt.Errorf("meter provider: %w", err)
		}
		t.MeterProvider = mp
		opts = append(opts, WithMeterProvider(mp))
	}

	l, err := NewSamplingListener(opts...)
	if err != nil {
		_ = t.Shutdown(ctx)
		return nil, err
	}
	l.Attach(registry)
	t.Listener = l

	return t, nil
}

// Shutdown detaches the listener, then flushes and closes the providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t.Listener != nil {
		t.Listener.Close()
	}

	var errs []error
	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider: %w", err))
		}
	}
	if t.LoggerProvider != nil {
		if err := t.LoggerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("logger provider: %w", err))
		}
	}
	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
	}

	return errors.Join(errs...)
}
