package activity

import (
	"context"

	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/trace"
)

// LogExporter emits one log record per recorded activity. The record carries
// the activity's trace and span ids, so backends correlate it with the span.
type LogExporter struct {
	logger otellog.Logger
}

// NewLogExporter creates a LogExporter on lp.
func NewLogExporter(lp otellog.LoggerProvider) *LogExporter {
	return &LogExporter{logger: lp.Logger(instrumentationName)}
}

// ExportActivity implements Exporter.
func (e *LogExporter) ExportActivity(ctx context.Context, a *Activity) error {
	ctx = trace.ContextWithSpanContext(ctx, trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID(a.TraceID()),
		SpanID:     trace.SpanID(a.SpanID()),
		TraceFlags: trace.TraceFlags(a.TraceFlags()),
	}))

	var rec otellog.Record
	rec.SetTimestamp(a.EndTime())
	rec.SetObservedTimestamp(a.EndTime())
	rec.SetBody(otellog.StringValue(a.DisplayName()))

	st := a.Status()
	if st.Code == StatusError {
		rec.SetSeverity(otellog.SeverityError)
		rec.SetSeverityText("ERROR")
	} else {
		rec.SetSeverity(otellog.SeverityInfo)
		rec.SetSeverityText("INFO")
	}

	attrs := make([]otellog.KeyValue, 0, len(a.Tags())+4)
	attrs = append(attrs,
		otellog.String("activity.source", a.Name()),
		otellog.String("activity.kind", a.Kind().String()),
		otellog.Float64("activity.duration", a.Duration().Seconds()),
	)
	if st.Description != "" {
		attrs = append(attrs, otellog.String("activity.status", st.Description))
	}
	for _, t := range a.Tags() {
		attrs = append(attrs, otellog.String(t.Key, t.Value))
	}
	rec.AddAttributes(attrs...)

	e.logger.Emit(ctx, rec)

	return nil
}
