package activity

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TraceExporter replays recorded activities as OpenTelemetry spans.
//
// The span keeps the activity's ids, parent, timestamps, tags, links and
// status when the TracerProvider uses the activity IDGenerator, as the ones
// from NewTracerProvider do. With other providers only the span ids differ.
type TraceExporter struct {
	tracer trace.Tracer
}

// NewTraceExporter creates a TraceExporter on tp.
func NewTraceExporter(tp trace.TracerProvider) *TraceExporter {
	return &TraceExporter{tracer: tp.Tracer(instrumentationName)}
}

// ExportActivity implements Exporter.
func (e *TraceExporter) ExportActivity(ctx context.Context, a *Activity) error {
	ctx = contextWithActivityIDs(ctx, a.TraceID(), a.SpanID())
	if parent, ok := a.Parent(); ok {
		sc, err := toSpanContext(parent, true)
		if err != nil {
			return err
		}
		ctx = trace.ContextWithRemoteSpanContext(ctx, sc)
	}

	opts := []trace.SpanStartOption{
		trace.WithTimestamp(a.StartTime()),
		trace.WithSpanKind(toSpanKind(a.Kind())),
		trace.WithAttributes(tagAttributes(a)...),
	}
	for _, link := range a.Links() {
		sc, err := toSpanContext(link, true)
		if err != nil {
			otel.Handle(err)
			continue
		}
		opts = append(opts, trace.WithLinks(trace.Link{SpanContext: sc}))
	}

	_, span := e.tracer.Start(ctx, a.DisplayName(), opts...)

	switch st := a.Status(); st.Code {
	case StatusError:
		span.SetStatus(codes.Error, st.Description)
	case StatusOK:
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(a.EndTime()))

	return nil
}

// toSpanContext converts an ActivityContext to its OTel form.
// The tracestate is only parsed here, at the OTel boundary.
func toSpanContext(ac ActivityContext, remote bool) (trace.SpanContext, error) {
	cfg := trace.SpanContextConfig{
		TraceID:    trace.TraceID(ac.TraceID),
		SpanID:     trace.SpanID(ac.SpanID),
		TraceFlags: trace.TraceFlags(ac.TraceFlags),
		Remote:     remote,
	}
	if ac.TraceState != "" {
		ts, err := trace.ParseTraceState(string(ac.TraceState))
		if err != nil {
			return trace.SpanContext{}, fmt.Errorf("activity: tracestate %q: %w", ac.TraceState, err)
		}
		cfg.TraceState = ts
	}

	return trace.NewSpanContext(cfg), nil
}

// FromSpanContext converts an OTel span context to an ActivityContext, so
// code already holding OTel spans can parent scopes on them.
func FromSpanContext(sc trace.SpanContext) ActivityContext {
	return ActivityContext{
		TraceID:    TraceID(sc.TraceID()),
		SpanID:     SpanID(sc.SpanID()),
		TraceFlags: TraceFlags(sc.TraceFlags()),
		TraceState: TraceState(sc.TraceState().String()),
	}
}

func toSpanKind(k Kind) trace.SpanKind {
	switch k {
	case KindServer:
		return trace.SpanKindServer
	case KindClient:
		return trace.SpanKindClient
	case KindProducer:
		return trace.SpanKindProducer
	case KindConsumer:
		return trace.SpanKindConsumer
	default:
		return trace.SpanKindInternal
	}
}

func tagAttributes(a *Activity) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(a.Tags())+1)
	attrs = append(attrs, attribute.String("activity.source", a.Name()))
	for _, t := range a.Tags() {
		attrs = append(attrs, attribute.String(t.Key, t.Value))
	}

	return attrs
}

type activityIDsKey struct{}

type activityIDs struct {
	traceID TraceID
	spanID  SpanID
}

func contextWithActivityIDs(ctx context.Context, traceID TraceID, spanID SpanID) context.Context {
	return context.WithValue(ctx, activityIDsKey{}, activityIDs{traceID: traceID, spanID: spanID})
}

// activityIDGenerator is an sdktrace.IDGenerator that hands out the ids of
// the activity being replayed, and random ids for ordinary spans.
type activityIDGenerator struct{}

func (activityIDGenerator) NewIDs(ctx context.Context) (trace.TraceID, trace.SpanID) {
	if ids, ok := ctx.Value(activityIDsKey{}).(activityIDs); ok {
		return trace.TraceID(ids.traceID), trace.SpanID(ids.spanID)
	}

	return trace.TraceID(newTraceID()), trace.SpanID(newSpanID())
}

func (activityIDGenerator) NewSpanID(ctx context.Context, _ trace.TraceID) trace.SpanID {
	if ids, ok := ctx.Value(activityIDsKey{}).(activityIDs); ok {
		return trace.SpanID(ids.spanID)
	}

	return trace.SpanID(newSpanID())
}
