package activity

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Header names of the trace-context propagation format.
const (
	TraceParentHeader = "traceparent"
	TraceStateHeader  = "tracestate"
)

// ErrNoTraceParent is returned by Extract when the carrier has no traceparent.
var ErrNoTraceParent = errors.New("activity: no traceparent")

// Inject writes the context of the innermost scope carried by ctx into carrier.
// Nothing is written when ctx carries no scope.
func Inject(ctx context.Context, carrier propagation.TextMapCarrier) {
	s := ScopeFromContext(ctx)
	if s == nil {
		return
	}
	InjectContext(s.Context(), carrier)
}

// InjectContext writes ac into carrier. Invalid contexts are not written.
func InjectContext(ac ActivityContext, carrier propagation.TextMapCarrier) {
	if !ac.IsValid() {
		return
	}
	carrier.Set(TraceParentHeader, ac.TraceParent())
	if ac.TraceState != "" {
		carrier.Set(TraceStateHeader, string(ac.TraceState))
	}
}

// Extract reads a parent context from carrier.
// Returns ErrNoTraceParent if the header is missing, or a codec error.
func Extract(carrier propagation.TextMapCarrier) (ActivityContext, error) {
	tp := carrier.Get(TraceParentHeader)
	if tp == "" {
		return ActivityContext{}, ErrNoTraceParent
	}

	return ParseTraceParent(tp, carrier.Get(TraceStateHeader))
}

// CarrierResolver is a ParentResolver whose param is a propagation.TextMapCarrier.
// A missing header means no parent; a malformed one is reported through
// otel.Handle and also treated as no parent.
//
//	ctx, scope := src.StartWithResolver(ctx, activity.CarrierResolver, propagation.HeaderCarrier(r.Header))
func CarrierResolver(param any) (ActivityContext, bool) {
	carrier, ok := param.(propagation.TextMapCarrier)
	if !ok || carrier == nil {
		return ActivityContext{}, false
	}

	ac, err := Extract(carrier)
	if err != nil {
		if !errors.Is(err, ErrNoTraceParent) {
			otel.Handle(fmt.Errorf("activity: inbound trace context: %w", err))
		}

		return ActivityContext{}, false
	}

	return ac, true
}

// InjectHTTP writes the trace context of ctx into HTTP headers.
func InjectHTTP(ctx context.Context, headers http.Header) {
	Inject(ctx, propagation.HeaderCarrier(headers))
}

// ExtractHTTP reads a parent context from HTTP headers.
func ExtractHTTP(headers http.Header) (ActivityContext, error) {
	return Extract(propagation.HeaderCarrier(headers))
}
