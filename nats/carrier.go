package nats

import (
	"context"

	"github.com/arloliu/activity"

	"github.com/nats-io/nats.go"
)

// headerCarrier adapts nats.Header to propagation.TextMapCarrier.
// This enables trace context propagation through NATS message headers.
type headerCarrier nats.Header

// Get returns the value for the given key from the NATS headers.
// Returns empty string if the key doesn't exist.
func (c headerCarrier) Get(key string) string {
	vals := nats.Header(c).Values(key)
	if len(vals) > 0 {
		return vals[0]
	}

	return ""
}

// Set stores the key-value pair in the NATS headers.
func (c headerCarrier) Set(key, value string) {
	nats.Header(c).Set(key, value)
}

// Keys returns all keys in the NATS headers.
func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}

	return keys
}

// Inject writes the trace context of the innermost scope in ctx into the
// message headers. If msg.Header is nil, it will be initialized to prevent panics.
func Inject(ctx context.Context, msg *nats.Msg) {
	if msg.Header == nil {
		msg.Header = make(nats.Header)
	}

	activity.Inject(ctx, headerCarrier(msg.Header))
}

// Extract reads the propagated parent context from message headers.
// It returns false when the headers carry no valid traceparent.
func Extract(header nats.Header) (activity.ActivityContext, bool) {
	if header == nil {
		return activity.ActivityContext{}, false
	}

	return activity.CarrierResolver(headerCarrier(header))
}

// headerResolver is a ParentResolver over nats.Header params.
func headerResolver(param any) (activity.ActivityContext, bool) {
	header, _ := param.(nats.Header)
	return Extract(header)
}
