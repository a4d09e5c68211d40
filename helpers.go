package activity

import (
	"context"
)

// TraceIDFromContext returns the trace id of the ambient current scope, or
// the empty string if there is none.
func TraceIDFromContext(ctx context.Context) string {
	if s := Current(ctx); s != nil {
		return s.TraceID().String()
	}

	return ""
}

// SpanIDFromContext returns the span id of the ambient current scope, or
// the empty string if there is none.
func SpanIDFromContext(ctx context.Context) string {
	if s := Current(ctx); s != nil {
		return s.SpanID().String()
	}

	return ""
}

// RecordError marks the innermost scope of ctx as failed with err.
// It is a no-op if err is nil or the scope is not materialized; the error
// never lands on an ancestor.
func RecordError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	if s := ScopeFromContext(ctx); s != nil {
		s.SetStatus(err)
	}
}

// SetSuccess marks the innermost scope of ctx as successful.
func SetSuccess(ctx context.Context) {
	if s := ScopeFromContext(ctx); s != nil {
		s.SetStatus(nil)
	}
}

// SetTags sets tags on the innermost scope of ctx. Unmaterialized scopes
// drop them.
func SetTags(ctx context.Context, tags ...Tag) {
	s := ScopeFromContext(ctx)
	if s == nil || !s.IsMaterialized() {
		return
	}
	for _, t := range tags {
		s.SetTag(t.Key, t.Value)
	}
}
