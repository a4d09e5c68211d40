package activity

import (
	"sync"
	"sync/atomic"
)

// ParentResolver supplies the parent context of a scope on demand.
// It receives the opaque param given to Source.StartWithResolver and
// returns false when no parent is available.
//
// The resolver runs at most once per scope, and only if the parent or the
// trace id of the scope is read.
type ParentResolver func(param any) (ActivityContext, bool)

type parentMode uint8

const (
	parentAmbient parentMode = iota
	parentExplicit
	parentResolved
)

// Scope is a single instrumented operation.
//
// A Scope is cheap until a listener (or the caller) materializes it: the trace
// and span ids, the parent, and the Activity payload are all computed on first
// use. Scope mutation belongs to the goroutine that started it; the id and
// parent accessors are safe for concurrent reads.
type Scope struct {
	source *Source
	outer  *Scope
	// ambient is the current scope of the start context, captured at start.
	ambient *Scope
	kind    Kind
	links  []ActivityContext

	mode     parentMode
	resolver ParentResolver
	param    any

	parentOnce sync.Once
	parent     ActivityContext
	hasParent  bool

	traceOnce sync.Once
	traceID   TraceID

	spanOnce sync.Once
	spanID   SpanID

	materializeOnce sync.Once
	activity        atomic.Pointer[Activity]

	ended atomic.Bool
}

// Source returns the source the scope was started on.
func (s *Scope) Source() *Source { return s.source }

// Name returns the operation name, which is the source name.
func (s *Scope) Name() string { return s.source.Name() }

// Kind returns the kind requested at start.
func (s *Scope) Kind() Kind { return s.kind }

// ParentContext returns the parent of the scope, resolving it on first call.
//
// Resolution order depends on how the scope was started: an explicit parent is
// used as is; a resolver is invoked and, when it reports no parent, the ambient
// scope is used; otherwise the ambient scope from the start context is used.
// The ambient scope is the one that was current when the scope started, even
// if it has ended since.
func (s *Scope) ParentContext() (ActivityContext, bool) {
	s.parentOnce.Do(s.resolveParent)
	return s.parent, s.hasParent
}

func (s *Scope) resolveParent() {
	switch s.mode {
	case parentExplicit:
		return
	case parentResolved:
		if p, ok := s.resolver(s.param); ok && p.IsValid() {
			s.parent, s.hasParent = p, true
			return
		}
	}

	if s.ambient != nil {
		s.parent, s.hasParent = s.ambient.Context(), true
	}
}

// TraceID returns the trace id, inherited from the parent when there is one.
func (s *Scope) TraceID() TraceID {
	s.traceOnce.Do(func() {
		if p, ok := s.ParentContext(); ok {
			s.traceID = p.TraceID
			return
		}
		s.traceID = newTraceID()
	})

	return s.traceID
}

// SpanID returns the span id. It never triggers parent resolution.
func (s *Scope) SpanID() SpanID {
	s.spanOnce.Do(func() {
		s.spanID = newSpanID()
	})

	return s.spanID
}

// Context returns the ActivityContext to propagate downstream. The tracestate
// is inherited from the parent.
//
// An unmaterialized scope is never exported, so when it has a parent it
// returns the parent's context unchanged, keeping the parent's span id and
// Recorded flag. Only an unmaterialized root carries its own ids, unrecorded.
func (s *Scope) Context() ActivityContext {
	parent, hasParent := s.ParentContext()
	a := s.activity.Load()
	if a == nil && hasParent {
		return parent
	}
	ac := ActivityContext{
		TraceID:    s.TraceID(),
		SpanID:     s.SpanID(),
		TraceState: parent.TraceState,
	}
	if a != nil {
		ac.TraceFlags = a.flags
	}

	return ac
}

// EnsureMaterialized allocates the Activity payload and stamps its start time.
// It runs once; later calls return the same *Activity.
//
// A materialized scope that has not ended is the ambient current scope for
// contexts derived from the one returned at start.
func (s *Scope) EnsureMaterialized() *Activity {
	s.materializeOnce.Do(func() {
		parent, hasParent := s.ParentContext()
		a := &Activity{
			source:    s.source,
			kind:      s.kind,
			traceID:   s.TraceID(),
			spanID:    s.SpanID(),
			parent:    parent,
			hasParent: hasParent,
			links:     s.links,
			startTime: s.source.clock.Now(),
		}
		s.activity.Store(a)
	})

	return s.activity.Load()
}

// IsMaterialized reports whether the Activity payload exists.
func (s *Scope) IsMaterialized() bool {
	return s.activity.Load() != nil
}

// Activity returns the payload, or nil when the scope was not materialized.
func (s *Scope) Activity() *Activity {
	return s.activity.Load()
}

// SetTag sets a tag on the activity. It is a no-op unless materialized.
func (s *Scope) SetTag(key, value string) {
	if a := s.activity.Load(); a != nil {
		a.SetTag(key, value)
	}
}

// SetDisplayName sets the activity's display name. It is a no-op unless materialized.
func (s *Scope) SetDisplayName(name string) {
	if a := s.activity.Load(); a != nil {
		a.SetDisplayName(name)
	}
}

// SetStatus records err as the outcome; a nil err records success.
// It is a no-op unless materialized.
func (s *Scope) SetStatus(err error) {
	a := s.activity.Load()
	if a == nil {
		return
	}
	if err == nil {
		a.SetStatus(StatusOK, "")
		return
	}
	a.SetStatus(StatusError, err.Error())
}

// AddLink links ac to the activity. It is a no-op unless materialized.
func (s *Scope) AddLink(ac ActivityContext) {
	if a := s.activity.Load(); a != nil {
		a.AddLink(ac)
	}
}

// IsEnded reports whether End has been called.
func (s *Scope) IsEnded() bool {
	return s.ended.Load()
}

// End finishes the scope: it stamps the end time of a materialized activity
// unless one was set explicitly, marks it stopped, and notifies the source's
// listeners. Only the first call has any effect.
func (s *Scope) End() {
	if !s.ended.CompareAndSwap(false, true) {
		return
	}

	if a := s.activity.Load(); a != nil {
		if a.endTime.IsZero() {
			a.endTime = s.source.clock.Now()
		}
		a.stopped = true
	}

	s.source.dispatchStop(s)
}

// isCurrent reports whether the scope may act as an ambient parent.
func (s *Scope) isCurrent() bool {
	return s.activity.Load() != nil && !s.ended.Load()
}
