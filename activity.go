package activity

import (
	"time"
)

// Kind describes the relationship of an activity to its callers and callees.
type Kind int

const (
	KindInternal Kind = iota
	KindServer
	KindClient
	KindProducer
	KindConsumer
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindServer:
		return "server"
	case KindClient:
		return "client"
	case KindProducer:
		return "producer"
	case KindConsumer:
		return "consumer"
	default:
		return "internal"
	}
}

// StatusCode is the outcome recorded on an activity.
type StatusCode int

const (
	StatusUnset StatusCode = iota
	StatusOK
	StatusError
)

// Status is the recorded outcome of an activity.
type Status struct {
	Code        StatusCode
	Description string
}

// Tag is a string key/value pair attached to an activity.
type Tag struct {
	Key   string
	Value string
}

// Activity is the materialized payload of a scope: everything a listener
// needs to record or export the operation.
//
// An Activity is owned by the goroutine running its scope until the scope
// ends; exporters read it from OnScopeStopped.
type Activity struct {
	source      *Source
	displayName string
	kind        Kind

	traceID   TraceID
	spanID    SpanID
	parent    ActivityContext
	hasParent bool
	flags     TraceFlags

	startTime time.Time
	endTime   time.Time
	stopped   bool

	tags   []Tag
	links  []ActivityContext
	status Status
}

// Source returns the source that started the activity.
func (a *Activity) Source() *Source { return a.source }

// Name returns the operation name, which is the source name.
func (a *Activity) Name() string { return a.source.Name() }

// DisplayName returns the human-facing name, defaulting to Name.
func (a *Activity) DisplayName() string {
	if a.displayName == "" {
		return a.Name()
	}

	return a.displayName
}

// SetDisplayName overrides the name reported to exporters.
func (a *Activity) SetDisplayName(name string) { a.displayName = name }

// Kind returns the activity kind.
func (a *Activity) Kind() Kind { return a.kind }

// SetKind sets the activity kind.
func (a *Activity) SetKind(k Kind) { a.kind = k }

// TraceID returns the trace id of the activity.
func (a *Activity) TraceID() TraceID { return a.traceID }

// SpanID returns the span id of the activity.
func (a *Activity) SpanID() SpanID { return a.spanID }

// Parent returns the parent context and whether the activity has one.
func (a *Activity) Parent() (ActivityContext, bool) { return a.parent, a.hasParent }

// TraceFlags returns the activity's trace flags.
func (a *Activity) TraceFlags() TraceFlags { return a.flags }

// IsRecorded reports whether a listener asked for this activity to be recorded.
func (a *Activity) IsRecorded() bool { return a.flags.IsRecorded() }

// SetRecorded sets or clears the Recorded flag.
func (a *Activity) SetRecorded(recorded bool) { a.flags = a.flags.WithRecorded(recorded) }

// Context returns the activity's own ActivityContext.
func (a *Activity) Context() ActivityContext {
	return ActivityContext{
		TraceID:    a.traceID,
		SpanID:     a.spanID,
		TraceFlags: a.flags,
		TraceState: a.parent.TraceState,
	}
}

// StartTime returns when the activity was materialized.
func (a *Activity) StartTime() time.Time { return a.startTime }

// EndTime returns the end time, or the zero time while running.
func (a *Activity) EndTime() time.Time { return a.endTime }

// SetEndTime sets an explicit end time. Scope.End keeps an explicit end time.
func (a *Activity) SetEndTime(t time.Time) { a.endTime = t }

// Duration returns EndTime-StartTime, or zero while the end time is unset.
func (a *Activity) Duration() time.Duration {
	if a.endTime.IsZero() {
		return 0
	}

	return a.endTime.Sub(a.startTime)
}

// IsStopped reports whether the owning scope has ended.
func (a *Activity) IsStopped() bool { return a.stopped }

// Tags returns the tags in insertion order. The slice must not be modified.
func (a *Activity) Tags() []Tag { return a.tags }

// Tag returns the value for key.
func (a *Activity) Tag(key string) (string, bool) {
	for _, t := range a.tags {
		if t.Key == key {
			return t.Value, true
		}
	}

	return "", false
}

// SetTag adds a tag or overwrites the value of an existing key.
func (a *Activity) SetTag(key, value string) {
	for i := range a.tags {
		if a.tags[i].Key == key {
			a.tags[i].Value = value
			return
		}
	}
	a.tags = append(a.tags, Tag{Key: key, Value: value})
}

// Links returns the linked contexts.
func (a *Activity) Links() []ActivityContext { return a.links }

// AddLink links another trace point to this activity.
func (a *Activity) AddLink(link ActivityContext) { a.links = append(a.links, link) }

// Status returns the recorded status.
func (a *Activity) Status() Status { return a.status }

// SetStatus records the outcome of the activity.
func (a *Activity) SetStatus(code StatusCode, description string) {
	a.status = Status{Code: code, Description: description}
}
