package activity

import (
	"encoding/binary"
	"encoding/hex"
	"math/rand/v2"
)

// TraceID identifies a whole trace. It is shared by every scope of the trace.
type TraceID [16]byte

// SpanID identifies a single scope instance.
type SpanID [8]byte

// TraceFlags is the trace-context flags bitset.
type TraceFlags byte

// FlagsRecorded marks a scope whose data is recorded for export.
const FlagsRecorded TraceFlags = 0x01

// TraceState is an opaque vendor string. It is propagated verbatim and never parsed.
type TraceState string

var (
	zeroTraceID TraceID
	zeroSpanID  SpanID
)

// IsValid reports whether the trace id is non-zero.
func (t TraceID) IsValid() bool {
	return t != zeroTraceID
}

// String returns the lowercase hex encoding of the trace id.
func (t TraceID) String() string {
	return hex.EncodeToString(t[:])
}

// IsValid reports whether the span id is non-zero.
func (s SpanID) IsValid() bool {
	return s != zeroSpanID
}

// String returns the lowercase hex encoding of the span id.
func (s SpanID) String() string {
	return hex.EncodeToString(s[:])
}

// IsRecorded reports whether the Recorded bit is set.
func (f TraceFlags) IsRecorded() bool {
	return f&FlagsRecorded == FlagsRecorded
}

// WithRecorded returns f with the Recorded bit set or cleared.
func (f TraceFlags) WithRecorded(recorded bool) TraceFlags {
	if recorded {
		return f | FlagsRecorded
	}

	return f &^ FlagsRecorded
}

// ActivityContext is an immutable snapshot of a point in a trace,
// used as the parent of new scopes and as the unit of propagation.
type ActivityContext struct {
	TraceID    TraceID
	SpanID     SpanID
	TraceFlags TraceFlags
	TraceState TraceState
}

// NewActivityContext builds an ActivityContext from its parts.
func NewActivityContext(traceID TraceID, spanID SpanID, flags TraceFlags, state TraceState) ActivityContext {
	return ActivityContext{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: flags,
		TraceState: state,
	}
}

// IsValid reports whether both ids are non-zero.
func (c ActivityContext) IsValid() bool {
	return c.TraceID.IsValid() && c.SpanID.IsValid()
}

// IsRecorded reports whether the context carries the Recorded flag.
func (c ActivityContext) IsRecorded() bool {
	return c.TraceFlags.IsRecorded()
}

// newTraceID returns a random, non-zero trace id.
func newTraceID() TraceID {
	var id TraceID
	for !id.IsValid() {
		binary.BigEndian.PutUint64(id[:8], rand.Uint64()) //nolint:gosec // ids need uniqueness, not secrecy
		binary.BigEndian.PutUint64(id[8:], rand.Uint64()) //nolint:gosec // ids need uniqueness, not secrecy
	}

	return id
}

// newSpanID returns a random, non-zero span id.
func newSpanID() SpanID {
	var id SpanID
	for !id.IsValid() {
		binary.BigEndian.PutUint64(id[:], rand.Uint64()) //nolint:gosec // ids need uniqueness, not secrecy
	}

	return id
}
