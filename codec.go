package activity

import (
	"errors"
	"fmt"
)

// ErrMalformedHeader is returned when a traceparent does not match the
// version-traceid-spanid-flags layout.
var ErrMalformedHeader = errors.New("activity: malformed traceparent")

// ErrInvalidHexDigit is returned when a traceparent field contains a character
// that is not a lowercase hex digit.
var ErrInvalidHexDigit = errors.New("activity: invalid hex digit")

const (
	traceParentLen     = 55
	traceParentVersion = "00"

	versionEnd = 2
	traceStart = 3
	traceEnd   = traceStart + 32
	spanStart  = traceEnd + 1
	spanEnd    = spanStart + 16
	flagsStart = spanEnd + 1
)

const hexDigits = "0123456789abcdef"

// ParseTraceParent decodes a traceparent/tracestate header pair.
//
// The traceparent must be exactly "<2hex>-<32hex>-<16hex>-<2hex>" in lowercase hex.
// Version "ff" and all-zero trace or span ids are rejected as malformed.
// The tracestate is stored verbatim.
func ParseTraceParent(traceparent, tracestate string) (ActivityContext, error) {
	var ac ActivityContext

	if len(traceparent) != traceParentLen ||
		traceparent[versionEnd] != '-' ||
		traceparent[traceEnd] != '-' ||
		traceparent[spanEnd] != '-' {
		return ac, fmt.Errorf("%w: %q", ErrMalformedHeader, traceparent)
	}

	version, err := decodeHexByte(traceparent[0], traceparent[1])
	if err != nil {
		return ac, err
	}
	if version == 0xff {
		return ac, fmt.Errorf("%w: reserved version ff", ErrMalformedHeader)
	}

	if err := decodeHex(ac.TraceID[:], traceparent[traceStart:traceEnd]); err != nil {
		return ac, err
	}
	if err := decodeHex(ac.SpanID[:], traceparent[spanStart:spanEnd]); err != nil {
		return ac, err
	}

	flags, err := decodeHexByte(traceparent[flagsStart], traceparent[flagsStart+1])
	if err != nil {
		return ac, err
	}

	if !ac.TraceID.IsValid() {
		return ActivityContext{}, fmt.Errorf("%w: all-zero trace id", ErrMalformedHeader)
	}
	if !ac.SpanID.IsValid() {
		return ActivityContext{}, fmt.Errorf("%w: all-zero span id", ErrMalformedHeader)
	}

	ac.TraceFlags = TraceFlags(flags)
	ac.TraceState = TraceState(tracestate)

	return ac, nil
}

// FormatTraceParent encodes ac as a version 00 traceparent header value.
func FormatTraceParent(ac ActivityContext) string {
	var buf [traceParentLen]byte

	copy(buf[:versionEnd], traceParentVersion)
	buf[versionEnd] = '-'
	encodeHex(buf[traceStart:traceEnd], ac.TraceID[:])
	buf[traceEnd] = '-'
	encodeHex(buf[spanStart:spanEnd], ac.SpanID[:])
	buf[spanEnd] = '-'
	encodeHex(buf[flagsStart:], []byte{byte(ac.TraceFlags)})

	return string(buf[:])
}

// TraceParent returns the traceparent header value for the context.
func (c ActivityContext) TraceParent() string {
	return FormatTraceParent(c)
}

func decodeHex(dst []byte, src string) error {
	for i := range dst {
		b, err := decodeHexByte(src[2*i], src[2*i+1])
		if err != nil {
			return err
		}
		dst[i] = b
	}

	return nil
}

func decodeHexByte(hi, lo byte) (byte, error) {
	h, ok := fromHexChar(hi)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHexDigit, hi)
	}
	l, ok := fromHexChar(lo)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHexDigit, lo)
	}

	return h<<4 | l, nil
}

// fromHexChar accepts lowercase hex only, as trace-context requires.
func fromHexChar(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	}

	return 0, false
}

func encodeHex(dst, src []byte) {
	for i, b := range src {
		dst[2*i] = hexDigits[b>>4]
		dst[2*i+1] = hexDigits[b&0x0f]
	}
}
