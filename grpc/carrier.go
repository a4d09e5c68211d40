package grpc

import (
	"google.golang.org/grpc/metadata"
)

// metadataCarrier adapts gRPC metadata to propagation.TextMapCarrier.
// Metadata keys are lowercase, which matches the traceparent header names.
type metadataCarrier metadata.MD

func (c metadataCarrier) Get(key string) string {
	values := metadata.MD(c).Get(key)
	if len(values) == 0 {
		return ""
	}

	return values[0]
}

func (c metadataCarrier) Set(key, value string) {
	metadata.MD(c).Set(key, value)
}

func (c metadataCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}

	return keys
}
