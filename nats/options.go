package nats

import (
	"github.com/arloliu/activity"
)

// options holds configuration for the instrumentation wrappers.
type options struct {
	namer       activity.DisplayNamer
	asyncScopes bool   // Enable scopes for async publish operations
	stream      string // Override stream name for display names and tags
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		namer:       activity.DefaultNamer{},
		asyncScopes: true,
	}
}

// Option configures the instrumentation wrappers.
type Option func(*options)

// WithNamer sets how "verb destination" operations become display names.
// Default: activity.DefaultNamer.
func WithNamer(n activity.DisplayNamer) Option {
	return func(o *options) {
		if n != nil {
			o.namer = n
		}
	}
}

// WithAsyncScopes enables or disables scopes and header injection for PublishAsync operations.
// When disabled, PublishAsync calls start no scopes and do not inject trace headers.
// Default is true.
func WithAsyncScopes(enabled bool) Option {
	return func(o *options) {
		o.asyncScopes = enabled
	}
}

// WithStream sets an explicit stream name for display names and tags.
// Use this when the stream name cannot be determined from message metadata,
// or to override the auto-detected stream name.
func WithStream(stream string) Option {
	return func(o *options) {
		o.stream = stream
	}
}

// applyOptions applies option functions to the default options.
func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return o
}
