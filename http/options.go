package http

import (
	"github.com/arloliu/activity"
)

type config struct {
	namer activity.DisplayNamer
}

// Option configures the middleware and the transport.
type Option func(*config)

// WithNamer sets how "METHOD /path" operations become display names.
// Default: activity.DefaultNamer.
func WithNamer(n activity.DisplayNamer) Option {
	return func(c *config) {
		c.namer = n
	}
}

func newConfig(opts []Option) config {
	cfg := config{namer: activity.DefaultNamer{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.namer == nil {
		cfg.namer = activity.DefaultNamer{}
	}

	return cfg
}
