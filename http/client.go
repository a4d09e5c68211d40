package http

import (
	"net/http"
	"time"

	"github.com/arloliu/activity"
)

type clientConfig struct {
	timeout             time.Duration
	maxIdleConnsPerHost int
	base                http.RoundTripper
	scopeOpts           []Option
}

// ClientOption configures NewClient.
type ClientOption func(*clientConfig)

// WithTimeout sets http.Client.Timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) { c.timeout = d }
}

// WithMaxIdleConnsPerHost sets the idle pool size per host. It only applies
// when the base round tripper is an *http.Transport.
func WithMaxIdleConnsPerHost(n int) ClientOption {
	return func(c *clientConfig) { c.maxIdleConnsPerHost = n }
}

// WithTransport sets the round tripper the client scopes wrap.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *clientConfig) { c.base = rt }
}

// WithScopeOptions passes opts to the client's Transport.
func WithScopeOptions(opts ...Option) ClientOption {
	return func(c *clientConfig) { c.scopeOpts = append(c.scopeOpts, opts...) }
}

// NewClient creates an http.Client whose requests run in client scopes
// started on source.
//
//	client := activityhttp.NewClient(src, activityhttp.WithTimeout(30*time.Second))
func NewClient(source *activity.Source, opts ...ClientOption) *http.Client {
	cfg := &clientConfig{base: http.DefaultTransport}
	for _, opt := range opts {
		opt(cfg)
	}

	return &http.Client{
		Transport: NewTransport(baseTransport(cfg), source, cfg.scopeOpts...),
		Timeout:   cfg.timeout,
	}
}

// baseTransport clones an *http.Transport base before tuning it, so the
// shared http.DefaultTransport is never mutated. Other round trippers are
// returned as is.
func baseTransport(cfg *clientConfig) http.RoundTripper {
	if cfg.maxIdleConnsPerHost <= 0 {
		return cfg.base
	}
	t, ok := cfg.base.(*http.Transport)
	if !ok {
		return cfg.base
	}
	t = t.Clone()
	t.MaxIdleConnsPerHost = cfg.maxIdleConnsPerHost

	return t
}
