package http

import (
	"net/http"

	"github.com/arloliu/activity"

	"go.opentelemetry.io/otel/propagation"
)

// Transport is an http.RoundTripper that wraps each request in a client scope
// and propagates the scope's trace context in the request headers.
type Transport struct {
	base   http.RoundTripper
	source *activity.Source
	cfg    config
}

// NewTransport wraps base. If base is nil, http.DefaultTransport is used.
//
// Usage:
//
//	client := &http.Client{
//	    Transport: activityhttp.NewTransport(http.DefaultTransport, src),
//	}
func NewTransport(base http.RoundTripper, source *activity.Source, opts ...Option) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}

	return &Transport{base: base, source: source, cfg: newConfig(opts)}
}

// RoundTrip implements http.RoundTripper. The scope ends when the response
// headers arrive.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, scope := t.source.Start(req.Context(), activity.WithKind(activity.KindClient))
	defer scope.End()

	if scope.IsMaterialized() {
		scope.SetDisplayName(t.cfg.namer.Name(activity.NameHTTP(req.Method, req.URL.Path)))
		scope.SetTag("http.request.method", req.Method)
		scope.SetTag("server.address", req.URL.Host)
	}

	// A RoundTripper must not modify the caller's request.
	out := req.Clone(ctx)
	activity.Inject(ctx, propagation.HeaderCarrier(out.Header))

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		scope.SetStatus(err)
		return nil, err
	}
	recordStatus(scope, resp.StatusCode)

	return resp, nil
}
