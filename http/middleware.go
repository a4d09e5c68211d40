package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/arloliu/activity"

	"go.opentelemetry.io/otel/propagation"
)

// Middleware returns middleware that wraps each request in a server scope
// started on source.
//
// The parent is read lazily from the inbound traceparent header; when the
// request carries none, the ambient scope of the request context is used.
// Responses with a 5xx status mark the activity as failed.
//
// Usage:
//
//	src := activity.MustNewSource("api.server")
//	http.Handle("/api", activityhttp.Middleware(src)(myHandler))
func Middleware(source *activity.Source, opts ...Option) func(http.Handler) http.Handler {
	cfg := newConfig(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, scope := source.StartWithResolver(r.Context(),
				activity.CarrierResolver, propagation.HeaderCarrier(r.Header),
				activity.WithKind(activity.KindServer),
			)
			defer scope.End()

			if scope.IsMaterialized() {
				scope.SetDisplayName(cfg.namer.Name(activity.NameHTTP(r.Method, r.URL.Path)))
				scope.SetTag("http.request.method", r.Method)
				scope.SetTag("url.path", r.URL.Path)
			}

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r.WithContext(ctx))

			recordStatus(scope, sw.status)
		})
	}
}

// Handler wraps handler with Middleware(source, opts...).
func Handler(handler http.Handler, source *activity.Source, opts ...Option) http.Handler {
	return Middleware(source, opts...)(handler)
}

func recordStatus(scope *activity.Scope, status int) {
	if !scope.IsMaterialized() {
		return
	}
	scope.SetTag("http.response.status_code", strconv.Itoa(status))
	if status >= http.StatusInternalServerError {
		scope.SetStatus(fmt.Errorf("%d %s", status, http.StatusText(status)))
		return
	}
	scope.SetStatus(nil)
}

// statusWriter captures the status code written by the wrapped handler.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
