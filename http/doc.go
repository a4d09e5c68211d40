// Package http instruments net/http servers and clients with activity scopes.
//
// # HTTP Server
//
// Wrap handlers with Middleware. Each request runs in a server scope whose
// parent comes from the inbound traceparent header:
//
//	src := activity.MustNewSource("api.server")
//	http.Handle("/api", activityhttp.Middleware(src)(myHandler))
//
// # HTTP Client
//
// Create an instrumented HTTP client. Each request runs in a client scope and
// carries its trace context downstream:
//
//	client := activityhttp.NewClient(activity.MustNewSource("api.client"),
//	    activityhttp.WithTimeout(30 * time.Second),
//	)
//
//	resp, err := client.Get("https://example.com")
package http
