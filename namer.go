package activity

// DisplayNamer turns an operation into the display name of an activity.
// The instrumentation packages accept one to customize the names they report.
type DisplayNamer interface {
	Name(operation string) string
}

// NamerFunc adapts a function to DisplayNamer.
type NamerFunc func(operation string) string

// Name implements DisplayNamer.
func (f NamerFunc) Name(operation string) string { return f(operation) }

// DefaultNamer returns operation names unchanged, following the OTel naming
// conventions that leave service prefixes out of span names.
type DefaultNamer struct{}

// Name returns the operation name as is.
func (DefaultNamer) Name(operation string) string {
	return operation
}

// NameHTTP returns the display name of an HTTP request: "METHOD /route".
// Example: "GET /users/{id}"
func NameHTTP(method, route string) string {
	return method + " " + route
}

// NameRPC returns the display name of an RPC call: "Service/Method".
// Example: "Greeter/SayHello"
func NameRPC(service, method string) string {
	return service + "/" + method
}

// NameMessaging returns the display name of a messaging operation: "verb destination".
// Example: "publish orders"
func NameMessaging(verb, destination string) string {
	return verb + " " + destination
}

// NameDB returns the display name of a database operation: "verb table".
// Example: "SELECT users"
func NameDB(verb, table string) string {
	return verb + " " + table
}
