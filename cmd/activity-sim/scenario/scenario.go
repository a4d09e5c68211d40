// Package scenario defines the operation trees replayed by the activity simulator.
package scenario

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/arloliu/activity"

	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Scenario is a named tree of operations. Each run of a scenario produces one trace.
type Scenario struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Root        Operation `yaml:"root"`
}

// Operation is one instrumented step. It runs as a scope on the activity
// source named by Source, then runs its children inside that scope.
type Operation struct {
	Source   string            `yaml:"source"`
	Name     string            `yaml:"name"`
	Kind     Kind              `yaml:"kind"`
	Duration Duration          `yaml:"duration"`
	Tags     map[string]string `yaml:"tags,omitempty"`
	Children []Operation       `yaml:"children,omitempty"`

	// Repeat runs the operation this many times in a row. Zero means once.
	Repeat int `yaml:"repeat,omitempty"`

	// Error simulation
	ErrorRate   float64 `yaml:"errorRate,omitempty"`   // 0.0-1.0
	ErrorStatus string  `yaml:"errorStatus,omitempty"` // Error message when triggered
}

// Times returns how many times the operation runs.
func (o Operation) Times() int {
	if o.Repeat < 1 {
		return 1
	}

	return o.Repeat
}

// Kind is the activity kind of an operation, spelled in upper case in YAML.
type Kind string

const (
	KindServer   Kind = "SERVER"
	KindClient   Kind = "CLIENT"
	KindProducer Kind = "PRODUCER"
	KindConsumer Kind = "CONSUMER"
	KindInternal Kind = "INTERNAL"
)

// Activity converts k to an activity.Kind. Unknown kinds are internal.
func (k Kind) Activity() activity.Kind {
	switch k {
	case KindServer:
		return activity.KindServer
	case KindClient:
		return activity.KindClient
	case KindProducer:
		return activity.KindProducer
	case KindConsumer:
		return activity.KindConsumer
	default:
		return activity.KindInternal
	}
}

// Duration is a wrapper for time.Duration that supports YAML parsing.
type Duration time.Duration

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)

	return nil
}

// AsDuration converts Duration to time.Duration.
func (d Duration) AsDuration() time.Duration {
	return time.Duration(d)
}

// Sources returns the distinct source names used by the scenario, in
// depth-first order.
func (s *Scenario) Sources() []string {
	var names []string
	s.Root.walk(func(o *Operation) {
		if !slices.Contains(names, o.Source) {
			names = append(names, o.Source)
		}
	})

	return names
}

// Count returns how many operations one run of the scenario produces,
// counting repeats.
func (s *Scenario) Count() int {
	return s.Root.count()
}

func (o *Operation) count() int {
	n := 1
	for i := range o.Children {
		n += o.Children[i].count()
	}

	return n * o.Times()
}

func (o *Operation) walk(fn func(*Operation)) {
	fn(o)
	for i := range o.Children {
		o.Children[i].walk(fn)
	}
}

// ErrInvalidScenario is returned by Validate.
var ErrInvalidScenario = errors.New("invalid scenario")

// Validate checks that the scenario can be run.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidScenario)
	}

	var errs []error
	s.Root.walk(func(o *Operation) {
		label := o.Name
		if label == "" {
			label = o.Source
		}
		if o.Source == "" {
			errs = append(errs, fmt.Errorf("%w: operation %q has no source", ErrInvalidScenario, label))
		}
		if o.ErrorRate < 0 || o.ErrorRate > 1 {
			errs = append(errs, fmt.Errorf("%w: operation %q error rate %g out of range", ErrInvalidScenario, label, o.ErrorRate))
		}
		if o.Duration < 0 {
			errs = append(errs, fmt.Errorf("%w: operation %q has a negative duration", ErrInvalidScenario, label))
		}
	})

	return errors.Join(errs...)
}

// Registry holds all available scenarios.
var Registry = map[string]*Scenario{}

func init() {
	// Register embedded scenarios
	Register(PaymentScenario())
	Register(EdgeIoTScenario())
	Register(EcommerceScenario())
	Register(HealthCheckScenario())
	Register(NoisyScenario())
}

// Register adds a scenario to the registry.
func Register(s *Scenario) {
	Registry[s.Name] = s
}

// Get retrieves a scenario by name.
func Get(name string) (*Scenario, bool) {
	s, ok := Registry[name]
	return s, ok
}

// List returns all available scenario names in sorted order.
func List() []string {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

// HTTPServerTags returns semantic convention tags for an HTTP server operation.
func HTTPServerTags(method, route, path string, statusCode int) map[string]string {
	return map[string]string{
		string(semconv.HTTPRequestMethodKey):      method,
		string(semconv.HTTPRouteKey):              route,
		string(semconv.URLPathKey):                path,
		string(semconv.HTTPResponseStatusCodeKey): strconv.Itoa(statusCode),
	}
}

// HTTPClientTags returns semantic convention tags for an HTTP client operation.
func HTTPClientTags(method, url string, statusCode int) map[string]string {
	return map[string]string{
		string(semconv.HTTPRequestMethodKey):      method,
		string(semconv.URLFullKey):                url,
		string(semconv.HTTPResponseStatusCodeKey): strconv.Itoa(statusCode),
	}
}

// RPCTags returns semantic convention tags for an RPC operation.
func RPCTags(system, service, method string) map[string]string {
	return map[string]string{
		string(semconv.RPCSystemKey):  system,
		string(semconv.RPCServiceKey): service,
		string(semconv.RPCMethodKey):  method,
	}
}

// DBTags returns semantic convention tags for a database operation.
func DBTags(system, name, statement string) map[string]string {
	return map[string]string{
		string(semconv.DBSystemKey):    system,
		string(semconv.DBNamespaceKey): name,
		string(semconv.DBQueryTextKey): statement,
	}
}

// MessagingTags returns semantic convention tags for a messaging operation.
func MessagingTags(system, destination, operation string) map[string]string {
	return map[string]string{
		string(semconv.MessagingSystemKey):          system,
		string(semconv.MessagingDestinationNameKey): destination,
		string(semconv.MessagingOperationNameKey):   operation,
	}
}

// with returns tags merged with extra key/value pairs.
func with(tags map[string]string, kv ...string) map[string]string {
	for i := 0; i+1 < len(kv); i += 2 {
		tags[kv[i]] = kv[i+1]
	}

	return tags
}
