package activity

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/zoobzio/clockz"
)

// Source is a named instrumentation point. Libraries create one Source per
// logical operation family and start scopes on it; listeners attach to sources
// to observe those scopes.
//
// Safe for concurrent use. Dispatch reads an immutable listener snapshot
// without locking, so a Source with no listeners costs one atomic load per
// scope transition.
type Source struct {
	name    string
	version string
	clock   clockz.Clock

	listeners atomic.Pointer[[]Listener]

	mu       sync.Mutex // guards registry, closed and listener mutation
	registry *Registry
	closed   bool
}

type sourceConfig struct {
	registry *Registry
	version  string
	clock    clockz.Clock
}

// SourceOption configures a Source.
type SourceOption func(*sourceConfig)

// WithRegistry registers the source in r instead of the default registry.
// A nil registry leaves the source unregistered.
func WithRegistry(r *Registry) SourceOption {
	return func(c *sourceConfig) {
		c.registry = r
	}
}

// WithVersion sets the instrumentation version reported by the source.
func WithVersion(version string) SourceOption {
	return func(c *sourceConfig) {
		c.version = version
	}
}

// WithClock sets the clock used for activity timestamps.
func WithClock(clock clockz.Clock) SourceOption {
	return func(c *sourceConfig) {
		c.clock = clock
	}
}

// NewSource creates a Source and registers it.
//
// Returns an error wrapping ErrDuplicateName if the registry already holds a
// source with the same name; the returned source is nil in that case.
func NewSource(name string, opts ...SourceOption) (*Source, error) {
	cfg := sourceConfig{
		registry: DefaultRegistry(),
		clock:    clockz.RealClock,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.clock == nil {
		cfg.clock = clockz.RealClock
	}

	s := &Source{
		name:     name,
		version:  cfg.version,
		clock:    cfg.clock,
		registry: cfg.registry,
	}

	if cfg.registry != nil {
		if err := cfg.registry.Add(s); err != nil {
			s.mu.Lock()
			s.registry = nil
			s.closed = true
			s.mu.Unlock()

			return nil, err
		}
	}

	return s, nil
}

// MustNewSource is like NewSource but panics on error.
// Use for package-level sources whose names are known to be unique.
func MustNewSource(name string, opts ...SourceOption) *Source {
	s, err := NewSource(name, opts...)
	if err != nil {
		panic(err)
	}

	return s
}

// Name returns the source name.
func (s *Source) Name() string { return s.name }

// Version returns the instrumentation version, if any.
func (s *Source) Version() string { return s.version }

// Registry returns the registry the source belongs to, or nil after Close.
func (s *Source) Registry() *Registry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.registry
}

// HasListeners reports whether any listener is attached.
func (s *Source) HasListeners() bool {
	ls := s.listeners.Load()
	return ls != nil && len(*ls) > 0
}

// Listeners returns the current listener snapshot.
func (s *Source) Listeners() []Listener {
	ls := s.listeners.Load()
	if ls == nil {
		return nil
	}

	return slices.Clone(*ls)
}

// AddListener attaches l. Adding an attached listener is a no-op, as is
// adding to a closed source. Listeners are compared with ==, so they must be
// comparable (typically pointers).
func (s *Source) AddListener(l Listener) {
	if l == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	var cur []Listener
	if ls := s.listeners.Load(); ls != nil {
		cur = *ls
	}
	if slices.Contains(cur, l) {
		return
	}

	next := make([]Listener, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, l)
	s.listeners.Store(&next)
}

// RemoveListener detaches l. Scopes started after RemoveListener returns are
// not dispatched to l.
func (s *Source) RemoveListener(l Listener) {
	if l == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	ls := s.listeners.Load()
	if ls == nil {
		return
	}
	i := slices.Index(*ls, l)
	if i < 0 {
		return
	}

	if len(*ls) == 1 {
		s.listeners.Store(nil)
		return
	}
	next := slices.Delete(slices.Clone(*ls), i, i+1)
	s.listeners.Store(&next)
}

// Close unregisters the source and drops its listeners. Later scopes are
// dispatched to nobody. Close is idempotent.
func (s *Source) Close() {
	s.mu.Lock()
	reg := s.registry
	s.registry = nil
	s.closed = true
	s.listeners.Store(nil)
	s.mu.Unlock()

	// Removal notifies observers, which may call back into RemoveListener.
	if reg != nil {
		reg.Remove(s)
	}
}

// StartOption configures a scope at start.
type StartOption func(*Scope)

// WithKind sets the kind the activity will report.
func WithKind(k Kind) StartOption {
	return func(s *Scope) {
		s.kind = k
	}
}

// WithLinks links other trace points to the activity.
func WithLinks(links ...ActivityContext) StartOption {
	return func(s *Scope) {
		s.links = append(s.links, links...)
	}
}

// Start begins a scope whose parent is the ambient current scope of ctx, if any.
//
// The returned context carries the scope; pass it to nested operations.
// Always End the scope, typically with defer.
func (s *Source) Start(ctx context.Context, opts ...StartOption) (context.Context, *Scope) {
	return s.start(ctx, &Scope{source: s, mode: parentAmbient}, opts)
}

// StartWithParent begins a scope with an explicit parent. An invalid parent
// makes the scope a trace root.
func (s *Source) StartWithParent(
	ctx context.Context,
	parent ActivityContext,
	opts ...StartOption,
) (context.Context, *Scope) {
	scope := &Scope{source: s, mode: parentExplicit}
	if parent.IsValid() {
		scope.parent = parent
		scope.hasParent = true
	}

	return s.start(ctx, scope, opts)
}

// StartWithResolver begins a scope whose parent is produced by resolver(param)
// the first time it is needed. If the resolver reports no parent, the ambient
// scope of ctx is used.
func (s *Source) StartWithResolver(
	ctx context.Context,
	resolver ParentResolver,
	param any,
	opts ...StartOption,
) (context.Context, *Scope) {
	scope := &Scope{source: s, mode: parentAmbient}
	if resolver != nil {
		scope.mode = parentResolved
		scope.resolver = resolver
		scope.param = param
	}

	return s.start(ctx, scope, opts)
}

func (s *Source) start(ctx context.Context, scope *Scope, opts []StartOption) (context.Context, *Scope) {
	if ctx == nil {
		ctx = context.Background()
	}
	for _, opt := range opts {
		opt(scope)
	}

	scope.outer = ScopeFromContext(ctx)
	scope.ambient = currentFrom(scope.outer)
	ctx = ContextWithScope(ctx, scope)
	s.dispatchStart(scope)

	return ctx, scope
}

func (s *Source) dispatchStart(scope *Scope) {
	ls := s.listeners.Load()
	if ls == nil {
		return
	}
	for _, l := range *ls {
		l.OnScopeStarted(s, scope)
	}
}

func (s *Source) dispatchStop(scope *Scope) {
	ls := s.listeners.Load()
	if ls == nil {
		return
	}
	for _, l := range *ls {
		l.OnScopeStopped(s, scope)
	}
}
