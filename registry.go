package activity

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrDuplicateName is returned when a registry already holds a source with the same name.
var ErrDuplicateName = errors.New("activity: duplicate source name")

// SourceObserver is notified when sources join or leave a registry.
//
// Notifications run synchronously while the registry lock is held, so an
// observer must not call back into the same registry. Calling methods on the
// Source itself (AddListener, RemoveListener) is fine.
type SourceObserver interface {
	SourceAdded(r *Registry, s *Source)
	SourceRemoved(r *Registry, s *Source)
}

// ObserverFuncs adapts plain functions to SourceObserver. Nil funcs are skipped.
type ObserverFuncs struct {
	Added   func(r *Registry, s *Source)
	Removed func(r *Registry, s *Source)
}

// SourceAdded implements SourceObserver.
func (o ObserverFuncs) SourceAdded(r *Registry, s *Source) {
	if o.Added != nil {
		o.Added(r, s)
	}
}

// SourceRemoved implements SourceObserver.
func (o ObserverFuncs) SourceRemoved(r *Registry, s *Source) {
	if o.Removed != nil {
		o.Removed(r, s)
	}
}

type observerEntry struct {
	id       uint64
	observer SourceObserver
}

// Registry is a directory of sources keyed by name.
// Safe for concurrent use by multiple goroutines.
type Registry struct {
	mu        sync.Mutex
	sources   map[string]*Source
	observers []observerEntry
	nextID    uint64
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry used by NewSource.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// NewRegistry creates an empty, isolated registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]*Source),
	}
}

// Add registers s. It fails with ErrDuplicateName if the name is taken;
// the existing source stays registered.
func (r *Registry) Add(s *Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sources[s.name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, s.name)
	}
	r.sources[s.name] = s

	for _, e := range r.observers {
		e.observer.SourceAdded(r, s)
	}

	return nil
}

// Remove unregisters s. Removing an unknown source, or a different source
// with the same name, is a no-op.
func (r *Registry) Remove(s *Source) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.sources[s.name]; !ok || cur != s {
		return
	}
	delete(r.sources, s.name)

	for _, e := range r.observers {
		e.observer.SourceRemoved(r, s)
	}
}

// Get returns the source registered under name.
func (r *Registry) Get(name string) (*Source, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sources[name]

	return s, ok
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sources)
}

// Names returns the registered source names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	r.mu.Unlock()

	slices.Sort(names)

	return names
}

// ForEach calls fn for each source registered at the time of the call.
// fn runs without the registry lock held.
func (r *Registry) ForEach(fn func(*Source)) {
	r.mu.Lock()
	snapshot := make([]*Source, 0, len(r.sources))
	for _, s := range r.sources {
		snapshot = append(snapshot, s)
	}
	r.mu.Unlock()

	for _, s := range snapshot {
		fn(s)
	}
}

// Subscribe registers o for add/remove notifications and immediately reports
// every source already registered as added. Both happen under one lock, so a
// source registered concurrently is reported exactly once.
//
// The returned func unsubscribes o; it is safe to call more than once.
func (r *Registry) Subscribe(o SourceObserver) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	r.observers = append(r.observers, observerEntry{id: id, observer: o})

	for _, s := range r.sources {
		o.SourceAdded(r, s)
	}

	var once sync.Once

	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()

			r.observers = slices.DeleteFunc(r.observers, func(e observerEntry) bool {
				return e.id == id
			})
		})
	}
}
