package activity

// Listener observes the scopes of the sources it is attached to.
//
// Callbacks run synchronously on the goroutine that starts or ends the scope.
// The core does not recover panics raised by a listener; they propagate to
// the caller of Start or End.
type Listener interface {
	// OnScopeStarted runs when a scope starts. The listener may read the
	// scope's ids or materialize it.
	OnScopeStarted(src *Source, s *Scope)
	// OnScopeStopped runs when a scope ends.
	OnScopeStopped(src *Source, s *Scope)
}

// ListenerFuncs adapts plain functions to Listener. Nil funcs are skipped.
// Use a pointer so the listener is comparable: &ListenerFuncs{...}.
type ListenerFuncs struct {
	Started func(src *Source, s *Scope)
	Stopped func(src *Source, s *Scope)
}

// OnScopeStarted implements Listener.
func (l *ListenerFuncs) OnScopeStarted(src *Source, s *Scope) {
	if l.Started != nil {
		l.Started(src, s)
	}
}

// OnScopeStopped implements Listener.
func (l *ListenerFuncs) OnScopeStopped(src *Source, s *Scope) {
	if l.Stopped != nil {
		l.Stopped(src, s)
	}
}
