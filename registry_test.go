package activity

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observedEvents struct {
	mu      sync.Mutex
	added   []string
	removed []string
}

func (o *observedEvents) observer() ObserverFuncs {
	return ObserverFuncs{
		Added: func(_ *Registry, s *Source) {
			o.mu.Lock()
			o.added = append(o.added, s.Name())
			o.mu.Unlock()
		},
		Removed: func(_ *Registry, s *Source) {
			o.mu.Lock()
			o.removed = append(o.removed, s.Name())
			o.mu.Unlock()
		},
	}
}

func TestRegistryAddGetRemove(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, 0, reg.Len())

	a, err := NewSource("b.source", WithRegistry(reg))
	require.NoError(t, err)
	_, err = NewSource("a.source", WithRegistry(reg))
	require.NoError(t, err)

	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, []string{"a.source", "b.source"}, reg.Names())

	got, ok := reg.Get("b.source")
	require.True(t, ok)
	assert.Same(t, a, got)
	_, ok = reg.Get("missing")
	assert.False(t, ok)

	reg.Remove(a)
	assert.Equal(t, []string{"a.source"}, reg.Names())
	reg.Remove(a)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryAddDuplicate(t *testing.T) {
	reg := NewRegistry()
	first := newBareSource(t, "same")
	second := newBareSource(t, "same")

	require.NoError(t, reg.Add(first))
	err := reg.Add(second)
	require.ErrorIs(t, err, ErrDuplicateName)
	assert.Contains(t, err.Error(), `"same"`)

	// Removing a different instance with the same name is ignored.
	reg.Remove(second)
	got, ok := reg.Get("same")
	require.True(t, ok)
	assert.Same(t, first, got)
}

func TestRegistryForEach(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"x", "y", "z"} {
		_, err := NewSource(name, WithRegistry(reg))
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	reg.ForEach(func(s *Source) {
		seen[s.Name()] = true
		// The lock is not held, so the callback may use the registry.
		_, _ = reg.Get(s.Name())
	})
	assert.Equal(t, map[string]bool{"x": true, "y": true, "z": true}, seen)
}

func TestRegistrySubscribeReplaysExisting(t *testing.T) {
	reg := NewRegistry()
	early, err := NewSource("early", WithRegistry(reg))
	require.NoError(t, err)

	events := &observedEvents{}
	unsubscribe := reg.Subscribe(events.observer())
	assert.Equal(t, []string{"early"}, events.added)

	late, err := NewSource("late", WithRegistry(reg))
	require.NoError(t, err)
	assert.Equal(t, []string{"early", "late"}, events.added)

	late.Close()
	assert.Equal(t, []string{"late"}, events.removed)

	unsubscribe()
	unsubscribe()

	early.Close()
	_, err = NewSource("after", WithRegistry(reg))
	require.NoError(t, err)
	assert.Equal(t, []string{"early", "late"}, events.added)
	assert.Equal(t, []string{"late"}, events.removed)
}

func TestRegistryDuplicateNotNotified(t *testing.T) {
	reg := NewRegistry()
	events := &observedEvents{}
	reg.Subscribe(events.observer())

	_, err := NewSource("once", WithRegistry(reg))
	require.NoError(t, err)
	_, err = NewSource("once", WithRegistry(reg))
	require.Error(t, err)

	assert.Equal(t, []string{"once"}, events.added)
}

func TestRegistryObserverFuncsNil(t *testing.T) {
	reg := NewRegistry()
	reg.Subscribe(ObserverFuncs{})

	src, err := NewSource("nil-funcs", WithRegistry(reg))
	require.NoError(t, err)
	src.Close()
}

func TestRegistryIsolation(t *testing.T) {
	a := NewRegistry()
	b := NewRegistry()

	_, err := NewSource("shared", WithRegistry(a))
	require.NoError(t, err)
	_, err = NewSource("shared", WithRegistry(b))
	require.NoError(t, err)

	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 1, b.Len())
	assert.NotSame(t, a, DefaultRegistry())
}

func TestRegistryConcurrentSubscribe(t *testing.T) {
	reg := NewRegistry()

	var mu sync.Mutex
	counts := map[string]int{}
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		reg.Subscribe(ObserverFuncs{Added: func(_ *Registry, s *Source) {
			mu.Lock()
			counts[s.Name()]++
			mu.Unlock()
		}})
	}()

	names := []string{"c0", "c1", "c2", "c3", "c4", "c5", "c6", "c7"}
	for _, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := NewSource(name, WithRegistry(reg))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Each source is reported exactly once, whether by replay or by notification.
	for _, name := range names {
		assert.Equal(t, 1, counts[name], name)
	}
}
