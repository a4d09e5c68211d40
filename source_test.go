package activity

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
)

func TestNewSourceRegisters(t *testing.T) {
	reg := NewRegistry()

	src, err := NewSource("svc.db", WithRegistry(reg), WithVersion("1.2.0"))
	require.NoError(t, err)
	assert.Equal(t, "svc.db", src.Name())
	assert.Equal(t, "1.2.0", src.Version())
	assert.Same(t, reg, src.Registry())

	got, ok := reg.Get("svc.db")
	require.True(t, ok)
	assert.Same(t, src, got)
}

func TestNewSourceDuplicateName(t *testing.T) {
	reg := NewRegistry()

	first, err := NewSource("dup", WithRegistry(reg))
	require.NoError(t, err)

	second, err := NewSource("dup", WithRegistry(reg))
	require.ErrorIs(t, err, ErrDuplicateName)
	assert.Nil(t, second)

	got, _ := reg.Get("dup")
	assert.Same(t, first, got)

	assert.Panics(t, func() {
		MustNewSource("dup", WithRegistry(reg))
	})
}

func TestNewSourceDefaultRegistry(t *testing.T) {
	src := MustNewSource("activity.test.default-registry")
	t.Cleanup(src.Close)

	got, ok := DefaultRegistry().Get("activity.test.default-registry")
	require.True(t, ok)
	assert.Same(t, src, got)
}

func TestSourceWithoutListeners(t *testing.T) {
	src := newBareSource(t, "quiet")
	assert.False(t, src.HasListeners())
	assert.Nil(t, src.Listeners())

	_, scope := src.Start(context.Background())
	scope.End()
	assert.False(t, scope.IsMaterialized())
}

func TestSourceAddRemoveListener(t *testing.T) {
	src := newBareSource(t, "listeners")
	a := &eventLog{}
	b := &eventLog{}

	src.AddListener(a)
	src.AddListener(a)
	src.AddListener(b)
	src.AddListener(nil)
	assert.True(t, src.HasListeners())
	assert.Equal(t, []Listener{a, b}, src.Listeners())

	_, scope := src.Start(context.Background())
	scope.End()
	assert.Equal(t, []string{"start listeners", "stop listeners"}, a.all())
	assert.Equal(t, []string{"start listeners", "stop listeners"}, b.all())

	src.RemoveListener(a)
	src.RemoveListener(a)
	src.RemoveListener(nil)
	assert.Equal(t, []Listener{b}, src.Listeners())

	_, scope = src.Start(context.Background())
	scope.End()
	assert.Len(t, a.all(), 2)
	assert.Len(t, b.all(), 4)

	src.RemoveListener(b)
	assert.False(t, src.HasListeners())
}

func TestSourceListenersSnapshot(t *testing.T) {
	src := newBareSource(t, "snapshot")
	src.AddListener(&eventLog{})

	snapshot := src.Listeners()
	snapshot[0] = nil
	assert.NotNil(t, src.Listeners()[0])
}

func TestSourceListenerRemovedMidScope(t *testing.T) {
	src := newBareSource(t, "mid")
	log := &eventLog{}
	src.AddListener(log)

	_, scope := src.Start(context.Background())
	src.RemoveListener(log)
	scope.End()

	// Stop goes to whoever is attached when the scope ends.
	assert.Equal(t, []string{"start mid"}, log.all())
}

func TestSourceClose(t *testing.T) {
	reg := NewRegistry()
	src, err := NewSource("closing", WithRegistry(reg))
	require.NoError(t, err)
	log := &eventLog{}
	src.AddListener(log)

	src.Close()
	src.Close()

	assert.Nil(t, src.Registry())
	assert.False(t, src.HasListeners())
	_, ok := reg.Get("closing")
	assert.False(t, ok)

	src.AddListener(log)
	assert.False(t, src.HasListeners())

	_, scope := src.Start(context.Background())
	scope.End()
	assert.Empty(t, log.all())

	// The name is free again.
	_, err = NewSource("closing", WithRegistry(reg))
	require.NoError(t, err)
}

func TestSourceDispatchOrder(t *testing.T) {
	src := newBareSource(t, "order")

	var mu sync.Mutex
	var order []string
	for _, name := range []string{"first", "second"} {
		src.AddListener(&ListenerFuncs{
			Started: func(*Source, *Scope) {
				mu.Lock()
				order = append(order, name+" start")
				mu.Unlock()
			},
			Stopped: func(*Source, *Scope) {
				mu.Lock()
				order = append(order, name+" stop")
				mu.Unlock()
			},
		})
	}
	src.AddListener(&ListenerFuncs{})

	_, scope := src.Start(context.Background())
	scope.End()

	assert.Equal(t, []string{"first start", "second start", "first stop", "second stop"}, order)
}

func TestSourceConcurrentDispatch(t *testing.T) {
	src := newBareSource(t, "concurrent")

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 200 {
				_, scope := src.Start(context.Background())
				scope.End()
			}
		}()
		go func() {
			defer wg.Done()
			for range 50 {
				l := &eventLog{}
				src.AddListener(l)
				src.RemoveListener(l)
			}
		}()
	}
	wg.Wait()

	assert.False(t, src.HasListeners())
}

func TestUnobservedScopeAllocations(t *testing.T) {
	src := newBareSource(t, "unobserved")
	ctx := context.Background()
	carrier := propagation.MapCarrier{TraceParentHeader: sampleTraceParent}

	// The scope and the context value are the only allocations.
	allocs := testing.AllocsPerRun(100, func() {
		_, scope := src.Start(ctx)
		scope.SetTag("key", "value")
		scope.End()
	})
	assert.LessOrEqual(t, allocs, 2.0)

	allocs = testing.AllocsPerRun(100, func() {
		_, scope := src.StartWithResolver(ctx, CarrierResolver, carrier)
		scope.SetStatus(nil)
		scope.End()
	})
	assert.LessOrEqual(t, allocs, 2.0)
}

func BenchmarkStartEndUnobserved(b *testing.B) {
	src, err := NewSource("bench", WithRegistry(nil))
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()

	b.Run("no-listeners", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_, scope := src.Start(ctx)
			scope.SetTag("key", "value")
			scope.End()
		}
	})

	b.Run("idle-listener", func(b *testing.B) {
		src.AddListener(&ListenerFuncs{})
		defer src.Close()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_, scope := src.Start(ctx)
			scope.SetTag("key", "value")
			scope.End()
		}
	})
}
