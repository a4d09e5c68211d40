package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestSamplingListenerDefaults(t *testing.T) {
	l, err := NewSamplingListener(WithNameFilter(nil), WithSampler(nil))
	require.NoError(t, err)
	assert.Equal(t, "ParentBased{root:AlwaysOnSampler}", l.Sampler().Description())
	assert.Empty(t, l.Sources())
}

func TestSamplingListenerAttachesExistingAndLateSources(t *testing.T) {
	reg := NewRegistry()
	early, err := NewSource("early", WithRegistry(reg))
	require.NoError(t, err)

	l, err := NewSamplingListener()
	require.NoError(t, err)
	l.Attach(reg)
	defer l.Close()

	late, err := NewSource("late", WithRegistry(reg))
	require.NoError(t, err)

	assert.Equal(t, []Listener{l}, early.Listeners())
	assert.Equal(t, []Listener{l}, late.Listeners())
	assert.ElementsMatch(t, []*Source{early, late}, l.Sources())

	late.Close()
	assert.ElementsMatch(t, []*Source{early}, l.Sources())
}

func TestSamplingListenerNameFilter(t *testing.T) {
	reg := NewRegistry()
	rec := &recorder{}
	l, err := NewSamplingListener(
		WithNameFilter(NamePrefixFilter([]string{"app."}, []string{"app.noisy"})),
		WithSampler(AlwaysSample()),
		WithExporters(rec),
	)
	require.NoError(t, err)
	l.Attach(reg)
	defer l.Close()

	kept, err := NewSource("app.orders", WithRegistry(reg))
	require.NoError(t, err)
	noisy, err := NewSource("app.noisy.poller", WithRegistry(reg))
	require.NoError(t, err)
	other, err := NewSource("lib.cache", WithRegistry(reg))
	require.NoError(t, err)

	assert.True(t, kept.HasListeners())
	assert.False(t, noisy.HasListeners())
	assert.False(t, other.HasListeners())

	for _, src := range []*Source{kept, noisy, other} {
		_, scope := src.Start(context.Background())
		scope.End()
	}

	require.Len(t, rec.all(), 1)
	assert.Equal(t, "app.orders", rec.all()[0].Name())
}

func TestSamplingListenerSamplingDecision(t *testing.T) {
	reg := NewRegistry()
	rec := &recorder{}
	l, err := NewSamplingListener(
		WithSampler(SamplerFunc(func(s *Scope) bool { return s.Kind() == KindServer })),
		WithExporters(rec),
	)
	require.NoError(t, err)
	l.Attach(reg)
	defer l.Close()

	src, err := NewSource("decisions", WithRegistry(reg))
	require.NoError(t, err)

	_, sampled := src.Start(context.Background(), WithKind(KindServer))
	_, dropped := src.Start(context.Background())
	assert.True(t, sampled.IsMaterialized())
	assert.True(t, sampled.Activity().IsRecorded())
	assert.False(t, dropped.IsMaterialized())
	dropped.End()
	sampled.End()

	require.Len(t, rec.all(), 1)
	assert.Same(t, sampled.Activity(), rec.all()[0])
}

func TestSamplingListenerSkipsUnrecordedActivities(t *testing.T) {
	reg := NewRegistry()
	rec := &recorder{}
	l, err := NewSamplingListener(WithSampler(NeverSample()), WithExporters(rec))
	require.NoError(t, err)
	l.Attach(reg)
	defer l.Close()

	src, err := NewSource("manual", WithRegistry(reg))
	require.NoError(t, err)

	// Materialized by the caller, but never recorded by the listener.
	_, scope := src.Start(context.Background())
	scope.EnsureMaterialized()
	scope.End()

	assert.Empty(t, rec.all())
}

func TestSamplingListenerParentBasedPropagatesDecision(t *testing.T) {
	reg := NewRegistry()
	rec := &recorder{}
	l, err := NewSamplingListener(WithSampler(ParentBased(NeverSample())), WithExporters(rec))
	require.NoError(t, err)
	l.Attach(reg)
	defer l.Close()

	src, err := NewSource("inbound", WithRegistry(reg))
	require.NoError(t, err)

	ctx, server := src.StartWithParent(context.Background(), sampleParent(t))
	_, inner := src.Start(ctx)
	inner.End()
	server.End()

	_, root := src.Start(context.Background())
	root.End()

	activities := rec.all()
	require.Len(t, activities, 2)
	assert.Equal(t, sampleTraceID, activities[0].TraceID().String())
	assert.Equal(t, sampleTraceID, activities[1].TraceID().String())
	parent, ok := activities[0].Parent()
	require.True(t, ok)
	assert.Equal(t, activities[1].SpanID(), parent.SpanID)
}

func TestSamplingListenerAddExporterAndErrors(t *testing.T) {
	var handled []error
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) { handled = append(handled, err) }))
	t.Cleanup(func() { otel.SetErrorHandler(otel.ErrorHandlerFunc(func(error) {})) })

	reg := NewRegistry()
	l, err := NewSamplingListener(WithSampler(AlwaysSample()))
	require.NoError(t, err)
	l.Attach(reg)
	defer l.Close()

	src, err := NewSource("exporting", WithRegistry(reg))
	require.NoError(t, err)

	_, scope := src.Start(context.Background())
	scope.End()

	rec := &recorder{}
	l.AddExporter(nil)
	l.AddExporter(ExporterFunc(func(context.Context, *Activity) error { return errors.New("backend down") }))
	l.AddExporter(rec)

	_, scope = src.Start(context.Background())
	scope.End()

	assert.Len(t, rec.all(), 1)
	require.Len(t, handled, 1)
	assert.Contains(t, handled[0].Error(), "backend down")
	assert.Contains(t, handled[0].Error(), `"exporting"`)
}

func TestSamplingListenerClose(t *testing.T) {
	reg := NewRegistry()
	l, err := NewSamplingListener()
	require.NoError(t, err)
	l.Attach(reg)

	src, err := NewSource("closing", WithRegistry(reg))
	require.NoError(t, err)
	assert.True(t, src.HasListeners())

	l.Close()
	l.Close()
	assert.False(t, src.HasListeners())
	assert.Empty(t, l.Sources())

	later, err := NewSource("later", WithRegistry(reg))
	require.NoError(t, err)
	assert.False(t, later.HasListeners())

	l.Attach(reg)
	assert.False(t, later.HasListeners())
}

func TestSamplingListenerMultipleRegistries(t *testing.T) {
	a := NewRegistry()
	b := NewRegistry()
	l, err := NewSamplingListener()
	require.NoError(t, err)
	l.Attach(a)
	l.Attach(b)

	sa, err := NewSource("in-a", WithRegistry(a))
	require.NoError(t, err)
	sb, err := NewSource("in-b", WithRegistry(b))
	require.NoError(t, err)
	assert.Len(t, l.Sources(), 2)

	l.Close()
	assert.False(t, sa.HasListeners())
	assert.False(t, sb.HasListeners())
}

func TestSamplingListenerMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	reg := NewRegistry()
	sampled := 0
	l, err := NewSamplingListener(
		WithSampler(SamplerFunc(func(*Scope) bool {
			sampled++
			return sampled%2 == 1
		})),
		WithMeterProvider(mp),
	)
	require.NoError(t, err)
	l.Attach(reg)
	defer l.Close()

	clock := clockz.NewFakeClock()
	src, err := NewSource("metered", WithRegistry(reg), WithClock(clock))
	require.NoError(t, err)

	for i := range 4 {
		_, scope := src.Start(context.Background())
		clock.Advance(100 * time.Millisecond)
		if i == 0 {
			scope.SetStatus(errors.New("failed"))
		}
		scope.End()
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	assert.Equal(t, int64(4), sumValue(t, rm, "activity.scope.started"))
	assert.Equal(t, int64(2), sumValue(t, rm, "activity.scope.sampled"))

	hist := findMetric(t, rm, "activity.duration")
	data, ok := hist.Data.(metricdata.Histogram[float64])
	require.True(t, ok)

	var count uint64
	var total float64
	for _, dp := range data.DataPoints {
		count += dp.Count
		total += dp.Sum
		v, ok := dp.Attributes.Value("activity.source")
		require.True(t, ok)
		assert.Equal(t, "metered", v.AsString())
	}
	assert.Equal(t, uint64(2), count)
	assert.InDelta(t, 0.2, total, 1e-9)
	assert.Len(t, data.DataPoints, 2, "one point per activity.error value")
}

func findMetric(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Metrics {
	t.Helper()

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m
			}
		}
	}
	require.Failf(t, "metric not found", "%s", name)

	return metricdata.Metrics{}
}

func sumValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()

	sum, ok := findMetric(t, rm, name).Data.(metricdata.Sum[int64])
	require.True(t, ok)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}

	return total
}
