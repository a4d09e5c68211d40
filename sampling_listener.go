package activity

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/arloliu/activity"

// Exporter receives recorded activities when their scopes end.
type Exporter interface {
	ExportActivity(ctx context.Context, a *Activity) error
}

// ExporterFunc adapts a function to Exporter.
type ExporterFunc func(ctx context.Context, a *Activity) error

// ExportActivity implements Exporter.
func (f ExporterFunc) ExportActivity(ctx context.Context, a *Activity) error { return f(ctx, a) }

type listenerConfig struct {
	filter    NameFilter
	sampler   Sampler
	exporters []Exporter
	mp        metric.MeterProvider
}

// ListenerOption configures a SamplingListener.
type ListenerOption func(*listenerConfig)

// WithNameFilter sets which sources the listener attaches to. Default: all.
func WithNameFilter(f NameFilter) ListenerOption {
	return func(c *listenerConfig) {
		c.filter = f
	}
}

// WithSampler sets the per-scope sampling decision. Default: ParentBased(AlwaysSample()).
func WithSampler(s Sampler) ListenerOption {
	return func(c *listenerConfig) {
		c.sampler = s
	}
}

// WithExporters sets the exporters that receive recorded activities.
func WithExporters(exporters ...Exporter) ListenerOption {
	return func(c *listenerConfig) {
		c.exporters = append(c.exporters, exporters...)
	}
}

// WithMeterProvider enables scope metrics recorded through mp.
func WithMeterProvider(mp metric.MeterProvider) ListenerOption {
	return func(c *listenerConfig) {
		c.mp = mp
	}
}

// SamplingListener is the standard Listener: a name filter chooses sources,
// a Sampler chooses scopes, and exporters receive the recorded activities.
//
// Safe for concurrent use.
type SamplingListener struct {
	filter    NameFilter
	sampler   Sampler
	exporters atomic.Pointer[[]Exporter]
	metrics   *listenerMetrics

	mu           sync.Mutex
	sources      map[*Source]struct{}
	unsubscribes []func()
	closed       bool
}

// NewSamplingListener creates a listener. Call Attach to connect it to a registry.
func NewSamplingListener(opts ...ListenerOption) (*SamplingListener, error) {
	cfg := listenerConfig{
		filter:  AllNames,
		sampler: ParentBased(AlwaysSample()),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.filter == nil {
		cfg.filter = AllNames
	}
	if cfg.sampler == nil {
		cfg.sampler = ParentBased(AlwaysSample())
	}

	l := &SamplingListener{
		filter:  cfg.filter,
		sampler: cfg.sampler,
		sources: make(map[*Source]struct{}),
	}
	if len(cfg.exporters) > 0 {
		exporters := slices.Clone(cfg.exporters)
		l.exporters.Store(&exporters)
	}
	if cfg.mp != nil {
		m, err := newListenerMetrics(cfg.mp)
		if err != nil {
			return nil, fmt.Errorf("create scope metrics: %w", err)
		}
		l.metrics = m
	}

	return l, nil
}

// Sampler returns the configured sampler.
func (l *SamplingListener) Sampler() Sampler { return l.sampler }

// Attach subscribes the listener to r. Every current and future source whose
// name passes the filter gets the listener attached.
func (l *SamplingListener) Attach(r *Registry) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()

	unsubscribe := r.Subscribe(l)

	l.mu.Lock()
	l.unsubscribes = append(l.unsubscribes, unsubscribe)
	l.mu.Unlock()
}

// AddExporter adds an exporter. Scopes ending afterwards are exported to it.
func (l *SamplingListener) AddExporter(e Exporter) {
	if e == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var next []Exporter
	if cur := l.exporters.Load(); cur != nil {
		next = slices.Clone(*cur)
	}
	next = append(next, e)
	l.exporters.Store(&next)
}

// Sources returns the sources the listener is attached to.
func (l *SamplingListener) Sources() []*Source {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*Source, 0, len(l.sources))
	for s := range l.sources {
		out = append(out, s)
	}

	return out
}

// Close unsubscribes from every registry and detaches from every source.
func (l *SamplingListener) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	unsubscribes := l.unsubscribes
	l.unsubscribes = nil
	sources := l.sources
	l.sources = make(map[*Source]struct{})
	l.mu.Unlock()

	for _, unsubscribe := range unsubscribes {
		unsubscribe()
	}
	for s := range sources {
		s.RemoveListener(l)
	}
}

// SourceAdded implements SourceObserver by applying the name filter.
func (l *SamplingListener) SourceAdded(_ *Registry, s *Source) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	if l.filter(s.Name()) {
		s.AddListener(l)
		l.sources[s] = struct{}{}

		return
	}
	s.RemoveListener(l)
	delete(l.sources, s)
}

// SourceRemoved implements SourceObserver.
func (l *SamplingListener) SourceRemoved(_ *Registry, s *Source) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.RemoveListener(l)
	delete(l.sources, s)
}

// OnScopeStarted implements Listener. A positive sampling decision
// materializes the scope and marks it recorded.
func (l *SamplingListener) OnScopeStarted(src *Source, s *Scope) {
	sampled := l.sampler.ShouldSample(s)
	if sampled {
		s.EnsureMaterialized().SetRecorded(true)
	}
	if l.metrics != nil {
		l.metrics.recordStart(src, sampled)
	}
}

// OnScopeStopped implements Listener. Recorded activities are exported;
// export errors are reported through otel.Handle.
func (l *SamplingListener) OnScopeStopped(src *Source, s *Scope) {
	a := s.Activity()
	if a == nil || !a.IsRecorded() {
		return
	}
	if l.metrics != nil {
		l.metrics.recordStop(src, a)
	}

	exporters := l.exporters.Load()
	if exporters == nil {
		return
	}

	ctx := context.Background()
	for _, e := range *exporters {
		if err := e.ExportActivity(ctx, a); err != nil {
			otel.Handle(fmt.Errorf("activity: export %q: %w", a.Name(), err))
		}
	}
}

// listenerMetrics holds the instruments recorded by a SamplingListener.
type listenerMetrics struct {
	started  metric.Int64Counter
	sampled  metric.Int64Counter
	duration metric.Float64Histogram
}

func newListenerMetrics(mp metric.MeterProvider) (*listenerMetrics, error) {
	meter := mp.Meter(instrumentationName)

	started, err := meter.Int64Counter("activity.scope.started",
		metric.WithDescription("Scopes started on observed sources"),
		metric.WithUnit("{scope}"),
	)
	if err != nil {
		return nil, err
	}

	sampled, err := meter.Int64Counter("activity.scope.sampled",
		metric.WithDescription("Scopes selected for recording"),
		metric.WithUnit("{scope}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("activity.duration",
		metric.WithDescription("Duration of recorded activities"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &listenerMetrics{started: started, sampled: sampled, duration: duration}, nil
}

func (m *listenerMetrics) recordStart(src *Source, sampled bool) {
	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String("activity.source", src.Name()))

	m.started.Add(ctx, 1, attrs)
	if sampled {
		m.sampled.Add(ctx, 1, attrs)
	}
}

func (m *listenerMetrics) recordStop(src *Source, a *Activity) {
	m.duration.Record(context.Background(), a.Duration().Seconds(),
		metric.WithAttributes(
			attribute.String("activity.source", src.Name()),
			attribute.Bool("activity.error", a.Status().Code == StatusError),
		),
	)
}
