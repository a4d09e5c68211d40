// Package engine replays simulator scenarios as activity scopes.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/activity"
	"github.com/arloliu/activity/cmd/activity-sim/scenario"

	"golang.org/x/sync/errgroup"
)

// Engine replays scenarios on activity sources registered in its own registry.
//
// When built with a telemetry config, a SamplingListener exports the recorded
// activities; otherwise callers attach their own listeners to Registry.
type Engine struct {
	registry  *activity.Registry
	telemetry *activity.Telemetry
	jitterPct int
	randFloat func() float64

	mu      sync.Mutex
	sources map[string]*activity.Source
}

// Config holds engine configuration.
type Config struct {
	// Telemetry builds the export pipeline. Nil leaves the registry unobserved.
	Telemetry *activity.TelemetryConfig
	// JitterPct varies each operation duration by up to this percentage.
	JitterPct int
}

// New creates an Engine.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	e := &Engine{
		registry:  activity.NewRegistry(),
		jitterPct: cfg.JitterPct,
		randFloat: rand.Float64, //nolint:gosec // weak rand is fine for simulation
		sources:   make(map[string]*activity.Source),
	}

	if cfg.Telemetry != nil {
		tel, err := activity.Setup(ctx, cfg.Telemetry, e.registry)
		if err != nil {
			return nil, fmt.Errorf("failed to set up telemetry: %w", err)
		}
		e.telemetry = tel
	}

	return e, nil
}

// Registry returns the registry holding the scenario sources.
func (e *Engine) Registry() *activity.Registry { return e.registry }

// Shutdown closes the sources, then flushes and closes the export pipeline.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	sources := e.sources
	e.sources = make(map[string]*activity.Source)
	e.mu.Unlock()

	for _, src := range sources {
		src.Close()
	}

	if e.telemetry == nil {
		return nil
	}

	return e.telemetry.Shutdown(ctx)
}

// source returns the source named name, creating it on first use.
func (e *Engine) source(name string) (*activity.Source, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if src, ok := e.sources[name]; ok {
		return src, nil
	}

	src, err := activity.NewSource(name, activity.WithRegistry(e.registry))
	if err != nil {
		return nil, err
	}
	e.sources[name] = src

	return src, nil
}

// Prepare registers every source the scenario uses, so listeners see them
// before the first trace.
func (e *Engine) Prepare(s *scenario.Scenario) error {
	for _, name := range s.Sources() {
		if _, err := e.source(name); err != nil {
			return err
		}
	}

	return nil
}

// GenerateTrace replays one run of the scenario as a single trace.
func (e *Engine) GenerateTrace(ctx context.Context, s *scenario.Scenario) error {
	return e.generate(ctx, s.Root)
}

// generate runs op and its children recursively. Operations do not sleep:
// each activity gets an end time of start plus its jittered duration.
func (e *Engine) generate(ctx context.Context, op scenario.Operation) error {
	src, err := e.source(op.Source)
	if err != nil {
		return err
	}

	for range op.Times() {
		if err := ctx.Err(); err != nil {
			return err
		}

		opCtx, scope := src.Start(ctx, activity.WithKind(op.Kind.Activity()))
		if op.Name != "" {
			scope.SetDisplayName(op.Name)
		}
		for k, v := range op.Tags {
			scope.SetTag(k, v)
		}

		if op.ErrorRate > 0 && e.randFloat() < op.ErrorRate {
			scope.SetStatus(errors.New(op.ErrorStatus))
		}

		for _, child := range op.Children {
			if err := e.generate(opCtx, child); err != nil {
				scope.End()
				return err
			}
		}

		if a := scope.Activity(); a != nil {
			a.SetEndTime(a.StartTime().Add(e.applyJitter(op.Duration.AsDuration())))
		}
		scope.End()
	}

	return nil
}

// Burst sends count traces using up to workers goroutines, and returns how
// many were sent.
func (e *Engine) Burst(ctx context.Context, s *scenario.Scenario, count, workers int) (int64, error) {
	if workers < 1 {
		workers = 1
	}

	var sent atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for range count {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := e.GenerateTrace(gctx, s); err != nil {
				return err
			}
			sent.Add(1)

			return nil
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		err = nil
	}

	return sent.Load(), err
}

// Run sends traces at rate per second until duration elapses or ctx is
// done, and returns how many were sent. Traces that fail are counted out
// and reported through onError.
func (e *Engine) Run(
	ctx context.Context,
	s *scenario.Scenario,
	rate float64,
	duration time.Duration,
	workers int,
	onError func(error),
) (int64, error) {
	if rate <= 0 {
		return 0, fmt.Errorf("rate must be positive, got %g", rate)
	}
	if workers < 1 {
		workers = 1
	}

	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	ticks := make(chan struct{})
	var sent atomic.Int64
	g, gctx := errgroup.WithContext(ctx)

	for range workers {
		g.Go(func() error {
			for range ticks {
				if err := e.GenerateTrace(gctx, s); err != nil {
					if onError != nil && gctx.Err() == nil {
						onError(err)
					}
					continue
				}
				sent.Add(1)
			}

			return nil
		})
	}

	ticker := time.NewTicker(time.Duration(float64(time.Second) / rate))
	defer ticker.Stop()

loop:
	for {
		select {
		case <-gctx.Done():
			break loop
		case <-ticker.C:
			select {
			case ticks <- struct{}{}:
			case <-gctx.Done():
				break loop
			}
		}
	}
	close(ticks)

	return sent.Load(), g.Wait()
}

// applyJitter adds random timing variation to a duration.
func (e *Engine) applyJitter(d time.Duration) time.Duration {
	if e.jitterPct <= 0 {
		return d
	}
	jitter := float64(d) * float64(e.jitterPct) / 100.0
	offset := (e.randFloat() * 2 * jitter) - jitter

	return d + time.Duration(offset)
}
