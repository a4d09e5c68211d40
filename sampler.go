package activity

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Sampler decides, once per scope start, whether the scope is recorded.
//
// A sampler receives the scope before anything is materialized; it only pays
// for what it reads. Name is free, SpanID is a random draw, TraceID and
// ParentContext may resolve the parent.
type Sampler interface {
	ShouldSample(s *Scope) bool
	Description() string
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func(s *Scope) bool

// ShouldSample implements Sampler.
func (f SamplerFunc) ShouldSample(s *Scope) bool { return f(s) }

// Description implements Sampler.
func (SamplerFunc) Description() string { return "SamplerFunc" }

type alwaysSample struct{}

func (alwaysSample) ShouldSample(*Scope) bool { return true }
func (alwaysSample) Description() string      { return "AlwaysOnSampler" }

// AlwaysSample records every scope.
func AlwaysSample() Sampler { return alwaysSample{} }

type neverSample struct{}

func (neverSample) ShouldSample(*Scope) bool { return false }
func (neverSample) Description() string      { return "AlwaysOffSampler" }

// NeverSample records no scope.
func NeverSample() Sampler { return neverSample{} }

type traceIDRatioSampler struct {
	bound       uint64
	description string
}

// TraceIDRatioBased records a fraction of traces, chosen deterministically
// from the trace id so every scope of a trace gets the same decision.
// Fractions >= 1 always sample; fractions <= 0 never do.
func TraceIDRatioBased(fraction float64) Sampler {
	if fraction >= 1 {
		return AlwaysSample()
	}
	if fraction <= 0 {
		fraction = 0
	}

	return &traceIDRatioSampler{
		bound:       uint64(fraction * (1 << 63)),
		description: fmt.Sprintf("TraceIDRatioBased{%g}", fraction),
	}
}

func (ts *traceIDRatioSampler) ShouldSample(s *Scope) bool {
	id := s.TraceID()
	x := binary.BigEndian.Uint64(id[8:16]) >> 1

	return x < ts.bound
}

func (ts *traceIDRatioSampler) Description() string { return ts.description }

type parentBasedSampler struct {
	root Sampler
}

// ParentBased follows the parent's Recorded flag when the scope has a parent
// and defers to root otherwise.
func ParentBased(root Sampler) Sampler {
	if root == nil {
		root = AlwaysSample()
	}

	return parentBasedSampler{root: root}
}

func (pb parentBasedSampler) ShouldSample(s *Scope) bool {
	if p, ok := s.ParentContext(); ok {
		return p.IsRecorded()
	}

	return pb.root.ShouldSample(s)
}

func (pb parentBasedSampler) Description() string {
	return "ParentBased{root:" + pb.root.Description() + "}"
}

// NameFilter decides whether a listener attaches to a source, by name.
// It runs once per source, never per scope.
type NameFilter func(name string) bool

// AllNames accepts every source.
func AllNames(string) bool { return true }

// NamePrefixFilter accepts names matching any include prefix (all names when
// include is empty) and no exclude prefix.
func NamePrefixFilter(include, exclude []string) NameFilter {
	include = slicesClean(include)
	exclude = slicesClean(exclude)

	return func(name string) bool {
		for _, p := range exclude {
			if strings.HasPrefix(name, p) {
				return false
			}
		}
		if len(include) == 0 {
			return true
		}
		for _, p := range include {
			if strings.HasPrefix(name, p) {
				return true
			}
		}

		return false
	}
}

// slicesClean trims entries and drops empty ones.
func slicesClean(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	return out
}
