package main

import (
	"time"

	"github.com/arloliu/activity"

	"github.com/arloliu/fuda"
)

// Config holds all CLI configuration.
// Uses fuda struct tags for defaults and env var binding.
type Config struct {
	// Connection settings
	Endpoint    string `yaml:"endpoint" default:"localhost:4317" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	UseHTTP     bool   `yaml:"http" default:"false"`
	Insecure    *bool  `yaml:"insecure" default:"true" env:"OTEL_EXPORTER_OTLP_INSECURE"`
	ServiceName string `yaml:"serviceName" default:"activity-sim" env:"OTEL_SERVICE_NAME"`
	Exporter    string `yaml:"exporter" default:"otlp" env:"OTEL_TRACES_EXPORTER"`

	// Scenario settings
	Scenario     string `yaml:"scenario" default:"payment"`
	ScenarioFile string `yaml:"scenarioFile"`

	// Signals
	EnableLogs    bool `yaml:"logs" default:"false"`
	EnableMetrics bool `yaml:"metrics" default:"false"`

	// Sampling and source selection
	Sampler    string  `yaml:"sampler" default:"parentbased_always_on" env:"OTEL_TRACES_SAMPLER"`
	SamplerArg float64 `yaml:"samplerArg" default:"1.0" env:"OTEL_TRACES_SAMPLER_ARG"`
	Include    string  `yaml:"include" env:"ACTIVITY_SOURCES_INCLUDE"`
	Exclude    string  `yaml:"exclude" env:"ACTIVITY_SOURCES_EXCLUDE"`

	// Quick mode
	Count int `yaml:"count" default:"10"`

	// Continuous mode
	Duration time.Duration `yaml:"duration" default:"1m"`
	Rate     float64       `yaml:"rate" default:"1"`
	Jitter   int           `yaml:"jitter" default:"20"`

	Workers int  `yaml:"workers" default:"4"`
	Verbose bool `yaml:"verbose" default:"false"`
}

// IsInsecure returns the insecure value, defaulting to true if nil.
func (c *Config) IsInsecure() bool {
	if c.Insecure == nil {
		return true
	}

	return *c.Insecure
}

func newConfig() *Config {
	cfg := &Config{}
	// Apply defaults from struct tags (fuda handles time.Duration and *bool parsing)
	_ = fuda.SetDefaults(cfg)

	return cfg
}

func (c *Config) applyEnvOverrides() {
	// fuda.LoadEnv reads env vars based on struct tags
	_ = fuda.LoadEnv(c)
}

// TelemetryConfig translates the CLI settings into an export pipeline config.
func (c *Config) TelemetryConfig() *activity.TelemetryConfig {
	enabled := true
	insecure := c.IsInsecure()

	protocol := "grpc"
	if c.UseHTTP {
		protocol = "http"
	}

	serviceName := c.ServiceName
	if serviceName == "" {
		serviceName = "activity-sim"
	}

	tc := &activity.TelemetryConfig{
		Enabled:     &enabled,
		ServiceName: serviceName,
		Environment: "simulation",
		OTLP: &activity.OTLPConfig{
			Endpoint: c.Endpoint,
			Protocol: protocol,
			Insecure: &insecure,
			Timeout:  10 * time.Second,
		},
		Traces: &activity.TracesConfig{
			Exporter: c.Exporter,
			Sampling: &activity.SamplingConfig{
				Sampler:    c.Sampler,
				SamplerArg: c.SamplerArg,
			},
		},
	}

	if c.EnableLogs {
		tc.Logs = &activity.LogsConfig{Enabled: &enabled, Exporter: c.Exporter}
	}
	if c.EnableMetrics {
		tc.Metrics = &activity.MetricsConfig{Enabled: &enabled, Exporter: c.Exporter, Interval: 10 * time.Second}
	}
	if c.Include != "" || c.Exclude != "" {
		tc.Sources = &activity.SourcesConfig{Include: c.Include, Exclude: c.Exclude}
	}

	return tc
}
