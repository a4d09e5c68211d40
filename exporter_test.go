package activity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type opt struct {
	kind string
	val  string
}

func TestNormalizeExporterType(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: "otlp"},
		{name: "stdout", input: "stdout", want: "console"},
		{name: "noop", input: "noop", want: "nop"},
		{name: "mixed case", input: "OTLP", want: "otlp"},
		{name: "passthrough", input: "console", want: "console"},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeExporterType(tt.input))
		})
	}
}

func TestResolveExporterParams(t *testing.T) {
	params := resolveExporterParams(nil, signalTraces)
	assert.Equal(t, "otlp", params.Type)
	assert.Equal(t, "grpc", params.Protocol)
	assert.Equal(t, "localhost:4317", params.Endpoint)
	assert.True(t, params.Insecure)

	cfg := &TelemetryConfig{
		OTLP: &OTLPConfig{
			Endpoint: "collector:4317",
			Protocol: "http/protobuf",
			Timeout:  5, // numeric env values are milliseconds
			Insecure: boolPtr(false),
		},
		Traces:  &TracesConfig{Exporter: "stdout", Endpoint: "http://traces:4318/v1/traces"},
		Metrics: &MetricsConfig{Exporter: "none"},
	}

	params = resolveExporterParams(cfg, signalTraces)
	assert.Equal(t, "console", params.Type)
	assert.Equal(t, "http://traces:4318/v1/traces", params.Endpoint)
	assert.True(t, params.useHTTP())
	assert.Equal(t, 5*time.Millisecond, params.Timeout)
	assert.False(t, params.Insecure)

	params = resolveExporterParams(cfg, signalLogs)
	assert.Equal(t, "otlp", params.Type)
	assert.Equal(t, "collector:4317", params.Endpoint)

	params = resolveExporterParams(cfg, signalMetrics)
	assert.Equal(t, "nop", params.Type)
}

func TestBuildExportersNop(t *testing.T) {
	ctx := context.Background()
	cfg := &TelemetryConfig{
		Traces:  &TracesConfig{Exporter: "none"},
		Logs:    &LogsConfig{Exporter: "none"},
		Metrics: &MetricsConfig{Exporter: "none"},
	}

	te, err := buildTraceExporter(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, nopSpanExporter{}, te)

	le, err := buildLogExporter(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, nopLogExporter{}, le)

	me, err := buildMetricExporter(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, nopMetricExporter{}, me)
}

func TestBuildHTTPOptions(t *testing.T) {
	params := exporterParams{
		Endpoint:    "http://localhost:4318/v1/logs",
		Headers:     map[string]string{"k": "v"},
		Timeout:     5 * time.Second,
		Insecure:    true,
		Compression: "gzip",
	}

	opts := buildHTTPOptions(
		params,
		func(v string) opt { return opt{kind: "endpoint", val: v} },
		func(v string) opt { return opt{kind: "endpointURL", val: v} },
		func(_ map[string]string) opt { return opt{kind: "headers"} },
		func(d time.Duration) opt { return opt{kind: "timeout", val: d.String()} },
		func() opt { return opt{kind: "insecure"} },
		func() opt { return opt{kind: "compression"} },
	)

	require.NotEmpty(t, opts)
	assert.Equal(t, "endpointURL", opts[0].kind)
	assert.Contains(t, kinds(opts), "headers")
	assert.Contains(t, kinds(opts), "timeout")
	assert.Contains(t, kinds(opts), "insecure")
	assert.Contains(t, kinds(opts), "compression")

	params.Endpoint = "localhost:4317"
	opts = buildHTTPOptions(
		params,
		func(v string) opt { return opt{kind: "endpoint", val: v} },
		func(v string) opt { return opt{kind: "endpointURL", val: v} },
		func(_ map[string]string) opt { return opt{kind: "headers"} },
		func(d time.Duration) opt { return opt{kind: "timeout", val: d.String()} },
		func() opt { return opt{kind: "insecure"} },
		func() opt { return opt{kind: "compression"} },
	)
	assert.Equal(t, "endpoint", opts[0].kind)
}

func TestBuildGRPCOptions(t *testing.T) {
	params := exporterParams{
		Endpoint:    "localhost:4317",
		Headers:     map[string]string{"k": "v"},
		Timeout:     2 * time.Second,
		Insecure:    true,
		Compression: "gzip",
	}

	opts := buildGRPCOptions(
		params,
		func(v string) opt { return opt{kind: "endpoint", val: v} },
		func(_ map[string]string) opt { return opt{kind: "headers"} },
		func(d time.Duration) opt { return opt{kind: "timeout", val: d.String()} },
		func() opt { return opt{kind: "insecure"} },
		func() opt { return opt{kind: "compression"} },
	)

	require.NotEmpty(t, opts)
	assert.Equal(t, "endpoint", opts[0].kind)
	assert.Contains(t, kinds(opts), "headers")
	assert.Contains(t, kinds(opts), "timeout")
	assert.Contains(t, kinds(opts), "insecure")
	assert.Contains(t, kinds(opts), "compression")
}

func kinds(opts []opt) []string {
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		out = append(out, o.kind)
	}

	return out
}
