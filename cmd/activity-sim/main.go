// Package main provides the activity-sim CLI, which replays scenarios as
// activity scopes and exports the recorded activities over OTLP.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/arloliu/activity/cmd/activity-sim/engine"
	"github.com/arloliu/activity/cmd/activity-sim/scenario"

	"github.com/go-logr/stdr"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := newConfig()
	cfg.applyEnvOverrides()

	root := &cobra.Command{
		Use:   "activity-sim",
		Short: "Activity trace/log simulator",
		Long: `activity-sim replays scenarios as trees of activity scopes on named sources.
Recorded activities are exported as spans (and optionally log records and
scope metrics) through the configured OTLP endpoint.

Environment Variables:
  OTEL_EXPORTER_OTLP_ENDPOINT   OTLP endpoint
  OTEL_EXPORTER_OTLP_INSECURE   Skip TLS verification
  OTEL_SERVICE_NAME             Default service name
  OTEL_TRACES_SAMPLER           Sampler name
  ACTIVITY_SOURCES_INCLUDE      Comma-separated source name prefixes to observe
  ACTIVITY_SOURCES_EXCLUDE      Comma-separated source name prefixes to ignore`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if cfg.Verbose {
				stdr.SetVerbosity(8)
				otel.SetLogger(stdr.New(log.New(cmd.ErrOrStderr(), "otel ", log.LstdFlags)))
			}
			otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
			}))
		},
	}
	root.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Log OTel SDK internals to stderr")

	root.AddCommand(newQuickCmd(cfg), newRunCmd(cfg), newListCmd())

	return root
}

func bindCommonFlags(cmd *cobra.Command, cfg *Config) {
	fs := cmd.Flags()
	fs.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "OTLP endpoint")
	fs.BoolVar(&cfg.UseHTTP, "http", cfg.UseHTTP, "Use HTTP instead of gRPC")
	fs.Bool("insecure", cfg.IsInsecure(), "Skip TLS verification")
	fs.StringVar(&cfg.ServiceName, "service-name", cfg.ServiceName, "Service name")
	fs.StringVar(&cfg.Exporter, "exporter", cfg.Exporter, "Exporter: otlp, console or none")
	fs.StringVar(&cfg.Scenario, "scenario", cfg.Scenario, "Scenario name")
	fs.StringVar(&cfg.ScenarioFile, "scenario-file", cfg.ScenarioFile, "Custom YAML scenario file")
	fs.BoolVar(&cfg.EnableLogs, "logs", cfg.EnableLogs, "Also export activities as log records")
	fs.BoolVar(&cfg.EnableMetrics, "metrics", cfg.EnableMetrics, "Export scope metrics")
	fs.StringVar(&cfg.Sampler, "sampler", cfg.Sampler, "Sampler name (OTEL_TRACES_SAMPLER values)")
	fs.Float64Var(&cfg.SamplerArg, "sampler-arg", cfg.SamplerArg, "Sampling ratio for ratio-based samplers")
	fs.StringVar(&cfg.Include, "include", cfg.Include, "Comma-separated source name prefixes to observe")
	fs.StringVar(&cfg.Exclude, "exclude", cfg.Exclude, "Comma-separated source name prefixes to ignore")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Concurrent trace generators")
}

// applyInsecureFlag copies --insecure into cfg when it was given.
func applyInsecureFlag(cmd *cobra.Command, cfg *Config) error {
	if !cmd.Flags().Changed("insecure") {
		return nil
	}
	v, err := cmd.Flags().GetBool("insecure")
	if err != nil {
		return err
	}
	cfg.Insecure = &v

	return nil
}

func newQuickCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "quick",
		Short:   "Send traces immediately for quick visualization",
		Example: "  activity-sim quick --scenario payment --count 5",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := applyInsecureFlag(cmd, cfg); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return executeQuick(ctx, cmd.OutOrStdout(), cfg)
		},
	}
	bindCommonFlags(cmd, cfg)
	cmd.Flags().IntVar(&cfg.Count, "count", cfg.Count, "Number of traces to send")

	return cmd
}

func newRunCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Send traces continuously at a steady rate",
		Example: "  activity-sim run --scenario noisy --exclude noisy. --duration 5m --rate 10",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := applyInsecureFlag(cmd, cfg); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return executeContinuous(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg)
		},
	}
	bindCommonFlags(cmd, cfg)
	cmd.Flags().DurationVar(&cfg.Duration, "duration", cfg.Duration, "Total simulation time")
	cmd.Flags().Float64Var(&cfg.Rate, "rate", cfg.Rate, "Traces per second")
	cmd.Flags().IntVar(&cfg.Jitter, "jitter", cfg.Jitter, "Timing variation percentage")

	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available scenarios",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			listScenarios(cmd.OutOrStdout())
		},
	}
}

func listScenarios(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Available scenarios:")
	for _, name := range scenario.List() {
		s, _ := scenario.Get(name)
		_, _ = fmt.Fprintf(w, "\n  %-13s%s\n", name, s.Description)
		_, _ = fmt.Fprintf(w, "  %-13s- %d sources, %d activities per trace\n", "", len(s.Sources()), s.Count())
	}
}

// executeQuick sends a burst of traces.
func executeQuick(ctx context.Context, out io.Writer, cfg *Config) error {
	s, err := loadScenario(cfg)
	if err != nil {
		return err
	}

	eng, err := newEngine(ctx, cfg, s, 0)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "Sending %d traces to %s (scenario: %s)\n", cfg.Count, cfg.Endpoint, s.Name)

	sent, runErr := eng.Burst(ctx, s, cfg.Count, cfg.Workers)
	if err := eng.Shutdown(context.WithoutCancel(ctx)); err != nil {
		_, _ = fmt.Fprintf(out, "Warning: shutdown: %v\n", err)
	}
	if runErr != nil {
		return fmt.Errorf("sent %d traces: %w", sent, runErr)
	}

	if ctx.Err() != nil {
		_, _ = fmt.Fprintf(out, "\nInterrupted after %d traces\n", sent)
		return nil
	}
	_, _ = fmt.Fprintf(out, "Done! Sent %d traces\n", sent)

	return nil
}

// executeContinuous runs traces at a steady rate for a duration.
func executeContinuous(ctx context.Context, out, errOut io.Writer, cfg *Config) error {
	s, err := loadScenario(cfg)
	if err != nil {
		return err
	}

	eng, err := newEngine(ctx, cfg, s, cfg.Jitter)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "Running %s scenario for %v at %.1f traces/sec\n", s.Name, cfg.Duration, cfg.Rate)

	sent, runErr := eng.Run(ctx, s, cfg.Rate, cfg.Duration, cfg.Workers, func(err error) {
		_, _ = fmt.Fprintf(errOut, "Warning: failed to generate trace: %v\n", err)
	})
	if err := eng.Shutdown(context.WithoutCancel(ctx)); err != nil {
		_, _ = fmt.Fprintf(errOut, "Warning: shutdown: %v\n", err)
	}
	if runErr != nil {
		return runErr
	}

	if ctx.Err() != nil {
		_, _ = fmt.Fprintf(out, "\nInterrupted after %d traces\n", sent)
		return nil
	}
	_, _ = fmt.Fprintf(out, "\nCompleted: sent %d traces\n", sent)

	return nil
}

func newEngine(ctx context.Context, cfg *Config, s *scenario.Scenario, jitter int) (*engine.Engine, error) {
	eng, err := engine.New(ctx, engine.Config{
		Telemetry: cfg.TelemetryConfig(),
		JitterPct: jitter,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	if err := eng.Prepare(s); err != nil {
		_ = eng.Shutdown(ctx)
		return nil, fmt.Errorf("failed to register sources: %w", err)
	}

	return eng, nil
}

func loadScenario(cfg *Config) (*scenario.Scenario, error) {
	// Try custom YAML file first
	if cfg.ScenarioFile != "" {
		return scenario.LoadFromFile(cfg.ScenarioFile)
	}

	// Look up embedded scenario
	s, ok := scenario.Get(cfg.Scenario)
	if !ok {
		return nil, fmt.Errorf("unknown scenario: %s (use 'activity-sim list' to see available scenarios)", cfg.Scenario)
	}

	return s, nil
}
