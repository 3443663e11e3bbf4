package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/pubstress/internal/stress/config"
	"github.com/wesleyorama2/pubstress/internal/stress/engine"
	"github.com/wesleyorama2/pubstress/internal/stress/monitor"
	"github.com/wesleyorama2/pubstress/internal/stress/report"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a stress test",
		Long: `Spawn publisher and subscriber workers against shared topics for a fixed
window, then report throughput and latency percentiles.

Quick mode:
  pubstress run -p 20 -s 20 -r 200 -d 60

Structured output for CI:
  pubstress run -d 30 --json > result.json

Against a real broker:
  pubstress run --transport redis --broker localhost:6379 --latency-mode measured

From a config file (flags given explicitly override the file):
  pubstress run --config stress.yaml --rate 500`,
		Args: cobra.NoArgs,
		RunE: runStressTest,
	}

	f := cmd.Flags()
	f.IntP("publishers", "p", config.DefaultPublishers, "Number of publisher workers")
	f.IntP("subscribers", "s", config.DefaultSubscribers, "Number of subscriber workers")
	f.IntP("rate", "r", config.DefaultRateHz, "Messages per second per publisher")
	f.StringP("duration", "d", "30", "Test duration in seconds (or a Go duration such as 2m)")
	f.StringP("message-size", "z", string(config.ProfileSmall), "Message size: small, medium, large")
	f.StringP("format", "f", string(config.FormatCompactBinary), "Serialization format: cdr, json")
	f.BoolP("json", "j", false, "Print results as JSON")

	f.StringP("config", "c", "", "Configuration file (YAML or JSON)")
	f.Int("topics", config.DefaultTopicFanOut, "Number of distinct topics")
	f.String("topic-base", config.DefaultTopicBase, "Topic name prefix")
	f.String("transport", string(config.TransportMemory), "Transport: memory, redis, mqtt")
	f.String("broker", "", "Broker address (redis host:port, mqtt tcp://host:port)")
	f.Float64("fail-ratio", 0, "Fraction of publishes to fail on the memory transport")
	f.String("pacing", string(config.PacingFixed), "Publisher pacing: fixed, compensated")
	f.String("latency-mode", string(config.LatencySynthetic), "Latency mode: synthetic, measured")
	f.String("latency-min", config.DefaultLatencyMin.String(), "Synthetic latency lower bound")
	f.String("latency-max", config.DefaultLatencyMax.String(), "Synthetic latency upper bound (exclusive)")
	f.String("subscriber-tick", config.DefaultSubscriberTick.String(), "Synthetic subscriber tick")
	f.String("monitor-period", config.DefaultMonitorPeriod.String(), "Progress report period")
	f.String("html", "", "Write an HTML report to this file")
	f.String("metrics-addr", "", "Serve Prometheus metrics on this address during the run")
	f.Bool("no-resources", false, "Disable CPU and memory sampling")
	f.Bool("no-color", false, "Disable colored output")
	f.Bool("dry-run", false, "Print the effective configuration as YAML and exit")

	return cmd
}

func runStressTest(cmd *cobra.Command, args []string) error {
	cfg, err := buildRunConfig(cmd)
	if err != nil {
		return err
	}

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		return yaml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return executeRun(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// executeRun runs the engine and renders the result.
//
// Human output goes to stdout. In structured mode stdout carries only the
// JSON object and progress lines go to stderr.
func executeRun(ctx context.Context, cfg *config.RunConfig, stdout, stderr io.Writer) error {
	noColor := cfg.Report.NoColor

	var (
		console  *report.Console
		progress monitor.Reporter
	)
	if cfg.Output == config.OutputStructured {
		progress = report.NewConsole(stderr, noColor)
	} else {
		console = report.NewConsole(stdout, noColor)
		progress = console
	}

	eng, err := engine.NewEngine(cfg, engine.Options{Reporter: progress})
	if err != nil {
		return err
	}

	if console != nil {
		console.Banner(cfg, transportLabel(cfg))
		console.Starting()
	}

	result, err := eng.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ErrInterrupted
		}
		return err
	}

	if console != nil {
		console.Complete()
		console.Summary(result)
	} else if err := report.WriteJSON(stdout, result); err != nil {
		return err
	}

	if path := cfg.Report.HTMLPath; path != "" {
		if err := report.GenerateHTML(result, path); err != nil {
			return err
		}
		slog.Info("wrote HTML report", "path", path)
	}
	return nil
}

func transportLabel(cfg *config.RunConfig) string {
	label := string(cfg.Transport.Kind)
	if cfg.Transport.Broker != "" {
		label += " (" + cfg.Transport.Broker + ")"
	}
	if cfg.Transport.FailRatio > 0 {
		label += fmt.Sprintf(", %.0f%% injected failures", cfg.Transport.FailRatio*100)
	}
	return label
}
