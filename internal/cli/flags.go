package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/wesleyorama2/pubstress/internal/stress/config"
)

// buildRunConfig assembles the run configuration from --config and the
// command-line flags.
//
// Without a config file every flag applies, defaults included. With one,
// only flags set explicitly override the file. Defaults are filled before the
// flags, so a value typed on the command line is validated as given.
func buildRunConfig(cmd *cobra.Command) (*config.RunConfig, error) {
	flags := cmd.Flags()

	cfg := config.Default()
	configFile, _ := flags.GetString("config")
	if configFile != "" {
		loaded, err := config.LoadConfig(configFile)
		if err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
		cfg = loaded
	}

	apply := func(name string) bool {
		return configFile == "" || flags.Changed(name)
	}

	if err := applyFlags(flags, cfg, apply); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(flags *pflag.FlagSet, cfg *config.RunConfig, apply func(string) bool) error {
	if apply("publishers") {
		cfg.PublisherCount, _ = flags.GetInt("publishers")
	}
	if apply("subscribers") {
		cfg.SubscriberCount, _ = flags.GetInt("subscribers")
	}
	if apply("rate") {
		cfg.RateHz, _ = flags.GetInt("rate")
	}
	if apply("topics") {
		cfg.TopicFanOut, _ = flags.GetInt("topics")
	}
	if apply("topic-base") {
		cfg.TopicBase, _ = flags.GetString("topic-base")
	}
	if apply("broker") {
		if broker, _ := flags.GetString("broker"); broker != "" {
			cfg.Transport.Broker = broker
		}
	}
	if apply("fail-ratio") {
		cfg.Transport.FailRatio, _ = flags.GetFloat64("fail-ratio")
	}
	if apply("html") {
		cfg.Report.HTMLPath, _ = flags.GetString("html")
	}
	if apply("metrics-addr") {
		cfg.Report.MetricsAddr, _ = flags.GetString("metrics-addr")
	}
	if apply("no-resources") {
		cfg.Report.NoResources, _ = flags.GetBool("no-resources")
	}
	if apply("no-color") {
		cfg.Report.NoColor, _ = flags.GetBool("no-color")
	}
	if apply("json") {
		if structured, _ := flags.GetBool("json"); structured {
			cfg.Output = config.OutputStructured
		} else if configFile, _ := flags.GetString("config"); configFile == "" {
			cfg.Output = config.OutputHuman
		}
	}

	durations := []struct {
		flag   string
		target *config.Duration
	}{
		{"duration", &cfg.Duration},
		{"latency-min", &cfg.Latency.Min},
		{"latency-max", &cfg.Latency.Max},
		{"subscriber-tick", &cfg.Latency.Tick},
		{"monitor-period", &cfg.MonitorPeriod},
	}
	for _, d := range durations {
		if !apply(d.flag) {
			continue
		}
		raw, _ := flags.GetString(d.flag)
		parsed, err := config.ParseDurationString(raw)
		if err != nil {
			return fmt.Errorf("invalid --%s %q: %w", d.flag, raw, err)
		}
		*d.target = config.Duration(parsed)
	}

	var err error
	if apply("message-size") {
		raw, _ := flags.GetString("message-size")
		if cfg.MessageProfile, err = config.ParseMessageProfile(raw); err != nil {
			return fmt.Errorf("invalid --message-size: %w", err)
		}
	}
	if apply("format") {
		raw, _ := flags.GetString("format")
		if cfg.Format, err = config.ParseFormat(raw); err != nil {
			return fmt.Errorf("invalid --format: %w", err)
		}
	}
	if apply("transport") {
		raw, _ := flags.GetString("transport")
		kind, err := config.ParseTransport(raw)
		if err != nil {
			return fmt.Errorf("invalid --transport: %w", err)
		}
		if kind != cfg.Transport.Kind && !flags.Changed("broker") {
			// The broker default belongs to the previous transport.
			cfg.Transport.Broker = config.DefaultBroker(kind)
		}
		cfg.Transport.Kind = kind
	}
	if apply("pacing") {
		raw, _ := flags.GetString("pacing")
		if cfg.Pacing, err = config.ParsePacing(raw); err != nil {
			return fmt.Errorf("invalid --pacing: %w", err)
		}
	}
	if apply("latency-mode") {
		raw, _ := flags.GetString("latency-mode")
		if cfg.Latency.Mode, err = config.ParseLatencyMode(raw); err != nil {
			return fmt.Errorf("invalid --latency-mode: %w", err)
		}
	}
	return nil
}
