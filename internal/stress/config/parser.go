package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults used by ApplyDefaults and the CLI flags.
const (
	DefaultPublishers     = 10
	DefaultSubscribers    = 10
	DefaultRateHz         = 100
	DefaultDuration       = 30 * time.Second
	DefaultTopicFanOut    = 10
	DefaultTopicBase      = "stress_topic"
	DefaultMonitorPeriod  = 5 * time.Second
	DefaultLatencyMin     = time.Microsecond
	DefaultLatencyMax     = 50 * time.Microsecond
	DefaultSubscriberTick = time.Millisecond
	DefaultConnectTimeout = 5 * time.Second
	DefaultRedisBroker    = "localhost:6379"
	DefaultMQTTBroker     = "tcp://localhost:1883"
)

// ErrUnknownValue is wrapped by every enum parse failure.
var ErrUnknownValue = errors.New("unknown value")

// Default returns a configuration populated with every default.
func Default() *RunConfig {
	cfg := &RunConfig{
		PublisherCount:  DefaultPublishers,
		SubscriberCount: DefaultSubscribers,
		RateHz:          DefaultRateHz,
		Duration:        Duration(DefaultDuration),
	}
	ApplyDefaults(cfg)
	return cfg
}

// LoadConfig loads a run configuration from a file.
//
// The file format is determined by extension:
//   - .yaml, .yml -> YAML
//   - .json -> JSON
func LoadConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data, path)
}

// ParseConfig parses configuration data on top of the defaults.
//
// The format is determined by the file extension in path, or defaults to YAML
// if the path is empty or has an unknown extension.
func ParseConfig(data []byte, path string) (*RunConfig, error) {
	config := Default()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config (unknown format %s): %w", ext, err)
		}
	}

	ApplyDefaults(config)
	return config, nil
}

// ApplyDefaults fills zero-valued optional fields.
//
// Counts, rate and duration are left alone so that Validate can report them.
func ApplyDefaults(c *RunConfig) {
	if c.TopicFanOut == 0 {
		c.TopicFanOut = DefaultTopicFanOut
	}
	if c.TopicBase == "" {
		c.TopicBase = DefaultTopicBase
	}
	if c.MessageProfile == "" {
		c.MessageProfile = ProfileSmall
	}
	if c.Format == "" {
		c.Format = FormatCompactBinary
	}
	if c.Output == "" {
		c.Output = OutputHuman
	}
	if c.Transport.Kind == "" {
		c.Transport.Kind = TransportMemory
	}
	if c.Transport.Broker == "" {
		c.Transport.Broker = DefaultBroker(c.Transport.Kind)
	}
	if c.Transport.ConnectTimeout == 0 {
		c.Transport.ConnectTimeout = Duration(DefaultConnectTimeout)
	}
	if c.Pacing == "" {
		c.Pacing = PacingFixed
	}
	if c.Latency.Mode == "" {
		c.Latency.Mode = LatencySynthetic
	}
	if c.Latency.Min == 0 && c.Latency.Max == 0 {
		c.Latency.Min = Duration(DefaultLatencyMin)
		c.Latency.Max = Duration(DefaultLatencyMax)
	}
	if c.Latency.Tick == 0 {
		c.Latency.Tick = Duration(DefaultSubscriberTick)
	}
	if c.MonitorPeriod == 0 {
		c.MonitorPeriod = Duration(DefaultMonitorPeriod)
	}

	// Accept the long-form aliases in config files.
	if f, err := ParseFormat(string(c.Format)); err == nil {
		c.Format = f
	}
	switch strings.ToLower(string(c.Output)) {
	case "human", "human-readable", "text":
		c.Output = OutputHuman
	case "json", "structured":
		c.Output = OutputStructured
	}
}

// DefaultBroker returns the local broker address for a transport kind, or ""
// when the kind needs none.
func DefaultBroker(kind Transport) string {
	switch kind {
	case TransportRedis:
		return DefaultRedisBroker
	case TransportMQTT:
		return DefaultMQTTBroker
	}
	return ""
}

// ParseDurationString parses a duration string with support for common formats.
//
// Supported formats:
//   - Standard Go duration: "30s", "2m", "1h30m", "500ms"
//   - Seconds as integer: "30" (treated as 30 seconds)
func ParseDurationString(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(s)
	if err == nil {
		return d, nil
	}

	var seconds int
	if _, err := fmt.Sscanf(s, "%d", &seconds); err == nil && fmt.Sprint(seconds) == s {
		return time.Duration(seconds) * time.Second, nil
	}

	return 0, fmt.Errorf("invalid duration format: %s", s)
}

// ParseMessageProfile accepts small, medium or large.
func ParseMessageProfile(s string) (MessageProfile, error) {
	switch p := MessageProfile(strings.ToLower(s)); p {
	case ProfileSmall, ProfileMedium, ProfileLarge:
		return p, nil
	}
	return "", fmt.Errorf("message size %q: %w", s, ErrUnknownValue)
}

// ParseFormat accepts cdr/compact-binary and json/text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "cdr", "compact-binary", "binary":
		return FormatCompactBinary, nil
	case "json", "text":
		return FormatText, nil
	}
	return "", fmt.Errorf("serialization format %q: %w", s, ErrUnknownValue)
}

// ParseTransport accepts memory, redis or mqtt.
func ParseTransport(s string) (Transport, error) {
	switch t := Transport(strings.ToLower(s)); t {
	case TransportMemory, TransportRedis, TransportMQTT:
		return t, nil
	}
	return "", fmt.Errorf("transport %q: %w", s, ErrUnknownValue)
}

// ParsePacing accepts fixed or compensated.
func ParsePacing(s string) (Pacing, error) {
	switch p := Pacing(strings.ToLower(s)); p {
	case PacingFixed, PacingCompensated:
		return p, nil
	}
	return "", fmt.Errorf("pacing %q: %w", s, ErrUnknownValue)
}

// ParseLatencyMode accepts synthetic or measured.
func ParseLatencyMode(s string) (LatencyMode, error) {
	switch m := LatencyMode(strings.ToLower(s)); m {
	case LatencySynthetic, LatencyMeasured:
		return m, nil
	}
	return "", fmt.Errorf("latency mode %q: %w", s, ErrUnknownValue)
}
