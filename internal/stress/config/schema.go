// Package config provides configuration parsing and validation for a stress run.
package config

import (
	"time"
)

// MessageProfile selects the payload size class of synthetic messages.
type MessageProfile string

const (
	ProfileSmall  MessageProfile = "small"
	ProfileMedium MessageProfile = "medium"
	ProfileLarge  MessageProfile = "large"
)

// Format is the wire serialization handed to the transport.
type Format string

const (
	// FormatCompactBinary is the fixed-layout little-endian encoding ("cdr").
	FormatCompactBinary Format = "cdr"
	// FormatText is the JSON encoding.
	FormatText Format = "json"
)

// OutputMode selects how the final results are rendered.
type OutputMode string

const (
	OutputHuman      OutputMode = "human"
	OutputStructured OutputMode = "json"
)

// Transport names a publish/subscribe adapter.
type Transport string

const (
	TransportMemory Transport = "memory"
	TransportRedis  Transport = "redis"
	TransportMQTT   Transport = "mqtt"
)

// Pacing selects the per-tick rate control of publisher workers.
type Pacing string

const (
	// PacingFixed suspends a fixed interval after every tick.
	PacingFixed Pacing = "fixed"
	// PacingCompensated schedules ticks with a leaky bucket.
	PacingCompensated Pacing = "compensated"
)

// LatencyMode selects how subscriber workers produce latency samples.
type LatencyMode string

const (
	LatencySynthetic LatencyMode = "synthetic"
	LatencyMeasured  LatencyMode = "measured"
)

// RunConfig is the full parameter set of a stress run.
//
// Example YAML:
//
//	publishers: 20
//	subscribers: 20
//	rate: 200
//	duration: 1m
//	topics: 10
//	messageSize: medium
//	format: cdr
//	transport:
//	  kind: redis
//	  broker: localhost:6379
type RunConfig struct {
	// PublisherCount is the number of publisher workers
	PublisherCount int `json:"publishers" yaml:"publishers"`

	// SubscriberCount is the number of subscriber workers
	SubscriberCount int `json:"subscribers" yaml:"subscribers"`

	// RateHz is the target messages per second of each publisher
	RateHz int `json:"rate" yaml:"rate"`

	// Duration is the length of the test window
	Duration Duration `json:"duration" yaml:"duration"`

	// TopicFanOut is the number of distinct topics workers are spread over
	TopicFanOut int `json:"topics,omitempty" yaml:"topics,omitempty"`

	// TopicBase is the prefix of every topic name
	TopicBase string `json:"topicBase,omitempty" yaml:"topicBase,omitempty"`

	MessageProfile MessageProfile `json:"messageSize,omitempty" yaml:"messageSize,omitempty"`
	Format         Format         `json:"format,omitempty" yaml:"format,omitempty"`
	Output         OutputMode     `json:"output,omitempty" yaml:"output,omitempty"`

	Transport TransportConfig `json:"transport,omitempty" yaml:"transport,omitempty"`

	// Pacing is the publisher rate control strategy
	Pacing Pacing `json:"pacing,omitempty" yaml:"pacing,omitempty"`

	Latency LatencyConfig `json:"latency,omitempty" yaml:"latency,omitempty"`

	// MonitorPeriod is the interval between progress lines
	MonitorPeriod Duration `json:"monitorPeriod,omitempty" yaml:"monitorPeriod,omitempty"`

	Report ReportConfig `json:"report,omitempty" yaml:"report,omitempty"`
}

// TransportConfig selects and addresses the publish/subscribe adapter.
type TransportConfig struct {
	Kind Transport `json:"kind,omitempty" yaml:"kind,omitempty"`

	// Broker is the adapter address (host:port for redis, tcp://host:port for mqtt)
	Broker string `json:"broker,omitempty" yaml:"broker,omitempty"`

	// FailRatio injects publish failures in [0, 1)
	FailRatio float64 `json:"failRatio,omitempty" yaml:"failRatio,omitempty"`

	// ConnectTimeout bounds the initial broker connection
	ConnectTimeout Duration `json:"connectTimeout,omitempty" yaml:"connectTimeout,omitempty"`
}

// LatencyConfig controls subscriber latency sampling.
type LatencyConfig struct {
	Mode LatencyMode `json:"mode,omitempty" yaml:"mode,omitempty"`

	// Min and Max bound the synthetic latency distribution
	Min Duration `json:"min,omitempty" yaml:"min,omitempty"`
	Max Duration `json:"max,omitempty" yaml:"max,omitempty"`

	// Tick is the fixed suspend between subscriber ticks
	Tick Duration `json:"tick,omitempty" yaml:"tick,omitempty"`
}

// ReportConfig contains optional outputs besides the console.
type ReportConfig struct {
	HTMLPath    string `json:"html,omitempty" yaml:"html,omitempty"`
	MetricsAddr string `json:"metricsAddr,omitempty" yaml:"metricsAddr,omitempty"`
	NoResources bool   `json:"noResources,omitempty" yaml:"noResources,omitempty"`
	NoColor     bool   `json:"noColor,omitempty" yaml:"noColor,omitempty"`
}

// TickInterval returns the fixed publisher suspend, 1_000_000 / rate µs.
func (c *RunConfig) TickInterval() time.Duration {
	if c.RateHz <= 0 {
		return 0
	}
	return time.Duration(1_000_000/c.RateHz) * time.Microsecond
}

// Duration is a time.Duration that can be unmarshaled from JSON/YAML strings.
//
// Bare integers are read as seconds.
type Duration time.Duration

// GetDuration returns the duration or a default if empty.
func (d Duration) GetDuration(defaultValue time.Duration) time.Duration {
	if d == 0 {
		return defaultValue
	}
	return time.Duration(d)
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	if s == "" || s == "null" {
		*d = 0
		return nil
	}

	dur, err := ParseDurationString(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	if s == "" {
		*d = 0
		return nil
	}

	dur, err := ParseDurationString(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// String returns the duration as a string.
func (d Duration) String() string {
	return time.Duration(d).String()
}
