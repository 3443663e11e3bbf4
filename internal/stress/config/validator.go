package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// Validate validates the run configuration.
//
// Returns nil if valid, or a *ValidationErrors containing all validation errors.
func (c *RunConfig) Validate() error {
	errs := &ValidationErrors{}

	if c.PublisherCount < 0 {
		errs.Add("publishers", "publishers must not be negative")
	}
	if c.SubscriberCount < 0 {
		errs.Add("subscribers", "subscribers must not be negative")
	}
	if c.RateHz <= 0 {
		errs.Add("rate", "rate must be greater than 0")
	} else if c.RateHz > 1_000_000 {
		errs.Add("rate", "rate must not exceed 1000000 Hz")
	}
	if c.Duration <= 0 {
		errs.Add("duration", "duration must be greater than 0")
	}
	if c.TopicFanOut <= 0 {
		errs.Add("topics", "topics must be greater than 0")
	}
	if strings.TrimSpace(c.TopicBase) == "" {
		errs.Add("topicBase", "topic base name is required")
	}

	if _, err := ParseMessageProfile(string(c.MessageProfile)); err != nil {
		errs.Add("messageSize", err.Error())
	}
	if _, err := ParseFormat(string(c.Format)); err != nil {
		errs.Add("format", err.Error())
	}
	if c.Output != OutputHuman && c.Output != OutputStructured {
		errs.Add("output", fmt.Sprintf("unknown output mode: %s", c.Output))
	}
	if _, err := ParsePacing(string(c.Pacing)); err != nil {
		errs.Add("pacing", err.Error())
	}
	if c.MonitorPeriod <= 0 {
		errs.Add("monitorPeriod", "monitor period must be greater than 0")
	}

	validateTransport(&c.Transport, errs)
	validateLatency(&c.Latency, errs)

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// validateTransport validates the adapter selection and address.
func validateTransport(t *TransportConfig, errs *ValidationErrors) {
	kind, err := ParseTransport(string(t.Kind))
	if err != nil {
		errs.Add("transport.kind", err.Error())
		return
	}

	if t.FailRatio < 0 || t.FailRatio >= 1 {
		errs.Add("transport.failRatio", "fail ratio must be in [0, 1)")
	}
	if t.FailRatio > 0 && kind != TransportMemory {
		errs.Add("transport.failRatio", "fault injection is only supported by the memory transport")
	}

	switch kind {
	case TransportRedis:
		if t.Broker == "" || strings.Contains(t.Broker, "://") {
			errs.Add("transport.broker", "redis broker must be host:port")
		}
	case TransportMQTT:
		u, err := url.Parse(t.Broker)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs.Add("transport.broker", "mqtt broker must be a URL such as tcp://host:1883")
		}
	}
}

// validateLatency validates subscriber latency sampling.
func validateLatency(l *LatencyConfig, errs *ValidationErrors) {
	if _, err := ParseLatencyMode(string(l.Mode)); err != nil {
		errs.Add("latency.mode", err.Error())
	}
	if l.Min <= 0 {
		errs.Add("latency.min", "minimum latency must be greater than 0")
	}
	if l.Max <= l.Min {
		errs.Add("latency.max", "maximum latency must be greater than the minimum")
	}
	if l.Tick <= 0 {
		errs.Add("latency.tick", "subscriber tick must be greater than 0")
	}
}
