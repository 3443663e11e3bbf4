package report

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/wesleyorama2/pubstress/internal/stress/config"
	"github.com/wesleyorama2/pubstress/internal/stress/latency"
	"github.com/wesleyorama2/pubstress/internal/stress/monitor"
)

const ruleWidth = 70

// Console renders the human-readable report.
//
// Progress may be called from the monitor goroutine while the main
// goroutine prints, so every method serializes on the writer.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	scheme *ColorScheme
}

// NewConsole creates a console writer. Colors are used only when w is a
// terminal and noColor is false.
func NewConsole(w io.Writer, noColor bool) *Console {
	scheme := NoColorScheme()
	if UseColors(w, noColor) {
		scheme = DefaultColorScheme()
	}
	return NewConsoleWithScheme(w, scheme)
}

// NewConsoleWithScheme creates a console writer with an explicit scheme.
func NewConsoleWithScheme(w io.Writer, scheme *ColorScheme) *Console {
	return &Console{w: w, scheme: scheme}
}

// Banner prints the title and the run configuration.
func (c *Console) Banner(cfg *config.RunConfig, transport string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.scheme
	rule := s.Rule.Sprint(strings.Repeat("=", ruleWidth))
	c.writeln(rule)
	c.writeln(s.Title.Sprint("Pub/Sub Stress Test"))
	c.writeln(rule)
	c.writeln("")

	c.writeln("Configuration:")
	c.writeln("  Publishers:    " + s.Value.Sprint(cfg.PublisherCount))
	c.writeln("  Subscribers:   " + s.Value.Sprint(cfg.SubscriberCount))
	c.writeln("  Rate/pub:      " + s.Value.Sprint(cfg.RateHz) + " Hz")
	c.writeln("  Duration:      " + s.Value.Sprint(formatDuration(cfg.Duration.GetDuration(0))))
	c.writeln("  Message size:  " + s.Value.Sprint(cfg.MessageProfile))
	c.writeln("  Serializer:    " + s.Value.Sprint(cfg.Format))
	c.writeln("  Topics:        " + s.Value.Sprintf("%d x %s_N", cfg.TopicFanOut, cfg.TopicBase))
	c.writeln("  Transport:     " + s.Value.Sprint(transport))
	c.writeln("  Latency:       " + s.Value.Sprint(cfg.Latency.Mode))
	c.writeln("")
}

// Starting announces that workers are being spawned.
func (c *Console) Starting() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writeln(c.scheme.Best.Sprint("Starting stress test..."))
	c.writeln("")
}

// Progress prints one monitor interval. It implements monitor.Reporter.
func (c *Console) Progress(sample monitor.Sample) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.scheme
	c.writeln(fmt.Sprintf("  [%s] Sent: %s (%.0f msg/s) | Received: %s (%.0f msg/s)",
		formatDuration(sample.Elapsed),
		s.Value.Sprint(formatNumber(sample.Sent)),
		sample.SendRate,
		s.Value.Sprint(formatNumber(sample.Received)),
		sample.ReceiveRate))
}

// Complete announces the end of the test window.
func (c *Console) Complete() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writeln("")
	c.writeln(c.scheme.Best.Sprint("Stress test complete!"))
	c.writeln("")
}

// Summary prints the final results and the assessment tiers.
func (c *Console) Summary(r *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.scheme
	c.writeln(s.Title.Sprint("Performance Results:"))
	c.writeln(strings.Repeat("-", ruleWidth))
	c.writeln("")

	c.writeln(s.Heading.Sprint("Throughput:"))
	c.writeln("  Total Messages:  " + s.Value.Sprint(formatNumber(r.TotalMessages)))
	c.writeln(fmt.Sprintf("  Duration:        %.2f seconds", r.Elapsed.Seconds()))
	c.writeln("  Throughput:      " + s.Rate.Sprintf("%.0f", r.Throughput) + " msg/s")
	c.writeln("")

	c.writeln(s.Heading.Sprint("Latency Distribution (microseconds):"))
	c.writeln("  p50  (median):   " + c.micros(r.Latency.P50))
	c.writeln("  p95:             " + c.micros(r.Latency.P95))
	c.writeln("  p99:             " + c.micros(r.Latency.P99))
	c.writeln("  p99.9:           " + c.micros(r.Latency.P999))
	c.writeln("  max:             " + c.micros(r.Latency.Max))
	c.writeln("")

	c.writeln(s.Heading.Sprint("Resource Usage:"))
	c.writeln(fmt.Sprintf("  Avg CPU:         %.1f%%", r.Resources.CPUPercentAvg))
	c.writeln(fmt.Sprintf("  Peak Memory:     %.1f MB", r.Resources.MemoryMBPeak))
	c.writeln("")

	c.writeln(s.Rule.Sprint(strings.Repeat("=", ruleWidth)))
	c.writeln("")

	for _, t := range []Tier{
		ThroughputTier(r.Throughput),
		LatencyTier(latency.Micros(r.Latency.P99)),
	} {
		c.writeln(s.tier(t.Level).Sprint(tierIcon(t.Level) + " " + t.Message))
	}
}

func (c *Console) micros(d time.Duration) string {
	return c.scheme.Value.Sprintf("%.1f", latency.Micros(d)) + " µs"
}

func (c *Console) writeln(s string) {
	fmt.Fprintln(c.w, s)
}

func tierIcon(l Level) string {
	if l == LevelWarn {
		return "⚠"
	}
	return "✓"
}

// formatDuration formats a duration in a human-readable format.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %02ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
}

// formatNumber formats a count with thousands separators.
func formatNumber(n uint64) string {
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	var result strings.Builder
	offset := len(str) % 3
	if offset > 0 {
		result.WriteString(str[:offset])
	}
	for i := offset; i < len(str); i += 3 {
		if result.Len() > 0 {
			result.WriteString(",")
		}
		result.WriteString(str[i : i+3])
	}
	return result.String()
}
