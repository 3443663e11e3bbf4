package report

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/tidwall/gjson"
)

// Direction tells which way a metric improves.
type Direction int

const (
	HigherIsBetter Direction = iota
	LowerIsBetter
	Neutral
)

// Metric is one comparable field of the structured output.
type Metric struct {
	Name      string
	Path      string // gjson path
	Direction Direction
}

// Metrics lists the fields compared between two structured results.
var Metrics = []Metric{
	{"total messages", "total_messages", HigherIsBetter},
	{"duration (s)", "duration_secs", Neutral},
	{"throughput (msg/s)", "throughput_msg_per_sec", HigherIsBetter},
	{"p50 (µs)", "latency_us.p50", LowerIsBetter},
	{"p95 (µs)", "latency_us.p95", LowerIsBetter},
	{"p99 (µs)", "latency_us.p99", LowerIsBetter},
	{"p99.9 (µs)", "latency_us.p999", LowerIsBetter},
	{"max (µs)", "latency_us.max", LowerIsBetter},
	{"avg cpu (%)", "cpu_percent_avg", LowerIsBetter},
	{"peak memory (MB)", "memory_mb_peak", LowerIsBetter},
}

// ErrMissingField is returned when a compared document lacks a metric.
var ErrMissingField = errors.New("missing field")

// Delta is the change of one metric from baseline to current.
type Delta struct {
	Metric   Metric
	Baseline float64
	Current  float64
	// Percent is the relative change; NaN when the baseline is zero.
	Percent float64
}

// Change returns current minus baseline.
func (d Delta) Change() float64 { return d.Current - d.Baseline }

// Worse reports whether the metric moved in its bad direction by more than
// threshold percent. A zero baseline never counts as a regression.
func (d Delta) Worse(threshold float64) bool {
	if math.IsNaN(d.Percent) {
		return false
	}
	switch d.Metric.Direction {
	case HigherIsBetter:
		return -d.Percent > threshold
	case LowerIsBetter:
		return d.Percent > threshold
	default:
		return false
	}
}

// Compare extracts every metric from two structured result documents.
func Compare(baseline, current []byte) ([]Delta, error) {
	if !gjson.ValidBytes(baseline) {
		return nil, fmt.Errorf("baseline: invalid JSON")
	}
	if !gjson.ValidBytes(current) {
		return nil, fmt.Errorf("current: invalid JSON")
	}

	deltas := make([]Delta, 0, len(Metrics))
	for _, m := range Metrics {
		b := gjson.GetBytes(baseline, m.Path)
		if !b.Exists() {
			return nil, fmt.Errorf("baseline %s: %w", m.Path, ErrMissingField)
		}
		c := gjson.GetBytes(current, m.Path)
		if !c.Exists() {
			return nil, fmt.Errorf("current %s: %w", m.Path, ErrMissingField)
		}

		d := Delta{Metric: m, Baseline: b.Float(), Current: c.Float(), Percent: math.NaN()}
		if d.Baseline != 0 {
			d.Percent = (d.Current - d.Baseline) / math.Abs(d.Baseline) * 100
		}
		deltas = append(deltas, d)
	}
	return deltas, nil
}

// Regressions returns the deltas that are worse by more than threshold
// percent.
func Regressions(deltas []Delta, threshold float64) []Delta {
	var out []Delta
	for _, d := range deltas {
		if d.Worse(threshold) {
			out = append(out, d)
		}
	}
	return out
}

// WriteComparison prints a delta table. Rows worse than threshold percent
// are flagged.
func WriteComparison(w io.Writer, deltas []Delta, threshold float64) error {
	if _, err := fmt.Fprintf(w, "%-20s %14s %14s %10s\n", "metric", "baseline", "current", "change"); err != nil {
		return err
	}
	for _, d := range deltas {
		pct := "n/a"
		if !math.IsNaN(d.Percent) {
			pct = fmt.Sprintf("%+.1f%%", d.Percent)
		}
		flag := ""
		if d.Worse(threshold) {
			flag = "  ⚠ regression"
		}
		if _, err := fmt.Fprintf(w, "%-20s %14.2f %14.2f %10s%s\n",
			d.Metric.Name, d.Baseline, d.Current, pct, flag); err != nil {
			return err
		}
	}
	return nil
}
