// Package report turns the final state of a stress run into a result record
// and renders it for people and for machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/wesleyorama2/pubstress/internal/stress/config"
	"github.com/wesleyorama2/pubstress/internal/stress/latency"
	"github.com/wesleyorama2/pubstress/internal/stress/monitor"
	"github.com/wesleyorama2/pubstress/internal/stress/resource"
)

// Result is the immutable outcome of one run.
type Result struct {
	RunID     string
	StartedAt time.Time
	Config    config.RunConfig
	Transport string

	TotalMessages    uint64
	MessagesReceived uint64
	Elapsed          time.Duration
	Throughput       float64

	Latency   latency.Statistics
	Resources resource.Summary

	// Series holds the monitor intervals, oldest first.
	Series []monitor.Sample
}

// Throughput returns messages per second, or 0 when no time has elapsed.
func Throughput(messages uint64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(messages) / elapsed.Seconds()
}

// LatencyMicros is the latency block of the structured output.
type LatencyMicros struct {
	P50  float64 `json:"p50"`
	P95  float64 `json:"p95"`
	P99  float64 `json:"p99"`
	P999 float64 `json:"p999"`
	Max  float64 `json:"max"`
}

// Structured is the machine-readable result object. Its field set is a
// stable contract; see ResultSchema.
type Structured struct {
	TotalMessages uint64        `json:"total_messages"`
	DurationSecs  float64       `json:"duration_secs"`
	Throughput    float64       `json:"throughput_msg_per_sec"`
	LatencyUS     LatencyMicros `json:"latency_us"`
	CPUPercentAvg float64       `json:"cpu_percent_avg"`
	MemoryMBPeak  float64       `json:"memory_mb_peak"`
}

// Structured projects the result onto the structured output contract.
func (r *Result) Structured() Structured {
	return Structured{
		TotalMessages: r.TotalMessages,
		DurationSecs:  r.Elapsed.Seconds(),
		Throughput:    r.Throughput,
		LatencyUS: LatencyMicros{
			P50:  latency.Micros(r.Latency.P50),
			P95:  latency.Micros(r.Latency.P95),
			P99:  latency.Micros(r.Latency.P99),
			P999: latency.Micros(r.Latency.P999),
			Max:  latency.Micros(r.Latency.Max),
		},
		CPUPercentAvg: r.Resources.CPUPercentAvg,
		MemoryMBPeak:  r.Resources.MemoryMBPeak,
	}
}

// WriteJSON writes the structured object, pretty-printed, followed by a
// newline.
func WriteJSON(w io.Writer, r *Result) error {
	data, err := json.MarshalIndent(r.Structured(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
