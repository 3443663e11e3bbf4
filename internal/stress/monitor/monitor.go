// Package monitor reports run progress at a fixed period.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/wesleyorama2/pubstress/internal/stress/worker"
)

// DefaultMaxSamples bounds the recorded interval series.
const DefaultMaxSamples = 4096

// Sample is one progress interval.
type Sample struct {
	// Elapsed is the time since the monitor started.
	Elapsed     time.Duration `json:"elapsed"`
	Sent        uint64        `json:"sent"`
	Received    uint64        `json:"received"`
	SendRate    float64       `json:"sendRate"`
	ReceiveRate float64       `json:"receiveRate"`
}

// Reporter receives every sample as it is taken.
type Reporter interface {
	Progress(Sample)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Sample)

// Progress implements Reporter.
func (f ReporterFunc) Progress(s Sample) { f(s) }

// Options configures a Monitor.
type Options struct {
	Period   time.Duration
	Duration time.Duration
	// MaxSamples caps the stored series; later samples are still reported
	// but not kept. Zero means DefaultMaxSamples.
	MaxSamples int
}

// Monitor samples the shared counters every period for
// floor(Duration / Period) ticks. It only reads shared state.
type Monitor struct {
	counters *worker.Counters
	opts     Options
	reporter Reporter

	mu     sync.Mutex
	series []Sample
}

// New creates a monitor. reporter may be nil.
func New(counters *worker.Counters, opts Options, reporter Reporter) *Monitor {
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = DefaultMaxSamples
	}
	return &Monitor{counters: counters, opts: opts, reporter: reporter}
}

// Ticks returns how many samples a full run takes.
func (m *Monitor) Ticks() int {
	if m.opts.Period <= 0 {
		return 0
	}
	return int(m.opts.Duration / m.opts.Period)
}

// Run takes Ticks samples and returns. It returns ctx.Err() if interrupted.
func (m *Monitor) Run(ctx context.Context) error {
	ticks := m.Ticks()
	if ticks == 0 {
		return nil
	}

	ticker := time.NewTicker(m.opts.Period)
	defer ticker.Stop()

	start := time.Now()
	last := start
	var lastSent, lastReceived uint64

	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			sent := m.counters.Sent.Load()
			received := m.counters.Received.Load()
			interval := now.Sub(last)

			s := Sample{
				Elapsed:     now.Sub(start),
				Sent:        sent,
				Received:    received,
				SendRate:    Rate(sent-lastSent, interval),
				ReceiveRate: Rate(received-lastReceived, interval),
			}
			m.record(s)

			last, lastSent, lastReceived = now, sent, received
		}
	}
	return nil
}

func (m *Monitor) record(s Sample) {
	m.mu.Lock()
	if len(m.series) < m.opts.MaxSamples {
		m.series = append(m.series, s)
	}
	m.mu.Unlock()

	if m.reporter != nil {
		m.reporter.Progress(s)
	}
}

// Series returns a copy of the samples taken so far.
func (m *Monitor) Series() []Sample {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Sample, len(m.series))
	copy(out, m.series)
	return out
}

// Rate returns delta per second over interval, or 0 for an empty interval.
func Rate(delta uint64, interval time.Duration) float64 {
	if interval <= 0 {
		return 0
	}
	return float64(delta) / interval.Seconds()
}
