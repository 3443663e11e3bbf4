// Package latency collects latency samples from many goroutines and
// summarizes them as nearest-rank percentiles.
package latency

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Tracker aggregates latency samples into sharded HDR histograms.
//
// Samples are truncated to whole microseconds and clamped to the configured
// range, so the resolution floor is HistogramMin (1µs by default): any sample
// below it, including sub-microsecond in-process deliveries, reports as 1µs.
// Percentiles are computed from the merged bucket distribution with the
// nearest-rank method, reporting the upper bound of the bucket that holds
// rank ceil(q*n).
//
// # Thread Safety
//
// Record, Recorder and Snapshot are safe for concurrent use. Writers take a
// shared barrier plus one shard lock; Snapshot takes the barrier exclusively,
// so every snapshot sees a prefix of the samples whose Record call returned.
type Tracker struct {
	name   string
	config TrackerConfig

	barrier sync.RWMutex
	shards  []*shard
	next    atomic.Uint32
}

type shard struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram
}

// TrackerConfig contains configuration for a Tracker.
type TrackerConfig struct {
	// Shards is the number of independent histograms (default: 16)
	Shards int

	// HistogramMin is the minimum recordable value in microseconds (default: 1)
	HistogramMin int64

	// HistogramMax is the maximum recordable value in microseconds (default: 3600000000 = 1 hour)
	HistogramMax int64

	// HistogramSigFigs is the number of significant figures (default: 3)
	HistogramSigFigs int

	// RecorderBuffer is the number of samples a Recorder holds before flushing (default: 256)
	RecorderBuffer int
}

// DefaultTrackerConfig returns the default configuration.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		Shards:           16,
		HistogramMin:     1,
		HistogramMax:     3600000000,
		HistogramSigFigs: 3,
		RecorderBuffer:   256,
	}
}

// NewTracker creates a tracker with the default configuration.
func NewTracker(name string) *Tracker {
	return NewTrackerWithConfig(name, DefaultTrackerConfig())
}

// NewTrackerWithConfig creates a tracker with a custom configuration.
func NewTrackerWithConfig(name string, config TrackerConfig) *Tracker {
	def := DefaultTrackerConfig()
	if config.Shards <= 0 {
		config.Shards = def.Shards
	}
	if config.HistogramMin <= 0 {
		config.HistogramMin = def.HistogramMin
	}
	if config.HistogramMax <= config.HistogramMin {
		config.HistogramMax = def.HistogramMax
	}
	if config.HistogramSigFigs < 1 || config.HistogramSigFigs > 5 {
		config.HistogramSigFigs = def.HistogramSigFigs
	}
	if config.RecorderBuffer <= 0 {
		config.RecorderBuffer = def.RecorderBuffer
	}

	t := &Tracker{
		name:   name,
		config: config,
		shards: make([]*shard, config.Shards),
	}
	for i := range t.shards {
		t.shards[i] = &shard{hist: t.newHistogram()}
	}
	return t
}

// Name returns the tracker name.
func (t *Tracker) Name() string {
	return t.name
}

func (t *Tracker) newHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(t.config.HistogramMin, t.config.HistogramMax, t.config.HistogramSigFigs)
}

// clamp truncates a duration to microseconds and bounds it to the histogram
// range.
func (t *Tracker) clamp(d time.Duration) int64 {
	us := d.Microseconds()
	if us < t.config.HistogramMin {
		us = t.config.HistogramMin
	}
	if us > t.config.HistogramMax {
		us = t.config.HistogramMax
	}
	return us
}

// pick spreads writers over the shards round-robin.
func (t *Tracker) pick() *shard {
	return t.shards[int(t.next.Add(1)-1)%len(t.shards)]
}

// Record records a single latency sample.
func (t *Tracker) Record(d time.Duration) {
	us := t.clamp(d)

	t.barrier.RLock()
	s := t.pick()
	s.mu.Lock()
	// Cannot fail: us is clamped to the histogram range.
	_ = s.hist.RecordValue(us)
	s.mu.Unlock()
	t.barrier.RUnlock()
}

// recordBatch records already clamped samples into one shard.
func (t *Tracker) recordBatch(values []int64) {
	if len(values) == 0 {
		return
	}

	t.barrier.RLock()
	s := t.pick()
	s.mu.Lock()
	for _, v := range values {
		_ = s.hist.RecordValue(v)
	}
	s.mu.Unlock()
	t.barrier.RUnlock()
}

// Count returns the number of samples recorded so far.
func (t *Tracker) Count() int64 {
	t.barrier.RLock()
	defer t.barrier.RUnlock()

	var n int64
	for _, s := range t.shards {
		s.mu.Lock()
		n += s.hist.TotalCount()
		s.mu.Unlock()
	}
	return n
}

// merged returns a fresh histogram holding every recorded sample.
func (t *Tracker) merged() *hdrhistogram.Histogram {
	t.barrier.Lock()
	defer t.barrier.Unlock()

	out := t.newHistogram()
	for _, s := range t.shards {
		out.Merge(s.hist)
	}
	return out
}

// Snapshot returns the latency statistics of every sample recorded so far.
//
// Samples still buffered in an unflushed Recorder are not included.
func (t *Tracker) Snapshot() Statistics {
	return statisticsOf(t.merged())
}

// Reset discards every recorded sample.
func (t *Tracker) Reset() {
	t.barrier.Lock()
	defer t.barrier.Unlock()

	for _, s := range t.shards {
		s.hist.Reset()
	}
}

// statisticsOf computes nearest-rank statistics from a histogram.
func statisticsOf(h *hdrhistogram.Histogram) Statistics {
	n := h.TotalCount()
	if n == 0 {
		return Statistics{}
	}

	bars := h.Distribution()
	q := []float64{0.50, 0.95, 0.99, 0.999, 1.0}
	v := make([]time.Duration, len(q))

	var cum int64
	next := 0
	for _, bar := range bars {
		if bar.Count == 0 {
			continue
		}
		cum += bar.Count
		for next < len(q) && cum >= rank(q[next], n) {
			v[next] = time.Duration(bar.To) * time.Microsecond
			next++
		}
		if next == len(q) {
			break
		}
	}

	return Statistics{
		P50:   v[0],
		P95:   v[1],
		P99:   v[2],
		P999:  v[3],
		Max:   v[4],
		Count: n,
	}
}

// rank returns the 1-based nearest rank ceil(q*n), at least 1.
func rank(q float64, n int64) int64 {
	// Subtract a hair so that 0.5*4 stays 2 despite float error.
	r := int64(math.Ceil(q*float64(n) - 1e-9))
	if r < 1 {
		r = 1
	}
	if r > n {
		r = n
	}
	return r
}
