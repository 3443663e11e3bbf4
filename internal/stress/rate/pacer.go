// Package rate provides tick pacing for rate-controlled workers.
package rate

import (
	"context"
	"time"

	"github.com/wesleyorama2/pubstress/internal/stress/config"
)

// Pacer suspends a worker between ticks.
//
// Wait is called once at the end of every tick. Implementations must yield
// the goroutine while suspended and return ctx.Err() if the context ends
// first.
type Pacer interface {
	Wait(ctx context.Context) error
	Stats() Stats
}

// Stats summarizes what a pacer has done so far.
type Stats struct {
	// Ticks is the number of Wait calls that paced a tick.
	Ticks int64 `json:"ticks"`
	// Waited is the total suspend time handed out.
	Waited time.Duration `json:"waited"`
}

// FixedInterval suspends for the same interval after every tick.
//
// The interval is not shortened by the time spent inside the tick, so the
// achieved rate drifts below 1/interval whenever tick work is not free.
// This is the harness default and matches a plain sleep-per-tick loop.
type FixedInterval struct {
	interval time.Duration
	timer    *time.Timer
	stats    Stats
}

// NewFixedInterval creates a fixed pacer. A non-positive interval never waits.
func NewFixedInterval(interval time.Duration) *FixedInterval {
	return &FixedInterval{interval: interval}
}

// NewFixedRate creates a fixed pacer for a rate in Hz.
//
// The interval is 1_000_000 / hz microseconds, truncated.
func NewFixedRate(hz int) *FixedInterval {
	if hz <= 0 {
		return NewFixedInterval(0)
	}
	return NewFixedInterval(time.Duration(1_000_000/hz) * time.Microsecond)
}

// Interval returns the suspend interval.
func (f *FixedInterval) Interval() time.Duration {
	return f.interval
}

// Wait suspends for the interval or until ctx is done.
//
// Not safe for concurrent use; each worker owns its pacer.
func (f *FixedInterval) Wait(ctx context.Context) error {
	if f.interval <= 0 {
		f.stats.Ticks++
		return ctx.Err()
	}

	if f.timer == nil {
		f.timer = time.NewTimer(f.interval)
	} else {
		f.timer.Reset(f.interval)
	}

	select {
	case <-ctx.Done():
		// Reset discards any stale tick (Go 1.23 timer semantics).
		f.timer.Stop()
		return ctx.Err()
	case <-f.timer.C:
		f.stats.Ticks++
		f.stats.Waited += f.interval
		return nil
	}
}

// Stats returns the ticks paced so far. Like Wait, it belongs to the owning
// worker.
func (f *FixedInterval) Stats() Stats {
	return f.stats
}

// New returns the pacer for a pacing mode at hz ticks per second.
func New(pacing config.Pacing, hz int) Pacer {
	if pacing == config.PacingCompensated {
		return NewLeakyBucket(float64(hz))
	}
	return NewFixedRate(hz)
}
