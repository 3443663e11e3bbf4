package rate

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// LeakyBucket schedules ticks at a fixed rate measured from tick start.
//
// Unlike FixedInterval, time spent inside a tick is deducted from the next
// wait, so the achieved rate tracks the target until the worker cannot keep
// up. If the worker falls behind, the next tick starts immediately; missed
// ticks are not replayed.
//
// # Algorithm
//
// The bucket keeps a virtual "drip" time that advances by 1/rate per tick.
// Next returns when the following tick should start; a time in the past
// means "start now".
//
// # Thread Safety
//
// LeakyBucket is safe for concurrent use from multiple goroutines.
//
// # Example
//
//	lb := NewLeakyBucket(100.0) // 100 ticks per second
//
//	for {
//	    publishOne()
//	    if err := lb.Wait(ctx); err != nil {
//	        return
//	    }
//	}
type LeakyBucket struct {
	rate        float64   // Ticks per second
	lastDrip    time.Time // Scheduled start of the last tick
	accumulated float64   // Accumulated ticks, at most one
	mu          sync.Mutex

	totalTicks    atomic.Int64 // Total ticks scheduled
	totalWaitTime atomic.Int64 // Total wait time in nanoseconds
}

// NewLeakyBucket creates a new leaky bucket pacer.
//
// A non-positive rate is treated as 1 tick per second. The first call to
// Next returns one interval after construction.
func NewLeakyBucket(rate float64) *LeakyBucket {
	if rate <= 0 {
		rate = 1.0
	}
	return &LeakyBucket{
		rate:     rate,
		lastDrip: time.Now(),
	}
}

// Next returns when the next tick should start.
func (lb *LeakyBucket) Next() time.Time {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(lb.lastDrip).Seconds()

	// lastDrip is in the future while a scheduled tick has not started yet
	if elapsed < 0 {
		elapsed = 0
	}

	lb.accumulated += elapsed * lb.rate
	if lb.accumulated > 1.0 {
		lb.accumulated = 1.0
	}

	if lb.accumulated >= 1.0 {
		lb.accumulated -= 1.0
		lb.lastDrip = now
		lb.totalTicks.Add(1)
		return now
	}

	deficit := 1.0 - lb.accumulated
	waitSeconds := deficit / lb.rate
	lb.accumulated = 0

	// Ticks already scheduled ahead of now queue up behind each other.
	base := now
	if lb.lastDrip.After(now) {
		base = lb.lastDrip
	}
	nextTime := base.Add(time.Duration(waitSeconds * float64(time.Second)))

	// Anchor at nextTime, not now; otherwise waking at nextTime would find a
	// full tick already accumulated and run an extra one.
	lb.lastDrip = nextTime

	lb.totalTicks.Add(1)
	lb.totalWaitTime.Add(int64(nextTime.Sub(now)))

	return nextTime
}

// Wait blocks until the next tick should start or ctx is done.
func (lb *LeakyBucket) Wait(ctx context.Context) error {
	nextTime := lb.Next()

	waitDuration := time.Until(nextTime)
	if waitDuration <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(waitDuration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Stats returns the ticks scheduled and the total wait handed out.
func (lb *LeakyBucket) Stats() Stats {
	return Stats{
		Ticks:  lb.totalTicks.Load(),
		Waited: time.Duration(lb.totalWaitTime.Load()),
	}
}
