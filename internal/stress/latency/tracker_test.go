package latency

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTracker(t *testing.T) {
	tracker := NewTracker("stress_test")
	require.NotNil(t, tracker)

	assert.Equal(t, "stress_test", tracker.Name())
	assert.Equal(t, int64(0), tracker.Count())

	stats := tracker.Snapshot()
	assert.Equal(t, Statistics{}, stats, "empty tracker should report zero statistics")
}

func TestTracker_NearestRankExample(t *testing.T) {
	tracker := NewTracker("example")

	for _, us := range []int{10, 20, 30, 40, 100} {
		tracker.Record(time.Duration(us) * time.Microsecond)
	}

	stats := tracker.Snapshot()
	assert.Equal(t, int64(5), stats.Count)
	assert.Equal(t, 30*time.Microsecond, stats.P50, "rank ceil(0.5*5)=3 is the 3rd value")
	assert.Equal(t, 100*time.Microsecond, stats.P95)
	assert.Equal(t, 100*time.Microsecond, stats.P99)
	assert.Equal(t, 100*time.Microsecond, stats.P999)
	assert.Equal(t, 100*time.Microsecond, stats.Max)
}

func TestTracker_ExactRanks(t *testing.T) {
	tracker := NewTracker("ranks")

	// 1..1000 µs, each once; values below 2048 fall in unit-width buckets.
	for i := 1; i <= 1000; i++ {
		tracker.Record(time.Duration(i) * time.Microsecond)
	}

	stats := tracker.Snapshot()
	assert.Equal(t, int64(1000), stats.Count)
	assert.Equal(t, 500*time.Microsecond, stats.P50)
	assert.Equal(t, 950*time.Microsecond, stats.P95)
	assert.Equal(t, 990*time.Microsecond, stats.P99)
	assert.Equal(t, 999*time.Microsecond, stats.P999)
	assert.Equal(t, 1000*time.Microsecond, stats.Max)
}

func TestTracker_BucketUpperBound(t *testing.T) {
	tracker := NewTracker("wide")

	// Above 2048µs buckets are wider than 1µs; the reported value is the
	// bucket's upper bound and therefore never below the sample.
	tracker.Record(123456 * time.Microsecond)

	stats := tracker.Snapshot()
	assert.GreaterOrEqual(t, stats.P50, 123456*time.Microsecond)
	assert.InDelta(t, 123456.0, Micros(stats.P50), 123456.0*0.001)
	assert.Equal(t, stats.P50, stats.Max)
}

func TestTracker_Clamping(t *testing.T) {
	tracker := NewTracker("clamp")

	tracker.Record(0)
	tracker.Record(-5 * time.Second)
	tracker.Record(200 * time.Nanosecond)
	tracker.Record(1999 * time.Nanosecond)

	stats := tracker.Snapshot()
	assert.Equal(t, int64(4), stats.Count)
	assert.Equal(t, time.Microsecond, stats.P50, "sub-microsecond samples floor at 1µs")
	assert.Equal(t, time.Microsecond, stats.Max, "samples truncate to whole microseconds")
}

func TestTracker_PercentileOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 20; trial++ {
		tracker := NewTracker("ordering")
		n := 1 + rng.Intn(5000)
		for i := 0; i < n; i++ {
			tracker.Record(time.Duration(1+rng.Int63n(10_000_000)) * time.Microsecond)
		}

		stats := tracker.Snapshot()
		assert.Equal(t, int64(n), stats.Count)
		assert.True(t, stats.Ordered(), "trial %d: %+v", trial, stats)
	}
}

func TestTracker_ConcurrentWriteConsistency(t *testing.T) {
	tracker := NewTracker("concurrent")

	const workers = 32
	const perWorker = 5000

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			rec := tracker.Recorder()
			for i := 0; i < perWorker; i++ {
				if i%2 == 0 {
					tracker.Record(time.Duration(1+i%50) * time.Microsecond)
				} else {
					rec.Record(time.Duration(1+i%50) * time.Microsecond)
				}
			}
			rec.Flush()
		}(w)
	}
	wg.Wait()

	stats := tracker.Snapshot()
	assert.Equal(t, int64(workers*perWorker), stats.Count)
	assert.Equal(t, int64(workers*perWorker), tracker.Count())
	assert.True(t, stats.Ordered())
}

func TestTracker_SnapshotDuringWrites(t *testing.T) {
	tracker := NewTracker("live")

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					tracker.Record(25 * time.Microsecond)
				}
			}
		}()
	}

	var last int64
	for i := 0; i < 50; i++ {
		stats := tracker.Snapshot()
		assert.GreaterOrEqual(t, stats.Count, last, "sample count must never go backwards")
		if stats.Count > 0 {
			assert.Equal(t, 25*time.Microsecond, stats.P50)
			assert.True(t, stats.Ordered())
		}
		last = stats.Count
	}

	close(stop)
	wg.Wait()
}

func TestRecorder_BuffersUntilFlush(t *testing.T) {
	tracker := NewTrackerWithConfig("buffered", TrackerConfig{RecorderBuffer: 4})
	rec := tracker.Recorder()

	rec.Record(10 * time.Microsecond)
	rec.Record(20 * time.Microsecond)
	assert.Equal(t, 2, rec.Pending())
	assert.Equal(t, int64(0), tracker.Count())

	rec.Record(30 * time.Microsecond)
	rec.Record(40 * time.Microsecond)
	assert.Equal(t, 0, rec.Pending(), "full buffer flushes automatically")
	assert.Equal(t, int64(4), tracker.Count())

	rec.Record(50 * time.Microsecond)
	rec.Flush()
	assert.Equal(t, int64(5), tracker.Count())

	// Flushing an empty buffer is a no-op.
	rec.Flush()
	assert.Equal(t, int64(5), tracker.Count())
}

func TestTracker_Reset(t *testing.T) {
	tracker := NewTracker("reset")
	tracker.Record(time.Millisecond)
	require.Equal(t, int64(1), tracker.Count())

	tracker.Reset()
	assert.Equal(t, int64(0), tracker.Count())
	assert.Equal(t, Statistics{}, tracker.Snapshot())
}

func TestRank(t *testing.T) {
	tests := []struct {
		q        float64
		n        int64
		expected int64
	}{
		{0.5, 5, 3},
		{0.5, 4, 2},
		{0.95, 20, 19},
		{0.999, 1000, 999},
		{0.99, 1, 1},
		{1.0, 7, 7},
		{0.0, 7, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, rank(tt.q, tt.n), "rank(%v, %d)", tt.q, tt.n)
	}
}

func BenchmarkTracker_Record(b *testing.B) {
	tracker := NewTracker("bench")
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			tracker.Record(42 * time.Microsecond)
		}
	})
}

func BenchmarkRecorder_Record(b *testing.B) {
	tracker := NewTracker("bench")
	b.RunParallel(func(pb *testing.PB) {
		rec := tracker.Recorder()
		for pb.Next() {
			rec.Record(42 * time.Microsecond)
		}
		rec.Flush()
	})
}
