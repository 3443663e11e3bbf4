package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/pubstress/internal/stress/config"
)

func TestNewFixedRate(t *testing.T) {
	tests := []struct {
		hz       int
		expected time.Duration
	}{
		{100, 10 * time.Millisecond},
		{1000, time.Millisecond},
		{3, 333333 * time.Microsecond},
		{0, 0},
		{-5, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, NewFixedRate(tt.hz).Interval(), "hz=%d", tt.hz)
	}
}

func TestFixedInterval_Wait(t *testing.T) {
	p := NewFixedInterval(20 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Wait(ctx))
	}
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	assert.Less(t, elapsed, 400*time.Millisecond)
}

func TestFixedInterval_NotCompensated(t *testing.T) {
	p := NewFixedInterval(20 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		time.Sleep(10 * time.Millisecond) // tick work
		require.NoError(t, p.Wait(ctx))
	}

	// 3 * (10ms work + 20ms suspend): the work is not deducted.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestFixedInterval_ContextCancel(t *testing.T) {
	p := NewFixedInterval(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)

	// The pacer remains usable after a cancelled wait.
	p.interval = time.Millisecond
	assert.NoError(t, p.Wait(context.Background()))
}

func TestFixedInterval_ZeroInterval(t *testing.T) {
	p := NewFixedInterval(0)
	assert.NoError(t, p.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Wait(ctx), context.Canceled)
}

func TestPacerImplementations(t *testing.T) {
	var _ Pacer = (*FixedInterval)(nil)
	var _ Pacer = (*LeakyBucket)(nil)
}

func TestNew(t *testing.T) {
	fixed, ok := New(config.PacingFixed, 100).(*FixedInterval)
	require.True(t, ok)
	assert.Equal(t, 10*time.Millisecond, fixed.Interval())

	bucket, ok := New(config.PacingCompensated, 100).(*LeakyBucket)
	require.True(t, ok)
	assert.Equal(t, 100.0, bucket.rate)

	_, ok = New("", 100).(*FixedInterval)
	assert.True(t, ok, "unset pacing falls back to fixed")
}

func TestFixedInterval_Stats(t *testing.T) {
	p := NewFixedInterval(2 * time.Millisecond)
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}

	assert.Equal(t, Stats{Ticks: 3, Waited: 6 * time.Millisecond}, p.Stats())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, p.Wait(ctx))
	assert.Equal(t, int64(3), p.Stats().Ticks, "cancelled wait is not a paced tick")
}
