package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/pubstress/internal/stress/config"
	"github.com/wesleyorama2/pubstress/internal/stress/monitor"
	"github.com/wesleyorama2/pubstress/internal/stress/transport"
)

func testConfig(publishers, subscribers int, duration time.Duration) *config.RunConfig {
	cfg := config.Default()
	cfg.PublisherCount = publishers
	cfg.SubscriberCount = subscribers
	cfg.Duration = config.Duration(duration)
	cfg.MonitorPeriod = config.Duration(100 * time.Millisecond)
	cfg.Report.NoResources = true
	return cfg
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	cfg := testConfig(1, 1, time.Second)
	cfg.RateHz = 0
	cfg.Duration = 0

	_, err := NewEngine(cfg, Options{})
	require.Error(t, err)

	var verrs *config.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs.Errors, 2)
}

func TestEngine_ZeroWorkers(t *testing.T) {
	eng, err := NewEngine(testConfig(0, 0, 50*time.Millisecond), Options{})
	require.NoError(t, err)

	result, err := eng.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(0), result.TotalMessages)
	assert.Equal(t, uint64(0), result.MessagesReceived)
	assert.Equal(t, 0.0, result.Throughput)
	assert.Zero(t, result.Latency.P50)
	assert.Zero(t, result.Latency.P99)
	assert.Zero(t, result.Latency.Max)
	assert.Equal(t, int64(0), result.Latency.Count)
}

func TestEngine_Run(t *testing.T) {
	var (
		mu      sync.Mutex
		samples []monitor.Sample
	)
	reporter := monitor.ReporterFunc(func(s monitor.Sample) {
		mu.Lock()
		samples = append(samples, s)
		mu.Unlock()
	})

	cfg := testConfig(4, 4, 350*time.Millisecond)
	eng, err := NewEngine(cfg, Options{Reporter: reporter})
	require.NoError(t, err)

	result, err := eng.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.False(t, result.StartedAt.IsZero())
	assert.Equal(t, "memory", result.Transport)

	assert.Greater(t, result.TotalMessages, uint64(0))
	assert.Greater(t, result.MessagesReceived, uint64(0))
	assert.GreaterOrEqual(t, result.Elapsed, 350*time.Millisecond)

	s := result.Structured()
	assert.InDelta(t, float64(s.TotalMessages)/s.DurationSecs, s.Throughput, 1e-6)

	assert.True(t, result.Latency.Ordered())
	assert.Equal(t, int64(result.MessagesReceived), result.Latency.Count)
	assert.LessOrEqual(t, result.Latency.Max, config.DefaultLatencyMax)

	require.Len(t, result.Series, 3)
	assert.Equal(t, result.Series, samples)

	assert.Equal(t, result.TotalMessages, eng.Counters().Sent.Load())
}

func TestEngine_MeasuredLatency(t *testing.T) {
	cfg := testConfig(2, 2, 200*time.Millisecond)
	cfg.Latency.Mode = config.LatencyMeasured
	cfg.Format = config.FormatText
	cfg.MessageProfile = config.ProfileMedium

	eng, err := NewEngine(cfg, Options{})
	require.NoError(t, err)

	result, err := eng.Run(context.Background())
	require.NoError(t, err)

	// Publishers 0 and 1 feed topics 0 and 1, each with one subscriber.
	// A final publish may land after its subscriber's window closed.
	assert.Greater(t, result.TotalMessages, uint64(0))
	assert.LessOrEqual(t, result.MessagesReceived, result.TotalMessages)
	assert.GreaterOrEqual(t, result.MessagesReceived+2, result.TotalMessages)
	assert.Equal(t, int64(result.MessagesReceived), result.Latency.Count)
	assert.True(t, result.Latency.Ordered())
	assert.Greater(t, result.Latency.Max, time.Duration(0))
}

func TestEngine_FaultInjection(t *testing.T) {
	cfg := testConfig(1, 0, 200*time.Millisecond)
	cfg.RateHz = 1000
	cfg.Transport.FailRatio = 0.5

	eng, err := NewEngine(cfg, Options{})
	require.NoError(t, err)

	result, err := eng.Run(context.Background())
	require.NoError(t, err)

	// Around half the ~200 ticks fail.
	assert.Greater(t, result.TotalMessages, uint64(0))
	assert.Less(t, result.TotalMessages, uint64(180))
}

type panickingTransport struct {
	*transport.Memory
}

func (panickingTransport) Publish(context.Context, string, []byte) error {
	panic("publish exploded")
}

func TestEngine_PublisherPanicsAreAbsorbed(t *testing.T) {
	mem := transport.NewMemory()
	defer mem.Close()

	eng, err := NewEngine(testConfig(2, 1, 100*time.Millisecond), Options{
		Transport: panickingTransport{mem},
	})
	require.NoError(t, err)

	result, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), result.TotalMessages)
	assert.Greater(t, result.MessagesReceived, uint64(0), "synthetic subscribers keep ticking")
}

type failingSubscribe struct {
	*transport.Memory
}

func (failingSubscribe) Subscribe(context.Context, string) (<-chan transport.Delivery, error) {
	return nil, errors.New("no such topic")
}

func TestEngine_SubscribeFailureIsFatal(t *testing.T) {
	mem := transport.NewMemory()
	defer mem.Close()

	cfg := testConfig(1, 1, time.Minute)
	cfg.Latency.Mode = config.LatencyMeasured

	eng, err := NewEngine(cfg, Options{Transport: failingSubscribe{mem}})
	require.NoError(t, err)

	start := time.Now()
	_, err = eng.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such topic")
	assert.Less(t, time.Since(start), time.Second, "fails before any worker starts")
	assert.Equal(t, uint64(0), eng.Counters().Sent.Load())
}

func TestEngine_UnreachableBroker(t *testing.T) {
	cfg := testConfig(1, 1, time.Minute)
	cfg.Transport = config.TransportConfig{
		Kind:           config.TransportRedis,
		Broker:         "127.0.0.1:1",
		ConnectTimeout: config.Duration(200 * time.Millisecond),
	}

	eng, err := NewEngine(cfg, Options{})
	require.NoError(t, err)

	_, err = eng.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect transport")
}

func TestEngine_Interrupted(t *testing.T) {
	eng, err := NewEngine(testConfig(2, 2, time.Minute), Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	result, err := eng.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, result)
}

func TestEngine_ResourceSampling(t *testing.T) {
	cfg := testConfig(1, 1, 150*time.Millisecond)
	cfg.Report.NoResources = false

	eng, err := NewEngine(cfg, Options{SampleInterval: 20 * time.Millisecond})
	require.NoError(t, err)

	result, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.Greater(t, result.Resources.MemoryMBPeak, 0.0)
	assert.Greater(t, result.Resources.Samples, 0)
}
