package transport

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/pubstress/internal/stress/config"
)

func receive(t *testing.T, ch <-chan Delivery) Delivery {
	t.Helper()
	select {
	case d, ok := <-ch:
		require.True(t, ok, "subscription closed unexpectedly")
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}
	return Delivery{}
}

func waitClosed(t *testing.T, ch <-chan Delivery) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscription was not closed")
		}
	}
}

func TestMemory_DeliversToEverySubscriber(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := m.Subscribe(ctx, "stress_topic_1")
	require.NoError(t, err)
	b, err := m.Subscribe(ctx, "stress_topic_1")
	require.NoError(t, err)
	other, err := m.Subscribe(ctx, "stress_topic_2")
	require.NoError(t, err)

	require.NoError(t, m.Publish(ctx, "stress_topic_1", []byte("hello")))

	for _, ch := range []<-chan Delivery{a, b} {
		d := receive(t, ch)
		assert.Equal(t, "stress_topic_1", d.Topic)
		assert.Equal(t, []byte("hello"), d.Data)
		assert.False(t, d.ReceivedAt.IsZero())
	}

	select {
	case d := <-other:
		t.Fatalf("unexpected delivery on other topic: %+v", d)
	default:
	}

	assert.Equal(t, int64(1), m.Published())
	assert.Equal(t, int64(0), m.Dropped())
}

func TestMemory_PublishWithoutSubscribers(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	require.NoError(t, m.Publish(context.Background(), "nobody", []byte("x")))
	assert.Equal(t, int64(1), m.Published())
}

func TestMemory_CancelClosesSubscription(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := m.Subscribe(ctx, "t")
	require.NoError(t, err)

	cancel()
	waitClosed(t, ch)

	// Publishing after the subscriber left must not panic or block.
	require.NoError(t, m.Publish(context.Background(), "t", []byte("late")))
}

func TestMemory_DropsWhenBufferFull(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := m.Subscribe(ctx, "t")
	require.NoError(t, err)

	for i := 0; i < DeliveryBuffer+10; i++ {
		require.NoError(t, m.Publish(ctx, "t", nil))
	}

	assert.Equal(t, int64(DeliveryBuffer+10), m.Published())
	assert.Equal(t, int64(10), m.Dropped())
}

func TestMemory_Close(t *testing.T) {
	m := NewMemory()

	ch, err := m.Subscribe(context.Background(), "t")
	require.NoError(t, err)

	require.NoError(t, m.Close())
	waitClosed(t, ch)

	assert.ErrorIs(t, m.Publish(context.Background(), "t", nil), ErrClosed)
	_, err = m.Subscribe(context.Background(), "t")
	assert.ErrorIs(t, err, ErrClosed)

	// Second close is a no-op.
	assert.NoError(t, m.Close())
}

func TestMemory_PublishHonoursContext(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, m.Publish(ctx, "t", nil), context.Canceled)
	assert.Equal(t, int64(0), m.Published())
}

func TestFaulty_FailsByRoll(t *testing.T) {
	inner := NewMemory()
	defer inner.Close()

	f := NewFaulty(inner, 0.25)
	rolls := []float64{0.1, 0.5, 0.24, 0.25, 0.99}
	i := 0
	f.roll = func() float64 {
		r := rolls[i%len(rolls)]
		i++
		return r
	}

	var failed int
	for range rolls {
		if err := f.Publish(context.Background(), "t", nil); err != nil {
			assert.ErrorIs(t, err, ErrInjected)
			failed++
		}
	}

	assert.Equal(t, 2, failed)
	assert.Equal(t, int64(3), inner.Published())
	assert.Equal(t, "memory+faults", f.Name())
}

func TestNew(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		tr, err := New(context.Background(), config.TransportConfig{Kind: config.TransportMemory})
		require.NoError(t, err)
		defer tr.Close()
		assert.Equal(t, "memory", tr.Name())
	})

	t.Run("empty kind defaults to memory", func(t *testing.T) {
		tr, err := New(context.Background(), config.TransportConfig{})
		require.NoError(t, err)
		defer tr.Close()
		assert.IsType(t, &Memory{}, tr)
	})

	t.Run("fail ratio wraps", func(t *testing.T) {
		tr, err := New(context.Background(), config.TransportConfig{
			Kind:      config.TransportMemory,
			FailRatio: 0.5,
		})
		require.NoError(t, err)
		defer tr.Close()
		assert.IsType(t, &Faulty{}, tr)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := New(context.Background(), config.TransportConfig{Kind: "carrier-pigeon"})
		assert.ErrorIs(t, err, config.ErrUnknownValue)
	})
}

// Broker-backed adapters run only when a broker address is supplied.

func TestRedis_RoundTrip(t *testing.T) {
	addr := os.Getenv("PUBSTRESS_TEST_REDIS")
	if addr == "" {
		t.Skip("PUBSTRESS_TEST_REDIS not set")
	}
	testBrokerRoundTrip(t, config.TransportConfig{Kind: config.TransportRedis, Broker: addr})
}

func TestMQTT_RoundTrip(t *testing.T) {
	broker := os.Getenv("PUBSTRESS_TEST_MQTT")
	if broker == "" {
		t.Skip("PUBSTRESS_TEST_MQTT not set")
	}
	testBrokerRoundTrip(t, config.TransportConfig{Kind: config.TransportMQTT, Broker: broker})
}

func testBrokerRoundTrip(t *testing.T, cfg config.TransportConfig) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr, err := New(ctx, cfg)
	require.NoError(t, err)
	defer tr.Close()

	topic := "pubstress_test_" + time.Now().Format("150405.000000")
	a, err := tr.Subscribe(ctx, topic)
	require.NoError(t, err)
	b, err := tr.Subscribe(ctx, topic)
	require.NoError(t, err)

	require.NoError(t, tr.Publish(ctx, topic, []byte("ping")))

	assert.Equal(t, []byte("ping"), receive(t, a).Data)
	assert.Equal(t, []byte("ping"), receive(t, b).Data)
}
